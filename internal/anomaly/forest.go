// Vigil - Insider Threat Detection and Behavioral Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package anomaly

import (
	"math"
	"math/rand"
	"sort"
)

// eulerMascheroni is used in the expected-path-length correction c(n).
const eulerMascheroni = 0.5772156649

// treeNode is one node of an isolation tree. Leaves have nil children; Size
// records how many training points fell into the node so the path length can
// be corrected by c(Size).
type treeNode struct {
	SplitFeature int       `json:"f"`
	SplitValue   float64   `json:"v"`
	Size         int       `json:"n"`
	Depth        int       `json:"d"`
	Left         *treeNode `json:"l,omitempty"`
	Right        *treeNode `json:"r,omitempty"`
}

// forest is a trained isolation-forest ensemble. Immutable after training,
// safe for concurrent scoring.
type forest struct {
	Trees         []*treeNode `json:"trees"`
	SubsampleSize int         `json:"subsample_size"`

	// Threshold is the ensemble's decision boundary: the (1-contamination)
	// quantile of training scores. Scores at or above it classify as
	// anomalous.
	Threshold float64 `json:"threshold"`
}

// growForest builds numTrees isolation trees over random subsamples and
// calibrates the decision threshold from the expected contamination rate.
func growForest(rows [][]float64, numTrees, subsample int, contamination float64, rng *rand.Rand) *forest {
	if subsample > len(rows) {
		subsample = len(rows)
	}
	maxDepth := int(math.Ceil(math.Log2(float64(subsample)))) + 1

	f := &forest{
		Trees:         make([]*treeNode, numTrees),
		SubsampleSize: subsample,
	}
	for i := 0; i < numTrees; i++ {
		sample := sampleRows(rows, subsample, rng)
		f.Trees[i] = buildTree(sample, 0, maxDepth, rng)
	}

	// Calibrate the decision boundary on the training scores themselves:
	// with contamination c, the top c fraction of training points are
	// expected to be anomalous.
	scores := make([]float64, len(rows))
	for i, row := range rows {
		scores[i] = f.score(row)
	}
	sort.Float64s(scores)
	cut := int(math.Ceil(float64(len(scores)) * (1 - contamination)))
	if cut >= len(scores) {
		cut = len(scores) - 1
	}
	if cut < 0 {
		cut = 0
	}
	f.Threshold = scores[cut]

	return f
}

// sampleRows draws n rows without replacement.
func sampleRows(rows [][]float64, n int, rng *rand.Rand) [][]float64 {
	if n >= len(rows) {
		return rows
	}
	sample := make([][]float64, n)
	for i, idx := range rng.Perm(len(rows))[:n] {
		sample[i] = rows[idx]
	}
	return sample
}

// buildTree recursively isolates points with random axis-aligned splits.
func buildTree(data [][]float64, depth, maxDepth int, rng *rand.Rand) *treeNode {
	n := len(data)
	node := &treeNode{Size: n, Depth: depth}
	if n <= 1 || depth >= maxDepth {
		return node
	}

	width := len(data[0])

	// Pick a feature with spread; give up after trying each once on average.
	for attempt := 0; attempt < width; attempt++ {
		f := rng.Intn(width)
		minVal, maxVal := data[0][f], data[0][f]
		for _, row := range data[1:] {
			if row[f] < minVal {
				minVal = row[f]
			}
			if row[f] > maxVal {
				maxVal = row[f]
			}
		}
		if minVal == maxVal {
			continue
		}

		split := minVal + rng.Float64()*(maxVal-minVal)
		var left, right [][]float64
		for _, row := range data {
			if row[f] < split {
				left = append(left, row)
			} else {
				right = append(right, row)
			}
		}
		if len(left) == 0 || len(right) == 0 {
			continue
		}

		node.SplitFeature = f
		node.SplitValue = split
		node.Left = buildTree(left, depth+1, maxDepth, rng)
		node.Right = buildTree(right, depth+1, maxDepth, rng)
		return node
	}

	// Every sampled feature was constant; the points are indistinguishable.
	return node
}

// score computes the isolation-forest anomaly score s = 2^(-E[h(x)]/c(n)),
// in (0, 1], where higher means more anomalous.
func (f *forest) score(row []float64) float64 {
	var total float64
	for _, tree := range f.Trees {
		total += pathLength(tree, row)
	}
	avg := total / float64(len(f.Trees))

	c := expectedPathLength(float64(f.SubsampleSize))
	if c <= 0 {
		return 0
	}
	return math.Pow(2, -avg/c)
}

// pathLength traverses one tree; leaves add c(Size) for the expected
// remaining depth had isolation continued.
func pathLength(node *treeNode, row []float64) float64 {
	depth := 0.0
	for node.Left != nil && node.Right != nil {
		if row[node.SplitFeature] < node.SplitValue {
			node = node.Left
		} else {
			node = node.Right
		}
		depth++
	}
	if node.Size > 1 {
		depth += expectedPathLength(float64(node.Size))
	}
	return depth
}

// expectedPathLength is c(n) = 2H(n-1) - 2(n-1)/n, the average path length
// of an unsuccessful BST search over n points.
func expectedPathLength(n float64) float64 {
	if n <= 1 {
		return 0
	}
	return 2*(math.Log(n-1)+eulerMascheroni) - 2*(n-1)/n
}
