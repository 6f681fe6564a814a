// Vigil - Insider Threat Detection and Behavioral Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package anomaly

// ConfusionMatrix counts classification outcomes with anomaly as the
// positive class.
type ConfusionMatrix struct {
	TruePositives  int `json:"true_positives"`
	TrueNegatives  int `json:"true_negatives"`
	FalsePositives int `json:"false_positives"`
	FalseNegatives int `json:"false_negatives"`
}

// Evaluation holds classification metrics against known labels. Undefined
// ratios (zero denominators) report as 0.
type Evaluation struct {
	Accuracy  float64         `json:"accuracy"`
	Precision float64         `json:"precision"`
	Recall    float64         `json:"recall"`
	F1        float64         `json:"f1"`
	Confusion ConfusionMatrix `json:"confusion_matrix"`
}

// Evaluate compares predictions against ground-truth labels (true = anomaly).
// The slices must be the same length; Evaluate is for reporting only and
// never feeds back into training.
func Evaluate(labels, predicted []bool) *Evaluation {
	var cm ConfusionMatrix
	for i, actual := range labels {
		switch {
		case actual && predicted[i]:
			cm.TruePositives++
		case actual && !predicted[i]:
			cm.FalseNegatives++
		case !actual && predicted[i]:
			cm.FalsePositives++
		default:
			cm.TrueNegatives++
		}
	}

	e := &Evaluation{Confusion: cm}
	total := len(labels)
	if total > 0 {
		e.Accuracy = float64(cm.TruePositives+cm.TrueNegatives) / float64(total)
	}
	if cm.TruePositives+cm.FalsePositives > 0 {
		e.Precision = float64(cm.TruePositives) / float64(cm.TruePositives+cm.FalsePositives)
	}
	if cm.TruePositives+cm.FalseNegatives > 0 {
		e.Recall = float64(cm.TruePositives) / float64(cm.TruePositives+cm.FalseNegatives)
	}
	if e.Precision+e.Recall > 0 {
		e.F1 = 2 * e.Precision * e.Recall / (e.Precision + e.Recall)
	}
	return e
}
