// Vigil - Insider Threat Detection and Behavioral Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package detection

import "sync"

// RecentBuffer is a fixed-capacity ring of the latest scoring results.
// Writers overwrite the oldest entry once full; memory stays bounded no
// matter how many events flow through the engine.
type RecentBuffer struct {
	mu      sync.RWMutex
	entries []*ScoreResult
	next    int
	full    bool
}

// NewRecentBuffer creates a ring buffer with the given capacity.
func NewRecentBuffer(capacity int) *RecentBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &RecentBuffer{entries: make([]*ScoreResult, capacity)}
}

// Add records a result, evicting the oldest when at capacity.
func (b *RecentBuffer) Add(r *ScoreResult) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[b.next] = r
	b.next++
	if b.next == len(b.entries) {
		b.next = 0
		b.full = true
	}
}

// Snapshot returns the buffered results, newest first.
func (b *RecentBuffer) Snapshot() []*ScoreResult {
	b.mu.RLock()
	defer b.mu.RUnlock()

	size := b.next
	if b.full {
		size = len(b.entries)
	}
	out := make([]*ScoreResult, 0, size)
	for i := 1; i <= size; i++ {
		idx := b.next - i
		if idx < 0 {
			idx += len(b.entries)
		}
		out = append(out, b.entries[idx])
	}
	return out
}

// Len returns the number of buffered results.
func (b *RecentBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.full {
		return len(b.entries)
	}
	return b.next
}
