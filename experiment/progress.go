// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package experiment

// Progress is the resume position derived from a stored counter.
//
// Verification consumes counter value 1, so while watching a playlist of n
// videos the counter runs from 1 (first video) to n (last video). Confirming
// the last video moves it to n+1, which is the terminal state.
type Progress struct {
	Counter   int  // stored value clamped into [0, n]
	Index     int  // 0-based position of the video to show
	PoolSize  int  // videos already in the ranking pool, current one included
	Completed bool // stored value reached n+1
}

// Clamp coerces a counter into [0, n].
func Clamp(counter, n int) int {
	if counter < 0 {
		return 0
	}
	if counter > n {
		return n
	}
	return counter
}

// ResolveProgress derives the resume position for a playlist of length n.
// Completion is judged on the raw value before clamping.
func ResolveProgress(stored, n int) Progress {
	p := Progress{
		Counter:   Clamp(stored, n),
		Completed: stored >= n+1,
	}
	if n == 0 {
		return p
	}

	idx := p.Counter - 1
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	p.Index = idx
	p.PoolSize = idx + 1
	return p
}
