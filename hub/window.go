package hub

import "time"

// WindowEntry is one timestamped record in a sliding window
type WindowEntry struct {
	// At is when the associated event occurred
	At time.Time
	// Kind is the CDC event kind tag, if the window tracks kinds
	Kind EventKind
	// Size is the event byte size, if the window tracks sizes
	Size int
}

// SlidingWindow is a fixed-capacity ring buffer of timestamped entries.
//
// The window is bounded by entry count, not by elapsed time. Once capacity
// is exceeded the oldest entry is evicted, so under sustained high throughput
// the buffer may cover less than the nominal query span, and under low
// throughput entries survive long past it. Bounded memory is traded for exact
// time-based retention.
type SlidingWindow struct {
	entries []WindowEntry
	head    int
	length  int
}

// NewSlidingWindow create a sliding window holding at most capacity entries
func NewSlidingWindow(capacity int) *SlidingWindow {
	if capacity < 1 {
		capacity = 1
	}
	return &SlidingWindow{entries: make([]WindowEntry, capacity)}
}

// Record append an entry, evicting the oldest entry when at capacity
func (w *SlidingWindow) Record(entry WindowEntry) {
	if w.length < len(w.entries) {
		w.entries[(w.head+w.length)%len(w.entries)] = entry
		w.length++
		return
	}
	w.entries[w.head] = entry
	w.head = (w.head + 1) % len(w.entries)
}

// Len current number of retained entries
func (w *SlidingWindow) Len() int {
	return w.length
}

// CountSince count retained entries with timestamp at or after cutoff.
//
// Linear scan; capacity is small and bounded.
func (w *SlidingWindow) CountSince(cutoff time.Time) int {
	matched := 0
	w.scan(func(entry WindowEntry) {
		if !entry.At.Before(cutoff) {
			matched++
		}
	})
	return matched
}

// CountSinceMatching count retained entries with timestamp at or after cutoff
// which also satisfy the predicate
func (w *SlidingWindow) CountSinceMatching(
	cutoff time.Time, predicate func(entry WindowEntry) bool,
) int {
	matched := 0
	w.scan(func(entry WindowEntry) {
		if !entry.At.Before(cutoff) && predicate(entry) {
			matched++
		}
	})
	return matched
}

// SumSizeSince total byte size of retained entries with timestamp at or after cutoff
func (w *SlidingWindow) SumSizeSince(cutoff time.Time) int {
	total := 0
	w.scan(func(entry WindowEntry) {
		if !entry.At.Before(cutoff) {
			total += entry.Size
		}
	})
	return total
}

func (w *SlidingWindow) scan(visit func(entry WindowEntry)) {
	for itr := 0; itr < w.length; itr++ {
		visit(w.entries[(w.head+itr)%len(w.entries)])
	}
}
