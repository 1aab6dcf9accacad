// Package interval implements merge/invert algebra over half-open time
// spans. Spans are UTC instants; callers are responsible for clipping to
// whatever window they care about before merging.
package interval

import (
	"sort"
	"time"
)

// Span is a half-open interval [Start, End).
type Span struct {
	Start time.Time
	End   time.Time
}

// Minutes returns the span length in fractional minutes, never negative.
func (s Span) Minutes() float64 {
	minutes := s.End.Sub(s.Start).Minutes()
	if minutes < 0 {
		return 0
	}
	return minutes
}

// Merge coalesces overlapping and touching spans into a minimal sorted set.
// The input is not modified. Empty input yields an empty result.
func Merge(spans []Span) []Span {
	if len(spans) == 0 {
		return nil
	}

	sorted := make([]Span, len(spans))
	copy(sorted, spans)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	merged := []Span{sorted[0]}
	for _, span := range sorted[1:] {
		current := &merged[len(merged)-1]
		if !span.Start.After(current.End) {
			// Touching counts as overlap: back-to-back meetings form one
			// busy block.
			if span.End.After(current.End) {
				current.End = span.End
			}
			continue
		}
		merged = append(merged, span)
	}

	return merged
}

// Invert returns the gaps in [rangeStart, rangeEnd) not covered by busy.
// busy must be merged and sorted (the output of Merge). Zero-length gaps
// are not emitted.
func Invert(busy []Span, rangeStart, rangeEnd time.Time) []Span {
	var free []Span
	cursor := rangeStart

	for _, block := range busy {
		if block.Start.After(cursor) {
			free = append(free, Span{Start: cursor, End: block.Start})
		}
		if block.End.After(cursor) {
			cursor = block.End
		}
	}

	if cursor.Before(rangeEnd) {
		free = append(free, Span{Start: cursor, End: rangeEnd})
	}

	return free
}

// TotalMinutes sums the lengths of the given spans.
func TotalMinutes(spans []Span) float64 {
	total := 0.0
	for _, span := range spans {
		total += span.Minutes()
	}
	return total
}
