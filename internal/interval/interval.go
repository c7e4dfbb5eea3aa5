// Package interval provides the half-open time interval arithmetic the
// scheduling engine is built on. Every operation works on absolute instants;
// wall-clock conversion happens before values reach this package.
package interval

import (
	"sort"
	"time"
)

// Interval is a half-open time range [Start, End). End must be after Start;
// constructors and repositories are responsible for upholding that.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration returns the interval length.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// IsZero reports whether the interval is the zero value.
func (iv Interval) IsZero() bool {
	return iv.Start.IsZero() && iv.End.IsZero()
}

// Contains reports whether t falls inside the half-open range.
func (iv Interval) Contains(t time.Time) bool {
	return !t.Before(iv.Start) && t.Before(iv.End)
}

// Overlaps reports whether a and b share any instant. Intervals that merely
// touch at an endpoint do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Merge sorts the input by start and coalesces overlapping or adjacent
// intervals into a minimal sorted disjoint sequence. The input is not
// mutated; empty input yields an empty result.
func Merge(list []Interval) []Interval {
	if len(list) == 0 {
		return nil
	}

	sorted := make([]Interval, len(list))
	copy(sorted, list)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	merged := make([]Interval, 0, len(sorted))
	merged = append(merged, sorted[0])
	for _, cur := range sorted[1:] {
		last := &merged[len(merged)-1]
		if !cur.Start.After(last.End) {
			if cur.End.After(last.End) {
				last.End = cur.End
			}
			continue
		}
		merged = append(merged, cur)
	}
	return merged
}

// Subtract removes the busy intervals from the window and returns the free
// sub-intervals that remain, sorted and disjoint. busy must be sorted and
// disjoint (as produced by Merge); portions of busy outside the window are
// ignored. Output never extends beyond the window.
func Subtract(window Interval, busy []Interval) []Interval {
	if !window.End.After(window.Start) {
		return nil
	}

	free := make([]Interval, 0, len(busy)+1)
	cursor := window.Start
	for _, b := range busy {
		if !b.End.After(cursor) {
			continue
		}
		if !b.Start.Before(window.End) {
			break
		}
		if b.Start.After(cursor) {
			end := b.Start
			if end.After(window.End) {
				end = window.End
			}
			free = append(free, Interval{Start: cursor, End: end})
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
		if !cursor.Before(window.End) {
			return free
		}
	}
	if cursor.Before(window.End) {
		free = append(free, Interval{Start: cursor, End: window.End})
	}
	return free
}

// Clamp trims the interval to the window. The zero Interval is returned when
// nothing remains.
func Clamp(iv, window Interval) Interval {
	start := iv.Start
	if start.Before(window.Start) {
		start = window.Start
	}
	end := iv.End
	if end.After(window.End) {
		end = window.End
	}
	if !end.After(start) {
		return Interval{}
	}
	return Interval{Start: start, End: end}
}
