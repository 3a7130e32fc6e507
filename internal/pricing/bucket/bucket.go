// Package bucket maps calendar days onto day or week windows.
//
// Grouping is a run-length pass over a slice that is already sorted by day,
// not a hash group-by. Callers must SortByDay first; GroupSorted on unsorted
// input yields several disjoint groups for the same window.
package bucket

import (
	"slices"
	"time"

	"pricetrends/internal/pricing/models"
)

const secondsPerDay = 24 * 60 * 60

// Index returns floor(days(d-min) / g). Both values are calendar days, so the
// difference is a whole number of days. Unix seconds are used rather than
// time.Duration, which saturates past about 292 years.
func Index(d, min time.Time, g models.Granularity) int {
	days := int((models.Day(d).Unix() - models.Day(min).Unix()) / secondsPerDay)
	n := g.Days()
	idx := days / n
	// floor for days before min; callers normally pass the minimum.
	if days%n != 0 && days < 0 {
		idx--
	}
	return idx
}

// Start returns the first day of window idx.
func Start(min time.Time, idx int, g models.Granularity) time.Time {
	return models.Day(min).AddDate(0, 0, idx*g.Days())
}

// SortByDay sorts items in place by day, keeping the relative order of
// items on the same day.
func SortByDay[T any](items []T, dayOf func(T) time.Time) {
	slices.SortStableFunc(items, func(a, b T) int {
		return dayOf(a).Compare(dayOf(b))
	})
}

// MinDay returns the earliest day among items. ok is false for an empty slice.
func MinDay[T any](items []T, dayOf func(T) time.Time) (min time.Time, ok bool) {
	for i, it := range items {
		d := dayOf(it)
		if i == 0 || d.Before(min) {
			min = d
		}
	}
	return min, len(items) > 0
}

// Group is one run of consecutive items sharing a window index.
type Group[T any] struct {
	Index int
	Items []T
}

// GroupSorted splits items into runs of equal window index. items must be
// sorted by day.
func GroupSorted[T any](items []T, dayOf func(T) time.Time, min time.Time, g models.Granularity) []Group[T] {
	var groups []Group[T]
	for _, it := range items {
		idx := Index(dayOf(it), min, g)
		if n := len(groups); n > 0 && groups[n-1].Index == idx {
			groups[n-1].Items = append(groups[n-1].Items, it)
			continue
		}
		groups = append(groups, Group[T]{Index: idx, Items: []T{it}})
	}
	return groups
}
