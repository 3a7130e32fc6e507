// Package aggregate reduces observations into chartable series.
package aggregate

import (
	"slices"
	"time"

	"pricetrends/internal/pricing/bucket"
	"pricetrends/internal/pricing/models"
)

// Count buckets creation days and counts observations per window.
func Count(kind models.ReportKind, days []time.Time, g models.Granularity) (models.Series, error) {
	sorted := slices.Clone(days)
	dayOf := func(d time.Time) time.Time { return d }
	min, ok := bucket.MinDay(sorted, dayOf)
	if !ok {
		return models.Series{}, models.ErrNoData
	}
	bucket.SortByDay(sorted, dayOf)

	groups := bucket.GroupSorted(sorted, dayOf, min, g)
	series := newSeries(kind, g, true, len(groups))
	for _, grp := range groups {
		series.Points = append(series.Points, models.Point{
			Bucket: grp.Index,
			Start:  bucket.Start(min, grp.Index, g),
			Value:  float64(len(grp.Items)),
		})
	}
	return series, nil
}

// Fraction buckets flag observations and reports the share that are true per
// window. Windows exist only for non-empty groups, so no division by zero.
func Fraction(kind models.ReportKind, obs []models.FlagObservation, g models.Granularity) (models.Series, error) {
	sorted := slices.Clone(obs)
	dayOf := func(o models.FlagObservation) time.Time { return o.Day }
	min, ok := bucket.MinDay(sorted, dayOf)
	if !ok {
		return models.Series{}, models.ErrNoData
	}
	bucket.SortByDay(sorted, dayOf)

	groups := bucket.GroupSorted(sorted, dayOf, min, g)
	series := newSeries(kind, g, true, len(groups))
	for _, grp := range groups {
		trues := 0
		for _, o := range grp.Items {
			if o.Value {
				trues++
			}
		}
		series.Points = append(series.Points, models.Point{
			Bucket: grp.Index,
			Start:  bucket.Start(min, grp.Index, g),
			Value:  float64(trues) / float64(len(grp.Items)),
		})
	}
	return series, nil
}

// NonNegative keeps hour values >= 0 in their original order as a flat,
// unbucketed series.
func NonNegative(kind models.ReportKind, hours []float64, g models.Granularity) (models.Series, error) {
	series := newSeries(kind, g, false, len(hours))
	for _, h := range hours {
		if h < 0 {
			continue
		}
		series.Points = append(series.Points, models.Point{Bucket: len(series.Points), Value: h})
	}
	if len(series.Points) == 0 {
		return models.Series{}, models.ErrNoData
	}
	return series, nil
}

func newSeries(kind models.ReportKind, g models.Granularity, bucketed bool, capacity int) models.Series {
	return models.Series{
		Kind:        kind,
		Title:       kind.Title(),
		Granularity: g,
		Bucketed:    bucketed,
		Points:      make([]models.Point, 0, capacity),
	}
}
