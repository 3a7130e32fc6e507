package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoData means a report had no observations after filtering. The minimum
// date is undefined in that case, so the run cannot continue.
var ErrNoData = errors.New("no data in selected range")

// ReportKind names one of the five fixed trend reports.
type ReportKind string

const (
	ReportVolume       ReportKind = "volume"
	ReportApproval     ReportKind = "approval"
	ReportTAT          ReportKind = "tat"
	ReportMisc         ReportKind = "misc"
	ReportModification ReportKind = "modification"
)

// ReportKinds lists the reports in dashboard order.
var ReportKinds = []ReportKind{
	ReportVolume,
	ReportApproval,
	ReportTAT,
	ReportMisc,
	ReportModification,
}

// ParseReportKind validates a report name.
func ParseReportKind(s string) (ReportKind, error) {
	for _, k := range ReportKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown report %q", s)
}

// Title is the human-readable subtitle shown above the chart.
func (k ReportKind) Title() string {
	switch k {
	case ReportVolume:
		return "Time Trends"
	case ReportApproval:
		return "Approval trend"
	case ReportTAT:
		return "TAT trend"
	case ReportMisc:
		return "Misc trend"
	case ReportModification:
		return "Modification trend"
	default:
		return string(k)
	}
}

// ValueLabel names the y-axis quantity.
func (k ReportKind) ValueLabel() string {
	switch k {
	case ReportVolume:
		return "count"
	case ReportTAT:
		return "hours"
	default:
		return "fraction"
	}
}

// FlagObservation is a boolean observation attached to a calendar day.
type FlagObservation struct {
	Day   time.Time
	Value bool
}

// Point is one value of a series. For bucketed series Bucket is the window
// index relative to the earliest day and Start is that window's first day.
// For flat series Bucket is the ordinal position and Start is zero.
type Point struct {
	Bucket int       `json:"bucket"`
	Start  time.Time `json:"start,omitempty"`
	Value  float64   `json:"value"`
}

// Series is a report ready for a sink, ordered by Bucket ascending.
type Series struct {
	Kind        ReportKind  `json:"kind"`
	Title       string      `json:"title"`
	Granularity Granularity `json:"granularity"`
	Bucketed    bool        `json:"bucketed"`
	Points      []Point     `json:"points"`
}

// Total sums all point values.
func (s Series) Total() float64 {
	var total float64
	for _, p := range s.Points {
		total += p.Value
	}
	return total
}

// Dashboard holds the five reports computed for one run.
type Dashboard struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Params      Params    `json:"params"`
	// Records is the number of normalized records after filtering.
	Records int `json:"records"`
	// Skipped counts documents without a usable timestamp sequence.
	Skipped int      `json:"skipped"`
	Reports []Series `json:"reports"`
}

// Report returns the series of the given kind, if present.
func (d *Dashboard) Report(kind ReportKind) (Series, bool) {
	for _, s := range d.Reports {
		if s.Kind == kind {
			return s, true
		}
	}
	return Series{}, false
}
