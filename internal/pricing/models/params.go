package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Granularity is the aggregation window length in days.
type Granularity int

const (
	Daily  Granularity = 1
	Weekly Granularity = 7
)

// ErrInvalidGranularity is returned for anything other than daily or weekly.
var ErrInvalidGranularity = errors.New("granularity must be daily or weekly")

// ParseGranularity accepts "daily"/"weekly" (any case) or the day counts "1"/"7".
// An empty string selects Daily.
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "daily", "day", "1":
		return Daily, nil
	case "weekly", "week", "7":
		return Weekly, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidGranularity, s)
	}
}

// Days returns the window length in days.
func (g Granularity) Days() int {
	return int(g)
}

func (g Granularity) Valid() bool {
	return g == Daily || g == Weekly
}

func (g Granularity) String() string {
	switch g {
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	default:
		return fmt.Sprintf("granularity(%d)", int(g))
	}
}

// ParseApproval maps the yes/no approval filter to ApprovedOnly.
// An empty string means "keep all".
func ParseApproval(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "no", "false", "0", "all":
		return false, nil
	case "yes", "true", "1", "approved":
		return true, nil
	default:
		return false, fmt.Errorf("approved must be yes or no, got %q", s)
	}
}

// DateRange bounds CreatedAt inclusively on both ends. A zero bound is open.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// IsZero reports whether neither bound is set.
func (r DateRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// Contains compares naive values, inclusive on both ends.
func (r DateRange) Contains(t time.Time) bool {
	t = Naive(t)
	if !r.Start.IsZero() && t.Before(Naive(r.Start)) {
		return false
	}
	if !r.End.IsZero() && t.After(Naive(r.End)) {
		return false
	}
	return true
}

// Params are the externally supplied inputs for one report run.
type Params struct {
	Granularity  Granularity `json:"granularity"`
	ApprovedOnly bool        `json:"approved_only"`
	Range        DateRange   `json:"range"`
}

// Validate checks invariants on the run parameters.
func (p Params) Validate() error {
	if !p.Granularity.Valid() {
		return ErrInvalidGranularity
	}
	if !p.Range.Start.IsZero() && !p.Range.End.IsZero() && Naive(p.Range.End).Before(Naive(p.Range.Start)) {
		return errors.New("range end is before range start")
	}
	return nil
}
