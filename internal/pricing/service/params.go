package service

import (
	"strings"
	"time"

	"pricetrends/internal/pricing/models"
	"pricetrends/internal/pricing/normalize"
	dErrors "pricetrends/pkg/domain-errors"
)

// ParseParams builds run parameters from their text form. Empty values select
// daily granularity, all records and an open range.
func ParseParams(granularity, approved, from, to string) (models.Params, error) {
	g, err := models.ParseGranularity(granularity)
	if err != nil {
		return models.Params{}, dErrors.Wrap(err, dErrors.CodeValidation, err.Error())
	}
	approvedOnly, err := models.ParseApproval(approved)
	if err != nil {
		return models.Params{}, dErrors.Wrap(err, dErrors.CodeValidation, err.Error())
	}
	start, err := ParseBound(from, false)
	if err != nil {
		return models.Params{}, dErrors.Wrap(err, dErrors.CodeValidation, "from must be a timestamp")
	}
	end, err := ParseBound(to, true)
	if err != nil {
		return models.Params{}, dErrors.Wrap(err, dErrors.CodeValidation, "to must be a timestamp")
	}

	params := models.Params{
		Granularity:  g,
		ApprovedOnly: approvedOnly,
		Range:        models.DateRange{Start: start, End: end},
	}
	if err := params.Validate(); err != nil {
		return models.Params{}, dErrors.Wrap(err, dErrors.CodeValidation, err.Error())
	}
	return params, nil
}

// ParseBound parses one range bound. A bare date used as the upper bound
// covers the whole day.
func ParseBound(s string, upper bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := normalize.ParseTime(s)
	if err != nil {
		return time.Time{}, err
	}
	if upper {
		if _, err := time.Parse(time.DateOnly, s); err == nil {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
	}
	return t, nil
}
