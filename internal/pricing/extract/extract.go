// Package extract derives per-record observations for each trend report.
//
// Every extractor is a fallible per-record function. Collect keeps the
// observations that succeeded and hands back the failures so the caller can
// log and count them; a single bad record never aborts a report.
package extract

import (
	"errors"
	"fmt"
	"time"

	"pricetrends/internal/pricing/models"
)

// Extractor turns one record into an observation. ok=false means the record
// contributes nothing to this report, which is not an error.
type Extractor[T any] func(rec models.Record) (obs T, ok bool, err error)

// Name identifies an extractor in logs and metrics.
type Name string

const (
	NameTimestamps    Name = "timestamps"
	NameApprovals     Name = "approvals"
	NameTAT           Name = "tat"
	NameMisc          Name = "misc"
	NameModifications Name = "modifications"
)

// RecordError is a per-record extraction failure.
type RecordError struct {
	Extractor Name
	Index     int
	Err       error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s: record %d: %v", e.Extractor, e.Index, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// ErrUnexpectedType reports a field whose shape the extractor cannot read.
var ErrUnexpectedType = errors.New("unexpected field type")

// Collect runs fn over records in order.
func Collect[T any](name Name, records []models.Record, fn Extractor[T]) ([]T, []error) {
	out := make([]T, 0, len(records))
	var errs []error
	for i, rec := range records {
		obs, ok, err := fn(rec)
		if err != nil {
			errs = append(errs, &RecordError{Extractor: name, Index: i, Err: err})
			continue
		}
		if ok {
			out = append(out, obs)
		}
	}
	return out, errs
}

// Timestamps emits the creation day of every record.
func Timestamps(rec models.Record) (time.Time, bool, error) {
	return models.Day(rec.CreatedAt), true, nil
}

// Approvals emits (creation day, has approval).
func Approvals(rec models.Record) (models.FlagObservation, bool, error) {
	return models.FlagObservation{Day: models.Day(rec.CreatedAt), Value: rec.Approved()}, true, nil
}

// TAT emits hours from creation to approval. Negative values, where approval
// predates creation, are kept here and dropped only when charting.
func TAT(rec models.Record) (float64, bool, error) {
	if rec.Approval == nil {
		return 0, false, nil
	}
	return hoursBetween(rec.CreatedAt, *rec.Approval), true, nil
}

// hoursBetween avoids time.Duration, which saturates past about 292 years.
func hoursBetween(from, to time.Time) float64 {
	secs := float64(to.Unix() - from.Unix())
	nanos := float64(to.Nanosecond() - from.Nanosecond())
	return secs/3600 + nanos/3.6e12
}

// Misc emits (creation day, estBOM.miscellaneous is a non-empty string).
// A missing estBOM or missing entry counts as false; an estBOM that is not a
// mapping or a miscellaneous entry that is not a string is an error.
func Misc(rec models.Record) (models.FlagObservation, bool, error) {
	obs := models.FlagObservation{Day: models.Day(rec.CreatedAt)}
	if rec.EstBOM == nil {
		return obs, true, nil
	}
	bom, isMap := rec.EstBOM.(map[string]any)
	if !isMap {
		return models.FlagObservation{}, false, fmt.Errorf("%s is %T: %w", models.FieldEstBOM, rec.EstBOM, ErrUnexpectedType)
	}
	misc, present := bom[models.FieldMiscellaneous]
	if !present || misc == nil {
		return obs, true, nil
	}
	s, isString := misc.(string)
	if !isString {
		return models.FlagObservation{}, false, fmt.Errorf("%s.%s is %T: %w", models.FieldEstBOM, models.FieldMiscellaneous, misc, ErrUnexpectedType)
	}
	obs.Value = s != ""
	return obs, true, nil
}

// Modifications scans the timestamp history in order and stops at the first
// entry strictly after approval. It emits the day of the last entry scanned:
// the first later entry when modified, otherwise the final entry.
func Modifications(rec models.Record) (models.FlagObservation, bool, error) {
	if rec.Approval == nil || len(rec.Timestamps) == 0 {
		return models.FlagObservation{}, false, nil
	}
	approval := *rec.Approval
	var last time.Time
	modified := false
	for _, ts := range rec.Timestamps {
		last = ts
		if ts.After(approval) {
			modified = true
			break
		}
	}
	return models.FlagObservation{Day: models.Day(last), Value: modified}, true, nil
}
