// Package normalize turns raw pricing documents into canonical records.
//
// Normalization is the only fatal step of a run: a timestamp string that
// cannot be parsed means the input is in an unknown format, and reporting on
// a partial record set would silently skew every trend.
package normalize

import (
	"fmt"
	"time"

	"github.com/araddon/dateparse"

	"pricetrends/internal/pricing/models"
)

// Normalize converts one raw document. ok is false when the document has no
// usable timestamp sequence; such documents are skipped, not errors.
func Normalize(raw models.RawRecord) (rec models.Record, ok bool, err error) {
	stamps, err := timestamps(raw[models.FieldTimestamp])
	if err != nil {
		return models.Record{}, false, fmt.Errorf("%s: %w", models.FieldTimestamp, err)
	}
	if len(stamps) == 0 {
		return models.Record{}, false, nil
	}

	rec = models.Record{
		CreatedAt:  stamps[0],
		Timestamps: stamps,
		EstBOM:     raw[models.FieldEstBOM],
	}

	approval, present := raw[models.FieldApprovalTimestamp]
	if present {
		rec.Approval, err = collapseApproval(approval)
		if err != nil {
			return models.Record{}, false, fmt.Errorf("%s: %w", models.FieldApprovalTimestamp, err)
		}
	}
	return rec, true, nil
}

// NormalizeAll normalizes every document. The first parse failure aborts the
// whole batch. skipped counts documents without timestamps.
func NormalizeAll(raws []models.RawRecord) (records []models.Record, skipped int, err error) {
	records = make([]models.Record, 0, len(raws))
	for i, raw := range raws {
		rec, ok, err := Normalize(raw)
		if err != nil {
			return nil, 0, &RecordError{Index: i, Err: err}
		}
		if !ok {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	return records, skipped, nil
}

// RecordError locates a failure within a batch of documents.
type RecordError struct {
	Index int
	Err   error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %d: %v", e.Index, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// timestamps accepts a sequence of strings and/or times. A lone scalar is
// treated as a one-element sequence; nil and "" mean "no timestamps".
func timestamps(v any) ([]time.Time, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		if x == "" {
			return nil, nil
		}
		t, err := ParseTime(x)
		if err != nil {
			return nil, err
		}
		return []time.Time{t}, nil
	case time.Time:
		return []time.Time{models.Naive(x)}, nil
	case []time.Time:
		out := make([]time.Time, len(x))
		for i, t := range x {
			out[i] = models.Naive(t)
		}
		return out, nil
	case []string:
		out := make([]time.Time, 0, len(x))
		for i, s := range x {
			t, err := ParseTime(s)
			if err != nil {
				return nil, fmt.Errorf("entry %d: %w", i, err)
			}
			out = append(out, t)
		}
		return out, nil
	case []any:
		out := make([]time.Time, 0, len(x))
		for i, e := range x {
			t, err := toTime(e)
			if err != nil {
				return nil, fmt.Errorf("entry %d: %w", i, err)
			}
			out = append(out, t)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported type %T", v)
	}
}

type approvalShape int

const (
	approvalAbsent approvalShape = iota
	// approvalStringSequence: ["2024-01-02T10:00:00Z"], element 0 is parsed.
	approvalStringSequence
	// approvalNativeSequence: [time.Time], element 0 is taken as is.
	approvalNativeSequence
	// approvalScalar: a bare string or time, treated as a one-element sequence.
	approvalScalar
)

// classifyApproval names the raw shape and returns the single candidate value.
// Explicit null and empty sequences are absent.
func classifyApproval(v any) (approvalShape, any, error) {
	switch x := v.(type) {
	case nil:
		return approvalAbsent, nil, nil
	case string, time.Time:
		return approvalScalar, x, nil
	case []string:
		if len(x) == 0 {
			return approvalAbsent, nil, nil
		}
		return approvalStringSequence, x[0], nil
	case []time.Time:
		if len(x) == 0 {
			return approvalAbsent, nil, nil
		}
		return approvalNativeSequence, x[0], nil
	case []any:
		if len(x) == 0 {
			return approvalAbsent, nil, nil
		}
		if _, isString := x[0].(string); isString {
			return approvalStringSequence, x[0], nil
		}
		return approvalNativeSequence, x[0], nil
	default:
		return approvalAbsent, nil, fmt.Errorf("unsupported type %T", v)
	}
}

func collapseApproval(v any) (*time.Time, error) {
	shape, first, err := classifyApproval(v)
	if err != nil {
		return nil, err
	}
	switch shape {
	case approvalAbsent:
		return nil, nil
	case approvalStringSequence, approvalNativeSequence, approvalScalar:
		t, err := toTime(first)
		if err != nil {
			return nil, err
		}
		return &t, nil
	default:
		return nil, fmt.Errorf("unknown approval shape %d", shape)
	}
}

func toTime(v any) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return models.Naive(x), nil
	case string:
		return ParseTime(x)
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp type %T", v)
	}
}

// ParseTime parses a timestamp in any common layout and strips its zone.
func ParseTime(s string) (time.Time, error) {
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return models.Naive(t), nil
}
