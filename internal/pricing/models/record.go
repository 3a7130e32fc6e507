package models

import "time"

// Field names of a pricing-workflow document as stored in the collection.
const (
	FieldCreatedAt         = "createdAt"
	FieldTimestamp         = "timestamp"
	FieldApprovalTimestamp = "approvalTimestamp"
	FieldEstBOM            = "estBOM"
	FieldMiscellaneous     = "miscellaneous"
)

// RawRecord is a document as returned by a source, with BSON/JSON wrappers
// already reduced to plain Go values (string, time.Time, []any, map[string]any).
type RawRecord map[string]any

// Record is the canonical, normalized pricing-workflow record.
// All timestamps are naive: the wall clock is kept and the location is UTC.
type Record struct {
	// CreatedAt always equals Timestamps[0].
	CreatedAt  time.Time
	Timestamps []time.Time
	// Approval is nil when the document has no approval timestamp.
	Approval *time.Time
	// EstBOM is the nested estimated bill of materials exactly as found in the
	// document (normally a map[string]any). Only the miscellaneous entry is
	// read, and its shape is checked by the extractor that reads it.
	EstBOM any
}

// Approved reports whether the record carries an approval timestamp.
func (r Record) Approved() bool {
	return r.Approval != nil
}

// Naive drops timezone information while keeping the wall clock, so values
// from mixed-zone inputs compare as the same local reading.
func Naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// Day truncates a naive timestamp to its calendar date.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
