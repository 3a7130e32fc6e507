package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"pricetrends/internal/pricing/models"
)

// =============================================================================
// Normalizer Test Suite
// =============================================================================
// Justification for unit tests: normalization decides which documents reach the
// reports at all, and the approval field arrives in several shapes that feature
// tests cannot enumerate cheaply.

type NormalizeSuite struct {
	suite.Suite
}

func TestNormalizeSuite(t *testing.T) {
	suite.Run(t, new(NormalizeSuite))
}

func utc(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

// =============================================================================
// Timestamp sequence
// =============================================================================

func (s *NormalizeSuite) TestSkipsDocumentsWithoutTimestamps() {
	cases := map[string]models.RawRecord{
		"missing field":  {models.FieldCreatedAt: utc(2024, 1, 1, 0, 0)},
		"null":           {models.FieldTimestamp: nil},
		"empty string":   {models.FieldTimestamp: ""},
		"empty sequence": {models.FieldTimestamp: []any{}},
	}
	for name, raw := range cases {
		s.Run(name, func() {
			_, ok, err := Normalize(raw)
			s.Require().NoError(err)
			s.False(ok)
		})
	}
}

func (s *NormalizeSuite) TestCreatedAtDerivesFromFirstTimestamp() {
	raw := models.RawRecord{
		// a stale createdAt must be ignored once timestamps exist
		models.FieldCreatedAt: utc(2020, 1, 1, 0, 0),
		models.FieldTimestamp: []any{"2024-01-03T10:00:00Z", utc(2024, 1, 4, 9, 0)},
	}

	rec, ok, err := Normalize(raw)

	s.Require().NoError(err)
	s.Require().True(ok)
	s.Equal(utc(2024, 1, 3, 10, 0), rec.CreatedAt)
	s.Equal([]time.Time{utc(2024, 1, 3, 10, 0), utc(2024, 1, 4, 9, 0)}, rec.Timestamps)
}

func (s *NormalizeSuite) TestStripsTimezonesKeepingWallClock() {
	ist := time.FixedZone("IST", 5*3600+1800)
	raw := models.RawRecord{
		models.FieldTimestamp: []any{
			"2024-01-03T10:00:00+05:30",
			time.Date(2024, 1, 3, 12, 0, 0, 0, ist),
		},
	}

	rec, ok, err := Normalize(raw)

	s.Require().NoError(err)
	s.Require().True(ok)
	s.Equal(utc(2024, 1, 3, 10, 0), rec.Timestamps[0])
	s.Equal(utc(2024, 1, 3, 12, 0), rec.Timestamps[1])
	for _, ts := range rec.Timestamps {
		s.Equal(time.UTC, ts.Location())
	}
}

func (s *NormalizeSuite) TestNativeTimestampsRoundTrip() {
	in := []time.Time{utc(2024, 2, 1, 8, 15), utc(2024, 2, 2, 9, 30)}
	raw := models.RawRecord{models.FieldTimestamp: in}

	rec, ok, err := Normalize(raw)

	s.Require().NoError(err)
	s.Require().True(ok)
	s.Equal(in, rec.Timestamps)
}

func (s *NormalizeSuite) TestUnparseableTimestampIsFatal() {
	raw := models.RawRecord{models.FieldTimestamp: []any{"2024-01-01", "not a date"}}

	_, ok, err := Normalize(raw)

	s.Error(err)
	s.False(ok)
}

func (s *NormalizeSuite) TestUnsupportedTimestampTypeIsFatal() {
	_, _, err := Normalize(models.RawRecord{models.FieldTimestamp: []any{42}})
	s.Error(err)
}

// =============================================================================
// Approval collapse
// =============================================================================

func (s *NormalizeSuite) TestApprovalShapes() {
	want := utc(2024, 1, 2, 5, 0)
	cases := []struct {
		name     string
		value    any
		expected *time.Time
	}{
		{name: "string in one-element sequence", value: []any{"2024-01-02T05:00:00Z"}, expected: &want},
		{name: "native in sequence", value: []any{want}, expected: &want},
		{name: "typed native sequence", value: []time.Time{want}, expected: &want},
		{name: "typed string sequence", value: []string{"2024-01-02 05:00:00"}, expected: &want},
		{name: "scalar native", value: want, expected: &want},
		{name: "scalar string", value: "2024-01-02T05:00:00Z", expected: &want},
		{name: "explicit null", value: nil},
		{name: "empty sequence", value: []any{}},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			raw := models.RawRecord{
				models.FieldTimestamp:         []any{"2024-01-01T00:00:00Z"},
				models.FieldApprovalTimestamp: tc.value,
			}
			rec, ok, err := Normalize(raw)
			s.Require().NoError(err)
			s.Require().True(ok)
			if tc.expected == nil {
				s.Nil(rec.Approval)
				return
			}
			s.Require().NotNil(rec.Approval)
			s.Equal(*tc.expected, *rec.Approval)
		})
	}
}

func (s *NormalizeSuite) TestAbsentApprovalStaysUnset() {
	rec, ok, err := Normalize(models.RawRecord{models.FieldTimestamp: []any{"2024-01-01"}})
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Nil(rec.Approval)
	s.False(rec.Approved())
}

func (s *NormalizeSuite) TestBadApprovalStringIsFatal() {
	raw := models.RawRecord{
		models.FieldTimestamp:         []any{"2024-01-01"},
		models.FieldApprovalTimestamp: []any{"yesterday-ish"},
	}
	_, _, err := Normalize(raw)
	s.Error(err)
}

func (s *NormalizeSuite) TestEstBOMPassesThrough() {
	bom := map[string]any{models.FieldMiscellaneous: "foo"}
	rec, ok, err := Normalize(models.RawRecord{
		models.FieldTimestamp: []any{"2024-01-01"},
		models.FieldEstBOM:    bom,
	})
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Equal(bom, rec.EstBOM)
}

// =============================================================================
// Batch normalization
// =============================================================================

func TestNormalizeAll(t *testing.T) {
	t.Run("counts skipped documents", func(t *testing.T) {
		raws := []models.RawRecord{
			{models.FieldTimestamp: []any{"2024-01-01"}},
			{models.FieldTimestamp: nil},
			{models.FieldTimestamp: []any{"2024-01-02"}},
		}

		records, skipped, err := NormalizeAll(raws)

		require.NoError(t, err)
		assert.Len(t, records, 2)
		assert.Equal(t, 1, skipped)
	})

	t.Run("parse failure aborts with record index", func(t *testing.T) {
		raws := []models.RawRecord{
			{models.FieldTimestamp: []any{"2024-01-01"}},
			{models.FieldTimestamp: []any{"garbage"}},
		}

		records, _, err := NormalizeAll(raws)

		require.Error(t, err)
		assert.Nil(t, records)
		var recErr *RecordError
		require.ErrorAs(t, err, &recErr)
		assert.Equal(t, 1, recErr.Index)
	})
}
