package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Source,Cache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"pricetrends/internal/platform/logger"
	"pricetrends/internal/platform/metrics"
	"pricetrends/internal/pricing/models"
	"pricetrends/internal/pricing/service/mocks"
	dErrors "pricetrends/pkg/domain-errors"
	"pricetrends/pkg/platform/circuit"
	"pricetrends/pkg/platform/sentinel"
)

// =============================================================================
// Pricing Service Test Suite
// =============================================================================
// Justification for unit tests: the service glues normalization, filtering,
// extraction and aggregation together and owns the error translation. Tests
// pin the end-to-end numbers for a small fixture, the fail-fast behavior on
// empty reports, and cache/metrics side effects through mocked ports.

type ServiceSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	source  *mocks.MockSource
	cache   *mocks.MockCache
	metrics *metrics.Metrics
	now     time.Time
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.source = mocks.NewMockSource(s.ctrl)
	s.cache = mocks.NewMockCache(s.ctrl)
	s.metrics = metrics.NewWithRegisterer(prometheus.NewRegistry())
	s.now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	var err error
	s.service, err = New(s.source,
		WithLogger(logger.Discard()),
		WithMetrics(s.metrics),
		WithClock(func() time.Time { return s.now }),
	)
	s.Require().NoError(err)
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

// fixture has three usable documents and one without a timestamp.
//
//	A: created 01-01 09:00, approved 01-01 14:00, edited 01-02 10:00, misc "freight"
//	B: created 01-01 11:00, pending, misc ""
//	C: created 01-08 08:00, approved 01-08 09:00, last entry equals approval
func fixture() []models.RawRecord {
	return []models.RawRecord{
		{
			models.FieldTimestamp:         []any{"2024-01-01 09:00:00", "2024-01-02 10:00:00"},
			models.FieldApprovalTimestamp: []any{"2024-01-01 14:00:00"},
			models.FieldEstBOM:            map[string]any{models.FieldMiscellaneous: "freight"},
		},
		{
			models.FieldTimestamp: []any{"2024-01-01 11:00:00"},
			models.FieldEstBOM:    map[string]any{models.FieldMiscellaneous: ""},
		},
		{
			models.FieldTimestamp:         []any{time.Date(2024, 1, 8, 8, 0, 0, 0, time.UTC), time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)},
			models.FieldApprovalTimestamp: []any{time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)},
		},
		{
			models.FieldCreatedAt: "2024-01-05 00:00:00",
		},
	}
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func values(series models.Series) []float64 {
	out := make([]float64, 0, len(series.Points))
	for _, p := range series.Points {
		out = append(out, p.Value)
	}
	return out
}

// =============================================================================
// Constructor Tests
// =============================================================================

func (s *ServiceSuite) TestNew() {
	s.Run("nil source returns error", func() {
		_, err := New(nil)
		s.Error(err)
		s.Contains(err.Error(), "pricing source is required")
	})

	s.Run("options are applied", func() {
		svc, err := New(s.source, WithCache(s.cache), WithMetrics(s.metrics))
		s.Require().NoError(err)
		s.Equal(s.cache, svc.cache)
		s.Equal(s.metrics, svc.metrics)
		s.NotNil(svc.logger)
	})
}

// =============================================================================
// Load and Bounds
// =============================================================================

func (s *ServiceSuite) TestLoad() {
	s.Run("skips documents without timestamps", func() {
		s.source.EXPECT().Fetch(gomock.Any()).Return(fixture(), nil)

		records, skipped, err := s.service.Load(context.Background())

		s.Require().NoError(err)
		s.Len(records, 3)
		s.Equal(1, skipped)
		s.Equal(3.0, testutil.ToFloat64(s.metrics.RecordsNormalized))
	})

	s.Run("unavailable source maps to unavailable", func() {
		s.source.EXPECT().Fetch(gomock.Any()).Return(nil, fmt.Errorf("dial: %w", sentinel.ErrUnavailable))

		_, _, err := s.service.Load(context.Background())

		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	})

	s.Run("malformed timestamp aborts the run", func() {
		raws := append(fixture(), models.RawRecord{models.FieldTimestamp: []any{"garbage"}})
		s.source.EXPECT().Fetch(gomock.Any()).Return(raws, nil)

		_, _, err := s.service.Load(context.Background())

		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *ServiceSuite) TestBounds() {
	s.Run("spans earliest and latest creation", func() {
		s.source.EXPECT().Fetch(gomock.Any()).Return(fixture(), nil)

		bounds, err := s.service.Bounds(context.Background())

		s.Require().NoError(err)
		s.Equal(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), bounds.Start)
		s.Equal(time.Date(2024, 1, 8, 8, 0, 0, 0, time.UTC), bounds.End)
	})

	s.Run("empty collection is not found", func() {
		s.source.EXPECT().Fetch(gomock.Any()).Return([]models.RawRecord{}, nil)

		_, err := s.service.Bounds(context.Background())

		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.ErrorIs(err, models.ErrNoData)
	})
}

// =============================================================================
// Filter
// =============================================================================

func (s *ServiceSuite) TestFilter() {
	approved := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	records := []models.Record{
		{CreatedAt: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), Approval: &approved},
		{CreatedAt: time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)},
		{CreatedAt: time.Date(2024, 1, 5, 23, 0, 0, 0, time.UTC), Approval: &approved},
	}

	s.Run("zero params keep everything", func() {
		s.Len(Filter(records, models.Params{Granularity: models.Daily}), 3)
	})

	s.Run("range is inclusive", func() {
		out := Filter(records, models.Params{Range: models.DateRange{
			Start: time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 1, 5, 23, 0, 0, 0, time.UTC),
		}})
		s.Len(out, 2)
	})

	s.Run("approved only", func() {
		out := Filter(records, models.Params{ApprovedOnly: true})
		s.Len(out, 2)
		for _, rec := range out {
			s.True(rec.Approved())
		}
	})
}

// =============================================================================
// Reports
// =============================================================================

func (s *ServiceSuite) TestDashboardDaily() {
	s.source.EXPECT().Fetch(gomock.Any()).Return(fixture(), nil)

	d, err := s.service.Dashboard(context.Background(), models.Params{Granularity: models.Daily})

	s.Require().NoError(err)
	s.NotEmpty(d.RunID)
	s.Equal(s.now, d.GeneratedAt)
	s.Equal(3, d.Records)
	s.Equal(1, d.Skipped)
	s.Require().Len(d.Reports, 5)

	volume, _ := d.Report(models.ReportVolume)
	s.Equal([]models.Point{
		{Bucket: 0, Start: day(1), Value: 2},
		{Bucket: 7, Start: day(8), Value: 1},
	}, volume.Points)

	approval, _ := d.Report(models.ReportApproval)
	s.Equal([]float64{0.5, 1}, values(approval))

	tat, _ := d.Report(models.ReportTAT)
	s.False(tat.Bucketed)
	s.Equal([]float64{5, 1}, values(tat))

	misc, _ := d.Report(models.ReportMisc)
	s.Equal([]float64{0.5, 0}, values(misc))

	mod, _ := d.Report(models.ReportModification)
	s.Equal([]models.Point{
		{Bucket: 0, Start: day(2), Value: 1},
		{Bucket: 6, Start: day(8), Value: 0},
	}, mod.Points)

	s.Equal(1.0, testutil.ToFloat64(s.metrics.ReportRuns.WithLabelValues("volume", "ok")))
}

func (s *ServiceSuite) TestDashboardWeeklyApprovedOnly() {
	s.source.EXPECT().Fetch(gomock.Any()).Return(fixture(), nil)

	d, err := s.service.Dashboard(context.Background(), models.Params{Granularity: models.Weekly, ApprovedOnly: true})

	s.Require().NoError(err)
	s.Equal(2, d.Records)
	volume, _ := d.Report(models.ReportVolume)
	s.Equal([]int{0, 1}, []int{volume.Points[0].Bucket, volume.Points[1].Bucket})
	s.Equal(2.0, volume.Total())
	approval, _ := d.Report(models.ReportApproval)
	s.Equal([]float64{1, 1}, values(approval))
}

func (s *ServiceSuite) TestDashboardFailsFastOnEmptyReport() {
	s.Run("range with no documents", func() {
		s.source.EXPECT().Fetch(gomock.Any()).Return(fixture(), nil)

		_, err := s.service.Dashboard(context.Background(), models.Params{
			Granularity: models.Daily,
			Range:       models.DateRange{Start: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
		})

		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.ErrorIs(err, models.ErrNoData)
		s.Equal(1.0, testutil.ToFloat64(s.metrics.ReportRuns.WithLabelValues("volume", "no_data")))
	})

	s.Run("only pending documents leave TAT empty", func() {
		s.source.EXPECT().Fetch(gomock.Any()).Return(fixture(), nil)

		_, err := s.service.Dashboard(context.Background(), models.Params{
			Granularity: models.Daily,
			Range: models.DateRange{
				Start: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
				End:   time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
			},
		})

		s.ErrorIs(err, models.ErrNoData)
		s.Contains(err.Error(), "TAT trend")
	})
}

func (s *ServiceSuite) TestDashboardInvalidParams() {
	_, err := s.service.Dashboard(context.Background(), models.Params{Granularity: 30})

	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestExtractionErrorsAreNotFatal() {
	raws := append(fixture(), models.RawRecord{
		models.FieldTimestamp: []any{"2024-01-03 10:00:00"},
		models.FieldEstBOM:    "n/a",
	})
	s.source.EXPECT().Fetch(gomock.Any()).Return(raws, nil)

	series, err := s.service.Report(context.Background(), models.Params{Granularity: models.Daily}, models.ReportMisc)

	s.Require().NoError(err)
	s.Equal([]float64{0.5, 0}, values(series), "the bad record is dropped from its window")
	s.Equal(1.0, testutil.ToFloat64(s.metrics.ExtractionErrors.WithLabelValues("misc")))
}

func (s *ServiceSuite) TestReportSingleKind() {
	s.source.EXPECT().Fetch(gomock.Any()).Return(fixture(), nil)

	series, err := s.service.Report(context.Background(), models.Params{Granularity: models.Weekly}, models.ReportVolume)

	s.Require().NoError(err)
	s.Equal("Time Trends", series.Title)
	s.Equal(3.0, series.Total())
}

// =============================================================================
// Cache
// =============================================================================

func (s *ServiceSuite) TestDashboardCache() {
	svc, err := New(s.source,
		WithLogger(logger.Discard()),
		WithMetrics(s.metrics),
		WithCache(s.cache),
		WithClock(func() time.Time { return s.now }),
	)
	s.Require().NoError(err)
	params := models.Params{Granularity: models.Weekly}
	key := CacheKey(params)

	s.Run("hit skips the source", func() {
		cached := &models.Dashboard{RunID: "cached"}
		s.cache.EXPECT().Get(gomock.Any(), key).Return(cached, nil)

		d, err := svc.Dashboard(context.Background(), params)

		s.Require().NoError(err)
		s.Same(cached, d)
		s.Equal(1.0, testutil.ToFloat64(s.metrics.CacheResults.WithLabelValues("hit")))
	})

	s.Run("miss computes and stores", func() {
		s.cache.EXPECT().Get(gomock.Any(), key).Return(nil, sentinel.ErrNotFound)
		s.source.EXPECT().Fetch(gomock.Any()).Return(fixture(), nil)
		s.cache.EXPECT().Set(gomock.Any(), key, gomock.Any()).Return(nil)

		d, err := svc.Dashboard(context.Background(), params)

		s.Require().NoError(err)
		s.Len(d.Reports, 5)
	})

	s.Run("cache failures degrade to computing", func() {
		s.cache.EXPECT().Get(gomock.Any(), key).Return(nil, errors.New("connection reset"))
		s.source.EXPECT().Fetch(gomock.Any()).Return(fixture(), nil)
		s.cache.EXPECT().Set(gomock.Any(), key, gomock.Any()).Return(errors.New("connection reset"))

		_, err := svc.Dashboard(context.Background(), params)

		s.NoError(err)
		s.Equal(1.0, testutil.ToFloat64(s.metrics.CacheResults.WithLabelValues("error")))
	})
}

func (s *ServiceSuite) TestFailingCacheIsBypassed() {
	now := s.now
	breaker := circuit.New("dashboard-cache",
		circuit.WithFailureThreshold(1),
		circuit.WithSuccessThreshold(1),
		circuit.WithCooldown(time.Minute),
		circuit.WithClock(func() time.Time { return now }),
	)
	svc, err := New(s.source,
		WithLogger(logger.Discard()),
		WithMetrics(s.metrics),
		WithCache(s.cache),
		WithCacheBreaker(breaker),
	)
	s.Require().NoError(err)
	params := models.Params{Granularity: models.Daily}

	// The read failure opens the breaker, so the write is skipped
	s.cache.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection refused"))
	s.source.EXPECT().Fetch(gomock.Any()).Return(fixture(), nil).Times(2)
	_, err = svc.Dashboard(context.Background(), params)
	s.Require().NoError(err)
	s.True(breaker.IsOpen())

	// While open the cache is not touched at all
	_, err = svc.Dashboard(context.Background(), params)
	s.Require().NoError(err)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.CacheResults.WithLabelValues("bypass")))

	// After the cooldown a successful probe closes it again
	now = now.Add(time.Minute)
	cached := &models.Dashboard{RunID: "cached"}
	s.cache.EXPECT().Get(gomock.Any(), gomock.Any()).Return(cached, nil)
	d, err := svc.Dashboard(context.Background(), params)
	s.Require().NoError(err)
	s.Same(cached, d)
	s.False(breaker.IsOpen())
}

func (s *ServiceSuite) TestCacheKey() {
	open := CacheKey(models.Params{Granularity: models.Daily})
	approved := CacheKey(models.Params{Granularity: models.Daily, ApprovedOnly: true})
	ranged := CacheKey(models.Params{Granularity: models.Daily, Range: models.DateRange{Start: day(1)}})

	s.Equal("dashboard:daily:false:open:open", open)
	s.NotEqual(open, approved)
	s.Equal("dashboard:daily:false:2024-01-01T00:00:00Z:open", ranged)
}
