package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"pricetrends/internal/platform/metrics"
	"pricetrends/internal/pricing/aggregate"
	"pricetrends/internal/pricing/extract"
	"pricetrends/internal/pricing/models"
	"pricetrends/internal/pricing/normalize"
	dErrors "pricetrends/pkg/domain-errors"
	"pricetrends/pkg/platform/circuit"
	"pricetrends/pkg/platform/sentinel"
	"pricetrends/pkg/requestcontext"
)

// Source returns every pricing document in the backing store.
type Source interface {
	Fetch(ctx context.Context) ([]models.RawRecord, error)
}

// Cache stores computed dashboards. Get returns sentinel.ErrNotFound on a miss.
type Cache interface {
	Get(ctx context.Context, key string) (*models.Dashboard, error)
	Set(ctx context.Context, key string, d *models.Dashboard) error
}

const tracerName = "pricetrends/internal/pricing/service"

// Service runs the normalize, filter, extract and aggregate pipeline.
// Each run is sequential and never mutates the records it loads.
type Service struct {
	source  Source
	cache   Cache
	breaker *circuit.Breaker
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	clock   func() time.Time
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithCache enables dashboard caching. A nil cache leaves caching off.
func WithCache(c Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithCacheBreaker replaces the breaker that bypasses a failing cache.
func WithCacheBreaker(b *circuit.Breaker) Option {
	return func(s *Service) {
		s.breaker = b
	}
}

// WithClock overrides the request-scoped time used for GeneratedAt.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

// New constructs a Service.
func New(source Source, opts ...Option) (*Service, error) {
	if source == nil {
		return nil, errors.New("pricing source is required")
	}
	s := &Service{
		source: source,
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.cache != nil && s.breaker == nil {
		s.breaker = circuit.New("dashboard-cache",
			circuit.WithFailureThreshold(3),
			circuit.WithSuccessThreshold(1),
			circuit.WithCooldown(30*time.Second),
		)
	}
	return s, nil
}

// Load fetches all documents and normalizes them. A malformed timestamp
// anywhere aborts the load.
func (s *Service) Load(ctx context.Context) ([]models.Record, int, error) {
	ctx, span := s.tracer.Start(ctx, "pricing.load")
	defer span.End()

	raws, err := s.source.Fetch(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		if errors.Is(err, sentinel.ErrUnavailable) {
			return nil, 0, dErrors.Wrap(err, dErrors.CodeUnavailable, "pricing source unavailable")
		}
		return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to fetch pricing documents")
	}

	records, skipped, err := normalize.NormalizeAll(raws)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "normalize failed")
		s.logger.ErrorContext(ctx, "pricing documents could not be normalized",
			"request_id", requestcontext.RequestID(ctx),
			"documents", len(raws),
			"error", err,
		)
		return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "malformed pricing document")
	}

	span.SetAttributes(
		attribute.Int("pricing.documents", len(raws)),
		attribute.Int("pricing.skipped", skipped),
	)
	s.metrics.AddRecords(len(records), skipped)
	if skipped > 0 {
		s.logger.InfoContext(ctx, "skipped documents without timestamps",
			"request_id", requestcontext.RequestID(ctx),
			"skipped", skipped,
		)
	}
	return records, skipped, nil
}

// Bounds returns the earliest and latest creation time across all records.
func (s *Service) Bounds(ctx context.Context) (models.DateRange, error) {
	records, _, err := s.Load(ctx)
	if err != nil {
		return models.DateRange{}, err
	}
	if len(records) == 0 {
		return models.DateRange{}, noData(models.ErrNoData)
	}
	bounds := models.DateRange{Start: records[0].CreatedAt, End: records[0].CreatedAt}
	for _, rec := range records[1:] {
		if rec.CreatedAt.Before(bounds.Start) {
			bounds.Start = rec.CreatedAt
		}
		if rec.CreatedAt.After(bounds.End) {
			bounds.End = rec.CreatedAt
		}
	}
	return bounds, nil
}

// Filter keeps records created inside the range, then drops unapproved
// records when ApprovedOnly is set. The input slice is not modified.
func Filter(records []models.Record, params models.Params) []models.Record {
	out := make([]models.Record, 0, len(records))
	for _, rec := range records {
		if !params.Range.Contains(rec.CreatedAt) {
			continue
		}
		if params.ApprovedOnly && !rec.Approved() {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// Report computes a single report for params.
func (s *Service) Report(ctx context.Context, params models.Params, kind models.ReportKind) (models.Series, error) {
	if err := params.Validate(); err != nil {
		return models.Series{}, dErrors.Wrap(err, dErrors.CodeValidation, err.Error())
	}
	records, _, err := s.Load(ctx)
	if err != nil {
		return models.Series{}, err
	}
	series, err := s.build(ctx, kind, Filter(records, params), params.Granularity)
	if err != nil {
		return models.Series{}, s.reportError(kind, err)
	}
	return series, nil
}

// Dashboard computes all five reports over one filtered record set. The first
// empty report fails the whole run.
func (s *Service) Dashboard(ctx context.Context, params models.Params) (*models.Dashboard, error) {
	if err := params.Validate(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, err.Error())
	}
	key := CacheKey(params)
	if d := s.cached(ctx, key); d != nil {
		return d, nil
	}

	records, skipped, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	filtered := Filter(records, params)

	dashboard := &models.Dashboard{
		RunID:       uuid.NewString(),
		GeneratedAt: s.now(ctx),
		Params:      params,
		Records:     len(filtered),
		Skipped:     skipped,
		Reports:     make([]models.Series, 0, len(models.ReportKinds)),
	}
	for _, kind := range models.ReportKinds {
		series, err := s.build(ctx, kind, filtered, params.Granularity)
		if err != nil {
			return nil, s.reportError(kind, err)
		}
		dashboard.Reports = append(dashboard.Reports, series)
	}

	s.logger.InfoContext(ctx, "dashboard computed",
		"request_id", requestcontext.RequestID(ctx),
		"run_id", dashboard.RunID,
		"granularity", params.Granularity.String(),
		"approved_only", params.ApprovedOnly,
		"records", dashboard.Records,
		"skipped", dashboard.Skipped,
	)
	s.store(ctx, key, dashboard)
	return dashboard, nil
}

// CacheKey identifies a dashboard by its parameters.
func CacheKey(p models.Params) string {
	return fmt.Sprintf("dashboard:%s:%t:%s:%s",
		p.Granularity, p.ApprovedOnly, rangeBound(p.Range.Start), rangeBound(p.Range.End))
}

func rangeBound(t time.Time) string {
	if t.IsZero() {
		return "open"
	}
	return models.Naive(t).Format(time.RFC3339)
}

func (s *Service) build(ctx context.Context, kind models.ReportKind, records []models.Record, g models.Granularity) (series models.Series, err error) {
	ctx, span := s.tracer.Start(ctx, "pricing.report",
		trace.WithAttributes(
			attribute.String("pricing.kind", string(kind)),
			attribute.Int("pricing.records", len(records)),
		))
	start := time.Now()
	defer func() {
		s.metrics.ObserveReportDuration(string(kind), time.Since(start))
		s.metrics.IncrementReportRun(string(kind), outcome(err))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	switch kind {
	case models.ReportVolume:
		days := collect(ctx, s, extract.NameTimestamps, records, extract.Timestamps)
		return aggregate.Count(kind, days, g)
	case models.ReportApproval:
		obs := collect(ctx, s, extract.NameApprovals, records, extract.Approvals)
		return aggregate.Fraction(kind, obs, g)
	case models.ReportTAT:
		hours := collect(ctx, s, extract.NameTAT, records, extract.TAT)
		return aggregate.NonNegative(kind, hours, g)
	case models.ReportMisc:
		obs := collect(ctx, s, extract.NameMisc, records, extract.Misc)
		return aggregate.Fraction(kind, obs, g)
	case models.ReportModification:
		obs := collect(ctx, s, extract.NameModifications, records, extract.Modifications)
		return aggregate.Fraction(kind, obs, g)
	default:
		return models.Series{}, fmt.Errorf("unknown report %q", kind)
	}
}

// collect runs one extractor and logs each per-record failure.
func collect[T any](ctx context.Context, s *Service, name extract.Name, records []models.Record, fn extract.Extractor[T]) []T {
	obs, errs := extract.Collect(name, records, fn)
	for _, err := range errs {
		s.logger.WarnContext(ctx, "record skipped by extractor",
			"request_id", requestcontext.RequestID(ctx),
			"extractor", string(name),
			"error", err,
		)
	}
	s.metrics.AddExtractionErrors(string(name), len(errs))
	return obs
}

func (s *Service) reportError(kind models.ReportKind, err error) error {
	if errors.Is(err, models.ErrNoData) {
		return noData(fmt.Errorf("%s: %w", kind.Title(), err))
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to compute report")
}

func noData(err error) error {
	return dErrors.Wrap(err, dErrors.CodeNotFound, models.ErrNoData.Error())
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, models.ErrNoData):
		return "no_data"
	default:
		return "error"
	}
}

func (s *Service) now(ctx context.Context) time.Time {
	if s.clock != nil {
		return s.clock()
	}
	return requestcontext.Now(ctx)
}

func (s *Service) cached(ctx context.Context, key string) *models.Dashboard {
	if s.cache == nil {
		return nil
	}
	if !s.breaker.Allow() {
		s.metrics.IncrementCache("bypass")
		return nil
	}
	d, err := s.cache.Get(ctx, key)
	switch {
	case err == nil:
		s.metrics.IncrementCache("hit")
		s.cacheSucceeded(ctx)
		return d
	case errors.Is(err, sentinel.ErrNotFound):
		s.metrics.IncrementCache("miss")
		s.cacheSucceeded(ctx)
	default:
		s.metrics.IncrementCache("error")
		s.logger.WarnContext(ctx, "dashboard cache read failed",
			"request_id", requestcontext.RequestID(ctx),
			"key", key,
			"error", err,
		)
		s.cacheFailed(ctx)
	}
	return nil
}

func (s *Service) store(ctx context.Context, key string, d *models.Dashboard) {
	if s.cache == nil || !s.breaker.Allow() {
		return
	}
	if err := s.cache.Set(ctx, key, d); err != nil {
		s.logger.WarnContext(ctx, "dashboard cache write failed",
			"request_id", requestcontext.RequestID(ctx),
			"key", key,
			"error", err,
		)
		s.cacheFailed(ctx)
		return
	}
	s.cacheSucceeded(ctx)
}

func (s *Service) cacheFailed(ctx context.Context) {
	if _, change := s.breaker.RecordFailure(); change.Opened {
		s.logger.WarnContext(ctx, "dashboard cache bypassed after repeated failures",
			"breaker", s.breaker.Name(),
		)
	}
}

func (s *Service) cacheSucceeded(ctx context.Context) {
	if _, change := s.breaker.RecordSuccess(); change.Closed {
		s.logger.InfoContext(ctx, "dashboard cache restored", "breaker", s.breaker.Name())
	}
}
