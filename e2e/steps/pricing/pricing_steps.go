package pricing

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	Body() []byte
	DecodeBody(v any) error
}

// RegisterSteps registers dashboard and report assertion steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &pricingSteps{tc: tc}

	ctx.Step(`^the dashboard should contain (\d+) reports$`, steps.dashboardShouldContainReports)
	ctx.Step(`^the dashboard should report (\d+) records and (\d+) skipped$`, steps.dashboardShouldReportCounts)
	ctx.Step(`^report "([^"]*)" should have values "([^"]*)"$`, steps.reportShouldHaveValues)
	ctx.Step(`^the body should be a PNG image$`, steps.bodyShouldBePNG)
}

type point struct {
	Value float64 `json:"value"`
}

type series struct {
	Kind   string  `json:"kind"`
	Points []point `json:"points"`
}

type dashboard struct {
	Records int      `json:"records"`
	Skipped int      `json:"skipped"`
	Reports []series `json:"reports"`
}

type pricingSteps struct {
	tc TestContext
}

func (s *pricingSteps) dashboard() (*dashboard, error) {
	var d dashboard
	if err := s.tc.DecodeBody(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *pricingSteps) dashboardShouldContainReports(ctx context.Context, n int) error {
	d, err := s.dashboard()
	if err != nil {
		return err
	}
	if len(d.Reports) != n {
		return fmt.Errorf("expected %d reports, got %d", n, len(d.Reports))
	}
	return nil
}

func (s *pricingSteps) dashboardShouldReportCounts(ctx context.Context, records, skipped int) error {
	d, err := s.dashboard()
	if err != nil {
		return err
	}
	if d.Records != records || d.Skipped != skipped {
		return fmt.Errorf("expected %d records and %d skipped, got %d and %d", records, skipped, d.Records, d.Skipped)
	}
	return nil
}

func (s *pricingSteps) reportShouldHaveValues(ctx context.Context, kind, csv string) error {
	d, err := s.dashboard()
	if err != nil {
		return err
	}
	var want []float64
	for _, field := range strings.Split(csv, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return fmt.Errorf("bad expected value %q: %w", field, err)
		}
		want = append(want, v)
	}
	for _, r := range d.Reports {
		if r.Kind != kind {
			continue
		}
		if len(r.Points) != len(want) {
			return fmt.Errorf("report %s: expected %d points, got %d", kind, len(want), len(r.Points))
		}
		for i, p := range r.Points {
			if math.Abs(p.Value-want[i]) > 1e-9 {
				return fmt.Errorf("report %s point %d: expected %v, got %v", kind, i, want[i], p.Value)
			}
		}
		return nil
	}
	return fmt.Errorf("report %s not in dashboard", kind)
}

func (s *pricingSteps) bodyShouldBePNG(ctx context.Context) error {
	if !bytes.HasPrefix(s.tc.Body(), []byte("\x89PNG\r\n\x1a\n")) {
		return fmt.Errorf("body is not a PNG image")
	}
	return nil
}
