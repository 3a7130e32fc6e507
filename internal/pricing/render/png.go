// Package render turns report series into chart images and workbooks.
package render

import (
	"fmt"
	"io"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"pricetrends/internal/pricing/models"
)

const (
	chartWidth  = 1024
	chartHeight = 512
)

func lineStyle() chart.Style {
	return chart.Style{
		StrokeWidth: 2,
		StrokeColor: drawing.ColorFromHex("1f77b4"),
		DotWidth:    3,
		DotColor:    drawing.ColorFromHex("1f77b4"),
	}
}

// PNG renders one series as a line chart. Bucketed series are plotted against
// window start dates, flat series against their ordinal position.
func PNG(w io.Writer, s models.Series) error {
	if len(s.Points) == 0 {
		return fmt.Errorf("render %s: %w", s.Kind, models.ErrNoData)
	}

	ys := make([]float64, len(s.Points))
	for i, p := range s.Points {
		ys[i] = p.Value
	}

	var series chart.Series
	var xAxis chart.XAxis
	if s.Bucketed {
		xs := make([]time.Time, len(s.Points))
		for i, p := range s.Points {
			xs[i] = p.Start
		}
		// go-chart needs a non-zero x range
		if len(xs) == 1 {
			xs = append(xs, xs[0].AddDate(0, 0, s.Granularity.Days()))
			ys = append(ys, ys[0])
		}
		series = chart.TimeSeries{Name: s.Title, XValues: xs, YValues: ys, Style: lineStyle()}
		xAxis = chart.XAxis{Name: windowLabel(s.Granularity), ValueFormatter: chart.TimeDateValueFormatter}
	} else {
		xs := make([]float64, len(s.Points))
		for i, p := range s.Points {
			xs[i] = float64(p.Bucket)
		}
		if len(xs) == 1 {
			xs = append(xs, xs[0]+1)
			ys = append(ys, ys[0])
		}
		series = chart.ContinuousSeries{Name: s.Title, XValues: xs, YValues: ys, Style: lineStyle()}
		xAxis = chart.XAxis{Name: "approved record"}
	}

	ch := chart.Chart{
		Title:      s.Title,
		Width:      chartWidth,
		Height:     chartHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 28}},
		XAxis:      xAxis,
		YAxis:      chart.YAxis{Name: s.Kind.ValueLabel(), Range: yRange(s.Kind, ys)},
		Series:     []chart.Series{series},
	}
	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render %s: %w", s.Kind, err)
	}
	return nil
}

// yRange pins fractions to [0, 1] and starts counts and hours at zero.
func yRange(kind models.ReportKind, ys []float64) *chart.ContinuousRange {
	if kind.ValueLabel() == "fraction" {
		return &chart.ContinuousRange{Min: 0, Max: 1}
	}
	maxY := 0.0
	for _, y := range ys {
		if y > maxY {
			maxY = y
		}
	}
	if maxY <= 0 {
		maxY = 1
	}
	return &chart.ContinuousRange{Min: 0, Max: maxY * 1.1}
}

func windowLabel(g models.Granularity) string {
	if g == models.Weekly {
		return "week starting"
	}
	return "day"
}
