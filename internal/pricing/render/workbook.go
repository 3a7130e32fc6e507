package render

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"pricetrends/internal/pricing/models"
)

const summarySheet = "Summary"

// Workbook builds an XLSX file with a summary sheet and one sheet per report,
// each holding the data table and a native line chart.
func Workbook(d *models.Dashboard) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if err := writeSummary(f, d); err != nil {
		return nil, err
	}
	for _, s := range d.Reports {
		if err := writeReportSheet(f, s); err != nil {
			return nil, fmt.Errorf("sheet %s: %w", s.Title, err)
		}
	}
	idx, _ := f.GetSheetIndex(summarySheet)
	f.SetActiveSheet(idx)
	return f, nil
}

// WriteWorkbook renders d as XLSX into w.
func WriteWorkbook(w io.Writer, d *models.Dashboard) error {
	f, err := Workbook(d)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, d *models.Dashboard) error {
	rows := [][]any{
		{"Run", d.RunID},
		{"Generated at", d.GeneratedAt.Format(time.RFC3339)},
		{"Granularity", d.Params.Granularity.String()},
		{"Approved only", d.Params.ApprovedOnly},
		{"From", formatBound(d.Params.Range.Start)},
		{"To", formatBound(d.Params.Range.End)},
		{"Records", d.Records},
		{"Skipped documents", d.Skipped},
		{},
		{"Report", "Points", "Total"},
	}
	for _, s := range d.Reports {
		rows = append(rows, []any{s.Title, len(s.Points), s.Total()})
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(summarySheet, "A", "A", 22)
	_ = f.SetColWidth(summarySheet, "B", "B", 40)
	return nil
}

func writeReportSheet(f *excelize.File, s models.Series) error {
	sheet := s.Title
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	var header []any
	if s.Bucketed {
		header = []any{"Bucket", "Window start", s.Kind.ValueLabel()}
	} else {
		header = []any{"#", "Position", s.Kind.ValueLabel()}
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, p := range s.Points {
		label := any(p.Bucket + 1)
		if s.Bucketed {
			label = p.Start.Format("2006-01-02")
		}
		row := []any{p.Bucket, label, p.Value}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(sheet, "A", "C", 14)

	if len(s.Points) == 0 {
		return nil
	}
	last := len(s.Points) + 1
	return f.AddChart(sheet, "E2", &excelize.Chart{
		Type: excelize.Line,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("'%s'!$C$1", sheet),
			Categories: fmt.Sprintf("'%s'!$B$2:$B$%d", sheet, last),
			Values:     fmt.Sprintf("'%s'!$C$2:$C$%d", sheet, last),
		}},
		Title:  []excelize.RichTextRun{{Text: s.Title}},
		Legend: excelize.ChartLegend{Position: "none"},
		Dimension: excelize.ChartDimension{
			Width:  720,
			Height: 360,
		},
	})
}

func formatBound(t time.Time) string {
	if t.IsZero() {
		return "full range"
	}
	return t.Format("2006-01-02 15:04:05")
}
