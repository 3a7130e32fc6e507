package render

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"pricetrends/internal/pricing/models"
)

// WorkbookName is the file DirSink writes the workbook to.
const WorkbookName = "dashboard.xlsx"

// DirSink writes <kind>.png for each report plus the workbook into Dir.
type DirSink struct {
	Dir string
}

// Write renders every report of d and returns the written paths.
func (s DirSink) Write(d *models.Dashboard) ([]string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	paths := make([]string, 0, len(d.Reports)+1)
	for _, series := range d.Reports {
		var buf bytes.Buffer
		if err := PNG(&buf, series); err != nil {
			return paths, err
		}
		path := filepath.Join(s.Dir, string(series.Kind)+".png")
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}

	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, d); err != nil {
		return paths, err
	}
	path := filepath.Join(s.Dir, WorkbookName)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return paths, fmt.Errorf("write %s: %w", path, err)
	}
	return append(paths, path), nil
}
