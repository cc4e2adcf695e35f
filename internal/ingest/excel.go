package ingest

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/martpos/inventory-service/internal/model"
)

// ExcelExtractor reads the first sheet of a workbook. Like CSV, row one is
// the header and rows are high confidence.
type ExcelExtractor struct{}

func NewExcelExtractor() *ExcelExtractor {
	return &ExcelExtractor{}
}

func (e *ExcelExtractor) Extract(_ context.Context, f File) Result {
	wb, err := excelize.OpenReader(bytes.NewReader(f.Data))
	if err != nil {
		return Result{Err: fmt.Errorf("open workbook: %w", err)}
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return Result{Err: fmt.Errorf("workbook has no sheets")}
	}

	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return Result{Err: fmt.Errorf("read sheet %s: %w", sheets[0], err)}
	}
	if len(rows) == 0 {
		return Result{Warnings: []string{fmt.Sprintf("%s: sheet %s is empty", f.Name, sheets[0])}}
	}

	header := rows[0]
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var res Result
	for _, record := range rows[1:] {
		raw := make(map[string]any, len(header))
		empty := true
		for i, cell := range record {
			if i >= len(header) || header[i] == "" {
				continue
			}
			cell = strings.TrimSpace(cell)
			if cell != "" {
				empty = false
			}
			raw[header[i]] = cell
		}
		if empty {
			continue
		}

		row := NormalizeRow(raw)
		row.Source = model.SourceExcel
		row.Confidence = model.ConfidenceHigh
		res.Rows = append(res.Rows, row)
	}

	if len(res.Rows) == 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%s: no data rows found", f.Name))
	}
	return res
}
