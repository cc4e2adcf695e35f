package ingest

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/martpos/inventory-service/internal/model"
)

// CSVExtractor parses delimiter-separated text. The first row is treated as a
// header and mapped through the field alias table; structured sources produce
// high-confidence rows.
type CSVExtractor struct{}

func NewCSVExtractor() *CSVExtractor {
	return &CSVExtractor{}
}

func (e *CSVExtractor) Extract(_ context.Context, f File) Result {
	reader := csv.NewReader(bytes.NewReader(f.Data))
	reader.Comma = sniffDelimiter(f.Data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return Result{Err: fmt.Errorf("read header: %w", err)}
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var res Result
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s line %d: %v", f.Name, line, err))
			continue
		}

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
		row.Source = model.SourceCSV
		row.Confidence = model.ConfidenceHigh
		res.Rows = append(res.Rows, row)
	}

	if len(res.Rows) == 0 && res.Err == nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%s: no data rows found", f.Name))
	}
	return res
}

// sniffDelimiter picks the separator that splits the first line into the most
// fields. Comma wins ties.
func sniffDelimiter(data []byte) rune {
	firstLine := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		firstLine = data[:i]
	}

	best := ','
	bestCount := bytes.Count(firstLine, []byte{','})
	for _, cand := range []byte{'\t', ';', '|'} {
		if n := bytes.Count(firstLine, []byte{cand}); n > bestCount {
			best = rune(cand)
			bestCount = n
		}
	}
	return best
}
