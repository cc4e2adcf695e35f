package ingest

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/martpos/inventory-service/internal/model"
)

// PDFExtractor reads the text layer of a PDF and runs the line heuristics on
// it. Scanned PDFs without a text layer come back empty; the caller should
// retry those as images.
type PDFExtractor struct {
	meter UsageRecorder
}

func NewPDFExtractor(meter UsageRecorder) *PDFExtractor {
	return &PDFExtractor{meter: meter}
}

func (e *PDFExtractor) Extract(ctx context.Context, f File) Result {
	start := time.Now()

	text, err := pdfPlainText(f.Data)

	if e.meter != nil {
		rec := &model.AIUsageRecord{
			TenantID:   f.TenantID,
			Provider:   "local",
			Operation:  "pdf_text",
			DurationMS: time.Since(start).Milliseconds(),
			Success:    err == nil,
		}
		if err != nil {
			msg := err.Error()
			rec.Error = &msg
		}
		e.meter.Record(ctx, rec)
	}

	if err != nil {
		return Result{Err: fmt.Errorf("extract pdf text: %w", err)}
	}

	rows := ParseLines(text, model.SourcePDFOCR)
	var warnings []string
	if len(rows) == 0 {
		warnings = append(warnings,
			fmt.Sprintf("%s: no recognizable lines; the document may be a scan without a text layer", f.Name))
	}
	return Result{Rows: rows, Warnings: warnings}
}

func pdfPlainText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}
