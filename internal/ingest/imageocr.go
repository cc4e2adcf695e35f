package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/martpos/inventory-service/internal/model"
)

// lowOCRConfidence is the engine confidence below which every parsed row is
// demoted to low, regardless of how cleanly its line matched.
const lowOCRConfidence = 0.6

// OCREngine is the OCR surface the extractor needs; the Cloud Vision platform
// client satisfies it.
type OCREngine interface {
	RecognizeImage(ctx context.Context, img []byte) (text string, confidence float64, err error)
}

// OCRExtractor recognizes text in an image and runs the line heuristics on
// the result.
type OCRExtractor struct {
	engine OCREngine
	meter  UsageRecorder
}

func NewOCRExtractor(engine OCREngine, meter UsageRecorder) *OCRExtractor {
	return &OCRExtractor{engine: engine, meter: meter}
}

func (e *OCRExtractor) Extract(ctx context.Context, f File) Result {
	start := time.Now()
	text, confidence, err := e.engine.RecognizeImage(ctx, f.Data)

	if e.meter != nil {
		rec := &model.AIUsageRecord{
			TenantID:   f.TenantID,
			Provider:   "google_vision",
			Operation:  "image_ocr",
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
		return Result{Err: fmt.Errorf("recognize image: %w", err)}
	}

	rows := ParseLines(text, model.SourceImageOCR)

	var warnings []string
	if confidence > 0 && confidence < lowOCRConfidence {
		DemoteConfidence(rows, model.ConfidenceLow)
		warnings = append(warnings,
			fmt.Sprintf("%s: ocr confidence %.2f is low; review rows before committing", f.Name, confidence))
	}
	if len(rows) == 0 {
		warnings = append(warnings, fmt.Sprintf("%s: no recognizable lines in image", f.Name))
	}
	return Result{Rows: rows, Warnings: warnings}
}
