package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/martpos/inventory-service/internal/model"
)

// File is one uploaded source handed to an extractor.
type File struct {
	Name     string
	Mime     string
	TenantID string
	Data     []byte
}

// Result is what an extractor produced for one file. Err is set only when the
// whole file failed; per-row problems surface as Warnings.
type Result struct {
	Rows     []model.CandidateRow
	Warnings []string
	Err      error
}

// Extractor turns one uploaded file into candidate rows.
type Extractor interface {
	Extract(ctx context.Context, f File) Result
}

// UsageRecorder is the slice of the usage meter extractors need.
type UsageRecorder interface {
	Record(ctx context.Context, rec *model.AIUsageRecord)
}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".heic": true,
}

// Dispatcher routes a file to the extractor for its format. Images go to the
// AI vision extractor when the session asked for it, otherwise to local OCR.
type Dispatcher struct {
	CSV      Extractor
	Excel    Extractor
	PDF      Extractor
	ImageOCR Extractor
	AIVision Extractor
}

// ForFile resolves an extractor from the filename extension. An unsupported
// extension is a caller error, not an extraction failure.
func (d *Dispatcher) ForFile(name string, useAIVision bool) (Extractor, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch {
	case ext == ".csv" || ext == ".tsv":
		return d.CSV, nil
	case ext == ".xlsx" || ext == ".xls":
		return d.Excel, nil
	case ext == ".pdf":
		return d.PDF, nil
	case imageExtensions[ext]:
		if useAIVision {
			if d.AIVision == nil {
				return nil, fmt.Errorf("ai vision extraction is not configured")
			}
			return d.AIVision, nil
		}
		if d.ImageOCR == nil {
			return nil, fmt.Errorf("image ocr is not configured")
		}
		return d.ImageOCR, nil
	default:
		return nil, fmt.Errorf("unsupported file type %q", ext)
	}
}
