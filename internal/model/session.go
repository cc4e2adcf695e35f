package model

import "time"

type SessionStatus string

const (
	SessionCreated   SessionStatus = "created"
	SessionParsed    SessionStatus = "parsed"
	SessionCommitted SessionStatus = "committed"
)

type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

type RowSource string

const (
	SourceCSV      RowSource = "csv"
	SourceExcel    RowSource = "excel"
	SourcePDFOCR   RowSource = "pdf_ocr"
	SourceImageOCR RowSource = "image_ocr"
	SourceAIVision RowSource = "ai_vision"
)

// CandidateRow is a normalized product-like record staged inside an import
// session. Optional fields stay nil when the source did not provide them, so
// the commit path can tell "not provided" from an explicit zero.
type CandidateRow struct {
	Name        string         `json:"name"`
	SKU         *string        `json:"sku,omitempty"`
	Barcode     *string        `json:"barcode,omitempty"`
	Category    *string        `json:"category,omitempty"`
	Description *string        `json:"description,omitempty"`
	CostPrice   *float64       `json:"cost_price,omitempty"`
	UnitPrice   *float64       `json:"unit_price,omitempty"`
	TaxRate     *float64       `json:"tax_rate,omitempty"`
	Quantity    *float64       `json:"quantity,omitempty"`
	Attributes  map[string]any `json:"attributes,omitempty"`
	Confidence  Confidence     `json:"confidence"`
	Source      RowSource      `json:"source"`
}

type SessionFile struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Mime     string `json:"mime"`
	Size     int64  `json:"size"`
}

// ImportSession is transient staging state between upload and commit. It is
// never the system of record: it lives in the TTL store and is discarded on
// expiry or after commit.
type ImportSession struct {
	ID          string         `json:"id"`
	TenantID    string         `json:"tenant_id"`
	Status      SessionStatus  `json:"status"`
	SourceType  string         `json:"source_type"`
	Files       []SessionFile  `json:"files"`
	Rows        []CandidateRow `json:"rows"`
	Warnings    []string       `json:"warnings"`
	CreatedAt   time.Time      `json:"created_at"`
	CommittedAt *time.Time     `json:"committed_at,omitempty"`
}
