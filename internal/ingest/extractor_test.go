package ingest

import (
	"context"
	"testing"

	"github.com/martpos/inventory-service/internal/model"
)

func TestDispatcherRouting(t *testing.T) {
	d := &Dispatcher{
		CSV:      NewCSVExtractor(),
		Excel:    NewExcelExtractor(),
		PDF:      NewPDFExtractor(nil),
		ImageOCR: NewOCRExtractor(nil, nil),
		AIVision: NewAIVisionExtractor(nil, nil, nil, 0),
	}

	tests := []struct {
		name     string
		useAI    bool
		expected Extractor
	}{
		{"products.csv", false, d.CSV},
		{"products.TSV", false, d.CSV},
		{"stock.xlsx", false, d.Excel},
		{"invoice.pdf", false, d.PDF},
		{"receipt.jpg", false, d.ImageOCR},
		{"receipt.png", true, d.AIVision},
	}
	for _, tc := range tests {
		got, err := d.ForFile(tc.name, tc.useAI)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if got != tc.expected {
			t.Fatalf("%s: routed to wrong extractor", tc.name)
		}
	}

	if _, err := d.ForFile("malware.exe", false); err == nil {
		t.Fatal("unsupported extension should error")
	}
}

func TestDispatcherImageWithoutOCRConfigured(t *testing.T) {
	d := &Dispatcher{CSV: NewCSVExtractor()}
	if _, err := d.ForFile("receipt.jpg", false); err == nil {
		t.Fatal("expected error when image ocr is not wired")
	}
	if _, err := d.ForFile("receipt.jpg", true); err == nil {
		t.Fatal("expected error when ai vision is not wired")
	}
}

func TestCSVExtract(t *testing.T) {
	data := []byte("Product Name,SKU,Unit Price,QTY\n" +
		"Widget,WID-001,\"$1,250.50\",12\n" +
		"Gadget,,9.99,3\n" +
		",,,\n")

	res := NewCSVExtractor().Extract(context.Background(), File{Name: "items.csv", Data: data})
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(res.Rows))
	}

	first := res.Rows[0]
	if first.Name != "Widget" || *first.SKU != "WID-001" {
		t.Fatalf("got %+v", first)
	}
	if *first.UnitPrice != 1250.50 || *first.Quantity != 12 {
		t.Fatalf("numeric cells: got %+v", first)
	}
	if first.Source != model.SourceCSV || first.Confidence != model.ConfidenceHigh {
		t.Fatalf("source/confidence: got %s/%s", first.Source, first.Confidence)
	}
	if res.Rows[1].SKU != nil {
		t.Fatalf("empty sku cell should stay nil, got %v", *res.Rows[1].SKU)
	}
}

func TestCSVExtractSniffsSemicolon(t *testing.T) {
	data := []byte("name;price;qty\nLamp;19.99;2\n")
	res := NewCSVExtractor().Extract(context.Background(), File{Name: "items.csv", Data: data})
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if len(res.Rows) != 1 || res.Rows[0].Name != "Lamp" || *res.Rows[0].UnitPrice != 19.99 {
		t.Fatalf("got %+v", res.Rows)
	}
}

type fakeOCR struct {
	text       string
	confidence float64
	err        error
}

func (f *fakeOCR) RecognizeImage(context.Context, []byte) (string, float64, error) {
	return f.text, f.confidence, f.err
}

type capturingMeter struct {
	records []*model.AIUsageRecord
}

func (m *capturingMeter) Record(_ context.Context, rec *model.AIUsageRecord) {
	m.records = append(m.records, rec)
}

func TestOCRExtractDemotesLowConfidence(t *testing.T) {
	meter := &capturingMeter{}
	e := NewOCRExtractor(&fakeOCR{text: "2 x Widget @ 100.00", confidence: 0.4}, meter)

	res := e.Extract(context.Background(), File{Name: "r.jpg", TenantID: "t1"})
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if len(res.Rows) != 1 || res.Rows[0].Confidence != model.ConfidenceLow {
		t.Fatalf("expected demoted row, got %+v", res.Rows)
	}
	if len(res.Warnings) == 0 {
		t.Fatal("expected a low-confidence warning")
	}

	if len(meter.records) != 1 {
		t.Fatalf("expected 1 usage record, got %d", len(meter.records))
	}
	rec := meter.records[0]
	if rec.Provider != "google_vision" || rec.Operation != "image_ocr" || !rec.Success {
		t.Fatalf("usage record: %+v", rec)
	}
}

func TestOCRExtractKeepsConfidenceWhenEngineIsSure(t *testing.T) {
	e := NewOCRExtractor(&fakeOCR{text: "2 x Widget @ 100.00", confidence: 0.93}, nil)
	res := e.Extract(context.Background(), File{Name: "r.jpg"})
	if res.Rows[0].Confidence != model.ConfidenceMedium {
		t.Fatalf("got %s", res.Rows[0].Confidence)
	}
}
