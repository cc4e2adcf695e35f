package ingest

import (
	"testing"

	"github.com/martpos/inventory-service/internal/model"
)

func TestParseLinesReceiptText(t *testing.T) {
	text := "INVOICE #1042\n" +
		"2 x Widget @ 100.00\n" +
		"Gadget - 50\n" +
		"TOTAL: lots\n"

	rows := ParseLines(text, model.SourceImageOCR)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d: %+v", len(rows), rows)
	}

	first := rows[0]
	if first.Name != "Widget" {
		t.Fatalf("name: got %q", first.Name)
	}
	if first.Quantity == nil || *first.Quantity != 2 {
		t.Fatalf("quantity: got %v", first.Quantity)
	}
	if first.UnitPrice == nil || *first.UnitPrice != 100 {
		t.Fatalf("unit_price: got %v", first.UnitPrice)
	}
	if first.Confidence != model.ConfidenceMedium {
		t.Fatalf("confidence: got %s", first.Confidence)
	}
	if first.Source != model.SourceImageOCR {
		t.Fatalf("source: got %s", first.Source)
	}

	second := rows[1]
	if second.Name != "Gadget" {
		t.Fatalf("name: got %q", second.Name)
	}
	if second.Quantity == nil || *second.Quantity != 1 {
		t.Fatalf("quantity should default to 1, got %v", second.Quantity)
	}
	if second.UnitPrice == nil || *second.UnitPrice != 50 {
		t.Fatalf("unit_price: got %v", second.UnitPrice)
	}
	if second.Confidence != model.ConfidenceLow {
		t.Fatalf("confidence: got %s", second.Confidence)
	}
}

func TestParseLinesTabular(t *testing.T) {
	rows := ParseLines("Oak Desk    4   249.99", model.SourcePDFOCR)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	r := rows[0]
	if r.Name != "Oak Desk" || *r.Quantity != 4 || *r.UnitPrice != 249.99 {
		t.Fatalf("got %+v", r)
	}
	if r.Confidence != model.ConfidenceMedium {
		t.Fatalf("confidence: got %s", r.Confidence)
	}
}

func TestParseLinesCurrencyAndThousands(t *testing.T) {
	rows := ParseLines("3 x Leather Sofa @ $1,250.50", model.SourceAIVision)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if *rows[0].UnitPrice != 1250.50 {
		t.Fatalf("unit_price: got %v", *rows[0].UnitPrice)
	}
}

func TestParseLinesDropsNoise(t *testing.T) {
	text := "STORE COPY\n\n====\nThank you for shopping\n"
	if rows := ParseLines(text, model.SourceImageOCR); len(rows) != 0 {
		t.Fatalf("noise should yield no rows, got %+v", rows)
	}
}

func TestDemoteConfidence(t *testing.T) {
	rows := ParseLines("2 x Widget @ 100.00\nGadget - 50", model.SourceImageOCR)
	DemoteConfidence(rows, model.ConfidenceLow)
	for _, r := range rows {
		if r.Confidence != model.ConfidenceLow {
			t.Fatalf("row %q not demoted: %s", r.Name, r.Confidence)
		}
	}
}
