package ingest

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestNormalizeRowAliasesAndDecoration(t *testing.T) {
	row := NormalizeRow(map[string]any{
		"Product Name": "Widget",
		"Item Code":    "WID-001",
		"Unit Price":   "$1,250.50",
		"Cost":         "Ks 900",
		"Tax":          "5%",
		"QTY":          "12",
		"Supplier":     "Acme Co",
	})

	if row.Name != "Widget" {
		t.Fatalf("name: got %q", row.Name)
	}
	if row.SKU == nil || *row.SKU != "WID-001" {
		t.Fatalf("sku: got %v", row.SKU)
	}
	if row.UnitPrice == nil || *row.UnitPrice != 1250.50 {
		t.Fatalf("unit_price: got %v", row.UnitPrice)
	}
	if row.CostPrice == nil || *row.CostPrice != 900 {
		t.Fatalf("cost_price: got %v", row.CostPrice)
	}
	if row.TaxRate == nil || *row.TaxRate != 5 {
		t.Fatalf("tax_rate: got %v", row.TaxRate)
	}
	if row.Quantity == nil || *row.Quantity != 12 {
		t.Fatalf("quantity: got %v", row.Quantity)
	}
	if row.Attributes["supplier"] != "Acme Co" {
		t.Fatalf("attributes: got %v", row.Attributes)
	}
}

func TestNormalizeRowAbsentStaysNilUnparsableBecomesZero(t *testing.T) {
	row := NormalizeRow(map[string]any{
		"name":  "Gadget",
		"price": "n/a",
	})

	if row.UnitPrice == nil || *row.UnitPrice != 0 {
		t.Fatalf("unparsable price should normalize to 0, got %v", row.UnitPrice)
	}
	if row.Quantity != nil {
		t.Fatalf("absent quantity should stay nil, got %v", *row.Quantity)
	}
	if row.CostPrice != nil || row.TaxRate != nil || row.SKU != nil {
		t.Fatalf("absent fields should stay nil")
	}
}

func TestNormalizeRowIsTotal(t *testing.T) {
	// Hostile inputs must not panic and must still produce a row.
	inputs := []map[string]any{
		nil,
		{},
		{"": ""},
		{"price": nil, "qty": []string{"weird"}, "name": 42},
		{"Unit Price": "€€€", "barcode": 123456789},
	}
	for i, in := range inputs {
		_ = NormalizeRow(in)
		_ = i
	}
}

func TestNormalizeRowIdempotent(t *testing.T) {
	first := NormalizeRow(map[string]any{
		"Product Name": "Desk Lamp",
		"SKU":          "DL-9",
		"Barcode":      "4006381333931",
		"Category":     "Lighting",
		"Cost Price":   "7.25",
		"Unit Price":   "19.99",
		"Tax Rate":     "5",
		"Quantity":     "3",
	})

	// Round-trip the canonical shape back through the normalizer.
	data, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var asMap map[string]any
	if err := json.Unmarshal(data, &asMap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	second := NormalizeRow(asMap)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("normalize is not idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}
