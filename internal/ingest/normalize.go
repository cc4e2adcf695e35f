package ingest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/martpos/inventory-service/internal/model"
)

// fieldAliases maps canonicalized source column names to CandidateRow fields.
// Canonicalization lowercases and strips spaces, underscores and dashes, so
// "Product Name", "product_name" and "productname" all land on name.
var fieldAliases = map[string]string{
	"name":        "name",
	"productname": "name",
	"itemname":    "name",
	"item":        "name",
	"product":     "name",
	"title":       "name",

	"sku":         "sku",
	"skucode":     "sku",
	"itemcode":    "sku",
	"productcode": "sku",
	"code":        "sku",

	"barcode": "barcode",
	"ean":     "barcode",
	"upc":     "barcode",
	"gtin":    "barcode",

	"category":        "category",
	"productcategory": "category",
	"group":           "category",

	"description": "description",
	"desc":        "description",
	"details":     "description",

	"costprice":     "cost_price",
	"cost":          "cost_price",
	"purchaseprice": "cost_price",
	"buyprice":      "cost_price",

	"unitprice":    "unit_price",
	"price":        "unit_price",
	"sellingprice": "unit_price",
	"salesprice":   "unit_price",
	"saleprice":    "unit_price",
	"retailprice":  "unit_price",

	"taxrate": "tax_rate",
	"tax":     "tax_rate",
	"vat":     "tax_rate",
	"gst":     "tax_rate",

	"quantity":     "quantity",
	"qty":          "quantity",
	"stock":        "quantity",
	"stockqty":     "quantity",
	"onhand":       "quantity",
	"openingstock": "quantity",
	"count":        "quantity",
}

// reservedKeys are set by extractors, never read from source records.
var reservedKeys = map[string]bool{
	"confidence": true,
	"source":     true,
	"attributes": true,
}

// NormalizeRow maps an arbitrary key/value record onto the canonical row
// shape. It is total: any input produces a row, unknown keys land in
// Attributes, unparsable numerics become 0, and absent fields stay nil so the
// commit path can distinguish "not provided" from zero.
func NormalizeRow(raw map[string]any) model.CandidateRow {
	row := model.CandidateRow{}

	for key, value := range raw {
		canonical := canonicalKey(key)
		if reservedKeys[canonical] {
			continue
		}

		field, known := fieldAliases[canonical]
		if !known {
			if s := asString(value); s != "" {
				if row.Attributes == nil {
					row.Attributes = map[string]any{}
				}
				row.Attributes[canonical] = s
			}
			continue
		}

		switch field {
		case "name":
			row.Name = strings.TrimSpace(asString(value))
		case "sku":
			setString(&row.SKU, value)
		case "barcode":
			setString(&row.Barcode, value)
		case "category":
			setString(&row.Category, value)
		case "description":
			setString(&row.Description, value)
		case "cost_price":
			setNumber(&row.CostPrice, value)
		case "unit_price":
			setNumber(&row.UnitPrice, value)
		case "tax_rate":
			setNumber(&row.TaxRate, value)
		case "quantity":
			setNumber(&row.Quantity, value)
		}
	}

	return row
}

func canonicalKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-', '.':
			return -1
		}
		return r
	}, key)
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func setString(dst **string, v any) {
	s := strings.TrimSpace(asString(v))
	if s == "" {
		return
	}
	*dst = &s
}

func setNumber(dst **float64, v any) {
	switch t := v.(type) {
	case nil:
		return
	case float64:
		*dst = &t
		return
	case float32:
		f := float64(t)
		*dst = &f
		return
	case int:
		f := float64(t)
		*dst = &f
		return
	case int64:
		f := float64(t)
		*dst = &f
		return
	}

	s := strings.TrimSpace(asString(v))
	if s == "" {
		return
	}
	f := parseDecorated(s)
	*dst = &f
}

// parseDecorated strips currency symbols, thousands separators and a trailing
// percent sign before parsing. Values that still fail to parse become 0; a
// bad cell never fails the row.
func parseDecorated(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")

	// Trim any leading non-numeric decoration ($, €, £, Ks, ...).
	start := 0
	for start < len(s) {
		c := s[start]
		if c == '-' || c == '.' || (c >= '0' && c <= '9') {
			break
		}
		start++
	}
	s = s[start:]

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
