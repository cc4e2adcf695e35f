package ingest

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// SKUChecker answers whether a SKU is already taken for a tenant. Inside a
// commit transaction the check observes rows inserted earlier in the same
// batch, which is what keeps batch-generated SKUs distinct.
type SKUChecker interface {
	SKUExists(ctx context.Context, tenantID, sku string) (bool, error)
}

// EnsureUniqueSKU resolves a candidate SKU to one that is free for the
// tenant, appending -1, -2, ... until no collision remains.
func EnsureUniqueSKU(ctx context.Context, checker SKUChecker, tenantID, base string) (string, error) {
	base = SanitizeSKU(base)
	if base == "" {
		base = "SKU"
	}

	for i := 0; ; i++ {
		candidate := base
		if i > 0 {
			candidate = fmt.Sprintf("%s-%d", base, i)
		}
		taken, err := checker.SKUExists(ctx, tenantID, candidate)
		if err != nil {
			return "", fmt.Errorf("check sku %s: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
	}
}

// SanitizeSKU uppercases and keeps only alphanumerics and dashes.
func SanitizeSKU(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-")
}

type SKUAttributes struct {
	Name     string
	Category string
	Color    string
	Material string
	Date     time.Time
}

// GenerateSKU builds a human-readable slug from product attributes, e.g.
// "OAK DESK" / "Furniture" in June 2025 -> "OAKD-FURN-0625". The result
// still needs an EnsureUniqueSKU pass.
func GenerateSKU(attrs SKUAttributes) string {
	parts := []string{}
	for _, source := range []string{attrs.Name, attrs.Category, attrs.Color, attrs.Material} {
		if p := slugPart(source, 4); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		parts = append(parts, "ITEM")
	}

	date := attrs.Date
	if date.IsZero() {
		date = time.Now()
	}
	parts = append(parts, date.Format("0106"))

	return strings.Join(parts, "-")
}

func slugPart(s string, maxLen int) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			if b.Len() >= maxLen {
				break
			}
		}
	}
	return b.String()
}

type BarcodeFormat string

const (
	BarcodeEAN13   BarcodeFormat = "EAN13"
	BarcodeEAN8    BarcodeFormat = "EAN8"
	BarcodeUPC     BarcodeFormat = "UPC"
	BarcodeCode128 BarcodeFormat = "CODE128"
	BarcodeCode39  BarcodeFormat = "CODE39"
)

// bodyDigits is the data-digit count per symbology, excluding the check
// digit. Code 128/39 are variable length and take no padding.
var bodyDigits = map[BarcodeFormat]int{
	BarcodeEAN13: 12,
	BarcodeEAN8:  7,
	BarcodeUPC:   11,
}

type BarcodeConfig struct {
	Format BarcodeFormat
	Prefix string
	Start  int64
}

// BarcodeValue derives the index-th barcode of a sequence: prefix plus the
// numeric body zero-padded to the symbology's data-digit count.
//
// Unlike SKUs, barcode values are NOT checked for uniqueness, and check
// digits are NOT computed here - the rendering side owns check-digit math,
// and bundles may deliberately share a barcode. Callers that need distinct
// barcodes must deduplicate themselves.
func BarcodeValue(cfg BarcodeConfig, index int) string {
	n := cfg.Start + int64(index)
	body := strconv.FormatInt(n, 10)

	digits, padded := bodyDigits[cfg.Format]
	if padded {
		width := digits - len(cfg.Prefix)
		if width > len(body) {
			body = strings.Repeat("0", width-len(body)) + body
		}
	}
	return cfg.Prefix + body
}
