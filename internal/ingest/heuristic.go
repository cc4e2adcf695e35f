package ingest

import (
	"regexp"
	"strings"

	"github.com/martpos/inventory-service/internal/model"
)

// The heuristic parser turns free text (OCR output, PDF text layers) into
// candidate rows. Patterns are tried in order; the first match wins and
// non-matching lines are dropped rather than guessed at.
var (
	// "2 x Widget @ 100.00", "3 Widget @ $1,250.50"
	reQtyNameAtPrice = regexp.MustCompile(`^\s*(\d+(?:\.\d+)?)\s*(?:[xX*]\s*)?\s*(.+?)\s*@\s*\$?([\d,]+(?:\.\d+)?)\s*$`)

	// "Widget   2   100.00" - tabular name / qty / price columns
	reNameQtyPrice = regexp.MustCompile(`^\s*(.+?)\s{2,}(\d+(?:\.\d+)?)\s+\$?([\d,]+(?:\.\d+)?)\s*$`)

	// "Gadget - 50" - name and price only, quantity defaults to 1
	reNameDashPrice = regexp.MustCompile(`^\s*(.+?)\s*[-–]\s*\$?([\d,]+(?:\.\d+)?)\s*$`)
)

// ParseLines extracts candidate rows from free text, one row per recognized
// line. Lines that match no pattern are skipped; they are usually headers,
// totals or OCR noise, and dropping them beats inventing a product.
func ParseLines(text string, source model.RowSource) []model.CandidateRow {
	var rows []model.CandidateRow

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if m := reQtyNameAtPrice.FindStringSubmatch(line); m != nil {
			rows = append(rows, buildRow(m[2], m[1], m[3], model.ConfidenceMedium, source))
			continue
		}
		if m := reNameQtyPrice.FindStringSubmatch(line); m != nil {
			rows = append(rows, buildRow(m[1], m[2], m[3], model.ConfidenceMedium, source))
			continue
		}
		if m := reNameDashPrice.FindStringSubmatch(line); m != nil {
			rows = append(rows, buildRow(m[1], "1", m[2], model.ConfidenceLow, source))
			continue
		}
	}

	return rows
}

func buildRow(name, qty, price string, conf model.Confidence, source model.RowSource) model.CandidateRow {
	q := parseDecorated(qty)
	p := parseDecorated(price)
	return model.CandidateRow{
		Name:       strings.TrimSpace(name),
		Quantity:   &q,
		UnitPrice:  &p,
		Confidence: conf,
		Source:     source,
	}
}

// DemoteConfidence caps every row at the given confidence. OCR extractors use
// it when the engine reports low recognition quality for the whole page.
func DemoteConfidence(rows []model.CandidateRow, max model.Confidence) {
	rank := map[model.Confidence]int{
		model.ConfidenceLow:    0,
		model.ConfidenceMedium: 1,
		model.ConfidenceHigh:   2,
	}
	for i := range rows {
		if rank[rows[i].Confidence] > rank[max] {
			rows[i].Confidence = max
		}
	}
}
