package importer

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Cell coercion for manually exported spreadsheets. Dates arrive as
// DD/MM/YYYY, free-text month names, or ISO; numbers carry currency
// symbols, percent signs, and thousands separators.

var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"2 January 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"Jan 2, 2006",
}

// ParseDate normalizes a date cell to YYYY-MM-DD. The second return is
// false for empty or unparseable cells; callers skip and count those rows.
func ParseDate(cell string) (string, bool) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return "", false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, cell); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

var numberStrip = strings.NewReplacer(
	"£", "", "$", "", "€", "", "%", "", ",", "", " ", "", " ", "",
)

// ParseNumber coerces a numeric cell. Empty cells and the conventional "-"
// placeholder become zero; anything else unparseable also degrades to zero
// rather than failing the row.
func ParseNumber(cell string) decimal.Decimal {
	cell = strings.TrimSpace(cell)
	if cell == "" || cell == "-" {
		return decimal.Zero
	}
	cleaned := numberStrip.Replace(cell)
	// Bracketed negatives, as some export tools write them.
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		cleaned = "-" + strings.Trim(cleaned, "()")
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return d
}
