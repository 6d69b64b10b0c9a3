// Package fields holds the heuristic extractors that turn normalized
// invoice text into supplier, date and amount values. Keyword sets,
// thresholds and rates are configuration, not code: a jurisdiction or
// layout change is a data edit here.
package fields

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Extraction strategies recorded on candidates.
const (
	StrategyKeyword  = "keyword"  // matched a keyword line
	StrategyFallback = "fallback" // whole-document scan
	StrategyDerived  = "derived"  // computed from another field
)

// Candidate is one possible value for a field: what was found, where, and
// which strategy produced it. The zero value means "nothing found".
type Candidate struct {
	Value    decimal.Decimal
	Line     int
	Strategy string
}

// Found reports whether any strategy produced this candidate.
func (c Candidate) Found() bool { return c.Strategy != "" }

// Config carries the extractors' tunables.
type Config struct {
	// Amounts
	TotalKeywords   []string
	TotalExclusions []string
	VATKeywords     []string
	VATExclusions   []string
	NoiseFloor      decimal.Decimal // fallback scan ignores amounts at or below this; zero means no floor
	DefaultVATRate  decimal.Decimal // used to derive VAT when none is printed; zero disables derivation

	// Supplier
	SupplierExclusions []string
	SupplierMaxLines   int // top-of-document window
	SupplierMinLen     int // shortest line worth considering
	SupplierMaxLen     int // returned names are capped at this
	SupplierSentinel   string
}

// DefaultConfig returns the reference configuration for Irish invoices.
func DefaultConfig() Config {
	return Config{
		TotalKeywords: []string{
			"total", "amount due", "balance due", "grand total",
			"final total", "total amount", "amount payable", "invoice total",
		},
		TotalExclusions: []string{"subtotal", "sub-total", "sub total"},
		VATKeywords:     []string{"vat", "tax", "iva", "value added tax", "v.a.t."},
		VATExclusions:   []string{"vat no", "vat number", "vat reg", "tax id", "tax number"},
		NoiseFloor:      decimal.NewFromInt(10),
		DefaultVATRate:  decimal.NewFromFloat(0.23),

		SupplierExclusions: []string{
			"invoice", "bill", "receipt", "date", "total", "vat", "tax",
			"page", "tel", "phone", "email", "www", "http", "https",
		},
		SupplierMaxLines: 10,
		SupplierMinLen:   3,
		SupplierMaxLen:   100,
		SupplierSentinel: "Supplier Not Identified",
	}
}

// withDefaults fills unset fields from DefaultConfig so callers can override
// selectively. NoiseFloor and DefaultVATRate are left alone: zero is a
// recognized setting for both, so callers wanting the reference values start
// from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.TotalKeywords == nil {
		c.TotalKeywords = d.TotalKeywords
	}
	if c.TotalExclusions == nil {
		c.TotalExclusions = d.TotalExclusions
	}
	if c.VATKeywords == nil {
		c.VATKeywords = d.VATKeywords
	}
	if c.VATExclusions == nil {
		c.VATExclusions = d.VATExclusions
	}
	if c.SupplierExclusions == nil {
		c.SupplierExclusions = d.SupplierExclusions
	}
	if c.SupplierMaxLines <= 0 {
		c.SupplierMaxLines = d.SupplierMaxLines
	}
	if c.SupplierMinLen <= 0 {
		c.SupplierMinLen = d.SupplierMinLen
	}
	if c.SupplierMaxLen <= 0 {
		c.SupplierMaxLen = d.SupplierMaxLen
	}
	if c.SupplierSentinel == "" {
		c.SupplierSentinel = d.SupplierSentinel
	}
	return c
}

func containsAny(line string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(line, n) {
			return true
		}
	}
	return false
}
