package fields

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/budgidesk/invoice-engine/internal/money"
)

// AmountsResult carries the selected total and VAT candidates.
type AmountsResult struct {
	Total Candidate
	VAT   Candidate
}

// ExtractAmounts scans normalized lines for the invoice total and VAT
// amount.
//
// Pass 1 looks at keyword lines only, taking the last amount on each line
// (totals sit right-aligned at the end) and the largest across lines, so a
// final "Total:" beats any interim subtotal that slipped past the exclusion
// list. VAT candidates must not exceed the total. Pass 2 falls back to the
// largest amount anywhere above the noise floor when no keyword line
// produced a total, and derives VAT at the default rate when none was
// printed.
func ExtractAmounts(lines []string, cfg Config) AmountsResult {
	cfg = cfg.withDefaults()

	var res AmountsResult

	for i, line := range lines {
		lower := strings.ToLower(line)
		if !containsAny(lower, cfg.TotalKeywords) || containsAny(lower, cfg.TotalExclusions) {
			continue
		}
		toks := money.FindTokens(line)
		if len(toks) == 0 {
			continue
		}
		last := toks[len(toks)-1]
		// >= so that of equal candidates the later line wins
		if last.Value.GreaterThanOrEqual(res.Total.Value) {
			res.Total = Candidate{Value: last.Value, Line: i, Strategy: StrategyKeyword}
		}
	}

	for i, line := range lines {
		lower := strings.ToLower(line)
		if !containsAny(lower, cfg.VATKeywords) || containsAny(lower, cfg.VATExclusions) {
			continue
		}
		toks := money.FindTokens(line)
		if len(toks) == 0 {
			continue
		}
		last := toks[len(toks)-1]
		// plausibility: VAT cannot exceed the invoice total
		if last.Value.GreaterThan(res.Total.Value) {
			continue
		}
		if last.Value.GreaterThanOrEqual(res.VAT.Value) {
			res.VAT = Candidate{Value: last.Value, Line: i, Strategy: StrategyKeyword}
		}
	}

	if !res.Total.Found() {
		for i, line := range lines {
			for _, tok := range money.FindTokens(line) {
				if tok.Value.LessThanOrEqual(cfg.NoiseFloor) {
					continue
				}
				if tok.Value.GreaterThanOrEqual(res.Total.Value) {
					res.Total = Candidate{Value: tok.Value, Line: i, Strategy: StrategyFallback}
				}
			}
		}
	}

	if !res.VAT.Found() && res.Total.Value.GreaterThan(decimal.Zero) {
		res.VAT = Candidate{
			Value:    res.Total.Value.Mul(cfg.DefaultVATRate).Round(2),
			Line:     res.Total.Line,
			Strategy: StrategyDerived,
		}
	}

	return res
}
