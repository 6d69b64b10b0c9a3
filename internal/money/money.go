// Package money parses monetary amounts out of noisy invoice text.
//
// Invoices mix European ("10.000,00") and Anglo ("10,000.00") digit
// grouping, often with currency symbols and OCR junk attached. Parse
// resolves the separator ambiguity; FindTokens scans a line for every
// amount it contains.
package money

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Token is a monetary value found in text, tagged with the literal
// substring it was parsed from.
type Token struct {
	Value   decimal.Decimal
	Literal string
}

// reToken matches either a currency-prefixed number in any grouping, or a
// bare number that carries an explicit two-digit cents part. Bare whole
// numbers are deliberately not matched: on a receipt they are as likely to
// be quantities, dates or phone fragments as amounts.
var reToken = regexp.MustCompile(`[€$£]\s*\d[\d.,]*|\d[\d.,]*[.,]\d{2}\b`)

// FindTokens returns every positive monetary amount on a line, in order of
// appearance.
func FindTokens(line string) []Token {
	matches := reToken.FindAllString(line, -1)
	if len(matches) == 0 {
		return nil
	}
	tokens := make([]Token, 0, len(matches))
	for _, m := range matches {
		v := Parse(m)
		if v.IsPositive() {
			tokens = append(tokens, Token{Value: v, Literal: m})
		}
	}
	return tokens
}

// Parse converts a string holding a single amount into a decimal value.
//
// The thousands/decimal ambiguity between '.' and ',' is resolved as
// follows: when both appear, the one occurring later is the decimal
// separator; when only one kind appears more than once it is a thousands
// separator; when it appears exactly once, a two-digit tail makes it the
// decimal separator, anything else makes it thousands ("1.234" is twelve
// hundred thirty-four, "1,23" is one euro twenty-three).
//
// A '+' or '-' is honored only at the very start of the (trimmed) input;
// all other non-numeric characters are discarded. Malformed or empty input
// parses to zero, never an error.
func Parse(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}

	neg := false
	if s[0] == '+' || s[0] == '-' {
		neg = s[0] == '-'
		s = s[1:]
	}

	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return decimal.Zero
	}

	lastDot := strings.LastIndex(digits, ".")
	lastComma := strings.LastIndex(digits, ",")

	var clean string
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			clean = decimalize(strings.ReplaceAll(digits, ".", ""), ',')
		} else {
			clean = decimalize(strings.ReplaceAll(digits, ",", ""), '.')
		}
	case lastComma >= 0:
		clean = resolveSingle(digits, ',')
	case lastDot >= 0:
		clean = resolveSingle(digits, '.')
	default:
		clean = digits
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero
	}
	if neg {
		d = d.Neg()
	}
	return d
}

// decimalize keeps only the final occurrence of sep, as '.', dropping any
// earlier ones.
func decimalize(s string, sep byte) string {
	last := strings.LastIndexByte(s, sep)
	if last < 0 {
		return s
	}
	head := strings.ReplaceAll(s[:last], string(sep), "")
	return head + "." + s[last+1:]
}

// resolveSingle handles input containing only one separator kind.
func resolveSingle(s string, sep byte) string {
	if strings.Count(s, string(sep)) > 1 {
		// repeated separator can only be digit grouping
		return strings.ReplaceAll(s, string(sep), "")
	}
	idx := strings.IndexByte(s, sep)
	if len(s)-idx-1 == 2 {
		// exactly two trailing digits: cents
		return s[:idx] + "." + s[idx+1:]
	}
	return s[:idx] + s[idx+1:]
}
