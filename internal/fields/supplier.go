package fields

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// reBareDate matches lines that are nothing but a delimited date.
var reBareDate = regexp.MustCompile(`^\d+[/-]\d+[/-]\d+$`)

// ExtractSupplier returns the supplier name using a top-of-document
// heuristic: the first line in the opening window that is long enough,
// contains letters, and is neither boilerplate nor a bare date or number.
// When nothing qualifies the configured sentinel is returned — a meaningful
// value for downstream review, not an error.
func ExtractSupplier(lines []string, cfg Config) string {
	cfg = cfg.withDefaults()

	limit := len(lines)
	if limit > cfg.SupplierMaxLines {
		limit = cfg.SupplierMaxLines
	}
	for _, line := range lines[:limit] {
		if len(line) < cfg.SupplierMinLen {
			continue
		}
		if !hasLetter(line) {
			continue
		}
		if containsAny(strings.ToLower(line), cfg.SupplierExclusions) {
			continue
		}
		if isDigits(line) || reBareDate.MatchString(line) {
			continue
		}
		return truncateRunes(line, cfg.SupplierMaxLen)
	}
	return cfg.SupplierSentinel
}

// truncateRunes caps s at max bytes without splitting a multi-byte rune.
func truncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
