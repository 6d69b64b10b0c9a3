package fields

import (
	"regexp"
	"time"
)

// datePattern pairs a recognizer regex with the layouts its captures may
// parse under. Patterns are tried in order; the first capture that parses
// wins.
type datePattern struct {
	re      *regexp.Regexp
	layouts []string
}

var datePatterns = []datePattern{
	{
		// 31/12/2023, 31-12-23
		re:      regexp.MustCompile(`\b(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})\b`),
		layouts: []string{"2/1/2006", "2-1-2006", "2/1/06", "2-1-06"},
	},
	{
		// 2023-12-31, 2023/12/31
		re:      regexp.MustCompile(`\b(\d{4}[-/]\d{1,2}[-/]\d{1,2})\b`),
		layouts: []string{"2006-1-2", "2006/1/2"},
	},
	{
		// 31 Dec 2023, 31 December 2023
		re:      regexp.MustCompile(`\b(\d{1,2}\s+(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{4})\b`),
		layouts: []string{"2 Jan 2006", "2 January 2006"},
	},
	{
		// compact, undelimited: 31122023 or 20231231
		re:      regexp.MustCompile(`\b(\d{8})\b`),
		layouts: []string{"02012006", "20060102"},
	},
}

// ExtractDate finds the first recognizable date in the text and normalizes
// it to YYYY-MM-DD. No recognizable date yields "" — never a guess.
func ExtractDate(text string) string {
	for _, p := range datePatterns {
		for _, m := range p.re.FindAllStringSubmatch(text, -1) {
			for _, layout := range p.layouts {
				if t, err := time.Parse(layout, m[1]); err == nil {
					return t.Format("2006-01-02")
				}
			}
		}
	}
	return ""
}
