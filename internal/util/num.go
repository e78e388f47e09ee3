package util

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var reNumJunk = regexp.MustCompile(`[^0-9.,\-]`)

// ParseAmount pulls a float out of a spreadsheet cell that may carry
// currency symbols, thousands separators or stray text. Unparseable input
// yields 0: the parser's contract is to always extract something
// reviewable rather than fail on the first malformed cell.
func ParseAmount(input string) float64 {
	s := strings.ReplaceAll(input, " ", " ")
	s = reNumJunk.ReplaceAllString(s, "")
	s = normalizeNumericToken(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func normalizeNumericToken(token string) string {
	compact := strings.ReplaceAll(token, " ", "")
	// A single dot group is ambiguous: "1.500" is far more often a decimal
	// than European grouping, so only strip dots when at least two groups
	// make the grouping reading unambiguous ("1.234.567").
	if regexp.MustCompile(`^-?\d{1,3}(?:\.\d{3}){2,}$`).MatchString(compact) {
		return strings.ReplaceAll(compact, ".", "")
	}
	if regexp.MustCompile(`^-?\d{1,3}(?:,\d{3})+$`).MatchString(compact) {
		return strings.ReplaceAll(compact, ",", "")
	}
	if strings.Contains(compact, ",") && !strings.Contains(compact, ".") {
		return strings.ReplaceAll(compact, ",", ".")
	}
	// Mixed separators: treat commas as grouping.
	if strings.Contains(compact, ",") && strings.Contains(compact, ".") {
		return strings.ReplaceAll(compact, ",", "")
	}
	return compact
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"02/01/2006",
	"01/02/2006",
	"2006-01-02 15:04:05",
	"02-Jan-2006",
	"Jan 2, 2006",
	time.RFC3339,
}

// ParseDate tries the accepted spreadsheet date layouts in order.
func ParseDate(input string) (time.Time, bool) {
	s := strings.TrimSpace(input)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseDateOr falls back when the cell is blank or in an unknown format.
// Source spreadsheets format dates inconsistently, so the cruise parser
// prefers a reviewable fallback over a hard failure.
func ParseDateOr(input string, fallback time.Time) time.Time {
	if t, ok := ParseDate(input); ok {
		return t
	}
	return fallback
}
