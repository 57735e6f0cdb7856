package sanitize

import (
	"regexp"
	"strings"

	"github.com/araddon/dateparse"
)

// An exclusion is a context pattern that argues against treating a nearby
// glyph as a list marker. Overlap exclusions must cover the glyph itself
// (a hyphen inside "well-known"); the rest count anywhere in the window
// around it.
type exclusion struct {
	name    string
	pattern *regexp.Regexp
	overlap bool
}

var exclusions = []exclusion{
	{
		name:    "email",
		pattern: regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`),
	},
	{
		name:    "url",
		pattern: regexp.MustCompile(`(?i)(https?://|www\.)\S+`),
	},
	{
		name:    "phone",
		pattern: regexp.MustCompile(`\+?\(?\d[\d\s().-]{6,}\d`),
	},
	{
		name:    "date",
		pattern: regexp.MustCompile(`\d{1,4}[-/.]\d{1,2}[-/.]\d{1,4}`),
	},
	{
		name:    "month-year",
		pattern: regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?,?[^\n]{0,8}\d{2,4}`),
	},
	{
		name:    "numeric-range",
		pattern: regexp.MustCompile(`\d\s*[-\x{2013}\x{2014}]\s*\d`),
		overlap: true,
	},
	{
		name:    "negative-number",
		pattern: regexp.MustCompile(`[-\x{2013}\x{2014}]\d`),
		overlap: true,
	},
	{
		name:    "compound-word",
		pattern: regexp.MustCompile(`[A-Za-z]+-[A-Za-z]+`),
		overlap: true,
	},
	{
		name:    "emoticon",
		pattern: regexp.MustCompile(`[:;=8][-o']?[()\[\]dDpP/\\|]`),
		overlap: true,
	},
	{
		name:    "currency",
		pattern: regexp.MustCompile(`[$\x{20ac}\x{00a3}\x{00a5}\x{20b9}]\s*\d`),
	},
}

// exclusionWindow bounds how far around a glyph context patterns apply.
const (
	windowBefore = 24
	windowAfter  = 32
)

// matchExclusions returns the names of every exclusion arguing against the
// glyph spanning [start, end) of line.
func matchExclusions(line string, start, end int) []string {
	lo := start - windowBefore
	if lo < 0 {
		lo = 0
	}
	hi := end + windowAfter
	if hi > len(line) {
		hi = len(line)
	}
	window := line[lo:hi]

	var names []string
	for _, ex := range exclusions {
		if ex.overlap {
			if spansOffset(ex.pattern, window, start-lo, end-lo) {
				names = append(names, ex.name)
			}
			continue
		}
		if ex.pattern.MatchString(window) {
			names = append(names, ex.name)
		}
	}

	if looksLikeDate(line[end:hi]) {
		names = append(names, "date-text")
	}
	return names
}

// spansOffset reports whether any match of pattern in s covers the byte
// range [start, end).
func spansOffset(pattern *regexp.Regexp, s string, start, end int) bool {
	for _, m := range pattern.FindAllStringIndex(s, -1) {
		if m[0] < end && m[1] > start {
			return true
		}
	}
	return false
}

var dateCandidate = regexp.MustCompile(`[A-Za-z]|\d[-/.]\d`)

// looksLikeDate tries the first few tokens after a glyph as a date, so
// "5 March 2020" or "March 2020" is not mistaken for a marked line.
func looksLikeDate(after string) bool {
	fields := strings.Fields(after)
	if len(fields) == 0 {
		return false
	}
	limit := len(fields)
	if limit > 3 {
		limit = 3
	}
	for n := limit; n >= 1; n-- {
		candidate := strings.Join(fields[:n], " ")
		candidate = strings.TrimRight(candidate, ",.;:")
		if len(candidate) < 4 || !dateCandidate.MatchString(candidate) {
			continue
		}
		if _, err := dateparse.ParseAny(candidate); err == nil {
			return true
		}
	}
	return false
}
