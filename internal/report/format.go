// Package report filters, summarizes, formats, and exports batch results.
package report

import (
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
)

// ShortDescriptionLen is the number of characters kept by ShortDescription.
const ShortDescriptionLen = 100

// FormatViews renders a view count with thousands separators.
func FormatViews(n int64) string {
	return humanize.Comma(n)
}

// FormatUploadDate reduces an ISO-8601 timestamp to YYYY-MM-DD. Empty or
// unparseable input yields "".
func FormatUploadDate(s string) string {
	if s == "" {
		return ""
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05Z0700", time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(time.DateOnly)
		}
	}
	return ""
}

// ShortDescription truncates s to ShortDescriptionLen characters plus "...".
func ShortDescription(s string) string {
	if utf8.RuneCountInString(s) <= ShortDescriptionLen {
		return s
	}
	return string([]rune(s)[:ShortDescriptionLen]) + "..."
}
