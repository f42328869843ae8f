package report

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"vidmeta/internal/media"
)

// DateRange selects videos by upload date relative to now.
type DateRange string

const (
	DateAll   DateRange = "all"
	DateToday DateRange = "today"
	DateWeek  DateRange = "week"
	DateMonth DateRange = "month"
	DateYear  DateRange = "year"
)

// ParseDateRange validates s. An empty string means DateAll.
func ParseDateRange(s string) (DateRange, error) {
	switch d := DateRange(strings.ToLower(strings.TrimSpace(s))); d {
	case "":
		return DateAll, nil
	case DateAll, DateToday, DateWeek, DateMonth, DateYear:
		return d, nil
	}
	return "", fmt.Errorf("invalid date range %q (want all, today, week, month or year)", s)
}

// Filter narrows a list of videos. Zero-valued fields match everything.
type Filter struct {
	Channels   []string
	Categories []string
	Date       DateRange
	Search     string

	// Now defaults to time.Now.
	Now func() time.Time
}

// Active reports whether any criterion is set.
func (f Filter) Active() bool {
	return !matchAll(f.Channels) || !matchAll(f.Categories) ||
		(f.Date != "" && f.Date != DateAll) || strings.TrimSpace(f.Search) != ""
}

// Apply returns the videos that satisfy every criterion, in input order.
func (f Filter) Apply(videos []media.Video) []media.Video {
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	today := now()
	query := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]media.Video, 0, len(videos))
	for _, v := range videos {
		if !matchAll(f.Channels) && !slices.Contains(f.Channels, v.Author) {
			continue
		}
		if !matchAll(f.Categories) && !slices.Contains(f.Categories, v.Category) {
			continue
		}
		if !inRange(f.Date, FormatUploadDate(v.UploadDate), today) {
			continue
		}
		if query != "" && !matchesQuery(v, query) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// matchAll treats an empty list or one containing "All" as no restriction.
func matchAll(values []string) bool {
	if len(values) == 0 {
		return true
	}
	for _, v := range values {
		if strings.EqualFold(v, "all") {
			return true
		}
	}
	return false
}

// inRange compares YYYY-MM-DD strings, which order lexically.
func inRange(d DateRange, date string, now time.Time) bool {
	switch d {
	case "", DateAll:
		return true
	case DateToday:
		return date == now.Format(time.DateOnly)
	case DateWeek:
		from := now.AddDate(0, 0, -7).Format(time.DateOnly)
		return date != "" && date >= from && date <= now.Format(time.DateOnly)
	case DateMonth:
		return date != "" && strings.HasPrefix(date, now.Format("2006-01"))
	case DateYear:
		return date != "" && strings.HasPrefix(date, now.Format("2006"))
	}
	return false
}

func matchesQuery(v media.Video, query string) bool {
	return strings.Contains(strings.ToLower(v.Title), query) ||
		strings.Contains(strings.ToLower(v.Description), query) ||
		strings.Contains(strings.ToLower(v.Keywords), query)
}

// Channels returns the distinct authors, sorted.
func Channels(videos []media.Video) []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range videos {
		if !seen[v.Author] {
			seen[v.Author] = true
			out = append(out, v.Author)
		}
	}
	slices.Sort(out)
	return out
}

// Categories returns the distinct non-empty categories, sorted.
func Categories(videos []media.Video) []string {
	seen := make(map[string]bool)
	var out []string
	for _, v := range videos {
		if v.Category != "" && !seen[v.Category] {
			seen[v.Category] = true
			out = append(out, v.Category)
		}
	}
	slices.Sort(out)
	return out
}
