package ui

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"vidmeta/internal/media"
	"vidmeta/internal/provider"
	"vidmeta/internal/report"
)

const maxTitleLen = 50

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	borderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	titleStyle   = lipgloss.NewStyle().Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// VideoHeaders are the columns of VideoTable.
var VideoHeaders = []string{"Title", "Channel", "Duration", "Views", "Upload Date", "Category", "Description"}

// VideoTable renders videos as a bordered table.
func VideoTable(videos []media.Video) string {
	rows := make([][]string, 0, len(videos))
	for _, v := range videos {
		rows = append(rows, []string{
			truncate(v.Title, maxTitleLen),
			v.Author,
			v.Duration,
			report.FormatViews(v.ViewCount),
			report.FormatUploadDate(v.UploadDate),
			v.Category,
			report.ShortDescription(v.Description),
		})
	}
	return render(VideoHeaders, rows)
}

// FailureTable renders failures with their identifier and message.
func FailureTable(failures []media.Failure) string {
	rows := make([][]string, 0, len(failures))
	for _, f := range failures {
		rows = append(rows, []string{f.VideoID, f.Error})
	}
	return render([]string{"Video ID", "Error"}, rows)
}

func render(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		String()
}

// RenderResults writes the failure summary, the filtered result count, and
// the video table for a finished batch.
func RenderResults(w io.Writer, results []media.Result, f report.Filter) {
	sum := report.Summarize(results)

	if msg := sum.FailureMessage(); msg != "" {
		fmt.Fprintln(w, warningStyle.Render(msg))
		fmt.Fprintln(w, FailureTable(sum.Failures))
	}

	if sum.Succeeded == 0 {
		fmt.Fprintln(w, errorStyle.Render(report.NoSuccessMessage))
		return
	}

	var videos []media.Video
	for _, r := range results {
		if r.OK() {
			videos = append(videos, *r.Video)
		}
	}
	shown := f.Apply(videos)

	fmt.Fprintln(w, titleStyle.Render(report.CountMessage(len(shown), len(videos))))
	if len(shown) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No videos match the current filters."))
		return
	}
	fmt.Fprintln(w, VideoTable(shown))
}

// Warn writes a highlighted warning line.
func Warn(w io.Writer, msg string) {
	fmt.Fprintln(w, warningStyle.Render(msg))
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}

// RenderStats writes the analytics tables for s.
func RenderStats(w io.Writer, s report.Stats) {
	if s.Videos == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No valid data available for statistics."))
		return
	}
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Statistics: %d videos, %s total views",
		s.Videos, report.FormatViews(s.TotalViews))))

	var top [][]string
	for i, v := range s.TopByViews {
		top = append(top, []string{fmt.Sprint(i + 1), truncate(v.Title, maxTitleLen), v.Author, report.FormatViews(v.Views)})
	}
	section(w, fmt.Sprintf("Top %d videos by views", len(top)), []string{"#", "Title", "Channel", "Views"}, top)

	section(w, "View distribution", []string{"Views", "Videos"}, bucketRows(s.Views, report.FormatViews))
	section(w, "Duration distribution", []string{"Duration", "Videos"}, bucketRows(s.Durations, provider.FormatDuration))

	if len(s.Months) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("Upload date information not available for the timeline."))
	} else {
		var months [][]string
		for _, m := range s.Months {
			months = append(months, []string{m.Month, fmt.Sprint(m.Videos), report.FormatViews(int64(m.AvgViews))})
		}
		section(w, "Uploads by month", []string{"Month", "Videos", "Avg Views"}, months)
	}

	var channels [][]string
	for _, c := range s.Channels {
		channels = append(channels, []string{c.Author, fmt.Sprint(c.Videos), report.FormatViews(int64(c.AvgViews))})
	}
	section(w, "Channels", []string{"Channel", "Videos", "Avg Views"}, channels)
}

func section(w io.Writer, title string, headers []string, rows [][]string) {
	fmt.Fprintln(w, titleStyle.Render(title))
	fmt.Fprintln(w, render(headers, rows))
}

func bucketRows(buckets []report.Bucket, label func(int64) string) [][]string {
	rows := make([][]string, 0, len(buckets))
	for _, b := range buckets {
		span := label(b.Low)
		if b.High != b.Low {
			span += " - " + label(b.High)
		}
		rows = append(rows, []string{span, fmt.Sprint(b.Count)})
	}
	return rows
}
