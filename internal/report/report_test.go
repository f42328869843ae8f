package report

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"vidmeta/internal/media"
)

func TestFormatViews(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567890, "1,234,567,890"},
	}
	for _, tt := range tests {
		if got := FormatViews(tt.in); got != tt.want {
			t.Errorf("FormatViews(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatUploadDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2009-10-24T23:57:33-07:00", "2009-10-24"},
		{"2024-01-02T03:04:05Z", "2024-01-02"},
		{"2024-01-02T03:04:05+0000", "2024-01-02"},
		{"2024-01-02", "2024-01-02"},
		{"", ""},
		{"yesterday", ""},
	}
	for _, tt := range tests {
		if got := FormatUploadDate(tt.in); got != tt.want {
			t.Errorf("FormatUploadDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestShortDescription(t *testing.T) {
	short := "a short description"
	if got := ShortDescription(short); got != short {
		t.Errorf("ShortDescription(short) = %q", got)
	}

	exact := strings.Repeat("x", ShortDescriptionLen)
	if got := ShortDescription(exact); got != exact {
		t.Errorf("ShortDescription of exactly %d chars should be unchanged", ShortDescriptionLen)
	}

	long := strings.Repeat("é", ShortDescriptionLen+20)
	want := strings.Repeat("é", ShortDescriptionLen) + "..."
	if got := ShortDescription(long); got != want {
		t.Errorf("ShortDescription(long) = %q, want %q", got, want)
	}
}

func fixtureVideos() []media.Video {
	return []media.Video{
		{VideoID: "aaaaaaaaaaa", URL: media.WatchURL("aaaaaaaaaaa"), Title: "Go Concurrency Patterns", Author: "GopherCon", Category: "Education", UploadDate: "2024-06-14T10:00:00-07:00", Keywords: "go, channels", ViewCount: 1500},
		{VideoID: "bbbbbbbbbbb", URL: media.WatchURL("bbbbbbbbbbb"), Title: "Lo-fi beats", Author: "Chill Music", Category: "Music", UploadDate: "2024-06-10T08:00:00Z", Description: "relaxing beats to study to"},
		{VideoID: "ccccccccccc", URL: media.WatchURL("ccccccccccc"), Title: "Old talk", Author: "GopherCon", Category: "Education", UploadDate: "2019-03-01T00:00:00Z"},
		{VideoID: "ddddddddddd", URL: media.WatchURL("ddddddddddd"), Title: "Undated", Author: "Someone"},
	}
}

func ids(videos []media.Video) []string {
	var out []string
	for _, v := range videos {
		out = append(out, v.VideoID)
	}
	return out
}

func TestFilterApply(t *testing.T) {
	now := func() time.Time { return time.Date(2024, 6, 14, 12, 0, 0, 0, time.UTC) }

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"no criteria", Filter{}, []string{"aaaaaaaaaaa", "bbbbbbbbbbb", "ccccccccccc", "ddddddddddd"}},
		{"channel", Filter{Channels: []string{"GopherCon"}}, []string{"aaaaaaaaaaa", "ccccccccccc"}},
		{"channel all", Filter{Channels: []string{"GopherCon", "All"}}, []string{"aaaaaaaaaaa", "bbbbbbbbbbb", "ccccccccccc", "ddddddddddd"}},
		{"category", Filter{Categories: []string{"Music"}}, []string{"bbbbbbbbbbb"}},
		{"today", Filter{Date: DateToday}, []string{"aaaaaaaaaaa"}},
		{"week", Filter{Date: DateWeek}, []string{"aaaaaaaaaaa", "bbbbbbbbbbb"}},
		{"month", Filter{Date: DateMonth}, []string{"aaaaaaaaaaa", "bbbbbbbbbbb"}},
		{"year", Filter{Date: DateYear}, []string{"aaaaaaaaaaa", "bbbbbbbbbbb"}},
		{"search title", Filter{Search: "CONCURRENCY"}, []string{"aaaaaaaaaaa"}},
		{"search description", Filter{Search: "study"}, []string{"bbbbbbbbbbb"}},
		{"search keywords", Filter{Search: "channels"}, []string{"aaaaaaaaaaa"}},
		{"combined", Filter{Channels: []string{"GopherCon"}, Date: DateYear}, []string{"aaaaaaaaaaa"}},
		{"nothing", Filter{Search: "zzz"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.filter.Now = now
			got := ids(tt.filter.Apply(fixtureVideos()))
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("Apply() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterActive(t *testing.T) {
	if (Filter{}).Active() {
		t.Error("zero filter should be inactive")
	}
	if (Filter{Channels: []string{"All"}, Date: DateAll}).Active() {
		t.Error("all/all filter should be inactive")
	}
	if !(Filter{Search: "go"}).Active() {
		t.Error("search filter should be active")
	}
}

func TestParseDateRange(t *testing.T) {
	for _, in := range []string{"", "all", "Today", "WEEK", "month", "year"} {
		if _, err := ParseDateRange(in); err != nil {
			t.Errorf("ParseDateRange(%q) error: %v", in, err)
		}
	}
	if _, err := ParseDateRange("decade"); err == nil {
		t.Error("ParseDateRange(decade) should fail")
	}
}

func TestChannelsAndCategories(t *testing.T) {
	videos := fixtureVideos()
	if got := strings.Join(Channels(videos), "|"); got != "Chill Music|GopherCon|Someone" {
		t.Errorf("Channels() = %q", got)
	}
	if got := strings.Join(Categories(videos), "|"); got != "Education|Music" {
		t.Errorf("Categories() = %q", got)
	}
}

func TestSummarize(t *testing.T) {
	results := []media.Result{
		media.Succeeded(media.Video{VideoID: "aaaaaaaaaaa"}),
		media.Failed("bbbbbbbbbbb", "Failed to fetch: HTTP 404"),
		media.Succeeded(media.Video{VideoID: "ccccccccccc"}),
	}
	s := Summarize(results)
	if s.Total != 3 || s.Succeeded != 2 || s.Failed() != 1 {
		t.Fatalf("Summarize() = %+v", s)
	}
	if got := s.FailureMessage(); got != "Failed to process 1 out of 3 videos" {
		t.Errorf("FailureMessage() = %q", got)
	}
	if got := Summarize(results[:1]).FailureMessage(); got != "" {
		t.Errorf("FailureMessage() with no failures = %q", got)
	}
}

func TestCountMessage(t *testing.T) {
	if got := CountMessage(2, 5); got != "Showing 2 of 5 videos (filtered view)" {
		t.Errorf("CountMessage(2, 5) = %q", got)
	}
	if got := CountMessage(5, 5); got != "Results: 5 videos" {
		t.Errorf("CountMessage(5, 5) = %q", got)
	}
}

func TestDefaultCSVName(t *testing.T) {
	got := DefaultCSVName(time.Date(2024, 6, 14, 9, 5, 3, 0, time.UTC))
	if got != "youtube_videos_20240614_090503.csv" {
		t.Errorf("DefaultCSVName() = %q", got)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	videos := []media.Video{{
		VideoID: "dQw4w9WgXcQ", URL: media.WatchURL("dQw4w9WgXcQ"), Title: `Title, with "quotes"`,
		Duration: "3:33", LengthSeconds: 213, ViewCount: 1234567890,
		UploadDate: "2009-10-24T23:57:33-07:00", IsFamilySafe: true,
	}}
	if err := WriteCSV(&buf, videos); err != nil {
		t.Fatalf("WriteCSV() error: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading csv back: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header + 1 row, got %d rows", len(records))
	}
	row := make(map[string]string)
	for i, col := range records[0] {
		row[col] = records[1][i]
	}
	checks := map[string]string{
		"title":                 `Title, with "quotes"`,
		"length_seconds":        "213",
		"view_count_formatted":  "1,234,567,890",
		"upload_date_formatted": "2009-10-24",
		"is_family_safe":        "true",
		"is_live":               "false",
	}
	for col, want := range checks {
		if row[col] != want {
			t.Errorf("column %s = %q, want %q", col, row[col], want)
		}
	}
}

func TestWriteFormats(t *testing.T) {
	results := []media.Result{
		media.Succeeded(media.Video{VideoID: "aaaaaaaaaaa", URL: media.WatchURL("aaaaaaaaaaa"), Title: "A"}),
		media.Failed("bbbbbbbbbbb", "Failed to extract video data"),
	}

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Write(&buf, FormatJSON, results); err != nil {
			t.Fatal(err)
		}
		out := buf.String()
		if !strings.Contains(out, `"error": null`) || !strings.Contains(out, `"error": "Failed to extract video data"`) {
			t.Errorf("unexpected json output:\n%s", out)
		}
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Write(&buf, FormatYAML, results); err != nil {
			t.Fatal(err)
		}
		var back []map[string]any
		if err := yaml.Unmarshal(buf.Bytes(), &back); err != nil {
			t.Fatalf("yaml output does not parse: %v", err)
		}
		if len(back) != 2 || back[0]["title"] != "A" || back[1]["error"] != "Failed to extract video data" {
			t.Errorf("unexpected yaml output:\n%s", buf.String())
		}
	})

	t.Run("urls", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Write(&buf, FormatURLs, results); err != nil {
			t.Fatal(err)
		}
		if got := buf.String(); got != "https://www.youtube.com/watch?v=aaaaaaaaaaa\n" {
			t.Errorf("urls output = %q", got)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if err := Write(&bytes.Buffer{}, "xml", results); err == nil {
			t.Error("expected error for unknown format")
		}
	})
}
