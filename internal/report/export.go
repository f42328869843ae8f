package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"vidmeta/internal/media"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatCSV   = "csv"
	FormatYAML  = "yaml"
	FormatURLs  = "urls"
)

// Formats lists every supported output format.
var Formats = []string{FormatTable, FormatJSON, FormatCSV, FormatYAML, FormatURLs}

// CSVHeader is the column order written by WriteCSV.
var CSVHeader = []string{
	"video_id", "url", "title", "duration", "length_seconds", "keywords",
	"description", "view_count", "author", "thumbnail", "upload_date",
	"category", "is_live", "is_family_safe",
	"view_count_formatted", "upload_date_formatted",
}

// DefaultCSVName returns a timestamped export file name.
func DefaultCSVName(now time.Time) string {
	return "youtube_videos_" + now.Format("20060102_150405") + ".csv"
}

// Write renders videos (for csv and urls) or all results (for json and yaml)
// in the named format. The table format is handled by the ui package.
func Write(w io.Writer, format string, results []media.Result) error {
	switch strings.ToLower(format) {
	case FormatJSON:
		return WriteJSON(w, results)
	case FormatYAML:
		return WriteYAML(w, results)
	case FormatCSV:
		return WriteCSV(w, successes(results))
	case FormatURLs:
		return WriteURLs(w, successes(results))
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// WriteCSV writes one row per video with a header row.
func WriteCSV(w io.Writer, videos []media.Video) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, v := range videos {
		row := []string{
			v.VideoID,
			v.URL,
			v.Title,
			v.Duration,
			strconv.FormatInt(v.LengthSeconds, 10),
			v.Keywords,
			v.Description,
			strconv.FormatInt(v.ViewCount, 10),
			v.Author,
			v.Thumbnail,
			v.UploadDate,
			v.Category,
			strconv.FormatBool(v.IsLive),
			strconv.FormatBool(v.IsFamilySafe),
			FormatViews(v.ViewCount),
			FormatUploadDate(v.UploadDate),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row %s: %w", v.VideoID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes results as an indented JSON array.
func WriteJSON(w io.Writer, results []media.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if results == nil {
		results = []media.Result{}
	}
	return enc.Encode(results)
}

// WriteYAML writes results as a YAML sequence.
func WriteYAML(w io.Writer, results []media.Result) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if results == nil {
		results = []media.Result{}
	}
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return enc.Close()
}

// WriteURLs writes one watch URL per line.
func WriteURLs(w io.Writer, videos []media.Video) error {
	for _, v := range videos {
		if _, err := fmt.Fprintln(w, v.URL); err != nil {
			return err
		}
	}
	return nil
}

func successes(results []media.Result) []media.Video {
	var out []media.Video
	for _, r := range results {
		if r.OK() {
			out = append(out, *r.Video)
		}
	}
	return out
}
