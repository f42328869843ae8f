package provider

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"vidmeta/internal/extract"
	"vidmeta/internal/media"
)

// Normalize projects a decoded player response into a video record.
// Missing or malformed fields fall back to defaults; it never fails.
func Normalize(id string, p extract.Payload) media.Video {
	details := object(p["videoDetails"])
	micro := object(object(p["microformat"])["playerMicroformatRenderer"])

	length := nonNegative(toInt64(details["lengthSeconds"]))

	return media.Video{
		VideoID:       id,
		URL:           media.WatchURL(id),
		Title:         str(details["title"]),
		Duration:      FormatDuration(length),
		LengthSeconds: length,
		Keywords:      joinKeywords(details["keywords"]),
		Description:   str(details["shortDescription"]),
		ViewCount:     nonNegative(toInt64(details["viewCount"])),
		Author:        str(details["author"]),
		Thumbnail:     lastThumbnail(details["thumbnail"]),
		UploadDate:    str(micro["uploadDate"]),
		Category:      str(micro["category"]),
		IsLive:        boolOr(details["isLiveContent"], false),
		IsFamilySafe:  boolOr(micro["isFamilySafe"], true),
	}
}

// FormatDuration renders seconds as M:SS, minutes unbounded.
func FormatDuration(seconds int64) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// lastThumbnail returns the URL of the final thumbnail entry; the list is
// ordered by ascending resolution.
func lastThumbnail(v any) string {
	list, ok := object(v)["thumbnails"].([]any)
	if !ok || len(list) == 0 {
		return ""
	}
	return str(object(list[len(list)-1])["url"])
}

func joinKeywords(v any) string {
	list, ok := v.([]any)
	if !ok {
		return ""
	}
	words := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			words = append(words, s)
		}
	}
	return strings.Join(words, ", ")
}

func object(v any) map[string]any {
	switch m := v.(type) {
	case map[string]any:
		return m
	case extract.Payload:
		return m
	}
	return nil
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func boolOr(v any, def bool) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return def
}

// toInt64 coerces numbers and numeric strings; anything else is 0.
func toInt64(v any) int64 {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return floatToInt64(f)
		}
	case string:
		s := strings.TrimSpace(n)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return floatToInt64(f)
		}
	case float64:
		return floatToInt64(n)
	case int:
		return int64(n)
	case int64:
		return n
	}
	return 0
}

func floatToInt64(f float64) int64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0
	}
	return int64(f)
}

func nonNegative(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}
