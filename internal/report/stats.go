package report

import (
	"cmp"
	"slices"
	"time"

	"vidmeta/internal/media"
)

// Stats defaults.
const (
	DefaultTopN   = 10
	HistogramBins = 20
)

// Stats aggregates a set of videos for the analytics view.
type Stats struct {
	Videos     int           `json:"videos"`
	TotalViews int64         `json:"total_views"`
	TopByViews []RankedVideo `json:"top_by_views"`
	Views      []Bucket      `json:"view_distribution"`
	Durations  []Bucket      `json:"duration_distribution"`
	Months     []MonthStat   `json:"uploads_by_month"`
	Channels   []ChannelStat `json:"channels"`
}

// RankedVideo is one entry of the top-by-views list.
type RankedVideo struct {
	VideoID string `json:"video_id"`
	Title   string `json:"title"`
	Author  string `json:"author"`
	Views   int64  `json:"view_count"`
}

// Bucket counts values in the closed range [Low, High].
type Bucket struct {
	Low   int64 `json:"low"`
	High  int64 `json:"high"`
	Count int   `json:"count"`
}

// MonthStat groups uploads by YYYY-MM.
type MonthStat struct {
	Month    string  `json:"month"`
	Videos   int     `json:"videos"`
	AvgViews float64 `json:"avg_views"`
}

// ChannelStat groups videos by author.
type ChannelStat struct {
	Author   string  `json:"author"`
	Videos   int     `json:"videos"`
	AvgViews float64 `json:"avg_views"`
}

// ComputeStats aggregates videos. topN <= 0 uses DefaultTopN.
func ComputeStats(videos []media.Video, topN int) Stats {
	if topN <= 0 {
		topN = DefaultTopN
	}
	s := Stats{Videos: len(videos)}
	if len(videos) == 0 {
		return s
	}

	views := make([]int64, len(videos))
	lengths := make([]int64, len(videos))
	for i, v := range videos {
		views[i] = v.ViewCount
		lengths[i] = v.LengthSeconds
		s.TotalViews += v.ViewCount
	}
	s.Views = histogram(views, HistogramBins)
	s.Durations = histogram(lengths, HistogramBins)
	s.TopByViews = topByViews(videos, topN)
	s.Months = byMonth(videos)
	s.Channels = byChannel(videos)
	return s
}

// topByViews ranks by descending views; ties keep input order.
func topByViews(videos []media.Video, n int) []RankedVideo {
	sorted := slices.Clone(videos)
	slices.SortStableFunc(sorted, func(a, b media.Video) int {
		return cmp.Compare(b.ViewCount, a.ViewCount)
	})
	sorted = sorted[:min(n, len(sorted))]

	out := make([]RankedVideo, len(sorted))
	for i, v := range sorted {
		out[i] = RankedVideo{VideoID: v.VideoID, Title: v.Title, Author: v.Author, Views: v.ViewCount}
	}
	return out
}

// histogram splits [min, max] into at most bins equal-width integer buckets.
// Empty buckets are kept so the distribution reads left to right.
func histogram(values []int64, bins int) []Bucket {
	if len(values) == 0 || bins <= 0 {
		return nil
	}
	lo, hi := slices.Min(values), slices.Max(values)
	span := hi - lo + 1
	width := (span + int64(bins) - 1) / int64(bins)
	n := int((span + width - 1) / width)

	out := make([]Bucket, n)
	for i := range out {
		out[i].Low = lo + int64(i)*width
		out[i].High = min(out[i].Low+width-1, hi)
	}
	for _, v := range values {
		out[(v-lo)/width].Count++
	}
	return out
}

// byMonth skips videos without a parseable upload date.
func byMonth(videos []media.Video) []MonthStat {
	type acc struct {
		n     int
		views int64
	}
	months := make(map[string]*acc)
	for _, v := range videos {
		date := FormatUploadDate(v.UploadDate)
		if date == "" {
			continue
		}
		t, err := time.Parse(time.DateOnly, date)
		if err != nil {
			continue
		}
		key := t.Format("2006-01")
		a := months[key]
		if a == nil {
			a = &acc{}
			months[key] = a
		}
		a.n++
		a.views += v.ViewCount
	}

	out := make([]MonthStat, 0, len(months))
	for m, a := range months {
		out = append(out, MonthStat{Month: m, Videos: a.n, AvgViews: float64(a.views) / float64(a.n)})
	}
	slices.SortFunc(out, func(a, b MonthStat) int { return cmp.Compare(a.Month, b.Month) })
	return out
}

// byChannel orders by video count, then average views, then name.
func byChannel(videos []media.Video) []ChannelStat {
	counts := make(map[string]int)
	views := make(map[string]int64)
	for _, v := range videos {
		counts[v.Author]++
		views[v.Author] += v.ViewCount
	}

	out := make([]ChannelStat, 0, len(counts))
	for _, author := range Channels(videos) {
		n := counts[author]
		out = append(out, ChannelStat{Author: author, Videos: n, AvgViews: float64(views[author]) / float64(n)})
	}
	slices.SortStableFunc(out, func(a, b ChannelStat) int {
		return cmp.Or(
			cmp.Compare(b.Videos, a.Videos),
			cmp.Compare(b.AvgViews, a.AvgViews),
		)
	})
	return out
}
