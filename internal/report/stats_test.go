package report

import (
	"reflect"
	"testing"

	"vidmeta/internal/media"
)

func statsVideos() []media.Video {
	return []media.Video{
		{VideoID: "aaaaaaaaaaa", Title: "A1", Author: "A", ViewCount: 100, LengthSeconds: 60, UploadDate: "2024-01-05T00:00:00-08:00"},
		{VideoID: "bbbbbbbbbbb", Title: "B1", Author: "B", ViewCount: 300, LengthSeconds: 600, UploadDate: "2024-01-20"},
		{VideoID: "ccccccccccc", Title: "A2", Author: "A", ViewCount: 200, LengthSeconds: 120, UploadDate: "2024-03-02T10:00:00Z"},
		{VideoID: "ddddddddddd", Title: "C1", Author: "C", ViewCount: 50},
	}
}

func TestComputeStats(t *testing.T) {
	s := ComputeStats(statsVideos(), 2)

	if s.Videos != 4 || s.TotalViews != 650 {
		t.Errorf("totals = %d videos, %d views, want 4, 650", s.Videos, s.TotalViews)
	}

	wantTop := []RankedVideo{
		{VideoID: "bbbbbbbbbbb", Title: "B1", Author: "B", Views: 300},
		{VideoID: "ccccccccccc", Title: "A2", Author: "A", Views: 200},
	}
	if !reflect.DeepEqual(s.TopByViews, wantTop) {
		t.Errorf("TopByViews = %+v, want %+v", s.TopByViews, wantTop)
	}

	wantMonths := []MonthStat{
		{Month: "2024-01", Videos: 2, AvgViews: 200},
		{Month: "2024-03", Videos: 1, AvgViews: 200},
	}
	if !reflect.DeepEqual(s.Months, wantMonths) {
		t.Errorf("Months = %+v, want %+v", s.Months, wantMonths)
	}

	wantChannels := []ChannelStat{
		{Author: "A", Videos: 2, AvgViews: 150},
		{Author: "B", Videos: 1, AvgViews: 300},
		{Author: "C", Videos: 1, AvgViews: 50},
	}
	if !reflect.DeepEqual(s.Channels, wantChannels) {
		t.Errorf("Channels = %+v, want %+v", s.Channels, wantChannels)
	}

	for name, buckets := range map[string][]Bucket{"views": s.Views, "durations": s.Durations} {
		if len(buckets) != HistogramBins {
			t.Errorf("%s: %d buckets, want %d", name, len(buckets), HistogramBins)
		}
		total := 0
		for _, b := range buckets {
			total += b.Count
		}
		if total != 4 {
			t.Errorf("%s: bucket counts sum to %d, want 4", name, total)
		}
	}
	if first, last := s.Views[0], s.Views[len(s.Views)-1]; first.Low != 50 || first.Count != 1 || last.High != 300 || last.Count != 1 {
		t.Errorf("view buckets span %+v..%+v", first, last)
	}
}

func TestComputeStatsDefaults(t *testing.T) {
	if s := ComputeStats(nil, 0); !reflect.DeepEqual(s, Stats{}) {
		t.Errorf("ComputeStats(nil) = %+v, want zero", s)
	}

	videos := make([]media.Video, 15)
	for i := range videos {
		videos[i] = media.Video{VideoID: "v", ViewCount: int64(i)}
	}
	if got := len(ComputeStats(videos, 0).TopByViews); got != DefaultTopN {
		t.Errorf("top list has %d entries, want %d", got, DefaultTopN)
	}
}

func TestHistogram(t *testing.T) {
	tests := []struct {
		name   string
		values []int64
		bins   int
		want   []Bucket
	}{
		{"empty", nil, 20, nil},
		{"single value", []int64{5, 5, 5}, 20, []Bucket{{Low: 5, High: 5, Count: 3}}},
		{"narrow range", []int64{1, 2, 3}, 20, []Bucket{{1, 1, 1}, {2, 2, 1}, {3, 3, 1}}},
		{"two bins", []int64{0, 4, 5, 9}, 2, []Bucket{{0, 4, 2}, {5, 9, 2}}},
		{"uneven tail", []int64{0, 10}, 3, []Bucket{{0, 3, 1}, {4, 7, 0}, {8, 10, 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := histogram(tt.values, tt.bins); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("histogram() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
