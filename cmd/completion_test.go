package cmd

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spf13/cobra"

	"vidmeta/internal/cache"
	"vidmeta/internal/config"
	"vidmeta/internal/media"
	"vidmeta/internal/report"
)

func TestCompleteFromCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	cfg = config.Default()
	cfg.CachePath = path
	t.Cleanup(func() { cfg = nil })

	err := cache.NewFileStore(path).Save(context.Background(), map[string]media.Video{
		"aaaaaaaaaaa": {VideoID: "aaaaaaaaaaa", Author: "GopherCon", Category: "Education"},
		"bbbbbbbbbbb": {VideoID: "bbbbbbbbbbb", Author: "Band", Category: "Music"},
		"ccccccccccc": {VideoID: "ccccccccccc", Author: "GopherCon"},
	})
	if err != nil {
		t.Fatal(err)
	}

	got, dir := completeFromCache(report.Channels)(rootCmd, nil, "")
	if want := []string{"Band", "GopherCon"}; !reflect.DeepEqual(got, want) {
		t.Errorf("channels = %v, want %v", got, want)
	}
	if dir != cobra.ShellCompDirectiveNoFileComp {
		t.Errorf("directive = %v", dir)
	}

	got, _ = completeFromCache(report.Categories)(rootCmd, nil, "")
	if want := []string{"Education", "Music"}; !reflect.DeepEqual(got, want) {
		t.Errorf("categories = %v, want %v", got, want)
	}
}

func TestCompleteFormats(t *testing.T) {
	got, _ := completeFormats(rootCmd, nil, "")
	if !reflect.DeepEqual(got, report.Formats) {
		t.Errorf("formats = %v, want %v", got, report.Formats)
	}
}
