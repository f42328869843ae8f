package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"vidmeta/internal/cache"
	"vidmeta/internal/media"
	"vidmeta/internal/report"
)

// registerCompletions must run after the fetch flags are defined.
func registerCompletions() {
	rootCmd.RegisterFlagCompletionFunc("format", completeFormats)
	rootCmd.RegisterFlagCompletionFunc("channel", completeFromCache(report.Channels))
	rootCmd.RegisterFlagCompletionFunc("category", completeFromCache(report.Categories))
	rootCmd.RegisterFlagCompletionFunc("date", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{string(report.DateAll), string(report.DateToday), string(report.DateWeek),
			string(report.DateMonth), string(report.DateYear)}, cobra.ShellCompDirectiveNoFileComp
	})
}

func completeFormats(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return report.Formats, cobra.ShellCompDirectiveNoFileComp
}

// completeFromCache offers values derived from the cached videos. Completion
// runs without the persistent pre-run, so the config is loaded here.
func completeFromCache(values func([]media.Video) []string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		if cfg == nil {
			if err := loadConfig(cmd, nil); err != nil {
				return nil, cobra.ShellCompDirectiveError
			}
		}
		videos, err := cachedVideos(cmd.Context())
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		return values(videos), cobra.ShellCompDirectiveNoFileComp
	}
}

// cachedVideos returns the cached records sorted by identifier.
func cachedVideos(ctx context.Context) ([]media.Video, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	store, _, err := openStore()
	if err != nil {
		return nil, err
	}
	defer cache.Close(store)

	entries, err := store.Load(ctx)
	if err != nil && !errors.Is(err, cache.ErrCorrupt) {
		return nil, err
	}
	videos := make([]media.Video, 0, len(entries))
	for _, id := range cache.IDs(entries) {
		videos = append(videos, entries[id])
	}
	return videos, nil
}
