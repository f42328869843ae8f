package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"vidmeta/internal/cache"
	"vidmeta/internal/httputil"
	"vidmeta/internal/media"
	"vidmeta/internal/ui"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the metadata cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache location and size",
	Args:  cobra.NoArgs,
	RunE:  cacheStatsRun,
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached videos",
	Args:  cobra.NoArgs,
	RunE:  cacheListRun,
}

var cacheShowCmd = &cobra.Command{
	Use:   "show <video-id>",
	Short: "Print the cached record for a video as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  cacheShowRun,
}

var cacheRemoveCmd = &cobra.Command{
	Use:     "rm <video-id>",
	Aliases: []string{"remove"},
	Short:   "Remove a video from the cache",
	Args:    cobra.ExactArgs(1),
	RunE:    cacheRemoveRun,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached video",
	Args:  cobra.NoArgs,
	RunE:  cacheClearRun,
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd, cacheListCmd, cacheShowCmd, cacheRemoveCmd, cacheClearCmd)
}

// loadCache opens the store and reads it. A corrupt cache is reported but
// not fatal.
func loadCache(cmd *cobra.Command) (cache.Store, map[string]media.Video, string, error) {
	store, path, err := openStore()
	if err != nil {
		return nil, nil, "", err
	}
	entries, err := store.Load(cmd.Context())
	if err != nil {
		if !errors.Is(err, cache.ErrCorrupt) {
			cache.Close(store)
			return nil, nil, "", fmt.Errorf("loading cache: %w", err)
		}
		ui.Warn(os.Stderr, err.Error())
	}
	return store, entries, path, nil
}

func cacheStatsRun(cmd *cobra.Command, args []string) error {
	store, entries, path, err := loadCache(cmd)
	if err != nil {
		return err
	}
	defer cache.Close(store)

	size := "0 B"
	if fi, err := os.Stat(path); err == nil {
		size = humanize.Bytes(uint64(fi.Size()))
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Backend: %s\n", cfg.CacheBackend)
	fmt.Fprintf(out, "Path:    %s\n", path)
	fmt.Fprintf(out, "Size:    %s\n", size)
	fmt.Fprintf(out, "Entries: %s\n", humanize.Comma(int64(len(entries))))
	return nil
}

func cacheListRun(cmd *cobra.Command, args []string) error {
	store, entries, _, err := loadCache(cmd)
	if err != nil {
		return err
	}
	defer cache.Close(store)

	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Cache is empty.")
		return nil
	}

	videos := make([]media.Video, 0, len(entries))
	for _, id := range cache.IDs(entries) {
		videos = append(videos, entries[id])
	}
	fmt.Fprintln(cmd.OutOrStdout(), ui.VideoTable(videos))
	return nil
}

func cacheShowRun(cmd *cobra.Command, args []string) error {
	id := args[0]
	if err := httputil.ValidateVideoID(id); err != nil {
		return err
	}

	store, entries, _, err := loadCache(cmd)
	if err != nil {
		return err
	}
	defer cache.Close(store)

	v, ok := entries[id]
	if !ok {
		return fmt.Errorf("video %s is not cached", id)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func cacheRemoveRun(cmd *cobra.Command, args []string) error {
	id := args[0]
	if err := httputil.ValidateVideoID(id); err != nil {
		return err
	}

	store, _, err := openStore()
	if err != nil {
		return err
	}
	defer cache.Close(store)

	removed, err := cache.Delete(cmd.Context(), store, id)
	if err != nil {
		return fmt.Errorf("removing %s: %w", id, err)
	}
	if !removed {
		return fmt.Errorf("video %s is not cached", id)
	}
	debugf("removed %s from cache", id)
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s.\n", id)
	return nil
}

func cacheClearRun(cmd *cobra.Command, args []string) error {
	store, entries, _, err := loadCache(cmd)
	if err != nil {
		return err
	}
	defer cache.Close(store)

	if err := cache.Clear(cmd.Context(), store); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Cache cleared (%d entries removed).\n", len(entries))
	return nil
}
