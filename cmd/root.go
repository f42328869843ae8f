// Package cmd implements the CLI commands using Cobra.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"vidmeta/internal/config"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Global flags
var (
	flagWorkers      int
	flagBypassCache  bool
	flagMaxURLs      int
	flagCacheBackend string
	flagCachePath    string
	flagMinDelay     time.Duration
	flagMaxDelay     time.Duration
	flagTimeout      time.Duration
	flagRPS          float64
	flagDebug        bool
)

// cfg holds the loaded configuration (merged: defaults < config file < env < flags).
var cfg *config.Config

// logger is configured in loadConfig.
var logger = slog.Default()

var rootCmd = &cobra.Command{
	Use:   "vidmeta [urls...]",
	Short: "Fetch YouTube video metadata in bulk",
	Long: `vidmeta extracts metadata (title, duration, views, channel, upload date, ...)
from YouTube watch pages for a list of video URLs. Results are cached on disk so
repeated runs only fetch what is new.

URLs are read from arguments, from --file, or from standard input.`,
	Args:              cobra.ArbitraryArgs,
	PersistentPreRunE: loadConfig,
	RunE:              fetchRun,
	SilenceUsage:      true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.IntVarP(&flagWorkers, "workers", "w", 0, "Concurrent fetches (1-500, default 50)")
	pf.BoolVarP(&flagBypassCache, "bypass-cache", "b", false, "Re-fetch every video even if cached")
	pf.IntVar(&flagMaxURLs, "max-urls", 0, "Maximum URLs per batch, 0 for unlimited (default 20)")
	pf.StringVar(&flagCacheBackend, "cache-backend", "", "Cache backend: json | sqlite")
	pf.StringVar(&flagCachePath, "cache-path", "", "Cache file location")
	pf.DurationVar(&flagMinDelay, "min-delay", 0, "Minimum pause before each request (default 1s)")
	pf.DurationVar(&flagMaxDelay, "max-delay", 0, "Maximum pause before each request (default 2s)")
	pf.DurationVar(&flagTimeout, "timeout", 0, "Per-request timeout, 0 for none")
	pf.Float64Var(&flagRPS, "rps", 0, "Global request rate limit, 0 for none")
	pf.BoolVarP(&flagDebug, "debug", "x", false, "Debug logging to stderr")

	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads and merges configuration: defaults < config file < env < CLI flags.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// CLI flags override config file values
	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.Workers = flagWorkers
	}
	if flagBypassCache {
		cfg.BypassCache = true
	}
	if flags.Changed("max-urls") {
		cfg.MaxURLs = flagMaxURLs
	}
	if flagCacheBackend != "" {
		cfg.CacheBackend = flagCacheBackend
	}
	if flagCachePath != "" {
		cfg.CachePath = flagCachePath
	}
	if flags.Changed("min-delay") {
		cfg.MinDelay.Duration = flagMinDelay
	}
	if flags.Changed("max-delay") {
		cfg.MaxDelay.Duration = flagMaxDelay
	}
	if flags.Changed("timeout") {
		cfg.RequestTimeout.Duration = flagTimeout
	}
	if flags.Changed("rps") {
		cfg.RequestsPerSecond = flagRPS
	}
	if flags.Changed("format") {
		cfg.Format = flagFormat
	}
	if flags.Changed("listen") {
		cfg.Listen = flagListen
	}
	if flagDebug {
		cfg.Debug = true
	}

	// Re-validate after flag overrides
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	return nil
}

// debugf logs a message if debug mode is enabled.
func debugf(format string, args ...any) {
	if cfg != nil && cfg.Debug {
		logger.Debug(fmt.Sprintf(format, args...))
	}
}
