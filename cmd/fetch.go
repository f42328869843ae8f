package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"vidmeta/internal/batch"
	"vidmeta/internal/httputil"
	"vidmeta/internal/media"
	"vidmeta/internal/report"
	"vidmeta/internal/ui"
)

// Fetch flags
var (
	flagFile       string
	flagFormat     string
	flagSave       bool
	flagChannels   []string
	flagCategories []string
	flagDate       string
	flagSearch     string
	flagStats      bool
)

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&flagFile, "file", "f", "", "Read URLs from a newline-delimited file (- for stdin)")
	f.StringVarP(&flagFormat, "format", "o", "", "Output format: table | json | csv | yaml | urls")
	f.BoolVarP(&flagSave, "save", "s", false, "Also write the export to a timestamped file in the current directory")
	f.StringSliceVar(&flagChannels, "channel", nil, "Only show videos from these channels")
	f.StringSliceVar(&flagCategories, "category", nil, "Only show videos in these categories")
	f.StringVar(&flagDate, "date", "all", "Upload date: all | today | week | month | year")
	f.StringVarP(&flagSearch, "search", "q", "", "Search titles, descriptions and keywords")
	f.BoolVar(&flagStats, "stats", false, "Show view, duration, timeline and channel statistics")
	registerCompletions()
}

func fetchRun(cmd *cobra.Command, args []string) error {
	lines, err := readInput(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		return cmd.Help()
	}

	urls, truncated := batch.Limit(lines, cfg.MaxURLs)
	if truncated {
		ui.Warn(os.Stderr, fmt.Sprintf("Only the first %d URLs will be processed (%d ignored). Raise max_urls to process more.",
			cfg.MaxURLs, len(lines)-len(urls)))
	}

	filter, err := buildFilter()
	if err != nil {
		return err
	}

	p, err := newPipeline()
	if err != nil {
		return err
	}
	defer p.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	prog := ui.NewProgress(os.Stderr, ui.IsTerminal(os.Stderr))
	rep, err := p.orch.Run(ctx, urls, batch.Options{
		Bypass:     cfg.BypassCache,
		Workers:    cfg.Workers,
		OnProgress: prog.Update,
	})
	prog.Stop()
	if errors.Is(err, batch.ErrNoVideoIDs) {
		return fmt.Errorf("%w: expected links like https://www.youtube.com/watch?v=ID or https://youtu.be/ID", err)
	}
	if err != nil {
		return err
	}

	debugf("batch %s: %d hits, %d fetched in %s", rep.ID, rep.Hits, rep.Fetched, rep.Duration.Round(time.Millisecond))

	if err := writeOutput(cmd.OutOrStdout(), rep.Results, filter); err != nil {
		return err
	}
	if flagStats {
		writeStats(cmd.OutOrStdout(), os.Stderr, rep.Results, filter)
	}
	if flagSave {
		return saveExport(rep.Results, filter)
	}
	return nil
}

// readInput collects URL lines from args, --file, or piped stdin.
func readInput(stdin io.Reader, args []string) ([]string, error) {
	var lines []string
	for _, a := range args {
		lines = append(lines, batch.SplitLines(a)...)
	}

	switch {
	case flagFile == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		lines = append(lines, batch.SplitLines(string(data))...)
	case flagFile != "":
		data, err := os.ReadFile(flagFile)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", flagFile, err)
		}
		lines = append(lines, batch.SplitLines(string(data))...)
	case len(args) == 0 && !ui.IsTerminal(os.Stdin):
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		lines = append(lines, batch.SplitLines(string(data))...)
	}
	return lines, nil
}

func buildFilter() (report.Filter, error) {
	date, err := report.ParseDateRange(flagDate)
	if err != nil {
		return report.Filter{}, err
	}
	return report.Filter{
		Channels:   flagChannels,
		Categories: flagCategories,
		Date:       date,
		Search:     flagSearch,
	}, nil
}

// filtered keeps every failure and the successes that pass f.
func filtered(results []media.Result, f report.Filter) []media.Result {
	if !f.Active() {
		return results
	}
	var videos []media.Video
	var failures []media.Result
	for _, r := range results {
		if r.OK() {
			videos = append(videos, *r.Video)
		} else {
			failures = append(failures, r)
		}
	}
	out := make([]media.Result, 0, len(results))
	for _, v := range f.Apply(videos) {
		out = append(out, media.Succeeded(v))
	}
	return append(out, failures...)
}

func writeOutput(w io.Writer, results []media.Result, f report.Filter) error {
	if strings.EqualFold(cfg.Format, report.FormatTable) {
		ui.RenderResults(w, results, f)
		return nil
	}

	sum := report.Summarize(results)
	if msg := sum.FailureMessage(); msg != "" {
		ui.Warn(os.Stderr, msg)
	}
	if sum.Succeeded == 0 {
		ui.Warn(os.Stderr, report.NoSuccessMessage)
	}
	return report.Write(w, cfg.Format, filtered(results, f))
}

// writeStats renders statistics for the filtered successes. Machine-readable
// formats keep stdout clean, so the tables go to errw instead.
func writeStats(w, errw io.Writer, results []media.Result, f report.Filter) {
	var videos []media.Video
	for _, r := range filtered(results, f) {
		if r.OK() {
			videos = append(videos, *r.Video)
		}
	}
	if !strings.EqualFold(cfg.Format, report.FormatTable) {
		w = errw
	}
	ui.RenderStats(w, report.ComputeStats(videos, report.DefaultTopN))
}

func saveExport(results []media.Result, f report.Filter) error {
	format := strings.ToLower(cfg.Format)
	if format == report.FormatTable {
		format = report.FormatCSV
	}
	name := report.DefaultCSVName(time.Now())
	if ext := exportExt(format); ext != "csv" {
		name = strings.TrimSuffix(name, ".csv") + "." + ext
	}

	path, err := httputil.SafeOutputPath(".", name)
	if err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := report.Write(out, format, filtered(results, f)); err != nil {
		out.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	fmt.Fprintf(os.Stderr, "Saved %s\n", path)
	return nil
}

func exportExt(format string) string {
	switch format {
	case report.FormatURLs:
		return "txt"
	default:
		return format
	}
}
