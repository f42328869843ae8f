// Package batch drives a list of raw URLs through identifier extraction,
// cache lookup, and a bounded pool of fetch workers, and collects one record
// per surviving input line.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"vidmeta/internal/cache"
	"vidmeta/internal/extract"
	"vidmeta/internal/media"
	"vidmeta/internal/metrics"
	"vidmeta/internal/provider"
)

// ErrNoVideoIDs is returned when no input line yields a video identifier.
var ErrNoVideoIDs = errors.New("no valid video URLs found")

// ProgressFunc is called after each fetch completes with the number of
// completed fetches and the total number dispatched.
type ProgressFunc func(completed, total int)

// Options controls a single run.
type Options struct {
	// Bypass forces every identifier to be re-fetched.
	Bypass bool
	// Workers bounds the number of concurrent fetches. Values below 1 mean 1.
	Workers int
	// OnProgress, if set, is called from the orchestrating goroutine only.
	OnProgress ProgressFunc
}

// Report is the outcome of a run.
type Report struct {
	ID        string         `json:"id"`
	Requested int            `json:"requested"`
	Hits      int            `json:"cache_hits"`
	Fetched   int            `json:"fetched"`
	Results   []media.Result `json:"results"`
	Warnings  []string       `json:"warnings,omitempty"`
	Started   time.Time      `json:"started"`
	Duration  time.Duration  `json:"-"`
}

// Videos returns the successful records in result order.
func (r *Report) Videos() []media.Video {
	var out []media.Video
	for _, res := range r.Results {
		if res.OK() {
			out = append(out, *res.Video)
		}
	}
	return out
}

// Failures returns the failed records in result order.
func (r *Report) Failures() []media.Failure {
	var out []media.Failure
	for _, res := range r.Results {
		if !res.OK() && res.Failure != nil {
			out = append(out, *res.Failure)
		}
	}
	return out
}

// Orchestrator runs batches against a cache store and a fetcher.
// Runs on the same Orchestrator are serialized.
type Orchestrator struct {
	store   cache.Store
	fetcher provider.Fetcher
	log     *slog.Logger
	metrics *metrics.Metrics

	mu sync.Mutex
}

// New creates an orchestrator. logger and m may be nil.
func New(store cache.Store, fetcher provider.Fetcher, logger *slog.Logger, m *metrics.Metrics) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		store:   store,
		fetcher: fetcher,
		log:     logger,
		metrics: m,
	}
}

type completion struct {
	id  string
	res media.Result
}

// Run processes urls. Unmatched lines are dropped silently. When no line
// yields an identifier, Run returns an empty report and ErrNoVideoIDs
// without touching the cache. All per-item problems are reported as
// failure records; cache problems become report warnings.
func (o *Orchestrator) Run(ctx context.Context, urls []string, opts Options) (*Report, error) {
	report := &Report{
		ID:      uuid.NewString(),
		Started: time.Now(),
		Results: []media.Result{},
	}

	ids := extract.VideoIDs(urls)
	report.Requested = len(ids)
	if len(ids) == 0 {
		return report, ErrNoVideoIDs
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	log := o.log.With("batch_id", report.ID)

	entries, err := o.store.Load(ctx)
	if err != nil {
		o.warn(log, report, "load", err)
	}
	if entries == nil {
		entries = make(map[string]media.Video)
	}

	var hits []media.Result
	var misses []string
	for _, id := range ids {
		if v, ok := entries[id]; ok && !opts.Bypass {
			hits = append(hits, media.Succeeded(v))
			continue
		}
		misses = append(misses, id)
	}
	report.Hits = len(hits)
	report.Fetched = len(misses)
	o.metrics.CacheLookups(len(hits), len(misses))
	log.Debug("partitioned batch", "ids", len(ids), "hits", len(hits), "misses", len(misses), "bypass", opts.Bypass)

	var fetched []media.Result
	if len(misses) > 0 {
		fetched = o.dispatch(ctx, misses, opts, entries)
		if err := o.store.Save(context.WithoutCancel(ctx), entries); err != nil {
			o.warn(log, report, "save", err)
		}
	}

	report.Results = merge(hits, fetched)
	report.Duration = time.Since(report.Started)

	failed := len(report.Failures())
	o.metrics.ObserveBatch(report.Duration, len(report.Results)-failed, failed)
	log.Info("batch complete",
		"results", len(report.Results),
		"failed", failed,
		"cache_hits", report.Hits,
		"fetched", report.Fetched,
		"duration", report.Duration.Round(time.Millisecond),
	)
	return report, nil
}

// dispatch fetches ids on at most opts.Workers goroutines. Completions are
// drained here, so entries is only ever mutated by the calling goroutine.
func (o *Orchestrator) dispatch(ctx context.Context, ids []string, opts Options, entries map[string]media.Video) []media.Result {
	done := make(chan completion, len(ids))

	go func() {
		var g errgroup.Group
		g.SetLimit(max(opts.Workers, 1))
		for _, id := range ids {
			g.Go(func() error {
				done <- completion{id: id, res: o.fetch(ctx, id)}
				return nil
			})
		}
		g.Wait() //nolint:errcheck
		close(done)
	}()

	results := make([]media.Result, 0, len(ids))
	for c := range done {
		if c.res.OK() {
			entries[c.id] = *c.res.Video
		}
		results = append(results, c.res)
		if opts.OnProgress != nil {
			opts.OnProgress(len(results), len(ids))
		}
	}
	return results
}

// fetch guarantees exactly one well-formed record for id.
func (o *Orchestrator) fetch(ctx context.Context, id string) (res media.Result) {
	defer func() {
		if r := recover(); r != nil {
			res = media.Failed(id, fmt.Sprint(r))
		}
	}()
	res = o.fetcher.Fetch(ctx, id)
	if !res.OK() && res.Failure == nil {
		res = media.Failed(id, "fetcher returned no result")
	}
	return res
}

func (o *Orchestrator) warn(log *slog.Logger, report *Report, op string, err error) {
	o.metrics.CacheWarning(op)
	log.Warn("cache "+op+" failed", "error", err)
	report.Warnings = append(report.Warnings, fmt.Sprintf("cache %s: %v", op, err))
}

// merge places successes before failures. Hits keep input order; fetched
// records keep arrival order.
func merge(hits, fetched []media.Result) []media.Result {
	out := make([]media.Result, 0, len(hits)+len(fetched))
	out = append(out, hits...)
	for _, r := range fetched {
		if r.OK() {
			out = append(out, r)
		}
	}
	for _, r := range fetched {
		if !r.OK() {
			out = append(out, r)
		}
	}
	return out
}

// SplitLines splits free text into trimmed, non-empty lines.
func SplitLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Limit truncates urls to at most n entries and reports whether it did.
// n <= 0 means no limit.
func Limit(urls []string, n int) ([]string, bool) {
	if n <= 0 || len(urls) <= n {
		return urls, false
	}
	return urls[:n], true
}
