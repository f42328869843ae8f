package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"vidmeta/internal/extract"
	"vidmeta/internal/httputil"
	"vidmeta/internal/media"
	"vidmeta/internal/metrics"
)

// DefaultBaseURL is the watch page endpoint; the identifier is appended as ?v=.
const DefaultBaseURL = "https://www.youtube.com/watch"

// ErrExtractFailed is reported when a page carries no decodable player response.
var ErrExtractFailed = errors.New("failed to extract video data")

// StatusError is returned for a watch page answered with a non-200 status.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("failed to fetch: HTTP %d", e.Code)
}

// FailureText renders err as the message stored in a failure record.
// Known fetch errors use the record wording; anything else is passed through.
func FailureText(err error) string {
	var se *StatusError
	switch {
	case errors.As(err, &se):
		return fmt.Sprintf("Failed to fetch: HTTP %d", se.Code)
	case errors.Is(err, ErrExtractFailed):
		return "Failed to extract video data"
	default:
		return err.Error()
	}
}

// Default pause bounds used when Config leaves both delays at zero.
const (
	DefaultMinDelay = time.Second
	DefaultMaxDelay = 2 * time.Second
)

// Config holds the YouTube fetcher settings. Zero values are usable.
type Config struct {
	Client  *http.Client
	BaseURL string

	// MinDelay and MaxDelay bound the random pause taken before every request.
	// When both are zero the pause falls in [DefaultMinDelay, DefaultMaxDelay)
	// unless NoPacing is set.
	MinDelay time.Duration
	MaxDelay time.Duration
	NoPacing bool

	// RequestsPerSecond additionally caps the aggregate request rate. Zero disables it.
	RequestsPerSecond float64

	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// YouTube fetches and normalizes watch pages. It is safe for concurrent use.
type YouTube struct {
	client   *http.Client
	base     string
	minDelay time.Duration
	maxDelay time.Duration
	limiter  *rate.Limiter
	log      *slog.Logger
	metrics  *metrics.Metrics
}

// NewYouTube creates a fetcher from cfg.
func NewYouTube(cfg Config) *YouTube {
	y := &YouTube{
		client:   cfg.Client,
		base:     cfg.BaseURL,
		minDelay: max(cfg.MinDelay, 0),
		maxDelay: max(cfg.MaxDelay, 0),
		log:      cfg.Logger,
		metrics:  cfg.Metrics,
	}
	if y.client == nil {
		y.client = httputil.NewClient(0)
	}
	if y.base == "" {
		y.base = DefaultBaseURL
	}
	if y.minDelay == 0 && y.maxDelay == 0 && !cfg.NoPacing {
		y.minDelay, y.maxDelay = DefaultMinDelay, DefaultMaxDelay
	}
	if y.maxDelay < y.minDelay {
		y.maxDelay = y.minDelay
	}
	if y.log == nil {
		y.log = slog.Default()
	}
	if cfg.RequestsPerSecond > 0 {
		burst := max(int(cfg.RequestsPerSecond), 1)
		y.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return y
}

// Fetch pauses, retrieves the watch page for id once, and returns either the
// normalized video or a failure describing what went wrong.
func (y *YouTube) Fetch(ctx context.Context, id string) (res media.Result) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res = media.Failed(id, fmt.Sprint(r))
		}
		y.metrics.ObserveFetch(res.OK(), time.Since(start))
		if !res.OK() {
			y.log.Warn("fetch failed", "video_id", id, "error", res.Failure.Error)
		}
	}()

	if err := y.pace(ctx); err != nil {
		return media.Failed(id, err.Error())
	}

	v, err := y.fetch(ctx, id)
	if err != nil {
		return media.Failed(id, FailureText(err))
	}
	y.log.Debug("fetched video", "video_id", id, "title", v.Title)
	return media.Succeeded(v)
}

func (y *YouTube) fetch(ctx context.Context, id string) (media.Video, error) {
	resp, err := httputil.Get(ctx, y.client, httputil.WatchPageURL(y.base, id))
	if err != nil {
		return media.Video{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return media.Video{}, &StatusError{Code: resp.StatusCode}
	}

	body, err := httputil.ReadBody(resp)
	if err != nil {
		return media.Video{}, err
	}

	payload, ok := extract.PlayerResponse(string(body))
	if !ok {
		return media.Video{}, ErrExtractFailed
	}
	return Normalize(id, payload), nil
}

// pace sleeps for a random duration in [minDelay, maxDelay) and then waits on
// the rate limiter, if any. It returns early when ctx is cancelled.
func (y *YouTube) pace(ctx context.Context) error {
	d := y.minDelay
	if span := y.maxDelay - y.minDelay; span > 0 {
		d += rand.N(span)
	}
	if d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	if y.limiter != nil {
		return y.limiter.Wait(ctx)
	}
	return ctx.Err()
}
