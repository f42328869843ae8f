package cmd

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"vidmeta/internal/batch"
	"vidmeta/internal/cache"
	"vidmeta/internal/httputil"
	"vidmeta/internal/metrics"
	"vidmeta/internal/provider"
)

// pipeline wires the cache, fetcher and orchestrator from cfg.
type pipeline struct {
	store    cache.Store
	orch     *batch.Orchestrator
	registry *prometheus.Registry
}

func openStore() (cache.Store, string, error) {
	path, err := cfg.ResolveCachePath()
	if err != nil {
		return nil, "", fmt.Errorf("resolving cache path: %w", err)
	}
	store, err := cache.Open(cfg.CacheBackend, path)
	if err != nil {
		return nil, "", fmt.Errorf("opening cache: %w", err)
	}
	debugf("cache: %s (%s)", path, cfg.CacheBackend)
	return store, path, nil
}

func newPipeline() (*pipeline, error) {
	store, _, err := openStore()
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	fetcher := provider.NewYouTube(provider.Config{
		Client:            httputil.NewClient(cfg.RequestTimeout.Duration),
		MinDelay:          cfg.MinDelay.Duration,
		MaxDelay:          cfg.MaxDelay.Duration,
		NoPacing:          cfg.MinDelay.Duration == 0 && cfg.MaxDelay.Duration == 0,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Logger:            logger,
		Metrics:           m,
	})

	debugf("workers=%d delay=%s..%s timeout=%s rps=%g",
		cfg.Workers, cfg.MinDelay, cfg.MaxDelay, cfg.RequestTimeout, cfg.RequestsPerSecond)

	return &pipeline{
		store:    store,
		orch:     batch.New(store, fetcher, logger, m),
		registry: reg,
	}, nil
}

func (p *pipeline) Close() error {
	return cache.Close(p.store)
}
