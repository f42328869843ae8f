package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidmeta/internal/batch"
	"vidmeta/internal/cache"
	"vidmeta/internal/media"
	"vidmeta/internal/metrics"
	"vidmeta/internal/provider"
)

func setupTestServer(t *testing.T, opts Options) (*httptest.Server, cache.Store) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := cache.NewFileStore(filepath.Join(t.TempDir(), "cache.json"))
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	fetcher := provider.FetcherFunc(func(ctx context.Context, id string) media.Result {
		if id == "xxxxxxxxxxx" {
			return media.Failed(id, "Failed to fetch: HTTP 404")
		}
		return media.Succeeded(media.Video{VideoID: id, URL: media.WatchURL(id), Title: "title " + id})
	})
	orch := batch.New(store, fetcher, logger, m)

	srv := httptest.NewServer(New(orch, store, reg, logger, opts).Handler())
	t.Cleanup(srv.Close)
	return srv, store
}

func postBatch(t *testing.T, srv *httptest.Server, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(srv.URL+"/v1/batches", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := setupTestServer(t, Options{Workers: 2})

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateBatch(t *testing.T) {
	srv, store := setupTestServer(t, Options{Workers: 2})

	resp, out := postBatch(t, srv, `{
		"urls": ["https://www.youtube.com/watch?v=aaaaaaaaaaa", "not a url"],
		"text": "https://youtu.be/xxxxxxxxxxx\n\n"
	}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), out["requested"])
	assert.Equal(t, float64(1), out["succeeded"])
	assert.Equal(t, float64(1), out["failed"])
	assert.Equal(t, "Failed to process 1 out of 2 videos", out["summary"])
	assert.NotEmpty(t, out["id"])

	results := out["results"].([]any)
	require.Len(t, results, 2)
	assert.Equal(t, "aaaaaaaaaaa", results[0].(map[string]any)["video_id"])
	assert.Equal(t, "Failed to fetch: HTTP 404", results[1].(map[string]any)["error"])

	stats := out["stats"].(map[string]any)
	assert.Equal(t, float64(1), stats["videos"])
	top := stats["top_by_views"].([]any)
	require.Len(t, top, 1)
	assert.Equal(t, "aaaaaaaaaaa", top[0].(map[string]any)["video_id"])

	entries, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"aaaaaaaaaaa"}, cache.IDs(entries))
}

func TestCreateBatchSecondRunHitsCache(t *testing.T) {
	srv, _ := setupTestServer(t, Options{Workers: 2})
	body := `{"urls": ["https://www.youtube.com/watch?v=aaaaaaaaaaa"]}`

	postBatch(t, srv, body)
	_, out := postBatch(t, srv, body)

	assert.Equal(t, float64(1), out["cache_hits"])
	assert.Equal(t, float64(0), out["fetched"])
}

func TestCreateBatchRespectsMaxURLs(t *testing.T) {
	srv, _ := setupTestServer(t, Options{Workers: 2, MaxURLs: 1})

	_, out := postBatch(t, srv, `{"urls": [
		"https://www.youtube.com/watch?v=aaaaaaaaaaa",
		"https://www.youtube.com/watch?v=bbbbbbbbbbb",
		"https://www.youtube.com/watch?v=ccccccccccc"
	]}`)

	assert.Equal(t, float64(1), out["requested"])
	assert.Equal(t, float64(2), out["ignored"])
}

func TestCreateBatchErrors(t *testing.T) {
	srv, _ := setupTestServer(t, Options{Workers: 2})

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"no identifiers", `{"urls": ["not a url", ""]}`, http.StatusUnprocessableEntity},
		{"empty", `{}`, http.StatusUnprocessableEntity},
		{"malformed", `{"urls": [`, http.StatusBadRequest},
		{"unknown field", `{"links": []}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, out := postBatch(t, srv, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.NotEmpty(t, out["error"])
		})
	}
}

func TestCacheEndpoints(t *testing.T) {
	srv, store := setupTestServer(t, Options{Workers: 1})
	require.NoError(t, store.Save(context.Background(), map[string]media.Video{
		"dQw4w9WgXcQ": {VideoID: "dQw4w9WgXcQ", Title: "Never Gonna Give You Up"},
	}))

	t.Run("stats", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/v1/cache")
		require.NoError(t, err)
		defer resp.Body.Close()

		var stats cacheStats
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
		assert.Equal(t, 1, stats.Entries)
		assert.Equal(t, []string{"dQw4w9WgXcQ"}, stats.IDs)
	})

	t.Run("entry", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/v1/cache/dQw4w9WgXcQ")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var res media.Result
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
		require.True(t, res.OK())
		assert.Equal(t, "Never Gonna Give You Up", res.Video.Title)
	})

	t.Run("missing", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/v1/cache/aaaaaaaaaaa")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("invalid id", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/v1/cache/short")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := setupTestServer(t, Options{Workers: 1})
	postBatch(t, srv, `{"urls": ["https://www.youtube.com/watch?v=aaaaaaaaaaa"]}`)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), "vidmeta_batch_runs_total 1"))
}
