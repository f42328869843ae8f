// Package provider retrieves video metadata from the upstream watch pages
// and normalizes it into media records.
package provider

import (
	"context"

	"vidmeta/internal/media"
)

// Fetcher retrieves metadata for a single video.
//
// Fetch must return exactly one result per call and must never panic or
// return a zero Result: every problem is reported as a media.Failure.
type Fetcher interface {
	Fetch(ctx context.Context, id string) media.Result
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, id string) media.Result

// Fetch calls f(ctx, id).
func (f FetcherFunc) Fetch(ctx context.Context, id string) media.Result {
	return f(ctx, id)
}
