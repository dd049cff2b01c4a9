package metadata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pfrederiksen/moviepost/internal/httpx"
	"github.com/pfrederiksen/moviepost/internal/logger"
	"github.com/pfrederiksen/moviepost/internal/movie"
)

// ErrNotFound is returned when a provider has no match for the query.
var ErrNotFound = errors.New("movie not found")

// Query identifies the movie to look up
type Query struct {
	Title string
	Year  string
	Link  string
}

// Provider looks up movie metadata
type Provider interface {
	Name() string
	Lookup(ctx context.Context, q Query) (*movie.Movie, error)
}

// HTTPStatusError reports a non-2xx answer from a provider's API.
type HTTPStatusError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("%s: status %d", e.Provider, e.StatusCode)
}

func (e *HTTPStatusError) Unwrap() error {
	return e.Err
}

// wrapStatus converts an httpx status error into an HTTPStatusError for provider.
func wrapStatus(provider string, err error) error {
	var se *httpx.StatusError
	if errors.As(err, &se) {
		return &HTTPStatusError{Provider: provider, StatusCode: se.StatusCode, Err: se}
	}
	return err
}

// Resolve looks up req with p and returns a movie carrying the request's link and
// quality. When no provider knows the title, a manual record with the requested
// title and year is returned instead.
func Resolve(ctx context.Context, p Provider, req movie.Request) (*movie.Movie, error) {
	start := time.Now()
	defer logger.Since("metadata.resolve", start)

	m, err := p.Lookup(ctx, Query{Title: req.Title, Year: req.Year, Link: req.Link})
	switch {
	case err == nil:
		m = m.Clone()
		logger.IncrCounter("metadata.found")
	case errors.Is(err, ErrNotFound):
		m = &movie.Movie{Title: req.Title, Source: movie.SourceManual}
		logger.IncrCounter("metadata.not_found")
	default:
		logger.IncrCounter("metadata.errors")
		return nil, fmt.Errorf("looking up %q: %w", req.Title, err)
	}

	if m.Title == "" {
		m.Title = req.Title
	}
	if m.Year == "" {
		m.Year = req.Year
	}
	m.Link = req.Link
	m.Quality = req.Quality

	return m, nil
}
