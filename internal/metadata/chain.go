package metadata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/pfrederiksen/moviepost/internal/logger"
	"github.com/pfrederiksen/moviepost/internal/movie"
)

// Chain tries providers in order and returns the first match.
// It reports ErrNotFound only when every provider reported ErrNotFound;
// otherwise the other failures are joined, each prefixed with its provider name.
type Chain []Provider

// Name lists the chained providers, e.g. "tmdb+omdb".
func (c Chain) Name() string {
	names := make([]string, len(c))
	for i, p := range c {
		names[i] = p.Name()
	}
	return strings.Join(names, "+")
}

// Lookup implements Provider
func (c Chain) Lookup(ctx context.Context, q Query) (*movie.Movie, error) {
	var errs []error
	for _, p := range c {
		m, err := p.Lookup(ctx, q)
		if err == nil {
			logger.Debug("Metadata found", logger.Fields{
				"provider": p.Name(),
				"title":    q.Title,
			})
			return m, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, ErrNotFound) {
			continue
		}

		logger.Warn("Metadata provider failed", logger.Fields{
			"provider": p.Name(),
			"title":    q.Title,
			"error":    err.Error(),
		})
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
	}

	if len(errs) == 0 {
		return nil, ErrNotFound
	}
	return nil, errors.Join(errs...)
}

// NewDefault builds the standard lookup: TMDb then OMDb behind one cache, then
// the linked page. client serves the API providers; the page provider always
// uses an address-guarded client. A provider whose API key is empty is left
// out with a warning.
func NewDefault(tmdbKey, omdbKey string, client *http.Client) Chain {
	var apis Chain
	if tmdbKey != "" {
		apis = append(apis, NewTMDb(tmdbKey, client))
	} else {
		logger.Warn("TMDB_API_KEY not set, TMDb lookups disabled", nil)
	}
	if omdbKey != "" {
		apis = append(apis, NewOMDb(omdbKey, client))
	} else {
		logger.Warn("OMDB_API_KEY not set, OMDb lookups disabled", nil)
	}

	var chain Chain
	if len(apis) > 0 {
		chain = append(chain, NewCache(apis, 0))
	}
	return append(chain, NewPage(nil))
}
