package metadata

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/pfrederiksen/moviepost/internal/httpx"
	"github.com/pfrederiksen/moviepost/internal/logger"
	"github.com/pfrederiksen/moviepost/internal/movie"
)

// TMDbBaseURL is the TMDb v3 API root used by new providers.
var TMDbBaseURL = "https://api.themoviedb.org/3/"

// TMDbImageBaseURL prefixes poster paths.
const TMDbImageBaseURL = "https://image.tmdb.org/t/p/w500"

// TMDbProvider looks movies up on The Movie Database.
type TMDbProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewTMDb creates a TMDb provider. A nil client uses the shared default.
func NewTMDb(apiKey string, client *http.Client) *TMDbProvider {
	if client == nil {
		client = httpx.NewClient(0)
	}
	return &TMDbProvider{
		apiKey:     apiKey,
		baseURL:    TMDbBaseURL,
		httpClient: client,
	}
}

// Name returns "tmdb"
func (p *TMDbProvider) Name() string {
	return movie.SourceTMDb
}

type tmdbSearchParams struct {
	APIKey       string `url:"api_key"`
	Query        string `url:"query"`
	Year         string `url:"year,omitempty"`
	IncludeAdult bool   `url:"include_adult"`
}

type tmdbKeyParams struct {
	APIKey string `url:"api_key"`
}

type tmdbSearchResult struct {
	ID               int     `json:"id"`
	Title            string  `json:"title"`
	ReleaseDate      string  `json:"release_date"`
	PosterPath       string  `json:"poster_path"`
	Overview         string  `json:"overview"`
	VoteAverage      float64 `json:"vote_average"`
	OriginalLanguage string  `json:"original_language"`
}

type tmdbSearchResponse struct {
	Results []tmdbSearchResult `json:"results"`
}

type tmdbDetails struct {
	tmdbSearchResult
	IMDbID string `json:"imdb_id"`
	Genres []struct {
		Name string `json:"name"`
	} `json:"genres"`
	SpokenLanguages []struct {
		ISO         string `json:"iso_639_1"`
		EnglishName string `json:"english_name"`
	} `json:"spoken_languages"`
}

type tmdbError struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
}

// Lookup searches TMDb and fetches details for the best match.
func (p *TMDbProvider) Lookup(ctx context.Context, q Query) (*movie.Movie, error) {
	results, best, score, err := p.find(ctx, q.Title, q.Year)
	if err != nil {
		return nil, err
	}

	// "Death Race 2000" arrives split as title "Death Race", year "2000".
	if q.Year != "" && (best < 0 || score >= scoreYearMismatch) {
		whole := q.Title + " " + q.Year
		alt, altBest, altScore, err := p.find(ctx, whole, "")
		switch {
		case err != nil:
			logger.Warn("TMDb search for unsplit title failed", logger.Fields{
				"title": whole,
				"error": err.Error(),
			})
		case altBest >= 0 && (best < 0 || altScore < score):
			results, best = alt, altBest
		}
	}

	if best < 0 {
		return nil, ErrNotFound
	}
	hit := results[best]

	m := fromTMDb(hit)
	details, err := p.details(ctx, hit.ID)
	if err != nil {
		logger.Warn("TMDb details unavailable, using search result", logger.Fields{
			"tmdb_id": hit.ID,
			"error":   err.Error(),
		})
		return m, nil
	}

	m = fromTMDb(details.tmdbSearchResult)
	m.IMDbID = details.IMDbID
	for _, g := range details.Genres {
		m.Genres = append(m.Genres, g.Name)
	}
	for _, l := range details.SpokenLanguages {
		if l.ISO == details.OriginalLanguage && l.EnglishName != "" {
			m.Language = l.EnglishName
			break
		}
	}
	return m, nil
}

// find searches for title and ranks the hits. A wrong year in the request
// should not hide the movie, so an empty year-filtered search is repeated
// without the year.
func (p *TMDbProvider) find(ctx context.Context, title, year string) ([]tmdbSearchResult, int, int, error) {
	results, err := p.search(ctx, title, year)
	if err != nil {
		return nil, -1, 0, err
	}
	if len(results) == 0 && year != "" {
		if results, err = p.search(ctx, title, ""); err != nil {
			return nil, -1, 0, err
		}
	}

	candidates := make([]candidate, len(results))
	for i, r := range results {
		candidates[i] = candidate{Title: r.Title, Year: yearOf(r.ReleaseDate)}
	}
	best, score := bestMatch(title, year, candidates)
	return results, best, score, nil
}

func (p *TMDbProvider) search(ctx context.Context, title, year string) ([]tmdbSearchResult, error) {
	params := &tmdbSearchParams{APIKey: p.apiKey, Query: title, Year: year}

	var result tmdbSearchResponse
	var apiErr tmdbError
	req := httpx.NewSling(p.baseURL, p.httpClient).Get("search/movie").QueryStruct(params)
	if _, err := httpx.Receive(ctx, req, &result, &apiErr); err != nil {
		return nil, fmt.Errorf("searching tmdb: %w", p.describe(err, apiErr))
	}
	return result.Results, nil
}

func (p *TMDbProvider) details(ctx context.Context, id int) (*tmdbDetails, error) {
	var result tmdbDetails
	var apiErr tmdbError
	req := httpx.NewSling(p.baseURL, p.httpClient).
		Get("movie/" + strconv.Itoa(id)).
		QueryStruct(&tmdbKeyParams{APIKey: p.apiKey})
	if _, err := httpx.Receive(ctx, req, &result, &apiErr); err != nil {
		return nil, fmt.Errorf("fetching tmdb movie %d: %w", id, p.describe(err, apiErr))
	}
	return &result, nil
}

func (p *TMDbProvider) describe(err error, apiErr tmdbError) error {
	err = wrapStatus(p.Name(), err)
	if apiErr.StatusMessage != "" {
		return fmt.Errorf("%w (%s)", err, apiErr.StatusMessage)
	}
	return err
}

func fromTMDb(r tmdbSearchResult) *movie.Movie {
	m := &movie.Movie{
		Title:    r.Title,
		Year:     yearOf(r.ReleaseDate),
		Overview: strings.TrimSpace(r.Overview),
		Language: r.OriginalLanguage,
		Source:   movie.SourceTMDb,
	}
	if r.PosterPath != "" {
		m.Poster = TMDbImageBaseURL + r.PosterPath
	}
	if r.VoteAverage > 0 {
		m.Rating = strconv.FormatFloat(r.VoteAverage, 'f', 1, 64)
	}
	return m
}
