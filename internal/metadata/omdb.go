package metadata

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/pfrederiksen/moviepost/internal/httpx"
	"github.com/pfrederiksen/moviepost/internal/movie"
)

// OMDbBaseURL is the OMDb API root.
const OMDbBaseURL = "https://www.omdbapi.com/"

// OMDbProvider looks movies up on the Open Movie Database.
type OMDbProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewOMDb creates an OMDb provider. A nil client uses the shared default.
func NewOMDb(apiKey string, client *http.Client) *OMDbProvider {
	if client == nil {
		client = httpx.NewClient(0)
	}
	return &OMDbProvider{
		apiKey:     apiKey,
		baseURL:    OMDbBaseURL,
		httpClient: client,
	}
}

// Name returns "omdb"
func (p *OMDbProvider) Name() string {
	return movie.SourceOMDb
}

type omdbParams struct {
	APIKey string `url:"apikey"`
	Title  string `url:"t"`
	Year   string `url:"y,omitempty"`
	Plot   string `url:"plot"`
	Type   string `url:"type"`
}

type omdbResponse struct {
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Genre      string `json:"Genre"`
	Language   string `json:"Language"`
	Plot       string `json:"Plot"`
	Poster     string `json:"Poster"`
	IMDbRating string `json:"imdbRating"`
	IMDbID     string `json:"imdbID"`
	Response   string `json:"Response"`
	Error      string `json:"Error"`
}

// Lookup fetches a movie by exact title from OMDb.
func (p *OMDbProvider) Lookup(ctx context.Context, q Query) (*movie.Movie, error) {
	params := &omdbParams{
		APIKey: p.apiKey,
		Title:  q.Title,
		Year:   q.Year,
		Plot:   "short",
		Type:   "movie",
	}

	var result, apiErr omdbResponse
	req := httpx.NewSling(p.baseURL, p.httpClient).Get("").QueryStruct(params)
	if _, err := httpx.Receive(ctx, req, &result, &apiErr); err != nil {
		err = wrapStatus(p.Name(), err)
		if apiErr.Error != "" {
			err = fmt.Errorf("%w (%s)", err, apiErr.Error)
		}
		return nil, fmt.Errorf("querying omdb: %w", err)
	}

	if !strings.EqualFold(result.Response, "True") {
		if result.Error == "" || strings.Contains(strings.ToLower(result.Error), "not found") {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying omdb: %s", result.Error)
	}

	m := &movie.Movie{
		Title:    omdbValue(result.Title),
		Year:     yearOf(omdbValue(result.Year)),
		Overview: omdbValue(result.Plot),
		Poster:   omdbValue(result.Poster),
		Rating:   omdbValue(result.IMDbRating),
		IMDbID:   omdbValue(result.IMDbID),
		Source:   movie.SourceOMDb,
	}
	if langs := splitList(omdbValue(result.Language)); len(langs) > 0 {
		m.Language = langs[0]
	}
	m.Genres = splitList(omdbValue(result.Genre))
	return m, nil
}

// omdbValue maps OMDb's "N/A" placeholder to the empty string.
func omdbValue(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "N/A") {
		return ""
	}
	return v
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
