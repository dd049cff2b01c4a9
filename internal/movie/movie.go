package movie

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Metadata sources
const (
	SourceTMDb   = "tmdb"
	SourceOMDb   = "omdb"
	SourcePage   = "page"
	SourceManual = "manual"
)

// Movie is a stored movie document
type Movie struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Year      string    `json:"year,omitempty"`
	Language  string    `json:"language,omitempty"`
	Poster    string    `json:"poster,omitempty"`
	Overview  string    `json:"overview,omitempty"`
	Link      string    `json:"link,omitempty"`
	Quality   string    `json:"quality,omitempty"`
	Genres    []string  `json:"genres,omitempty"`
	Rating    string    `json:"rating,omitempty"`
	IMDbID    string    `json:"imdb_id,omitempty"`
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ErrInvalid is returned by Validate for records that cannot be stored.
var ErrInvalid = errors.New("invalid movie")

// Validate checks the fields a stored movie must satisfy.
func (m *Movie) Validate() error {
	if strings.TrimSpace(m.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if m.Year != "" && !yearOnly.MatchString(m.Year) {
		return fmt.Errorf("%w: year must be four digits", ErrInvalid)
	}
	if m.Link != "" && !isHTTPURL(m.Link) {
		return fmt.Errorf("%w: link must be an http(s) URL", ErrInvalid)
	}
	if m.Poster != "" && !isHTTPURL(m.Poster) {
		return fmt.Errorf("%w: poster must be an http(s) URL", ErrInvalid)
	}
	return nil
}

// Clone returns a copy that shares no slices with m.
func (m *Movie) Clone() *Movie {
	if m == nil {
		return nil
	}
	c := *m
	if m.Genres != nil {
		c.Genres = append([]string(nil), m.Genres...)
	}
	return &c
}

// FillFrom copies non-empty metadata fields from src into the empty fields of m.
func (m *Movie) FillFrom(src *Movie) {
	if src == nil {
		return
	}
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&m.Title, src.Title)
	fill(&m.Year, src.Year)
	fill(&m.Language, src.Language)
	fill(&m.Poster, src.Poster)
	fill(&m.Overview, src.Overview)
	fill(&m.Link, src.Link)
	fill(&m.Quality, src.Quality)
	fill(&m.Rating, src.Rating)
	fill(&m.IMDbID, src.IMDbID)
	fill(&m.Source, src.Source)
	if len(m.Genres) == 0 && len(src.Genres) > 0 {
		m.Genres = append([]string(nil), src.Genres...)
	}
}

// DisplayTitle returns "Title (Year)" or just the title when the year is unknown.
func (m *Movie) DisplayTitle() string {
	if m.Year == "" {
		return m.Title
	}
	return fmt.Sprintf("%s (%s)", m.Title, m.Year)
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
