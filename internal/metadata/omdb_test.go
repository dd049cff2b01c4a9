package metadata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/pfrederiksen/moviepost/internal/movie"
)

func TestOMDbLookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("apikey") != "omdb-key" || q.Get("plot") != "short" || q.Get("type") != "movie" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		if q.Get("t") != "Heat" {
			_, _ = w.Write([]byte(`{"Response":"False","Error":"Movie not found!"}`))
			return
		}
		_, _ = w.Write([]byte(`{
			"Title":"Heat","Year":"1995","Genre":"Action, Crime, Drama","Language":"English, Spanish",
			"Plot":"A group of high-end professional thieves.","Poster":"N/A","imdbRating":"8.3",
			"imdbID":"tt0113277","Response":"True"
		}`))
	}))
	defer server.Close()

	p := NewOMDb("omdb-key", server.Client())
	p.baseURL = server.URL + "/"

	m, err := p.Lookup(context.Background(), Query{Title: "Heat", Year: "1995"})
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if m.Title != "Heat" || m.Year != "1995" || m.Language != "English" || m.Rating != "8.3" ||
		m.IMDbID != "tt0113277" || m.Source != movie.SourceOMDb {
		t.Errorf("Lookup() = %+v", m)
	}
	if m.Poster != "" {
		t.Errorf("Poster = %q, want N/A mapped to empty", m.Poster)
	}
	if len(m.Genres) != 3 || m.Genres[2] != "Drama" {
		t.Errorf("Genres = %v", m.Genres)
	}

	_, err = p.Lookup(context.Background(), Query{Title: "Unknown"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Lookup(Unknown) error = %v, want ErrNotFound", err)
	}
}

func TestOMDbLookup_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantCalls int32
	}{
		{
			name:      "invalid key",
			status:    http.StatusUnauthorized,
			body:      `{"Response":"False","Error":"Invalid API key!"}`,
			wantCalls: 1,
		},
		{
			name:      "request limit",
			status:    http.StatusOK,
			body:      `{"Response":"False","Error":"Request limit reached!"}`,
			wantCalls: 1,
		},
		{
			name:      "server error retried",
			status:    http.StatusInternalServerError,
			body:      `oops`,
			wantCalls: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			p := NewOMDb("k", server.Client())
			p.baseURL = server.URL + "/"

			_, err := p.Lookup(context.Background(), Query{Title: "Heat"})
			if err == nil {
				t.Fatal("Lookup() expected error")
			}
			if errors.Is(err, ErrNotFound) {
				t.Errorf("Lookup() error = %v, must not be ErrNotFound", err)
			}
			if got := atomic.LoadInt32(&calls); got != tt.wantCalls {
				t.Errorf("calls = %d, want %d", got, tt.wantCalls)
			}
		})
	}
}
