package metadata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pfrederiksen/moviepost/internal/httpx"
	"github.com/pfrederiksen/moviepost/internal/movie"
)

func init() {
	httpx.RetryInterval = time.Millisecond
}

func newTMDbServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_key") != "test-key" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"status_code":7,"status_message":"Invalid API key: You must be granted a valid key."}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/search/movie":
			switch r.URL.Query().Get("query") {
			case "Inception":
				if y := r.URL.Query().Get("year"); y != "" && y != "2010" {
					_, _ = w.Write([]byte(`{"results":[]}`))
					return
				}
				_, _ = w.Write([]byte(`{"results":[
					{"id":1,"title":"Inception: The Cobol Job","release_date":"2010-12-07","overview":"Prequel"},
					{"id":27205,"title":"Inception","release_date":"2010-07-15","poster_path":"/inception.jpg","overview":"A thief who steals secrets.","vote_average":8.369,"original_language":"en"}
				]}`))
			case "Death Race":
				if y := r.URL.Query().Get("year"); y != "" && y != "2008" {
					_, _ = w.Write([]byte(`{"results":[]}`))
					return
				}
				_, _ = w.Write([]byte(`{"results":[{"id":10483,"title":"Death Race","release_date":"2008-08-22","overview":"Jensen Ames races for freedom."}]}`))
			case "Death Race 2000":
				_, _ = w.Write([]byte(`{"results":[
					{"id":13280,"title":"Death Race 2000","release_date":"1975-04-27","overview":"A cross-country road race."},
					{"id":10483,"title":"Death Race","release_date":"2008-08-22","overview":"Jensen Ames races for freedom."}
				]}`))
			default:
				_, _ = w.Write([]byte(`{"results":[]}`))
			}
		case "/movie/27205":
			_, _ = w.Write([]byte(`{
				"id":27205,"title":"Inception","release_date":"2010-07-15","poster_path":"/inception.jpg",
				"overview":"A thief who steals secrets.","vote_average":8.369,"original_language":"en",
				"imdb_id":"tt1375666",
				"genres":[{"id":28,"name":"Action"},{"id":878,"name":"Science Fiction"}],
				"spoken_languages":[{"english_name":"English","iso_639_1":"en","name":"English"}]
			}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestTMDbLookup(t *testing.T) {
	server := newTMDbServer(t)
	defer server.Close()

	p := NewTMDb("test-key", server.Client())
	p.baseURL = server.URL + "/"

	m, err := p.Lookup(context.Background(), Query{Title: "Inception", Year: "2010"})
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}

	want := movie.Movie{
		Title:    "Inception",
		Year:     "2010",
		Language: "English",
		Poster:   TMDbImageBaseURL + "/inception.jpg",
		Overview: "A thief who steals secrets.",
		Rating:   "8.4",
		IMDbID:   "tt1375666",
		Source:   movie.SourceTMDb,
	}
	if m.Title != want.Title || m.Year != want.Year || m.Language != want.Language ||
		m.Poster != want.Poster || m.Overview != want.Overview || m.Rating != want.Rating ||
		m.IMDbID != want.IMDbID || m.Source != want.Source {
		t.Errorf("Lookup() = %+v, want %+v", m, want)
	}
	if len(m.Genres) != 2 || m.Genres[0] != "Action" || m.Genres[1] != "Science Fiction" {
		t.Errorf("Genres = %v", m.Genres)
	}
}

func TestTMDbLookup_WrongYearFallsBack(t *testing.T) {
	server := newTMDbServer(t)
	defer server.Close()

	p := NewTMDb("test-key", server.Client())
	p.baseURL = server.URL + "/"

	m, err := p.Lookup(context.Background(), Query{Title: "Inception", Year: "2011"})
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if m.Year != "2010" {
		t.Errorf("Year = %q, want 2010", m.Year)
	}
}

func TestTMDbLookup_YearInTitle(t *testing.T) {
	tests := []struct {
		name      string
		query     Query
		wantTitle string
		wantYear  string
	}{
		{"number belongs to the title", Query{Title: "Death Race", Year: "2000"}, "Death Race 2000", "1975"},
		{"year matches", Query{Title: "Death Race", Year: "2008"}, "Death Race", "2008"},
		{"unsplit title", Query{Title: "Death Race 2000"}, "Death Race 2000", "1975"},
		{"wrong year keeps best hit", Query{Title: "Inception", Year: "2011"}, "Inception", "2010"},
	}

	server := newTMDbServer(t)
	defer server.Close()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewTMDb("test-key", server.Client())
			p.baseURL = server.URL + "/"

			m, err := p.Lookup(context.Background(), tt.query)
			if err != nil {
				t.Fatalf("Lookup() error = %v", err)
			}
			if m.Title != tt.wantTitle || m.Year != tt.wantYear {
				t.Errorf("Lookup() = %q (%s), want %q (%s)", m.Title, m.Year, tt.wantTitle, tt.wantYear)
			}
		})
	}
}

func TestTMDbLookup_NotFound(t *testing.T) {
	server := newTMDbServer(t)
	defer server.Close()

	p := NewTMDb("test-key", server.Client())
	p.baseURL = server.URL + "/"

	_, err := p.Lookup(context.Background(), Query{Title: "No Such Movie"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Lookup() error = %v, want ErrNotFound", err)
	}
}

func TestTMDbLookup_BadKey(t *testing.T) {
	server := newTMDbServer(t)
	defer server.Close()

	p := NewTMDb("wrong", server.Client())
	p.baseURL = server.URL + "/"

	_, err := p.Lookup(context.Background(), Query{Title: "Inception"})
	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Lookup() error = %v, want *HTTPStatusError", err)
	}
	if statusErr.Provider != "tmdb" || statusErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("HTTPStatusError = %+v", statusErr)
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("auth failure must not look like ErrNotFound")
	}
}
