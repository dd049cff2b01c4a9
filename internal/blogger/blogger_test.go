package blogger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/pfrederiksen/moviepost/internal/httpx"
)

func init() {
	httpx.RetryInterval = time.Millisecond
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		blogID  string
		opts    Options
		wantErr bool
	}{
		{"api key", "123", Options{APIKey: "k"}, false},
		{"oauth", "123", Options{OAuth: &OAuthCredentials{ClientID: "id", ClientSecret: "s", RefreshToken: "r"}}, false},
		{"token source", "123", Options{TokenSource: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "t"})}, false},
		{"missing blog", "", Options{APIKey: "k"}, true},
		{"missing credentials", "123", Options{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.blogID, tt.opts)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestInsertPost(t *testing.T) {
	var got postRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/blogs/42/posts/" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "api-key" {
			t.Errorf("key = %q", r.URL.Query().Get("key"))
		}
		if r.URL.Query().Get("isDraft") != "true" {
			t.Errorf("isDraft = %q, want true", r.URL.Query().Get("isDraft"))
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer access-1" {
			t.Errorf("Authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"kind":"blogger#post","id":"987","url":"https://myblog.blogspot.com/2024/01/inception.html","title":"Inception (2010)"}`))
	}))
	defer server.Close()

	c, err := New("42", Options{
		APIKey:      "api-key",
		TokenSource: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "access-1"}),
		BaseURL:     server.URL + "/",
		HTTPClient:  server.Client(),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	post, err := c.InsertPost(context.Background(), Post{
		Title:   "Inception (2010)",
		Content: "<h2>Inception</h2>",
		Labels:  []string{"Action"},
		IsDraft: true,
	})
	if err != nil {
		t.Fatalf("InsertPost() error = %v", err)
	}
	if post.ID != "987" || post.URL != "https://myblog.blogspot.com/2024/01/inception.html" {
		t.Errorf("InsertPost() = %+v", post)
	}

	if got.Kind != "blogger#post" || got.Blog.ID != "42" || got.Title != "Inception (2010)" ||
		got.Content != "<h2>Inception</h2>" || len(got.Labels) != 1 {
		t.Errorf("request body = %+v", got)
	}
}

func TestInsertPost_APIError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":401,"message":"Login Required."}}`))
	}))
	defer server.Close()

	c, _ := New("42", Options{APIKey: "k", BaseURL: server.URL + "/", HTTPClient: server.Client()})
	_, err := c.InsertPost(context.Background(), Post{Title: "t", Content: "c"})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("InsertPost() error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized || apiErr.Message != "Login Required." {
		t.Errorf("APIError = %+v", apiErr)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}

func TestInsertPost_ServerErrorNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c, _ := New("42", Options{APIKey: "k", BaseURL: server.URL + "/", HTTPClient: server.Client()})
	if _, err := c.InsertPost(context.Background(), Post{Title: "t"}); err == nil {
		t.Fatal("InsertPost() expected error")
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("calls = %d, want 1 (inserts are not idempotent)", n)
	}
}

func TestListPosts(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// First attempt fails to exercise the GET retry
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		if r.URL.Query().Get("maxResults") != "5" || r.URL.Query().Get("fetchBodies") != "false" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[
			{"id":"1","title":"Heat","url":"https://b/1","published":"2024-01-02T10:00:00-08:00"},
			{"id":"2","title":"Dune","url":"https://b/2","published":"2024-01-01T10:00:00-08:00"}
		]}`))
	}))
	defer server.Close()

	c, _ := New("42", Options{APIKey: "k", BaseURL: server.URL + "/", HTTPClient: server.Client()})
	posts, err := c.ListPosts(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListPosts() error = %v", err)
	}
	if len(posts) != 2 || posts[0].Title != "Heat" || posts[1].URL != "https://b/2" {
		t.Errorf("ListPosts() = %+v", posts)
	}
	if posts[0].Published.IsZero() {
		t.Error("published time not decoded")
	}
}

func TestOAuthRefresh(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parsing token form: %v", err)
			return
		}
		if r.Form.Get("grant_type") != "refresh_token" || r.Form.Get("refresh_token") != "refresh-1" {
			t.Errorf("token form = %v", r.Form)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"fresh","token_type":"Bearer","expires_in":3600}`))
	}))
	defer tokenServer.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer fresh" {
			t.Errorf("Authorization = %q", auth)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","url":"https://b/1"}`))
	}))
	defer api.Close()

	c, err := New("42", Options{
		OAuth: &OAuthCredentials{
			ClientID:     "client",
			ClientSecret: "secret",
			RefreshToken: "refresh-1",
			TokenURL:     tokenServer.URL,
		},
		BaseURL: api.URL + "/",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := c.InsertPost(context.Background(), Post{Title: "t"}); err != nil {
		t.Fatalf("InsertPost() error = %v", err)
	}
}
