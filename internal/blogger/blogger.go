package blogger

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/pfrederiksen/moviepost/internal/httpx"
	"github.com/pfrederiksen/moviepost/internal/logger"
)

const (
	// DefaultBaseURL is the Blogger v3 API root.
	DefaultBaseURL = "https://www.googleapis.com/blogger/v3/"
	// Scope grants read/write access to the user's blogs.
	Scope = "https://www.googleapis.com/auth/blogger"
	// DefaultListSize is used when ListPosts is called with max <= 0.
	DefaultListSize = 5
)

// OAuthCredentials exchange a stored refresh token for access tokens.
type OAuthCredentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	// TokenURL overrides Google's token endpoint.
	TokenURL string
}

// TokenSource returns a refreshing token source for the credentials.
func (o *OAuthCredentials) TokenSource(ctx context.Context) oauth2.TokenSource {
	endpoint := google.Endpoint
	if o.TokenURL != "" {
		endpoint.TokenURL = o.TokenURL
	}
	cfg := &oauth2.Config{
		ClientID:     o.ClientID,
		ClientSecret: o.ClientSecret,
		Endpoint:     endpoint,
		Scopes:       []string{Scope},
	}
	return cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: o.RefreshToken})
}

// Options configure a Client
type Options struct {
	APIKey      string
	OAuth       *OAuthCredentials
	TokenSource oauth2.TokenSource
	BaseURL     string
	HTTPClient  *http.Client
}

// Client talks to one blog
type Client struct {
	blogID     string
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Post is a Blogger post
type Post struct {
	ID        string    `json:"id,omitempty"`
	Title     string    `json:"title"`
	Content   string    `json:"content,omitempty"`
	Labels    []string  `json:"labels,omitempty"`
	URL       string    `json:"url,omitempty"`
	Published time.Time `json:"published,omitempty"`
	// IsDraft inserts the post as a draft. It is sent as a query parameter.
	IsDraft bool `json:"-"`
}

// APIError is a non-2xx answer from Blogger.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("blogger API error (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("blogger API error (status %d): %s", e.StatusCode, e.Message)
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type postRequest struct {
	Kind string `json:"kind"`
	Blog struct {
		ID string `json:"id"`
	} `json:"blog"`
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Labels  []string `json:"labels,omitempty"`
}

type insertParams struct {
	Key     string `url:"key,omitempty"`
	IsDraft bool   `url:"isDraft,omitempty"`
}

type listParams struct {
	Key         string `url:"key,omitempty"`
	MaxResults  int    `url:"maxResults"`
	FetchBodies bool   `url:"fetchBodies"`
}

type listResponse struct {
	Items []Post `json:"items"`
}

// New creates a client for blogID. At least one of an API key, OAuth
// credentials or a token source is required.
func New(blogID string, opts Options) (*Client, error) {
	if blogID == "" {
		return nil, errors.New("blog ID is required")
	}
	if opts.APIKey == "" && opts.OAuth == nil && opts.TokenSource == nil {
		return nil, errors.New("blogger API key or OAuth credentials are required")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = httpx.NewClient(0)
	}

	ts := opts.TokenSource
	if ts == nil && opts.OAuth != nil {
		ts = opts.OAuth.TokenSource(context.Background())
	}
	if ts != nil {
		httpClient = &http.Client{
			Timeout: httpClient.Timeout,
			Transport: &oauth2.Transport{
				Source: oauth2.ReuseTokenSource(nil, ts),
				Base:   httpClient.Transport,
			},
		}
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		blogID:     blogID,
		apiKey:     opts.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
	}, nil
}

// BlogID returns the blog this client writes to
func (c *Client) BlogID() string {
	return c.blogID
}

// InsertPost publishes p and returns the created post with its ID and URL.
// Inserts are never retried.
func (c *Client) InsertPost(ctx context.Context, p Post) (*Post, error) {
	start := time.Now()
	defer logger.Since("blogger.insert", start)

	body := postRequest{
		Kind:    "blogger#post",
		Title:   p.Title,
		Content: p.Content,
		Labels:  p.Labels,
	}
	body.Blog.ID = c.blogID

	var created Post
	var apiErr errorResponse
	req := httpx.NewSling(c.baseURL, c.httpClient).
		Post(c.postsPath()).
		QueryStruct(&insertParams{Key: c.apiKey, IsDraft: p.IsDraft}).
		BodyJSON(&body)

	if _, err := httpx.Receive(ctx, req, &created, &apiErr); err != nil {
		logger.IncrCounter("blogger.insert_errors")
		return nil, fmt.Errorf("inserting post: %w", c.apiError(err, apiErr))
	}

	logger.IncrCounter("blogger.inserted")
	logger.Info("Blogger post created", logger.Fields{
		"blog_id": c.blogID,
		"post_id": created.ID,
		"url":     created.URL,
		"draft":   p.IsDraft,
	})
	return &created, nil
}

// ListPosts returns up to max recent posts without their bodies.
func (c *Client) ListPosts(ctx context.Context, max int) ([]Post, error) {
	if max <= 0 {
		max = DefaultListSize
	}

	var result listResponse
	var apiErr errorResponse
	req := httpx.NewSling(c.baseURL, c.httpClient).
		Get(c.postsPath()).
		QueryStruct(&listParams{Key: c.apiKey, MaxResults: max})

	if _, err := httpx.Receive(ctx, req, &result, &apiErr); err != nil {
		return nil, fmt.Errorf("listing posts: %w", c.apiError(err, apiErr))
	}
	return result.Items, nil
}

func (c *Client) postsPath() string {
	return "blogs/" + url.PathEscape(c.blogID) + "/posts/"
}

// apiError converts a status failure into an *APIError carrying Blogger's message.
func (c *Client) apiError(err error, body errorResponse) error {
	var se *httpx.StatusError
	if !errors.As(err, &se) {
		return err
	}
	return &APIError{StatusCode: se.StatusCode, Message: body.Error.Message}
}
