package metadata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/moviepost/internal/httpx"
	"github.com/pfrederiksen/moviepost/internal/logger"
	"github.com/pfrederiksen/moviepost/internal/movie"
)

// maxPageBytes caps how much of a linked page is parsed.
const maxPageBytes = 2 << 20

// PageProvider reads OpenGraph tags from the page the user linked to.
// It never replaces the requested title; it only contributes a poster and a description.
type PageProvider struct {
	httpClient *http.Client
}

// NewPage creates a page provider. A nil client dials public addresses only,
// so user links cannot reach loopback or internal hosts.
func NewPage(client *http.Client) *PageProvider {
	if client == nil {
		client = httpx.NewPublicClient(0)
	}
	return &PageProvider{httpClient: client}
}

// Name returns "page"
func (p *PageProvider) Name() string {
	return movie.SourcePage
}

// Lookup fetches q.Link and extracts og:title, og:image and og:description.
func (p *PageProvider) Lookup(ctx context.Context, q Query) (*movie.Movie, error) {
	if q.Link == "" {
		return nil, ErrNotFound
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, q.Link, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", httpx.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	var doc *goquery.Document
	err = httpx.Retry(ctx, req.Method, func() error {
		resp, err := p.httpClient.Do(req.Clone(ctx))
		if cerr := httpx.Classify(ctx, req, resp, err); cerr != nil {
			if resp != nil {
				resp.Body.Close()
			}
			return cerr
		}
		defer resp.Body.Close()

		if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") {
			return httpx.Permanent(ErrNotFound)
		}

		doc, err = goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxPageBytes))
		if err != nil {
			return httpx.Permanent(fmt.Errorf("parsing page: %w", err))
		}
		return nil
	})
	if errors.Is(err, httpx.ErrBlockedAddress) {
		logger.Warn("Refusing to fetch link", logger.Fields{
			"host":  req.URL.Host,
			"error": err.Error(),
		})
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrapStatus(p.Name(), err)
	}

	m := &movie.Movie{
		Title:    q.Title,
		Year:     q.Year,
		Poster:   absoluteURL(req.URL, metaContent(doc, "og:image", "twitter:image")),
		Overview: metaContent(doc, "og:description", "description", "twitter:description"),
		Source:   movie.SourcePage,
	}
	if m.Title == "" {
		m.Title = metaContent(doc, "og:title")
		if m.Title == "" {
			m.Title = strings.TrimSpace(doc.Find("title").First().Text())
		}
	}

	if m.Poster == "" && m.Overview == "" {
		return nil, ErrNotFound
	}
	return m, nil
}

// metaContent returns the content of the first <meta> whose property or name matches one of keys.
func metaContent(doc *goquery.Document, keys ...string) string {
	for _, key := range keys {
		var value string
		doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			prop, _ := s.Attr("property")
			name, _ := s.Attr("name")
			if !strings.EqualFold(prop, key) && !strings.EqualFold(name, key) {
				return true
			}
			value = strings.TrimSpace(s.AttrOr("content", ""))
			return value == ""
		})
		if value != "" {
			return value
		}
	}
	return ""
}

// absoluteURL resolves ref against base and keeps only http(s) results.
func absoluteURL(base *url.URL, ref string) string {
	if ref == "" {
		return ""
	}
	u, err := base.Parse(ref)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}
	return u.String()
}
