package publisher

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/pfrederiksen/moviepost/internal/logger"
)

// Item is one post to publish
type Item struct {
	Title string
	// HTML is the full post body for blog targets.
	HTML string
	// Text is a plain-text summary for short-form targets.
	Text   string
	Link   string
	Labels []string
}

// Result identifies what a publisher created
type Result struct {
	Target string
	ID     string
	URL    string
}

// Publisher defines the interface for publishing posts
type Publisher interface {
	Name() string
	Publish(ctx context.Context, item Item) (Result, error)
}

// Multi publishes to every publisher in order. The first is primary: its
// failure aborts and its result is returned. Later publishers receive the
// primary's URL as the item link; their failures are logged and ignored.
type Multi []Publisher

// Name returns the primary publisher's name
func (m Multi) Name() string {
	if len(m) == 0 {
		return "none"
	}
	return m[0].Name()
}

// Publish implements Publisher
func (m Multi) Publish(ctx context.Context, item Item) (Result, error) {
	if len(m) == 0 {
		return Result{}, fmt.Errorf("no publishers configured")
	}

	res, err := m[0].Publish(ctx, item)
	if err != nil {
		return Result{}, err
	}

	secondary := item
	if res.URL != "" {
		secondary.Link = res.URL
	}
	for _, p := range m[1:] {
		if _, err := p.Publish(ctx, secondary); err != nil {
			logger.Error("Secondary publish failed", logger.Fields{
				"target": p.Name(),
				"title":  item.Title,
			}, err)
			logger.IncrCounter("publish.secondary_errors")
		}
	}

	return res, nil
}

// Paced waits on a rate limiter before every publish.
type Paced struct {
	next    Publisher
	limiter *rate.Limiter
}

// NewPaced allows one publish per interval with no burst beyond one.
func NewPaced(next Publisher, interval time.Duration) *Paced {
	return &Paced{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Name returns the wrapped publisher's name
func (p *Paced) Name() string {
	return p.next.Name()
}

// Publish waits for the limiter, then publishes.
func (p *Paced) Publish(ctx context.Context, item Item) (Result, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return Result{}, fmt.Errorf("waiting to publish: %w", err)
	}

	start := time.Now()
	res, err := p.next.Publish(ctx, item)
	logger.Since("publish."+p.next.Name(), start)
	if err != nil {
		logger.IncrCounter("publish.errors")
		return Result{}, err
	}
	logger.IncrCounter("publish.success")
	return res, nil
}
