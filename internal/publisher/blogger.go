package publisher

import (
	"context"

	"github.com/pfrederiksen/moviepost/internal/blogger"
)

// postInserter is the part of *blogger.Client the publisher needs.
type postInserter interface {
	InsertPost(ctx context.Context, p blogger.Post) (*blogger.Post, error)
}

// BloggerPublisher publishes items as Blogger posts
type BloggerPublisher struct {
	client postInserter
	draft  bool
}

// NewBlogger creates a Blogger publisher. With draft set, posts are saved as drafts.
func NewBlogger(client *blogger.Client, draft bool) *BloggerPublisher {
	return &BloggerPublisher{client: client, draft: draft}
}

// Name returns "blogger"
func (b *BloggerPublisher) Name() string {
	return "blogger"
}

// Publish inserts item.HTML as a new post
func (b *BloggerPublisher) Publish(ctx context.Context, item Item) (Result, error) {
	post, err := b.client.InsertPost(ctx, blogger.Post{
		Title:   item.Title,
		Content: item.HTML,
		Labels:  item.Labels,
		IsDraft: b.draft,
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Target: b.Name(), ID: post.ID, URL: post.URL}, nil
}
