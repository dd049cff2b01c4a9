package storage

import (
	"context"
	"errors"

	"github.com/pfrederiksen/moviepost/internal/logger"
	"github.com/pfrederiksen/moviepost/internal/movie"
)

// DefaultListLimit applies when ListOptions.Limit is zero.
const DefaultListLimit = 50

var (
	// ErrNotFound is returned when no movie has the requested ID.
	ErrNotFound = errors.New("movie not found")
	// ErrInvalidID is returned for IDs the store could never have issued.
	ErrInvalidID = errors.New("invalid movie ID")
)

// ListOptions filter and bound List
type ListOptions struct {
	Limit int
	// Query matches titles case-insensitively as a plain substring.
	Query string
}

func (o ListOptions) limit() int {
	if o.Limit <= 0 {
		return DefaultListLimit
	}
	return o.Limit
}

// Store persists movies
type Store interface {
	// Insert stores m, setting its ID and CreatedAt, and returns the ID.
	Insert(ctx context.Context, m *movie.Movie) (string, error)
	Get(ctx context.Context, id string) (*movie.Movie, error)
	// List returns movies newest first.
	List(ctx context.Context, opts ListOptions) ([]*movie.Movie, error)
	Count(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Options select and configure a store
type Options struct {
	MongoURI string
	MongoDB  string
	DataDir  string
}

// Open returns a MongoStore when MongoURI is set and a FileStore otherwise.
func Open(ctx context.Context, opts Options) (Store, error) {
	if opts.MongoURI != "" {
		logger.Info("Using MongoDB store", logger.Fields{"database": opts.MongoDB})
		return NewMongo(ctx, opts.MongoURI, opts.MongoDB)
	}
	logger.Info("Using file store", logger.Fields{"data_dir": opts.DataDir})
	return NewFile(opts.DataDir)
}
