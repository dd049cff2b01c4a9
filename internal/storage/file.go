package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pfrederiksen/moviepost/internal/movie"
)

const moviesFile = "movies.json"

// FileStore keeps movies in a JSON file
type FileStore struct {
	dataDir string

	mu     sync.RWMutex
	movies map[string]*movie.Movie
}

// NewFile opens (or creates) the store in dataDir. A leading "~/" is expanded.
func NewFile(dataDir string) (*FileStore, error) {
	// Expand ~ to home directory
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	s := &FileStore{
		dataDir: dataDir,
		movies:  make(map[string]*movie.Movie),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) path() string {
	return filepath.Join(s.dataDir, moviesFile)
}

func (s *FileStore) load() error {
	data, err := os.ReadFile(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			// Nothing stored yet
			return nil
		}
		return fmt.Errorf("reading movies: %w", err)
	}

	var movies []*movie.Movie
	if err := json.Unmarshal(data, &movies); err != nil {
		return fmt.Errorf("parsing movies: %w", err)
	}
	for _, m := range movies {
		s.movies[m.ID] = m
	}
	return nil
}

// save writes all movies to a temp file and renames it over the old one.
// Callers hold s.mu.
func (s *FileStore) save() error {
	data, err := json.MarshalIndent(s.sorted(), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding movies: %w", err)
	}

	tmp, err := os.CreateTemp(s.dataDir, moviesFile+".*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing movies: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing movies: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path()); err != nil {
		return fmt.Errorf("replacing movies file: %w", err)
	}
	return nil
}

// sorted returns all movies newest first. Callers hold s.mu.
func (s *FileStore) sorted() []*movie.Movie {
	out := make([]*movie.Movie, 0, len(s.movies))
	for _, m := range s.movies {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Insert implements Store
func (s *FileStore) Insert(ctx context.Context, m *movie.Movie) (string, error) {
	if err := m.Validate(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m.ID = uuid.NewString()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	s.movies[m.ID] = m.Clone()

	if err := s.save(); err != nil {
		delete(s.movies, m.ID)
		return "", err
	}
	return m.ID, nil
}

// Get implements Store
func (s *FileStore) Get(ctx context.Context, id string) (*movie.Movie, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrInvalidID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.movies[id]
	if !ok {
		return nil, ErrNotFound
	}
	return m.Clone(), nil
}

// List implements Store
func (s *FileStore) List(ctx context.Context, opts ListOptions) ([]*movie.Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := strings.ToLower(strings.TrimSpace(opts.Query))
	var out []*movie.Movie
	for _, m := range s.sorted() {
		if query != "" && !strings.Contains(strings.ToLower(m.Title), query) {
			continue
		}
		out = append(out, m.Clone())
		if len(out) == opts.limit() {
			break
		}
	}
	return out, nil
}

// Count implements Store
func (s *FileStore) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.movies)), nil
}

// Ping checks that the data directory is still there
func (s *FileStore) Ping(ctx context.Context) error {
	if _, err := os.Stat(s.dataDir); err != nil {
		return fmt.Errorf("checking data directory: %w", err)
	}
	return nil
}

// Close implements Store
func (s *FileStore) Close(ctx context.Context) error {
	return nil
}
