package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pfrederiksen/moviepost/internal/logger"
	"github.com/pfrederiksen/moviepost/internal/movie"
	"github.com/pfrederiksen/moviepost/internal/storage"
)

type listResponse struct {
	Movies []*movie.Movie `json:"movies"`
	Count  int            `json:"count"`
	Query  string         `json:"q,omitempty"`
}

func (s *Server) apiList(c *gin.Context) {
	opts := storage.ListOptions{Query: c.Query("q")}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		opts.Limit = limit
	}

	movies, err := s.store.List(c.Request.Context(), opts)
	if err != nil {
		s.apiError(c, err)
		return
	}
	if movies == nil {
		movies = []*movie.Movie{}
	}

	c.JSON(http.StatusOK, listResponse{Movies: movies, Count: len(movies), Query: opts.Query})
}

func (s *Server) apiGet(c *gin.Context) {
	m, err := s.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (s *Server) apiCreate(c *gin.Context) {
	var m movie.Movie
	if err := c.ShouldBindJSON(&m); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	m.ID = ""
	m.Quality = movie.NormalizeQuality(m.Quality)
	if m.Source == "" {
		m.Source = movie.SourceManual
	}
	if err := m.Validate(); err != nil {
		s.apiError(c, err)
		return
	}

	if _, err := s.store.Insert(c.Request.Context(), &m); err != nil {
		s.apiError(c, err)
		return
	}

	logger.Info("Movie added from API", logger.Fields{
		"movie_id": m.ID,
		"title":    m.Title,
	})
	c.JSON(http.StatusCreated, &m)
}

func (s *Server) health(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		logger.Warn("Health check failed", logger.Fields{"error": err.Error()})
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) metrics(c *gin.Context) {
	c.JSON(http.StatusOK, logger.GetMetricsSnapshot())
}

// apiError maps store and validation errors to HTTP statuses.
func (s *Server) apiError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, storage.ErrInvalidID):
		c.JSON(http.StatusNotFound, gin.H{"error": "movie not found"})
	case errors.Is(err, movie.ErrInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		logger.Error("API request failed", logger.Fields{"path": c.Request.URL.Path}, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
