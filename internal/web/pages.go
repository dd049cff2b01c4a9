package web

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pfrederiksen/moviepost/internal/logger"
	"github.com/pfrederiksen/moviepost/internal/metadata"
	"github.com/pfrederiksen/moviepost/internal/movie"
	"github.com/pfrederiksen/moviepost/internal/render"
	"github.com/pfrederiksen/moviepost/internal/storage"
)

// movieForm is the /admin form. Only the title is required.
type movieForm struct {
	Title    string `form:"title"`
	Year     string `form:"year"`
	Language string `form:"language"`
	Poster   string `form:"poster"`
	Overview string `form:"overview"`
	Link     string `form:"link"`
	Quality  string `form:"quality"`
	Lookup   string `form:"lookup"`
}

func (f movieForm) movie() *movie.Movie {
	return &movie.Movie{
		Title:    f.Title,
		Year:     f.Year,
		Language: f.Language,
		Poster:   f.Poster,
		Overview: f.Overview,
		Link:     f.Link,
		Quality:  movie.NormalizeQuality(f.Quality),
		Source:   movie.SourceManual,
	}
}

func (s *Server) index(c *gin.Context) {
	query := c.Query("q")
	movies, err := s.store.List(c.Request.Context(), storage.ListOptions{Query: query})
	if err != nil {
		s.serverError(c, err)
		return
	}

	c.HTML(http.StatusOK, "index.html", gin.H{
		"Title":  "Movies",
		"Query":  query,
		"Movies": movies,
	})
}

func (s *Server) showMovie(c *gin.Context) {
	m, err := s.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidID) {
			s.notFound(c)
			return
		}
		s.serverError(c, err)
		return
	}

	c.HTML(http.StatusOK, "movie.html", gin.H{
		"Title": m.DisplayTitle(),
		"Movie": m,
		// BlogHTML escapes every movie field
		"Body": template.HTML(render.BlogHTML(m)),
	})
}

func (s *Server) adminForm(c *gin.Context) {
	c.HTML(http.StatusOK, "admin.html", gin.H{
		"Title":     "Add movie",
		"CanLookup": s.lookup != nil,
		"Form":      movieForm{},
	})
}

func (s *Server) adminCreate(c *gin.Context) {
	var form movieForm
	if err := c.ShouldBind(&form); err != nil {
		s.formError(c, form, err)
		return
	}

	m := form.movie()
	m.Title, m.Year = splitTitleYear(m.Title, m.Year)

	if form.Lookup == "on" && s.lookup != nil && m.Title != "" {
		s.fillMetadata(c, m)
	}

	if err := m.Validate(); err != nil {
		s.formError(c, form, err)
		return
	}

	id, err := s.store.Insert(c.Request.Context(), m)
	if err != nil {
		s.serverError(c, err)
		return
	}

	logger.Info("Movie added from admin form", logger.Fields{
		"movie_id": id,
		"title":    m.Title,
	})
	c.Redirect(http.StatusSeeOther, "/movie/"+id)
}

// fillMetadata fills blank fields in m from the metadata chain. A failed
// lookup leaves m as the admin entered it.
func (s *Server) fillMetadata(c *gin.Context, m *movie.Movie) {
	found, err := metadata.Resolve(c.Request.Context(), s.lookup, movie.Request{
		Title:   m.Title,
		Year:    m.Year,
		Link:    m.Link,
		Quality: m.Quality,
	})
	if err != nil {
		logger.Warn("Metadata lookup from admin form failed", logger.Fields{
			"title": m.Title,
			"error": err.Error(),
		})
		return
	}
	if found.Source != movie.SourceManual {
		m.Source = ""
	}
	m.FillFrom(found)
}

// splitTitleYear accepts "Title (Year)" in the title field when no year was given.
func splitTitleYear(title, year string) (string, string) {
	if year != "" {
		return title, year
	}
	return movie.SplitYear(title)
}

func (s *Server) formError(c *gin.Context, form movieForm, err error) {
	c.HTML(http.StatusBadRequest, "admin.html", gin.H{
		"Title":     "Add movie",
		"CanLookup": s.lookup != nil,
		"Form":      form,
		"Error":     err.Error(),
	})
}

func (s *Server) notFound(c *gin.Context) {
	c.HTML(http.StatusNotFound, "404.html", gin.H{"Title": "Not found"})
}

func (s *Server) serverError(c *gin.Context, err error) {
	_ = c.Error(err)
	logger.Error("Request failed", logger.Fields{"path": c.Request.URL.Path}, err)
	c.HTML(http.StatusInternalServerError, "error.html", gin.H{
		"Title": "Error",
		"Error": err.Error(),
	})
}
