package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/pfrederiksen/moviepost/internal/logger"
	"github.com/pfrederiksen/moviepost/internal/metadata"
	"github.com/pfrederiksen/moviepost/internal/storage"
)

// ShutdownTimeout bounds how long ListenAndServe waits for open requests.
const ShutdownTimeout = 10 * time.Second

//go:embed templates/*.html
var templateFS embed.FS

// Options configure a Server
type Options struct {
	Store storage.Store
	// Lookup is optional; without it the admin form cannot fill in metadata.
	Lookup metadata.Provider
	// AdminUser and AdminPassword enable basic auth on /admin and POST /api/movies.
	AdminUser     string
	AdminPassword string
	// AllowOrigins limits CORS on /api; empty allows any origin.
	AllowOrigins []string
	// Webhook receives Telegram updates when set.
	Webhook http.Handler
}

// Server is the gin application
type Server struct {
	engine *gin.Engine
	store  storage.Store
	lookup metadata.Provider
}

// New builds the router. Call gin.SetMode before New to change gin's mode.
func New(opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, errors.New("store is required")
	}

	tmpl, err := template.New("").Funcs(template.FuncMap{
		"join": strings.Join,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	s := &Server{
		engine: gin.New(),
		store:  opts.Store,
		lookup: opts.Lookup,
	}

	s.engine.SetHTMLTemplate(tmpl)
	s.engine.Use(gin.RecoveryWithWriter(logger.Default().Writer()), requestLogger())
	s.engine.NoRoute(s.notFound)

	s.engine.GET("/", s.index)
	s.engine.GET("/movie/:id", s.showMovie)
	s.engine.GET("/healthz", s.health)
	s.engine.GET("/metrics", s.metrics)

	admin := s.engine.Group("/admin")
	if auth := basicAuth(opts); auth != nil {
		admin.Use(auth)
	}
	admin.GET("", s.adminForm)
	admin.POST("", s.adminCreate)

	api := s.engine.Group("/api", cors.New(corsConfig(opts.AllowOrigins)))
	// Preflight requests only reach the cors middleware through a matching route
	api.OPTIONS("/*path", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	api.GET("/movies", s.apiList)
	api.GET("/movies/:id", s.apiGet)
	if auth := basicAuth(opts); auth != nil {
		api.POST("/movies", auth, s.apiCreate)
	} else {
		api.POST("/movies", s.apiCreate)
	}

	if opts.Webhook != nil {
		s.engine.POST("/telegram/webhook", gin.WrapH(opts.Webhook))
	}

	return s, nil
}

func basicAuth(opts Options) gin.HandlerFunc {
	if opts.AdminUser == "" || opts.AdminPassword == "" {
		return nil
	}
	return gin.BasicAuth(gin.Accounts{opts.AdminUser: opts.AdminPassword})
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// Handler returns the router as an http.Handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully within ShutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Web server listening", logger.Fields{"addr": addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listening on %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Web server shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down web server: %w", err)
	}
	return nil
}

// requestLogger logs each request through the structured logger.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := logger.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   status,
			"duration": time.Since(start).String(),
			"client":   c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		logger.IncrCounter("http.requests")
		logger.Since("http.request", start)
		switch {
		case status >= http.StatusInternalServerError:
			logger.IncrCounter("http.errors")
			logger.Warn("HTTP request failed", fields)
		default:
			logger.Debug("HTTP request", fields)
		}
	}
}
