// Package http serves the account pages and their JSON endpoints.
package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"bankit/internal/core"
	"bankit/internal/log"
	"bankit/internal/services"
	appweb "bankit/web"
)

// Options tunes a Server. The zero value is usable.
type Options struct {
	Logger *log.Logger
	// Ready is probed by /readyz. Nil means the backend is always ready.
	Ready func(context.Context) error
	// PostsPerMinute caps form submissions per client IP. Zero selects 60.
	PostsPerMinute int
}

type Server struct {
	http.Server
	account     *services.AccountService
	templates   *template.Template
	rateLimiter *rateLimiter
	metrics     *securityMetrics
	ready       func(context.Context) error
	started     time.Time
	logger      *log.Logger

	shutdownOnce sync.Once
}

// NewServer builds the router and parses the embedded templates.
func NewServer(addr string, account *services.AccountService, o Options) (*Server, error) {
	logger := o.Logger
	if logger == nil {
		logger = log.Discard()
	}
	if o.PostsPerMinute <= 0 {
		o.PostsPerMinute = 60
	}

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		account:     account,
		templates:   t,
		rateLimiter: newRateLimiter(o.PostsPerMinute, time.Minute),
		metrics:     &securityMetrics{},
		ready:       o.Ready,
		started:     time.Now(),
		logger:      logger.WithComponent(log.ComponentHTTP),
	}
	s.Handler = s.routes(logger)
	return s, nil
}

func (s *Server) routes(logger *log.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(log.Middleware(logger))
	r.Use(log.AccessLog)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.Handle("/static/*", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600")
			static.ServeHTTP(w, r)
		}))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	r.Group(func(r chi.Router) {
		r.Use(s.secure)

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/account/list", http.StatusFound)
		})

		r.Route("/account", func(r chi.Router) {
			r.Get("/list", s.handleList)
			r.Get("/list.json", s.handleListJSON)
			r.Get("/add", s.handleAddForm)
			r.Post("/add", s.handleAdd)
			r.Post("/del/{opId}", s.handleDelete)
			r.Post("/unmerge/{opId}", s.handleUnmerge)
			r.Get("/init", s.handleInitForm)
			r.Post("/init", s.handleInit)
			r.Post("/update_cat.json", s.handleUpdateCategory)
		})

		r.Route("/options", func(r chi.Router) {
			r.Get("/category", s.handleCategories)
			r.Get("/category/add", s.handleCategoryForm)
			r.Post("/category/add", s.handleAddCategory)
			r.Get("/costs", s.handleCosts)
			r.Post("/costs/add", s.handleAddCost)
			r.Post("/costs/del/{id}", s.handleDeleteCost)
		})
	})

	return r
}

// Shutdown stops the rate limiter and gracefully shuts the server down.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

var templateFuncs = template.FuncMap{
	"money": func(m core.Money) string { return m.Display() },
	"nullMoney": func(m core.NullMoney) string {
		if v, ok := m.Get(); ok {
			return v.Display()
		}
		return ""
	},
	"date":     formatDate,
	"negative": func(m core.Money) bool { return m.IsNegative() },
}

func formatDate(d core.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.Format(formDateLayout)
}
