// ABOUTME: splitview HTTP server: pages that mount components plus the endpoints those components call.
// ABOUTME: Wires the chi router, templates, static bundles, content provider and component registry.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/2389-research/splitview/component"
	"github.com/2389-research/splitview/content"
	"github.com/2389-research/splitview/loader"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// ServerConfig holds the collaborators of the web server.
type ServerConfig struct {
	Addr string // listen address (default: "127.0.0.1:3000")
	// Provider supplies the editor page's initial document.
	Provider content.Provider
	// Fetch acquires the editor's formatting renderer after mount.
	Fetch loader.FetchFunc[component.Renderer]
	// Modules names the deferred formatting modules, shown in the bundle info.
	Modules []string
	// Registry tracks mounted components. A default one is created when nil.
	Registry *component.Registry
	Logger   *zap.Logger
}

// Server serves the demo pages and component endpoints.
type Server struct {
	addr      string
	router    chi.Router
	templates *TemplateEngine
	bundles   *BundleSet
	provider  content.Provider
	fetch     loader.FetchFunc[component.Renderer]
	modules   []string
	registry  *component.Registry
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewServer validates the configuration, parses templates, builds bundles and routes.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:3000"
	}
	if cfg.Provider == nil {
		return nil, errors.New("Provider must not be nil")
	}
	if cfg.Fetch == nil {
		return nil, errors.New("Fetch must not be nil")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Registry == nil {
		cfg.Registry = component.NewRegistry(500, 2*time.Hour, cfg.Logger)
	}

	tmpl, err := NewTemplateEngine()
	if err != nil {
		return nil, fmt.Errorf("initializing templates: %w", err)
	}
	bundles, err := LoadBundles(StaticFS)
	if err != nil {
		return nil, fmt.Errorf("building bundles: %w", err)
	}

	s := &Server{
		addr:      cfg.Addr,
		templates: tmpl,
		bundles:   bundles,
		provider:  cfg.Provider,
		fetch:     cfg.Fetch,
		modules:   cfg.Modules,
		registry:  cfg.Registry,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		logger:    cfg.Logger.With(zap.String("component", "web")),
	}
	s.router = s.buildRouter()
	return s, nil
}

// ServeHTTP delegates to the chi router, satisfying http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Registry exposes the component registry, for cleanup scheduling and tests.
func (s *Server) Registry() *component.Registry {
	return s.registry
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.addr
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/hello_world", http.StatusFound)
	})
	r.Get("/health", s.handleHealth)
	r.Get("/hello_world", s.handleGreetingPage(component.KindHelloWorld))
	r.Get("/second_component", s.handleGreetingPage(component.KindSecondComponent))
	r.Get("/heavy_markdown_editor", s.handleEditorPage)

	r.Route("/components/{id}", func(r chi.Router) {
		r.Post("/name", s.handleUpdateName)
		r.Post("/text", s.handleUpdateText)
		r.Get("/preview", s.handlePreview)
		r.Get("/ws", s.handleEditorSocket)
		r.Post("/unmount", s.handleUnmount)
	})

	r.Get("/static/{name}", s.handleBundle)
	r.NotFound(s.handleNotFound)

	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully and
// unmounts every component still registered.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", s.addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.registry.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.registry.Close()
	<-errCh
	if err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
