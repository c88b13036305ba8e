// Package server wires the blog together and runs the HTTP server.
//
// This is the composition root: New opens the database, builds the
// services and handlers, and maps routes. Nothing else in the code base
// constructs dependencies.
//
//	sqlite.DB → AuthService, PostService → AuthHandler, PostHandler, APIHandler → chi routes
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/blog/internal/auth"
	"github.com/sakif/blog/internal/config"
	"github.com/sakif/blog/internal/handler"
	"github.com/sakif/blog/internal/metrics"
	"github.com/sakif/blog/internal/middleware"
	sqliteRepo "github.com/sakif/blog/internal/repository/sqlite"
	"github.com/sakif/blog/internal/service"
	"github.com/sakif/blog/web"
)

const (
	loginPath       = "/auth/login"
	shutdownTimeout = 30 * time.Second
)

// Server owns the router and the database connection. The connection is
// closed when Start returns (or by Close when Start is never called).
type Server struct {
	router  *chi.Mux
	config  config.Config
	logger  *slog.Logger
	db      *sqliteRepo.DB
	metrics *metrics.Metrics
}

// New opens the database at cfg.DBPath and builds the full handler chain.
//
// The schema is never created here: a database that has not been set up
// with `blog init-db` is an error (sqlite.ErrSchemaMissing).
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		db:      db,
		metrics: metrics.New(),
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures middleware and routes.
//
// ROUTES:
//
//	GET       /                 → post list
//	GET       /hello            → plain-text liveness
//	GET/POST  /auth/register    → registration form / submit
//	GET/POST  /auth/login       → login form / submit
//	GET       /auth/logout      → clear session
//	GET/POST  /create           → new post            [login]
//	GET/POST  /{id}/update      → edit post           [login + author]
//	POST      /{id}/delete      → delete post         [login + author]
//	GET       /api/posts        → JSON list
//	GET       /api/posts/{id}   → JSON post
//	GET       /metrics          → Prometheus
//	GET       /static/*         → embedded CSS
//
// MIDDLEWARE ORDER:
//  1. RequestID, RealIP, Recoverer (chi)
//  2. metrics instrumentation
//  3. LoadUser resolves the session once per request
//  4. Logger (inside LoadUser so it can log the user id)
func (s *Server) setupRoutes() error {
	sessions, err := auth.NewSessionManager(s.config.SecretKey, s.config.SessionTTL, s.config.SecureCookies)
	if err != nil {
		return fmt.Errorf("creating session manager: %w", err)
	}
	passwords := auth.NewPasswordService(s.config.BcryptCost)

	authService := service.NewAuthService(s.db, passwords, sessions, s.logger)
	postService := service.NewPostService(s.db, s.logger)

	pages, err := handler.NewRenderer(web.Templates(), s.logger)
	if err != nil {
		return fmt.Errorf("loading templates: %w", err)
	}

	authHandler := handler.NewAuthHandler(authService, sessions, pages, s.metrics, s.logger)
	postHandler := handler.NewPostHandler(postService, pages, s.metrics, s.logger)
	apiHandler := handler.NewAPIHandler(postService, s.logger)

	// === Global Middleware ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(s.metrics.InstrumentHandler)
	s.router.Use(middleware.LoadUser(authService, sessions, s.logger))
	s.router.Use(middleware.Logger(s.logger))

	s.router.NotFound(pages.HandleNotFound)

	// === Static & operational ===
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(web.Static()))))
	s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	s.router.Get("/hello", handler.HandleHello)

	// === Public pages ===
	s.router.Get("/", postHandler.HandleIndex)

	s.router.Route("/auth", func(r chi.Router) {
		r.Get("/register", authHandler.HandleRegisterForm)
		r.Post("/register", authHandler.HandleRegister)
		r.Get("/login", authHandler.HandleLoginForm)
		r.Post("/login", authHandler.HandleLogin)
		r.Get("/logout", authHandler.HandleLogout)
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/posts", apiHandler.HandleList)
		r.Get("/posts/{id:[0-9]+}", apiHandler.HandleGet)
	})

	// === Protected pages ===
	// Every route registered in this group requires a logged-in user.
	s.router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuthenticated(loginPath))

		r.Get("/create", postHandler.HandleCreateForm)
		r.Post("/create", postHandler.HandleCreate)
		r.Get("/{id:[0-9]+}/update", postHandler.HandleUpdateForm)
		r.Post("/{id:[0-9]+}/update", postHandler.HandleUpdate)
		r.Post("/{id:[0-9]+}/delete", postHandler.HandleDelete)
	})

	return nil
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database. Only needed when Start is not used.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start serves HTTP until ctx is cancelled, SIGINT/SIGTERM arrives, or the
// listener fails.
//
// Shutdown is graceful: new connections are refused, in-flight requests
// get shutdownTimeout to finish, then the database is closed.
func (s *Server) Start(ctx context.Context) error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         s.config.Addr(),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

	case <-ctx.Done():
		s.logger.Info("shutdown requested", slog.String("reason", context.Cause(ctx).Error()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	s.logger.Info("server stopped gracefully")
	return nil
}
