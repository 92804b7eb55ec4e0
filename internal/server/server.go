package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"tasker/internal/auth"
	"tasker/internal/constants"
	"tasker/internal/logger"
)

// Server wraps the HTTP server with graceful shutdown
type Server struct {
	httpServer *http.Server
	app        *App
	logger     *logger.Logger
	authMW     *auth.Middleware
	tokenLimit func(http.Handler) http.Handler
}

// NewServer creates a new HTTP server
func NewServer(app *App) (*Server, error) {
	cfg := app.Config

	rate, err := limiter.NewRateFromFormatted(cfg.RateLimit.Tokens)
	if err != nil {
		return nil, fmt.Errorf("invalid rate_limit.tokens: %w", err)
	}

	s := &Server{
		app:    app,
		logger: app.Logger,
	}
	s.authMW = auth.NewMiddleware(app.Tokens, app.Resolver, app.Logger, s.handleServiceError)
	s.tokenLimit = RateLimit(limiter.New(memory.NewStore(), rate), app.Logger, app.Metrics)

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	// Middleware chain: RequestID → AccessLog → Recover → SecurityHeaders → StripTrailingSlash → DeleteBodyForm → mux
	handler := Chain(mux,
		RequestID,
		AccessLog(app.Logger, app.Metrics),
		Recover(app.Logger),
		SecurityHeaders,
		StripTrailingSlash,
		DeleteBodyForm,
	)

	s.httpServer = &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout(),
		WriteTimeout: cfg.Server.WriteTimeout(),
		IdleTimeout:  constants.HTTPIdleTimeout,
	}

	return s, nil
}

// handle registers h under pattern behind the given middlewares.
func (s *Server) handle(mux *http.ServeMux, pattern string, h http.HandlerFunc, mw ...func(http.Handler) http.Handler) {
	mux.Handle(pattern, routeLabel(pattern, Chain(h, mw...)))
}

// registerRoutes sets up all API routes
func (s *Server) registerRoutes(mux *http.ServeMux) {
	user := s.authMW.RequireToken
	project := s.authMW.RequireScope(auth.ScopeProject)
	folder := s.authMW.RequireScope(auth.ScopeFolder)
	task := s.authMW.RequireScope(auth.ScopeTask)

	// Token routes
	s.handle(mux, "POST /api/tokens/new", s.handleTokensNew, s.tokenLimit)
	s.handle(mux, "POST /api/tokens/renew", s.handleTokensRenew, s.tokenLimit)
	s.handle(mux, "POST /api/tokens/revoke", s.handleTokensRevoke)

	// Project routes
	s.handle(mux, "GET /api/project", s.handleProjectList, user)
	s.handle(mux, "POST /api/project", s.handleProjectCreate, user)
	s.handle(mux, "GET /api/project/{project}", s.handleProjectGet, project)
	s.handle(mux, "PUT /api/project/{project}", s.handleProjectUpdate, project)
	s.handle(mux, "DELETE /api/project/{project}", s.handleProjectDelete, project)

	// Folder routes
	s.handle(mux, "GET /api/folder/{project}", s.handleFolderList, project)
	s.handle(mux, "POST /api/folder/{project}", s.handleFolderCreate, project)
	s.handle(mux, "PUT /api/folder/{project}/{folder}", s.handleFolderRename, folder)
	s.handle(mux, "DELETE /api/folder/{project}/{folder}", s.handleFolderDelete, folder)

	// Task routes
	s.handle(mux, "GET /api/task/{project}", s.handleTaskListByProject, project)
	s.handle(mux, "GET /api/task/{project}/{folder}", s.handleTaskListByFolder, folder)
	s.handle(mux, "POST /api/task/{project}/{folder}", s.handleTaskCreate, folder)
	s.handle(mux, "GET /api/task/{project}/{folder}/{task}", s.handleTaskGet, task)
	s.handle(mux, "PUT /api/task/{project}/{folder}/{task}", s.handleTaskUpdate, task)
	s.handle(mux, "DELETE /api/task/{project}/{folder}/{task}", s.handleTaskDelete, task)

	// Operational routes
	s.handle(mux, "GET /api/health", s.handleHealth)
	mux.Handle("GET /metrics", routeLabel("GET /metrics", s.app.Metrics.Handler()))
}

// Start runs the server and blocks until shutdown signal
func (s *Server) Start() error {
	// Channel for shutdown signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, shutdownSignals...)
	defer signal.Stop(stop)

	s.app.Services.Janitor.Start()

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("Server listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	var serveErr error
	select {
	case serveErr = <-errChan:
	case sig := <-stop:
		s.logger.Info("Received signal %v, shutting down...", sig)
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), s.app.Config.Server.ShutdownTimeout())
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("Shutdown error: %v", err)
	}

	// Stop the janitor, hash workers and database
	s.app.Close()

	s.logger.Info("Server stopped")
	return serveErr
}

// Handler returns the HTTP handler for testing purposes
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
