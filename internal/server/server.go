// Package server exposes the tracker over a JSON HTTP API and serves the
// compiled frontend.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskgrid/internal/auth"
	"taskgrid/internal/models"
	"taskgrid/internal/tracker"
)

// Options tunes the HTTP layer.
type Options struct {
	StaticDir   string
	CORSOrigins []string
	// Ping reports storage health for /api/healthz. Nil means always healthy.
	Ping func(ctx context.Context) error
}

// Server provides HTTP handlers for the task tracker.
type Server struct {
	engine    *gin.Engine
	svc       *tracker.Service
	tokens    *auth.Tokens
	logger    *slog.Logger
	staticDir string
	ping      func(ctx context.Context) error
}

// New constructs the HTTP server with routes and middleware configured.
func New(svc *tracker.Service, tokens *auth.Tokens, logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	registerValidators()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))
	router.Use(corsMiddleware(opts.CORSOrigins))

	srv := &Server{
		engine:    router,
		svc:       svc,
		tokens:    tokens,
		logger:    logger,
		staticDir: opts.StaticDir,
		ping:      opts.Ping,
	}

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires all API and static handlers together.
func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/healthz", s.handleHealth)
		api.POST("/login", s.handleLogin)

		secured := api.Group("", s.authenticate)

		projects := secured.Group("/projects")
		{
			projects.GET("", s.handleListProjects)
			projects.POST("", s.handleCreateProject)
			projects.PUT(":id", s.handleUpdateProject)
			projects.DELETE(":id", s.handleDeleteProject)
		}

		tasks := secured.Group("/tasks")
		{
			tasks.GET("", s.handleListTasks)
			tasks.GET("/stats", s.handleTaskStats)
			tasks.GET(":id", s.handleGetTask)
			tasks.POST("", s.handleCreateTask)
			tasks.PUT(":id", s.handleUpdateTask)
			tasks.DELETE(":id", s.handleDeleteTask)
		}

		members := secured.Group("/teammembers")
		{
			members.GET("", s.handleListMembers)
			members.GET(":id", s.handleGetMember)
			members.POST("", s.handleCreateMember)
			members.PUT(":id", s.handleUpdateMember)
			members.DELETE(":id", s.handleDeleteMember)
		}
	}

	s.mountStatic()
}

// handleHealth reports whether the store answers.
func (s *Server) handleHealth(c *gin.Context) {
	if s.ping != nil {
		if err := s.ping(c.Request.Context()); err != nil {
			s.logger.Error("health check failed", slog.String("error", err.Error()))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// parseID reads a path identifier. Anything that cannot be a record id is
// reported as notFound.
func (s *Server) parseID(c *gin.Context, name string, notFound error) (string, bool) {
	id := c.Param(name)
	if !tracker.ValidID(id) {
		s.respondError(c, notFound)
		return "", false
	}
	return id, true
}

// respondError maps domain errors to status codes and a {message} body.
// Unexpected errors are logged and hidden from the client.
func (s *Server) respondError(c *gin.Context, err error) {
	status, message := http.StatusInternalServerError, "internal server error"
	switch {
	case errors.Is(err, models.ErrValidation):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, models.ErrNotFound):
		status, message = http.StatusNotFound, err.Error()
	case errors.Is(err, models.ErrNotAuthorized):
		status, message = http.StatusUnauthorized, err.Error()
	case errors.Is(err, models.ErrForbidden):
		status, message = http.StatusForbidden, err.Error()
	}

	attrs := []any{slog.String("method", c.Request.Method), slog.String("path", c.FullPath()), slog.Int("status", status), slog.String("error", err.Error())}
	switch {
	case status >= http.StatusInternalServerError:
		s.logger.Error("request failed", attrs...)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		s.logger.Info("request rejected", attrs...)
	default:
		s.logger.Debug("request rejected", attrs...)
	}
	c.AbortWithStatusJSON(status, gin.H{"message": message})
}

// respondBindError reports a malformed or invalid request body.
func (s *Server) respondBindError(c *gin.Context, err error) {
	s.logger.Debug("request body rejected", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": bindingMessage(err)})
}

// respondSuccess writes payload as JSON, or only the status when it is nil.
func respondSuccess(c *gin.Context, status int, payload any) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}
