package server

import (
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"taskgrid/internal/models"
)

const callerKey = "caller"

// requestLogger logs one line per request.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if !strings.HasPrefix(c.Request.URL.Path, "/api") {
			return
		}
		logger.Info("request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
			slog.String("client", c.ClientIP()),
		)
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		MaxAge:           12 * time.Hour,
		AllowCredentials: false,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

// authenticate resolves the bearer token into the request's caller.
func (s *Server) authenticate(c *gin.Context) {
	header := c.GetHeader("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		s.respondError(c, models.ErrNotAuthorized)
		return
	}
	caller, err := s.tokens.Parse(strings.TrimSpace(raw))
	if err != nil {
		s.logger.Debug("token rejected", slog.String("error", err.Error()))
		s.respondError(c, models.ErrNotAuthorized)
		return
	}
	c.Set(callerKey, caller)
	c.Next()
}

// callerFrom returns the identity set by authenticate.
func callerFrom(c *gin.Context) models.Caller {
	caller, _ := c.Get(callerKey)
	identity, _ := caller.(models.Caller)
	return identity
}
