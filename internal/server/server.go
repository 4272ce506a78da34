// Package server exposes the completion pipeline as a JSON HTTP API.
//
// Routes:
//
//	POST /v1/complete  rank suggestions for the cursor of a query
//	POST /v1/analyze   return the autocompletion query without fetching
//	GET  /healthz      liveness and build version
//	GET  /metrics      Prometheus metrics
package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/passage-org/passage-complete/internal/httpserve"
	"github.com/passage-org/passage-complete/pkg/core"
	"github.com/passage-org/passage-complete/pkg/logger"
	"github.com/passage-org/passage-complete/pkg/settings"
)

// RequestIDHeader carries the request ID in and out.
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "requestID"

// Server serves the completion API for one engine, so every client shares
// its session cache.
type Server struct {
	engine *core.Engine
	router *gin.Engine
}

// New creates a Server and registers its routes.
func New(engine *core.Engine) *Server {
	router := gin.New()
	router.Use(gin.Recovery(), requestContext(), instrument())

	s := &Server{engine: engine, router: router}
	router.GET("/healthz", s.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	{
		v1.POST("/complete", s.handleComplete)
		v1.POST("/analyze", s.handleAnalyze)
	}
	return s
}

// Handler returns the HTTP handler of the API.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on address until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, address string) error {
	return httpserve.Serve(ctx, address, s.router)
}

// requestContext assigns a request ID, reusing the client's when given,
// and attaches the front's logger and settings to the context. The engine
// adds the request ID to its own log lines.
func requestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		ctx := settings.IntoContext(c.Request.Context(), settings.NewServerParams(settings.FrontHTTP))
		lgr := logger.WithValues(logger.FromContext(ctx), logger.FrontKey, settings.FrontHTTP)
		c.Request = c.Request.WithContext(logger.WithLogger(ctx, lgr))
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func requestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": settings.VersionInformation.BuildVersion,
		"commit":  settings.VersionInformation.Commit,
	})
}
