package server

import (
	"errors"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"proposal_assistant/logging"
	"proposal_assistant/metrics"
	"proposal_assistant/session"
)

// DefaultRequestTimeout bounds how long a ?wait=true request blocks.
const DefaultRequestTimeout = 60 * time.Second

type Server struct {
	registry *session.Registry
	log      *logging.Logger
	metrics  *metrics.Collector
	timeout  time.Duration
	origins  []string
}

type Option func(*Server)

func WithLogger(l *logging.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

func WithMetrics(m *metrics.Collector) Option {
	return func(s *Server) { s.metrics = m }
}

func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithCORSOrigins sets the browser origins allowed to call the API.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) { s.origins = origins }
}

func New(reg *session.Registry, opts ...Option) (*Server, error) {
	if reg == nil {
		return nil, errors.New("session registry required")
	}
	s := &Server{
		registry: reg,
		log:      logging.Nop(),
		timeout:  DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Server) Routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.logMiddleware())
	if len(s.origins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     s.origins,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Content-Type", "X-Requested-With"},
			ExposeHeaders:    []string{"Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthcheck", s.healthCheck)
	if s.metrics != nil {
		router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	api := router.Group("/api/sessions")
	{
		api.POST("", s.createSession)
		api.GET("/:id", s.getSession)
		api.DELETE("/:id", s.deleteSession)
		api.POST("/:id/intake", s.submitIntake)
		api.POST("/:id/advance", s.advance)
		api.POST("/:id/stages/:stage/refine", s.refine)
		api.POST("/:id/reset", s.reset)
		api.GET("/:id/export", s.export)
	}
	return router
}

func (s *Server) logMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		s.log.Debug("http request",
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	}
}
