package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"commitbot/lifecycle"
	"commitbot/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// SecretHeader carries the shared secret on trigger requests.
const SecretHeader = "X-Cycle-Secret"

// Server is the HTTP surface used by external schedulers.
type Server struct {
	Router *gin.Engine

	runner lifecycle.Runner
	secret string
	logger *zap.Logger
	http   *http.Server
}

// New builds the router. gatherer backs /metrics; nil uses the default registry.
func New(runner lifecycle.Runner, cfg models.HTTPConfig, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		runner: runner,
		secret: cfg.Secret,
		logger: logger.Named("http"),
	}
	if s.secret == "" {
		s.logger.Warn("http.secret is empty, cycle triggers are disabled")
	}

	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	cycles := router.Group("/cycles")
	cycles.Use(s.secretRequired())
	{
		cycles.POST("/:kind", s.runCycle)
	}

	s.Router = router
	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Start serves in the background. Listener errors other than a clean shutdown are logged.
func (s *Server) Start() {
	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server failed", zap.Error(err))
		}
	}()
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}
	return nil
}

func (s *Server) secretRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.secret == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "cycle triggers are not configured"})
			return
		}
		given := c.GetHeader(SecretHeader)
		if given == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "header '" + SecretHeader + "' required"})
			return
		}
		if subtle.ConstantTimeCompare([]byte(given), []byte(s.secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid secret"})
			return
		}
		c.Next()
	}
}

func (s *Server) runCycle(c *gin.Context) {
	kind, err := lifecycle.ParseKind(c.Param("kind"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	force := false
	if raw := c.Query("force"); raw != "" {
		force, err = strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "force must be a boolean"})
			return
		}
	}

	// A started run always completes; the caller hanging up must not cut it short.
	ctx := context.WithoutCancel(c.Request.Context())
	result, err := lifecycle.Run(ctx, s.runner, kind, lifecycle.RunOptions{Force: force})
	if err != nil {
		s.logger.Error("Triggered cycle failed", zap.String("kind", string(kind)), zap.Error(err))
		if result == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, result)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("Request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
