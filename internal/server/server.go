// Package server exposes document validation over HTTP.
//
//	GET  /healthz       liveness
//	POST /v1/validate   body: raw document or {"document": "..."}; returns the report
//	POST /v1/parse      same body; returns the document tree and the report
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ppiankov/worldview/internal/model"
	"github.com/ppiankov/worldview/internal/pipeline"
	"github.com/ppiankov/worldview/internal/worker"
)

// RequestIDHeader carries the per-request id on every response
const RequestIDHeader = "X-Request-ID"

const shutdownTimeout = 5 * time.Second

// jsonEnvelopeSlack bounds the JSON wrapper and escaping around a document
const jsonEnvelopeSlack = 4 << 10

// Server is the HTTP API
type Server struct {
	cfg      model.ServerConfig
	pipeline *pipeline.Pipeline
	limiter  *worker.Limiter
	logger   *slog.Logger
	maxBytes int64
	engine   *gin.Engine
}

// validateRequest is the JSON form of a request body
type validateRequest struct {
	Document string `json:"document"`
}

// New creates a server around a pipeline
func New(cfg *model.Config, p *pipeline.Pipeline, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:      cfg.Server,
		pipeline: p,
		limiter:  worker.NewLimiter(cfg.Server.RequestsPerSecond, cfg.Server.Burst, worker.DefaultClientIdle),
		logger:   logger,
		maxBytes: cfg.Limits.MaxDocumentBytes,
	}

	engine, err := s.routes()
	if err != nil {
		return nil, err
	}
	s.engine = engine
	return s, nil
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Recovery())

	// ClientIP keys the rate limiter, so forwarded headers count only from known proxies
	if err := r.SetTrustedProxies(s.cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	if len(s.cfg.AllowOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  s.cfg.AllowOrigins,
			AllowMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Accept", RequestIDHeader},
			ExposeHeaders: []string{RequestIDHeader},
			MaxAge:        12 * time.Hour,
		}))
	}

	r.Use(s.requestID())
	r.Use(s.logRequests())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/v1", s.rateLimit())
	v1.POST("/validate", s.handleValidate)
	v1.POST("/parse", s.handleParse)

	return r, nil
}

// requestID assigns an id, honouring one supplied by the client
func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info("request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
			slog.String("client", c.ClientIP()),
			slog.String("request_id", c.GetString("request_id")))
	}
}

// rateLimit applies a token bucket per client address
func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.Allow(c.ClientIP()) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func (s *Server) handleValidate(c *gin.Context) {
	res, ok := s.run(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, res.Report)
}

func (s *Server) handleParse(c *gin.Context) {
	res, ok := s.run(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, res)
}

// run reads the request document and validates it. On failure the error
// response has already been written.
func (s *Server) run(c *gin.Context) (*pipeline.Result, bool) {
	doc, err := s.readDocument(c)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, pipeline.ErrDocumentTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return nil, false
	}

	res := s.pipeline.ValidateBytes(c.GetString("request_id"), doc)
	if res.Cached {
		c.Header("X-Cache", "hit")
	}
	return res, true
}

// readDocument extracts the document from a text or JSON body, enforcing
// the size bound on the document itself
func (s *Server) readDocument(c *gin.Context) ([]byte, error) {
	isJSON := c.ContentType() == gin.MIMEJSON

	body := c.Request.Body
	if s.maxBytes > 0 {
		limit := s.maxBytes
		if isJSON {
			limit = 2*s.maxBytes + jsonEnvelopeSlack
		}
		body = http.MaxBytesReader(c.Writer, body, limit)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, fmt.Errorf("request body: %w", pipeline.ErrDocumentTooLarge)
		}
		return nil, fmt.Errorf("read request body: %w", err)
	}

	if isJSON {
		var req validateRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, fmt.Errorf("decode request body: %w", err)
		}
		data = []byte(req.Document)
	}

	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("document: %w (%d > %d bytes)", pipeline.ErrDocumentTooLarge, len(data), s.maxBytes)
	}
	return data, nil
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", slog.String("addr", s.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
