// Package web exposes the pricer over HTTP.
package web

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"

	"github.com/vadiminshakov/bsprice/internal/domain"
)

const (
	defaultQuotesLimit = 100
	maxQuotesLimit     = 1000
)

type quoteService interface {
	Quote(ctx context.Context, in domain.OptionInputs, source string) (domain.Quote, error)
	History(after uint64, limit int) ([]domain.QuoteRecord, error)
}

// Server serves the pricing API and a small HTML form.
type Server struct {
	Addr      string
	quoter    quoteService
	precision int
	logger    *zap.Logger
}

// NewServer creates a server. precision < 0 returns prices unrounded.
func NewServer(addr string, quoter quoteService, precision int, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{Addr: addr, quoter: quoter, precision: precision, logger: logger}
}

// CalculateRequest mirrors the form fields. Pointers let zero values through
// the required check.
type CalculateRequest struct {
	S     *float64 `json:"S" binding:"required"`
	K     *float64 `json:"K" binding:"required"`
	T     *float64 `json:"T" binding:"required"`
	R     *float64 `json:"r" binding:"required"`
	Sigma *float64 `json:"sigma" binding:"required"`
}

// CalculateResponse is returned by POST /api/calculate.
type CalculateResponse struct {
	ID        string  `json:"id"`
	CallPrice float64 `json:"call_price"`
	PutPrice  float64 `json:"put_price"`
}

// Handler builds the gin engine with all routes.
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/", s.handleIndex)
	router.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	api := router.Group("/api")
	{
		api.POST("/calculate", s.handleCalculate)
		api.GET("/quotes", s.handleQuotes)
	}
	return router
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("listening", zap.String("addr", s.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// StartWithAutoTLS runs an HTTPS server with ACME certificates. An HTTP server
// on port 80 answers HTTP-01 challenges.
func (s *Server) StartWithAutoTLS(ctx context.Context, domains []string, cacheDir string) error {
	if len(domains) == 0 {
		return fmt.Errorf("no domains provided for automatic TLS")
	}
	if cacheDir == "" {
		cacheDir = "cert-cache"
	}

	manager := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(domains...),
		Cache:      autocert.DirCache(cacheDir),
	}

	httpSrv := &http.Server{
		Addr:              ":80",
		Handler:           manager.HTTPHandler(nil),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	tlsConfig := manager.TLSConfig()
	tlsConfig.MinVersion = tls.VersionTLS12

	httpsSrv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
		TLSConfig:         tlsConfig,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Warn("http (acme) server shutdown error", zap.Error(err))
		}
		if err := httpsSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Warn("https server shutdown error", zap.Error(err))
		}
	}()

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http (acme) server error", zap.Error(err))
		}
	}()

	s.logger.Info("listening with automatic TLS", zap.String("addr", s.Addr), zap.Strings("domains", domains))
	if err := httpsSrv.ListenAndServeTLS("", ""); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleCalculate(c *gin.Context) {
	var req CalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := domain.OptionInputs{
		Spot:           *req.S,
		Strike:         *req.K,
		Rate:           *req.R,
		TimeToMaturity: *req.T,
		Volatility:     *req.Sigma,
	}

	quote, err := s.quoter.Quote(c.Request.Context(), in, domain.SourceHTTP)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		s.logger.Error("failed to quote option", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, CalculateResponse{
		ID:        quote.ID,
		CallPrice: s.round(quote.Prices.Call),
		PutPrice:  s.round(quote.Prices.Put),
	})
}

func (s *Server) handleQuotes(c *gin.Context) {
	var after uint64
	if raw := c.Query("after"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "after must be a non-negative integer"})
			return
		}
		after = v
	}

	limit, err := parseLimit(c.Query("limit"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	records, err := s.quoter.History(after, limit)
	if err != nil {
		s.logger.Error("failed to read quote history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if records == nil {
		records = []domain.QuoteRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"quotes": records})
}

// parseLimit reads the page size of GET /api/quotes. Values above
// maxQuotesLimit are lowered to it.
func parseLimit(raw string) (int, error) {
	if raw == "" {
		return defaultQuotesLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, fmt.Errorf("limit must be a positive integer")
	}
	return min(limit, maxQuotesLimit), nil
}

func (s *Server) handleIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(indexHTML))
}

func (s *Server) round(v float64) float64 {
	if s.precision < 0 {
		return v
	}
	return decimal.NewFromFloat(v).Round(int32(s.precision)).InexactFloat64()
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
