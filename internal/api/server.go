package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/david/maintenance-analyzer/internal/ai"
	"github.com/david/maintenance-analyzer/internal/config"
	"github.com/david/maintenance-analyzer/internal/metrics"
	"github.com/david/maintenance-analyzer/internal/sheet"
	"github.com/david/maintenance-analyzer/internal/store"
	"github.com/david/maintenance-analyzer/internal/vocab"
)

type Server struct {
	Store   *store.Store
	Echo    *echo.Echo
	AI      ai.Generator
	Metrics *metrics.Metrics

	cfg    config.Config
	logger *zap.Logger
	now    func() time.Time
}

// NewServer wires the HTTP API. gen may be nil when no provider is configured.
func NewServer(cfg config.Config, st *store.Store, gen ai.Generator, m *metrics.Metrics, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.New(false)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				logger.Warn("request failed", append(fields, zap.Error(v.Error))...)
				return nil
			}
			logger.Info("request", fields...)
			return nil
		},
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))
	e.Use(observe(m))

	s := &Server{
		Store:   st,
		Echo:    e,
		AI:      gen,
		Metrics: m,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Echo.GET("/health", s.handleHealth)
	s.Echo.GET("/metrics", echo.WrapHandler(s.Metrics.Handler()))

	api := s.Echo.Group("/api/v1")
	api.GET("/stats", s.handleGetStats)

	records := api.Group("/records")
	records.POST("/upload", s.handleUpload)
	records.GET("", s.handleListRecords)
	records.DELETE("", s.handleDeleteRecords)
	records.GET("/export", s.handleExport)
	records.POST("/recategorize", s.handleRecategorize)
	records.GET("/:id", s.handleGetRecord)
	records.DELETE("/:id", s.handleDeleteRecord)

	api.GET("/dashboard", s.handleDashboard)
	api.POST("/dashboard/suggestions", s.handleSuggestions)

	api.GET("/uncategorized", s.handleUncategorized)
	api.GET("/uncategorized/prefill", s.handlePrefill)

	terms := api.Group("/vocab/:kind")
	terms.GET("", s.handleListTerms)
	terms.POST("", s.handleAddTerm)
	terms.DELETE("/:id", s.handleDeleteTerm)
	terms.POST("/import", s.handleImportTerms)
	terms.GET("/export", s.handleExportTerms)
}

func (s *Server) Start() error {
	return s.Echo.Start(s.cfg.Server.Addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.Echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (s *Server) handleGetStats(c echo.Context) error {
	return c.JSON(http.StatusOK, s.Store.Stats())
}

func observe(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			status := c.Response().Status
			var he *echo.HTTPError
			if errors.As(err, &he) {
				status = he.Code
			}
			m.ObserveRequest(c.Request().Method, c.Path(), status, time.Since(start))
			return err
		}
	}
}

func errorJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"error": msg})
}

// mapHTTPStatus maps domain errors from every package to HTTP status codes.
func mapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, store.ErrRecordNotFound), errors.Is(err, store.ErrNoRecords), errors.Is(err, store.ErrInvalidFilter):
		return store.MapHTTPStatus(err)
	case errors.Is(err, vocab.ErrNotFound), errors.Is(err, vocab.ErrDuplicate),
		errors.Is(err, vocab.ErrEmpty), errors.Is(err, vocab.ErrInvalidImport):
		return vocab.MapHTTPStatus(err)
	case errors.Is(err, sheet.ErrNoSheets), errors.Is(err, sheet.ErrMissingHeader):
		return http.StatusBadRequest
	case errors.Is(err, ai.ErrNotConfigured), errors.Is(err, ai.ErrEmptyResponse):
		return ai.MapHTTPStatus(err)
	}
	return http.StatusInternalServerError
}

func bindFilter(c echo.Context) (store.Filter, error) {
	var f store.Filter
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &f); err != nil {
		return store.Filter{}, err
	}
	if err := f.Validate(); err != nil {
		return store.Filter{}, err
	}
	return f, nil
}

func pagination(c echo.Context) (limit, offset int) {
	limit = 50
	if l, err := strconv.Atoi(c.QueryParam("limit")); err == nil && l > 0 && l <= 500 {
		limit = l
	}
	if o, err := strconv.Atoi(c.QueryParam("offset")); err == nil && o >= 0 {
		offset = o
	}
	return limit, offset
}
