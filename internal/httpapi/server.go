package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"horse.fit/breakdown/internal/db"
	"horse.fit/breakdown/internal/engine"
	"horse.fit/breakdown/internal/globaltime"
)

const (
	defaultRunLimit = 20
	maxRunLimit     = 200
)

type Options struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// SyncRunner runs one engine entry point by entity name.
type SyncRunner interface {
	Run(ctx context.Context, entity string) (engine.RunSummary, error)
}

type Store interface {
	Ping(ctx context.Context) error
	ListRecentSyncRuns(ctx context.Context, limit int) ([]db.SyncRun, error)
}

// Server is the operational HTTP surface: health, metrics and manual sync
// triggers.
type Server struct {
	store  Store
	runner SyncRunner
	logger zerolog.Logger
	opts   Options

	mu      sync.Mutex
	running map[string]bool
}

func NewServer(store Store, runner SyncRunner, logger zerolog.Logger, opts Options) *Server {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = "0.0.0.0"
	}
	port := opts.Port
	if port <= 0 {
		port = 8090
	}
	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 30 * time.Minute
	}
	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	return &Server{
		store:   store,
		runner:  runner,
		logger:  logger,
		running: make(map[string]bool),
		opts: Options{
			Host:            host,
			Port:            port,
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
		},
	}
}

// Handler builds the echo instance with middleware and routes.
func (s *Server) Handler() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			event := s.logger.Debug()
			if v.Error != nil {
				event = s.logger.Error().Err(v.Error)
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("http request")
			return nil
		},
	}))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/v1")
	api.GET("/health", s.handleHealth)
	api.GET("/sync/runs", s.handleSyncRuns)
	api.POST("/sync/:entity", s.handleSync)

	return e
}

func (s *Server) Start(ctx context.Context) error {
	if s == nil || s.store == nil || s.runner == nil {
		return fmt.Errorf("server is not initialized")
	}

	e := s.Handler()
	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      e,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
			s.logger.Error().Err(shutdownErr).Msg("server shutdown failed")
		}
	}()

	s.logger.Info().Str("addr", addr).Msg("ops server started")

	if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	s.logger.Info().Msg("ops server stopped")
	return nil
}

func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		switch v := he.Message.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				message = v
			}
		default:
			if text := strings.TrimSpace(http.StatusText(status)); text != "" {
				message = text
			}
		}
	} else if err != nil {
		message = err.Error()
	}

	if strings.HasPrefix(c.Request().URL.Path, "/api/") {
		if status >= 500 {
			_ = internalError(c, "Internal server error")
			return
		}
		_ = fail(c, status, message, nil)
		return
	}

	_ = c.String(status, message)
}

func (s *Server) handleHealth(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("health check database ping failed")
		return fail(c, http.StatusServiceUnavailable, "Database unavailable", nil)
	}
	return success(c, map[string]any{
		"service": "breakdown",
		"time":    globaltime.UTC(),
	})
}

func (s *Server) handleSyncRuns(c echo.Context) error {
	limit := defaultRunLimit
	if raw := strings.TrimSpace(c.QueryParam("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > maxRunLimit {
			return failValidation(c, map[string]string{
				"limit": fmt.Sprintf("must be an integer between 1 and %d", maxRunLimit),
			})
		}
		limit = parsed
	}

	runs, err := s.store.ListRecentSyncRuns(c.Request().Context(), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("list sync runs failed")
		return internalError(c, "Failed to load sync runs")
	}
	return success(c, map[string]any{
		"items": runs,
	})
}

func (s *Server) handleSync(c echo.Context) error {
	entity := strings.ToLower(strings.TrimSpace(c.Param("entity")))
	if !slices.Contains(engine.Entities, entity) {
		return failValidation(c, map[string]string{
			"entity": "must be one of " + strings.Join(engine.Entities, ", "),
		})
	}

	if !s.claim(entity) {
		return fail(c, http.StatusConflict, "Sync already running", map[string]any{"entity": entity})
	}
	defer s.release(entity)

	summary, err := s.runner.Run(c.Request().Context(), entity)
	if err != nil {
		s.logger.Error().Err(err).Str("entity", entity).Msg("triggered sync failed")
		if summary.RunID == "" {
			return internalError(c, "Sync failed to start")
		}
		return c.JSON(http.StatusInternalServerError, jsendResponse{
			Status:  "error",
			Message: "Sync failed",
			Code:    http.StatusInternalServerError,
			Data:    summary,
		})
	}
	return success(c, summary)
}

func (s *Server) claim(entity string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running[entity] {
		return false
	}
	s.running[entity] = true
	return true
}

func (s *Server) release(entity string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.running, entity)
}
