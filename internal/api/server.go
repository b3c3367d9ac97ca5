// Package api serves the tracker over a JSON HTTP API.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/emilianohg/touchbase/internal/errs"
	"github.com/emilianohg/touchbase/internal/metrics"
	"github.com/emilianohg/touchbase/internal/service"
)

type Server struct {
	echo    *echo.Echo
	tracker *service.Tracker
	logger  *zap.Logger
	config  *Config
}

type Config struct {
	Host string
	Port int
}

func NewServer(tracker *service.Tracker, logger *zap.Logger, cfg *Config) (*Server, error) {
	if tracker == nil {
		return nil, errors.New("tracker cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "127.0.0.1",
			Port: 8080,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:    e,
		tracker: tracker,
		logger:  logger,
		config:  cfg,
	}

	e.HTTPErrorHandler = s.handleError
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(s.requestLogger)

	s.registerRoutes()

	return s, nil
}

func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			// Let the error handler write the status before it is recorded.
			c.Error(err)
		}
		duration := time.Since(start)
		status := c.Response().Status

		metrics.HTTPRequestDuration.
			WithLabelValues(c.Request().Method, c.Path(), strconv.Itoa(status)).
			Observe(duration.Seconds())

		s.logger.Info("http request",
			zap.String("method", c.Request().Method),
			zap.String("uri", c.Request().RequestURI),
			zap.Int("status", status),
			zap.Duration("duration", duration),
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
		)
		return nil
	}
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.echo.Group("/api")

	api.GET("/companies", s.handleListCompanies)
	api.POST("/companies", s.handleCreateCompany)
	api.PUT("/companies/:id", s.handleUpdateCompany)
	api.DELETE("/companies/:id", s.handleDeleteCompany)
	api.GET("/companies/:id/schedule", s.handleSchedule)

	api.POST("/companies/:id/communications", s.handleLogCommunication)
	api.PUT("/companies/:id/communications/:commId/complete", s.handleCompleteCommunication)
	api.DELETE("/companies/:id/communications/:commId", s.handleDeleteCommunication)
	api.POST("/communications", s.handleLogCommunications)

	api.GET("/notifications", s.handleNotifications)
	api.GET("/calendar", s.handleCalendar)
	api.GET("/reports/frequency", s.handleFrequencyReport)

	api.GET("/communication-methods", s.handleListMethods)
	api.POST("/communication-methods", s.handleCreateMethod)
	api.PUT("/communication-methods/:id", s.handleUpdateMethod)
	api.DELETE("/communication-methods/:id", s.handleDeleteMethod)
}

// handleError maps validation errors to 400 with the offending field and
// missing resources to 404.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	body := ErrorResponse{Message: "internal server error"}

	var ve *errs.ValidationError
	var he *echo.HTTPError
	switch {
	case errors.As(err, &ve):
		code = http.StatusBadRequest
		body = ErrorResponse{Message: ve.Error(), Field: ve.Field}
	case errors.Is(err, errs.ErrNotFound):
		code = http.StatusNotFound
		body = ErrorResponse{Message: err.Error()}
	case errors.As(err, &he):
		code = he.Code
		body = ErrorResponse{Message: fmt.Sprint(he.Message)}
	default:
		s.logger.Error("request failed",
			zap.String("uri", c.Request().RequestURI),
			zap.Error(err),
		)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, body)
	}
	if err != nil {
		s.logger.Warn("failed to write error response", zap.Error(err))
	}
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
