package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/louisbranch/roomrant/internal/catalog"
	"github.com/louisbranch/roomrant/internal/chat"
	"github.com/louisbranch/roomrant/internal/platform/timeouts"
)

// Config defines the inputs for the rooms API boundary.
type Config struct {
	HTTPAddr string

	// CatalogPath optionally points at a YAML room list replacing the
	// builtin catalog.
	CatalogPath string

	// QueueCapacity bounds each stream subscriber's event queue; <= 0
	// selects the chat package default.
	QueueCapacity int

	// Keepalive is the stream idle interval between ping frames.
	Keepalive time.Duration

	// RateLimit caps requests per second per client IP; 0 disables limiting.
	RateLimit float64

	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration

	Logger zerolog.Logger
}

// Server hosts the rooms HTTP/SSE process. All room state lives in the hub;
// the server is restartable only by rebuilding it.
type Server struct {
	httpAddr        string
	shutdownTimeout time.Duration
	echo            *echo.Echo
	hub             *chat.Hub
	catalog         *catalog.Catalog
	keepalive       time.Duration
	logger          zerolog.Logger
}

// NewServer builds a configured API server with its room hub.
func NewServer(config Config) (*Server, error) {
	httpAddr := strings.TrimSpace(config.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	if config.ReadHeaderTimeout <= 0 {
		config.ReadHeaderTimeout = timeouts.ReadHeader
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = timeouts.Shutdown
	}
	if config.Keepalive <= 0 {
		config.Keepalive = timeouts.StreamKeepalive
	}

	cat := catalog.Builtin()
	if strings.TrimSpace(config.CatalogPath) != "" {
		loaded, err := catalog.Load(config.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("load catalog: %w", err)
		}
		cat = loaded
	}

	s := &Server{
		httpAddr:        httpAddr,
		shutdownTimeout: config.ShutdownTimeout,
		hub:             chat.NewHub(cat.IDs(), config.QueueCapacity),
		catalog:         cat,
		keepalive:       config.Keepalive,
		logger:          config.Logger,
	}
	s.echo = newRouter(s, config)
	return s, nil
}

func newRouter(s *Server, config Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadHeaderTimeout = config.ReadHeaderTimeout
	e.HTTPErrorHandler = errorHandler(config.Logger)

	e.Use(middleware.RequestID())
	e.Use(requestLogger(config.Logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	if config.RateLimit > 0 {
		e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(config.RateLimit))))
	}
	e.Use(echo.WrapMiddleware(otelhttp.NewMiddleware("api")))

	e.GET("/", s.handleWelcome)
	e.GET("/health", s.handleHealth)
	e.GET("/docs", s.handleDocs)
	e.GET("/demo", s.handleDemo)
	e.GET("/rooms", s.handleListRooms)
	e.POST("/rooms/:room_id/join", s.handleJoinRoom)
	e.POST("/rooms/:room_id/messages", s.handleSendMessage)
	e.GET("/rooms/:room_id/stream", s.handleStream)

	return e
}

// errorHandler renders every error echo surfaces, including recovered panics
// and unmatched routes, as the standard response envelope. Internal errors
// keep a generic message; the cause goes to the log, not the client.
func errorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status := http.StatusInternalServerError
		message := "Internal server error"
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			status = httpErr.Code
			if text, ok := httpErr.Message.(string); ok {
				message = text
			} else {
				message = http.StatusText(status)
			}
		}
		if status >= http.StatusInternalServerError {
			logger.Error().Err(err).Str("uri", c.Request().RequestURI).Msg("request failed")
		}
		if err := respond(c, status, message, nil); err != nil {
			logger.Error().Err(err).Msg("write error response")
		}
	}
}

func requestLogger(logger zerolog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogMethod:    true,
		LogURI:       true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

// Run creates and serves an API server until the context ends.
func Run(ctx context.Context, config Config) error {
	server, err := NewServer(config)
	if err != nil {
		return fmt.Errorf("init api server: %w", err)
	}

	if err := server.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("serve api: %w", err)
	}
	return nil
}

// ListenAndServe runs the HTTP server until the context ends. On shutdown
// every live stream is force-disconnected first so in-flight SSE handlers
// return within the shutdown timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("api server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	serveErr := make(chan error, 1)
	s.logger.Info().Str("addr", s.httpAddr).Int("rooms", s.catalog.Len()).Msg("api server listening")
	go func() {
		serveErr <- s.echo.Start(s.httpAddr)
	}()

	select {
	case <-ctx.Done():
		s.hub.CloseAll()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		err := s.echo.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}
