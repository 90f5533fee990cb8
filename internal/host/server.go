// Package host runs the single owner process for a data directory. Every
// screen and CLI invocation configured with the remote backend talks to
// the host over HTTP, so reads and full-list writes are serialized in one
// place and change events reach every connected client.
package host

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/nhle/todo-board/internal/events"
	"github.com/nhle/todo-board/internal/logger"
	"github.com/nhle/todo-board/internal/store"
)

// OriginHeader carries the calling client's event origin. Events caused by
// a request are stamped with it so the client can skip its own echoes.
const OriginHeader = "X-Todo-Origin"

// Config holds the host's runtime settings.
type Config struct {
	Addr     string
	Secret   []byte
	TokenTTL time.Duration
	// RateLimit is requests per second per client address; zero disables it.
	RateLimit float64
	// RateBurst is how many requests a client may send at once. Zero picks
	// a burst large enough for bulk trash operations.
	RateBurst int
}

// defaultRateBurst lets one bulk restore or purge of a few hundred items
// through without throttling.
const defaultRateBurst = 500

// Server serves one store to many clients.
type Server struct {
	echo    *echo.Echo
	store   store.Store
	bus     *events.Bus
	log     *logger.Logger
	cfg     Config
	metrics *metrics

	// mu serializes every store operation.
	mu sync.Mutex
}

// requestValidator adapts go-playground/validator to echo.
type requestValidator struct {
	validator *validator.Validate
}

func (v *requestValidator) Validate(i interface{}) error {
	return v.validator.Struct(i)
}

// New creates a host server. bus may be nil, in which case a private bus
// is created for the event stream.
func New(st store.Store, bus *events.Bus, log *logger.Logger, cfg Config) *Server {
	if bus == nil {
		bus = events.NewBus()
	}
	if log == nil {
		log = logger.Nop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = &requestValidator{validator: validator.New()}

	s := &Server{
		echo:    e,
		store:   st,
		bus:     bus,
		log:     log.WithComponent("host"),
		cfg:     cfg,
		metrics: newMetrics(),
	}
	e.HTTPErrorHandler = s.errorHandler

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler exposes the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Bus returns the bus events are streamed from.
func (s *Server) Bus() *events.Bus {
	return s.bus
}

// Start listens on cfg.Addr until Shutdown is called.
func (s *Server) Start() error {
	s.log.Infow("host listening", "addr", s.cfg.Addr)
	if err := s.echo.Start(s.cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and closes open event streams.
func (s *Server) Shutdown(ctx context.Context) error {
	s.bus.Close()
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())

	s.echo.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogError:     true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []interface{}{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", float64(v.Latency.Nanoseconds()) / 1e6,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				s.log.Errorw("request failed", append(fields, "error", v.Error.Error())...)
			} else {
				s.log.Debugw("request", fields...)
			}
			return nil
		},
	}))

	if s.cfg.RateLimit > 0 {
		burst := s.cfg.RateBurst
		if burst <= 0 {
			burst = max(defaultRateBurst, int(math.Ceil(s.cfg.RateLimit)))
		}
		s.echo.Use(middleware.RateLimiter(
			middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(s.cfg.RateLimit),
				Burst:     burst,
				ExpiresIn: 3 * time.Minute,
			}),
		))
	}

	s.echo.Use(s.metrics.middleware)
}

func (s *Server) setupRoutes() {
	s.echo.GET("/healthz", s.healthz)
	s.echo.GET("/metrics", echo.WrapHandler(s.metrics.handler()))

	api := s.echo.Group("", s.authMiddleware)
	api.GET("/todos", s.getTodos)
	api.PUT("/todos", s.putTodos)
	api.GET("/categories", s.getCategories)
	api.PUT("/categories", s.putCategories)
	api.GET("/trash", s.getTrash)
	api.PUT("/trash", s.putTrash)
	api.POST("/trash/:id/restore", s.restoreItem)
	api.DELETE("/trash/:id", s.deleteItem)
	api.DELETE("/trash", s.emptyTrash)
	api.GET("/prefs", s.getPrefs)
	api.PUT("/prefs", s.putPrefs)
	api.GET("/events", s.streamEvents)
	api.POST("/events", s.publishEvent)
}

// errorHandler renders every error as {"message": ...}.
func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := err.Error()

	var he *echo.HTTPError
	var ve validator.ValidationErrors
	switch {
	case errors.As(err, &he):
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		}
	case errors.Is(err, store.ErrNotInTrash):
		code = http.StatusNotFound
	case errors.As(err, &ve):
		code = http.StatusBadRequest
	}

	if code >= http.StatusInternalServerError {
		s.log.WithError(err).Errorw("request error", "path", c.Path())
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, map[string]string{"message": msg})
}

func (s *Server) healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// emit publishes a change event on behalf of the calling client.
func (s *Server) emit(c echo.Context, name string, payload any) {
	s.bus.Emit(c.Request().Header.Get(OriginHeader), name, payload)
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}
