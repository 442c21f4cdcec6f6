// Package devserver is an in-memory stand-in for the events service: the
// auth endpoints with email verification by one-time code, and the read
// endpoints behind bearer tokens. It is meant for local runs and tests.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/eventsplatform/internal/devserver/auth"
	"github.com/dmitrijs2005/eventsplatform/internal/devserver/config"
	"github.com/dmitrijs2005/eventsplatform/internal/devserver/users"
	"github.com/dmitrijs2005/eventsplatform/internal/logging"
	"github.com/dmitrijs2005/eventsplatform/internal/validation"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	config *config.Config
	logger logging.Logger
	echo   *echo.Echo
}

type options struct {
	catalog  *Catalog
	now      func() time.Time
	userOpts []users.Option
}

type Option func(*options)

// WithCatalog replaces the sample events.
func WithCatalog(c *Catalog) Option {
	return func(o *options) { o.catalog = c }
}

// WithClock replaces time.Now for the catalog and the users service.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
		o.userOpts = append(o.userOpts, users.WithClock(now))
	}
}

// WithUserOptions passes options to the users service, e.g. a fixed OTP
// generator in tests.
func WithUserOptions(opts ...users.Option) Option {
	return func(o *options) { o.userOpts = append(o.userOpts, opts...) }
}

func NewServer(cfg *config.Config, logger logging.Logger, opts ...Option) *Server {
	o := options{now: time.Now}
	for _, fn := range opts {
		fn(&o)
	}
	if o.catalog == nil {
		o.catalog = NewCatalog(SampleEvents(o.now())...)
	}

	issuer := auth.NewIssuer([]byte(cfg.SecretKey), cfg.AccessTTL, cfg.RefreshTTL)
	us := users.NewService(users.NewMemoryRepository(), issuer, cfg.OTPTTL, logger, o.userOpts...)
	v := validation.New()

	h := &handler{users: us, catalog: o.catalog, validator: v, now: o.now}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = v
	e.HTTPErrorHandler = newHTTPErrorHandler(logger)

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(logger))

	a := e.Group("/auth")
	a.POST("/signup/", h.signup)
	a.POST("/verify-email/", h.verifyEmail)
	a.POST("/resend-otp/", h.resendOTP)
	a.POST("/login/", h.login)

	ev := e.Group("/events", Bearer(issuer))
	ev.GET("/events/", h.listEvents)
	ev.GET("/events/my_events/", h.myEvents, RBAC(users.RoleFacilitator))
	ev.POST("/events/:id/enroll/", h.enroll, RBAC(users.RoleSeeker))
	ev.GET("/enrollments/upcoming/", h.upcomingEnrollments, RBAC(users.RoleSeeker))

	return &Server{config: cfg, logger: logger, echo: e}
}

// Handler exposes the router, e.g. for httptest.NewServer.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run listens on the configured address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info(ctx, "dev server listening", "addr", s.config.Addr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.echo.Start(s.config.Addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info(ctx, "dev server stopping")
	return s.echo.Shutdown(shutdownCtx)
}

func requestLogger(logger logging.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			logger.Debug(c.Request().Context(), "request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"request_id", v.RequestID,
			)
			return nil
		},
	})
}

// newHTTPErrorHandler renders every error as {"detail": "..."}. Unexpected
// errors are logged and answered with a generic 500.
func newHTTPErrorHandler(logger logging.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			_ = detail(c, he.Code, fmt.Sprintf("%v", he.Message))
			return
		}

		logger.Error(c.Request().Context(), "unhandled error",
			"method", c.Request().Method,
			"path", c.Path(),
			"error", err,
		)
		_ = detail(c, http.StatusInternalServerError, "Internal server error.")
	}
}
