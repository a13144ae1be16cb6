package api

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/artistsnetwork/identity/docs"
	"github.com/artistsnetwork/identity/internal/api/handler"
	"github.com/artistsnetwork/identity/internal/api/middleware"
	"github.com/artistsnetwork/identity/internal/core/domain"
	"github.com/artistsnetwork/identity/internal/core/ports"
)

const (
	defaultBasePath = "/api/v1"
	bodyLimit       = "64K"
)

// Dependencies carries everything NewRouter wires into the routes.
type Dependencies struct {
	Registration ports.RegistrationService
	Auth         ports.AuthService
	Users        ports.UserService
	// Readiness lists the backends pinged by GET /health/ready.
	Readiness map[string]handler.Pinger
	Logger    zerolog.Logger

	BasePath       string
	MetricsEnabled bool
	SwaggerEnabled bool
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger(deps.Logger))
	e.Use(echomiddleware.BodyLimit(bodyLimit))

	if deps.MetricsEnabled {
		// HTTP metrics live in a per-router registry.
		reg := prometheus.NewRegistry()
		e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
			Subsystem:  "http",
			Registerer: reg,
			Skipper: func(c echo.Context) bool {
				return c.Path() == "/metrics" || strings.HasPrefix(c.Path(), "/health")
			},
		}))
		e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
			Gatherer: prometheus.Gatherers{prometheus.DefaultGatherer, reg},
		}))
	}

	if deps.SwaggerEnabled {
		e.GET("/swagger/*", echoSwagger.WrapHandler)
	}

	// --- Health probes (no auth required) ---
	e.GET("/health", handler.NewHealthHandler().Liveness)
	e.GET("/health/ready", handler.NewReadinessHandler(deps.Readiness).Readiness)

	// --- User routes ---
	basePath := strings.TrimRight(deps.BasePath, "/")
	if basePath == "" {
		basePath = defaultBasePath
	}
	users := handler.NewUserHandler(deps.Registration, deps.Auth, deps.Users)

	g := e.Group(basePath + "/users")
	g.POST("", users.Register)
	g.POST("/login", users.Login)
	g.GET("", users.List, middleware.Auth(deps.Auth), middleware.RequireRole(deps.Auth, domain.RoleAdmin))

	return e
}

// requestLogger feeds Echo's request log into zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogStatus:    true,
		LogMethod:    true,
		LogURI:       true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= http.StatusInternalServerError {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
