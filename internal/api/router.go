package api

import (
	"fmt"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/delcom/travel-log/internal/api/handler"
	"github.com/delcom/travel-log/internal/api/middleware"
	"github.com/delcom/travel-log/internal/core/ports"
)

const defaultBodyLimit = 10 << 20

// Deps carries everything the router wires into handlers and middleware.
type Deps struct {
	Log zerolog.Logger

	Users      ports.UserService
	TravelLogs ports.TravelLogService

	// The auth gate reads the stores directly.
	Codec     ports.TokenCodec
	UserRepo  ports.UserRepository
	TokenRepo ports.TokenRepository

	// Readiness checks by dependency name.
	Checks map[string]handler.CheckFunc

	// BodyLimit caps request bodies in bytes; 0 means 10 MiB.
	BodyLimit int64

	// Registerer and Gatherer default to the global Prometheus registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	if d.Registerer == nil {
		d.Registerer = prometheus.DefaultRegisterer
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}
	limit := d.BodyLimit
	if limit <= 0 {
		limit = defaultBodyLimit
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "travellog",
		Registerer: d.Registerer,
	}))
	e.Use(echomiddleware.BodyLimit(fmt.Sprintf("%dB", limit)))

	// --- Health probes and metrics (public) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(d.Checks)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: d.Gatherer}))

	// --- Auth routes (public) ---
	authHandler := handler.NewAuthHandler(d.Users)
	auth := e.Group("/api/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// Only the protected groups pass the gate, so unknown paths elsewhere answer 404.
	gate := middleware.Auth(d.Codec, d.TokenRepo, d.UserRepo, d.Log)

	// --- Account ---
	userHandler := handler.NewUserHandler(d.Users)
	me := e.Group("/api/users/me", gate)
	me.GET("", userHandler.Me)
	me.PUT("", userHandler.UpdateProfile)
	me.PUT("/password", userHandler.ChangePassword)
	me.POST("/logout", userHandler.Logout)

	// --- Travel logs ---
	logHandler := handler.NewTravelLogHandler(d.TravelLogs)
	logs := e.Group("/api/travel-logs", gate)
	logs.GET("", logHandler.List)
	logs.POST("", logHandler.Create)
	logs.GET("/summary", logHandler.Summary)
	logs.GET("/:id", logHandler.Get)
	logs.DELETE("/:id", logHandler.Delete)
	logs.GET("/:id/image", logHandler.Image)
	logs.PUT("/:id/image", logHandler.ReplaceImage)

	return e
}
