package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/orderdesk/backoffice/internal/dbpool"
	"github.com/orderdesk/backoffice/internal/domain"
	"github.com/orderdesk/backoffice/internal/middleware"
	"github.com/orderdesk/backoffice/internal/ws"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Log         *logrus.Logger
	Pool        *dbpool.Pool
	Hub         *ws.Hub
	Recorder    domain.Recorder
	Propagator  domain.Propagator
	Query       domain.ChangeLogQuery
	Admin       domain.ChangeLogAdmin
	CORSOrigins []string
	Version     string

	// RetentionDays is the default purge window for DELETE /changelog.
	RetentionDays int
}

// Router-level limits.
const (
	maxBodySize = 10 << 20 // 10 MB
	rateLimit   = 100      // requests per second per IP
	rateBurst   = 200      // token bucket burst size
)

// setupMiddleware configures all middleware on the Gin engine.
func setupMiddleware(ctx context.Context, r *gin.Engine, deps *RouterDeps) {
	r.SetTrustedProxies(nil) //nolint:errcheck // nil always succeeds.
	r.Use(middleware.RequestID(deps.Log))
	r.Use(ginLogger(deps.Log))
	r.Use(gin.Recovery())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.MaxBodySize(maxBodySize))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     deps.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type"},
		MaxAge:           1 * time.Hour,
		AllowCredentials: false,
	}))
	r.Use(middleware.NewRateLimiter(ctx, rateLimit, rateBurst).Handler())
	r.Use(middleware.PrometheusMiddleware())

	// Metrics endpoint (unauthenticated, like health).
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// registerRoutes sets up all API route handlers on the given router group.
func registerRoutes(ctx context.Context, api *gin.RouterGroup, deps *RouterDeps) {
	log := deps.Log

	health := NewHealthHandler(deps.Pool, deps.Hub, log, deps.Version)
	changelog := NewChangeLogHandler(deps.Recorder, deps.Query, deps.Admin, deps.RetentionDays, log)
	propagate := NewPropagateHandler(deps.Propagator, log)

	api.GET("/health", health.Liveness)
	api.GET("/ready", health.Readiness)

	// Change log.
	api.POST("/changelog", changelog.Record)
	api.GET("/changelog", changelog.List)
	api.DELETE("/changelog", changelog.Purge)

	// Post-commit propagation.
	api.POST("/changelog/propagate/service-kit", propagate.ServiceKit)
	api.POST("/changelog/propagate/booking", propagate.Booking)
	api.POST("/changelog/propagate/booking-deleted", propagate.BookingDeleted)

	// Live tail.
	api.GET("/changelog/ws", wsHandler(ctx, log, deps.Hub, deps.CORSOrigins))
}

// NewRouter creates and configures the Gin engine with all middleware and routes.
func NewRouter(ctx context.Context, deps *RouterDeps) http.Handler {
	r := gin.New()
	setupMiddleware(ctx, r, deps)
	registerRoutes(ctx, r.Group("/api/v1"), deps)

	return r
}
