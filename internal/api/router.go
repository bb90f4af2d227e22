package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/guttosm/neowatch/docs"
	"github.com/guttosm/neowatch/internal/middleware"
)

// RouterOptions carries the HTTP settings that come from configuration.
type RouterOptions struct {
	RateLimitPerMinute int
	RequestTimeout     time.Duration
	AllowedOrigins     []string
	// Gatherer backs /metrics. Nil leaves the endpoint unmounted.
	Gatherer prometheus.Gatherer
}

// NewRouter creates a Gin engine with every route configured.
//
// Responsibilities:
//   - Registers global middlewares (RequestID, Logger, Recovery, ErrorHandler, CORS, RateLimiter, Timeout).
//   - Mounts Swagger docs (/swagger/*any) and Prometheus metrics (/metrics).
//   - Serves the feed routes both at the root and under /api, which is where
//     browser dashboards behind a dev proxy expect them.
func NewRouter(handler *Handler, health *HealthHandler, opts RouterOptions) *gin.Engine {
	router := gin.New()

	// ─── Middlewares ───────────────────────────────
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.RecoveryMiddleware(),
		middleware.ErrorHandler,
		middleware.CORS(opts.AllowedOrigins),
		middleware.NewRateLimiter(opts.RateLimitPerMinute, time.Minute, nil).Handler(),
		middleware.Timeout(opts.RequestTimeout),
	)

	// ─── Probes ───────────────────────────────────
	health.Register(router)

	// ─── Swagger / metrics ────────────────────────
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	if opts.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	// ─── Feed routes ──────────────────────────────
	for _, g := range []*gin.RouterGroup{&router.RouterGroup, router.Group("/api")} {
		g.GET("/health", health.Health)
		g.GET("/neos", handler.GetNeos)
		g.GET("/neos/historical", handler.GetHistorical)
	}

	return router
}
