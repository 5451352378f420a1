package router

import (
	"github.com/gin-gonic/gin"

	"github.com/washbay/washbay-api/internal/handler"
	"github.com/washbay/washbay-api/internal/middleware"
	"github.com/washbay/washbay-api/pkg/metrics"
)

// RouteRegistrar is implemented by every domain handler.
type RouteRegistrar interface {
	RegisterRoutes(r *gin.RouterGroup)
}

type Config struct {
	Mode        string
	CORS        middleware.CORSConfig
	Timeout     middleware.TimeoutConfig
	RateLimiter middleware.RateLimiterConfig
}

type Router struct {
	engine *gin.Engine
}

func New(
	cfg Config,
	authMw *middleware.AuthMiddleware,
	tenantMw *middleware.TenantMiddleware,
	m *metrics.Metrics,
	health *handler.Handler,
	registrars ...RouteRegistrar,
) *Router {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	engine := gin.New()

	engine.Use(middleware.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Logger())
	engine.Use(middleware.Metrics(m))
	engine.Use(middleware.CORS(cfg.CORS))
	engine.Use(middleware.Timeout(cfg.Timeout))
	engine.Use(middleware.ErrorHandler())

	if cfg.RateLimiter.Rate > 0 {
		engine.Use(middleware.NewRateLimiter(cfg.RateLimiter).RateLimit())
	}

	engine.GET("/health/live", health.LivenessCheck)
	engine.GET("/health/ready", health.ReadinessCheck)
	engine.GET("/metrics", health.MetricsHandler)

	api := engine.Group("/api/v1")
	api.Use(authMw.Authenticate())
	api.Use(tenantMw.VerifyTenant())

	for _, r := range registrars {
		r.RegisterRoutes(api)
	}

	return &Router{engine: engine}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
