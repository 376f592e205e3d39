package http

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/comitanigiacomo/carbon-footprint-tracker/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/carbon-footprint-tracker/internal/adapters/metrics"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

type RateLimits struct {
	Requests          int
	Window            time.Duration
	InferenceRequests int
}

type RouterDependencies struct {
	AuthHandler      *AuthHandler
	ActivityHandler  *ActivityHandler
	DashboardHandler *DashboardHandler
	InsightHandler   *InsightHandler
	Tokens           middleware.TokenValidator
	Redis            *redis.Client
	RateLimits       RateLimits
	HealthChecks     map[string]HealthCheck
	Logger           *logrus.Logger
	StartTime        time.Time
}

func NewRouter(deps RouterDependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(metrics.Middleware())

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PATCH")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	router.GET("/health", healthHandler(deps.HealthChecks, deps.StartTime))
	router.GET("/metrics", metrics.Handler())
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	apiV1 := router.Group("/api/v1")

	var heavy []gin.HandlerFunc
	if deps.Redis != nil {
		apiV1.Use(middleware.RateLimiterMiddleware(deps.Redis, "global", deps.RateLimits.Requests, deps.RateLimits.Window, deps.Logger))
		heavy = append(heavy, middleware.RateLimiterMiddleware(deps.Redis, "inference", deps.RateLimits.InferenceRequests, deps.RateLimits.Window, deps.Logger))
	}

	deps.AuthHandler.RegisterRoutes(apiV1)

	protected := apiV1.Group("")
	protected.Use(middleware.AuthMiddleware(deps.Tokens))
	{
		deps.ActivityHandler.RegisterRoutes(protected)
		deps.DashboardHandler.RegisterRoutes(protected)
		deps.InsightHandler.RegisterRoutes(protected, heavy...)
	}

	return router
}

func healthHandler(checks map[string]HealthCheck, startTime time.Time) gin.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		defer cancel()

		status := "ok"
		statusCode := http.StatusOK
		dependencies := make(map[string]string, len(checks))

		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				dependencies[name] = "unreachable"
				status = "degraded"
				statusCode = http.StatusServiceUnavailable
				continue
			}
			dependencies[name] = "connected"
		}

		c.JSON(statusCode, gin.H{
			"status":       status,
			"dependencies": dependencies,
			"uptime":       time.Since(startTime).String(),
		})
	}
}
