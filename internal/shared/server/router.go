package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"estate-gap-backend/internal/analyses"
	"estate-gap-backend/internal/services/health"
	"estate-gap-backend/internal/shared/config"
	"estate-gap-backend/internal/shared/metrics"
	"estate-gap-backend/internal/shared/server/middleware"
	"estate-gap-backend/internal/shared/server/respond"
)

const analyzeRateLimitGroup = "ANALYZE"

// RouterDeps carries everything the router mounts.
type RouterDeps struct {
	Config          config.Config
	AnalysisHandler *analyses.Handler
	Health          *health.Service
	// Limiter is optional; tests inject one with a fake clock.
	Limiter *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.DevLike() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.ClientID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		st := deps.Health.Status(c.Request.Context())
		code := http.StatusOK
		if !st.OK {
			code = http.StatusServiceUnavailable
		}
		respond.JSON(c, code, st)
	})

	if deps.AnalysisHandler != nil {
		deps.AnalysisHandler.RegisterRoutes(api)
		deps.AnalysisHandler.RegisterAnalyzeRoute(api, analyzeRateLimit(deps))
	}

	return r
}

func analyzeRateLimit(deps RouterDeps) gin.HandlerFunc {
	return middleware.RateLimit(middleware.RateLimitConfig{
		DefaultGroup: analyzeRateLimitGroup,
		Limiter:      deps.Limiter,
		Rules: map[string]middleware.RateLimitRule{
			analyzeRateLimitGroup: middleware.PerMinute(deps.Config.AnalyzePerMinute),
		},
	})
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
