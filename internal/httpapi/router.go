package httpapi

import (
	"net/http"
	"time"

	"github.com/dhawalhost/googlesignin/pkg/middleware"
	"github.com/dhawalhost/googlesignin/pkg/observability"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RouterDeps collects everything NewRouter wires together.
type RouterDeps struct {
	ServiceName    string
	Handler        *Handler
	Logger         *zap.Logger
	Metrics        *observability.Metrics
	Gatherer       prometheus.Gatherer
	AllowedOrigins []string
	RateLimit      rate.Limit
	RateBurst      int
}

// NewRouter builds the gin engine.
func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(deps.ServiceName))
	r.Use(middleware.RequestLogger(deps.Logger))
	if deps.Metrics != nil {
		r.Use(observability.PrometheusMiddleware(deps.Metrics))
	}
	r.Use(middleware.SecurityHeadersMiddleware())
	if len(deps.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     deps.AllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders:     []string{"Content-Type", middleware.RequestIDHeader},
			ExposeHeaders:    []string{middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(observability.PrometheusHandler(deps.Gatherer)))
	}

	deps.Handler.RegisterRoutes(r, middleware.RateLimitMiddleware(deps.RateLimit, deps.RateBurst))
	return r
}
