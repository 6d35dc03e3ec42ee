// Package handlers exposes the generation engine over HTTP.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"sitegen/internal/ai"
	"sitegen/internal/metrics"
	"sitegen/internal/middleware"
	"sitegen/internal/orchestrator"
	"sitegen/internal/planner"
)

// Generator is the engine surface the handlers call
type Generator interface {
	GeneratePage(ctx context.Context, req orchestrator.Request) (*orchestrator.Response, error)
	GenerateVariants(ctx context.Context, req orchestrator.Request) (*orchestrator.Response, error)
	Plan(ctx context.Context, req orchestrator.Request, mode planner.Mode) (*orchestrator.Response, error)
}

// ProviderStatus reports which providers can serve requests
type ProviderStatus interface {
	Providers() []ai.Provider
	Usage() map[ai.Provider]ai.ProviderUsage
}

// Handler contains all the dependencies for API handlers
type Handler struct {
	Engine    Generator
	Providers ProviderStatus
	Version   string
	Log       *zap.Logger

	// RequestTimeout bounds one generation request; zero means no bound
	RequestTimeout time.Duration

	started time.Time
}

// NewHandler creates a new handler instance
func NewHandler(engine Generator, providers ProviderStatus, version string, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		Engine:    engine,
		Providers: providers,
		Version:   version,
		Log:       log.Named("http"),
		started:   time.Now(),
	}
}

// StandardResponse represents a standard API response
type StandardResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
}

// RouterConfig selects the middleware stack
type RouterConfig struct {
	Production  bool
	CORSOrigins []string
	APIKeys     []string
	RateLimit   float64
	RateBurst   int
	// Metrics enables request metrics and the /metrics endpoint when set
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

// SetupRouter builds the gin engine. The returned stop function releases the
// rate limiter's sweeper.
func SetupRouter(h *Handler, cfg RouterConfig) (*gin.Engine, func()) {
	if cfg.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(h.Log))
	router.Use(middleware.Logger(h.Log, "/health", "/metrics"))
	router.Use(middleware.SecurityHeaders(cfg.Production))
	router.Use(middleware.CORS(cfg.CORSOrigins))

	stop := func() {}
	if cfg.RateLimit > 0 {
		limiter := middleware.NewIPRateLimiter(rate.Limit(cfg.RateLimit), max(cfg.RateBurst, 1))
		router.Use(middleware.RateLimit(limiter))
		stop = limiter.Stop
	}
	if cfg.Metrics != nil {
		router.Use(metrics.PrometheusMiddleware(cfg.Metrics))
		gatherer := cfg.Gatherer
		if gatherer == nil {
			gatherer = prometheus.DefaultGatherer
		}
		router.GET("/metrics", metrics.PrometheusHandler(gatherer))
	}

	router.GET("/health", h.Health)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.APIKeyAuth(cfg.APIKeys))
	{
		v1.POST("/generate/page", h.GeneratePage)
		v1.POST("/generate/variants", h.GenerateVariants)
		v1.POST("/plan", h.Plan)
		v1.GET("/providers", h.GetProviders)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, StandardResponse{
			Success: false,
			Error:   "Route not found",
			Code:    "NOT_FOUND",
		})
	})
	return router, stop
}
