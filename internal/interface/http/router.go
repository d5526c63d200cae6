package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/weatherwear/internal/infra/config"
	"github.com/yanqian/weatherwear/pkg/metrics"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
// collector may be nil, in which case /metrics is not served.
func NewRouter(cfg *config.Config, handler *Handler, collector *metrics.Collector, logger *slog.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestLogger(logger),
		metricsMiddleware(collector),
		errorHandlingMiddleware(logger),
		corsMiddleware(cfg.HTTP.FrontendOrigin),
	)

	api := router.Group("/api")
	api.Use(rateLimitMiddleware(cfg.HTTP.RateLimit, logger))
	{
		api.GET("/health", handler.Health)
		api.GET("/weather", handler.Weather)
		api.POST("/recommend", handler.Recommend)
		api.GET("/recommendations/recent", handler.RecentRecommendations)
	}

	if collector != nil {
		router.GET("/metrics", gin.WrapH(collector.Handler()))
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        router,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("http request", "method", c.Request.Method, "path", c.Request.URL.Path, "status", c.Writer.Status(), "latency_ms", latency.Milliseconds())
	}
}
