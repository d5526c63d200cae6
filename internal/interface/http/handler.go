package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/weatherwear/internal/domain/outfit"
	"github.com/yanqian/weatherwear/internal/domain/weather"
	"github.com/yanqian/weatherwear/pkg/metrics"
)

// Handler wires the HTTP transport to domain services.
type Handler struct {
	weatherSvc weather.Service
	outfitSvc  outfit.Service
	metrics    *metrics.Collector
	logger     *slog.Logger
}

// NewHandler constructs the root HTTP handler. collector may be nil.
func NewHandler(weatherSvc weather.Service, outfitSvc outfit.Service, collector *metrics.Collector, logger *slog.Logger) *Handler {
	return &Handler{
		weatherSvc: weatherSvc,
		outfitSvc:  outfitSvc,
		metrics:    collector,
		logger:     logger.With("component", "http.handler"),
	}
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Weather resolves ?query= into the current weather snapshot.
func (h *Handler) Weather(c *gin.Context) {
	var req weather.Request
	if err := c.ShouldBindQuery(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	snapshot, err := h.weatherSvc.Lookup(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, domainError(err, "weather_failed"))
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// Recommend returns an outfit for the posted weather and preferences.
func (h *Handler) Recommend(c *gin.Context) {
	req := outfit.NewRequest()
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	rec, err := h.outfitSvc.Recommend(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, domainError(err, "recommend_failed"))
		return
	}
	if h.metrics != nil {
		h.metrics.RecordRecommendation(string(rec.Source))
	}

	c.JSON(http.StatusOK, rec)
}

// RecentRecommendations lists the latest served recommendations.
func (h *Handler) RecentRecommendations(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "limit must be a non-negative integer", err))
			return
		}
		limit = parsed
	}

	entries, err := h.outfitSvc.Recent(c.Request.Context(), limit)
	if err != nil {
		abortWithError(c, domainError(err, "recent_failed"))
		return
	}
	if entries == nil {
		entries = []outfit.LogEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": entries})
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
