package handlers

import (
	"net/http"
	"strconv"
	"time"

	"prison-pulse/internal/services"

	"github.com/gin-gonic/gin"
)

// EventsHandler handles HTTP requests for event and snapshot analytics
type EventsHandler struct {
	stats *services.StatsService
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(stats *services.StatsService) *EventsHandler {
	return &EventsHandler{stats: stats}
}

// GetEventStats handles GET /api/events/stats
func (h *EventsHandler) GetEventStats(c *gin.Context) {
	dateFrom := parseDateQuery(c, "from")
	dateTo := parseDateQuery(c, "to")

	byType, err := h.stats.CountByType(dateFrom, dateTo)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats", "details": err.Error()})
		return
	}
	byRegion, err := h.stats.CountByRegion(c.Query("event_type"), dateFrom, dateTo)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats", "details": err.Error()})
		return
	}
	byMonth, err := h.stats.CountByMonth(c.Query("event_type"), dateFrom, dateTo)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"by_type":   byType,
		"by_region": byRegion,
		"by_month":  byMonth,
	})
}

// GetEventTimeline handles GET /api/events/timeline
func (h *EventsHandler) GetEventTimeline(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit > 200 {
		limit = 200
	}
	if limit < 1 {
		limit = 50
	}

	events, err := h.stats.Timeline(c.Query("event_type"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load timeline", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"total":  len(events),
	})
}

// GetTopFacilities handles GET /api/events/facilities
func (h *EventsHandler) GetTopFacilities(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if limit > 50 {
		limit = 50
	}
	if limit < 1 {
		limit = 10
	}

	counts, err := h.stats.CountByFacility(c.Query("event_type"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute facility counts", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"facilities": counts})
}

// GetSnapshots handles GET /api/snapshots: the latest reading per facility.
func (h *EventsHandler) GetSnapshots(c *gin.Context) {
	snapshots, err := h.stats.LatestSnapshots()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load snapshots", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"snapshots": snapshots,
		"total":     len(snapshots),
	})
}

// GetNationalTrend handles GET /api/snapshots/trend
func (h *EventsHandler) GetNationalTrend(c *gin.Context) {
	trend, err := h.stats.NationalTrend(parseDateQuery(c, "from"), parseDateQuery(c, "to"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute trend", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"trend": trend})
}

// GetRegionalSummary handles GET /api/snapshots/regions
func (h *EventsHandler) GetRegionalSummary(c *gin.Context) {
	summary, err := h.stats.RegionalSummary()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute regional summary", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"regions": summary})
}

func parseDateQuery(c *gin.Context, key string) *time.Time {
	value := c.Query(key)
	if value == "" {
		return nil
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil
	}
	return &parsed
}
