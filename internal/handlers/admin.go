package handlers

import (
	"net/http"
	"time"

	"prison-pulse/internal/auth"
	"prison-pulse/internal/collector"
	"prison-pulse/internal/services"

	"github.com/gin-gonic/gin"
)

// AdminHandler exposes the maintenance operations behind token auth.
type AdminHandler struct {
	tokens    *auth.TokenService
	collector *collector.Collector
	cleanup   *services.CleanupService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(tokens *auth.TokenService, coll *collector.Collector, cleanup *services.CleanupService) *AdminHandler {
	return &AdminHandler{tokens: tokens, collector: coll, cleanup: cleanup}
}

// RequireAdmin is a middleware that validates the Authorization header.
func (h *AdminHandler) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		subject, err := h.tokens.ValidateAdminToken(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Admin token required"})
			return
		}
		c.Set("admin_subject", subject)
		c.Next()
	}
}

// TriggerCollection handles POST /api/admin/collect: runs one full
// collection pass immediately.
func (h *AdminHandler) TriggerCollection(c *gin.Context) {
	report, err := h.collector.Run(time.Now().UTC())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Collection run failed",
			"details": err.Error(),
		})
		return
	}

	status := http.StatusOK
	if len(report.Errors) > 0 {
		status = http.StatusMultiStatus
	}
	c.JSON(status, report)
}

// TriggerCleanup handles POST /api/admin/cleanup: runs the offline
// maintenance passes over stored events and snapshots.
func (h *AdminHandler) TriggerCleanup(c *gin.Context) {
	report, err := h.cleanup.Run()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Cleanup run failed",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, report)
}

// NormalizeFacilities handles POST /api/admin/normalize-facilities: only
// the facility rewrite pass, without the duplicate sweeps.
func (h *AdminHandler) NormalizeFacilities(c *gin.Context) {
	rewritten, err := h.cleanup.NormalizeFacilities()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Facility normalization failed",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"facilities_rewritten": rewritten})
}
