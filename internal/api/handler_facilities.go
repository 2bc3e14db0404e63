package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gym-occupancy-backend/internal/live"
)

// GetFacilities handles the GET /api/facilities request: the polling view of
// every facility with its derived utilization.
func GetFacilities(svc *live.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		snapshot, err := svc.Snapshot(c.Request.Context())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve facilities"})
			return
		}
		c.JSON(http.StatusOK, snapshot)
	}
}
