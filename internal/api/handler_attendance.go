package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"gym-occupancy-backend/internal/attendance"
	"gym-occupancy-backend/internal/store"
)

type checkInRequest struct {
	VisitorID   string `json:"visitor_id" binding:"required"`
	DisplayName string `json:"display_name" binding:"required"`
	Kind        string `json:"kind"`
	Facility    string `json:"facility"`
}

// CheckIn handles POST /api/attendance/checkin.
func (h *Handler) CheckIn(c *gin.Context) {
	var req checkInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.tracker.CheckIn(c.Request.Context(), attendance.CheckInRequest{
		VisitorID:   req.VisitorID,
		DisplayName: req.DisplayName,
		Kind:        req.Kind,
		Facility:    req.Facility,
	})
	if err != nil {
		// The session can exist even on error: the check-in stood but the
		// inline facility selection failed underneath it. The visitor still
		// needs their session ID to retry the selection.
		if session != nil {
			c.JSON(http.StatusCreated, gin.H{
				"session_id":     session.ID,
				"check_in_at":    session.CheckInAt,
				"facility_error": err.Error(),
			})
			return
		}
		switch {
		case errors.Is(err, attendance.ErrAlreadyCheckedIn):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, store.ErrFacilityNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "check-in failed"})
		}
		return
	}

	resp := gin.H{
		"session_id":  session.ID,
		"check_in_at": session.CheckInAt,
	}
	if session.FacilityID != nil {
		resp["facility"] = req.Facility
	}
	c.JSON(http.StatusCreated, resp)
}

type selectFacilityRequest struct {
	VisitorID string `json:"visitor_id" binding:"required"`
	Facility  string `json:"facility" binding:"required"`
}

// SelectFacility handles POST /api/attendance/:session_id/facility.
func (h *Handler) SelectFacility(c *gin.Context) {
	sessionID := c.Param("session_id")

	var req selectFacilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.tracker.SelectFacility(c.Request.Context(), sessionID, req.VisitorID, req.Facility)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrSessionNotFound), errors.Is(err, store.ErrFacilityNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, attendance.ErrSessionMismatch):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		case errors.Is(err, attendance.ErrAlreadyCheckedOut):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "facility selection failed"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

type checkOutRequest struct {
	VisitorID string `json:"visitor_id" binding:"required"`
}

// CheckOut handles POST /api/attendance/:session_id/checkout.
func (h *Handler) CheckOut(c *gin.Context) {
	sessionID := c.Param("session_id")

	var req checkOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.tracker.CheckOut(c.Request.Context(), sessionID, req.VisitorID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, attendance.ErrSessionMismatch):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		case errors.Is(err, attendance.ErrAlreadyCheckedOut):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "check-out failed"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetAttendance handles GET /api/attendance?visitor_id=&limit= and returns a
// visitor's session history, newest first.
func (h *Handler) GetAttendance(c *gin.Context) {
	visitorID := c.Query("visitor_id")
	if visitorID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "visitor_id is required"})
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	sessions, err := h.store.ListSessions(c.Request.Context(), visitorID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve attendance history"})
		return
	}

	c.JSON(http.StatusOK, sessions)
}
