package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"gym-occupancy-backend/internal/attendance"
	"gym-occupancy-backend/internal/live"
	"gym-occupancy-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store     store.Store
	tracker   *attendance.Tracker
	live      *live.Service
	webpush   *webpush.Options
	heartbeat time.Duration
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, tracker *attendance.Tracker, liveSvc *live.Service, webpushOptions *webpush.Options, heartbeat time.Duration) *Handler {
	if heartbeat <= 0 {
		heartbeat = 15 * time.Second
	}
	return &Handler{
		store:     s,
		tracker:   tracker,
		live:      liveSvc,
		webpush:   webpushOptions,
		heartbeat: heartbeat,
	}
}
