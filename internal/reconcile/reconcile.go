// Package reconcile periodically recomputes facility occupant counts from
// the sessions that are actually checked in. The incremental counters kept
// by the attendance tracker are best-effort and can drift; this pass is the
// source of truth.
package reconcile

import (
	"context"
	"log"
	"time"

	"gym-occupancy-backend/config"
	"gym-occupancy-backend/internal/capacity"
	"gym-occupancy-backend/internal/notification"
	"gym-occupancy-backend/internal/store"
)

// Broadcaster pushes a fresh occupancy snapshot to connected dashboards.
type Broadcaster interface {
	PublishSnapshot(ctx context.Context)
}

// Service runs the recount loop and fans out its consequences: corrected
// counters, a fresh broadcast, and availability alerts.
type Service struct {
	cfg        *config.Config
	store      store.Store
	broadcast  Broadcaster
	workerPool *notification.WorkerPool
}

// NewService creates a reconcile service. The worker pool is owned by the
// service and started together with the loop.
func NewService(cfg *config.Config, s store.Store, b Broadcaster, wp *notification.WorkerPool) *Service {
	return &Service{
		cfg:        cfg,
		store:      s,
		broadcast:  b,
		workerPool: wp,
	}
}

// Run starts the reconciliation loop.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Occupancy.ReconcileEnabled {
		log.Println("Occupancy reconciliation is disabled. Not starting.")
		return
	}
	log.Println("Starting occupancy reconcile service...")

	if s.workerPool != nil {
		s.workerPool.Start(ctx)
	}

	s.ReconcileOnce(ctx)

	timer := time.NewTimer(s.cfg.Occupancy.ReconcileInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Reconcile service shutting down.")
			return
		case <-timer.C:
			s.ReconcileOnce(ctx)
			timer.Reset(s.cfg.Occupancy.ReconcileInterval)
		}
	}
}

// ReconcileOnce performs a single recount pass.
func (s *Service) ReconcileOnce(ctx context.Context) {
	changes, err := s.store.RecountOccupancy(ctx)
	if err != nil {
		log.Printf("Error reconciling occupancy counts: %v", err)
		return
	}
	if len(changes) == 0 {
		return
	}

	for _, change := range changes {
		log.Printf("Corrected occupancy for facility %q: %d -> %d",
			change.Name, change.OldCount, change.NewCount)

		oldTier := capacity.Compute(change.OldCount, change.Capacity, change.Maintenance).Tier
		newTier := capacity.Compute(change.NewCount, change.Capacity, change.Maintenance).Tier
		if !oldTier.Bookable() && newTier.Bookable() && s.workerPool != nil {
			log.Printf("Facility %q became bookable (%s -> %s), dispatching alerts",
				change.Name, oldTier, newTier)
			s.workerPool.Dispatch(change.FacilityID)
		}
	}

	if s.broadcast != nil {
		s.broadcast.PublishSnapshot(ctx)
	}
}
