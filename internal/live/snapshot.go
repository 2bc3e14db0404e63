package live

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"gym-occupancy-backend/internal/capacity"
	"gym-occupancy-backend/internal/model"
	"gym-occupancy-backend/internal/store"
)

// FacilityStatus is one element of the broadcast snapshot: a facility with
// its occupancy-derived figures attached.
type FacilityStatus struct {
	ID                 int64         `json:"id"`
	Name               string        `json:"name"`
	Capacity           int           `json:"capacity"`
	CurrentOccupants   int           `json:"currentOccupants"`
	UtilizationPercent int           `json:"utilizationPercent"`
	Tier               capacity.Tier `json:"tier"`
	Status             string        `json:"status"`
	Equipment          string        `json:"equipment"`
	LastMaintenanceAt  *time.Time    `json:"lastMaintenanceAt"`
	NextMaintenanceAt  *time.Time    `json:"nextMaintenanceAt"`
	ObservedAt         time.Time     `json:"observedAt"`
}

// Classify derives the status view for a single facility record.
func Classify(f *model.Facility, now time.Time) FacilityStatus {
	report := capacity.Compute(f.CurrentOccupants, f.Capacity, f.UnderMaintenance())
	return FacilityStatus{
		ID:                 f.ID,
		Name:               f.Name,
		Capacity:           f.Capacity,
		CurrentOccupants:   f.CurrentOccupants,
		UtilizationPercent: report.UtilizationPercent,
		Tier:               report.Tier,
		Status:             f.Status,
		Equipment:          f.Equipment,
		LastMaintenanceAt:  f.LastMaintenanceAt,
		NextMaintenanceAt:  f.NextMaintenanceAt,
		ObservedAt:         now,
	}
}

// Service builds snapshots from the store and hands them to the hub. It is
// the broadcaster behind every occupancy-affecting transition.
type Service struct {
	store store.Store
	hub   *Hub
}

// NewService creates a snapshot service bound to the given store and hub.
func NewService(s store.Store, hub *Hub) *Service {
	return &Service{store: s, hub: hub}
}

// Hub exposes the underlying hub for stream handlers.
func (s *Service) Hub() *Hub {
	return s.hub
}

// Snapshot re-reads all facilities and classifies each of them.
func (s *Service) Snapshot(ctx context.Context) ([]FacilityStatus, error) {
	facilities, err := s.store.ListFacilities(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build snapshot: %w", err)
	}

	now := time.Now().UTC()
	statuses := make([]FacilityStatus, 0, len(facilities))
	for i := range facilities {
		statuses = append(statuses, Classify(&facilities[i], now))
	}
	return statuses, nil
}

// PublishSnapshot serializes the current snapshot once and fans it out.
// Broadcast failures never reach visitors; they are logged and dropped.
func (s *Service) PublishSnapshot(ctx context.Context) {
	if s.hub.SubscriberCount() == 0 {
		return
	}

	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		log.Printf("Error building occupancy snapshot for broadcast: %v", err)
		return
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		log.Printf("Error serializing occupancy snapshot: %v", err)
		return
	}

	s.hub.Publish(payload)
}
