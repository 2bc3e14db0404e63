package model

import "time"

// Facility status values. Maintenance is set by operations staff and is
// independent of the occupancy-derived tier.
const (
	FacilityAvailable   = "available"
	FacilityMaintenance = "maintenance"
)

// Facility represents a bookable area of the gym (cardio hall, weights
// floor, pool, ...). CurrentOccupants is maintained incrementally by session
// events and periodically recomputed from active sessions.
type Facility struct {
	ID                int64  `gorm:"primaryKey" json:"id"`
	Name              string `gorm:"uniqueIndex;size:128;not null" json:"name"`
	Capacity          int    `gorm:"not null" json:"capacity"`
	CurrentOccupants  int    `gorm:"not null;default:0" json:"currentOccupants"`
	Status            string `gorm:"size:32;not null;default:available" json:"status"`
	Equipment         string `gorm:"size:512" json:"equipment"`
	LastMaintenanceAt *time.Time `json:"lastMaintenanceAt"`
	NextMaintenanceAt *time.Time `json:"nextMaintenanceAt"`
	CreatedAt         time.Time  `json:"-"`
	UpdatedAt         time.Time  `json:"-"`
}

// UnderMaintenance reports whether the facility is flagged for maintenance.
func (f *Facility) UnderMaintenance() bool {
	return f.Status == FacilityMaintenance
}
