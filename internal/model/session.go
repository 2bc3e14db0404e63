package model

import "time"

// Session status values.
const (
	SessionCheckedIn  = "checked_in"
	SessionCheckedOut = "checked_out"
)

// AttendanceSession records a single gym visit: check-in, zero or more
// facility selections, check-out. Once checked out the record is immutable.
type AttendanceSession struct {
	ID          string     `gorm:"primaryKey;size:36" json:"sessionId"`
	VisitorID   string     `gorm:"index;size:64;not null" json:"visitorId"`
	VisitorName string     `gorm:"size:256;not null" json:"visitorName"`
	FacilityID  *int64     `gorm:"index" json:"facilityId"`
	CheckInAt   time.Time  `gorm:"not null;index" json:"checkInAt"`
	CheckOutAt  *time.Time `json:"checkOutAt"`
	Status      string     `gorm:"size:32;not null;index" json:"status"`
	Duration    string     `gorm:"size:64" json:"duration"`
	CreatedAt   time.Time  `json:"-"`
	UpdatedAt   time.Time  `json:"-"`

	// Associations
	Facility *Facility `gorm:"constraint:OnDelete:SET NULL" json:"-"`
}

// Active reports whether the session is still checked in.
func (s *AttendanceSession) Active() bool {
	return s.Status == SessionCheckedIn
}
