package model

import "time"

// Visitor kinds.
const (
	VisitorMember  = "member"
	VisitorDayPass = "day_pass"
)

// Visitor is the profile record for anyone who checks in, whether a
// registered member or a day-pass holder. The ID is supplied by the caller
// (member number or day-pass receipt number).
type Visitor struct {
	ID                string `gorm:"primaryKey;size:64" json:"id"`
	DisplayName       string `gorm:"size:256;not null" json:"displayName"`
	Kind              string `gorm:"size:32;not null;default:member" json:"kind"`
	CurrentFacilityID *int64 `gorm:"index" json:"currentFacilityId"`
	CreatedAt         time.Time `json:"-"`
	UpdatedAt         time.Time `json:"-"`
}
