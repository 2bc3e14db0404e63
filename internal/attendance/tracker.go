// Package attendance implements the visitor session state machine:
// check-in, facility selection, check-out. Occupancy counters and the live
// broadcast are secondary effects of these transitions and are never allowed
// to fail a visitor's own transition.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"gym-occupancy-backend/internal/model"
	"gym-occupancy-backend/internal/store"
)

// Transition rejections returned to the caller with a human-readable reason.
var (
	ErrAlreadyCheckedIn  = errors.New("already checked in today")
	ErrAlreadyCheckedOut = errors.New("already checked out")
	ErrSessionMismatch   = errors.New("session does not belong to this visitor")
)

// Broadcaster pushes a fresh occupancy snapshot to connected dashboards.
type Broadcaster interface {
	PublishSnapshot(ctx context.Context)
}

// Tracker drives attendance sessions against the store.
type Tracker struct {
	store     store.Store
	broadcast Broadcaster
}

// NewTracker creates a tracker. The broadcaster may be nil (tests, tooling).
func NewTracker(s store.Store, b Broadcaster) *Tracker {
	return &Tracker{store: s, broadcast: b}
}

// CheckInRequest carries the visitor identity for a new session. Facility is
// optional; when set, the session starts with that facility selected.
type CheckInRequest struct {
	VisitorID   string
	DisplayName string
	Kind        string
	Facility    string
}

// SwitchResult reports a completed facility selection.
type SwitchResult struct {
	PreviousFacility string `json:"previous_facility,omitempty"`
	Facility         string `json:"facility"`
	CurrentOccupants int    `json:"current_occupants"`
	Capacity         int    `json:"capacity"`
}

// CheckOutResult reports a completed check-out.
type CheckOutResult struct {
	CheckOutAt time.Time `json:"check_out_at"`
	Duration   string    `json:"duration"`
}

// CheckIn opens a new session for the visitor. A visitor holds at most one
// checked-in session at a time; a second attempt is rejected.
func (t *Tracker) CheckIn(ctx context.Context, req CheckInRequest) (*model.AttendanceSession, error) {
	if _, err := t.store.ActiveSession(ctx, req.VisitorID); err == nil {
		return nil, ErrAlreadyCheckedIn
	} else if !errors.Is(err, store.ErrSessionNotFound) {
		return nil, fmt.Errorf("failed to look up active session: %w", err)
	}

	// Resolve the facility up front so an unknown name rejects the whole
	// check-in instead of leaving a half-assigned session behind.
	if req.Facility != "" {
		if _, err := t.store.GetFacilityByName(ctx, req.Facility); err != nil {
			return nil, err
		}
	}

	kind := req.Kind
	if kind != model.VisitorDayPass {
		kind = model.VisitorMember
	}
	visitor := &model.Visitor{
		ID:          req.VisitorID,
		DisplayName: req.DisplayName,
		Kind:        kind,
	}
	if err := t.store.UpsertVisitor(ctx, visitor); err != nil {
		return nil, err
	}

	session := &model.AttendanceSession{
		ID:          uuid.NewString(),
		VisitorID:   req.VisitorID,
		VisitorName: req.DisplayName,
		CheckInAt:   time.Now().UTC(),
		Status:      model.SessionCheckedIn,
	}
	if err := t.store.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	if req.Facility != "" {
		if _, err := t.SelectFacility(ctx, session.ID, req.VisitorID, req.Facility); err != nil {
			// The check-in itself stands; the caller learns the facility
			// selection failed and can retry it.
			return session, err
		}
		// Reload so the response carries the assigned facility.
		if refreshed, err := t.store.GetSession(ctx, session.ID); err == nil {
			session = refreshed
		}
	}

	return session, nil
}

// SelectFacility moves an active session to the named facility: decrement
// the previous facility (if any), increment the new one, persist the new
// reference. Counter mutations are best-effort; the reference update is not.
func (t *Tracker) SelectFacility(ctx context.Context, sessionID, visitorID, facilityName string) (*SwitchResult, error) {
	session, err := t.loadOwnedSession(ctx, sessionID, visitorID)
	if err != nil {
		return nil, err
	}
	if !session.Active() {
		return nil, ErrAlreadyCheckedOut
	}

	facility, err := t.store.GetFacilityByName(ctx, facilityName)
	if err != nil {
		return nil, err
	}

	var previousName string
	if session.FacilityID != nil {
		if prev, err := t.store.GetFacility(ctx, *session.FacilityID); err == nil {
			previousName = prev.Name
		}
		t.adjustOccupancy(ctx, t.store.DecrementOccupancy, *session.FacilityID)
	}

	t.adjustOccupancy(ctx, t.store.IncrementOccupancy, facility.ID)

	if err := t.store.AssignSessionFacility(ctx, sessionID, facility.ID); err != nil {
		return nil, err
	}
	if err := t.store.SetVisitorFacility(ctx, visitorID, &facility.ID); err != nil {
		log.Printf("Error updating current facility for visitor %s: %v", visitorID, err)
	}

	t.publish(ctx)

	// Re-read for the occupant count the caller sees.
	occupants := facility.CurrentOccupants + 1
	if refreshed, err := t.store.GetFacility(ctx, facility.ID); err == nil {
		occupants = refreshed.CurrentOccupants
	}

	return &SwitchResult{
		PreviousFacility: previousName,
		Facility:         facility.Name,
		CurrentOccupants: occupants,
		Capacity:         facility.Capacity,
	}, nil
}

// CheckOut finalizes an active session: timestamp, duration, facility
// decrement, and clearing the visitor's current-facility pointer.
func (t *Tracker) CheckOut(ctx context.Context, sessionID, visitorID string) (*CheckOutResult, error) {
	session, err := t.loadOwnedSession(ctx, sessionID, visitorID)
	if err != nil {
		return nil, err
	}
	if !session.Active() {
		return nil, ErrAlreadyCheckedOut
	}

	checkOutAt := time.Now().UTC()
	duration := FormatDuration(checkOutAt.Sub(session.CheckInAt))

	if err := t.store.FinalizeSession(ctx, sessionID, checkOutAt, duration); err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			// Lost a race with another check-out request for the same session.
			return nil, ErrAlreadyCheckedOut
		}
		return nil, err
	}

	if session.FacilityID != nil {
		t.adjustOccupancy(ctx, t.store.DecrementOccupancy, *session.FacilityID)
	}
	if err := t.store.SetVisitorFacility(ctx, visitorID, nil); err != nil {
		log.Printf("Error clearing current facility for visitor %s: %v", visitorID, err)
	}

	if session.FacilityID != nil {
		t.publish(ctx)
	}

	return &CheckOutResult{CheckOutAt: checkOutAt, Duration: duration}, nil
}

func (t *Tracker) loadOwnedSession(ctx context.Context, sessionID, visitorID string) (*model.AttendanceSession, error) {
	session, err := t.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.VisitorID != visitorID {
		return nil, ErrSessionMismatch
	}
	return session, nil
}

// adjustOccupancy applies a counter mutation as a non-critical side effect.
// Failures are logged and swallowed: bookkeeping must never block a
// visitor's transition, and the reconcile pass corrects any drift.
func (t *Tracker) adjustOccupancy(ctx context.Context, op func(context.Context, int64) error, facilityID int64) {
	if err := op(ctx, facilityID); err != nil {
		log.Printf("Error adjusting occupancy for facility %d: %v", facilityID, err)
	}
}

func (t *Tracker) publish(ctx context.Context) {
	if t.broadcast != nil {
		t.broadcast.PublishSnapshot(ctx)
	}
}

// FormatDuration renders a visit length as hours and minutes, e.g.
// "2 hours 5 minutes" or "45 minutes". Sub-minute visits read "0 minutes".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60

	if hours == 0 {
		return fmt.Sprintf("%d minutes", minutes)
	}
	if hours == 1 {
		return fmt.Sprintf("1 hour %d minutes", minutes)
	}
	return fmt.Sprintf("%d hours %d minutes", hours, minutes)
}
