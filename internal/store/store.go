package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gym-occupancy-backend/internal/model"
)

// Sentinel errors surfaced to callers. Anything else is an internal failure.
var (
	ErrFacilityNotFound = errors.New("facility not found")
	ErrSessionNotFound  = errors.New("session not found")
)

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB

	GetFacility(ctx context.Context, id int64) (*model.Facility, error)
	GetFacilityByName(ctx context.Context, name string) (*model.Facility, error)
	ListFacilities(ctx context.Context) ([]model.Facility, error)
	IncrementOccupancy(ctx context.Context, facilityID int64) error
	DecrementOccupancy(ctx context.Context, facilityID int64) error

	ActiveSession(ctx context.Context, visitorID string) (*model.AttendanceSession, error)
	GetSession(ctx context.Context, sessionID string) (*model.AttendanceSession, error)
	CreateSession(ctx context.Context, session *model.AttendanceSession) error
	AssignSessionFacility(ctx context.Context, sessionID string, facilityID int64) error
	FinalizeSession(ctx context.Context, sessionID string, checkOutAt time.Time, duration string) error
	ListSessions(ctx context.Context, visitorID string, limit int) ([]model.AttendanceSession, error)

	UpsertVisitor(ctx context.Context, visitor *model.Visitor) error
	SetVisitorFacility(ctx context.Context, visitorID string, facilityID *int64) error

	RecountOccupancy(ctx context.Context) ([]RecountChange, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) GetFacility(ctx context.Context, id int64) (*model.Facility, error) {
	var facility model.Facility
	if err := s.db.WithContext(ctx).First(&facility, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFacilityNotFound
		}
		return nil, fmt.Errorf("failed to fetch facility %d: %w", id, err)
	}
	return &facility, nil
}

func (s *gormStore) GetFacilityByName(ctx context.Context, name string) (*model.Facility, error) {
	var facility model.Facility
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&facility).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFacilityNotFound
		}
		return nil, fmt.Errorf("failed to fetch facility %q: %w", name, err)
	}
	return &facility, nil
}

func (s *gormStore) ListFacilities(ctx context.Context) ([]model.Facility, error) {
	var facilities []model.Facility
	if err := s.db.WithContext(ctx).Order("name").Find(&facilities).Error; err != nil {
		return nil, fmt.Errorf("failed to list facilities: %w", err)
	}
	return facilities, nil
}

// IncrementOccupancy bumps the occupant counter in a single UPDATE so that
// concurrent check-ins cannot lose each other's writes. An unknown facility
// updates zero rows; that is logged, not returned, since occupancy
// bookkeeping is best-effort.
func (s *gormStore) IncrementOccupancy(ctx context.Context, facilityID int64) error {
	res := s.db.WithContext(ctx).Model(&model.Facility{}).
		Where("id = ?", facilityID).
		UpdateColumn("current_occupants", gorm.Expr("current_occupants + 1"))
	if res.Error != nil {
		return fmt.Errorf("failed to increment occupancy for facility %d: %w", facilityID, res.Error)
	}
	if res.RowsAffected == 0 {
		log.Printf("occupancy increment skipped: facility %d not found", facilityID)
	}
	return nil
}

// DecrementOccupancy clamps at zero inside the UPDATE itself: switch-away and
// check-out events can race with manual corrections and must never drive the
// counter negative.
func (s *gormStore) DecrementOccupancy(ctx context.Context, facilityID int64) error {
	res := s.db.WithContext(ctx).Model(&model.Facility{}).
		Where("id = ?", facilityID).
		UpdateColumn("current_occupants",
			gorm.Expr("CASE WHEN current_occupants > 0 THEN current_occupants - 1 ELSE 0 END"))
	if res.Error != nil {
		return fmt.Errorf("failed to decrement occupancy for facility %d: %w", facilityID, res.Error)
	}
	if res.RowsAffected == 0 {
		log.Printf("occupancy decrement skipped: facility %d not found", facilityID)
	}
	return nil
}

func (s *gormStore) ActiveSession(ctx context.Context, visitorID string) (*model.AttendanceSession, error) {
	var session model.AttendanceSession
	err := s.db.WithContext(ctx).
		Where("visitor_id = ? AND status = ?", visitorID, model.SessionCheckedIn).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to fetch active session for visitor %s: %w", visitorID, err)
	}
	return &session, nil
}

func (s *gormStore) GetSession(ctx context.Context, sessionID string) (*model.AttendanceSession, error) {
	var session model.AttendanceSession
	if err := s.db.WithContext(ctx).First(&session, "id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to fetch session %s: %w", sessionID, err)
	}
	return &session, nil
}

func (s *gormStore) CreateSession(ctx context.Context, session *model.AttendanceSession) error {
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return fmt.Errorf("failed to create session for visitor %s: %w", session.VisitorID, err)
	}
	return nil
}

func (s *gormStore) AssignSessionFacility(ctx context.Context, sessionID string, facilityID int64) error {
	res := s.db.WithContext(ctx).Model(&model.AttendanceSession{}).
		Where("id = ?", sessionID).
		Update("facility_id", facilityID)
	if res.Error != nil {
		return fmt.Errorf("failed to assign facility to session %s: %w", sessionID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (s *gormStore) FinalizeSession(ctx context.Context, sessionID string, checkOutAt time.Time, duration string) error {
	res := s.db.WithContext(ctx).Model(&model.AttendanceSession{}).
		Where("id = ? AND status = ?", sessionID, model.SessionCheckedIn).
		Updates(map[string]any{
			"status":       model.SessionCheckedOut,
			"check_out_at": checkOutAt,
			"duration":     duration,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to finalize session %s: %w", sessionID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (s *gormStore) ListSessions(ctx context.Context, visitorID string, limit int) ([]model.AttendanceSession, error) {
	var sessions []model.AttendanceSession
	q := s.db.WithContext(ctx).
		Where("visitor_id = ?", visitorID).
		Order("check_in_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("failed to list sessions for visitor %s: %w", visitorID, err)
	}
	return sessions, nil
}

func (s *gormStore) UpsertVisitor(ctx context.Context, visitor *model.Visitor) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"display_name", "kind", "updated_at"}),
	}).Create(visitor).Error
	if err != nil {
		return fmt.Errorf("failed to upsert visitor %s: %w", visitor.ID, err)
	}
	return nil
}

func (s *gormStore) SetVisitorFacility(ctx context.Context, visitorID string, facilityID *int64) error {
	res := s.db.WithContext(ctx).Model(&model.Visitor{}).
		Where("id = ?", visitorID).
		Update("current_facility_id", facilityID)
	if res.Error != nil {
		return fmt.Errorf("failed to set current facility for visitor %s: %w", visitorID, res.Error)
	}
	return nil
}

// RecountOccupancy recomputes every facility's occupant count from the
// sessions currently pointing at it. The incremental counter is only a
// cache; this pass is the source of truth and removes any drift left behind
// by best-effort bookkeeping.
func (s *gormStore) RecountOccupancy(ctx context.Context) ([]RecountChange, error) {
	var changes []RecountChange

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var facilities []model.Facility
		if err := tx.Find(&facilities).Error; err != nil {
			return fmt.Errorf("failed to fetch facilities for recount: %w", err)
		}

		type countRow struct {
			FacilityID int64
			Active     int
		}
		var rows []countRow
		if err := tx.Model(&model.AttendanceSession{}).
			Select("facility_id as facility_id, COUNT(*) as active").
			Where("status = ? AND facility_id IS NOT NULL", model.SessionCheckedIn).
			Group("facility_id").
			Scan(&rows).Error; err != nil {
			return fmt.Errorf("failed to count active sessions: %w", err)
		}

		countMap := make(map[int64]int, len(rows))
		for _, r := range rows {
			countMap[r.FacilityID] = r.Active
		}

		for _, f := range facilities {
			actual := countMap[f.ID] // zero when no active sessions
			if actual == f.CurrentOccupants {
				continue
			}
			if err := tx.Model(&model.Facility{}).
				Where("id = ?", f.ID).
				UpdateColumn("current_occupants", actual).Error; err != nil {
				return fmt.Errorf("failed to correct occupancy for facility %d: %w", f.ID, err)
			}
			changes = append(changes, RecountChange{
				FacilityID:  f.ID,
				Name:        f.Name,
				Capacity:    f.Capacity,
				Maintenance: f.UnderMaintenance(),
				OldCount:    f.CurrentOccupants,
				NewCount:    actual,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return changes, nil
}
