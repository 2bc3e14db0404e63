package attendance

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"gym-occupancy-backend/internal/model"
	"gym-occupancy-backend/internal/store"
)

// setupTracker builds a tracker over a fresh in-memory SQLite database
// seeded with two facilities matching the dashboard's standard scenario.
func setupTracker(t *testing.T) (*Tracker, store.Store, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	testDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := testDB.DB()
		sqlDB.Close()
	})

	err = testDB.AutoMigrate(&model.Facility{}, &model.Visitor{}, &model.AttendanceSession{})
	require.NoError(t, err)

	facilities := []model.Facility{
		{Name: "Cardio", Capacity: 20, CurrentOccupants: 8, Status: model.FacilityAvailable},
		{Name: "Weights", Capacity: 15, CurrentOccupants: 3, Status: model.FacilityAvailable},
	}
	require.NoError(t, testDB.Create(&facilities).Error)

	s := store.NewGormStore(testDB)
	return NewTracker(s, nil), s, testDB
}

func occupants(t *testing.T, db *gorm.DB, name string) int {
	t.Helper()
	var f model.Facility
	require.NoError(t, db.Where("name = ?", name).First(&f).Error)
	return f.CurrentOccupants
}

func TestCheckIn_RejectsDuplicate(t *testing.T) {
	tracker, _, _ := setupTracker(t)
	ctx := context.Background()

	first, err := tracker.CheckIn(ctx, CheckInRequest{VisitorID: "M-100", DisplayName: "Ari"})
	require.NoError(t, err)
	assert.Equal(t, model.SessionCheckedIn, first.Status)
	assert.Nil(t, first.FacilityID)

	_, err = tracker.CheckIn(ctx, CheckInRequest{VisitorID: "M-100", DisplayName: "Ari"})
	assert.ErrorIs(t, err, ErrAlreadyCheckedIn)
}

func TestCheckIn_WithImmediateFacility(t *testing.T) {
	tracker, _, db := setupTracker(t)
	ctx := context.Background()

	session, err := tracker.CheckIn(ctx, CheckInRequest{
		VisitorID:   "M-101",
		DisplayName: "Budi",
		Facility:    "Cardio",
	})
	require.NoError(t, err)
	require.NotNil(t, session.FacilityID)
	assert.Equal(t, 9, occupants(t, db, "Cardio"))

	var visitor model.Visitor
	require.NoError(t, db.First(&visitor, "id = ?", "M-101").Error)
	assert.Equal(t, session.FacilityID, visitor.CurrentFacilityID)
}

func TestSelectFacility_UnknownFacility(t *testing.T) {
	tracker, _, _ := setupTracker(t)
	ctx := context.Background()

	session, err := tracker.CheckIn(ctx, CheckInRequest{VisitorID: "M-102", DisplayName: "Citra"})
	require.NoError(t, err)

	_, err = tracker.SelectFacility(ctx, session.ID, "M-102", "Sauna")
	assert.ErrorIs(t, err, store.ErrFacilityNotFound)
}

func TestSelectFacility_SwitchMovesExactlyOneOccupant(t *testing.T) {
	tracker, _, db := setupTracker(t)
	ctx := context.Background()

	session, err := tracker.CheckIn(ctx, CheckInRequest{VisitorID: "M-103", DisplayName: "Dewi", Facility: "Cardio"})
	require.NoError(t, err)
	require.Equal(t, 9, occupants(t, db, "Cardio"))

	result, err := tracker.SelectFacility(ctx, session.ID, "M-103", "Weights")
	require.NoError(t, err)

	assert.Equal(t, "Cardio", result.PreviousFacility)
	assert.Equal(t, "Weights", result.Facility)
	assert.Equal(t, 4, result.CurrentOccupants)
	assert.Equal(t, 15, result.Capacity)

	// Net occupancy across facilities is unchanged by a switch.
	assert.Equal(t, 8, occupants(t, db, "Cardio"))
	assert.Equal(t, 4, occupants(t, db, "Weights"))
}

func TestCheckOut_FullLifecycleNetsToZero(t *testing.T) {
	tracker, _, db := setupTracker(t)
	ctx := context.Background()

	// Check in with no facility, pick Cardio, switch to Weights, leave.
	session, err := tracker.CheckIn(ctx, CheckInRequest{VisitorID: "M-104", DisplayName: "Eka"})
	require.NoError(t, err)

	_, err = tracker.SelectFacility(ctx, session.ID, "M-104", "Cardio")
	require.NoError(t, err)
	assert.Equal(t, 9, occupants(t, db, "Cardio"))

	_, err = tracker.SelectFacility(ctx, session.ID, "M-104", "Weights")
	require.NoError(t, err)

	result, err := tracker.CheckOut(ctx, session.ID, "M-104")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Duration)

	// Both facilities end exactly where they started.
	assert.Equal(t, 8, occupants(t, db, "Cardio"))
	assert.Equal(t, 3, occupants(t, db, "Weights"))

	var finalized model.AttendanceSession
	require.NoError(t, db.First(&finalized, "id = ?", session.ID).Error)
	assert.Equal(t, model.SessionCheckedOut, finalized.Status)
	assert.NotNil(t, finalized.CheckOutAt)

	var visitor model.Visitor
	require.NoError(t, db.First(&visitor, "id = ?", "M-104").Error)
	assert.Nil(t, visitor.CurrentFacilityID)
}

func TestCheckOut_RejectsDoubleCheckOut(t *testing.T) {
	tracker, _, db := setupTracker(t)
	ctx := context.Background()

	session, err := tracker.CheckIn(ctx, CheckInRequest{VisitorID: "M-105", DisplayName: "Fajar", Facility: "Weights"})
	require.NoError(t, err)

	_, err = tracker.CheckOut(ctx, session.ID, "M-105")
	require.NoError(t, err)
	require.Equal(t, 3, occupants(t, db, "Weights"))

	_, err = tracker.CheckOut(ctx, session.ID, "M-105")
	assert.ErrorIs(t, err, ErrAlreadyCheckedOut)

	// The rejected check-out must not touch any counter.
	assert.Equal(t, 3, occupants(t, db, "Weights"))
	assert.Equal(t, 8, occupants(t, db, "Cardio"))
}

func TestCheckOut_SessionOwnership(t *testing.T) {
	tracker, _, _ := setupTracker(t)
	ctx := context.Background()

	session, err := tracker.CheckIn(ctx, CheckInRequest{VisitorID: "M-106", DisplayName: "Gita"})
	require.NoError(t, err)

	_, err = tracker.CheckOut(ctx, session.ID, "M-999")
	assert.ErrorIs(t, err, ErrSessionMismatch)
}

func TestFormatDuration(t *testing.T) {
	testCases := []struct {
		name     string
		d        time.Duration
		expected string
	}{
		{"Under a minute", 30 * time.Second, "0 minutes"},
		{"Minutes only", 45 * time.Minute, "45 minutes"},
		{"Exactly one hour", time.Hour, "1 hour 0 minutes"},
		{"Hour and minutes", time.Hour + 5*time.Minute, "1 hour 5 minutes"},
		{"Several hours", 2*time.Hour + 15*time.Minute, "2 hours 15 minutes"},
		{"Negative clock skew", -time.Minute, "0 minutes"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, FormatDuration(tc.d))
		})
	}
}
