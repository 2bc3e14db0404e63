package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"gym-occupancy-backend/internal/attendance"
	"gym-occupancy-backend/internal/live"
	"gym-occupancy-backend/internal/model"
	"gym-occupancy-backend/internal/store"
)

// vanishingFacilityStore resolves a facility name once and then reports it
// gone, reproducing a facility being deleted between the check-in
// pre-validation and the inline selection.
type vanishingFacilityStore struct {
	store.Store
	lookups int
}

func (s *vanishingFacilityStore) GetFacilityByName(ctx context.Context, name string) (*model.Facility, error) {
	s.lookups++
	if s.lookups > 1 {
		return nil, store.ErrFacilityNotFound
	}
	return s.Store.GetFacilityByName(ctx, name)
}

func TestCheckIn_FacilityVanishesMidCheckIn(t *testing.T) {
	gin.SetMode(gin.TestMode)

	testDB, err := gorm.Open(sqlite.Open("file:vanishing?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := testDB.DB()
		sqlDB.Close()
	})

	require.NoError(t, testDB.AutoMigrate(&model.Facility{}, &model.Visitor{}, &model.AttendanceSession{}))
	facility := model.Facility{Name: "Cardio", Capacity: 20, CurrentOccupants: 8, Status: model.FacilityAvailable}
	require.NoError(t, testDB.Create(&facility).Error)

	s := &vanishingFacilityStore{Store: store.NewGormStore(testDB)}
	liveSvc := live.NewService(s, live.NewHub(8))
	tracker := attendance.NewTracker(s, liveSvc)
	handler := NewHandler(s, tracker, liveSvc, nil, 0)

	r := gin.New()
	r.POST("/api/attendance/checkin", handler.CheckIn)

	payload, _ := json.Marshal(gin.H{
		"visitor_id":   "M-4001",
		"display_name": "Tomas",
		"facility":     "Cardio",
	})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/attendance/checkin", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	// The check-in itself stands, so the visitor must get their session ID
	// back even though the facility selection failed underneath it.
	require.Equal(t, http.StatusCreated, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	sessionID, _ := resp["session_id"].(string)
	require.NotEmpty(t, sessionID)
	assert.Contains(t, resp["facility_error"], "facility not found")

	// The session exists, unassigned, and the counter never moved.
	var session model.AttendanceSession
	require.NoError(t, testDB.First(&session, "id = ?", sessionID).Error)
	assert.Equal(t, model.SessionCheckedIn, session.Status)
	assert.Nil(t, session.FacilityID)

	var cardio model.Facility
	require.NoError(t, testDB.First(&cardio, facility.ID).Error)
	assert.Equal(t, 8, cardio.CurrentOccupants)
}
