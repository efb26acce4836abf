package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/martinsuhendra/manta/internal/application"
	"github.com/martinsuhendra/manta/internal/domain/schedule"
	"github.com/martinsuhendra/manta/pkg/auth"
	"github.com/martinsuhendra/manta/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListSessions_DefaultWindow(t *testing.T) {
	var from, to time.Time
	stub := &stubSchedule{list: func(f, tt time.Time) ([]application.SessionDTO, error) {
		from, to = f, tt
		return []application.SessionDTO{}, nil
	}}
	srv := newTestServer(NewScheduleHandler(stub))

	w := srv.do(t, http.MethodGet, "/api/v1/sessions", srv.token(t, uuid.New(), auth.RoleMember), nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, schedule.DateOnly(time.Now()), from)
	assert.Equal(t, from.AddDate(0, 0, 7), to)
}

func TestListSessions_ExplicitRange(t *testing.T) {
	var from, to time.Time
	stub := &stubSchedule{list: func(f, tt time.Time) ([]application.SessionDTO, error) {
		from, to = f, tt
		return []application.SessionDTO{}, nil
	}}
	srv := newTestServer(NewScheduleHandler(stub))
	member := srv.token(t, uuid.New(), auth.RoleMember)

	w := srv.do(t, http.MethodGet, "/api/v1/sessions?from=2026-03-01&to=2026-03-31", member, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), to)

	w = srv.do(t, http.MethodGet, "/api/v1/sessions?from=03/01/2026", member, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, fieldErrors(t, decode(t, w)), "from")
}

func TestListSessions_InvertedRange(t *testing.T) {
	stub := &stubSchedule{list: func(time.Time, time.Time) ([]application.SessionDTO, error) {
		return nil, domain.NewValidationError("to", "to must not be before from")
	}}
	srv := newTestServer(NewScheduleHandler(stub))

	w := srv.do(t, http.MethodGet, "/api/v1/sessions?from=2026-03-10&to=2026-03-01", srv.token(t, uuid.New(), auth.RoleMember), nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "to must not be before from", decode(t, w).Error)
}

func TestCreateSession(t *testing.T) {
	itemID := uuid.New()
	var got application.CreateSessionRequest
	stub := &stubSchedule{create: func(req application.CreateSessionRequest) (*application.SessionDTO, error) {
		got = req
		return &application.SessionDTO{ID: uuid.New(), ItemID: req.ItemID, Status: string(schedule.SessionScheduled)}, nil
	}}
	srv := newTestServer(NewScheduleHandler(stub))
	admin := srv.token(t, uuid.New(), auth.RoleAdmin)

	w := srv.do(t, http.MethodPost, "/api/v1/admin/sessions", admin, map[string]string{
		"itemId":    itemID.String(),
		"date":      "2026-03-12",
		"startTime": "7am",
		"endTime":   "08:00",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "must match 15:04", fieldErrors(t, decode(t, w))["startTime"])

	w = srv.do(t, http.MethodPost, "/api/v1/admin/sessions", admin, map[string]string{
		"itemId":    itemID.String(),
		"date":      "2026-03-12",
		"startTime": "07:00",
		"endTime":   "08:00",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "07:00", got.StartTime)
	assert.Equal(t, itemID, got.ItemID)
}

func TestUpdateSessionStatus(t *testing.T) {
	id := uuid.New()
	var status schedule.SessionStatus
	stub := &stubSchedule{updateStatus: func(gotID uuid.UUID, s schedule.SessionStatus) (*application.SessionDTO, error) {
		assert.Equal(t, id, gotID)
		status = s
		return &application.SessionDTO{ID: gotID, Status: string(s)}, nil
	}}
	srv := newTestServer(NewScheduleHandler(stub))
	admin := srv.token(t, uuid.New(), auth.RoleAdmin)
	path := "/api/v1/admin/sessions/" + id.String() + "/status"

	w := srv.do(t, http.MethodPatch, path, admin, map[string]string{"status": "SCHEDULED"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "must be one of CANCELLED COMPLETED", fieldErrors(t, decode(t, w))["status"])

	w = srv.do(t, http.MethodPatch, path, admin, map[string]string{"status": "CANCELLED"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, schedule.SessionCancelled, status)
}

func TestGetSession_RequiresToken(t *testing.T) {
	srv := newTestServer(NewScheduleHandler(&stubSchedule{}))

	w := srv.do(t, http.MethodGet, "/api/v1/sessions/"+uuid.NewString(), "", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
