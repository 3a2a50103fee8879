package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	authz "github.com/yigit/mentorhub/internal/app/auth"
	"github.com/yigit/mentorhub/internal/app/models"
	"github.com/yigit/mentorhub/internal/app/models/dto"
	"github.com/yigit/mentorhub/internal/app/services"
	"github.com/yigit/mentorhub/internal/middleware"
	"github.com/yigit/mentorhub/internal/pkg/apperrors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var (
	tutorID      = int64(2)
	studentActor = authz.Actor{UserID: 5, Email: "ada@mentorhub.test", Role: models.RoleStudent, TutorID: &tutorID}
	tutorActor   = authz.Actor{UserID: 2, Email: "tutor@mentorhub.test", Role: models.RoleTutor}
)

// asActor stands in for JWTAuth
func asActor(actor authz.Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, actor.UserID)
		c.Set(middleware.ContextEmail, actor.Email)
		c.Set(middleware.ContextRole, string(actor.Role))
		if actor.TutorID != nil {
			c.Set(middleware.ContextTutorID, *actor.TutorID)
		}
		c.Next()
	}
}

func doRequest(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp
}

type fakeAttendance struct {
	services.AttendanceService
	checkInErr   error
	gotToken     string
	png          []byte
	authorizeErr error
}

func (f *fakeAttendance) CheckIn(_ context.Context, actor authz.Actor, token string) (*dto.CheckInResult, error) {
	f.gotToken = token
	if f.checkInErr != nil {
		return nil, f.checkInErr
	}
	return &dto.CheckInResult{
		Attendance:    &models.StudentAttendance{SessionID: 7, StudentID: actor.UserID},
		SessionTitle:  "Week 3 - Loops",
		PointsAwarded: 5,
		NewBalance:    25,
	}, nil
}

func (f *fakeAttendance) SessionQR(_ context.Context, _ authz.Actor, _ int64) ([]byte, error) {
	return f.png, nil
}

func (f *fakeAttendance) AuthorizeLiveFeed(_ context.Context, _ authz.Actor, _ int64) error {
	return f.authorizeErr
}

type fakeFeed struct {
	served bool
}

func (f *fakeFeed) Serve(w http.ResponseWriter, _ *http.Request, _, _ int64) error {
	f.served = true
	w.WriteHeader(http.StatusSwitchingProtocols)
	return nil
}

func newAttendanceRouter(svc *fakeAttendance, feed LiveFeed, actor *authz.Actor) *gin.Engine {
	c := NewAttendanceController(svc, feed, zerolog.Nop())
	r := gin.New()
	if actor != nil {
		r.Use(asActor(*actor))
	}
	r.POST("/check-in", c.CheckIn)
	r.GET("/sessions/:id/qr", c.SessionQR)
	r.GET("/sessions/:id/live", c.Live)
	return r
}

func TestAttendanceController_CheckIn(t *testing.T) {
	token := string(bytes.Repeat([]byte("ab"), 32))

	t.Run("success", func(t *testing.T) {
		svc := &fakeAttendance{}
		w := doRequest(newAttendanceRouter(svc, nil, &studentActor), http.MethodPost, "/check-in", dto.CheckInRequest{Token: token})

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, token, svc.gotToken)

		var resp struct {
			Data dto.CheckInResult `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, int64(25), resp.Data.NewBalance)
	})

	t.Run("malformed token rejected before the service", func(t *testing.T) {
		svc := &fakeAttendance{}
		w := doRequest(newAttendanceRouter(svc, nil, &studentActor), http.MethodPost, "/check-in", dto.CheckInRequest{Token: "nope"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, svc.gotToken)
	})

	t.Run("error mapping", func(t *testing.T) {
		cases := []struct {
			err  error
			code int
		}{
			{apperrors.ErrAlreadyCheckedIn, http.StatusConflict},
			{apperrors.ErrCheckInTokenExpired, http.StatusBadRequest},
			{apperrors.ErrTooManyCheckInAttempts, http.StatusTooManyRequests},
			{apperrors.ErrStudentNotInScope, http.StatusForbidden},
		}
		for _, tc := range cases {
			svc := &fakeAttendance{checkInErr: tc.err}
			w := doRequest(newAttendanceRouter(svc, nil, &studentActor), http.MethodPost, "/check-in", dto.CheckInRequest{Token: token})
			assert.Equal(t, tc.code, w.Code, tc.err.Error())
		}
	})

	t.Run("unauthenticated", func(t *testing.T) {
		w := doRequest(newAttendanceRouter(&fakeAttendance{}, nil, nil), http.MethodPost, "/check-in", dto.CheckInRequest{Token: token})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAttendanceController_SessionQR(t *testing.T) {
	svc := &fakeAttendance{png: []byte("\x89PNG")}
	r := newAttendanceRouter(svc, nil, &tutorActor)

	w := doRequest(r, http.MethodGet, "/sessions/7/qr", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "\x89PNG", w.Body.String())

	w = doRequest(r, http.MethodGet, "/sessions/abc/qr", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "id", decodeError(t, w).Error.Field)
}

func TestAttendanceController_Live(t *testing.T) {
	t.Run("forbidden session never upgrades", func(t *testing.T) {
		feed := &fakeFeed{}
		svc := &fakeAttendance{authorizeErr: apperrors.ErrPermissionDenied}
		w := doRequest(newAttendanceRouter(svc, feed, &tutorActor), http.MethodGet, "/sessions/7/live", nil)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.False(t, feed.served)
	})

	t.Run("authorized", func(t *testing.T) {
		feed := &fakeFeed{}
		w := doRequest(newAttendanceRouter(&fakeAttendance{}, feed, &tutorActor), http.MethodGet, "/sessions/7/live", nil)

		assert.Equal(t, http.StatusSwitchingProtocols, w.Code)
		assert.True(t, feed.served)
	})
}

type fakeUserService struct {
	services.UserService
	gotFilter dto.UserFilter
}

func (f *fakeUserService) ListUsers(_ context.Context, filter dto.UserFilter) ([]*models.User, int64, error) {
	f.gotFilter = filter
	return []*models.User{{ID: 5, FirstName: "Ada", LastName: "Lovelace", RoleType: models.RoleStudent}}, 41, nil
}

func TestUserController_ListUsers(t *testing.T) {
	svc := &fakeUserService{}
	c := NewUserController(svc)
	r := gin.New()
	r.GET("/users", c.ListUsers)

	w := doRequest(r, http.MethodGet, "/users?role=STUDENT&tutorId=2&page=2&size=20&search=ada", nil)
	require.Equal(t, http.StatusOK, w.Code)

	require.NotNil(t, svc.gotFilter.Role)
	assert.Equal(t, models.RoleStudent, *svc.gotFilter.Role)
	require.NotNil(t, svc.gotFilter.TutorID)
	assert.Equal(t, int64(2), *svc.gotFilter.TutorID)
	assert.Equal(t, "ada", svc.gotFilter.Search)

	var resp struct {
		Data dto.PaginatedResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(41), resp.Data.Pagination.TotalItems)
	assert.Equal(t, 3, resp.Data.Pagination.TotalPages)

	w = doRequest(r, http.MethodGet, "/users?role=JANITOR", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "role", decodeError(t, w).Error.Field)

	w = doRequest(r, http.MethodGet, "/users?tutorId=x", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type fakeLeaderboard struct {
	services.LeaderboardService
	gotPeriod *int64
	gotLimit  int
}

func (f *fakeLeaderboard) Leaderboard(_ context.Context, periodID *int64, limit int) (*dto.LeaderboardResponse, error) {
	f.gotPeriod = periodID
	f.gotLimit = limit
	if periodID == nil {
		return nil, apperrors.ErrNoActivePeriod
	}
	return &dto.LeaderboardResponse{PeriodID: *periodID, Source: services.LeaderboardSourceDatabase}, nil
}

func TestLedgerController_Leaderboard(t *testing.T) {
	svc := &fakeLeaderboard{}
	c := NewLedgerController(nil, svc)
	r := gin.New()
	r.GET("/leaderboard", c.Leaderboard)

	w := doRequest(r, http.MethodGet, "/leaderboard?periodId=3&limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(3), *svc.gotPeriod)
	assert.Equal(t, 5, svc.gotLimit)

	w = doRequest(r, http.MethodGet, "/leaderboard", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 0, svc.gotLimit)

	w = doRequest(r, http.MethodGet, "/leaderboard?periodId=3&limit=0", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "limit", decodeError(t, w).Error.Field)
}

type fakeEventService struct {
	services.EventService
	registerErr error
	gotFilter   dto.EventFilter
}

func (f *fakeEventService) Register(_ context.Context, actor authz.Actor, eventID int64) (*models.EventParticipant, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &models.EventParticipant{EventID: eventID, StudentID: actor.UserID}, nil
}

func (f *fakeEventService) ListEvents(_ context.Context, _ authz.Actor, filter dto.EventFilter) ([]*dto.EventResponse, *dto.PaginationInfo, error) {
	f.gotFilter = filter
	return []*dto.EventResponse{}, &dto.PaginationInfo{CurrentPage: 1, PageSize: filter.Size}, nil
}

func TestEventController(t *testing.T) {
	svc := &fakeEventService{}
	c := NewEventController(svc)
	r := gin.New()
	r.Use(asActor(studentActor))
	r.GET("/events", c.ListEvents)
	r.POST("/events/:id/register", c.Register)

	w := doRequest(r, http.MethodPost, "/events/4/register", nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	svc.registerErr = apperrors.ErrEventFull
	w = doRequest(r, http.MethodPost, "/events/4/register", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, dto.ErrorCodeEventFull, decodeError(t, w).Error.Code)

	w = doRequest(r, http.MethodGet, "/events?status=OPEN&upcoming=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.gotFilter.Status)
	assert.Equal(t, models.EventOpen, *svc.gotFilter.Status)
	assert.True(t, svc.gotFilter.Upcoming)

	w = doRequest(r, http.MethodGet, "/events?status=PARTY", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
