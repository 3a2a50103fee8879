package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	authz "github.com/yigit/mentorhub/internal/app/auth"
	"github.com/yigit/mentorhub/internal/app/models"
	"github.com/yigit/mentorhub/internal/app/models/dto"
	"github.com/yigit/mentorhub/internal/pkg/apperrors"
	"github.com/yigit/mentorhub/internal/pkg/websocket"
)

type fakeAttendance struct {
	AttendanceStore
	ledger   *fakeLedger
	sessions map[int64]*models.AttendanceSession
	records  map[[2]int64]*models.StudentAttendance
}

func newFakeAttendance(ledger *fakeLedger) *fakeAttendance {
	return &fakeAttendance{
		ledger:   ledger,
		sessions: map[int64]*models.AttendanceSession{},
		records:  map[[2]int64]*models.StudentAttendance{},
	}
}

func (f *fakeAttendance) CreateSession(_ context.Context, s *models.AttendanceSession) error {
	s.ID = int64(len(f.sessions) + 1)
	f.sessions[s.ID] = s
	return nil
}

func (f *fakeAttendance) GetSession(_ context.Context, id int64) (*models.AttendanceSession, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeAttendance) GetSessionByToken(_ context.Context, token string) (*models.AttendanceSession, error) {
	for _, s := range f.sessions {
		if s.CheckInToken == token {
			cp := *s
			return &cp, nil
		}
	}
	return nil, apperrors.ErrSessionNotFound
}

func (f *fakeAttendance) RotateToken(_ context.Context, id int64, token string, expiresAt time.Time) error {
	f.sessions[id].CheckInToken = token
	f.sessions[id].TokenExpiresAt = expiresAt
	return nil
}

func (f *fakeAttendance) CloseSession(_ context.Context, id int64, at time.Time) error {
	s := f.sessions[id]
	if s.IsClosed {
		return apperrors.ErrSessionClosed
	}
	s.IsClosed = true
	s.ClosedAt = &at
	return nil
}

func (f *fakeAttendance) RecordAttendance(ctx context.Context, r *models.StudentAttendance, reward *models.PointsTransaction) (int64, error) {
	key := [2]int64{r.SessionID, r.StudentID}
	if _, ok := f.records[key]; ok {
		return 0, apperrors.ErrAlreadyCheckedIn
	}
	var balance int64
	if reward != nil {
		var err error
		if balance, err = f.ledger.AwardPoints(ctx, reward); err != nil {
			return 0, err
		}
		r.PointsTransactionID = &reward.ID
	}
	f.records[key] = r
	f.sessions[r.SessionID].AttendeeCount++
	return balance, nil
}

const validToken = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

type attendanceTest struct {
	svc       *attendanceServiceImpl
	store     *fakeAttendance
	ledger    *fakeLedger
	board     *recordingLeaderboard
	throttle  *fakeThrottle
	publisher *recordingPublisher
	fixture   *fixture
}

func newAttendanceTest(t *testing.T) *attendanceTest {
	t.Helper()
	f := newFixture()
	ledger := &fakeLedger{users: f.users}
	store := newFakeAttendance(ledger)
	store.sessions[1] = &models.AttendanceSession{
		ID:             1,
		TutorID:        2,
		Title:          "Week 3 - Loops",
		PointsReward:   5,
		CheckInToken:   validToken,
		TokenExpiresAt: testNow.Add(48 * time.Hour),
	}

	at := &attendanceTest{
		store:     store,
		ledger:    ledger,
		board:     &recordingLeaderboard{},
		throttle:  &fakeThrottle{},
		publisher: &recordingPublisher{},
		fixture:   f,
	}
	at.svc = NewAttendanceService(store, f.period, f.users, f.authz, at.board, at.throttle, at.publisher, nil, time.UTC, f.logger).(*attendanceServiceImpl)
	at.svc.now = fixedNow
	return at
}

func TestCheckIn_Success(t *testing.T) {
	at := newAttendanceTest(t)

	res, err := at.svc.CheckIn(context.Background(), studentActor, validToken)
	require.NoError(t, err)

	assert.Equal(t, int64(5), res.PointsAwarded)
	assert.Equal(t, int64(25), res.NewBalance)
	assert.Equal(t, models.AttendanceQR, res.Attendance.Method)
	require.NotNil(t, res.Attendance.PointsTransactionID)

	require.Len(t, at.ledger.entries, 1)
	entry := at.ledger.entries[0]
	assert.Equal(t, models.SourceAttendance, entry.Source)
	assert.Equal(t, int64(1), *entry.SourceRef)
	assert.Equal(t, []int64{5}, at.board.records)

	require.Len(t, at.publisher.messages, 1)
	msg := at.publisher.messages[0]
	assert.Equal(t, websocket.MessageTypeCheckIn, msg.Type)
	event, ok := msg.Payload.(dto.CheckInEvent)
	require.True(t, ok)
	assert.Equal(t, "Ada", event.FirstName)
	assert.Equal(t, 1, event.Total)
}

func TestCheckIn_Twice(t *testing.T) {
	at := newAttendanceTest(t)
	ctx := context.Background()

	_, err := at.svc.CheckIn(ctx, studentActor, validToken)
	require.NoError(t, err)

	_, err = at.svc.CheckIn(ctx, studentActor, validToken)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyCheckedIn)
	assert.Len(t, at.ledger.entries, 1)
	assert.Equal(t, int64(25), at.fixture.users.users[5].PointsBalance)
}

func TestCheckIn_Rejections(t *testing.T) {
	tests := []struct {
		name         string
		setup        func(at *attendanceTest)
		actor        authz.Actor
		token        string
		wantErr      error
		wantFailures int
	}{
		{
			name:         "unknown token",
			actor:        studentActor,
			token:        "bbbb",
			wantErr:      apperrors.ErrCheckInTokenInvalid,
			wantFailures: 1,
		},
		{
			name:         "expired token",
			setup:        func(at *attendanceTest) { at.store.sessions[1].TokenExpiresAt = testNow.Add(-time.Second) },
			actor:        studentActor,
			token:        validToken,
			wantErr:      apperrors.ErrCheckInTokenExpired,
			wantFailures: 1,
		},
		{
			name:    "closed session",
			setup:   func(at *attendanceTest) { at.store.sessions[1].IsClosed = true },
			actor:   studentActor,
			token:   validToken,
			wantErr: apperrors.ErrSessionClosed,
		},
		{
			name:    "throttled",
			setup:   func(at *attendanceTest) { at.throttle.blocked = true },
			actor:   studentActor,
			token:   validToken,
			wantErr: apperrors.ErrTooManyCheckInAttempts,
		},
		{
			name:    "another tutor's student",
			actor:   otherStudent,
			token:   validToken,
			wantErr: apperrors.ErrStudentNotInScope,
		},
		{
			name:    "staff cannot check in",
			actor:   tutorActor,
			token:   validToken,
			wantErr: apperrors.ErrPermissionDenied,
		},
		{
			name:    "no active period",
			setup:   func(at *attendanceTest) { at.fixture.period.active = nil },
			actor:   studentActor,
			token:   validToken,
			wantErr: apperrors.ErrNoActivePeriod,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			at := newAttendanceTest(t)
			if tt.setup != nil {
				tt.setup(at)
			}

			_, err := at.svc.CheckIn(context.Background(), tt.actor, tt.token)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantFailures, at.throttle.failures)
			assert.Empty(t, at.store.records)
			assert.Empty(t, at.publisher.messages)
		})
	}
}

func TestCreateSession_TokenExpiresEndOfWeek(t *testing.T) {
	at := newAttendanceTest(t)

	s, err := at.svc.CreateSession(context.Background(), tutorActor, &dto.CreateSessionRequest{Title: "Week 4", SessionDate: "2025-03-06", PointsReward: 3})
	require.NoError(t, err)

	assert.Equal(t, int64(2), s.TutorID)
	assert.Len(t, s.CheckInToken, 64)
	assert.Equal(t, time.Sunday, s.TokenExpiresAt.Weekday())
	assert.Equal(t, 9, s.TokenExpiresAt.Day())
	assert.Equal(t, 23, s.TokenExpiresAt.Hour())

	_, err = at.svc.CreateSession(context.Background(), adminActor, &dto.CreateSessionRequest{Title: "x", SessionDate: "2025-03-06"})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = at.svc.CreateSession(context.Background(), adminActor, &dto.CreateSessionRequest{Title: "x", SessionDate: "2025-03-06", TutorID: ptr(int64(5))})
	assert.ErrorIs(t, err, apperrors.ErrNotATutor)

	_, err = at.svc.CreateSession(context.Background(), assistantActor, &dto.CreateSessionRequest{Title: "x", SessionDate: "2025-03-06"})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestMarkManual(t *testing.T) {
	at := newAttendanceTest(t)
	ctx := context.Background()

	_, err := at.svc.MarkManual(ctx, otherTutor, 1, 5)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	_, err = at.svc.MarkManual(ctx, assistantActor, 1, 6)
	assert.ErrorIs(t, err, apperrors.ErrStudentNotInScope)

	res, err := at.svc.MarkManual(ctx, assistantActor, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceManual, res.Attendance.Method)
	require.NotNil(t, res.Attendance.MarkedBy)
	assert.Equal(t, int64(3), *res.Attendance.MarkedBy)
}

func TestRegenerateAndClose(t *testing.T) {
	at := newAttendanceTest(t)
	ctx := context.Background()

	s, err := at.svc.RegenerateToken(ctx, tutorActor, 1)
	require.NoError(t, err)
	assert.NotEqual(t, validToken, s.CheckInToken)

	_, err = at.svc.CheckIn(ctx, studentActor, validToken)
	assert.ErrorIs(t, err, apperrors.ErrCheckInTokenInvalid)

	_, err = at.svc.CloseSession(ctx, tutorActor, 1)
	require.NoError(t, err)

	_, err = at.svc.CheckIn(ctx, studentActor, s.CheckInToken)
	assert.ErrorIs(t, err, apperrors.ErrSessionClosed)

	require.Len(t, at.publisher.messages, 2)
	assert.Equal(t, websocket.MessageTypeTokenRotated, at.publisher.messages[0].Type)
	assert.Equal(t, websocket.MessageTypeSessionClosed, at.publisher.messages[1].Type)
}
