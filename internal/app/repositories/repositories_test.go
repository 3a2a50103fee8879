package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/mentorhub/internal/app/models"
	"github.com/yigit/mentorhub/internal/pkg/apperrors"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint}
}

func ledgerInsertRows(id int64, at time.Time) *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "created_at"}).AddRow(id, at)
}

// anyArgs matches n query arguments of any value
func anyArgs(n int) []interface{} {
	args := make([]interface{}, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

// balanceArgs are the arguments of the guarded cached-balance update
func balanceArgs(studentID, delta int64) []interface{} {
	return []interface{}{delta, studentID, delta}
}

func TestLedgerRepository_AwardPoints(t *testing.T) {
	mock := newMock(t)
	now := time.Now()
	staff := int64(2)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO points_transactions").
		WithArgs(int64(5), int64(1), &staff, pgxmock.AnyArg(), int64(15), models.SourceManual, pgxmock.AnyArg(), "well done").
		WillReturnRows(ledgerInsertRows(77, now))
	mock.ExpectQuery("UPDATE users SET points_balance").WithArgs(balanceArgs(5, 15)...).
		WillReturnRows(pgxmock.NewRows([]string{"points_balance"}).AddRow(int64(135)))
	mock.ExpectCommit()

	entry := &models.LedgerEntry{StudentID: 5, PeriodID: 1, AwardedBy: &staff, Amount: 15, Note: "well done"}
	balance, err := NewLedgerRepository(mock).AwardPoints(context.Background(), entry)
	require.NoError(t, err)
	assert.Equal(t, int64(135), balance)
	assert.Equal(t, int64(77), entry.ID)
	assert.Equal(t, models.SourceManual, entry.Source)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepository_AwardPoints_InsufficientBalanceRollsBack(t *testing.T) {
	mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO points_transactions").WithArgs(anyArgs(8)...).
		WillReturnRows(ledgerInsertRows(78, time.Now()))
	mock.ExpectQuery("UPDATE users SET points_balance").WithArgs(balanceArgs(5, -500)...).
		WillReturnRows(pgxmock.NewRows([]string{"points_balance"}))
	mock.ExpectRollback()

	entry := &models.LedgerEntry{StudentID: 5, PeriodID: 1, Amount: -500}
	_, err := NewLedgerRepository(mock).AwardPoints(context.Background(), entry)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientPoints)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepository_AwardExperience_UsesExperienceLedger(t *testing.T) {
	mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO experience_transactions").WithArgs(anyArgs(8)...).
		WillReturnRows(ledgerInsertRows(3, time.Now()))
	mock.ExpectQuery("UPDATE users SET experience_total").WithArgs(balanceArgs(5, 50)...).
		WillReturnRows(pgxmock.NewRows([]string{"experience_total"}).AddRow(int64(350)))
	mock.ExpectCommit()

	total, err := NewLedgerRepository(mock).AwardExperience(context.Background(), &models.LedgerEntry{StudentID: 5, PeriodID: 1, Amount: 50})
	require.NoError(t, err)
	assert.Equal(t, int64(350), total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepository_PeriodTotals_TiesShareRank(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery("SELECT (.+) FROM points_transactions t JOIN users u (.+) ORDER BY total DESC, u.id").WithArgs(int64(9)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "first_name", "last_name", "total"}).
			AddRow(int64(4), "Grace", "Hopper", int64(50)).
			AddRow(int64(5), "Ada", "Lovelace", int64(30)).
			AddRow(int64(6), "Alan", "Turing", int64(30)).
			AddRow(int64(7), "Edsger", "Dijkstra", int64(10)))

	entries, err := NewLedgerRepository(mock).PeriodTotals(context.Background(), 9, 0)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	ranks := make([]int, 0, len(entries))
	for _, e := range entries {
		ranks = append(ranks, e.Rank)
	}
	assert.Equal(t, []int{1, 2, 2, 4}, ranks)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepository_RecordAttendance_CommitsAttendanceAndReward(t *testing.T) {
	mock := newMock(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO points_transactions").
		WithArgs(int64(5), int64(1), pgxmock.AnyArg(), pgxmock.AnyArg(), int64(5), models.SourceAttendance, pgxmock.AnyArg(), "").
		WillReturnRows(ledgerInsertRows(90, now))
	mock.ExpectQuery("UPDATE users SET points_balance").WithArgs(balanceArgs(5, 5)...).
		WillReturnRows(pgxmock.NewRows([]string{"points_balance"}).AddRow(int64(25)))
	mock.ExpectQuery("INSERT INTO student_attendance").
		WithArgs(int64(10), int64(5), models.AttendanceQR, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "checked_in_at"}).AddRow(int64(1), now))
	mock.ExpectCommit()

	record := &models.StudentAttendance{SessionID: 10, StudentID: 5, Method: models.AttendanceQR}
	reward := &models.LedgerEntry{StudentID: 5, PeriodID: 1, Amount: 5, Source: models.SourceAttendance}
	balance, err := NewAttendanceRepository(mock).RecordAttendance(context.Background(), record, reward)
	require.NoError(t, err)
	assert.Equal(t, int64(25), balance)
	assert.Equal(t, int64(1), record.ID)
	require.NotNil(t, record.PointsTransactionID)
	assert.Equal(t, int64(90), *record.PointsTransactionID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepository_RecordAttendance_DuplicateRollsBackReward(t *testing.T) {
	mock := newMock(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO points_transactions").WithArgs(anyArgs(8)...).
		WillReturnRows(ledgerInsertRows(91, now))
	mock.ExpectQuery("UPDATE users SET points_balance").WithArgs(balanceArgs(5, 5)...).
		WillReturnRows(pgxmock.NewRows([]string{"points_balance"}).AddRow(int64(30)))
	mock.ExpectQuery("INSERT INTO student_attendance").WithArgs(anyArgs(5)...).
		WillReturnError(uniqueViolation("student_attendance_session_student_key"))
	mock.ExpectRollback()

	record := &models.StudentAttendance{SessionID: 10, StudentID: 5, Method: models.AttendanceQR}
	reward := &models.LedgerEntry{StudentID: 5, PeriodID: 1, Amount: 5, Source: models.SourceAttendance}
	_, err := NewAttendanceRepository(mock).RecordAttendance(context.Background(), record, reward)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyCheckedIn)
	assert.Nil(t, record.PointsTransactionID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepository_CloseSession_AlreadyClosed(t *testing.T) {
	mock := newMock(t)

	mock.ExpectExec("UPDATE attendance_sessions SET is_closed = TRUE").WithArgs(pgxmock.AnyArg(), int64(10)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery("SELECT EXISTS").WithArgs(int64(10)).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	err := NewAttendanceRepository(mock).CloseSession(context.Background(), 10, time.Now())
	assert.ErrorIs(t, err, apperrors.ErrSessionClosed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func eventRows(e models.Event) *pgxmock.Rows {
	return pgxmock.NewRows(eventColumns).AddRow(
		e.ID, e.Title, e.Description, e.Location, e.StartsAt, e.EndsAt, e.RegistrationDeadline,
		e.Capacity, e.RegisteredCount, e.PointsReward, e.Status, e.CreatedBy, e.CreatedAt, e.UpdatedAt,
	)
}

func TestEventRepository_Register(t *testing.T) {
	mock := newMock(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE part2_events").WithArgs(int64(3), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(3)))
	mock.ExpectQuery("INSERT INTO part2_event_participants").WithArgs(int64(3), int64(5)).
		WillReturnRows(pgxmock.NewRows(participantColumns).AddRow(int64(40), int64(3), int64(5), now, false, (*time.Time)(nil)))
	mock.ExpectCommit()

	p, err := NewEventRepository(mock).Register(context.Background(), 3, 5, now)
	require.NoError(t, err)
	assert.Equal(t, int64(40), p.ID)
	assert.False(t, p.Attended)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_Register_Rejections(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)

	tests := []struct {
		name  string
		event models.Event
		want  error
	}{
		{
			name:  "full",
			event: models.Event{ID: 3, Capacity: 2, RegisteredCount: 2, Status: models.EventOpen},
			want:  apperrors.ErrEventFull,
		},
		{
			name:  "closed",
			event: models.Event{ID: 3, Capacity: 2, Status: models.EventCancelled},
			want:  apperrors.ErrEventClosed,
		},
		{
			name:  "deadline passed",
			event: models.Event{ID: 3, Capacity: 2, Status: models.EventOpen, RegistrationDeadline: &past},
			want:  apperrors.ErrRegistrationClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)

			mock.ExpectBegin()
			mock.ExpectQuery("UPDATE part2_events").WithArgs(int64(3), pgxmock.AnyArg()).
				WillReturnRows(pgxmock.NewRows([]string{"id"}))
			mock.ExpectQuery("SELECT (.+) FROM part2_events").WithArgs(int64(3)).
				WillReturnRows(eventRows(tt.event))
			mock.ExpectRollback()

			_, err := NewEventRepository(mock).Register(context.Background(), 3, 5, now)
			assert.ErrorIs(t, err, tt.want)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEventRepository_Register_DuplicateReleasesSeat(t *testing.T) {
	mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE part2_events").WithArgs(int64(3), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(3)))
	mock.ExpectQuery("INSERT INTO part2_event_participants").WithArgs(int64(3), int64(5)).
		WillReturnError(uniqueViolation("part2_event_participants_event_student_key"))
	mock.ExpectRollback()

	_, err := NewEventRepository(mock).Register(context.Background(), 3, 5, time.Now())
	assert.ErrorIs(t, err, apperrors.ErrAlreadyRegistered)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func statusRows(status models.EventStatus) *pgxmock.Rows {
	return pgxmock.NewRows([]string{"status"}).AddRow(status)
}

func TestEventRepository_Unregister(t *testing.T) {
	mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM part2_events").WithArgs(int64(3)).
		WillReturnRows(statusRows(models.EventOpen))
	mock.ExpectQuery("SELECT attended FROM part2_event_participants").WithArgs(int64(3), int64(5)).
		WillReturnRows(pgxmock.NewRows([]string{"attended"}).AddRow(false))
	mock.ExpectExec("DELETE FROM part2_event_participants").WithArgs(int64(3), int64(5)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("UPDATE part2_events SET registered_count").WithArgs(int64(3)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err := NewEventRepository(mock).Unregister(context.Background(), 3, 5)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_Unregister_OnlyOpenEvents(t *testing.T) {
	for _, status := range []models.EventStatus{models.EventClosed, models.EventCancelled, models.EventCompleted} {
		t.Run(string(status), func(t *testing.T) {
			mock := newMock(t)

			mock.ExpectBegin()
			mock.ExpectQuery("SELECT status FROM part2_events").WithArgs(int64(3)).
				WillReturnRows(statusRows(status))
			mock.ExpectRollback()

			err := NewEventRepository(mock).Unregister(context.Background(), 3, 5)
			assert.ErrorIs(t, err, apperrors.ErrEventClosed)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEventRepository_Unregister_UnknownEvent(t *testing.T) {
	mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM part2_events").WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows([]string{"status"}))
	mock.ExpectRollback()

	err := NewEventRepository(mock).Unregister(context.Background(), 3, 5)
	assert.ErrorIs(t, err, apperrors.ErrEventNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_Unregister_AttendedIsKept(t *testing.T) {
	mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM part2_events").WithArgs(int64(3)).
		WillReturnRows(statusRows(models.EventOpen))
	mock.ExpectQuery("SELECT attended FROM part2_event_participants").WithArgs(int64(3), int64(5)).
		WillReturnRows(pgxmock.NewRows([]string{"attended"}).AddRow(true))
	mock.ExpectRollback()

	err := NewEventRepository(mock).Unregister(context.Background(), 3, 5)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyMarkedAttended)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWishRepository_Review_InsufficientPointsKeepsPending(t *testing.T) {
	mock := newMock(t)
	now := time.Now()
	reviewer := int64(2)

	wishRow := pgxmock.NewRows([]string{"id", "student_id", "title", "description", "points_cost", "status",
		"reviewed_by", "review_note", "reviewed_at", "fulfilled_at", "created_at", "updated_at"}).
		AddRow(int64(8), int64(5), "Robot kit", "", int64(500), models.WishApproved,
			&reviewer, "", &now, (*time.Time)(nil), now, now)

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE wishes w SET status").WithArgs(anyArgs(7)...).WillReturnRows(wishRow)
	mock.ExpectQuery("INSERT INTO points_transactions").WithArgs(anyArgs(8)...).
		WillReturnRows(ledgerInsertRows(99, now))
	mock.ExpectQuery("UPDATE users SET points_balance").WithArgs(balanceArgs(5, -500)...).
		WillReturnRows(pgxmock.NewRows([]string{"points_balance"}))
	mock.ExpectRollback()

	charge := &models.LedgerEntry{StudentID: 5, PeriodID: 1, Amount: -500, Source: models.SourceWish}
	_, err := NewWishRepository(mock).Review(context.Background(), 8, models.WishApproved, reviewer, "", now, charge)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientPoints)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_ReconcileBalances(t *testing.T) {
	mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("SET points_balance").WillReturnResult(pgxmock.NewResult("UPDATE", 2))
	mock.ExpectExec("SET experience_total").WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectCommit()

	points, experience, err := NewUserRepository(mock).ReconcileBalances(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), points)
	assert.Equal(t, int64(0), experience)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPeriodRepository_Activate_NotFoundRollsBack(t *testing.T) {
	mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE periods SET is_active = FALSE").WithArgs(int64(9)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery("UPDATE periods SET is_active = \\$1").WithArgs(true, int64(9)).
		WillReturnRows(pgxmock.NewRows(periodColumns))
	mock.ExpectRollback()

	_, err := NewPeriodRepository(mock).Activate(context.Background(), 9)
	assert.ErrorIs(t, err, apperrors.ErrPeriodNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepository_RotateToken_RevokedConcurrently(t *testing.T) {
	mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE refresh_tokens SET is_revoked = TRUE").WithArgs("old").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	err := NewTokenRepository(mock).RotateToken(context.Background(), "old", "new", 1, time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRate(t *testing.T) {
	assert.Equal(t, 0.0, AttendanceRate(3, 0))
	assert.Equal(t, 90.0, AttendanceRate(9, 10))
	assert.Equal(t, 66.7, AttendanceRate(2, 3))
}
