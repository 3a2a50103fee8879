package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/mentorhub/internal/app/models"
	"github.com/yigit/mentorhub/internal/app/models/dto"
	"github.com/yigit/mentorhub/internal/db"
	"github.com/yigit/mentorhub/internal/pkg/apperrors"
	"github.com/yigit/mentorhub/internal/pkg/dberrors"
	"github.com/yigit/mentorhub/internal/pkg/helpers"
	"github.com/yigit/mentorhub/internal/pkg/logger"
)

var sessionColumns = []string{
	"s.id", "s.tutor_id", "s.title", "s.session_date", "s.points_reward", "s.check_in_token",
	"s.token_expires_at", "s.is_closed", "s.closed_at", "s.created_by", "s.created_at",
	"(SELECT COUNT(*) FROM student_attendance sa WHERE sa.session_id = s.id) AS attendee_count",
}

// AttendanceRepository handles attendance sessions and check-ins
type AttendanceRepository struct {
	db db.DBTX
}

// NewAttendanceRepository creates a new AttendanceRepository
func NewAttendanceRepository(conn db.DBTX) *AttendanceRepository {
	return &AttendanceRepository{db: conn}
}

func scanSession(row pgx.Row) (*models.AttendanceSession, error) {
	s := &models.AttendanceSession{}
	err := row.Scan(&s.ID, &s.TutorID, &s.Title, &s.SessionDate, &s.PointsReward, &s.CheckInToken,
		&s.TokenExpiresAt, &s.IsClosed, &s.ClosedAt, &s.CreatedBy, &s.CreatedAt, &s.AttendeeCount)
	return s, err
}

// CreateSession inserts a session together with its first check-in token
func (r *AttendanceRepository) CreateSession(ctx context.Context, session *models.AttendanceSession) error {
	sql, args, err := psql.Insert("attendance_sessions").
		Columns("tutor_id", "title", "session_date", "points_reward", "check_in_token", "token_expires_at", "created_by").
		Values(session.TutorID, session.Title, session.SessionDate, session.PointsReward, session.CheckInToken, session.TokenExpiresAt, session.CreatedBy).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create session query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&session.ID, &session.CreatedAt); err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return apperrors.ErrNotATutor
		}
		logger.Error().Err(err).Int64("tutorID", session.TutorID).Msg("Error creating attendance session")
		return fmt.Errorf("error creating attendance session: %w", err)
	}
	return nil
}

func (r *AttendanceRepository) getSession(ctx context.Context, where squirrel.Sqlizer) (*models.AttendanceSession, error) {
	sql, args, err := psql.Select(sessionColumns...).From("attendance_sessions s").Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get session query: %w", err)
	}

	s, err := scanSession(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrSessionNotFound
		}
		return nil, fmt.Errorf("error getting attendance session: %w", err)
	}
	return s, nil
}

// GetSession retrieves a session by ID
func (r *AttendanceRepository) GetSession(ctx context.Context, id int64) (*models.AttendanceSession, error) {
	return r.getSession(ctx, squirrel.Eq{"s.id": id})
}

// GetSessionByToken retrieves the session owning a check-in token
func (r *AttendanceRepository) GetSessionByToken(ctx context.Context, token string) (*models.AttendanceSession, error) {
	return r.getSession(ctx, squirrel.Eq{"s.check_in_token": token})
}

// ListSessions returns one page of sessions, newest first
func (r *AttendanceRepository) ListSessions(ctx context.Context, filter dto.SessionFilter) ([]*models.AttendanceSession, int64, error) {
	where := squirrel.And{}
	if filter.TutorID != nil {
		where = append(where, squirrel.Eq{"s.tutor_id": *filter.TutorID})
	}
	if filter.OpenOnly {
		where = append(where, squirrel.Eq{"s.is_closed": false})
	}

	countSQL, countArgs, err := psql.Select("COUNT(*)").From("attendance_sessions s").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count sessions query: %w", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting sessions: %w", err)
	}

	offset, limit := helpers.CalculateOffsetLimit(filter.Page, filter.Size)
	sql, args, err := psql.Select(sessionColumns...).From("attendance_sessions s").Where(where).
		OrderBy("s.session_date DESC", "s.id DESC").
		Limit(limit).Offset(offset).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list sessions query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]*models.AttendanceSession, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return sessions, total, nil
}

// RotateToken replaces the check-in token of an open session
func (r *AttendanceRepository) RotateToken(ctx context.Context, id int64, token string, expiresAt time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE attendance_sessions SET check_in_token = $1, token_expires_at = $2 WHERE id = $3 AND NOT is_closed`,
		token, expiresAt, id)
	if err != nil {
		return fmt.Errorf("error rotating check-in token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.missingOrClosed(ctx, id)
	}
	return nil
}

// CloseSession closes an open session. Closing twice yields ErrSessionClosed.
func (r *AttendanceRepository) CloseSession(ctx context.Context, id int64, at time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE attendance_sessions SET is_closed = TRUE, closed_at = $1 WHERE id = $2 AND NOT is_closed`, at, id)
	if err != nil {
		return fmt.Errorf("error closing session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.missingOrClosed(ctx, id)
	}
	return nil
}

func (r *AttendanceRepository) missingOrClosed(ctx context.Context, id int64) error {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM attendance_sessions WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("error checking session: %w", err)
	}
	if !exists {
		return apperrors.ErrSessionNotFound
	}
	return apperrors.ErrSessionClosed
}

// RecordAttendance stores a check-in and, when reward is non-nil, its points award in one tx.
// A second check-in for the same session and student rolls everything back with ErrAlreadyCheckedIn.
// It returns the student's points balance after the write (0 when no reward was given).
func (r *AttendanceRepository) RecordAttendance(ctx context.Context, record *models.StudentAttendance, reward *models.PointsTransaction) (int64, error) {
	var balance int64
	err := db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		if reward != nil {
			var err error
			if balance, err = applyLedgerEntry(ctx, tx, PointsLedger, reward); err != nil {
				return err
			}
			record.PointsTransactionID = &reward.ID
		}

		sql, args, err := psql.Insert("student_attendance").
			Columns("session_id", "student_id", "method", "marked_by", "points_transaction_id").
			Values(record.SessionID, record.StudentID, record.Method, record.MarkedBy, record.PointsTransactionID).
			Suffix("RETURNING id, checked_in_at").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build attendance insert query: %w", err)
		}

		if err := tx.QueryRow(ctx, sql, args...).Scan(&record.ID, &record.CheckedInAt); err != nil {
			if dberrors.IsDuplicateConstraintError(err, "student_attendance_session_student_key") {
				return apperrors.ErrAlreadyCheckedIn
			}
			return fmt.Errorf("error recording attendance: %w", err)
		}
		return nil
	})
	if err != nil {
		record.PointsTransactionID = nil
		return 0, err
	}
	return balance, nil
}

// ListRecords returns the check-ins of a session with student names, in check-in order
func (r *AttendanceRepository) ListRecords(ctx context.Context, sessionID int64) ([]*models.StudentAttendance, error) {
	sql, args, err := psql.Select("a.id", "a.session_id", "a.student_id", "a.method", "a.marked_by",
		"a.points_transaction_id", "a.checked_in_at", "u.first_name", "u.last_name").
		From("student_attendance a").
		Join("users u ON u.id = a.student_id").
		Where(squirrel.Eq{"a.session_id": sessionID}).
		OrderBy("a.checked_in_at", "a.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list attendance query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing attendance: %w", err)
	}
	defer rows.Close()

	records := make([]*models.StudentAttendance, 0)
	for rows.Next() {
		a := &models.StudentAttendance{}
		if err := rows.Scan(&a.ID, &a.SessionID, &a.StudentID, &a.Method, &a.MarkedBy,
			&a.PointsTransactionID, &a.CheckedInAt, &a.StudentFirstName, &a.StudentLastName); err != nil {
			return nil, fmt.Errorf("error scanning attendance: %w", err)
		}
		records = append(records, a)
	}
	return records, rows.Err()
}

// CountOpenSessions counts sessions that are not closed, optionally for one tutor
func (r *AttendanceRepository) CountOpenSessions(ctx context.Context, tutorID *int64) (int64, error) {
	q := psql.Select("COUNT(*)").From("attendance_sessions").Where(squirrel.Eq{"is_closed": false})
	if tutorID != nil {
		q = q.Where(squirrel.Eq{"tutor_id": *tutorID})
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count open sessions query: %w", err)
	}

	var n int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting open sessions: %w", err)
	}
	return n, nil
}
