package repositories

import (
	"context"
	"fmt"

	"github.com/yigit/mentorhub/internal/app/models"
	"github.com/yigit/mentorhub/internal/app/models/dto"
	"github.com/yigit/mentorhub/internal/db"
)

// ReportRepository runs read-only aggregate queries for reports
type ReportRepository struct {
	db db.DBTX
}

// NewReportRepository creates a new ReportRepository
func NewReportRepository(conn db.DBTX) *ReportRepository {
	return &ReportRepository{db: conn}
}

// sessions and event attendance are attributed to a period by date; ledger rows by period_id
const studentPerformanceSQL = `
SELECT
	u.id,
	u.first_name,
	u.last_name,
	u.tutor_id,
	COALESCE((SELECT SUM(pt.amount) FROM points_transactions pt
		WHERE pt.student_id = u.id AND pt.period_id = p.id AND pt.amount > 0), 0),
	COALESCE((SELECT SUM(et.amount) FROM experience_transactions et
		WHERE et.student_id = u.id AND et.period_id = p.id), 0),
	(SELECT COUNT(*) FROM student_attendance sa
		JOIN attendance_sessions s ON s.id = sa.session_id
		WHERE sa.student_id = u.id AND s.session_date BETWEEN p.starts_on AND p.ends_on),
	(SELECT COUNT(*) FROM attendance_sessions s
		WHERE s.tutor_id = u.tutor_id AND s.session_date BETWEEN p.starts_on AND p.ends_on),
	(SELECT COUNT(*) FROM part2_event_participants ep
		WHERE ep.student_id = u.id AND ep.attended
		AND ep.attended_at::date BETWEEN p.starts_on AND p.ends_on)
FROM users u
CROSS JOIN periods p
WHERE p.id = $1
  AND u.role_type = 'STUDENT'
  AND u.is_active
  AND ($2::bigint IS NULL OR u.tutor_id = $2)
  AND ($3::bigint IS NULL OR u.id = $3)
ORDER BY u.last_name, u.first_name, u.id`

// StudentPerformance aggregates activity per student for a period. tutorID and studentID narrow the result when set.
func (r *ReportRepository) StudentPerformance(ctx context.Context, periodID int64, tutorID, studentID *int64) ([]dto.StudentPerformance, error) {
	rows, err := r.db.Query(ctx, studentPerformanceSQL, periodID, tutorID, studentID)
	if err != nil {
		return nil, fmt.Errorf("error building performance report: %w", err)
	}
	defer rows.Close()

	result := make([]dto.StudentPerformance, 0)
	for rows.Next() {
		var s dto.StudentPerformance
		if err := rows.Scan(&s.StudentID, &s.FirstName, &s.LastName, &s.TutorID, &s.PointsEarned,
			&s.ExperienceEarned, &s.SessionsAttended, &s.SessionsHeld, &s.EventsAttended); err != nil {
			return nil, fmt.Errorf("error scanning performance row: %w", err)
		}
		s.AttendanceRate = AttendanceRate(s.SessionsAttended, s.SessionsHeld)
		result = append(result, s)
	}
	return result, rows.Err()
}

// AttendanceRate is attended/held as a percentage rounded to one decimal place
func AttendanceRate(attended, held int64) float64 {
	if held <= 0 {
		return 0
	}
	rate := float64(attended) * 1000 / float64(held)
	return float64(int64(rate+0.5)) / 10
}

// CountStudents counts active students, optionally only one tutor's
func (r *ReportRepository) CountStudents(ctx context.Context, tutorID *int64) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE role_type = $1 AND is_active AND ($2::bigint IS NULL OR tutor_id = $2)`,
		models.RoleStudent, tutorID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("error counting students: %w", err)
	}
	return n, nil
}
