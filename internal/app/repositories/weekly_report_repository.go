package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/mentorhub/internal/app/models"
	"github.com/yigit/mentorhub/internal/db"
	"github.com/yigit/mentorhub/internal/pkg/apperrors"
	"github.com/yigit/mentorhub/internal/pkg/helpers"
)

var weeklyReportColumns = []string{
	"id", "tutor_id", "week_start", "summary", "highlights", "challenges", "next_steps", "created_at", "updated_at",
}

// WeeklyReportRepository handles tutors' weekly reports
type WeeklyReportRepository struct {
	db db.DBTX
}

// NewWeeklyReportRepository creates a new WeeklyReportRepository
func NewWeeklyReportRepository(conn db.DBTX) *WeeklyReportRepository {
	return &WeeklyReportRepository{db: conn}
}

func scanWeeklyReport(row pgx.Row) (*models.WeeklyReport, error) {
	w := &models.WeeklyReport{}
	err := row.Scan(&w.ID, &w.TutorID, &w.WeekStart, &w.Summary, &w.Highlights, &w.Challenges, &w.NextSteps, &w.CreatedAt, &w.UpdatedAt)
	return w, err
}

// Upsert creates the tutor's report for the week or replaces its content
func (r *WeeklyReportRepository) Upsert(ctx context.Context, report *models.WeeklyReport) error {
	sql, args, err := psql.Insert("weekly_reports").
		Columns("tutor_id", "week_start", "summary", "highlights", "challenges", "next_steps").
		Values(report.TutorID, report.WeekStart, report.Summary, report.Highlights, report.Challenges, report.NextSteps).
		Suffix(`ON CONFLICT (tutor_id, week_start) DO UPDATE SET
	summary = EXCLUDED.summary,
	highlights = EXCLUDED.highlights,
	challenges = EXCLUDED.challenges,
	next_steps = EXCLUDED.next_steps,
	updated_at = NOW()
RETURNING id, created_at, updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build upsert weekly report query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&report.ID, &report.CreatedAt, &report.UpdatedAt); err != nil {
		return fmt.Errorf("error saving weekly report: %w", err)
	}
	return nil
}

// GetByID retrieves a weekly report by ID
func (r *WeeklyReportRepository) GetByID(ctx context.Context, id int64) (*models.WeeklyReport, error) {
	sql, args, err := psql.Select(weeklyReportColumns...).From("weekly_reports").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get weekly report query: %w", err)
	}

	w, err := scanWeeklyReport(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrWeeklyReportNotFound
		}
		return nil, fmt.Errorf("error getting weekly report: %w", err)
	}
	return w, nil
}

// List returns one page of weekly reports, latest week first. From and To bound week_start inclusively.
func (r *WeeklyReportRepository) List(ctx context.Context, tutorID *int64, from, to *time.Time, page, size int) ([]*models.WeeklyReport, int64, error) {
	where := squirrel.And{}
	if tutorID != nil {
		where = append(where, squirrel.Eq{"tutor_id": *tutorID})
	}
	if from != nil {
		where = append(where, squirrel.GtOrEq{"week_start": *from})
	}
	if to != nil {
		where = append(where, squirrel.LtOrEq{"week_start": *to})
	}

	countSQL, countArgs, err := psql.Select("COUNT(*)").From("weekly_reports").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count weekly reports query: %w", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting weekly reports: %w", err)
	}

	offset, limit := helpers.CalculateOffsetLimit(page, size)
	sql, args, err := psql.Select(weeklyReportColumns...).From("weekly_reports").Where(where).
		OrderBy("week_start DESC", "tutor_id").
		Limit(limit).Offset(offset).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list weekly reports query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing weekly reports: %w", err)
	}
	defer rows.Close()

	reports := make([]*models.WeeklyReport, 0)
	for rows.Next() {
		w, err := scanWeeklyReport(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning weekly report: %w", err)
		}
		reports = append(reports, w)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

// LatestWeek returns the most recent week a tutor reported on, or nil
func (r *WeeklyReportRepository) LatestWeek(ctx context.Context, tutorID int64) (*time.Time, error) {
	var week *time.Time
	if err := r.db.QueryRow(ctx, `SELECT MAX(week_start) FROM weekly_reports WHERE tutor_id = $1`, tutorID).Scan(&week); err != nil {
		return nil, fmt.Errorf("error loading latest weekly report: %w", err)
	}
	return week, nil
}
