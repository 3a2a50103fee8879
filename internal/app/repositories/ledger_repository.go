package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/mentorhub/internal/app/models"
	"github.com/yigit/mentorhub/internal/db"
	"github.com/yigit/mentorhub/internal/pkg/helpers"
	"github.com/yigit/mentorhub/internal/pkg/logger"
)

// LedgerRepository handles the points and experience ledgers
type LedgerRepository struct {
	db db.DBTX
}

// NewLedgerRepository creates a new LedgerRepository
func NewLedgerRepository(conn db.DBTX) *LedgerRepository {
	return &LedgerRepository{db: conn}
}

// Award writes entry to the ledger of kind and moves the student's cached total in one tx.
// It returns the new cached total.
func (r *LedgerRepository) Award(ctx context.Context, kind LedgerKind, entry *models.LedgerEntry) (int64, error) {
	var balance int64
	err := db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		balance, err = applyLedgerEntry(ctx, tx, kind, entry)
		return err
	})
	if err != nil {
		logger.Debug().Err(err).Int64("studentID", entry.StudentID).Int64("amount", entry.Amount).Msg("Ledger award rolled back")
		return 0, err
	}
	return balance, nil
}

// AwardPoints writes a points_transactions row and updates users.points_balance
func (r *LedgerRepository) AwardPoints(ctx context.Context, entry *models.PointsTransaction) (int64, error) {
	return r.Award(ctx, PointsLedger, entry)
}

// AwardExperience writes an experience_transactions row and updates users.experience_total
func (r *LedgerRepository) AwardExperience(ctx context.Context, entry *models.ExperienceTransaction) (int64, error) {
	return r.Award(ctx, ExperienceLedger, entry)
}

// ListTransactions returns a student's ledger rows, newest first, and the total count
func (r *LedgerRepository) ListTransactions(ctx context.Context, kind LedgerKind, studentID int64, page, size int) ([]*models.LedgerEntry, int64, error) {
	var total int64
	countSQL, countArgs, err := psql.Select("COUNT(*)").From(kind.table()).Where(squirrel.Eq{"student_id": studentID}).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count ledger query: %w", err)
	}
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting ledger rows: %w", err)
	}

	offset, limit := helpers.CalculateOffsetLimit(page, size)
	sql, args, err := psql.Select(ledgerColumns...).From(kind.table()).
		Where(squirrel.Eq{"student_id": studentID}).
		OrderBy("created_at DESC", "id DESC").
		Limit(limit).Offset(offset).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list ledger query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing ledger rows: %w", err)
	}
	defer rows.Close()

	entries := make([]*models.LedgerEntry, 0)
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning ledger row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// Sum returns the sum of a student's ledger rows
func (r *LedgerRepository) Sum(ctx context.Context, kind LedgerKind, studentID int64) (int64, error) {
	var sum int64
	sql := fmt.Sprintf(`SELECT COALESCE(SUM(amount), 0) FROM %s WHERE student_id = $1`, kind.table())
	if err := r.db.QueryRow(ctx, sql, studentID).Scan(&sum); err != nil {
		return 0, fmt.Errorf("error summing ledger: %w", err)
	}
	return sum, nil
}

// PeriodTotals ranks students by net points earned in a period, ties by student ID.
// Tied students share a competition rank. A limit of 0 returns everyone.
func (r *LedgerRepository) PeriodTotals(ctx context.Context, periodID int64, limit uint64) ([]models.LeaderboardEntry, error) {
	q := psql.Select("u.id", "u.first_name", "u.last_name", "SUM(t.amount) AS total").
		From("points_transactions t").
		Join("users u ON u.id = t.student_id").
		Where(squirrel.Eq{"t.period_id": periodID}).
		GroupBy("u.id", "u.first_name", "u.last_name").
		OrderBy("total DESC", "u.id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build leaderboard query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error computing leaderboard: %w", err)
	}
	defer rows.Close()

	entries := make([]models.LeaderboardEntry, 0)
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.StudentID, &e.FirstName, &e.LastName, &e.Points); err != nil {
			return nil, fmt.Errorf("error scanning leaderboard row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	models.AssignRanks(entries)
	return entries, nil
}

// StudentRank returns the competition rank of a student in a period. ok is false when the student has no rows.
func (r *LedgerRepository) StudentRank(ctx context.Context, periodID, studentID int64) (rank int, ok bool, err error) {
	const query = `
WITH totals AS (
	SELECT student_id, SUM(amount) AS total
	FROM points_transactions
	WHERE period_id = $1
	GROUP BY student_id
)
SELECT 1 + (SELECT COUNT(*) FROM totals o WHERE o.total > t.total)
FROM totals t
WHERE t.student_id = $2`

	if err := r.db.QueryRow(ctx, query, periodID, studentID).Scan(&rank); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("error computing rank: %w", err)
	}
	return rank, true, nil
}
