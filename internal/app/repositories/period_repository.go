package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/mentorhub/internal/app/models"
	"github.com/yigit/mentorhub/internal/db"
	"github.com/yigit/mentorhub/internal/pkg/apperrors"
	"github.com/yigit/mentorhub/internal/pkg/dberrors"
	"github.com/yigit/mentorhub/internal/pkg/logger"
)

var periodColumns = []string{"id", "name", "starts_on", "ends_on", "is_active", "created_at"}

// PeriodRepository handles period database operations
type PeriodRepository struct {
	db db.DBTX
}

// NewPeriodRepository creates a new PeriodRepository
func NewPeriodRepository(conn db.DBTX) *PeriodRepository {
	return &PeriodRepository{db: conn}
}

func scanPeriod(row pgx.Row) (*models.Period, error) {
	p := &models.Period{}
	err := row.Scan(&p.ID, &p.Name, &p.StartsOn, &p.EndsOn, &p.IsActive, &p.CreatedAt)
	return p, err
}

// Create inserts a period. When activate is set the previous active period is switched off in the same tx.
func (r *PeriodRepository) Create(ctx context.Context, period *models.Period, activate bool) error {
	return db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		if activate {
			if _, err := tx.Exec(ctx, `UPDATE periods SET is_active = FALSE WHERE is_active`); err != nil {
				return fmt.Errorf("failed to deactivate periods: %w", err)
			}
		}

		sql, args, err := psql.Insert("periods").
			Columns("name", "starts_on", "ends_on", "is_active").
			Values(period.Name, period.StartsOn, period.EndsOn, activate).
			Suffix("RETURNING id, is_active, created_at").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build create period query: %w", err)
		}

		if err := tx.QueryRow(ctx, sql, args...).Scan(&period.ID, &period.IsActive, &period.CreatedAt); err != nil {
			if dberrors.IsDuplicateConstraintError(err, "periods_name_key") {
				return apperrors.ErrPeriodNameTaken
			}
			logger.Error().Err(err).Str("name", period.Name).Msg("Error creating period")
			return fmt.Errorf("error creating period: %w", err)
		}
		return nil
	})
}

// GetByID retrieves a period by ID
func (r *PeriodRepository) GetByID(ctx context.Context, id int64) (*models.Period, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id}, apperrors.ErrPeriodNotFound)
}

// GetActive retrieves the single active period
func (r *PeriodRepository) GetActive(ctx context.Context) (*models.Period, error) {
	return r.getOne(ctx, squirrel.Eq{"is_active": true}, apperrors.ErrNoActivePeriod)
}

func (r *PeriodRepository) getOne(ctx context.Context, where squirrel.Sqlizer, notFound error) (*models.Period, error) {
	sql, args, err := psql.Select(periodColumns...).From("periods").Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get period query: %w", err)
	}

	p, err := scanPeriod(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound
		}
		return nil, fmt.Errorf("error getting period: %w", err)
	}
	return p, nil
}

// List returns all periods, newest first
func (r *PeriodRepository) List(ctx context.Context) ([]*models.Period, error) {
	sql, args, err := psql.Select(periodColumns...).From("periods").OrderBy("starts_on DESC", "id DESC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list periods query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing periods: %w", err)
	}
	defer rows.Close()

	periods := make([]*models.Period, 0)
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning period: %w", err)
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

// Activate makes id the only active period
func (r *PeriodRepository) Activate(ctx context.Context, id int64) (*models.Period, error) {
	var period *models.Period
	err := db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `UPDATE periods SET is_active = FALSE WHERE is_active AND id <> $1`, id); err != nil {
			return fmt.Errorf("failed to deactivate periods: %w", err)
		}

		sql, args, err := psql.Update("periods").
			Set("is_active", true).
			Where(squirrel.Eq{"id": id}).
			Suffix("RETURNING " + joinColumns(periodColumns)).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build activate period query: %w", err)
		}

		p, err := scanPeriod(tx.QueryRow(ctx, sql, args...))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.ErrPeriodNotFound
			}
			return fmt.Errorf("error activating period: %w", err)
		}
		period = p
		return nil
	})
	return period, err
}
