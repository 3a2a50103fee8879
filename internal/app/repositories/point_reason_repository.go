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
)

var pointReasonColumns = []string{"id", "name", "description", "default_amount", "is_active", "created_at", "updated_at"}

// PointReasonRepository handles point reason database operations
type PointReasonRepository struct {
	db db.DBTX
}

// NewPointReasonRepository creates a new PointReasonRepository
func NewPointReasonRepository(conn db.DBTX) *PointReasonRepository {
	return &PointReasonRepository{db: conn}
}

func scanPointReason(row pgx.Row) (*models.PointReason, error) {
	pr := &models.PointReason{}
	err := row.Scan(&pr.ID, &pr.Name, &pr.Description, &pr.DefaultAmount, &pr.IsActive, &pr.CreatedAt, &pr.UpdatedAt)
	return pr, err
}

// Create inserts a point reason
func (r *PointReasonRepository) Create(ctx context.Context, reason *models.PointReason) error {
	sql, args, err := psql.Insert("point_reasons").
		Columns("name", "description", "default_amount", "is_active").
		Values(reason.Name, reason.Description, reason.DefaultAmount, reason.IsActive).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create point reason query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&reason.ID, &reason.CreatedAt, &reason.UpdatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "point_reasons_name_key") {
			return apperrors.ErrPointReasonExists
		}
		return fmt.Errorf("error creating point reason: %w", err)
	}
	return nil
}

// CreateIfMissing inserts reason unless one with the same name exists. It reports whether a row was added.
func (r *PointReasonRepository) CreateIfMissing(ctx context.Context, reason *models.PointReason) (bool, error) {
	sql, args, err := psql.Insert("point_reasons").
		Columns("name", "description", "default_amount", "is_active").
		Values(reason.Name, reason.Description, reason.DefaultAmount, reason.IsActive).
		Suffix("ON CONFLICT (name) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build seed point reason query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("error seeding point reason: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// GetByID retrieves a point reason by ID
func (r *PointReasonRepository) GetByID(ctx context.Context, id int64) (*models.PointReason, error) {
	sql, args, err := psql.Select(pointReasonColumns...).From("point_reasons").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get point reason query: %w", err)
	}

	pr, err := scanPointReason(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrPointReasonNotFound
		}
		return nil, fmt.Errorf("error getting point reason: %w", err)
	}
	return pr, nil
}

// List returns point reasons ordered by name
func (r *PointReasonRepository) List(ctx context.Context, activeOnly bool) ([]*models.PointReason, error) {
	q := psql.Select(pointReasonColumns...).From("point_reasons").OrderBy("name")
	if activeOnly {
		q = q.Where(squirrel.Eq{"is_active": true})
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list point reasons query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing point reasons: %w", err)
	}
	defer rows.Close()

	reasons := make([]*models.PointReason, 0)
	for rows.Next() {
		pr, err := scanPointReason(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning point reason: %w", err)
		}
		reasons = append(reasons, pr)
	}
	return reasons, rows.Err()
}

// Update persists all editable fields of a point reason
func (r *PointReasonRepository) Update(ctx context.Context, reason *models.PointReason) error {
	sql, args, err := psql.Update("point_reasons").
		Set("name", reason.Name).
		Set("description", reason.Description).
		Set("default_amount", reason.DefaultAmount).
		Set("is_active", reason.IsActive).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": reason.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update point reason query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&reason.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrPointReasonNotFound
		}
		if dberrors.IsDuplicateConstraintError(err, "point_reasons_name_key") {
			return apperrors.ErrPointReasonExists
		}
		return fmt.Errorf("error updating point reason: %w", err)
	}
	return nil
}

// Deactivate switches a reason off. Ledger rows keep referencing it.
func (r *PointReasonRepository) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE point_reasons SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deactivating point reason: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrPointReasonNotFound
	}
	return nil
}
