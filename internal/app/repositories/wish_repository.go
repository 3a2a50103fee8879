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
	"github.com/yigit/mentorhub/internal/pkg/helpers"
)

var wishColumns = []string{
	"w.id", "w.student_id", "w.title", "w.description", "w.points_cost", "w.status", "w.reviewed_by",
	"w.review_note", "w.reviewed_at", "w.fulfilled_at", "w.created_at", "w.updated_at",
}

// WishRepository handles student wishes
type WishRepository struct {
	db db.DBTX
}

// NewWishRepository creates a new WishRepository
func NewWishRepository(conn db.DBTX) *WishRepository {
	return &WishRepository{db: conn}
}

func scanWish(row pgx.Row) (*models.Wish, error) {
	w := &models.Wish{}
	err := row.Scan(&w.ID, &w.StudentID, &w.Title, &w.Description, &w.PointsCost, &w.Status, &w.ReviewedBy,
		&w.ReviewNote, &w.ReviewedAt, &w.FulfilledAt, &w.CreatedAt, &w.UpdatedAt)
	return w, err
}

// Create inserts a pending wish
func (r *WishRepository) Create(ctx context.Context, w *models.Wish) error {
	w.Status = models.WishPending
	sql, args, err := psql.Insert("wishes").
		Columns("student_id", "title", "description", "points_cost", "status").
		Values(w.StudentID, w.Title, w.Description, w.PointsCost, w.Status).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create wish query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&w.ID, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return fmt.Errorf("error creating wish: %w", err)
	}
	return nil
}

// GetByID retrieves a wish by ID
func (r *WishRepository) GetByID(ctx context.Context, id int64) (*models.Wish, error) {
	return getWish(ctx, r.db, id)
}

func getWish(ctx context.Context, q db.DBTX, id int64) (*models.Wish, error) {
	sql, args, err := psql.Select(wishColumns...).From("wishes w").Where(squirrel.Eq{"w.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get wish query: %w", err)
	}

	w, err := scanWish(q.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrWishNotFound
		}
		return nil, fmt.Errorf("error getting wish: %w", err)
	}
	return w, nil
}

func wishWhere(filter dto.WishFilter) squirrel.And {
	where := squirrel.And{}
	if filter.Status != nil {
		where = append(where, squirrel.Eq{"w.status": *filter.Status})
	}
	if filter.StudentID != nil {
		where = append(where, squirrel.Eq{"w.student_id": *filter.StudentID})
	}
	if filter.TutorID != nil {
		where = append(where, squirrel.Eq{"u.tutor_id": *filter.TutorID})
	}
	return where
}

// List returns one page of wishes, newest first
func (r *WishRepository) List(ctx context.Context, filter dto.WishFilter) ([]*models.Wish, int64, error) {
	where := wishWhere(filter)

	countSQL, countArgs, err := psql.Select("COUNT(*)").From("wishes w").
		Join("users u ON u.id = w.student_id").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count wishes query: %w", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting wishes: %w", err)
	}

	offset, limit := helpers.CalculateOffsetLimit(filter.Page, filter.Size)
	sql, args, err := psql.Select(wishColumns...).From("wishes w").
		Join("users u ON u.id = w.student_id").
		Where(where).
		OrderBy("w.created_at DESC", "w.id DESC").
		Limit(limit).Offset(offset).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list wishes query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing wishes: %w", err)
	}
	defer rows.Close()

	wishes := make([]*models.Wish, 0)
	for rows.Next() {
		w, err := scanWish(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning wish: %w", err)
		}
		wishes = append(wishes, w)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return wishes, total, nil
}

// CountPending counts pending wishes, optionally only for one tutor's students
func (r *WishRepository) CountPending(ctx context.Context, tutorID *int64) (int64, error) {
	status := models.WishPending
	where := wishWhere(dto.WishFilter{Status: &status, TutorID: tutorID})
	sql, args, err := psql.Select("COUNT(*)").From("wishes w").
		Join("users u ON u.id = w.student_id").Where(where).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count pending wishes query: %w", err)
	}

	var n int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting pending wishes: %w", err)
	}
	return n, nil
}

// Review moves a pending wish to APPROVED or REJECTED. When charge is non-nil the
// points are deducted in the same tx; an insufficient balance leaves the wish pending.
func (r *WishRepository) Review(ctx context.Context, id int64, status models.WishStatus, reviewerID int64, note string, at time.Time, charge *models.PointsTransaction) (*models.Wish, error) {
	var wish *models.Wish
	err := db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		sql, args, err := psql.Update("wishes w").
			Set("status", status).
			Set("reviewed_by", reviewerID).
			Set("review_note", note).
			Set("reviewed_at", at).
			Set("updated_at", at).
			Where(squirrel.Eq{"w.id": id, "w.status": models.WishPending}).
			Suffix("RETURNING " + joinColumns(wishColumns)).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build review wish query: %w", err)
		}

		w, err := scanWish(tx.QueryRow(ctx, sql, args...))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return wishTransitionError(ctx, tx, id)
			}
			return fmt.Errorf("error reviewing wish: %w", err)
		}

		if charge != nil {
			charge.SourceRef = &w.ID
			if _, err := applyLedgerEntry(ctx, tx, PointsLedger, charge); err != nil {
				return err
			}
		}
		wish = w
		return nil
	})
	return wish, err
}

// Fulfill moves an approved wish to FULFILLED
func (r *WishRepository) Fulfill(ctx context.Context, id int64, at time.Time) (*models.Wish, error) {
	sql, args, err := psql.Update("wishes w").
		Set("status", models.WishFulfilled).
		Set("fulfilled_at", at).
		Set("updated_at", at).
		Where(squirrel.Eq{"w.id": id, "w.status": models.WishApproved}).
		Suffix("RETURNING " + joinColumns(wishColumns)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build fulfill wish query: %w", err)
	}

	w, err := scanWish(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, wishTransitionError(ctx, r.db, id)
		}
		return nil, fmt.Errorf("error fulfilling wish: %w", err)
	}
	return w, nil
}

func wishTransitionError(ctx context.Context, q db.DBTX, id int64) error {
	if _, err := getWish(ctx, q, id); err != nil {
		return err
	}
	return apperrors.ErrWishStatusTransition
}
