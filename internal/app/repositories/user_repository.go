package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
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

var userColumns = []string{
	"id", "email", "password", "first_name", "last_name", "role_type", "tutor_id",
	"is_active", "points_balance", "experience_total", "last_login_at", "created_at", "updated_at",
}

// UserRepository handles user database operations
type UserRepository struct {
	db db.DBTX
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(conn db.DBTX) *UserRepository {
	return &UserRepository{db: conn}
}

func scanUser(row pgx.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.FirstName, &u.LastName, &u.RoleType, &u.TutorID,
		&u.IsActive, &u.PointsBalance, &u.ExperienceTotal, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// CreateUser creates a new user and returns its ID
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) (int64, error) {
	sql, args, err := psql.Insert("users").
		Columns("email", "password", "first_name", "last_name", "role_type", "tutor_id", "is_active").
		Values(strings.ToLower(user.Email), user.Password, user.FirstName, user.LastName, user.RoleType, user.TutorID, user.IsActive).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build create user query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "users_email_key") {
			return 0, apperrors.ErrEmailAlreadyExists
		}
		if dberrors.IsForeignKeyViolation(err) {
			return 0, apperrors.ErrNotATutor
		}
		logger.Error().Err(err).Str("email", user.Email).Msg("Error creating user")
		return 0, fmt.Errorf("error creating user: %w", err)
	}

	return user.ID, nil
}

func (r *UserRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*models.User, error) {
	sql, args, err := psql.Select(userColumns...).From("users").Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get user query: %w", err)
	}

	user, err := scanUser(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	return user, nil
}

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetUserByEmail retrieves a user by email (case insensitive)
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"email": strings.ToLower(email)})
}

// ListUsers returns one page of users matching filter and the total count
func (r *UserRepository) ListUsers(ctx context.Context, filter dto.UserFilter) ([]*models.User, int64, error) {
	where := squirrel.And{}
	if filter.Role != nil {
		where = append(where, squirrel.Eq{"role_type": *filter.Role})
	}
	if filter.TutorID != nil {
		where = append(where, squirrel.Eq{"tutor_id": *filter.TutorID})
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		where = append(where, squirrel.Or{
			squirrel.ILike{"first_name": like},
			squirrel.ILike{"last_name": like},
			squirrel.ILike{"email": like},
		})
	}

	countSQL, countArgs, err := psql.Select("COUNT(*)").From("users").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count users query: %w", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting users: %w", err)
	}

	offset, limit := helpers.CalculateOffsetLimit(filter.Page, filter.Size)
	sql, args, err := psql.Select(userColumns...).From("users").Where(where).
		OrderBy("last_name", "first_name", "id").
		Limit(limit).Offset(offset).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list users query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing users: %w", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating users: %w", err)
	}

	return users, total, nil
}

// UpdateUser persists profile fields and the active flag
func (r *UserRepository) UpdateUser(ctx context.Context, user *models.User) error {
	sql, args, err := psql.Update("users").
		Set("email", strings.ToLower(user.Email)).
		Set("first_name", user.FirstName).
		Set("last_name", user.LastName).
		Set("is_active", user.IsActive).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": user.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update user query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "users_email_key") {
			return apperrors.ErrEmailAlreadyExists
		}
		return fmt.Errorf("error updating user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// UpdatePassword stores a new password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, userID int64, hash string) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET password = $1, updated_at = NOW() WHERE id = $2`, hash, userID)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// UpdateLastLogin updates the last login time
func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error {
	if _, err := r.db.Exec(ctx, `UPDATE users SET last_login_at = $1 WHERE id = $2`, at, userID); err != nil {
		return fmt.Errorf("failed to update last login time: %w", err)
	}
	return nil
}

// AssignTutor sets the tutor of a student or assistant
func (r *UserRepository) AssignTutor(ctx context.Context, userID, tutorID int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET tutor_id = $1, updated_at = NOW() WHERE id = $2`, tutorID, userID)
	if err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return apperrors.ErrNotATutor
		}
		return fmt.Errorf("failed to assign tutor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// CountByRole returns active user counts per role, optionally restricted to one tutor's group
func (r *UserRepository) CountByRole(ctx context.Context, tutorID *int64) (map[models.RoleType]int64, error) {
	q := psql.Select("role_type", "COUNT(*)").From("users").Where(squirrel.Eq{"is_active": true}).GroupBy("role_type")
	if tutorID != nil {
		q = q.Where(squirrel.Eq{"tutor_id": *tutorID})
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build count by role query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error counting users by role: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.RoleType]int64, len(models.AllRoles))
	for _, role := range models.AllRoles {
		counts[role] = 0
	}
	for rows.Next() {
		var role models.RoleType
		var n int64
		if err := rows.Scan(&role, &n); err != nil {
			return nil, fmt.Errorf("error scanning role count: %w", err)
		}
		counts[role] = n
	}
	return counts, rows.Err()
}

const reconcileBalanceSQL = `
UPDATE users u
SET %[1]s = s.total, updated_at = NOW()
FROM (
	SELECT u2.id, COALESCE(SUM(t.amount), 0) AS total
	FROM users u2
	LEFT JOIN %[2]s t ON t.student_id = u2.id
	GROUP BY u2.id
) s
WHERE s.id = u.id AND u.%[1]s <> s.total`

// ReconcileBalances recomputes every cached total from its ledger in one transaction
// and returns how many users had a drifted points balance and experience total.
func (r *UserRepository) ReconcileBalances(ctx context.Context) (points int64, experience int64, err error) {
	err = db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, fmt.Sprintf(reconcileBalanceSQL, PointsLedger.balanceColumn(), PointsLedger.table()))
		if err != nil {
			return fmt.Errorf("failed to reconcile points balances: %w", err)
		}
		points = tag.RowsAffected()

		tag, err = tx.Exec(ctx, fmt.Sprintf(reconcileBalanceSQL, ExperienceLedger.balanceColumn(), ExperienceLedger.table()))
		if err != nil {
			return fmt.Errorf("failed to reconcile experience totals: %w", err)
		}
		experience = tag.RowsAffected()
		return nil
	})
	return points, experience, err
}

// GetUsersByIDs loads the users with the given IDs keyed by ID. Missing IDs are absent from the map.
func (r *UserRepository) GetUsersByIDs(ctx context.Context, ids []int64) (map[int64]*models.User, error) {
	users := make(map[int64]*models.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	sql, args, err := psql.Select(userColumns...).From("users").Where(squirrel.Eq{"id": ids}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get users query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error getting users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning user: %w", err)
		}
		users[u.ID] = u
	}
	return users, rows.Err()
}
