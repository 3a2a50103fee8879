package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/mentorhub/internal/app/models"
	"github.com/yigit/mentorhub/internal/pkg/apperrors"
	"github.com/yigit/mentorhub/internal/pkg/dberrors"
)

// LedgerKind selects the points or the experience ledger
type LedgerKind int

const (
	PointsLedger LedgerKind = iota
	ExperienceLedger
)

func (k LedgerKind) table() string {
	if k == ExperienceLedger {
		return "experience_transactions"
	}
	return "points_transactions"
}

// balanceColumn is the cached total on users kept in step with the ledger
func (k LedgerKind) balanceColumn() string {
	if k == ExperienceLedger {
		return "experience_total"
	}
	return "points_balance"
}

var ledgerColumns = []string{"id", "student_id", "period_id", "awarded_by", "reason_id", "amount", "source", "source_ref", "note", "created_at"}

func scanLedgerEntry(row pgx.Row) (*models.LedgerEntry, error) {
	e := &models.LedgerEntry{}
	err := row.Scan(&e.ID, &e.StudentID, &e.PeriodID, &e.AwardedBy, &e.ReasonID, &e.Amount, &e.Source, &e.SourceRef, &e.Note, &e.CreatedAt)
	return e, err
}

// insertLedgerEntry writes an immutable ledger row and fills e.ID and e.CreatedAt
func insertLedgerEntry(ctx context.Context, tx pgx.Tx, kind LedgerKind, e *models.LedgerEntry) error {
	if e.Source == "" {
		e.Source = models.SourceManual
	}

	sql, args, err := psql.Insert(kind.table()).
		Columns("student_id", "period_id", "awarded_by", "reason_id", "amount", "source", "source_ref", "note").
		Values(e.StudentID, e.PeriodID, e.AwardedBy, e.ReasonID, e.Amount, e.Source, e.SourceRef, e.Note).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build ledger insert query: %w", err)
	}

	if err := tx.QueryRow(ctx, sql, args...).Scan(&e.ID, &e.CreatedAt); err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: ledger row references a missing student, period or reason", apperrors.ErrValidationFailed)
		}
		return fmt.Errorf("failed to insert ledger row: %w", err)
	}
	return nil
}

// adjustBalance moves the cached total by delta and returns the new value.
// The guard in the WHERE clause makes a deduction below zero match no row.
func adjustBalance(ctx context.Context, tx pgx.Tx, kind LedgerKind, studentID, delta int64) (int64, error) {
	col := kind.balanceColumn()
	sql, args, err := psql.Update("users").
		Set(col, squirrel.Expr(col+" + ?", delta)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": studentID}).
		Where(squirrel.Expr(col+" + ? >= 0", delta)).
		Suffix("RETURNING " + col).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build balance update query: %w", err)
	}

	var balance int64
	if err := tx.QueryRow(ctx, sql, args...).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || dberrors.IsCheckViolation(err, "") {
			return 0, apperrors.ErrInsufficientPoints
		}
		return 0, fmt.Errorf("failed to update cached balance: %w", err)
	}
	return balance, nil
}

// applyLedgerEntry inserts the row and moves the cached total inside tx
func applyLedgerEntry(ctx context.Context, tx pgx.Tx, kind LedgerKind, e *models.LedgerEntry) (int64, error) {
	if err := insertLedgerEntry(ctx, tx, kind, e); err != nil {
		return 0, err
	}
	return adjustBalance(ctx, tx, kind, e.StudentID, e.Amount)
}
