package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	authz "github.com/yigit/mentorhub/internal/app/auth"
	"github.com/yigit/mentorhub/internal/app/models"
	"github.com/yigit/mentorhub/internal/app/models/dto"
	"github.com/yigit/mentorhub/internal/app/repositories"
	"github.com/yigit/mentorhub/internal/pkg/apperrors"
	"github.com/yigit/mentorhub/internal/pkg/helpers"
)

// LedgerService awards points and experience and reports balances
type LedgerService interface {
	AwardPoints(ctx context.Context, actor authz.Actor, req *dto.AwardPointsRequest) (*dto.AwardResult, error)
	AwardExperience(ctx context.Context, actor authz.Actor, req *dto.AwardExperienceRequest) (*dto.AwardResult, error)
	PointsStatement(ctx context.Context, actor authz.Actor, studentID int64, page, size int) (*dto.LedgerStatement, error)
	ExperienceStatement(ctx context.Context, actor authz.Actor, studentID int64, page, size int) (*dto.LedgerStatement, error)
	Reconcile(ctx context.Context) (*dto.ReconcileResult, error)
}

type ledgerServiceImpl struct {
	ledgerRepo  LedgerStore
	periodRepo  PeriodStore
	reasonRepo  PointReasonStore
	userRepo    UserStore
	authz       *authz.AuthorizationService
	leaderboard LeaderboardService
	logger      zerolog.Logger
	now         func() time.Time
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	ledgerRepo LedgerStore,
	periodRepo PeriodStore,
	reasonRepo PointReasonStore,
	userRepo UserStore,
	authzService *authz.AuthorizationService,
	leaderboard LeaderboardService,
	logger zerolog.Logger,
) LedgerService {
	return &ledgerServiceImpl{
		ledgerRepo:  ledgerRepo,
		periodRepo:  periodRepo,
		reasonRepo:  reasonRepo,
		userRepo:    userRepo,
		authz:       authzService,
		leaderboard: leaderboard,
		logger:      logger,
		now:         time.Now,
	}
}

// AwardPoints checks role, scope, active period and amount, then writes the ledger row
// and cached balance in one transaction.
func (s *ledgerServiceImpl) AwardPoints(ctx context.Context, actor authz.Actor, req *dto.AwardPointsRequest) (*dto.AwardResult, error) {
	if err := authz.RequireRole(actor, models.RoleAdmin, models.RoleTutor, models.RoleAssistant); err != nil {
		return nil, err
	}
	if _, err := s.authz.EnsureStudentInScope(ctx, actor, req.StudentID); err != nil {
		return nil, err
	}

	period, err := s.periodRepo.GetActive(ctx)
	if err != nil {
		return nil, err
	}

	var amount int64
	note := strings.TrimSpace(req.Note)
	if req.ReasonID != nil {
		reason, err := s.reasonRepo.GetByID(ctx, *req.ReasonID)
		if err != nil {
			return nil, err
		}
		if !reason.IsActive {
			return nil, apperrors.ErrPointReasonInactive
		}
		amount = reason.DefaultAmount
		if note == "" {
			note = reason.Name
		}
	}
	if req.Amount != nil {
		amount = *req.Amount
	}
	if amount == 0 {
		return nil, fmt.Errorf("%w: amount must be non-zero", apperrors.ErrInvalidAmount)
	}
	if amount > dto.MaxAwardAmount || amount < -dto.MaxAwardAmount {
		return nil, fmt.Errorf("%w: amount must be between -%d and %d", apperrors.ErrInvalidAmount, dto.MaxAwardAmount, dto.MaxAwardAmount)
	}

	awardedBy := actor.UserID
	entry := &models.PointsTransaction{
		StudentID: req.StudentID,
		PeriodID:  period.ID,
		AwardedBy: &awardedBy,
		ReasonID:  req.ReasonID,
		Amount:    amount,
		Source:    models.SourceManual,
		Note:      note,
	}
	balance, err := s.ledgerRepo.AwardPoints(ctx, entry)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("studentID", req.StudentID).
		Int64("amount", amount).
		Int64("by", actor.UserID).
		Int64("balance", balance).
		Msg("Points awarded")

	s.leaderboard.Record(ctx, period.ID, req.StudentID, amount)
	return &dto.AwardResult{Transaction: entry, NewBalance: balance}, nil
}

// AwardExperience adds experience; only admins and tutors may award it
func (s *ledgerServiceImpl) AwardExperience(ctx context.Context, actor authz.Actor, req *dto.AwardExperienceRequest) (*dto.AwardResult, error) {
	if err := authz.RequireRole(actor, models.RoleAdmin, models.RoleTutor); err != nil {
		return nil, err
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: experience must be positive", apperrors.ErrInvalidAmount)
	}
	if req.Amount > dto.MaxAwardAmount {
		return nil, fmt.Errorf("%w: experience must be at most %d", apperrors.ErrInvalidAmount, dto.MaxAwardAmount)
	}
	if _, err := s.authz.EnsureStudentInScope(ctx, actor, req.StudentID); err != nil {
		return nil, err
	}

	period, err := s.periodRepo.GetActive(ctx)
	if err != nil {
		return nil, err
	}

	awardedBy := actor.UserID
	entry := &models.ExperienceTransaction{
		StudentID: req.StudentID,
		PeriodID:  period.ID,
		AwardedBy: &awardedBy,
		Amount:    req.Amount,
		Source:    models.SourceManual,
		Note:      strings.TrimSpace(req.Note),
	}
	total, err := s.ledgerRepo.AwardExperience(ctx, entry)
	if err != nil {
		return nil, err
	}

	level := models.LevelForExperience(total)
	s.logger.Info().Int64("studentID", req.StudentID).Int64("amount", req.Amount).Int("level", level).Msg("Experience awarded")
	return &dto.AwardResult{Transaction: entry, NewBalance: total, Level: &level}, nil
}

// PointsStatement returns the cached balance, the ledger sum and a page of points rows
func (s *ledgerServiceImpl) PointsStatement(ctx context.Context, actor authz.Actor, studentID int64, page, size int) (*dto.LedgerStatement, error) {
	return s.statement(ctx, actor, repositories.PointsLedger, studentID, page, size)
}

// ExperienceStatement returns the experience total, level and a page of experience rows
func (s *ledgerServiceImpl) ExperienceStatement(ctx context.Context, actor authz.Actor, studentID int64, page, size int) (*dto.LedgerStatement, error) {
	return s.statement(ctx, actor, repositories.ExperienceLedger, studentID, page, size)
}

func (s *ledgerServiceImpl) statement(ctx context.Context, actor authz.Actor, kind repositories.LedgerKind, studentID int64, page, size int) (*dto.LedgerStatement, error) {
	student, err := s.authz.EnsureStudentInScope(ctx, actor, studentID)
	if err != nil {
		return nil, err
	}

	rows, total, err := s.ledgerRepo.ListTransactions(ctx, kind, studentID, page, size)
	if err != nil {
		return nil, err
	}
	sum, err := s.ledgerRepo.Sum(ctx, kind, studentID)
	if err != nil {
		return nil, err
	}

	stmt := &dto.LedgerStatement{
		StudentID:    studentID,
		Balance:      student.PointsBalance,
		LedgerSum:    sum,
		Transactions: rows,
		Pagination:   helpers.NewPaginationInfo(total, page, size),
	}
	if kind == repositories.ExperienceLedger {
		stmt.Balance = student.ExperienceTotal
		level := models.NewLevelProgress(student.ExperienceTotal)
		stmt.Level = &level
	}
	if stmt.Balance != stmt.LedgerSum {
		s.logger.Warn().Int64("studentID", studentID).Int64("cached", stmt.Balance).Int64("ledger", sum).Msg("Cached balance differs from ledger")
	}
	return stmt, nil
}

// Reconcile recomputes every cached total from the ledgers
func (s *ledgerServiceImpl) Reconcile(ctx context.Context) (*dto.ReconcileResult, error) {
	points, experience, err := s.userRepo.ReconcileBalances(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile balances: %w", err)
	}

	s.logger.Info().Int64("points", points).Int64("experience", experience).Msg("Balances reconciled")
	return &dto.ReconcileResult{
		PointsCorrected:     points,
		ExperienceCorrected: experience,
		RanAt:               s.now(),
	}, nil
}
