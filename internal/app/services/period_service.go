package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/mentorhub/internal/app/models"
	"github.com/yigit/mentorhub/internal/app/models/dto"
	"github.com/yigit/mentorhub/internal/pkg/apperrors"
	"github.com/yigit/mentorhub/internal/pkg/helpers"
)

// PeriodService manages the periods ledger rows are attributed to
type PeriodService interface {
	CreatePeriod(ctx context.Context, req *dto.CreatePeriodRequest) (*models.Period, error)
	ListPeriods(ctx context.Context) ([]*models.Period, error)
	GetActivePeriod(ctx context.Context) (*models.Period, error)
	ActivatePeriod(ctx context.Context, id int64) (*models.Period, error)
}

type periodServiceImpl struct {
	periodRepo PeriodStore
	logger     zerolog.Logger
}

// NewPeriodService creates a new PeriodService
func NewPeriodService(periodRepo PeriodStore, logger zerolog.Logger) PeriodService {
	return &periodServiceImpl{periodRepo: periodRepo, logger: logger}
}

// CreatePeriod validates the date range and stores the period
func (s *periodServiceImpl) CreatePeriod(ctx context.Context, req *dto.CreatePeriodRequest) (*models.Period, error) {
	startsOn, err := helpers.ParseDate(req.StartsOn)
	if err != nil {
		return nil, fmt.Errorf("%w: startsOn must be YYYY-MM-DD", apperrors.ErrValidationFailed)
	}
	endsOn, err := helpers.ParseDate(req.EndsOn)
	if err != nil {
		return nil, fmt.Errorf("%w: endsOn must be YYYY-MM-DD", apperrors.ErrValidationFailed)
	}
	if endsOn.Before(startsOn) {
		return nil, fmt.Errorf("%w: endsOn is before startsOn", apperrors.ErrValidationFailed)
	}

	period := &models.Period{
		Name:     strings.TrimSpace(req.Name),
		StartsOn: startsOn,
		EndsOn:   endsOn,
	}
	if err := s.periodRepo.Create(ctx, period, req.Activate); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("periodID", period.ID).Bool("active", period.IsActive).Msg("Period created")
	return period, nil
}

// ListPeriods returns all periods
func (s *periodServiceImpl) ListPeriods(ctx context.Context) ([]*models.Period, error) {
	return s.periodRepo.List(ctx)
}

// GetActivePeriod returns the active period or ErrNoActivePeriod
func (s *periodServiceImpl) GetActivePeriod(ctx context.Context) (*models.Period, error) {
	return s.periodRepo.GetActive(ctx)
}

// ActivatePeriod makes id the only active period
func (s *periodServiceImpl) ActivatePeriod(ctx context.Context, id int64) (*models.Period, error) {
	period, err := s.periodRepo.Activate(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("periodID", id).Msg("Period activated")
	return period, nil
}

// PointReasonService manages reusable award reasons
type PointReasonService interface {
	CreateReason(ctx context.Context, req *dto.PointReasonRequest) (*models.PointReason, error)
	ListReasons(ctx context.Context, activeOnly bool) ([]*models.PointReason, error)
	GetReason(ctx context.Context, id int64) (*models.PointReason, error)
	UpdateReason(ctx context.Context, id int64, req *dto.PointReasonRequest) (*models.PointReason, error)
	DeactivateReason(ctx context.Context, id int64) error
}

type pointReasonServiceImpl struct {
	reasonRepo PointReasonStore
}

// NewPointReasonService creates a new PointReasonService
func NewPointReasonService(reasonRepo PointReasonStore) PointReasonService {
	return &pointReasonServiceImpl{reasonRepo: reasonRepo}
}

func (s *pointReasonServiceImpl) CreateReason(ctx context.Context, req *dto.PointReasonRequest) (*models.PointReason, error) {
	if req.DefaultAmount == 0 {
		return nil, fmt.Errorf("%w: defaultAmount cannot be zero", apperrors.ErrInvalidAmount)
	}
	reason := &models.PointReason{
		Name:          strings.TrimSpace(req.Name),
		Description:   strings.TrimSpace(req.Description),
		DefaultAmount: req.DefaultAmount,
		IsActive:      req.IsActive == nil || *req.IsActive,
	}
	if err := s.reasonRepo.Create(ctx, reason); err != nil {
		return nil, err
	}
	return reason, nil
}

func (s *pointReasonServiceImpl) ListReasons(ctx context.Context, activeOnly bool) ([]*models.PointReason, error) {
	return s.reasonRepo.List(ctx, activeOnly)
}

func (s *pointReasonServiceImpl) GetReason(ctx context.Context, id int64) (*models.PointReason, error) {
	return s.reasonRepo.GetByID(ctx, id)
}

func (s *pointReasonServiceImpl) UpdateReason(ctx context.Context, id int64, req *dto.PointReasonRequest) (*models.PointReason, error) {
	if req.DefaultAmount == 0 {
		return nil, fmt.Errorf("%w: defaultAmount cannot be zero", apperrors.ErrInvalidAmount)
	}
	reason, err := s.reasonRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	reason.Name = strings.TrimSpace(req.Name)
	reason.Description = strings.TrimSpace(req.Description)
	reason.DefaultAmount = req.DefaultAmount
	if req.IsActive != nil {
		reason.IsActive = *req.IsActive
	}
	if err := s.reasonRepo.Update(ctx, reason); err != nil {
		return nil, err
	}
	return reason, nil
}

func (s *pointReasonServiceImpl) DeactivateReason(ctx context.Context, id int64) error {
	return s.reasonRepo.Deactivate(ctx, id)
}
