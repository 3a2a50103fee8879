package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	authz "github.com/yigit/mentorhub/internal/app/auth"
	"github.com/yigit/mentorhub/internal/app/models"
	"github.com/yigit/mentorhub/internal/app/models/dto"
	"github.com/yigit/mentorhub/internal/pkg/apperrors"
	"github.com/yigit/mentorhub/internal/pkg/email"
	"github.com/yigit/mentorhub/internal/pkg/helpers"
)

// WishService handles student wishes and their review
type WishService interface {
	CreateWish(ctx context.Context, actor authz.Actor, req *dto.CreateWishRequest) (*models.Wish, error)
	ListWishes(ctx context.Context, actor authz.Actor, status *models.WishStatus, page, size int) ([]*models.Wish, *dto.PaginationInfo, error)
	GetWish(ctx context.Context, actor authz.Actor, id int64) (*models.Wish, error)
	ReviewWish(ctx context.Context, actor authz.Actor, id int64, req *dto.ReviewWishRequest) (*models.Wish, error)
	FulfillWish(ctx context.Context, actor authz.Actor, id int64) (*models.Wish, error)
}

type wishServiceImpl struct {
	wishRepo    WishStore
	periodRepo  PeriodStore
	authz       *authz.AuthorizationService
	leaderboard LeaderboardService
	mailer      email.EmailService
	logger      zerolog.Logger
	now         func() time.Time
}

// NewWishService creates a new WishService
func NewWishService(
	wishRepo WishStore,
	periodRepo PeriodStore,
	authzService *authz.AuthorizationService,
	leaderboard LeaderboardService,
	mailer email.EmailService,
	logger zerolog.Logger,
) WishService {
	return &wishServiceImpl{
		wishRepo:    wishRepo,
		periodRepo:  periodRepo,
		authz:       authzService,
		leaderboard: leaderboard,
		mailer:      mailer,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *wishServiceImpl) CreateWish(ctx context.Context, actor authz.Actor, req *dto.CreateWishRequest) (*models.Wish, error) {
	if err := authz.RequireRole(actor, models.RoleStudent); err != nil {
		return nil, err
	}
	wish := &models.Wish{
		StudentID:   actor.UserID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		PointsCost:  req.PointsCost,
	}
	if err := s.wishRepo.Create(ctx, wish); err != nil {
		return nil, err
	}
	return wish, nil
}

// ListWishes shows students their own wishes and staff the wishes of their tutor group
func (s *wishServiceImpl) ListWishes(ctx context.Context, actor authz.Actor, status *models.WishStatus, page, size int) ([]*models.Wish, *dto.PaginationInfo, error) {
	filter := dto.WishFilter{Status: status, Page: page, Size: size}
	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleStudent:
		id := actor.UserID
		filter.StudentID = &id
	default:
		filter.TutorID = actor.ScopeTutorID()
		if filter.TutorID == nil {
			return nil, nil, apperrors.ErrPermissionDenied
		}
	}

	wishes, total, err := s.wishRepo.List(ctx, filter)
	if err != nil {
		return nil, nil, err
	}
	info := helpers.NewPaginationInfo(total, page, size)
	return wishes, &info, nil
}

func (s *wishServiceImpl) GetWish(ctx context.Context, actor authz.Actor, id int64) (*models.Wish, error) {
	wish, err := s.wishRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleStudent {
		if wish.StudentID != actor.UserID {
			return nil, apperrors.ErrWishNotFound
		}
		return wish, nil
	}
	if _, err := s.authz.EnsureStudentInScope(ctx, actor, wish.StudentID); err != nil {
		return nil, err
	}
	return wish, nil
}

// ReviewWish approves or rejects a pending wish. Approving a wish with a cost deducts the
// points in the same transaction; on insufficient balance the wish stays pending.
func (s *wishServiceImpl) ReviewWish(ctx context.Context, actor authz.Actor, id int64, req *dto.ReviewWishRequest) (*models.Wish, error) {
	if err := authz.RequireRole(actor, models.RoleAdmin, models.RoleTutor); err != nil {
		return nil, err
	}
	wish, err := s.wishRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	student, err := s.authz.EnsureStudentInScope(ctx, actor, wish.StudentID)
	if err != nil {
		return nil, err
	}

	approve := req.Approve != nil && *req.Approve
	status := models.WishRejected
	if approve {
		status = models.WishApproved
	}
	if !wish.Status.CanTransitionTo(status) {
		return nil, apperrors.ErrWishStatusTransition
	}

	var (
		charge   *models.PointsTransaction
		periodID int64
	)
	if approve && wish.PointsCost > 0 {
		period, err := s.periodRepo.GetActive(ctx)
		if err != nil {
			return nil, err
		}
		periodID = period.ID
		reviewer := actor.UserID
		charge = &models.PointsTransaction{
			StudentID: wish.StudentID,
			PeriodID:  period.ID,
			AwardedBy: &reviewer,
			Amount:    -wish.PointsCost,
			Source:    models.SourceWish,
			Note:      wish.Title,
		}
	}

	reviewed, err := s.wishRepo.Review(ctx, id, status, actor.UserID, strings.TrimSpace(req.Note), s.now(), charge)
	if err != nil {
		return nil, err
	}
	if charge != nil {
		s.leaderboard.Record(ctx, periodID, wish.StudentID, charge.Amount)
	}

	s.logger.Info().Int64("wishID", id).Str("status", string(status)).Int64("by", actor.UserID).Msg("Wish reviewed")

	go func(to models.User, w models.Wish) {
		if err := s.mailer.SendWishReviewedEmail(context.Background(), to.Email, to.FullName(), w.Title, w.Status == models.WishApproved, w.ReviewNote); err != nil {
			s.logger.Warn().Err(err).Int64("wishID", w.ID).Msg("Failed to send wish review email")
		}
	}(*student, *reviewed)

	return reviewed, nil
}

// FulfillWish marks an approved wish as delivered
func (s *wishServiceImpl) FulfillWish(ctx context.Context, actor authz.Actor, id int64) (*models.Wish, error) {
	if err := authz.RequireRole(actor, models.RoleAdmin, models.RoleTutor); err != nil {
		return nil, err
	}
	wish, err := s.wishRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.authz.EnsureStudentInScope(ctx, actor, wish.StudentID); err != nil {
		return nil, err
	}
	if !wish.Status.CanTransitionTo(models.WishFulfilled) {
		return nil, apperrors.ErrWishStatusTransition
	}
	return s.wishRepo.Fulfill(ctx, id, s.now())
}
