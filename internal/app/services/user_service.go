package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	authz "github.com/yigit/mentorhub/internal/app/auth"
	"github.com/yigit/mentorhub/internal/app/models"
	"github.com/yigit/mentorhub/internal/app/models/dto"
	"github.com/yigit/mentorhub/internal/pkg/apperrors"
	"github.com/yigit/mentorhub/internal/pkg/auth"
	"github.com/yigit/mentorhub/internal/pkg/email"
)

// UserService defines the interface for user operations
type UserService interface {
	CreateUser(ctx context.Context, req *dto.CreateUserRequest) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	ListUsers(ctx context.Context, filter dto.UserFilter) ([]*models.User, int64, error)
	UpdateUser(ctx context.Context, id int64, req *dto.UpdateUserRequest) (*models.User, error)
	DeactivateUser(ctx context.Context, actor authz.Actor, id int64) error
	AssignTutor(ctx context.Context, userID, tutorID int64) (*models.User, error)
	ListStudents(ctx context.Context, actor authz.Actor, filter dto.UserFilter) ([]*models.User, int64, error)
	GetStudent(ctx context.Context, actor authz.Actor, id int64) (*models.User, error)
}

type userServiceImpl struct {
	userRepo  UserStore
	tokenRepo TokenStore
	authz     *authz.AuthorizationService
	mailer    email.EmailService
	logger    zerolog.Logger
}

// NewUserService creates a new UserService
func NewUserService(
	userRepo UserStore,
	tokenRepo TokenStore,
	authzService *authz.AuthorizationService,
	mailer email.EmailService,
	logger zerolog.Logger,
) UserService {
	return &userServiceImpl{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		authz:     authzService,
		mailer:    mailer,
		logger:    logger,
	}
}

// CreateUser creates an account of any role. Students and assistants may be attached to a tutor.
func (s *userServiceImpl) CreateUser(ctx context.Context, req *dto.CreateUserRequest) (*models.User, error) {
	if !req.RoleType.IsValid() {
		return nil, fmt.Errorf("%w: unknown role %q", apperrors.ErrValidationFailed, req.RoleType)
	}
	if err := auth.ValidatePasswordStrength(req.Password); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidationFailed, err)
	}
	if req.TutorID != nil {
		if !req.RoleType.BelongsToTutor() {
			return nil, fmt.Errorf("%w: only students and assistants have a tutor", apperrors.ErrValidationFailed)
		}
		if err := s.ensureTutor(ctx, *req.TutorID); err != nil {
			return nil, err
		}
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Password:  hash,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		RoleType:  req.RoleType,
		TutorID:   req.TutorID,
		IsActive:  true,
	}
	if _, err := s.userRepo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("userID", user.ID).Str("role", string(user.RoleType)).Msg("User created")

	go func(u models.User) {
		if err := s.mailer.SendWelcomeEmail(context.Background(), u.Email, u.FullName(), string(u.RoleType)); err != nil {
			s.logger.Warn().Err(err).Int64("userID", u.ID).Msg("Failed to send welcome email")
		}
	}(*user)

	return user, nil
}

func (s *userServiceImpl) ensureTutor(ctx context.Context, tutorID int64) error {
	tutor, err := s.userRepo.GetUserByID(ctx, tutorID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return apperrors.ErrNotATutor
		}
		return err
	}
	if tutor.RoleType != models.RoleTutor {
		return apperrors.ErrNotATutor
	}
	return nil
}

// GetUserByID retrieves a user by ID
func (s *userServiceImpl) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.userRepo.GetUserByID(ctx, id)
}

// ListUsers lists users matching filter
func (s *userServiceImpl) ListUsers(ctx context.Context, filter dto.UserFilter) ([]*models.User, int64, error) {
	return s.userRepo.ListUsers(ctx, filter)
}

// UpdateUser applies the non-nil fields of req
func (s *userServiceImpl) UpdateUser(ctx context.Context, id int64, req *dto.UpdateUserRequest) (*models.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		user.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := s.userRepo.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	if !user.IsActive {
		s.revokeSessions(ctx, user.ID)
	}
	return user, nil
}

// DeactivateUser disables an account and revokes its refresh tokens. Admins cannot disable themselves.
func (s *userServiceImpl) DeactivateUser(ctx context.Context, actor authz.Actor, id int64) error {
	if actor.UserID == id {
		return fmt.Errorf("%w: you cannot deactivate your own account", apperrors.ErrBadRequest)
	}

	user, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	user.IsActive = false
	if err := s.userRepo.UpdateUser(ctx, user); err != nil {
		return err
	}

	s.revokeSessions(ctx, id)
	s.logger.Info().Int64("userID", id).Int64("by", actor.UserID).Msg("User deactivated")
	return nil
}

func (s *userServiceImpl) revokeSessions(ctx context.Context, userID int64) {
	if err := s.tokenRepo.RevokeAllUserTokens(ctx, userID); err != nil {
		s.logger.Warn().Err(err).Int64("userID", userID).Msg("Could not revoke refresh tokens")
	}
}

// AssignTutor attaches a student or assistant to a tutor
func (s *userServiceImpl) AssignTutor(ctx context.Context, userID, tutorID int64) (*models.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.RoleType.BelongsToTutor() {
		return nil, fmt.Errorf("%w: only students and assistants can be assigned to a tutor", apperrors.ErrValidationFailed)
	}
	if err := s.ensureTutor(ctx, tutorID); err != nil {
		return nil, err
	}

	if err := s.userRepo.AssignTutor(ctx, userID, tutorID); err != nil {
		return nil, err
	}
	user.TutorID = &tutorID
	return user, nil
}

// ListStudents lists the students visible to actor
func (s *userServiceImpl) ListStudents(ctx context.Context, actor authz.Actor, filter dto.UserFilter) ([]*models.User, int64, error) {
	role := models.RoleStudent
	filter.Role = &role

	if !actor.IsAdmin() {
		scope := actor.ScopeTutorID()
		if scope == nil {
			return nil, 0, apperrors.ErrPermissionDenied
		}
		filter.TutorID = scope
	}
	return s.userRepo.ListUsers(ctx, filter)
}

// GetStudent returns one student visible to actor
func (s *userServiceImpl) GetStudent(ctx context.Context, actor authz.Actor, id int64) (*models.User, error) {
	return s.authz.EnsureStudentInScope(ctx, actor, id)
}
