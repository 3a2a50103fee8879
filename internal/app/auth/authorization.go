package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/yigit/mentorhub/internal/app/models"
	"github.com/yigit/mentorhub/internal/pkg/apperrors"
	"github.com/yigit/mentorhub/internal/pkg/logger"
)

// Actor is the authenticated caller of an operation
type Actor struct {
	UserID  int64
	Email   string
	Role    models.RoleType
	TutorID *int64
}

// HasRole reports whether the actor has one of roles
func (a Actor) HasRole(roles ...models.RoleType) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the actor is an administrator
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// ScopeTutorID returns the tutor whose group the actor works with.
// Tutors scope to themselves, assistants to their tutor. Admins and students get nil.
func (a Actor) ScopeTutorID() *int64 {
	switch a.Role {
	case models.RoleTutor:
		id := a.UserID
		return &id
	case models.RoleAssistant:
		return a.TutorID
	}
	return nil
}

// RequireRole returns ErrPermissionDenied unless the actor has one of roles
func RequireRole(actor Actor, roles ...models.RoleType) error {
	if !actor.HasRole(roles...) {
		return apperrors.ErrPermissionDenied
	}
	return nil
}

// UserReader loads users by ID
type UserReader interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// AuthorizationService answers visibility questions about students and tutor groups
type AuthorizationService struct {
	users UserReader
}

// NewAuthorizationService creates a new AuthorizationService
func NewAuthorizationService(users UserReader) *AuthorizationService {
	return &AuthorizationService{users: users}
}

// CanSeeStudent reports whether actor may read or act on student
func CanSeeStudent(actor Actor, student *models.User) bool {
	switch actor.Role {
	case models.RoleAdmin:
		return true
	case models.RoleStudent:
		return actor.UserID == student.ID
	case models.RoleTutor, models.RoleAssistant:
		scope := actor.ScopeTutorID()
		return scope != nil && student.TutorID != nil && *student.TutorID == *scope
	}
	return false
}

// EnsureStudentInScope loads the student and checks that the actor can see it
func (s *AuthorizationService) EnsureStudentInScope(ctx context.Context, actor Actor, studentID int64) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrStudentNotFound
		}
		logger.Error().Err(err).Int64("studentID", studentID).Msg("Error loading student for scope check")
		return nil, fmt.Errorf("failed to load student: %w", err)
	}
	if user.RoleType != models.RoleStudent {
		return nil, apperrors.ErrStudentNotFound
	}

	if !CanSeeStudent(actor, user) {
		logger.Warn().
			Int64("actorID", actor.UserID).
			Str("role", string(actor.Role)).
			Int64("studentID", studentID).
			Msg("Student outside caller scope")
		return nil, apperrors.ErrStudentNotInScope
	}
	return user, nil
}

// EnsureTutorScope checks that the actor may act on the given tutor's group
func EnsureTutorScope(actor Actor, tutorID int64) error {
	if actor.IsAdmin() {
		return nil
	}
	scope := actor.ScopeTutorID()
	if scope == nil || *scope != tutorID {
		return apperrors.ErrPermissionDenied
	}
	return nil
}
