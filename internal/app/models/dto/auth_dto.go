package dto

import "github.com/yigit/mentorhub/internal/app/models"

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"tutor@mentorhub.app"`
	Password string `json:"password" binding:"required" example:"secret123"`
}

// TokenResponse represents JWT token information
type TokenResponse struct {
	AccessToken           string `json:"accessToken"`
	TokenType             string `json:"tokenType" example:"Bearer"`
	ExpiresIn             int64  `json:"expiresIn" example:"3600"`
	RefreshToken          string `json:"refreshToken,omitempty"`
	RefreshTokenExpiresIn int64  `json:"refreshTokenExpiresIn,omitempty" example:"2592000"`
}

// RefreshTokenRequest represents refresh token request
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// ChangePasswordRequest changes the caller's own password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
}

// AuthResponse represents successful authentication response
type AuthResponse struct {
	Token TokenResponse `json:"token"`
	User  UserResponse  `json:"user"`
}

// UserResponse is the public view of a user
type UserResponse struct {
	ID              int64                `json:"id" example:"5"`
	Email           string               `json:"email" example:"student@mentorhub.app"`
	FirstName       string               `json:"firstName" example:"Ada"`
	LastName        string               `json:"lastName" example:"Lovelace"`
	RoleType        models.RoleType      `json:"roleType" example:"STUDENT"`
	TutorID         *int64               `json:"tutorId,omitempty" example:"2"`
	IsActive        bool                 `json:"isActive" example:"true"`
	PointsBalance   int64                `json:"pointsBalance" example:"120"`
	ExperienceTotal int64                `json:"experienceTotal" example:"340"`
	Level           models.LevelProgress `json:"level"`
}

// NewUserResponse maps a user model to its public view
func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:              u.ID,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		RoleType:        u.RoleType,
		TutorID:         u.TutorID,
		IsActive:        u.IsActive,
		PointsBalance:   u.PointsBalance,
		ExperienceTotal: u.ExperienceTotal,
		Level:           models.NewLevelProgress(u.ExperienceTotal),
	}
}

// NewUserResponses maps a slice of users
func NewUserResponses(users []*models.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, NewUserResponse(u))
	}
	return out
}

// CreateUserRequest is used by admins to create accounts of any role
type CreateUserRequest struct {
	Email     string          `json:"email" binding:"required,email" example:"student@mentorhub.app"`
	Password  string          `json:"password" binding:"required,min=8" example:"secret123"`
	FirstName string          `json:"firstName" binding:"required,max=100" example:"Ada"`
	LastName  string          `json:"lastName" binding:"required,max=100" example:"Lovelace"`
	RoleType  models.RoleType `json:"roleType" binding:"required,role" example:"STUDENT"`
	TutorID   *int64          `json:"tutorId,omitempty" binding:"omitempty,min=1" example:"2"`
}

// UpdateUserRequest updates profile fields of a user. Nil fields are left untouched.
type UpdateUserRequest struct {
	FirstName *string `json:"firstName,omitempty" binding:"omitempty,min=1,max=100"`
	LastName  *string `json:"lastName,omitempty" binding:"omitempty,min=1,max=100"`
	Email     *string `json:"email,omitempty" binding:"omitempty,email"`
	IsActive  *bool   `json:"isActive,omitempty"`
}

// AssignTutorRequest assigns a student or assistant to a tutor
type AssignTutorRequest struct {
	TutorID int64 `json:"tutorId" binding:"required,min=1" example:"2"`
}

// UserFilter narrows user lists
type UserFilter struct {
	Role    *models.RoleType
	TutorID *int64
	Search  string
	Page    int
	Size    int
}
