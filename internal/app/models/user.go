package models

import (
	"time"
)

// RoleType defines the user role type
type RoleType string

const (
	RoleAdmin     RoleType = "ADMIN"
	RoleTutor     RoleType = "TUTOR"
	RoleAssistant RoleType = "ASSISTANT"
	RoleStudent   RoleType = "STUDENT"
)

// AllRoles lists every role in display order
var AllRoles = []RoleType{RoleAdmin, RoleTutor, RoleAssistant, RoleStudent}

// IsValid reports whether r is a known role
func (r RoleType) IsValid() bool {
	switch r {
	case RoleAdmin, RoleTutor, RoleAssistant, RoleStudent:
		return true
	}
	return false
}

// IsStaff reports whether r may act on students (admin, tutor or assistant)
func (r RoleType) IsStaff() bool {
	return r == RoleAdmin || r == RoleTutor || r == RoleAssistant
}

// BelongsToTutor reports whether users with this role carry a tutor_id
func (r RoleType) BelongsToTutor() bool {
	return r == RoleStudent || r == RoleAssistant
}

// User defines the user model based on the 'users' table
type User struct {
	ID              int64      `json:"id" db:"id" example:"1"`
	Email           string     `json:"email" db:"email" example:"student@mentorhub.app"`
	Password        string     `json:"-" db:"password"`
	FirstName       string     `json:"firstName" db:"first_name" example:"Ada"`
	LastName        string     `json:"lastName" db:"last_name" example:"Lovelace"`
	RoleType        RoleType   `json:"roleType" db:"role_type" example:"STUDENT"`
	TutorID         *int64     `json:"tutorId,omitempty" db:"tutor_id" example:"2"`
	IsActive        bool       `json:"isActive" db:"is_active" example:"true"`
	PointsBalance   int64      `json:"pointsBalance" db:"points_balance" example:"120"`
	ExperienceTotal int64      `json:"experienceTotal" db:"experience_total" example:"340"`
	LastLoginAt     *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`
	CreatedAt       time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time  `json:"updatedAt" db:"updated_at"`
}

// FullName returns "First Last"
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Level returns the experience level of the user
func (u *User) Level() int {
	return LevelForExperience(u.ExperienceTotal)
}

// RefreshToken is a stored, revocable refresh token
type RefreshToken struct {
	ID         int64     `db:"id"`
	Token      string    `db:"token"`
	UserID     int64     `db:"user_id"`
	ExpiryDate time.Time `db:"expiry_date"`
	IsRevoked  bool      `db:"is_revoked"`
	CreatedAt  time.Time `db:"created_at"`
}
