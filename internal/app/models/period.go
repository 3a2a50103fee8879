package models

import "time"

// Period is an admin-defined window that ledger rows are attributed to
type Period struct {
	ID        int64     `json:"id" db:"id" example:"1"`
	Name      string    `json:"name" db:"name" example:"Spring 2025"`
	StartsOn  time.Time `json:"startsOn" db:"starts_on" example:"2025-02-03T00:00:00Z"`
	EndsOn    time.Time `json:"endsOn" db:"ends_on" example:"2025-06-27T00:00:00Z"`
	IsActive  bool      `json:"isActive" db:"is_active" example:"true"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// PointReason is a named, reusable justification for a points award
type PointReason struct {
	ID            int64     `json:"id" db:"id" example:"1"`
	Name          string    `json:"name" db:"name" example:"Homework completed"`
	Description   string    `json:"description" db:"description" example:"All weekly exercises submitted"`
	DefaultAmount int64     `json:"defaultAmount" db:"default_amount" example:"10"`
	IsActive      bool      `json:"isActive" db:"is_active" example:"true"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}
