package models

import "time"

// WishStatus is the review state of a wish
type WishStatus string

const (
	WishPending   WishStatus = "PENDING"
	WishApproved  WishStatus = "APPROVED"
	WishRejected  WishStatus = "REJECTED"
	WishFulfilled WishStatus = "FULFILLED"
)

// CanTransitionTo reports whether a wish may move from s to next
func (s WishStatus) CanTransitionTo(next WishStatus) bool {
	switch s {
	case WishPending:
		return next == WishApproved || next == WishRejected
	case WishApproved:
		return next == WishFulfilled
	}
	return false
}

// Wish is a student's request, optionally paid for with points
type Wish struct {
	ID          int64      `json:"id" db:"id" example:"1"`
	StudentID   int64      `json:"studentId" db:"student_id" example:"5"`
	Title       string     `json:"title" db:"title" example:"Extra robotics kit"`
	Description string     `json:"description" db:"description"`
	PointsCost  int64      `json:"pointsCost" db:"points_cost" example:"50"`
	Status      WishStatus `json:"status" db:"status" example:"PENDING"`
	ReviewedBy  *int64     `json:"reviewedBy,omitempty" db:"reviewed_by"`
	ReviewNote  string     `json:"reviewNote,omitempty" db:"review_note"`
	ReviewedAt  *time.Time `json:"reviewedAt,omitempty" db:"reviewed_at"`
	FulfilledAt *time.Time `json:"fulfilledAt,omitempty" db:"fulfilled_at"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
}

// WeeklyReport is a tutor's summary of one Monday-started week
type WeeklyReport struct {
	ID         int64     `json:"id" db:"id" example:"1"`
	TutorID    int64     `json:"tutorId" db:"tutor_id" example:"2"`
	WeekStart  time.Time `json:"weekStart" db:"week_start" example:"2025-03-03T00:00:00Z"`
	Summary    string    `json:"summary" db:"summary"`
	Highlights string    `json:"highlights" db:"highlights"`
	Challenges string    `json:"challenges" db:"challenges"`
	NextSteps  string    `json:"nextSteps" db:"next_steps"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
}
