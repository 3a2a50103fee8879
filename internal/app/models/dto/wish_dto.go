package dto

import "github.com/yigit/mentorhub/internal/app/models"

// CreateWishRequest is submitted by a student
type CreateWishRequest struct {
	Title       string `json:"title" binding:"required,max=200" example:"Extra robotics kit"`
	Description string `json:"description" binding:"max=2000"`
	PointsCost  int64  `json:"pointsCost" binding:"min=0,max=100000" example:"50"`
}

// ReviewWishRequest approves or rejects a pending wish
type ReviewWishRequest struct {
	Approve *bool  `json:"approve" binding:"required" example:"true"`
	Note    string `json:"note" binding:"max=1000"`
}

// WishFilter narrows wish lists
type WishFilter struct {
	Status    *models.WishStatus
	StudentID *int64
	TutorID   *int64
	Page      int
	Size      int
}

// UpsertWeeklyReportRequest creates or replaces the caller's report for a week
type UpsertWeeklyReportRequest struct {
	WeekStart  string `json:"weekStart" binding:"required,monday" example:"2025-03-03"`
	Summary    string `json:"summary" binding:"required,max=5000"`
	Highlights string `json:"highlights" binding:"max=5000"`
	Challenges string `json:"challenges" binding:"max=5000"`
	NextSteps  string `json:"nextSteps" binding:"max=5000"`
}

// WeeklyReportFilter narrows weekly report lists
type WeeklyReportFilter struct {
	TutorID *int64
	From    *string
	To      *string
	Page    int
	Size    int
}
