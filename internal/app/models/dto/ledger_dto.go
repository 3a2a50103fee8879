package dto

import (
	"time"

	"github.com/yigit/mentorhub/internal/app/models"
)

// MaxAwardAmount bounds a single points or experience award in either direction
const MaxAwardAmount = 100000

// CreatePeriodRequest defines a new period
type CreatePeriodRequest struct {
	Name     string `json:"name" binding:"required,max=100" example:"Spring 2025"`
	StartsOn string `json:"startsOn" binding:"required,datetime=2006-01-02" example:"2025-02-03"`
	EndsOn   string `json:"endsOn" binding:"required,datetime=2006-01-02" example:"2025-06-27"`
	Activate bool   `json:"activate" example:"false"`
}

// PointReasonRequest creates or updates a point reason
type PointReasonRequest struct {
	Name          string `json:"name" binding:"required,max=100" example:"Homework completed"`
	Description   string `json:"description" binding:"max=500"`
	DefaultAmount int64  `json:"defaultAmount" binding:"ne=0,min=-100000,max=100000" example:"10"`
	IsActive      *bool  `json:"isActive,omitempty"`
}

// AwardPointsRequest awards (or deducts) points. Amount falls back to the reason's default.
type AwardPointsRequest struct {
	StudentID int64  `json:"studentId" binding:"required,min=1" example:"5"`
	Amount    *int64 `json:"amount,omitempty" binding:"omitempty,min=-100000,max=100000" example:"15"`
	ReasonID  *int64 `json:"reasonId,omitempty" binding:"omitempty,min=1" example:"3"`
	Note      string `json:"note" binding:"max=500" example:"Great participation"`
}

// AwardExperienceRequest awards experience. Amount must be positive.
type AwardExperienceRequest struct {
	StudentID int64  `json:"studentId" binding:"required,min=1" example:"5"`
	Amount    int64  `json:"amount" binding:"required,min=1,max=100000" example:"50"`
	Note      string `json:"note" binding:"max=500"`
}

// AwardResult reports the ledger row written and the new cached total
type AwardResult struct {
	Transaction *models.LedgerEntry `json:"transaction"`
	NewBalance  int64               `json:"newBalance" example:"135"`
	Level       *int                `json:"level,omitempty" example:"3"`
}

// LedgerStatement is a student's balance together with their ledger
type LedgerStatement struct {
	StudentID    int64                 `json:"studentId" example:"5"`
	Balance      int64                 `json:"balance" example:"135"`
	LedgerSum    int64                 `json:"ledgerSum" example:"135"`
	Level        *models.LevelProgress `json:"level,omitempty"`
	Transactions []*models.LedgerEntry `json:"transactions"`
	Pagination   PaginationInfo        `json:"pagination"`
}

// ReconcileResult reports how many cached balances were corrected
type ReconcileResult struct {
	PointsCorrected     int64     `json:"pointsCorrected" example:"2"`
	ExperienceCorrected int64     `json:"experienceCorrected" example:"0"`
	RanAt               time.Time `json:"ranAt"`
}

// LeaderboardResponse is a ranked list of students for a period
type LeaderboardResponse struct {
	PeriodID int64                     `json:"periodId" example:"1"`
	Source   string                    `json:"source" example:"cache"`
	Entries  []models.LeaderboardEntry `json:"entries"`
}
