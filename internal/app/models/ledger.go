package models

import "time"

// LedgerSource identifies what produced a ledger row
type LedgerSource string

const (
	SourceManual     LedgerSource = "MANUAL"
	SourceAttendance LedgerSource = "ATTENDANCE"
	SourceEvent      LedgerSource = "EVENT"
	SourceWish       LedgerSource = "WISH"
)

// LedgerEntry is an immutable points or experience change. Amount may be negative for points.
type LedgerEntry struct {
	ID        int64        `json:"id" db:"id" example:"10"`
	StudentID int64        `json:"studentId" db:"student_id" example:"5"`
	PeriodID  int64        `json:"periodId" db:"period_id" example:"1"`
	AwardedBy *int64       `json:"awardedBy,omitempty" db:"awarded_by" example:"2"`
	ReasonID  *int64       `json:"reasonId,omitempty" db:"reason_id" example:"3"`
	Amount    int64        `json:"amount" db:"amount" example:"15"`
	Source    LedgerSource `json:"source" db:"source" example:"MANUAL"`
	SourceRef *int64       `json:"sourceRef,omitempty" db:"source_ref"`
	Note      string       `json:"note" db:"note" example:"Great participation"`
	CreatedAt time.Time    `json:"createdAt" db:"created_at"`
}

// PointsTransaction is a row of points_transactions
type PointsTransaction = LedgerEntry

// ExperienceTransaction is a row of experience_transactions
type ExperienceTransaction = LedgerEntry

// LeaderboardEntry is one ranked student in a period
type LeaderboardEntry struct {
	Rank      int    `json:"rank" example:"1"`
	StudentID int64  `json:"studentId" example:"5"`
	FirstName string `json:"firstName,omitempty" example:"Ada"`
	LastName  string `json:"lastName,omitempty" example:"Lovelace"`
	Points    int64  `json:"points" example:"250"`
}

// AssignRanks sets competition ranks (1, 2, 2, 4) on entries already sorted by points descending
func AssignRanks(entries []LeaderboardEntry) {
	for i := range entries {
		if i > 0 && entries[i].Points == entries[i-1].Points {
			entries[i].Rank = entries[i-1].Rank
			continue
		}
		entries[i].Rank = i + 1
	}
}
