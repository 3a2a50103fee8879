package dto

import (
	"time"

	"github.com/yigit/mentorhub/internal/app/models"
)

// CreateSessionRequest opens an attendance session
type CreateSessionRequest struct {
	Title        string `json:"title" binding:"required,max=200" example:"Week 3 - Loops"`
	SessionDate  string `json:"sessionDate" binding:"required,datetime=2006-01-02" example:"2025-03-05"`
	PointsReward int64  `json:"pointsReward" binding:"min=0,max=1000" example:"5"`
	TutorID      *int64 `json:"tutorId,omitempty" binding:"omitempty,min=1" example:"2"`
}

// CheckInRequest redeems a QR check-in token
type CheckInRequest struct {
	Token string `json:"token" binding:"required,len=64,hexadecimal"`
}

// ManualAttendanceRequest marks a student present without a token
type ManualAttendanceRequest struct {
	StudentID int64 `json:"studentId" binding:"required,min=1" example:"5"`
}

// SessionFilter narrows session lists
type SessionFilter struct {
	TutorID  *int64
	OpenOnly bool
	Page     int
	Size     int
}

// CheckInResult is returned after a successful check-in
type CheckInResult struct {
	Attendance    *models.StudentAttendance `json:"attendance"`
	SessionTitle  string                    `json:"sessionTitle" example:"Week 3 - Loops"`
	PointsAwarded int64                     `json:"pointsAwarded" example:"5"`
	NewBalance    int64                     `json:"newBalance" example:"140"`
}

// CheckInEvent is pushed to live attendance subscribers
type CheckInEvent struct {
	SessionID   int64                   `json:"sessionId"`
	StudentID   int64                   `json:"studentId"`
	FirstName   string                  `json:"firstName"`
	LastName    string                  `json:"lastName"`
	Method      models.AttendanceMethod `json:"method"`
	CheckedInAt time.Time               `json:"checkedInAt"`
	Total       int                     `json:"total"`
}
