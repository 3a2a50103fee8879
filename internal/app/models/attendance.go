package models

import "time"

// AttendanceMethod records how a student was marked present
type AttendanceMethod string

const (
	AttendanceQR     AttendanceMethod = "QR"
	AttendanceManual AttendanceMethod = "MANUAL"
)

// AttendanceSession is a tutor's class meeting that students check into
type AttendanceSession struct {
	ID             int64      `json:"id" db:"id" example:"1"`
	TutorID        int64      `json:"tutorId" db:"tutor_id" example:"2"`
	Title          string     `json:"title" db:"title" example:"Week 3 - Loops"`
	SessionDate    time.Time  `json:"sessionDate" db:"session_date"`
	PointsReward   int64      `json:"pointsReward" db:"points_reward" example:"5"`
	CheckInToken   string     `json:"checkInToken,omitempty" db:"check_in_token"`
	TokenExpiresAt time.Time  `json:"tokenExpiresAt" db:"token_expires_at"`
	IsClosed       bool       `json:"isClosed" db:"is_closed" example:"false"`
	ClosedAt       *time.Time `json:"closedAt,omitempty" db:"closed_at"`
	CreatedBy      int64      `json:"createdBy" db:"created_by" example:"2"`
	CreatedAt      time.Time  `json:"createdAt" db:"created_at"`
	AttendeeCount  int        `json:"attendeeCount" db:"-" example:"12"`
}

// TokenExpired reports whether the check-in token is no longer usable at now
func (s *AttendanceSession) TokenExpired(now time.Time) bool {
	return !now.Before(s.TokenExpiresAt)
}

// StudentAttendance is a student's presence at a session
type StudentAttendance struct {
	ID                  int64            `json:"id" db:"id" example:"1"`
	SessionID           int64            `json:"sessionId" db:"session_id" example:"1"`
	StudentID           int64            `json:"studentId" db:"student_id" example:"5"`
	Method              AttendanceMethod `json:"method" db:"method" example:"QR"`
	MarkedBy            *int64           `json:"markedBy,omitempty" db:"marked_by"`
	PointsTransactionID *int64           `json:"pointsTransactionId,omitempty" db:"points_transaction_id"`
	CheckedInAt         time.Time        `json:"checkedInAt" db:"checked_in_at"`
	StudentFirstName    string           `json:"studentFirstName,omitempty" db:"-"`
	StudentLastName     string           `json:"studentLastName,omitempty" db:"-"`
}
