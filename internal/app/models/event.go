package models

import "time"

// EventStatus is the lifecycle state of an event
type EventStatus string

const (
	EventOpen      EventStatus = "OPEN"
	EventClosed    EventStatus = "CLOSED"
	EventCancelled EventStatus = "CANCELLED"
	EventCompleted EventStatus = "COMPLETED"
)

// IsValid reports whether s is a known status
func (s EventStatus) IsValid() bool {
	switch s {
	case EventOpen, EventClosed, EventCancelled, EventCompleted:
		return true
	}
	return false
}

// Event is a capacity-limited activity students register for
type Event struct {
	ID                   int64       `json:"id" db:"id" example:"1"`
	Title                string      `json:"title" db:"title" example:"Robotics workshop"`
	Description          string      `json:"description" db:"description"`
	Location             string      `json:"location" db:"location" example:"Lab 2"`
	StartsAt             time.Time   `json:"startsAt" db:"starts_at"`
	EndsAt               *time.Time  `json:"endsAt,omitempty" db:"ends_at"`
	RegistrationDeadline *time.Time  `json:"registrationDeadline,omitempty" db:"registration_deadline"`
	Capacity             int         `json:"capacity" db:"capacity" example:"30"`
	RegisteredCount      int         `json:"registeredCount" db:"registered_count" example:"12"`
	PointsReward         int64       `json:"pointsReward" db:"points_reward" example:"20"`
	Status               EventStatus `json:"status" db:"status" example:"OPEN"`
	CreatedBy            int64       `json:"createdBy" db:"created_by"`
	CreatedAt            time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt            time.Time   `json:"updatedAt" db:"updated_at"`
}

// RegistrationBlocked reports which registration preconditions fail at now
func (e *Event) RegistrationBlocked(now time.Time) (closed, deadlinePassed, full bool) {
	closed = e.Status != EventOpen
	deadlinePassed = e.RegistrationDeadline != nil && !now.Before(*e.RegistrationDeadline)
	full = e.RegisteredCount >= e.Capacity
	return closed, deadlinePassed, full
}

// EventParticipant is a student's registration for an event
type EventParticipant struct {
	ID           int64      `json:"id" db:"id" example:"1"`
	EventID      int64      `json:"eventId" db:"event_id" example:"1"`
	StudentID    int64      `json:"studentId" db:"student_id" example:"5"`
	RegisteredAt time.Time  `json:"registeredAt" db:"registered_at"`
	Attended     bool       `json:"attended" db:"attended" example:"false"`
	AttendedAt   *time.Time `json:"attendedAt,omitempty" db:"attended_at"`
	FirstName    string     `json:"firstName,omitempty" db:"-"`
	LastName     string     `json:"lastName,omitempty" db:"-"`
}
