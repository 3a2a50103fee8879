package dto

import (
	"time"

	"github.com/yigit/mentorhub/internal/app/models"
)

// CreateEventRequest creates an event
type CreateEventRequest struct {
	Title                string     `json:"title" binding:"required,max=200" example:"Robotics workshop"`
	Description          string     `json:"description" binding:"max=2000"`
	Location             string     `json:"location" binding:"max=200" example:"Lab 2"`
	StartsAt             time.Time  `json:"startsAt" binding:"required"`
	EndsAt               *time.Time `json:"endsAt,omitempty"`
	RegistrationDeadline *time.Time `json:"registrationDeadline,omitempty"`
	Capacity             int        `json:"capacity" binding:"required,min=1,max=10000" example:"30"`
	PointsReward         int64      `json:"pointsReward" binding:"min=0,max=1000" example:"20"`
}

// UpdateEventRequest updates an event. Nil fields are left untouched.
type UpdateEventRequest struct {
	Title                *string             `json:"title,omitempty" binding:"omitempty,min=1,max=200"`
	Description          *string             `json:"description,omitempty" binding:"omitempty,max=2000"`
	Location             *string             `json:"location,omitempty" binding:"omitempty,max=200"`
	StartsAt             *time.Time          `json:"startsAt,omitempty"`
	EndsAt               *time.Time          `json:"endsAt,omitempty"`
	RegistrationDeadline *time.Time          `json:"registrationDeadline,omitempty"`
	Capacity             *int                `json:"capacity,omitempty" binding:"omitempty,min=1,max=10000"`
	PointsReward         *int64              `json:"pointsReward,omitempty" binding:"omitempty,min=0,max=1000"`
	Status               *models.EventStatus `json:"status,omitempty" binding:"omitempty,oneof=OPEN CLOSED CANCELLED COMPLETED"`
}

// EventFilter narrows event lists
type EventFilter struct {
	Status   *models.EventStatus
	Upcoming bool
	Page     int
	Size     int
}

// EventResponse adds the caller's registration state to an event
type EventResponse struct {
	*models.Event
	SpotsLeft    int  `json:"spotsLeft" example:"18"`
	IsRegistered bool `json:"isRegistered" example:"false"`
}

// AttendEventResult reports the points awarded for event attendance
type AttendEventResult struct {
	Participant   *models.EventParticipant `json:"participant"`
	PointsAwarded int64                    `json:"pointsAwarded" example:"20"`
}
