package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	authz "github.com/yigit/mentorhub/internal/app/auth"
	"github.com/yigit/mentorhub/internal/app/models"
	"github.com/yigit/mentorhub/internal/app/models/dto"
	"github.com/yigit/mentorhub/internal/pkg/apperrors"
	"github.com/yigit/mentorhub/internal/pkg/helpers"
)

// EventService manages events and student registrations
type EventService interface {
	CreateEvent(ctx context.Context, actor authz.Actor, req *dto.CreateEventRequest) (*models.Event, error)
	UpdateEvent(ctx context.Context, actor authz.Actor, id int64, req *dto.UpdateEventRequest) (*models.Event, error)
	GetEvent(ctx context.Context, actor authz.Actor, id int64) (*dto.EventResponse, error)
	ListEvents(ctx context.Context, actor authz.Actor, filter dto.EventFilter) ([]*dto.EventResponse, *dto.PaginationInfo, error)
	Register(ctx context.Context, actor authz.Actor, eventID int64) (*models.EventParticipant, error)
	Unregister(ctx context.Context, actor authz.Actor, eventID int64) error
	ListParticipants(ctx context.Context, actor authz.Actor, eventID int64) ([]*models.EventParticipant, error)
	MarkAttended(ctx context.Context, actor authz.Actor, eventID, studentID int64) (*dto.AttendEventResult, error)
}

type eventServiceImpl struct {
	eventRepo   EventStore
	periodRepo  PeriodStore
	authz       *authz.AuthorizationService
	leaderboard LeaderboardService
	logger      zerolog.Logger
	now         func() time.Time
}

// NewEventService creates a new EventService
func NewEventService(eventRepo EventStore, periodRepo PeriodStore, authzService *authz.AuthorizationService, leaderboard LeaderboardService, logger zerolog.Logger) EventService {
	return &eventServiceImpl{
		eventRepo:   eventRepo,
		periodRepo:  periodRepo,
		authz:       authzService,
		leaderboard: leaderboard,
		logger:      logger,
		now:         time.Now,
	}
}

func validateEventTimes(e *models.Event) error {
	if e.EndsAt != nil && e.EndsAt.Before(e.StartsAt) {
		return fmt.Errorf("%w: endsAt must not be before startsAt", apperrors.ErrValidationFailed)
	}
	if e.RegistrationDeadline != nil && e.RegistrationDeadline.After(e.StartsAt) {
		return fmt.Errorf("%w: registrationDeadline must not be after startsAt", apperrors.ErrValidationFailed)
	}
	return nil
}

func (s *eventServiceImpl) CreateEvent(ctx context.Context, actor authz.Actor, req *dto.CreateEventRequest) (*models.Event, error) {
	if err := authz.RequireRole(actor, models.RoleAdmin, models.RoleTutor); err != nil {
		return nil, err
	}

	event := &models.Event{
		Title:                req.Title,
		Description:          req.Description,
		Location:             req.Location,
		StartsAt:             req.StartsAt,
		EndsAt:               req.EndsAt,
		RegistrationDeadline: req.RegistrationDeadline,
		Capacity:             req.Capacity,
		PointsReward:         req.PointsReward,
		Status:               models.EventOpen,
		CreatedBy:            actor.UserID,
	}
	if err := validateEventTimes(event); err != nil {
		return nil, err
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("eventID", event.ID).Int("capacity", event.Capacity).Msg("Event created")
	return event, nil
}

// UpdateEvent applies the non-nil fields of req. Capacity cannot drop below the registered count.
func (s *eventServiceImpl) UpdateEvent(ctx context.Context, actor authz.Actor, id int64, req *dto.UpdateEventRequest) (*models.Event, error) {
	if err := authz.RequireRole(actor, models.RoleAdmin, models.RoleTutor); err != nil {
		return nil, err
	}
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		event.Title = *req.Title
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.Location != nil {
		event.Location = *req.Location
	}
	if req.StartsAt != nil {
		event.StartsAt = *req.StartsAt
	}
	if req.EndsAt != nil {
		event.EndsAt = req.EndsAt
	}
	if req.RegistrationDeadline != nil {
		event.RegistrationDeadline = req.RegistrationDeadline
	}
	if req.Capacity != nil {
		if *req.Capacity < event.RegisteredCount {
			return nil, apperrors.ErrCapacityBelowCount
		}
		event.Capacity = *req.Capacity
	}
	if req.PointsReward != nil {
		event.PointsReward = *req.PointsReward
	}
	if req.Status != nil {
		event.Status = *req.Status
	}
	if err := validateEventTimes(event); err != nil {
		return nil, err
	}

	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *eventServiceImpl) GetEvent(ctx context.Context, actor authz.Actor, id int64) (*dto.EventResponse, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	responses, err := s.withRegistration(ctx, actor, []*models.Event{event})
	if err != nil {
		return nil, err
	}
	return responses[0], nil
}

func (s *eventServiceImpl) ListEvents(ctx context.Context, actor authz.Actor, filter dto.EventFilter) ([]*dto.EventResponse, *dto.PaginationInfo, error) {
	events, total, err := s.eventRepo.List(ctx, filter, s.now())
	if err != nil {
		return nil, nil, err
	}
	responses, err := s.withRegistration(ctx, actor, events)
	if err != nil {
		return nil, nil, err
	}
	info := helpers.NewPaginationInfo(total, filter.Page, filter.Size)
	return responses, &info, nil
}

// withRegistration adds spots left and, for students, whether they are registered
func (s *eventServiceImpl) withRegistration(ctx context.Context, actor authz.Actor, events []*models.Event) ([]*dto.EventResponse, error) {
	registered := map[int64]bool{}
	if actor.Role == models.RoleStudent && len(events) > 0 {
		ids := make([]int64, 0, len(events))
		for _, e := range events {
			ids = append(ids, e.ID)
		}
		var err error
		if registered, err = s.eventRepo.RegisteredEventIDs(ctx, actor.UserID, ids); err != nil {
			return nil, err
		}
	}

	out := make([]*dto.EventResponse, 0, len(events))
	for _, e := range events {
		spots := e.Capacity - e.RegisteredCount
		if spots < 0 {
			spots = 0
		}
		out = append(out, &dto.EventResponse{Event: e, SpotsLeft: spots, IsRegistered: registered[e.ID]})
	}
	return out, nil
}

// Register books a seat for the calling student; capacity is enforced in the database
func (s *eventServiceImpl) Register(ctx context.Context, actor authz.Actor, eventID int64) (*models.EventParticipant, error) {
	if err := authz.RequireRole(actor, models.RoleStudent); err != nil {
		return nil, err
	}
	participant, err := s.eventRepo.Register(ctx, eventID, actor.UserID, s.now())
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("eventID", eventID).Int64("studentID", actor.UserID).Msg("Student registered for event")
	return participant, nil
}

func (s *eventServiceImpl) Unregister(ctx context.Context, actor authz.Actor, eventID int64) error {
	if err := authz.RequireRole(actor, models.RoleStudent); err != nil {
		return err
	}
	return s.eventRepo.Unregister(ctx, eventID, actor.UserID)
}

func (s *eventServiceImpl) ListParticipants(ctx context.Context, actor authz.Actor, eventID int64) ([]*models.EventParticipant, error) {
	if err := authz.RequireRole(actor, models.RoleAdmin, models.RoleTutor, models.RoleAssistant); err != nil {
		return nil, err
	}
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.eventRepo.ListParticipants(ctx, eventID)
}

// MarkAttended marks a registered student as present and awards the event's points once
func (s *eventServiceImpl) MarkAttended(ctx context.Context, actor authz.Actor, eventID, studentID int64) (*dto.AttendEventResult, error) {
	if err := authz.RequireRole(actor, models.RoleAdmin, models.RoleTutor, models.RoleAssistant); err != nil {
		return nil, err
	}
	if _, err := s.authz.EnsureStudentInScope(ctx, actor, studentID); err != nil {
		return nil, err
	}
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	var (
		reward   *models.PointsTransaction
		periodID int64
	)
	if event.PointsReward > 0 {
		period, err := s.periodRepo.GetActive(ctx)
		if err != nil {
			return nil, err
		}
		periodID = period.ID
		awardedBy := actor.UserID
		reward = &models.PointsTransaction{
			StudentID: studentID,
			PeriodID:  period.ID,
			AwardedBy: &awardedBy,
			Amount:    event.PointsReward,
			Source:    models.SourceEvent,
			Note:      event.Title,
		}
	}

	participant, err := s.eventRepo.MarkAttended(ctx, eventID, studentID, s.now(), reward)
	if err != nil {
		return nil, err
	}

	result := &dto.AttendEventResult{Participant: participant}
	if reward != nil {
		result.PointsAwarded = reward.Amount
		s.leaderboard.Record(ctx, periodID, studentID, reward.Amount)
	}
	s.logger.Info().Int64("eventID", eventID).Int64("studentID", studentID).Int64("points", result.PointsAwarded).Msg("Event attendance marked")
	return result, nil
}
