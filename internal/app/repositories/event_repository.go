package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/mentorhub/internal/app/models"
	"github.com/yigit/mentorhub/internal/app/models/dto"
	"github.com/yigit/mentorhub/internal/db"
	"github.com/yigit/mentorhub/internal/pkg/apperrors"
	"github.com/yigit/mentorhub/internal/pkg/dberrors"
	"github.com/yigit/mentorhub/internal/pkg/helpers"
	"github.com/yigit/mentorhub/internal/pkg/logger"
)

var eventColumns = []string{
	"id", "title", "description", "location", "starts_at", "ends_at", "registration_deadline",
	"capacity", "registered_count", "points_reward", "status", "created_by", "created_at", "updated_at",
}

var participantColumns = []string{"id", "event_id", "student_id", "registered_at", "attended", "attended_at"}

// EventRepository handles events and their participants
type EventRepository struct {
	db db.DBTX
}

// NewEventRepository creates a new EventRepository
func NewEventRepository(conn db.DBTX) *EventRepository {
	return &EventRepository{db: conn}
}

func scanEvent(row pgx.Row) (*models.Event, error) {
	e := &models.Event{}
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Location, &e.StartsAt, &e.EndsAt, &e.RegistrationDeadline,
		&e.Capacity, &e.RegisteredCount, &e.PointsReward, &e.Status, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

func scanParticipant(row pgx.Row) (*models.EventParticipant, error) {
	p := &models.EventParticipant{}
	err := row.Scan(&p.ID, &p.EventID, &p.StudentID, &p.RegisteredAt, &p.Attended, &p.AttendedAt)
	return p, err
}

// Create inserts an event
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	if event.Status == "" {
		event.Status = models.EventOpen
	}

	sql, args, err := psql.Insert("part2_events").
		Columns("title", "description", "location", "starts_at", "ends_at", "registration_deadline",
			"capacity", "points_reward", "status", "created_by").
		Values(event.Title, event.Description, event.Location, event.StartsAt, event.EndsAt, event.RegistrationDeadline,
			event.Capacity, event.PointsReward, event.Status, event.CreatedBy).
		Suffix("RETURNING id, registered_count, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create event query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&event.ID, &event.RegisteredCount, &event.CreatedAt, &event.UpdatedAt); err != nil {
		logger.Error().Err(err).Str("title", event.Title).Msg("Error creating event")
		return fmt.Errorf("error creating event: %w", err)
	}
	return nil
}

// GetByID retrieves an event by ID
func (r *EventRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	return getEvent(ctx, r.db, id)
}

func getEvent(ctx context.Context, q db.DBTX, id int64) (*models.Event, error) {
	sql, args, err := psql.Select(eventColumns...).From("part2_events").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get event query: %w", err)
	}

	e, err := scanEvent(q.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, fmt.Errorf("error getting event: %w", err)
	}
	return e, nil
}

// List returns one page of events ordered by start time
func (r *EventRepository) List(ctx context.Context, filter dto.EventFilter, now time.Time) ([]*models.Event, int64, error) {
	where := squirrel.And{}
	if filter.Status != nil {
		where = append(where, squirrel.Eq{"status": *filter.Status})
	}
	if filter.Upcoming {
		where = append(where, squirrel.GtOrEq{"starts_at": now})
	}

	countSQL, countArgs, err := psql.Select("COUNT(*)").From("part2_events").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count events query: %w", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting events: %w", err)
	}

	offset, limit := helpers.CalculateOffsetLimit(filter.Page, filter.Size)
	sql, args, err := psql.Select(eventColumns...).From("part2_events").Where(where).
		OrderBy("starts_at", "id").
		Limit(limit).Offset(offset).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list events query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing events: %w", err)
	}
	defer rows.Close()

	events := make([]*models.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// Update persists the editable fields of an event
func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	sql, args, err := psql.Update("part2_events").
		Set("title", event.Title).
		Set("description", event.Description).
		Set("location", event.Location).
		Set("starts_at", event.StartsAt).
		Set("ends_at", event.EndsAt).
		Set("registration_deadline", event.RegistrationDeadline).
		Set("capacity", event.Capacity).
		Set("points_reward", event.PointsReward).
		Set("status", event.Status).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": event.ID}).
		Suffix("RETURNING registered_count, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update event query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&event.RegisteredCount, &event.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrEventNotFound
		}
		if dberrors.IsCheckViolation(err, "part2_events_registered_count_check") {
			return apperrors.ErrCapacityBelowCount
		}
		return fmt.Errorf("error updating event: %w", err)
	}
	return nil
}

// Register reserves a seat and adds the participant in one tx. The seat is taken with a
// conditional increment so concurrent registrations can never exceed capacity.
func (r *EventRepository) Register(ctx context.Context, eventID, studentID int64, now time.Time) (*models.EventParticipant, error) {
	var participant *models.EventParticipant
	err := db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		var id int64
		err := tx.QueryRow(ctx, `
UPDATE part2_events
SET registered_count = registered_count + 1, updated_at = NOW()
WHERE id = $1
  AND status = 'OPEN'
  AND registered_count < capacity
  AND (registration_deadline IS NULL OR registration_deadline > $2)
RETURNING id`, eventID, now).Scan(&id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return registrationRejection(ctx, tx, eventID, now)
			}
			if dberrors.IsCheckViolation(err, "part2_events_registered_count_check") {
				return apperrors.ErrEventFull
			}
			return fmt.Errorf("error reserving event seat: %w", err)
		}

		sql, args, err := psql.Insert("part2_event_participants").
			Columns("event_id", "student_id").
			Values(eventID, studentID).
			Suffix("RETURNING " + joinColumns(participantColumns)).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build register participant query: %w", err)
		}

		p, err := scanParticipant(tx.QueryRow(ctx, sql, args...))
		if err != nil {
			if dberrors.IsDuplicateConstraintError(err, "part2_event_participants_event_student_key") {
				return apperrors.ErrAlreadyRegistered
			}
			return fmt.Errorf("error registering participant: %w", err)
		}
		participant = p
		return nil
	})
	return participant, err
}

// registrationRejection explains why the conditional seat reservation matched no row
func registrationRejection(ctx context.Context, tx pgx.Tx, eventID int64, now time.Time) error {
	event, err := getEvent(ctx, tx, eventID)
	if err != nil {
		return err
	}

	closed, deadlinePassed, _ := event.RegistrationBlocked(now)
	switch {
	case closed:
		return apperrors.ErrEventClosed
	case deadlinePassed:
		return apperrors.ErrRegistrationClosed
	default:
		return apperrors.ErrEventFull
	}
}

// Unregister removes a registration that has not been marked attended and frees its seat.
// Only OPEN events accept it, so closed and cancelled events keep their counts.
func (r *EventRepository) Unregister(ctx context.Context, eventID, studentID int64) error {
	return db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		// event row first, in the same lock order as Register
		var status models.EventStatus
		err := tx.QueryRow(ctx, `SELECT status FROM part2_events WHERE id = $1 FOR UPDATE`, eventID).Scan(&status)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.ErrEventNotFound
			}
			return fmt.Errorf("error locking event: %w", err)
		}
		if status != models.EventOpen {
			return apperrors.ErrEventClosed
		}

		var attended bool
		err = tx.QueryRow(ctx,
			`SELECT attended FROM part2_event_participants WHERE event_id = $1 AND student_id = $2 FOR UPDATE`,
			eventID, studentID).Scan(&attended)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.ErrNotRegistered
			}
			return fmt.Errorf("error loading registration: %w", err)
		}
		if attended {
			return apperrors.ErrAlreadyMarkedAttended
		}

		if _, err := tx.Exec(ctx,
			`DELETE FROM part2_event_participants WHERE event_id = $1 AND student_id = $2`, eventID, studentID); err != nil {
			return fmt.Errorf("error removing registration: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE part2_events SET registered_count = registered_count - 1, updated_at = NOW() WHERE id = $1`, eventID); err != nil {
			return fmt.Errorf("error releasing event seat: %w", err)
		}
		return nil
	})
}

// MarkAttended flags a participant as attended and, when reward is non-nil, awards its points in the same tx.
// A participant can be marked only once.
func (r *EventRepository) MarkAttended(ctx context.Context, eventID, studentID int64, at time.Time, reward *models.PointsTransaction) (*models.EventParticipant, error) {
	var participant *models.EventParticipant
	err := db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		sql, args, err := psql.Update("part2_event_participants").
			Set("attended", true).
			Set("attended_at", at).
			Where(squirrel.Eq{"event_id": eventID, "student_id": studentID, "attended": false}).
			Suffix("RETURNING " + joinColumns(participantColumns)).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build mark attended query: %w", err)
		}

		p, err := scanParticipant(tx.QueryRow(ctx, sql, args...))
		if err != nil {
			if !errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("error marking attendance: %w", err)
			}
			var exists bool
			if err := tx.QueryRow(ctx,
				`SELECT EXISTS(SELECT 1 FROM part2_event_participants WHERE event_id = $1 AND student_id = $2)`,
				eventID, studentID).Scan(&exists); err != nil {
				return fmt.Errorf("error checking registration: %w", err)
			}
			if exists {
				return apperrors.ErrAlreadyMarkedAttended
			}
			return apperrors.ErrNotRegistered
		}

		if reward != nil {
			reward.SourceRef = &eventID
			if _, err := applyLedgerEntry(ctx, tx, PointsLedger, reward); err != nil {
				return err
			}
		}
		participant = p
		return nil
	})
	return participant, err
}

// ListParticipants returns an event's participants with names, in registration order
func (r *EventRepository) ListParticipants(ctx context.Context, eventID int64) ([]*models.EventParticipant, error) {
	sql, args, err := psql.Select("p.id", "p.event_id", "p.student_id", "p.registered_at", "p.attended", "p.attended_at",
		"u.first_name", "u.last_name").
		From("part2_event_participants p").
		Join("users u ON u.id = p.student_id").
		Where(squirrel.Eq{"p.event_id": eventID}).
		OrderBy("p.registered_at", "p.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list participants query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing participants: %w", err)
	}
	defer rows.Close()

	participants := make([]*models.EventParticipant, 0)
	for rows.Next() {
		p := &models.EventParticipant{}
		if err := rows.Scan(&p.ID, &p.EventID, &p.StudentID, &p.RegisteredAt, &p.Attended, &p.AttendedAt,
			&p.FirstName, &p.LastName); err != nil {
			return nil, fmt.Errorf("error scanning participant: %w", err)
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

// RegisteredEventIDs reports which of eventIDs the student is registered for
func (r *EventRepository) RegisteredEventIDs(ctx context.Context, studentID int64, eventIDs []int64) (map[int64]bool, error) {
	registered := make(map[int64]bool, len(eventIDs))
	if len(eventIDs) == 0 {
		return registered, nil
	}

	sql, args, err := psql.Select("event_id").From("part2_event_participants").
		Where(squirrel.Eq{"student_id": studentID, "event_id": eventIDs}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build registered events query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error loading registrations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning registration: %w", err)
		}
		registered[id] = true
	}
	return registered, rows.Err()
}

// CountOpen counts events accepting registrations
func (r *EventRepository) CountOpen(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM part2_events WHERE status = 'OPEN'`).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting open events: %w", err)
	}
	return n, nil
}
