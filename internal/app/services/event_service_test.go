package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/mentorhub/internal/app/models"
	"github.com/yigit/mentorhub/internal/app/models/dto"
	"github.com/yigit/mentorhub/internal/pkg/apperrors"
)

type fakeEvents struct {
	EventStore
	ledger       *fakeLedger
	events       map[int64]*models.Event
	participants map[[2]int64]*models.EventParticipant
}

func (f *fakeEvents) GetByID(_ context.Context, id int64) (*models.Event, error) {
	e, ok := f.events[id]
	if !ok {
		return nil, apperrors.ErrEventNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeEvents) Update(_ context.Context, e *models.Event) error {
	f.events[e.ID] = e
	return nil
}

func (f *fakeEvents) RegisteredEventIDs(_ context.Context, studentID int64, ids []int64) (map[int64]bool, error) {
	out := map[int64]bool{}
	for _, id := range ids {
		if _, ok := f.participants[[2]int64{id, studentID}]; ok {
			out[id] = true
		}
	}
	return out, nil
}

func (f *fakeEvents) MarkAttended(ctx context.Context, eventID, studentID int64, at time.Time, reward *models.PointsTransaction) (*models.EventParticipant, error) {
	p, ok := f.participants[[2]int64{eventID, studentID}]
	if !ok {
		return nil, apperrors.ErrNotRegistered
	}
	if p.Attended {
		return nil, apperrors.ErrAlreadyMarkedAttended
	}
	if reward != nil {
		ref := eventID
		reward.SourceRef = &ref
		if _, err := f.ledger.AwardPoints(ctx, reward); err != nil {
			return nil, err
		}
	}
	p.Attended = true
	p.AttendedAt = &at
	return p, nil
}

func newEventTest() (*eventServiceImpl, *fakeEvents, *recordingLeaderboard) {
	f := newFixture()
	store := &fakeEvents{
		ledger: &fakeLedger{users: f.users},
		events: map[int64]*models.Event{
			1: {ID: 1, Title: "Robotics workshop", Capacity: 10, RegisteredCount: 4, PointsReward: 20, Status: models.EventOpen},
		},
		participants: map[[2]int64]*models.EventParticipant{
			{1, 5}: {ID: 1, EventID: 1, StudentID: 5},
		},
	}
	board := &recordingLeaderboard{}
	svc := NewEventService(store, f.period, f.authz, board, f.logger).(*eventServiceImpl)
	svc.now = fixedNow
	return svc, store, board
}

func TestGetEvent_RegistrationState(t *testing.T) {
	svc, _, _ := newEventTest()

	res, err := svc.GetEvent(context.Background(), studentActor, 1)
	require.NoError(t, err)
	assert.True(t, res.IsRegistered)
	assert.Equal(t, 6, res.SpotsLeft)

	res, err = svc.GetEvent(context.Background(), otherStudent, 1)
	require.NoError(t, err)
	assert.False(t, res.IsRegistered)
}

func TestMarkAttended_AwardsOnce(t *testing.T) {
	svc, store, board := newEventTest()
	ctx := context.Background()

	res, err := svc.MarkAttended(ctx, tutorActor, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(20), res.PointsAwarded)
	assert.True(t, res.Participant.Attended)
	require.Len(t, store.ledger.entries, 1)
	assert.Equal(t, models.SourceEvent, store.ledger.entries[0].Source)
	assert.Equal(t, int64(1), *store.ledger.entries[0].SourceRef)
	assert.Equal(t, []int64{20}, board.records)

	_, err = svc.MarkAttended(ctx, tutorActor, 1, 5)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyMarkedAttended)
	assert.Len(t, store.ledger.entries, 1)

	_, err = svc.MarkAttended(ctx, tutorActor, 1, 6)
	assert.ErrorIs(t, err, apperrors.ErrStudentNotInScope)
}

func TestUpdateEvent(t *testing.T) {
	svc, _, _ := newEventTest()
	ctx := context.Background()

	_, err := svc.UpdateEvent(ctx, tutorActor, 1, &dto.UpdateEventRequest{Capacity: ptr(3)})
	assert.ErrorIs(t, err, apperrors.ErrCapacityBelowCount)

	closed := models.EventClosed
	e, err := svc.UpdateEvent(ctx, adminActor, 1, &dto.UpdateEventRequest{Capacity: ptr(4), Status: &closed})
	require.NoError(t, err)
	assert.Equal(t, 4, e.Capacity)
	assert.Equal(t, models.EventClosed, e.Status)

	_, err = svc.UpdateEvent(ctx, assistantActor, 1, &dto.UpdateEventRequest{})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestCreateEvent_ValidatesTimes(t *testing.T) {
	svc, _, _ := newEventTest()

	_, err := svc.CreateEvent(context.Background(), tutorActor, &dto.CreateEventRequest{
		Title:    "Hackathon",
		StartsAt: testNow,
		EndsAt:   ptr(testNow.Add(-time.Hour)),
		Capacity: 5,
	})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = svc.Register(context.Background(), tutorActor, 1)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}
