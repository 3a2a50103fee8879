package services

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	authz "github.com/yigit/mentorhub/internal/app/auth"
	"github.com/yigit/mentorhub/internal/app/models"
	"github.com/yigit/mentorhub/internal/app/models/dto"
	"github.com/yigit/mentorhub/internal/pkg/apperrors"
)

func newLedgerTestService(f *fixture) (*ledgerServiceImpl, *fakeLedger, *recordingLeaderboard) {
	ledger := &fakeLedger{users: f.users}
	board := &recordingLeaderboard{}
	reasons := &fakeReasons{reasons: map[int64]*models.PointReason{
		1: {ID: 1, Name: "Homework completed", DefaultAmount: 10, IsActive: true},
		2: {ID: 2, Name: "Retired", DefaultAmount: 5, IsActive: false},
	}}
	svc := NewLedgerService(ledger, f.period, reasons, f.users, f.authz, board, f.logger).(*ledgerServiceImpl)
	svc.now = fixedNow
	return svc, ledger, board
}

func TestAwardPoints_UsesReasonDefault(t *testing.T) {
	f := newFixture()
	svc, ledger, board := newLedgerTestService(f)

	res, err := svc.AwardPoints(context.Background(), assistantActor, &dto.AwardPointsRequest{StudentID: 5, ReasonID: ptr(int64(1))})
	require.NoError(t, err)

	assert.Equal(t, int64(30), res.NewBalance)
	assert.Equal(t, int64(10), res.Transaction.Amount)
	assert.Equal(t, "Homework completed", res.Transaction.Note)
	assert.Equal(t, int64(9), res.Transaction.PeriodID)
	assert.Equal(t, models.SourceManual, res.Transaction.Source)
	assert.Len(t, ledger.entries, 1)
	assert.Equal(t, []int64{10}, board.records)
}

func TestAwardPoints_ExplicitAmountOverridesReason(t *testing.T) {
	f := newFixture()
	svc, _, _ := newLedgerTestService(f)

	res, err := svc.AwardPoints(context.Background(), tutorActor, &dto.AwardPointsRequest{
		StudentID: 5, ReasonID: ptr(int64(1)), Amount: ptr(int64(-5)), Note: "late",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(15), res.NewBalance)
	assert.Equal(t, "late", res.Transaction.Note)
}

func TestAwardPoints_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(f *fixture)
		actor   authz.Actor
		req     dto.AwardPointsRequest
		wantErr error
	}{
		{
			name:    "student cannot award",
			actor:   studentActor,
			req:     dto.AwardPointsRequest{StudentID: 5, Amount: ptr(int64(5))},
			wantErr: apperrors.ErrPermissionDenied,
		},
		{
			name:    "tutor outside scope",
			actor:   otherTutor,
			req:     dto.AwardPointsRequest{StudentID: 5, Amount: ptr(int64(5))},
			wantErr: apperrors.ErrStudentNotInScope,
		},
		{
			name:    "no active period",
			setup:   func(f *fixture) { f.period.active = nil },
			actor:   adminActor,
			req:     dto.AwardPointsRequest{StudentID: 5, Amount: ptr(int64(5))},
			wantErr: apperrors.ErrNoActivePeriod,
		},
		{
			name:    "zero amount",
			actor:   adminActor,
			req:     dto.AwardPointsRequest{StudentID: 5, Amount: ptr(int64(0))},
			wantErr: apperrors.ErrInvalidAmount,
		},
		{
			name:    "amount too large",
			actor:   adminActor,
			req:     dto.AwardPointsRequest{StudentID: 5, Amount: ptr(int64(dto.MaxAwardAmount + 1))},
			wantErr: apperrors.ErrInvalidAmount,
		},
		{
			name:    "inactive reason",
			actor:   adminActor,
			req:     dto.AwardPointsRequest{StudentID: 5, ReasonID: ptr(int64(2))},
			wantErr: apperrors.ErrPointReasonInactive,
		},
		{
			name:    "would go negative",
			actor:   adminActor,
			req:     dto.AwardPointsRequest{StudentID: 5, Amount: ptr(int64(-21))},
			wantErr: apperrors.ErrInsufficientPoints,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			if tt.setup != nil {
				tt.setup(f)
			}
			svc, ledger, board := newLedgerTestService(f)

			req := tt.req
			_, err := svc.AwardPoints(context.Background(), tt.actor, &req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, ledger.entries)
			assert.Empty(t, board.records)
			assert.Equal(t, int64(20), f.users.users[5].PointsBalance)
		})
	}
}

func TestAwardExperience(t *testing.T) {
	f := newFixture()
	svc, _, _ := newLedgerTestService(f)

	_, err := svc.AwardExperience(context.Background(), assistantActor, &dto.AwardExperienceRequest{StudentID: 5, Amount: 50})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	_, err = svc.AwardExperience(context.Background(), tutorActor, &dto.AwardExperienceRequest{StudentID: 5, Amount: 0})
	assert.ErrorIs(t, err, apperrors.ErrInvalidAmount)

	_, err = svc.AwardExperience(context.Background(), tutorActor, &dto.AwardExperienceRequest{StudentID: 5, Amount: math.MaxInt64})
	assert.ErrorIs(t, err, apperrors.ErrInvalidAmount)
	assert.Zero(t, f.users.users[5].ExperienceTotal)

	res, err := svc.AwardExperience(context.Background(), tutorActor, &dto.AwardExperienceRequest{StudentID: 5, Amount: 300})
	require.NoError(t, err)
	assert.Equal(t, int64(300), res.NewBalance)
	require.NotNil(t, res.Level)
	assert.Equal(t, 3, *res.Level)
}
