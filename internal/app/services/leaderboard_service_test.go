package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/mentorhub/internal/app/models"
	"github.com/yigit/mentorhub/internal/pkg/cache"
)

func newLeaderboardTest(t *testing.T, withCache bool) (*leaderboardServiceImpl, *fakeLedger) {
	t.Helper()
	f := newFixture()
	ledger := &fakeLedger{users: f.users, totals: []models.LeaderboardEntry{
		{Rank: 1, StudentID: 5, FirstName: "Ada", LastName: "Lovelace", Points: 40},
		{Rank: 2, StudentID: 6, FirstName: "Alan", LastName: "Turing", Points: 25},
	}}

	var lc LeaderboardCache
	if withCache {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		lc = cache.NewLeaderboard(client, time.Hour)
	}

	svc := NewLeaderboardService(ledger, f.period, f.users, lc, f.logger).(*leaderboardServiceImpl)
	return svc, ledger
}

// awardingLedger commits an award while the leaderboard snapshot is being read
type awardingLedger struct {
	*fakeLedger
	onTotals func()
}

func (a *awardingLedger) PeriodTotals(ctx context.Context, periodID int64, limit uint64) ([]models.LeaderboardEntry, error) {
	entries, err := a.fakeLedger.PeriodTotals(ctx, periodID, limit)
	if a.onTotals != nil {
		a.onTotals()
	}
	return entries, err
}

func TestLeaderboard_WarmsCacheFromDatabase(t *testing.T) {
	svc, ledger := newLeaderboardTest(t, true)
	ctx := context.Background()

	first, err := svc.Leaderboard(ctx, nil, 10)
	require.NoError(t, err)
	assert.Equal(t, LeaderboardSourceDatabase, first.Source)
	assert.Equal(t, int64(9), first.PeriodID)
	require.Len(t, first.Entries, 2)

	ledger.totals = nil
	second, err := svc.Leaderboard(ctx, nil, 10)
	require.NoError(t, err)
	assert.Equal(t, LeaderboardSourceCache, second.Source)
	assert.Equal(t, first.Entries, second.Entries)

	rank, err := svc.StudentRank(ctx, 9, 6)
	require.NoError(t, err)
	require.NotNil(t, rank)
	assert.Equal(t, 2, *rank)

	rank, err = svc.StudentRank(ctx, 9, 99)
	require.NoError(t, err)
	assert.Nil(t, rank)

	// an award drops the cached ranking; the next read comes from the ledger
	ledger.totals = []models.LeaderboardEntry{
		{Rank: 1, StudentID: 6, FirstName: "Alan", LastName: "Turing", Points: 45},
		{Rank: 2, StudentID: 5, FirstName: "Ada", LastName: "Lovelace", Points: 40},
	}
	svc.Record(ctx, 9, 6, 20)

	third, err := svc.Leaderboard(ctx, nil, 10)
	require.NoError(t, err)
	assert.Equal(t, LeaderboardSourceDatabase, third.Source)
	assert.Equal(t, int64(6), third.Entries[0].StudentID)

	fourth, err := svc.Leaderboard(ctx, nil, 10)
	require.NoError(t, err)
	assert.Equal(t, LeaderboardSourceCache, fourth.Source)
	assert.Equal(t, third.Entries, fourth.Entries)
}

func TestLeaderboard_AwardDuringRebuildKeepsCacheCold(t *testing.T) {
	svc, ledger := newLeaderboardTest(t, true)
	ctx := context.Background()

	racing := &awardingLedger{fakeLedger: ledger}
	racing.onTotals = func() {
		racing.onTotals = nil
		svc.Record(ctx, 9, 6, 20)
	}
	svc.ledgerRepo = racing

	first, err := svc.Leaderboard(ctx, nil, 10)
	require.NoError(t, err)
	assert.Equal(t, LeaderboardSourceDatabase, first.Source)

	// the stale snapshot was not written, so the award is visible on the next read
	ledger.totals = []models.LeaderboardEntry{
		{Rank: 1, StudentID: 6, FirstName: "Alan", LastName: "Turing", Points: 45},
		{Rank: 2, StudentID: 5, FirstName: "Ada", LastName: "Lovelace", Points: 40},
	}
	second, err := svc.Leaderboard(ctx, nil, 10)
	require.NoError(t, err)
	assert.Equal(t, LeaderboardSourceDatabase, second.Source)
	assert.Equal(t, int64(45), second.Entries[0].Points)

	third, err := svc.Leaderboard(ctx, nil, 10)
	require.NoError(t, err)
	assert.Equal(t, LeaderboardSourceCache, third.Source)
	assert.Equal(t, second.Entries, third.Entries)
}

func TestLeaderboard_TiesMatchAcrossSources(t *testing.T) {
	svc, ledger := newLeaderboardTest(t, true)
	ctx := context.Background()

	ledger.totals = []models.LeaderboardEntry{
		{Rank: 1, StudentID: 5, FirstName: "Ada", LastName: "Lovelace", Points: 30},
		{Rank: 1, StudentID: 6, FirstName: "Alan", LastName: "Turing", Points: 30},
		{Rank: 3, StudentID: 7, Points: 10},
	}

	fromDB, err := svc.Leaderboard(ctx, nil, 2)
	require.NoError(t, err)
	assert.Equal(t, LeaderboardSourceDatabase, fromDB.Source)

	fromCache, err := svc.Leaderboard(ctx, nil, 2)
	require.NoError(t, err)
	assert.Equal(t, LeaderboardSourceCache, fromCache.Source)
	assert.Equal(t, fromDB.Entries, fromCache.Entries)
	assert.Equal(t, []int{1, 1}, []int{fromCache.Entries[0].Rank, fromCache.Entries[1].Rank})

	for studentID, want := range map[int64]int{5: 1, 6: 1, 7: 3} {
		dbRank, _, err := ledger.StudentRank(ctx, 9, studentID)
		require.NoError(t, err)
		cached, err := svc.StudentRank(ctx, 9, studentID)
		require.NoError(t, err)
		require.NotNil(t, cached)
		assert.Equal(t, want, *cached, "student %d", studentID)
		assert.Equal(t, dbRank, *cached, "student %d", studentID)
	}
}

func TestLeaderboard_WithoutCache(t *testing.T) {
	svc, _ := newLeaderboardTest(t, false)
	ctx := context.Background()

	svc.Record(ctx, 9, 5, 10)

	res, err := svc.Leaderboard(ctx, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, LeaderboardSourceDatabase, res.Source)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, int64(5), res.Entries[0].StudentID)

	rank, err := svc.StudentRank(ctx, 9, 6)
	require.NoError(t, err)
	require.NotNil(t, rank)
	assert.Equal(t, 2, *rank)
}

func TestLeaderboard_UnknownPeriod(t *testing.T) {
	svc, _ := newLeaderboardTest(t, false)
	_, err := svc.Leaderboard(context.Background(), ptr(int64(404)), 0)
	assert.Error(t, err)
}
