package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestLeaderboard_MissThenRebuild(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestClient(t)
	lb := NewLeaderboard(client, 10*time.Minute)

	_, err := lb.Top(ctx, 1, 10)
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = lb.Rank(ctx, 1, 5)
	assert.ErrorIs(t, err, ErrCacheMiss)

	version, err := lb.Version(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), version)

	written, err := lb.Rebuild(ctx, 1, version, []Score{
		{StudentID: 5, Points: 40},
		{StudentID: 6, Points: 90},
		{StudentID: 7, Points: 10},
	})
	require.NoError(t, err)
	assert.True(t, written)
	assert.Equal(t, 10*time.Minute, mr.TTL("leaderboard:points:1"))

	top, err := lb.Top(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []Score{{StudentID: 6, Points: 90}, {StudentID: 5, Points: 40}}, top)

	rank, err := lb.Rank(ctx, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, rank)

	_, err = lb.Rank(ctx, 1, 99)
	assert.ErrorIs(t, err, ErrNotRanked)

	require.NoError(t, lb.Invalidate(ctx, 1))
	assert.False(t, mr.Exists("leaderboard:points:1"))
	_, err = lb.Rank(ctx, 1, 5)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestLeaderboard_StaleRebuildIsDiscarded(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestClient(t)
	lb := NewLeaderboard(client, time.Minute)

	version, err := lb.Version(ctx, 1)
	require.NoError(t, err)

	// an award lands after the snapshot was taken
	require.NoError(t, lb.Invalidate(ctx, 1))

	written, err := lb.Rebuild(ctx, 1, version, []Score{{StudentID: 5, Points: 40}})
	require.NoError(t, err)
	assert.False(t, written)
	assert.False(t, mr.Exists("leaderboard:points:1"))

	current, err := lb.Version(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, version+1, current)

	written, err = lb.Rebuild(ctx, 1, current, []Score{{StudentID: 5, Points: 50}})
	require.NoError(t, err)
	assert.True(t, written)

	// other periods are versioned separately
	written, err = lb.Rebuild(ctx, 2, 0, []Score{{StudentID: 5, Points: 1}})
	require.NoError(t, err)
	assert.True(t, written)
}

func TestLeaderboard_TiesUseStudentOrderAndShareRank(t *testing.T) {
	ctx := context.Background()
	_, client := newTestClient(t)
	lb := NewLeaderboard(client, time.Minute)

	_, err := lb.Rebuild(ctx, 1, 0, []Score{
		{StudentID: 11, Points: 30},
		{StudentID: 9, Points: 30},
		{StudentID: 10, Points: 30},
		{StudentID: 4, Points: 50},
		{StudentID: 2, Points: 10},
	})
	require.NoError(t, err)

	// reverse member order would pick "11" over "10"; the cut must still follow student IDs
	top, err := lb.Top(ctx, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, []Score{
		{StudentID: 4, Points: 50},
		{StudentID: 9, Points: 30},
		{StudentID: 10, Points: 30},
	}, top)

	all, err := lb.Top(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []Score{
		{StudentID: 4, Points: 50},
		{StudentID: 9, Points: 30},
		{StudentID: 10, Points: 30},
		{StudentID: 11, Points: 30},
		{StudentID: 2, Points: 10},
	}, all)

	for studentID, want := range map[int64]int{4: 1, 9: 2, 10: 2, 11: 2, 2: 5} {
		rank, err := lb.Rank(ctx, 1, studentID)
		require.NoError(t, err)
		assert.Equal(t, want, rank, "student %d", studentID)
	}
}

func TestLeaderboard_EmptyPeriodStaysCold(t *testing.T) {
	ctx := context.Background()
	_, client := newTestClient(t)
	lb := NewLeaderboard(client, time.Minute)

	written, err := lb.Rebuild(ctx, 3, 0, nil)
	require.NoError(t, err)
	assert.True(t, written)

	_, err = lb.Top(ctx, 3, 10)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestCheckInLimiter(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestClient(t)
	limiter := NewCheckInLimiter(client, 3, time.Minute)

	for i := 0; i < 3; i++ {
		blocked, err := limiter.Blocked(ctx, 42)
		require.NoError(t, err)
		assert.False(t, blocked, "attempt %d", i)
		require.NoError(t, limiter.RecordFailure(ctx, 42))
	}

	blocked, err := limiter.Blocked(ctx, 42)
	require.NoError(t, err)
	assert.True(t, blocked)

	other, err := limiter.Blocked(ctx, 43)
	require.NoError(t, err)
	assert.False(t, other)

	mr.FastForward(61 * time.Second)
	blocked, err = limiter.Blocked(ctx, 42)
	require.NoError(t, err)
	assert.False(t, blocked)
}
