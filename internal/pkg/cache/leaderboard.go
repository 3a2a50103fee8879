package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// invalidate bumps the period version, so a rebuild started earlier is discarded, and drops the set
var invalidate = redis.NewScript(`
redis.call('INCR', KEYS[2])
return redis.call('DEL', KEYS[1])
`)

// rebuildIfCurrent replaces the set only while the version still equals ARGV[1].
// ARGV[2] is the TTL in milliseconds (0 for none); the rest are score/member pairs.
var rebuildIfCurrent = redis.NewScript(`
local current = redis.call('GET', KEYS[2]) or '0'
if current ~= ARGV[1] then
	return 0
end
redis.call('DEL', KEYS[1])
for i = 3, #ARGV, 2 do
	redis.call('ZADD', KEYS[1], ARGV[i], ARGV[i + 1])
end
if tonumber(ARGV[2]) > 0 and redis.call('EXISTS', KEYS[1]) == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return 1
`)

// competitionRank returns 1 + the number of strictly higher scores, -1 for an absent member
// and -2 for a cold leaderboard
var competitionRank = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return -2
end
local score = redis.call('ZSCORE', KEYS[1], ARGV[1])
if not score then
	return -1
end
return redis.call('ZCOUNT', KEYS[1], '(' .. score, '+inf') + 1
`)

// Score is one member of a period leaderboard
type Score struct {
	StudentID int64
	Points    int64
}

// SortScores orders scores by points descending, ties by student ID ascending
func SortScores(scores []Score) {
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Points != scores[j].Points {
			return scores[i].Points > scores[j].Points
		}
		return scores[i].StudentID < scores[j].StudentID
	})
}

// Leaderboard keeps per-period points rankings in Redis sorted sets.
// Awards invalidate a period; reads rebuild it from the ledger.
type Leaderboard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLeaderboard creates a leaderboard cache whose keys live for ttl after each rebuild
func NewLeaderboard(client *redis.Client, ttl time.Duration) *Leaderboard {
	return &Leaderboard{client: client, ttl: ttl}
}

// Version returns the invalidation counter of a period. Read it before taking the
// snapshot passed to Rebuild.
func (l *Leaderboard) Version(ctx context.Context, periodID int64) (int64, error) {
	v, err := l.client.Get(ctx, leaderboardVersionKey(periodID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("leaderboard version: %w", err)
	}
	return v, nil
}

// Top returns the highest scores for a period, points descending and ties by student ID
func (l *Leaderboard) Top(ctx context.Context, periodID int64, limit int) ([]Score, error) {
	key := leaderboardKey(periodID)

	members, err := l.client.ZRevRangeWithScores(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("leaderboard range: %w", err)
	}
	if len(members) == 0 {
		exists, err := l.client.Exists(ctx, key).Result()
		if err != nil {
			return nil, fmt.Errorf("leaderboard exists: %w", err)
		}
		if exists == 0 {
			return nil, ErrCacheMiss
		}
		return []Score{}, nil
	}

	// members tied with the last one may sit past the cut in member order
	if len(members) == limit {
		last := strconv.FormatFloat(members[len(members)-1].Score, 'f', -1, 64)
		ties, err := l.client.ZRangeByScoreWithScores(ctx, key, &redis.ZRangeBy{Min: last, Max: last}).Result()
		if err != nil {
			return nil, fmt.Errorf("leaderboard ties: %w", err)
		}
		members = append(members, ties...)
	}

	seen := make(map[int64]bool, len(members))
	scores := make([]Score, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(fmt.Sprint(m.Member), 10, 64)
		if err != nil || seen[id] {
			continue
		}
		seen[id] = true
		scores = append(scores, Score{StudentID: id, Points: int64(m.Score)})
	}
	SortScores(scores)
	if len(scores) > limit {
		scores = scores[:limit]
	}
	return scores, nil
}

// Rank returns a student's competition rank in a period: 1 + the number of students with more points
func (l *Leaderboard) Rank(ctx context.Context, periodID, studentID int64) (int, error) {
	rank, err := competitionRank.Run(ctx, l.client, []string{leaderboardKey(periodID)}, strconv.FormatInt(studentID, 10)).Int()
	if err != nil {
		return 0, fmt.Errorf("leaderboard rank: %w", err)
	}
	switch rank {
	case -2:
		return 0, ErrCacheMiss
	case -1:
		return 0, ErrNotRanked
	}
	return rank, nil
}

// Rebuild replaces a period leaderboard atomically unless it was invalidated after
// version was read. It reports whether the set was written.
func (l *Leaderboard) Rebuild(ctx context.Context, periodID, version int64, scores []Score) (bool, error) {
	args := make([]interface{}, 0, 2+2*len(scores))
	args = append(args, strconv.FormatInt(version, 10), l.ttl.Milliseconds())
	for _, s := range scores {
		args = append(args, s.Points, strconv.FormatInt(s.StudentID, 10))
	}

	keys := []string{leaderboardKey(periodID), leaderboardVersionKey(periodID)}
	written, err := rebuildIfCurrent.Run(ctx, l.client, keys, args...).Int()
	if err != nil {
		return false, fmt.Errorf("leaderboard rebuild: %w", err)
	}
	return written == 1, nil
}

// Invalidate drops a period leaderboard and discards rebuilds in flight
func (l *Leaderboard) Invalidate(ctx context.Context, periodID int64) error {
	keys := []string{leaderboardKey(periodID), leaderboardVersionKey(periodID)}
	if err := invalidate.Run(ctx, l.client, keys).Err(); err != nil {
		return fmt.Errorf("leaderboard invalidate: %w", err)
	}
	return nil
}
