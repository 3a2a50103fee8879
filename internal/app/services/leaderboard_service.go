package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/yigit/mentorhub/internal/app/models"
	"github.com/yigit/mentorhub/internal/app/models/dto"
	"github.com/yigit/mentorhub/internal/pkg/cache"
)

const (
	defaultLeaderboardSize = 10
	maxLeaderboardSize     = 100
)

// Leaderboard sources reported to clients
const (
	LeaderboardSourceCache    = "cache"
	LeaderboardSourceDatabase = "database"
)

// LeaderboardService ranks students by points earned in a period
type LeaderboardService interface {
	Leaderboard(ctx context.Context, periodID *int64, limit int) (*dto.LeaderboardResponse, error)
	StudentRank(ctx context.Context, periodID, studentID int64) (*int, error)
	// Record invalidates the cached ranking after a committed award
	Record(ctx context.Context, periodID, studentID, delta int64)
}

type leaderboardServiceImpl struct {
	ledgerRepo LedgerStore
	periodRepo PeriodStore
	userRepo   UserStore
	cache      LeaderboardCache
	logger     zerolog.Logger
}

// NewLeaderboardService creates a new LeaderboardService. cache may be nil when Redis is disabled.
func NewLeaderboardService(ledgerRepo LedgerStore, periodRepo PeriodStore, userRepo UserStore, cache LeaderboardCache, logger zerolog.Logger) LeaderboardService {
	return &leaderboardServiceImpl{
		ledgerRepo: ledgerRepo,
		periodRepo: periodRepo,
		userRepo:   userRepo,
		cache:      cache,
		logger:     logger,
	}
}

// Leaderboard returns the top students of a period, the active one when periodID is nil.
// The Redis sorted set is served when warm; otherwise the ranking is computed from the ledger and re-warmed
// unless an award landed while it was being computed.
func (s *leaderboardServiceImpl) Leaderboard(ctx context.Context, periodID *int64, limit int) (*dto.LeaderboardResponse, error) {
	if limit <= 0 {
		limit = defaultLeaderboardSize
	}
	if limit > maxLeaderboardSize {
		limit = maxLeaderboardSize
	}

	period, err := s.resolvePeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		entries, err := s.fromCache(ctx, period.ID, limit)
		if err == nil {
			return &dto.LeaderboardResponse{PeriodID: period.ID, Source: LeaderboardSourceCache, Entries: entries}, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn().Err(err).Int64("periodID", period.ID).Msg("Leaderboard cache unavailable, using database")
		}
	}

	version, warmable := s.version(ctx, period.ID)
	all, err := s.ledgerRepo.PeriodTotals(ctx, period.ID, 0)
	if err != nil {
		return nil, err
	}
	if warmable {
		s.warm(ctx, period.ID, version, all)
	}

	if len(all) > limit {
		all = all[:limit]
	}
	return &dto.LeaderboardResponse{PeriodID: period.ID, Source: LeaderboardSourceDatabase, Entries: all}, nil
}

func (s *leaderboardServiceImpl) resolvePeriod(ctx context.Context, periodID *int64) (*models.Period, error) {
	if periodID != nil {
		return s.periodRepo.GetByID(ctx, *periodID)
	}
	return s.periodRepo.GetActive(ctx)
}

func (s *leaderboardServiceImpl) fromCache(ctx context.Context, periodID int64, limit int) ([]models.LeaderboardEntry, error) {
	scores, err := s.cache.Top(ctx, periodID, limit)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(scores))
	for _, sc := range scores {
		ids = append(ids, sc.StudentID)
	}
	users, err := s.userRepo.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	entries := make([]models.LeaderboardEntry, 0, len(scores))
	for _, sc := range scores {
		e := models.LeaderboardEntry{StudentID: sc.StudentID, Points: sc.Points}
		if u, ok := users[sc.StudentID]; ok {
			e.FirstName, e.LastName = u.FirstName, u.LastName
		}
		entries = append(entries, e)
	}
	models.AssignRanks(entries)
	return entries, nil
}

// version reads the invalidation counter before the ledger snapshot; false means do not warm
func (s *leaderboardServiceImpl) version(ctx context.Context, periodID int64) (int64, bool) {
	if s.cache == nil {
		return 0, false
	}
	v, err := s.cache.Version(ctx, periodID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("periodID", periodID).Msg("Failed to read leaderboard version")
		return 0, false
	}
	return v, true
}

func (s *leaderboardServiceImpl) warm(ctx context.Context, periodID, version int64, entries []models.LeaderboardEntry) {
	scores := make([]cache.Score, 0, len(entries))
	for _, e := range entries {
		scores = append(scores, cache.Score{StudentID: e.StudentID, Points: e.Points})
	}
	written, err := s.cache.Rebuild(ctx, periodID, version, scores)
	if err != nil {
		s.logger.Warn().Err(err).Int64("periodID", periodID).Msg("Failed to warm leaderboard cache")
		return
	}
	if !written {
		s.logger.Debug().Int64("periodID", periodID).Msg("Leaderboard changed during rebuild, cache left cold")
	}
}

// StudentRank returns the student's rank in the period, or nil when they have no points rows
func (s *leaderboardServiceImpl) StudentRank(ctx context.Context, periodID, studentID int64) (*int, error) {
	if s.cache != nil {
		rank, err := s.cache.Rank(ctx, periodID, studentID)
		switch {
		case err == nil:
			return &rank, nil
		case errors.Is(err, cache.ErrNotRanked):
			return nil, nil
		case !errors.Is(err, cache.ErrCacheMiss):
			s.logger.Warn().Err(err).Int64("periodID", periodID).Msg("Leaderboard rank lookup failed, using database")
		}
	}

	rank, ok, err := s.ledgerRepo.StudentRank(ctx, periodID, studentID)
	if err != nil || !ok {
		return nil, err
	}
	return &rank, nil
}

func (s *leaderboardServiceImpl) Record(ctx context.Context, periodID, studentID, delta int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, periodID); err != nil {
		s.logger.Warn().Err(err).Int64("periodID", periodID).Int64("studentID", studentID).Int64("delta", delta).Msg("Failed to invalidate leaderboard cache")
	}
}
