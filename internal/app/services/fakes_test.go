package services

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	authz "github.com/yigit/mentorhub/internal/app/auth"
	"github.com/yigit/mentorhub/internal/app/models"
	"github.com/yigit/mentorhub/internal/pkg/apperrors"
	"github.com/yigit/mentorhub/internal/pkg/websocket"
)

// Fakes embed the store interface so that methods a test does not need panic when called.

var testNow = time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

func ptr[T any](v T) *T { return &v }

type fakeUsers struct {
	UserStore
	users map[int64]*models.User
}

func newFakeUsers(users ...*models.User) *fakeUsers {
	f := &fakeUsers{users: map[int64]*models.User{}}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUsers) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (f *fakeUsers) GetUsersByIDs(_ context.Context, ids []int64) (map[int64]*models.User, error) {
	out := map[int64]*models.User{}
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (f *fakeUsers) UpdateLastLogin(context.Context, int64, time.Time) error { return nil }

type fakeTokens struct {
	TokenStore
	tokens  map[string]*models.RefreshToken
	revoked []int64
}

func (f *fakeTokens) CreateToken(_ context.Context, token string, userID int64, expiry time.Time) error {
	f.tokens[token] = &models.RefreshToken{Token: token, UserID: userID, ExpiryDate: expiry}
	return nil
}

func (f *fakeTokens) GetToken(_ context.Context, token string) (*models.RefreshToken, error) {
	t, ok := f.tokens[token]
	if !ok {
		return nil, apperrors.ErrTokenNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTokens) RevokeToken(_ context.Context, token string) error {
	if t, ok := f.tokens[token]; ok {
		t.IsRevoked = true
	}
	return nil
}

func (f *fakeTokens) RotateToken(ctx context.Context, oldToken, newToken string, userID int64, expiry time.Time) error {
	old := f.tokens[oldToken]
	if old.IsRevoked {
		return apperrors.ErrTokenRevoked
	}
	old.IsRevoked = true
	return f.CreateToken(ctx, newToken, userID, expiry)
}

func (f *fakeTokens) RevokeAllUserTokens(_ context.Context, userID int64) error {
	f.revoked = append(f.revoked, userID)
	return nil
}

type fakePeriods struct {
	PeriodStore
	active *models.Period
}

func (f *fakePeriods) GetActive(context.Context) (*models.Period, error) {
	if f.active == nil {
		return nil, apperrors.ErrNoActivePeriod
	}
	return f.active, nil
}

func (f *fakePeriods) GetByID(_ context.Context, id int64) (*models.Period, error) {
	if f.active != nil && f.active.ID == id {
		return f.active, nil
	}
	return nil, apperrors.ErrPeriodNotFound
}

type fakeReasons struct {
	PointReasonStore
	reasons map[int64]*models.PointReason
}

func (f *fakeReasons) GetByID(_ context.Context, id int64) (*models.PointReason, error) {
	r, ok := f.reasons[id]
	if !ok {
		return nil, apperrors.ErrPointReasonNotFound
	}
	return r, nil
}

// fakeLedger applies entries to the users of a fakeUsers, refusing negative balances
type fakeLedger struct {
	LedgerStore
	users   *fakeUsers
	entries []*models.LedgerEntry
	totals  []models.LeaderboardEntry
}

func (f *fakeLedger) AwardPoints(_ context.Context, e *models.PointsTransaction) (int64, error) {
	u := f.users.users[e.StudentID]
	if u.PointsBalance+e.Amount < 0 {
		return 0, apperrors.ErrInsufficientPoints
	}
	u.PointsBalance += e.Amount
	e.ID = int64(len(f.entries) + 1)
	f.entries = append(f.entries, e)
	return u.PointsBalance, nil
}

func (f *fakeLedger) AwardExperience(_ context.Context, e *models.ExperienceTransaction) (int64, error) {
	u := f.users.users[e.StudentID]
	u.ExperienceTotal += e.Amount
	f.entries = append(f.entries, e)
	return u.ExperienceTotal, nil
}

func (f *fakeLedger) PeriodTotals(_ context.Context, _ int64, limit uint64) ([]models.LeaderboardEntry, error) {
	if limit > 0 && uint64(len(f.totals)) > limit {
		return f.totals[:limit], nil
	}
	return f.totals, nil
}

func (f *fakeLedger) StudentRank(_ context.Context, _ int64, studentID int64) (int, bool, error) {
	for _, e := range f.totals {
		if e.StudentID == studentID {
			return e.Rank, true, nil
		}
	}
	return 0, false, nil
}

// recordingLeaderboard captures Record calls
type recordingLeaderboard struct {
	LeaderboardService
	mu      sync.Mutex
	records []int64
}

func (r *recordingLeaderboard) Record(_ context.Context, _, _, delta int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, delta)
}

func (r *recordingLeaderboard) StudentRank(context.Context, int64, int64) (*int, error) {
	return ptr(3), nil
}

type recordingPublisher struct {
	messages []*websocket.Message
}

func (p *recordingPublisher) Publish(m *websocket.Message) {
	p.messages = append(p.messages, m)
}

type fakeThrottle struct {
	blocked  bool
	failures int
}

func (f *fakeThrottle) Blocked(context.Context, int64) (bool, error) { return f.blocked, nil }

func (f *fakeThrottle) RecordFailure(context.Context, int64) error {
	f.failures++
	return nil
}

type fakeMailer struct {
	mu       sync.Mutex
	reviewed []string
	done     chan struct{}
}

func newFakeMailer() *fakeMailer { return &fakeMailer{done: make(chan struct{}, 8)} }

func (m *fakeMailer) SendWelcomeEmail(context.Context, string, string, string) error {
	m.done <- struct{}{}
	return nil
}

func (m *fakeMailer) SendWishReviewedEmail(_ context.Context, to, _, title string, _ bool, _ string) error {
	m.mu.Lock()
	m.reviewed = append(m.reviewed, to+":"+title)
	m.mu.Unlock()
	m.done <- struct{}{}
	return nil
}

// fixture is a tutor group: admin 1, tutor 2 with assistant 3 and student 5, tutor 4 with student 6
type fixture struct {
	users  *fakeUsers
	authz  *authz.AuthorizationService
	period *fakePeriods
	logger zerolog.Logger
}

func newFixture() *fixture {
	users := newFakeUsers(
		&models.User{ID: 1, Email: "admin@mentorhub.test", RoleType: models.RoleAdmin, IsActive: true},
		&models.User{ID: 2, Email: "tutor@mentorhub.test", RoleType: models.RoleTutor, IsActive: true},
		&models.User{ID: 3, Email: "assistant@mentorhub.test", RoleType: models.RoleAssistant, TutorID: ptr(int64(2)), IsActive: true},
		&models.User{ID: 4, Email: "other@mentorhub.test", RoleType: models.RoleTutor, IsActive: true},
		&models.User{ID: 5, Email: "ada@mentorhub.test", FirstName: "Ada", LastName: "Lovelace", RoleType: models.RoleStudent, TutorID: ptr(int64(2)), IsActive: true, PointsBalance: 20},
		&models.User{ID: 6, Email: "alan@mentorhub.test", FirstName: "Alan", LastName: "Turing", RoleType: models.RoleStudent, TutorID: ptr(int64(4)), IsActive: true},
	)
	return &fixture{
		users:  users,
		authz:  authz.NewAuthorizationService(users),
		period: &fakePeriods{active: &models.Period{ID: 9, Name: "Spring", IsActive: true}},
		logger: zerolog.Nop(),
	}
}

var (
	adminActor     = authz.Actor{UserID: 1, Role: models.RoleAdmin}
	tutorActor     = authz.Actor{UserID: 2, Role: models.RoleTutor}
	assistantActor = authz.Actor{UserID: 3, Role: models.RoleAssistant, TutorID: ptr(int64(2))}
	otherTutor     = authz.Actor{UserID: 4, Role: models.RoleTutor}
	studentActor   = authz.Actor{UserID: 5, Role: models.RoleStudent, TutorID: ptr(int64(2))}
	otherStudent   = authz.Actor{UserID: 6, Role: models.RoleStudent, TutorID: ptr(int64(4))}
)
