package services

import (
	"context"
	"time"

	"github.com/yigit/mentorhub/internal/app/models"
	"github.com/yigit/mentorhub/internal/app/models/dto"
	"github.com/yigit/mentorhub/internal/app/repositories"
	"github.com/yigit/mentorhub/internal/pkg/cache"
	"github.com/yigit/mentorhub/internal/pkg/websocket"
)

// Storage interfaces are satisfied by the types in the repositories package.

// UserStore persists users
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) (int64, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []int64) (map[int64]*models.User, error)
	ListUsers(ctx context.Context, filter dto.UserFilter) ([]*models.User, int64, error)
	UpdateUser(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, userID int64, hash string) error
	UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error
	AssignTutor(ctx context.Context, userID, tutorID int64) error
	CountByRole(ctx context.Context, tutorID *int64) (map[models.RoleType]int64, error)
	ReconcileBalances(ctx context.Context) (points int64, experience int64, err error)
}

// TokenStore persists refresh tokens
type TokenStore interface {
	CreateToken(ctx context.Context, token string, userID int64, expiryDate time.Time) error
	GetToken(ctx context.Context, token string) (*models.RefreshToken, error)
	RevokeToken(ctx context.Context, token string) error
	RevokeAllUserTokens(ctx context.Context, userID int64) error
	RotateToken(ctx context.Context, oldToken, newToken string, userID int64, expiryDate time.Time) error
}

// PeriodStore persists periods
type PeriodStore interface {
	Create(ctx context.Context, period *models.Period, activate bool) error
	GetByID(ctx context.Context, id int64) (*models.Period, error)
	GetActive(ctx context.Context) (*models.Period, error)
	List(ctx context.Context) ([]*models.Period, error)
	Activate(ctx context.Context, id int64) (*models.Period, error)
}

// PointReasonStore persists point reasons
type PointReasonStore interface {
	Create(ctx context.Context, reason *models.PointReason) error
	GetByID(ctx context.Context, id int64) (*models.PointReason, error)
	List(ctx context.Context, activeOnly bool) ([]*models.PointReason, error)
	Update(ctx context.Context, reason *models.PointReason) error
	Deactivate(ctx context.Context, id int64) error
}

// LedgerStore writes and reads the points and experience ledgers
type LedgerStore interface {
	AwardPoints(ctx context.Context, entry *models.PointsTransaction) (int64, error)
	AwardExperience(ctx context.Context, entry *models.ExperienceTransaction) (int64, error)
	ListTransactions(ctx context.Context, kind repositories.LedgerKind, studentID int64, page, size int) ([]*models.LedgerEntry, int64, error)
	Sum(ctx context.Context, kind repositories.LedgerKind, studentID int64) (int64, error)
	PeriodTotals(ctx context.Context, periodID int64, limit uint64) ([]models.LeaderboardEntry, error)
	StudentRank(ctx context.Context, periodID, studentID int64) (int, bool, error)
}

// AttendanceStore persists attendance sessions and check-ins
type AttendanceStore interface {
	CreateSession(ctx context.Context, session *models.AttendanceSession) error
	GetSession(ctx context.Context, id int64) (*models.AttendanceSession, error)
	GetSessionByToken(ctx context.Context, token string) (*models.AttendanceSession, error)
	ListSessions(ctx context.Context, filter dto.SessionFilter) ([]*models.AttendanceSession, int64, error)
	RotateToken(ctx context.Context, id int64, token string, expiresAt time.Time) error
	CloseSession(ctx context.Context, id int64, at time.Time) error
	RecordAttendance(ctx context.Context, record *models.StudentAttendance, reward *models.PointsTransaction) (int64, error)
	ListRecords(ctx context.Context, sessionID int64) ([]*models.StudentAttendance, error)
	CountOpenSessions(ctx context.Context, tutorID *int64) (int64, error)
}

// EventStore persists events and registrations
type EventStore interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id int64) (*models.Event, error)
	List(ctx context.Context, filter dto.EventFilter, now time.Time) ([]*models.Event, int64, error)
	Update(ctx context.Context, event *models.Event) error
	Register(ctx context.Context, eventID, studentID int64, now time.Time) (*models.EventParticipant, error)
	Unregister(ctx context.Context, eventID, studentID int64) error
	MarkAttended(ctx context.Context, eventID, studentID int64, at time.Time, reward *models.PointsTransaction) (*models.EventParticipant, error)
	ListParticipants(ctx context.Context, eventID int64) ([]*models.EventParticipant, error)
	RegisteredEventIDs(ctx context.Context, studentID int64, eventIDs []int64) (map[int64]bool, error)
	CountOpen(ctx context.Context) (int64, error)
}

// SyllabusStore persists syllabi, classrooms and progress
type SyllabusStore interface {
	CreateSyllabus(ctx context.Context, s *models.Syllabus) error
	GetSyllabus(ctx context.Context, id int64) (*models.Syllabus, error)
	ListSyllabi(ctx context.Context) ([]*models.Syllabus, error)
	GetLesson(ctx context.Context, id int64) (*models.SyllabusLesson, error)
	AddLesson(ctx context.Context, l *models.SyllabusLesson) error
	UpdateLesson(ctx context.Context, l *models.SyllabusLesson) error
	DeleteLesson(ctx context.Context, id int64) error
	CreateClassroom(ctx context.Context, c *models.Classroom) error
	GetClassroom(ctx context.Context, id int64) (*models.Classroom, error)
	ListClassrooms(ctx context.Context, tutorID *int64) ([]*models.Classroom, error)
	ListProgress(ctx context.Context, classroomID int64) (map[int64]*models.ClassroomLessonProgress, error)
	UpsertProgress(ctx context.Context, p *models.ClassroomLessonProgress) error
}

// WishStore persists wishes
type WishStore interface {
	Create(ctx context.Context, w *models.Wish) error
	GetByID(ctx context.Context, id int64) (*models.Wish, error)
	List(ctx context.Context, filter dto.WishFilter) ([]*models.Wish, int64, error)
	CountPending(ctx context.Context, tutorID *int64) (int64, error)
	Review(ctx context.Context, id int64, status models.WishStatus, reviewerID int64, note string, at time.Time, charge *models.PointsTransaction) (*models.Wish, error)
	Fulfill(ctx context.Context, id int64, at time.Time) (*models.Wish, error)
}

// WeeklyReportStore persists weekly reports
type WeeklyReportStore interface {
	Upsert(ctx context.Context, report *models.WeeklyReport) error
	GetByID(ctx context.Context, id int64) (*models.WeeklyReport, error)
	List(ctx context.Context, tutorID *int64, from, to *time.Time, page, size int) ([]*models.WeeklyReport, int64, error)
	LatestWeek(ctx context.Context, tutorID int64) (*time.Time, error)
}

// ReportStore runs aggregate queries
type ReportStore interface {
	StudentPerformance(ctx context.Context, periodID int64, tutorID, studentID *int64) ([]dto.StudentPerformance, error)
	CountStudents(ctx context.Context, tutorID *int64) (int64, error)
}

// LeaderboardCache is a warm copy of period rankings. *cache.Leaderboard implements it.
// Rebuild is a no-op when the period was invalidated after Version was read.
type LeaderboardCache interface {
	Version(ctx context.Context, periodID int64) (int64, error)
	Top(ctx context.Context, periodID int64, limit int) ([]cache.Score, error)
	Rank(ctx context.Context, periodID, studentID int64) (int, error)
	Rebuild(ctx context.Context, periodID, version int64, scores []cache.Score) (bool, error)
	Invalidate(ctx context.Context, periodID int64) error
}

// CheckInThrottle limits failed check-in attempts. *cache.CheckInLimiter implements it.
type CheckInThrottle interface {
	Blocked(ctx context.Context, userID int64) (bool, error)
	RecordFailure(ctx context.Context, userID int64) error
}

// Publisher pushes live updates to subscribers. *websocket.Hub implements it.
type Publisher interface {
	Publish(message *websocket.Message)
}

var (
	_ UserStore         = (*repositories.UserRepository)(nil)
	_ TokenStore        = (*repositories.TokenRepository)(nil)
	_ PeriodStore       = (*repositories.PeriodRepository)(nil)
	_ PointReasonStore  = (*repositories.PointReasonRepository)(nil)
	_ LedgerStore       = (*repositories.LedgerRepository)(nil)
	_ AttendanceStore   = (*repositories.AttendanceRepository)(nil)
	_ EventStore        = (*repositories.EventRepository)(nil)
	_ SyllabusStore     = (*repositories.SyllabusRepository)(nil)
	_ WishStore         = (*repositories.WishRepository)(nil)
	_ WeeklyReportStore = (*repositories.WeeklyReportRepository)(nil)
	_ ReportStore       = (*repositories.ReportRepository)(nil)
	_ LeaderboardCache  = (*cache.Leaderboard)(nil)
	_ CheckInThrottle   = (*cache.CheckInLimiter)(nil)
	_ Publisher         = (*websocket.Hub)(nil)
)
