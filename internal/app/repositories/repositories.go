package repositories

import (
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/mentorhub/internal/db"
)

// psql builds PostgreSQL statements with $n placeholders
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository         *UserRepository
	TokenRepository        *TokenRepository
	PeriodRepository       *PeriodRepository
	PointReasonRepository  *PointReasonRepository
	LedgerRepository       *LedgerRepository
	AttendanceRepository   *AttendanceRepository
	EventRepository        *EventRepository
	SyllabusRepository     *SyllabusRepository
	WishRepository         *WishRepository
	WeeklyReportRepository *WeeklyReportRepository
	ReportRepository       *ReportRepository
}

// NewRepositories initializes all repositories
func NewRepositories(conn db.DBTX) *Repositories {
	return &Repositories{
		UserRepository:         NewUserRepository(conn),
		TokenRepository:        NewTokenRepository(conn),
		PeriodRepository:       NewPeriodRepository(conn),
		PointReasonRepository:  NewPointReasonRepository(conn),
		LedgerRepository:       NewLedgerRepository(conn),
		AttendanceRepository:   NewAttendanceRepository(conn),
		EventRepository:        NewEventRepository(conn),
		SyllabusRepository:     NewSyllabusRepository(conn),
		WishRepository:         NewWishRepository(conn),
		WeeklyReportRepository: NewWeeklyReportRepository(conn),
		ReportRepository:       NewReportRepository(conn),
	}
}

func joinColumns(cols []string) string {
	return strings.Join(cols, ", ")
}
