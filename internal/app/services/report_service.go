package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	authz "github.com/yigit/mentorhub/internal/app/auth"
	"github.com/yigit/mentorhub/internal/app/models"
	"github.com/yigit/mentorhub/internal/app/models/dto"
	"github.com/yigit/mentorhub/internal/pkg/apperrors"
)

const dashboardUpcomingEvents = 5

// ReportService builds performance reports and role dashboards
type ReportService interface {
	Performance(ctx context.Context, actor authz.Actor, periodID *int64) (*dto.PerformanceReport, error)
	Dashboard(ctx context.Context, actor authz.Actor) (*dto.DashboardResponse, error)
}

type reportServiceImpl struct {
	reportRepo       ReportStore
	periodRepo       PeriodStore
	userRepo         UserStore
	attendanceRepo   AttendanceStore
	eventRepo        EventStore
	wishRepo         WishStore
	weeklyReportRepo WeeklyReportStore
	leaderboard      LeaderboardService
	logger           zerolog.Logger
	now              func() time.Time
}

// ReportDeps groups the stores the report service reads from
type ReportDeps struct {
	Reports       ReportStore
	Periods       PeriodStore
	Users         UserStore
	Attendance    AttendanceStore
	Events        EventStore
	Wishes        WishStore
	WeeklyReports WeeklyReportStore
}

// NewReportService creates a new ReportService
func NewReportService(deps ReportDeps, leaderboard LeaderboardService, logger zerolog.Logger) ReportService {
	return &reportServiceImpl{
		reportRepo:       deps.Reports,
		periodRepo:       deps.Periods,
		userRepo:         deps.Users,
		attendanceRepo:   deps.Attendance,
		eventRepo:        deps.Events,
		wishRepo:         deps.Wishes,
		weeklyReportRepo: deps.WeeklyReports,
		leaderboard:      leaderboard,
		logger:           logger,
		now:              time.Now,
	}
}

// Performance reports per-student activity for a period, the active one by default.
// Students see only themselves; tutors and assistants see their group.
func (s *reportServiceImpl) Performance(ctx context.Context, actor authz.Actor, periodID *int64) (*dto.PerformanceReport, error) {
	var (
		period *models.Period
		err    error
	)
	if periodID != nil {
		period, err = s.periodRepo.GetByID(ctx, *periodID)
	} else {
		period, err = s.periodRepo.GetActive(ctx)
	}
	if err != nil {
		return nil, err
	}

	var tutorID, studentID *int64
	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleStudent:
		id := actor.UserID
		studentID = &id
	default:
		tutorID = actor.ScopeTutorID()
		if tutorID == nil {
			return nil, apperrors.ErrPermissionDenied
		}
	}

	rows, err := s.reportRepo.StudentPerformance(ctx, period.ID, tutorID, studentID)
	if err != nil {
		return nil, err
	}
	return &dto.PerformanceReport{Period: period, Students: rows}, nil
}

// Dashboard returns the summary matching the caller's role
func (s *reportServiceImpl) Dashboard(ctx context.Context, actor authz.Actor) (*dto.DashboardResponse, error) {
	resp := &dto.DashboardResponse{Role: actor.Role}
	var err error
	switch actor.Role {
	case models.RoleAdmin:
		resp.Admin, err = s.adminDashboard(ctx)
	case models.RoleTutor, models.RoleAssistant:
		resp.Staff, err = s.staffDashboard(ctx, actor)
	case models.RoleStudent:
		resp.Student, err = s.studentDashboard(ctx, actor)
	default:
		err = apperrors.ErrPermissionDenied
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *reportServiceImpl) activePeriod(ctx context.Context) (*models.Period, error) {
	period, err := s.periodRepo.GetActive(ctx)
	if errors.Is(err, apperrors.ErrNoActivePeriod) {
		return nil, nil
	}
	return period, err
}

func (s *reportServiceImpl) adminDashboard(ctx context.Context) (*dto.AdminDashboard, error) {
	counts, err := s.userRepo.CountByRole(ctx, nil)
	if err != nil {
		return nil, err
	}
	period, err := s.activePeriod(ctx)
	if err != nil {
		return nil, err
	}
	openEvents, err := s.eventRepo.CountOpen(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := s.wishRepo.CountPending(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &dto.AdminDashboard{
		UserCounts:    counts,
		ActivePeriod:  period,
		OpenEvents:    openEvents,
		PendingWishes: pending,
	}, nil
}

func (s *reportServiceImpl) staffDashboard(ctx context.Context, actor authz.Actor) (*dto.StaffDashboard, error) {
	tutorID := actor.ScopeTutorID()
	if tutorID == nil {
		return nil, apperrors.ErrPermissionDenied
	}

	students, err := s.reportRepo.CountStudents(ctx, tutorID)
	if err != nil {
		return nil, err
	}
	openSessions, err := s.attendanceRepo.CountOpenSessions(ctx, tutorID)
	if err != nil {
		return nil, err
	}
	pending, err := s.wishRepo.CountPending(ctx, tutorID)
	if err != nil {
		return nil, err
	}
	latest, err := s.weeklyReportRepo.LatestWeek(ctx, *tutorID)
	if err != nil {
		return nil, err
	}
	return &dto.StaffDashboard{
		TutorID:          *tutorID,
		StudentCount:     students,
		OpenSessions:     openSessions,
		PendingWishes:    pending,
		LatestReportWeek: latest,
	}, nil
}

func (s *reportServiceImpl) studentDashboard(ctx context.Context, actor authz.Actor) (*dto.StudentDashboard, error) {
	user, err := s.userRepo.GetUserByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	dash := &dto.StudentDashboard{
		Balance: user.PointsBalance,
		Level:   models.NewLevelProgress(user.ExperienceTotal),
	}

	period, err := s.activePeriod(ctx)
	if err != nil {
		return nil, err
	}
	if period != nil {
		if dash.Rank, err = s.leaderboard.StudentRank(ctx, period.ID, user.ID); err != nil {
			return nil, err
		}
	}

	status := models.EventOpen
	events, _, err := s.eventRepo.List(ctx, dto.EventFilter{Status: &status, Upcoming: true, Page: 1, Size: dashboardUpcomingEvents}, s.now())
	if err != nil {
		return nil, err
	}
	dash.UpcomingEvents = events
	return dash, nil
}
