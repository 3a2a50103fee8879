package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	authz "github.com/yigit/mentorhub/internal/app/auth"
	"github.com/yigit/mentorhub/internal/app/models"
	"github.com/yigit/mentorhub/internal/app/models/dto"
	"github.com/yigit/mentorhub/internal/pkg/apperrors"
	"github.com/yigit/mentorhub/internal/pkg/helpers"
)

// WeeklyReportService manages tutors' weekly reports
type WeeklyReportService interface {
	UpsertReport(ctx context.Context, actor authz.Actor, req *dto.UpsertWeeklyReportRequest) (*models.WeeklyReport, error)
	ListReports(ctx context.Context, actor authz.Actor, filter dto.WeeklyReportFilter) ([]*models.WeeklyReport, *dto.PaginationInfo, error)
	GetReport(ctx context.Context, actor authz.Actor, id int64) (*models.WeeklyReport, error)
}

type weeklyReportServiceImpl struct {
	reportRepo WeeklyReportStore
	logger     zerolog.Logger
}

// NewWeeklyReportService creates a new WeeklyReportService
func NewWeeklyReportService(reportRepo WeeklyReportStore, logger zerolog.Logger) WeeklyReportService {
	return &weeklyReportServiceImpl{reportRepo: reportRepo, logger: logger}
}

// UpsertReport creates or replaces the calling tutor's report for the week starting on req.WeekStart
func (s *weeklyReportServiceImpl) UpsertReport(ctx context.Context, actor authz.Actor, req *dto.UpsertWeeklyReportRequest) (*models.WeeklyReport, error) {
	if err := authz.RequireRole(actor, models.RoleTutor); err != nil {
		return nil, err
	}
	week, err := helpers.ParseDate(req.WeekStart)
	if err != nil || week.Weekday() != time.Monday {
		return nil, fmt.Errorf("%w: weekStart must be a Monday", apperrors.ErrValidationFailed)
	}

	report := &models.WeeklyReport{
		TutorID:    actor.UserID,
		WeekStart:  week,
		Summary:    strings.TrimSpace(req.Summary),
		Highlights: req.Highlights,
		Challenges: req.Challenges,
		NextSteps:  req.NextSteps,
	}
	if err := s.reportRepo.Upsert(ctx, report); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("tutorID", actor.UserID).Str("week", req.WeekStart).Msg("Weekly report saved")
	return report, nil
}

// ListReports returns every report to admins and a tutor's own reports to tutors
func (s *weeklyReportServiceImpl) ListReports(ctx context.Context, actor authz.Actor, filter dto.WeeklyReportFilter) ([]*models.WeeklyReport, *dto.PaginationInfo, error) {
	tutorID := filter.TutorID
	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleTutor:
		id := actor.UserID
		tutorID = &id
	default:
		return nil, nil, apperrors.ErrPermissionDenied
	}

	from, err := parseOptionalDate(filter.From)
	if err != nil {
		return nil, nil, err
	}
	to, err := parseOptionalDate(filter.To)
	if err != nil {
		return nil, nil, err
	}

	reports, total, err := s.reportRepo.List(ctx, tutorID, from, to, filter.Page, filter.Size)
	if err != nil {
		return nil, nil, err
	}
	info := helpers.NewPaginationInfo(total, filter.Page, filter.Size)
	return reports, &info, nil
}

func (s *weeklyReportServiceImpl) GetReport(ctx context.Context, actor authz.Actor, id int64) (*models.WeeklyReport, error) {
	if err := authz.RequireRole(actor, models.RoleAdmin, models.RoleTutor); err != nil {
		return nil, err
	}
	report, err := s.reportRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && report.TutorID != actor.UserID {
		return nil, apperrors.ErrWeeklyReportNotFound
	}
	return report, nil
}

func parseOptionalDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := helpers.ParseDate(*s)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date %q", apperrors.ErrValidationFailed, *s)
	}
	return &t, nil
}
