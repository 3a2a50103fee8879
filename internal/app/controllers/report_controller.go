package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/mentorhub/internal/app/models/dto"
	"github.com/yigit/mentorhub/internal/app/services"
	"github.com/yigit/mentorhub/internal/middleware"
	"github.com/yigit/mentorhub/internal/pkg/helpers"
)

// ReportController serves weekly reports, performance reports and dashboards
type ReportController struct {
	weeklyReportService services.WeeklyReportService
	reportService       services.ReportService
}

// NewReportController creates a new ReportController
func NewReportController(weeklyReportService services.WeeklyReportService, reportService services.ReportService) *ReportController {
	return &ReportController{weeklyReportService: weeklyReportService, reportService: reportService}
}

// UpsertWeeklyReport creates or replaces the caller's report for a week
// @Summary Submit weekly report
// @Tags weekly-reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpsertWeeklyReportRequest true "Report"
// @Success 200 {object} dto.APIResponse{data=models.WeeklyReport}
// @Failure 400 {object} dto.ErrorResponse "weekStart must be a Monday"
// @Router /weekly-reports [put]
func (c *ReportController) UpsertWeeklyReport(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	var req dto.UpsertWeeklyReportRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	report, err := c.weeklyReportService.UpsertReport(ctx.Request.Context(), actor, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, report)
}

// ListWeeklyReports lists weekly reports
// @Summary List weekly reports
// @Description Admins see every tutor's reports, tutors their own.
// @Tags weekly-reports
// @Produce json
// @Security BearerAuth
// @Param tutorId query int false "Tutor filter"
// @Param from query string false "First week (YYYY-MM-DD)"
// @Param to query string false "Last week (YYYY-MM-DD)"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]models.WeeklyReport}}
// @Router /weekly-reports [get]
func (c *ReportController) ListWeeklyReports(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	tutorID, ok := optionalIDQuery(ctx, "tutorId")
	if !ok {
		return
	}
	page, size := helpers.ParsePaginationParams(ctx)
	filter := dto.WeeklyReportFilter{TutorID: tutorID, Page: page, Size: size}
	if from := ctx.Query("from"); from != "" {
		filter.From = &from
	}
	if to := ctx.Query("to"); to != "" {
		filter.To = &to
	}

	reports, info, err := c.weeklyReportService.ListReports(ctx.Request.Context(), actor, filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondPage(ctx, reports, *info)
}

// GetWeeklyReport returns one weekly report
// @Summary Get weekly report
// @Tags weekly-reports
// @Produce json
// @Security BearerAuth
// @Param id path int true "Report ID"
// @Success 200 {object} dto.APIResponse{data=models.WeeklyReport}
// @Failure 404 {object} dto.ErrorResponse "Report not found"
// @Router /weekly-reports/{id} [get]
func (c *ReportController) GetWeeklyReport(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	report, err := c.weeklyReportService.GetReport(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, report)
}

// Performance returns per-student performance for a period
// @Summary Performance report
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param periodId query int false "Period ID, defaults to the active period"
// @Success 200 {object} dto.APIResponse{data=dto.PerformanceReport}
// @Router /reports/performance [get]
func (c *ReportController) Performance(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	periodID, ok := optionalIDQuery(ctx, "periodId")
	if !ok {
		return
	}

	report, err := c.reportService.Performance(ctx.Request.Context(), actor, periodID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, report)
}

// Dashboard returns the caller's role-specific dashboard
// @Summary Dashboard
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.DashboardResponse}
// @Router /dashboard [get]
func (c *ReportController) Dashboard(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	dashboard, err := c.reportService.Dashboard(ctx.Request.Context(), actor)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, dashboard)
}
