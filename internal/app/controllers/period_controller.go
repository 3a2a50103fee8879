package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/mentorhub/internal/app/models/dto"
	"github.com/yigit/mentorhub/internal/app/services"
	"github.com/yigit/mentorhub/internal/middleware"
)

// PeriodController manages periods and point reasons
type PeriodController struct {
	periodService services.PeriodService
	reasonService services.PointReasonService
}

// NewPeriodController creates a new PeriodController
func NewPeriodController(periodService services.PeriodService, reasonService services.PointReasonService) *PeriodController {
	return &PeriodController{periodService: periodService, reasonService: reasonService}
}

// CreatePeriod creates a period
// @Summary Create period
// @Description Creates a period. With activate=true it becomes the single active period.
// @Tags periods
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreatePeriodRequest true "Period"
// @Success 201 {object} dto.APIResponse{data=models.Period}
// @Failure 400 {object} dto.ErrorResponse "Invalid date range"
// @Router /periods [post]
func (c *PeriodController) CreatePeriod(ctx *gin.Context) {
	var req dto.CreatePeriodRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	period, err := c.periodService.CreatePeriod(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondCreated(ctx, period)
}

// ListPeriods lists all periods
// @Summary List periods
// @Tags periods
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.Period}
// @Router /periods [get]
func (c *PeriodController) ListPeriods(ctx *gin.Context) {
	periods, err := c.periodService.ListPeriods(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, periods)
}

// GetActivePeriod returns the active period
// @Summary Get active period
// @Tags periods
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=models.Period}
// @Failure 409 {object} dto.ErrorResponse "No active period"
// @Router /periods/active [get]
func (c *PeriodController) GetActivePeriod(ctx *gin.Context) {
	period, err := c.periodService.GetActivePeriod(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, period)
}

// ActivatePeriod makes a period the active one
// @Summary Activate period
// @Tags periods
// @Produce json
// @Security BearerAuth
// @Param id path int true "Period ID"
// @Success 200 {object} dto.APIResponse{data=models.Period}
// @Failure 404 {object} dto.ErrorResponse "Period not found"
// @Router /periods/{id}/activate [post]
func (c *PeriodController) ActivatePeriod(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	period, err := c.periodService.ActivatePeriod(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, period)
}

// CreateReason creates a point reason
// @Summary Create point reason
// @Tags point-reasons
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.PointReasonRequest true "Reason"
// @Success 201 {object} dto.APIResponse{data=models.PointReason}
// @Failure 409 {object} dto.ErrorResponse "Reason name already exists"
// @Router /point-reasons [post]
func (c *PeriodController) CreateReason(ctx *gin.Context) {
	var req dto.PointReasonRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	reason, err := c.reasonService.CreateReason(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondCreated(ctx, reason)
}

// ListReasons lists point reasons
// @Summary List point reasons
// @Tags point-reasons
// @Produce json
// @Security BearerAuth
// @Param all query bool false "Include inactive reasons"
// @Success 200 {object} dto.APIResponse{data=[]models.PointReason}
// @Router /point-reasons [get]
func (c *PeriodController) ListReasons(ctx *gin.Context) {
	activeOnly := ctx.Query("all") != "true"

	reasons, err := c.reasonService.ListReasons(ctx.Request.Context(), activeOnly)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, reasons)
}

// UpdateReason updates a point reason
// @Summary Update point reason
// @Tags point-reasons
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Reason ID"
// @Param request body dto.PointReasonRequest true "Reason"
// @Success 200 {object} dto.APIResponse{data=models.PointReason}
// @Failure 404 {object} dto.ErrorResponse "Reason not found"
// @Router /point-reasons/{id} [put]
func (c *PeriodController) UpdateReason(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.PointReasonRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	reason, err := c.reasonService.UpdateReason(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, reason)
}

// DeactivateReason hides a point reason from new awards
// @Summary Deactivate point reason
// @Tags point-reasons
// @Produce json
// @Security BearerAuth
// @Param id path int true "Reason ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Failure 404 {object} dto.ErrorResponse "Reason not found"
// @Router /point-reasons/{id} [delete]
func (c *PeriodController) DeactivateReason(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.reasonService.DeactivateReason(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, dto.SuccessResponse{Message: "Point reason deactivated"})
}
