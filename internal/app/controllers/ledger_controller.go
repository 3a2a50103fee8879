package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yigit/mentorhub/internal/app/models/dto"
	"github.com/yigit/mentorhub/internal/app/services"
	"github.com/yigit/mentorhub/internal/middleware"
	"github.com/yigit/mentorhub/internal/pkg/helpers"
)

// LedgerController exposes points and experience awards, statements and the leaderboard
type LedgerController struct {
	ledgerService      services.LedgerService
	leaderboardService services.LeaderboardService
}

// NewLedgerController creates a new LedgerController
func NewLedgerController(ledgerService services.LedgerService, leaderboardService services.LeaderboardService) *LedgerController {
	return &LedgerController{ledgerService: ledgerService, leaderboardService: leaderboardService}
}

// AwardPoints awards or deducts points
// @Summary Award points
// @Description Writes a points ledger entry in the active period. Negative amounts deduct; balances never go below zero.
// @Tags points
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.AwardPointsRequest true "Award"
// @Success 201 {object} dto.APIResponse{data=dto.AwardResult}
// @Failure 403 {object} dto.ErrorResponse "Student is not in your group"
// @Failure 409 {object} dto.ErrorResponse "Insufficient points or no active period"
// @Router /points [post]
func (c *LedgerController) AwardPoints(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	var req dto.AwardPointsRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	result, err := c.ledgerService.AwardPoints(ctx.Request.Context(), actor, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondCreated(ctx, result)
}

// AwardExperience awards experience
// @Summary Award experience
// @Tags experience
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.AwardExperienceRequest true "Award"
// @Success 201 {object} dto.APIResponse{data=dto.AwardResult}
// @Failure 403 {object} dto.ErrorResponse "Student is not in your group"
// @Router /experience [post]
func (c *LedgerController) AwardExperience(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	var req dto.AwardExperienceRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	result, err := c.ledgerService.AwardExperience(ctx.Request.Context(), actor, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondCreated(ctx, result)
}

// PointsStatement returns a student's points balance and ledger
// @Summary Points statement
// @Tags points
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} dto.APIResponse{data=dto.LedgerStatement}
// @Failure 403 {object} dto.ErrorResponse "Student is not in your group"
// @Router /students/{id}/points [get]
func (c *LedgerController) PointsStatement(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	page, size := helpers.ParsePaginationParams(ctx)

	statement, err := c.ledgerService.PointsStatement(ctx.Request.Context(), actor, id, page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, statement)
}

// ExperienceStatement returns a student's experience, level and ledger
// @Summary Experience statement
// @Tags experience
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} dto.APIResponse{data=dto.LedgerStatement}
// @Failure 403 {object} dto.ErrorResponse "Student is not in your group"
// @Router /students/{id}/experience [get]
func (c *LedgerController) ExperienceStatement(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	page, size := helpers.ParsePaginationParams(ctx)

	statement, err := c.ledgerService.ExperienceStatement(ctx.Request.Context(), actor, id, page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, statement)
}

// Reconcile recomputes cached balances from the ledgers
// @Summary Reconcile balances
// @Tags points
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.ReconcileResult}
// @Router /admin/points/reconcile [post]
func (c *LedgerController) Reconcile(ctx *gin.Context) {
	result, err := c.ledgerService.Reconcile(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, result)
}

// Leaderboard returns the ranked students of a period
// @Summary Leaderboard
// @Description Served from Redis when warm, otherwise computed from the ledger.
// @Tags leaderboard
// @Produce json
// @Security BearerAuth
// @Param periodId query int false "Period ID, defaults to the active period"
// @Param limit query int false "Number of entries" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.LeaderboardResponse}
// @Failure 409 {object} dto.ErrorResponse "No active period"
// @Router /leaderboard [get]
func (c *LedgerController) Leaderboard(ctx *gin.Context) {
	periodID, ok := optionalIDQuery(ctx, "periodId")
	if !ok {
		return
	}
	limit := 0
	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid limit").WithField("limit")
			ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
			return
		}
		limit = n
	}

	board, err := c.leaderboardService.Leaderboard(ctx.Request.Context(), periodID, limit)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, board)
}
