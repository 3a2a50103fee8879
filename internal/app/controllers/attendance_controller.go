package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	authz "github.com/yigit/mentorhub/internal/app/auth"
	"github.com/yigit/mentorhub/internal/app/models"
	"github.com/yigit/mentorhub/internal/app/models/dto"
	"github.com/yigit/mentorhub/internal/app/services"
	"github.com/yigit/mentorhub/internal/middleware"
	"github.com/yigit/mentorhub/internal/pkg/helpers"
)

// LiveFeed upgrades a request to a live attendance subscription
type LiveFeed interface {
	Serve(w http.ResponseWriter, r *http.Request, sessionID, userID int64) error
}

// AttendanceController handles attendance sessions, QR check-in and the live feed
type AttendanceController struct {
	attendanceService services.AttendanceService
	feed              LiveFeed
	logger            zerolog.Logger
}

// NewAttendanceController creates a new AttendanceController
func NewAttendanceController(attendanceService services.AttendanceService, feed LiveFeed, logger zerolog.Logger) *AttendanceController {
	return &AttendanceController{
		attendanceService: attendanceService,
		feed:              feed,
		logger:            logger,
	}
}

// CreateSession opens an attendance session
// @Summary Create attendance session
// @Description Opens a session with a fresh check-in token that expires at the end of the week.
// @Tags attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateSessionRequest true "Session"
// @Success 201 {object} dto.APIResponse{data=models.AttendanceSession}
// @Router /attendance/sessions [post]
func (c *AttendanceController) CreateSession(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	var req dto.CreateSessionRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	session, err := c.attendanceService.CreateSession(ctx.Request.Context(), actor, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondCreated(ctx, session)
}

// ListSessions lists the caller's attendance sessions
// @Summary List attendance sessions
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Param open query bool false "Only open sessions"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]models.AttendanceSession}}
// @Router /attendance/sessions [get]
func (c *AttendanceController) ListSessions(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	page, size := helpers.ParsePaginationParams(ctx)

	sessions, info, err := c.attendanceService.ListSessions(ctx.Request.Context(), actor, ctx.Query("open") == "true", page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondPage(ctx, sessions, *info)
}

// GetSession returns one session
// @Summary Get attendance session
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Param id path int true "Session ID"
// @Success 200 {object} dto.APIResponse{data=models.AttendanceSession}
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Router /attendance/sessions/{id} [get]
func (c *AttendanceController) GetSession(ctx *gin.Context) {
	c.sessionAction(ctx, c.attendanceService.GetSession)
}

// RegenerateToken replaces a session's check-in token
// @Summary Regenerate check-in token
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Param id path int true "Session ID"
// @Success 200 {object} dto.APIResponse{data=models.AttendanceSession}
// @Failure 409 {object} dto.ErrorResponse "Session is closed"
// @Router /attendance/sessions/{id}/regenerate-token [post]
func (c *AttendanceController) RegenerateToken(ctx *gin.Context) {
	c.sessionAction(ctx, c.attendanceService.RegenerateToken)
}

// CloseSession stops accepting check-ins
// @Summary Close attendance session
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Param id path int true "Session ID"
// @Success 200 {object} dto.APIResponse{data=models.AttendanceSession}
// @Router /attendance/sessions/{id}/close [post]
func (c *AttendanceController) CloseSession(ctx *gin.Context) {
	c.sessionAction(ctx, c.attendanceService.CloseSession)
}

func (c *AttendanceController) sessionAction(ctx *gin.Context, action func(context.Context, authz.Actor, int64) (*models.AttendanceSession, error)) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	session, err := action(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, session)
}

// SessionQR renders the session's check-in token as a PNG
// @Summary Check-in QR code
// @Tags attendance
// @Produce png
// @Security BearerAuth
// @Param id path int true "Session ID"
// @Success 200 {file} binary
// @Failure 409 {object} dto.ErrorResponse "Session is closed"
// @Router /attendance/sessions/{id}/qr [get]
func (c *AttendanceController) SessionQR(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	png, err := c.attendanceService.SessionQR(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Header("Cache-Control", "no-store")
	ctx.Data(http.StatusOK, "image/png", png)
}

// ListRecords lists who attended a session
// @Summary List attendance records
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Param id path int true "Session ID"
// @Success 200 {object} dto.APIResponse{data=[]models.StudentAttendance}
// @Router /attendance/sessions/{id}/records [get]
func (c *AttendanceController) ListRecords(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	records, err := c.attendanceService.ListRecords(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, records)
}

// MarkManual marks a student present without a token
// @Summary Mark attendance manually
// @Tags attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Session ID"
// @Param request body dto.ManualAttendanceRequest true "Student"
// @Success 201 {object} dto.APIResponse{data=dto.CheckInResult}
// @Failure 409 {object} dto.ErrorResponse "Already checked in"
// @Router /attendance/sessions/{id}/records [post]
func (c *AttendanceController) MarkManual(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.ManualAttendanceRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	result, err := c.attendanceService.MarkManual(ctx.Request.Context(), actor, id, req.StudentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondCreated(ctx, result)
}

// CheckIn redeems a scanned QR token
// @Summary Check in
// @Description Students check in with the token from the session QR code. Repeated invalid tokens are throttled.
// @Tags attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CheckInRequest true "Token"
// @Success 201 {object} dto.APIResponse{data=dto.CheckInResult}
// @Failure 400 {object} dto.ErrorResponse "Invalid or expired token"
// @Failure 409 {object} dto.ErrorResponse "Already checked in"
// @Failure 429 {object} dto.ErrorResponse "Too many attempts"
// @Router /attendance/check-in [post]
func (c *AttendanceController) CheckIn(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	var req dto.CheckInRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	result, err := c.attendanceService.CheckIn(ctx.Request.Context(), actor, req.Token)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondCreated(ctx, result)
}

// Live streams check-ins for a session over WebSocket
// @Summary Live attendance feed
// @Description Upgrades to a WebSocket. Browsers pass the JWT as the access_token query parameter.
// @Tags attendance
// @Security BearerAuth
// @Param id path int true "Session ID"
// @Param access_token query string false "JWT for WebSocket clients"
// @Success 101
// @Failure 403 {object} dto.ErrorResponse "Session is not yours"
// @Router /attendance/sessions/{id}/live [get]
func (c *AttendanceController) Live(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.attendanceService.AuthorizeLiveFeed(ctx.Request.Context(), actor, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	if err := c.feed.Serve(ctx.Writer, ctx.Request, id, actor.UserID); err != nil {
		// the upgrader has already replied
		c.logger.Warn().Err(err).Int64("sessionID", id).Int64("userID", actor.UserID).Msg("Live feed upgrade failed")
	}
}
