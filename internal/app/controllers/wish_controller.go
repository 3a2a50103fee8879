package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/mentorhub/internal/app/models"
	"github.com/yigit/mentorhub/internal/app/models/dto"
	"github.com/yigit/mentorhub/internal/app/services"
	"github.com/yigit/mentorhub/internal/middleware"
	"github.com/yigit/mentorhub/internal/pkg/helpers"
)

// WishController handles student wishes and their review
type WishController struct {
	wishService services.WishService
}

// NewWishController creates a new WishController
func NewWishController(wishService services.WishService) *WishController {
	return &WishController{wishService: wishService}
}

// CreateWish submits a wish
// @Summary Create wish
// @Tags wishes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateWishRequest true "Wish"
// @Success 201 {object} dto.APIResponse{data=models.Wish}
// @Router /wishes [post]
func (c *WishController) CreateWish(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	var req dto.CreateWishRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	wish, err := c.wishService.CreateWish(ctx.Request.Context(), actor, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondCreated(ctx, wish)
}

// ListWishes lists wishes visible to the caller
// @Summary List wishes
// @Tags wishes
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status filter" Enums(PENDING, APPROVED, REJECTED, FULFILLED)
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]models.Wish}}
// @Router /wishes [get]
func (c *WishController) ListWishes(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	page, size := helpers.ParsePaginationParams(ctx)

	var status *models.WishStatus
	if raw := ctx.Query("status"); raw != "" {
		s := models.WishStatus(raw)
		switch s {
		case models.WishPending, models.WishApproved, models.WishRejected, models.WishFulfilled:
			status = &s
		default:
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid status").WithField("status")
			ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
			return
		}
	}

	wishes, info, err := c.wishService.ListWishes(ctx.Request.Context(), actor, status, page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondPage(ctx, wishes, *info)
}

// GetWish returns one wish
// @Summary Get wish
// @Tags wishes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Wish ID"
// @Success 200 {object} dto.APIResponse{data=models.Wish}
// @Failure 404 {object} dto.ErrorResponse "Wish not found"
// @Router /wishes/{id} [get]
func (c *WishController) GetWish(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	wish, err := c.wishService.GetWish(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, wish)
}

// ReviewWish approves or rejects a pending wish
// @Summary Review wish
// @Description Approving charges the wish cost from the student's points in the active period.
// @Tags wishes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Wish ID"
// @Param request body dto.ReviewWishRequest true "Decision"
// @Success 200 {object} dto.APIResponse{data=models.Wish}
// @Failure 409 {object} dto.ErrorResponse "Wish already reviewed or insufficient points"
// @Router /wishes/{id}/review [post]
func (c *WishController) ReviewWish(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.ReviewWishRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	wish, err := c.wishService.ReviewWish(ctx.Request.Context(), actor, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, wish)
}

// FulfillWish marks an approved wish as delivered
// @Summary Fulfill wish
// @Tags wishes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Wish ID"
// @Success 200 {object} dto.APIResponse{data=models.Wish}
// @Failure 409 {object} dto.ErrorResponse "Wish is not approved"
// @Router /wishes/{id}/fulfill [post]
func (c *WishController) FulfillWish(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	wish, err := c.wishService.FulfillWish(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, wish)
}
