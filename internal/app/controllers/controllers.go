// Package controllers handles HTTP request handling
package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	authz "github.com/yigit/mentorhub/internal/app/auth"
	"github.com/yigit/mentorhub/internal/app/models/dto"
	"github.com/yigit/mentorhub/internal/middleware"
	"github.com/yigit/mentorhub/internal/pkg/helpers"
)

// parseIDParam parses a positive ID from the request path, writing a 400 response when invalid
func parseIDParam(ctx *gin.Context, paramName string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(paramName), 10, 64)
	if err != nil || id <= 0 {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid ID").WithField(paramName)
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return 0, false
	}
	return id, true
}

// currentActor returns the authenticated caller, writing a 401 response when absent
func currentActor(ctx *gin.Context) (authz.Actor, bool) {
	actor, ok := middleware.GetActor(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return authz.Actor{}, false
	}
	return actor, true
}

// optionalIDQuery parses an optional positive ID query parameter, writing a 400 response when invalid
func optionalIDQuery(ctx *gin.Context, key string) (*int64, bool) {
	v, err := helpers.ParseOptionalInt64Query(ctx, key)
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid query parameter").WithField(key)
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return nil, false
	}
	return v, true
}

func respondOK(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(data))
}

func respondCreated(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(data))
}

func respondPage(ctx *gin.Context, items interface{}, info dto.PaginationInfo) {
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.PaginatedResponse{Items: items, Pagination: info}))
}
