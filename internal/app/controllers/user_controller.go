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

// UserController handles user administration and scoped student lookups
type UserController struct {
	userService services.UserService
}

// NewUserController creates a new UserController
func NewUserController(userService services.UserService) *UserController {
	return &UserController{userService: userService}
}

// parseUserFilter reads role, tutorId, search, page and size from the query string
func parseUserFilter(ctx *gin.Context) (dto.UserFilter, bool) {
	page, size := helpers.ParsePaginationParams(ctx)
	filter := dto.UserFilter{Search: ctx.Query("search"), Page: page, Size: size}

	if raw := ctx.Query("role"); raw != "" {
		role := models.RoleType(raw)
		if !role.IsValid() {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid role").WithField("role")
			ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
			return filter, false
		}
		filter.Role = &role
	}

	tutorID, ok := optionalIDQuery(ctx, "tutorId")
	if !ok {
		return filter, false
	}
	filter.TutorID = tutorID
	return filter, true
}

// CreateUser creates an account
// @Summary Create user
// @Description Admin creates an account of any role. Students and assistants may be assigned to a tutor.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateUserRequest true "New user"
// @Success 201 {object} dto.APIResponse{data=dto.UserResponse}
// @Failure 400 {object} dto.ErrorResponse "Validation failed"
// @Failure 409 {object} dto.ErrorResponse "Email already exists"
// @Router /users [post]
func (c *UserController) CreateUser(ctx *gin.Context) {
	var req dto.CreateUserRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	user, err := c.userService.CreateUser(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondCreated(ctx, dto.NewUserResponse(user))
}

// ListUsers lists accounts
// @Summary List users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param role query string false "Role filter" Enums(ADMIN, TUTOR, ASSISTANT, STUDENT)
// @Param tutorId query int false "Tutor filter"
// @Param search query string false "Name or email search"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]dto.UserResponse}}
// @Router /users [get]
func (c *UserController) ListUsers(ctx *gin.Context) {
	filter, ok := parseUserFilter(ctx)
	if !ok {
		return
	}

	users, total, err := c.userService.ListUsers(ctx.Request.Context(), filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondPage(ctx, dto.NewUserResponses(users), helpers.NewPaginationInfo(total, filter.Page, filter.Size))
}

// GetUser returns one account
// @Summary Get user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse}
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /users/{id} [get]
func (c *UserController) GetUser(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	user, err := c.userService.GetUserByID(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, dto.NewUserResponse(user))
}

// UpdateUser updates profile fields
// @Summary Update user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body dto.UpdateUserRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse}
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Failure 409 {object} dto.ErrorResponse "Email already exists"
// @Router /users/{id} [put]
func (c *UserController) UpdateUser(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.UpdateUserRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	user, err := c.userService.UpdateUser(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, dto.NewUserResponse(user))
}

// DeactivateUser disables an account and revokes its sessions
// @Summary Deactivate user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Failure 400 {object} dto.ErrorResponse "Cannot deactivate yourself"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /users/{id} [delete]
func (c *UserController) DeactivateUser(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.userService.DeactivateUser(ctx.Request.Context(), actor, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, dto.SuccessResponse{Message: "User deactivated"})
}

// AssignTutor assigns a student or assistant to a tutor
// @Summary Assign tutor
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student or assistant ID"
// @Param request body dto.AssignTutorRequest true "Tutor"
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse}
// @Failure 400 {object} dto.ErrorResponse "Target is not a tutor"
// @Router /users/{id}/tutor [put]
func (c *UserController) AssignTutor(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.AssignTutorRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	user, err := c.userService.AssignTutor(ctx.Request.Context(), id, req.TutorID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, dto.NewUserResponse(user))
}

// ListStudents lists the students visible to the caller
// @Summary List students
// @Description Admins see every student, tutors their own, assistants their tutor's.
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param search query string false "Name or email search"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(20)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]dto.UserResponse}}
// @Router /students [get]
func (c *UserController) ListStudents(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	filter, ok := parseUserFilter(ctx)
	if !ok {
		return
	}

	students, total, err := c.userService.ListStudents(ctx.Request.Context(), actor, filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondPage(ctx, dto.NewUserResponses(students), helpers.NewPaginationInfo(total, filter.Page, filter.Size))
}

// GetStudent returns one student in the caller's scope
// @Summary Get student
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse}
// @Failure 403 {object} dto.ErrorResponse "Student is not in your group"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Router /students/{id} [get]
func (c *UserController) GetStudent(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	student, err := c.userService.GetStudent(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, dto.NewUserResponse(student))
}
