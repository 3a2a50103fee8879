package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/mentorhub/internal/app/models/dto"
	"github.com/yigit/mentorhub/internal/app/services"
	"github.com/yigit/mentorhub/internal/middleware"
)

// SyllabusController handles syllabi, lessons, classrooms and progress
type SyllabusController struct {
	syllabusService services.SyllabusService
}

// NewSyllabusController creates a new SyllabusController
func NewSyllabusController(syllabusService services.SyllabusService) *SyllabusController {
	return &SyllabusController{syllabusService: syllabusService}
}

// CreateSyllabus creates a syllabus
// @Summary Create syllabus
// @Tags syllabus
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateSyllabusRequest true "Syllabus"
// @Success 201 {object} dto.APIResponse{data=models.Syllabus}
// @Router /syllabi [post]
func (c *SyllabusController) CreateSyllabus(ctx *gin.Context) {
	var req dto.CreateSyllabusRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	syllabus, err := c.syllabusService.CreateSyllabus(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondCreated(ctx, syllabus)
}

// ListSyllabi lists syllabi
// @Summary List syllabi
// @Tags syllabus
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.Syllabus}
// @Router /syllabi [get]
func (c *SyllabusController) ListSyllabi(ctx *gin.Context) {
	syllabi, err := c.syllabusService.ListSyllabi(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, syllabi)
}

// GetSyllabus returns a syllabus with its lessons
// @Summary Get syllabus
// @Tags syllabus
// @Produce json
// @Security BearerAuth
// @Param id path int true "Syllabus ID"
// @Success 200 {object} dto.APIResponse{data=models.Syllabus}
// @Failure 404 {object} dto.ErrorResponse "Syllabus not found"
// @Router /syllabi/{id} [get]
func (c *SyllabusController) GetSyllabus(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	syllabus, err := c.syllabusService.GetSyllabus(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, syllabus)
}

// AddLesson appends a lesson to a syllabus
// @Summary Add lesson
// @Tags syllabus
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Syllabus ID"
// @Param request body dto.LessonRequest true "Lesson"
// @Success 201 {object} dto.APIResponse{data=models.SyllabusLesson}
// @Failure 409 {object} dto.ErrorResponse "Position already used"
// @Router /syllabi/{id}/lessons [post]
func (c *SyllabusController) AddLesson(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.LessonRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	lesson, err := c.syllabusService.AddLesson(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondCreated(ctx, lesson)
}

// UpdateLesson updates a lesson
// @Summary Update lesson
// @Tags syllabus
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param lessonId path int true "Lesson ID"
// @Param request body dto.LessonRequest true "Lesson"
// @Success 200 {object} dto.APIResponse{data=models.SyllabusLesson}
// @Router /syllabi/lessons/{lessonId} [put]
func (c *SyllabusController) UpdateLesson(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "lessonId")
	if !ok {
		return
	}
	var req dto.LessonRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	lesson, err := c.syllabusService.UpdateLesson(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, lesson)
}

// DeleteLesson removes a lesson
// @Summary Delete lesson
// @Tags syllabus
// @Produce json
// @Security BearerAuth
// @Param lessonId path int true "Lesson ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Router /syllabi/lessons/{lessonId} [delete]
func (c *SyllabusController) DeleteLesson(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "lessonId")
	if !ok {
		return
	}

	if err := c.syllabusService.DeleteLesson(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, dto.SuccessResponse{Message: "Lesson deleted"})
}

// CreateClassroom creates a classroom following a syllabus
// @Summary Create classroom
// @Tags classrooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateClassroomRequest true "Classroom"
// @Success 201 {object} dto.APIResponse{data=models.Classroom}
// @Failure 400 {object} dto.ErrorResponse "User is not a tutor"
// @Router /classrooms [post]
func (c *SyllabusController) CreateClassroom(ctx *gin.Context) {
	var req dto.CreateClassroomRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	classroom, err := c.syllabusService.CreateClassroom(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondCreated(ctx, classroom)
}

// ListClassrooms lists the classrooms visible to the caller
// @Summary List classrooms
// @Tags classrooms
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.Classroom}
// @Router /classrooms [get]
func (c *SyllabusController) ListClassrooms(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}

	classrooms, err := c.syllabusService.ListClassrooms(ctx.Request.Context(), actor)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, classrooms)
}

// GetProgress returns a classroom's progress through its syllabus
// @Summary Classroom progress
// @Tags classrooms
// @Produce json
// @Security BearerAuth
// @Param id path int true "Classroom ID"
// @Success 200 {object} dto.APIResponse{data=dto.ClassroomProgressResponse}
// @Failure 403 {object} dto.ErrorResponse "Classroom is not yours"
// @Router /classrooms/{id}/progress [get]
func (c *SyllabusController) GetProgress(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	progress, err := c.syllabusService.GetProgress(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, progress)
}

// UpdateProgress sets a lesson's status in a classroom
// @Summary Update lesson progress
// @Tags classrooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Classroom ID"
// @Param lessonId path int true "Lesson ID"
// @Param request body dto.UpdateProgressRequest true "Progress"
// @Success 200 {object} dto.APIResponse{data=models.ClassroomLessonProgress}
// @Failure 400 {object} dto.ErrorResponse "Lesson is not part of the syllabus"
// @Router /classrooms/{id}/progress/{lessonId} [put]
func (c *SyllabusController) UpdateProgress(ctx *gin.Context) {
	actor, ok := currentActor(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	lessonID, ok := parseIDParam(ctx, "lessonId")
	if !ok {
		return
	}
	var req dto.UpdateProgressRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	progress, err := c.syllabusService.UpdateProgress(ctx.Request.Context(), actor, id, lessonID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	respondOK(ctx, progress)
}
