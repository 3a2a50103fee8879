package dto

import "github.com/yigit/mentorhub/internal/app/models"

// CreateSyllabusRequest creates a syllabus
type CreateSyllabusRequest struct {
	Title       string `json:"title" binding:"required,max=200" example:"Python basics"`
	Description string `json:"description" binding:"max=2000"`
}

// LessonRequest creates or updates a syllabus lesson
type LessonRequest struct {
	Position    int    `json:"position" binding:"required,min=1" example:"1"`
	Title       string `json:"title" binding:"required,max=200" example:"Variables"`
	Description string `json:"description" binding:"max=2000"`
}

// CreateClassroomRequest creates a classroom
type CreateClassroomRequest struct {
	Name       string `json:"name" binding:"required,max=100" example:"Group A"`
	TutorID    int64  `json:"tutorId" binding:"required,min=1" example:"2"`
	SyllabusID int64  `json:"syllabusId" binding:"required,min=1" example:"1"`
}

// UpdateProgressRequest sets a lesson's status in a classroom
type UpdateProgressRequest struct {
	Status models.ProgressStatus `json:"status" binding:"required,oneof=NOT_STARTED IN_PROGRESS COMPLETED" example:"COMPLETED"`
	Notes  string                `json:"notes" binding:"max=2000"`
}

// LessonProgress is one lesson with its status in a classroom
type LessonProgress struct {
	Lesson   models.SyllabusLesson           `json:"lesson"`
	Progress *models.ClassroomLessonProgress `json:"progress,omitempty"`
	Status   models.ProgressStatus           `json:"status" example:"IN_PROGRESS"`
}

// ClassroomProgressResponse summarizes a classroom's progress through its syllabus
type ClassroomProgressResponse struct {
	Classroom         *models.Classroom `json:"classroom"`
	SyllabusTitle     string            `json:"syllabusTitle" example:"Python basics"`
	Lessons           []LessonProgress  `json:"lessons"`
	CompletedLessons  int               `json:"completedLessons" example:"3"`
	TotalLessons      int               `json:"totalLessons" example:"12"`
	CompletionPercent int               `json:"completionPercent" example:"25"`
}
