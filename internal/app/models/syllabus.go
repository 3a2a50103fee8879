package models

import "time"

// Syllabus is an ordered list of lessons shared by classrooms
type Syllabus struct {
	ID          int64            `json:"id" db:"id" example:"1"`
	Title       string           `json:"title" db:"title" example:"Python basics"`
	Description string           `json:"description" db:"description"`
	CreatedAt   time.Time        `json:"createdAt" db:"created_at"`
	Lessons     []SyllabusLesson `json:"lessons,omitempty" db:"-"`
}

// SyllabusLesson is one lesson in a syllabus, unique by position
type SyllabusLesson struct {
	ID          int64  `json:"id" db:"id" example:"4"`
	SyllabusID  int64  `json:"syllabusId" db:"syllabus_id" example:"1"`
	Position    int    `json:"position" db:"position" example:"1"`
	Title       string `json:"title" db:"title" example:"Variables"`
	Description string `json:"description" db:"description"`
}

// Classroom is a tutor's group following one syllabus
type Classroom struct {
	ID         int64     `json:"id" db:"id" example:"1"`
	Name       string    `json:"name" db:"name" example:"Group A"`
	TutorID    int64     `json:"tutorId" db:"tutor_id" example:"2"`
	SyllabusID int64     `json:"syllabusId" db:"syllabus_id" example:"1"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// ProgressStatus is a lesson's completion state in a classroom
type ProgressStatus string

const (
	ProgressNotStarted ProgressStatus = "NOT_STARTED"
	ProgressInProgress ProgressStatus = "IN_PROGRESS"
	ProgressCompleted  ProgressStatus = "COMPLETED"
)

// ClassroomLessonProgress is the upserted progress row per (classroom, lesson)
type ClassroomLessonProgress struct {
	ID          int64          `json:"id" db:"id"`
	ClassroomID int64          `json:"classroomId" db:"classroom_id"`
	LessonID    int64          `json:"lessonId" db:"lesson_id"`
	Status      ProgressStatus `json:"status" db:"status" example:"COMPLETED"`
	Notes       string         `json:"notes" db:"notes"`
	UpdatedBy   int64          `json:"updatedBy" db:"updated_by"`
	CompletedAt *time.Time     `json:"completedAt,omitempty" db:"completed_at"`
	UpdatedAt   time.Time      `json:"updatedAt" db:"updated_at"`
}
