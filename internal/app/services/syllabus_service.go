package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	authz "github.com/yigit/mentorhub/internal/app/auth"
	"github.com/yigit/mentorhub/internal/app/models"
	"github.com/yigit/mentorhub/internal/app/models/dto"
	"github.com/yigit/mentorhub/internal/pkg/apperrors"
)

// SyllabusService manages syllabi, their lessons and classroom progress
type SyllabusService interface {
	CreateSyllabus(ctx context.Context, req *dto.CreateSyllabusRequest) (*models.Syllabus, error)
	ListSyllabi(ctx context.Context) ([]*models.Syllabus, error)
	GetSyllabus(ctx context.Context, id int64) (*models.Syllabus, error)
	AddLesson(ctx context.Context, syllabusID int64, req *dto.LessonRequest) (*models.SyllabusLesson, error)
	UpdateLesson(ctx context.Context, lessonID int64, req *dto.LessonRequest) (*models.SyllabusLesson, error)
	DeleteLesson(ctx context.Context, lessonID int64) error

	CreateClassroom(ctx context.Context, req *dto.CreateClassroomRequest) (*models.Classroom, error)
	ListClassrooms(ctx context.Context, actor authz.Actor) ([]*models.Classroom, error)
	GetProgress(ctx context.Context, actor authz.Actor, classroomID int64) (*dto.ClassroomProgressResponse, error)
	UpdateProgress(ctx context.Context, actor authz.Actor, classroomID, lessonID int64, req *dto.UpdateProgressRequest) (*models.ClassroomLessonProgress, error)
}

type syllabusServiceImpl struct {
	syllabusRepo SyllabusStore
	userRepo     UserStore
	logger       zerolog.Logger
	now          func() time.Time
}

// NewSyllabusService creates a new SyllabusService
func NewSyllabusService(syllabusRepo SyllabusStore, userRepo UserStore, logger zerolog.Logger) SyllabusService {
	return &syllabusServiceImpl{
		syllabusRepo: syllabusRepo,
		userRepo:     userRepo,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *syllabusServiceImpl) CreateSyllabus(ctx context.Context, req *dto.CreateSyllabusRequest) (*models.Syllabus, error) {
	syllabus := &models.Syllabus{Title: req.Title, Description: req.Description}
	if err := s.syllabusRepo.CreateSyllabus(ctx, syllabus); err != nil {
		return nil, err
	}
	return syllabus, nil
}

func (s *syllabusServiceImpl) ListSyllabi(ctx context.Context) ([]*models.Syllabus, error) {
	return s.syllabusRepo.ListSyllabi(ctx)
}

// GetSyllabus returns the syllabus with its lessons ordered by position
func (s *syllabusServiceImpl) GetSyllabus(ctx context.Context, id int64) (*models.Syllabus, error) {
	return s.syllabusRepo.GetSyllabus(ctx, id)
}

func (s *syllabusServiceImpl) AddLesson(ctx context.Context, syllabusID int64, req *dto.LessonRequest) (*models.SyllabusLesson, error) {
	if _, err := s.syllabusRepo.GetSyllabus(ctx, syllabusID); err != nil {
		return nil, err
	}
	lesson := &models.SyllabusLesson{
		SyllabusID:  syllabusID,
		Position:    req.Position,
		Title:       req.Title,
		Description: req.Description,
	}
	if err := s.syllabusRepo.AddLesson(ctx, lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}

func (s *syllabusServiceImpl) UpdateLesson(ctx context.Context, lessonID int64, req *dto.LessonRequest) (*models.SyllabusLesson, error) {
	lesson, err := s.syllabusRepo.GetLesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	lesson.Position = req.Position
	lesson.Title = req.Title
	lesson.Description = req.Description
	if err := s.syllabusRepo.UpdateLesson(ctx, lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}

func (s *syllabusServiceImpl) DeleteLesson(ctx context.Context, lessonID int64) error {
	return s.syllabusRepo.DeleteLesson(ctx, lessonID)
}

// CreateClassroom binds a tutor to a syllabus
func (s *syllabusServiceImpl) CreateClassroom(ctx context.Context, req *dto.CreateClassroomRequest) (*models.Classroom, error) {
	tutor, err := s.userRepo.GetUserByID(ctx, req.TutorID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrNotATutor
		}
		return nil, err
	}
	if tutor.RoleType != models.RoleTutor {
		return nil, apperrors.ErrNotATutor
	}
	if _, err := s.syllabusRepo.GetSyllabus(ctx, req.SyllabusID); err != nil {
		return nil, err
	}

	classroom := &models.Classroom{Name: req.Name, TutorID: req.TutorID, SyllabusID: req.SyllabusID}
	if err := s.syllabusRepo.CreateClassroom(ctx, classroom); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("classroomID", classroom.ID).Int64("tutorID", classroom.TutorID).Msg("Classroom created")
	return classroom, nil
}

// ListClassrooms returns every classroom for admins and the caller's tutor group otherwise
func (s *syllabusServiceImpl) ListClassrooms(ctx context.Context, actor authz.Actor) ([]*models.Classroom, error) {
	if actor.IsAdmin() {
		return s.syllabusRepo.ListClassrooms(ctx, nil)
	}
	if err := authz.RequireRole(actor, models.RoleTutor, models.RoleAssistant); err != nil {
		return nil, err
	}
	scope := actor.ScopeTutorID()
	if scope == nil {
		return nil, apperrors.ErrPermissionDenied
	}
	return s.syllabusRepo.ListClassrooms(ctx, scope)
}

func (s *syllabusServiceImpl) loadClassroom(ctx context.Context, actor authz.Actor, id int64) (*models.Classroom, error) {
	if err := authz.RequireRole(actor, models.RoleAdmin, models.RoleTutor, models.RoleAssistant); err != nil {
		return nil, err
	}
	classroom, err := s.syllabusRepo.GetClassroom(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.EnsureTutorScope(actor, classroom.TutorID); err != nil {
		return nil, err
	}
	return classroom, nil
}

// GetProgress lists each syllabus lesson with its status in the classroom
func (s *syllabusServiceImpl) GetProgress(ctx context.Context, actor authz.Actor, classroomID int64) (*dto.ClassroomProgressResponse, error) {
	classroom, err := s.loadClassroom(ctx, actor, classroomID)
	if err != nil {
		return nil, err
	}
	syllabus, err := s.syllabusRepo.GetSyllabus(ctx, classroom.SyllabusID)
	if err != nil {
		return nil, err
	}
	progress, err := s.syllabusRepo.ListProgress(ctx, classroomID)
	if err != nil {
		return nil, err
	}

	resp := &dto.ClassroomProgressResponse{
		Classroom:     classroom,
		SyllabusTitle: syllabus.Title,
		Lessons:       make([]dto.LessonProgress, 0, len(syllabus.Lessons)),
		TotalLessons:  len(syllabus.Lessons),
	}
	for _, lesson := range syllabus.Lessons {
		lp := dto.LessonProgress{Lesson: lesson, Status: models.ProgressNotStarted}
		if p, ok := progress[lesson.ID]; ok {
			lp.Progress = p
			lp.Status = p.Status
		}
		if lp.Status == models.ProgressCompleted {
			resp.CompletedLessons++
		}
		resp.Lessons = append(resp.Lessons, lp)
	}
	resp.CompletionPercent = completionPercent(resp.CompletedLessons, resp.TotalLessons)
	return resp, nil
}

func completionPercent(done, total int) int {
	if total == 0 {
		return 0
	}
	return done * 100 / total
}

// UpdateProgress upserts a lesson's status. completed_at follows the COMPLETED status.
func (s *syllabusServiceImpl) UpdateProgress(ctx context.Context, actor authz.Actor, classroomID, lessonID int64, req *dto.UpdateProgressRequest) (*models.ClassroomLessonProgress, error) {
	classroom, err := s.loadClassroom(ctx, actor, classroomID)
	if err != nil {
		return nil, err
	}
	lesson, err := s.syllabusRepo.GetLesson(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	if lesson.SyllabusID != classroom.SyllabusID {
		return nil, apperrors.ErrLessonNotInSyllabus
	}

	p := &models.ClassroomLessonProgress{
		ClassroomID: classroomID,
		LessonID:    lessonID,
		Status:      req.Status,
		Notes:       req.Notes,
		UpdatedBy:   actor.UserID,
	}
	if req.Status == models.ProgressCompleted {
		at := s.now()
		p.CompletedAt = &at
	}
	if err := s.syllabusRepo.UpsertProgress(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
