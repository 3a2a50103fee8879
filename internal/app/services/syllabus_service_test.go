package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/mentorhub/internal/app/models"
	"github.com/yigit/mentorhub/internal/app/models/dto"
	"github.com/yigit/mentorhub/internal/pkg/apperrors"
)

type fakeSyllabi struct {
	SyllabusStore
	syllabi    map[int64]*models.Syllabus
	classrooms map[int64]*models.Classroom
	progress   map[int64]*models.ClassroomLessonProgress
}

func (f *fakeSyllabi) GetSyllabus(_ context.Context, id int64) (*models.Syllabus, error) {
	s, ok := f.syllabi[id]
	if !ok {
		return nil, apperrors.ErrSyllabusNotFound
	}
	return s, nil
}

func (f *fakeSyllabi) GetLesson(_ context.Context, id int64) (*models.SyllabusLesson, error) {
	for _, s := range f.syllabi {
		for i := range s.Lessons {
			if s.Lessons[i].ID == id {
				l := s.Lessons[i]
				return &l, nil
			}
		}
	}
	return nil, apperrors.ErrLessonNotFound
}

func (f *fakeSyllabi) GetClassroom(_ context.Context, id int64) (*models.Classroom, error) {
	c, ok := f.classrooms[id]
	if !ok {
		return nil, apperrors.ErrClassroomNotFound
	}
	return c, nil
}

func (f *fakeSyllabi) ListProgress(context.Context, int64) (map[int64]*models.ClassroomLessonProgress, error) {
	return f.progress, nil
}

func (f *fakeSyllabi) UpsertProgress(_ context.Context, p *models.ClassroomLessonProgress) error {
	f.progress[p.LessonID] = p
	return nil
}

func newSyllabusTest() (*syllabusServiceImpl, *fakeSyllabi) {
	f := newFixture()
	store := &fakeSyllabi{
		syllabi: map[int64]*models.Syllabus{
			1: {ID: 1, Title: "Python basics", Lessons: []models.SyllabusLesson{
				{ID: 11, SyllabusID: 1, Position: 1, Title: "Variables"},
				{ID: 12, SyllabusID: 1, Position: 2, Title: "Loops"},
				{ID: 13, SyllabusID: 1, Position: 3, Title: "Functions"},
			}},
			2: {ID: 2, Title: "Scratch", Lessons: []models.SyllabusLesson{{ID: 21, SyllabusID: 2, Position: 1, Title: "Sprites"}}},
		},
		classrooms: map[int64]*models.Classroom{
			1: {ID: 1, Name: "Group A", TutorID: 2, SyllabusID: 1},
		},
		progress: map[int64]*models.ClassroomLessonProgress{},
	}
	svc := NewSyllabusService(store, f.users, f.logger).(*syllabusServiceImpl)
	svc.now = fixedNow
	return svc, store
}

func TestUpdateProgress(t *testing.T) {
	svc, _ := newSyllabusTest()
	ctx := context.Background()

	p, err := svc.UpdateProgress(ctx, assistantActor, 1, 11, &dto.UpdateProgressRequest{Status: models.ProgressCompleted})
	require.NoError(t, err)
	require.NotNil(t, p.CompletedAt)
	assert.Equal(t, int64(3), p.UpdatedBy)

	p, err = svc.UpdateProgress(ctx, tutorActor, 1, 12, &dto.UpdateProgressRequest{Status: models.ProgressInProgress})
	require.NoError(t, err)
	assert.Nil(t, p.CompletedAt)

	_, err = svc.UpdateProgress(ctx, tutorActor, 1, 21, &dto.UpdateProgressRequest{Status: models.ProgressCompleted})
	assert.ErrorIs(t, err, apperrors.ErrLessonNotInSyllabus)

	_, err = svc.UpdateProgress(ctx, otherTutor, 1, 11, &dto.UpdateProgressRequest{Status: models.ProgressCompleted})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	_, err = svc.UpdateProgress(ctx, studentActor, 1, 11, &dto.UpdateProgressRequest{Status: models.ProgressCompleted})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	progress, err := svc.GetProgress(ctx, adminActor, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, progress.TotalLessons)
	assert.Equal(t, 1, progress.CompletedLessons)
	assert.Equal(t, 33, progress.CompletionPercent)
	assert.Equal(t, models.ProgressInProgress, progress.Lessons[1].Status)
	assert.Equal(t, models.ProgressNotStarted, progress.Lessons[2].Status)
}

func TestCreateClassroom_RequiresTutor(t *testing.T) {
	svc, _ := newSyllabusTest()

	_, err := svc.CreateClassroom(context.Background(), &dto.CreateClassroomRequest{Name: "B", TutorID: 3, SyllabusID: 1})
	assert.ErrorIs(t, err, apperrors.ErrNotATutor)
}

func TestCompletionPercent(t *testing.T) {
	assert.Equal(t, 0, completionPercent(0, 0))
	assert.Equal(t, 50, completionPercent(1, 2))
	assert.Equal(t, 100, completionPercent(4, 4))
}
