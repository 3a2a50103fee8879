package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/mentorhub/internal/app/models"
	"github.com/yigit/mentorhub/internal/db"
	"github.com/yigit/mentorhub/internal/pkg/apperrors"
	"github.com/yigit/mentorhub/internal/pkg/dberrors"
)

var (
	lessonColumns    = []string{"id", "syllabus_id", "position", "title", "description"}
	classroomColumns = []string{"id", "name", "tutor_id", "syllabus_id", "created_at"}
	progressColumns  = []string{"id", "classroom_id", "lesson_id", "status", "notes", "updated_by", "completed_at", "updated_at"}
)

// SyllabusRepository handles syllabi, their lessons, classrooms and classroom progress
type SyllabusRepository struct {
	db db.DBTX
}

// NewSyllabusRepository creates a new SyllabusRepository
func NewSyllabusRepository(conn db.DBTX) *SyllabusRepository {
	return &SyllabusRepository{db: conn}
}

// CreateSyllabus inserts a syllabus
func (r *SyllabusRepository) CreateSyllabus(ctx context.Context, s *models.Syllabus) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO syllabi (title, description) VALUES ($1, $2) RETURNING id, created_at`,
		s.Title, s.Description).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating syllabus: %w", err)
	}
	return nil
}

// GetSyllabus retrieves a syllabus with its lessons ordered by position
func (r *SyllabusRepository) GetSyllabus(ctx context.Context, id int64) (*models.Syllabus, error) {
	s := &models.Syllabus{}
	err := r.db.QueryRow(ctx, `SELECT id, title, description, created_at FROM syllabi WHERE id = $1`, id).
		Scan(&s.ID, &s.Title, &s.Description, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrSyllabusNotFound
		}
		return nil, fmt.Errorf("error getting syllabus: %w", err)
	}

	lessons, err := r.ListLessons(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Lessons = lessons
	return s, nil
}

// ListSyllabi returns all syllabi without lessons
func (r *SyllabusRepository) ListSyllabi(ctx context.Context) ([]*models.Syllabus, error) {
	rows, err := r.db.Query(ctx, `SELECT id, title, description, created_at FROM syllabi ORDER BY title, id`)
	if err != nil {
		return nil, fmt.Errorf("error listing syllabi: %w", err)
	}
	defer rows.Close()

	syllabi := make([]*models.Syllabus, 0)
	for rows.Next() {
		s := &models.Syllabus{}
		if err := rows.Scan(&s.ID, &s.Title, &s.Description, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning syllabus: %w", err)
		}
		syllabi = append(syllabi, s)
	}
	return syllabi, rows.Err()
}

func scanLesson(row pgx.Row) (*models.SyllabusLesson, error) {
	l := &models.SyllabusLesson{}
	err := row.Scan(&l.ID, &l.SyllabusID, &l.Position, &l.Title, &l.Description)
	return l, err
}

// ListLessons returns the lessons of a syllabus ordered by position
func (r *SyllabusRepository) ListLessons(ctx context.Context, syllabusID int64) ([]models.SyllabusLesson, error) {
	sql, args, err := psql.Select(lessonColumns...).From("syllabus_lessons").
		Where(squirrel.Eq{"syllabus_id": syllabusID}).
		OrderBy("position").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list lessons query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing lessons: %w", err)
	}
	defer rows.Close()

	lessons := make([]models.SyllabusLesson, 0)
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning lesson: %w", err)
		}
		lessons = append(lessons, *l)
	}
	return lessons, rows.Err()
}

// GetLesson retrieves a lesson by ID
func (r *SyllabusRepository) GetLesson(ctx context.Context, id int64) (*models.SyllabusLesson, error) {
	sql, args, err := psql.Select(lessonColumns...).From("syllabus_lessons").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get lesson query: %w", err)
	}

	l, err := scanLesson(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrLessonNotFound
		}
		return nil, fmt.Errorf("error getting lesson: %w", err)
	}
	return l, nil
}

// AddLesson inserts a lesson. Positions are unique within a syllabus.
func (r *SyllabusRepository) AddLesson(ctx context.Context, l *models.SyllabusLesson) error {
	sql, args, err := psql.Insert("syllabus_lessons").
		Columns("syllabus_id", "position", "title", "description").
		Values(l.SyllabusID, l.Position, l.Title, l.Description).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build add lesson query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&l.ID); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "syllabus_lessons_syllabus_position_key") {
			return apperrors.ErrLessonPositionUsed
		}
		if dberrors.IsForeignKeyViolation(err) {
			return apperrors.ErrSyllabusNotFound
		}
		return fmt.Errorf("error adding lesson: %w", err)
	}
	return nil
}

// UpdateLesson persists a lesson's position, title and description
func (r *SyllabusRepository) UpdateLesson(ctx context.Context, l *models.SyllabusLesson) error {
	sql, args, err := psql.Update("syllabus_lessons").
		Set("position", l.Position).
		Set("title", l.Title).
		Set("description", l.Description).
		Where(squirrel.Eq{"id": l.ID}).
		Suffix("RETURNING syllabus_id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update lesson query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&l.SyllabusID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrLessonNotFound
		}
		if dberrors.IsDuplicateConstraintError(err, "syllabus_lessons_syllabus_position_key") {
			return apperrors.ErrLessonPositionUsed
		}
		return fmt.Errorf("error updating lesson: %w", err)
	}
	return nil
}

// DeleteLesson removes a lesson and, by cascade, its progress rows
func (r *SyllabusRepository) DeleteLesson(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM syllabus_lessons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting lesson: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrLessonNotFound
	}
	return nil
}

// CreateClassroom inserts a classroom
func (r *SyllabusRepository) CreateClassroom(ctx context.Context, c *models.Classroom) error {
	sql, args, err := psql.Insert("classrooms").
		Columns("name", "tutor_id", "syllabus_id").
		Values(c.Name, c.TutorID, c.SyllabusID).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create classroom query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&c.ID, &c.CreatedAt); err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: tutor or syllabus does not exist", apperrors.ErrValidationFailed)
		}
		return fmt.Errorf("error creating classroom: %w", err)
	}
	return nil
}

func scanClassroom(row pgx.Row) (*models.Classroom, error) {
	c := &models.Classroom{}
	err := row.Scan(&c.ID, &c.Name, &c.TutorID, &c.SyllabusID, &c.CreatedAt)
	return c, err
}

// GetClassroom retrieves a classroom by ID
func (r *SyllabusRepository) GetClassroom(ctx context.Context, id int64) (*models.Classroom, error) {
	sql, args, err := psql.Select(classroomColumns...).From("classrooms").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get classroom query: %w", err)
	}

	c, err := scanClassroom(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrClassroomNotFound
		}
		return nil, fmt.Errorf("error getting classroom: %w", err)
	}
	return c, nil
}

// ListClassrooms returns classrooms, optionally only those of one tutor
func (r *SyllabusRepository) ListClassrooms(ctx context.Context, tutorID *int64) ([]*models.Classroom, error) {
	q := psql.Select(classroomColumns...).From("classrooms").OrderBy("name", "id")
	if tutorID != nil {
		q = q.Where(squirrel.Eq{"tutor_id": *tutorID})
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list classrooms query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing classrooms: %w", err)
	}
	defer rows.Close()

	classrooms := make([]*models.Classroom, 0)
	for rows.Next() {
		c, err := scanClassroom(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning classroom: %w", err)
		}
		classrooms = append(classrooms, c)
	}
	return classrooms, rows.Err()
}

func scanProgress(row pgx.Row) (*models.ClassroomLessonProgress, error) {
	p := &models.ClassroomLessonProgress{}
	err := row.Scan(&p.ID, &p.ClassroomID, &p.LessonID, &p.Status, &p.Notes, &p.UpdatedBy, &p.CompletedAt, &p.UpdatedAt)
	return p, err
}

// ListProgress returns the stored progress rows of a classroom keyed by lesson ID
func (r *SyllabusRepository) ListProgress(ctx context.Context, classroomID int64) (map[int64]*models.ClassroomLessonProgress, error) {
	sql, args, err := psql.Select(progressColumns...).From("classroom_lesson_progress").
		Where(squirrel.Eq{"classroom_id": classroomID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list progress query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing progress: %w", err)
	}
	defer rows.Close()

	progress := make(map[int64]*models.ClassroomLessonProgress)
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning progress: %w", err)
		}
		progress[p.LessonID] = p
	}
	return progress, rows.Err()
}

// UpsertProgress creates or replaces the progress of one lesson in a classroom
func (r *SyllabusRepository) UpsertProgress(ctx context.Context, p *models.ClassroomLessonProgress) error {
	sql, args, err := psql.Insert("classroom_lesson_progress").
		Columns("classroom_id", "lesson_id", "status", "notes", "updated_by", "completed_at").
		Values(p.ClassroomID, p.LessonID, p.Status, p.Notes, p.UpdatedBy, p.CompletedAt).
		Suffix(`ON CONFLICT (classroom_id, lesson_id) DO UPDATE SET
	status = EXCLUDED.status,
	notes = EXCLUDED.notes,
	updated_by = EXCLUDED.updated_by,
	completed_at = EXCLUDED.completed_at,
	updated_at = NOW()
RETURNING id, updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build upsert progress query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&p.ID, &p.UpdatedAt); err != nil {
		return fmt.Errorf("error saving progress: %w", err)
	}
	return nil
}
