package postgres

import (
	"context"

	"github.com/shoiab2025/Khadeira-Backend/internal/domain/course"
	"github.com/shoiab2025/Khadeira-Backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// COURSE CATALOG REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// CourseRepository implements course.Repository for PostgreSQL.
type CourseRepository struct {
	conn *Connection
}

// NewCourseRepository creates a new CourseRepository.
func NewCourseRepository(conn *Connection) *CourseRepository {
	return &CourseRepository{conn: conn}
}

// CreateSubject inserts a subject. The code is unique across the catalog.
func (r *CourseRepository) CreateSubject(ctx context.Context, s *course.Subject) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO subjects (id, code, name, description, course_id, duration, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		s.ID,
		s.Code,
		s.Name,
		s.Description,
		s.CourseID,
		s.Duration,
		string(s.Status),
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrDuplicateCode
		}
		if IsForeignKeyViolation(err) {
			return shared.ErrCourseNotFound
		}
		return shared.WrapError("course", "CreateSubject", shared.ErrServiceUnavailable, "insert failed", err)
	}

	return nil
}

// FindSubjectByID returns a subject by ID.
func (r *CourseRepository) FindSubjectByID(ctx context.Context, id string) (*course.Subject, error) {
	row := r.conn.QueryRow(ctx, `
		SELECT id, code, name, description, course_id, duration, status, created_at, updated_at
		FROM subjects
		WHERE id = $1
	`, id)

	var s course.Subject
	var status string
	err := row.Scan(&s.ID, &s.Code, &s.Name, &s.Description, &s.CourseID, &s.Duration, &status, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrSubjectNotFound
		}
		return nil, shared.WrapError("course", "FindSubject", shared.ErrServiceUnavailable, "query failed", err)
	}

	s.Status = course.SubjectStatus(status)
	return &s, nil
}

// FindAllSubjects returns all subjects ordered by creation time.
func (r *CourseRepository) FindAllSubjects(ctx context.Context) ([]*course.Subject, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, code, name, description, course_id, duration, status, created_at, updated_at
		FROM subjects
		ORDER BY created_at
	`)
	if err != nil {
		return nil, shared.WrapError("course", "FindAllSubjects", shared.ErrServiceUnavailable, "query failed", err)
	}
	defer rows.Close()

	subjects := []*course.Subject{}
	for rows.Next() {
		var s course.Subject
		var status string
		if err := rows.Scan(&s.ID, &s.Code, &s.Name, &s.Description, &s.CourseID, &s.Duration, &status, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, shared.WrapError("course", "FindAllSubjects", shared.ErrServiceUnavailable, "scan failed", err)
		}
		s.Status = course.SubjectStatus(status)
		subjects = append(subjects, &s)
	}

	return subjects, rows.Err()
}

// FindTestByID returns a test by ID.
func (r *CourseRepository) FindTestByID(ctx context.Context, id string) (*course.Test, error) {
	row := r.conn.QueryRow(ctx, `
		SELECT id, name, lesson_id, created_at
		FROM tests
		WHERE id = $1
	`, id)

	var t course.Test
	err := row.Scan(&t.ID, &t.Name, &t.LessonID, &t.CreatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrTestNotFound
		}
		return nil, shared.WrapError("course", "FindTest", shared.ErrServiceUnavailable, "query failed", err)
	}

	return &t, nil
}

// FindLessonByID returns a lesson by ID.
func (r *CourseRepository) FindLessonByID(ctx context.Context, id string) (*course.Lesson, error) {
	row := r.conn.QueryRow(ctx, `
		SELECT id, name, subject_id, created_at
		FROM lessons
		WHERE id = $1
	`, id)

	var l course.Lesson
	err := row.Scan(&l.ID, &l.Name, &l.SubjectID, &l.CreatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrLessonNotFound
		}
		return nil, shared.WrapError("course", "FindLesson", shared.ErrServiceUnavailable, "query failed", err)
	}

	return &l, nil
}
