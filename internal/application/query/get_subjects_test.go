package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoiab2025/Khadeira-Backend/internal/domain/course"
	"github.com/shoiab2025/Khadeira-Backend/internal/domain/shared"
)

type fakeCourseRepo struct {
	subjects []*course.Subject
	err      error
}

func (r *fakeCourseRepo) CreateSubject(_ context.Context, s *course.Subject) error {
	r.subjects = append(r.subjects, s)
	return nil
}

func (r *fakeCourseRepo) FindSubjectByID(_ context.Context, _ string) (*course.Subject, error) {
	return nil, shared.ErrSubjectNotFound
}

func (r *fakeCourseRepo) FindAllSubjects(_ context.Context) ([]*course.Subject, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.subjects, nil
}

func (r *fakeCourseRepo) FindTestByID(_ context.Context, _ string) (*course.Test, error) {
	return nil, shared.ErrTestNotFound
}

func (r *fakeCourseRepo) FindLessonByID(_ context.Context, _ string) (*course.Lesson, error) {
	return nil, shared.ErrLessonNotFound
}

func TestGetSubjectsHandler(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 7, 0, 0, time.UTC)

	t.Run("returns all subjects", func(t *testing.T) {
		subject, err := course.NewSubject("sub-1", "Algebra", "", "course-1", 24, now)
		require.NoError(t, err)
		handler := NewGetSubjectsHandler(&fakeCourseRepo{subjects: []*course.Subject{subject}})

		result, err := handler.Handle(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 1, result.TotalCount)
		assert.Equal(t, subject.Code, result.Subjects[0].Code)
		assert.Equal(t, 24, result.Subjects[0].Duration)
		assert.Equal(t, "active", result.Subjects[0].Status)
	})

	t.Run("store failure surfaces as service unavailable", func(t *testing.T) {
		handler := NewGetSubjectsHandler(&fakeCourseRepo{err: errors.New("connection refused")})

		_, err := handler.Handle(context.Background())
		assert.ErrorIs(t, err, shared.ErrServiceUnavailable)
	})
}
