package command

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoiab2025/Khadeira-Backend/internal/domain/shared"
)

func TestCreateSubjectHandler(t *testing.T) {
	t.Run("creates subject with generated code", func(t *testing.T) {
		repo := fixtureCourses()
		handler := NewCreateSubjectHandler(repo)

		result, err := handler.Handle(context.Background(), CreateSubjectCommand{
			Name:        "Algebra",
			Description: "Linear equations",
			CourseID:    "course-a4f",
			Duration:    24,
		})
		require.NoError(t, err)

		assert.NotEmpty(t, result.Subject.ID)
		assert.True(t, strings.HasPrefix(result.Subject.Code, "SUB-ALA4F-"))
		assert.Equal(t, 24, result.Subject.Duration)
		assert.Len(t, repo.subjects, 1)
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		handler := NewCreateSubjectHandler(fixtureCourses())

		_, err := handler.Handle(context.Background(), CreateSubjectCommand{Name: "Algebra", Duration: 24})
		assert.True(t, shared.IsValidation(err))

		_, err = handler.Handle(context.Background(), CreateSubjectCommand{CourseID: "course-1", Duration: 24})
		assert.True(t, shared.IsValidation(err))

		_, err = handler.Handle(context.Background(), CreateSubjectCommand{Name: "Algebra", CourseID: "course-1"})
		assert.True(t, shared.IsValidation(err))
	})
}
