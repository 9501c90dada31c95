package course

import (
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSubjectCode(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 7, 0, 0, time.UTC)

	t.Run("deterministic format", func(t *testing.T) {
		code := NewSubjectCode("Mathematics", "course-a4f", now)
		assert.Equal(t, "SUB-MAA4F-0726", code)
	})

	t.Run("same inputs give same code", func(t *testing.T) {
		first := NewSubjectCode("Physics", "course-123", now)
		second := NewSubjectCode("Physics", "course-123", now)
		assert.Equal(t, first, second)
	})

	t.Run("short name and course id are used as-is", func(t *testing.T) {
		code := NewSubjectCode("X", "ab", now)
		assert.Equal(t, "SUB-XAB-0726", code)
	})

	t.Run("minutes are zero-padded", func(t *testing.T) {
		early := time.Date(2026, 3, 15, 12, 5, 0, 0, time.UTC)
		code := NewSubjectCode("Biology", "course-9zz", early)
		assert.Equal(t, "SUB-BI9ZZ-0526", code)
	})

	t.Run("multibyte name keeps whole characters", func(t *testing.T) {
		code := NewSubjectCode("Математика", "course-a4f", now)
		assert.Equal(t, "SUB-МАA4F-0726", code)
		assert.True(t, utf8.ValidString(code))
	})
}

func TestNewSubject(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 7, 0, 0, time.UTC)

	t.Run("valid subject", func(t *testing.T) {
		subject, err := NewSubject("sub-1", "Algebra", "Linear equations", "course-1", 24, now)
		require.NoError(t, err)

		assert.Equal(t, "sub-1", subject.ID)
		assert.Equal(t, SubjectStatusActive, subject.Status)
		assert.Equal(t, NewSubjectCode("Algebra", "course-1", now), subject.Code)
		assert.Equal(t, 24, subject.Duration)
		assert.Equal(t, now, subject.CreatedAt)
	})

	t.Run("rejects empty fields", func(t *testing.T) {
		_, err := NewSubject("", "Algebra", "", "course-1", 24, now)
		assert.ErrorIs(t, err, ErrInvalidSubjectID)

		_, err = NewSubject("sub-1", " ", "", "course-1", 24, now)
		assert.ErrorIs(t, err, ErrInvalidSubjectName)

		_, err = NewSubject("sub-1", "Algebra", "", "", 24, now)
		assert.ErrorIs(t, err, ErrInvalidCourseID)
	})

	t.Run("rejects non-positive duration", func(t *testing.T) {
		_, err := NewSubject("sub-1", "Algebra", "", "course-1", 0, now)
		assert.ErrorIs(t, err, ErrInvalidSubjectDuration)

		_, err = NewSubject("sub-1", "Algebra", "", "course-1", -3, now)
		assert.ErrorIs(t, err, ErrInvalidSubjectDuration)
	})
}

func TestSubjectStatusIsValid(t *testing.T) {
	assert.True(t, SubjectStatusActive.IsValid())
	assert.True(t, SubjectStatusInactive.IsValid())
	assert.False(t, SubjectStatus("archived").IsValid())
}
