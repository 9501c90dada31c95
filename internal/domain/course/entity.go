// Package course содержит каталог учебного контента Khadeira:
// курсы, предметы, уроки и тесты. Лидерборды ссылаются на эти
// сущности по идентификаторам, display-поля читаются отсюда.
package course

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// SubjectStatus представляет статус предмета.
type SubjectStatus string

const (
	SubjectStatusActive   SubjectStatus = "active"
	SubjectStatusInactive SubjectStatus = "inactive"
)

// IsValid проверяет корректность статуса.
func (s SubjectStatus) IsValid() bool {
	return s == SubjectStatusActive || s == SubjectStatusInactive
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTITIES
// ══════════════════════════════════════════════════════════════════════════════

// Course представляет курс - верхний уровень каталога.
type Course struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
}

// Subject представляет предмет внутри курса.
// Code - человекочитаемый уникальный код, см. NewSubjectCode.
// Duration - продолжительность предмета в часах, минимум 1.
type Subject struct {
	ID          string
	Code        string
	Name        string
	Description string
	CourseID    string
	Duration    int
	Status      SubjectStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Lesson представляет урок внутри предмета.
type Lesson struct {
	ID        string
	Name      string
	SubjectID string
	CreatedAt time.Time
}

// Test представляет тест внутри урока. Сабмиты баллов привязаны к тесту.
type Test struct {
	ID        string
	Name      string
	LessonID  string
	CreatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// FACTORIES
// ══════════════════════════════════════════════════════════════════════════════

// NewSubject создаёт предмет с валидацией и сгенерированным кодом.
func NewSubject(id, name, description, courseID string, duration int, now time.Time) (*Subject, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidSubjectID
	}
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidSubjectName
	}
	if strings.TrimSpace(courseID) == "" {
		return nil, ErrInvalidCourseID
	}
	if duration < 1 {
		return nil, ErrInvalidSubjectDuration
	}

	now = now.UTC()

	return &Subject{
		ID:          id,
		Code:        NewSubjectCode(name, courseID, now),
		Name:        name,
		Description: description,
		CourseID:    courseID,
		Duration:    duration,
		Status:      SubjectStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// NewSubjectCode генерирует код предмета по детерминированной схеме:
// "SUB-" + первые две буквы названия (upper) + последние три символа
// ID курса (upper) + "-" + минуты момента создания (две цифры) +
// две последние цифры года.
//
// Пример: name="Math", courseID="...a4f", now=12:07 2026 -> "SUB-MAA4F-0726".
func NewSubjectCode(name, courseID string, now time.Time) string {
	// Срез по рунам: названия бывают не только латиницей.
	nameRunes := []rune(name)
	if len(nameRunes) > 2 {
		nameRunes = nameRunes[:2]
	}
	namePart := string(nameRunes)

	coursePart := courseID
	if len(coursePart) > 3 {
		coursePart = coursePart[len(coursePart)-3:]
	}

	return fmt.Sprintf(
		"SUB-%s%s-%02d%02d",
		strings.ToUpper(namePart),
		strings.ToUpper(coursePart),
		now.Minute(),
		now.Year()%100,
	)
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	ErrInvalidSubjectID       = errors.New("invalid subject id: cannot be empty")
	ErrInvalidSubjectName     = errors.New("invalid subject name: cannot be empty")
	ErrInvalidCourseID        = errors.New("invalid course id: cannot be empty")
	ErrInvalidSubjectDuration = errors.New("invalid subject duration: must be at least 1")
)
