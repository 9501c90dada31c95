package course

import (
	"context"
)

// Repository определяет контракт хранилища каталога.
// Реализация находится в infrastructure/persistence/postgres.
type Repository interface {
	// CreateSubject вставляет предмет. При дубликате кода
	// возвращает shared.ErrDuplicateCode.
	CreateSubject(ctx context.Context, subject *Subject) error

	// FindSubjectByID возвращает предмет по ID.
	// Возвращает shared.ErrSubjectNotFound, если предмета нет.
	FindSubjectByID(ctx context.Context, id string) (*Subject, error)

	// FindAllSubjects возвращает все предметы по времени создания.
	FindAllSubjects(ctx context.Context) ([]*Subject, error)

	// FindTestByID возвращает тест по ID.
	// Возвращает shared.ErrTestNotFound, если теста нет.
	FindTestByID(ctx context.Context, id string) (*Test, error)

	// FindLessonByID возвращает урок по ID.
	// Возвращает shared.ErrLessonNotFound, если урока нет.
	FindLessonByID(ctx context.Context, id string) (*Lesson, error)
}
