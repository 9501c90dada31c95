package leaderboard

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет контракт хранилища лидербордов.
// Реализация находится в infrastructure/persistence/postgres.
type Repository interface {
	// FindByScope возвращает документ тройки (тест, предмет, урок).
	// Возвращает shared.ErrLeaderboardNotFound, если документа нет.
	FindByScope(ctx context.Context, testID, subjectID, lessonID string) (*Leaderboard, error)

	// FindByTest возвращает лидерборд теста (первый по времени создания,
	// если тест встречается в нескольких тройках).
	// Возвращает shared.ErrLeaderboardNotFound, если документа нет.
	FindByTest(ctx context.Context, testID string) (*Leaderboard, error)

	// FindAll возвращает все лидерборды с display-полями,
	// отсортированные по времени создания.
	FindAll(ctx context.Context) ([]*Leaderboard, error)

	// Create вставляет новый пустой документ. При гонке двух создателей
	// уникальный индекс по тройке даёт shared.ErrAlreadyExists -
	// вызывающий перечитывает документ и повторяет цикл.
	Create(ctx context.Context, board *Leaderboard) error

	// Save атомарно персистит документ целиком (шапку и все записи)
	// при условии совпадения Version, после чего инкрементирует её.
	// При несовпадении версии возвращает shared.ErrOptimisticLock.
	Save(ctx context.Context, board *Leaderboard) error
}

// Cache определяет контракт кеша снапшотов для читающих запросов.
// Реализация находится в infrastructure/persistence/redis.
type Cache interface {
	// GetAll возвращает закешированный список всех лидербордов.
	// Возвращает shared.ErrNotFound при промахе.
	GetAll(ctx context.Context) ([]*Leaderboard, error)

	// SetAll кеширует список всех лидербордов.
	SetAll(ctx context.Context, boards []*Leaderboard) error

	// GetByTest возвращает закешированный лидерборд теста.
	GetByTest(ctx context.Context, testID string) (*Leaderboard, error)

	// SetByTest кеширует лидерборд теста.
	SetByTest(ctx context.Context, board *Leaderboard) error

	// Invalidate сбрасывает ключи, затронутые изменением лидерборда теста.
	Invalidate(ctx context.Context, testID string) error
}
