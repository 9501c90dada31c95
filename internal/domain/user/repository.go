package user

import (
	"context"
)

// Repository определяет контракт хранилища пользователей.
// Реализация находится в infrastructure/persistence/postgres.
type Repository interface {
	// Create вставляет пользователя. При дубликате email
	// возвращает shared.ErrUserAlreadyExists.
	Create(ctx context.Context, u *User) error

	// FindByID возвращает пользователя по ID.
	// Возвращает shared.ErrUserNotFound, если пользователя нет.
	FindByID(ctx context.Context, id string) (*User, error)

	// FindByEmail возвращает пользователя по email (без учёта регистра).
	// Возвращает shared.ErrUserNotFound, если пользователя нет.
	FindByEmail(ctx context.Context, email string) (*User, error)
}
