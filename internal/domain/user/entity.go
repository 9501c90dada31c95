// Package user содержит доменную модель пользователя Khadeira.
package user

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Email представляет адрес электронной почты.
type Email string

// IsValid проверяет формат адреса.
func (e Email) IsValid() bool {
	return emailPattern.MatchString(string(e))
}

// String возвращает адрес в нижнем регистре.
func (e Email) String() string {
	return strings.ToLower(string(e))
}

// minPasswordLength - минимальная длина пароля при регистрации.
const minPasswordLength = 8

// ══════════════════════════════════════════════════════════════════════════════
// ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// User представляет зарегистрированного пользователя.
// Пароль хранится только в виде bcrypt-хеша.
type User struct {
	ID           string
	Name         string
	Email        Email
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// New создаёт пользователя с валидацией и хешированием пароля.
func New(id, name, email, password string, now time.Time) (*User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidUserID
	}
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidName
	}

	addr := Email(strings.TrimSpace(email))
	if !addr.IsValid() {
		return nil, ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now = now.UTC()

	return &User{
		ID:           id,
		Name:         name,
		Email:        Email(addr.String()),
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// CheckPassword сравнивает пароль с сохранённым хешем.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	ErrInvalidUserID = errors.New("invalid user id: cannot be empty")
	ErrInvalidName   = errors.New("invalid name: cannot be empty")
	ErrInvalidEmail  = errors.New("invalid email format")
	ErrWeakPassword  = errors.New("password must be at least 8 characters")
)
