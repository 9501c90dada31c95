package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/shoiab2025/Khadeira-Backend/internal/domain/shared"
	"github.com/shoiab2025/Khadeira-Backend/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// USER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// UserRepository implements user.Repository for PostgreSQL.
type UserRepository struct {
	conn *Connection
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(conn *Connection) *UserRepository {
	return &UserRepository{conn: conn}
}

// Create inserts a user. Email uniqueness is enforced by the index.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO users (id, name, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		u.ID,
		u.Name,
		u.Email.String(),
		u.PasswordHash,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrUserAlreadyExists
		}
		return shared.WrapError("user", "Create", shared.ErrServiceUnavailable, "insert failed", err)
	}

	return nil
}

// FindByID returns a user by ID.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*user.User, error) {
	row := r.conn.QueryRow(ctx, `
		SELECT id, name, email, password_hash, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id)

	return scanUser(row)
}

// FindByEmail returns a user by email, case-insensitively.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	row := r.conn.QueryRow(ctx, `
		SELECT id, name, email, password_hash, created_at, updated_at
		FROM users
		WHERE LOWER(email) = LOWER($1)
	`, email)

	return scanUser(row)
}

func scanUser(row pgx.Row) (*user.User, error) {
	var u user.User
	var email string

	err := row.Scan(&u.ID, &u.Name, &email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrUserNotFound
		}
		return nil, shared.WrapError("user", "Find", shared.ErrServiceUnavailable, "query failed", err)
	}

	u.Email = user.Email(email)
	return &u, nil
}
