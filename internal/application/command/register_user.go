package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shoiab2025/Khadeira-Backend/internal/domain/shared"
	"github.com/shoiab2025/Khadeira-Backend/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTER USER COMMAND
// Creates a platform account. The email must be unused; the password is
// stored only as a bcrypt hash.
// ══════════════════════════════════════════════════════════════════════════════

// RegisterUserCommand contains the data to register a user.
type RegisterUserCommand struct {
	Name     string
	Email    string
	Password string
}

// Validate validates the command.
func (c RegisterUserCommand) Validate() error {
	if c.Name == "" {
		return errors.New("register_user: name is required")
	}
	if c.Email == "" {
		return errors.New("register_user: email is required")
	}
	if c.Password == "" {
		return errors.New("register_user: password is required")
	}
	return nil
}

// RegisterUserResult contains the created user.
type RegisterUserResult struct {
	User *user.User
}

// RegisterUserHandler handles the RegisterUserCommand.
type RegisterUserHandler struct {
	users user.Repository
}

// NewRegisterUserHandler creates a new RegisterUserHandler.
func NewRegisterUserHandler(users user.Repository) *RegisterUserHandler {
	return &RegisterUserHandler{users: users}
}

// Handle executes the register user command.
func (h *RegisterUserHandler) Handle(ctx context.Context, cmd RegisterUserCommand) (*RegisterUserResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("user", "RegisterUser", shared.ErrValidation, err.Error(), err)
	}

	if _, err := h.users.FindByEmail(ctx, cmd.Email); err == nil {
		return nil, shared.ErrUserAlreadyExists
	} else if !shared.IsNotFound(err) {
		return nil, fmt.Errorf("register_user: %w", err)
	}

	u, err := user.New(uuid.NewString(), cmd.Name, cmd.Email, cmd.Password, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, user.ErrInvalidEmail):
			return nil, shared.ErrInvalidEmail
		case errors.Is(err, user.ErrWeakPassword):
			return nil, shared.ErrWeakPassword
		default:
			return nil, fmt.Errorf("register_user: %w", err)
		}
	}

	// Create relies on the unique index: a racing registration with the
	// same email loses here even though the lookup above saw nothing.
	if err := h.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("register_user: %w", err)
	}

	return &RegisterUserResult{User: u}, nil
}
