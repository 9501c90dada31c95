package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shoiab2025/Khadeira-Backend/internal/domain/course"
	"github.com/shoiab2025/Khadeira-Backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE SUBJECT COMMAND
// Adds a subject to a course. The human-readable subject code is derived
// deterministically from the name, the course ID and the creation time.
// ══════════════════════════════════════════════════════════════════════════════

// CreateSubjectCommand contains the data to create a subject.
type CreateSubjectCommand struct {
	Name        string
	Description string
	CourseID    string

	// Duration is the subject length in hours, at least 1.
	Duration int
}

// Validate validates the command.
func (c CreateSubjectCommand) Validate() error {
	if c.Name == "" {
		return errors.New("create_subject: name is required")
	}
	if c.CourseID == "" {
		return errors.New("create_subject: course_id is required")
	}
	if c.Duration < 1 {
		return errors.New("create_subject: duration must be at least 1")
	}
	return nil
}

// CreateSubjectResult contains the created subject.
type CreateSubjectResult struct {
	Subject *course.Subject
}

// CreateSubjectHandler handles the CreateSubjectCommand.
type CreateSubjectHandler struct {
	courses course.Repository
}

// NewCreateSubjectHandler creates a new CreateSubjectHandler.
func NewCreateSubjectHandler(courses course.Repository) *CreateSubjectHandler {
	return &CreateSubjectHandler{courses: courses}
}

// Handle executes the create subject command.
func (h *CreateSubjectHandler) Handle(ctx context.Context, cmd CreateSubjectCommand) (*CreateSubjectResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("course", "CreateSubject", shared.ErrValidation, err.Error(), err)
	}

	subject, err := course.NewSubject(
		uuid.NewString(),
		cmd.Name,
		cmd.Description,
		cmd.CourseID,
		cmd.Duration,
		time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("create_subject: %w", err)
	}

	if err := h.courses.CreateSubject(ctx, subject); err != nil {
		return nil, fmt.Errorf("create_subject: %w", err)
	}

	return &CreateSubjectResult{Subject: subject}, nil
}
