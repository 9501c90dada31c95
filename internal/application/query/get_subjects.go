package query

import (
	"context"
	"time"

	"github.com/shoiab2025/Khadeira-Backend/internal/domain/course"
	"github.com/shoiab2025/Khadeira-Backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET SUBJECTS QUERY
// Получает все предметы каталога.
// ══════════════════════════════════════════════════════════════════════════════

// SubjectDTO - DTO предмета.
type SubjectDTO struct {
	ID          string    `json:"id"`
	Code        string    `json:"subject_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CourseID    string    `json:"course_id"`
	Duration    int       `json:"duration"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// GetSubjectsResult содержит результат запроса предметов.
type GetSubjectsResult struct {
	Subjects   []SubjectDTO `json:"subjects"`
	TotalCount int          `json:"total_count"`
}

// GetSubjectsHandler обрабатывает запрос списка предметов.
type GetSubjectsHandler struct {
	courses course.Repository
}

// NewGetSubjectsHandler создаёт новый обработчик.
func NewGetSubjectsHandler(courses course.Repository) *GetSubjectsHandler {
	return &GetSubjectsHandler{courses: courses}
}

// Handle выполняет запрос списка предметов.
func (h *GetSubjectsHandler) Handle(ctx context.Context) (*GetSubjectsResult, error) {
	subjects, err := h.courses.FindAllSubjects(ctx)
	if err != nil {
		return nil, shared.WrapError("query", "GetSubjects", shared.ErrServiceUnavailable, "failed to load subjects", err)
	}

	dtos := make([]SubjectDTO, len(subjects))
	for i, s := range subjects {
		dtos[i] = SubjectDTO{
			ID:          s.ID,
			Code:        s.Code,
			Name:        s.Name,
			Description: s.Description,
			CourseID:    s.CourseID,
			Duration:    s.Duration,
			Status:      string(s.Status),
			CreatedAt:   s.CreatedAt,
		}
	}

	return &GetSubjectsResult{Subjects: dtos, TotalCount: len(dtos)}, nil
}
