// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
// Each query is a self-contained use case with its own request/response types.
package query

import (
	"context"
	"errors"
	"time"

	"github.com/shoiab2025/Khadeira-Backend/internal/domain/leaderboard"
	"github.com/shoiab2025/Khadeira-Backend/internal/domain/shared"
	"github.com/shoiab2025/Khadeira-Backend/pkg/circuitbreaker"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARDS QUERY
// Получает все лидерборды с display-полями (имена пользователей, названия
// тестов, предметов и уроков). Читает через кеш (cache-aside): промах или
// отказ Redis прозрачно уходит в хранилище.
// ══════════════════════════════════════════════════════════════════════════════

// RankingEntryDTO - DTO одной записи лидерборда.
type RankingEntryDTO struct {
	// Rank - позиция в рейтинге (начиная с 1).
	Rank int `json:"rank"`

	// UserID - внутренний ID пользователя.
	UserID string `json:"user_id"`

	// UserName - отображаемое имя.
	UserName string `json:"user_name"`

	// UserEmail - email пользователя.
	UserEmail string `json:"user_email,omitempty"`

	// Score - лучший принятый балл.
	Score int `json:"score"`

	// SubmittedAt - время принятого сабмита.
	SubmittedAt time.Time `json:"submitted_at"`
}

// LeaderboardDTO - DTO документа лидерборда.
type LeaderboardDTO struct {
	ID           string            `json:"id"`
	TestID       string            `json:"test_id"`
	TestName     string            `json:"test_name,omitempty"`
	SubjectID    string            `json:"subject_id"`
	SubjectTitle string            `json:"subject_title,omitempty"`
	LessonID     string            `json:"lesson_id"`
	LessonName   string            `json:"lesson_name,omitempty"`
	BestScore    int               `json:"best_score"`
	Rankings     []RankingEntryDTO `json:"rankings"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// NewLeaderboardDTO конвертирует доменный агрегат в DTO.
func NewLeaderboardDTO(board *leaderboard.Leaderboard) LeaderboardDTO {
	rankings := make([]RankingEntryDTO, len(board.Rankings))
	for i, entry := range board.Rankings {
		rankings[i] = RankingEntryDTO{
			Rank:        int(entry.Rank),
			UserID:      entry.UserID,
			UserName:    entry.UserName,
			UserEmail:   entry.UserEmail,
			Score:       int(entry.Score),
			SubmittedAt: entry.SubmittedAt,
		}
	}

	return LeaderboardDTO{
		ID:           board.ID,
		TestID:       board.TestID,
		TestName:     board.TestName,
		SubjectID:    board.SubjectID,
		SubjectTitle: board.SubjectTitle,
		LessonID:     board.LessonID,
		LessonName:   board.LessonName,
		BestScore:    int(board.BestScore),
		Rankings:     rankings,
		UpdatedAt:    board.UpdatedAt,
	}
}

// GetLeaderboardsResult содержит результат запроса всех лидербордов.
type GetLeaderboardsResult struct {
	// Leaderboards - все документы по времени создания.
	Leaderboards []LeaderboardDTO `json:"leaderboards"`

	// TotalCount - количество документов.
	TotalCount int `json:"total_count"`

	// FromCache - результат получен из кеша.
	FromCache bool `json:"-"`

	// GeneratedAt - время генерации результата.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetLeaderboardsHandler обрабатывает запросы списка лидербордов.
type GetLeaderboardsHandler struct {
	boards leaderboard.Repository
	cache  leaderboard.Cache

	// breaker отсекает кеш при деградации Redis, чтобы каждый запрос
	// не платил таймаутом за мёртвый кеш.
	breaker *circuitbreaker.CircuitBreaker
}

// NewGetLeaderboardsHandler создаёт новый обработчик.
func NewGetLeaderboardsHandler(
	boards leaderboard.Repository,
	cache leaderboard.Cache,
	breaker *circuitbreaker.CircuitBreaker,
) *GetLeaderboardsHandler {
	return &GetLeaderboardsHandler{
		boards:  boards,
		cache:   cache,
		breaker: breaker,
	}
}

// Handle выполняет запрос всех лидербордов.
func (h *GetLeaderboardsHandler) Handle(ctx context.Context, _ GetLeaderboardsQuery) (*GetLeaderboardsResult, error) {
	if cached, err := h.tryCache(ctx); err == nil {
		return h.buildResult(cached, true), nil
	}

	boards, err := h.boards.FindAll(ctx)
	if err != nil {
		return nil, shared.WrapError("query", "GetLeaderboards", shared.ErrServiceUnavailable, "failed to load leaderboards", err)
	}

	h.fillCache(ctx, boards)

	return h.buildResult(boards, false), nil
}

// GetLeaderboardsQuery - параметры запроса. Пока пустые, существуют ради
// единообразия сигнатур обработчиков.
type GetLeaderboardsQuery struct{}

// tryCache читает список из кеша под защитой circuit breaker.
// Промах оборачивается внутри callback, чтобы breaker считал его
// нормальным ответом, а не отказом Redis.
func (h *GetLeaderboardsHandler) tryCache(ctx context.Context) ([]*leaderboard.Leaderboard, error) {
	if h.cache == nil {
		return nil, errors.New("cache not available")
	}

	var boards []*leaderboard.Leaderboard
	miss := false
	err := h.execute(ctx, func(ctx context.Context) error {
		var err error
		boards, err = h.cache.GetAll(ctx)
		if shared.IsNotFound(err) {
			miss = true
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if miss {
		return nil, shared.ErrNotFound
	}

	return boards, nil
}

// fillCache кеширует список. Ошибки кеша не влияют на ответ.
func (h *GetLeaderboardsHandler) fillCache(ctx context.Context, boards []*leaderboard.Leaderboard) {
	if h.cache == nil {
		return
	}

	_ = h.execute(ctx, func(ctx context.Context) error {
		return h.cache.SetAll(ctx, boards)
	})
}

func (h *GetLeaderboardsHandler) execute(ctx context.Context, fn func(context.Context) error) error {
	if h.breaker == nil {
		return fn(ctx)
	}
	return h.breaker.Execute(ctx, fn)
}

func (h *GetLeaderboardsHandler) buildResult(boards []*leaderboard.Leaderboard, fromCache bool) *GetLeaderboardsResult {
	dtos := make([]LeaderboardDTO, len(boards))
	for i, board := range boards {
		dtos[i] = NewLeaderboardDTO(board)
	}

	return &GetLeaderboardsResult{
		Leaderboards: dtos,
		TotalCount:   len(dtos),
		FromCache:    fromCache,
		GeneratedAt:  time.Now().UTC(),
	}
}
