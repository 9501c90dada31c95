package query

import (
	"context"
	"errors"

	"github.com/shoiab2025/Khadeira-Backend/internal/domain/leaderboard"
	"github.com/shoiab2025/Khadeira-Backend/internal/domain/shared"
	"github.com/shoiab2025/Khadeira-Backend/pkg/circuitbreaker"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD FOR TEST QUERY
// Получает лидерборд одного теста. Если тест встречается в нескольких
// тройках (предмет, урок), возвращается первый документ по времени
// создания. Отсутствие документа - это NotFound, а не пустой лидерборд.
// ══════════════════════════════════════════════════════════════════════════════

// GetLeaderboardForTestQuery содержит параметры запроса.
type GetLeaderboardForTestQuery struct {
	// TestID - идентификатор теста.
	TestID string
}

// Validate проверяет корректность параметров запроса.
func (q GetLeaderboardForTestQuery) Validate() error {
	if q.TestID == "" {
		return errors.New("test_id is required")
	}
	return nil
}

// GetLeaderboardForTestResult содержит результат запроса.
type GetLeaderboardForTestResult struct {
	Leaderboard LeaderboardDTO `json:"leaderboard"`
	FromCache   bool           `json:"-"`
}

// GetLeaderboardForTestHandler обрабатывает запрос лидерборда теста.
type GetLeaderboardForTestHandler struct {
	boards  leaderboard.Repository
	cache   leaderboard.Cache
	breaker *circuitbreaker.CircuitBreaker
}

// NewGetLeaderboardForTestHandler создаёт новый обработчик.
func NewGetLeaderboardForTestHandler(
	boards leaderboard.Repository,
	cache leaderboard.Cache,
	breaker *circuitbreaker.CircuitBreaker,
) *GetLeaderboardForTestHandler {
	return &GetLeaderboardForTestHandler{
		boards:  boards,
		cache:   cache,
		breaker: breaker,
	}
}

// Handle выполняет запрос лидерборда теста.
func (h *GetLeaderboardForTestHandler) Handle(ctx context.Context, query GetLeaderboardForTestQuery) (*GetLeaderboardForTestResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetLeaderboardForTest", shared.ErrValidation, err.Error(), err)
	}

	if board, err := h.tryCache(ctx, query.TestID); err == nil {
		return &GetLeaderboardForTestResult{Leaderboard: NewLeaderboardDTO(board), FromCache: true}, nil
	}

	board, err := h.boards.FindByTest(ctx, query.TestID)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.ErrLeaderboardNotFound
		}
		return nil, shared.WrapError("query", "GetLeaderboardForTest", shared.ErrServiceUnavailable, "failed to load leaderboard", err)
	}

	h.fillCache(ctx, board)

	return &GetLeaderboardForTestResult{Leaderboard: NewLeaderboardDTO(board)}, nil
}

func (h *GetLeaderboardForTestHandler) tryCache(ctx context.Context, testID string) (*leaderboard.Leaderboard, error) {
	if h.cache == nil {
		return nil, errors.New("cache not available")
	}

	var board *leaderboard.Leaderboard
	miss := false
	err := h.execute(ctx, func(ctx context.Context) error {
		var err error
		board, err = h.cache.GetByTest(ctx, testID)
		if shared.IsNotFound(err) {
			miss = true
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if miss || board == nil {
		return nil, shared.ErrNotFound
	}

	return board, nil
}

func (h *GetLeaderboardForTestHandler) fillCache(ctx context.Context, board *leaderboard.Leaderboard) {
	if h.cache == nil {
		return
	}

	_ = h.execute(ctx, func(ctx context.Context) error {
		return h.cache.SetByTest(ctx, board)
	})
}

func (h *GetLeaderboardForTestHandler) execute(ctx context.Context, fn func(context.Context) error) error {
	if h.breaker == nil {
		return fn(ctx)
	}
	return h.breaker.Execute(ctx, fn)
}
