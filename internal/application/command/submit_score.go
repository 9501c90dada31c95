// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shoiab2025/Khadeira-Backend/internal/domain/course"
	"github.com/shoiab2025/Khadeira-Backend/internal/domain/leaderboard"
	"github.com/shoiab2025/Khadeira-Backend/internal/domain/shared"
	"github.com/shoiab2025/Khadeira-Backend/internal/domain/user"
	"github.com/shoiab2025/Khadeira-Backend/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT SCORE COMMAND
// Applies a graded test score to the leaderboard of its (test, subject, lesson)
// scope: upserts the user's entry, re-ranks everyone, refreshes best_score.
// Safe to call concurrently - persistence is guarded by optimistic locking
// and the whole read-modify-write cycle is retried on version conflicts.
// ══════════════════════════════════════════════════════════════════════════════

// SubmitScoreCommand contains the data of one graded submission.
type SubmitScoreCommand struct {
	// UserID is the internal ID of the user who took the test.
	UserID string

	// TestID, SubjectID, LessonID identify the leaderboard scope.
	TestID    string
	SubjectID string
	LessonID  string

	// Score is the graded score, non-negative.
	Score int
}

// Validate validates the command.
func (c SubmitScoreCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("submit_score: user_id is required")
	}
	if c.TestID == "" {
		return errors.New("submit_score: test_id is required")
	}
	if c.SubjectID == "" {
		return errors.New("submit_score: subject_id is required")
	}
	if c.LessonID == "" {
		return errors.New("submit_score: lesson_id is required")
	}
	if c.Score < 0 {
		return errors.New("submit_score: score must be non-negative")
	}
	return nil
}

// SubmitScoreResult contains the result of applying a submission.
type SubmitScoreResult struct {
	// Outcome tells what the submission did: created a new entry,
	// improved an existing one, or changed nothing.
	Outcome leaderboard.SubmitOutcome

	// Rank is the user's position after the update.
	Rank leaderboard.Rank

	// BestScore is the leaderboard's best score after the update.
	BestScore leaderboard.Score

	// Board is the full leaderboard state after the update.
	Board *leaderboard.Leaderboard

	// Attempts is how many persistence attempts the update took.
	Attempts int
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// SubmitScoreHandler handles the SubmitScoreCommand.
type SubmitScoreHandler struct {
	boards  leaderboard.Repository
	users   user.Repository
	courses course.Repository
	cache   leaderboard.Cache
	retrier *retry.Retrier
}

// NewSubmitScoreHandler creates a new SubmitScoreHandler.
// The retrier governs how many optimistic-lock conflicts are absorbed
// before the command gives up; pass retry.OptimisticLockRetrier() in
// production wiring.
func NewSubmitScoreHandler(
	boards leaderboard.Repository,
	users user.Repository,
	courses course.Repository,
	cache leaderboard.Cache,
	retrier *retry.Retrier,
) *SubmitScoreHandler {
	if retrier == nil {
		retrier = retry.OptimisticLockRetrier()
	}

	return &SubmitScoreHandler{
		boards:  boards,
		users:   users,
		courses: courses,
		cache:   cache,
		retrier: retrier,
	}
}

// Handle executes the submit score command.
func (h *SubmitScoreHandler) Handle(ctx context.Context, cmd SubmitScoreCommand) (*SubmitScoreResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("leaderboard", "SubmitScore", shared.ErrValidation, err.Error(), err)
	}

	// Submission time is stamped here, at acceptance. Taking it from the
	// caller would let a client backdate itself past the earlier-submission
	// tie-break.
	submittedAt := time.Now().UTC()

	// Reject submissions for unknown users and tests up front,
	// before entering the retry cycle.
	if _, err := h.users.FindByID(ctx, cmd.UserID); err != nil {
		return nil, fmt.Errorf("submit_score: %w", err)
	}
	if _, err := h.courses.FindTestByID(ctx, cmd.TestID); err != nil {
		return nil, fmt.Errorf("submit_score: %w", err)
	}

	result := &SubmitScoreResult{}

	// The whole read-modify-write cycle restarts on a version conflict:
	// a concurrent writer moved the document forward, so the state we
	// ranked against is stale and must be re-read.
	err := h.retrier.Do(ctx, func(ctx context.Context) error {
		result.Attempts++

		board, err := h.loadOrCreate(ctx, cmd)
		if err != nil {
			return retry.Permanent(err)
		}

		outcome, err := board.Submit(cmd.UserID, leaderboard.Score(cmd.Score), submittedAt)
		if err != nil {
			return retry.Permanent(err)
		}

		// Lower-or-equal score: nothing changed, nothing to persist.
		if !outcome.Changed() {
			result.Outcome = outcome
			result.Board = board
			return nil
		}

		if err := h.boards.Save(ctx, board); err != nil {
			if errors.Is(err, shared.ErrOptimisticLock) {
				return retry.Retryable(err)
			}
			return retry.Permanent(err)
		}

		result.Outcome = outcome
		result.Board = board
		return nil
	})

	if err != nil {
		if errors.Is(err, shared.ErrOptimisticLock) {
			return nil, shared.WrapError(
				"leaderboard", "SubmitScore", shared.ErrRetryExhausted,
				fmt.Sprintf("gave up after %d attempts", result.Attempts), err,
			)
		}
		return nil, fmt.Errorf("submit_score: %w", err)
	}

	result.BestScore = result.Board.BestScore
	if entry := result.Board.EntryFor(cmd.UserID); entry != nil {
		result.Rank = entry.Rank
	}

	// Cached snapshots are stale after a successful write. Invalidation is
	// best-effort: readers fall back to the store on a miss anyway.
	if result.Outcome.Changed() && h.cache != nil {
		_ = h.cache.Invalidate(ctx, cmd.TestID)
	}

	return result, nil
}

// loadOrCreate returns the scope's leaderboard, creating an empty document
// on first submission. A creation race is resolved by re-reading: the
// unique index on the scope guarantees a single winner.
func (h *SubmitScoreHandler) loadOrCreate(ctx context.Context, cmd SubmitScoreCommand) (*leaderboard.Leaderboard, error) {
	board, err := h.boards.FindByScope(ctx, cmd.TestID, cmd.SubjectID, cmd.LessonID)
	if err == nil {
		return board, nil
	}
	if !shared.IsNotFound(err) {
		return nil, err
	}

	board, err = leaderboard.New(uuid.NewString(), cmd.TestID, cmd.SubjectID, cmd.LessonID, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := h.boards.Create(ctx, board); err != nil {
		if shared.IsAlreadyExists(err) {
			return h.boards.FindByScope(ctx, cmd.TestID, cmd.SubjectID, cmd.LessonID)
		}
		return nil, err
	}

	return board, nil
}
