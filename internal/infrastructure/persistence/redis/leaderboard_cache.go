package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shoiab2025/Khadeira-Backend/internal/domain/leaderboard"
	"github.com/shoiab2025/Khadeira-Backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CACHED SNAPSHOT STRUCTURES
// ══════════════════════════════════════════════════════════════════════════════

// cachedEntry is the JSON form of a ranking entry in a cached snapshot.
type cachedEntry struct {
	UserID      string    `json:"user_id"`
	Score       int       `json:"score"`
	SubmittedAt time.Time `json:"submitted_at"`
	Rank        int       `json:"rank"`
	UserName    string    `json:"user_name,omitempty"`
	UserEmail   string    `json:"user_email,omitempty"`
}

// cachedBoard is the JSON form of a leaderboard snapshot. The domain model
// carries no serialization tags, so the cache keeps its own wire shape.
type cachedBoard struct {
	ID           string        `json:"id"`
	TestID       string        `json:"test_id"`
	SubjectID    string        `json:"subject_id"`
	LessonID     string        `json:"lesson_id"`
	Rankings     []cachedEntry `json:"rankings"`
	BestScore    int           `json:"best_score"`
	Version      int64         `json:"version"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	TestName     string        `json:"test_name,omitempty"`
	SubjectTitle string        `json:"subject_title,omitempty"`
	LessonName   string        `json:"lesson_name,omitempty"`
}

func toCachedBoard(board *leaderboard.Leaderboard) cachedBoard {
	entries := make([]cachedEntry, 0, len(board.Rankings))
	for _, e := range board.Rankings {
		entries = append(entries, cachedEntry{
			UserID:      e.UserID,
			Score:       int(e.Score),
			SubmittedAt: e.SubmittedAt,
			Rank:        int(e.Rank),
			UserName:    e.UserName,
			UserEmail:   e.UserEmail,
		})
	}
	return cachedBoard{
		ID:           board.ID,
		TestID:       board.TestID,
		SubjectID:    board.SubjectID,
		LessonID:     board.LessonID,
		Rankings:     entries,
		BestScore:    int(board.BestScore),
		Version:      board.Version,
		CreatedAt:    board.CreatedAt,
		UpdatedAt:    board.UpdatedAt,
		TestName:     board.TestName,
		SubjectTitle: board.SubjectTitle,
		LessonName:   board.LessonName,
	}
}

func fromCachedBoard(cb cachedBoard) *leaderboard.Leaderboard {
	entries := make([]leaderboard.RankingEntry, 0, len(cb.Rankings))
	for _, e := range cb.Rankings {
		entries = append(entries, leaderboard.RankingEntry{
			UserID:      e.UserID,
			Score:       leaderboard.Score(e.Score),
			SubmittedAt: e.SubmittedAt,
			Rank:        leaderboard.Rank(e.Rank),
			UserName:    e.UserName,
			UserEmail:   e.UserEmail,
		})
	}
	return &leaderboard.Leaderboard{
		ID:           cb.ID,
		TestID:       cb.TestID,
		SubjectID:    cb.SubjectID,
		LessonID:     cb.LessonID,
		Rankings:     entries,
		BestScore:    leaderboard.Score(cb.BestScore),
		Version:      cb.Version,
		CreatedAt:    cb.CreatedAt,
		UpdatedAt:    cb.UpdatedAt,
		TestName:     cb.TestName,
		SubjectTitle: cb.SubjectTitle,
		LessonName:   cb.LessonName,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardCache caches leaderboard snapshots in Redis as JSON documents.
// It implements leaderboard.Cache. A snapshot lives under two kinds of keys:
// one for the full listing and one per test; Invalidate drops both so the
// next read rebuilds them from Postgres.
type LeaderboardCache struct {
	cache *Cache
	ttl   time.Duration
}

// NewLeaderboardCache creates a LeaderboardCache with the given snapshot TTL.
// A non-positive TTL falls back to TTLLeaderboardCache.
func NewLeaderboardCache(cache *Cache, ttl time.Duration) *LeaderboardCache {
	if ttl <= 0 {
		ttl = TTLLeaderboardCache
	}
	return &LeaderboardCache{cache: cache, ttl: ttl}
}

// GetAll returns the cached full leaderboard listing.
func (c *LeaderboardCache) GetAll(ctx context.Context) ([]*leaderboard.Leaderboard, error) {
	var snapshot []cachedBoard
	if err := c.cache.Get(ctx, LeaderboardAllKey, &snapshot); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("leaderboard cache get all: %w", err)
	}

	boards := make([]*leaderboard.Leaderboard, 0, len(snapshot))
	for _, cb := range snapshot {
		boards = append(boards, fromCachedBoard(cb))
	}
	return boards, nil
}

// SetAll caches the full leaderboard listing.
func (c *LeaderboardCache) SetAll(ctx context.Context, boards []*leaderboard.Leaderboard) error {
	snapshot := make([]cachedBoard, 0, len(boards))
	for _, board := range boards {
		snapshot = append(snapshot, toCachedBoard(board))
	}
	if err := c.cache.Set(ctx, LeaderboardAllKey, snapshot, c.ttl); err != nil {
		return fmt.Errorf("leaderboard cache set all: %w", err)
	}
	return nil
}

// GetByTest returns the cached snapshot for a test.
func (c *LeaderboardCache) GetByTest(ctx context.Context, testID string) (*leaderboard.Leaderboard, error) {
	var snapshot cachedBoard
	if err := c.cache.Get(ctx, LeaderboardTestKey(testID), &snapshot); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("leaderboard cache get test %s: %w", testID, err)
	}
	return fromCachedBoard(snapshot), nil
}

// SetByTest caches the snapshot for a test.
func (c *LeaderboardCache) SetByTest(ctx context.Context, board *leaderboard.Leaderboard) error {
	if err := c.cache.Set(ctx, LeaderboardTestKey(board.TestID), toCachedBoard(board), c.ttl); err != nil {
		return fmt.Errorf("leaderboard cache set test %s: %w", board.TestID, err)
	}
	return nil
}

// Invalidate drops the keys affected by an update to the test's leaderboard.
// Both the per-test snapshot and the full listing go stale together.
func (c *LeaderboardCache) Invalidate(ctx context.Context, testID string) error {
	if err := c.cache.Delete(ctx, LeaderboardTestKey(testID), LeaderboardAllKey); err != nil {
		return fmt.Errorf("leaderboard cache invalidate %s: %w", testID, err)
	}
	return nil
}
