package leaderboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBoard(t *testing.T) *Leaderboard {
	t.Helper()
	board, err := New("lb-1", "test-1", "subject-1", "lesson-1", time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return board
}

func TestNew(t *testing.T) {
	now := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

	t.Run("creates empty board", func(t *testing.T) {
		board, err := New("lb-1", "test-1", "subject-1", "lesson-1", now)
		require.NoError(t, err)

		assert.True(t, board.IsEmpty())
		assert.Equal(t, Score(0), board.BestScore)
		assert.Equal(t, int64(0), board.Version)
		assert.Equal(t, "test-1:subject-1:lesson-1", board.Scope())
	})

	t.Run("rejects empty scope ids", func(t *testing.T) {
		_, err := New("lb-1", "", "subject-1", "lesson-1", now)
		assert.ErrorIs(t, err, ErrInvalidScopeID)

		_, err = New("lb-1", "test-1", "  ", "lesson-1", now)
		assert.ErrorIs(t, err, ErrInvalidScopeID)

		_, err = New("", "test-1", "subject-1", "lesson-1", now)
		assert.ErrorIs(t, err, ErrInvalidScopeID)
	})
}

func TestSubmit_FirstScore(t *testing.T) {
	board := newTestBoard(t)
	at := time.Date(2026, 1, 10, 10, 0, 0, 0, time.UTC)

	outcome, err := board.Submit("user-a", 85, at)
	require.NoError(t, err)

	assert.Equal(t, OutcomeCreated, outcome)
	require.Equal(t, 1, board.Size())
	assert.Equal(t, Rank(1), board.Rankings[0].Rank)
	assert.Equal(t, Score(85), board.Rankings[0].Score)
	assert.Equal(t, Score(85), board.BestScore)
}

func TestSubmit_MonotonicScore(t *testing.T) {
	board := newTestBoard(t)
	at := time.Date(2026, 1, 10, 10, 0, 0, 0, time.UTC)

	_, err := board.Submit("user-a", 90, at)
	require.NoError(t, err)

	t.Run("lower score is a no-op", func(t *testing.T) {
		outcome, err := board.Submit("user-a", 70, at.Add(time.Minute))
		require.NoError(t, err)

		assert.Equal(t, OutcomeNoChange, outcome)
		assert.Equal(t, Score(90), board.EntryFor("user-a").Score)
		assert.Equal(t, at, board.EntryFor("user-a").SubmittedAt)
	})

	t.Run("equal score is a no-op", func(t *testing.T) {
		outcome, err := board.Submit("user-a", 90, at.Add(time.Minute))
		require.NoError(t, err)

		assert.Equal(t, OutcomeNoChange, outcome)
		assert.Equal(t, at, board.EntryFor("user-a").SubmittedAt)
	})

	t.Run("higher score updates entry and timestamp", func(t *testing.T) {
		later := at.Add(2 * time.Minute)
		outcome, err := board.Submit("user-a", 95, later)
		require.NoError(t, err)

		assert.Equal(t, OutcomeImproved, outcome)
		assert.Equal(t, Score(95), board.EntryFor("user-a").Score)
		assert.Equal(t, later, board.EntryFor("user-a").SubmittedAt)
		assert.Equal(t, Score(95), board.BestScore)
	})
}

func TestSubmit_Idempotent(t *testing.T) {
	board := newTestBoard(t)
	at := time.Date(2026, 1, 10, 10, 0, 0, 0, time.UTC)

	_, err := board.Submit("user-a", 80, at)
	require.NoError(t, err)

	before := board.Rankings[0]

	// Повторный сабмит того же балла ничего не меняет.
	outcome, err := board.Submit("user-a", 80, at.Add(time.Hour))
	require.NoError(t, err)

	assert.Equal(t, OutcomeNoChange, outcome)
	assert.Equal(t, 1, board.Size())
	assert.Equal(t, before, board.Rankings[0])
}

func TestSubmit_Validation(t *testing.T) {
	board := newTestBoard(t)
	at := time.Date(2026, 1, 10, 10, 0, 0, 0, time.UTC)

	_, err := board.Submit("", 50, at)
	assert.ErrorIs(t, err, ErrInvalidUserID)

	_, err = board.Submit("user-a", -1, at)
	assert.ErrorIs(t, err, ErrInvalidScore)

	assert.True(t, board.IsEmpty())
}

func TestSubmit_DenseRanks(t *testing.T) {
	board := newTestBoard(t)
	base := time.Date(2026, 1, 10, 10, 0, 0, 0, time.UTC)

	_, err := board.Submit("user-a", 70, base)
	require.NoError(t, err)
	_, err = board.Submit("user-b", 90, base.Add(time.Minute))
	require.NoError(t, err)
	_, err = board.Submit("user-c", 80, base.Add(2*time.Minute))
	require.NoError(t, err)

	require.Equal(t, 3, board.Size())
	assert.Equal(t, "user-b", board.Rankings[0].UserID)
	assert.Equal(t, "user-c", board.Rankings[1].UserID)
	assert.Equal(t, "user-a", board.Rankings[2].UserID)

	for i, entry := range board.Rankings {
		assert.Equal(t, Rank(i+1), entry.Rank)
	}
	assert.Equal(t, Score(90), board.BestScore)
}

func TestSubmit_TieBreakByTime(t *testing.T) {
	board := newTestBoard(t)
	base := time.Date(2026, 1, 10, 10, 0, 0, 0, time.UTC)

	// user-b сабмитит тот же балл позже - ранний сабмит выше.
	_, err := board.Submit("user-a", 85, base)
	require.NoError(t, err)
	_, err = board.Submit("user-b", 85, base.Add(time.Second))
	require.NoError(t, err)

	assert.Equal(t, "user-a", board.Rankings[0].UserID)
	assert.Equal(t, Rank(1), board.Rankings[0].Rank)
	assert.Equal(t, "user-b", board.Rankings[1].UserID)
	assert.Equal(t, Rank(2), board.Rankings[1].Rank)
}

func TestSubmit_TieBreakByUserID(t *testing.T) {
	board := newTestBoard(t)
	at := time.Date(2026, 1, 10, 10, 0, 0, 0, time.UTC)

	// Полное совпадение балла и времени - порядок детерминируется по UserID.
	_, err := board.Submit("user-z", 85, at)
	require.NoError(t, err)
	_, err = board.Submit("user-a", 85, at)
	require.NoError(t, err)

	assert.Equal(t, "user-a", board.Rankings[0].UserID)
	assert.Equal(t, "user-z", board.Rankings[1].UserID)
}

func TestSubmit_ReRankOnImprovement(t *testing.T) {
	board := newTestBoard(t)
	base := time.Date(2026, 1, 10, 10, 0, 0, 0, time.UTC)

	_, err := board.Submit("user-a", 60, base)
	require.NoError(t, err)
	_, err = board.Submit("user-b", 90, base.Add(time.Minute))
	require.NoError(t, err)

	// user-a обгоняет user-b.
	outcome, err := board.Submit("user-a", 95, base.Add(2*time.Minute))
	require.NoError(t, err)

	assert.Equal(t, OutcomeImproved, outcome)
	assert.Equal(t, "user-a", board.Rankings[0].UserID)
	assert.Equal(t, Rank(1), board.Rankings[0].Rank)
	assert.Equal(t, "user-b", board.Rankings[1].UserID)
	assert.Equal(t, Rank(2), board.Rankings[1].Rank)
	assert.Equal(t, Score(95), board.BestScore)
}

func TestRankEntries_Deterministic(t *testing.T) {
	at := time.Date(2026, 1, 10, 10, 0, 0, 0, time.UTC)

	entries := []RankingEntry{
		{UserID: "user-c", Score: 80, SubmittedAt: at},
		{UserID: "user-a", Score: 80, SubmittedAt: at},
		{UserID: "user-b", Score: 95, SubmittedAt: at.Add(time.Minute)},
	}
	reversed := []RankingEntry{entries[2], entries[1], entries[0]}

	first := RankEntries(entries)
	second := RankEntries(reversed)

	require.Len(t, first, 3)
	for i := range first {
		assert.Equal(t, first[i].UserID, second[i].UserID)
		assert.Equal(t, first[i].Rank, second[i].Rank)
	}
}

func TestTopScore(t *testing.T) {
	assert.Equal(t, Score(0), TopScore(nil))
	assert.Equal(t, Score(0), TopScore([]RankingEntry{}))

	at := time.Date(2026, 1, 10, 10, 0, 0, 0, time.UTC)
	ranked := RankEntries([]RankingEntry{
		{UserID: "user-a", Score: 40, SubmittedAt: at},
		{UserID: "user-b", Score: 75, SubmittedAt: at},
	})
	assert.Equal(t, Score(75), TopScore(ranked))
}

func TestEntryFor(t *testing.T) {
	board := newTestBoard(t)
	at := time.Date(2026, 1, 10, 10, 0, 0, 0, time.UTC)

	_, err := board.Submit("user-a", 50, at)
	require.NoError(t, err)

	require.NotNil(t, board.EntryFor("user-a"))
	assert.Nil(t, board.EntryFor("user-b"))
}
