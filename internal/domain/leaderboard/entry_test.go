package leaderboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRankingEntry(t *testing.T) {
	at := time.Date(2026, 1, 10, 10, 0, 0, 0, time.FixedZone("ALMT", 5*3600))

	t.Run("valid entry normalizes time to UTC", func(t *testing.T) {
		entry, err := NewRankingEntry("user-a", 85, at)
		require.NoError(t, err)

		assert.Equal(t, "user-a", entry.UserID)
		assert.Equal(t, Score(85), entry.Score)
		assert.Equal(t, time.UTC, entry.SubmittedAt.Location())
		assert.True(t, entry.SubmittedAt.Equal(at))
	})

	t.Run("rejects empty user id", func(t *testing.T) {
		_, err := NewRankingEntry("  ", 85, at)
		assert.ErrorIs(t, err, ErrInvalidUserID)
	})

	t.Run("rejects negative score", func(t *testing.T) {
		_, err := NewRankingEntry("user-a", -5, at)
		assert.ErrorIs(t, err, ErrInvalidScore)
	})

	t.Run("zero score is valid", func(t *testing.T) {
		entry, err := NewRankingEntry("user-a", 0, at)
		require.NoError(t, err)
		assert.Equal(t, Score(0), entry.Score)
	})
}

func TestRankIsValid(t *testing.T) {
	assert.False(t, Rank(0).IsValid())
	assert.False(t, Rank(-1).IsValid())
	assert.True(t, Rank(1).IsValid())
	assert.Equal(t, "#3", Rank(3).String())
}

func TestScoreIsValid(t *testing.T) {
	assert.True(t, Score(0).IsValid())
	assert.True(t, Score(100).IsValid())
	assert.False(t, Score(-1).IsValid())
}

func TestRankingEntryClone(t *testing.T) {
	at := time.Date(2026, 1, 10, 10, 0, 0, 0, time.UTC)
	entry, err := NewRankingEntry("user-a", 85, at)
	require.NoError(t, err)
	entry.Rank = 2

	clone := entry.Clone()
	require.NotNil(t, clone)
	assert.Equal(t, *entry, *clone)

	clone.Score = 99
	assert.Equal(t, Score(85), entry.Score)

	var nilEntry *RankingEntry
	assert.Nil(t, nilEntry.Clone())
}
