package command

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoiab2025/Khadeira-Backend/internal/domain/course"
	"github.com/shoiab2025/Khadeira-Backend/internal/domain/leaderboard"
	"github.com/shoiab2025/Khadeira-Backend/internal/domain/shared"
	"github.com/shoiab2025/Khadeira-Backend/internal/domain/user"
	"github.com/shoiab2025/Khadeira-Backend/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// FAKES
// ══════════════════════════════════════════════════════════════════════════════

type fakeBoardRepo struct {
	mu     sync.Mutex
	boards map[string]*leaderboard.Leaderboard

	// conflictsLeft makes Save fail with a version conflict that many
	// times before succeeding. -1 means conflict forever.
	conflictsLeft int
	saveCalls     int
}

func newFakeBoardRepo() *fakeBoardRepo {
	return &fakeBoardRepo{boards: make(map[string]*leaderboard.Leaderboard)}
}

func scopeKey(testID, subjectID, lessonID string) string {
	return strings.Join([]string{testID, subjectID, lessonID}, ":")
}

func (r *fakeBoardRepo) FindByScope(_ context.Context, testID, subjectID, lessonID string) (*leaderboard.Leaderboard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	board, ok := r.boards[scopeKey(testID, subjectID, lessonID)]
	if !ok {
		return nil, shared.ErrLeaderboardNotFound
	}
	clone := *board
	clone.Rankings = append([]leaderboard.RankingEntry(nil), board.Rankings...)
	return &clone, nil
}

func (r *fakeBoardRepo) FindByTest(_ context.Context, testID string) (*leaderboard.Leaderboard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, board := range r.boards {
		if board.TestID == testID {
			return board, nil
		}
	}
	return nil, shared.ErrLeaderboardNotFound
}

func (r *fakeBoardRepo) FindAll(_ context.Context) ([]*leaderboard.Leaderboard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]*leaderboard.Leaderboard, 0, len(r.boards))
	for _, board := range r.boards {
		all = append(all, board)
	}
	return all, nil
}

func (r *fakeBoardRepo) Create(_ context.Context, board *leaderboard.Leaderboard) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := board.Scope()
	if _, ok := r.boards[key]; ok {
		return shared.ErrAlreadyExists
	}
	clone := *board
	r.boards[key] = &clone
	return nil
}

func (r *fakeBoardRepo) Save(_ context.Context, board *leaderboard.Leaderboard) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saveCalls++

	if r.conflictsLeft != 0 {
		if r.conflictsLeft > 0 {
			r.conflictsLeft--
		}
		return shared.ErrUpdateConflict
	}

	stored, ok := r.boards[board.Scope()]
	if ok && stored.Version != board.Version {
		return shared.ErrUpdateConflict
	}

	clone := *board
	clone.Rankings = append([]leaderboard.RankingEntry(nil), board.Rankings...)
	clone.Version++
	r.boards[board.Scope()] = &clone
	board.Version = clone.Version
	return nil
}

type fakeUserRepo struct {
	users map[string]*user.User
}

func (r *fakeUserRepo) Create(_ context.Context, u *user.User) error {
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return shared.ErrUserAlreadyExists
		}
	}
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id string) (*user.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, shared.ErrUserNotFound
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*user.User, error) {
	for _, u := range r.users {
		if string(u.Email) == strings.ToLower(email) {
			return u, nil
		}
	}
	return nil, shared.ErrUserNotFound
}

type fakeCourseRepo struct {
	subjects map[string]*course.Subject
	tests    map[string]*course.Test
}

func (r *fakeCourseRepo) CreateSubject(_ context.Context, s *course.Subject) error {
	for _, existing := range r.subjects {
		if existing.Code == s.Code {
			return shared.ErrDuplicateCode
		}
	}
	r.subjects[s.ID] = s
	return nil
}

func (r *fakeCourseRepo) FindSubjectByID(_ context.Context, id string) (*course.Subject, error) {
	if s, ok := r.subjects[id]; ok {
		return s, nil
	}
	return nil, shared.ErrSubjectNotFound
}

func (r *fakeCourseRepo) FindAllSubjects(_ context.Context) ([]*course.Subject, error) {
	all := make([]*course.Subject, 0, len(r.subjects))
	for _, s := range r.subjects {
		all = append(all, s)
	}
	return all, nil
}

func (r *fakeCourseRepo) FindTestByID(_ context.Context, id string) (*course.Test, error) {
	if test, ok := r.tests[id]; ok {
		return test, nil
	}
	return nil, shared.ErrTestNotFound
}

func (r *fakeCourseRepo) FindLessonByID(_ context.Context, id string) (*course.Lesson, error) {
	return nil, shared.ErrLessonNotFound
}

type fakeCache struct {
	invalidated []string
}

func (c *fakeCache) GetAll(_ context.Context) ([]*leaderboard.Leaderboard, error) {
	return nil, shared.ErrNotFound
}

func (c *fakeCache) SetAll(_ context.Context, _ []*leaderboard.Leaderboard) error { return nil }

func (c *fakeCache) GetByTest(_ context.Context, _ string) (*leaderboard.Leaderboard, error) {
	return nil, shared.ErrNotFound
}

func (c *fakeCache) SetByTest(_ context.Context, _ *leaderboard.Leaderboard) error { return nil }

func (c *fakeCache) Invalidate(_ context.Context, testID string) error {
	c.invalidated = append(c.invalidated, testID)
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT SCORE
// ══════════════════════════════════════════════════════════════════════════════

func fastRetrier(maxAttempts int) *retry.Retrier {
	return retry.New(
		retry.WithMaxAttempts(maxAttempts),
		retry.WithInitialDelay(time.Millisecond),
		retry.WithMaxDelay(2*time.Millisecond),
	)
}

func fixtureUsers(t *testing.T, ids ...string) *fakeUserRepo {
	t.Helper()
	repo := &fakeUserRepo{users: make(map[string]*user.User)}
	for _, id := range ids {
		u, err := user.New(id, "User "+id, id+"@khadeira.io", "password-123", time.Now())
		require.NoError(t, err)
		repo.users[id] = u
	}
	return repo
}

func fixtureCourses(testIDs ...string) *fakeCourseRepo {
	repo := &fakeCourseRepo{
		subjects: make(map[string]*course.Subject),
		tests:    make(map[string]*course.Test),
	}
	for _, id := range testIDs {
		repo.tests[id] = &course.Test{ID: id, Name: "Test " + id, LessonID: "lesson-1"}
	}
	return repo
}

func submitCmd(userID string, score int) SubmitScoreCommand {
	return SubmitScoreCommand{
		UserID:    userID,
		TestID:    "test-1",
		SubjectID: "subject-1",
		LessonID:  "lesson-1",
		Score:     score,
	}
}

func TestSubmitScoreHandler_FirstSubmission(t *testing.T) {
	boards := newFakeBoardRepo()
	cache := &fakeCache{}
	handler := NewSubmitScoreHandler(
		boards, fixtureUsers(t, "user-a"), fixtureCourses("test-1"), cache, fastRetrier(3),
	)

	result, err := handler.Handle(context.Background(), submitCmd("user-a", 85))
	require.NoError(t, err)

	assert.Equal(t, leaderboard.OutcomeCreated, result.Outcome)
	assert.Equal(t, leaderboard.Rank(1), result.Rank)
	assert.Equal(t, leaderboard.Score(85), result.BestScore)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, []string{"test-1"}, cache.invalidated)

	stored, err := boards.FindByScope(context.Background(), "test-1", "subject-1", "lesson-1")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Size())
	assert.Equal(t, int64(1), stored.Version)
}

func TestSubmitScoreHandler_StampsServerTime(t *testing.T) {
	boards := newFakeBoardRepo()
	handler := NewSubmitScoreHandler(
		boards, fixtureUsers(t, "user-a"), fixtureCourses("test-1"), nil, fastRetrier(3),
	)

	before := time.Now().UTC()
	result, err := handler.Handle(context.Background(), submitCmd("user-a", 85))
	require.NoError(t, err)
	after := time.Now().UTC()

	// The accepted time comes from the server clock, not the caller, so
	// tie-breaks cannot be gamed with a backdated submission.
	entry := result.Board.EntryFor("user-a")
	require.NotNil(t, entry)
	assert.False(t, entry.SubmittedAt.Before(before))
	assert.False(t, entry.SubmittedAt.After(after))
	assert.Equal(t, time.UTC, entry.SubmittedAt.Location())
}

func TestSubmitScoreHandler_Validation(t *testing.T) {
	handler := NewSubmitScoreHandler(
		newFakeBoardRepo(), fixtureUsers(t), fixtureCourses(), nil, fastRetrier(3),
	)

	_, err := handler.Handle(context.Background(), SubmitScoreCommand{})
	assert.True(t, shared.IsValidation(err))

	cmd := submitCmd("user-a", -1)
	_, err = handler.Handle(context.Background(), cmd)
	assert.True(t, shared.IsValidation(err))
}

func TestSubmitScoreHandler_UnknownUser(t *testing.T) {
	handler := NewSubmitScoreHandler(
		newFakeBoardRepo(), fixtureUsers(t), fixtureCourses("test-1"), nil, fastRetrier(3),
	)

	_, err := handler.Handle(context.Background(), submitCmd("ghost", 50))
	assert.True(t, shared.IsNotFound(err))
}

func TestSubmitScoreHandler_UnknownTest(t *testing.T) {
	handler := NewSubmitScoreHandler(
		newFakeBoardRepo(), fixtureUsers(t, "user-a"), fixtureCourses(), nil, fastRetrier(3),
	)

	_, err := handler.Handle(context.Background(), submitCmd("user-a", 50))
	assert.True(t, shared.IsNotFound(err))
}

func TestSubmitScoreHandler_LowerScoreIsNoOp(t *testing.T) {
	boards := newFakeBoardRepo()
	cache := &fakeCache{}
	handler := NewSubmitScoreHandler(
		boards, fixtureUsers(t, "user-a"), fixtureCourses("test-1"), cache, fastRetrier(3),
	)

	_, err := handler.Handle(context.Background(), submitCmd("user-a", 90))
	require.NoError(t, err)
	savesAfterFirst := boards.saveCalls
	cache.invalidated = nil

	result, err := handler.Handle(context.Background(), submitCmd("user-a", 70))
	require.NoError(t, err)

	assert.Equal(t, leaderboard.OutcomeNoChange, result.Outcome)
	assert.Equal(t, leaderboard.Score(90), result.BestScore)
	// No-op submissions neither persist nor touch the cache.
	assert.Equal(t, savesAfterFirst, boards.saveCalls)
	assert.Empty(t, cache.invalidated)
}

func TestSubmitScoreHandler_RetriesOnConflict(t *testing.T) {
	boards := newFakeBoardRepo()
	boards.conflictsLeft = 2
	handler := NewSubmitScoreHandler(
		boards, fixtureUsers(t, "user-a"), fixtureCourses("test-1"), &fakeCache{}, fastRetrier(4),
	)

	result, err := handler.Handle(context.Background(), submitCmd("user-a", 85))
	require.NoError(t, err)

	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, leaderboard.Rank(1), result.Rank)
}

func TestSubmitScoreHandler_ConflictExhausted(t *testing.T) {
	boards := newFakeBoardRepo()
	boards.conflictsLeft = -1
	handler := NewSubmitScoreHandler(
		boards, fixtureUsers(t, "user-a"), fixtureCourses("test-1"), &fakeCache{}, fastRetrier(3),
	)

	_, err := handler.Handle(context.Background(), submitCmd("user-a", 85))
	require.Error(t, err)

	assert.ErrorIs(t, err, shared.ErrRetryExhausted)
	assert.Equal(t, 3, boards.saveCalls)
}

func TestSubmitScoreHandler_ConcurrentSubmissions(t *testing.T) {
	boards := newFakeBoardRepo()
	handler := NewSubmitScoreHandler(
		boards,
		fixtureUsers(t, "user-a", "user-b", "user-c"),
		fixtureCourses("test-1"),
		&fakeCache{},
		fastRetrier(10),
	)

	scores := map[string]int{"user-a": 70, "user-b": 90, "user-c": 80}

	var wg sync.WaitGroup
	errs := make(chan error, len(scores))
	for userID, score := range scores {
		wg.Add(1)
		go func(userID string, score int) {
			defer wg.Done()
			_, err := handler.Handle(context.Background(), submitCmd(userID, score))
			errs <- err
		}(userID, score)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	board, err := boards.FindByScope(context.Background(), "test-1", "subject-1", "lesson-1")
	require.NoError(t, err)

	require.Equal(t, 3, board.Size())
	assert.Equal(t, "user-b", board.Rankings[0].UserID)
	assert.Equal(t, leaderboard.Score(90), board.BestScore)
	for i, entry := range board.Rankings {
		assert.Equal(t, leaderboard.Rank(i+1), entry.Rank)
	}
}
