// Package postgres implements the PostgreSQL persistence layer for the
// Khadeira backend.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/shoiab2025/Khadeira-Backend/internal/domain/leaderboard"
	"github.com/shoiab2025/Khadeira-Backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardRepository implements leaderboard.Repository for PostgreSQL.
//
// A leaderboard document is one header row in "leaderboards" plus its rows
// in "leaderboard_entries". Save rewrites the whole document in a single
// transaction conditioned on the version the document was read at.
type LeaderboardRepository struct {
	conn *Connection
}

// NewLeaderboardRepository creates a new LeaderboardRepository.
func NewLeaderboardRepository(conn *Connection) *LeaderboardRepository {
	return &LeaderboardRepository{conn: conn}
}

const boardSelect = `
	SELECT l.id, l.test_id, l.subject_id, l.lesson_id,
	       l.best_score, l.version, l.created_at, l.updated_at,
	       t.name AS test_name, s.name AS subject_name, ls.name AS lesson_name
	FROM leaderboards l
	JOIN tests t ON t.id = l.test_id
	JOIN subjects s ON s.id = l.subject_id
	JOIN lessons ls ON ls.id = l.lesson_id
`

// ─────────────────────────────────────────────────────────────────────────────
// READS
// ─────────────────────────────────────────────────────────────────────────────

// FindByScope returns the document of one (test, subject, lesson) scope.
func (r *LeaderboardRepository) FindByScope(ctx context.Context, testID, subjectID, lessonID string) (*leaderboard.Leaderboard, error) {
	row := r.conn.QueryRow(ctx, boardSelect+`
		WHERE l.test_id = $1 AND l.subject_id = $2 AND l.lesson_id = $3
	`, testID, subjectID, lessonID)

	board, err := scanBoard(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrLeaderboardNotFound
		}
		return nil, shared.WrapError("leaderboard", "FindByScope", shared.ErrServiceUnavailable, "query failed", err)
	}

	if err := r.loadEntries(ctx, board); err != nil {
		return nil, err
	}

	return board, nil
}

// FindByTest returns the test's leaderboard, the oldest document when the
// test appears in several scopes.
func (r *LeaderboardRepository) FindByTest(ctx context.Context, testID string) (*leaderboard.Leaderboard, error) {
	row := r.conn.QueryRow(ctx, boardSelect+`
		WHERE l.test_id = $1
		ORDER BY l.created_at
		LIMIT 1
	`, testID)

	board, err := scanBoard(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrLeaderboardNotFound
		}
		return nil, shared.WrapError("leaderboard", "FindByTest", shared.ErrServiceUnavailable, "query failed", err)
	}

	if err := r.loadEntries(ctx, board); err != nil {
		return nil, err
	}

	return board, nil
}

// FindAll returns all documents ordered by creation time.
func (r *LeaderboardRepository) FindAll(ctx context.Context) ([]*leaderboard.Leaderboard, error) {
	rows, err := r.conn.Query(ctx, boardSelect+`ORDER BY l.created_at`)
	if err != nil {
		return nil, shared.WrapError("leaderboard", "FindAll", shared.ErrServiceUnavailable, "query failed", err)
	}
	defer rows.Close()

	var boards []*leaderboard.Leaderboard
	byID := make(map[string]*leaderboard.Leaderboard)
	for rows.Next() {
		board, err := scanBoard(rows)
		if err != nil {
			return nil, shared.WrapError("leaderboard", "FindAll", shared.ErrServiceUnavailable, "scan failed", err)
		}
		boards = append(boards, board)
		byID[board.ID] = board
	}
	if err := rows.Err(); err != nil {
		return nil, shared.WrapError("leaderboard", "FindAll", shared.ErrServiceUnavailable, "rows failed", err)
	}

	if len(boards) == 0 {
		return []*leaderboard.Leaderboard{}, nil
	}

	// Pull every document's entries in one pass to avoid N+1 queries.
	entryRows, err := r.conn.Query(ctx, `
		SELECT e.leaderboard_id, e.user_id, e.score, e.submitted_at, e.rank,
		       u.name, u.email
		FROM leaderboard_entries e
		JOIN users u ON u.id = e.user_id
		ORDER BY e.leaderboard_id, e.rank
	`)
	if err != nil {
		return nil, shared.WrapError("leaderboard", "FindAll", shared.ErrServiceUnavailable, "entries query failed", err)
	}
	defer entryRows.Close()

	for entryRows.Next() {
		var boardID string
		var entry leaderboard.RankingEntry
		var score, rank int
		if err := entryRows.Scan(
			&boardID, &entry.UserID, &score, &entry.SubmittedAt, &rank,
			&entry.UserName, &entry.UserEmail,
		); err != nil {
			return nil, shared.WrapError("leaderboard", "FindAll", shared.ErrServiceUnavailable, "entry scan failed", err)
		}
		entry.Score = leaderboard.Score(score)
		entry.Rank = leaderboard.Rank(rank)

		if board, ok := byID[boardID]; ok {
			board.Rankings = append(board.Rankings, entry)
		}
	}
	if err := entryRows.Err(); err != nil {
		return nil, shared.WrapError("leaderboard", "FindAll", shared.ErrServiceUnavailable, "entry rows failed", err)
	}

	return boards, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// WRITES
// ─────────────────────────────────────────────────────────────────────────────

// Create inserts an empty document for the scope.
func (r *LeaderboardRepository) Create(ctx context.Context, board *leaderboard.Leaderboard) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO leaderboards (id, test_id, subject_id, lesson_id, best_score, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		board.ID,
		board.TestID,
		board.SubjectID,
		board.LessonID,
		int(board.BestScore),
		board.Version,
		board.CreatedAt,
		board.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return shared.WrapError("leaderboard", "Create", shared.ErrServiceUnavailable, "insert failed", err)
	}

	return nil
}

// Save rewrites the whole document if its version is unchanged, then bumps
// the version. A zero-row update means another writer got there first.
func (r *LeaderboardRepository) Save(ctx context.Context, board *leaderboard.Leaderboard) error {
	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE leaderboards
			SET best_score = $1, version = version + 1, updated_at = $2
			WHERE id = $3 AND version = $4
		`,
			int(board.BestScore),
			board.UpdatedAt,
			board.ID,
			board.Version,
		)
		if err != nil {
			return fmt.Errorf("failed to update header: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrUpdateConflict
		}

		if _, err := tx.Exec(ctx, `
			DELETE FROM leaderboard_entries WHERE leaderboard_id = $1
		`, board.ID); err != nil {
			return fmt.Errorf("failed to clear entries: %w", err)
		}

		if len(board.Rankings) > 0 {
			batch := &pgx.Batch{}
			for _, entry := range board.Rankings {
				batch.Queue(`
					INSERT INTO leaderboard_entries (leaderboard_id, user_id, score, submitted_at, rank)
					VALUES ($1, $2, $3, $4, $5)
				`,
					board.ID,
					entry.UserID,
					int(entry.Score),
					entry.SubmittedAt,
					int(entry.Rank),
				)
			}

			br := tx.SendBatch(ctx, batch)
			defer br.Close()

			for range board.Rankings {
				if _, err := br.Exec(); err != nil {
					return fmt.Errorf("failed to insert entry: %w", err)
				}
			}
		}

		return nil
	})
	if err != nil {
		if shared.IsConflict(err) {
			return shared.ErrUpdateConflict
		}
		return shared.WrapError("leaderboard", "Save", shared.ErrServiceUnavailable, "transaction failed", err)
	}

	board.Version++
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// SCAN HELPERS
// ─────────────────────────────────────────────────────────────────────────────

func scanBoard(row pgx.Row) (*leaderboard.Leaderboard, error) {
	var board leaderboard.Leaderboard
	var bestScore int

	err := row.Scan(
		&board.ID,
		&board.TestID,
		&board.SubjectID,
		&board.LessonID,
		&bestScore,
		&board.Version,
		&board.CreatedAt,
		&board.UpdatedAt,
		&board.TestName,
		&board.SubjectTitle,
		&board.LessonName,
	)
	if err != nil {
		return nil, err
	}

	board.BestScore = leaderboard.Score(bestScore)
	board.Rankings = []leaderboard.RankingEntry{}
	return &board, nil
}

func (r *LeaderboardRepository) loadEntries(ctx context.Context, board *leaderboard.Leaderboard) error {
	rows, err := r.conn.Query(ctx, `
		SELECT e.user_id, e.score, e.submitted_at, e.rank, u.name, u.email
		FROM leaderboard_entries e
		JOIN users u ON u.id = e.user_id
		WHERE e.leaderboard_id = $1
		ORDER BY e.rank
	`, board.ID)
	if err != nil {
		return shared.WrapError("leaderboard", "LoadEntries", shared.ErrServiceUnavailable, "query failed", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entry leaderboard.RankingEntry
		var score, rank int
		if err := rows.Scan(
			&entry.UserID, &score, &entry.SubmittedAt, &rank,
			&entry.UserName, &entry.UserEmail,
		); err != nil {
			return shared.WrapError("leaderboard", "LoadEntries", shared.ErrServiceUnavailable, "scan failed", err)
		}
		entry.Score = leaderboard.Score(score)
		entry.Rank = leaderboard.Rank(rank)
		board.Rankings = append(board.Rankings, entry)
	}

	return rows.Err()
}
