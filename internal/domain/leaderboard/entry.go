// Package leaderboard содержит доменную модель лидерборда Khadeira.
// Лидерборд ведётся отдельно для каждой тройки (тест, предмет, урок):
// записи участников полностью упорядочены, ранги плотные и пересчитываются
// при каждой мутации, best_score денормализован из верхней записи.
package leaderboard

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Rank представляет позицию участника в лидерборде.
// Rank начинается с 1 (первое место) и всегда производный - его нельзя
// выставить извне, только пересчитать.
type Rank int

// IsValid проверяет, что ранг положительный.
func (r Rank) IsValid() bool {
	return r > 0
}

// String возвращает строковое представление ранга.
func (r Rank) String() string {
	return fmt.Sprintf("#%d", r)
}

// Score представляет балл за тест.
type Score int

// IsValid проверяет, что балл неотрицательный.
func (s Score) IsValid() bool {
	return s >= 0
}

// ══════════════════════════════════════════════════════════════════════════════
// RANKING ENTRY
// ══════════════════════════════════════════════════════════════════════════════

// RankingEntry представляет одну запись лидерборда: лучший принятый балл
// пользователя и момент его сабмита. UserID уникален в пределах лидерборда.
type RankingEntry struct {
	// UserID - идентификатор пользователя.
	UserID string

	// Score - лучший принятый балл. Монотонно неубывающий: сабмит с баллом,
	// не превышающим сохранённый строго, состояние не меняет.
	Score Score

	// SubmittedAt - время принятого сабмита (UTC).
	SubmittedAt time.Time

	// Rank - текущая позиция. Производное поле, см. RankEntries.
	Rank Rank

	// UserName и UserEmail - display-поля, заполняются хранилищем при чтении.
	UserName  string
	UserEmail string
}

// NewRankingEntry создаёт новую запись с валидацией.
func NewRankingEntry(userID string, score Score, submittedAt time.Time) (*RankingEntry, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidUserID
	}
	if !score.IsValid() {
		return nil, ErrInvalidScore
	}

	return &RankingEntry{
		UserID:      userID,
		Score:       score,
		SubmittedAt: submittedAt.UTC(),
	}, nil
}

// Clone создаёт копию записи.
func (e *RankingEntry) Clone() *RankingEntry {
	if e == nil {
		return nil
	}
	clone := *e
	return &clone
}

// String возвращает строковое представление для логирования.
func (e *RankingEntry) String() string {
	return fmt.Sprintf(
		"Entry{Rank: %d, UserID: %s, Score: %d, At: %s}",
		e.Rank, e.UserID, e.Score, e.SubmittedAt.Format(time.RFC3339),
	)
}

// ══════════════════════════════════════════════════════════════════════════════
// RANK ENGINE
// ══════════════════════════════════════════════════════════════════════════════

// RankEntries сортирует записи и присваивает плотные ранги 1..N.
//
// Порядок сортировки полный и детерминированный:
//  1. Score по убыванию;
//  2. при равных баллах - SubmittedAt по возрастанию (ранний сабмит выше);
//  3. при полном совпадении - UserID по возрастанию, чтобы результат
//     не зависел от порядка на входе.
//
// Ранги строго последовательные: равные баллы НЕ делят ранг
// (схема "1,2,3", а не соревновательная "1,1,3").
func RankEntries(entries []RankingEntry) []RankingEntry {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		if !entries[i].SubmittedAt.Equal(entries[j].SubmittedAt) {
			return entries[i].SubmittedAt.Before(entries[j].SubmittedAt)
		}
		return entries[i].UserID < entries[j].UserID
	})

	for i := range entries {
		entries[i].Rank = Rank(i + 1)
	}

	return entries
}

// TopScore возвращает балл верхней записи или 0 для пустого списка.
// Записи должны быть уже отранжированы.
func TopScore(entries []RankingEntry) Score {
	if len(entries) == 0 {
		return 0
	}
	return entries[0].Score
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidUserID - невалидный ID пользователя.
	ErrInvalidUserID = errors.New("invalid user id: cannot be empty")

	// ErrInvalidScore - невалидный балл.
	ErrInvalidScore = errors.New("invalid score: must be non-negative")

	// ErrInvalidScopeID - пустой идентификатор в тройке (тест/предмет/урок).
	ErrInvalidScopeID = errors.New("invalid scope id: cannot be empty")

	// ErrDuplicateUser - пользователь уже есть в лидерборде.
	ErrDuplicateUser = errors.New("user already exists in rankings")
)
