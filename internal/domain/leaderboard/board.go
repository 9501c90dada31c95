package leaderboard

import (
	"fmt"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// AGGREGATE ROOT
// ══════════════════════════════════════════════════════════════════════════════

// Leaderboard представляет документ лидерборда одной тройки
// (тест, предмет, урок). Агрегат владеет всеми записями и сам отвечает
// за их упорядочение: после любой мутации Rankings отсортированы,
// ранги плотные, BestScore равен баллу верхней записи.
//
// Version используется оптимистичной блокировкой: хранилище сохраняет
// документ только при совпадении версии и инкрементирует её.
type Leaderboard struct {
	// ID - уникальный идентификатор документа.
	ID string

	// TestID, SubjectID, LessonID - тройка, к которой привязан лидерборд.
	// Уникальна: на тройку существует максимум один документ.
	TestID    string
	SubjectID string
	LessonID  string

	// Rankings - записи участников, отсортированные по рангу.
	Rankings []RankingEntry

	// BestScore - денормализованный лучший балл (Rankings[0].Score или 0).
	BestScore Score

	// Version - версия документа для оптимистичной блокировки.
	Version int64

	// CreatedAt и UpdatedAt - временные метки.
	CreatedAt time.Time
	UpdatedAt time.Time

	// TestName, SubjectTitle, LessonName - display-поля,
	// заполняются хранилищем при чтении.
	TestName     string
	SubjectTitle string
	LessonName   string
}

// New создаёт пустой лидерборд для тройки.
func New(id, testID, subjectID, lessonID string, now time.Time) (*Leaderboard, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidScopeID
	}
	for _, scopeID := range []string{testID, subjectID, lessonID} {
		if strings.TrimSpace(scopeID) == "" {
			return nil, ErrInvalidScopeID
		}
	}

	now = now.UTC()

	return &Leaderboard{
		ID:        id,
		TestID:    testID,
		SubjectID: subjectID,
		LessonID:  lessonID,
		Rankings:  []RankingEntry{},
		BestScore: 0,
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT
// ══════════════════════════════════════════════════════════════════════════════

// SubmitOutcome описывает, что сделал сабмит с документом.
type SubmitOutcome int

const (
	// OutcomeNoChange - балл не превысил сохранённый, состояние не менялось.
	OutcomeNoChange SubmitOutcome = iota

	// OutcomeCreated - в лидерборд добавлена новая запись участника.
	OutcomeCreated

	// OutcomeImproved - существующая запись обновлена лучшим баллом.
	OutcomeImproved
)

// String возвращает строковое представление результата.
func (o SubmitOutcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeImproved:
		return "improved"
	default:
		return "no_change"
	}
}

// Changed сообщает, изменила ли мутация состояние документа.
func (o SubmitOutcome) Changed() bool {
	return o != OutcomeNoChange
}

// Submit применяет сабмит балла к лидерборду.
//
// Правила:
//   - новый участник добавляется с переданным баллом;
//   - для существующего участника балл обновляется только если новый
//     СТРОГО больше сохранённого, иначе сабмит игнорируется (no-op);
//   - после любого изменения пересчитываются ранги и BestScore.
//
// Операция идемпотентна: повторный сабмит того же балла - no-op.
func (b *Leaderboard) Submit(userID string, score Score, now time.Time) (SubmitOutcome, error) {
	if strings.TrimSpace(userID) == "" {
		return OutcomeNoChange, ErrInvalidUserID
	}
	if !score.IsValid() {
		return OutcomeNoChange, ErrInvalidScore
	}

	now = now.UTC()
	outcome := OutcomeNoChange

	if existing := b.entryIndex(userID); existing >= 0 {
		if score > b.Rankings[existing].Score {
			b.Rankings[existing].Score = score
			b.Rankings[existing].SubmittedAt = now
			outcome = OutcomeImproved
		}
	} else {
		entry, err := NewRankingEntry(userID, score, now)
		if err != nil {
			return OutcomeNoChange, err
		}
		b.Rankings = append(b.Rankings, *entry)
		outcome = OutcomeCreated
	}

	if outcome.Changed() {
		b.rerank(now)
	}

	return outcome, nil
}

// rerank пересчитывает ранги, BestScore и UpdatedAt.
func (b *Leaderboard) rerank(now time.Time) {
	b.Rankings = RankEntries(b.Rankings)
	b.BestScore = TopScore(b.Rankings)
	b.UpdatedAt = now
}

// ══════════════════════════════════════════════════════════════════════════════
// QUERIES
// ══════════════════════════════════════════════════════════════════════════════

// EntryFor возвращает запись пользователя или nil.
func (b *Leaderboard) EntryFor(userID string) *RankingEntry {
	if i := b.entryIndex(userID); i >= 0 {
		return &b.Rankings[i]
	}
	return nil
}

// entryIndex возвращает индекс записи пользователя или -1.
func (b *Leaderboard) entryIndex(userID string) int {
	for i := range b.Rankings {
		if b.Rankings[i].UserID == userID {
			return i
		}
	}
	return -1
}

// IsEmpty сообщает, есть ли в лидерборде записи.
func (b *Leaderboard) IsEmpty() bool {
	return len(b.Rankings) == 0
}

// Size возвращает количество участников.
func (b *Leaderboard) Size() int {
	return len(b.Rankings)
}

// Scope возвращает тройку в виде строки для логирования и ключей кеша.
func (b *Leaderboard) Scope() string {
	return fmt.Sprintf("%s:%s:%s", b.TestID, b.SubjectID, b.LessonID)
}
