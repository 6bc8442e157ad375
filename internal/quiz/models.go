package quiz

import (
	"context"
	"fmt"
)

// Mode selects which free-tier limit and which counter apply.
type Mode string

const (
	ModePractice Mode = "practice"
	ModeStandard Mode = "standard"
	ModeTimed    Mode = "timed"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModePractice, ModeStandard, ModeTimed:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown quiz mode %q", s)
}

// Question is reference content. The core reads it, never mutates it.
type Question struct {
	ID            int64  `json:"id"`
	QuestionText  string `json:"question_text"`
	OptionA       string `json:"option_a"`
	OptionB       string `json:"option_b"`
	OptionC       string `json:"option_c"`
	OptionD       string `json:"option_d"`
	CorrectOption string `json:"correct_option,omitempty"` // single letter; stripped when served to clients
	Category      string `json:"category,omitempty"`
}

// Submission is the transient wire payload of a finished quiz.
// UserAnswers is keyed by stringified positional index into QuestionIDs,
// not by question ID; index i refers to QuestionIDs[i].
type Submission struct {
	QuestionIDs  []int64           `json:"questionIds" validate:"required,min=1,dive,gt=0"`
	// An empty-but-present map is a valid submission (every position scores
	// incorrect); only a missing map is rejected, by the scoring engine.
	UserAnswers  map[string]string `json:"userAnswers"`
	TimeTaken    int               `json:"timeTaken" validate:"gte=0"`
	PracticeType string            `json:"practiceType"`
	QuizMode     string            `json:"quizMode" validate:"required,oneof=practice standard timed"`
}

// AttemptRecord is the persisted form of a finished attempt. Answers are
// re-keyed by question ID here so the row stays meaningful if the question
// order is ever lost.
type AttemptRecord struct {
	ID               string           `json:"id"`
	UserID           string           `json:"user_id"`
	QuestionIDs      []int64          `json:"question_ids"`
	UserAnswers      map[int64]string `json:"user_answers"`
	QuizType         string           `json:"quiz_type"`
	Score            int              `json:"score"`
	TotalQuestions   int              `json:"total_questions"`
	IsTimed          bool             `json:"is_timed"`
	IsPractice       bool             `json:"is_practice"`
	PracticeType     string           `json:"practice_type,omitempty"`
	TimeTakenSeconds int              `json:"time_taken_seconds"`
	CreatedAt        int64            `json:"created_at"`
}

// ScoreResult partitions a submission's question IDs. CorrectIDs and
// IncorrectIDs together always cover every submitted ID exactly once.
type ScoreResult struct {
	Score        int
	CorrectIDs   []int64
	IncorrectIDs []int64
}

// Identity is the resolved caller. A zero UserID means anonymous.
type Identity struct {
	UserID string
}

func (i Identity) Anonymous() bool { return i.UserID == "" }

// Decision is the entitlement gate's answer, computed fresh per check.
type Decision struct {
	CanAttempt bool   `json:"canAttempt"`
	IsLoggedIn bool   `json:"isLoggedIn"`
	Message    string `json:"message,omitempty"`
	Action     string `json:"action,omitempty"` // "signup" or "upgrade" when denied
	Limit      int    `json:"limit,omitempty"`
	Used       int    `json:"used,omitempty"`
}

// Collaborator interfaces. The SQL store implements the first four; the
// counter backend is a network service.

type ContentStore interface {
	QuestionsByIDs(ctx context.Context, ids []int64) ([]Question, error)
}

type AttemptStore interface {
	InsertAttempt(ctx context.Context, rec AttemptRecord) (string, error)
}

type LedgerStore interface {
	UpsertIncorrect(ctx context.Context, userID string, questionIDs []int64) error
	DeleteIncorrect(ctx context.Context, userID string, questionIDs []int64) error
}

type ProfileStore interface {
	// AccessLevel returns "" (not an error) when the user has no profile row.
	AccessLevel(ctx context.Context, userID string) (string, error)
}

type CounterBackend interface {
	AttemptCount(ctx context.Context, userID string, mode Mode) (int, error)
	IncrementAttemptCount(ctx context.Context, userID string, mode Mode) error
}

// EventLog receives best-effort audit events.
type EventLog interface {
	Append(ctx context.Context, typ, key, data string) error
}
