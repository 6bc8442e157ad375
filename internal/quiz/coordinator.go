package quiz

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"
)

// PersistResult is what the coordinator hands back to the API boundary.
// Ephemeral results carry only a score (anonymous callers); persisted
// results carry the attempt row's ID.
type PersistResult struct {
	AttemptID string
	Ephemeral bool
	Score     int
}

// Coordinator records finished attempts for authenticated users and keeps the
// incorrect-question ledger consistent. The steps form a best-effort saga:
// the attempt insert is the only fatal step, everything after it is advisory
// and merely logged on failure. The backing store offers no multi-table
// transaction across these writes, and losing a ledger or counter update
// only degrades secondary features.
type Coordinator struct {
	attempts AttemptStore
	ledger   LedgerStore
	counters CounterBackend
	events   EventLog
	now      func() time.Time
}

func NewCoordinator(attempts AttemptStore, ledger LedgerStore, counters CounterBackend, events EventLog) *Coordinator {
	return &Coordinator{
		attempts: attempts,
		ledger:   ledger,
		counters: counters,
		events:   events,
		now:      time.Now,
	}
}

// PersistAttempt runs the post-scoring persistence sequence. For anonymous
// identities it touches no store at all and returns an ephemeral result; the
// HTTP layer bumps the device-local counter. For authenticated identities the
// order is: attempt insert (fatal), ledger upsert of missed questions,
// ledger clear of corrected mistake-practice questions, counter increment,
// event append — strictly in that order, since the later steps only make
// sense once the attempt row exists.
func (c *Coordinator) PersistAttempt(ctx context.Context, id Identity, sub Submission, res ScoreResult, mode Mode) (PersistResult, error) {
	if id.Anonymous() {
		return PersistResult{Ephemeral: true, Score: res.Score}, nil
	}

	rec := AttemptRecord{
		UserID:           id.UserID,
		QuestionIDs:      sub.QuestionIDs,
		UserAnswers:      rekeyAnswers(sub.QuestionIDs, sub.UserAnswers),
		QuizType:         QuizTypeLabel(mode, sub.PracticeType),
		Score:            res.Score,
		TotalQuestions:   len(sub.QuestionIDs),
		IsTimed:          mode == ModeTimed,
		IsPractice:       mode == ModePractice,
		PracticeType:     NormalizePracticeCategory(sub.PracticeType),
		TimeTakenSeconds: sub.TimeTaken,
		CreatedAt:        c.now().Unix(),
	}
	attemptID, err := c.attempts.InsertAttempt(ctx, rec)
	if err != nil {
		return PersistResult{Score: res.Score}, fmt.Errorf("insert attempt: %w", err)
	}

	if len(res.IncorrectIDs) > 0 {
		if err := c.ledger.UpsertIncorrect(ctx, id.UserID, res.IncorrectIDs); err != nil {
			log.Printf("attempt %s: incorrect-question ledger upsert failed: %v", attemptID, err)
		}
	}

	if mode == ModePractice && IsMistakePractice(sub.PracticeType) && len(res.CorrectIDs) > 0 {
		if err := c.ledger.DeleteIncorrect(ctx, id.UserID, res.CorrectIDs); err != nil {
			log.Printf("attempt %s: incorrect-question ledger clear failed: %v", attemptID, err)
		}
	}

	if err := c.counters.IncrementAttemptCount(ctx, id.UserID, mode); err != nil {
		log.Printf("attempt %s: counter increment failed: %v", attemptID, err)
	}

	if c.events != nil {
		data, _ := json.Marshal(map[string]any{
			"attempt_id": attemptID,
			"user_id":    id.UserID,
			"quiz_type":  rec.QuizType,
			"score":      res.Score,
			"total":      rec.TotalQuestions,
		})
		if err := c.events.Append(ctx, "AttemptSubmitted", attemptID, string(data)); err != nil {
			log.Printf("attempt %s: event log append failed: %v", attemptID, err)
		}
	}

	return PersistResult{AttemptID: attemptID, Score: res.Score}, nil
}

// rekeyAnswers converts the transient index-keyed answer map into the
// durable question-ID-keyed form stored on the attempt row.
func rekeyAnswers(questionIDs []int64, userAnswers map[string]string) map[int64]string {
	out := make(map[int64]string, len(userAnswers))
	for i, qid := range questionIDs {
		if ans, ok := userAnswers[strconv.Itoa(i)]; ok {
			out[qid] = ans
		}
	}
	return out
}
