package quiz

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrEmptySubmission marks a submission that references no questions or
// carries no answer map at all.
var ErrEmptySubmission = errors.New("submission must reference at least one question")

// Engine scores finished attempts against authoritative answer keys.
type Engine struct {
	content ContentStore
}

func NewEngine(content ContentStore) *Engine { return &Engine{content: content} }

// Score fetches the correct options for every submitted question in one
// batched lookup and counts case-insensitive matches by position: answer
// key "i" in userAnswers belongs to questionIDs[i]. Unanswered positions and
// questions missing from the content store count as incorrect, so the
// correct/incorrect partition always covers every submitted ID.
func (e *Engine) Score(ctx context.Context, questionIDs []int64, userAnswers map[string]string) (ScoreResult, error) {
	if len(questionIDs) == 0 || userAnswers == nil {
		return ScoreResult{}, ErrEmptySubmission
	}

	questions, err := e.content.QuestionsByIDs(ctx, questionIDs)
	if err != nil {
		return ScoreResult{}, fmt.Errorf("fetch answer keys: %w", err)
	}
	keyByID := make(map[int64]string, len(questions))
	for _, q := range questions {
		keyByID[q.ID] = strings.TrimSpace(q.CorrectOption)
	}

	res := ScoreResult{
		CorrectIDs:   make([]int64, 0, len(questionIDs)),
		IncorrectIDs: make([]int64, 0, len(questionIDs)),
	}
	for i, qid := range questionIDs {
		key, known := keyByID[qid]
		ans, answered := userAnswers[strconv.Itoa(i)]
		if known && answered && strings.EqualFold(strings.TrimSpace(ans), key) {
			res.CorrectIDs = append(res.CorrectIDs, qid)
			continue
		}
		res.IncorrectIDs = append(res.IncorrectIDs, qid)
	}
	res.Score = len(res.CorrectIDs)
	return res, nil
}
