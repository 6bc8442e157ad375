package quiz

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

type fakeContent struct {
	questions map[int64]Question
	err       error
	calls     int
}

func (f *fakeContent) QuestionsByIDs(_ context.Context, ids []int64) ([]Question, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var out []Question
	for _, id := range ids {
		if q, ok := f.questions[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

func contentWith(keys map[int64]string) *fakeContent {
	qs := map[int64]Question{}
	for id, key := range keys {
		qs[id] = Question{ID: id, CorrectOption: key}
	}
	return &fakeContent{questions: qs}
}

func TestScoreAllCorrectCaseInsensitive(t *testing.T) {
	keys := map[int64]string{}
	answers := map[string]string{}
	ids := make([]int64, 0, 20)
	for i := 0; i < 20; i++ {
		id := int64(i + 1)
		ids = append(ids, id)
		keys[id] = "b"
		answers[fmt.Sprintf("%d", i)] = "B" // user answers upper-case
	}
	engine := NewEngine(contentWith(keys))

	res, err := engine.Score(context.Background(), ids, answers)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Score != 20 {
		t.Fatalf("score = %d; want 20", res.Score)
	}
	if len(res.IncorrectIDs) != 0 {
		t.Fatalf("incorrectIDs = %v; want empty", res.IncorrectIDs)
	}
}

func TestScoreUnansweredCountsIncorrect(t *testing.T) {
	engine := NewEngine(contentWith(map[int64]string{5: "a", 9: "b", 12: "c"}))

	res, err := engine.Score(context.Background(),
		[]int64{5, 9, 12},
		map[string]string{"0": "a", "2": "c"}) // index 1 unanswered
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Score != 2 {
		t.Fatalf("score = %d; want 2", res.Score)
	}
	if len(res.IncorrectIDs) != 1 || res.IncorrectIDs[0] != 9 {
		t.Fatalf("incorrectIDs = %v; want [9]", res.IncorrectIDs)
	}
}

func TestScorePartitionCoversAllQuestions(t *testing.T) {
	// Question 7 has no content row: it must land in the incorrect set, not vanish.
	engine := NewEngine(contentWith(map[int64]string{1: "a", 2: "b"}))

	ids := []int64{1, 7, 2}
	res, err := engine.Score(context.Background(), ids, map[string]string{"0": "a", "1": "a", "2": "d"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	seen := map[int64]int{}
	for _, id := range res.CorrectIDs {
		seen[id]++
	}
	for _, id := range res.IncorrectIDs {
		seen[id]++
	}
	for _, id := range ids {
		if seen[id] != 1 {
			t.Fatalf("question %d appears %d times across the partition; want exactly once", id, seen[id])
		}
	}
	if res.Score != 1 {
		t.Fatalf("score = %d; want 1", res.Score)
	}
}

func TestScoreRejectsEmptySubmission(t *testing.T) {
	engine := NewEngine(contentWith(nil))

	if _, err := engine.Score(context.Background(), nil, map[string]string{"0": "a"}); !errors.Is(err, ErrEmptySubmission) {
		t.Fatalf("expected ErrEmptySubmission for empty ids, got %v", err)
	}
	if _, err := engine.Score(context.Background(), []int64{1}, nil); !errors.Is(err, ErrEmptySubmission) {
		t.Fatalf("expected ErrEmptySubmission for nil answers, got %v", err)
	}
}

func TestScoreFetchFailureIsFatal(t *testing.T) {
	content := &fakeContent{err: errors.New("content store down")}
	engine := NewEngine(content)

	_, err := engine.Score(context.Background(), []int64{1, 2}, map[string]string{"0": "a"})
	if err == nil {
		t.Fatalf("expected error when content fetch fails")
	}
	if errors.Is(err, ErrEmptySubmission) {
		t.Fatalf("fetch failure must not look like a validation error: %v", err)
	}
}

func TestScoreBatchesLookup(t *testing.T) {
	content := contentWith(map[int64]string{1: "a", 2: "b", 3: "c"})
	engine := NewEngine(content)

	if _, err := engine.Score(context.Background(), []int64{1, 2, 3}, map[string]string{"0": "a"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if content.calls != 1 {
		t.Fatalf("content store called %d times; want 1 batched lookup", content.calls)
	}
}
