package quiz

import (
	"context"
	"errors"
	"testing"
)

type fakeAttempts struct {
	inserted []AttemptRecord
	err      error
}

func (f *fakeAttempts) InsertAttempt(_ context.Context, rec AttemptRecord) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	rec.ID = "attempt-1"
	f.inserted = append(f.inserted, rec)
	return rec.ID, nil
}

type fakeLedger struct {
	upserts   map[int64]int
	deletes   map[int64]int
	upsertErr error
	deleteErr error
	calls     int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{upserts: map[int64]int{}, deletes: map[int64]int{}}
}

func (f *fakeLedger) UpsertIncorrect(_ context.Context, _ string, ids []int64) error {
	f.calls++
	if f.upsertErr != nil {
		return f.upsertErr
	}
	for _, id := range ids {
		f.upserts[id]++
	}
	return nil
}

func (f *fakeLedger) DeleteIncorrect(_ context.Context, _ string, ids []int64) error {
	f.calls++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for _, id := range ids {
		f.deletes[id]++
	}
	return nil
}

type fakeEvents struct{ appended []string }

func (f *fakeEvents) Append(_ context.Context, typ, key, _ string) error {
	f.appended = append(f.appended, typ+"|"+key)
	return nil
}

func submission(mode Mode, practiceType string, ids []int64, answers map[string]string) Submission {
	return Submission{
		QuestionIDs:  ids,
		UserAnswers:  answers,
		QuizMode:     string(mode),
		PracticeType: practiceType,
		TimeTaken:    90,
	}
}

func TestPersistAnonymousTouchesNoStores(t *testing.T) {
	attempts := &fakeAttempts{}
	ledger := newFakeLedger()
	counter := &fakeCounter{}
	c := NewCoordinator(attempts, ledger, counter, &fakeEvents{})

	res, err := c.PersistAttempt(context.Background(), Identity{},
		submission(ModeStandard, "", []int64{1, 2}, map[string]string{"0": "a"}),
		ScoreResult{Score: 1, CorrectIDs: []int64{1}, IncorrectIDs: []int64{2}},
		ModeStandard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Ephemeral {
		t.Fatalf("anonymous result must be ephemeral")
	}
	if res.Score != 1 {
		t.Fatalf("score = %d; want 1", res.Score)
	}
	if len(attempts.inserted) != 0 || ledger.calls != 0 || len(counter.increments) != 0 {
		t.Fatalf("anonymous persistence must not call attempt/ledger/counter stores")
	}
}

func TestPersistAuthenticatedHappyPath(t *testing.T) {
	attempts := &fakeAttempts{}
	ledger := newFakeLedger()
	counter := &fakeCounter{}
	events := &fakeEvents{}
	c := NewCoordinator(attempts, ledger, counter, events)

	res, err := c.PersistAttempt(context.Background(), Identity{UserID: "u1"},
		submission(ModeStandard, "", []int64{5, 9, 12}, map[string]string{"0": "a", "2": "c"}),
		ScoreResult{Score: 2, CorrectIDs: []int64{5, 12}, IncorrectIDs: []int64{9}},
		ModeStandard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Ephemeral || res.AttemptID == "" {
		t.Fatalf("expected a persisted attempt ID, got %+v", res)
	}

	if len(attempts.inserted) != 1 {
		t.Fatalf("expected 1 attempt insert, got %d", len(attempts.inserted))
	}
	rec := attempts.inserted[0]
	if rec.QuizType != "standard" || rec.TotalQuestions != 3 || rec.Score != 2 {
		t.Fatalf("unexpected record: %+v", rec)
	}
	// Answers are re-keyed by question ID for durability.
	if rec.UserAnswers[5] != "a" || rec.UserAnswers[12] != "c" {
		t.Fatalf("answers not re-keyed by question ID: %v", rec.UserAnswers)
	}
	if _, ok := rec.UserAnswers[9]; ok {
		t.Fatalf("unanswered question must not appear in stored answers")
	}

	if ledger.upserts[9] != 1 {
		t.Fatalf("missed question 9 not recorded in ledger: %v", ledger.upserts)
	}
	if len(ledger.deletes) != 0 {
		t.Fatalf("non-mistake-practice run must not clear ledger rows")
	}
	if len(counter.increments) != 1 {
		t.Fatalf("expected 1 counter increment, got %d", len(counter.increments))
	}
	if len(events.appended) != 1 || events.appended[0] != "AttemptSubmitted|"+res.AttemptID {
		t.Fatalf("expected AttemptSubmitted event, got %v", events.appended)
	}
}

func TestPersistMistakePracticeClearsCorrected(t *testing.T) {
	attempts := &fakeAttempts{}
	ledger := newFakeLedger()
	c := NewCoordinator(attempts, ledger, &fakeCounter{}, nil)

	// 2 of 3 previously-missed questions answered correctly.
	res, err := c.PersistAttempt(context.Background(), Identity{UserID: "u1"},
		submission(ModePractice, "incorrect", []int64{1, 2, 3}, map[string]string{"0": "a", "1": "b", "2": "x"}),
		ScoreResult{Score: 2, CorrectIDs: []int64{1, 2}, IncorrectIDs: []int64{3}},
		ModePractice)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.AttemptID == "" {
		t.Fatalf("expected attempt ID")
	}
	if ledger.deletes[1] != 1 || ledger.deletes[2] != 1 {
		t.Fatalf("corrected questions not cleared: %v", ledger.deletes)
	}
	if _, ok := ledger.deletes[3]; ok {
		t.Fatalf("still-missed question must not be cleared")
	}
	if ledger.upserts[3] != 1 {
		t.Fatalf("still-missed question must be refreshed in ledger: %v", ledger.upserts)
	}
}

func TestPersistRegularPracticeDoesNotClearLedger(t *testing.T) {
	ledger := newFakeLedger()
	c := NewCoordinator(&fakeAttempts{}, ledger, &fakeCounter{}, nil)

	_, err := c.PersistAttempt(context.Background(), Identity{UserID: "u1"},
		submission(ModePractice, "History", []int64{1}, map[string]string{"0": "a"}),
		ScoreResult{Score: 1, CorrectIDs: []int64{1}},
		ModePractice)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ledger.deletes) != 0 {
		t.Fatalf("category practice must never clear ledger rows: %v", ledger.deletes)
	}
}

func TestPersistAttemptInsertFailureIsFatal(t *testing.T) {
	ledger := newFakeLedger()
	counter := &fakeCounter{}
	c := NewCoordinator(&fakeAttempts{err: errors.New("store outage")}, ledger, counter, nil)

	res, err := c.PersistAttempt(context.Background(), Identity{UserID: "u1"},
		submission(ModeStandard, "", []int64{1, 2}, map[string]string{"0": "a"}),
		ScoreResult{Score: 1, CorrectIDs: []int64{1}, IncorrectIDs: []int64{2}},
		ModeStandard)
	if err == nil {
		t.Fatalf("expected error when attempt insert fails")
	}
	if res.AttemptID != "" {
		t.Fatalf("failed persistence must not return an attempt ID")
	}
	if res.Score != 1 {
		t.Fatalf("precomputed score must survive the failure; got %d", res.Score)
	}
	if ledger.calls != 0 || len(counter.increments) != 0 {
		t.Fatalf("no ledger/counter calls may happen after a failed insert")
	}
}

func TestPersistAdvisoryFailuresDoNotFail(t *testing.T) {
	ledger := newFakeLedger()
	ledger.upsertErr = errors.New("ledger down")
	ledger.deleteErr = errors.New("ledger down")
	counter := &fakeCounter{incrErr: errors.New("counter down")}
	c := NewCoordinator(&fakeAttempts{}, ledger, counter, nil)

	res, err := c.PersistAttempt(context.Background(), Identity{UserID: "u1"},
		submission(ModePractice, "incorrect", []int64{1, 2}, map[string]string{"0": "a"}),
		ScoreResult{Score: 1, CorrectIDs: []int64{1}, IncorrectIDs: []int64{2}},
		ModePractice)
	if err != nil {
		t.Fatalf("advisory step failures must not fail the operation: %v", err)
	}
	if res.AttemptID == "" {
		t.Fatalf("expected attempt ID despite advisory failures")
	}
}
