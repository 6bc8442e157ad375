package quiz

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrAttemptNotFound is returned for lookups of unknown attempt IDs.
var ErrAttemptNotFound = errors.New("attempt not found")

// SQLStore implements the content, attempt, ledger and profile collaborators
// over a single database handle.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func placeholders(n, from int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, "$%d", from+i)
	}
	return b.String()
}

// QuestionsByIDs fetches questions in one batched lookup. IDs with no content
// row are simply absent from the result; the scoring engine treats those
// positions as incorrect.
func (s *SQLStore) QuestionsByIDs(ctx context.Context, ids []int64) ([]Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, question_text, option_a, option_b, option_c, option_d, correct_option, category
		 FROM questions WHERE id IN (`+placeholders(len(ids), 1)+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var out []Question
	for rows.Next() {
		var q Question
		if err := rows.Scan(&q.ID, &q.QuestionText, &q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD, &q.CorrectOption, &q.Category); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// RandomQuestions returns up to limit questions in random order.
func (s *SQLStore) RandomQuestions(ctx context.Context, limit int) ([]Question, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, question_text, option_a, option_b, option_c, option_d, correct_option, category
		 FROM questions ORDER BY RANDOM() LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query random questions: %w", err)
	}
	defer rows.Close()
	return scanQuestions(rows)
}

// IncorrectQuestionsForUser returns the user's open ledger questions, most
// recently missed first. Backs the mistake-practice selection.
func (s *SQLStore) IncorrectQuestionsForUser(ctx context.Context, userID string, limit int) ([]Question, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT q.id, q.question_text, q.option_a, q.option_b, q.option_c, q.option_d, q.correct_option, q.category
		 FROM incorrect_questions iq
		 JOIN questions q ON q.id = iq.question_id
		 WHERE iq.user_id = $1
		 ORDER BY iq.last_missed_at DESC
		 LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query incorrect questions: %w", err)
	}
	defer rows.Close()
	return scanQuestions(rows)
}

func scanQuestions(rows *sql.Rows) ([]Question, error) {
	var out []Question
	for rows.Next() {
		var q Question
		if err := rows.Scan(&q.ID, &q.QuestionText, &q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD, &q.CorrectOption, &q.Category); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// UpsertQuestions inserts or replaces content rows by ID. Admin upload path.
func (s *SQLStore) UpsertQuestions(ctx context.Context, questions []Question) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().Unix()
	for _, q := range questions {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO questions (id, question_text, option_a, option_b, option_c, option_d, correct_option, category, created_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
			 ON CONFLICT (id) DO UPDATE SET
			   question_text=EXCLUDED.question_text,
			   option_a=EXCLUDED.option_a, option_b=EXCLUDED.option_b,
			   option_c=EXCLUDED.option_c, option_d=EXCLUDED.option_d,
			   correct_option=EXCLUDED.correct_option, category=EXCLUDED.category`,
			q.ID, q.QuestionText, q.OptionA, q.OptionB, q.OptionC, q.OptionD,
			strings.ToLower(strings.TrimSpace(q.CorrectOption)), q.Category, now)
		if err != nil {
			return 0, fmt.Errorf("upsert question %d: %w", q.ID, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return len(questions), nil
}

// InsertAttempt writes one immutable attempt row and returns its generated ID.
func (s *SQLStore) InsertAttempt(ctx context.Context, rec AttemptRecord) (string, error) {
	idsJSON, err := json.Marshal(rec.QuestionIDs)
	if err != nil {
		return "", err
	}
	answersJSON, err := json.Marshal(rec.UserAnswers)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO quiz_attempts
		   (id, user_id, question_ids, user_answers, quiz_type, score, total_questions,
		    is_timed, is_practice, practice_type, time_taken_seconds, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		id, rec.UserID, string(idsJSON), string(answersJSON), rec.QuizType, rec.Score,
		rec.TotalQuestions, rec.IsTimed, rec.IsPractice, rec.PracticeType,
		rec.TimeTakenSeconds, rec.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("insert attempt: %w", err)
	}
	return id, nil
}

// GetAttempt loads one persisted attempt.
func (s *SQLStore) GetAttempt(ctx context.Context, id string) (AttemptRecord, error) {
	var rec AttemptRecord
	var idsJSON, answersJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, question_ids, user_answers, quiz_type, score, total_questions,
		        is_timed, is_practice, practice_type, time_taken_seconds, created_at
		 FROM quiz_attempts WHERE id=$1`, id).
		Scan(&rec.ID, &rec.UserID, &idsJSON, &answersJSON, &rec.QuizType, &rec.Score,
			&rec.TotalQuestions, &rec.IsTimed, &rec.IsPractice, &rec.PracticeType,
			&rec.TimeTakenSeconds, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return AttemptRecord{}, ErrAttemptNotFound
	}
	if err != nil {
		return AttemptRecord{}, fmt.Errorf("get attempt: %w", err)
	}
	if err := json.Unmarshal([]byte(idsJSON), &rec.QuestionIDs); err != nil {
		return AttemptRecord{}, fmt.Errorf("decode question ids: %w", err)
	}
	if err := json.Unmarshal([]byte(answersJSON), &rec.UserAnswers); err != nil {
		rec.UserAnswers = map[int64]string{}
	}
	return rec, nil
}

type AttemptListOpts struct {
	UserID   string
	QuizType string
	Limit    int
	Offset   int
}

// ListAttempts returns attempts newest-first, filtered by user and quiz type.
func (s *SQLStore) ListAttempts(ctx context.Context, opts AttemptListOpts) ([]AttemptRecord, error) {
	where := []string{}
	args := []any{}
	if opts.UserID != "" {
		args = append(args, opts.UserID)
		where = append(where, fmt.Sprintf("user_id=$%d", len(args)))
	}
	if opts.QuizType != "" {
		args = append(args, opts.QuizType)
		where = append(where, fmt.Sprintf("quiz_type=$%d", len(args)))
	}
	q := `SELECT id, user_id, question_ids, user_answers, quiz_type, score, total_questions,
	             is_timed, is_practice, practice_type, time_taken_seconds, created_at
	      FROM quiz_attempts`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	limit := opts.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	args = append(args, limit)
	q += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))
	args = append(args, opts.Offset)
	q += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	out := []AttemptRecord{}
	for rows.Next() {
		var rec AttemptRecord
		var idsJSON, answersJSON string
		if err := rows.Scan(&rec.ID, &rec.UserID, &idsJSON, &answersJSON, &rec.QuizType, &rec.Score,
			&rec.TotalQuestions, &rec.IsTimed, &rec.IsPractice, &rec.PracticeType,
			&rec.TimeTakenSeconds, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		if err := json.Unmarshal([]byte(idsJSON), &rec.QuestionIDs); err != nil {
			rec.QuestionIDs = nil
		}
		if err := json.Unmarshal([]byte(answersJSON), &rec.UserAnswers); err != nil {
			rec.UserAnswers = map[int64]string{}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// UpsertIncorrect records missed questions, one row per (user, question).
// Re-missing a question bumps times_incorrect instead of duplicating the row.
func (s *SQLStore) UpsertIncorrect(ctx context.Context, userID string, questionIDs []int64) error {
	if len(questionIDs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().Unix()
	for _, qid := range questionIDs {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO incorrect_questions (user_id, question_id, times_incorrect, last_missed_at)
			 VALUES ($1,$2,1,$3)
			 ON CONFLICT (user_id, question_id) DO UPDATE SET
			   times_incorrect = incorrect_questions.times_incorrect + 1,
			   last_missed_at = EXCLUDED.last_missed_at`,
			userID, qid, now)
		if err != nil {
			return fmt.Errorf("upsert ledger row (%s,%d): %w", userID, qid, err)
		}
	}
	return tx.Commit()
}

// DeleteIncorrect clears ledger rows for questions the user has now answered
// correctly in a mistake-practice session.
func (s *SQLStore) DeleteIncorrect(ctx context.Context, userID string, questionIDs []int64) error {
	if len(questionIDs) == 0 {
		return nil
	}
	args := make([]any, 0, len(questionIDs)+1)
	args = append(args, userID)
	for _, qid := range questionIDs {
		args = append(args, qid)
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM incorrect_questions WHERE user_id=$1 AND question_id IN (`+placeholders(len(questionIDs), 2)+`)`,
		args...)
	if err != nil {
		return fmt.Errorf("delete ledger rows: %w", err)
	}
	return nil
}

// AccessLevel reads the profile's access_level column, maintained externally
// by billing. A missing profile reads as "" (free tier), not an error.
func (s *SQLStore) AccessLevel(ctx context.Context, userID string) (string, error) {
	var level string
	err := s.db.QueryRowContext(ctx, `SELECT access_level FROM users WHERE id=$1`, userID).Scan(&level)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get access level: %w", err)
	}
	return level, nil
}
