package http

import (
	"encoding/json"
	"net/http"
	"strings"

	authmw "github.com/mapleprep/mapleprep/internal/auth/middleware"
	"github.com/mapleprep/mapleprep/internal/quiz"
)

// QuizQuestionsHandler serves a question set for a new quiz: a random
// selection, or the caller's previously-incorrect questions for mistake
// practice. Answer keys are stripped before serving.
// GET /quiz/questions?mode=practice&practiceType=incorrect&count=20
func QuizQuestionsHandler(store *quiz.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := quiz.ParseMode(r.URL.Query().Get("mode")); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		count := parseIntDefault(r.URL.Query().Get("count"), 20)
		if count < 1 || count > 50 {
			count = 20
		}
		practiceType := r.URL.Query().Get("practiceType")

		var (
			questions []quiz.Question
			err       error
		)
		if quiz.IsMistakePractice(practiceType) {
			sub := authmw.SubjectFromContext(r.Context())
			if sub == "" {
				http.Error(w, "sign in to practice your incorrect questions", http.StatusUnauthorized)
				return
			}
			questions, err = store.IncorrectQuestionsForUser(r.Context(), sub, count)
		} else {
			questions, err = store.RandomQuestions(r.Context(), count)
		}
		if err != nil {
			http.Error(w, "could not load questions", http.StatusInternalServerError)
			return
		}

		// Never leak answer keys to quiz takers.
		for i := range questions {
			questions[i].CorrectOption = ""
		}
		writeJSON(w, http.StatusOK, questions)
	}
}

// UploadQuestionsHandler bulk-upserts content rows from a JSON array.
// Admin only. POST /admin/questions
func UploadQuestionsHandler(store *quiz.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var questions []quiz.Question
		if err := json.NewDecoder(r.Body).Decode(&questions); err != nil {
			http.Error(w, "expected a JSON array of questions", http.StatusBadRequest)
			return
		}
		if len(questions) == 0 {
			writeJSON(w, http.StatusOK, map[string]int{"upserted": 0})
			return
		}
		for _, q := range questions {
			if q.ID <= 0 || q.QuestionText == "" {
				http.Error(w, "every question needs a positive id and question_text", http.StatusBadRequest)
				return
			}
			switch strings.ToLower(strings.TrimSpace(q.CorrectOption)) {
			case "a", "b", "c", "d":
			default:
				http.Error(w, "correct_option must be one of a, b, c, d", http.StatusBadRequest)
				return
			}
		}
		n, err := store.UpsertQuestions(r.Context(), questions)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"upserted": n})
	}
}
