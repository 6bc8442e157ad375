package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	authmw "github.com/mapleprep/mapleprep/internal/auth/middleware"
	"github.com/mapleprep/mapleprep/internal/quiz"
	"github.com/mapleprep/mapleprep/internal/rbac"
)

// GET /attempts/{attemptID} — the persisted-results view.
func GetAttemptHandler(store *quiz.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "attemptID")
		rec, err := store.GetAttempt(r.Context(), id)
		if errors.Is(err, quiz.ErrAttemptNotFound) {
			http.Error(w, "attempt not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		role := rbac.RoleFromContext(r.Context())
		if role != "admin" && rec.UserID != authmw.SubjectFromContext(r.Context()) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

// GET /attempts?quiz_type=...&user_id=...&limit=50&offset=0
// Non-admin callers only ever see their own attempts; user_id is forced to
// the authenticated subject.
func ListAttemptsHandler(store *quiz.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := rbac.RoleFromContext(r.Context())
		sub := authmw.SubjectFromContext(r.Context())

		userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
		if role != "admin" {
			userID = sub
		}

		list, err := store.ListAttempts(r.Context(), quiz.AttemptListOpts{
			UserID:   userID,
			QuizType: strings.TrimSpace(r.URL.Query().Get("quiz_type")),
			Limit:    parseIntDefault(r.URL.Query().Get("limit"), 50),
			Offset:   parseIntDefault(r.URL.Query().Get("offset"), 0),
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
