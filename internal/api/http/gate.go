package http

import (
	"net/http"

	authmw "github.com/mapleprep/mapleprep/internal/auth/middleware"
	"github.com/mapleprep/mapleprep/internal/quiz"
)

// AllowanceHandler is the pre-flight entitlement check the client calls
// before starting a quiz. GET /quiz/allowance?mode=practice
func AllowanceHandler(gate *quiz.Gate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mode, err := quiz.ParseMode(r.URL.Query().Get("mode"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		sub := authmw.SubjectFromContext(r.Context())
		var d quiz.Decision
		if sub == "" {
			counts := quiz.ReadLocalCounts(r)
			d = gate.CheckAnonymous(mode, counts.Get(mode))
		} else {
			d = gate.CheckUser(r.Context(), sub, mode)
		}
		writeJSON(w, http.StatusOK, d)
	}
}
