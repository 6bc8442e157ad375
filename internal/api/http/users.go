package http

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// GET /admin/users
func ListUsersHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := db.QueryContext(r.Context(),
			`SELECT id, username, role, access_level FROM users ORDER BY username`)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer rows.Close()
		out := []map[string]string{}
		for rows.Next() {
			var id, username, role, level string
			if err := rows.Scan(&id, &username, &role, &level); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			out = append(out, map[string]string{
				"id": id, "username": username, "role": role, "access_level": level,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// PATCH /admin/users/{userID}/access  { "access_level": "free"|"premium" }
// Operator-side maintenance of the column the billing webhook normally owns.
func SetAccessLevelHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			AccessLevel string `json:"access_level"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.AccessLevel != "free" && req.AccessLevel != "premium" {
			http.Error(w, "access_level must be free or premium", http.StatusBadRequest)
			return
		}
		userID := chi.URLParam(r, "userID")
		res, err := db.ExecContext(r.Context(),
			`UPDATE users SET access_level=$1 WHERE id=$2`, req.AccessLevel, userID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"id": userID, "access_level": req.AccessLevel})
	}
}
