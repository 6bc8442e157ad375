package events

import (
	"context"
	"database/sql"
	"time"
)

// Repo appends to the event_log table. Writes are best-effort: callers log
// and continue on failure.
type Repo struct{ db *sql.DB }

func NewRepo(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Append(ctx context.Context, typ, key, data string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_log (typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4)`,
		typ, key, data, time.Now().Unix())
	return err
}
