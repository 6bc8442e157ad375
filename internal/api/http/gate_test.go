package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	authmw "github.com/mapleprep/mapleprep/internal/auth/middleware"
	"github.com/mapleprep/mapleprep/internal/quiz"
)

type fakeProfiles struct{ levels map[string]string }

func (f *fakeProfiles) AccessLevel(_ context.Context, userID string) (string, error) {
	return f.levels[userID], nil
}

func TestAllowanceRequiresMode(t *testing.T) {
	h := AllowanceHandler(quiz.NewGate(&fakeProfiles{}, &fakeCounter{}))
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/quiz/allowance", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d; want 400", w.Code)
	}
}

func TestAllowanceAnonymousAtLimit(t *testing.T) {
	h := AllowanceHandler(quiz.NewGate(&fakeProfiles{}, &fakeCounter{}))

	// Device cookie already at the timed limit of 1.
	seed := httptest.NewRecorder()
	quiz.WriteLocalCounts(seed, quiz.LocalCounts{Timed: 1}, false)
	r := httptest.NewRequest(http.MethodGet, "/quiz/allowance?mode=timed", nil)
	r.AddCookie(seed.Result().Cookies()[0])

	w := httptest.NewRecorder()
	h(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", w.Code)
	}
	var d quiz.Decision
	if err := json.Unmarshal(w.Body.Bytes(), &d); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if d.CanAttempt {
		t.Fatalf("expected canAttempt=false at timed limit")
	}
	if d.IsLoggedIn {
		t.Fatalf("expected isLoggedIn=false for anonymous caller")
	}
	if d.Action != "signup" {
		t.Fatalf("action = %q; want signup", d.Action)
	}
}

func TestAllowanceAuthenticatedFreeUser(t *testing.T) {
	h := AllowanceHandler(quiz.NewGate(
		&fakeProfiles{levels: map[string]string{"u1": "free"}},
		&fakeCounter{}))

	r := httptest.NewRequest(http.MethodGet, "/quiz/allowance?mode=practice", nil)
	r = r.WithContext(authmw.WithSubject(r.Context(), "u1"))
	w := httptest.NewRecorder()
	h(w, r)

	var d quiz.Decision
	if err := json.Unmarshal(w.Body.Bytes(), &d); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if !d.CanAttempt || !d.IsLoggedIn {
		t.Fatalf("expected allowed, logged-in decision: %+v", d)
	}
}
