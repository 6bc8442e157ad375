package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"

	authmw "github.com/mapleprep/mapleprep/internal/auth/middleware"
	"github.com/mapleprep/mapleprep/internal/quiz"
)

// SubmitResponse is the wire shape of POST /quiz/submit. AttemptID is null
// for anonymous (ephemeral) results and on persistence failure; Error is null
// on success. Score is reported whenever it was computed, even if the attempt
// row could not be written.
type SubmitResponse struct {
	AttemptID      *string `json:"attemptId"`
	Score          int     `json:"score"`
	Error          *string `json:"error"`
	Message        string  `json:"message,omitempty"`
	QuizType       string  `json:"quizType,omitempty"`
	TotalQuestions int     `json:"totalQuestions,omitempty"`
	QuizMode       string  `json:"quizMode,omitempty"`
}

func submitError(w http.ResponseWriter, status int, msg string, score int) {
	writeJSON(w, status, SubmitResponse{Score: score, Error: &msg})
}

// SubmitHandler is the submission boundary: validate, resolve identity,
// score, persist, shape the response. Validation failures produce no side
// effects; every failure path returns a structured error rather than a bare
// status line.
func SubmitHandler(engine *quiz.Engine, coord *quiz.Coordinator, validate *validator.Validate, secureCookies bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sub quiz.Submission
		if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
			submitError(w, http.StatusBadRequest, "invalid JSON payload", 0)
			return
		}
		if err := validate.Struct(sub); err != nil {
			submitError(w, http.StatusBadRequest, "questionIds and userAnswers are required and quizMode must be practice, standard or timed", 0)
			return
		}
		mode, err := quiz.ParseMode(sub.QuizMode)
		if err != nil {
			submitError(w, http.StatusBadRequest, err.Error(), 0)
			return
		}

		res, err := engine.Score(r.Context(), sub.QuestionIDs, sub.UserAnswers)
		if err != nil {
			if errors.Is(err, quiz.ErrEmptySubmission) {
				submitError(w, http.StatusBadRequest, err.Error(), 0)
				return
			}
			log.Printf("submit: scoring failed: %v", err)
			submitError(w, http.StatusBadGateway, "could not score attempt", 0)
			return
		}

		identity := quiz.Identity{UserID: authmw.SubjectFromContext(r.Context())}
		pres, err := coord.PersistAttempt(r.Context(), identity, sub, res, mode)
		if err != nil {
			// Score was computed before the write failed; hand it back anyway.
			log.Printf("submit: persistence failed for user %s: %v", identity.UserID, err)
			submitError(w, http.StatusInternalServerError, "failed to record attempt", res.Score)
			return
		}

		out := SubmitResponse{
			Score:          pres.Score,
			QuizType:       quiz.QuizTypeLabel(mode, sub.PracticeType),
			TotalQuestions: len(sub.QuestionIDs),
			QuizMode:       string(mode),
		}
		if pres.Ephemeral {
			quiz.IncrementLocalCounts(w, r, mode, secureCookies)
			out.Message = "score not saved; sign in to track your progress"
		} else {
			id := pres.AttemptID
			out.AttemptID = &id
		}
		writeJSON(w, http.StatusOK, out)
	}
}
