package quiz

import "strings"

// NormalizePracticeCategory lower-cases a practice category label and folds
// whitespace runs into single underscores: "Recently Added" -> "recently_added".
func NormalizePracticeCategory(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), "_")
}

// QuizTypeLabel derives the quiz_type column value for a finished attempt.
// Timed quizzes are always "timed"; practice quizzes carry their category
// ("practice_general" when none was given); everything else is "standard".
func QuizTypeLabel(mode Mode, practiceType string) string {
	switch mode {
	case ModeTimed:
		return "timed"
	case ModePractice:
		if cat := NormalizePracticeCategory(practiceType); cat != "" {
			return "practice_" + cat
		}
		return "practice_general"
	default:
		return "standard"
	}
}

// IsMistakePractice reports whether a practice session targets the caller's
// previously-incorrect questions. Those sessions clear ledger rows for
// questions answered correctly.
func IsMistakePractice(practiceType string) bool {
	switch NormalizePracticeCategory(practiceType) {
	case "incorrect", "incorrect_questions":
		return true
	}
	return false
}
