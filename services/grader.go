package services

import "quiz-settlement-system/models"

// AnswerSubmission is one answer as submitted by a player.
type AnswerSubmission struct {
	QuestionID     string `json:"question_id"`
	SelectedOption string `json:"selected_option"`
	TimeTakenMs    int64  `json:"time_taken_ms"`
}

// GradedAnswer is one answer after grading.
type GradedAnswer struct {
	QuestionID     string
	SelectedOption string
	IsCorrect      bool
	TimeTakenMs    int64
}

// GradeResult is the outcome of grading one submission.
type GradeResult struct {
	Score   int
	Answers []GradedAnswer
}

// Grade scores a submission against the authoritative question set. It is a
// pure function: identical inputs always produce identical output. Answers
// referencing unknown question ids grade as incorrect rather than erroring.
// Only the first answer per question id counts; repeats are dropped, so a
// submission can never earn more than one point per distinct question.
func Grade(questions []models.Question, answers []AnswerSubmission) GradeResult {
	correctByID := make(map[string]string, len(questions))
	for _, q := range questions {
		correctByID[q.ID] = q.CorrectOption
	}

	seen := make(map[string]bool, len(answers))
	result := GradeResult{Answers: make([]GradedAnswer, 0, len(answers))}
	for _, a := range answers {
		if seen[a.QuestionID] {
			continue
		}
		seen[a.QuestionID] = true

		correct, known := correctByID[a.QuestionID]
		isCorrect := known && a.SelectedOption == correct
		if isCorrect {
			result.Score++
		}
		result.Answers = append(result.Answers, GradedAnswer{
			QuestionID:     a.QuestionID,
			SelectedOption: a.SelectedOption,
			IsCorrect:      isCorrect,
			TimeTakenMs:    a.TimeTakenMs,
		})
	}
	return result
}
