package app

import (
	"fmt"

	"quizmaker-service/internal/domain"
)

// GradedAttempt is the pure result of grading one submission.
type GradedAttempt struct {
	Answers        []domain.Answer
	Score          int
	TotalQuestions int
	CorrectAnswers int
}

// ValidateSubmission gates grading: one non-nil, in-range answer per question.
func ValidateSubmission(quiz domain.Quiz, answers []*int) ([]int, error) {
	if len(answers) != len(quiz.Questions) {
		return nil, fmt.Errorf("%w: got %d answers for %d questions", domain.ErrIncompleteSubmission, len(answers), len(quiz.Questions))
	}
	selected := make([]int, len(answers))
	for i, a := range answers {
		if a == nil {
			return nil, fmt.Errorf("%w: question %d has no answer", domain.ErrIncompleteSubmission, i+1)
		}
		if *a < 0 || *a >= len(quiz.Questions[i].Options) {
			return nil, domain.NewValidationError(fmt.Sprintf("answers[%d]", i), "must reference an existing option")
		}
		selected[i] = *a
	}
	return selected, nil
}

// Grade scores answers against the quiz. answers must already have passed ValidateSubmission.
func Grade(quiz domain.Quiz, answers []int) GradedAttempt {
	graded := make([]domain.Answer, len(quiz.Questions))
	correct := 0
	for i, q := range quiz.Questions {
		selected := answers[i]
		ok := selected == q.CorrectAnswer
		if ok {
			correct++
		}
		graded[i] = domain.Answer{
			QuestionID:     q.ID,
			SelectedAnswer: selected,
			CorrectAnswer:  q.CorrectAnswer,
			IsCorrect:      ok,
		}
	}
	return GradedAttempt{
		Answers:        graded,
		Score:          ScorePercent(correct, len(quiz.Questions)),
		TotalQuestions: len(quiz.Questions),
		CorrectAnswers: correct,
	}
}

// ScorePercent returns 100*correct/total rounded half up, in integer arithmetic.
// 2 of 3 is 67, 1 of 8 is 13.
func ScorePercent(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*correct + total) / (2 * total)
}
