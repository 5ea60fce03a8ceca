package backend

import (
	"fmt"
	"strings"

	"pocketflix-portal/internal/domain"
)

// ValidateQuiz checks the question/answer rules the editor enforces, so a quiz
// written by any client is scoreable.
func ValidateQuiz(q domain.Quiz) error {
	if strings.TrimSpace(q.ID) == "" {
		return fmt.Errorf("%w: missing id", domain.ErrInvalidQuiz)
	}
	if strings.TrimSpace(q.VideoID) == "" {
		return fmt.Errorf("%w: missing video", domain.ErrInvalidQuiz)
	}
	if len(q.Questions) == 0 {
		return fmt.Errorf("%w: no questions", domain.ErrInvalidQuiz)
	}
	for i, question := range q.Questions {
		if strings.TrimSpace(question.Question) == "" {
			return fmt.Errorf("%w: question %d is empty", domain.ErrInvalidQuiz, i+1)
		}
		if len(question.Answers) < 2 {
			return fmt.Errorf("%w: question %d needs at least 2 answers", domain.ErrInvalidQuiz, i+1)
		}
		if question.CorrectAnswerIndex < 0 || question.CorrectAnswerIndex >= len(question.Answers) {
			return fmt.Errorf("%w: question %d has invalid correct answer index", domain.ErrInvalidQuiz, i+1)
		}
	}
	return nil
}

// Score counts correct answers. answers must hold one index per question.
func Score(q domain.Quiz, answers []int) (int, error) {
	if len(answers) != len(q.Questions) {
		return 0, domain.ErrInvalidAnswers
	}
	score := 0
	for i, question := range q.Questions {
		if answers[i] < 0 || answers[i] >= len(question.Answers) {
			return 0, fmt.Errorf("%w: answer %d out of range", domain.ErrInvalidAnswers, i+1)
		}
		if answers[i] == question.CorrectAnswerIndex {
			score++
		}
	}
	return score, nil
}
