// Package quizflow drives a single user's pass through a quiz: answer every
// question, submit once, read the score back.
package quizflow

import (
	"errors"
	"fmt"
	"time"

	"pocketflix-portal/internal/domain"
)

var (
	// ErrIncompleteAnswers is returned by Submit before every question has an answer.
	ErrIncompleteAnswers = errors.New("answer every question before submitting")
	ErrAttemptNotFound   = errors.New("attempt not found")
	ErrWrongPhase        = errors.New("attempt is not accepting this action")
	ErrOutOfRange        = errors.New("question or answer out of range")
)

type Phase string

const (
	PhaseAnswering  Phase = "answering"
	PhaseSubmitting Phase = "submitting"
	PhaseScored     Phase = "scored"
)

const unanswered = -1

// Attempt is one pass through a quiz. Answers holds the chosen index per question,
// -1 while unanswered; AnswerCounts holds the number of options per question.
type Attempt struct {
	ID            string           `json:"id"`
	QuizID        string           `json:"quizId"`
	Principal     domain.Principal `json:"principal"`
	AnswerCounts  []int            `json:"answerCounts"`
	Answers       []int            `json:"answers"`
	Phase         Phase            `json:"phase"`
	Score         int              `json:"score"`
	DonationArmed bool             `json:"donationArmed"`
	DonationShown bool             `json:"donationShown"`
	StartedAt     time.Time        `json:"startedAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

func newAttempt(id string, caller domain.Principal, quiz domain.Quiz, now time.Time) Attempt {
	counts := make([]int, len(quiz.Questions))
	answers := make([]int, len(quiz.Questions))
	for i, q := range quiz.Questions {
		counts[i] = len(q.Answers)
		answers[i] = unanswered
	}
	return Attempt{
		ID:           id,
		QuizID:       quiz.ID,
		Principal:    caller,
		AnswerCounts: counts,
		Answers:      answers,
		Phase:        PhaseAnswering,
		StartedAt:    now,
		UpdatedAt:    now,
	}
}

// Total is the number of questions.
func (a Attempt) Total() int { return len(a.Answers) }

func (a Attempt) Answered() int {
	n := 0
	for _, ans := range a.Answers {
		if ans != unanswered {
			n++
		}
	}
	return n
}

func (a Attempt) Complete() bool { return a.Answered() == a.Total() }

// answer records choice for question q. Re-answering overwrites.
func (a *Attempt) answer(q, choice int) error {
	if a.Phase != PhaseAnswering {
		return fmt.Errorf("%w: %s", ErrWrongPhase, a.Phase)
	}
	if q < 0 || q >= len(a.Answers) {
		return fmt.Errorf("%w: question %d", ErrOutOfRange, q)
	}
	if choice < 0 || choice >= a.AnswerCounts[q] {
		return fmt.Errorf("%w: answer %d for question %d", ErrOutOfRange, choice, q)
	}
	a.Answers[q] = choice
	return nil
}

// Verdict is the headline shown with a score.
func (a Attempt) Verdict() string {
	if a.Phase != PhaseScored {
		return ""
	}
	return Verdict(a.Score, a.Total())
}

func Verdict(score, total int) string {
	switch {
	case total > 0 && score == total:
		return "Perfect score!"
	case total > 0 && score*100 >= total*70:
		return "Great job!"
	default:
		return "Keep learning!"
	}
}
