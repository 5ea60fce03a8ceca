package quizflow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"pocketflix-portal/internal/domain"
)

// Repository stores attempts between requests (in-memory, Redis, etc).
type Repository interface {
	Save(ctx context.Context, a Attempt) error
	// Get returns ErrAttemptNotFound for unknown or expired ids.
	Get(ctx context.Context, id string) (Attempt, error)
	Delete(ctx context.Context, id string) error
}

// Submitter scores a full answer sheet. queries.Client satisfies it.
type Submitter interface {
	TakeQuiz(ctx context.Context, quizID string, answers []int) (int, error)
}

// Service runs attempts. Operations on the same attempt are serialized.
type Service struct {
	repo   Repository
	now    func() time.Time
	newID  func() string
	logger *slog.Logger

	mu    sync.Mutex
	locks map[string]*attemptLock
}

type attemptLock struct {
	mu   sync.Mutex
	refs int
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		now:    time.Now,
		newID:  uuid.NewString,
		logger: logger,
		locks:  make(map[string]*attemptLock),
	}
}

// NewServiceWithClock is test-only for deterministic timestamps.
func NewServiceWithClock(repo Repository, logger *slog.Logger, now func() time.Time) *Service {
	s := NewService(repo, logger)
	s.now = now
	return s
}

func (s *Service) lock(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &attemptLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}

// Start opens a new attempt of quiz for caller.
func (s *Service) Start(ctx context.Context, caller domain.Principal, quiz domain.Quiz) (Attempt, error) {
	if len(quiz.Questions) == 0 {
		return Attempt{}, fmt.Errorf("start attempt: %w", domain.ErrInvalidQuiz)
	}
	a := newAttempt(s.newID(), caller, quiz, s.now())
	if err := s.repo.Save(ctx, a); err != nil {
		return Attempt{}, fmt.Errorf("save attempt: %w", err)
	}
	return a, nil
}

// Get returns the caller's attempt. Attempts of other principals look missing.
func (s *Service) Get(ctx context.Context, caller domain.Principal, id string) (Attempt, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return Attempt{}, err
	}
	if a.Principal != caller {
		return Attempt{}, ErrAttemptNotFound
	}
	return a, nil
}

func (s *Service) Answer(ctx context.Context, caller domain.Principal, id string, question, choice int) (Attempt, error) {
	unlock := s.lock(id)
	defer unlock()

	a, err := s.Get(ctx, caller, id)
	if err != nil {
		return Attempt{}, err
	}
	if err := a.answer(question, choice); err != nil {
		return a, err
	}
	a.UpdatedAt = s.now()
	if err := s.repo.Save(ctx, a); err != nil {
		return Attempt{}, fmt.Errorf("save attempt: %w", err)
	}
	return a, nil
}

// Submit sends the answer sheet to submitter. Incomplete sheets never reach it.
// A failed submission returns the attempt to answering with its answers intact.
func (s *Service) Submit(ctx context.Context, caller domain.Principal, id string, submitter Submitter) (Attempt, error) {
	unlock := s.lock(id)
	defer unlock()

	a, err := s.Get(ctx, caller, id)
	if err != nil {
		return Attempt{}, err
	}
	if a.Phase != PhaseAnswering {
		return a, fmt.Errorf("%w: %s", ErrWrongPhase, a.Phase)
	}
	if !a.Complete() {
		return a, fmt.Errorf("%w: %d of %d answered", ErrIncompleteAnswers, a.Answered(), a.Total())
	}

	a.Phase = PhaseSubmitting
	a.UpdatedAt = s.now()
	if err := s.repo.Save(ctx, a); err != nil {
		return Attempt{}, fmt.Errorf("save attempt: %w", err)
	}

	score, subErr := submitter.TakeQuiz(ctx, a.QuizID, append([]int(nil), a.Answers...))
	if subErr != nil {
		a.Phase = PhaseAnswering
		s.logger.Warn("quiz submission failed", "attempt", a.ID, "quiz", a.QuizID, "err", subErr)
	} else {
		a.Phase = PhaseScored
		a.Score = score
		a.DonationArmed = true
	}
	a.UpdatedAt = s.now()
	if err := s.repo.Save(context.WithoutCancel(ctx), a); err != nil {
		return Attempt{}, fmt.Errorf("save attempt: %w", err)
	}
	if subErr != nil {
		return a, fmt.Errorf("submit quiz: %w", subErr)
	}
	return a, nil
}

// TakeDonationPrompt reports true exactly once per scored attempt.
func (s *Service) TakeDonationPrompt(ctx context.Context, caller domain.Principal, id string) (bool, error) {
	unlock := s.lock(id)
	defer unlock()

	a, err := s.Get(ctx, caller, id)
	if err != nil {
		return false, err
	}
	if a.Phase != PhaseScored || !a.DonationArmed || a.DonationShown {
		return false, nil
	}
	a.DonationShown = true
	a.UpdatedAt = s.now()
	if err := s.repo.Save(ctx, a); err != nil {
		return false, fmt.Errorf("save attempt: %w", err)
	}
	return true, nil
}

// Discard drops an attempt, e.g. when the user closes the quiz.
func (s *Service) Discard(ctx context.Context, caller domain.Principal, id string) error {
	unlock := s.lock(id)
	defer unlock()

	if _, err := s.Get(ctx, caller, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
