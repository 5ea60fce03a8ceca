package memory

import (
	"context"
	"sync"
	"time"

	"pocketflix-portal/internal/quizflow"
)

// AttemptStore is an in-memory implementation of quizflow.Repository.
// Attempts untouched for longer than ttl are dropped on access.
type AttemptStore struct {
	ttl   time.Duration
	clock func() time.Time

	mu       sync.RWMutex
	attempts map[string]storedAttempt
}

type storedAttempt struct {
	attempt   quizflow.Attempt
	expiresAt time.Time
}

func NewAttemptStore(ttl time.Duration) *AttemptStore {
	return &AttemptStore{
		ttl:      ttl,
		clock:    time.Now,
		attempts: make(map[string]storedAttempt),
	}
}

func (s *AttemptStore) Save(_ context.Context, a quizflow.Attempt) error {
	a.Answers = append([]int(nil), a.Answers...)
	a.AnswerCounts = append([]int(nil), a.AnswerCounts...)

	s.mu.Lock()
	defer s.mu.Unlock()
	entry := storedAttempt{attempt: a}
	if s.ttl > 0 {
		entry.expiresAt = s.clock().Add(s.ttl)
	}
	s.attempts[a.ID] = entry
	s.sweepLocked()
	return nil
}

func (s *AttemptStore) Get(_ context.Context, id string) (quizflow.Attempt, error) {
	s.mu.RLock()
	entry, ok := s.attempts[id]
	s.mu.RUnlock()
	if !ok || s.expired(entry) {
		return quizflow.Attempt{}, quizflow.ErrAttemptNotFound
	}
	a := entry.attempt
	a.Answers = append([]int(nil), a.Answers...)
	a.AnswerCounts = append([]int(nil), a.AnswerCounts...)
	return a, nil
}

func (s *AttemptStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.attempts, id)
	s.mu.Unlock()
	return nil
}

// Len reports the number of live attempts.
func (s *AttemptStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	return len(s.attempts)
}

func (s *AttemptStore) expired(e storedAttempt) bool {
	return !e.expiresAt.IsZero() && !e.expiresAt.After(s.clock())
}

func (s *AttemptStore) sweepLocked() {
	for id, e := range s.attempts {
		if s.expired(e) {
			delete(s.attempts, id)
		}
	}
}
