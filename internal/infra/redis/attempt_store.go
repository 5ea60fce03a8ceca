package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"pocketflix-portal/internal/quizflow"
)

// AttemptStore keeps quiz attempts in Redis so any instance can serve the next
// request of an attempt. Each save refreshes the TTL.
type AttemptStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ quizflow.Repository = (*AttemptStore)(nil)

func NewAttemptStore(client *redis.Client, ttl time.Duration) *AttemptStore {
	return &AttemptStore{client: client, ttl: ttl}
}

func (s *AttemptStore) Save(ctx context.Context, a quizflow.Attempt) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode attempt %s: %w", a.ID, err)
	}
	return s.client.Set(ctx, s.key(a.ID), data, s.ttl).Err()
}

func (s *AttemptStore) Get(ctx context.Context, id string) (quizflow.Attempt, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return quizflow.Attempt{}, quizflow.ErrAttemptNotFound
	}
	if err != nil {
		return quizflow.Attempt{}, err
	}
	var a quizflow.Attempt
	if err := json.Unmarshal(data, &a); err != nil {
		return quizflow.Attempt{}, fmt.Errorf("decode attempt %s: %w", id, err)
	}
	return a, nil
}

func (s *AttemptStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.key(id)).Err()
}

func (s *AttemptStore) key(id string) string {
	return "pf:attempt:" + id
}
