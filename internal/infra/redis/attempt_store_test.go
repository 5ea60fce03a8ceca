package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"pocketflix-portal/internal/quizflow"
)

func TestAttemptStoreSetsAndExpiresKeys(t *testing.T) {
	ctx := context.Background()
	mr, client := newClient(t)
	store := NewAttemptStore(client, time.Minute)

	a := quizflow.Attempt{ID: "a-1", QuizID: "q-1", Principal: "p1", Answers: []int{1, -1}, AnswerCounts: []int{2, 2}, Phase: quizflow.PhaseAnswering}
	if err := store.Save(ctx, a); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !mr.Exists("pf:attempt:a-1") {
		t.Fatalf("expected redis key to be set")
	}

	got, err := store.Get(ctx, "a-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.QuizID != "q-1" || len(got.Answers) != 2 || got.Answers[1] != -1 {
		t.Fatalf("unexpected attempt %+v", got)
	}

	mr.FastForward(2 * time.Minute)
	if _, err := store.Get(ctx, "a-1"); !errors.Is(err, quizflow.ErrAttemptNotFound) {
		t.Fatalf("expected expiry, got %v", err)
	}
}

func TestAttemptStoreDelete(t *testing.T) {
	ctx := context.Background()
	mr, client := newClient(t)
	store := NewAttemptStore(client, time.Minute)

	_ = store.Save(ctx, quizflow.Attempt{ID: "a-2"})
	if err := store.Delete(ctx, "a-2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if mr.Exists("pf:attempt:a-2") {
		t.Fatalf("expected redis key to be removed")
	}
}
