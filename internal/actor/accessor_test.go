package actor_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"pocketflix-portal/internal/actor"
	"pocketflix-portal/internal/backend"
	"pocketflix-portal/internal/infra/memory"
)

func TestAccessorRetriesUntilDialSucceeds(t *testing.T) {
	svc := backend.NewService(memory.NewRepository())
	var calls atomic.Int32
	release := make(chan struct{})
	a := actor.NewAccessor(func(ctx context.Context) (actor.Backend, error) {
		if calls.Add(1) < 3 {
			return nil, errors.New("replica not reachable")
		}
		<-release
		return svc, nil
	}, 5*time.Millisecond, nil)

	if _, ok := a.Actor(); ok {
		t.Fatalf("expected no actor before start")
	}
	if a.Usable() {
		t.Fatalf("expected accessor unusable before start")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a.Start(ctx)
	a.Start(ctx)
	if !a.Fetching() {
		t.Fatalf("expected fetching after start")
	}
	close(release)

	waitCtx, waitCancel := context.WithTimeout(ctx, 2*time.Second)
	defer waitCancel()
	b, err := a.Wait(waitCtx)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if b != svc {
		t.Fatalf("expected dialed backend")
	}
	if a.Fetching() || !a.Usable() {
		t.Fatalf("expected usable accessor, fetching=%v", a.Fetching())
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("expected 3 dial attempts, got %d", got)
	}
}

func TestAccessorStopsRetryingOnCancel(t *testing.T) {
	a := actor.NewAccessor(func(ctx context.Context) (actor.Backend, error) {
		return nil, errors.New("down")
	}, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	a.Start(ctx)
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for a.Fetching() {
		if time.Now().After(deadline) {
			t.Fatalf("accessor still fetching after cancel")
		}
		time.Sleep(time.Millisecond)
	}
	if a.Usable() {
		t.Fatalf("expected unusable accessor")
	}

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer waitCancel()
	if _, err := a.Wait(waitCtx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestReadyAndCaller(t *testing.T) {
	svc := backend.NewService(memory.NewRepository())
	a := actor.Ready(svc)
	if !a.Usable() {
		t.Fatalf("expected ready accessor to be usable")
	}

	ctx := actor.WithCaller(context.Background(), "aaaa-bbbb")
	if got := actor.CallerFrom(ctx); got != "aaaa-bbbb" {
		t.Fatalf("unexpected caller %q", got)
	}
	if got := actor.CallerFrom(context.Background()); got != "" {
		t.Fatalf("expected anonymous caller, got %q", got)
	}
}
