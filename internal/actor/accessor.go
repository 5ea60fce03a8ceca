package actor

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Dialer establishes a backend handle.
type Dialer func(ctx context.Context) (Backend, error)

// Accessor hands out the backend handle once it is established.
// Until then Actor reports not-ready, which callers treat as pending rather than failed.
type Accessor struct {
	dial      Dialer
	retryWait time.Duration
	logger    *slog.Logger

	mu       sync.RWMutex
	handle   Backend
	fetching bool
	started  bool
	ready    chan struct{}
}

func NewAccessor(dial Dialer, retryWait time.Duration, logger *slog.Logger) *Accessor {
	if logger == nil {
		logger = slog.Default()
	}
	if retryWait <= 0 {
		retryWait = time.Second
	}
	return &Accessor{
		dial:      dial,
		retryWait: retryWait,
		logger:    logger,
		ready:     make(chan struct{}),
	}
}

// Ready wraps an already established handle.
func Ready(b Backend) *Accessor {
	a := NewAccessor(nil, 0, nil)
	a.handle = b
	a.started = true
	close(a.ready)
	return a
}

// Start begins establishing the handle in the background. It is a no-op after the first call.
func (a *Accessor) Start(ctx context.Context) {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return
	}
	a.started = true
	a.fetching = true
	a.mu.Unlock()

	go a.connect(ctx)
}

func (a *Accessor) connect(ctx context.Context) {
	for attempt := 1; ; attempt++ {
		handle, err := a.dial(ctx)
		if err == nil {
			a.mu.Lock()
			a.handle = handle
			a.fetching = false
			a.mu.Unlock()
			close(a.ready)
			a.logger.Info("actor ready", "attempts", attempt)
			return
		}
		a.logger.Warn("actor dial failed", "attempt", attempt, "err", err)

		select {
		case <-ctx.Done():
			a.mu.Lock()
			a.fetching = false
			a.mu.Unlock()
			return
		case <-time.After(a.retryWait):
		}
	}
}

// Actor returns the handle, or nil and false while it is not established.
func (a *Accessor) Actor() (Backend, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.handle, a.handle != nil
}

// Fetching reports whether the handle is still being established.
func (a *Accessor) Fetching() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.fetching
}

// Usable is the uniform enablement predicate: handle present and not being re-established.
func (a *Accessor) Usable() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.handle != nil && !a.fetching
}

// Wait blocks until the handle is ready or ctx is done.
func (a *Accessor) Wait(ctx context.Context) (Backend, error) {
	select {
	case <-a.ready:
		b, _ := a.Actor()
		return b, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
