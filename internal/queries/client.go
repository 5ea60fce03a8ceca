// Package queries is the read/write façade over the backend actor. Every read goes
// through the query cache under a structured key; every write declares the reads it
// invalidates (see InvalidationSet).
package queries

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"pocketflix-portal/internal/actor"
	"pocketflix-portal/internal/domain"
	qc "pocketflix-portal/internal/querycache"
)

// BlobUploader stores pending blob bytes and returns a resolved reference.
type BlobUploader interface {
	Upload(ctx context.Context, blob domain.ExternalBlob, name string) (domain.ExternalBlob, error)
}

// Config tunes the cache policy applied to reads.
type Config struct {
	// StaleTime is how long a successful read is served from cache.
	StaleTime time.Duration
	// Retry is the number of extra attempts for reads that allow retries.
	Retry int
	// Wait bounds how long a read blocks before reporting itself as still fetching.
	Wait time.Duration
}

// Client issues reads and writes against the actor handed out by the accessor.
type Client struct {
	accessor *actor.Accessor
	cache    *qc.Cache
	uploader BlobUploader
	cfg      Config
	logger   *slog.Logger

	mu      sync.Mutex
	pending map[Op]int
}

func New(accessor *actor.Accessor, cache *qc.Cache, uploader BlobUploader, cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		accessor: accessor,
		cache:    cache,
		uploader: uploader,
		cfg:      cfg,
		logger:   logger,
		pending:  make(map[Op]int),
	}
}

// Cache exposes the underlying cache for subscribers.
func (c *Client) Cache() *qc.Cache { return c.cache }

// Accessor exposes the actor accessor so callers can compose readiness.
func (c *Client) Accessor() *actor.Accessor { return c.accessor }

type readSpec struct {
	key       qc.Key
	noRetry   bool
	staleTime *time.Duration
	// required parameters; an empty one disables the read
	params   []string
	disabled bool
}

func read[T any](ctx context.Context, c *Client, rs readSpec, fetch func(context.Context, actor.Backend) (T, error)) qc.Result[T] {
	enabled := c.accessor.Usable() && !rs.disabled
	for _, p := range rs.params {
		if p == "" {
			enabled = false
		}
	}
	opts := qc.Options{
		Key:       rs.key,
		Enabled:   enabled,
		Retry:     c.cfg.Retry,
		StaleTime: c.cfg.StaleTime,
		Wait:      c.cfg.Wait,
	}
	if rs.noRetry {
		opts.Retry = 0
	}
	if rs.staleTime != nil {
		opts.StaleTime = *rs.staleTime
	}
	return qc.Query(ctx, c.cache, opts, func(ctx context.Context) (T, error) {
		b, ok := c.accessor.Actor()
		if !ok {
			var zero T
			return zero, domain.ErrActorNotReady
		}
		return fetch(ctx, b)
	})
}

// degrade replaces the data of a read that could not run because the actor is not
// ready with an empty collection. Genuine failures are left untouched.
func degrade[T any](res qc.Result[[]T]) qc.Result[[]T] {
	if res.Status == qc.StatusPending && !res.IsFetching && res.Data == nil {
		res.Data = []T{}
	}
	return res
}

func (c *Client) begin(op Op) {
	c.mu.Lock()
	c.pending[op]++
	c.mu.Unlock()
}

func (c *Client) end(op Op) {
	c.mu.Lock()
	c.pending[op]--
	if c.pending[op] <= 0 {
		delete(c.pending, op)
	}
	c.mu.Unlock()
}

// Pending reports whether a write of the given kind is in flight.
func (c *Client) Pending(op Op) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending[op] > 0
}

// mutate runs a write detached from the caller's cancellation and, on success,
// invalidates the write's declared read set.
func mutate[R any](ctx context.Context, c *Client, op Op, fn func(context.Context, actor.Backend) (R, error)) (R, error) {
	var zero R
	b, ok := c.accessor.Actor()
	if !ok {
		return zero, domain.ErrActorNotReady
	}
	c.begin(op)
	defer c.end(op)

	mctx := context.WithoutCancel(ctx)
	out, err := fn(mctx, b)
	if err != nil {
		c.logger.Warn("mutation failed", "op", string(op), "err", err)
		return zero, fmt.Errorf("%s: %w", op, err)
	}
	if err := c.cache.Invalidate(mctx, InvalidationSet(op, actor.CallerFrom(ctx))...); err != nil {
		c.logger.Warn("invalidation failed", "op", string(op), "err", err)
	}
	return out, nil
}

func exec(ctx context.Context, c *Client, op Op, fn func(context.Context, actor.Backend) error) error {
	_, err := mutate(ctx, c, op, func(ctx context.Context, b actor.Backend) (struct{}, error) {
		return struct{}{}, fn(ctx, b)
	})
	return err
}

func (c *Client) upload(ctx context.Context, blob domain.ExternalBlob, name string) (domain.ExternalBlob, error) {
	if !blob.Pending() {
		return blob, nil
	}
	if c.uploader == nil {
		return blob, nil
	}
	up, err := c.uploader.Upload(ctx, blob, name)
	if err != nil {
		return blob, fmt.Errorf("upload %s: %w", name, err)
	}
	return up, nil
}
