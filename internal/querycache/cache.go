// Package querycache is the process-wide read cache. Reads populate it through Query;
// the only way to change an entry afterwards is Invalidate.
package querycache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Options configures a single read.
type Options struct {
	Key Key
	// Enabled gates the fetch. A disabled query resolves to StatusPending, never to an error.
	Enabled bool
	// Retry is the number of extra attempts after a failed fetch.
	Retry int
	// StaleTime is how long a successful entry is served without refetching. Zero always refetches.
	StaleTime time.Duration
	// Wait bounds how long the caller blocks on a fetch. Zero waits for the result.
	// When the budget runs out the fetch keeps going and the result reports IsFetching,
	// carrying the last resolved value if one exists and has not been invalidated.
	Wait time.Duration
}

// Result is the observable state of a read.
type Result[T any] struct {
	Data       T
	Status     Status
	Err        error
	IsFetched  bool
	IsFetching bool
	UpdatedAt  time.Time
}

// IsLoading reports a first load still in flight.
func (r Result[T]) IsLoading() bool {
	return r.Status == StatusPending && r.IsFetching
}

func (r Result[T]) IsError() bool { return r.Status == StatusError }

func (r Result[T]) IsSuccess() bool { return r.Status == StatusSuccess }

// Event is broadcast after an invalidation.
type Event struct {
	Prefixes []Key     `json:"prefixes"`
	Keys     []Key     `json:"keys"`
	At       time.Time `json:"at"`
	Remote   bool      `json:"remote"`
}

// Cache coordinates fetches, invalidation and subscribers over a Store.
type Cache struct {
	store      Store
	retryDelay time.Duration
	now        func() time.Time
	logger     *slog.Logger
	sf         singleflight.Group

	mu          sync.Mutex
	seq         uint64
	inflight    map[string]*flight
	subscribers map[chan Event]struct{}
}

// flight is one fetch of a key. A dirty flight was overtaken by an invalidation and
// no longer accepts joiners; a superseded one has been replaced by a newer flight
// and leaves the stored entry alone.
type flight struct {
	key        Key
	sfKey      string
	dirty      bool
	superseded bool
}

type fetched struct {
	value any
	entry Entry
}

// Option customizes a Cache.
type Option func(*Cache)

// WithRetryDelay sets the fixed pause between retry attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Cache) { c.retryDelay = d }
}

// WithClock is used by tests for deterministic staleness.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

func New(store Store, opts ...Option) *Cache {
	c := &Cache{
		store:       store,
		now:         time.Now,
		logger:      slog.Default(),
		inflight:    make(map[string]*flight),
		subscribers: make(map[chan Event]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Query resolves a read through the cache.
func Query[T any](ctx context.Context, c *Cache, opts Options, fetch func(context.Context) (T, error)) Result[T] {
	var res Result[T]
	entry, ok, err := c.store.Get(ctx, opts.Key)
	if err != nil {
		c.logger.Warn("cache read failed", "key", opts.Key.String(), "err", err)
		ok = false
	}

	if !opts.Enabled {
		if ok && entry.Status == StatusSuccess && !entry.Stale {
			return decodeEntry[T](entry)
		}
		res.Status = StatusPending
		return res
	}

	if ok && c.fresh(entry, opts.StaleTime) {
		return decodeEntry[T](entry)
	}

	fl := c.join(opts.Key)
	ch := c.sf.DoChan(fl.sfKey, func() (interface{}, error) {
		return c.run(ctx, opts, fl, func(fctx context.Context) (any, error) {
			return fetch(fctx)
		})
	})

	var timeout <-chan time.Time
	if opts.Wait > 0 {
		timer := time.NewTimer(opts.Wait)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case out := <-ch:
		f, _ := out.Val.(fetched)
		if out.Err != nil {
			res.Status = StatusError
			res.Err = out.Err
			res.IsFetched = true
			res.UpdatedAt = f.entry.UpdatedAt
			return res
		}
		if v, ok := f.value.(T); ok {
			res.Data = v
		}
		res.Status = StatusSuccess
		res.IsFetched = true
		res.UpdatedAt = f.entry.UpdatedAt
		return res
	case <-timeout:
	case <-ctx.Done():
	}
	// out of budget: the last resolved value stands until the refetch lands
	if last, hit, err := c.store.Get(context.WithoutCancel(ctx), opts.Key); err == nil && hit && last.Status == StatusSuccess && !last.Stale {
		res = decodeEntry[T](last)
		res.IsFetching = true
		return res
	}
	res.Status = StatusPending
	res.IsFetching = true
	return res
}

// join returns the flight a read of key should wait on, starting a new one when
// none is running or the running one predates an invalidation.
func (c *Cache) join(key Key) *flight {
	id := key.String()
	c.mu.Lock()
	defer c.mu.Unlock()
	fl := c.inflight[id]
	if fl != nil && !fl.dirty {
		return fl
	}
	if fl != nil {
		fl.superseded = true
	}
	c.seq++
	fl = &flight{key: key, sfKey: id + "#" + strconv.FormatUint(c.seq, 10)}
	c.inflight[id] = fl
	return fl
}

func (c *Cache) markInflight(prefixes []Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, fl := range c.inflight {
		for _, p := range prefixes {
			if fl.key.HasPrefix(p) {
				fl.dirty = true
			}
		}
	}
}

func (c *Cache) fresh(e Entry, staleTime time.Duration) bool {
	if e.Status != StatusSuccess || e.Stale || staleTime <= 0 {
		return false
	}
	return c.now().Sub(e.UpdatedAt) < staleTime
}

// run performs the fetch detached from the caller's cancellation, so a departed
// caller never aborts a fetch that other callers share.
func (c *Cache) run(ctx context.Context, opts Options, fl *flight, fetch func(context.Context) (any, error)) (fetched, error) {
	fctx := context.WithoutCancel(ctx)
	id := opts.Key.String()

	gen, gErr := c.store.Generation(fctx, opts.Key)
	if gErr != nil {
		c.logger.Warn("cache generation read failed", "key", id, "err", gErr)
	}

	var (
		value any
		err   error
	)
	for attempt := 0; attempt <= opts.Retry; attempt++ {
		if attempt > 0 && c.retryDelay > 0 {
			time.Sleep(c.retryDelay)
		}
		value, err = fetch(fctx)
		if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			break
		}
	}

	c.mu.Lock()
	dirty, superseded := fl.dirty, fl.superseded
	if c.inflight[id] == fl {
		delete(c.inflight, id)
	}
	c.mu.Unlock()

	entry := Entry{Key: opts.Key, UpdatedAt: c.now(), Gen: gen, Stale: dirty || gErr != nil}
	if err != nil {
		entry.Status = StatusError
		entry.Err = err.Error()
	} else {
		data, mErr := json.Marshal(value)
		if mErr != nil {
			return fetched{entry: entry}, fmt.Errorf("encode %s: %w", id, mErr)
		}
		entry.Status = StatusSuccess
		entry.Data = data
	}
	if superseded {
		return fetched{value: value, entry: entry}, err
	}
	if sErr := c.store.Set(fctx, entry); sErr != nil {
		c.logger.Warn("cache write failed", "key", id, "err", sErr)
	}
	return fetched{value: value, entry: entry}, err
}

func decodeEntry[T any](e Entry) Result[T] {
	res := Result[T]{Status: StatusSuccess, IsFetched: true, UpdatedAt: e.UpdatedAt}
	if err := json.Unmarshal(e.Data, &res.Data); err != nil {
		res.Status = StatusError
		res.Err = fmt.Errorf("decode %s: %w", e.Key.String(), err)
	}
	return res
}

// Invalidate marks every entry under the given prefixes stale, including fetches
// still in flight, and notifies subscribers.
func (c *Cache) Invalidate(ctx context.Context, prefixes ...Key) error {
	var (
		hit  []Key
		errs []error
	)
	c.markInflight(prefixes)

	for _, p := range prefixes {
		keys, err := c.store.Invalidate(ctx, p)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalidate %s: %w", p.String(), err))
			continue
		}
		hit = append(hit, keys...)
	}
	c.broadcast(Event{Prefixes: prefixes, Keys: hit, At: c.now()})
	return errors.Join(errs...)
}

// Run relays invalidations made by other processes sharing the store. It returns
// immediately when the store is process-local.
func (c *Cache) Run(ctx context.Context) error {
	n, ok := c.store.(Notifier)
	if !ok {
		return nil
	}
	ch, err := n.Notifications(ctx)
	if err != nil {
		return err
	}
	for {
		select {
		case keys, ok := <-ch:
			if !ok {
				return nil
			}
			c.markInflight(keys)
			c.broadcast(Event{Prefixes: keys, At: c.now(), Remote: true})
		case <-ctx.Done():
			return nil
		}
	}
}

// Subscribe returns a channel of invalidation events. The caller must invoke cancel.
func (c *Cache) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 8)
	c.mu.Lock()
	c.subscribers[ch] = struct{}{}
	c.mu.Unlock()

	cancel := func() {
		c.mu.Lock()
		if _, ok := c.subscribers[ch]; ok {
			delete(c.subscribers, ch)
			close(ch)
		}
		c.mu.Unlock()
	}
	return ch, cancel
}

func (c *Cache) broadcast(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for ch := range c.subscribers {
		select {
		case ch <- ev:
		default:
			// slow subscriber: drop its oldest event
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}
