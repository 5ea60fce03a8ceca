package querycache

import (
	"context"
	"sync"
	"time"
)

type Status string

const (
	// StatusPending means no data has been resolved yet (including disabled queries).
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Entry is what a Store keeps per key. Data is the JSON encoding of the query result.
type Entry struct {
	Key       Key
	Status    Status
	Data      []byte
	Err       string
	UpdatedAt time.Time
	Stale     bool
	// Gen is the generation read before the fetch that produced the entry.
	Gen uint64
}

// Store persists cache entries. Implementations must be safe for concurrent use.
//
// Every key belongs to a family named by its first element, and each family carries
// an invalidation generation. Set stores the entry stale when entry.Gen no longer
// matches, so a fetch that raced an invalidation is never served as fresh.
type Store interface {
	Get(ctx context.Context, key Key) (Entry, bool, error)
	Set(ctx context.Context, entry Entry) error
	// Invalidate bumps the generation covering prefix, marks every entry whose key has
	// the given prefix stale and returns those keys.
	Invalidate(ctx context.Context, prefix Key) ([]Key, error)
	Generation(ctx context.Context, key Key) (uint64, error)
}

// Family is the generation bucket of a key. The empty prefix bumps AllFamilies,
// which every key's generation includes.
func Family(k Key) string {
	if len(k) == 0 {
		return AllFamilies
	}
	return k[0]
}

const AllFamilies = "*"

// Notifier is implemented by stores shared between processes. Remote invalidations
// are delivered on the returned channel until ctx is done.
type Notifier interface {
	Notifications(ctx context.Context) (<-chan []Key, error)
}

// MemoryStore is the process-local Store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
	gens    map[string]uint64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry), gens: make(map[string]uint64)}
}

func (s *MemoryStore) Generation(_ context.Context, key Key) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation(key), nil
}

func (s *MemoryStore) generation(key Key) uint64 {
	return s.gens[Family(key)] + s.gens[AllFamilies]
}

func (s *MemoryStore) Get(_ context.Context, key Key) (Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key.String()]
	return e, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, entry Entry) error {
	s.mu.Lock()
	if entry.Gen != s.generation(entry.Key) {
		entry.Stale = true
	}
	s.entries[entry.Key.String()] = entry
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Invalidate(_ context.Context, prefix Key) ([]Key, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gens[Family(prefix)]++
	var hit []Key
	for id, e := range s.entries {
		if !e.Key.HasPrefix(prefix) {
			continue
		}
		e.Stale = true
		s.entries[id] = e
		hit = append(hit, e.Key)
	}
	return hit, nil
}
