package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"pocketflix-portal/internal/domain"
)

// BlobCache keeps fetched blob bytes for a TTL so repeated media requests do not
// hit object storage. Concurrent misses for the same URL share one fetch.
type BlobCache struct {
	fetcher  domain.BlobFetcher
	ttl      time.Duration
	maxBytes int
	clock    func() time.Time
	sf       singleflight.Group
	rnd      *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedBlob
}

type cachedBlob struct {
	data      []byte
	expiresAt time.Time
}

// NewBlobCache wraps fetcher. Objects larger than maxBytes are passed through
// uncached; zero means no limit.
func NewBlobCache(fetcher domain.BlobFetcher, ttl time.Duration, maxBytes int) *BlobCache {
	return &BlobCache{
		fetcher:  fetcher,
		ttl:      ttl,
		maxBytes: maxBytes,
		clock:    time.Now,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:    make(map[string]cachedBlob),
	}
}

func (c *BlobCache) Fetch(ctx context.Context, url string) ([]byte, error) {
	if data, ok := c.lookup(url); ok {
		return data, nil
	}

	result, err, _ := c.sf.Do(url, func() (interface{}, error) {
		// another goroutine may have filled it
		if data, ok := c.lookup(url); ok {
			return data, nil
		}
		data, err := c.fetcher.Fetch(ctx, url)
		if err != nil {
			return nil, err
		}
		if c.ttl > 0 && (c.maxBytes == 0 || len(data) <= c.maxBytes) {
			expiresAt := c.clock().Add(c.ttlWithJitter())
			c.mu.Lock()
			c.cache[url] = cachedBlob{data: data, expiresAt: expiresAt}
			c.mu.Unlock()
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), result.([]byte)...), nil
}

// Forget drops a cached URL, e.g. after the object was replaced.
func (c *BlobCache) Forget(url string) {
	c.mu.Lock()
	delete(c.cache, url)
	c.mu.Unlock()
}

func (c *BlobCache) lookup(url string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[url]
	if !ok || !entry.expiresAt.After(c.clock()) {
		return nil, false
	}
	return entry.data, true
}

func (c *BlobCache) ttlWithJitter() time.Duration {
	// up to 10% jitter spreads expirations
	jitterMax := int64(c.ttl) / 10
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
