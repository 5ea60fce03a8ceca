package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	qc "pocketflix-portal/internal/querycache"
)

const (
	queryKeyPrefix      = "pf:q:"
	invalidationChannel = "pf:q:invalidate"
	// generationKey sits outside queryKeyPrefix so prefix scans never see it.
	generationKey = "pf:qgen"
)

// markStale only touches hashes that still exist, so an entry that expired between
// SCAN and the update is not resurrected as a bare {stale:1} hash.
var markStale = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	redis.call("HSET", KEYS[1], "stale", "1")
	return 1
end
return 0
`)

// setEntry writes an entry, forcing stale=1 when the family generation moved since
// the fetch began. The check and the write must stay atomic.
var setEntry = redis.NewScript(`
local cur = tonumber(redis.call("HGET", KEYS[2], ARGV[1]) or "0") + tonumber(redis.call("HGET", KEYS[2], "*") or "0")
local stale = ARGV[7]
if cur ~= tonumber(ARGV[2]) then
	stale = "1"
end
redis.call("DEL", KEYS[1])
redis.call("HSET", KEYS[1], "status", ARGV[3], "data", ARGV[4], "err", ARGV[5], "updated", ARGV[6], "stale", stale)
if tonumber(ARGV[8]) > 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[8])
end
return stale
`)

// QueryStore shares the query cache between portal instances.
// Each entry is a hash:  HSET pf:q:{key} status data err updated stale
// Family generations live in the hash pf:qgen.
// Invalidations are published on pf:q:invalidate so other instances can tell their
// subscribers.
type QueryStore struct {
	client *redis.Client
	ttl    time.Duration
	origin string
	logger *slog.Logger
}

var (
	_ qc.Store    = (*QueryStore)(nil)
	_ qc.Notifier = (*QueryStore)(nil)
)

type invalidationMessage struct {
	Origin   string   `json:"origin"`
	Prefixes []string `json:"prefixes"`
}

// NewQueryStore keeps entries for ttl after their last write; zero keeps them forever.
func NewQueryStore(client *redis.Client, ttl time.Duration, logger *slog.Logger) *QueryStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryStore{client: client, ttl: ttl, origin: uuid.NewString(), logger: logger}
}

func (s *QueryStore) Get(ctx context.Context, key qc.Key) (qc.Entry, bool, error) {
	fields, err := s.client.HGetAll(ctx, s.redisKey(key)).Result()
	if err != nil {
		return qc.Entry{}, false, err
	}
	if len(fields) == 0 {
		return qc.Entry{}, false, nil
	}
	entry := qc.Entry{
		Key:    key,
		Status: qc.Status(fields["status"]),
		Data:   []byte(fields["data"]),
		Err:    fields["err"],
		Stale:  fields["stale"] == "1",
	}
	if ns, err := strconv.ParseInt(fields["updated"], 10, 64); err == nil {
		entry.UpdatedAt = time.Unix(0, ns)
	}
	return entry, true, nil
}

func (s *QueryStore) Generation(ctx context.Context, key qc.Key) (uint64, error) {
	vals, err := s.client.HMGet(ctx, generationKey, qc.Family(key), qc.AllFamilies).Result()
	if err != nil {
		return 0, err
	}
	var gen uint64
	for _, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		n, err := strconv.ParseUint(str, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse generation %q: %w", str, err)
		}
		gen += n
	}
	return gen, nil
}

func (s *QueryStore) Set(ctx context.Context, entry qc.Entry) error {
	stale := "0"
	if entry.Stale {
		stale = "1"
	}
	return setEntry.Run(ctx, s.client, []string{s.redisKey(entry.Key), generationKey},
		qc.Family(entry.Key),
		strconv.FormatUint(entry.Gen, 10),
		string(entry.Status),
		entry.Data,
		entry.Err,
		strconv.FormatInt(entry.UpdatedAt.UnixNano(), 10),
		stale,
		s.ttl.Milliseconds(),
	).Err()
}

// Invalidate marks the exact key and every key beneath it stale, then publishes the
// prefix for other instances.
func (s *QueryStore) Invalidate(ctx context.Context, prefix qc.Key) ([]qc.Key, error) {
	// bump first: a write landing after this is stored stale, one landing before is
	// caught by the scan below
	if err := s.client.HIncrBy(ctx, generationKey, qc.Family(prefix), 1).Err(); err != nil {
		return nil, fmt.Errorf("bump generation %s: %w", prefix.String(), err)
	}

	var hit []qc.Key
	candidates := []string{s.redisKey(prefix)}

	pattern := queryKeyPrefix + "*"
	if len(prefix) > 0 {
		// Key.String never emits glob metacharacters.
		pattern = s.redisKey(prefix) + "/*"
	}
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		candidates = append(candidates, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", pattern, err)
	}

	seen := make(map[string]struct{}, len(candidates))
	for _, rk := range candidates {
		if _, dup := seen[rk]; dup {
			continue
		}
		seen[rk] = struct{}{}
		n, err := markStale.Run(ctx, s.client, []string{rk}).Int()
		if err != nil {
			return hit, fmt.Errorf("mark %s stale: %w", rk, err)
		}
		if n == 0 {
			continue
		}
		k, err := qc.ParseKey(rk[len(queryKeyPrefix):])
		if err != nil {
			s.logger.Warn("skipping malformed cache key", "key", rk, "err", err)
			continue
		}
		hit = append(hit, k)
	}

	msg, _ := json.Marshal(invalidationMessage{Origin: s.origin, Prefixes: []string{prefix.String()}})
	if err := s.client.Publish(ctx, invalidationChannel, msg).Err(); err != nil {
		return hit, fmt.Errorf("publish invalidation: %w", err)
	}
	return hit, nil
}

// Notifications delivers prefixes invalidated by other instances until ctx is done.
func (s *QueryStore) Notifications(ctx context.Context) (<-chan []qc.Key, error) {
	sub := s.client.Subscribe(ctx, invalidationChannel)
	// wait for the subscription confirmation so no message is missed after return
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", invalidationChannel, err)
	}

	out := make(chan []qc.Key, 16)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-msgs:
				if !ok {
					return
				}
				keys, err := s.decode(m.Payload)
				if err != nil {
					s.logger.Warn("bad invalidation message", "err", err)
					continue
				}
				if keys == nil {
					continue
				}
				select {
				case out <- keys:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// decode returns nil for messages this instance published itself.
func (s *QueryStore) decode(payload string) ([]qc.Key, error) {
	var msg invalidationMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		return nil, err
	}
	if msg.Origin == s.origin {
		return nil, nil
	}
	keys := make([]qc.Key, 0, len(msg.Prefixes))
	var errs []error
	for _, p := range msg.Prefixes {
		k, err := qc.ParseKey(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		keys = append(keys, k)
	}
	return keys, errors.Join(errs...)
}

func (s *QueryStore) redisKey(k qc.Key) string {
	return queryKeyPrefix + k.String()
}
