package sessionstate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/VyaparLabs/OrderDesk/internal/pkg/cache"
)

// Session-scoped state that must survive watcher restarts within a session
// but not forever: the first-load flag and the per-order fingerprint map.
// Keys expire after SessionTTL of inactivity.
const SessionTTL = 12 * time.Hour

// Store persists two independent state slices in Redis: a scalar first-load
// flag and a per-order fingerprint hash. When Redis becomes unavailable the
// store degrades to in-memory-only for the rest of the session; it never
// fails the caller.
type Store struct {
	scope string

	mu           sync.Mutex
	degraded     bool
	firstLoad    bool
	fingerprints map[string]string
}

// NewStore creates a state store under the given scope prefix.
func NewStore(scope string) *Store {
	return &Store{
		scope:        scope,
		fingerprints: make(map[string]string),
	}
}

// NewMemoryStore creates a store that never touches Redis. State lives for
// the process lifetime only.
func NewMemoryStore(scope string) *Store {
	return &Store{
		scope:        scope,
		degraded:     true,
		fingerprints: make(map[string]string),
	}
}

func (s *Store) flagKey() string {
	return fmt.Sprintf("%s:first_load", s.scope)
}

func (s *Store) hashKey() string {
	return fmt.Sprintf("%s:fingerprints", s.scope)
}

// markDegraded flips the store to in-memory-only. Logged once.
func (s *Store) markDegraded(err error) {
	if !s.degraded {
		log.Warnf("[SessionState] Redis unavailable, degrading to in-memory state: %v", err)
		s.degraded = true
	}
}

// FirstLoadDone reports whether the watcher already completed its first load
// within this session.
func (s *Store) FirstLoadDone() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.degraded {
		return s.firstLoad
	}

	ctx := context.Background()
	val, err := cache.GetClient().Get(ctx, s.flagKey()).Result()
	if err != nil {
		if err != redis.Nil {
			s.markDegraded(err)
		}
		return s.firstLoad
	}
	s.firstLoad = val == "1"
	return s.firstLoad
}

// SetFirstLoadDone persists the first-load flag. The write happens
// synchronously within the caller's handler invocation.
func (s *Store) SetFirstLoadDone() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.firstLoad = true
	if s.degraded {
		return
	}

	ctx := context.Background()
	if err := cache.GetClient().Set(ctx, s.flagKey(), "1", SessionTTL).Err(); err != nil {
		s.markDegraded(err)
	}
}

// GetFingerprint returns the stored fingerprint for an order, or "" when the
// order was never observed.
func (s *Store) GetFingerprint(orderUUID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.degraded {
		return s.fingerprints[orderUUID]
	}

	ctx := context.Background()
	val, err := cache.GetClient().HGet(ctx, s.hashKey(), orderUUID).Result()
	if err != nil {
		if err != redis.Nil {
			s.markDegraded(err)
			return s.fingerprints[orderUUID]
		}
		return ""
	}
	s.fingerprints[orderUUID] = val
	return val
}

// SetFingerprint overwrites the stored fingerprint for an order. Mirrors to
// the in-memory map so a later degradation keeps the session's view.
func (s *Store) SetFingerprint(orderUUID, fingerprint string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fingerprints[orderUUID] = fingerprint
	if s.degraded {
		return
	}

	ctx := context.Background()
	pipe := cache.GetClient().Pipeline()
	pipe.HSet(ctx, s.hashKey(), orderUUID, fingerprint)
	pipe.Expire(ctx, s.hashKey(), SessionTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		s.markDegraded(err)
	}
}

// DeleteFingerprint removes the tracking entry for an order.
func (s *Store) DeleteFingerprint(orderUUID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.fingerprints, orderUUID)
	if s.degraded {
		return
	}

	ctx := context.Background()
	if err := cache.GetClient().HDel(ctx, s.hashKey(), orderUUID).Err(); err != nil {
		s.markDegraded(err)
	}
}

// TrackedOrders returns the UUIDs of all orders with a stored fingerprint.
// Used by the reconciliation pass to garbage collect stale trackers.
func (s *Store) TrackedOrders() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.degraded {
		ctx := context.Background()
		all, err := cache.GetClient().HGetAll(ctx, s.hashKey()).Result()
		if err != nil {
			s.markDegraded(err)
		} else {
			s.fingerprints = all
		}
	}

	uuids := make([]string, 0, len(s.fingerprints))
	for uuid := range s.fingerprints {
		uuids = append(uuids, uuid)
	}
	return uuids
}

// Reset drops all state for the scope (used by tests and fresh sessions).
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.firstLoad = false
	s.fingerprints = make(map[string]string)
	if s.degraded {
		return
	}

	ctx := context.Background()
	if err := cache.GetClient().Del(ctx, s.flagKey(), s.hashKey()).Err(); err != nil {
		s.markDegraded(err)
	}
}
