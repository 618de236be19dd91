package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// FetchFunc loads the value for a cache key from the authority.
type FetchFunc func(ctx context.Context) (any, error)

// Snapshot is what a view observes for a key: the cached value, whether a
// fetch has confirmed it, and whether one is currently in flight.
type Snapshot struct {
	Data    any
	Err     error
	Fetched bool
	Loading bool
	Stale   bool
}

type cacheEntry struct {
	data      any
	err       error
	fetched   bool
	loading   bool
	fetchedAt time.Time
	version   uint64
}

// SyncStore is the process-scoped synchronization cache. It deduplicates
// concurrent identical fetches (single-flight per key), applies time-based
// staleness per key, and applies event-based invalidation strictly after a
// mutation's success. It never retries a failed fetch in the background; an
// errored entry becomes eligible again only on the next explicit read.
type SyncStore struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	group   singleflight.Group
	now     func() time.Time
}

func NewSyncStore() *SyncStore {
	return &SyncStore{
		entries: make(map[string]*cacheEntry),
		now:     time.Now,
	}
}

func (s *SyncStore) entryLocked(key string) *cacheEntry {
	e, ok := s.entries[key]
	if !ok {
		e = &cacheEntry{}
		s.entries[key] = e
	}
	return e
}

func (s *SyncStore) staleLocked(e *cacheEntry, ttl time.Duration) bool {
	if !e.fetched {
		return true
	}
	if e.fetchedAt.IsZero() {
		// Invalidated while the fetch was in flight.
		return true
	}
	if ttl <= 0 {
		return false
	}
	return s.now().Sub(e.fetchedAt) > ttl
}

// Read returns the cached value for key, fetching it first when the entry is
// missing, stale, errored or invalidated. Concurrent reads for the same key
// share one underlying remote call. ttl <= 0 means the entry only goes stale
// through invalidation.
func (s *SyncStore) Read(ctx context.Context, key string, ttl time.Duration, fetch FetchFunc) Snapshot {
	s.mu.Lock()
	e := s.entryLocked(key)
	if e.fetched && e.err == nil && !s.staleLocked(e, ttl) {
		snap := Snapshot{Data: e.data, Fetched: true, Loading: e.loading}
		s.mu.Unlock()
		return snap
	}
	orig := e
	startVersion := e.version
	e.loading = true
	s.mu.Unlock()

	// The flight is shared by every concurrent reader of the key, so it must
	// not die with the first reader's request. The caller identity in ctx is
	// preserved, its cancellation is not.
	fetchCtx := context.WithoutCancel(ctx)
	data, err, _ := s.group.Do(key, func() (any, error) {
		return fetch(fetchCtx)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	e = s.entryLocked(key)
	e.loading = false
	e.data = data
	e.err = err
	e.fetched = true
	if e == orig && e.version == startVersion {
		e.fetchedAt = s.now()
	} else {
		// The key was invalidated after this fetch began. The caller still
		// observes the result, but the entry stays eligible for refetch.
		e.fetchedAt = time.Time{}
	}
	return Snapshot{Data: data, Err: err, Fetched: true, Stale: e.fetchedAt.IsZero()}
}

// Invalidate marks each named key, and every key beneath it, as no longer
// servable from cache. Hierarchy is by ":" separators, so invalidating
// "participants" covers "participants:match-42".
func (s *SyncStore) Invalidate(keys ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		prefix := key + ":"
		for existing, e := range s.entries {
			if existing == key || strings.HasPrefix(existing, prefix) {
				e.version++
				e.fetched = false
				e.data = nil
				e.err = nil
				e.fetchedAt = time.Time{}
			}
		}
	}
}

// MutationFunc is a remote mutation. No local state is touched before it
// confirms; there is nothing optimistic to roll back on failure.
type MutationFunc func(ctx context.Context) error

// Mutate runs op and, only on success, invalidates the keys the mutation can
// affect. Invalidation happens strictly after the mutation completes and
// before any subsequent Read can serve those keys from cache. A started
// mutation runs to completion even if the initiating request goes away; the
// caller identity in ctx is preserved, its cancellation is not.
func (s *SyncStore) Mutate(ctx context.Context, op MutationFunc, invalidates ...string) error {
	if err := op(context.WithoutCancel(ctx)); err != nil {
		return err
	}
	s.Invalidate(invalidates...)
	return nil
}

// Clear drops every entry. Called on logout: the store's lifecycle is the
// session's.
func (s *SyncStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		e.version++
	}
	s.entries = make(map[string]*cacheEntry)
}

// StaleKeys returns the keys under root whose entries have gone time-stale,
// for interval-driven refresh while live views depend on them.
func (s *SyncStore) StaleKeys(root string, ttl time.Duration) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := root + ":"
	var out []string
	for key, e := range s.entries {
		if key != root && !strings.HasPrefix(key, prefix) {
			continue
		}
		if e.fetched && e.err == nil && s.staleLocked(e, ttl) {
			out = append(out, key)
		}
	}
	return out
}
