// Package query memoizes and coordinates concurrent access to endpoint
// calls: keyed caching with a staleness horizon, deduplication of identical
// in-flight requests, and incremental page fetching for listings.
package query

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/showdeck/catalog-client/pkg/cache"
)

// DefaultStaleTime is how long a successful value is considered fresh.
const DefaultStaleTime = 5 * time.Minute

// ErrDisabled is returned by Fetch when the query is disabled; the fetcher
// is never invoked in that case.
var ErrDisabled = errors.New("query disabled")

// Status is the lifecycle state of a cache entry.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// State is a snapshot of one entry's lifecycle.
type State struct {
	Status    Status
	Err       error
	UpdatedAt time.Time
}

// entryState tracks per-key bookkeeping. Successful values live in the
// cache backend; only lifecycle state is held here.
type entryState struct {
	status Status
	err    error

	updatedAt time.Time

	// generation is bumped by Refetch; a flight only applies its result
	// while its generation is still the latest issued one.
	generation uint64
}

// Store is the query cache. Construct one per process (or per test) and
// inject it; there is no package-level instance.
type Store struct {
	mu        sync.Mutex
	states    map[string]*entryState
	flights   singleflight.Group
	backend   cache.Store
	staleTime time.Duration
}

// StoreOption mutates a Store at construction.
type StoreOption func(*Store)

// WithStaleTime overrides the default freshness horizon.
func WithStaleTime(d time.Duration) StoreOption {
	return func(s *Store) { s.staleTime = d }
}

// NewStore creates a query store over the given value cache backend.
// A nil backend uses an in-process memory store.
func NewStore(backend cache.Store, opts ...StoreOption) *Store {
	if backend == nil {
		backend = cache.NewMemory(0)
	}
	s := &Store{
		states:    make(map[string]*entryState),
		backend:   backend,
		staleTime: DefaultStaleTime,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the lifecycle snapshot for key.
func (s *Store) State(key Key) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.states[key.String()]
	if !ok {
		return State{Status: StatusIdle}
	}
	return State{Status: entry.status, Err: entry.err, UpdatedAt: entry.updatedAt}
}

// Invalidate drops the entry for key so the next Fetch goes to the network.
func (s *Store) Invalidate(ctx context.Context, key Key) error {
	s.mu.Lock()
	delete(s.states, key.String())
	s.mu.Unlock()
	return s.backend.Invalidate(ctx, key.String())
}

// InvalidateAll drops every entry.
func (s *Store) InvalidateAll(ctx context.Context) error {
	s.mu.Lock()
	s.states = make(map[string]*entryState)
	s.mu.Unlock()
	return s.backend.InvalidateAll(ctx)
}

// StaleTime returns the store's freshness horizon.
func (s *Store) StaleTime() time.Duration {
	return s.staleTime
}

// state returns the entry for key, creating it on first access.
// Caller holds the lock.
func (s *Store) state(key string) *entryState {
	entry, ok := s.states[key]
	if !ok {
		entry = &entryState{status: StatusIdle}
		s.states[key] = entry
	}
	return entry
}

// fresh reports whether key's value is within its staleness horizon.
func (s *Store) fresh(key string, staleTime time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.states[key]
	if !ok || entry.status != StatusSuccess {
		return false
	}
	return time.Since(entry.updatedAt) < staleTime
}
