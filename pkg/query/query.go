package query

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Fetcher loads the value for one key.
type Fetcher[T any] func(ctx context.Context) (T, error)

// Options configures a single query call.
type Options struct {
	// StaleTime overrides the store's freshness horizon. Zero uses the
	// store default.
	StaleTime time.Duration

	// Disabled short-circuits the call without invoking the fetcher.
	Disabled bool
}

// Fetch returns the cached value for key while it is fresh; otherwise it
// invokes fetcher, caches the result and returns it. Concurrent calls for
// the same key share one underlying fetch.
func Fetch[T any](ctx context.Context, s *Store, key Key, fetcher Fetcher[T], opts Options) (T, error) {
	var zero T
	if opts.Disabled {
		return zero, ErrDisabled
	}

	staleTime := opts.StaleTime
	if staleTime <= 0 {
		staleTime = s.staleTime
	}
	keyStr := key.String()

	if s.fresh(keyStr, staleTime) {
		if value, ok := peek[T](ctx, s, keyStr); ok {
			return value, nil
		}
		// Backend evicted the value under us; fall through to a fetch.
	}

	s.mu.Lock()
	entry := s.state(keyStr)
	generation := entry.generation
	s.mu.Unlock()

	return runFlight(ctx, s, keyStr, generation, staleTime, fetcher)
}

// Refetch forces a new fetch regardless of freshness. The prior value stays
// visible until the new result lands, and a superseded in-flight result is
// never applied over a newer one.
func Refetch[T any](ctx context.Context, s *Store, key Key, fetcher Fetcher[T], opts Options) (T, error) {
	var zero T
	if opts.Disabled {
		return zero, ErrDisabled
	}

	staleTime := opts.StaleTime
	if staleTime <= 0 {
		staleTime = s.staleTime
	}
	keyStr := key.String()

	s.mu.Lock()
	entry := s.state(keyStr)
	entry.generation++
	generation := entry.generation
	s.mu.Unlock()

	return runFlight(ctx, s, keyStr, generation, staleTime, fetcher)
}

// Peek returns the cached value for key if one exists, fresh or stale.
// It never triggers a fetch.
func Peek[T any](ctx context.Context, s *Store, key Key) (T, bool) {
	return peek[T](ctx, s, key.String())
}

func peek[T any](ctx context.Context, s *Store, keyStr string) (T, bool) {
	var zero T
	data, err := s.backend.Get(ctx, keyStr)
	if err != nil {
		return zero, false
	}
	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return zero, false
	}
	return value, true
}

// runFlight executes one deduplicated fetch for (key, generation) and
// applies the result unless a newer generation has been issued meanwhile.
func runFlight[T any](ctx context.Context, s *Store, keyStr string, generation uint64, staleTime time.Duration, fetcher Fetcher[T]) (T, error) {
	var zero T

	s.mu.Lock()
	entry := s.state(keyStr)
	entry.status = StatusPending
	s.mu.Unlock()

	flightKey := keyStr + "#" + strconv.FormatUint(generation, 10)
	result, err, _ := s.flights.Do(flightKey, func() (any, error) {
		return fetcher(ctx)
	})

	s.mu.Lock()
	entry = s.state(keyStr)
	superseded := generation != entry.generation
	if !superseded {
		if err != nil {
			entry.status = StatusError
			entry.err = err
		} else {
			entry.status = StatusSuccess
			entry.err = nil
			entry.updatedAt = time.Now()
		}
	}
	s.mu.Unlock()

	if err != nil {
		return zero, err
	}

	value, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("unexpected flight result type %T", result)
	}

	if !superseded {
		if data, marshalErr := json.Marshal(value); marshalErr == nil {
			// Values are kept past their staleness horizon so a refetch can
			// serve the prior value until the new one resolves.
			_ = s.backend.Set(ctx, keyStr, data, staleTime+gcGrace)
		}
	}
	return value, nil
}

// gcGrace keeps stale values around after the staleness horizon for
// stale-while-revalidate reads before the backend drops them.
const gcGrace = 5 * time.Minute
