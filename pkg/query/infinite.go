package query

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Page is one fetched slice of a paginated listing.
type Page[T any] struct {
	Items       []T  `json:"items"`
	FilterCount int  `json:"filter_count"`
	TotalPages  int  `json:"total_pages"`
	PageNumber  int  `json:"page_number"` // 1-based
	HasMore     bool `json:"has_more"`
}

// PageFetcher loads the page at the given 0-based index.
type PageFetcher[T any] func(ctx context.Context, pageIndex int) (Page[T], error)

// Infinite is a paginated query over a keyed page sequence. Pages append in
// fetch order and are never reordered, refetched or discarded; navigating
// among already-fetched pages is the caller's concern.
type Infinite[T any] struct {
	store     *Store
	key       Key
	fetcher   PageFetcher[T]
	staleTime time.Duration

	mu       sync.Mutex
	pages    []Page[T]
	loaded   bool
	fetching bool

	// done is closed when the in-flight fetch settles. Non-nil only while
	// fetching is set.
	done chan struct{}
	err  error
}

// NewInfinite creates a paginated query. Page state persists in the store's
// backend under key, so a new instance within the staleness horizon resumes
// the already-fetched sequence.
func NewInfinite[T any](s *Store, key Key, fetcher PageFetcher[T], opts Options) *Infinite[T] {
	staleTime := opts.StaleTime
	if staleTime <= 0 {
		staleTime = s.staleTime
	}
	return &Infinite[T]{
		store:     s,
		key:       key,
		fetcher:   fetcher,
		staleTime: staleTime,
	}
}

// Load ensures the first page is available, serving from cache while fresh.
// It is a no-op once the sequence is loaded; while a load is in flight it
// waits for that load instead of starting another.
func (q *Infinite[T]) Load(ctx context.Context) error {
	q.mu.Lock()
	if q.loaded {
		q.mu.Unlock()
		return nil
	}
	if q.fetching {
		done := q.done
		q.mu.Unlock()
		return waitSettled(ctx, done)
	}
	q.fetching = true
	q.done = make(chan struct{})
	q.mu.Unlock()

	defer q.clearFetching()

	keyStr := q.key.String()
	if q.store.fresh(keyStr, q.staleTime) {
		if data, err := q.store.backend.Get(ctx, keyStr); err == nil {
			var pages []Page[T]
			if err := json.Unmarshal(data, &pages); err == nil && len(pages) > 0 {
				q.mu.Lock()
				q.pages = pages
				q.loaded = true
				q.err = nil
				q.mu.Unlock()
				return nil
			}
		}
	}

	return q.fetchPage(ctx, 0)
}

// FetchNext fetches the next page. While a fetch is already in flight it
// waits for that fetch to settle without starting another; when the last
// known page reports no more it is a no-op.
func (q *Infinite[T]) FetchNext(ctx context.Context) error {
	q.mu.Lock()
	if q.fetching {
		done := q.done
		q.mu.Unlock()
		return waitSettled(ctx, done)
	}
	if len(q.pages) > 0 && !q.pages[len(q.pages)-1].HasMore {
		q.mu.Unlock()
		return nil
	}
	pageIndex := len(q.pages)
	q.fetching = true
	q.done = make(chan struct{})
	q.mu.Unlock()

	defer q.clearFetching()
	return q.fetchPage(ctx, pageIndex)
}

// waitSettled blocks until the observed fetch settles or ctx is cancelled.
func waitSettled(ctx context.Context, done <-chan struct{}) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// fetchPage loads one page, appends it and persists the sequence.
func (q *Infinite[T]) fetchPage(ctx context.Context, pageIndex int) error {
	keyStr := q.key.String()

	q.store.mu.Lock()
	entry := q.store.state(keyStr)
	entry.status = StatusPending
	q.store.mu.Unlock()

	page, err := q.fetcher(ctx, pageIndex)

	q.store.mu.Lock()
	entry = q.store.state(keyStr)
	if err != nil {
		entry.status = StatusError
		entry.err = err
	} else {
		entry.status = StatusSuccess
		entry.err = nil
		entry.updatedAt = time.Now()
	}
	q.store.mu.Unlock()

	q.mu.Lock()
	if err != nil {
		q.err = err
		q.mu.Unlock()
		return err
	}
	q.pages = append(q.pages, page)
	q.loaded = true
	q.err = nil
	pages := make([]Page[T], len(q.pages))
	copy(pages, q.pages)
	q.mu.Unlock()

	if data, marshalErr := json.Marshal(pages); marshalErr == nil {
		_ = q.store.backend.Set(ctx, keyStr, data, q.staleTime+gcGrace)
	}
	return nil
}

func (q *Infinite[T]) clearFetching() {
	q.mu.Lock()
	q.fetching = false
	close(q.done)
	q.done = nil
	q.mu.Unlock()
}

// Pages returns a snapshot of the fetched page sequence in fetch order.
func (q *Infinite[T]) Pages() []Page[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Page[T], len(q.pages))
	copy(out, q.pages)
	return out
}

// Items returns every fetched item in page order.
func (q *Infinite[T]) Items() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	var items []T
	for _, page := range q.pages {
		items = append(items, page.Items...)
	}
	return items
}

// HasNext reports whether another page can be fetched. Before the first
// Load it is true, since nothing is known yet.
func (q *Infinite[T]) HasNext() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pages) == 0 {
		return true
	}
	return q.pages[len(q.pages)-1].HasMore
}

// IsFetchingNext reports whether a page fetch is in flight.
func (q *Infinite[T]) IsFetchingNext() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.fetching
}

// Stale reports whether the sequence is past its staleness horizon. A
// sequence that never loaded is stale. Long-lived holders should replace a
// stale instance with a fresh one rather than keep serving from it.
func (q *Infinite[T]) Stale() bool {
	return !q.store.fresh(q.key.String(), q.staleTime)
}

// Err returns the last fetch error, nil after a successful fetch.
func (q *Infinite[T]) Err() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.err
}
