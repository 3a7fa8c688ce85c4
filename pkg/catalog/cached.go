package catalog

import (
	"context"

	"github.com/showdeck/catalog-client/pkg/query"
)

// CachedService wraps the endpoint layer in the query cache: keyed
// memoization with a staleness horizon, request deduplication, and
// incremental pagination for category show listings.
type CachedService struct {
	svc   *Service
	store *query.Store
}

// NewCached creates a cached catalog service over the given query store.
func NewCached(svc *Service, store *query.Store) *CachedService {
	return &CachedService{svc: svc, store: store}
}

// Store exposes the underlying query store for state inspection and
// invalidation.
func (c *CachedService) Store() *query.Store {
	return c.store
}

// CategoryCollection returns the cached categories of a collection.
func (c *CachedService) CategoryCollection(ctx context.Context, slug string) ([]Category, error) {
	return query.Fetch(ctx, c.store, query.NewKey("categoryCollection", slug),
		func(ctx context.Context) ([]Category, error) {
			return c.svc.CategoryCollection(ctx, slug)
		}, query.Options{})
}

// CategoryShows returns the cached unpaged show listing of a category.
func (c *CachedService) CategoryShows(ctx context.Context, categoryID string) ([]Show, error) {
	return query.Fetch(ctx, c.store, query.NewKey("categoryShows", categoryID),
		func(ctx context.Context) ([]Show, error) {
			shows, _, err := c.svc.CategoryShows(ctx, categoryID, ShowsOptions{})
			return shows, err
		}, query.Options{})
}

// CategoryShowsPaginated returns the incremental page sequence for a
// category's shows. Instances with the same category share cached pages
// through the store.
func (c *CachedService) CategoryShowsPaginated(categoryID string) *query.Infinite[Show] {
	key := query.NewKey("categoryShows", categoryID, "paginated")
	return query.NewInfinite(c.store, key,
		func(ctx context.Context, pageIndex int) (query.Page[Show], error) {
			return c.svc.CategoryShowsPage(ctx, categoryID, pageIndex)
		}, query.Options{})
}

// Show returns the cached show for an id.
func (c *CachedService) Show(ctx context.Context, showID string) (Show, error) {
	return query.Fetch(ctx, c.store, query.NewKey("show", showID),
		func(ctx context.Context) (Show, error) {
			return c.svc.ShowByID(ctx, showID)
		}, query.Options{})
}

// Reviews returns the cached reviews of a show, newest first.
func (c *CachedService) Reviews(ctx context.Context, showID string) ([]Review, error) {
	return query.Fetch(ctx, c.store, query.NewKey("reviews", showID),
		func(ctx context.Context) ([]Review, error) {
			reviews, _, err := c.svc.ReviewsByShow(ctx, showID)
			return reviews, err
		}, query.Options{})
}

// SubmitReview creates a review and invalidates the show's cached review
// list so the next read includes it.
func (c *CachedService) SubmitReview(ctx context.Context, review Review) (Review, error) {
	created, err := c.svc.CreateReview(ctx, review)
	if err != nil {
		return Review{}, err
	}
	_ = c.store.Invalidate(ctx, query.NewKey("reviews", review.ShowID))
	return created, nil
}
