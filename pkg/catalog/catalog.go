// Package catalog exposes the typed resource endpoints of the movie review
// CMS: category collections, category show listings (paged and unpaged),
// show lookup and reviews. Each operation shapes one request descriptor and
// delegates to the transport; errors propagate untouched.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sort"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/showdeck/catalog-client/pkg/client"
	"github.com/showdeck/catalog-client/pkg/query"
)

// Paging defaults for category show listings.
const (
	DefaultShowsLimit = 50
	ShowsPerPage      = 6
	reviewsLimit      = 50
)

// Service is the typed endpoint layer over the CMS transport.
type Service struct {
	client *client.Client
	logger zerolog.Logger
}

// New creates a catalog service over the given transport.
func New(c *client.Client) *Service {
	return &Service{
		client: c,
		logger: log.With().Str("component", "catalog").Logger(),
	}
}

// CategoryCollection returns the categories of a named collection, sorted
// ascending by their sort field. An empty collection is a NotFoundError.
func (s *Service) CategoryCollection(ctx context.Context, slug string) ([]Category, error) {
	env, err := s.client.Get(ctx, "/items/category_collection_category", client.Params{
		Fields: []string{
			"sort",
			"category_id.id",
			"category_id.title",
			"category_id.description",
		},
		Filter: client.Rel("category_collection_id", client.Eq("slug", slug)),
		Sort:   []string{"sort"},
		Meta:   []string{"filter_count"},
	})
	if err != nil {
		return nil, err
	}

	var items []categoryCollectionItem
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &items); err != nil {
			return nil, fmt.Errorf("decode category collection: %w", err)
		}
	}
	if len(items) == 0 {
		return nil, client.NotFound("Category collection not found")
	}

	categories := make([]Category, 0, len(items))
	for _, item := range items {
		categories = append(categories, Category{
			ID:          item.Category.ID,
			Title:       item.Category.Title,
			Description: item.Category.Description,
			Sort:        item.Sort,
		})
	}
	sort.SliceStable(categories, func(i, j int) bool {
		return categories[i].Sort < categories[j].Sort
	})
	return categories, nil
}

// ShowsOptions controls an unpaged category shows fetch.
type ShowsOptions struct {
	Limit  int // default DefaultShowsLimit
	Offset int
}

// CategoryShows returns shows in a category, best-rated first within the
// curated sort order, plus the count metadata of the listing.
func (s *Service) CategoryShows(ctx context.Context, categoryID string, opts ShowsOptions) ([]Show, *client.Meta, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultShowsLimit
	}

	env, err := s.client.Get(ctx, "/items/category_show", client.Params{
		Fields: []string{
			"show_id.id",
			"show_id.title",
			"show_id.thumbnail_src",
			"show_id.tmdb_rating",
			"show_id.release_date",
			"sort",
		},
		Filter: client.Rel("category_id", client.Eq("id", categoryID)),
		Sort:   []string{"sort", "-show_id.tmdb_rating"},
		Limit:  limit,
		Offset: opts.Offset,
		Meta:   []string{"total_count", "filter_count"},
	})
	if err != nil {
		return nil, nil, err
	}

	var items []categoryShowItem
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &items); err != nil {
			return nil, nil, fmt.Errorf("decode category shows: %w", err)
		}
	}

	shows := make([]Show, 0, len(items))
	for _, item := range items {
		shows = append(shows, item.Show)
	}
	return shows, env.Meta, nil
}

// CategoryShowsPage fetches one fixed-size page of a category's shows.
// pageIndex is 0-based; the returned page number is 1-based.
func (s *Service) CategoryShowsPage(ctx context.Context, categoryID string, pageIndex int) (query.Page[Show], error) {
	shows, meta, err := s.CategoryShows(ctx, categoryID, ShowsOptions{
		Limit:  ShowsPerPage,
		Offset: pageIndex * ShowsPerPage,
	})
	if err != nil {
		return query.Page[Show]{}, err
	}

	filterCount := 0
	if meta != nil {
		filterCount = meta.FilterCount
	}
	totalPages := int(math.Ceil(float64(filterCount) / float64(ShowsPerPage)))
	currentPage := pageIndex + 1

	return query.Page[Show]{
		Items:       shows,
		FilterCount: filterCount,
		TotalPages:  totalPages,
		PageNumber:  currentPage,
		HasMore:     currentPage < totalPages,
	}, nil
}

// ShowByID returns a single show. Absence is a NotFoundError.
func (s *Service) ShowByID(ctx context.Context, showID string) (Show, error) {
	env, err := s.client.Get(ctx, "/items/show/"+showID, client.Params{
		Fields: []string{
			"id",
			"title",
			"description",
			"thumbnail_src",
			"tmdb_rating",
			"tmdb_id",
			"release_date",
		},
	})
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return Show{}, client.NotFound("Show not found")
		}
		return Show{}, err
	}

	var show Show
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &show); err != nil {
			return Show{}, fmt.Errorf("decode show: %w", err)
		}
	}
	if show.ID == "" {
		return Show{}, client.NotFound("Show not found")
	}
	return show, nil
}

// ReviewsByShow returns up to 50 of the show's most recent reviews,
// newest first.
func (s *Service) ReviewsByShow(ctx context.Context, showID string) ([]Review, *client.Meta, error) {
	env, err := s.client.Get(ctx, "/items/review", client.Params{
		Fields: []string{
			"id",
			"title",
			"review",
			"rating",
			"name",
			"date_created",
		},
		Filter: client.Eq("show_id", showID),
		Sort:   []string{"-date_created"},
		Limit:  reviewsLimit,
		Meta:   []string{"total_count"},
	})
	if err != nil {
		return nil, nil, err
	}

	var reviews []Review
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &reviews); err != nil {
			return nil, nil, fmt.Errorf("decode reviews: %w", err)
		}
	}
	return reviews, env.Meta, nil
}

// CreateReview validates and submits a new review. Success is signaled by
// the persisted entity coming back non-empty.
func (s *Service) CreateReview(ctx context.Context, review Review) (Review, error) {
	if err := review.Validate(); err != nil {
		return Review{}, &client.APIError{Message: err.Error()}
	}

	env, err := s.client.Post(ctx, "/items/review", review)
	if err != nil {
		return Review{}, err
	}

	var created Review
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &created); err != nil {
			return Review{}, fmt.Errorf("decode created review: %w", err)
		}
	}
	if created.ID == "" && created.Title == "" {
		return Review{}, &client.APIError{Message: "Review was not created"}
	}

	s.logger.Debug().
		Str("show_id", review.ShowID).
		Int("rating", review.Rating).
		Msg("Review created")
	return created, nil
}
