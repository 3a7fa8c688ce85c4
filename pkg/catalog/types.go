package catalog

import (
	"errors"
	"fmt"
)

// Show is a catalog entry.
type Show struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Description  string  `json:"description,omitempty"`
	ThumbnailSrc string  `json:"thumbnail_src,omitempty"`
	TMDBRating   float64 `json:"tmdb_rating,omitempty"`
	TMDBID       int     `json:"tmdb_id,omitempty"`
	ReleaseDate  string  `json:"release_date,omitempty"`
}

// Review is a user review of a show.
type Review struct {
	ID          string `json:"id,omitempty"`
	ShowID      string `json:"show_id,omitempty"`
	Name        string `json:"name"`
	Title       string `json:"title"`
	Review      string `json:"review"`
	Rating      int    `json:"rating"`
	DateCreated string `json:"date_created,omitempty"`
}

// Category is a curated grouping of shows.
type Category struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Sort        int    `json:"sort"`
}

// categoryCollectionItem is the wire shape of a collection membership row
// with its category projected through the relation.
type categoryCollectionItem struct {
	Sort     int `json:"sort"`
	Category struct {
		ID          string `json:"id"`
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"category_id"`
}

// categoryShowItem is the wire shape of a category membership row with its
// show projected through the relation.
type categoryShowItem struct {
	Show Show `json:"show_id"`
	Sort int  `json:"sort"`
}

// Review validation bounds.
const (
	ReviewTitleMinLength   = 3
	ReviewTitleMaxLength   = 100
	ReviewContentMinLength = 10
	ReviewContentMaxLength = 5000
	ReviewNameMinLength    = 2
	ReviewNameMaxLength    = 50
)

// Validate checks a review before submission. Messages are user-facing.
func (r Review) Validate() error {
	if r.ShowID == "" {
		return errors.New("show id is required")
	}
	if r.Name == "" {
		return errors.New("Name is required")
	}
	if len(r.Name) < ReviewNameMinLength || len(r.Name) > ReviewNameMaxLength {
		return fmt.Errorf("Name must be between %d and %d characters",
			ReviewNameMinLength, ReviewNameMaxLength)
	}
	if r.Title == "" {
		return errors.New("Review title is required")
	}
	if len(r.Title) < ReviewTitleMinLength || len(r.Title) > ReviewTitleMaxLength {
		return fmt.Errorf("Title must be between %d and %d characters",
			ReviewTitleMinLength, ReviewTitleMaxLength)
	}
	if r.Review == "" {
		return errors.New("Review content is required")
	}
	if len(r.Review) < ReviewContentMinLength || len(r.Review) > ReviewContentMaxLength {
		return fmt.Errorf("Review must be between %d and %d characters",
			ReviewContentMinLength, ReviewContentMaxLength)
	}
	if r.Rating < 1 || r.Rating > 5 {
		return errors.New("Rating is required")
	}
	return nil
}
