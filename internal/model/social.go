package model

import (
	"time"

	"github.com/lib/pq"
)

type Review struct {
	ID        int64     `json:"id" db:"id"`
	RecipeID  int64     `json:"recipe_id" db:"recipe_id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Username  string    `json:"username" db:"username"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type ReviewRequest struct {
	Content string `json:"content"`
}

type RatingRequest struct {
	Rating int `json:"rating"`
}

// RatingSummary is returned after a rating is recorded.
type RatingSummary struct {
	RecipeID      int64   `json:"recipe_id" db:"recipe_id"`
	Rating        int     `json:"rating" db:"rating"`
	AverageRating float64 `json:"average_rating" db:"average_rating"`
	RatingCount   int     `json:"rating_count" db:"rating_count"`
}

type Collection struct {
	ID          int64         `json:"id" db:"id"`
	UserID      int64         `json:"user_id" db:"user_id"`
	Name        string        `json:"name" db:"name"`
	Description string        `json:"description" db:"description"`
	RecipeIDs   pq.Int64Array `json:"recipe_ids" db:"recipe_ids"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
}

type CollectionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
