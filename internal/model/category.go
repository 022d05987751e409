package model

import "time"

type Category struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	RecipeCount int       `json:"recipe_count" db:"recipe_count"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type CategoryRequest struct {
	Name string `json:"name"`
}

// CategoryCount is one entry of the dashboard's top categories.
type CategoryCount struct {
	Name  string `json:"name" db:"name"`
	Count int    `json:"count" db:"count"`
}

type DashboardStats struct {
	TotalUsers       int             `json:"total_users" db:"total_users"`
	TotalRecipes     int             `json:"total_recipes" db:"total_recipes"`
	TotalCategories  int             `json:"total_categories" db:"total_categories"`
	DraftRecipes     int             `json:"draft_recipes" db:"draft_recipes"`
	PublishedRecipes int             `json:"published_recipes" db:"published_recipes"`
	ArchivedRecipes  int             `json:"archived_recipes" db:"archived_recipes"`
	TotalReviews     int             `json:"total_reviews" db:"total_reviews"`
	TopCategories    []CategoryCount `json:"top_categories" db:"-"`
}
