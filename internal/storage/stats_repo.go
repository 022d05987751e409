package storage

import (
	"context"
	"fmt"

	"github.com/recipe-finder/internal/model"
)

type StatsRepository struct {
	db *Database
}

func NewStatsRepository(db *Database) *StatsRepository {
	return &StatsRepository{db: db}
}

// Dashboard gathers the admin counters and the five categories with the
// most recipes.
func (r *StatsRepository) Dashboard(ctx context.Context) (*model.DashboardStats, error) {
	var stats model.DashboardStats
	query := `
		SELECT
			(SELECT COUNT(*) FROM users) AS total_users,
			(SELECT COUNT(*) FROM recipes) AS total_recipes,
			(SELECT COUNT(*) FROM categories) AS total_categories,
			(SELECT COUNT(*) FROM recipes WHERE status = 'draft') AS draft_recipes,
			(SELECT COUNT(*) FROM recipes WHERE status = 'published') AS published_recipes,
			(SELECT COUNT(*) FROM recipes WHERE status = 'archived') AS archived_recipes,
			(SELECT COUNT(*) FROM reviews) AS total_reviews`
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("failed to load dashboard counters: %w", err)
	}

	stats.TopCategories = []model.CategoryCount{}
	top := `
		SELECT c.name, COUNT(rc.recipe_id) AS count
		FROM categories c
		LEFT JOIN recipe_categories rc ON c.id = rc.category_id
		GROUP BY c.id, c.name
		ORDER BY count DESC, c.name
		LIMIT 5`
	if err := r.db.SelectContext(ctx, &stats.TopCategories, top); err != nil {
		return nil, fmt.Errorf("failed to load top categories: %w", err)
	}
	return &stats, nil
}
