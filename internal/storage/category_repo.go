package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/recipe-finder/internal/model"
)

type CategoryRepository struct {
	db *Database
}

func NewCategoryRepository(db *Database) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// List returns every category with its derived recipe count, by name.
func (r *CategoryRepository) List(ctx context.Context) ([]model.Category, error) {
	categories := []model.Category{}
	query := `
		SELECT c.id, c.name, c.created_at, COUNT(rc.recipe_id) AS recipe_count
		FROM categories c
		LEFT JOIN recipe_categories rc ON c.id = rc.category_id
		GROUP BY c.id
		ORDER BY c.name`
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (r *CategoryRepository) Create(ctx context.Context, name string) (*model.Category, error) {
	var category model.Category
	query := `INSERT INTO categories (name) VALUES ($1) RETURNING id, name, created_at`
	if err := r.db.QueryRowxContext(ctx, query, name).StructScan(&category); err != nil {
		if isUniqueViolation(err) {
			return nil, model.ErrDuplicateCategory
		}
		if wide := tooLong(err); wide != nil {
			return nil, wide
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return &category, nil
}

func (r *CategoryRepository) Rename(ctx context.Context, id int64, name string) (*model.Category, error) {
	var category model.Category
	query := `UPDATE categories SET name = $1 WHERE id = $2 RETURNING id, name, created_at`
	if err := r.db.QueryRowxContext(ctx, query, name, id).StructScan(&category); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, model.ErrDuplicateCategory
		}
		if wide := tooLong(err); wide != nil {
			return nil, wide
		}
		return nil, fmt.Errorf("failed to rename category: %w", err)
	}
	return &category, nil
}

// Delete drops the category's recipe associations and then the category,
// atomically.
func (r *CategoryRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_categories WHERE category_id = $1`, id); err != nil {
			return fmt.Errorf("failed to remove category associations: %w", err)
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete category: %w", err)
		}
		return requireAffected(result)
	})
}
