package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/recipe-finder/internal/model"
)

// recipeSelect builds the aggregated read model. The category join
// multiplies rows, so the query groups per recipe and gathers categories
// into duplicate-free arrays. Recipes without categories survive the left
// joins and get empty arrays.
const recipeSelect = `
	SELECT r.id, r.title, r.description, r.ingredients, r.instructions,
		r.cooking_time, r.servings, r.difficulty_level, r.image_url, r.status,
		r.user_id, r.created_at, r.updated_at,
		u.username AS author,
		COALESCE(array_agg(DISTINCT c.name) FILTER (WHERE c.id IS NOT NULL), '{}') AS categories,
		COALESCE(array_agg(DISTINCT c.id) FILTER (WHERE c.id IS NOT NULL), '{}') AS category_ids,
		COALESCE((SELECT AVG(rt.rating)::float8 FROM ratings rt WHERE rt.recipe_id = r.id), 0) AS average_rating,
		(SELECT COUNT(*) FROM ratings rt WHERE rt.recipe_id = r.id) AS rating_count
	FROM recipes r
	LEFT JOIN users u ON r.user_id = u.id
	LEFT JOIN recipe_categories rc ON r.id = rc.recipe_id
	LEFT JOIN categories c ON rc.category_id = c.id`

type RecipeRepository struct {
	db *Database
}

func NewRecipeRepository(db *Database) *RecipeRepository {
	return &RecipeRepository{db: db}
}

// List runs the aggregation query, newest first.
func (r *RecipeRepository) List(ctx context.Context, filter model.RecipeFilter) ([]model.Recipe, error) {
	query, args := buildRecipeQuery(filter)

	recipes := []model.Recipe{}
	if err := r.db.SelectContext(ctx, &recipes, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	for i := range recipes {
		recipes[i].Normalize()
	}
	return recipes, nil
}

// FindByID returns nil when no recipe matches. A non-empty status narrows
// the match to recipes in that status.
func (r *RecipeRepository) FindByID(ctx context.Context, id int64, status model.RecipeStatus) (*model.Recipe, error) {
	recipes, err := r.List(ctx, model.RecipeFilter{ID: id, Status: status})
	if err != nil {
		return nil, err
	}
	if len(recipes) == 0 {
		return nil, nil
	}
	return &recipes[0], nil
}

func buildRecipeQuery(f model.RecipeFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.ID > 0 {
		conds = append(conds, "r.id = "+arg(f.ID))
	}
	if f.Status != "" {
		conds = append(conds, "r.status = "+arg(string(f.Status)))
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		p := arg("%" + escapeLike(q) + "%")
		conds = append(conds, fmt.Sprintf(
			"(r.title ILIKE %[1]s OR r.description ILIKE %[1]s OR array_to_string(r.ingredients, ' ') ILIKE %[1]s)", p))
	}
	if f.Difficulty != "" {
		conds = append(conds, "r.difficulty_level = "+arg(string(f.Difficulty)))
	}
	if f.MaxCookingTime > 0 {
		conds = append(conds, "r.cooking_time <= "+arg(f.MaxCookingTime))
	}
	if f.MinServings > 0 {
		conds = append(conds, "r.servings >= "+arg(f.MinServings))
	}
	if f.CategoryID > 0 {
		conds = append(conds, "EXISTS (SELECT 1 FROM recipe_categories fc WHERE fc.recipe_id = r.id AND fc.category_id = "+arg(f.CategoryID)+")")
	}
	if f.AuthorID > 0 {
		conds = append(conds, "r.user_id = "+arg(f.AuthorID))
	}
	if f.FavoriteOf > 0 {
		conds = append(conds, "EXISTS (SELECT 1 FROM favorites fv WHERE fv.recipe_id = r.id AND fv.user_id = "+arg(f.FavoriteOf)+")")
	}

	var b strings.Builder
	b.WriteString(recipeSelect)
	if len(conds) > 0 {
		b.WriteString("\n\tWHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}
	b.WriteString("\n\tGROUP BY r.id, u.username\n\tORDER BY r.created_at DESC, r.id DESC")
	if f.Limit > 0 {
		b.WriteString(" LIMIT " + arg(f.Limit))
	}
	if f.Offset > 0 {
		b.WriteString(" OFFSET " + arg(f.Offset))
	}
	return b.String(), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Create inserts the recipe and its category associations in one
// transaction and returns the new id.
func (r *RecipeRepository) Create(ctx context.Context, userID int64, f model.RecipeFields) (int64, error) {
	var id int64
	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO recipes (title, description, ingredients, instructions, cooking_time,
				servings, difficulty_level, image_url, status, user_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id`
		err := tx.QueryRowxContext(ctx, query,
			f.Title, f.Description, pq.StringArray(f.Ingredients), pq.StringArray(f.Instructions),
			f.CookingTime, f.Servings, string(f.DifficultyLevel), f.ImageURL, string(f.Status), userID,
		).Scan(&id)
		if err != nil {
			if wide := tooLong(err); wide != nil {
				return wide
			}
			return fmt.Errorf("failed to create recipe: %w", err)
		}
		return linkCategories(ctx, tx, id, f.CategoryIDs)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Update rewrites a recipe. With ownerID > 0 the statement only matches the
// owner's row and a miss is reported as model.ErrNotFoundOrUnauthorized;
// with ownerID == 0 it is unscoped and a miss is model.ErrNotFound. When
// f.ImageURL replaces an existing image the previous reference is returned
// so the caller can release it.
func (r *RecipeRepository) Update(ctx context.Context, id, ownerID int64, f model.RecipeFields) (*string, error) {
	var previous *string
	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		args := []any{
			f.Title, f.Description, pq.StringArray(f.Ingredients), pq.StringArray(f.Instructions),
			f.CookingTime, f.Servings, string(f.DifficultyLevel), f.ImageURL, string(f.Status), id,
		}
		scope := ""
		if ownerID > 0 {
			args = append(args, ownerID)
			scope = " AND r.user_id = $11"
		}
		query := `
			UPDATE recipes r
			SET title = $1, description = $2, ingredients = $3, instructions = $4,
				cooking_time = $5, servings = $6, difficulty_level = $7,
				image_url = COALESCE($8, r.image_url),
				status = COALESCE(NULLIF($9, ''), r.status),
				updated_at = CURRENT_TIMESTAMP
			FROM (SELECT id, image_url FROM recipes WHERE id = $10 FOR UPDATE) old
			WHERE r.id = old.id` + scope + `
			RETURNING old.image_url`

		var old sql.NullString
		if err := tx.QueryRowxContext(ctx, query, args...).Scan(&old); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return missing(ownerID)
			}
			if wide := tooLong(err); wide != nil {
				return wide
			}
			return fmt.Errorf("failed to update recipe: %w", err)
		}
		if f.ImageURL != nil && old.Valid && old.String != *f.ImageURL {
			previous = &old.String
		}

		if !f.ReplaceCategories {
			return nil
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_categories WHERE recipe_id = $1`, id); err != nil {
			return fmt.Errorf("failed to clear recipe categories: %w", err)
		}
		return linkCategories(ctx, tx, id, f.CategoryIDs)
	})
	if err != nil {
		return nil, err
	}
	return previous, nil
}

// Delete removes a recipe, scoped like Update, and returns its image
// reference if it had one. Associations go with it through ON DELETE CASCADE.
func (r *RecipeRepository) Delete(ctx context.Context, id, ownerID int64) (*string, error) {
	query := `DELETE FROM recipes WHERE id = $1 RETURNING image_url`
	args := []any{id}
	if ownerID > 0 {
		query = `DELETE FROM recipes WHERE id = $1 AND user_id = $2 RETURNING image_url`
		args = append(args, ownerID)
	}

	var image sql.NullString
	if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&image); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, missing(ownerID)
		}
		return nil, fmt.Errorf("failed to delete recipe: %w", err)
	}
	if !image.Valid {
		return nil, nil
	}
	return &image.String, nil
}

func (r *RecipeRepository) UpdateStatus(ctx context.Context, id int64, status model.RecipeStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE recipes SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`, string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update recipe status: %w", err)
	}
	return requireAffected(result)
}

// ReferencedImages lists every image reference still held by a recipe.
func (r *RecipeRepository) ReferencedImages(ctx context.Context) ([]string, error) {
	var urls []string
	if err := r.db.SelectContext(ctx, &urls, `SELECT image_url FROM recipes WHERE image_url IS NOT NULL`); err != nil {
		return nil, fmt.Errorf("failed to list referenced images: %w", err)
	}
	return urls, nil
}

func linkCategories(ctx context.Context, tx *sqlx.Tx, recipeID int64, categoryIDs []int64) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	query := `
		INSERT INTO recipe_categories (recipe_id, category_id)
		SELECT $1, unnest($2::bigint[])
		ON CONFLICT DO NOTHING`
	if _, err := tx.ExecContext(ctx, query, recipeID, pq.Array(categoryIDs)); err != nil {
		if isForeignKeyViolation(err) {
			return model.ErrUnknownCategory
		}
		return fmt.Errorf("failed to link categories: %w", err)
	}
	return nil
}

func missing(ownerID int64) error {
	if ownerID > 0 {
		return model.ErrNotFoundOrUnauthorized
	}
	return model.ErrNotFound
}
