package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/recipe-finder/internal/model"
)

// SocialRepository persists favorites, ratings, reviews and collections.
// Every row is owned by a (user, recipe) pair or by a user.
type SocialRepository struct {
	db *Database
}

func NewSocialRepository(db *Database) *SocialRepository {
	return &SocialRepository{db: db}
}

// requirePublished reports drafts and archived recipes as missing, the way
// the public recipe reads do.
func requirePublished(ctx context.Context, q sqlx.QueryerContext, recipeID int64) error {
	var visible bool
	query := `SELECT EXISTS (SELECT 1 FROM recipes WHERE id = $1 AND status = $2)`
	if err := sqlx.GetContext(ctx, q, &visible, query, recipeID, string(model.RecipeStatusPublished)); err != nil {
		return fmt.Errorf("failed to check recipe: %w", err)
	}
	if !visible {
		return model.ErrNotFound
	}
	return nil
}

// AddFavorite is idempotent.
func (r *SocialRepository) AddFavorite(ctx context.Context, userID, recipeID int64) error {
	if err := requirePublished(ctx, r.db, recipeID); err != nil {
		return err
	}
	query := `INSERT INTO favorites (user_id, recipe_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, userID, recipeID); err != nil {
		if isForeignKeyViolation(err) {
			return model.ErrNotFound
		}
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

func (r *SocialRepository) RemoveFavorite(ctx context.Context, userID, recipeID int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM favorites WHERE user_id = $1 AND recipe_id = $2`, userID, recipeID)
	if err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	return requireAffected(result)
}

// Rate records or replaces the caller's rating and returns the recipe's
// new average.
func (r *SocialRepository) Rate(ctx context.Context, userID, recipeID int64, rating int) (*model.RatingSummary, error) {
	summary := model.RatingSummary{RecipeID: recipeID, Rating: rating}
	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := requirePublished(ctx, tx, recipeID); err != nil {
			return err
		}
		upsert := `
			INSERT INTO ratings (user_id, recipe_id, rating)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id, recipe_id) DO UPDATE
			SET rating = EXCLUDED.rating, updated_at = CURRENT_TIMESTAMP`
		if _, err := tx.ExecContext(ctx, upsert, userID, recipeID, rating); err != nil {
			if isForeignKeyViolation(err) {
				return model.ErrNotFound
			}
			return fmt.Errorf("failed to save rating: %w", err)
		}

		agg := `SELECT COALESCE(AVG(rating)::float8, 0) AS average_rating, COUNT(*) AS rating_count FROM ratings WHERE recipe_id = $1`
		if err := tx.QueryRowxContext(ctx, agg, recipeID).Scan(&summary.AverageRating, &summary.RatingCount); err != nil {
			return fmt.Errorf("failed to aggregate ratings: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

const reviewColumns = `rv.id, rv.recipe_id, rv.user_id, u.username, rv.content, rv.created_at, rv.updated_at`

func (r *SocialRepository) ListReviews(ctx context.Context, recipeID int64) ([]model.Review, error) {
	if err := requirePublished(ctx, r.db, recipeID); err != nil {
		return nil, err
	}
	reviews := []model.Review{}
	query := `
		SELECT ` + reviewColumns + `
		FROM reviews rv
		JOIN users u ON u.id = rv.user_id
		WHERE rv.recipe_id = $1
		ORDER BY rv.created_at DESC, rv.id DESC`
	if err := r.db.SelectContext(ctx, &reviews, query, recipeID); err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

func (r *SocialRepository) CreateReview(ctx context.Context, recipeID, userID int64, content string) (*model.Review, error) {
	if err := requirePublished(ctx, r.db, recipeID); err != nil {
		return nil, err
	}
	var review model.Review
	query := `
		WITH rv AS (
			INSERT INTO reviews (recipe_id, user_id, content)
			VALUES ($1, $2, $3)
			RETURNING *
		)
		SELECT ` + reviewColumns + ` FROM rv JOIN users u ON u.id = rv.user_id`
	if err := r.db.QueryRowxContext(ctx, query, recipeID, userID, content).StructScan(&review); err != nil {
		if isForeignKeyViolation(err) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}
	return &review, nil
}

// UpdateReview only matches the author's own review.
func (r *SocialRepository) UpdateReview(ctx context.Context, id, userID int64, content string) (*model.Review, error) {
	var review model.Review
	query := `
		WITH rv AS (
			UPDATE reviews SET content = $1, updated_at = CURRENT_TIMESTAMP
			WHERE id = $2 AND user_id = $3
			RETURNING *
		)
		SELECT ` + reviewColumns + ` FROM rv JOIN users u ON u.id = rv.user_id`
	if err := r.db.QueryRowxContext(ctx, query, content, id, userID).StructScan(&review); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFoundOrUnauthorized
		}
		return nil, fmt.Errorf("failed to update review: %w", err)
	}
	return &review, nil
}

func (r *SocialRepository) DeleteReview(ctx context.Context, id, userID int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	return requireAffectedOr(result, model.ErrNotFoundOrUnauthorized)
}

const collectionSelect = `
	SELECT c.id, c.user_id, c.name, c.description, c.created_at, c.updated_at,
		COALESCE(array_agg(cr.recipe_id ORDER BY cr.added_at) FILTER (WHERE cr.recipe_id IS NOT NULL), '{}') AS recipe_ids
	FROM collections c
	LEFT JOIN collection_recipes cr ON cr.collection_id = c.id`

func (r *SocialRepository) ListCollections(ctx context.Context, userID int64) ([]model.Collection, error) {
	collections := []model.Collection{}
	query := collectionSelect + `
	WHERE c.user_id = $1
	GROUP BY c.id
	ORDER BY c.created_at DESC, c.id DESC`
	if err := r.db.SelectContext(ctx, &collections, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	return collections, nil
}

func (r *SocialRepository) findCollection(ctx context.Context, id, userID int64) (*model.Collection, error) {
	var collection model.Collection
	query := collectionSelect + `
	WHERE c.id = $1 AND c.user_id = $2
	GROUP BY c.id`
	if err := r.db.GetContext(ctx, &collection, query, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFoundOrUnauthorized
		}
		return nil, fmt.Errorf("failed to find collection: %w", err)
	}
	return &collection, nil
}

func (r *SocialRepository) CreateCollection(ctx context.Context, userID int64, name, description string) (*model.Collection, error) {
	var collection model.Collection
	query := `
		INSERT INTO collections (user_id, name, description)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, name, description, created_at, updated_at, '{}'::bigint[] AS recipe_ids`
	if err := r.db.QueryRowxContext(ctx, query, userID, name, description).StructScan(&collection); err != nil {
		if wide := tooLong(err); wide != nil {
			return nil, wide
		}
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}
	return &collection, nil
}

func (r *SocialRepository) UpdateCollection(ctx context.Context, id, userID int64, name, description string) (*model.Collection, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE collections SET name = $1, description = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $3 AND user_id = $4`, name, description, id, userID)
	if err != nil {
		if wide := tooLong(err); wide != nil {
			return nil, wide
		}
		return nil, fmt.Errorf("failed to update collection: %w", err)
	}
	if err := requireAffectedOr(result, model.ErrNotFoundOrUnauthorized); err != nil {
		return nil, err
	}
	return r.findCollection(ctx, id, userID)
}

func (r *SocialRepository) DeleteCollection(ctx context.Context, id, userID int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM collections WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	return requireAffectedOr(result, model.ErrNotFoundOrUnauthorized)
}

// AddToCollection is a no-op when the recipe is already in the collection.
func (r *SocialRepository) AddToCollection(ctx context.Context, id, userID, recipeID int64) (*model.Collection, error) {
	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		var owned int64
		if err := tx.GetContext(ctx, &owned,
			`SELECT id FROM collections WHERE id = $1 AND user_id = $2 FOR UPDATE`, id, userID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return model.ErrNotFoundOrUnauthorized
			}
			return fmt.Errorf("failed to check collection owner: %w", err)
		}
		if err := requirePublished(ctx, tx, recipeID); err != nil {
			return err
		}
		query := `INSERT INTO collection_recipes (collection_id, recipe_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
		if _, err := tx.ExecContext(ctx, query, id, recipeID); err != nil {
			if isForeignKeyViolation(err) {
				return model.ErrNotFound
			}
			return fmt.Errorf("failed to add recipe to collection: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.findCollection(ctx, id, userID)
}

func (r *SocialRepository) RemoveFromCollection(ctx context.Context, id, userID, recipeID int64) (*model.Collection, error) {
	query := `
		DELETE FROM collection_recipes cr
		USING collections c
		WHERE cr.collection_id = c.id AND c.id = $1 AND c.user_id = $2 AND cr.recipe_id = $3`
	result, err := r.db.ExecContext(ctx, query, id, userID, recipeID)
	if err != nil {
		return nil, fmt.Errorf("failed to remove recipe from collection: %w", err)
	}
	if err := requireAffectedOr(result, model.ErrNotFoundOrUnauthorized); err != nil {
		return nil, err
	}
	return r.findCollection(ctx, id, userID)
}
