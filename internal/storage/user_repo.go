package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/recipe-finder/internal/model"
)

const userColumns = `id, username, email, password, is_admin, created_at`

type UserRepository struct {
	db *Database
}

func NewUserRepository(db *Database) *UserRepository {
	return &UserRepository{db: db}
}

// ExistsByEmailOrUsername reports whether either identifier is taken.
func (r *UserRepository) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 OR username = $2)`
	if err := r.db.GetContext(ctx, &exists, query, email, username); err != nil {
		return false, fmt.Errorf("failed to check existing user: %w", err)
	}
	return exists, nil
}

func (r *UserRepository) Create(ctx context.Context, username, email, passwordHash string) (*model.User, error) {
	var user model.User
	query := `
		INSERT INTO users (username, email, password)
		VALUES ($1, $2, $3)
		RETURNING ` + userColumns
	err := r.db.QueryRowxContext(ctx, query, username, email, passwordHash).StructScan(&user)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, model.ErrDuplicateUser
		}
		if wide := tooLong(err); wide != nil {
			return nil, wide
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// FindRegularByEmail only matches accounts without admin rights.
func (r *UserRepository) FindRegularByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1 AND is_admin = false`, email)
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg any) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user, query, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

// IsAdmin reads the current admin flag. A missing user is not an admin.
func (r *UserRepository) IsAdmin(ctx context.Context, id int64) (bool, error) {
	var isAdmin bool
	err := r.db.GetContext(ctx, &isAdmin, `SELECT is_admin FROM users WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read admin flag: %w", err)
	}
	return isAdmin, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET password = $1 WHERE id = $2`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return requireAffected(result)
}

// UpsertAdmin creates an administrator or, when the email is already
// registered, resets that account's password and grants admin rights.
func (r *UserRepository) UpsertAdmin(ctx context.Context, username, email, passwordHash string) (*model.User, error) {
	var user model.User
	query := `
		INSERT INTO users (username, email, password, is_admin)
		VALUES ($1, $2, $3, true)
		ON CONFLICT (email) DO UPDATE
		SET password = EXCLUDED.password, is_admin = true
		RETURNING ` + userColumns
	err := r.db.QueryRowxContext(ctx, query, username, email, passwordHash).StructScan(&user)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, model.ErrDuplicateUser
		}
		if wide := tooLong(err); wide != nil {
			return nil, wide
		}
		return nil, fmt.Errorf("failed to upsert admin: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) ListWithRecipeCount(ctx context.Context) ([]model.UserSummary, error) {
	users := []model.UserSummary{}
	query := `
		SELECT u.id, u.username, u.email, u.is_admin, u.created_at,
			(SELECT COUNT(*) FROM recipes WHERE user_id = u.id) AS recipe_count
		FROM users u
		ORDER BY u.created_at DESC`
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (r *UserRepository) SetAdmin(ctx context.Context, id int64, isAdmin bool) (*model.User, error) {
	var user model.User
	query := `UPDATE users SET is_admin = $1 WHERE id = $2 RETURNING ` + userColumns
	err := r.db.QueryRowxContext(ctx, query, isAdmin, id).StructScan(&user)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update admin status: %w", err)
	}
	return &user, nil
}

func requireAffected(result sql.Result) error {
	return requireAffectedOr(result, model.ErrNotFound)
}

// requireAffectedOr returns miss when the statement touched no rows.
func requireAffectedOr(result sql.Result, miss error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return miss
	}
	return nil
}
