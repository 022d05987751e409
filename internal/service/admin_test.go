package service

import (
	"context"
	"strings"
	"testing"

	"github.com/recipe-finder/internal/model"
	"github.com/recipe-finder/internal/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCategoryStore struct {
	listFn   func(ctx context.Context) ([]model.Category, error)
	createFn func(ctx context.Context, name string) (*model.Category, error)
	renameFn func(ctx context.Context, id int64, name string) (*model.Category, error)
	deleteFn func(ctx context.Context, id int64) error
}

func (m *mockCategoryStore) List(ctx context.Context) ([]model.Category, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockCategoryStore) Create(ctx context.Context, name string) (*model.Category, error) {
	if m.createFn != nil {
		return m.createFn(ctx, name)
	}
	return &model.Category{ID: 1, Name: name}, nil
}

func (m *mockCategoryStore) Rename(ctx context.Context, id int64, name string) (*model.Category, error) {
	if m.renameFn != nil {
		return m.renameFn(ctx, id, name)
	}
	return &model.Category{ID: id, Name: name}, nil
}

func (m *mockCategoryStore) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

type mockUserDirectory struct {
	listFn     func(ctx context.Context) ([]model.UserSummary, error)
	setAdminFn func(ctx context.Context, id int64, isAdmin bool) (*model.User, error)
}

func (m *mockUserDirectory) ListWithRecipeCount(ctx context.Context) ([]model.UserSummary, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockUserDirectory) SetAdmin(ctx context.Context, id int64, isAdmin bool) (*model.User, error) {
	if m.setAdminFn != nil {
		return m.setAdminFn(ctx, id, isAdmin)
	}
	return &model.User{ID: id, IsAdmin: isAdmin}, nil
}

type statsFunc func(ctx context.Context) (*model.DashboardStats, error)

func (f statsFunc) Dashboard(ctx context.Context) (*model.DashboardStats, error) { return f(ctx) }

type sweeperFunc func(ctx context.Context) (*scheduler.SweepResult, error)

func (f sweeperFunc) RunOnce(ctx context.Context) (*scheduler.SweepResult, error) { return f(ctx) }

func newAdminService(categories *mockCategoryStore, users *mockUserDirectory) *AdminService {
	stats := statsFunc(func(context.Context) (*model.DashboardStats, error) {
		return &model.DashboardStats{TotalRecipes: 3}, nil
	})
	sweeper := sweeperFunc(func(context.Context) (*scheduler.SweepResult, error) {
		return &scheduler.SweepResult{Scanned: 2}, nil
	})
	return NewAdminService(categories, users, stats, sweeper)
}

func TestAdminService_Categories(t *testing.T) {
	var renamed string
	categories := &mockCategoryStore{
		renameFn: func(_ context.Context, id int64, name string) (*model.Category, error) {
			if id == 404 {
				return nil, model.ErrNotFound
			}
			renamed = name
			return &model.Category{ID: id, Name: name}, nil
		},
	}
	svc := newAdminService(categories, &mockUserDirectory{})
	ctx := context.Background()

	list, err := svc.Categories(ctx)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	_, err = svc.CreateCategory(ctx, model.CategoryRequest{Name: "   "})
	assert.ErrorIs(t, err, model.ErrMissingField)

	_, err = svc.CreateCategory(ctx, model.CategoryRequest{Name: strings.Repeat("c", 101)})
	assert.ErrorIs(t, err, model.ErrFieldTooLong)
	assert.True(t, model.IsValidation(err))

	created, err := svc.CreateCategory(ctx, model.CategoryRequest{Name: " Dessert "})
	require.NoError(t, err)
	assert.Equal(t, "Dessert", created.Name)

	_, err = svc.RenameCategory(ctx, 404, model.CategoryRequest{Name: "Soup"})
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = svc.RenameCategory(ctx, 2, model.CategoryRequest{Name: strings.Repeat("s", 101)})
	assert.ErrorIs(t, err, model.ErrFieldTooLong)

	_, err = svc.RenameCategory(ctx, 2, model.CategoryRequest{Name: "Soups"})
	require.NoError(t, err)
	assert.Equal(t, "Soups", renamed)
}

func TestAdminService_SetAdmin(t *testing.T) {
	var gotFlag *bool
	users := &mockUserDirectory{
		setAdminFn: func(_ context.Context, id int64, isAdmin bool) (*model.User, error) {
			gotFlag = &isAdmin
			return &model.User{ID: id, IsAdmin: isAdmin}, nil
		},
	}
	svc := newAdminService(&mockCategoryStore{}, users)
	ctx := context.Background()

	_, err := svc.SetAdmin(ctx, 2, model.UpdateUserStatusRequest{})
	assert.ErrorIs(t, err, model.ErrInvalidAdminFlag)
	assert.Nil(t, gotFlag)

	revoke := false
	user, err := svc.SetAdmin(ctx, 2, model.UpdateUserStatusRequest{IsAdmin: &revoke})
	require.NoError(t, err)
	assert.False(t, user.IsAdmin)
	require.NotNil(t, gotFlag)
	assert.False(t, *gotFlag)
}

func TestAdminService_UsersStatsSweep(t *testing.T) {
	svc := newAdminService(&mockCategoryStore{}, &mockUserDirectory{})
	ctx := context.Background()

	users, err := svc.Users(ctx)
	require.NoError(t, err)
	assert.NotNil(t, users)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalRecipes)

	result, err := svc.SweepImages(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Scanned)
}
