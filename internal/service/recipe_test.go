package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/recipe-finder/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var (
	alice = model.Identity{UserID: 1}
	admin = model.Identity{UserID: 9, IsAdmin: true}
)

func strPtr(s string) *string { return &s }

func validInput() model.RecipeInput {
	return model.RecipeInput{
		Title:        "Pancakes",
		Ingredients:  model.StringList{"flour", "milk"},
		Instructions: model.StringList{"mix", "fry"},
		CookingTime:  15,
		Servings:     2,
	}
}

func TestRecipeService_ListPublishedForcesStatus(t *testing.T) {
	var got model.RecipeFilter
	store := &mockRecipeStore{
		listFn: func(_ context.Context, f model.RecipeFilter) ([]model.Recipe, error) {
			got = f
			return []model.Recipe{{ID: 1}}, nil
		},
	}
	svc := NewRecipeService(store, newMemoryImages(), zap.NewNop())

	recipes, err := svc.ListPublished(context.Background(), model.RecipeFilter{Status: model.RecipeStatusDraft, Limit: 1000, Offset: -3})
	require.NoError(t, err)
	assert.Len(t, recipes, 1)
	assert.Equal(t, model.RecipeStatusPublished, got.Status)
	assert.Equal(t, maxPageSize, got.Limit)
	assert.Equal(t, 0, got.Offset)

	_, err = svc.List(context.Background(), model.RecipeFilter{Status: "deleted"})
	assert.ErrorIs(t, err, model.ErrInvalidStatus)
}

func TestRecipeService_Favorites(t *testing.T) {
	var got model.RecipeFilter
	store := &mockRecipeStore{
		listFn: func(_ context.Context, f model.RecipeFilter) ([]model.Recipe, error) {
			got = f
			return nil, nil
		},
	}
	svc := NewRecipeService(store, newMemoryImages(), zap.NewNop())

	_, err := svc.Favorites(context.Background(), 4, model.RecipeFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), got.FavoriteOf)
	assert.Equal(t, model.RecipeStatusPublished, got.Status)
}

func TestRecipeService_GetRespectsVisibility(t *testing.T) {
	var seen []model.RecipeStatus
	store := &mockRecipeStore{
		findByIDFn: func(_ context.Context, id int64, status model.RecipeStatus) (*model.Recipe, error) {
			seen = append(seen, status)
			if id == 404 {
				return nil, nil
			}
			return &model.Recipe{ID: id}, nil
		},
	}
	svc := NewRecipeService(store, newMemoryImages(), zap.NewNop())
	ctx := context.Background()

	_, err := svc.Get(ctx, 1, model.Identity{})
	require.NoError(t, err)
	_, err = svc.Get(ctx, 1, admin)
	require.NoError(t, err)
	_, err = svc.Get(ctx, 404, alice)
	assert.ErrorIs(t, err, model.ErrNotFound)

	assert.Equal(t, []model.RecipeStatus{model.RecipeStatusPublished, "", model.RecipeStatusPublished}, seen)
}

func TestRecipeService_Create(t *testing.T) {
	var got model.RecipeFields
	var owner int64
	store := &mockRecipeStore{
		createFn: func(_ context.Context, userID int64, f model.RecipeFields) (int64, error) {
			owner, got = userID, f
			return 11, nil
		},
	}
	images := newMemoryImages()
	svc := NewRecipeService(store, images, zap.NewNop())

	in := validInput()
	in.DifficultyLevel = "Easy"
	in.CategoryID = 3
	in.CategoryIDs = []int64{3, 4}

	recipe, err := svc.Create(context.Background(), alice, in, &ImageUpload{Name: "p.png", Body: strings.NewReader("img")})
	require.NoError(t, err)
	assert.Equal(t, int64(11), recipe.ID)
	assert.Equal(t, int64(1), owner)

	assert.Equal(t, "Pancakes", got.Title)
	assert.Equal(t, model.DifficultyEasy, got.DifficultyLevel)
	assert.Equal(t, model.RecipeStatusPublished, got.Status)
	assert.Equal(t, []int64{3, 4}, got.CategoryIDs)
	assert.False(t, got.ReplaceCategories)
	require.NotNil(t, got.ImageURL)
	assert.Contains(t, images.saved, *got.ImageURL)
}

func TestRecipeService_CreateValidation(t *testing.T) {
	calls := 0
	store := &mockRecipeStore{
		createFn: func(context.Context, int64, model.RecipeFields) (int64, error) {
			calls++
			return 1, nil
		},
	}
	images := newMemoryImages()
	svc := NewRecipeService(store, images, zap.NewNop())
	ctx := context.Background()

	noTitle := validInput()
	noTitle.Title = "  "
	_, err := svc.Create(ctx, alice, noTitle, nil)
	assert.ErrorIs(t, err, model.ErrMissingField)

	badStatus := validInput()
	badStatus.Status = "deleted"
	_, err = svc.Create(ctx, alice, badStatus, nil)
	assert.ErrorIs(t, err, model.ErrInvalidStatus)

	badDifficulty := validInput()
	badDifficulty.DifficultyLevel = "extreme"
	_, err = svc.Create(ctx, alice, badDifficulty, nil)
	assert.ErrorIs(t, err, model.ErrMalformedPayload)

	wideTitle := validInput()
	wideTitle.Title = strings.Repeat("t", 256)
	_, err = svc.Create(ctx, alice, wideTitle, nil)
	assert.ErrorIs(t, err, model.ErrFieldTooLong)

	negative := validInput()
	negative.Servings = -1
	_, err = svc.Create(ctx, alice, negative, nil)
	assert.ErrorIs(t, err, model.ErrMalformedPayload)

	_, err = svc.Create(ctx, alice, validInput(), &ImageUpload{Name: "run.exe", Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, model.ErrInvalidImage)

	assert.Equal(t, 0, calls)
	assert.Empty(t, images.saved)
}

func TestRecipeService_CreateFailureReleasesUpload(t *testing.T) {
	store := &mockRecipeStore{
		createFn: func(context.Context, int64, model.RecipeFields) (int64, error) {
			return 0, model.ErrUnknownCategory
		},
	}
	images := newMemoryImages()
	svc := NewRecipeService(store, images, zap.NewNop())

	_, err := svc.Create(context.Background(), alice, validInput(), &ImageUpload{Name: "p.jpg", Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, model.ErrUnknownCategory)
	assert.Empty(t, images.saved)
	assert.Len(t, images.removed, 1)
}

func TestRecipeService_UpdateReplacesImage(t *testing.T) {
	var got model.RecipeFields
	var owner int64
	store := &mockRecipeStore{
		updateFn: func(_ context.Context, _, ownerID int64, f model.RecipeFields) (*string, error) {
			owner, got = ownerID, f
			return strPtr("/uploads/recipes/old.png"), nil
		},
	}
	images := newMemoryImages()
	svc := NewRecipeService(store, images, zap.NewNop())

	in := validInput()
	in.CategoryIDs = []int64{}
	_, err := svc.Update(context.Background(), alice, 7, in, &ImageUpload{Name: "new.png", Body: strings.NewReader("x")})
	require.NoError(t, err)

	assert.Equal(t, alice.UserID, owner)
	assert.Equal(t, model.RecipeStatus(""), got.Status)
	assert.True(t, got.ReplaceCategories)
	assert.Empty(t, got.CategoryIDs)
	assert.Equal(t, []string{"/uploads/recipes/old.png"}, images.removed)
}

func TestRecipeService_UpdateKeepsCategoriesWhenAbsent(t *testing.T) {
	var got model.RecipeFields
	store := &mockRecipeStore{
		updateFn: func(_ context.Context, _, _ int64, f model.RecipeFields) (*string, error) {
			got = f
			return nil, nil
		},
	}
	svc := NewRecipeService(store, newMemoryImages(), zap.NewNop())

	_, err := svc.Update(context.Background(), alice, 7, validInput(), nil)
	require.NoError(t, err)
	assert.False(t, got.ReplaceCategories)
	assert.Nil(t, got.ImageURL)
}

func TestRecipeService_NonOwnerLooksLikeMissing(t *testing.T) {
	store := &mockRecipeStore{
		updateFn: func(context.Context, int64, int64, model.RecipeFields) (*string, error) {
			return nil, model.ErrNotFoundOrUnauthorized
		},
		deleteFn: func(context.Context, int64, int64) (*string, error) {
			return nil, model.ErrNotFoundOrUnauthorized
		},
	}
	images := newMemoryImages()
	svc := NewRecipeService(store, images, zap.NewNop())
	ctx := context.Background()

	_, err := svc.Update(ctx, alice, 7, validInput(), &ImageUpload{Name: "n.png", Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, model.ErrNotFoundOrUnauthorized)
	assert.Empty(t, images.saved, "upload must be rolled back")

	assert.ErrorIs(t, svc.Delete(ctx, alice, 7), model.ErrNotFoundOrUnauthorized)
}

func TestRecipeService_DeleteReleaseIsBestEffort(t *testing.T) {
	var scopes []int64
	store := &mockRecipeStore{
		deleteFn: func(_ context.Context, _, ownerID int64) (*string, error) {
			scopes = append(scopes, ownerID)
			return strPtr("/uploads/recipes/gone.png"), nil
		},
	}
	images := newMemoryImages()
	images.removeErr = errors.New("permission denied")

	core, logs := observer.New(zapcore.WarnLevel)
	svc := NewRecipeService(store, images, zap.New(core))
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, alice, 3))
	require.NoError(t, svc.AdminDelete(ctx, 3))

	assert.Equal(t, []int64{alice.UserID, 0}, scopes)
	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "/uploads/recipes/gone.png", logs.All()[0].ContextMap()["image_url"])
}

func TestRecipeService_UpdateStatus(t *testing.T) {
	var got model.RecipeStatus
	store := &mockRecipeStore{
		updateStatusFn: func(_ context.Context, _ int64, status model.RecipeStatus) error {
			got = status
			return nil
		},
		findByIDFn: func(_ context.Context, id int64, _ model.RecipeStatus) (*model.Recipe, error) {
			return &model.Recipe{ID: id, Status: got}, nil
		},
	}
	svc := NewRecipeService(store, newMemoryImages(), zap.NewNop())

	_, err := svc.UpdateStatus(context.Background(), 1, "deleted")
	assert.ErrorIs(t, err, model.ErrInvalidStatus)
	assert.Empty(t, got)

	recipe, err := svc.UpdateStatus(context.Background(), 1, model.RecipeStatusArchived)
	require.NoError(t, err)
	assert.Equal(t, model.RecipeStatusArchived, recipe.Status)
}
