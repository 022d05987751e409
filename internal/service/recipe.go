package service

import (
	"context"
	"io"
	"strings"

	"github.com/recipe-finder/internal/imagestore"
	"github.com/recipe-finder/internal/logging"
	"github.com/recipe-finder/internal/model"
	"go.uber.org/zap"
)

// maxPageSize caps an explicit limit. Without one the listing is unbounded.
const maxPageSize = 200

type RecipeStore interface {
	List(ctx context.Context, filter model.RecipeFilter) ([]model.Recipe, error)
	FindByID(ctx context.Context, id int64, status model.RecipeStatus) (*model.Recipe, error)
	Create(ctx context.Context, userID int64, f model.RecipeFields) (int64, error)
	Update(ctx context.Context, id, ownerID int64, f model.RecipeFields) (*string, error)
	Delete(ctx context.Context, id, ownerID int64) (*string, error)
	UpdateStatus(ctx context.Context, id int64, status model.RecipeStatus) error
}

// ImageUpload is an image file attached to a create or update request.
type ImageUpload struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// RecipeService implements recipe reads and owner-scoped mutations. Image
// releases after a successful write are best effort: failures are logged
// and left for the image janitor.
type RecipeService struct {
	recipes RecipeStore
	images  imagestore.Store
	logger  *zap.Logger
}

func NewRecipeService(recipes RecipeStore, images imagestore.Store, logger *zap.Logger) *RecipeService {
	return &RecipeService{
		recipes: recipes,
		images:  images,
		logger:  logger,
	}
}

// ListPublished is the public listing; the status constraint is forced.
func (s *RecipeService) ListPublished(ctx context.Context, filter model.RecipeFilter) ([]model.Recipe, error) {
	filter.Status = model.RecipeStatusPublished
	return s.List(ctx, filter)
}

// List is the unrestricted listing used by admins. An empty filter status
// means every status.
func (s *RecipeService) List(ctx context.Context, filter model.RecipeFilter) ([]model.Recipe, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, model.ErrInvalidStatus
	}
	filter.Limit = clampLimit(filter.Limit)
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.recipes.List(ctx, filter)
}

// Favorites lists the published recipes the user has marked.
func (s *RecipeService) Favorites(ctx context.Context, userID int64, filter model.RecipeFilter) ([]model.Recipe, error) {
	filter.FavoriteOf = userID
	return s.ListPublished(ctx, filter)
}

// Get returns a single recipe. Callers without admin rights only see
// published recipes.
func (s *RecipeService) Get(ctx context.Context, id int64, caller model.Identity) (*model.Recipe, error) {
	status := model.RecipeStatusPublished
	if caller.IsAdmin {
		status = ""
	}
	recipe, err := s.recipes.FindByID(ctx, id, status)
	if err != nil {
		return nil, err
	}
	if recipe == nil {
		return nil, model.ErrNotFound
	}
	return recipe, nil
}

func (s *RecipeService) Create(ctx context.Context, actor model.Identity, in model.RecipeInput, image *ImageUpload) (*model.Recipe, error) {
	fields, err := recipeFields(in, true)
	if err != nil {
		return nil, err
	}

	uploaded, err := s.store(ctx, image)
	if err != nil {
		return nil, err
	}
	fields.ImageURL = uploaded

	id, err := s.recipes.Create(ctx, actor.UserID, fields)
	if err != nil {
		s.release(ctx, uploaded)
		return nil, err
	}
	return s.fetch(ctx, id)
}

// Update rewrites a recipe owned by the actor. A recipe owned by someone
// else answers exactly like a missing one.
func (s *RecipeService) Update(ctx context.Context, actor model.Identity, id int64, in model.RecipeInput, image *ImageUpload) (*model.Recipe, error) {
	fields, err := recipeFields(in, false)
	if err != nil {
		return nil, err
	}

	uploaded, err := s.store(ctx, image)
	if err != nil {
		return nil, err
	}
	fields.ImageURL = uploaded

	previous, err := s.recipes.Update(ctx, id, actor.UserID, fields)
	if err != nil {
		s.release(ctx, uploaded)
		return nil, err
	}
	s.release(ctx, previous)
	return s.fetch(ctx, id)
}

// Delete removes a recipe owned by the actor and releases its image.
func (s *RecipeService) Delete(ctx context.Context, actor model.Identity, id int64) error {
	return s.delete(ctx, id, actor.UserID)
}

// AdminDelete is the moderation delete. It is not scoped to an owner.
func (s *RecipeService) AdminDelete(ctx context.Context, id int64) error {
	return s.delete(ctx, id, 0)
}

func (s *RecipeService) delete(ctx context.Context, id, ownerID int64) error {
	image, err := s.recipes.Delete(ctx, id, ownerID)
	if err != nil {
		return err
	}
	s.release(ctx, image)
	return nil
}

// UpdateStatus moves a recipe to any of the three statuses.
func (s *RecipeService) UpdateStatus(ctx context.Context, id int64, status model.RecipeStatus) (*model.Recipe, error) {
	if !status.Valid() {
		return nil, model.ErrInvalidStatus
	}
	if err := s.recipes.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	return s.fetch(ctx, id)
}

func (s *RecipeService) fetch(ctx context.Context, id int64) (*model.Recipe, error) {
	recipe, err := s.recipes.FindByID(ctx, id, "")
	if err != nil {
		return nil, err
	}
	if recipe == nil {
		return nil, model.ErrNotFound
	}
	return recipe, nil
}

func (s *RecipeService) store(ctx context.Context, image *ImageUpload) (*string, error) {
	if image == nil {
		return nil, nil
	}
	url, err := s.images.Save(ctx, image.Name, image.ContentType, image.Body)
	if err != nil {
		return nil, err
	}
	return &url, nil
}

func (s *RecipeService) release(ctx context.Context, url *string) {
	if url == nil || *url == "" {
		return
	}
	if err := s.images.Remove(ctx, *url); err != nil {
		logging.FromContext(ctx, s.logger).Warn("failed to release recipe image",
			zap.String("image_url", *url), zap.Error(err))
	}
}

// recipeFields validates a payload. On create an empty status defaults to
// published and absent categories mean none; on update both mean "keep".
func recipeFields(in model.RecipeInput, create bool) (model.RecipeFields, error) {
	f := model.RecipeFields{
		Title:        strings.TrimSpace(in.Title),
		Description:  in.Description,
		Ingredients:  nonNil(in.Ingredients),
		Instructions: nonNil(in.Instructions),
		CookingTime:  in.CookingTime,
		Servings:     in.Servings,
		Status:       in.Status,
	}
	if f.Title == "" {
		return f, model.ErrMissingField
	}
	if err := model.CheckLength("title", f.Title, model.MaxRecipeTitleLength); err != nil {
		return f, err
	}
	if f.CookingTime < 0 || f.Servings < 0 {
		return f, model.ErrMalformedPayload
	}

	f.DifficultyLevel = model.DifficultyMedium
	if in.DifficultyLevel != "" {
		d, err := model.ParseDifficulty(string(in.DifficultyLevel))
		if err != nil {
			return f, err
		}
		f.DifficultyLevel = d
	}

	if f.Status == "" && create {
		f.Status = model.RecipeStatusPublished
	}
	if f.Status != "" && !f.Status.Valid() {
		return f, model.ErrInvalidStatus
	}

	ids, supplied := in.Categories()
	f.CategoryIDs = ids
	f.ReplaceCategories = supplied && !create
	return f, nil
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return 0
	case limit > maxPageSize:
		return maxPageSize
	default:
		return limit
	}
}
