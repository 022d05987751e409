package service

import (
	"context"
	"strings"

	"github.com/recipe-finder/internal/model"
)

type SocialStore interface {
	AddFavorite(ctx context.Context, userID, recipeID int64) error
	RemoveFavorite(ctx context.Context, userID, recipeID int64) error
	Rate(ctx context.Context, userID, recipeID int64, rating int) (*model.RatingSummary, error)
	ListReviews(ctx context.Context, recipeID int64) ([]model.Review, error)
	CreateReview(ctx context.Context, recipeID, userID int64, content string) (*model.Review, error)
	UpdateReview(ctx context.Context, id, userID int64, content string) (*model.Review, error)
	DeleteReview(ctx context.Context, id, userID int64) error
	ListCollections(ctx context.Context, userID int64) ([]model.Collection, error)
	CreateCollection(ctx context.Context, userID int64, name, description string) (*model.Collection, error)
	UpdateCollection(ctx context.Context, id, userID int64, name, description string) (*model.Collection, error)
	DeleteCollection(ctx context.Context, id, userID int64) error
	AddToCollection(ctx context.Context, id, userID, recipeID int64) (*model.Collection, error)
	RemoveFromCollection(ctx context.Context, id, userID, recipeID int64) (*model.Collection, error)
}

const (
	minRating = 1
	maxRating = 5
)

// SocialService manages favorites, ratings, reviews and collections. Every
// write is keyed by the acting user.
type SocialService struct {
	store SocialStore
}

func NewSocialService(store SocialStore) *SocialService {
	return &SocialService{store: store}
}

func (s *SocialService) AddFavorite(ctx context.Context, actor model.Identity, recipeID int64) error {
	return s.store.AddFavorite(ctx, actor.UserID, recipeID)
}

func (s *SocialService) RemoveFavorite(ctx context.Context, actor model.Identity, recipeID int64) error {
	return s.store.RemoveFavorite(ctx, actor.UserID, recipeID)
}

func (s *SocialService) Rate(ctx context.Context, actor model.Identity, recipeID int64, req model.RatingRequest) (*model.RatingSummary, error) {
	if req.Rating < minRating || req.Rating > maxRating {
		return nil, model.ErrInvalidRating
	}
	return s.store.Rate(ctx, actor.UserID, recipeID, req.Rating)
}

func (s *SocialService) Reviews(ctx context.Context, recipeID int64) ([]model.Review, error) {
	reviews, err := s.store.ListReviews(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if reviews == nil {
		reviews = []model.Review{}
	}
	return reviews, nil
}

func (s *SocialService) CreateReview(ctx context.Context, actor model.Identity, recipeID int64, req model.ReviewRequest) (*model.Review, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, model.ErrMissingField
	}
	return s.store.CreateReview(ctx, recipeID, actor.UserID, content)
}

func (s *SocialService) UpdateReview(ctx context.Context, actor model.Identity, id int64, req model.ReviewRequest) (*model.Review, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, model.ErrMissingField
	}
	return s.store.UpdateReview(ctx, id, actor.UserID, content)
}

func (s *SocialService) DeleteReview(ctx context.Context, actor model.Identity, id int64) error {
	return s.store.DeleteReview(ctx, id, actor.UserID)
}

func (s *SocialService) Collections(ctx context.Context, actor model.Identity) ([]model.Collection, error) {
	collections, err := s.store.ListCollections(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if collections == nil {
		collections = []model.Collection{}
	}
	return collections, nil
}

func (s *SocialService) CreateCollection(ctx context.Context, actor model.Identity, req model.CollectionRequest) (*model.Collection, error) {
	name, err := collectionName(req)
	if err != nil {
		return nil, err
	}
	return s.store.CreateCollection(ctx, actor.UserID, name, strings.TrimSpace(req.Description))
}

func (s *SocialService) UpdateCollection(ctx context.Context, actor model.Identity, id int64, req model.CollectionRequest) (*model.Collection, error) {
	name, err := collectionName(req)
	if err != nil {
		return nil, err
	}
	return s.store.UpdateCollection(ctx, id, actor.UserID, name, strings.TrimSpace(req.Description))
}

func collectionName(req model.CollectionRequest) (string, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return "", model.ErrMissingField
	}
	return name, model.CheckLength("name", name, model.MaxCollectionNameLength)
}

func (s *SocialService) DeleteCollection(ctx context.Context, actor model.Identity, id int64) error {
	return s.store.DeleteCollection(ctx, id, actor.UserID)
}

// AddToCollection is idempotent: adding a recipe twice leaves one entry.
func (s *SocialService) AddToCollection(ctx context.Context, actor model.Identity, id, recipeID int64) (*model.Collection, error) {
	return s.store.AddToCollection(ctx, id, actor.UserID, recipeID)
}

func (s *SocialService) RemoveFromCollection(ctx context.Context, actor model.Identity, id, recipeID int64) (*model.Collection, error) {
	return s.store.RemoveFromCollection(ctx, id, actor.UserID, recipeID)
}
