package service

import (
	"context"
	"strings"

	"github.com/recipe-finder/internal/model"
	"github.com/recipe-finder/internal/scheduler"
)

type CategoryStore interface {
	List(ctx context.Context) ([]model.Category, error)
	Create(ctx context.Context, name string) (*model.Category, error)
	Rename(ctx context.Context, id int64, name string) (*model.Category, error)
	Delete(ctx context.Context, id int64) error
}

type UserDirectory interface {
	ListWithRecipeCount(ctx context.Context) ([]model.UserSummary, error)
	SetAdmin(ctx context.Context, id int64, isAdmin bool) (*model.User, error)
}

type StatsStore interface {
	Dashboard(ctx context.Context) (*model.DashboardStats, error)
}

type ImageSweeper interface {
	RunOnce(ctx context.Context) (*scheduler.SweepResult, error)
}

// AdminService covers category management, user moderation, dashboard
// statistics and on-demand image sweeps.
type AdminService struct {
	categories CategoryStore
	users      UserDirectory
	stats      StatsStore
	sweeper    ImageSweeper
}

func NewAdminService(categories CategoryStore, users UserDirectory, stats StatsStore, sweeper ImageSweeper) *AdminService {
	return &AdminService{
		categories: categories,
		users:      users,
		stats:      stats,
		sweeper:    sweeper,
	}
}

func (s *AdminService) Categories(ctx context.Context) ([]model.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []model.Category{}
	}
	return categories, nil
}

func (s *AdminService) CreateCategory(ctx context.Context, req model.CategoryRequest) (*model.Category, error) {
	name, err := categoryName(req)
	if err != nil {
		return nil, err
	}
	return s.categories.Create(ctx, name)
}

func (s *AdminService) RenameCategory(ctx context.Context, id int64, req model.CategoryRequest) (*model.Category, error) {
	name, err := categoryName(req)
	if err != nil {
		return nil, err
	}
	return s.categories.Rename(ctx, id, name)
}

func categoryName(req model.CategoryRequest) (string, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return "", model.ErrMissingField
	}
	return name, model.CheckLength("name", name, model.MaxCategoryNameLength)
}

// DeleteCategory drops the category together with its recipe associations.
func (s *AdminService) DeleteCategory(ctx context.Context, id int64) error {
	return s.categories.Delete(ctx, id)
}

func (s *AdminService) Users(ctx context.Context) ([]model.UserSummary, error) {
	users, err := s.users.ListWithRecipeCount(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []model.UserSummary{}
	}
	return users, nil
}

// SetAdmin grants or revokes admin rights. A nil flag means the request did
// not carry a boolean.
func (s *AdminService) SetAdmin(ctx context.Context, id int64, req model.UpdateUserStatusRequest) (*model.User, error) {
	if req.IsAdmin == nil {
		return nil, model.ErrInvalidAdminFlag
	}
	return s.users.SetAdmin(ctx, id, *req.IsAdmin)
}

func (s *AdminService) Stats(ctx context.Context) (*model.DashboardStats, error) {
	return s.stats.Dashboard(ctx)
}

func (s *AdminService) SweepImages(ctx context.Context) (*scheduler.SweepResult, error) {
	return s.sweeper.RunOnce(ctx)
}
