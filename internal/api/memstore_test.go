package api

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lib/pq"
	"github.com/recipe-finder/internal/model"
	"github.com/recipe-finder/internal/service"
)

// memDB is an in-memory stand-in for the Postgres repositories with the same
// observable semantics: aggregated reads, owner-scoped writes and the
// not-found conventions.
type memDB struct {
	mu          sync.Mutex
	seq         int64
	clock       time.Time
	users       map[int64]*model.User
	recipes     map[int64]*model.Recipe
	categories  map[int64]*model.Category
	links       map[int64]map[int64]bool // recipe id -> category ids
	favorites   map[int64]map[int64]bool // user id -> recipe ids
	ratings     map[int64]map[int64]int  // recipe id -> user id -> stars
	reviews     map[int64]*model.Review
	collections map[int64]*model.Collection
}

func newMemDB() *memDB {
	return &memDB{
		clock:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		users:       make(map[int64]*model.User),
		recipes:     make(map[int64]*model.Recipe),
		categories:  make(map[int64]*model.Category),
		links:       make(map[int64]map[int64]bool),
		favorites:   make(map[int64]map[int64]bool),
		ratings:     make(map[int64]map[int64]int),
		reviews:     make(map[int64]*model.Review),
		collections: make(map[int64]*model.Collection),
	}
}

func (db *memDB) next() (int64, time.Time) {
	db.seq++
	db.clock = db.clock.Add(time.Minute)
	return db.seq, db.clock
}

type memUsers struct{ *memDB }

func (u memUsers) ExistsByEmailOrUsername(_ context.Context, email, username string) (bool, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, user := range u.users {
		if user.Email == email || user.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (u memUsers) Create(_ context.Context, username, email, hash string) (*model.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, user := range u.users {
		if user.Email == email || user.Username == username {
			return nil, model.ErrDuplicateUser
		}
	}
	id, now := u.next()
	user := &model.User{ID: id, Username: username, Email: email, Password: hash, CreatedAt: now}
	u.users[id] = user
	copied := *user
	return &copied, nil
}

func (u memUsers) find(match func(*model.User) bool) *model.User {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, user := range u.users {
		if match(user) {
			copied := *user
			return &copied
		}
	}
	return nil
}

func (u memUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	return u.find(func(user *model.User) bool { return user.Email == email }), nil
}

func (u memUsers) FindRegularByEmail(_ context.Context, email string) (*model.User, error) {
	return u.find(func(user *model.User) bool { return user.Email == email && !user.IsAdmin }), nil
}

func (u memUsers) FindByID(_ context.Context, id int64) (*model.User, error) {
	return u.find(func(user *model.User) bool { return user.ID == id }), nil
}

func (u memUsers) IsAdmin(_ context.Context, id int64) (bool, error) {
	user := u.find(func(user *model.User) bool { return user.ID == id })
	return user != nil && user.IsAdmin, nil
}

func (u memUsers) UpdatePassword(_ context.Context, id int64, hash string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	user, ok := u.users[id]
	if !ok {
		return model.ErrNotFound
	}
	user.Password = hash
	return nil
}

func (u memUsers) UpsertAdmin(ctx context.Context, username, email, hash string) (*model.User, error) {
	if existing := u.find(func(user *model.User) bool { return user.Email == email }); existing != nil {
		u.mu.Lock()
		defer u.mu.Unlock()
		user := u.users[existing.ID]
		user.Password, user.IsAdmin = hash, true
		copied := *user
		return &copied, nil
	}
	user, err := u.Create(ctx, username, email, hash)
	if err != nil {
		return nil, err
	}
	return u.SetAdmin(ctx, user.ID, true)
}

func (u memUsers) ListWithRecipeCount(context.Context) ([]model.UserSummary, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	var out []model.UserSummary
	for _, user := range u.users {
		count := 0
		for _, r := range u.recipes {
			if r.UserID == user.ID {
				count++
			}
		}
		out = append(out, model.UserSummary{
			ID: user.ID, Username: user.Username, Email: user.Email,
			IsAdmin: user.IsAdmin, CreatedAt: user.CreatedAt, RecipeCount: count,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (u memUsers) SetAdmin(_ context.Context, id int64, isAdmin bool) (*model.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	user, ok := u.users[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	user.IsAdmin = isAdmin
	copied := *user
	return &copied, nil
}

type memRecipes struct{ *memDB }

// view builds the aggregated read model. Callers hold the lock.
func (r memRecipes) view(rec *model.Recipe) model.Recipe {
	out := *rec
	out.Categories, out.CategoryIDs = pq.StringArray{}, pq.Int64Array{}
	if author, ok := r.users[rec.UserID]; ok {
		name := author.Username
		out.Author = &name
	}
	ids := make([]int64, 0, len(r.links[rec.ID]))
	for id := range r.links[rec.ID] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		out.CategoryIDs = append(out.CategoryIDs, id)
		out.Categories = append(out.Categories, r.categories[id].Name)
	}
	return out
}

func (r memRecipes) List(_ context.Context, f model.RecipeFilter) ([]model.Recipe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Recipe
	for _, rec := range r.recipes {
		if f.ID > 0 && rec.ID != f.ID {
			continue
		}
		if f.Status != "" && rec.Status != f.Status {
			continue
		}
		if q := strings.ToLower(f.Query); q != "" && !strings.Contains(strings.ToLower(rec.Title), q) {
			continue
		}
		if f.CategoryID > 0 && !r.links[rec.ID][f.CategoryID] {
			continue
		}
		if f.FavoriteOf > 0 && !r.favorites[f.FavoriteOf][rec.ID] {
			continue
		}
		out = append(out, r.view(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memRecipes) FindByID(ctx context.Context, id int64, status model.RecipeStatus) (*model.Recipe, error) {
	list, err := r.List(ctx, model.RecipeFilter{ID: id, Status: status})
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return &list[0], nil
}

func (r memRecipes) link(recipeID int64, ids []int64) error {
	for _, id := range ids {
		if _, ok := r.categories[id]; !ok {
			return model.ErrUnknownCategory
		}
	}
	r.links[recipeID] = make(map[int64]bool)
	for _, id := range ids {
		r.links[recipeID][id] = true
	}
	return nil
}

func (r memRecipes) Create(_ context.Context, userID int64, f model.RecipeFields) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, now := r.next()
	if err := r.link(id, f.CategoryIDs); err != nil {
		return 0, err
	}
	r.recipes[id] = &model.Recipe{
		ID: id, Title: f.Title, Description: f.Description,
		Ingredients: f.Ingredients, Instructions: f.Instructions,
		CookingTime: f.CookingTime, Servings: f.Servings, DifficultyLevel: f.DifficultyLevel,
		ImageURL: f.ImageURL, Status: f.Status, UserID: userID, CreatedAt: now, UpdatedAt: now,
	}
	return id, nil
}

func (r memRecipes) owned(id, ownerID int64) (*model.Recipe, error) {
	rec, ok := r.recipes[id]
	if !ok || (ownerID > 0 && rec.UserID != ownerID) {
		if ownerID > 0 {
			return nil, model.ErrNotFoundOrUnauthorized
		}
		return nil, model.ErrNotFound
	}
	return rec, nil
}

func (r memRecipes) Update(_ context.Context, id, ownerID int64, f model.RecipeFields) (*string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, err := r.owned(id, ownerID)
	if err != nil {
		return nil, err
	}
	if f.ReplaceCategories {
		if err := r.link(id, f.CategoryIDs); err != nil {
			return nil, err
		}
	}
	var previous *string
	if f.ImageURL != nil {
		previous = rec.ImageURL
		rec.ImageURL = f.ImageURL
	}
	if f.Status != "" {
		rec.Status = f.Status
	}
	rec.Title, rec.Description = f.Title, f.Description
	rec.Ingredients, rec.Instructions = f.Ingredients, f.Instructions
	rec.CookingTime, rec.Servings, rec.DifficultyLevel = f.CookingTime, f.Servings, f.DifficultyLevel
	return previous, nil
}

func (r memRecipes) Delete(_ context.Context, id, ownerID int64) (*string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, err := r.owned(id, ownerID)
	if err != nil {
		return nil, err
	}
	delete(r.recipes, id)
	delete(r.links, id)
	return rec.ImageURL, nil
}

func (r memRecipes) UpdateStatus(_ context.Context, id int64, status model.RecipeStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.recipes[id]
	if !ok {
		return model.ErrNotFound
	}
	rec.Status = status
	return nil
}

func (r memRecipes) ReferencedImages(context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var urls []string
	for _, rec := range r.recipes {
		if rec.ImageURL != nil {
			urls = append(urls, *rec.ImageURL)
		}
	}
	return urls, nil
}

type memCategories struct{ *memDB }

func (c memCategories) List(context.Context) ([]model.Category, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []model.Category
	for _, cat := range c.categories {
		copied := *cat
		for _, links := range c.links {
			if links[cat.ID] {
				copied.RecipeCount++
			}
		}
		out = append(out, copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (c memCategories) Create(_ context.Context, name string) (*model.Category, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, cat := range c.categories {
		if cat.Name == name {
			return nil, model.ErrDuplicateCategory
		}
	}
	id, now := c.next()
	c.categories[id] = &model.Category{ID: id, Name: name, CreatedAt: now}
	copied := *c.categories[id]
	return &copied, nil
}

func (c memCategories) Rename(_ context.Context, id int64, name string) (*model.Category, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cat, ok := c.categories[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	cat.Name = name
	copied := *cat
	return &copied, nil
}

func (c memCategories) Delete(_ context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.categories[id]; !ok {
		return model.ErrNotFound
	}
	for _, links := range c.links {
		delete(links, id)
	}
	delete(c.categories, id)
	return nil
}

type memStats struct{ *memDB }

func (s memStats) Dashboard(context.Context) (*model.DashboardStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := &model.DashboardStats{
		TotalUsers:      len(s.users),
		TotalRecipes:    len(s.recipes),
		TotalCategories: len(s.categories),
		TopCategories:   []model.CategoryCount{},
	}
	for _, rec := range s.recipes {
		switch rec.Status {
		case model.RecipeStatusDraft:
			stats.DraftRecipes++
		case model.RecipeStatusPublished:
			stats.PublishedRecipes++
		case model.RecipeStatusArchived:
			stats.ArchivedRecipes++
		}
	}
	return stats, nil
}

// memSocial hides unpublished recipes from every social write and from the
// review listing, like the Postgres repository.
type memSocial struct{ *memDB }

// published reports whether recipeID is publicly visible. Callers hold the lock.
func (s memSocial) published(recipeID int64) error {
	rec, ok := s.recipes[recipeID]
	if !ok || rec.Status != model.RecipeStatusPublished {
		return model.ErrNotFound
	}
	return nil
}

func (s memSocial) AddFavorite(_ context.Context, userID, recipeID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.published(recipeID); err != nil {
		return err
	}
	if s.favorites[userID] == nil {
		s.favorites[userID] = make(map[int64]bool)
	}
	s.favorites[userID][recipeID] = true
	return nil
}

func (s memSocial) RemoveFavorite(_ context.Context, userID, recipeID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.favorites[userID][recipeID] {
		return model.ErrNotFound
	}
	delete(s.favorites[userID], recipeID)
	return nil
}

func (s memSocial) Rate(_ context.Context, userID, recipeID int64, rating int) (*model.RatingSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.published(recipeID); err != nil {
		return nil, err
	}
	if s.ratings[recipeID] == nil {
		s.ratings[recipeID] = make(map[int64]int)
	}
	s.ratings[recipeID][userID] = rating

	summary := &model.RatingSummary{RecipeID: recipeID, Rating: rating, RatingCount: len(s.ratings[recipeID])}
	total := 0
	for _, stars := range s.ratings[recipeID] {
		total += stars
	}
	summary.AverageRating = float64(total) / float64(summary.RatingCount)
	return summary, nil
}

func (s memSocial) ListReviews(_ context.Context, recipeID int64) ([]model.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.published(recipeID); err != nil {
		return nil, err
	}
	reviews := []model.Review{}
	for _, rv := range s.reviews {
		if rv.RecipeID == recipeID {
			reviews = append(reviews, *rv)
		}
	}
	sort.Slice(reviews, func(i, j int) bool { return reviews[i].ID > reviews[j].ID })
	return reviews, nil
}

func (s memSocial) CreateReview(_ context.Context, recipeID, userID int64, content string) (*model.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.published(recipeID); err != nil {
		return nil, err
	}
	id, now := s.next()
	rv := &model.Review{ID: id, RecipeID: recipeID, UserID: userID, Content: content, CreatedAt: now, UpdatedAt: now}
	if author, ok := s.users[userID]; ok {
		rv.Username = author.Username
	}
	s.reviews[id] = rv
	copied := *rv
	return &copied, nil
}

func (s memSocial) UpdateReview(_ context.Context, id, userID int64, content string) (*model.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rv, ok := s.reviews[id]
	if !ok || rv.UserID != userID {
		return nil, model.ErrNotFoundOrUnauthorized
	}
	_, now := s.next()
	rv.Content, rv.UpdatedAt = content, now
	copied := *rv
	return &copied, nil
}

func (s memSocial) DeleteReview(_ context.Context, id, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rv, ok := s.reviews[id]
	if !ok || rv.UserID != userID {
		return model.ErrNotFoundOrUnauthorized
	}
	delete(s.reviews, id)
	return nil
}

// owned returns the caller's collection. Callers hold the lock.
func (s memSocial) owned(id, userID int64) (*model.Collection, error) {
	c, ok := s.collections[id]
	if !ok || c.UserID != userID {
		return nil, model.ErrNotFoundOrUnauthorized
	}
	return c, nil
}

func snapshot(c *model.Collection) *model.Collection {
	copied := *c
	copied.RecipeIDs = append(pq.Int64Array{}, c.RecipeIDs...)
	return &copied
}

func (s memSocial) ListCollections(_ context.Context, userID int64) ([]model.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	collections := []model.Collection{}
	for _, c := range s.collections {
		if c.UserID == userID {
			collections = append(collections, *snapshot(c))
		}
	}
	sort.Slice(collections, func(i, j int) bool { return collections[i].ID > collections[j].ID })
	return collections, nil
}

func (s memSocial) CreateCollection(_ context.Context, userID int64, name, description string) (*model.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, now := s.next()
	c := &model.Collection{
		ID: id, UserID: userID, Name: name, Description: description,
		RecipeIDs: pq.Int64Array{}, CreatedAt: now, UpdatedAt: now,
	}
	s.collections[id] = c
	return snapshot(c), nil
}

func (s memSocial) UpdateCollection(_ context.Context, id, userID int64, name, description string) (*model.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.owned(id, userID)
	if err != nil {
		return nil, err
	}
	_, now := s.next()
	c.Name, c.Description, c.UpdatedAt = name, description, now
	return snapshot(c), nil
}

func (s memSocial) DeleteCollection(_ context.Context, id, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.owned(id, userID); err != nil {
		return err
	}
	delete(s.collections, id)
	return nil
}

func (s memSocial) AddToCollection(_ context.Context, id, userID, recipeID int64) (*model.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.owned(id, userID)
	if err != nil {
		return nil, err
	}
	if err := s.published(recipeID); err != nil {
		return nil, err
	}
	for _, existing := range c.RecipeIDs {
		if existing == recipeID {
			return snapshot(c), nil
		}
	}
	c.RecipeIDs = append(c.RecipeIDs, recipeID)
	return snapshot(c), nil
}

func (s memSocial) RemoveFromCollection(_ context.Context, id, userID, recipeID int64) (*model.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.owned(id, userID)
	if err != nil {
		return nil, err
	}
	for i, existing := range c.RecipeIDs {
		if existing == recipeID {
			c.RecipeIDs = append(c.RecipeIDs[:i], c.RecipeIDs[i+1:]...)
			return snapshot(c), nil
		}
	}
	return nil, model.ErrNotFoundOrUnauthorized
}

var _ service.SocialStore = memSocial{}
