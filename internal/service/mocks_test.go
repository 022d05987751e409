package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/recipe-finder/internal/imagestore"
	"github.com/recipe-finder/internal/model"
)

type mockUserStore struct {
	existsFn      func(ctx context.Context, email, username string) (bool, error)
	createFn      func(ctx context.Context, username, email, hash string) (*model.User, error)
	findByEmailFn func(ctx context.Context, email string) (*model.User, error)
	findRegularFn func(ctx context.Context, email string) (*model.User, error)
	findByIDFn    func(ctx context.Context, id int64) (*model.User, error)
	updatePassFn  func(ctx context.Context, id int64, hash string) error
	upsertAdminFn func(ctx context.Context, username, email, hash string) (*model.User, error)
	calls         int
}

func (m *mockUserStore) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	m.calls++
	if m.existsFn != nil {
		return m.existsFn(ctx, email, username)
	}
	return false, nil
}

func (m *mockUserStore) Create(ctx context.Context, username, email, hash string) (*model.User, error) {
	m.calls++
	if m.createFn != nil {
		return m.createFn(ctx, username, email, hash)
	}
	return &model.User{ID: 1, Username: username, Email: email, Password: hash}, nil
}

func (m *mockUserStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	m.calls++
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, nil
}

func (m *mockUserStore) FindRegularByEmail(ctx context.Context, email string) (*model.User, error) {
	m.calls++
	if m.findRegularFn != nil {
		return m.findRegularFn(ctx, email)
	}
	return nil, nil
}

func (m *mockUserStore) FindByID(ctx context.Context, id int64) (*model.User, error) {
	m.calls++
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserStore) UpdatePassword(ctx context.Context, id int64, hash string) error {
	m.calls++
	if m.updatePassFn != nil {
		return m.updatePassFn(ctx, id, hash)
	}
	return nil
}

func (m *mockUserStore) UpsertAdmin(ctx context.Context, username, email, hash string) (*model.User, error) {
	m.calls++
	if m.upsertAdminFn != nil {
		return m.upsertAdminFn(ctx, username, email, hash)
	}
	return &model.User{ID: 1, Username: username, Email: email, Password: hash, IsAdmin: true}, nil
}

// plainHasher marks digests with a prefix so tests can tell hashed values
// apart without paying for bcrypt.
type plainHasher struct{ err error }

func (h plainHasher) Hash(plaintext string) (string, error) {
	if h.err != nil {
		return "", h.err
	}
	return "hashed:" + plaintext, nil
}

func (h plainHasher) Verify(plaintext, digest string) bool {
	return digest == "hashed:"+plaintext
}

type issuedToken struct {
	id  model.Identity
	ttl time.Duration
}

type recordingIssuer struct {
	issued []issuedToken
}

func (r *recordingIssuer) Issue(id model.Identity, ttl time.Duration) (string, error) {
	r.issued = append(r.issued, issuedToken{id: id, ttl: ttl})
	return fmt.Sprintf("token-%d", id.UserID), nil
}

type mockRecipeStore struct {
	listFn         func(ctx context.Context, filter model.RecipeFilter) ([]model.Recipe, error)
	findByIDFn     func(ctx context.Context, id int64, status model.RecipeStatus) (*model.Recipe, error)
	createFn       func(ctx context.Context, userID int64, f model.RecipeFields) (int64, error)
	updateFn       func(ctx context.Context, id, ownerID int64, f model.RecipeFields) (*string, error)
	deleteFn       func(ctx context.Context, id, ownerID int64) (*string, error)
	updateStatusFn func(ctx context.Context, id int64, status model.RecipeStatus) error
}

func (m *mockRecipeStore) List(ctx context.Context, filter model.RecipeFilter) ([]model.Recipe, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return nil, nil
}

func (m *mockRecipeStore) FindByID(ctx context.Context, id int64, status model.RecipeStatus) (*model.Recipe, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id, status)
	}
	return &model.Recipe{ID: id}, nil
}

func (m *mockRecipeStore) Create(ctx context.Context, userID int64, f model.RecipeFields) (int64, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, f)
	}
	return 1, nil
}

func (m *mockRecipeStore) Update(ctx context.Context, id, ownerID int64, f model.RecipeFields) (*string, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, ownerID, f)
	}
	return nil, nil
}

func (m *mockRecipeStore) Delete(ctx context.Context, id, ownerID int64) (*string, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id, ownerID)
	}
	return nil, nil
}

func (m *mockRecipeStore) UpdateStatus(ctx context.Context, id int64, status model.RecipeStatus) error {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, id, status)
	}
	return nil
}

// memoryImages is an in-memory imagestore.Store.
type memoryImages struct {
	saved     map[string]string
	removed   []string
	saveErr   error
	removeErr error
	seq       int
}

func newMemoryImages() *memoryImages {
	return &memoryImages{saved: make(map[string]string)}
}

func (m *memoryImages) Save(_ context.Context, originalName, _ string, r io.Reader) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	ext, err := imagestore.Extension(originalName)
	if err != nil {
		return "", err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.seq++
	url := fmt.Sprintf("/uploads/recipes/img%d%s", m.seq, ext)
	m.saved[url] = string(data)
	return url, nil
}

func (m *memoryImages) Remove(_ context.Context, url string) error {
	if m.removeErr != nil {
		return m.removeErr
	}
	m.removed = append(m.removed, url)
	delete(m.saved, url)
	return nil
}

func (m *memoryImages) List(context.Context) ([]imagestore.Object, error) {
	return nil, errors.New("not implemented")
}
