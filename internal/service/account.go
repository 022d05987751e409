// Package service holds the application services that sit between the HTTP
// handlers and the repositories.
package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/recipe-finder/internal/config"
	"github.com/recipe-finder/internal/model"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// bcrypt only reads the first 72 bytes of a password and refuses longer
// input.
const (
	minPasswordLength = 6
	maxPasswordBytes  = 72
)

type UserStore interface {
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)
	Create(ctx context.Context, username, email, passwordHash string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindRegularByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id int64) (*model.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	UpsertAdmin(ctx context.Context, username, email, passwordHash string) (*model.User, error)
}

type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

type TokenIssuer interface {
	Issue(id model.Identity, ttl time.Duration) (string, error)
}

// AccountService handles registration, both login paths and the admin
// bootstrap.
type AccountService struct {
	users    UserStore
	hasher   PasswordHasher
	tokens   TokenIssuer
	userTTL  time.Duration
	adminTTL time.Duration
}

func NewAccountService(users UserStore, hasher PasswordHasher, tokens TokenIssuer, cfg config.JWTConfig) *AccountService {
	return &AccountService{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		userTTL:  cfg.UserTTL,
		adminTTL: cfg.AdminTTL,
	}
}

// Register validates the input shape before touching the store: required
// fields, then email format and field widths, then the duplicate check, then
// password length.
func (s *AccountService) Register(ctx context.Context, req model.RegisterRequest) (*model.Session, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)
	if username == "" || email == "" || req.Password == "" {
		return nil, model.ErrMissingField
	}
	if !emailPattern.MatchString(email) {
		return nil, model.ErrInvalidEmail
	}
	if err := checkIdentity(username, email); err != nil {
		return nil, err
	}

	exists, err := s.users.ExistsByEmailOrUsername(ctx, email, username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, model.ErrDuplicateUser
	}
	if err := checkPassword(req.Password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	user, err := s.users.Create(ctx, username, email, hash)
	if err != nil {
		return nil, err
	}
	return s.session(user, false, s.userTTL)
}

// Login is the regular path. Admin accounts are invisible here, so an
// admin's correct password still yields invalid credentials.
func (s *AccountService) Login(ctx context.Context, req model.LoginRequest) (*model.Session, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		return nil, model.ErrMissingField
	}

	user, err := s.users.FindRegularByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !s.hasher.Verify(req.Password, user.Password) {
		return nil, model.ErrInvalidCredentials
	}
	return s.session(user, false, s.userTTL)
}

// AdminLogin issues a short-lived token carrying the admin flag. An existing
// non-admin account is refused with ErrForbidden.
func (s *AccountService) AdminLogin(ctx context.Context, req model.LoginRequest) (*model.Session, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		return nil, model.ErrMissingField
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, model.ErrInvalidAdminCredentials
	}
	if !user.IsAdmin {
		return nil, model.ErrForbidden
	}
	if !s.hasher.Verify(req.Password, user.Password) {
		return nil, model.ErrInvalidAdminCredentials
	}
	return s.session(user, true, s.adminTTL)
}

func (s *AccountService) Profile(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, model.ErrNotFound
	}
	return user, nil
}

func (s *AccountService) ChangePassword(ctx context.Context, userID int64, req model.ChangePasswordRequest) error {
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return model.ErrMissingField
	}
	if err := checkPassword(req.NewPassword); err != nil {
		return err
	}

	user, err := s.Profile(ctx, userID)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(req.CurrentPassword, user.Password) {
		return model.ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, userID, hash)
}

// EnsureAdmin creates the bootstrap admin, or resets the password of the
// account holding that email and promotes it.
func (s *AccountService) EnsureAdmin(ctx context.Context, username, email, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, model.ErrMissingField
	}
	if !emailPattern.MatchString(email) {
		return nil, model.ErrInvalidEmail
	}
	if err := checkIdentity(username, email); err != nil {
		return nil, err
	}
	if err := checkPassword(password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	user, err := s.users.UpsertAdmin(ctx, username, email, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure admin %s: %w", email, err)
	}
	return user, nil
}

func checkIdentity(username, email string) error {
	if err := model.CheckLength("username", username, model.MaxUsernameLength); err != nil {
		return err
	}
	return model.CheckLength("email", email, model.MaxEmailLength)
}

func checkPassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return model.ErrWeakPassword
	}
	if len(password) > maxPasswordBytes {
		return model.ErrPasswordTooLong
	}
	return nil
}

func (s *AccountService) session(user *model.User, admin bool, ttl time.Duration) (*model.Session, error) {
	token, err := s.tokens.Issue(model.Identity{UserID: user.ID, IsAdmin: admin}, ttl)
	if err != nil {
		return nil, err
	}
	return &model.Session{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		IsAdmin:  admin,
		Token:    token,
	}, nil
}
