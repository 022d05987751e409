package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/recipe-finder/internal/model"
)

// Claims is the signed payload of a session token.
type Claims struct {
	UserID  int64 `json:"id"`
	IsAdmin bool  `json:"isAdmin,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 session tokens with a process-wide
// secret.
type TokenIssuer struct {
	secret []byte
	now    func() time.Time
}

type TokenOption func(*TokenIssuer)

// WithClock overrides the time source used for issuing and verifying.
func WithClock(now func() time.Time) TokenOption {
	return func(t *TokenIssuer) {
		t.now = now
	}
}

func NewTokenIssuer(secret string, opts ...TokenOption) *TokenIssuer {
	t := &TokenIssuer{
		secret: []byte(secret),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Issue signs a token for id that expires after ttl.
func (t *TokenIssuer) Issue(id model.Identity, ttl time.Duration) (string, error) {
	now := t.now()
	claims := Claims{
		UserID:  id.UserID,
		IsAdmin: id.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(id.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, then the expiry, and only then reads the
// claims. It returns model.ErrTokenExpired for an authentic token past its
// expiry and model.ErrInvalidToken for everything else that fails.
func (t *TokenIssuer) Verify(tokenStr string) (model.Identity, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return model.Identity{}, model.ErrTokenExpired
		}
		return model.Identity{}, model.ErrInvalidToken
	}
	if claims.UserID <= 0 {
		return model.Identity{}, model.ErrInvalidToken
	}
	return model.Identity{UserID: claims.UserID, IsAdmin: claims.IsAdmin}, nil
}
