package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/recipe-finder/internal/logging"
	"github.com/recipe-finder/internal/model"
	"go.uber.org/zap"
)

type contextKey string

const IdentityContextKey contextKey = "identity"

// Machine-readable codes attached to gate failures.
const (
	CodeTokenMissing = "TOKEN_MISSING"
	CodeTokenInvalid = "TOKEN_INVALID"
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeNotAdmin     = "NOT_ADMIN"
)

type TokenVerifier interface {
	Verify(token string) (model.Identity, error)
}

// AdminChecker resolves a user's current admin flag from the store.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID int64) (bool, error)
}

// AuthMiddleware is the access control gate. Public routes use no
// middleware, Authenticate requires a valid bearer token and RequireAdmin
// additionally re-reads the caller's admin flag on every request.
type AuthMiddleware struct {
	tokens TokenVerifier
	users  AdminChecker
	logger *zap.Logger
}

func NewAuthMiddleware(tokens TokenVerifier, users AdminChecker, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		tokens: tokens,
		users:  users,
		logger: logger,
	}
}

// Authenticate rejects requests without a valid bearer token and attaches
// the resolved identity to the request context.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeGateError(w, http.StatusUnauthorized, model.ErrUnauthenticated, CodeTokenMissing)
			return
		}

		id, err := m.tokens.Verify(token)
		if err != nil {
			code := CodeTokenInvalid
			if errors.Is(err, model.ErrTokenExpired) {
				code = CodeTokenExpired
			}
			writeGateError(w, http.StatusUnauthorized, err, code)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// RequireAdmin authenticates the caller and then checks the store, not the
// token, for admin rights, so a revoked admin loses access immediately.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := IdentityFromContext(r.Context())

		isAdmin, err := m.users.IsAdmin(r.Context(), id.UserID)
		if err != nil {
			logging.FromContext(r.Context(), m.logger).Error("admin check failed",
				zap.Int64("user_id", id.UserID), zap.Error(err))
			writeGateError(w, http.StatusInternalServerError, errors.New("server error"), "")
			return
		}
		if !isAdmin {
			writeGateError(w, http.StatusForbidden, model.ErrForbidden, CodeNotAdmin)
			return
		}

		id.IsAdmin = true
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	}))
}

// Optional attaches an identity when a valid token is present and lets the
// request through anonymously otherwise. The admin flag is re-read from the
// store as in RequireAdmin.
func (m *AuthMiddleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		id, err := m.tokens.Verify(token)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		isAdmin, err := m.users.IsAdmin(r.Context(), id.UserID)
		if err != nil {
			logging.FromContext(r.Context(), m.logger).Warn("admin check failed",
				zap.Int64("user_id", id.UserID), zap.Error(err))
			isAdmin = false
		}
		id.IsAdmin = isAdmin
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id model.Identity) context.Context {
	return context.WithValue(ctx, IdentityContextKey, id)
}

// IdentityFromContext returns the caller attached by the gate.
func IdentityFromContext(ctx context.Context) (model.Identity, bool) {
	id, ok := ctx.Value(IdentityContextKey).(model.Identity)
	return id, ok
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func writeGateError(w http.ResponseWriter, status int, err error, code string) {
	body := map[string]string{"error": err.Error()}
	if code != "" {
		body["code"] = code
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// CORS middleware
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Expose-Headers", RequestIDHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
