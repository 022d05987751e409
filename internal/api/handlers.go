package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/recipe-finder/internal/logging"
	"github.com/recipe-finder/internal/middleware"
	"github.com/recipe-finder/internal/model"
	"github.com/recipe-finder/internal/scheduler"
	"github.com/recipe-finder/internal/service"
	"go.uber.org/zap"
)

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// JobsStatus reports whether background jobs are running and when a named
// job fires next.
type JobsStatus interface {
	IsRunning() bool
	NextRun(name string) *time.Time
}

// Handler contains all API handlers
type Handler struct {
	accounts *service.AccountService
	recipes  *service.RecipeService
	admin    *service.AdminService
	social   *service.SocialService
	db       HealthChecker
	jobs     JobsStatus
	logger   *zap.Logger
	maxBody  int64
}

// HandlerDeps groups what NewHandler wires together.
type HandlerDeps struct {
	Accounts *service.AccountService
	Recipes  *service.RecipeService
	Admin    *service.AdminService
	Social   *service.SocialService
	DB       HealthChecker
	Jobs     JobsStatus
	Logger   *zap.Logger
	// MaxUploadBytes bounds multipart bodies; form fields get an extra 1 MiB.
	MaxUploadBytes int64
}

// NewHandler creates a new API handler
func NewHandler(deps HandlerDeps) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		accounts: deps.Accounts,
		recipes:  deps.Recipes,
		admin:    deps.Admin,
		social:   deps.Social,
		db:       deps.DB,
		jobs:     deps.Jobs,
		logger:   logger,
		maxBody:  deps.MaxUploadBytes + 1<<20,
	}
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func respondMessage(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusOK, map[string]string{"message": message})
}

// fail maps a service error onto the HTTP taxonomy. Anything unrecognised
// is logged with detail and answered with a generic message.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case model.IsValidation(err):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrUnauthenticated),
		errors.Is(err, model.ErrInvalidToken),
		errors.Is(err, model.ErrTokenExpired):
		respondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, model.ErrForbidden):
		respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, model.ErrNotFoundOrUnauthorized),
		errors.Is(err, model.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	default:
		logging.FromContext(r.Context(), h.logger).Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		respondError(w, http.StatusInternalServerError, "server error")
	}
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, model.ErrMalformedPayload) {
			return err
		}
		return fmt.Errorf("%w: invalid request body", model.ErrMalformedPayload)
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, model.ErrInvalidID
	}
	return id, nil
}

// caller returns the identity attached by the auth middleware. Routes that
// call it are always mounted behind Authenticate or RequireAdmin.
func caller(r *http.Request) model.Identity {
	id, _ := middleware.IdentityFromContext(r.Context())
	return id
}

// Health godoc
// @Summary Health check
// @Description Reports database reachability, whether background jobs are running and when the image janitor runs next
// @Tags System
// @Produce json
// @Success 200 {object} map[string]interface{} "Healthy"
// @Failure 503 {object} map[string]interface{} "Database unreachable"
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{"status": "ok"}
	if h.jobs != nil {
		body["scheduler"] = h.jobs.IsRunning()
		if next := h.jobs.NextRun(scheduler.JanitorJobName); next != nil {
			body["janitor_next_run"] = next.UTC().Format(time.RFC3339)
		}
	}
	if h.db != nil {
		if err := h.db.Ping(r.Context()); err != nil {
			logging.FromContext(r.Context(), h.logger).Warn("health check failed", zap.Error(err))
			body["status"] = "degraded"
			respondJSON(w, http.StatusServiceUnavailable, body)
			return
		}
	}
	respondJSON(w, http.StatusOK, body)
}
