package api

import (
	"net/http"

	"github.com/recipe-finder/internal/model"
)

// Register godoc
// @Summary Register a new user
// @Description Create a regular account and return a 30-day session token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body model.RegisterRequest true "Registration details"
// @Success 201 {object} model.Session
// @Failure 400 {object} map[string]string "Missing fields, invalid email, weak password or duplicate user"
// @Failure 500 {object} map[string]string "Server error"
// @Router /users/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	session, err := h.accounts.Register(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, session)
}

// Login godoc
// @Summary User login
// @Description Authenticate a regular (non-admin) user
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body model.LoginRequest true "Login credentials"
// @Success 200 {object} model.Session
// @Failure 400 {object} map[string]string "Invalid credentials"
// @Failure 500 {object} map[string]string "Server error"
// @Router /users/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	session, err := h.accounts.Login(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

// AdminLogin godoc
// @Summary Admin login
// @Description Authenticate an administrator and return a 24-hour token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body model.LoginRequest true "Login credentials"
// @Success 200 {object} model.Session
// @Failure 400 {object} map[string]string "Invalid admin credentials"
// @Failure 403 {object} map[string]string "Account is not an administrator"
// @Failure 500 {object} map[string]string "Server error"
// @Router /users/admin/login [post]
func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	session, err := h.accounts.AdminLogin(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

// GetProfile godoc
// @Summary Get user profile
// @Description Get the current user's profile information
// @Tags Authentication
// @Produce json
// @Success 200 {object} model.User
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "User not found"
// @Security BearerAuth
// @Router /users/me [get]
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.accounts.Profile(r.Context(), caller(r).UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// ChangePassword godoc
// @Summary Change password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body model.ChangePasswordRequest true "Current and new password"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string "Wrong current password or weak new password"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /users/me/password [put]
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req model.ChangePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.accounts.ChangePassword(r.Context(), caller(r).UserID, req); err != nil {
		h.fail(w, r, err)
		return
	}
	respondMessage(w, "Password updated successfully")
}
