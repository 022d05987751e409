package api

import (
	"net/http"

	"github.com/recipe-finder/internal/model"
)

// ListCategories godoc
// @Summary List categories
// @Description Categories ordered by name, each with the number of recipes using it
// @Tags Categories
// @Produce json
// @Success 200 {array} model.Category
// @Router /categories [get]
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.admin.Categories(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, categories)
}

// CreateCategory godoc
// @Summary Create a category
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body model.CategoryRequest true "Category name"
// @Success 201 {object} model.Category
// @Failure 400 {object} map[string]string "Missing or duplicate name"
// @Security BearerAuth
// @Router /admin/categories [post]
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req model.CategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	category, err := h.admin.CreateCategory(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, category)
}

// UpdateCategory godoc
// @Summary Rename a category
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path int true "Category ID"
// @Param request body model.CategoryRequest true "New name"
// @Success 200 {object} model.Category
// @Failure 400 {object} map[string]string "Missing or duplicate name"
// @Failure 404 {object} map[string]string "Category not found"
// @Security BearerAuth
// @Router /admin/categories/{id} [put]
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req model.CategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	category, err := h.admin.RenameCategory(r.Context(), id, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, category)
}

// DeleteCategory godoc
// @Summary Delete a category
// @Description Removes the category's recipe associations first
// @Tags Admin
// @Produce json
// @Param id path int true "Category ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string "Category not found"
// @Security BearerAuth
// @Router /admin/categories/{id} [delete]
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.admin.DeleteCategory(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	respondMessage(w, "Category deleted successfully")
}

// ListUsers godoc
// @Summary List users
// @Tags Admin
// @Produce json
// @Success 200 {array} model.UserSummary
// @Security BearerAuth
// @Router /admin/users [get]
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.admin.Users(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, users)
}

// UpdateUserStatus godoc
// @Summary Grant or revoke admin rights
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body model.UpdateUserStatusRequest true "Admin flag"
// @Success 200 {object} model.User
// @Failure 400 {object} map[string]string "is_admin must be a boolean"
// @Failure 404 {object} map[string]string "User not found"
// @Security BearerAuth
// @Router /admin/users/{id}/status [put]
func (h *Handler) UpdateUserStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req model.UpdateUserStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		// a non-boolean is_admin fails to decode
		h.fail(w, r, model.ErrInvalidAdminFlag)
		return
	}

	user, err := h.admin.SetAdmin(r.Context(), id, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// DashboardStats godoc
// @Summary Dashboard statistics
// @Tags Admin
// @Produce json
// @Success 200 {object} model.DashboardStats
// @Security BearerAuth
// @Router /admin/dashboard/stats [get]
func (h *Handler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.admin.Stats(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// SweepImages godoc
// @Summary Remove unreferenced images now
// @Description Runs one image janitor pass outside its schedule
// @Tags Admin
// @Produce json
// @Success 200 {object} scheduler.SweepResult
// @Security BearerAuth
// @Router /admin/maintenance/images/sweep [post]
func (h *Handler) SweepImages(w http.ResponseWriter, r *http.Request) {
	result, err := h.admin.SweepImages(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
