package api

import (
	"net/http"

	"github.com/recipe-finder/internal/model"
)

// AddFavorite godoc
// @Summary Mark a recipe as favorite
// @Description Idempotent
// @Tags Social
// @Produce json
// @Param id path int true "Recipe ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string "Recipe not found"
// @Security BearerAuth
// @Router /recipes/{id}/favorite [put]
func (h *Handler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.social.AddFavorite(r.Context(), caller(r), id); err != nil {
		h.fail(w, r, err)
		return
	}
	respondMessage(w, "Recipe added to favorites")
}

// RemoveFavorite godoc
// @Summary Unmark a favorite recipe
// @Tags Social
// @Produce json
// @Param id path int true "Recipe ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string "Favorite not found"
// @Security BearerAuth
// @Router /recipes/{id}/favorite [delete]
func (h *Handler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.social.RemoveFavorite(r.Context(), caller(r), id); err != nil {
		h.fail(w, r, err)
		return
	}
	respondMessage(w, "Recipe removed from favorites")
}

// ListFavorites godoc
// @Summary List my favorite recipes
// @Tags Social
// @Produce json
// @Success 200 {array} model.Recipe
// @Security BearerAuth
// @Router /users/me/favorites [get]
func (h *Handler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	filter, err := parseRecipeFilter(r.URL.Query())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	recipes, err := h.recipes.Favorites(r.Context(), caller(r).UserID, filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nonNilRecipes(recipes))
}

// RateRecipe godoc
// @Summary Rate a recipe
// @Description Records or replaces the caller's 1-5 rating and returns the new average
// @Tags Social
// @Accept json
// @Produce json
// @Param id path int true "Recipe ID"
// @Param request body model.RatingRequest true "Rating"
// @Success 200 {object} model.RatingSummary
// @Failure 400 {object} map[string]string "Rating out of range"
// @Failure 404 {object} map[string]string "Recipe not found"
// @Security BearerAuth
// @Router /recipes/{id}/rating [put]
func (h *Handler) RateRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req model.RatingRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	summary, err := h.social.Rate(r.Context(), caller(r), id, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// ListReviews godoc
// @Summary List a recipe's reviews
// @Tags Social
// @Produce json
// @Param id path int true "Recipe ID"
// @Success 200 {array} model.Review
// @Router /recipes/{id}/reviews [get]
func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	reviews, err := h.social.Reviews(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, reviews)
}

// CreateReview godoc
// @Summary Review a recipe
// @Tags Social
// @Accept json
// @Produce json
// @Param id path int true "Recipe ID"
// @Param request body model.ReviewRequest true "Review"
// @Success 201 {object} model.Review
// @Failure 400 {object} map[string]string "Empty review"
// @Failure 404 {object} map[string]string "Recipe not found"
// @Security BearerAuth
// @Router /recipes/{id}/reviews [post]
func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req model.ReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	review, err := h.social.CreateReview(r.Context(), caller(r), id, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, review)
}

// UpdateReview godoc
// @Summary Edit my review
// @Tags Social
// @Accept json
// @Produce json
// @Param id path int true "Review ID"
// @Param request body model.ReviewRequest true "Review"
// @Success 200 {object} model.Review
// @Failure 404 {object} map[string]string "Review not found or unauthorized"
// @Security BearerAuth
// @Router /reviews/{id} [put]
func (h *Handler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req model.ReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	review, err := h.social.UpdateReview(r.Context(), caller(r), id, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, review)
}

// DeleteReview godoc
// @Summary Delete my review
// @Tags Social
// @Produce json
// @Param id path int true "Review ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string "Review not found or unauthorized"
// @Security BearerAuth
// @Router /reviews/{id} [delete]
func (h *Handler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.social.DeleteReview(r.Context(), caller(r), id); err != nil {
		h.fail(w, r, err)
		return
	}
	respondMessage(w, "Review deleted successfully")
}

// ListCollections godoc
// @Summary List my collections
// @Tags Social
// @Produce json
// @Success 200 {array} model.Collection
// @Security BearerAuth
// @Router /users/me/collections [get]
func (h *Handler) ListCollections(w http.ResponseWriter, r *http.Request) {
	collections, err := h.social.Collections(r.Context(), caller(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, collections)
}

// CreateCollection godoc
// @Summary Create a collection
// @Tags Social
// @Accept json
// @Produce json
// @Param request body model.CollectionRequest true "Collection"
// @Success 201 {object} model.Collection
// @Failure 400 {object} map[string]string "Missing name"
// @Security BearerAuth
// @Router /users/me/collections [post]
func (h *Handler) CreateCollection(w http.ResponseWriter, r *http.Request) {
	var req model.CollectionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	collection, err := h.social.CreateCollection(r.Context(), caller(r), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, collection)
}

// UpdateCollection godoc
// @Summary Rename a collection
// @Tags Social
// @Accept json
// @Produce json
// @Param id path int true "Collection ID"
// @Param request body model.CollectionRequest true "Collection"
// @Success 200 {object} model.Collection
// @Failure 404 {object} map[string]string "Collection not found or unauthorized"
// @Security BearerAuth
// @Router /users/me/collections/{id} [put]
func (h *Handler) UpdateCollection(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req model.CollectionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	collection, err := h.social.UpdateCollection(r.Context(), caller(r), id, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, collection)
}

// DeleteCollection godoc
// @Summary Delete a collection
// @Tags Social
// @Produce json
// @Param id path int true "Collection ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string "Collection not found or unauthorized"
// @Security BearerAuth
// @Router /users/me/collections/{id} [delete]
func (h *Handler) DeleteCollection(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.social.DeleteCollection(r.Context(), caller(r), id); err != nil {
		h.fail(w, r, err)
		return
	}
	respondMessage(w, "Collection deleted successfully")
}

// AddToCollection godoc
// @Summary Add a recipe to a collection
// @Tags Social
// @Produce json
// @Param id path int true "Collection ID"
// @Param recipeId path int true "Recipe ID"
// @Success 200 {object} model.Collection
// @Failure 404 {object} map[string]string "Collection or recipe not found"
// @Security BearerAuth
// @Router /users/me/collections/{id}/recipes/{recipeId} [put]
func (h *Handler) AddToCollection(w http.ResponseWriter, r *http.Request) {
	h.collectionEntry(w, r, true)
}

// RemoveFromCollection godoc
// @Summary Remove a recipe from a collection
// @Tags Social
// @Produce json
// @Param id path int true "Collection ID"
// @Param recipeId path int true "Recipe ID"
// @Success 200 {object} model.Collection
// @Failure 404 {object} map[string]string "Collection not found or unauthorized"
// @Security BearerAuth
// @Router /users/me/collections/{id}/recipes/{recipeId} [delete]
func (h *Handler) RemoveFromCollection(w http.ResponseWriter, r *http.Request) {
	h.collectionEntry(w, r, false)
}

func (h *Handler) collectionEntry(w http.ResponseWriter, r *http.Request, add bool) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	recipeID, err := pathID(r, "recipeId")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var collection *model.Collection
	if add {
		collection, err = h.social.AddToCollection(r.Context(), caller(r), id, recipeID)
	} else {
		collection, err = h.social.RemoveFromCollection(r.Context(), caller(r), id, recipeID)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, collection)
}
