package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/recipe-finder/internal/middleware"
	"github.com/recipe-finder/internal/model"
	"github.com/recipe-finder/internal/service"
)

// multipartMemory is how much of a multipart body is held in memory before
// file parts spill to disk.
const multipartMemory = 8 << 20

// ListRecipes godoc
// @Summary List published recipes
// @Description Newest first. Every recipe carries its author, categories and rating summary.
// @Tags Recipes
// @Produce json
// @Param q query string false "Search in title, description and ingredients"
// @Param difficulty query string false "easy, medium or hard"
// @Param max_time query int false "Maximum cooking time in minutes"
// @Param min_servings query int false "Minimum servings"
// @Param category query int false "Category id"
// @Param author query int false "Author user id"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {array} model.Recipe
// @Failure 400 {object} map[string]string "Invalid filter"
// @Failure 500 {object} map[string]string "Server error"
// @Router /recipes [get]
func (h *Handler) ListRecipes(w http.ResponseWriter, r *http.Request) {
	filter, err := parseRecipeFilter(r.URL.Query())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	recipes, err := h.recipes.ListPublished(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nonNilRecipes(recipes))
}

// GetRecipe godoc
// @Summary Get a recipe
// @Description Anonymous and regular callers only see published recipes; admins see any status
// @Tags Recipes
// @Produce json
// @Param id path int true "Recipe ID"
// @Success 200 {object} model.Recipe
// @Failure 404 {object} map[string]string "Recipe not found"
// @Router /recipes/{id} [get]
func (h *Handler) GetRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	identity, _ := middleware.IdentityFromContext(r.Context())
	recipe, err := h.recipes.Get(r.Context(), id, identity)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, recipe)
}

// CreateRecipe godoc
// @Summary Create a recipe
// @Description Accepts JSON or multipart/form-data with an optional image part. Ingredients and instructions may be JSON-encoded strings.
// @Tags Recipes
// @Accept json,mpfd
// @Produce json
// @Param title formData string true "Title"
// @Param ingredients formData string false "JSON array of ingredients"
// @Param instructions formData string false "JSON array of steps"
// @Param category_id formData int false "Category id"
// @Param image formData file false "Recipe image"
// @Success 201 {object} model.Recipe
// @Failure 400 {object} map[string]string "Malformed payload"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Security BearerAuth
// @Router /recipes [post]
func (h *Handler) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	in, image, cleanup, err := h.parseRecipeRequest(w, r)
	defer cleanup()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	recipe, err := h.recipes.Create(r.Context(), caller(r), in, image)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, recipe)
}

// UpdateRecipe godoc
// @Summary Update a recipe
// @Description Owner-scoped. A recipe owned by someone else is reported exactly like a missing one.
// @Tags Recipes
// @Accept json,mpfd
// @Produce json
// @Param id path int true "Recipe ID"
// @Param image formData file false "Replacement image"
// @Success 200 {object} model.Recipe
// @Failure 400 {object} map[string]string "Malformed payload"
// @Failure 404 {object} map[string]string "Recipe not found or unauthorized"
// @Security BearerAuth
// @Router /recipes/{id} [put]
func (h *Handler) UpdateRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	in, image, cleanup, err := h.parseRecipeRequest(w, r)
	defer cleanup()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	recipe, err := h.recipes.Update(r.Context(), caller(r), id, in, image)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, recipe)
}

// DeleteRecipe godoc
// @Summary Delete a recipe
// @Description Owner-scoped; the recipe image is released best effort
// @Tags Recipes
// @Produce json
// @Param id path int true "Recipe ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string "Recipe not found or unauthorized"
// @Security BearerAuth
// @Router /recipes/{id} [delete]
func (h *Handler) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.recipes.Delete(r.Context(), caller(r), id); err != nil {
		h.fail(w, r, err)
		return
	}
	respondMessage(w, "Recipe deleted successfully")
}

// AdminListRecipes godoc
// @Summary List recipes of every status
// @Tags Admin
// @Produce json
// @Param status query string false "draft, published or archived"
// @Success 200 {array} model.Recipe
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Security BearerAuth
// @Router /admin/recipes [get]
func (h *Handler) AdminListRecipes(w http.ResponseWriter, r *http.Request) {
	filter, err := parseRecipeFilter(r.URL.Query())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	filter.Status = model.RecipeStatus(r.URL.Query().Get("status"))

	recipes, err := h.recipes.List(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nonNilRecipes(recipes))
}

// UpdateRecipeStatus godoc
// @Summary Set a recipe's status
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path int true "Recipe ID"
// @Param request body model.UpdateRecipeStatusRequest true "New status"
// @Success 200 {object} model.Recipe
// @Failure 400 {object} map[string]string "Invalid status"
// @Failure 404 {object} map[string]string "Recipe not found"
// @Security BearerAuth
// @Router /admin/recipes/{id}/status [put]
func (h *Handler) UpdateRecipeStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req model.UpdateRecipeStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	recipe, err := h.recipes.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, recipe)
}

// AdminDeleteRecipe godoc
// @Summary Delete any recipe
// @Tags Admin
// @Produce json
// @Param id path int true "Recipe ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string "Recipe not found"
// @Security BearerAuth
// @Router /admin/recipes/{id} [delete]
func (h *Handler) AdminDeleteRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.recipes.AdminDelete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	respondMessage(w, "Recipe deleted successfully")
}

// parseRecipeRequest reads a recipe payload from either a JSON body or a
// multipart form. The returned cleanup must always be called.
func (h *Handler) parseRecipeRequest(w http.ResponseWriter, r *http.Request) (model.RecipeInput, *service.ImageUpload, func(), error) {
	var in model.RecipeInput
	noop := func() {}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return in, nil, noop, decodeJSON(r, &in)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return in, nil, noop, fmt.Errorf("%w: upload exceeds %d bytes", model.ErrInvalidImage, tooLarge.Limit)
		}
		return in, nil, noop, fmt.Errorf("%w: invalid multipart form", model.ErrMalformedPayload)
	}
	cleanup := func() { _ = r.MultipartForm.RemoveAll() }

	in, err := recipeFromForm(r.MultipartForm.Value)
	if err != nil {
		return in, nil, cleanup, err
	}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return in, nil, cleanup, nil
	}
	if err != nil {
		return in, nil, cleanup, fmt.Errorf("%w: %v", model.ErrInvalidImage, err)
	}
	return in, imageUpload(file, header), func() {
		_ = file.Close()
		cleanup()
	}, nil
}

func imageUpload(file multipart.File, header *multipart.FileHeader) *service.ImageUpload {
	return &service.ImageUpload{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	}
}

func recipeFromForm(values url.Values) (model.RecipeInput, error) {
	in := model.RecipeInput{
		Title:           values.Get("title"),
		Description:     values.Get("description"),
		DifficultyLevel: model.Difficulty(values.Get("difficulty_level")),
		Status:          model.RecipeStatus(values.Get("status")),
	}

	var err error
	if in.Ingredients, err = model.ParseStringList(values["ingredients"]); err != nil {
		return in, err
	}
	if in.Instructions, err = model.ParseStringList(values["instructions"]); err != nil {
		return in, err
	}
	if in.CookingTime, err = formInt(values, "cooking_time"); err != nil {
		return in, err
	}
	if in.Servings, err = formInt(values, "servings"); err != nil {
		return in, err
	}
	if in.CategoryID, err = model.ParseFlexID(values.Get("category_id")); err != nil {
		return in, err
	}
	if raw, ok := values["category_ids"]; ok {
		if in.CategoryIDs, err = parseIDList(raw); err != nil {
			return in, err
		}
	}
	return in, nil
}

// parseIDList accepts repeated form values or a single JSON array.
func parseIDList(values []string) ([]int64, error) {
	ids := []int64{}
	if len(values) == 1 && strings.HasPrefix(strings.TrimSpace(values[0]), "[") {
		var flex []model.FlexID
		if err := json.Unmarshal([]byte(values[0]), &flex); err != nil {
			return nil, fmt.Errorf("%w: invalid category_ids", model.ErrMalformedPayload)
		}
		for _, id := range flex {
			ids = append(ids, int64(id))
		}
		return ids, nil
	}
	for _, v := range values {
		id, err := model.ParseFlexID(v)
		if err != nil {
			return nil, err
		}
		if id > 0 {
			ids = append(ids, int64(id))
		}
	}
	return ids, nil
}

func formInt(values url.Values, key string) (int, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a whole number", model.ErrMalformedPayload, key)
	}
	return n, nil
}

func parseRecipeFilter(q url.Values) (model.RecipeFilter, error) {
	f := model.RecipeFilter{Query: q.Get("q")}

	if v := q.Get("difficulty"); v != "" {
		d, err := model.ParseDifficulty(v)
		if err != nil {
			return f, err
		}
		f.Difficulty = d
	}

	var err error
	if f.MaxCookingTime, err = formInt(q, "max_time"); err != nil {
		return f, err
	}
	if f.MinServings, err = formInt(q, "min_servings"); err != nil {
		return f, err
	}
	if f.Limit, err = formInt(q, "limit"); err != nil {
		return f, err
	}
	if f.Offset, err = formInt(q, "offset"); err != nil {
		return f, err
	}

	category, err := model.ParseFlexID(q.Get("category"))
	if err != nil {
		return f, err
	}
	f.CategoryID = int64(category)

	author, err := model.ParseFlexID(q.Get("author"))
	if err != nil {
		return f, err
	}
	f.AuthorID = int64(author)
	return f, nil
}

func nonNilRecipes(recipes []model.Recipe) []model.Recipe {
	if recipes == nil {
		return []model.Recipe{}
	}
	return recipes
}
