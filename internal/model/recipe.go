package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
)

type RecipeStatus string

const (
	RecipeStatusDraft     RecipeStatus = "draft"
	RecipeStatusPublished RecipeStatus = "published"
	RecipeStatusArchived  RecipeStatus = "archived"
)

// Valid reports whether s is one of the three enumerated statuses.
func (s RecipeStatus) Valid() bool {
	switch s {
	case RecipeStatusDraft, RecipeStatusPublished, RecipeStatusArchived:
		return true
	}
	return false
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// ParseDifficulty accepts any casing ("Easy", "EASY") and returns the
// canonical lower-case value.
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("%w: unknown difficulty level %q", ErrMalformedPayload, s)
	}
	return d, nil
}

// Recipe is the aggregated read model: the recipe row plus its author's
// username, its categories and its rating summary.
type Recipe struct {
	ID              int64          `json:"id" db:"id"`
	Title           string         `json:"title" db:"title"`
	Description     string         `json:"description" db:"description"`
	Ingredients     pq.StringArray `json:"ingredients" db:"ingredients"`
	Instructions    pq.StringArray `json:"instructions" db:"instructions"`
	CookingTime     int            `json:"cooking_time" db:"cooking_time"`
	Servings        int            `json:"servings" db:"servings"`
	DifficultyLevel Difficulty     `json:"difficulty_level" db:"difficulty_level"`
	ImageURL        *string        `json:"image_url" db:"image_url"`
	Status          RecipeStatus   `json:"status" db:"status"`
	UserID          int64          `json:"user_id" db:"user_id"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at" db:"updated_at"`
	Author          *string        `json:"author" db:"author"`
	Categories      pq.StringArray `json:"categories" db:"categories"`
	CategoryIDs     pq.Int64Array  `json:"category_ids" db:"category_ids"`
	AverageRating   float64        `json:"average_rating" db:"average_rating"`
	RatingCount     int            `json:"rating_count" db:"rating_count"`
}

// Normalize replaces nil collections with empty ones so they encode as []
// rather than null.
func (r *Recipe) Normalize() {
	if r.Ingredients == nil {
		r.Ingredients = pq.StringArray{}
	}
	if r.Instructions == nil {
		r.Instructions = pq.StringArray{}
	}
	if r.Categories == nil {
		r.Categories = pq.StringArray{}
	}
	if r.CategoryIDs == nil {
		r.CategoryIDs = pq.Int64Array{}
	}
}

// RecipeFilter is the predicate of the aggregation query. Zero values mean
// "no constraint".
type RecipeFilter struct {
	ID             int64
	Status         RecipeStatus
	Query          string
	Difficulty     Difficulty
	MaxCookingTime int
	MinServings    int
	CategoryID     int64
	AuthorID       int64
	FavoriteOf     int64
	Limit          int
	Offset         int
}

// RecipeInput is a create or update payload after parsing.
type RecipeInput struct {
	Title           string       `json:"title"`
	Description     string       `json:"description"`
	Ingredients     StringList   `json:"ingredients"`
	Instructions    StringList   `json:"instructions"`
	CookingTime     int          `json:"cooking_time"`
	Servings        int          `json:"servings"`
	DifficultyLevel Difficulty   `json:"difficulty_level"`
	Status          RecipeStatus `json:"status"`
	CategoryID      FlexID       `json:"category_id"`
	CategoryIDs     []int64      `json:"category_ids"`
}

// Categories merges the singular and plural category fields. The second
// result is false when neither was supplied, which on update means "leave
// the associations as they are".
func (in *RecipeInput) Categories() ([]int64, bool) {
	if in.CategoryIDs == nil && in.CategoryID == 0 {
		return nil, false
	}
	seen := make(map[int64]struct{}, len(in.CategoryIDs)+1)
	ids := make([]int64, 0, len(in.CategoryIDs)+1)
	add := func(id int64) {
		if id <= 0 {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	add(int64(in.CategoryID))
	for _, id := range in.CategoryIDs {
		add(id)
	}
	return ids, true
}

// RecipeFields is the validated column set written by create and update.
// A nil ImageURL leaves the stored image untouched on update. An empty
// Status on update keeps the current one.
type RecipeFields struct {
	Title             string
	Description       string
	Ingredients       []string
	Instructions      []string
	CookingTime       int
	Servings          int
	DifficultyLevel   Difficulty
	Status            RecipeStatus
	ImageURL          *string
	CategoryIDs       []int64
	ReplaceCategories bool
}

type UpdateRecipeStatusRequest struct {
	Status RecipeStatus `json:"status"`
}

// StringList decodes either a JSON array of strings or a string holding a
// JSON-encoded array, which is what multipart clients send.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var encoded string
		if err := json.Unmarshal(data, &encoded); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		parsed, err := ParseStringList([]string{encoded})
		if err != nil {
			return err
		}
		*l = parsed
		return nil
	}
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("%w: expected a list of strings", ErrMalformedPayload)
	}
	*l = items
	return nil
}

// ParseStringList turns raw form values into an ordered list. Several
// values are taken as an already-split list; a single value must be a
// JSON-encoded array.
func ParseStringList(values []string) (StringList, error) {
	switch len(values) {
	case 0:
		return nil, nil
	case 1:
		var items []string
		if err := json.Unmarshal([]byte(values[0]), &items); err != nil {
			return nil, fmt.Errorf("%w: invalid JSON list", ErrMalformedPayload)
		}
		return items, nil
	default:
		return append(StringList(nil), values...), nil
	}
}

// FlexID accepts a numeric id encoded as a JSON number or string. Empty
// strings and null decode to zero.
type FlexID int64

func (f *FlexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
	}
	id, err := ParseFlexID(raw)
	if err != nil {
		return err
	}
	*f = id
	return nil
}

func ParseFlexID(raw string) (FlexID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("%w: invalid id %q", ErrMalformedPayload, raw)
	}
	return FlexID(id), nil
}
