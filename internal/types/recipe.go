package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Recipe is the persisted recipe row together with its link sets.
type Recipe struct {
	ID            int64           `db:"id"`
	UserID        uuid.UUID       `db:"user_id"`
	Title         string          `db:"title"`
	TimeMinutes   int             `db:"time_minutes"`
	Price         decimal.Decimal `db:"price"`
	Link          string          `db:"link"`
	Image         *string         `db:"image"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
	TagIDs        []int64         `db:"-"`
	IngredientIDs []int64         `db:"-"`
}

// RecipeParams carries a create, full update or partial update.
// For partial updates nil pointers mean "leave unchanged"; a nil TagIDs or
// IngredientIDs slice leaves the link set untouched.
type RecipeParams struct {
	Title         *string          `json:"title" validate:"omitnil,notblank,max=255"`
	TimeMinutes   *int             `json:"time_minutes" validate:"omitnil,min=1,max=2147483647"`
	Price         *decimal.Decimal `json:"price" validate:"omitnil,dec_min=0,decimal=5.2" swaggertype:"string"`
	Link          *string          `json:"link" validate:"omitnil,max=255"`
	TagIDs        []int64          `json:"tags"`
	IngredientIDs []int64          `json:"ingredients"`
}

// RecipeFilter narrows a recipe listing. Ids within one list are OR-ed,
// the two lists are AND-ed.
type RecipeFilter struct {
	TagIDs        []int64
	IngredientIDs []int64
}

// RecipeResponse is the list/create representation: relations as bare ids.
type RecipeResponse struct {
	ID          int64   `json:"id" example:"1"`
	Title       string  `json:"title" example:"Chocolate cheesecake"`
	Ingredients []int64 `json:"ingredients"`
	Price       string  `json:"price" example:"5.00"`
	TimeMinutes int     `json:"time_minutes" example:"10"`
	Tags        []int64 `json:"tags"`
	Link        string  `json:"link"`
}

// RecipeDetailResponse expands relations into nested objects.
type RecipeDetailResponse struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Ingredients []Label `json:"ingredients"`
	Price       string  `json:"price"`
	TimeMinutes int     `json:"time_minutes"`
	Tags        []Label `json:"tags"`
	Link        string  `json:"link"`
	Image       *string `json:"image"`
}

// RecipeImageResponse is returned by the image upload endpoint.
type RecipeImageResponse struct {
	ID    int64   `json:"id"`
	Image *string `json:"image"`
}

// ImageUpload is a validated image ready to be stored.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}
