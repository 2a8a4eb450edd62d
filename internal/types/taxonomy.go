package types

import "github.com/google/uuid"

// Label is a user-owned flat entity: a tag or an ingredient.
type Label struct {
	ID     int64     `json:"id" db:"id"`
	Name   string    `json:"name" db:"name"`
	UserID uuid.UUID `json:"-" db:"user_id"`
}

// LabelParams is the body used to create or rename a tag or ingredient.
type LabelParams struct {
	Name string `json:"name" validate:"required,max=255" example:"Vegan"`
}

// LabelFilter narrows a tag or ingredient listing.
type LabelFilter struct {
	// AssignedOnly keeps only labels referenced by at least one recipe.
	AssignedOnly bool
}
