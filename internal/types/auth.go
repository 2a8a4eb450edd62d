package types

import (
	"time"

	"github.com/google/uuid"
)

// AuthToken is the opaque bearer credential bound to exactly one user.
type AuthToken struct {
	Key       string    `json:"token" db:"key"`
	UserID    uuid.UUID `json:"-" db:"user_id"`
	CreatedAt time.Time `json:"-" db:"created_at"`
}

// TokenRequest is the body of POST /users/token.
type TokenRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse is returned on successful credential verification.
type TokenResponse struct {
	Token string `json:"token" example:"9944b09199c62bcf9418ad846dd0e4bbdfc6ee4b"`
}
