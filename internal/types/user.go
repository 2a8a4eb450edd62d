package types

import (
	"time"

	"github.com/google/uuid"
)

// User is the identity every tag, ingredient and recipe is scoped to.
type User struct {
	ID           uuid.UUID  `json:"-" db:"id"`
	Email        string     `json:"email" db:"email" example:"cook@example.com"`
	Name         string     `json:"name" db:"name" example:"Jane Cook"`
	PasswordHash string     `json:"-" db:"password_hash"`
	IsActive     bool       `json:"-" db:"is_active"`
	IsStaff      bool       `json:"-" db:"is_staff"`
	IsSuperuser  bool       `json:"-" db:"is_superuser"`
	LastLoginAt  *time.Time `json:"-" db:"last_login_at"`
	CreatedAt    time.Time  `json:"-" db:"created_at"`
	UpdatedAt    time.Time  `json:"-" db:"updated_at"`
}

// RegisterParams is the body of POST /users.
type RegisterParams struct {
	Email    string `json:"email" validate:"required,email,max=255" example:"cook@example.com"`
	Password string `json:"password" validate:"required,min=5" example:"testpass"`
	Name     string `json:"name" validate:"required,max=255" example:"Jane Cook"`
}

// UpdateProfileParams is the body of PATCH /users/me. Nil fields are left untouched.
type UpdateProfileParams struct {
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
	Name     *string `json:"name,omitempty"`
}

// NewUserParams is what the repository persists; the password is already hashed.
type NewUserParams struct {
	Email        string
	Name         string
	PasswordHash string
	IsStaff      bool
	IsSuperuser  bool
}
