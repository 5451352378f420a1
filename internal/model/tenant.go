package model

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is the isolation boundary. Every business entity belongs to
// exactly one tenant; cross-tenant access is filtered at the query layer.
type Tenant struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
