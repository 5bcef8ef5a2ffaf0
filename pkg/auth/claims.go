package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-orders/pkg/enums"
)

// StaffTokenPayload captures the data available when minting a staff JWT.
type StaffTokenPayload struct {
	UserID  string
	StoreID *uuid.UUID
	Role    enums.StaffRole
}

// StaffClaims represents the typed JWT presented by staff clients.
type StaffClaims struct {
	UserID  string          `json:"user_id"`
	StoreID *uuid.UUID      `json:"store_id,omitempty"`
	Role    enums.StaffRole `json:"role"`
	jwt.RegisteredClaims
}

// HasStore reports whether the token is scoped to a single store.
func (c *StaffClaims) HasStore() bool {
	return c != nil && c.StoreID != nil && *c.StoreID != uuid.Nil
}
