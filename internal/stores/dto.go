package stores

import (
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-orders/pkg/db/models"
)

// StoreContact is the contact block printed in customer emails.
type StoreContact struct {
	ID                 uuid.UUID `json:"id"`
	Name               string    `json:"name"`
	Email              string    `json:"email,omitempty"`
	Phone              string    `json:"phone,omitempty"`
	Address            string    `json:"address,omitempty"`
	PickupInstructions string    `json:"pickup_instructions,omitempty"`
}

// FromModel maps a store row into its contact block.
func FromModel(m *models.Store) *StoreContact {
	if m == nil {
		return nil
	}
	return &StoreContact{
		ID:                 m.ID,
		Name:               strings.TrimSpace(m.Name),
		Email:              deref(m.Email),
		Phone:              deref(m.Phone),
		Address:            deref(m.Address),
		PickupInstructions: deref(m.PickupInstructions),
	}
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}
