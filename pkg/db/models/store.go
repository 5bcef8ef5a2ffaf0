package models

import (
	"time"

	"github.com/google/uuid"
)

// Store is the storefront an order is placed against. Only the contact block
// used in customer emails is modelled here; catalog data lives elsewhere.
type Store struct {
	ID                 uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name               string    `gorm:"column:name;not null"`
	Email              *string   `gorm:"column:email"`
	Phone              *string   `gorm:"column:phone"`
	Address            *string   `gorm:"column:address"`
	PickupInstructions *string   `gorm:"column:pickup_instructions"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Store) TableName() string { return "stores" }
