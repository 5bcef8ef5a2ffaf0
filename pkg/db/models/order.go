package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-orders/pkg/enums"
	"github.com/angelmondragon/storefront-orders/pkg/types"
)

// Order is a single checkout transaction, from creation through fulfillment.
// Buyer and CartItems are snapshots taken at checkout and never rewritten.
type Order struct {
	ID              int64               `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ReferenceNumber string              `gorm:"column:reference_number;not null;uniqueIndex:ux_orders_reference_number" json:"reference_number"`
	StoreID         uuid.UUID           `gorm:"column:store_id;type:uuid;not null" json:"store_id"`
	Buyer           types.BuyerSnapshot `gorm:"column:buyer;type:jsonb;not null" json:"buyer"`
	CartItems       types.CartSnapshot  `gorm:"column:cart_items;type:jsonb;not null" json:"cart_items"`
	Total           decimal.Decimal     `gorm:"column:total;type:numeric(12,2);not null" json:"total"`
	PaymentMethod   enums.PaymentMethod `gorm:"column:payment_method;type:text;not null" json:"payment_method"`
	PaymentID       string              `gorm:"column:payment_id;not null" json:"payment_id"`
	OrderStatus     enums.OrderStatus   `gorm:"column:order_status;type:text;not null;default:'pending'" json:"order_status"`
	PaymentStatus   enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'" json:"payment_status"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Order) TableName() string { return "orders" }
