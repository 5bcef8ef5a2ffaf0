package outbox

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-orders/pkg/enums"
)

// OrderEvent is the payload shared by every order lifecycle event.
type OrderEvent struct {
	OrderID         int64               `json:"orderId"`
	ReferenceNumber string              `json:"referenceNumber"`
	StoreID         string              `json:"storeId"`
	PaymentMethod   enums.PaymentMethod `json:"paymentMethod"`
	PreviousStatus  enums.OrderStatus   `json:"previousStatus,omitempty"`
	OrderStatus     enums.OrderStatus   `json:"orderStatus"`
	PaymentStatus   enums.PaymentStatus `json:"paymentStatus"`
	Total           decimal.Decimal     `json:"total"`
	ChangedAt       time.Time           `json:"changedAt"`
}
