package orders

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-orders/pkg/db/models"
	"github.com/angelmondragon/storefront-orders/pkg/enums"
)

// Repository is the Order Store.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id int64) (*models.Order, error)
	FindByReference(ctx context.Context, ref string) (*models.Order, error)
	// CompareAndSetStatus applies update only when the selected order is still in
	// status from. It reports whether a row changed.
	CompareAndSetStatus(ctx context.Context, sel Selector, from enums.OrderStatus, update StatusUpdate) (bool, error)
	// SetPaymentID records the processor payment id while the order is still pending.
	SetPaymentID(ctx context.Context, id int64, paymentID string) (bool, error)
	FindStalePending(ctx context.Context, cutoff time.Time, methods []enums.PaymentMethod, limit int) ([]models.Order, error)
}

// Selector identifies the order targeted by a conditional update. Exactly one
// of ID or ReferenceNumber must be set; PaymentMethods narrows the match.
type Selector struct {
	ID              int64
	ReferenceNumber string
	PaymentMethods  []enums.PaymentMethod
}

// StatusUpdate holds the columns written by a conditional update. An empty
// PaymentStatus leaves payment_status untouched.
type StatusUpdate struct {
	OrderStatus   enums.OrderStatus
	PaymentStatus enums.PaymentStatus
}

// Notifier sends the customer email for an order. Implementations fetch the
// store contact block themselves.
type Notifier interface {
	NotifyOrder(ctx context.Context, order models.Order, template enums.EmailTemplate) error
}
