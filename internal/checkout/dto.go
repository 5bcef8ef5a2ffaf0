package checkout

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-orders/pkg/enums"
	"github.com/angelmondragon/storefront-orders/pkg/types"
)

// CheckoutInput is the buyer's checkout submission.
type CheckoutInput struct {
	TotalAmount   decimal.Decimal
	Buyer         types.BuyerSnapshot
	StoreID       uuid.UUID
	CartItems     types.CartSnapshot
	PaymentMethod enums.PaymentMethod
}

// CheckoutResult tells the client where to go next.
type CheckoutResult struct {
	PaymentID       string `json:"paymentId"`
	RedirectURL     string `json:"redirectUrl"`
	ReferenceNumber string `json:"-"`
}
