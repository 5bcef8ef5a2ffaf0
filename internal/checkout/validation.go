package checkout

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/storefront-orders/pkg/errors"
)

// validateInput checks the submission and returns the server-side total.
func validateInput(input CheckoutInput) (decimal.Decimal, error) {
	if input.StoreID == uuid.Nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "store_id is required")
	}
	if !input.PaymentMethod.IsValid() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "paymentMethod is not supported").
			WithDetails(map[string]any{"paymentMethod": input.PaymentMethod})
	}
	if strings.TrimSpace(input.Buyer.Email) == "" {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "buyer email is required")
	}
	if len(input.CartItems) == 0 {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "cartItems must contain at least one item")
	}
	for i, item := range input.CartItems {
		if item.Qty <= 0 {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "cart item quantity must be positive").
				WithDetails(map[string]any{"index": i})
		}
		if item.SKU.Price.IsNegative() {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "cart item price must not be negative").
				WithDetails(map[string]any{"index": i})
		}
		if strings.TrimSpace(item.Product.Name) == "" {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "cart item product name is required").
				WithDetails(map[string]any{"index": i})
		}
	}

	total := input.CartItems.Total().Round(2)
	if !input.TotalAmount.Round(2).Equal(total) {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "totalAmount does not match cart items").
			WithDetails(map[string]any{
				"totalAmount": input.TotalAmount.StringFixed(2),
				"expected":    total.StringFixed(2),
			})
	}
	return total, nil
}
