package orders

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-orders/api/responses"
	"github.com/angelmondragon/storefront-orders/api/validators"
	checkoutsvc "github.com/angelmondragon/storefront-orders/internal/checkout"
	"github.com/angelmondragon/storefront-orders/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-orders/pkg/errors"
	"github.com/angelmondragon/storefront-orders/pkg/logger"
	"github.com/angelmondragon/storefront-orders/pkg/types"
)

type checkoutRequest struct {
	TotalAmount   decimal.Decimal     `json:"totalAmount"`
	Buyer         types.BuyerSnapshot `json:"buyer"`
	StoreID       uuid.UUID           `json:"store_id"`
	CartItems     types.CartSnapshot  `json:"cartItems"`
	PaymentMethod string              `json:"paymentMethod" validate:"required"`
}

// Checkout creates the pending order and hands back where the browser goes next.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Execute(r.Context(), checkoutsvc.CheckoutInput{
			TotalAmount:   payload.TotalAmount,
			Buyer:         payload.Buyer,
			StoreID:       payload.StoreID,
			CartItems:     payload.CartItems,
			PaymentMethod: enums.PaymentMethod(strings.ToLower(strings.TrimSpace(payload.PaymentMethod))),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
