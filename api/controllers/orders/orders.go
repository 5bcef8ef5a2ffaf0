package orders

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storefront-orders/api/responses"
	"github.com/angelmondragon/storefront-orders/api/validators"
	internalorders "github.com/angelmondragon/storefront-orders/internal/orders"
	"github.com/angelmondragon/storefront-orders/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-orders/pkg/errors"
	"github.com/angelmondragon/storefront-orders/pkg/logger"
)

const maxReferenceLength = 64

type referenceRequest struct {
	RequestReferenceNumber string `json:"requestReferenceNumber" validate:"required"`
}

type referenceAction func(ctx context.Context, ref string) (*models.Order, error)

// Confirm is called by the order-confirmed page after the processor redirect.
func Confirm(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return byReference(svc, logg, func(s internalorders.Service) referenceAction { return s.Confirm })
}

// Cancel is called by the order-cancelled page after an abandoned payment.
func Cancel(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return byReference(svc, logg, func(s internalorders.Service) referenceAction { return s.Cancel })
}

// Track returns the order for a customer holding its reference number.
func Track(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return byReference(svc, logg, func(s internalorders.Service) referenceAction { return s.Track })
}

func byReference(svc internalorders.Service, logg *logger.Logger, pick func(internalorders.Service) referenceAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		var payload referenceRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ref, err := validators.CleanField("requestReferenceNumber", payload.RequestReferenceNumber, maxReferenceLength)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := pick(svc)(r.Context(), ref)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}
