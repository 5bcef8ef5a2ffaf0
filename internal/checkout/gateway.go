package checkout

import (
	"context"

	"github.com/angelmondragon/storefront-orders/pkg/types"
)

// Gateway initiates a redirect-based payment with one online processor.
type Gateway interface {
	InitiatePayment(ctx context.Context, req types.PaymentRequest) (*types.PaymentSession, error)
}
