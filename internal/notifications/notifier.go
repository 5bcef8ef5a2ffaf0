package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-orders/internal/stores"
	"github.com/angelmondragon/storefront-orders/pkg/db/models"
	"github.com/angelmondragon/storefront-orders/pkg/enums"
	"github.com/angelmondragon/storefront-orders/pkg/logger"
)

type storeLookup interface {
	FindContact(ctx context.Context, id uuid.UUID) (*stores.StoreContact, error)
}

type dispatcher interface {
	Dispatch(ctx context.Context, req Request) (*Delivery, error)
}

// OrderNotifier emails the buyer of an order using the store's contact block.
type OrderNotifier struct {
	stores     storeLookup
	dispatcher dispatcher
	currency   string
	logg       *logger.Logger
}

// NewOrderNotifier wires the notifier.
func NewOrderNotifier(storeLookup storeLookup, d dispatcher, currency string, logg *logger.Logger) (*OrderNotifier, error) {
	if storeLookup == nil {
		return nil, fmt.Errorf("store lookup required")
	}
	if d == nil {
		return nil, fmt.Errorf("dispatcher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &OrderNotifier{stores: storeLookup, dispatcher: d, currency: currency, logg: logg}, nil
}

func (n *OrderNotifier) NotifyOrder(ctx context.Context, order models.Order, template enums.EmailTemplate) error {
	store, err := n.stores.FindContact(ctx, order.StoreID)
	if err != nil {
		return fmt.Errorf("load store contact: %w", err)
	}
	delivery, err := n.dispatcher.Dispatch(ctx, Request{
		To:       order.Buyer.Email,
		ToName:   order.Buyer.FullName(),
		Template: template,
		Payload:  BuildPayload(order, store, n.currency),
	})
	if err != nil {
		return fmt.Errorf("dispatch %s email: %w", template, err)
	}
	logCtx := n.logg.WithFields(ctx, map[string]any{
		"template":   template,
		"message_id": delivery.MessageID,
		"status":     delivery.StatusCode,
	})
	n.logg.Info(logCtx, "notification.sent")
	return nil
}
