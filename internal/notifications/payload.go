package notifications

import (
	"strings"

	"github.com/angelmondragon/storefront-orders/internal/stores"
	"github.com/angelmondragon/storefront-orders/pkg/db/models"
	"github.com/angelmondragon/storefront-orders/pkg/types"
)

// LineItem is one rendered cart line.
type LineItem struct {
	Name      string
	Quantity  int
	UnitPrice string
	LinePrice string
}

// Payload is everything a template may print.
type Payload struct {
	OrderID         int64
	ReferenceNumber string
	Buyer           types.BuyerSnapshot
	Items           []LineItem
	ItemCount       int
	Total           string
	Currency        string
	PaymentMethod   string
	Store           stores.StoreContact
}

// BuildPayload derives the email payload from the stored order snapshot. Line
// prices come from the snapshot, never from the live catalog.
func BuildPayload(order models.Order, store *stores.StoreContact, currency string) Payload {
	items := make([]LineItem, 0, len(order.CartItems))
	for _, line := range order.CartItems {
		items = append(items, LineItem{
			Name:      line.DisplayName(),
			Quantity:  line.Qty,
			UnitPrice: line.SKU.Price.StringFixed(2),
			LinePrice: line.LineTotal().StringFixed(2),
		})
	}
	payload := Payload{
		OrderID:         order.ID,
		ReferenceNumber: order.ReferenceNumber,
		Buyer:           order.Buyer,
		Items:           items,
		ItemCount:       order.CartItems.Quantity(),
		Total:           order.CartItems.Total().StringFixed(2),
		Currency:        strings.ToUpper(currency),
		PaymentMethod:   order.PaymentMethod.String(),
	}
	if store != nil {
		payload.Store = *store
	}
	return payload
}
