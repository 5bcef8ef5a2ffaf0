package orders

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-orders/pkg/db/models"
	"github.com/angelmondragon/storefront-orders/pkg/types"
)

// orderView is the full order returned to storefront and staff pages.
type orderView struct {
	ID              int64               `json:"id"`
	ReferenceNumber string              `json:"reference_number"`
	StoreID         uuid.UUID           `json:"store_id"`
	Buyer           types.BuyerSnapshot `json:"buyer"`
	CartItems       types.CartSnapshot  `json:"cart_items"`
	Total           string              `json:"total"`
	PaymentMethod   string              `json:"payment_method"`
	PaymentID       string              `json:"payment_id"`
	OrderStatus     string              `json:"order_status"`
	PaymentStatus   string              `json:"payment_status"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

type orderResponse struct {
	OrderData orderView `json:"orderData"`
}

func newOrderResponse(order *models.Order) orderResponse {
	if order == nil {
		return orderResponse{}
	}
	items := order.CartItems
	if items == nil {
		items = types.CartSnapshot{}
	}
	return orderResponse{OrderData: orderView{
		ID:              order.ID,
		ReferenceNumber: order.ReferenceNumber,
		StoreID:         order.StoreID,
		Buyer:           order.Buyer,
		CartItems:       items,
		Total:           order.Total.StringFixed(2),
		PaymentMethod:   string(order.PaymentMethod),
		PaymentID:       order.PaymentID,
		OrderStatus:     string(order.OrderStatus),
		PaymentStatus:   string(order.PaymentStatus),
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}}
}

// orderID accepts the order id as a JSON number or a numeric string.
type orderID int64

func (id *orderID) UnmarshalJSON(raw []byte) error {
	raw = bytes.TrimSpace(raw)
	if bytes.Equal(raw, []byte("null")) {
		*id = 0
		return nil
	}
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		if s == "" {
			*id = 0
			return nil
		}
		raw = []byte(s)
	}
	value, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return fmt.Errorf("order id must be an integer: %w", err)
	}
	*id = orderID(value)
	return nil
}
