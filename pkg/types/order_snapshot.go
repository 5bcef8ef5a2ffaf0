package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// BuyerSnapshot is the buyer identity captured at checkout. It is never
// refreshed from the customer profile.
type BuyerSnapshot struct {
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email"`
}

// FullName joins first and last name.
func (b BuyerSnapshot) FullName() string {
	return strings.TrimSpace(b.FirstName + " " + b.LastName)
}

// Value serializes the buyer to JSON.
func (b BuyerSnapshot) Value() (driver.Value, error) {
	return json.Marshal(b)
}

// Scan decodes JSONB into the buyer struct.
func (b *BuyerSnapshot) Scan(value interface{}) error {
	if value == nil {
		*b = BuyerSnapshot{}
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, b)
}

// ProductSnapshot copies the catalog product as it was at purchase time.
type ProductSnapshot struct {
	ID          string `json:"id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// SKUSnapshot copies the purchased variant, including the unit price charged.
type SKUSnapshot struct {
	ID             string          `json:"id" validate:"required"`
	Price          decimal.Decimal `json:"price"`
	AttributeName  string          `json:"attributeName,omitempty"`
	AttributeValue string          `json:"attributeValue,omitempty"`
}

// CartItemSnapshot is one purchased line.
type CartItemSnapshot struct {
	Product ProductSnapshot `json:"product" validate:"required"`
	SKU     SKUSnapshot     `json:"sku" validate:"required"`
	Qty     int             `json:"qty" validate:"required,gt=0"`
}

// DisplayName renders "<product name> - <sku attribute value>", or the bare
// product name when the SKU carries no attribute value.
func (i CartItemSnapshot) DisplayName() string {
	name := strings.TrimSpace(i.Product.Name)
	if value := strings.TrimSpace(i.SKU.AttributeValue); value != "" {
		return fmt.Sprintf("%s - %s", name, value)
	}
	return name
}

// LineTotal is the stored unit price times the quantity.
func (i CartItemSnapshot) LineTotal() decimal.Decimal {
	return i.SKU.Price.Mul(decimal.NewFromInt(int64(i.Qty)))
}

// CartSnapshot is the ordered, write-once list of purchased lines.
type CartSnapshot []CartItemSnapshot

// Total sums LineTotal across every line.
func (c CartSnapshot) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c {
		total = total.Add(item.LineTotal())
	}
	return total
}

// Quantity sums the item quantities.
func (c CartSnapshot) Quantity() int {
	qty := 0
	for _, item := range c {
		qty += item.Qty
	}
	return qty
}

// Value serializes the cart to a JSON array.
func (c CartSnapshot) Value() (driver.Value, error) {
	if c == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]CartItemSnapshot(c))
}

// Scan decodes a JSONB array into the cart.
func (c *CartSnapshot) Scan(value interface{}) error {
	if value == nil {
		*c = nil
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	var items []CartItemSnapshot
	if err := json.Unmarshal(raw, &items); err != nil {
		return err
	}
	*c = items
	return nil
}
