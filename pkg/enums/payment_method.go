package enums

import (
	"fmt"
	"strings"
)

// PaymentMethod describes how a buyer settles an order: cash at the store or
// through a named online processor.
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodMaya   PaymentMethod = "maya"
	PaymentMethodSquare PaymentMethod = "square"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodCash,
	PaymentMethodMaya,
	PaymentMethodSquare,
}

// String implements fmt.Stringer.
func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethod.
func (p PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsOnline reports whether the method requires a processor redirect round-trip.
func (p PaymentMethod) IsOnline() bool {
	return p.IsValid() && p != PaymentMethodCash
}

// OnlinePaymentMethods lists every processor-backed method.
func OnlinePaymentMethods() []PaymentMethod {
	out := make([]PaymentMethod, 0, len(validPaymentMethods)-1)
	for _, candidate := range validPaymentMethods {
		if candidate.IsOnline() {
			out = append(out, candidate)
		}
	}
	return out
}

// ParsePaymentMethod converts raw input into a PaymentMethod. Matching is case-insensitive.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validPaymentMethods {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
