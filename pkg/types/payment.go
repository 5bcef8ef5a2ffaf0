package types

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// RedirectURLs are the browser return targets registered with a processor.
type RedirectURLs struct {
	Success string
	Failure string
	Cancel  string
}

// PaymentRequest is what a checkout hands to an online payment processor.
type PaymentRequest struct {
	ReferenceNumber string
	Amount          decimal.Decimal
	Currency        string
	Buyer           BuyerSnapshot
	Items           CartSnapshot
	RedirectURLs    RedirectURLs
}

// PaymentSession is the processor's answer: its payment id and the hosted page URL.
type PaymentSession struct {
	PaymentID   string
	RedirectURL string
}

// GatewayError carries a non-2xx processor response verbatim.
type GatewayError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("%s payment gateway returned status %d", e.Provider, e.StatusCode)
}
