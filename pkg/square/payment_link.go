package square

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/square/square-go-sdk"
	sqcheckout "github.com/square/square-go-sdk/checkout"

	"github.com/angelmondragon/storefront-orders/pkg/types"
)

// InitiatePayment creates a quick-pay payment link. The link id becomes the
// order's payment id and the link URL the buyer's redirect target.
func (c *Client) InitiatePayment(ctx context.Context, req types.PaymentRequest) (*types.PaymentSession, error) {
	if c == nil || c.sdk == nil {
		return nil, errAccessTokenRequired
	}
	request := c.paymentLinkRequest(req)
	c.log(ctx, "request", "create_payment_link", map[string]any{
		"reference_number": req.ReferenceNumber,
		"location_id":      c.locationID,
		"amount":           req.Amount.StringFixed(2),
	})

	resp, err := c.sdk.Checkout.PaymentLinks.Create(ctx, request)
	if err != nil {
		mapped := c.mapSquareError(err, "create payment link")
		fields := map[string]any{"error": err.Error()}
		var gwErr *types.GatewayError
		if errors.As(mapped, &gwErr) {
			fields["status"] = gwErr.StatusCode
			if sqErrs := extractSquareErrors(gwErr.Body); len(sqErrs) > 0 && sqErrs[0] != nil {
				fields["square_code"] = string(sqErrs[0].Code)
			}
		}
		c.log(ctx, "error", "create_payment_link", fields)
		return nil, mapped
	}

	link := resp.GetPaymentLink()
	if link == nil || stringValue(link.GetID()) == "" || stringValue(link.GetURL()) == "" {
		return nil, fmt.Errorf("square create payment link: empty payment link in response")
	}
	c.log(ctx, "response", "create_payment_link", map[string]any{
		"payment_link_id": stringValue(link.GetID()),
		"order_id":        stringValue(link.GetOrderID()),
	})
	return &types.PaymentSession{
		PaymentID:   stringValue(link.GetID()),
		RedirectURL: stringValue(link.GetURL()),
	}, nil
}

func (c *Client) paymentLinkRequest(req types.PaymentRequest) *sqcheckout.CreatePaymentLinkRequest {
	amount := req.Amount.Shift(2).Round(0).IntPart()
	currency := sq.Currency(strings.ToUpper(strings.TrimSpace(req.Currency)))

	out := &sqcheckout.CreatePaymentLinkRequest{
		IdempotencyKey: ptrString(c.ensureIdempotencyKey("payment_link", req.ReferenceNumber)),
		QuickPay: &sq.QuickPay{
			Name:       quickPayName(req),
			PriceMoney: &sq.Money{Amount: &amount, Currency: &currency},
			LocationID: c.locationID,
		},
		PaymentNote: ptrString("ref " + req.ReferenceNumber),
	}
	if success := strings.TrimSpace(req.RedirectURLs.Success); success != "" {
		out.CheckoutOptions = &sq.CheckoutOptions{RedirectURL: ptrString(success)}
	}
	if email := strings.TrimSpace(req.Buyer.Email); email != "" {
		out.PrePopulatedData = &sq.PrePopulatedData{BuyerEmail: ptrString(email)}
	}
	return out
}

func quickPayName(req types.PaymentRequest) string {
	if len(req.Items) == 1 {
		return req.Items[0].DisplayName()
	}
	return fmt.Sprintf("Order %s (%d items)", shortRef(req.ReferenceNumber), req.Items.Quantity())
}

func shortRef(ref string) string {
	if len(ref) > 8 {
		return ref[:8]
	}
	return ref
}
