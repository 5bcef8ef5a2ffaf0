package square

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	sq "github.com/square/square-go-sdk"
	sqcore "github.com/square/square-go-sdk/core"
	sqoption "github.com/square/square-go-sdk/option"

	"github.com/angelmondragon/storefront-orders/pkg/config"
	"github.com/angelmondragon/storefront-orders/pkg/logger"
	"github.com/angelmondragon/storefront-orders/pkg/types"
)

func samplePaymentRequest() types.PaymentRequest {
	return types.PaymentRequest{
		ReferenceNumber: "7f0c1f52-1111-4a7b-9d38-9b2f0f1c2d3e",
		Amount:          decimal.RequireFromString("285.00"),
		Currency:        "php",
		Buyer:           types.BuyerSnapshot{FirstName: "Ana", LastName: "Cruz", Email: "ana@example.com"},
		Items: types.CartSnapshot{{
			Product: types.ProductSnapshot{ID: "p-1", Name: "Iced Latte"},
			SKU:     types.SKUSnapshot{ID: "s-1", Price: decimal.RequireFromString("142.50"), AttributeValue: "Large"},
			Qty:     2,
		}},
		RedirectURLs: types.RedirectURLs{
			Success: "https://shop.example.com/order-confirmed?ref=7f0c1f52",
			Failure: "https://shop.example.com/order-cancelled?ref=7f0c1f52",
			Cancel:  "https://shop.example.com/order-cancelled?ref=7f0c1f52",
		},
	}
}

func TestNewClientValidatesConfig(t *testing.T) {
	ctx := context.Background()
	if _, err := NewClient(ctx, config.SquareConfig{AccessToken: "tok", LocationID: "L1"}, nil); !errors.Is(err, errLoggerRequired) {
		t.Fatalf("expected logger error, got %v", err)
	}
	if _, err := NewClient(ctx, config.SquareConfig{LocationID: "L1"}, logger.Nop()); !errors.Is(err, errAccessTokenRequired) {
		t.Fatalf("expected access token error, got %v", err)
	}
	if _, err := NewClient(ctx, config.SquareConfig{AccessToken: "tok"}, logger.Nop()); !errors.Is(err, errLocationRequired) {
		t.Fatalf("expected location error, got %v", err)
	}
	if _, err := NewClient(ctx, config.SquareConfig{AccessToken: "tok", LocationID: "L1", Env: "staging"}, logger.Nop()); !errors.Is(err, errInvalidSquareEnv) {
		t.Fatalf("expected env error, got %v", err)
	}
	c, err := NewClient(ctx, config.SquareConfig{AccessToken: "tok", LocationID: "L1", Env: "Production"}, logger.Nop())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if c.Environment() != productionEnv {
		t.Fatalf("expected production env, got %s", c.Environment())
	}
}

func TestEnsureIdempotencyKey(t *testing.T) {
	c := &Client{}
	if got := c.ensureIdempotencyKey("pref", "custom-key"); got != "custom-key" {
		t.Fatalf("expected provided key, got %q", got)
	}
	if got := c.ensureIdempotencyKey("prefix", ""); !strings.HasPrefix(got, "prefix-") {
		t.Fatalf("generated idempotency key %q missing prefix", got)
	}
}

func TestRedact(t *testing.T) {
	c := &Client{}
	if out := c.redact("buyer_email", "ana@example.com"); out != "[REDACTED]" {
		t.Fatalf("expected redacted value, got %v", out)
	}
	if v := c.redact("reference_number", "abc"); v != "abc" {
		t.Fatalf("unexpected redaction for safe key")
	}
}

func TestPaymentLinkRequest(t *testing.T) {
	c := &Client{locationID: "L1"}
	req := samplePaymentRequest()

	out := c.paymentLinkRequest(req)
	if stringValue(out.IdempotencyKey) != req.ReferenceNumber {
		t.Fatalf("expected reference as idempotency key, got %q", stringValue(out.IdempotencyKey))
	}
	if out.QuickPay == nil || out.QuickPay.LocationID != "L1" {
		t.Fatalf("expected quick pay for location L1, got %+v", out.QuickPay)
	}
	if out.QuickPay.Name != "Iced Latte - Large" {
		t.Fatalf("unexpected quick pay name %q", out.QuickPay.Name)
	}
	if got := *out.QuickPay.PriceMoney.Amount; got != 28500 {
		t.Fatalf("expected 28500 minor units, got %d", got)
	}
	if got := *out.QuickPay.PriceMoney.Currency; got != sq.Currency("PHP") {
		t.Fatalf("expected PHP, got %s", got)
	}
	if stringValue(out.CheckoutOptions.RedirectURL) != req.RedirectURLs.Success {
		t.Fatalf("redirect url not propagated")
	}
	if stringValue(out.PrePopulatedData.BuyerEmail) != "ana@example.com" {
		t.Fatalf("buyer email not pre-populated")
	}
}

func TestQuickPayNameForSeveralItems(t *testing.T) {
	req := samplePaymentRequest()
	req.Items = append(req.Items, types.CartItemSnapshot{
		Product: types.ProductSnapshot{ID: "p-2", Name: "Ensaymada"},
		SKU:     types.SKUSnapshot{ID: "s-2", Price: decimal.NewFromInt(60)},
		Qty:     1,
	})
	if got := quickPayName(req); got != "Order 7f0c1f52 (3 items)" {
		t.Fatalf("unexpected name %q", got)
	}
}

func TestMapSquareError(t *testing.T) {
	c := &Client{}
	payload := `{"errors":[{"category":"INVALID_REQUEST_ERROR","code":"INVALID_VALUE","detail":"bad amount"}]}`
	mapped := c.mapSquareError(sqcore.NewAPIError(http.StatusBadRequest, errors.New(payload)), "create payment link")

	var gwErr *types.GatewayError
	if !errors.As(mapped, &gwErr) {
		t.Fatalf("expected gateway error, got %v", mapped)
	}
	if gwErr.StatusCode != http.StatusBadRequest || gwErr.Body != payload || gwErr.Provider != providerName {
		t.Fatalf("unexpected gateway error %+v", gwErr)
	}
	if sqErrs := extractSquareErrors(gwErr.Body); len(sqErrs) != 1 || sqErrs[0].GetCode() != sq.ErrorCodeInvalidValue {
		t.Fatalf("expected INVALID_VALUE, got %+v", sqErrs)
	}

	transport := c.mapSquareError(errors.New("dial tcp: refused"), "create payment link")
	if errors.As(transport, new(*types.GatewayError)) {
		t.Fatalf("transport failures must not look like processor responses")
	}
	if c.mapSquareError(nil, "noop") != nil {
		t.Fatalf("nil error must map to nil")
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := NewClient(context.Background(),
		config.SquareConfig{AccessToken: "tok", LocationID: "L1"},
		logger.Nop(),
		sqoption.WithBaseURL(server.URL),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestInitiatePaymentCreatesLink(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/payment-links") {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("unexpected auth header %q", got)
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"payment_link":{"id":"PL_1","version":1,"order_id":"O_1","url":"https://square.link/u/abc"}}`))
	})

	session, err := c.InitiatePayment(context.Background(), samplePaymentRequest())
	if err != nil {
		t.Fatalf("initiate payment: %v", err)
	}
	if session.PaymentID != "PL_1" || session.RedirectURL != "https://square.link/u/abc" {
		t.Fatalf("unexpected session %+v", session)
	}
	quickPay, _ := body["quick_pay"].(map[string]any)
	if quickPay == nil || quickPay["location_id"] != "L1" {
		t.Fatalf("quick_pay not sent: %v", body)
	}
}

func TestInitiatePaymentRelaysRejection(t *testing.T) {
	payload := `{"errors":[{"category":"INVALID_REQUEST_ERROR","code":"INVALID_VALUE","detail":"bad amount"}]}`
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(payload))
	})

	_, err := c.InitiatePayment(context.Background(), samplePaymentRequest())
	var gwErr *types.GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected gateway error, got %v", err)
	}
	if gwErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", gwErr.StatusCode)
	}
	if !strings.Contains(gwErr.Body, "INVALID_VALUE") {
		t.Fatalf("body not relayed: %q", gwErr.Body)
	}
}
