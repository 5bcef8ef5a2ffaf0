package maya

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-orders/pkg/types"
)

const (
	providerName   = "maya"
	defaultBaseURL = "https://pg-sandbox.paymaya.com"
	checkoutPath   = "checkout/v1/checkouts"
)

const responseBodyReadLimit int64 = 64 * 1024

var errPublicKeyRequired = errors.New("maya public key is required")

// Client creates Maya hosted checkouts.
type Client struct {
	httpClient *http.Client
	baseURL    string
	publicKey  string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the Maya API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// NewClient builds the Maya client given the merchant public key.
func NewClient(publicKey string, opts ...Option) (*Client, error) {
	trimmedKey := strings.TrimSpace(publicKey)
	if trimmedKey == "" {
		return nil, errPublicKeyRequired
	}

	client := &Client{
		publicKey:  trimmedKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

type amount struct {
	Value    json.Number `json:"value"`
	Currency string      `json:"currency,omitempty"`
}

type contact struct {
	Email string `json:"email"`
}

type buyer struct {
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Contact   contact `json:"contact"`
}

type item struct {
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	Code        string `json:"code,omitempty"`
	Description string `json:"description,omitempty"`
	Amount      amount `json:"amount"`
	TotalAmount amount `json:"totalAmount"`
}

type redirectURL struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Cancel  string `json:"cancel"`
}

type checkoutRequest struct {
	TotalAmount            amount      `json:"totalAmount"`
	Buyer                  buyer       `json:"buyer"`
	Items                  []item      `json:"items"`
	RedirectURL            redirectURL `json:"redirectUrl"`
	RequestReferenceNumber string      `json:"requestReferenceNumber"`
}

type checkoutResponse struct {
	CheckoutID  string `json:"checkoutId"`
	RedirectURL string `json:"redirectUrl"`
}

// InitiatePayment creates a hosted checkout and returns its id and page URL.
// Non-2xx answers come back as *types.GatewayError with the body untouched.
func (c *Client) InitiatePayment(ctx context.Context, req types.PaymentRequest) (*types.PaymentSession, error) {
	if c == nil {
		return nil, errPublicKeyRequired
	}
	payload, err := json.Marshal(buildCheckoutRequest(req))
	if err != nil {
		return nil, fmt.Errorf("marshal maya checkout request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL(checkoutPath), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build maya checkout request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.SetBasicAuth(c.publicKey, "")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute maya checkout request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		return nil, fmt.Errorf("read maya checkout response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &types.GatewayError{Provider: providerName, StatusCode: resp.StatusCode, Body: string(body)}
	}

	var out checkoutResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode maya checkout response: %w", err)
	}
	if out.CheckoutID == "" || out.RedirectURL == "" {
		return nil, fmt.Errorf("maya checkout response missing checkoutId or redirectUrl")
	}
	return &types.PaymentSession{PaymentID: out.CheckoutID, RedirectURL: out.RedirectURL}, nil
}

func buildCheckoutRequest(req types.PaymentRequest) checkoutRequest {
	items := make([]item, 0, len(req.Items))
	for _, line := range req.Items {
		items = append(items, item{
			Name:        line.DisplayName(),
			Quantity:    line.Qty,
			Code:        line.SKU.ID,
			Description: line.Product.Description,
			Amount:      amount{Value: json.Number(line.SKU.Price.StringFixed(2))},
			TotalAmount: amount{Value: json.Number(line.LineTotal().StringFixed(2))},
		})
	}
	return checkoutRequest{
		TotalAmount: amount{
			Value:    json.Number(req.Amount.StringFixed(2)),
			Currency: strings.ToUpper(req.Currency),
		},
		Buyer: buyer{
			FirstName: req.Buyer.FirstName,
			LastName:  req.Buyer.LastName,
			Contact:   contact{Email: req.Buyer.Email},
		},
		Items: items,
		RedirectURL: redirectURL{
			Success: req.RedirectURLs.Success,
			Failure: req.RedirectURLs.Failure,
			Cancel:  req.RedirectURLs.Cancel,
		},
		RequestReferenceNumber: req.ReferenceNumber,
	}
}

func (c *Client) buildURL(path string) string {
	trimmed := strings.TrimRight(c.baseURL, "/")
	path = strings.TrimLeft(path, "/")
	return fmt.Sprintf("%s/%s", trimmed, path)
}
