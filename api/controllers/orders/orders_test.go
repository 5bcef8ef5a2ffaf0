package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-orders/api/middleware"
	checkoutsvc "github.com/angelmondragon/storefront-orders/internal/checkout"
	internalorders "github.com/angelmondragon/storefront-orders/internal/orders"
	"github.com/angelmondragon/storefront-orders/pkg/db/models"
	"github.com/angelmondragon/storefront-orders/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-orders/pkg/errors"
	"github.com/angelmondragon/storefront-orders/pkg/types"
)

type stubOrdersService struct {
	confirm    func(ctx context.Context, ref string) (*models.Order, error)
	cancel     func(ctx context.Context, ref string) (*models.Order, error)
	track      func(ctx context.Context, ref string) (*models.Order, error)
	get        func(ctx context.Context, actor internalorders.Actor, id int64) (*models.Order, error)
	transition func(ctx context.Context, input internalorders.TransitionInput) (*models.Order, error)
	notify     func(ctx context.Context, input internalorders.NotifyInput) (*models.Order, error)
}

func (s stubOrdersService) Confirm(ctx context.Context, ref string) (*models.Order, error) {
	return s.confirm(ctx, ref)
}

func (s stubOrdersService) Cancel(ctx context.Context, ref string) (*models.Order, error) {
	return s.cancel(ctx, ref)
}

func (s stubOrdersService) Track(ctx context.Context, ref string) (*models.Order, error) {
	return s.track(ctx, ref)
}

func (s stubOrdersService) Get(ctx context.Context, actor internalorders.Actor, id int64) (*models.Order, error) {
	return s.get(ctx, actor, id)
}

func (s stubOrdersService) Transition(ctx context.Context, input internalorders.TransitionInput) (*models.Order, error) {
	return s.transition(ctx, input)
}

func (s stubOrdersService) Notify(ctx context.Context, input internalorders.NotifyInput) (*models.Order, error) {
	return s.notify(ctx, input)
}

func (stubOrdersService) Expire(context.Context, int64) (bool, error) {
	return false, nil
}

type stubCheckoutService struct {
	execute func(ctx context.Context, input checkoutsvc.CheckoutInput) (*checkoutsvc.CheckoutResult, error)
}

func (s stubCheckoutService) Execute(ctx context.Context, input checkoutsvc.CheckoutInput) (*checkoutsvc.CheckoutResult, error) {
	return s.execute(ctx, input)
}

func sampleOrder(status enums.OrderStatus) *models.Order {
	return &models.Order{
		ID:              42,
		ReferenceNumber: "8f2d5c1e-7d0b-4d1f-9f0e-3b0f4c2a1e11",
		StoreID:         uuid.New(),
		Buyer:           types.BuyerSnapshot{FirstName: "Ana", LastName: "Cruz", Email: "ana@example.com"},
		CartItems: types.CartSnapshot{{
			Product: types.ProductSnapshot{ID: "p1", Name: "Latte"},
			SKU:     types.SKUSnapshot{ID: "s1", Price: decimal.RequireFromString("142.50")},
			Qty:     2,
		}},
		Total:         decimal.RequireFromString("285"),
		PaymentMethod: enums.PaymentMethodMaya,
		PaymentID:     "chk_1",
		OrderStatus:   status,
		PaymentStatus: enums.PaymentStatusPending,
	}
}

type orderEnvelope struct {
	Data struct {
		OrderData struct {
			ID              int64  `json:"id"`
			ReferenceNumber string `json:"reference_number"`
			Total           string `json:"total"`
			OrderStatus     string `json:"order_status"`
		} `json:"orderData"`
	} `json:"data"`
}

type errorEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func serve(handler http.HandlerFunc, method, body string, ctx context.Context) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	if ctx != nil {
		req = req.WithContext(ctx)
	}
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	if err := json.Unmarshal(resp.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return env
}

func TestCheckoutReturnsCreated(t *testing.T) {
	t.Parallel()

	storeID := uuid.New()
	var captured checkoutsvc.CheckoutInput
	svc := stubCheckoutService{execute: func(ctx context.Context, input checkoutsvc.CheckoutInput) (*checkoutsvc.CheckoutResult, error) {
		captured = input
		return &checkoutsvc.CheckoutResult{PaymentID: "chk_1", RedirectURL: "https://pay.example/chk_1", ReferenceNumber: "ref"}, nil
	}}

	body := `{"totalAmount":285.00,"buyer":{"firstName":"Ana","lastName":"Cruz","email":"ana@example.com"},` +
		`"store_id":"` + storeID.String() + `","cartItems":[{"product":{"id":"p1","name":"Latte"},"sku":{"id":"s1","price":"142.50"},"qty":2}],` +
		`"paymentMethod":" Maya "}`
	resp := serve(Checkout(svc, nil), http.MethodPost, body, nil)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	var env struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if env.Data["paymentId"] != "chk_1" || env.Data["redirectUrl"] != "https://pay.example/chk_1" {
		t.Fatalf("unexpected data %v", env.Data)
	}
	if _, leaked := env.Data["ReferenceNumber"]; leaked {
		t.Fatal("reference number must not be serialized")
	}
	if captured.PaymentMethod != enums.PaymentMethodMaya {
		t.Fatalf("expected normalized payment method got %q", captured.PaymentMethod)
	}
	if captured.StoreID != storeID || !captured.TotalAmount.Equal(decimal.RequireFromString("285")) {
		t.Fatalf("unexpected input %+v", captured)
	}
	if len(captured.CartItems) != 1 || captured.CartItems[0].Qty != 2 {
		t.Fatalf("unexpected cart %+v", captured.CartItems)
	}
}

func TestCheckoutSurfacesGatewayFailure(t *testing.T) {
	t.Parallel()

	svc := stubCheckoutService{execute: func(context.Context, checkoutsvc.CheckoutInput) (*checkoutsvc.CheckoutResult, error) {
		return nil, pkgerrors.New(pkgerrors.CodeUpstream, "payment gateway rejected checkout").
			WithDetails(map[string]any{"gatewayStatus": 401, "gatewayBody": json.RawMessage(`{"code":"K003"}`)})
	}}

	body := `{"totalAmount":10,"buyer":{"firstName":"A","lastName":"B","email":"a@b.co"},"store_id":"` + uuid.NewString() + `","cartItems":[],"paymentMethod":"maya"}`
	resp := serve(Checkout(svc, nil), http.MethodPost, body, nil)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
	env := decodeError(t, resp)
	if env.Error.Code != string(pkgerrors.CodeUpstream) {
		t.Fatalf("unexpected code %s", env.Error.Code)
	}
	if env.Error.Details["gatewayStatus"] != float64(401) {
		t.Fatalf("unexpected gateway status %v", env.Error.Details["gatewayStatus"])
	}
	gatewayBody, ok := env.Error.Details["gatewayBody"].(map[string]any)
	if !ok || gatewayBody["code"] != "K003" {
		t.Fatalf("expected gateway body verbatim got %v", env.Error.Details["gatewayBody"])
	}
}

func TestCheckoutRejectsMissingPaymentMethod(t *testing.T) {
	t.Parallel()

	called := false
	svc := stubCheckoutService{execute: func(context.Context, checkoutsvc.CheckoutInput) (*checkoutsvc.CheckoutResult, error) {
		called = true
		return nil, nil
	}}

	body := `{"totalAmount":10,"buyer":{"firstName":"A","lastName":"B","email":"a@b.co"},"cartItems":[]}`
	resp := serve(Checkout(svc, nil), http.MethodPost, body, nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if called {
		t.Fatal("service must not be called on invalid body")
	}
}

func TestConfirmReturnsOrderData(t *testing.T) {
	t.Parallel()

	order := sampleOrder(enums.OrderStatusConfirmed)
	var gotRef string
	svc := stubOrdersService{confirm: func(ctx context.Context, ref string) (*models.Order, error) {
		gotRef = ref
		return order, nil
	}}

	resp := serve(Confirm(svc, nil), http.MethodPatch, `{"requestReferenceNumber":"  `+order.ReferenceNumber+` "}`, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if gotRef != order.ReferenceNumber {
		t.Fatalf("expected trimmed reference got %q", gotRef)
	}
	var env orderEnvelope
	if err := json.Unmarshal(resp.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if env.Data.OrderData.ID != 42 || env.Data.OrderData.OrderStatus != "confirmed" || env.Data.OrderData.Total != "285.00" {
		t.Fatalf("unexpected order data %+v", env.Data.OrderData)
	}
}

func TestConfirmRequiresReference(t *testing.T) {
	t.Parallel()

	svc := stubOrdersService{confirm: func(context.Context, string) (*models.Order, error) {
		t.Fatal("service must not be called")
		return nil, nil
	}}
	resp := serve(Confirm(svc, nil), http.MethodPatch, `{}`, nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	env := decodeError(t, resp)
	if env.Error.Details["requestReferenceNumber"] != "is required" {
		t.Fatalf("unexpected details %v", env.Error.Details)
	}
}

func TestCancelNotFound(t *testing.T) {
	t.Parallel()

	svc := stubOrdersService{cancel: func(context.Context, string) (*models.Order, error) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}}
	resp := serve(Cancel(svc, nil), http.MethodPatch, `{"requestReferenceNumber":"missing"}`, nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestTrackReturnsOrder(t *testing.T) {
	t.Parallel()

	order := sampleOrder(enums.OrderStatusReady)
	svc := stubOrdersService{track: func(context.Context, string) (*models.Order, error) {
		return order, nil
	}}
	resp := serve(Track(svc, nil), http.MethodPost, `{"requestReferenceNumber":"`+order.ReferenceNumber+`"}`, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var env orderEnvelope
	if err := json.Unmarshal(resp.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if env.Data.OrderData.ReferenceNumber != order.ReferenceNumber {
		t.Fatalf("unexpected reference %q", env.Data.OrderData.ReferenceNumber)
	}
}

func TestStaffQueryPassesActor(t *testing.T) {
	t.Parallel()

	storeID := uuid.New()
	var gotActor internalorders.Actor
	var gotID int64
	svc := stubOrdersService{get: func(ctx context.Context, actor internalorders.Actor, id int64) (*models.Order, error) {
		gotActor, gotID = actor, id
		return sampleOrder(enums.OrderStatusPreparing), nil
	}}

	ctx := middleware.WithStaff(context.Background(), "staff-1", "staff", storeID.String())
	resp := serve(StaffQuery(svc, nil), http.MethodPost, `{"orderid":"42"}`, ctx)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if gotID != 42 {
		t.Fatalf("expected id 42 got %d", gotID)
	}
	if gotActor.UserID != "staff-1" || gotActor.StoreID != storeID || gotActor.Role != "staff" {
		t.Fatalf("unexpected actor %+v", gotActor)
	}
}

func TestStaffQueryRequiresIdentity(t *testing.T) {
	t.Parallel()

	svc := stubOrdersService{}
	resp := serve(StaffQuery(svc, nil), http.MethodPost, `{"orderid":42}`, nil)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestStaffQueryRejectsNonNumericID(t *testing.T) {
	t.Parallel()

	ctx := middleware.WithStaff(context.Background(), "staff-1", "admin", "")
	resp := serve(StaffQuery(stubOrdersService{}, nil), http.MethodPost, `{"orderid":"abc"}`, ctx)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestStaffStatusDisallowedTransition(t *testing.T) {
	t.Parallel()

	var gotInput internalorders.TransitionInput
	svc := stubOrdersService{transition: func(ctx context.Context, input internalorders.TransitionInput) (*models.Order, error) {
		gotInput = input
		return nil, pkgerrors.Wrap(pkgerrors.CodeStateConflict, internalorders.ErrTransitionNotAllowed, "order status transition not allowed").
			WithDetails(map[string]any{"from": "pending", "to": "ready"})
	}}

	ctx := middleware.WithStaff(context.Background(), "staff-1", "manager", uuid.NewString())
	resp := serve(StaffStatus(svc, nil), http.MethodPatch, `{"orderId":42,"status":"ready"}`, ctx)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
	if gotInput.Target != enums.OrderStatusReady || gotInput.OrderID != 42 {
		t.Fatalf("unexpected input %+v", gotInput)
	}
	env := decodeError(t, resp)
	if env.Error.Details["to"] != "ready" {
		t.Fatalf("unexpected details %v", env.Error.Details)
	}
}

func TestStaffNotifyReturnsOrder(t *testing.T) {
	t.Parallel()

	var gotInput internalorders.NotifyInput
	svc := stubOrdersService{notify: func(ctx context.Context, input internalorders.NotifyInput) (*models.Order, error) {
		gotInput = input
		return sampleOrder(enums.OrderStatusComplete), nil
	}}

	ctx := middleware.WithStaff(context.Background(), "staff-1", "staff", uuid.NewString())
	resp := serve(StaffNotify(svc, nil), http.MethodPatch, `{"orderId":7,"status":"complete"}`, ctx)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if gotInput.Status != enums.OrderStatusComplete || gotInput.OrderID != 7 {
		t.Fatalf("unexpected input %+v", gotInput)
	}
}
