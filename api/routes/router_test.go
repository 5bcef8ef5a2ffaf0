package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/storefront-orders/internal/checkout"
	"github.com/angelmondragon/storefront-orders/internal/orders"
	pkgAuth "github.com/angelmondragon/storefront-orders/pkg/auth"
	"github.com/angelmondragon/storefront-orders/pkg/config"
	"github.com/angelmondragon/storefront-orders/pkg/db/models"
	"github.com/angelmondragon/storefront-orders/pkg/enums"
	"github.com/angelmondragon/storefront-orders/pkg/logger"
	pkgredis "github.com/angelmondragon/storefront-orders/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubOrdersService struct {
	get func(ctx context.Context, actor orders.Actor, id int64) (*models.Order, error)
}

func (stubOrdersService) Confirm(context.Context, string) (*models.Order, error) {
	return &models.Order{ID: 1, OrderStatus: enums.OrderStatusConfirmed}, nil
}

func (stubOrdersService) Cancel(context.Context, string) (*models.Order, error) {
	return &models.Order{ID: 1, OrderStatus: enums.OrderStatusCancelled}, nil
}

func (stubOrdersService) Track(context.Context, string) (*models.Order, error) {
	return &models.Order{ID: 1, OrderStatus: enums.OrderStatusPending}, nil
}

func (s stubOrdersService) Get(ctx context.Context, actor orders.Actor, id int64) (*models.Order, error) {
	if s.get != nil {
		return s.get(ctx, actor, id)
	}
	return &models.Order{ID: id}, nil
}

func (stubOrdersService) Transition(_ context.Context, input orders.TransitionInput) (*models.Order, error) {
	return &models.Order{ID: input.OrderID, OrderStatus: input.Target}, nil
}

func (stubOrdersService) Notify(_ context.Context, input orders.NotifyInput) (*models.Order, error) {
	return &models.Order{ID: input.OrderID, OrderStatus: input.Status}, nil
}

func (stubOrdersService) Expire(context.Context, int64) (bool, error) {
	return false, nil
}

type countingCheckoutService struct {
	calls int
}

func (s *countingCheckoutService) Execute(context.Context, checkout.CheckoutInput) (*checkout.CheckoutResult, error) {
	s.calls++
	return &checkout.CheckoutResult{PaymentID: uuid.NewString(), RedirectURL: "https://pay.example/x"}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App:          config.AppConfig{Env: "test", Port: "0", CORSAllowedOrigins: []string{"http://localhost:3000"}},
		JWT:          config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60},
		FeatureFlags: config.FeatureFlagsConfig{CheckoutIdemKeys: true},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config, checkoutSvc checkout.Service, ordersSvc orders.Service) http.Handler {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient, err := pkgredis.New(context.Background(), config.RedisConfig{URL: "redis://" + mr.Addr()}, nil)
	if err != nil {
		t.Fatalf("connect miniredis: %v", err)
	}
	t.Cleanup(func() { _ = redisClient.Close() })

	return NewRouter(cfg, logger.Nop(), stubPinger{}, redisClient, prometheus.NewRegistry(), checkoutSvc, ordersSvc)
}

func staffToken(t *testing.T, cfg *config.Config, role enums.StaffRole, storeID *uuid.UUID) string {
	t.Helper()
	token, err := pkgAuth.MintStaffToken(cfg.JWT, time.Now(), pkgAuth.StaffTokenPayload{UserID: "staff-1", StoreID: storeID, Role: role})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthRoutes(t *testing.T) {
	router := newTestRouter(t, testConfig(), &countingCheckoutService{}, stubOrdersService{})

	for _, path := range []string{"/health/live", "/health/ready", "/metrics"} {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.Code)
		}
	}
}

func TestCustomerRoutesArePublic(t *testing.T) {
	router := newTestRouter(t, testConfig(), &countingCheckoutService{}, stubOrdersService{})

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodPatch, "/api/orders/confirm"},
		{http.MethodPatch, "/api/orders/cancel"},
		{http.MethodPost, "/api/orders/track"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(`{"requestReferenceNumber":"ref-1"}`))
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("%s %s: expected 200 got %d", tc.method, tc.path, resp.Code)
		}
	}
}

func TestStaffRoutesRequireJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg, &countingCheckoutService{}, stubOrdersService{})

	req := httptest.NewRequest(http.MethodPost, "/api/staff/orders/query", strings.NewReader(`{"orderid":1}`))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}

	storeID := uuid.New()
	req = httptest.NewRequest(http.MethodPost, "/api/staff/orders/query", strings.NewReader(`{"orderid":1}`))
	req.Header.Set("Authorization", "Bearer "+staffToken(t, cfg, enums.StaffRoleStaff, &storeID))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with token got %d", resp.Code)
	}
}

func TestStaffRoutesPassStoreScope(t *testing.T) {
	cfg := testConfig()
	storeID := uuid.New()
	var got orders.Actor
	svc := stubOrdersService{get: func(_ context.Context, actor orders.Actor, id int64) (*models.Order, error) {
		got = actor
		return &models.Order{ID: id}, nil
	}}
	router := newTestRouter(t, cfg, &countingCheckoutService{}, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/staff/orders/query", strings.NewReader(`{"orderid":5}`))
	req.Header.Set("Authorization", "Bearer "+staffToken(t, cfg, enums.StaffRoleManager, &storeID))
	router.ServeHTTP(httptest.NewRecorder(), req)

	if got.StoreID != storeID || got.Role != "manager" || got.UserID != "staff-1" {
		t.Fatalf("unexpected actor %+v", got)
	}
}

func TestCheckoutReplaysIdempotentRequest(t *testing.T) {
	svc := &countingCheckoutService{}
	router := newTestRouter(t, testConfig(), svc, stubOrdersService{})

	body := `{"totalAmount":10,"buyer":{"firstName":"A","lastName":"B","email":"a@b.co"},"cartItems":[],"paymentMethod":"cash"}`
	var first string
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(body))
		req.Header.Set("Idempotency-Key", "checkout-1")
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusCreated {
			t.Fatalf("attempt %d: expected 201 got %d", i, resp.Code)
		}
		if i == 0 {
			first = resp.Body.String()
		} else if resp.Body.String() != first {
			t.Fatalf("expected replayed body, got %s", resp.Body.String())
		}
	}
	if svc.calls != 1 {
		t.Fatalf("expected one checkout execution got %d", svc.calls)
	}
}
