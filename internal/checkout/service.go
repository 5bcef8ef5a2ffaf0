package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-orders/internal/orders"
	"github.com/angelmondragon/storefront-orders/internal/stores"
	"github.com/angelmondragon/storefront-orders/pkg/config"
	"github.com/angelmondragon/storefront-orders/pkg/db/models"
	"github.com/angelmondragon/storefront-orders/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-orders/pkg/errors"
	"github.com/angelmondragon/storefront-orders/pkg/logger"
	"github.com/angelmondragon/storefront-orders/pkg/metrics"
	"github.com/angelmondragon/storefront-orders/pkg/outbox"
	"github.com/angelmondragon/storefront-orders/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type storeLookup interface {
	FindContact(ctx context.Context, id uuid.UUID) (*stores.StoreContact, error)
}

// Service executes checkout orchestration.
type Service interface {
	Execute(ctx context.Context, input CheckoutInput) (*CheckoutResult, error)
}

// ServiceParams wires the checkout service. Gateways holds one entry per
// enabled online payment method.
type ServiceParams struct {
	Config       config.CheckoutConfig
	Repo         orders.Repository
	Tx           txRunner
	Outbox       outboxPublisher
	Stores       storeLookup
	Notifier     orders.Notifier
	Gateways     map[enums.PaymentMethod]Gateway
	Logger       *logger.Logger
	Metrics      *metrics.OrderMetrics
	NewReference func() string
}

type service struct {
	cfg          config.CheckoutConfig
	repo         orders.Repository
	tx           txRunner
	outbox       outboxPublisher
	stores       storeLookup
	notifier     orders.Notifier
	gateways     map[enums.PaymentMethod]Gateway
	logg         *logger.Logger
	metrics      *metrics.OrderMetrics
	newReference func() string
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Stores == nil {
		return nil, fmt.Errorf("store lookup required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if _, err := url.Parse(params.Config.FrontendBaseURL); err != nil || strings.TrimSpace(params.Config.FrontendBaseURL) == "" {
		return nil, fmt.Errorf("frontend base url required")
	}
	newRef := params.NewReference
	if newRef == nil {
		newRef = uuid.NewString
	}
	gateways := make(map[enums.PaymentMethod]Gateway, len(params.Gateways))
	for method, gw := range params.Gateways {
		if gw == nil {
			continue
		}
		if !method.IsOnline() {
			return nil, fmt.Errorf("gateway registered for non-online method %q", method)
		}
		gateways[method] = gw
	}
	return &service{
		cfg:          params.Config,
		repo:         params.Repo,
		tx:           params.Tx,
		outbox:       params.Outbox,
		stores:       params.Stores,
		notifier:     params.Notifier,
		gateways:     gateways,
		logg:         params.Logger,
		metrics:      params.Metrics,
		newReference: newRef,
	}, nil
}

func (s *service) Execute(ctx context.Context, input CheckoutInput) (result *CheckoutResult, err error) {
	defer func() {
		s.metrics.RecordCheckout(string(input.PaymentMethod), err)
	}()

	total, err := validateInput(input)
	if err != nil {
		return nil, err
	}
	var gateway Gateway
	if input.PaymentMethod.IsOnline() {
		gateway = s.gateways[input.PaymentMethod]
		if gateway == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "paymentMethod is not enabled").
				WithDetails(map[string]any{"paymentMethod": input.PaymentMethod})
		}
	}
	if _, err := s.stores.FindContact(ctx, input.StoreID); err != nil {
		if pkgerrors.Is(err, pkgerrors.CodeNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "store_id does not reference a store")
		}
		return nil, err
	}

	ref := s.newReference()
	ctx = s.logg.WithOrderRef(ctx, ref)
	ctx = s.logg.WithStoreID(ctx, input.StoreID.String())

	order := &models.Order{
		ReferenceNumber: ref,
		StoreID:         input.StoreID,
		Buyer:           input.Buyer,
		CartItems:       input.CartItems,
		Total:           total,
		PaymentMethod:   input.PaymentMethod,
		PaymentID:       ref,
		OrderStatus:     enums.OrderStatusPending,
		PaymentStatus:   enums.PaymentStatusPending,
	}
	if err := s.createOrder(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}
	s.logg.Info(ctx, "checkout.order_created")

	urls := s.redirectURLs(ref)
	if gateway == nil {
		s.notifyReceived(ctx, *order)
		return &CheckoutResult{PaymentID: ref, RedirectURL: urls.Success, ReferenceNumber: ref}, nil
	}

	started := time.Now()
	session, err := gateway.InitiatePayment(ctx, types.PaymentRequest{
		ReferenceNumber: ref,
		Amount:          total,
		Currency:        s.cfg.Currency,
		Buyer:           input.Buyer,
		Items:           input.CartItems,
		RedirectURLs:    urls,
	})
	s.metrics.ObserveGateway(string(input.PaymentMethod), time.Since(started), err)
	if err != nil {
		s.logg.Error(ctx, "checkout.gateway_failed", err)
		s.abandon(ctx, *order)
		return nil, gatewayFailure(err)
	}

	recorded, err := s.repo.SetPaymentID(ctx, order.ID, session.PaymentID)
	switch {
	case err != nil:
		s.logg.Error(ctx, "checkout.payment_id_not_recorded", err)
	case !recorded:
		s.logg.Warn(ctx, "checkout.payment_id_not_recorded")
	}
	return &CheckoutResult{PaymentID: session.PaymentID, RedirectURL: session.RedirectURL, ReferenceNumber: ref}, nil
}

func (s *service) createOrder(ctx context.Context, order *models.Order) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, orderEvent(*order, enums.EventOrderCreated, "", order.CreatedAt))
	})
}

// abandon cancels the just-written order after the processor refused it, so
// no payable pending order is left behind.
func (s *service) abandon(ctx context.Context, order models.Order) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		applied, err := s.repo.WithTx(tx).CompareAndSetStatus(ctx,
			orders.Selector{ID: order.ID},
			enums.OrderStatusPending,
			orders.StatusUpdate{OrderStatus: enums.OrderStatusCancelled},
		)
		if err != nil || !applied {
			return err
		}
		return s.outbox.Emit(ctx, tx, orderEvent(order, enums.EventOrderCanceled, enums.OrderStatusCancelled, time.Now().UTC()))
	})
	if err != nil {
		s.logg.Error(ctx, "checkout.abandon_failed", err)
	}
}

func (s *service) notifyReceived(ctx context.Context, order models.Order) {
	err := s.notifier.NotifyOrder(ctx, order, enums.EmailTemplateReceived)
	s.metrics.RecordNotification(string(enums.EmailTemplateReceived), err)
	if err != nil {
		s.logg.Error(ctx, "notification.failed", err)
	}
}

func (s *service) redirectURLs(ref string) types.RedirectURLs {
	cancelled := buildURL(s.cfg.FrontendBaseURL, s.cfg.CancelledPath, ref)
	return types.RedirectURLs{
		Success: buildURL(s.cfg.FrontendBaseURL, s.cfg.ConfirmedPath, ref),
		Failure: cancelled,
		Cancel:  cancelled,
	}
}

func buildURL(base, path, ref string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/") + "?ref=" + url.QueryEscape(ref)
}

func orderEvent(order models.Order, eventType enums.OutboxEventType, next enums.OrderStatus, at time.Time) outbox.DomainEvent {
	if at.IsZero() {
		at = time.Now().UTC()
	}
	previous, status := order.OrderStatus, next
	if next == "" {
		previous, status = "", order.OrderStatus
	}
	return outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		AggregateID:   strconv.FormatInt(order.ID, 10),
		Data: outbox.OrderEvent{
			OrderID:         order.ID,
			ReferenceNumber: order.ReferenceNumber,
			StoreID:         order.StoreID.String(),
			PaymentMethod:   order.PaymentMethod,
			PreviousStatus:  previous,
			OrderStatus:     status,
			PaymentStatus:   order.PaymentStatus,
			Total:           order.Total,
			ChangedAt:       at,
		},
		OccurredAt: at,
	}
}

// gatewayFailure surfaces the processor's status and body unchanged.
func gatewayFailure(err error) error {
	var gwErr *types.GatewayError
	if !errors.As(err, &gwErr) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment processor unavailable")
	}
	var body any = gwErr.Body
	if json.Valid([]byte(gwErr.Body)) {
		body = json.RawMessage(gwErr.Body)
	}
	return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "payment processor rejected the checkout").
		WithDetails(map[string]any{
			"gatewayStatus": gwErr.StatusCode,
			"gatewayBody":   body,
		})
}
