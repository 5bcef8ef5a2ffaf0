package orders

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-orders/pkg/db/models"
	"github.com/angelmondragon/storefront-orders/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-orders/pkg/errors"
	"github.com/angelmondragon/storefront-orders/pkg/logger"
	"github.com/angelmondragon/storefront-orders/pkg/metrics"
	"github.com/angelmondragon/storefront-orders/pkg/outbox"
)

const (
	sourceConfirm   = "confirm"
	sourceCancel    = "cancel"
	sourceStaff     = "staff"
	sourceReconcile = "reconcile"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service covers the confirmation handler and the status transition engine.
type Service interface {
	Confirm(ctx context.Context, ref string) (*models.Order, error)
	Cancel(ctx context.Context, ref string) (*models.Order, error)
	Track(ctx context.Context, ref string) (*models.Order, error)
	Get(ctx context.Context, actor Actor, id int64) (*models.Order, error)
	Transition(ctx context.Context, input TransitionInput) (*models.Order, error)
	Notify(ctx context.Context, input NotifyInput) (*models.Order, error)
	// Expire cancels a stale pending online order. It reports whether the order changed.
	Expire(ctx context.Context, id int64) (bool, error)
}

// ServiceParams wires the order service.
type ServiceParams struct {
	Repo     Repository
	Tx       txRunner
	Outbox   outboxPublisher
	Notifier Notifier
	Logger   *logger.Logger
	Metrics  *metrics.OrderMetrics
	Now      func() time.Time
}

type service struct {
	repo     Repository
	tx       txRunner
	outbox   outboxPublisher
	notifier Notifier
	logg     *logger.Logger
	metrics  *metrics.OrderMetrics
	now      func() time.Time
}

// NewService builds the order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:     params.Repo,
		tx:       params.Tx,
		outbox:   params.Outbox,
		notifier: params.Notifier,
		logg:     params.Logger,
		metrics:  params.Metrics,
		now:      now,
	}, nil
}

func (s *service) Confirm(ctx context.Context, ref string) (*models.Order, error) {
	ref, err := requireReference(ref)
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithOrderRef(ctx, ref)

	order, err := s.findByReference(ctx, ref)
	if err != nil {
		return nil, err
	}
	if order.OrderStatus != enums.OrderStatusPending || !order.PaymentMethod.IsOnline() {
		s.logNoop(ctx, "order.confirm.noop", order)
		return order, nil
	}

	update := StatusUpdate{OrderStatus: enums.OrderStatusConfirmed, PaymentStatus: enums.PaymentStatusPaid}
	sel := Selector{ReferenceNumber: ref, PaymentMethods: enums.OnlinePaymentMethods()}
	applied, err := s.applyStatus(ctx, sel, *order, update, enums.EventOrderPaid, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm order")
	}

	current, err := s.findByReference(ctx, ref)
	if err != nil {
		return nil, err
	}
	if !applied {
		s.logNoop(ctx, "order.confirm.noop", current)
		return current, nil
	}

	s.metrics.RecordTransition(string(enums.OrderStatusPending), string(enums.OrderStatusConfirmed), sourceConfirm)
	s.logg.Info(ctx, "order.confirmed")
	s.notify(ctx, *current, enums.EmailTemplateConfirmed)
	return current, nil
}

func (s *service) Cancel(ctx context.Context, ref string) (*models.Order, error) {
	ref, err := requireReference(ref)
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithOrderRef(ctx, ref)

	order, err := s.findByReference(ctx, ref)
	if err != nil {
		return nil, err
	}
	if order.OrderStatus != enums.OrderStatusPending {
		s.logNoop(ctx, "order.cancel.noop", order)
		return order, nil
	}

	update := StatusUpdate{OrderStatus: enums.OrderStatusCancelled}
	applied, err := s.applyStatus(ctx, Selector{ReferenceNumber: ref}, *order, update, enums.EventOrderCanceled, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
	}

	current, err := s.findByReference(ctx, ref)
	if err != nil {
		return nil, err
	}
	if applied {
		s.metrics.RecordTransition(string(enums.OrderStatusPending), string(enums.OrderStatusCancelled), sourceCancel)
		s.logg.Info(ctx, "order.cancelled")
	} else {
		s.logNoop(ctx, "order.cancel.noop", current)
	}
	return current, nil
}

func (s *service) Track(ctx context.Context, ref string) (*models.Order, error) {
	ref, err := requireReference(ref)
	if err != nil {
		return nil, err
	}
	return s.findByReference(ctx, ref)
}

func (s *service) Get(ctx context.Context, actor Actor, id int64) (*models.Order, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "orderid is required")
	}
	return s.findForActor(ctx, actor, id)
}

func (s *service) Transition(ctx context.Context, input TransitionInput) (*models.Order, error) {
	if input.OrderID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "orderId is required")
	}
	if !isStaffTarget(input.Target) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status must be one of confirmed, preparing, ready, complete").
			WithDetails(map[string]any{"status": input.Target})
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"order_id":      input.OrderID,
		"target_status": input.Target,
		"user_id":       input.Actor.UserID,
	})

	order, err := s.findForActor(ctx, input.Actor, input.OrderID)
	if err != nil {
		return nil, err
	}
	from := order.OrderStatus
	if from == input.Target {
		s.logNoop(ctx, "order.transition.noop", order)
		return order, nil
	}
	if err := checkTransition(from, input.Target); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "order status transition not allowed").
			WithDetails(map[string]any{
				"from":    from,
				"to":      input.Target,
				"allowed": NextStatuses(from),
			})
	}

	update := StatusUpdate{OrderStatus: input.Target}
	if input.Target == enums.OrderStatusComplete && order.PaymentMethod == enums.PaymentMethodCash {
		update.PaymentStatus = enums.PaymentStatusPaid
	}
	applied, err := s.applyStatus(ctx, Selector{ID: order.ID}, *order, update, enums.EventOrderStateChanged, buildActor(input.Actor))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	if !applied {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order status changed concurrently; reload and retry")
	}

	current, err := s.findByID(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordTransition(string(from), string(input.Target), sourceStaff)
	s.logg.Info(ctx, "order.transitioned")

	if template, ok := enums.FulfillmentTemplateFor(input.Target); ok {
		s.notify(ctx, *current, template)
	}
	return current, nil
}

func (s *service) Notify(ctx context.Context, input NotifyInput) (*models.Order, error) {
	if input.OrderID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "orderId is required")
	}
	template, ok := enums.FulfillmentTemplateFor(input.Status)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status must be one of ready, complete").
			WithDetails(map[string]any{"status": input.Status})
	}
	ctx = s.logg.WithFields(ctx, map[string]any{"order_id": input.OrderID, "template": template})

	order, err := s.findForActor(ctx, input.Actor, input.OrderID)
	if err != nil {
		return nil, err
	}
	if order.OrderStatus != input.Status {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not in the requested status").
			WithDetails(map[string]any{"current": order.OrderStatus, "requested": input.Status})
	}
	s.notify(ctx, *order, template)
	return order, nil
}

func (s *service) Expire(ctx context.Context, id int64) (bool, error) {
	order, err := s.findByID(ctx, id)
	if err != nil {
		return false, err
	}
	if order.OrderStatus != enums.OrderStatusPending || !order.PaymentMethod.IsOnline() {
		return false, nil
	}
	sel := Selector{ID: id, PaymentMethods: enums.OnlinePaymentMethods()}
	update := StatusUpdate{OrderStatus: enums.OrderStatusCancelled}
	applied, err := s.applyStatus(ctx, sel, *order, update, enums.EventOrderExpired, nil)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire order")
	}
	if applied {
		s.metrics.RecordTransition(string(enums.OrderStatusPending), string(enums.OrderStatusCancelled), sourceReconcile)
	}
	return applied, nil
}

// applyStatus runs the conditional update and, when it applied, queues the
// outbox event in the same transaction.
func (s *service) applyStatus(ctx context.Context, sel Selector, order models.Order, update StatusUpdate, eventType enums.OutboxEventType, actor *outbox.ActorRef) (bool, error) {
	applied := false
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ok, err := s.repo.WithTx(tx).CompareAndSetStatus(ctx, sel, order.OrderStatus, update)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		applied = true

		data := outbox.OrderEvent{
			OrderID:         order.ID,
			ReferenceNumber: order.ReferenceNumber,
			StoreID:         order.StoreID.String(),
			PaymentMethod:   order.PaymentMethod,
			PreviousStatus:  order.OrderStatus,
			OrderStatus:     update.OrderStatus,
			PaymentStatus:   order.PaymentStatus,
			Total:           order.Total,
			ChangedAt:       s.now().UTC(),
		}
		if update.PaymentStatus != "" {
			data.PaymentStatus = update.PaymentStatus
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     eventType,
			AggregateType: enums.AggregateOrder,
			AggregateID:   strconv.FormatInt(order.ID, 10),
			Actor:         actor,
			Data:          data,
			Version:       1,
			OccurredAt:    data.ChangedAt,
		})
	})
	return applied, err
}

// notify sends the email and swallows failures; the status write already happened.
func (s *service) notify(ctx context.Context, order models.Order, template enums.EmailTemplate) {
	err := s.notifier.NotifyOrder(ctx, order, template)
	s.metrics.RecordNotification(string(template), err)
	if err != nil {
		logCtx := s.logg.WithField(ctx, "template", template)
		s.logg.Error(logCtx, "notification.failed", err)
	}
}

func (s *service) findByReference(ctx context.Context, ref string) (*models.Order, error) {
	order, err := s.repo.FindByReference(ctx, ref)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order by reference")
	}
	return order, nil
}

func (s *service) findByID(ctx context.Context, id int64) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

// findForActor hides orders of other stores behind NotFound.
func (s *service) findForActor(ctx context.Context, actor Actor, id int64) (*models.Order, error) {
	if strings.TrimSpace(actor.UserID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	order, err := s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.canAccess(order.StoreID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) logNoop(ctx context.Context, event string, order *models.Order) {
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_status":   order.OrderStatus,
		"payment_method": order.PaymentMethod,
	})
	s.logg.Info(logCtx, event)
}

func requireReference(ref string) (string, error) {
	trimmed := strings.TrimSpace(ref)
	if trimmed == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "requestReferenceNumber is required")
	}
	return trimmed, nil
}

func buildActor(actor Actor) *outbox.ActorRef {
	ref := &outbox.ActorRef{UserID: actor.UserID, Role: actor.Role}
	if actor.StoreID != uuid.Nil {
		ref.StoreID = actor.StoreID.String()
	}
	return ref
}
