package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-orders/pkg/db/models"
	"github.com/angelmondragon/storefront-orders/pkg/enums"
	"github.com/angelmondragon/storefront-orders/pkg/logger"
)

const (
	defaultPendingTTL       = 2 * time.Hour
	defaultReconcileBatch   = 100
	pendingReconcileJobName = "pending-order-reconcile"
)

// PendingOrderJobParams configure the stale pending order reconciler.
type PendingOrderJobParams struct {
	Logger     *logger.Logger
	Orders     staleOrderFinder
	Expirer    orderExpirer
	PendingTTL time.Duration
	BatchSize  int
}

type staleOrderFinder interface {
	FindStalePending(ctx context.Context, cutoff time.Time, methods []enums.PaymentMethod, limit int) ([]models.Order, error)
}

type orderExpirer interface {
	Expire(ctx context.Context, id int64) (bool, error)
}

// NewPendingOrderJob builds the job that cancels online-payment orders whose
// buyer never came back from the gateway. Cash orders wait for staff.
func NewPendingOrderJob(params PendingOrderJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order finder required")
	}
	if params.Expirer == nil {
		return nil, fmt.Errorf("order expirer required")
	}
	ttl := params.PendingTTL
	if ttl <= 0 {
		ttl = defaultPendingTTL
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultReconcileBatch
	}
	return &pendingOrderJob{
		logg:    params.Logger,
		orders:  params.Orders,
		expirer: params.Expirer,
		ttl:     ttl,
		batch:   batch,
		now:     time.Now,
	}, nil
}

type pendingOrderJob struct {
	logg    *logger.Logger
	orders  staleOrderFinder
	expirer orderExpirer
	ttl     time.Duration
	batch   int
	now     func() time.Time
}

func (j *pendingOrderJob) Name() string { return pendingReconcileJobName }

func (j *pendingOrderJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	stale, err := j.orders.FindStalePending(ctx, cutoff, enums.OnlinePaymentMethods(), j.batch)
	if err != nil {
		return fmt.Errorf("query stale pending orders: %w", err)
	}

	var (
		errs    error
		expired int
		skipped int
	)
	for _, order := range stale {
		changed, err := j.expirer.Expire(ctx, order.ID)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("expire order %d: %w", order.ID, err))
			continue
		}
		if changed {
			expired++
		} else {
			// confirmed or cancelled between the query and the update
			skipped++
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":  cutoff,
		"found":   len(stale),
		"expired": expired,
		"skipped": skipped,
	})
	j.logg.Info(logCtx, "pending order reconciliation complete")
	return errs
}
