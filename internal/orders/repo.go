package orders

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-orders/pkg/db/models"
	"github.com/angelmondragon/storefront-orders/pkg/enums"
)

var errEmptySelector = errors.New("order selector requires an id or reference number")

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByReference(ctx context.Context, ref string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Where("reference_number = ?", ref).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) CompareAndSetStatus(ctx context.Context, sel Selector, from enums.OrderStatus, update StatusUpdate) (bool, error) {
	query, err := r.selectorQuery(ctx, sel)
	if err != nil {
		return false, err
	}
	values := map[string]any{
		"order_status": update.OrderStatus,
		"updated_at":   time.Now().UTC(),
	}
	if update.PaymentStatus != "" {
		values["payment_status"] = update.PaymentStatus
	}
	res := query.Where("order_status = ?", from).Updates(values)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) SetPaymentID(ctx context.Context, id int64, paymentID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND order_status = ?", id, enums.OrderStatusPending).
		Updates(map[string]any{
			"payment_id": paymentID,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) FindStalePending(ctx context.Context, cutoff time.Time, methods []enums.PaymentMethod, limit int) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Where("order_status = ? AND created_at < ?", enums.OrderStatusPending, cutoff)
	if len(methods) > 0 {
		query = query.Where("payment_method IN ?", methods)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []models.Order
	if err := query.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) selectorQuery(ctx context.Context, sel Selector) (*gorm.DB, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{})
	switch {
	case sel.ID > 0:
		query = query.Where("id = ?", sel.ID)
	case strings.TrimSpace(sel.ReferenceNumber) != "":
		query = query.Where("reference_number = ?", sel.ReferenceNumber)
	default:
		return nil, errEmptySelector
	}
	if len(sel.PaymentMethods) > 0 {
		query = query.Where("payment_method IN ?", sel.PaymentMethods)
	}
	return query, nil
}
