package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/higortorres2001-commits/site-casamento-sub001/internal/model"
	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	// FindByID and FindByGatewayPaymentID return nil when nothing matches.
	FindByID(ctx context.Context, tx *gorm.DB, orderID string) (*model.Order, error)
	FindByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (*model.Order, error)
	AttachGatewayPaymentID(ctx context.Context, orderID, gatewayPaymentID string) error
	// Transition moves a pending order to status with one conditional update.
	// It reports false, without error, when the order was no longer pending.
	Transition(ctx context.Context, tx *gorm.DB, orderID string, status model.OrderStatus) (bool, error)
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	if order.Status == "" {
		order.Status = model.OrderPending
	}
	return conn(r.db, tx).WithContext(ctx).Create(order).Error
}

func (r *orderRepoImpl) find(ctx context.Context, tx *gorm.DB, query string, arg any) (*model.Order, error) {
	var order model.Order
	err := conn(r.db, tx).WithContext(ctx).
		Where(query, arg).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepoImpl) FindByID(ctx context.Context, tx *gorm.DB, orderID string) (*model.Order, error) {
	return r.find(ctx, tx, "id = ?", orderID)
}

func (r *orderRepoImpl) FindByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (*model.Order, error) {
	return r.find(ctx, nil, "gateway_payment_id = ?", gatewayPaymentID)
}

func (r *orderRepoImpl) AttachGatewayPaymentID(ctx context.Context, orderID, gatewayPaymentID string) error {
	result := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"gateway_payment_id": gatewayPaymentID,
			"updated_at":         time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *orderRepoImpl) Transition(ctx context.Context, tx *gorm.DB, orderID string, status model.OrderStatus) (bool, error) {
	if !model.CanTransition(model.OrderPending, status) {
		return false, fmt.Errorf("invalid order transition to %q", status)
	}

	result := conn(r.db, tx).WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ?", orderID, model.OrderPending).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
