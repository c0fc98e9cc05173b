package repository

import (
	"context"
	"errors"
	"time"

	"github.com/higortorres2001-commits/site-casamento-sub001/internal/model"
	"gorm.io/gorm"
)

type GiftRepository interface {
	// FindGift and FindReservation return nil when nothing matches.
	FindGift(ctx context.Context, giftID string) (*model.Gift, error)
	CreateReservation(ctx context.Context, reservation *model.GiftReservation) error
	FindReservation(ctx context.Context, reservationID string) (*model.GiftReservation, error)
	FindReservationByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (*model.GiftReservation, error)
	AttachGatewayPaymentID(ctx context.Context, reservationID, gatewayPaymentID string) error
	// MarkPurchased moves a pending reservation to purchased. False means it
	// was no longer pending.
	MarkPurchased(ctx context.Context, tx *gorm.DB, reservationID string) (bool, error)
	Cancel(ctx context.Context, reservationID string) error
	IncrementPurchased(ctx context.Context, tx *gorm.DB, giftID string, quantity int) error
}

type giftRepoImpl struct {
	db *gorm.DB
}

func NewGiftRepository(db *gorm.DB) GiftRepository {
	return &giftRepoImpl{db: db}
}

func (r *giftRepoImpl) FindGift(ctx context.Context, giftID string) (*model.Gift, error) {
	var gift model.Gift
	err := r.db.WithContext(ctx).Where("id = ?", giftID).First(&gift).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &gift, nil
}

func (r *giftRepoImpl) CreateReservation(ctx context.Context, reservation *model.GiftReservation) error {
	if reservation.Status == "" {
		reservation.Status = model.ReservationPending
	}
	return r.db.WithContext(ctx).Create(reservation).Error
}

func (r *giftRepoImpl) findReservation(ctx context.Context, query string, arg any) (*model.GiftReservation, error) {
	var reservation model.GiftReservation
	err := r.db.WithContext(ctx).Where(query, arg).First(&reservation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (r *giftRepoImpl) FindReservation(ctx context.Context, reservationID string) (*model.GiftReservation, error) {
	return r.findReservation(ctx, "id = ?", reservationID)
}

func (r *giftRepoImpl) FindReservationByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (*model.GiftReservation, error) {
	return r.findReservation(ctx, "gateway_payment_id = ?", gatewayPaymentID)
}

func (r *giftRepoImpl) AttachGatewayPaymentID(ctx context.Context, reservationID, gatewayPaymentID string) error {
	return r.db.WithContext(ctx).Model(&model.GiftReservation{}).
		Where("id = ?", reservationID).
		Updates(map[string]interface{}{
			"gateway_payment_id": gatewayPaymentID,
			"updated_at":         time.Now(),
		}).Error
}

func (r *giftRepoImpl) setStatus(ctx context.Context, tx *gorm.DB, reservationID string, status model.ReservationStatus) (bool, error) {
	result := conn(r.db, tx).WithContext(ctx).Model(&model.GiftReservation{}).
		Where("id = ? AND status = ?", reservationID, model.ReservationPending).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *giftRepoImpl) MarkPurchased(ctx context.Context, tx *gorm.DB, reservationID string) (bool, error) {
	return r.setStatus(ctx, tx, reservationID, model.ReservationPurchased)
}

func (r *giftRepoImpl) Cancel(ctx context.Context, reservationID string) error {
	_, err := r.setStatus(ctx, nil, reservationID, model.ReservationCancelled)
	return err
}

func (r *giftRepoImpl) IncrementPurchased(ctx context.Context, tx *gorm.DB, giftID string, quantity int) error {
	result := conn(r.db, tx).WithContext(ctx).Model(&model.Gift{}).
		Where("id = ?", giftID).
		Updates(map[string]interface{}{
			"quantity_purchased": gorm.Expr("quantity_purchased + ?", quantity),
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
