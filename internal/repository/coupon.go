package repository

import (
	"context"
	"errors"

	"github.com/higortorres2001-commits/site-casamento-sub001/internal/model"
	"gorm.io/gorm"
)

type CouponRepository interface {
	// FindActive returns nil when no active coupon has the code.
	FindActive(ctx context.Context, code string) (*model.Coupon, error)
}

type couponRepoImpl struct {
	db *gorm.DB
}

func NewCouponRepository(db *gorm.DB) CouponRepository {
	return &couponRepoImpl{db: db}
}

func (r *couponRepoImpl) FindActive(ctx context.Context, code string) (*model.Coupon, error) {
	var coupon model.Coupon
	err := r.db.WithContext(ctx).
		Where("code = ? AND active = ?", code, true).
		First(&coupon).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}
