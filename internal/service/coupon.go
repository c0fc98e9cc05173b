package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/higortorres2001-commits/site-casamento-sub001/internal/apperr"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/model"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/repository"
	"github.com/shopspring/decimal"
)

const maxCouponCodeLen = 64

var hundred = decimal.NewFromInt(100)

type CouponService interface {
	// Apply returns total unchanged and a nil coupon when code is blank.
	Apply(ctx context.Context, code string, total decimal.Decimal) (decimal.Decimal, *model.Coupon, error)
}

type couponServiceImpl struct {
	couponRepo repository.CouponRepository
}

func NewCouponService(couponRepo repository.CouponRepository) CouponService {
	return &couponServiceImpl{
		couponRepo: couponRepo,
	}
}

func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ApplyDiscount never returns a negative amount.
func ApplyDiscount(coupon *model.Coupon, total decimal.Decimal) decimal.Decimal {
	var discounted decimal.Decimal
	switch coupon.DiscountType {
	case model.DiscountPercentage:
		discounted = total.Mul(decimal.NewFromInt(1).Sub(coupon.Value.Div(hundred)))
	case model.DiscountFixed:
		discounted = total.Sub(coupon.Value)
	default:
		return total
	}
	if discounted.IsNegative() {
		return decimal.Zero
	}
	return discounted.Round(2)
}

func (s *couponServiceImpl) Apply(ctx context.Context, code string, total decimal.Decimal) (decimal.Decimal, *model.Coupon, error) {
	code = NormalizeCouponCode(code)
	if code == "" {
		return total, nil, nil
	}
	if len(code) > maxCouponCodeLen || strings.ContainsAny(code, " \t\n") {
		return total, nil, apperr.Validation("malformed coupon code")
	}

	coupon, err := s.couponRepo.FindActive(ctx, code)
	if err != nil {
		return total, nil, fmt.Errorf("get coupon: %w", err)
	}
	if coupon == nil {
		return total, nil, fmt.Errorf("%w: %s", apperr.ErrInvalidCoupon, code)
	}

	return ApplyDiscount(coupon, total), coupon, nil
}
