package service_test

import (
	"context"
	"testing"

	"github.com/higortorres2001-commits/site-casamento-sub001/internal/apperr"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/model"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/repository"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/service"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPricingValidate(t *testing.T) {
	db := testutil.NewDB(t)
	seedCatalog(t, db)
	pricing := service.NewPricingService(repository.NewProductRepository(db))
	ctx := context.Background()

	t.Run("duplicates collapse", func(t *testing.T) {
		priced, err := pricing.Validate(ctx, []string{"site", "rsvp", "site", " rsvp "})
		require.NoError(t, err)
		assert.Equal(t, []string{"site", "rsvp"}, priced.ProductIDs)
		assert.True(t, priced.Total.Equal(decimal.NewFromInt(150)))
		assert.Len(t, priced.Products, 2)
	})

	t.Run("missing ids are listed", func(t *testing.T) {
		_, err := pricing.Validate(ctx, []string{"site", "ghost", "phantom", "ghost"})
		require.ErrorIs(t, err, apperr.ErrProductsNotFound)
		assert.Contains(t, err.Error(), "ghost, phantom")
	})

	t.Run("inactive products are listed by name", func(t *testing.T) {
		_, err := pricing.Validate(ctx, []string{"site", "draft", "old"})
		require.ErrorIs(t, err, apperr.ErrProductsUnavailable)
		assert.Contains(t, err.Error(), "Rascunho, Antigo")
	})

	t.Run("empty", func(t *testing.T) {
		_, err := pricing.Validate(ctx, []string{" ", ""})
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})
}

func TestApplyDiscount(t *testing.T) {
	t.Parallel()

	d := decimal.RequireFromString
	tests := []struct {
		name   string
		coupon model.Coupon
		total  string
		want   string
	}{
		{"fixed", model.Coupon{DiscountType: model.DiscountFixed, Value: d("10")}, "150", "140"},
		{"fixed floors at zero", model.Coupon{DiscountType: model.DiscountFixed, Value: d("200")}, "150", "0"},
		{"percentage", model.Coupon{DiscountType: model.DiscountPercentage, Value: d("10")}, "150", "135"},
		{"percentage rounds to cents", model.Coupon{DiscountType: model.DiscountPercentage, Value: d("15")}, "99.99", "84.99"},
		{"percentage over 100", model.Coupon{DiscountType: model.DiscountPercentage, Value: d("120")}, "150", "0"},
		{"unknown type", model.Coupon{DiscountType: "bogus", Value: d("10")}, "150", "150"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := service.ApplyDiscount(&tt.coupon, d(tt.total))
			assert.True(t, got.Equal(d(tt.want)), "got %s want %s", got, tt.want)
			assert.False(t, got.IsNegative())
		})
	}
}

func TestCouponApply(t *testing.T) {
	db := testutil.NewDB(t)
	seedCatalog(t, db)
	coupons := service.NewCouponService(repository.NewCouponRepository(db))
	ctx := context.Background()
	total := decimal.NewFromInt(150)

	got, coupon, err := coupons.Apply(ctx, "", total)
	require.NoError(t, err)
	assert.Nil(t, coupon)
	assert.True(t, got.Equal(total))

	got, coupon, err = coupons.Apply(ctx, "  fix10", total)
	require.NoError(t, err)
	require.NotNil(t, coupon)
	assert.Equal(t, "FIX10", coupon.Code)
	assert.True(t, got.Equal(decimal.NewFromInt(140)))

	_, _, err = coupons.Apply(ctx, "NOPE", total)
	assert.ErrorIs(t, err, apperr.ErrInvalidCoupon)

	_, _, err = coupons.Apply(ctx, "TWO WORDS", total)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
