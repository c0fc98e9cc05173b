package repository

import (
	"context"

	"github.com/higortorres2001-commits/site-casamento-sub001/internal/model"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	// Seed inserts the development catalog, coupons and gift list. Existing
	// rows are kept.
	Seed(ctx context.Context) error
	// FindMany skips ids with no row; callers compare lengths.
	FindMany(ctx context.Context, tx *gorm.DB, productIDs []string) ([]*model.Product, error)
}

type productRepoImpl struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepoImpl{
		db: db,
	}
}

func (r *productRepoImpl) Seed(ctx context.Context) error {
	products := []model.Product{
		{ID: "site_basic", Name: "Site de casamento", Price: decimal.NewFromInt(100), Status: model.ProductActive},
		{ID: "rsvp_pro", Name: "Confirmação de presença", Price: decimal.NewFromInt(50), Status: model.ProductActive},
		{ID: "gift_list", Name: "Lista de presentes", Price: decimal.NewFromInt(80), Status: model.ProductActive},
		{ID: "save_the_date", Name: "Save the date", Price: decimal.NewFromInt(30), Status: model.ProductDraft},
		{
			ID: "kit_completo", Name: "Kit completo", Price: decimal.NewFromInt(199), Status: model.ProductActive,
			IsBundle: true, BundleItems: datatypes.JSONSlice[string]{"site_basic", "rsvp_pro", "gift_list"},
		},
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&products).Error; err != nil {
		return err
	}

	coupons := []model.Coupon{
		{Code: "AMOR10", DiscountType: model.DiscountPercentage, Value: decimal.NewFromInt(10), Active: true},
		{Code: "NOIVOS20", DiscountType: model.DiscountFixed, Value: decimal.NewFromInt(20), Active: true},
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&coupons).Error; err != nil {
		return err
	}

	gifts := []model.Gift{
		{ID: "jogo_de_panelas", Name: "Jogo de panelas", Price: decimal.NewFromInt(350), QuantityWanted: 1},
		{ID: "jantar_lua_de_mel", Name: "Jantar na lua de mel", Price: decimal.NewFromInt(120), QuantityWanted: 4},
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&gifts).Error
}

func (r *productRepoImpl) FindMany(ctx context.Context, tx *gorm.DB, productIDs []string) ([]*model.Product, error) {
	var products []*model.Product
	err := conn(r.db, tx).WithContext(ctx).
		Where("id IN ?", productIDs).
		Find(&products).
		Error

	if err != nil {
		return nil, err
	}

	return products, nil
}
