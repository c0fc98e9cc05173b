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

type PricedProducts struct {
	// ProductIDs is the deduplicated request, in request order.
	ProductIDs []string
	Products   []*model.Product
	Total      decimal.Decimal
}

type PricingService interface {
	Validate(ctx context.Context, productIDs []string) (*PricedProducts, error)
}

type pricingServiceImpl struct {
	productRepo repository.ProductRepository
}

func NewPricingService(productRepo repository.ProductRepository) PricingService {
	return &pricingServiceImpl{
		productRepo: productRepo,
	}
}

func dedupIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (s *pricingServiceImpl) Validate(ctx context.Context, productIDs []string) (*PricedProducts, error) {
	ids := dedupIDs(productIDs)
	if len(ids) == 0 {
		return nil, apperr.Validation("product_ids must not be empty")
	}

	products, err := s.productRepo.FindMany(ctx, nil, ids)
	if err != nil {
		return nil, fmt.Errorf("get many products by ids: %w", err)
	}

	byID := make(map[string]*model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	if len(byID) < len(ids) {
		var missing []string
		for _, id := range ids {
			if _, ok := byID[id]; !ok {
				missing = append(missing, id)
			}
		}
		return nil, fmt.Errorf("%w: %s", apperr.ErrProductsNotFound, strings.Join(missing, ", "))
	}

	ordered := make([]*model.Product, 0, len(ids))
	var unavailable []string
	total := decimal.Zero
	for _, id := range ids {
		p := byID[id]
		if !p.Purchasable() {
			unavailable = append(unavailable, p.Name)
			continue
		}
		ordered = append(ordered, p)
		total = total.Add(p.Price)
	}
	if len(unavailable) > 0 {
		return nil, fmt.Errorf("%w: %s", apperr.ErrProductsUnavailable, strings.Join(unavailable, ", "))
	}

	return &PricedProducts{
		ProductIDs: ids,
		Products:   ordered,
		Total:      total,
	}, nil
}
