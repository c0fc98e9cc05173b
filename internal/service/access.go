package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/higortorres2001-commits/site-casamento-sub001/internal/apperr"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/model"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/repository"
	"github.com/labstack/gommon/log"
	"gorm.io/gorm"
)

type AccessService interface {
	// Grant merges productIDs, bundles expanded, into the customer's access
	// list. It reports whether anything was added.
	Grant(ctx context.Context, tx *gorm.DB, customerID string, productIDs []string) (bool, error)
}

type accessServiceImpl struct {
	productRepo repository.ProductRepository
	accessRepo  repository.AccessRepository
	logger      *log.Logger
}

func NewAccessService(
	productRepo repository.ProductRepository,
	accessRepo repository.AccessRepository,
	logger *log.Logger,
) AccessService {
	return &accessServiceImpl{
		productRepo: productRepo,
		accessRepo:  accessRepo,
		logger:      logger,
	}
}

// ExpandBundles returns productIDs plus the items of every bundle among them,
// deduplicated, in first-seen order. Ids missing from catalog and bundles
// without items pass through unchanged.
func ExpandBundles(productIDs []string, catalog []*model.Product) []string {
	byID := make(map[string]*model.Product, len(catalog))
	for _, p := range catalog {
		byID[p.ID] = p
	}

	expanded := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		expanded = append(expanded, id)
		if p, ok := byID[id]; ok && p.IsBundle {
			expanded = append(expanded, p.BundleItems...)
		}
	}
	return dedupIDs(expanded)
}

// MergeAccess returns the union of current and granted, keeping current's
// order, and whether granted added anything.
func MergeAccess(current, granted []string) ([]string, bool) {
	have := make(map[string]struct{}, len(current))
	for _, id := range current {
		have[id] = struct{}{}
	}

	merged := append([]string{}, current...)
	for _, id := range granted {
		if _, ok := have[id]; ok {
			continue
		}
		have[id] = struct{}{}
		merged = append(merged, id)
	}
	return merged, len(merged) > len(current)
}

func (s *accessServiceImpl) Grant(ctx context.Context, tx *gorm.DB, customerID string, productIDs []string) (bool, error) {
	ids := dedupIDs(productIDs)
	if len(ids) == 0 {
		return false, nil
	}

	granted := ExpandBundles(ids, s.lookupCatalog(ctx, tx, customerID, ids))

	current, err := s.accessRepo.Get(ctx, tx, customerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("%w: customer %s", apperr.ErrNotFound, customerID)
	}
	if err != nil {
		return false, fmt.Errorf("get access: %w", err)
	}

	merged, changed := MergeAccess(current, granted)
	if !changed {
		return false, nil
	}

	if err := s.accessRepo.Set(ctx, tx, customerID, merged); err != nil {
		return false, fmt.Errorf("set access: %w", err)
	}
	return true, nil
}

const catalogSavePoint = "grant_catalog_lookup"

// lookupCatalog returns nil when the lookup fails. Inside a transaction the
// lookup runs behind a savepoint so a failed statement does not abort the
// caller's transaction on postgres.
func (s *accessServiceImpl) lookupCatalog(ctx context.Context, tx *gorm.DB, customerID string, ids []string) []*model.Product {
	if tx != nil {
		if err := tx.WithContext(ctx).SavePoint(catalogSavePoint).Error; err != nil {
			s.logger.Warnf("grant access %s: savepoint: %v", customerID, err)
			return nil
		}
	}

	catalog, err := s.productRepo.FindMany(ctx, tx, ids)
	if err == nil {
		return catalog
	}
	s.logger.Warnf("grant access %s: bundle lookup failed, granting ids as given: %v", customerID, err)
	if tx != nil {
		if rerr := tx.WithContext(ctx).RollbackTo(catalogSavePoint).Error; rerr != nil {
			s.logger.Warnf("grant access %s: rollback to savepoint: %v", customerID, rerr)
		}
	}
	return nil
}
