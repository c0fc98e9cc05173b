package service

import (
	"context"
	"fmt"

	"github.com/higortorres2001-commits/site-casamento-sub001/internal/apperr"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/dto"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/model"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/repository"
)

type OrderService interface {
	GetStatus(ctx context.Context, orderID string) (*dto.OrderStatusResponse, error)
}

type orderServiceImpl struct {
	orderRepo   repository.OrderRepository
	statusCache repository.OrderStatusCache
}

func NewOrderService(orderRepo repository.OrderRepository, statusCache repository.OrderStatusCache) OrderService {
	return &orderServiceImpl{
		orderRepo:   orderRepo,
		statusCache: statusCache,
	}
}

func statusResponse(orderID string, status model.OrderStatus) *dto.OrderStatusResponse {
	return &dto.OrderStatusResponse{
		OrderID: orderID,
		Status:  string(status),
		Paid:    status == model.OrderPaid,
	}
}

// GetStatus only caches terminal statuses, so a cached answer never goes stale.
func (s *orderServiceImpl) GetStatus(ctx context.Context, orderID string) (*dto.OrderStatusResponse, error) {
	if status, ok := s.statusCache.Get(ctx, orderID); ok {
		return statusResponse(orderID, status), nil
	}

	order, err := s.orderRepo.FindByID(ctx, nil, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, fmt.Errorf("%w: order %s", apperr.ErrNotFound, orderID)
	}

	if order.Status.Terminal() {
		s.statusCache.Set(ctx, order.ID, order.Status)
	}
	return statusResponse(order.ID, order.Status), nil
}
