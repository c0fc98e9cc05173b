package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/higortorres2001-commits/site-casamento-sub001/internal/audit"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/model"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/notify"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/repository"
	"github.com/labstack/gommon/log"
	"gorm.io/gorm"
)

const (
	SourceWebhook       = "webhook"
	SourceCardConfirmed = "card_confirmed"

	notifyTimeout = 10 * time.Second
)

// PaymentConfirmer finalizes a payment once. The checkout card path and the
// webhook both go through it; whichever moves the row out of pending does
// the work and every other caller gets false.
type PaymentConfirmer interface {
	ConfirmOrder(ctx context.Context, order *model.Order, source string) (bool, error)
	ConfirmGift(ctx context.Context, reservation *model.GiftReservation) (bool, error)
	// Wait blocks until in-flight notifications are handed off.
	Wait()
}

type confirmServiceImpl struct {
	db          *gorm.DB
	orderRepo   repository.OrderRepository
	giftRepo    repository.GiftRepository
	access      AccessService
	statusCache repository.OrderStatusCache
	notifier    notify.Notifier
	audit       audit.Recorder
	logger      *log.Logger
	wg          sync.WaitGroup
}

func NewPaymentConfirmer(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	giftRepo repository.GiftRepository,
	access AccessService,
	statusCache repository.OrderStatusCache,
	notifier notify.Notifier,
	recorder audit.Recorder,
	logger *log.Logger,
) PaymentConfirmer {
	return &confirmServiceImpl{
		db:          db,
		orderRepo:   orderRepo,
		giftRepo:    giftRepo,
		access:      access,
		statusCache: statusCache,
		notifier:    notifier,
		audit:       recorder,
		logger:      logger,
	}
}

func (s *confirmServiceImpl) ConfirmOrder(ctx context.Context, order *model.Order, source string) (bool, error) {
	moved := false
	granted := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.orderRepo.Transition(ctx, tx, order.ID, model.OrderPaid)
		if err != nil {
			return fmt.Errorf("mark order paid: %w", err)
		}
		if !ok {
			return nil
		}
		moved = true

		granted, err = s.access.Grant(ctx, tx, order.CustomerID, order.ProductIDs)
		if err != nil {
			return fmt.Errorf("grant access: %w", err)
		}
		return nil
	})
	if err != nil {
		s.audit.Record(ctx, audit.Error("order.confirm_failed", err, map[string]any{
			"source": source,
		}).ForOrder(order.ID).ForCustomer(order.CustomerID))
		return false, err
	}
	if !moved {
		return false, nil
	}

	order.Status = model.OrderPaid
	s.statusCache.Invalidate(ctx, order.ID)
	s.audit.Record(ctx, audit.Info("order.paid", map[string]any{
		"source":         source,
		"access_changed": granted,
		"product_ids":    []string(order.ProductIDs),
	}).ForOrder(order.ID).ForCustomer(order.CustomerID))

	s.notifyAsync(notify.EventOrderPaid, order.ID, notify.OrderPaidPayload{
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		ProductIDs: []string(order.ProductIDs),
		Total:      order.Total.StringFixed(2),
		Source:     source,
	})
	return true, nil
}

func (s *confirmServiceImpl) ConfirmGift(ctx context.Context, reservation *model.GiftReservation) (bool, error) {
	moved := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.giftRepo.MarkPurchased(ctx, tx, reservation.ID)
		if err != nil {
			return fmt.Errorf("mark reservation purchased: %w", err)
		}
		if !ok {
			return nil
		}
		moved = true

		if err := s.giftRepo.IncrementPurchased(ctx, tx, reservation.GiftID, reservation.Quantity); err != nil {
			return fmt.Errorf("increment gift %s: %w", reservation.GiftID, err)
		}
		return nil
	})
	if err != nil {
		s.audit.Record(ctx, audit.Error("gift.confirm_failed", err, map[string]any{
			"reservation_id": reservation.ID,
		}))
		return false, err
	}
	if !moved {
		return false, nil
	}

	reservation.Status = model.ReservationPurchased
	s.audit.Record(ctx, audit.Info("gift.purchased", map[string]any{
		"reservation_id": reservation.ID,
		"gift_id":        reservation.GiftID,
		"quantity":       reservation.Quantity,
	}))

	s.notifyAsync(notify.EventGiftPurchased, reservation.ID, notify.GiftPurchasedPayload{
		ReservationID: reservation.ID,
		GiftID:        reservation.GiftID,
		GuestName:     reservation.GuestName,
		GuestEmail:    reservation.GuestEmail,
		Quantity:      reservation.Quantity,
		Total:         reservation.Total.StringFixed(2),
	})
	return true, nil
}

// notifyAsync runs after commit and outlives the request.
func (s *confirmServiceImpl) notifyAsync(eventType, correlationID string, payload any) {
	env, err := notify.NewEnvelope(eventType, correlationID, payload)
	if err != nil {
		s.logger.Warnf("notify %s %s: %v", eventType, correlationID, err)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.notifier.Notify(ctx, env); err != nil {
			s.logger.Warnf("notify %s %s: %v", eventType, correlationID, err)
		}
	}()
}

func (s *confirmServiceImpl) Wait() {
	s.wg.Wait()
}
