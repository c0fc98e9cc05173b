package service

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"

	"github.com/higortorres2001-commits/site-casamento-sub001/internal/apperr"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/audit"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/dto"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/model"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/repository"
	"github.com/labstack/gommon/log"
)

const (
	OutcomeProcessed        = "processed"
	OutcomeAlreadyProcessed = "already_processed"
	OutcomeIgnored          = "ignored"
	OutcomeNotFound         = "not_found"
)

type WebhookService interface {
	// HandleWebhook answers every recognized delivery with a result; only
	// authentication, malformed payloads and internal failures are errors.
	HandleWebhook(ctx context.Context, token string, body []byte) (*dto.WebhookResponse, error)
}

type webhookServiceImpl struct {
	secret           string
	orderRepo        repository.OrderRepository
	giftRepo         repository.GiftRepository
	webhookEventRepo repository.WebhookEventRepository
	confirmer        PaymentConfirmer
	audit            audit.Recorder
	logger           *log.Logger
}

func NewWebhookService(
	secret string,
	orderRepo repository.OrderRepository,
	giftRepo repository.GiftRepository,
	webhookEventRepo repository.WebhookEventRepository,
	confirmer PaymentConfirmer,
	recorder audit.Recorder,
	logger *log.Logger,
) WebhookService {
	return &webhookServiceImpl{
		secret:           secret,
		orderRepo:        orderRepo,
		giftRepo:         giftRepo,
		webhookEventRepo: webhookEventRepo,
		confirmer:        confirmer,
		audit:            recorder,
		logger:           logger,
	}
}

func (s *webhookServiceImpl) verify(token string) bool {
	if s.secret == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.secret)) == 1
}

func result(outcome, message string) *dto.WebhookResponse {
	return &dto.WebhookResponse{Received: true, Outcome: outcome, Message: message}
}

func (s *webhookServiceImpl) HandleWebhook(ctx context.Context, token string, body []byte) (*dto.WebhookResponse, error) {
	if !s.verify(token) {
		s.audit.Record(ctx, audit.Warning("webhook.unauthorized", nil))
		return nil, fmt.Errorf("%w: invalid webhook token", apperr.ErrUnauthorized)
	}

	var event model.GatewayWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, apperr.Validation("decode webhook payload: %v", err)
	}

	resp, err := s.dispatch(ctx, &event)
	if err != nil {
		s.audit.Record(ctx, audit.Error("webhook.failed", err, map[string]any{
			"event":      event.Event,
			"payment_id": event.Payment.ID,
		}))
		s.recordDelivery(ctx, &event, "error")
		return nil, err
	}

	s.recordDelivery(ctx, &event, resp.Outcome)
	return resp, nil
}

func (s *webhookServiceImpl) dispatch(ctx context.Context, event *model.GatewayWebhookEvent) (*dto.WebhookResponse, error) {
	if !event.Settles() {
		s.audit.Record(ctx, audit.Info("webhook.ignored", map[string]any{
			"event":      event.Event,
			"payment_id": event.Payment.ID,
		}))
		return result(OutcomeIgnored, "event type not handled"), nil
	}
	if event.Payment.ID == "" {
		return result(OutcomeIgnored, "missing payment id"), nil
	}

	if reservationID, ok := event.GiftReservationID(); ok {
		return s.handleGiftPaid(ctx, event, reservationID)
	}
	return s.handleOrderPaid(ctx, event)
}

func (s *webhookServiceImpl) handleOrderPaid(ctx context.Context, event *model.GatewayWebhookEvent) (*dto.WebhookResponse, error) {
	order, err := s.orderRepo.FindByGatewayPaymentID(ctx, event.Payment.ID)
	if err != nil {
		return nil, fmt.Errorf("find order by payment id: %w", err)
	}
	// The gateway id write after charge creation is allowed to fail; the
	// external reference still carries our order id.
	if order == nil && event.Payment.ExternalReference != "" {
		order, err = s.orderRepo.FindByID(ctx, nil, event.Payment.ExternalReference)
		if err != nil {
			return nil, fmt.Errorf("find order by reference: %w", err)
		}
		switch {
		case order == nil:
		case order.GatewayPaymentID == nil:
			if err := s.orderRepo.AttachGatewayPaymentID(ctx, order.ID, event.Payment.ID); err != nil {
				s.logger.Warnf("webhook: attach payment %s to order %s: %v", event.Payment.ID, order.ID, err)
			}
		case *order.GatewayPaymentID != event.Payment.ID:
			// The order belongs to another charge.
			s.audit.Record(ctx, audit.Warning("webhook.payment_mismatch", map[string]any{
				"payment_id":        event.Payment.ID,
				"stored_payment_id": *order.GatewayPaymentID,
			}).ForOrder(order.ID))
			order = nil
		}
	}
	if order == nil {
		s.audit.Record(ctx, audit.Warning("webhook.order_not_found", map[string]any{
			"payment_id": event.Payment.ID,
		}))
		return result(OutcomeNotFound, "order not found, ignored"), nil
	}

	switch order.Status {
	case model.OrderPaid:
		s.audit.Record(ctx, audit.Info("webhook.already_processed", nil).ForOrder(order.ID))
		return result(OutcomeAlreadyProcessed, "order already paid"), nil
	case model.OrderCancelled:
		s.audit.Record(ctx, audit.Warning("webhook.paid_after_cancel", map[string]any{
			"payment_id": event.Payment.ID,
		}).ForOrder(order.ID).ForCustomer(order.CustomerID))
		return result(OutcomeIgnored, "order cancelled"), nil
	}

	moved, err := s.confirmer.ConfirmOrder(ctx, order, SourceWebhook)
	if err != nil {
		return nil, err
	}
	if !moved {
		return result(OutcomeAlreadyProcessed, "order already paid"), nil
	}
	return result(OutcomeProcessed, "order paid"), nil
}

func (s *webhookServiceImpl) handleGiftPaid(ctx context.Context, event *model.GatewayWebhookEvent, reservationID string) (*dto.WebhookResponse, error) {
	reservation, err := s.giftRepo.FindReservation(ctx, reservationID)
	if err != nil {
		return nil, fmt.Errorf("find gift reservation: %w", err)
	}
	if reservation == nil {
		reservation, err = s.giftRepo.FindReservationByGatewayPaymentID(ctx, event.Payment.ID)
		if err != nil {
			return nil, fmt.Errorf("find gift reservation by payment id: %w", err)
		}
	}
	if reservation != nil && reservation.GatewayPaymentID != nil && *reservation.GatewayPaymentID != event.Payment.ID {
		s.audit.Record(ctx, audit.Warning("webhook.payment_mismatch", map[string]any{
			"payment_id":        event.Payment.ID,
			"stored_payment_id": *reservation.GatewayPaymentID,
			"reservation_id":    reservation.ID,
		}))
		reservation = nil
	}
	if reservation == nil {
		s.audit.Record(ctx, audit.Warning("webhook.reservation_not_found", map[string]any{
			"payment_id":     event.Payment.ID,
			"reservation_id": reservationID,
		}))
		return result(OutcomeNotFound, "gift reservation not found, ignored"), nil
	}

	switch reservation.Status {
	case model.ReservationPurchased:
		return result(OutcomeAlreadyProcessed, "gift already purchased"), nil
	case model.ReservationCancelled:
		return result(OutcomeIgnored, "gift reservation cancelled"), nil
	}

	moved, err := s.confirmer.ConfirmGift(ctx, reservation)
	if err != nil {
		return nil, err
	}
	if !moved {
		return result(OutcomeAlreadyProcessed, "gift already purchased"), nil
	}
	return result(OutcomeProcessed, "gift purchased"), nil
}

func (s *webhookServiceImpl) recordDelivery(ctx context.Context, event *model.GatewayWebhookEvent, outcome string) {
	if err := s.webhookEventRepo.Record(ctx, event, outcome); err != nil {
		s.logger.Warnf("webhook: record delivery %s: %v", event.Payment.ID, err)
	}
}
