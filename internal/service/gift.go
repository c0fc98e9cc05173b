package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/apperr"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/audit"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/client"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/dto"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/model"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/repository"
	"github.com/labstack/gommon/log"
	"github.com/shopspring/decimal"
)

type GiftService interface {
	Checkout(ctx context.Context, giftID string, req *dto.GiftCheckoutRequest) (*dto.GiftCheckoutResponse, error)
}

type giftServiceImpl struct {
	giftRepo   repository.GiftRepository
	pixGateway client.PixGateway
	audit      audit.Recorder
	logger     *log.Logger
}

func NewGiftService(
	giftRepo repository.GiftRepository,
	pixGateway client.PixGateway,
	recorder audit.Recorder,
	logger *log.Logger,
) GiftService {
	return &giftServiceImpl{
		giftRepo:   giftRepo,
		pixGateway: pixGateway,
		audit:      recorder,
		logger:     logger,
	}
}

func (s *giftServiceImpl) Checkout(ctx context.Context, giftID string, req *dto.GiftCheckoutRequest) (*dto.GiftCheckoutResponse, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperr.Validation("name is required")
	}
	if err := validateEmail(req.Email); err != nil {
		return nil, err
	}
	taxID, err := NormalizeTaxID(req.CPF)
	if err != nil {
		return nil, err
	}
	if req.Quantity <= 0 {
		return nil, apperr.Validation("quantity must be positive")
	}

	gift, err := s.giftRepo.FindGift(ctx, giftID)
	if err != nil {
		return nil, fmt.Errorf("get gift: %w", err)
	}
	if gift == nil {
		return nil, fmt.Errorf("%w: gift %s", apperr.ErrNotFound, giftID)
	}
	if remaining := gift.Remaining(); req.Quantity > remaining {
		return nil, apperr.Validation("only %d of %q left", remaining, gift.Name)
	}

	reservation := &model.GiftReservation{
		ID:         uuid.NewString(),
		GiftID:     gift.ID,
		GuestName:  strings.TrimSpace(req.Name),
		GuestEmail: NormalizeEmail(req.Email),
		Quantity:   req.Quantity,
		Total:      gift.Price.Mul(decimal.NewFromInt(int64(req.Quantity))).Round(2),
		Status:     model.ReservationPending,
	}
	if err := s.giftRepo.CreateReservation(ctx, reservation); err != nil {
		return nil, fmt.Errorf("store gift reservation: %w", err)
	}

	pix, err := s.pixGateway.CreatePixCharge(ctx, client.ChargeRequest{
		Customer: client.GatewayCustomer{
			Name:  reservation.GuestName,
			Email: reservation.GuestEmail,
			TaxID: taxID,
			Phone: strings.TrimSpace(req.Phone),
		},
		Value:             reservation.Total,
		Description:       fmt.Sprintf("Presente: %s", gift.Name),
		ExternalReference: model.GiftReference(reservation.ID),
	})
	if err != nil {
		if pix != nil && pix.GatewayPaymentID != "" {
			if aerr := s.giftRepo.AttachGatewayPaymentID(context.WithoutCancel(ctx), reservation.ID, pix.GatewayPaymentID); aerr != nil {
				s.logger.Warnf("gift checkout: attach payment %s to reservation %s: %v", pix.GatewayPaymentID, reservation.ID, aerr)
			}
		}
		if cerr := s.giftRepo.Cancel(context.WithoutCancel(ctx), reservation.ID); cerr != nil {
			s.logger.Errorf("gift checkout: cancel reservation %s: %v", reservation.ID, cerr)
		}
		s.audit.Record(ctx, audit.Error("gift.charge_failed", err, map[string]any{
			"reservation_id": reservation.ID,
			"gift_id":        gift.ID,
		}))
		return nil, err
	}

	if err := s.giftRepo.AttachGatewayPaymentID(ctx, reservation.ID, pix.GatewayPaymentID); err != nil {
		s.logger.Warnf("gift checkout: attach payment %s to reservation %s: %v", pix.GatewayPaymentID, reservation.ID, err)
	}

	s.audit.Record(ctx, audit.Info("gift.reserved", map[string]any{
		"reservation_id":     reservation.ID,
		"gift_id":            gift.ID,
		"quantity":           reservation.Quantity,
		"gateway_payment_id": pix.GatewayPaymentID,
	}))

	return &dto.GiftCheckoutResponse{
		ReservationID:    reservation.ID,
		GiftID:           gift.ID,
		Quantity:         reservation.Quantity,
		Total:            reservation.Total.StringFixed(2),
		Status:           string(reservation.Status),
		GatewayPaymentID: pix.GatewayPaymentID,
		Pix: &dto.PixPayload{
			QRCode:      pix.QRPayload,
			QRCodeImage: pix.QRImage,
			ExpiresAt:   pix.ExpiresAt,
		},
	}, nil
}
