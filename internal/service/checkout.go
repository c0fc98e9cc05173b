package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/apperr"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/audit"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/client"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/dto"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/model"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/repository"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/retry"
	"github.com/labstack/gommon/log"
	"gorm.io/datatypes"
)

const maxInstallments = 12

type CheckoutService interface {
	Checkout(ctx context.Context, req *dto.CheckoutRequest, remoteIP string) (*dto.CheckoutResponse, error)
}

type checkoutServiceImpl struct {
	pricing     PricingService
	coupons     CouponService
	customers   CustomerResolver
	orderRepo   repository.OrderRepository
	pixGateway  client.PixGateway
	cardGateway client.CardGateway
	confirmer   PaymentConfirmer
	confirmPol  retry.Policy
	audit       audit.Recorder
	logger      *log.Logger
}

type CheckoutOption func(*checkoutServiceImpl)

// WithConfirmRetry sets how often a confirmed card charge is finalized before
// giving up.
func WithConfirmRetry(p retry.Policy) CheckoutOption {
	return func(s *checkoutServiceImpl) { s.confirmPol = p }
}

func NewCheckoutService(
	pricing PricingService,
	coupons CouponService,
	customers CustomerResolver,
	orderRepo repository.OrderRepository,
	pixGateway client.PixGateway,
	cardGateway client.CardGateway,
	confirmer PaymentConfirmer,
	recorder audit.Recorder,
	logger *log.Logger,
	opts ...CheckoutOption,
) CheckoutService {
	s := &checkoutServiceImpl{
		pricing:     pricing,
		coupons:     coupons,
		customers:   customers,
		orderRepo:   orderRepo,
		pixGateway:  pixGateway,
		cardGateway: cardGateway,
		confirmer:   confirmer,
		confirmPol:  retry.DefaultPolicy(),
		audit:       recorder,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func validateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return apperr.Validation("email is required")
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(email)); err != nil {
		return apperr.Validation("email is invalid")
	}
	return nil
}

func validateCheckout(req *dto.CheckoutRequest) (model.PaymentMethod, error) {
	if strings.TrimSpace(req.Name) == "" {
		return "", apperr.Validation("name is required")
	}
	if err := validateEmail(req.Email); err != nil {
		return "", err
	}
	if _, err := NormalizeTaxID(req.CPF); err != nil {
		return "", err
	}
	if strings.TrimSpace(req.Phone) == "" {
		return "", apperr.Validation("phone is required")
	}
	if len(dedupIDs(req.ProductIDs)) == 0 {
		return "", apperr.Validation("product_ids must not be empty")
	}

	method, ok := model.ParsePaymentMethod(req.PaymentMethod)
	if !ok {
		return "", apperr.Validation("payment_method must be PIX or CREDIT_CARD")
	}
	if method != model.PaymentCreditCard {
		return method, nil
	}

	card := req.CreditCard
	if card == nil || card.HolderName == "" || card.Number == "" ||
		card.ExpiryMonth == "" || card.ExpiryYear == "" || card.CVV == "" {
		return "", apperr.Validation("credit_card data is incomplete")
	}
	holder := req.CardHolderInfo
	if holder == nil || holder.Name == "" || holder.Email == "" || holder.CPF == "" ||
		holder.PostalCode == "" || holder.AddressNumber == "" || holder.Phone == "" {
		return "", apperr.Validation("credit_card_holder_info is incomplete")
	}
	if req.InstallmentCount < 0 || req.InstallmentCount > maxInstallments {
		return "", apperr.Validation("installment_count must be between 1 and %d", maxInstallments)
	}
	return method, nil
}

func (s *checkoutServiceImpl) Checkout(ctx context.Context, req *dto.CheckoutRequest, remoteIP string) (*dto.CheckoutResponse, error) {
	method, err := validateCheckout(req)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Info("checkout.started", map[string]any{
		"email":          NormalizeEmail(req.Email),
		"payment_method": string(method),
		"product_ids":    req.ProductIDs,
	}))

	priced, err := s.pricing.Validate(ctx, req.ProductIDs)
	if err != nil {
		s.audit.Record(ctx, audit.Warning("checkout.pricing_failed", map[string]any{"error": err.Error()}))
		return nil, err
	}

	total, coupon, err := s.coupons.Apply(ctx, req.CouponCode, priced.Total)
	if err != nil {
		s.audit.Record(ctx, audit.Warning("checkout.coupon_rejected", map[string]any{"error": err.Error()}))
		return nil, err
	}

	customer, err := s.customers.Resolve(ctx, CustomerIdentity{
		Name:   req.Name,
		Email:  req.Email,
		TaxID:  req.CPF,
		Phone:  req.Phone,
		Source: "checkout",
	})
	if err != nil {
		return nil, err
	}

	order := &model.Order{
		ID:            uuid.NewString(),
		CustomerID:    customer.ID,
		ProductIDs:    priced.ProductIDs,
		Total:         total,
		Status:        model.OrderPending,
		PaymentMethod: method,
		Tracking:      datatypes.JSONMap(req.Metadata),
	}
	if coupon != nil {
		order.CouponCode = coupon.Code
	}
	if err := s.orderRepo.Create(ctx, nil, order); err != nil {
		return nil, fmt.Errorf("store order in db: %w", err)
	}

	auditData := map[string]any{
		"subtotal":    priced.Total.StringFixed(2),
		"total":       total.StringFixed(2),
		"product_ids": priced.ProductIDs,
	}
	if coupon != nil {
		auditData["coupon"] = coupon.Code
	}
	s.audit.Record(ctx, audit.Info("order.created", auditData).ForOrder(order.ID).ForCustomer(customer.ID))

	resp := &dto.CheckoutResponse{
		OrderID:            order.ID,
		CustomerID:         customer.ID,
		IsExistingCustomer: customer.IsExisting,
		Status:             string(model.OrderPending),
		Total:              total.StringFixed(2),
		PaymentMethod:      string(method),
	}

	charge := client.ChargeRequest{
		Customer: client.GatewayCustomer{
			Name:  strings.TrimSpace(req.Name),
			Email: NormalizeEmail(req.Email),
			TaxID: mustTaxID(req.CPF),
			Phone: strings.TrimSpace(req.Phone),
		},
		Value:             total,
		Description:       fmt.Sprintf("Pedido %s", order.ID),
		ExternalReference: order.ID,
	}

	switch method {
	case model.PaymentPix:
		pix, err := s.pixGateway.CreatePixCharge(ctx, charge)
		if err != nil {
			if pix != nil && pix.GatewayPaymentID != "" {
				s.attach(context.WithoutCancel(ctx), order, pix.GatewayPaymentID)
			}
			s.cancel(ctx, order, err)
			return nil, err
		}
		s.attach(ctx, order, pix.GatewayPaymentID)
		resp.GatewayPaymentID = pix.GatewayPaymentID
		resp.Pix = &dto.PixPayload{
			QRCode:      pix.QRPayload,
			QRCodeImage: pix.QRImage,
			ExpiresAt:   pix.ExpiresAt,
		}

	case model.PaymentCreditCard:
		installments := req.InstallmentCount
		if installments == 0 {
			installments = 1
		}
		card, err := s.cardGateway.ChargeCard(ctx, client.CardChargeRequest{
			ChargeRequest: charge,
			Card: client.CardDetails{
				HolderName:  req.CreditCard.HolderName,
				Number:      req.CreditCard.Number,
				ExpiryMonth: req.CreditCard.ExpiryMonth,
				ExpiryYear:  req.CreditCard.ExpiryYear,
				CVV:         req.CreditCard.CVV,
			},
			Holder: client.CardHolderInfo{
				Name:          req.CardHolderInfo.Name,
				Email:         req.CardHolderInfo.Email,
				TaxID:         req.CardHolderInfo.CPF,
				PostalCode:    req.CardHolderInfo.PostalCode,
				AddressNumber: req.CardHolderInfo.AddressNumber,
				Phone:         req.CardHolderInfo.Phone,
			},
			Installments: installments,
			RemoteIP:     remoteIP,
		})
		if err != nil {
			s.cancel(ctx, order, err)
			return nil, err
		}
		s.attach(ctx, order, card.GatewayPaymentID)
		resp.GatewayPaymentID = card.GatewayPaymentID
		resp.CreditCard = &dto.CardPayload{
			Status:    card.Status,
			Confirmed: card.Confirmed,
			Charge:    card.Raw,
		}

		if card.Confirmed && s.confirmCard(ctx, order) {
			resp.Status = string(model.OrderPaid)
		}
	}

	s.audit.Record(ctx, audit.Info("checkout.charge_created", map[string]any{
		"gateway_payment_id": resp.GatewayPaymentID,
		"payment_method":     string(method),
	}).ForOrder(order.ID).ForCustomer(customer.ID))

	return resp, nil
}

func mustTaxID(raw string) string {
	id, _ := NormalizeTaxID(raw)
	return id
}

func (s *checkoutServiceImpl) attach(ctx context.Context, order *model.Order, gatewayPaymentID string) {
	if err := s.orderRepo.AttachGatewayPaymentID(ctx, order.ID, gatewayPaymentID); err != nil {
		s.logger.Warnf("checkout: attach payment %s to order %s: %v", gatewayPaymentID, order.ID, err)
		s.audit.Record(ctx, audit.Warning("order.attach_payment_failed", map[string]any{
			"gateway_payment_id": gatewayPaymentID,
			"error":              err.Error(),
		}).ForOrder(order.ID))
		return
	}
	order.GatewayPaymentID = &gatewayPaymentID
}

// cancel marks the order cancelled after a failed charge. It runs detached
// from the request so a timed out request still releases the order.
func (s *checkoutServiceImpl) cancel(ctx context.Context, order *model.Order, cause error) {
	ctx = context.WithoutCancel(ctx)
	if _, err := s.orderRepo.Transition(ctx, nil, order.ID, model.OrderCancelled); err != nil {
		s.logger.Errorf("checkout: cancel order %s: %v", order.ID, err)
	}
	s.audit.Record(ctx, audit.Error("order.cancelled", cause, nil).ForOrder(order.ID).ForCustomer(order.CustomerID))
}

// confirmCard finalizes an order whose card charge the processor already
// accepted. Processors that never call the webhook leave no other path to
// paid, so a final failure is audited as an error for manual follow-up.
func (s *checkoutServiceImpl) confirmCard(ctx context.Context, order *model.Order) bool {
	err := retry.Do(ctx, s.confirmPol, func(ctx context.Context, attempt int) error {
		_, err := s.confirmer.ConfirmOrder(ctx, order, SourceCardConfirmed)
		if err != nil {
			s.logger.Warnf("checkout: confirm card order %s (attempt %d): %v", order.ID, attempt, err)
		}
		return err
	})
	if err == nil {
		return true
	}
	s.logger.Errorf("checkout: confirm card order %s: %v", order.ID, err)
	s.audit.Record(ctx, audit.Error("order.confirm_failed", err, map[string]any{
		"gateway_payment_id": derefString(order.GatewayPaymentID),
	}).ForOrder(order.ID).ForCustomer(order.CustomerID))
	return false
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
