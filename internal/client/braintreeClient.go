package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/braintree-go/braintree-go"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/apperr"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/config"
)

type braintreeClientImpl struct {
	gateway    *braintree.Braintree
	configured bool
}

// NewBraintreeClient initializes the Braintree SDK gateway used for card
// charges when it is configured.
func NewBraintreeClient(cfg *config.Braintree) CardGateway {
	env := braintree.Sandbox
	if cfg.Environment == "production" {
		env = braintree.Production
	}

	gateway := braintree.New(
		env,
		cfg.MerchantID,
		cfg.PublicKey,
		cfg.PrivateKey,
	)

	return newBraintreeClient(gateway, cfg.MerchantID != "" && cfg.PrivateKey != "")
}

func newBraintreeClient(gateway *braintree.Braintree, configured bool) *braintreeClientImpl {
	return &braintreeClientImpl{
		gateway:    gateway,
		configured: configured,
	}
}

func (c *braintreeClientImpl) ChargeCard(ctx context.Context, req CardChargeRequest) (*CardCharge, error) {
	if !c.configured {
		return nil, apperr.ErrGatewayNotConfigured
	}

	// Braintree expects NewDecimal(unscaled, scale): "150.00" -> NewDecimal(15000, 2)
	cents := req.Value.Round(2).Shift(2).IntPart()

	txReq := &braintree.TransactionRequest{
		Type:    "sale",
		Amount:  braintree.NewDecimal(cents, 2),
		OrderId: req.ExternalReference,
		CreditCard: &braintree.CreditCard{
			CardholderName:  req.Card.HolderName,
			Number:          req.Card.Number,
			ExpirationMonth: req.Card.ExpiryMonth,
			ExpirationYear:  req.Card.ExpiryYear,
			CVV:             req.Card.CVV,
		},
		Customer: &braintree.CustomerRequest{
			FirstName: req.Customer.Name,
			Email:     req.Customer.Email,
			Phone:     req.Customer.Phone,
		},
		Options: &braintree.TransactionOptions{
			SubmitForSettlement: true, // Captures the funds immediately
		},
	}

	tx, err := c.gateway.Transaction().Create(ctx, txReq)
	if err != nil {
		gwErr := &apperr.GatewayError{Payload: fmt.Sprintf("transaction creation failed: %v", err)}
		var apiErr braintree.APIError
		if errors.As(err, &apiErr) {
			gwErr.StatusCode = apiErr.StatusCode()
		}
		return nil, gwErr
	}

	if tx.Status == braintree.TransactionStatusProcessorDeclined || tx.Status == braintree.TransactionStatusGatewayRejected {
		return nil, &apperr.GatewayError{Payload: fmt.Sprintf("transaction declined by processor: %s", tx.ProcessorResponseText)}
	}

	return &CardCharge{
		GatewayPaymentID: tx.Id,
		Status:           string(tx.Status),
		Confirmed:        braintreeSettled(tx.Status),
		Raw: map[string]any{
			"id":     tx.Id,
			"status": string(tx.Status),
			"amount": req.Value.Round(2).String(),
		},
	}, nil
}

// braintreeSettled treats a sale submitted for settlement as paid: the funds
// are captured and Braintree sends nothing to the payment webhook, so the
// checkout confirms the order from this answer.
func braintreeSettled(status braintree.TransactionStatus) bool {
	switch status {
	case braintree.TransactionStatusSubmittedForSettlement,
		braintree.TransactionStatusSettling,
		braintree.TransactionStatusSettled:
		return true
	}
	return false
}
