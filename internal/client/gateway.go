package client

import (
	"context"

	"github.com/shopspring/decimal"
)

type GatewayCustomer struct {
	Name  string
	Email string
	TaxID string
	Phone string
}

type ChargeRequest struct {
	Customer          GatewayCustomer
	Value             decimal.Decimal
	Description       string
	ExternalReference string
}

type CardDetails struct {
	HolderName  string `json:"holderName"`
	Number      string `json:"number"`
	ExpiryMonth string `json:"expiryMonth"`
	ExpiryYear  string `json:"expiryYear"`
	CVV         string `json:"ccv"`
}

type CardHolderInfo struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	TaxID         string `json:"cpfCnpj"`
	PostalCode    string `json:"postalCode"`
	AddressNumber string `json:"addressNumber"`
	Phone         string `json:"phone"`
}

type CardChargeRequest struct {
	ChargeRequest
	Card         CardDetails
	Holder       CardHolderInfo
	Installments int
	RemoteIP     string
}

type PixCharge struct {
	GatewayPaymentID string `json:"gatewayPaymentId"`
	Status           string `json:"status"`
	QRPayload        string `json:"qrPayload"`
	QRImage          string `json:"qrImage"`
	ExpiresAt        string `json:"expiresAt,omitempty"`
}

type CardCharge struct {
	GatewayPaymentID string         `json:"gatewayPaymentId"`
	Status           string         `json:"status"`
	Confirmed        bool           `json:"confirmed"`
	Raw              map[string]any `json:"charge,omitempty"`
}

type PixGateway interface {
	// CreatePixCharge may return a charge holding only GatewayPaymentID
	// together with an error when the charge exists but its QR code could
	// not be read.
	CreatePixCharge(ctx context.Context, req ChargeRequest) (*PixCharge, error)
}

type CardGateway interface {
	ChargeCard(ctx context.Context, req CardChargeRequest) (*CardCharge, error)
}

// InstallmentValue splits total into n installments rounded to cents.
func InstallmentValue(total decimal.Decimal, n int) decimal.Decimal {
	if n <= 1 {
		return total.Round(2)
	}
	return total.Div(decimal.NewFromInt(int64(n))).Round(2)
}
