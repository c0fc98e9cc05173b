package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/higortorres2001-commits/site-casamento-sub001/internal/apperr"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/config"
)

type GatewayClient interface {
	PixGateway
	CardGateway
	EnsureCustomer(ctx context.Context, customer GatewayCustomer) (string, error)
}

type asaasClientImpl struct {
	httpClient *http.Client
	baseApiURL string
	apiKey     string
	pixDueDays int
	now        func() time.Time
}

func NewGatewayClient(cfg *config.Gateway) GatewayClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &asaasClientImpl{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseApiURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		pixDueDays: cfg.PixDueDays,
		now:        time.Now,
	}
}

type gatewayPayment struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type gatewayPixQRCode struct {
	EncodedImage   string `json:"encodedImage"`
	Payload        string `json:"payload"`
	ExpirationDate string `json:"expirationDate"`
}

// doRequest sends body as JSON and decodes a 2xx answer into out. Anything
// else becomes an *apperr.GatewayError holding the processor's payload.
func (c *asaasClientImpl) doRequest(ctx context.Context, method, path string, body, out any) error {
	if c.apiKey == "" {
		return apperr.ErrGatewayNotConfigured
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal req payload: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseApiURL+path, reader)
	if err != nil {
		return fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("access_token", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "site-casamento")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &apperr.GatewayError{Payload: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &apperr.GatewayError{StatusCode: resp.StatusCode, Payload: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &apperr.GatewayError{StatusCode: resp.StatusCode, Payload: string(respBody)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode gateway response: %w", err)
	}
	return nil
}

// EnsureCustomer returns the gateway customer for the tax id, creating it
// when the gateway has none.
func (c *asaasClientImpl) EnsureCustomer(ctx context.Context, customer GatewayCustomer) (string, error) {
	var found struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	q := url.Values{"cpfCnpj": {customer.TaxID}}
	if err := c.doRequest(ctx, http.MethodGet, "/customers?"+q.Encode(), nil, &found); err != nil {
		return "", fmt.Errorf("find gateway customer: %w", err)
	}
	if len(found.Data) > 0 && found.Data[0].ID != "" {
		return found.Data[0].ID, nil
	}

	payload := map[string]any{
		"name":                 customer.Name,
		"email":                customer.Email,
		"cpfCnpj":              customer.TaxID,
		"mobilePhone":          customer.Phone,
		"notificationDisabled": true,
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := c.doRequest(ctx, http.MethodPost, "/customers", payload, &created); err != nil {
		return "", fmt.Errorf("create gateway customer: %w", err)
	}
	if created.ID == "" {
		return "", &apperr.GatewayError{Payload: "no customer id in response"}
	}
	return created.ID, nil
}

func (c *asaasClientImpl) chargePayload(customerID, billingType string, req ChargeRequest) map[string]any {
	return map[string]any{
		"customer":          customerID,
		"billingType":       billingType,
		"value":             req.Value.Round(2).InexactFloat64(),
		"dueDate":           c.now().AddDate(0, 0, c.pixDueDays).Format("2006-01-02"),
		"description":       req.Description,
		"externalReference": req.ExternalReference,
	}
}

func (c *asaasClientImpl) CreatePixCharge(ctx context.Context, req ChargeRequest) (*PixCharge, error) {
	customerID, err := c.EnsureCustomer(ctx, req.Customer)
	if err != nil {
		return nil, err
	}

	var payment gatewayPayment
	if err := c.doRequest(ctx, http.MethodPost, "/payments", c.chargePayload(customerID, "PIX", req), &payment); err != nil {
		return nil, fmt.Errorf("create pix charge: %w", err)
	}
	if payment.ID == "" {
		return nil, &apperr.GatewayError{Payload: "no payment id in response"}
	}

	var qr gatewayPixQRCode
	if err := c.doRequest(ctx, http.MethodGet, "/payments/"+url.PathEscape(payment.ID)+"/pixQrCode", nil, &qr); err != nil {
		return &PixCharge{GatewayPaymentID: payment.ID, Status: payment.Status},
			fmt.Errorf("get pix qr code for %s: %w", payment.ID, err)
	}

	return &PixCharge{
		GatewayPaymentID: payment.ID,
		Status:           payment.Status,
		QRPayload:        qr.Payload,
		QRImage:          qr.EncodedImage,
		ExpiresAt:        qr.ExpirationDate,
	}, nil
}

func (c *asaasClientImpl) ChargeCard(ctx context.Context, req CardChargeRequest) (*CardCharge, error) {
	customerID, err := c.EnsureCustomer(ctx, req.Customer)
	if err != nil {
		return nil, err
	}

	payload := c.chargePayload(customerID, "CREDIT_CARD", req.ChargeRequest)
	payload["dueDate"] = c.now().Format("2006-01-02")
	payload["creditCard"] = req.Card
	payload["creditCardHolderInfo"] = req.Holder
	payload["remoteIp"] = req.RemoteIP
	if req.Installments > 1 {
		delete(payload, "value")
		payload["installmentCount"] = req.Installments
		payload["installmentValue"] = InstallmentValue(req.Value, req.Installments).InexactFloat64()
	}

	var raw map[string]any
	if err := c.doRequest(ctx, http.MethodPost, "/payments", payload, &raw); err != nil {
		return nil, fmt.Errorf("create card charge: %w", err)
	}

	id, _ := raw["id"].(string)
	status, _ := raw["status"].(string)
	if id == "" {
		return nil, &apperr.GatewayError{Payload: "no payment id in response"}
	}

	return &CardCharge{
		GatewayPaymentID: id,
		Status:           status,
		Confirmed:        cardConfirmed(status),
		Raw:              raw,
	}, nil
}

func cardConfirmed(status string) bool {
	switch strings.ToUpper(status) {
	case "CONFIRMED", "RECEIVED":
		return true
	}
	return false
}
