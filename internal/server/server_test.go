package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/higortorres2001-commits/site-casamento-sub001/internal/apperr"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/dto"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/handler"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/server"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCheckout struct {
	err    error
	gotReq *dto.CheckoutRequest
	gotIP  string
}

func (s *stubCheckout) Checkout(_ context.Context, req *dto.CheckoutRequest, remoteIP string) (*dto.CheckoutResponse, error) {
	s.gotReq, s.gotIP = req, remoteIP
	if s.err != nil {
		return nil, s.err
	}
	return &dto.CheckoutResponse{OrderID: "o1", Status: "pending", Total: "150.00", Pix: &dto.PixPayload{QRCode: "000201"}}, nil
}

type stubGift struct{ giftID string }

func (s *stubGift) Checkout(_ context.Context, giftID string, req *dto.GiftCheckoutRequest) (*dto.GiftCheckoutResponse, error) {
	s.giftID = giftID
	return &dto.GiftCheckoutResponse{ReservationID: "r1", GiftID: giftID, Quantity: req.Quantity}, nil
}

type stubWebhook struct {
	token string
	body  string
	err   error
}

func (s *stubWebhook) HandleWebhook(_ context.Context, token string, body []byte) (*dto.WebhookResponse, error) {
	s.token, s.body = token, string(body)
	if s.err != nil {
		return nil, s.err
	}
	return &dto.WebhookResponse{Received: true, Outcome: "already_processed"}, nil
}

type stubOrders struct{}

func (stubOrders) GetStatus(_ context.Context, id string) (*dto.OrderStatusResponse, error) {
	if id != "o1" {
		return nil, fmt.Errorf("%w: order %s", apperr.ErrNotFound, id)
	}
	return &dto.OrderStatusResponse{OrderID: id, Status: "paid", Paid: true}, nil
}

type stubUsers struct{}

func (stubUsers) GetAccess(_ context.Context, id string) (*dto.AccessResponse, error) {
	return &dto.AccessResponse{CustomerID: id, Access: []string{"site"}}, nil
}

type fixture struct {
	srv      *server.Server
	checkout *stubCheckout
	gift     *stubGift
	webhook  *stubWebhook
}

func newFixture() *fixture {
	f := &fixture{checkout: &stubCheckout{}, gift: &stubGift{}, webhook: &stubWebhook{}}
	f.srv = server.NewServer(
		handler.NewCheckoutHandler(f.checkout, f.gift),
		handler.NewWebhookHandler(f.webhook),
		handler.NewOrderHandler(stubOrders{}),
		handler.NewUserHandler(stubUsers{}),
		server.Options{Logger: testutil.Logger()},
	)
	return f
}

func (f *fixture) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func TestHealth(t *testing.T) {
	t.Parallel()

	rec := newFixture().do(http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCheckoutRoute(t *testing.T) {
	t.Parallel()

	f := newFixture()
	rec := f.do(http.MethodPost, "/api/checkout",
		`{"name":"Ana","email":"ana@example.com","cpf":"12345678901","phone":"1199","product_ids":["site","rsvp"],"payment_method":"PIX","coupon_code":"AMOR10"}`,
		map[string]string{"X-Real-IP": "203.0.113.9"})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.CheckoutResponse
	decode(t, rec, &resp)
	assert.Equal(t, "o1", resp.OrderID)
	assert.Equal(t, "000201", resp.Pix.QRCode)

	assert.Equal(t, []string{"site", "rsvp"}, f.checkout.gotReq.ProductIDs)
	assert.Equal(t, "AMOR10", f.checkout.gotReq.CouponCode)
	assert.Equal(t, "203.0.113.9", f.checkout.gotIP)
}

func TestCheckoutErrorsMapToStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		code    int
		message string
		details string
	}{
		{"validation", apperr.Validation("email is required"), http.StatusBadRequest, "validation failed: email is required", ""},
		{"conflict", fmt.Errorf("%w: cpf already registered with another email", apperr.ErrIdentityConflict), http.StatusConflict, "identity conflict: cpf already registered with another email", ""},
		{"gateway", &apperr.GatewayError{StatusCode: 400, Payload: "card refused"}, http.StatusBadGateway, "payment gateway error", "card refused"},
		{"internal", errors.New("database is locked"), http.StatusInternalServerError, "internal server error", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.checkout.err = tt.err

			rec := f.do(http.MethodPost, "/api/checkout", `{}`, nil)
			assert.Equal(t, tt.code, rec.Code)

			var body dto.ErrorResponse
			decode(t, rec, &body)
			assert.Equal(t, tt.message, body.Error)
			assert.Equal(t, tt.details, body.Details)
		})
	}
}

func TestCheckoutMalformedBody(t *testing.T) {
	t.Parallel()

	rec := newFixture().do(http.MethodPost, "/api/checkout", `{"product_ids":`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookRoute(t *testing.T) {
	t.Parallel()

	f := newFixture()
	payload := `{"event":"PAYMENT_CONFIRMED","payment":{"id":"pay_1"}}`
	rec := f.do(http.MethodPost, "/api/webhooks/payment", payload, map[string]string{handler.TokenHeader: "s3cret"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "s3cret", f.webhook.token)
	assert.JSONEq(t, payload, f.webhook.body)

	var resp dto.WebhookResponse
	decode(t, rec, &resp)
	assert.True(t, resp.Received)
	assert.Equal(t, "already_processed", resp.Outcome)
}

func TestWebhookStatusCodes(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.webhook.err = fmt.Errorf("%w: invalid webhook token", apperr.ErrUnauthorized)
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodPost, "/api/webhooks/payment", `{}`, nil).Code)

	f.webhook.err = errors.New("deadlock detected")
	assert.Equal(t, http.StatusInternalServerError, f.do(http.MethodPost, "/api/webhooks/payment", `{}`, nil).Code)
}

func TestReadRoutes(t *testing.T) {
	t.Parallel()

	f := newFixture()

	rec := f.do(http.MethodGet, "/api/orders/o1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status dto.OrderStatusResponse
	decode(t, rec, &status)
	assert.True(t, status.Paid)

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/orders/nope", "", nil).Code)

	rec = f.do(http.MethodGet, "/api/customers/c1/access", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var access dto.AccessResponse
	decode(t, rec, &access)
	assert.Equal(t, []string{"site"}, access.Access)

	rec = f.do(http.MethodPost, "/api/gifts/panelas/checkout", `{"name":"Tia","quantity":2}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "panelas", f.gift.giftID)
}
