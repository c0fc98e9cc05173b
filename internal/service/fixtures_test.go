package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/higortorres2001-commits/site-casamento-sub001/internal/audit"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/client"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/dto"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/model"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/notify"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/repository"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/retry"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/service"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func fastPolicy() retry.Policy {
	return retry.Policy{
		Attempts:   3,
		Multiplier: 2,
		Sleep:      func(context.Context, time.Duration) error { return nil },
	}
}

type fakePix struct {
	mu    sync.Mutex
	calls int
	err   error
	qrErr error // charge created, QR code unreadable
	last  client.ChargeRequest
}

func (f *fakePix) CreatePixCharge(_ context.Context, req client.ChargeRequest) (*client.PixCharge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	if f.qrErr != nil {
		return &client.PixCharge{GatewayPaymentID: fmt.Sprintf("pay_pix_%d", f.calls), Status: "PENDING"}, f.qrErr
	}
	return &client.PixCharge{
		GatewayPaymentID: fmt.Sprintf("pay_pix_%d", f.calls),
		Status:           "PENDING",
		QRPayload:        "00020126580014br.gov.bcb.pix",
		QRImage:          "iVBORw0KGgo=",
	}, nil
}

type fakeCard struct {
	mu        sync.Mutex
	calls     int
	confirmed bool
	err       error
	last      client.CardChargeRequest
}

func (f *fakeCard) ChargeCard(_ context.Context, req client.CardChargeRequest) (*client.CardCharge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	status := "PENDING"
	if f.confirmed {
		status = "CONFIRMED"
	}
	return &client.CardCharge{
		GatewayPaymentID: fmt.Sprintf("pay_card_%d", f.calls),
		Status:           status,
		Confirmed:        f.confirmed,
		Raw:              map[string]any{"status": status},
	}, nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	envs []notify.Envelope
}

func (n *recordingNotifier) Notify(_ context.Context, env notify.Envelope) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.envs = append(n.envs, env)
	return nil
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.envs))
	for i, env := range n.envs {
		out[i] = env.EventType
	}
	return out
}

// flakyConfirmer fails the first failures card confirmations.
type flakyConfirmer struct {
	service.PaymentConfirmer
	mu       sync.Mutex
	failures int
	calls    int
}

func (f *flakyConfirmer) ConfirmOrder(ctx context.Context, order *model.Order, source string) (bool, error) {
	f.mu.Lock()
	f.calls++
	fail := f.calls <= f.failures
	f.mu.Unlock()
	if fail {
		return false, errors.New("database is locked")
	}
	return f.PaymentConfirmer.ConfirmOrder(ctx, order, source)
}

type harness struct {
	db        *gorm.DB
	checkout  service.CheckoutService
	webhook   service.WebhookService
	gifts     service.GiftService
	orders    service.OrderService
	users     service.UserService
	confirmer service.PaymentConfirmer
	cardConf  *flakyConfirmer
	orderRepo repository.OrderRepository
	pix       *fakePix
	card      *fakeCard
	notifier  *recordingNotifier
	audit     *audit.Memory
}

func seedCatalog(t *testing.T, db *gorm.DB) {
	t.Helper()
	products := []model.Product{
		{ID: "site", Name: "Site", Price: decimal.NewFromInt(100), Status: model.ProductActive},
		{ID: "rsvp", Name: "RSVP", Price: decimal.NewFromInt(50), Status: model.ProductActive},
		{ID: "draft", Name: "Rascunho", Price: decimal.NewFromInt(30), Status: model.ProductDraft},
		{ID: "old", Name: "Antigo", Price: decimal.NewFromInt(10), Status: model.ProductInactive},
		{
			ID: "kit", Name: "Kit", Price: decimal.NewFromInt(120), Status: model.ProductActive,
			IsBundle: true, BundleItems: datatypes.JSONSlice[string]{"site", "rsvp"},
		},
	}
	require.NoError(t, db.Create(&products).Error)

	coupons := []model.Coupon{
		{Code: "FIX10", DiscountType: model.DiscountFixed, Value: decimal.NewFromInt(10), Active: true},
		{Code: "PCT10", DiscountType: model.DiscountPercentage, Value: decimal.NewFromInt(10), Active: true},
		{Code: "OFF", DiscountType: model.DiscountFixed, Value: decimal.NewFromInt(10), Active: false},
	}
	require.NoError(t, db.Create(&coupons).Error)

	require.NoError(t, db.Create(&model.Gift{
		ID: "panelas", Name: "Jogo de panelas", Price: decimal.NewFromInt(75), QuantityWanted: 3,
	}).Error)
}

func newHarness(t *testing.T, secret string) *harness {
	t.Helper()

	db := testutil.NewDB(t)
	seedCatalog(t, db)
	logger := testutil.Logger()
	recorder := &audit.Memory{}

	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	giftRepo := repository.NewGiftRepository(db)
	profileRepo := repository.NewProfileRepository(db)

	h := &harness{
		db:        db,
		orderRepo: orderRepo,
		pix:       &fakePix{},
		card:      &fakeCard{},
		notifier:  &recordingNotifier{},
		audit:     recorder,
	}

	access := service.NewAccessService(productRepo, repository.NewAccessRepository(db), logger)
	h.confirmer = service.NewPaymentConfirmer(db, orderRepo, giftRepo, access, repository.NopStatusCache{}, h.notifier, recorder, logger)
	resolver := service.NewCustomerResolver(
		repository.NewAccountRepository(db), profileRepo, recorder, logger,
		service.WithRetryPolicy(fastPolicy()),
		service.WithHashCost(bcrypt.MinCost),
	)
	h.cardConf = &flakyConfirmer{PaymentConfirmer: h.confirmer}
	h.checkout = service.NewCheckoutService(
		service.NewPricingService(productRepo),
		service.NewCouponService(repository.NewCouponRepository(db)),
		resolver,
		orderRepo,
		h.pix,
		h.card,
		h.cardConf,
		recorder,
		logger,
		service.WithConfirmRetry(fastPolicy()),
	)
	h.webhook = service.NewWebhookService(secret, orderRepo, giftRepo, repository.NewWebhookEventRepository(db), h.confirmer, recorder, logger)
	h.gifts = service.NewGiftService(giftRepo, h.pix, recorder, logger)
	h.orders = service.NewOrderService(orderRepo, repository.NopStatusCache{})
	h.users = service.NewUserService(profileRepo)
	return h
}

func pixRequest(productIDs ...string) *dto.CheckoutRequest {
	return &dto.CheckoutRequest{
		Name:          "Ana Souza",
		Email:         "Ana@Example.com ",
		CPF:           "123.456.789-01",
		Phone:         "+55 11 99999-0000",
		ProductIDs:    productIDs,
		PaymentMethod: "PIX",
	}
}

func cardRequest(productIDs ...string) *dto.CheckoutRequest {
	req := pixRequest(productIDs...)
	req.PaymentMethod = "CREDIT_CARD"
	req.CreditCard = &dto.CreditCard{
		HolderName:  "ANA SOUZA",
		Number:      "4111111111111111",
		ExpiryMonth: "12",
		ExpiryYear:  "2030",
		CVV:         "123",
	}
	req.CardHolderInfo = &dto.CreditCardHolderInfo{
		Name:          "Ana Souza",
		Email:         "ana@example.com",
		CPF:           "12345678901",
		PostalCode:    "01310-100",
		AddressNumber: "100",
		Phone:         "11999990000",
	}
	return req
}

func webhookBody(event, paymentID, reference string) []byte {
	return []byte(fmt.Sprintf(`{"id":"evt_%s","event":%q,"payment":{"id":%q,"status":"RECEIVED","billingType":"PIX","value":150,"externalReference":%q}}`,
		paymentID, event, paymentID, reference))
}

func (h *harness) order(t *testing.T, id string) *model.Order {
	t.Helper()
	order, err := h.orderRepo.FindByID(context.Background(), nil, id)
	require.NoError(t, err)
	require.NotNil(t, order)
	return order
}

func (h *harness) access(t *testing.T, customerID string) []string {
	t.Helper()
	resp, err := h.users.GetAccess(context.Background(), customerID)
	require.NoError(t, err)
	return resp.Access
}
