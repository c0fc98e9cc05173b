package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/model"
	"gorm.io/gorm"
)

type WebhookEventRepository interface {
	Record(ctx context.Context, event *model.GatewayWebhookEvent, outcome string) error
	CountByPaymentID(ctx context.Context, paymentID string) (int64, error)
}

type webhookEventRepositoryIml struct {
	db *gorm.DB
}

func NewWebhookEventRepository(db *gorm.DB) WebhookEventRepository {
	return &webhookEventRepositoryIml{db: db}
}

func (r *webhookEventRepositoryIml) Record(ctx context.Context, event *model.GatewayWebhookEvent, outcome string) error {
	return r.db.WithContext(ctx).Create(&model.WebhookEvent{
		ID:        uuid.NewString(),
		EventID:   event.ID,
		EventType: event.Event,
		PaymentID: event.Payment.ID,
		Outcome:   outcome,
		CreatedAt: time.Now(),
	}).Error
}

func (r *webhookEventRepositoryIml) CountByPaymentID(ctx context.Context, paymentID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.WebhookEvent{}).
		Where("payment_id = ?", paymentID).
		Count(&count).Error

	return count, err
}
