// Package notify delivers the side effects of a confirmed payment (receipt
// e-mail, analytics) as events. Delivery is best effort: the payment is the
// source of truth and a lost notification never rolls it back.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
	"github.com/segmentio/kafka-go"
)

const (
	EventOrderPaid     = "OrderPaid"
	EventGiftPurchased = "GiftPurchased"

	producerName = "checkout-api"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order or reservation id
	Payload       json.RawMessage `json:"payload"`
}

type OrderPaidPayload struct {
	OrderID    string   `json:"order_id"`
	CustomerID string   `json:"customer_id"`
	ProductIDs []string `json:"product_ids"`
	Total      string   `json:"total"`
	Source     string   `json:"source"` // webhook | card_confirmed
}

type GiftPurchasedPayload struct {
	ReservationID string `json:"reservation_id"`
	GiftID        string `json:"gift_id"`
	GuestName     string `json:"guest_name"`
	GuestEmail    string `json:"guest_email"`
	Quantity      int    `json:"quantity"`
	Total         string `json:"total"`
}

func NewEnvelope(eventType, correlationID string, payload any) (Envelope, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producerName,
		CorrelationID: correlationID,
		Payload:       b,
	}, nil
}

type Notifier interface {
	Notify(ctx context.Context, env Envelope) error
}

// Publisher is satisfied by client.KafkaProducer.
type Publisher interface {
	Publish(ctx context.Context, key, value []byte, headers ...kafka.Header) error
}

type KafkaNotifier struct {
	producer Publisher
}

func NewKafkaNotifier(producer Publisher) *KafkaNotifier {
	return &KafkaNotifier{producer: producer}
}

func (n *KafkaNotifier) Notify(ctx context.Context, env Envelope) error {
	b, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	return n.producer.Publish(ctx, []byte(env.CorrelationID), b,
		kafka.Header{Key: "x-event-type", Value: []byte(env.EventType)},
		kafka.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

// LogNotifier is used when no broker is configured.
type LogNotifier struct {
	logger *log.Logger
}

func NewLogNotifier(logger *log.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, env Envelope) error {
	n.logger.Infoj(log.JSON{
		"notification":   env.EventType,
		"event_id":       env.EventID,
		"correlation_id": env.CorrelationID,
		"payload":        string(env.Payload),
	})
	return nil
}
