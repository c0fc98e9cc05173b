package model

import "strings"

// Gateway webhook envelope.
type GatewayWebhookEvent struct {
	ID      string                `json:"id"`
	Event   string                `json:"event"`
	Payment GatewayWebhookPayment `json:"payment"`
}

type GatewayWebhookPayment struct {
	ID                string  `json:"id"`
	Customer          string  `json:"customer"`
	Status            string  `json:"status"`
	BillingType       string  `json:"billingType"`
	Value             float64 `json:"value"`
	ExternalReference string  `json:"externalReference"`
}

const (
	EventPaymentConfirmed = "PAYMENT_CONFIRMED"
	EventPaymentReceived  = "PAYMENT_RECEIVED"
)

// Settles reports whether the event confirms a payment.
func (e GatewayWebhookEvent) Settles() bool {
	switch strings.ToUpper(strings.TrimSpace(e.Event)) {
	case EventPaymentConfirmed, EventPaymentReceived:
		return true
	}
	return false
}

const GiftReferencePrefix = "gift:"

// GiftReservationID returns the reservation id when the reference marks a
// gift purchase.
func (e GatewayWebhookEvent) GiftReservationID() (string, bool) {
	ref := e.Payment.ExternalReference
	if !strings.HasPrefix(ref, GiftReferencePrefix) {
		return "", false
	}
	return strings.TrimPrefix(ref, GiftReferencePrefix), true
}

func GiftReference(reservationID string) string {
	return GiftReferencePrefix + reservationID
}
