package model

import "strings"

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPaid      OrderStatus = "paid"
	OrderCancelled OrderStatus = "cancelled"
)

var validNext = map[OrderStatus]map[OrderStatus]bool{
	OrderPending:   {OrderPaid: true, OrderCancelled: true},
	OrderPaid:      {},
	OrderCancelled: {},
}

func CanTransition(from, to OrderStatus) bool {
	return validNext[from][to]
}

func (s OrderStatus) Terminal() bool {
	return s == OrderPaid || s == OrderCancelled
}

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationPurchased ReservationStatus = "purchased"
	ReservationCancelled ReservationStatus = "cancelled"
)

type PaymentMethod string

const (
	PaymentPix        PaymentMethod = "PIX"
	PaymentCreditCard PaymentMethod = "CREDIT_CARD"
)

func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch PaymentMethod(strings.ToUpper(strings.TrimSpace(s))) {
	case PaymentPix:
		return PaymentPix, true
	case PaymentCreditCard:
		return PaymentCreditCard, true
	}
	return "", false
}
