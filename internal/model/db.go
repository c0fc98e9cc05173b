package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type ProductStatus string

const (
	ProductDraft    ProductStatus = "draft"
	ProductActive   ProductStatus = "active"
	ProductInactive ProductStatus = "inactive"
)

type Product struct {
	ID          string                      `gorm:"primaryKey;size:64;not null"`
	Name        string                      `gorm:"size:255;not null"`
	Price       decimal.Decimal             `gorm:"type:decimal(12,2);not null"`
	Status      ProductStatus               `gorm:"size:16;index;not null"`
	IsBundle    bool                        `gorm:"not null;default:false"`
	BundleItems datatypes.JSONSlice[string] // constituent product ids when IsBundle
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (p *Product) Purchasable() bool {
	return p.Status == ProductActive
}

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

type Coupon struct {
	ID           uint            `gorm:"primaryKey"`
	Code         string          `gorm:"size:64;uniqueIndex;not null"` // stored uppercase
	DiscountType DiscountType    `gorm:"size:16;not null"`
	Value        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Active       bool            `gorm:"index;not null"`
	CreatedAt    time.Time
}

// Account is the identity-provider record. It lives apart from Profile and
// the two are never written in the same transaction.
type Account struct {
	ID           string            `gorm:"primaryKey;size:36;not null"`
	Email        string            `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string            `gorm:"size:255;not null"`
	Metadata     datatypes.JSONMap `gorm:"type:json"`
	CreatedAt    time.Time
}

type Profile struct {
	ID              string                      `gorm:"primaryKey;size:36;not null"` // same as Account.ID
	Email           string                      `gorm:"size:255;uniqueIndex;not null"`
	TaxID           string                      `gorm:"size:11;uniqueIndex;not null"` // CPF, digits only
	Name            string                      `gorm:"size:255"`
	Phone           string                      `gorm:"size:32"`
	Access          datatypes.JSONSlice[string] // product ids the customer may use
	IsAdmin         bool                        `gorm:"not null;default:false"`
	FirstAccess     bool                        `gorm:"not null;default:true"`
	PasswordChanged bool                        `gorm:"not null;default:false"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Order struct {
	ID               string                      `gorm:"primaryKey;size:36;not null"`
	CustomerID       string                      `gorm:"size:36;index;not null"`
	ProductIDs       datatypes.JSONSlice[string] `gorm:"not null"` // snapshot at creation
	Total            decimal.Decimal             `gorm:"type:decimal(12,2);not null"`
	Status           OrderStatus                 `gorm:"size:16;index;not null"`
	PaymentMethod    PaymentMethod               `gorm:"size:16;not null"`
	CouponCode       string                      `gorm:"size:64"`
	GatewayPaymentID *string                     `gorm:"size:64;uniqueIndex"`
	Tracking         datatypes.JSONMap           `gorm:"type:json"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type Gift struct {
	ID                string          `gorm:"primaryKey;size:64;not null"`
	Name              string          `gorm:"size:255;not null"`
	Price             decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	QuantityWanted    int             `gorm:"not null"`
	QuantityPurchased int             `gorm:"not null;default:0"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (g *Gift) Remaining() int {
	if r := g.QuantityWanted - g.QuantityPurchased; r > 0 {
		return r
	}
	return 0
}

type GiftReservation struct {
	ID               string            `gorm:"primaryKey;size:36;not null"`
	GiftID           string            `gorm:"size:64;index;not null"`
	GuestName        string            `gorm:"size:255;not null"`
	GuestEmail       string            `gorm:"size:255;not null"`
	Quantity         int               `gorm:"not null"`
	Total            decimal.Decimal   `gorm:"type:decimal(12,2);not null"`
	Status           ReservationStatus `gorm:"size:16;index;not null"`
	GatewayPaymentID *string           `gorm:"size:64;uniqueIndex"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// WebhookEvent is one received gateway callback, kept for diagnostics.
// Idempotency is enforced by the conditional status updates, not by this table.
type WebhookEvent struct {
	ID        string `gorm:"primaryKey;size:36;not null"`
	EventID   string `gorm:"size:128;index"`
	EventType string `gorm:"size:64;index"`
	PaymentID string `gorm:"size:64;index"`
	Outcome   string `gorm:"size:32"`
	CreatedAt time.Time
}

type AuditEvent struct {
	ID         string            `gorm:"primaryKey;size:36;not null"`
	Type       string            `gorm:"size:64;index;not null"`
	Level      string            `gorm:"size:16;not null"`
	OrderID    string            `gorm:"size:36;index"`
	CustomerID string            `gorm:"size:36;index"`
	Data       datatypes.JSONMap `gorm:"type:json"`
	CreatedAt  time.Time
}

// All lists every table for AutoMigrate.
func All() []any {
	return []any{
		&Product{},
		&Coupon{},
		&Account{},
		&Profile{},
		&Order{},
		&Gift{},
		&GiftReservation{},
		&WebhookEvent{},
		&AuditEvent{},
	}
}
