package dto

type CreditCard struct {
	HolderName  string `json:"holder_name"`
	Number      string `json:"number"`
	ExpiryMonth string `json:"expiry_month"`
	ExpiryYear  string `json:"expiry_year"`
	CVV         string `json:"ccv"`
}

type CreditCardHolderInfo struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	CPF           string `json:"cpf"`
	PostalCode    string `json:"postal_code"`
	AddressNumber string `json:"address_number"`
	Phone         string `json:"phone"`
}

type CheckoutRequest struct {
	Name             string                `json:"name"`
	Email            string                `json:"email"`
	CPF              string                `json:"cpf"`
	Phone            string                `json:"phone"`
	ProductIDs       []string              `json:"product_ids"`
	PaymentMethod    string                `json:"payment_method"`
	CouponCode       string                `json:"coupon_code,omitempty"`
	CreditCard       *CreditCard           `json:"credit_card,omitempty"`
	CardHolderInfo   *CreditCardHolderInfo `json:"credit_card_holder_info,omitempty"`
	InstallmentCount int                   `json:"installment_count,omitempty"`
	Metadata         map[string]any        `json:"metadata,omitempty"`
}

type PixPayload struct {
	QRCode      string `json:"qr_code"`
	QRCodeImage string `json:"qr_code_image"`
	ExpiresAt   string `json:"expires_at,omitempty"`
}

type CardPayload struct {
	Status    string         `json:"status"`
	Confirmed bool           `json:"confirmed"`
	Charge    map[string]any `json:"charge,omitempty"`
}

type CheckoutResponse struct {
	OrderID            string       `json:"order_id"`
	CustomerID         string       `json:"customer_id"`
	IsExistingCustomer bool         `json:"is_existing_customer"`
	Status             string       `json:"status"`
	Total              string       `json:"total"`
	PaymentMethod      string       `json:"payment_method"`
	GatewayPaymentID   string       `json:"gateway_payment_id"`
	Pix                *PixPayload  `json:"pix,omitempty"`
	CreditCard         *CardPayload `json:"credit_card,omitempty"`
}

type GiftCheckoutRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	CPF      string `json:"cpf"`
	Phone    string `json:"phone"`
	Quantity int    `json:"quantity"`
}

type GiftCheckoutResponse struct {
	ReservationID    string      `json:"reservation_id"`
	GiftID           string      `json:"gift_id"`
	Quantity         int         `json:"quantity"`
	Total            string      `json:"total"`
	Status           string      `json:"status"`
	GatewayPaymentID string      `json:"gateway_payment_id"`
	Pix              *PixPayload `json:"pix"`
}

type WebhookResponse struct {
	Received bool   `json:"received"`
	Outcome  string `json:"outcome"`
	Message  string `json:"message,omitempty"`
}

type OrderStatusResponse struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
	Paid    bool   `json:"paid"`
}

type AccessResponse struct {
	CustomerID string   `json:"customer_id"`
	Access     []string `json:"access"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
