package dto

// PaymentKeyResponse exposes the gateway's public key id to checkout widgets.
type PaymentKeyResponse struct {
	PublicKey string `json:"public_key"`
}

// CreateOrderRequest asks the gateway for a new order before the user pays.
// Amount is optional; when omitted the configured application fee applies.
type CreateOrderRequest struct {
	JobID  uint  `json:"job_id" validate:"required,gt=0"`
	Amount int64 `json:"amount" validate:"omitempty,gt=0"`
}

// OrderResponse returns the gateway order descriptor to the client.
type OrderResponse struct {
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// VerifyPaymentRequest finalizes a gateway-paid application. Field names
// mirror the provider's checkout callback payload for interop.
type VerifyPaymentRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id" validate:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	RazorpaySignature string `json:"razorpay_signature" validate:"required"`
	JobID             uint   `json:"job_id" validate:"required,gt=0"`
	CoverLetter       string `json:"cover_letter" validate:"omitempty,max=10000"`
}

// VerifyCreditPaymentRequest finalizes a credit top-up purchase. It verifies
// the same signature format but increments the candidate's balance instead of
// creating an application.
type VerifyCreditPaymentRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id" validate:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	RazorpaySignature string `json:"razorpay_signature" validate:"required"`
	Amount            int64  `json:"amount" validate:"required,gt=0"`
	Credits           int    `json:"credits" validate:"required,gt=0"`
}

// CreditBalanceResponse reports the candidate's balance after a top-up.
type CreditBalanceResponse struct {
	Credits int `json:"credits"`
}
