package marketplace

import "github.com/shopspring/decimal"

// PaymentStatus is the server-owned state of a payment session. The client
// performs no transitions of its own; it only polls until the status is no
// longer pending.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// Terminal reports whether polling should stop at this status.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed
}

// CreateBookingRequest is the payload for POST /client/bookings.
type CreateBookingRequest struct {
	ServiceID       string `json:"serviceId"`
	EventDate       string `json:"eventDate"`
	Location        string `json:"location"`
	Attendees       string `json:"attendees,omitempty"`
	SpecialRequests string `json:"specialRequests,omitempty"`
}

// Booking is the slice of the server's booking record the checkout flow
// needs to proceed to payment.
type Booking struct {
	ID     string `json:"id"`
	Vendor struct {
		ID string `json:"id"`
	} `json:"vendor"`
}

// InitiatePaymentRequest is the payload for POST /client/payment/initiate.
type InitiatePaymentRequest struct {
	BookingID string          `json:"bookingId"`
	VendorID  string          `json:"vendorId"`
	UserID    string          `json:"userId"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	ReturnURL string          `json:"returnUrl"`
}

// PaymentInitiation carries the gateway redirect target plus the reference
// pair the confirmation flow will poll with.
type PaymentInitiation struct {
	CheckoutURL string `json:"checkoutUrl"`
	TxRef       string `json:"tx_ref"`
	PaymentID   string `json:"paymentId"`
}

// PaymentStatusResult is the response of POST /client/payment/verify.
type PaymentStatusResult struct {
	Status PaymentStatus    `json:"status"`
	Amount *decimal.Decimal `json:"amount,omitempty"`
}
