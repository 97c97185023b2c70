package billing

import "time"

// CustomerInput describes a customer to provision at the processor.
type CustomerInput struct {
	Name              string `json:"name"`
	Email             string `json:"email"`
	ExternalReference string `json:"externalReference,omitempty"`
}

// Customer is the processor-side customer record.
type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// PaymentInput describes a one-off charge.
type PaymentInput struct {
	CustomerID        string  `json:"customer"`
	BillingType       string  `json:"billingType"`
	Value             float64 `json:"value"`
	DueDate           string  `json:"dueDate"`
	Description       string  `json:"description"`
	ExternalReference string  `json:"externalReference"`
}

// Payment is the processor-side payment record.
type Payment struct {
	ID                string  `json:"id"`
	Status            string  `json:"status"`
	InvoiceURL        string  `json:"invoiceUrl"`
	Value             float64 `json:"value"`
	ExternalReference string  `json:"externalReference"`
}

// PixQRCode is the scannable PIX payload of a payment.
type PixQRCode struct {
	EncodedImage   string `json:"encodedImage"`
	Payload        string `json:"payload"`
	ExpirationDate string `json:"expirationDate"`
}

// CheckoutResult is returned to the client that started a checkout.
type CheckoutResult struct {
	PaymentID  string  `json:"paymentId"`
	PaymentURL string  `json:"paymentUrl"`
	QRCode     string  `json:"qrCode,omitempty"`
	Status     string  `json:"status"`
	Plan       string  `json:"plan"`
	Amount     float64 `json:"amount"`
}

// PaymentPayload is the payment object carried by a notification.
type PaymentPayload struct {
	ID                string  `json:"id"`
	Status            string  `json:"status"`
	Customer          string  `json:"customer"`
	Value             float64 `json:"value"`
	DueDate           string  `json:"dueDate"`
	Description       string  `json:"description,omitempty"`
	ExternalReference string  `json:"externalReference,omitempty"`
}

// PaymentEvent is a parsed payment notification.
type PaymentEvent struct {
	ID      string         `json:"id,omitempty"`
	Event   string         `json:"event"`
	Payment PaymentPayload `json:"payment"`

	Raw []byte `json:"-"`
}

// EventClass groups notification types by the effect they have.
type EventClass string

const (
	EventConfirmed EventClass = "confirmed"
	EventOverdue   EventClass = "overdue"
	EventStatus    EventClass = "status"
)

// ApplyResult summarises what a notification changed.
type ApplyResult struct {
	EventKey          string
	Class             EventClass
	Duplicate         bool
	AccountID         uint
	TransactionStatus string
	// Activated is true only for the delivery that opened or extended the window.
	Activated       bool
	SubscriptionEnd *time.Time
}

// OverdueNotice is handed to the OverdueNotifier after an overdue payment was recorded.
type OverdueNotice struct {
	AccountID   uint
	Name        string
	Email       string
	PaymentID   string
	Plan        string
	AmountCents int64
	DueDate     string
}
