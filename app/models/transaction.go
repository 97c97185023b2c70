package models

import "time"

const (
	TransactionStatusPending = "pending"
)

// Transaction is one payment attempt at the payment processor. Webhook
// updates are keyed by ExternalPaymentID.
type Transaction struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	AccountID         uint       `gorm:"not null;index" json:"account_id"`
	ExternalPaymentID string     `gorm:"type:varchar(191);not null;uniqueIndex" json:"external_payment_id"`
	ExternalReference string     `gorm:"type:varchar(191);not null;default:''" json:"external_reference"`
	Plan              string     `gorm:"type:varchar(20);not null" json:"plan"`
	AmountCents       int64      `gorm:"not null" json:"amount_cents"`
	Status            string     `gorm:"type:varchar(32);not null;default:'pending';index" json:"status"`
	AppliedEventID    string     `gorm:"type:varchar(191);not null;default:''" json:"-"`
	ActivatedAt       *time.Time `gorm:"type:timestamp;default:null" json:"activated_at,omitempty"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsApplied reports whether a confirmation event already activated the
// subscription for this payment.
func (t *Transaction) IsApplied() bool {
	return t.AppliedEventID != ""
}
