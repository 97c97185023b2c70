package models

import "time"

// Billing provider constants used across billing-related models.
const (
	BillingProviderAsaas = "asaas"
)

// BillingWebhookEvent is the delivery log of verified payment notifications.
// The (provider, provider_event_id) pair is unique so redelivered copies of
// the same event are detected before any state is touched.
type BillingWebhookEvent struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	Provider          string     `gorm:"type:varchar(20);not null;index:ux_billing_webhook_events_provider_event,unique,priority:1" json:"provider"`
	ProviderEventID   string     `gorm:"type:varchar(191);not null;index:ux_billing_webhook_events_provider_event,unique,priority:2" json:"provider_event_id"`
	EventType         string     `gorm:"type:varchar(100);not null;index" json:"event_type"`
	ExternalPaymentID string     `gorm:"type:varchar(191);not null;default:'';index" json:"external_payment_id"`
	PayloadJSON       string     `gorm:"type:text;not null" json:"payload_json"`
	ProcessedAt       *time.Time `gorm:"type:timestamp;default:null" json:"processed_at,omitempty"`
	ProcessingError   string     `gorm:"type:text" json:"processing_error"`
	CreatedAt         time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
