package billing

import (
	"bytes"
	"encoding/json"
	"strings"
)

const paymentEventPrefix = "PAYMENT_"

// ParsePaymentEvent decodes a raw notification body.
func ParsePaymentEvent(raw []byte) (*PaymentEvent, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, &ValidationError{Reason: "empty body"}
	}
	var ev PaymentEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, &ValidationError{Reason: "body is not valid JSON"}
	}
	ev.ID = strings.TrimSpace(ev.ID)
	ev.Event = strings.ToUpper(strings.TrimSpace(ev.Event))
	ev.Payment.ID = strings.TrimSpace(ev.Payment.ID)
	ev.Payment.Status = strings.ToUpper(strings.TrimSpace(ev.Payment.Status))
	ev.Raw = raw

	if ev.Event == "" {
		return nil, &ValidationError{Field: "event", Reason: "is required"}
	}
	if ev.Payment.ID == "" {
		return nil, &ValidationError{Field: "payment.id", Reason: "is required"}
	}
	if ev.Payment.Status == "" {
		return nil, &ValidationError{Field: "payment.status", Reason: "is required"}
	}
	return &ev, nil
}

// Key identifies a delivery for deduplication: the notification id when the
// processor sends one, otherwise the event type and payment id.
func (e PaymentEvent) Key() string {
	if e.ID != "" {
		return e.ID
	}
	return e.Event + ":" + e.Payment.ID
}

// Classify maps a notification to the effect it has on local state.
func Classify(e PaymentEvent) (EventClass, error) {
	event := strings.ToUpper(strings.TrimSpace(e.Event))
	status := strings.ToUpper(strings.TrimSpace(e.Payment.Status))

	if !strings.HasPrefix(event, paymentEventPrefix) {
		return "", &ValidationError{Field: "event", Reason: "is not a payment event: " + e.Event}
	}
	switch {
	case event == "PAYMENT_CONFIRMED", event == "PAYMENT_RECEIVED", status == "RECEIVED", status == "CONFIRMED":
		return EventConfirmed, nil
	case event == "PAYMENT_OVERDUE", status == "OVERDUE":
		return EventOverdue, nil
	default:
		return EventStatus, nil
	}
}
