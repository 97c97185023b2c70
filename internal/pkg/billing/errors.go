package billing

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownPlan is returned for checkout requests naming a plan that is not sold.
	ErrUnknownPlan = errors.New("unknown plan")
	// ErrPaymentNotFound is returned when a notification references a payment
	// no local transaction was recorded for.
	ErrPaymentNotFound = errors.New("payment not found")
	// ErrWebhookForbidden is returned when a notification cannot be attributed
	// to the payment processor.
	ErrWebhookForbidden = &AuthError{Reason: "webhook authentication failed"}
)

// GatewayError reports a failed call to the payment processor. Checkout is
// aborted and never retried.
type GatewayError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("payment gateway %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("payment gateway %s failed: status=%d body=%s", e.Op, e.StatusCode, e.Body)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// ValidationError reports a malformed or unsupported notification payload.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid payment event: " + e.Reason
	}
	return fmt.Sprintf("invalid payment event: %s %s", e.Field, e.Reason)
}

// AuthError reports a request rejected before any side effect because its
// origin could not be verified.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return e.Reason
}

// IsGatewayError checks if an error is a payment gateway failure
func IsGatewayError(err error) bool {
	var ge *GatewayError
	return errors.As(err, &ge)
}

// IsValidationError checks if an error is a payload validation failure
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsAuthError checks if an error is an authentication failure
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}
