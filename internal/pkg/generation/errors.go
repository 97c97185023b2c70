package generation

import (
	"errors"
	"fmt"
)

// ErrInvalidRequest wraps request validation failures.
var ErrInvalidRequest = errors.New("invalid generation request")

// QuotaExceededError is returned when the account has no allowance left.
type QuotaExceededError struct {
	Limit int
	Used  int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("generation quota exceeded: used %d of %d", e.Used, e.Limit)
}

// ProviderError reports a failed or timed out completion call.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string {
	return "completion provider failed: " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// MalformedGenerationError reports provider output that does not match the exam schema.
type MalformedGenerationError struct {
	Reason string
}

func (e *MalformedGenerationError) Error() string {
	return "malformed generation: " + e.Reason
}

func malformed(format string, args ...interface{}) error {
	return &MalformedGenerationError{Reason: fmt.Sprintf(format, args...)}
}

func IsQuotaExceeded(err error) bool {
	var qe *QuotaExceededError
	return errors.As(err, &qe)
}

func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

func IsMalformed(err error) bool {
	var me *MalformedGenerationError
	return errors.As(err, &me)
}
