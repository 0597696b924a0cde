package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrPayloadTooLarge = errors.New("payload too large")
	ErrQuotaExceeded   = errors.New("quota exceeded")
	ErrProviderFailure = errors.New("provider failure")
	ErrNotConfigured   = errors.New("provider not configured")
	ErrRetryExhausted  = errors.New("retry budget exhausted")
	ErrQueueStopped    = errors.New("queue stopped")
)
