// Package llm holds the text-generation backends the slide pipeline can run
// against. Every backend implements the same minimal contract; selection is
// a configuration concern.
package llm

import (
	"context"
	"fmt"
	"net/http"

	"slidegen/internal/domain"
)

// Request carries one generation call. Model may be empty, in which case the
// client's configured default applies.
type Request struct {
	Model       string
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
	ForceJSON   bool
}

// Client is the contract the executor depends on. Complete returns the raw
// model text; content cleanup happens downstream.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
	Name() string
}

// statusError maps an HTTP status from a backend onto the domain error
// taxonomy. Quota classes must never be retried; auth classes are treated as
// configuration faults.
func statusError(provider string, code int) error {
	switch code {
	case http.StatusTooManyRequests, http.StatusPaymentRequired:
		return fmt.Errorf("%w: %s status %d", domain.ErrQuotaExceeded, provider, code)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s status %d", domain.ErrNotConfigured, provider, code)
	default:
		return fmt.Errorf("%w: %s status %d", domain.ErrProviderFailure, provider, code)
	}
}
