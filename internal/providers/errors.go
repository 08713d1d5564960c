package providers

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCategory defines the normalized provider failure taxonomy.
type ErrorCategory string

const (
	// ErrorTimeout indicates the provider took too long to respond.
	ErrorTimeout ErrorCategory = "timeout"

	// ErrorBadData indicates the provider returned invalid/malformed data.
	ErrorBadData ErrorCategory = "bad_data"

	// ErrorOutage indicates the provider is unavailable.
	ErrorOutage ErrorCategory = "outage"

	// ErrorNotFound indicates the provider answered authoritatively that no
	// record exists. Callers treat this as informational, not a failure.
	ErrorNotFound ErrorCategory = "not_found"

	// ErrorRateLimited indicates the provider rejected the call for volume.
	ErrorRateLimited ErrorCategory = "rate_limited"

	// ErrorInternal indicates an unexpected error.
	ErrorInternal ErrorCategory = "internal"
)

// ProviderError wraps provider failures with normalized categorization.
type ProviderError struct {
	Category   ErrorCategory
	Provider   string
	Message    string
	Underlying error
	Retryable  bool
}

func (e *ProviderError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("provider %s [%s]: %s: %v", e.Provider, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("provider %s [%s]: %s", e.Provider, e.Category, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Underlying
}

// NewError creates a normalized provider error. Timeouts, outages and rate
// limits are marked retryable.
func NewError(category ErrorCategory, provider, message string, underlying error) *ProviderError {
	retryable := category == ErrorTimeout ||
		category == ErrorOutage ||
		category == ErrorRateLimited

	return &ProviderError{
		Category:   category,
		Provider:   provider,
		Message:    message,
		Underlying: underlying,
		Retryable:  retryable,
	}
}

// Category extracts the error category from an error chain.
func Category(err error) ErrorCategory {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Category
	}
	return ErrorInternal
}

// IsRetryable checks if an error is worth retrying against the same provider.
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}

// notFoundFragments are the message heuristics for providers that report
// missing records as plain errors rather than a typed category.
var notFoundFragments = []string{"not found", "404", "no record"}

// IsNotFound reports whether an error means "the provider answered, there is
// no record". A categorized ErrorNotFound always qualifies; otherwise the
// message is matched against known not-found phrasings.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var pe *ProviderError
	if errors.As(err, &pe) && pe.Category == ErrorNotFound {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, fragment := range notFoundFragments {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}

// Sentinel errors for orchestration outcomes.
var (
	// ErrAllProvidersFailed is surfaced only after every provider in the
	// registry was skipped or failed.
	ErrAllProvidersFailed = errors.New("all providers failed")

	// ErrNoProviders means the registry is empty.
	ErrNoProviders = errors.New("no providers registered")
)
