package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers for failure classification. Components wrap errors with
// one of these so callers (and the HTTP boundary) can branch on the class
// without parsing messages.
var (
	// ErrInvalidInput marks requests rejected before any work happens
	// (empty word, missing user id). Never retried, never cached.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConfiguration marks fatal misconfiguration (no provider
	// credentials). Surfaced as a server error, never degraded-masked.
	ErrConfiguration = errors.New("configuration error")
	// ErrQuotaExceeded marks provider quota exhaustion across all
	// configured credentials for this call.
	ErrQuotaExceeded = errors.New("quota exceeded")
	// ErrOverloaded marks transient provider capacity failures that
	// survived the retry budget.
	ErrOverloaded = errors.New("provider overloaded")
	// ErrSafetyBlocked marks content-policy rejections. Terminal.
	ErrSafetyBlocked = errors.New("safety blocked")
	// ErrPersistence marks storage failures during gamification or
	// history writes; callers keep their last-known-good state.
	ErrPersistence = errors.New("persistence unavailable")
	// ErrNotFound marks lookups for records that do not exist.
	ErrNotFound = errors.New("not found")
)

// Wrap builds an error message that includes component context while
// tagging it with the provided marker for later classification. The
// marker should be one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrOverloaded
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
