package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Outcome classifies a provider attempt
type Outcome string

const (
	OutcomeOK        Outcome = "OK"
	OutcomeAuth      Outcome = "AUTH"
	OutcomeRateLimit Outcome = "RATE_LIMIT"
	OutcomeTruncated Outcome = "TRUNCATED"
	OutcomeOther     Outcome = "OTHER"
)

// ProviderError is a failed call with its classification
type ProviderError struct {
	Provider Provider
	Status   int
	Outcome  Outcome
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Outcome, e.Provider)
	if e.Status != 0 {
		fmt.Fprintf(&b, " (HTTP %d)", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ErrNoCredentials is returned when a provider needs a key and its pool is empty
var ErrNoCredentials = errors.New("no credentials configured")

// statusError builds the error for a non-2xx response. 529 is Anthropic's
// overloaded status and is treated like a 429.
func statusError(provider Provider, status int, body []byte) *ProviderError {
	msg := strings.TrimSpace(string(body))
	if len(msg) > 300 {
		msg = msg[:300]
	}
	e := &ProviderError{Provider: provider, Status: status, Message: msg}
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		e.Outcome = OutcomeAuth
	case status == http.StatusTooManyRequests, status == 529:
		e.Outcome = OutcomeRateLimit
	default:
		e.Outcome = OutcomeOther
	}
	return e
}

var (
	authMarkers = []string{
		"invalid api key", "invalid x-api-key", "incorrect api key", "api key not valid",
		"unauthorized", "forbidden", "authentication", "permission denied", "401", "403",
	}
	rateLimitMarkers = []string{
		"rate limit", "rate_limit", "ratelimit", "too many requests", "429", "overloaded",
		"resource_exhausted", "resource exhausted", "quota exceeded", "529",
	}
	truncationMarkers = []string{"max_tokens", "maximum output", "truncated", "finish_reason: length"}
)

// Classify maps any error to an Outcome. Typed provider errors carry their own
// classification; foreign errors are classified from their message.
func Classify(err error) Outcome {
	if err == nil {
		return OutcomeOK
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Outcome
	}
	if errors.Is(err, ErrNoCredentials) {
		return OutcomeAuth
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return OutcomeOther
	}

	msg := strings.ToLower(err.Error())
	for _, m := range authMarkers {
		if strings.Contains(msg, m) {
			return OutcomeAuth
		}
	}
	for _, m := range rateLimitMarkers {
		if strings.Contains(msg, m) {
			return OutcomeRateLimit
		}
	}
	for _, m := range truncationMarkers {
		if strings.Contains(msg, m) {
			return OutcomeTruncated
		}
	}
	return OutcomeOther
}
