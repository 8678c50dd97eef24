package llmclient

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// APIError is a failed HTTP exchange with a provider. The gateway does not
// retry beyond the policy configured here; callers wrap APIError into their
// own request-boundary error types.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %d %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// Unwrap exposes the underlying transport error, if any.
func (e *APIError) Unwrap() error {
	return e.Err
}

// Temporary reports whether the failure is worth retrying.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode == http.StatusServiceUnavailable ||
		e.StatusCode == http.StatusBadGateway ||
		e.StatusCode == http.StatusGatewayTimeout
}

// parseAPIError extracts the provider's error message from a non-2xx body.
// Both OpenAI-style ({"error":{"message":...}}) and Anthropic-style
// ({"error":{"message":...},"type":"error"}) bodies share this shape.
func parseAPIError(provider string, statusCode int, body []byte) *APIError {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}

	message := string(body)
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		message = envelope.Error.Message
	}

	return &APIError{
		Provider:   provider,
		StatusCode: statusCode,
		Message:    message,
	}
}

func transportError(provider, message string, err error) *APIError {
	return &APIError{
		Provider: provider,
		Message:  message,
		Err:      err,
	}
}
