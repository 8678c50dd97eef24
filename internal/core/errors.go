package core

import (
	"fmt"
	"net/http"
)

// ErrorType classifies a gateway error.
type ErrorType string

const (
	// ErrorTypeValidation indicates a malformed request shape.
	ErrorTypeValidation ErrorType = "validation_error"
	// ErrorTypeUnsupportedProvider indicates a provider outside the registry.
	ErrorTypeUnsupportedProvider ErrorType = "unsupported_provider_error"
	// ErrorTypeMissingCredential indicates an absent required provider field.
	ErrorTypeMissingCredential ErrorType = "missing_credential_error"
	// ErrorTypeChatProcessing indicates a failure during assembly, retrieval,
	// model invocation, or tool execution on the non-streaming path.
	ErrorTypeChatProcessing ErrorType = "chat_processing_error"
	// ErrorTypeFormat indicates a request submitted to the wrong surface.
	ErrorTypeFormat ErrorType = "format_error"
	// ErrorTypeStream indicates the streaming-path equivalent of a
	// processing failure; it is delivered as a terminal error event.
	ErrorTypeStream ErrorType = "stream_error"
)

// Stable machine-readable error codes exposed across the request boundary.
const (
	CodeValidation          = "VALIDATION_001"
	CodeUnsupportedProvider = "MODEL_001"
	CodeMissingCredential   = "MODEL_002"
	CodeChatProcessing      = "CHAT_001"
	CodeFormat              = "FORMAT_001"
	CodeStream              = "STREAM_001"
)

// GatewayError is the error type for all request-boundary errors. It carries
// a stable code and a human-readable message; the wrapped cause is kept for
// logs only and never serialized.
type GatewayError struct {
	Type       ErrorType      `json:"type"`
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	StatusCode int            `json:"-"`
	Data       map[string]any `json:"data,omitempty"`
	Err        error          `json:"-"`
}

// Error implements the error interface.
func (e *GatewayError) Error() string {
	return fmt.Sprintf("%s [%s]: %s", e.Type, e.Code, e.Message)
}

// Unwrap exposes the wrapped cause to errors.Is/As.
func (e *GatewayError) Unwrap() error {
	return e.Err
}

// HTTPStatusCode returns the HTTP status for this error.
func (e *GatewayError) HTTPStatusCode() int {
	if e.StatusCode != 0 {
		return e.StatusCode
	}
	return http.StatusUnprocessableEntity
}

// ToJSON renders the client-facing error envelope.
func (e *GatewayError) ToJSON() map[string]any {
	body := map[string]any{
		"code":    e.Code,
		"message": e.Message,
		"type":    e.Type,
	}
	if len(e.Data) > 0 {
		body["data"] = e.Data
	}
	return map[string]any{"error": body}
}

// NewValidationError reports a malformed request, rejected before any
// provider interaction.
func NewValidationError(message string) *GatewayError {
	return &GatewayError{
		Type:       ErrorTypeValidation,
		Code:       CodeValidation,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
	}
}

// NewUnsupportedProviderError reports a provider identifier outside the
// registry's supported set.
func NewUnsupportedProviderError(provider string) *GatewayError {
	return &GatewayError{
		Type:       ErrorTypeUnsupportedProvider,
		Code:       CodeUnsupportedProvider,
		Message:    "Unsupported provider: " + provider,
		StatusCode: http.StatusUnprocessableEntity,
		Data:       map[string]any{"provider": provider},
	}
}

// NewMissingCredentialError reports an absent required provider field,
// identifying the field by name.
func NewMissingCredentialError(provider, field string) *GatewayError {
	return &GatewayError{
		Type:       ErrorTypeMissingCredential,
		Code:       CodeMissingCredential,
		Message:    fmt.Sprintf("Provider %q requires %q in model config", provider, field),
		StatusCode: http.StatusUnprocessableEntity,
		Data:       map[string]any{"provider": provider, "field": field},
	}
}

// NewChatProcessingError wraps a non-streaming pipeline failure.
func NewChatProcessingError(err error) *GatewayError {
	return &GatewayError{
		Type:       ErrorTypeChatProcessing,
		Code:       CodeChatProcessing,
		Message:    "Chat processing failed: " + err.Error(),
		StatusCode: http.StatusUnprocessableEntity,
		Err:        err,
	}
}

// NewFormatError reports a request submitted to the wrong surface.
func NewFormatError(message string) *GatewayError {
	return &GatewayError{
		Type:       ErrorTypeFormat,
		Code:       CodeFormat,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// NewStreamError wraps a streaming pipeline failure. It is never returned to
// the HTTP layer directly; the orchestrator folds it into the terminal
// error event.
func NewStreamError(err error) *GatewayError {
	return &GatewayError{
		Type:    ErrorTypeStream,
		Code:    CodeStream,
		Message: "Stream failed: " + err.Error(),
		Err:     err,
	}
}
