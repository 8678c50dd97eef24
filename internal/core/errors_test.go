package core

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *GatewayError
		wantCode   string
		wantStatus int
	}{
		{"validation", NewValidationError("bad shape"), CodeValidation, http.StatusUnprocessableEntity},
		{"unsupported provider", NewUnsupportedProviderError("bedrock"), CodeUnsupportedProvider, http.StatusUnprocessableEntity},
		{"missing credential", NewMissingCredentialError("openai", "api_key"), CodeMissingCredential, http.StatusUnprocessableEntity},
		{"chat processing", NewChatProcessingError(errors.New("boom")), CodeChatProcessing, http.StatusUnprocessableEntity},
		{"format", NewFormatError("wrong surface"), CodeFormat, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, tt.err.Code)
			assert.Equal(t, tt.wantStatus, tt.err.HTTPStatusCode())
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestUnsupportedProviderCarriesData(t *testing.T) {
	err := NewUnsupportedProviderError("bedrock")
	assert.Equal(t, "bedrock", err.Data["provider"])
	assert.Contains(t, err.Message, "bedrock")
}

func TestChatProcessingErrorUnwraps(t *testing.T) {
	cause := errors.New("kb offline")
	err := NewChatProcessingError(cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Message, "kb offline")
}

func TestToJSONEnvelope(t *testing.T) {
	body := NewMissingCredentialError("openai", "api_key").ToJSON()

	envelope, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, CodeMissingCredential, envelope["code"])
	assert.Equal(t, ErrorTypeMissingCredential, envelope["type"])

	data, ok := envelope["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "api_key", data["field"])
}

func TestStreamErrorHasNoStatus(t *testing.T) {
	err := NewStreamError(errors.New("mid-stream"))
	assert.Equal(t, CodeStream, err.Code)
	// folded into the error event, never written as an HTTP status
	assert.Equal(t, http.StatusUnprocessableEntity, err.HTTPStatusCode())
}
