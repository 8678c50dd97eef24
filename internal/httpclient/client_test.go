package httpclient

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefault(t *testing.T) {
	c := NewDefault()
	require.NotNil(t, c)
	assert.NotZero(t, c.Timeout)
}

func TestNewWithProxyOverridesTransport(t *testing.T) {
	c, err := NewWithProxy("http://proxy.internal:3128")
	require.NoError(t, err)

	transport, ok := c.Transport.(*http.Transport)
	require.True(t, ok)
	require.NotNil(t, transport.Proxy)

	req, err := http.NewRequest(http.MethodGet, "https://api.openai.com/v1/chat/completions", nil)
	require.NoError(t, err)

	proxyURL, err := transport.Proxy(req)
	require.NoError(t, err)
	require.NotNil(t, proxyURL)
	assert.Equal(t, "proxy.internal:3128", proxyURL.Host)
}

func TestNewWithProxyEmptyUsesEnvironment(t *testing.T) {
	c, err := NewWithProxy("")
	require.NoError(t, err)
	require.NotNil(t, c)
}

func TestNewWithProxyRejectsGarbage(t *testing.T) {
	_, err := NewWithProxy("://not-a-url")
	assert.Error(t, err)
}

func TestTimeoutFromEnv(t *testing.T) {
	t.Setenv("HTTP_TIMEOUT", "42s")
	cfg := DefaultConfig()
	assert.Equal(t, 42*time.Second, cfg.Timeout)
}
