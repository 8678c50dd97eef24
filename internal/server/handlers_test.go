package server

import (
	"bufio"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"chatgate/internal/chat"
	"chatgate/internal/providers"
	"chatgate/internal/retrieval"
	"chatgate/internal/tools"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	factory := providers.NewFactory(providers.NewClientCache(), nil, nil)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := chat.NewService(factory, retrieval.NewStaticRetriever(), tools.NewStaticExecutor(), logger)

	srv, err := New(Config{Host: "127.0.0.1", Port: 0}, svc, logger)
	require.NoError(t, err)
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echoHeaderContentType, "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

const echoHeaderContentType = "Content-Type"

func TestChatEndpoint(t *testing.T) {
	srv := newTestServer(t)

	body := `{"prompt":"hello","model":{"provider":"fake","model":"fake-chat"}}`
	rec := doJSON(t, srv, http.MethodPost, "/v1/chat", body)

	require.Equal(t, http.StatusOK, rec.Code)
	out := rec.Body.String()
	assert.Contains(t, gjson.Get(out, "message").String(), "hello")
	assert.Equal(t, "fake", gjson.Get(out, "provider").String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestChatEndpointRejectsStreamFlag(t *testing.T) {
	srv := newTestServer(t)

	body := `{"prompt":"hello","model":{"provider":"fake","model":"fake-chat"},"stream":true}`
	rec := doJSON(t, srv, http.MethodPost, "/v1/chat", body)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "FORMAT_001", gjson.Get(rec.Body.String(), "error.code").String())
}

func TestChatEndpointValidation(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{
			name:     "bad role",
			body:     `{"messages":[{"role":"robot","content":"beep"}],"model":{"provider":"fake","model":"fake-chat"}}`,
			wantCode: "VALIDATION_001",
		},
		{
			name:     "unsupported provider",
			body:     `{"prompt":"hi","model":{"provider":"bedrock","model":"titan"}}`,
			wantCode: "MODEL_001",
		},
		{
			name:     "missing credential",
			body:     `{"prompt":"hi","model":{"provider":"openai","model":"gpt-4o"}}`,
			wantCode: "MODEL_002",
		},
	}

	srv := newTestServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, srv, http.MethodPost, "/v1/chat", tt.body)
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Equal(t, tt.wantCode, gjson.Get(rec.Body.String(), "error.code").String())
		})
	}
}

type sseFrame struct {
	event string
	data  string
}

func parseSSE(t *testing.T, body string) []sseFrame {
	t.Helper()
	var frames []sseFrame
	var cur sseFrame
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			cur.event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			cur.data = strings.TrimPrefix(line, "data: ")
		case line == "":
			if cur.event != "" {
				frames = append(frames, cur)
				cur = sseFrame{}
			}
		}
	}
	return frames
}

func TestStreamEndpointEventSequence(t *testing.T) {
	srv := newTestServer(t)

	body := `{
		"prompt": "hello stream",
		"model": {"provider": "fake", "model": "fake-chat"},
		"retrieval_config": {"enabled": true, "knowledge_base_ids": ["kb-1"]},
		"mcp_config": {"enabled": true, "tools": [{"name": "search"}]}
	}`
	rec := doJSON(t, srv, http.MethodPost, "/v1/chat/stream", body)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echoHeaderContentType), "text/event-stream")

	frames := parseSSE(t, rec.Body.String())
	require.NotEmpty(t, frames)
	assert.Equal(t, "start", frames[0].event)
	assert.Equal(t, "Stream started", gjson.Get(frames[0].data, "message").String())
	assert.Equal(t, "retrieval", frames[1].event)
	assert.True(t, gjson.Get(frames[1].data, "docs").IsArray())

	last := frames[len(frames)-1]
	assert.Equal(t, "end", last.event)
	assert.Equal(t, "Stream completed", gjson.Get(last.data, "message").String())

	var sawToken, sawTools bool
	var text strings.Builder
	for _, f := range frames {
		switch f.event {
		case "token":
			sawToken = true
			text.WriteString(gjson.Get(f.data, "content").String())
		case "tools":
			sawTools = true
			assert.Equal(t, "search", gjson.Get(f.data, "tool_calls.0.tool_name").String())
		}
	}
	assert.True(t, sawToken)
	assert.True(t, sawTools)
	assert.Contains(t, text.String(), "hello stream")
}

func TestStreamEndpointCoercesStreamFlag(t *testing.T) {
	srv := newTestServer(t)

	// stream=false on the streaming surface is coerced, not rejected
	body := `{"prompt":"hi","model":{"provider":"fake","model":"fake-chat"},"stream":false}`
	rec := doJSON(t, srv, http.MethodPost, "/v1/chat/stream", body)

	require.Equal(t, http.StatusOK, rec.Code)
	frames := parseSSE(t, rec.Body.String())
	require.NotEmpty(t, frames)
	assert.Equal(t, "start", frames[0].event)
}

func TestStreamEndpointValidationStaysHTTP(t *testing.T) {
	srv := newTestServer(t)

	body := `{"prompt":"hi","model":{"provider":"bedrock","model":"titan"}}`
	rec := doJSON(t, srv, http.MethodPost, "/v1/chat/stream", body)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "MODEL_001", gjson.Get(rec.Body.String(), "error.code").String())
}

func TestModelsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/v1/chat/models", "")
	require.Equal(t, http.StatusOK, rec.Code)

	out := rec.Body.String()
	assert.True(t, gjson.Get(out, "supported_providers").IsArray())
	assert.True(t, gjson.Get(out, "models.openai.models").IsArray())
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", gjson.Get(rec.Body.String(), "status").String())
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	// generate one request so counters exist
	doJSON(t, srv, http.MethodPost, "/v1/chat", `{"prompt":"hi","model":{"provider":"fake","model":"fake-chat"}}`)

	rec := doJSON(t, srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "chatgate_requests_total")
}
