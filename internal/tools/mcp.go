package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/samber/lo"

	"chatgate/internal/core"
	"chatgate/internal/version"
)

// Per-tool config keys understood by the MCP executor.
const (
	configServerURL = "server_url" // streamable HTTP transport
	configCommand   = "command"    // stdio transport
	configArguments = "arguments"  // extra tool-call arguments
)

// MCPExecutor executes tools against MCP servers. One client is kept per
// server endpoint and reused across requests.
type MCPExecutor struct {
	mu      sync.Mutex
	clients map[string]*client.Client
}

// NewMCPExecutor creates an executor with an empty client pool.
func NewMCPExecutor() *MCPExecutor {
	return &MCPExecutor{clients: make(map[string]*client.Client)}
}

// Execute connects to the tool's MCP server (or reuses an existing
// connection) and invokes the named tool with the configured arguments plus
// the context message. Failures are folded into the returned record.
func (e *MCPExecutor) Execute(ctx context.Context, name string, config map[string]any, contextMessage string) core.ToolCall {
	result, err := e.call(ctx, name, config, contextMessage)
	if err != nil {
		slog.Warn("mcp tool execution failed", "tool", name, "error", err)
		return core.ToolCall{ToolName: name, Result: err.Error(), Success: false}
	}
	return core.ToolCall{ToolName: name, Result: result, Success: true}
}

func (e *MCPExecutor) call(ctx context.Context, name string, config map[string]any, contextMessage string) (string, error) {
	c, err := e.clientFor(ctx, config)
	if err != nil {
		return "", err
	}

	args := map[string]any{"message": contextMessage}
	if extra, ok := config[configArguments].(map[string]any); ok {
		for k, v := range extra {
			args[k] = v
		}
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	result, err := c.CallTool(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to invoke tool %s: %w", name, err)
	}

	texts := lo.FilterMap(result.Content, func(content mcp.Content, _ int) (string, bool) {
		if text, ok := mcp.AsTextContent(content); ok {
			return text.Text, true
		}
		return "", false
	})
	joined := strings.Join(texts, "\n")

	if result.IsError {
		return "", fmt.Errorf("tool %s reported an error: %s", name, joined)
	}
	return joined, nil
}

// clientFor returns a started client for the server named in config,
// creating and initializing it on first use.
func (e *MCPExecutor) clientFor(ctx context.Context, config map[string]any) (*client.Client, error) {
	serverURL, _ := config[configServerURL].(string)
	command, _ := config[configCommand].(string)
	if serverURL == "" && command == "" {
		return nil, fmt.Errorf("tool config must set %q or %q", configServerURL, configCommand)
	}

	key := serverURL
	if key == "" {
		key = command
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if c, ok := e.clients[key]; ok {
		return c, nil
	}

	var (
		c   *client.Client
		err error
	)
	if serverURL != "" {
		c, err = client.NewStreamableHttpClient(serverURL)
	} else {
		parts := strings.Fields(command)
		c, err = client.NewStdioMCPClient(parts[0], nil, parts[1:]...)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create MCP client: %w", err)
	}

	if err := c.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start MCP client: %w", err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    "chatgate",
		Version: version.Version,
	}
	if _, err := c.Initialize(ctx, initReq); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to initialize MCP client: %w", err)
	}

	e.clients[key] = c
	return c, nil
}

// Close shuts down all pooled MCP clients.
func (e *MCPExecutor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var firstErr error
	for key, c := range e.clients {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(e.clients, key)
	}
	return firstErr
}
