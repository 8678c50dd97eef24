// Package tools defines the tool-execution collaborator consumed by the
// chat orchestrator. Real MCP servers plug in behind the Executor interface;
// a static executor stands in for development and tests.
package tools

import (
	"context"
	"fmt"
	"strconv"

	"chatgate/internal/core"
	"chatgate/internal/observability"
)

// Executor is the consumed tool-execution contract. A failed execution is
// reported as Success=false with a human-readable Result; it never aborts
// the remaining tools.
type Executor interface {
	Execute(ctx context.Context, name string, config map[string]any, contextMessage string) core.ToolCall
}

// StaticExecutor fabricates a successful result for every tool.
type StaticExecutor struct{}

// NewStaticExecutor creates an executor with simulated results.
func NewStaticExecutor() *StaticExecutor {
	return &StaticExecutor{}
}

// Execute returns a canned success for the named tool.
func (e *StaticExecutor) Execute(_ context.Context, name string, _ map[string]any, _ string) core.ToolCall {
	return core.ToolCall{
		ToolName: name,
		Result:   fmt.Sprintf("Simulated result from tool %s", name),
		Success:  true,
	}
}

// InstrumentedExecutor counts executions per tool around an inner executor.
type InstrumentedExecutor struct {
	inner Executor
}

// Instrument wraps inner with Prometheus counters.
func Instrument(inner Executor) *InstrumentedExecutor {
	return &InstrumentedExecutor{inner: inner}
}

// Execute delegates to the inner executor and records the outcome.
func (e *InstrumentedExecutor) Execute(ctx context.Context, name string, config map[string]any, contextMessage string) core.ToolCall {
	call := e.inner.Execute(ctx, name, config, contextMessage)
	observability.ToolCallsTotal.WithLabelValues(name, strconv.FormatBool(call.Success)).Inc()
	return call
}
