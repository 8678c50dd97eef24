package core

import "encoding/json"

// StreamEventType tags one variant of the streaming protocol.
type StreamEventType string

// Stream protocol event tags, in the order they may appear within one stream:
// start, then at most one retrieval, then tokens, then at most one tools,
// then end. An error event terminates the stream in place of any remainder.
const (
	EventStart     StreamEventType = "start"
	EventRetrieval StreamEventType = "retrieval"
	EventToken     StreamEventType = "token"
	EventTools     StreamEventType = "tools"
	EventEnd       StreamEventType = "end"
	EventError     StreamEventType = "error"
)

// StreamEvent is one unit of the streaming response protocol. Only the
// fields belonging to the variant named by Type are populated.
type StreamEvent struct {
	Type      StreamEventType
	Message   string         // start, end
	Docs      []RetrievalDoc // retrieval
	Content   string         // token
	ToolCalls []ToolCall     // tools
	Err       string         // error
}

// Terminal reports whether no further events may follow this one.
func (e StreamEvent) Terminal() bool {
	return e.Type == EventEnd || e.Type == EventError
}

// Data renders the variant's wire payload: the JSON object carried in the
// SSE data field for this event.
func (e StreamEvent) Data() ([]byte, error) {
	switch e.Type {
	case EventStart, EventEnd:
		return json.Marshal(map[string]string{"message": e.Message})
	case EventRetrieval:
		return json.Marshal(map[string]any{"docs": e.Docs})
	case EventToken:
		return json.Marshal(map[string]string{"content": e.Content})
	case EventTools:
		return json.Marshal(map[string]any{"tool_calls": e.ToolCalls})
	case EventError:
		return json.Marshal(map[string]string{"error": e.Err})
	default:
		return json.Marshal(struct{}{})
	}
}

// StartEvent builds the opening event of a stream.
func StartEvent() StreamEvent {
	return StreamEvent{Type: EventStart, Message: "Stream started"}
}

// RetrievalEvent builds the event announcing retrieved documents.
func RetrievalEvent(docs []RetrievalDoc) StreamEvent {
	return StreamEvent{Type: EventRetrieval, Docs: docs}
}

// TokenEvent builds one incremental text fragment event.
func TokenEvent(content string) StreamEvent {
	return StreamEvent{Type: EventToken, Content: content}
}

// ToolsEvent builds the event carrying tool execution results.
func ToolsEvent(calls []ToolCall) StreamEvent {
	return StreamEvent{Type: EventTools, ToolCalls: calls}
}

// EndEvent builds the closing event of a successful stream.
func EndEvent() StreamEvent {
	return StreamEvent{Type: EventEnd, Message: "Stream completed"}
}

// ErrorEvent builds the terminal error event from err.
func ErrorEvent(err error) StreamEvent {
	return StreamEvent{Type: EventError, Err: err.Error()}
}
