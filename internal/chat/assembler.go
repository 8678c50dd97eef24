// Package chat orchestrates a validated request through message assembly,
// retrieval augmentation, model invocation and tool execution, for both the
// complete and streaming response shapes.
package chat

import (
	"strings"

	"chatgate/internal/core"
)

const (
	augmentInstruction = "Answer the question based on the following context:"
	augmentQuestion    = "Question: "
)

// AssembleMessages builds the provider-ready message list: the system
// message when present, the prior history in order, then the prompt appended
// as a trailing user turn.
func AssembleMessages(req *core.ChatRequest) []core.Message {
	messages := make([]core.Message, 0, len(req.Messages)+2)
	if req.SystemMessage != "" {
		messages = append(messages, core.Message{Role: core.RoleSystem, Content: req.SystemMessage})
	}
	messages = append(messages, req.Messages...)
	if req.Prompt != "" {
		messages = append(messages, core.Message{Role: core.RoleUser, Content: req.Prompt})
	}
	return messages
}

// retrievalQuery picks the text sent to the retriever: the prompt when set,
// otherwise the content of the last assembled message.
func retrievalQuery(req *core.ChatRequest, messages []core.Message) string {
	if req.Prompt != "" {
		return req.Prompt
	}
	if len(messages) > 0 {
		return messages[len(messages)-1].Content
	}
	return ""
}

// augmentWithDocs rewrites the trailing user message to carry the retrieved
// context. The rewrite happens at most once per request and only when the
// last message is a user turn; otherwise the messages pass through untouched.
func augmentWithDocs(messages []core.Message, docs []core.RetrievalDoc) []core.Message {
	if len(docs) == 0 || len(messages) == 0 {
		return messages
	}
	last := messages[len(messages)-1]
	if last.Role != core.RoleUser {
		return messages
	}

	contents := make([]string, 0, len(docs))
	for _, doc := range docs {
		contents = append(contents, doc.Content)
	}

	var sb strings.Builder
	sb.WriteString(augmentInstruction)
	sb.WriteString("\n\n")
	sb.WriteString(strings.Join(contents, "\n"))
	sb.WriteString("\n\n")
	sb.WriteString(augmentQuestion)
	sb.WriteString(last.Content)

	out := make([]core.Message, len(messages))
	copy(out, messages)
	out[len(out)-1] = core.Message{Role: core.RoleUser, Content: sb.String()}
	return out
}
