package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatgate/internal/core"
)

func TestAssembleMessagesOrder(t *testing.T) {
	req := &core.ChatRequest{
		Prompt:        "What changed?",
		SystemMessage: "You are terse.",
		Messages: []core.Message{
			{Role: core.RoleUser, Content: "hi"},
			{Role: core.RoleAssistant, Content: "hello"},
		},
	}

	messages := AssembleMessages(req)
	require.Len(t, messages, 4)
	assert.Equal(t, core.Message{Role: core.RoleSystem, Content: "You are terse."}, messages[0])
	assert.Equal(t, "hi", messages[1].Content)
	assert.Equal(t, "hello", messages[2].Content)
	assert.Equal(t, core.Message{Role: core.RoleUser, Content: "What changed?"}, messages[3])
}

func TestAssembleMessagesOptionalParts(t *testing.T) {
	messages := AssembleMessages(&core.ChatRequest{Prompt: "only prompt"})
	require.Len(t, messages, 1)
	assert.Equal(t, core.RoleUser, messages[0].Role)

	messages = AssembleMessages(&core.ChatRequest{
		Messages: []core.Message{{Role: core.RoleUser, Content: "history only"}},
	})
	require.Len(t, messages, 1)
	assert.Equal(t, "history only", messages[0].Content)

	assert.Empty(t, AssembleMessages(&core.ChatRequest{}))
}

func TestRetrievalQueryPrefersPrompt(t *testing.T) {
	req := &core.ChatRequest{Prompt: "from prompt"}
	assert.Equal(t, "from prompt", retrievalQuery(req, []core.Message{{Role: core.RoleUser, Content: "from history"}}))

	req = &core.ChatRequest{}
	assert.Equal(t, "from history", retrievalQuery(req, []core.Message{{Role: core.RoleUser, Content: "from history"}}))
	assert.Empty(t, retrievalQuery(req, nil))
}

func TestAugmentWithDocsRewritesLastUserTurn(t *testing.T) {
	messages := []core.Message{
		{Role: core.RoleSystem, Content: "sys"},
		{Role: core.RoleUser, Content: "original question"},
	}
	docs := []core.RetrievalDoc{
		{Content: "doc one", Score: 0.9},
		{Content: "doc two", Score: 0.8},
	}

	out := augmentWithDocs(messages, docs)
	require.Len(t, out, 2)

	rewritten := out[1].Content
	assert.True(t, strings.HasPrefix(rewritten, augmentInstruction))
	assert.Contains(t, rewritten, "doc one\ndoc two")
	assert.Contains(t, rewritten, augmentQuestion+"original question")
	assert.Equal(t, 1, strings.Count(rewritten, augmentInstruction))

	// input slice stays untouched
	assert.Equal(t, "original question", messages[1].Content)
}

func TestAugmentWithDocsNoOpCases(t *testing.T) {
	messages := []core.Message{{Role: core.RoleUser, Content: "q"}}

	assert.Equal(t, messages, augmentWithDocs(messages, nil))

	trailingAssistant := []core.Message{
		{Role: core.RoleUser, Content: "q"},
		{Role: core.RoleAssistant, Content: "a"},
	}
	out := augmentWithDocs(trailingAssistant, []core.RetrievalDoc{{Content: "doc"}})
	assert.Equal(t, trailingAssistant, out)

	assert.Empty(t, augmentWithDocs(nil, []core.RetrievalDoc{{Content: "doc"}}))
}
