// Package retrieval defines the retrieval collaborator consumed by the chat
// orchestrator. The concrete vector-search backend lives behind the
// Retriever interface so it can be substituted without touching the
// orchestrator.
package retrieval

import (
	"context"
	"fmt"

	"chatgate/internal/core"
)

// Query carries one retrieval request to the collaborator.
type Query struct {
	KnowledgeBaseIDs []string `json:"knowledge_base_ids"`
	Text             string   `json:"text"`
	TopK             int      `json:"top_k"`
	ScoreThreshold   float64  `json:"score_threshold"`
	Rerank           bool     `json:"rerank"`
}

// Retriever is the consumed retrieval contract: at most TopK documents,
// ordered by descending relevance.
type Retriever interface {
	Retrieve(ctx context.Context, q Query) ([]core.RetrievalDoc, error)
}

// StaticRetriever returns a fixed document per knowledge base. It stands in
// for a real vector-search backend in development and tests.
type StaticRetriever struct{}

// NewStaticRetriever creates a retriever with fabricated results.
func NewStaticRetriever() *StaticRetriever {
	return &StaticRetriever{}
}

// Retrieve returns one synthetic document per knowledge base, capped at
// q.TopK, with a fixed score above common thresholds.
func (r *StaticRetriever) Retrieve(_ context.Context, q Query) ([]core.RetrievalDoc, error) {
	if q.TopK <= 0 {
		return nil, nil
	}

	kbs := q.KnowledgeBaseIDs
	if len(kbs) == 0 {
		kbs = []string{"knowledge_base_1"}
	}

	docs := make([]core.RetrievalDoc, 0, len(kbs))
	for _, kb := range kbs {
		if len(docs) == q.TopK {
			break
		}
		docs = append(docs, core.RetrievalDoc{
			Content: fmt.Sprintf("Reference material for query: %s", q.Text),
			Source:  kb,
			Score:   0.85,
			Metadata: map[string]any{
				"title": "Example document",
				"type":  "text",
			},
		})
	}
	return docs, nil
}
