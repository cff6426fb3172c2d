package core

import (
	"context"

	"gwi.com/research-assistant/internal/store"
)

// Embedder maps text to a fixed-length vector. The same model is used for
// chunks at index time and for questions at query time.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Answerer writes an answer grounded in the retrieved chunks.
type Answerer interface {
	Answer(ctx context.Context, req AnswerRequest) (*Answer, error)
}

type AnswerRequest struct {
	Question string
	Chunks   []store.ScoredChunk
	History  []string // already formatted as "role: content", oldest first
}

type Answer struct {
	Answer  string `json:"answer"`
	Sources string `json:"sources"`
}

type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
