package store

import "time"

type Chat struct {
	ID        string    `json:"id"` // Also the RAG session id
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Message struct {
	ID        string    `json:"-"`
	ChatID    string    `json:"-"`
	Role      string    `json:"role"` // "user" or "ai"
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	RoleUser = "user"
	RoleAI   = "ai"
)

// Chunk is a slice of a loaded page together with its vector.
type Chunk struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"-"`
}

type ScoredChunk struct {
	Chunk      Chunk
	Similarity float32
}

// IndexManifest is written next to a session index once it is complete.
// Its presence is what marks the session as indexed.
type IndexManifest struct {
	SessionID  string    `json:"session_id"`
	ChunkCount int       `json:"chunk_count"`
	Dimension  int       `json:"dimension"`
	Sources    []string  `json:"sources"`
	BuiltAt    time.Time `json:"built_at"`
}
