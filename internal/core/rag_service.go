package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"gwi.com/research-assistant/internal/loader"
	"gwi.com/research-assistant/internal/metrics"
	"gwi.com/research-assistant/internal/store"
	"gwi.com/research-assistant/internal/utils"
)

const (
	NumRelevantChunks = 4 // Number of chunks handed to the answerer
	MaxHistoryTurns   = 6

	IndexedStatus  = "Articles indexed for this session"
	AdvisoryAnswer = "Please process articles before asking questions."
)

// ErrNoContent means none of the URLs produced any text to index.
var ErrNoContent = errors.New("no content could be loaded from the given urls")

type ProcessResult struct {
	Status    string `json:"status"`
	Documents int    `json:"documents"`
	Chunks    int    `json:"chunks"`
}

// RAGService runs the indexing and answering pipelines for sessions.
type RAGService struct {
	loader   loader.Loader
	splitter *utils.Splitter
	embedder Embedder
	answerer Answerer
	indexes  *store.IndexStore
	debug    bool

	mu    sync.Mutex
	locks map[string]*sync.RWMutex
}

func NewRAGService(l loader.Loader, e Embedder, a Answerer, indexes *store.IndexStore) *RAGService {
	return &RAGService{
		loader:   l,
		splitter: utils.DefaultSplitter(),
		embedder: e,
		answerer: a,
		indexes:  indexes,
		locks:    make(map[string]*sync.RWMutex),
	}
}

// SetChunking replaces the default 1000/200 splitter.
func (s *RAGService) SetChunking(size, overlap int) error {
	splitter, err := utils.NewSplitter(size, overlap)
	if err != nil {
		return err
	}
	s.splitter = splitter
	return nil
}

// SetDebug turns on per-step pipeline logging.
func (s *RAGService) SetDebug(debug bool) {
	s.debug = debug
}

// sessionLock serializes index builds per session and keeps readers off a
// half-written index. Locks live as long as the process.
func (s *RAGService) sessionLock(sessionID string) *sync.RWMutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sync.RWMutex{}
		s.locks[sessionID] = l
	}
	return l
}

// Process loads the urls, splits, embeds and replaces the session's index.
func (s *RAGService) Process(ctx context.Context, sessionID string, urls []string) (*ProcessResult, error) {
	started := time.Now()
	result, err := s.process(ctx, sessionID, urls)
	switch {
	case err == nil:
		metrics.ObserveProcess(metrics.OutcomeIndexed, result.Chunks, started)
	case errors.Is(err, ErrNoContent):
		metrics.ObserveProcess(metrics.OutcomeNoContent, 0, started)
	default:
		metrics.ObserveProcess(metrics.OutcomeError, 0, started)
	}
	return result, err
}

func (s *RAGService) process(ctx context.Context, sessionID string, urls []string) (*ProcessResult, error) {
	if err := store.ValidateSessionID(sessionID); err != nil {
		return nil, err
	}

	docs, err := s.loader.Load(ctx, urls)
	if err != nil {
		return nil, fmt.Errorf("failed to load urls: %w", err)
	}
	if s.debug {
		log.Printf("Session %s: loaded %d/%d documents", sessionID, len(docs), len(urls))
	}

	var chunks []store.Chunk
	var texts []string
	for _, doc := range docs {
		for _, part := range s.splitter.Split(doc.Text) {
			chunks = append(chunks, store.Chunk{
				ID:      uuid.NewString(),
				Source:  doc.URL,
				Content: part,
			})
			texts = append(texts, part)
		}
	}
	if len(chunks) == 0 {
		return nil, ErrNoContent
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}

	lock := s.sessionLock(sessionID)
	lock.Lock()
	manifest, err := s.indexes.Build(sessionID, chunks)
	lock.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to build index: %w", err)
	}

	log.Printf("Session %s: indexed %d chunks from %d documents.", sessionID, manifest.ChunkCount, len(docs))
	return &ProcessResult{
		Status:    IndexedStatus,
		Documents: len(docs),
		Chunks:    manifest.ChunkCount,
	}, nil
}

// Ask answers question from the session's index. A session without an
// index gets the advisory answer, not an error.
func (s *RAGService) Ask(ctx context.Context, sessionID, question string, history []ChatTurn) (*Answer, error) {
	started := time.Now()
	answer, advisory, err := s.ask(ctx, sessionID, question, history)
	switch {
	case err != nil:
		metrics.ObserveAsk(metrics.OutcomeError, started)
	case advisory:
		metrics.ObserveAsk(metrics.OutcomeAdvisory, started)
	default:
		metrics.ObserveAsk(metrics.OutcomeAnswered, started)
	}
	return answer, err
}

func (s *RAGService) ask(ctx context.Context, sessionID, question string, history []ChatTurn) (*Answer, bool, error) {
	exists, err := s.indexes.Exists(sessionID)
	if err != nil {
		return nil, false, err
	}
	if !exists {
		return &Answer{Answer: AdvisoryAnswer, Sources: ""}, true, nil
	}

	lock := s.sessionLock(sessionID)
	lock.RLock()
	idx, err := s.indexes.Load(sessionID)
	lock.RUnlock()
	if err != nil {
		return nil, false, fmt.Errorf("failed to load index: %w", err)
	}

	queryEmbedding, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get query embedding: %w", err)
	}
	relevant, err := idx.Search(queryEmbedding, NumRelevantChunks)
	if err != nil {
		return nil, false, fmt.Errorf("failed to search index: %w", err)
	}
	if s.debug {
		log.Printf("Session %s: retrieved %d chunks for question.", sessionID, len(relevant))
	}

	answer, err := s.answerer.Answer(ctx, AnswerRequest{
		Question: question,
		Chunks:   relevant,
		History:  FormatHistory(history),
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to generate answer: %w", err)
	}
	return answer, false, nil
}

// FormatHistory keeps the last MaxHistoryTurns turns as "role: content".
func FormatHistory(history []ChatTurn) []string {
	if len(history) > MaxHistoryTurns {
		history = history[len(history)-MaxHistoryTurns:]
	}
	formatted := make([]string, 0, len(history))
	for _, turn := range history {
		formatted = append(formatted, fmt.Sprintf("%s: %s", turn.Role, turn.Content))
	}
	return formatted
}
