package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gwi.com/research-assistant/internal/utils"
)

const (
	indexFileName    = "index.db"
	manifestFileName = "index.json"
	maxSessionIDLen  = 255 // bytes, the usual file name limit
)

var (
	ErrIndexNotFound    = errors.New("index not found for session")
	ErrInvalidSessionID = errors.New("invalid session id")
	ErrEmptyIndex       = errors.New("cannot build an index without chunks")
)

// ValidateSessionID checks that id can be used as a single directory name.
// Session ids are otherwise opaque: spaces, punctuation and non-ASCII text
// are all accepted.
func ValidateSessionID(id string) error {
	if id == "" || id == "." || id == ".." || len(id) > maxSessionIDLen || strings.ContainsAny(id, "/\\\x00") {
		return fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}
	return nil
}

// IndexStore keeps one similarity index per session under baseDir/<session_id>/.
// Build replaces a session's index wholesale; there are no partial updates.
type IndexStore struct {
	baseDir string
}

func NewIndexStore(baseDir string) (*IndexStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create index directory %s: %w", baseDir, err)
	}
	return &IndexStore{baseDir: baseDir}, nil
}

func (s *IndexStore) sessionDir(sessionID string) string {
	return filepath.Join(s.baseDir, sessionID)
}

// Exists reports whether a complete index has been built for the session.
func (s *IndexStore) Exists(sessionID string) (bool, error) {
	if err := ValidateSessionID(sessionID); err != nil {
		return false, err
	}
	_, err := os.Stat(filepath.Join(s.sessionDir(sessionID), manifestFileName))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat index manifest: %w", err)
}

// Build writes chunks to a fresh database and swaps it in with a rename.
// The manifest is renamed into place last.
func (s *IndexStore) Build(sessionID string, chunks []Chunk) (*IndexManifest, error) {
	if err := ValidateSessionID(sessionID); err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, ErrEmptyIndex
	}
	dim := len(chunks[0].Embedding)
	for i, c := range chunks {
		if len(c.Embedding) == 0 || len(c.Embedding) != dim {
			return nil, fmt.Errorf("chunk %d has embedding dimension %d, expected %d", i, len(c.Embedding), dim)
		}
	}

	dir := s.sessionDir(sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	tmpPath := filepath.Join(dir, indexFileName+".tmp-"+uuid.NewString())
	if err := writeIndexDB(tmpPath, chunks); err != nil {
		os.Remove(tmpPath)
		return nil, err
	}
	if err := os.Rename(tmpPath, filepath.Join(dir, indexFileName)); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to move index into place: %w", err)
	}

	manifest := &IndexManifest{
		SessionID:  sessionID,
		ChunkCount: len(chunks),
		Dimension:  dim,
		Sources:    distinctSources(chunks),
		BuiltAt:    time.Now().UTC(),
	}
	if err := writeManifest(dir, manifest); err != nil {
		return nil, err
	}
	return manifest, nil
}

func writeIndexDB(path string, chunks []Chunk) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("failed to open index database: %w", err)
	}
	defer db.Close()

	_, err = db.Exec(`
    CREATE TABLE chunks (
        position INTEGER PRIMARY KEY,
        id TEXT NOT NULL,
        source TEXT NOT NULL,
        content TEXT NOT NULL,
        embedding_json TEXT NOT NULL -- JSON array of float32
    );`)
	if err != nil {
		return fmt.Errorf("failed to create chunks table: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin index transaction: %w", err)
	}
	stmt, err := tx.Prepare("INSERT INTO chunks (position, id, source, content, embedding_json) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare chunk insert: %w", err)
	}
	defer stmt.Close()

	for i, c := range chunks {
		embeddingBytes, err := json.Marshal(c.Embedding)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to marshal embedding: %w", err)
		}
		id := c.ID
		if id == "" {
			id = uuid.NewString()
		}
		if _, err := stmt.Exec(i, id, c.Source, c.Content, string(embeddingBytes)); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert chunk %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit index: %w", err)
	}
	return nil
}

func writeManifest(dir string, manifest *IndexManifest) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	tmp, err := os.CreateTemp(dir, manifestFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create manifest: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close manifest: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, manifestFileName)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to move manifest into place: %w", err)
	}
	return nil
}

func distinctSources(chunks []Chunk) []string {
	seen := make(map[string]bool)
	var sources []string
	for _, c := range chunks {
		if !seen[c.Source] {
			seen[c.Source] = true
			sources = append(sources, c.Source)
		}
	}
	return sources
}

// Load reads a session's index into memory. It returns ErrIndexNotFound when
// the session has never been indexed.
func (s *IndexStore) Load(sessionID string) (*Index, error) {
	if err := ValidateSessionID(sessionID); err != nil {
		return nil, err
	}
	dir := s.sessionDir(sessionID)

	data, err := os.ReadFile(filepath.Join(dir, manifestFileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrIndexNotFound
		}
		return nil, fmt.Errorf("failed to read index manifest: %w", err)
	}
	var manifest IndexManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to decode index manifest: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dir, indexFileName))
	if err != nil {
		return nil, fmt.Errorf("failed to open index database: %w", err)
	}
	defer db.Close()

	rows, err := db.Query("SELECT id, source, content, embedding_json FROM chunks ORDER BY position ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	idx := &Index{Manifest: manifest}
	for rows.Next() {
		var chunk Chunk
		var embeddingJSON string
		if err := rows.Scan(&chunk.ID, &chunk.Source, &chunk.Content, &embeddingJSON); err != nil {
			return nil, fmt.Errorf("failed to scan chunk row: %w", err)
		}
		if err := json.Unmarshal([]byte(embeddingJSON), &chunk.Embedding); err != nil {
			log.Printf("Warning: failed to unmarshal embedding for chunk %s in session %s: %v. Skipping.", chunk.ID, sessionID, err)
			continue
		}
		idx.Chunks = append(idx.Chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read chunks: %w", err)
	}
	return idx, nil
}

// Index is the in-memory form of a session index.
type Index struct {
	Manifest IndexManifest
	Chunks   []Chunk
}

// Search returns up to k chunks ordered by cosine similarity to query,
// highest first. Equal scores keep index order.
func (idx *Index) Search(query []float32, k int) ([]ScoredChunk, error) {
	if k <= 0 {
		return nil, nil
	}
	if idx.Manifest.Dimension != 0 && len(query) != idx.Manifest.Dimension {
		return nil, fmt.Errorf("query embedding has dimension %d, index expects %d", len(query), idx.Manifest.Dimension)
	}

	scored := make([]ScoredChunk, 0, len(idx.Chunks))
	for _, chunk := range idx.Chunks {
		similarity, err := utils.CosineSimilarity(query, chunk.Embedding)
		if err != nil {
			log.Printf("Error calculating similarity for chunk %s: %v. Skipping.", chunk.ID, err)
			continue
		}
		scored = append(scored, ScoredChunk{Chunk: chunk, Similarity: similarity})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}
