// Package kb loads the knowledge-base snapshot produced by the ingest
// command. Validation is all-or-nothing: a single malformed record
// rejects the entire snapshot so a degraded index is never served.
package kb

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"assistant/internal/domain"
)

// Snapshot is the serialized index format: { model, dim, chunks }.
type Snapshot struct {
	Model  string         `json:"model"`
	Dim    int            `json:"dim"`
	Chunks []domain.Chunk `json:"chunks"`
}

// rawChunk mirrors domain.Chunk with pointer fields so missing keys can
// be told apart from zero values. URL stays optional (null or absent).
type rawChunk struct {
	ID        *string    `json:"id"`
	DocID     *string    `json:"docId"`
	Title     *string    `json:"title"`
	URL       *string    `json:"url"`
	Tags      *[]string  `json:"tags"`
	Text      *string    `json:"text"`
	Embedding *[]float64 `json:"embedding"`
}

type rawSnapshot struct {
	Model  string     `json:"model"`
	Dim    int        `json:"dim"`
	Chunks []rawChunk `json:"chunks"`
}

// Load reads and validates a snapshot file. On any failure the returned
// index has OK=false, no chunks and dim 0; the error carries the cause
// for logging.
func Load(path string) (domain.Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Index{}, fmt.Errorf("read snapshot: %w", err)
	}
	return Parse(data)
}

// Parse validates a serialized snapshot.
func Parse(data []byte) (domain.Index, error) {
	var raw rawSnapshot
	if err := json.Unmarshal(data, &raw); err != nil {
		return domain.Index{}, fmt.Errorf("parse snapshot: %w", err)
	}

	if raw.Dim <= 0 {
		return domain.Index{}, fmt.Errorf("invalid snapshot: dim %d", raw.Dim)
	}

	chunks := make([]domain.Chunk, 0, len(raw.Chunks))
	for i, rc := range raw.Chunks {
		if err := validate(rc); err != nil {
			return domain.Index{}, fmt.Errorf("invalid chunk %d: %w", i, err)
		}
		if len(*rc.Embedding) != raw.Dim {
			return domain.Index{}, fmt.Errorf("invalid chunk %d: embedding dimension %d, index dimension %d",
				i, len(*rc.Embedding), raw.Dim)
		}
		chunks = append(chunks, domain.Chunk{
			ID:        *rc.ID,
			DocID:     *rc.DocID,
			Title:     *rc.Title,
			URL:       rc.URL,
			Tags:      *rc.Tags,
			Text:      *rc.Text,
			Embedding: *rc.Embedding,
		})
	}

	return domain.Index{
		OK:     true,
		Model:  raw.Model,
		Dim:    raw.Dim,
		Chunks: chunks,
	}, nil
}

func validate(rc rawChunk) error {
	switch {
	case rc.ID == nil:
		return fmt.Errorf("missing id")
	case rc.DocID == nil:
		return fmt.Errorf("missing docId")
	case rc.Title == nil:
		return fmt.Errorf("missing title")
	case rc.Tags == nil:
		return fmt.Errorf("missing tags")
	case rc.Text == nil:
		return fmt.Errorf("missing text")
	case rc.Embedding == nil:
		return fmt.Errorf("missing embedding")
	}
	return nil
}

// Write serializes a snapshot to path, creating parent directories.
func Write(path string, snap Snapshot) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
