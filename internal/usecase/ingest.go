package usecase

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"assistant/internal/adapter/kb"
	"assistant/internal/domain"
	"assistant/internal/port"
)

// Chunking defaults: target size and overlap between consecutive
// chunks of the same document, in approximate tokens.
const (
	DefaultChunkTokens  = 800
	DefaultChunkOverlap = 120

	// Safety cap on a single chunk before embedding.
	maxChunkChars = 8000
)

// SourceDoc is one source document before chunking.
type SourceDoc struct {
	ID    string
	Title string
	URL   *string
	Tags  []string
	Text  string
}

// IngestUseCase builds the knowledge-base snapshot: chunk each source
// document, embed every chunk, record the shared dimension.
type IngestUseCase struct {
	embedder     port.Embedder
	chunkTokens  int
	chunkOverlap int
}

func NewIngestUseCase(embedder port.Embedder, chunkTokens, chunkOverlap int) *IngestUseCase {
	if chunkTokens <= 0 {
		chunkTokens = DefaultChunkTokens
	}
	if chunkOverlap <= 0 {
		chunkOverlap = DefaultChunkOverlap
	}
	return &IngestUseCase{
		embedder:     embedder,
		chunkTokens:  chunkTokens,
		chunkOverlap: chunkOverlap,
	}
}

// Run chunks and embeds all documents. progress, when non-nil, is
// called after each embedded chunk with (done, total).
func (u *IngestUseCase) Run(ctx context.Context, docs []SourceDoc, progress func(done, total int)) (kb.Snapshot, error) {
	type pending struct {
		doc  SourceDoc
		seq  int
		text string
	}

	var work []pending
	for _, doc := range docs {
		for i, text := range ChunkText(doc.Text, u.chunkTokens, u.chunkOverlap) {
			if len(text) > maxChunkChars {
				text = text[:maxChunkChars]
			}
			work = append(work, pending{doc: doc, seq: i, text: text})
		}
	}
	if len(work) == 0 {
		return kb.Snapshot{}, fmt.Errorf("no chunks produced from %d documents", len(docs))
	}

	chunks := make([]domain.Chunk, 0, len(work))
	for i, p := range work {
		vecs, err := u.embedder.Embed(ctx, []string{p.text})
		if err != nil {
			return kb.Snapshot{}, fmt.Errorf("embed chunk %s::%d: %w", p.doc.ID, p.seq, err)
		}
		if len(vecs) == 0 || len(vecs[0]) == 0 {
			return kb.Snapshot{}, fmt.Errorf("empty embedding for chunk %s::%d", p.doc.ID, p.seq)
		}

		tags := p.doc.Tags
		if tags == nil {
			tags = []string{}
		}
		chunks = append(chunks, domain.Chunk{
			ID:        fmt.Sprintf("%s::%d", p.doc.ID, p.seq),
			DocID:     p.doc.ID,
			Title:     p.doc.Title,
			URL:       p.doc.URL,
			Tags:      tags,
			Text:      p.text,
			Embedding: vecs[0],
		})

		if progress != nil {
			progress(i+1, len(work))
		}
	}

	return kb.Snapshot{
		Model:  u.embedder.ModelName(),
		Dim:    len(chunks[0].Embedding),
		Chunks: chunks,
	}, nil
}

// ChunkText splits text into word-boundary chunks of roughly
// chunkTokens approximate tokens, carrying overlapTokens worth of
// trailing words into the next chunk so context is not cut mid-thought.
func ChunkText(text string, chunkTokens, overlapTokens int) []string {
	approx := func(s string) int { return (len(s) + 3) / 4 }

	words := strings.Split(text, " ")
	var chunks []string
	var cur []string
	curTokens := 0

	for _, w := range words {
		t := approx(w + " ")
		if curTokens+t > chunkTokens && len(cur) > 0 {
			chunks = append(chunks, strings.TrimSpace(strings.Join(cur, " ")))

			keep := overlapTokens * 4 / 5
			if keep > len(cur) {
				keep = len(cur)
			}
			cur = append([]string(nil), cur[len(cur)-keep:]...)
			curTokens = approx(strings.Join(cur, " "))
		}
		cur = append(cur, w)
		curTokens += t
	}
	if len(cur) > 0 {
		if chunk := strings.TrimSpace(strings.Join(cur, " ")); chunk != "" {
			chunks = append(chunks, chunk)
		}
	}

	return chunks
}

// LoadDocs reads the given files (relative to root) into source
// documents. The document ID is derived from the path; the title is
// the first markdown heading, falling back to the file name.
func LoadDocs(root string, paths []string) ([]SourceDoc, error) {
	docs := make([]SourceDoc, 0, len(paths))
	for _, rel := range paths {
		data, err := os.ReadFile(filepath.Join(root, rel))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", rel, err)
		}
		text := strings.TrimSpace(string(data))
		if text == "" {
			continue
		}
		docs = append(docs, SourceDoc{
			ID:    docID(rel),
			Title: docTitle(rel, text),
			Tags:  []string{},
			Text:  text,
		})
	}
	return docs, nil
}

func docID(rel string) string {
	id := strings.TrimSuffix(rel, filepath.Ext(rel))
	return strings.ReplaceAll(filepath.ToSlash(id), "/", "-")
}

func docTitle(rel, text string) string {
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "#") {
			return strings.TrimSpace(strings.TrimLeft(line, "#"))
		}
	}
	base := filepath.Base(rel)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
