package kb

import (
	"os"
	"path/filepath"
	"testing"
)

const validSnapshot = `{
  "model": "text-embedding-3-small",
  "dim": 3,
  "chunks": [
    {
      "id": "bio::0",
      "docId": "bio",
      "title": "About",
      "url": null,
      "tags": ["bio"],
      "text": "Some biography text.",
      "embedding": [0.1, 0.2, 0.3]
    },
    {
      "id": "bio::1",
      "docId": "bio",
      "title": "About",
      "url": "https://example.com/about",
      "tags": [],
      "text": "More biography text.",
      "embedding": [0.3, 0.2, 0.1]
    }
  ]
}`

func TestParse_Valid(t *testing.T) {
	idx, err := Parse([]byte(validSnapshot))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !idx.OK {
		t.Fatal("expected OK index")
	}
	if idx.Dim != 3 {
		t.Errorf("expected dim 3, got %d", idx.Dim)
	}
	if len(idx.Chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(idx.Chunks))
	}
	if idx.Chunks[0].URL != nil {
		t.Error("expected nil URL for first chunk")
	}
	if idx.Chunks[1].URL == nil || *idx.Chunks[1].URL != "https://example.com/about" {
		t.Error("expected URL preserved for second chunk")
	}
	if idx.Chunks[0].ID != "bio::0" {
		t.Errorf("unexpected chunk id %q", idx.Chunks[0].ID)
	}
}

func TestParse_RejectsWholeSnapshot(t *testing.T) {
	cases := map[string]string{
		"missing text": `{"model":"m","dim":2,"chunks":[
			{"id":"a::0","docId":"a","title":"A","url":null,"tags":[],"embedding":[1,2]}]}`,
		"missing embedding": `{"model":"m","dim":2,"chunks":[
			{"id":"a::0","docId":"a","title":"A","url":null,"tags":[],"text":"t"}]}`,
		"dim mismatch": `{"model":"m","dim":3,"chunks":[
			{"id":"a::0","docId":"a","title":"A","url":null,"tags":[],"text":"t","embedding":[1,2]}]}`,
		"zero dim":     `{"model":"m","dim":0,"chunks":[]}`,
		"not json":     `{"model":`,
		"wrong types": `{"model":"m","dim":2,"chunks":[
			{"id":1,"docId":"a","title":"A","url":null,"tags":[],"text":"t","embedding":[1,2]}]}`,
	}

	for name, data := range cases {
		idx, err := Parse([]byte(data))
		if err == nil {
			t.Errorf("%s: expected error", name)
		}
		if idx.OK {
			t.Errorf("%s: expected not-ok index", name)
		}
		if len(idx.Chunks) != 0 || idx.Dim != 0 {
			t.Errorf("%s: expected empty index, got %d chunks dim %d", name, len(idx.Chunks), idx.Dim)
		}
	}
}

func TestParse_OneBadChunkRejectsAll(t *testing.T) {
	data := `{"model":"m","dim":2,"chunks":[
		{"id":"a::0","docId":"a","title":"A","url":null,"tags":[],"text":"good","embedding":[1,2]},
		{"id":"a::1","docId":"a","title":"A","url":null,"tags":[],"embedding":[1,2]}]}`

	idx, err := Parse([]byte(data))
	if err == nil {
		t.Fatal("expected error")
	}
	if idx.OK || len(idx.Chunks) != 0 {
		t.Error("a partial index must never be served")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	idx, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatal("expected error")
	}
	if idx.OK {
		t.Error("expected not-ok index")
	}
}

func TestWriteThenLoad(t *testing.T) {
	idx, err := Parse([]byte(validSnapshot))
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "data", "kb_embeddings.json")
	snap := Snapshot{Model: idx.Model, Dim: idx.Dim, Chunks: idx.Chunks}
	if err := Write(path, snap); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(loaded.Chunks) != len(idx.Chunks) || loaded.Dim != idx.Dim {
		t.Errorf("round trip mismatch: %d chunks dim %d", len(loaded.Chunks), loaded.Dim)
	}
}
