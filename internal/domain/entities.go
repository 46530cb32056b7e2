package domain

// Chunk is the atomic unit of retrieval: a bounded slice of a source
// document with its precomputed embedding. The JSON tags match the
// snapshot format written by the ingest command.
type Chunk struct {
	ID        string    `json:"id"`
	DocID     string    `json:"docId"`
	Title     string    `json:"title"`
	URL       *string   `json:"url"`
	Tags      []string  `json:"tags"`
	Text      string    `json:"text"`
	Embedding []float64 `json:"embedding"`
}

// Index is the immutable in-memory knowledge base. OK is false when the
// snapshot failed validation; a not-ok index yields no retrievals.
type Index struct {
	OK     bool
	Model  string
	Dim    int
	Chunks []Chunk
}

// Retrieval pairs a chunk with its cosine score for one query.
type Retrieval struct {
	Chunk Chunk
	Score float64
}

// Decision is the guardrail classification of a query.
type Decision string

const (
	OnTopic      Decision = "ON_TOPIC"
	NeedsClarify Decision = "NEEDS_CLARIFY"
	OffTopic     Decision = "OFF_TOPIC"
)

// ChatMessage is one turn of the conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// RateDecision is the outcome of a rate-limit admission check.
// ResetMillis is the time remaining until the current window resets.
type RateDecision struct {
	OK          bool
	Limit       int
	Remaining   int
	ResetMillis int64
}
