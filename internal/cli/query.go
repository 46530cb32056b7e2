package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"assistant/internal/adapter/kb"
	"assistant/internal/usecase"
)

var (
	queryText string
	queryTopK int
	queryJSON bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Inspect retrieval for a query",
	Long: `Embed a query and print the top-scoring knowledge-base chunks.
Useful for tuning guardrail thresholds and checking what the chat
endpoint would ground its answer on.

Examples:
  assistant query -q "chat architecture"
  assistant query -q "what stack is used" --top-k 5 --json`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "query text (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of results (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.MarkFlagRequired("query")
}

type queryResult struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Score float64 `json:"score"`
	Text  string  `json:"text"`
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	idx, err := kb.Load(cfg.Ingest.Snapshot)
	if err != nil {
		return fmt.Errorf("no knowledge base at %s. Run 'assistant ingest' first: %w",
			cfg.Ingest.Snapshot, err)
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	topK := cfg.Retrieve.TopK
	if queryTopK > 0 {
		topK = queryTopK
	}

	retriever := usecase.NewRetrieveUseCase(embedder, idx, topK)
	retrieved, err := retriever.Retrieve(cmd.Context(), queryText, topK)
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	results := make([]queryResult, 0, len(retrieved))
	for _, r := range retrieved {
		results = append(results, queryResult{
			ID:    r.Chunk.ID,
			Title: r.Chunk.Title,
			Score: r.Score,
			Text:  r.Chunk.Text,
		})
	}

	if queryJSON {
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	fmt.Printf("Found %d results for: %s\n\n", len(results), queryText)
	for i, r := range results {
		preview := r.Text
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		fmt.Printf("%d. %s (score %.3f)\n   %s\n\n",
			i+1, r.Title, r.Score, strings.ReplaceAll(preview, "\n", " "))
	}
	return nil
}
