package usecase

import (
	"fmt"
	"strings"

	"assistant/internal/domain"
	"assistant/internal/port"
)

// DefaultTokenBudget bounds the assembled context block.
const DefaultTokenBudget = 1200

// BuildContext packs retrievals into one text block under an
// approximate token budget. Packing is greedy in the given
// (score-descending) order and stops at the first block that would
// overflow: best matches are always included first, even if later
// smaller blocks could still have fit.
func BuildContext(retrieved []domain.Retrieval, tokenBudget int, counter port.TokenCounter) string {
	if tokenBudget <= 0 {
		tokenBudget = DefaultTokenBudget
	}

	var b strings.Builder
	used := 0
	for _, r := range retrieved {
		block := formatBlock(r)
		cost := counter.Count(block)
		if used+cost > tokenBudget {
			break
		}
		b.WriteString(block)
		used += cost
	}
	return b.String()
}

// formatBlock renders one chunk with its title heading and a trailing
// machine-readable citation marker.
func formatBlock(r domain.Retrieval) string {
	return fmt.Sprintf("### %s [KB]\n%s\n\n[[KB: %s | score: %.2f]]\n",
		r.Chunk.Title, r.Chunk.Text, r.Chunk.Title, r.Score)
}
