package analyzer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultCharsPerToken is the rough average for Latin-script text. It
// under- or over-estimates for other scripts and dense punctuation,
// which is acceptable here: the count only bounds prompt growth.
const DefaultCharsPerToken = 4

// HeuristicCounter approximates token cost as ceil(len/charsPerToken).
type HeuristicCounter struct {
	charsPerToken int
}

func NewHeuristicCounter(charsPerToken int) *HeuristicCounter {
	if charsPerToken <= 0 {
		charsPerToken = DefaultCharsPerToken
	}
	return &HeuristicCounter{charsPerToken: charsPerToken}
}

func (c *HeuristicCounter) Count(text string) int {
	return (len(text) + c.charsPerToken - 1) / c.charsPerToken
}

// TiktokenCounter counts real BPE tokens for callers that want
// precision over the heuristic's speed.
type TiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

func NewTiktokenCounter(model string) (*TiktokenCounter, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer for %s: %w", model, err)
	}
	return &TiktokenCounter{enc: enc}, nil
}

func (c *TiktokenCounter) Count(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}
