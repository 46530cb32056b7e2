package usecase

import (
	"unicode/utf8"

	"assistant/internal/domain"
)

// Default guardrail thresholds against the best retrieval score.
const (
	DefaultOffTopic     = 0.23
	DefaultNeedsClarify = 0.30
	DefaultMinQueryLen  = 10
)

// Guard classifies a query as on-topic, needing clarification or
// off-topic from the top retrieval score. Two thresholds instead of one
// keep "clearly unrelated" apart from "ambiguously related", which
// refuses less and sends less noise to the generator.
type Guard struct {
	OffTopic     float64
	NeedsClarify float64
	MinQueryLen  int
}

func NewGuard(offTopic, needsClarify float64, minQueryLen int) Guard {
	if offTopic <= 0 {
		offTopic = DefaultOffTopic
	}
	if needsClarify <= 0 {
		needsClarify = DefaultNeedsClarify
	}
	if minQueryLen <= 0 {
		minQueryLen = DefaultMinQueryLen
	}
	return Guard{OffTopic: offTopic, NeedsClarify: needsClarify, MinQueryLen: minQueryLen}
}

// Classify routes by score band. Queries at or under MinQueryLen
// characters never get a hard refusal: a short query carries too little
// signal for the embedding score to be trusted, so it falls through to
// the clarify/on-topic bands. A failed embedding upstream yields score
// 0, which lands in the refusal band for substantive queries.
func (g Guard) Classify(topScore float64, query string) domain.Decision {
	queryLen := utf8.RuneCountInString(query)

	if topScore < g.OffTopic && queryLen > g.MinQueryLen {
		return domain.OffTopic
	}
	if topScore >= g.OffTopic && topScore < g.NeedsClarify {
		return domain.NeedsClarify
	}
	return domain.OnTopic
}
