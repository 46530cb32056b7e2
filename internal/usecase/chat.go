package usecase

import (
	"context"
	"log/slog"
	"strings"

	"assistant/internal/adapter/analyzer"
	"assistant/internal/domain"
	"assistant/internal/port"
)

// Default conversation bounds: how many inbound turns are accepted and
// how many are forwarded to generation.
const (
	DefaultHistoryLimit = 20
	DefaultForwardLimit = 10
)

// Replies holds the canned texts returned without invoking the
// language model.
type Replies struct {
	OffTopic string
	Clarify  string
	Empty    string
}

// Outcome is the prepared result for one chat request. When Canned is
// non-empty the caller returns it directly; otherwise Messages carries
// the system prompt plus bounded history for the generation call.
type Outcome struct {
	Decision domain.Decision
	Canned   string
	Messages []domain.ChatMessage
	Context  string
	TopScore float64
	Query    string
}

// ChatUseCase runs the retrieval pipeline for one request: sanitize the
// latest user turn, retrieve and rank, classify, assemble context.
type ChatUseCase struct {
	retriever    port.Retriever
	counter      port.TokenCounter
	guard        Guard
	replies      Replies
	owner        string
	topK         int
	tokenBudget  int
	historyLimit int
	forwardLimit int
}

type ChatOption func(*ChatUseCase)

func WithHistoryBounds(historyLimit, forwardLimit int) ChatOption {
	return func(u *ChatUseCase) {
		if historyLimit > 0 {
			u.historyLimit = historyLimit
		}
		if forwardLimit > 0 {
			u.forwardLimit = forwardLimit
		}
	}
}

func NewChatUseCase(
	retriever port.Retriever,
	counter port.TokenCounter,
	guard Guard,
	replies Replies,
	owner string,
	topK int,
	tokenBudget int,
	opts ...ChatOption,
) *ChatUseCase {
	u := &ChatUseCase{
		retriever:    retriever,
		counter:      counter,
		guard:        guard,
		replies:      replies,
		owner:        owner,
		topK:         topK,
		tokenBudget:  tokenBudget,
		historyLimit: DefaultHistoryLimit,
		forwardLimit: DefaultForwardLimit,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Prepare classifies the conversation's latest user turn and assembles
// everything the transport layer needs to respond. It never fails:
// retrieval errors degrade to score 0, which the guard routes to the
// refusal band for substantive queries.
func (u *ChatUseCase) Prepare(ctx context.Context, incoming []domain.ChatMessage) Outcome {
	if len(incoming) > u.historyLimit {
		incoming = incoming[len(incoming)-u.historyLimit:]
	}

	userText := analyzer.SanitizeUserText(lastUserContent(incoming))
	if userText == "" {
		return Outcome{Decision: domain.OnTopic, Canned: u.replies.Empty}
	}

	var (
		topScore     float64
		contextBlock string
	)
	retrieved, err := u.retriever.Retrieve(ctx, userText, u.topK)
	if err != nil {
		// Fail closed: the user sees the standard refusal for
		// substantive queries, but the cause is kept visible to
		// operators.
		slog.Error("retrieval failed, treating as no match", "error", err)
	} else if len(retrieved) > 0 {
		topScore = retrieved[0].Score
		contextBlock = BuildContext(retrieved, u.tokenBudget, u.counter)
	}

	decision := u.guard.Classify(topScore, userText)
	out := Outcome{
		Decision: decision,
		Context:  contextBlock,
		TopScore: topScore,
		Query:    userText,
	}

	switch decision {
	case domain.OffTopic:
		out.Canned = u.replies.OffTopic
	case domain.NeedsClarify:
		out.Canned = u.replies.Clarify
	default:
		out.Messages = u.messagesForGeneration(incoming, contextBlock)
	}
	return out
}

// messagesForGeneration splices the assembled context into a system
// instruction and appends the most recent non-system turns. Client
// system messages are dropped so they cannot override the instruction.
func (u *ChatUseCase) messagesForGeneration(incoming []domain.ChatMessage, contextBlock string) []domain.ChatMessage {
	if contextBlock == "" {
		contextBlock = "(No relevant context for this question.)"
	}

	system := domain.ChatMessage{
		Role: domain.RoleSystem,
		Content: strings.Join([]string{
			"You are the assistant for the portfolio of " + u.owner + ".",
			"Rules:",
			"- Answer ONLY when the topic is the portfolio (bio, projects, skills, architecture, ways of working).",
			"- Use EXCLUSIVELY the CONTEXT when it exists; if it is missing, say so explicitly.",
			"- Do not invent facts. Be brief, clear and useful.",
			"- Aim for 4-8 sentences. Use bullets when they improve readability.",
			"",
			"CONTEXT:",
			contextBlock,
		}, "\n"),
	}

	filtered := make([]domain.ChatMessage, 0, len(incoming))
	for _, m := range incoming {
		if m.Role != domain.RoleSystem {
			filtered = append(filtered, m)
		}
	}
	if len(filtered) > u.forwardLimit {
		filtered = filtered[len(filtered)-u.forwardLimit:]
	}

	return append([]domain.ChatMessage{system}, filtered...)
}

func lastUserContent(messages []domain.ChatMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == domain.RoleUser {
			return messages[i].Content
		}
	}
	return ""
}
