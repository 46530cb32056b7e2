package server

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"assistant/internal/domain"
)

// chatRequest accepts both payload shapes: a full messages array, or a
// single message with optional prior history.
type chatRequest struct {
	Messages []domain.ChatMessage `json:"messages"`
	Message  string               `json:"message"`
	History  []domain.ChatMessage `json:"history"`
}

func (r *chatRequest) conversation() ([]domain.ChatMessage, bool) {
	if len(r.Messages) > 0 {
		for _, m := range r.Messages {
			if !validRole(m.Role) {
				return nil, false
			}
		}
		return r.Messages, true
	}
	if r.Message != "" {
		for _, m := range r.History {
			if !validRole(m.Role) {
				return nil, false
			}
		}
		return append(append([]domain.ChatMessage(nil), r.History...),
			domain.ChatMessage{Role: domain.RoleUser, Content: r.Message}), true
	}
	return nil, false
}

func validRole(role string) bool {
	switch role {
	case domain.RoleSystem, domain.RoleUser, domain.RoleAssistant:
		return true
	}
	return false
}

func (s *Server) handleChat(c *gin.Context) {
	// Malformed payloads are rejected before touching the limiter so a
	// broken client cannot burn the caller's quota.
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
		return
	}
	messages, ok := req.conversation()
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "payload must carry messages or a message"})
		return
	}

	if !s.admit(c) {
		return
	}

	out := s.chat.Prepare(c.Request.Context(), messages)
	if out.Canned != "" {
		c.String(http.StatusOK, out.Canned)
		return
	}

	if s.model == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "chat model not configured"})
		return
	}

	s.stream(c, out.Messages)
}

// admit runs the rate-limit check and writes the 429 response when the
// caller is over quota. A failing limiter backend admits the request.
func (s *Server) admit(c *gin.Context) bool {
	key := "ip:" + clientKey(c)
	decision, err := s.limiter.Check(key)
	if err != nil {
		slog.Error("rate limiter check failed, admitting request", "key", key, "error", err)
		return true
	}

	c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(decision.ResetMillis, 10))

	if decision.OK {
		return true
	}

	retryAfter := (decision.ResetMillis + 999) / 1000
	if retryAfter < 1 {
		retryAfter = 1
	}
	c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
	c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, slow down"})
	return false
}

func (s *Server) stream(c *gin.Context, messages []domain.ChatMessage) {
	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Header("Cache-Control", "no-cache, no-transform")
	c.Header("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)

	err := s.model.Stream(c.Request.Context(), messages, func(delta string) error {
		if _, werr := c.Writer.WriteString(delta); werr != nil {
			return werr
		}
		c.Writer.Flush()
		return nil
	})
	if err != nil {
		slog.Error("generation stream failed", "error", err)
		c.Writer.WriteString("\n\n[The answer was interrupted. Please try again.]")
		c.Writer.Flush()
	}
}
