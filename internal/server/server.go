package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"assistant/internal/domain"
	"assistant/internal/port"
	"assistant/internal/usecase"
)

// Server exposes the chat pipeline over HTTP.
type Server struct {
	engine  *gin.Engine
	chat    *usecase.ChatUseCase
	model   port.ChatModel
	limiter port.Limiter
	index   domain.Index
}

func New(chat *usecase.ChatUseCase, model port.ChatModel, limiter port.Limiter, index domain.Index) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())

	s := &Server{
		engine:  engine,
		chat:    chat,
		model:   model,
		limiter: limiter,
		index:   index,
	}

	engine.POST("/api/chat", s.handleChat)
	engine.GET("/healthz", s.handleHealth)
	return s
}

// Handler returns the underlying HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until the context is cancelled, then shuts down with a
// short grace period for in-flight streams.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"index": gin.H{
			"loaded": s.index.OK,
			"chunks": len(s.index.Chunks),
			"dim":    s.index.Dim,
		},
	})
}
