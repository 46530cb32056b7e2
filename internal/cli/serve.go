package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"assistant/config"
	"assistant/internal/adapter/analyzer"
	"assistant/internal/adapter/cache"
	"assistant/internal/adapter/kb"
	"assistant/internal/adapter/limiter"
	"assistant/internal/adapter/llm"
	"assistant/internal/domain"
	"assistant/internal/port"
	"assistant/internal/server"
	"assistant/internal/usecase"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chat HTTP API",
	Long: `Start the HTTP server exposing POST /api/chat and GET /healthz.
The knowledge-base snapshot is loaded once at startup; run 'assistant
ingest' beforehand to build it.

Examples:
  assistant serve
  assistant serve --addr :9090`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	setupLogging(cfg)

	idx, err := kb.Load(cfg.Ingest.Snapshot)
	if err != nil {
		// Serve with an empty index: every query lands in the refusal
		// band instead of surfacing partial or stale knowledge.
		slog.Warn("knowledge base unavailable, all queries will be refused",
			"path", cfg.Ingest.Snapshot, "error", err)
		idx = domain.Index{}
	} else {
		slog.Info("knowledge base loaded",
			"chunks", len(idx.Chunks), "dim", idx.Dim, "model", idx.Model)
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	var model port.ChatModel
	chatModel, err := llm.NewOpenAIChat(
		cfg.Embedding.APIKeyEnv,
		cfg.Chat.Model,
		cfg.Embedding.BaseURL,
		cfg.Chat.MaxTokens,
		float32(cfg.Chat.Temperature),
	)
	if err != nil {
		slog.Warn("chat model unavailable, generation requests will fail", "error", err)
	} else {
		model = chatModel
	}

	lim, closeLimiter, err := newLimiter(cfg)
	if err != nil {
		return fmt.Errorf("failed to create rate limiter: %w", err)
	}
	if closeLimiter != nil {
		defer closeLimiter()
	}

	retriever := usecase.NewRetrieveUseCase(embedder, idx, cfg.Retrieve.TopK)
	cached := cache.NewCachedRetriever(retriever, cache.NewQueryCache(
		cfg.Retrieve.CacheSize,
		time.Duration(cfg.Retrieve.CacheTTLSecs)*time.Second,
	))

	chat := usecase.NewChatUseCase(
		cached,
		newTokenCounter(cfg),
		usecase.NewGuard(cfg.Retrieve.OffTopic, cfg.Retrieve.NeedsClarify, cfg.Retrieve.MinQueryLen),
		usecase.Replies{
			OffTopic: cfg.Chat.OffTopicReply,
			Clarify:  cfg.Chat.ClarifyReply,
			Empty:    cfg.Chat.EmptyReply,
		},
		cfg.Chat.Owner,
		cfg.Retrieve.TopK,
		cfg.Pack.TokenBudget,
		usecase.WithHistoryBounds(cfg.Chat.HistoryLimit, cfg.Chat.ForwardLimit),
	)

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("listening", "addr", addr)
	return server.New(chat, model, lim, idx).Run(ctx, addr)
}

func newLimiter(cfg *config.Config) (port.Limiter, func() error, error) {
	window := time.Duration(cfg.RateLimit.WindowSecs) * time.Second
	if cfg.RateLimit.Backend == "bolt" {
		bl, err := limiter.NewBoltLimiter(cfg.RateLimit.Path, cfg.RateLimit.Limit, window)
		if err != nil {
			return nil, nil, err
		}
		return bl, bl.Close, nil
	}
	return limiter.NewFixedWindow(cfg.RateLimit.Limit, window), nil, nil
}

func newTokenCounter(cfg *config.Config) port.TokenCounter {
	if cfg.Pack.Tokenizer == "tiktoken" {
		counter, err := analyzer.NewTiktokenCounter(cfg.Chat.Model)
		if err == nil {
			return counter
		}
		slog.Warn("tiktoken unavailable, using heuristic counter", "error", err)
	}
	return analyzer.NewHeuristicCounter(cfg.Pack.CharsPerToken)
}

func setupLogging(cfg *config.Config) {
	var level slog.Level
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var out io.Writer = os.Stdout
	if cfg.Logging.Path != "" {
		out = &lumberjack.Logger{
			Filename:   cfg.Logging.Path,
			MaxSize:    50, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})))
}
