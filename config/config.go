package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the assistant.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	Pack      PackConfig      `yaml:"pack"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Chat      ChatConfig      `yaml:"chat"`
	Ingest    IngestConfig    `yaml:"ingest"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig holds logging configuration. When Path is set, logs are
// written there with rotation instead of stdout.
type LoggingConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

// RateLimitConfig holds fixed-window rate limiting configuration.
// Backend is "memory" or "bolt"; Path is the bolt database file.
type RateLimitConfig struct {
	Limit      int    `yaml:"limit"`
	WindowSecs int    `yaml:"window_secs"`
	Backend    string `yaml:"backend"`
	Path       string `yaml:"path"`
}

// RetrieveConfig holds retrieval and guardrail configuration.
type RetrieveConfig struct {
	TopK         int     `yaml:"top_k"`
	OffTopic     float64 `yaml:"off_topic"`
	NeedsClarify float64 `yaml:"needs_clarify"`
	MinQueryLen  int     `yaml:"min_query_len"`
	CacheSize    int     `yaml:"cache_size"`
	CacheTTLSecs int     `yaml:"cache_ttl_secs"`
}

// PackConfig holds context assembly configuration. Tokenizer is
// "heuristic" (chars-per-token estimate) or "tiktoken".
type PackConfig struct {
	TokenBudget   int    `yaml:"token_budget"`
	CharsPerToken int    `yaml:"chars_per_token"`
	Tokenizer     string `yaml:"tokenizer"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"` // "openai" or "mock"
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
	BaseURL   string `yaml:"base_url"`
	Dimension int    `yaml:"dimension"`
}

// ChatConfig holds generation and canned-reply configuration.
type ChatConfig struct {
	Model        string  `yaml:"model"`
	MaxTokens    int     `yaml:"max_tokens"`
	Temperature  float64 `yaml:"temperature"`
	HistoryLimit int     `yaml:"history_limit"`
	ForwardLimit int     `yaml:"forward_limit"`
	Owner        string  `yaml:"owner"`
	OffTopicReply string `yaml:"off_topic_reply"`
	ClarifyReply  string `yaml:"clarify_reply"`
	EmptyReply    string `yaml:"empty_reply"`
}

// IngestConfig holds offline ingestion configuration.
type IngestConfig struct {
	DocsDir      string   `yaml:"docs_dir"`
	Includes     []string `yaml:"includes"`
	Excludes     []string `yaml:"excludes"`
	Snapshot     string   `yaml:"snapshot"`
	ChunkTokens  int      `yaml:"chunk_tokens"`
	ChunkOverlap int      `yaml:"chunk_overlap"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8080",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		RateLimit: RateLimitConfig{
			Limit:      10,
			WindowSecs: 60,
			Backend:    "memory",
			Path:       ".assistant/ratelimit.db",
		},
		Retrieve: RetrieveConfig{
			TopK:         10,
			OffTopic:     0.23,
			NeedsClarify: 0.30,
			MinQueryLen:  10,
			CacheSize:    100,
			CacheTTLSecs: 300,
		},
		Pack: PackConfig{
			TokenBudget:   1200,
			CharsPerToken: 4,
			Tokenizer:     "heuristic",
		},
		Embedding: EmbeddingConfig{
			Provider:  "openai",
			Model:     "text-embedding-3-small",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 1536,
		},
		Chat: ChatConfig{
			Model:        "gpt-4o-mini",
			MaxTokens:    500,
			Temperature:  0.7,
			HistoryLimit: 20,
			ForwardLimit: 10,
			Owner:        "the site owner",
			OffTopicReply: "I can only answer questions about this portfolio " +
				"(profile, projects, skills and ways of working). " +
				"Please rephrase your question.",
			ClarifyReply: "Could you clarify your question a little so it fits this portfolio?\n" +
				"Examples: \"Summarize the chat architecture\", \"What stack does the site use?\", " +
				"\"What AI improvements are planned?\".",
			EmptyReply: "I need a clear question or instruction.",
		},
		Ingest: IngestConfig{
			DocsDir:      "docs",
			Includes:     []string{"**/*.md", "**/*.txt"},
			Excludes:     []string{"**/node_modules/**", "**/.git/**"},
			Snapshot:     "data/kb_embeddings.json",
			ChunkTokens:  800,
			ChunkOverlap: 120,
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for assistant.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "assistant.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".assistant", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
