// Package llm builds the generation and query-embedding clients from
// provider configuration using CloudWeGo Eino.
package llm

import (
	"context"
	"fmt"
	"os"

	geminiEmbed "github.com/cloudwego/eino-ext/components/embedding/gemini"
	ollamaEmbed "github.com/cloudwego/eino-ext/components/embedding/ollama"
	openaiEmbed "github.com/cloudwego/eino-ext/components/embedding/openai"
	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"

	"github.com/agrisense/advisor/internal/advisor"
)

// Provider identifies the LLM provider to use.
type Provider string

// Config holds configuration for the generation and embedding clients.
type Config struct {
	Provider       Provider
	Model          string // Chat model
	EmbeddingModel string // Query embedding model
	APIKey         string // Required for OpenAI, Anthropic and Gemini
	BaseURL        string // Ollama server or OpenAI-compatible endpoint
}

// Enabled reports whether a provider is configured.
func (c Config) Enabled() bool {
	return c.Provider != ProviderNone
}

// ValidateProvider checks if the given provider string is supported.
// The empty string is valid and means no provider.
func ValidateProvider(p string) (Provider, error) {
	switch Provider(p) {
	case ProviderNone, ProviderOpenAI, ProviderOllama, ProviderAnthropic, ProviderGemini:
		return Provider(p), nil
	default:
		return "", fmt.Errorf("unsupported provider: %s (supported: openai, ollama, anthropic, gemini)", p)
	}
}

func (c Config) requireKey() error {
	if c.APIKey != "" {
		return nil
	}
	switch c.Provider {
	case ProviderOpenAI:
		return fmt.Errorf("OpenAI API key is required")
	case ProviderAnthropic:
		return fmt.Errorf("anthropic API key is required")
	case ProviderGemini:
		return fmt.Errorf("gemini API key is required")
	}
	return nil
}

func (c Config) ollamaURL() string {
	if c.BaseURL == "" {
		return DefaultOllamaURL
	}
	return c.BaseURL
}

// The gemini extension reads its key from the environment.
func exportGeminiKey(key string) {
	_ = os.Setenv("GOOGLE_API_KEY", key)
	_ = os.Setenv("GEMINI_API_KEY", key)
}

// NewChatModel creates the Eino chat model for cfg.
func NewChatModel(ctx context.Context, cfg Config) (model.BaseChatModel, error) {
	if err := cfg.requireKey(); err != nil {
		return nil, err
	}
	name := cfg.Model
	if name == "" {
		name = DefaultModelForProvider(cfg.Provider)
	}

	switch cfg.Provider {
	case ProviderOpenAI:
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			Model:   name,
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
		})
	case ProviderOllama:
		return ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
			BaseURL: cfg.ollamaURL(),
			Model:   name,
		})
	case ProviderAnthropic:
		return claude.NewChatModel(ctx, &claude.Config{
			APIKey: cfg.APIKey,
			Model:  name,
		})
	case ProviderGemini:
		exportGeminiKey(cfg.APIKey)
		return gemini.NewChatModel(ctx, &gemini.Config{
			Model: name,
		})
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", cfg.Provider)
	}
}

// NewEmbeddingModel creates the Eino embedder used for query vectors.
func NewEmbeddingModel(ctx context.Context, cfg Config) (embedding.Embedder, error) {
	if err := cfg.requireKey(); err != nil {
		return nil, err
	}
	name := cfg.EmbeddingModel
	if name == "" {
		name = DefaultEmbeddingModelForProvider(cfg.Provider)
	}

	switch cfg.Provider {
	case ProviderOpenAI:
		return openaiEmbed.NewEmbedder(ctx, &openaiEmbed.EmbeddingConfig{
			Model:   name,
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
		})
	case ProviderOllama:
		return ollamaEmbed.NewEmbedder(ctx, &ollamaEmbed.EmbeddingConfig{
			BaseURL: cfg.ollamaURL(),
			Model:   name,
		})
	case ProviderGemini:
		exportGeminiKey(cfg.APIKey)
		return geminiEmbed.NewEmbedder(ctx, &geminiEmbed.EmbeddingConfig{
			Model: name,
		})
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %q", cfg.Provider)
	}
}

// NewGenerator returns the advice generator for cfg. Without a provider it
// returns advisor.Unavailable, so every request is answered from the
// template.
func NewGenerator(ctx context.Context, cfg Config) (advisor.Generator, error) {
	if !cfg.Enabled() {
		return advisor.Unavailable{}, nil
	}
	m, err := NewChatModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}
	return advisor.NewChatGenerator(m), nil
}

// NewQueryEmbedder returns the query embedder for cfg, or nil when no
// provider is configured or the provider has no embedding API. A nil
// embedder makes the engine rank on keywords alone.
func NewQueryEmbedder(ctx context.Context, cfg Config) (embedding.Embedder, error) {
	if !cfg.Enabled() || cfg.Provider == ProviderAnthropic {
		return nil, nil
	}
	e, err := NewEmbeddingModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create embedding model: %w", err)
	}
	return e, nil
}
