package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/agrisense/advisor/internal/llm"
)

// LoadLLMConfig loads LLM configuration from Viper and environment variables.
// Explicit config wins over provider environment variables. An empty
// provider is valid and disables generation and query embedding.
func LoadLLMConfig() (llm.Config, error) {
	provider, err := llm.ValidateProvider(strings.TrimSpace(viper.GetString("llm.provider")))
	if err != nil {
		return llm.Config{}, fmt.Errorf("invalid provider: %w", err)
	}
	if provider == llm.ProviderNone {
		return llm.Config{}, nil
	}

	model := viper.GetString("llm.model")
	if model == "" {
		model = llm.DefaultModelForProvider(provider)
	}

	embeddingModel := viper.GetString("llm.embedding_model")
	if embeddingModel == "" {
		embeddingModel = llm.DefaultEmbeddingModelForProvider(provider)
	}

	baseURL := viper.GetString("llm.base_url")
	if baseURL == "" && provider == llm.ProviderOllama {
		baseURL = llm.DefaultOllamaURL
	}

	return llm.Config{
		Provider:       provider,
		Model:          model,
		EmbeddingModel: embeddingModel,
		APIKey:         ResolveAPIKey(provider),
		BaseURL:        baseURL,
	}, nil
}

// ResolveAPIKey returns the API key for provider from llm.api_key, then
// the provider's usual environment variable.
func ResolveAPIKey(provider llm.Provider) string {
	if viper.IsSet("llm.api_key") {
		if key := strings.TrimSpace(viper.GetString("llm.api_key")); key != "" {
			return key
		}
	}
	return providerEnvKey(provider)
}

func providerEnvKey(provider llm.Provider) string {
	switch provider {
	case llm.ProviderOpenAI:
		return strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	case llm.ProviderAnthropic:
		return strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))
	case llm.ProviderGemini:
		key := strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
		if key == "" {
			key = strings.TrimSpace(os.Getenv("GOOGLE_API_KEY"))
		}
		return key
	default:
		return ""
	}
}
