package llm

// Supported providers. ProviderNone disables generation and query embedding.
const (
	ProviderNone      Provider = ""
	ProviderOpenAI    Provider = "openai"
	ProviderOllama    Provider = "ollama"
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
)

// DefaultOllamaURL is the default URL for Ollama server
const DefaultOllamaURL = "http://localhost:11434"

// Default chat models.
const (
	DefaultOpenAIModel    = "gpt-5-mini-2025-08-07"
	DefaultOllamaModel    = "llama3.2"
	DefaultAnthropicModel = "claude-3-5-sonnet-latest"
	DefaultGeminiModel    = "gemini-2.0-flash"
)

// Default embedding models. The knowledge base artifacts must be built
// with the same model that embeds queries.
const (
	DefaultOpenAIEmbeddingModel = "text-embedding-3-small"
	DefaultOllamaEmbeddingModel = "nomic-embed-text"
	DefaultGeminiEmbeddingModel = "text-embedding-004"
)

// DefaultModelForProvider returns the default chat model for a provider.
func DefaultModelForProvider(p Provider) string {
	switch p {
	case ProviderOpenAI:
		return DefaultOpenAIModel
	case ProviderOllama:
		return DefaultOllamaModel
	case ProviderAnthropic:
		return DefaultAnthropicModel
	case ProviderGemini:
		return DefaultGeminiModel
	default:
		return ""
	}
}

// DefaultEmbeddingModelForProvider returns the default embedding model, or
// "" for providers without an embedding API.
func DefaultEmbeddingModelForProvider(p Provider) string {
	switch p {
	case ProviderOpenAI:
		return DefaultOpenAIEmbeddingModel
	case ProviderOllama:
		return DefaultOllamaEmbeddingModel
	case ProviderGemini:
		return DefaultGeminiEmbeddingModel
	default:
		return ""
	}
}
