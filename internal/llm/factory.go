package llm

import (
	"fmt"
	"os"

	"github.com/ziadkadry99/docchat/internal/auth"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// NewProvider creates a new LLM provider based on the given provider type and model.
// Supported provider types: "google", "openai", "anthropic", "openrouter", "ollama".
// API keys come from the environment, falling back to keys stored with
// `docchat auth set`.
func NewProvider(providerType string, model string) (Provider, error) {
	switch providerType {
	case "ollama":
		host := os.Getenv("OLLAMA_HOST")
		if host == "" {
			host = "http://localhost:11434"
		}
		return NewOllamaProvider(host, model), nil
	case "google", "openai", "anthropic", "openrouter":
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}

	apiKey := auth.GetAPIKey(providerType)
	if apiKey == "" {
		return nil, fmt.Errorf("%s is not set; export it or run `docchat auth set %s`", auth.EnvVar(providerType), providerType)
	}

	switch providerType {
	case "google":
		return NewGoogleProvider(apiKey, model, ""), nil
	case "openai":
		return NewOpenAIProvider(apiKey, model, os.Getenv("OPENAI_BASE_URL")), nil
	case "anthropic":
		return NewAnthropicProvider(apiKey, model, ""), nil
	default:
		return newOpenAICompatible("openrouter", apiKey, model, openRouterBaseURL), nil
	}
}
