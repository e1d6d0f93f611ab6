package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"

	"github.com/ziadkadry99/docchat/internal/auth"
)

// RunWizard runs an interactive configuration wizard, saves the result to
// path and returns it.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to docchat! Let's configure your document assistant.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Chat provider.
	providerPrompt := promptui.Select{
		Label: "Select LLM provider",
		Items: []string{"google", "openai", "anthropic", "openrouter", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.Provider = ProviderType(providerStr)
	preset := GetPreset(cfg.Provider)

	modelPrompt := promptui.Prompt{
		Label:   "Chat model",
		Default: preset.Model,
	}
	if cfg.Model, err = modelPrompt.Run(); err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}

	// 2. Embeddings.
	cfg.EmbeddingProvider = embeddingProviderFor(cfg.Provider)
	embedPrompt := promptui.Select{
		Label:     "Select embedding provider",
		Items:     []string{"google", "openai", "ollama"},
		CursorPos: embeddingIndex(cfg.EmbeddingProvider),
	}
	_, embedStr, err := embedPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("embedding provider selection: %w", err)
	}
	cfg.EmbeddingProvider = ProviderType(embedStr)
	cfg.EmbeddingModel = GetPreset(cfg.EmbeddingProvider).EmbeddingModel

	// 3. Documents directory.
	docsPrompt := promptui.Prompt{
		Label:   "Documents directory",
		Default: cfg.DocsDir,
	}
	if cfg.DocsDir, err = docsPrompt.Run(); err != nil {
		return nil, fmt.Errorf("docs dir: %w", err)
	}

	// 4. Conversation history.
	historyPrompt := promptui.Select{
		Label: "Where should chat history be kept?",
		Items: []string{
			"memory - lost on restart",
			"sqlite - in the docchat database",
			"bolt   - in a separate bbolt file",
		},
	}
	historyIdx, _, err := historyPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("history backend: %w", err)
	}
	cfg.HistoryBackend = []HistoryBackend{HistoryMemory, HistorySQLite, HistoryBolt}[historyIdx]

	// 5. Port.
	portPrompt := promptui.Prompt{
		Label:   "HTTP port",
		Default: strconv.Itoa(cfg.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 || n > 65535 {
				return fmt.Errorf("enter a port between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Port, _ = strconv.Atoi(portStr)

	// 6. Extra exclude patterns.
	excludePrompt := promptui.Prompt{
		Label:   "Extra exclude patterns (comma-separated, leave blank for defaults)",
		Default: "",
	}
	excludeStr, err := excludePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("exclude patterns: %w", err)
	}
	if excludeStr != "" {
		cfg.Exclude = append(append([]string(nil), DefaultExcludes...), splitAndTrim(excludeStr)...)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Check for API keys.
	for _, p := range []ProviderType{cfg.Provider, cfg.EmbeddingProvider} {
		if envVar := APIKeyEnvVar(p); envVar != "" && auth.GetAPIKey(string(p)) == "" {
			fmt.Printf("\nNote: Set %s in your environment or .env, or run `docchat auth set %s`.\n", envVar, p)
		}
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

// embeddingProviderFor returns the default embedding provider for a chat
// provider. Providers without an embeddings API fall back to OpenAI.
func embeddingProviderFor(p ProviderType) ProviderType {
	switch p {
	case ProviderGoogle, ProviderOllama, ProviderOpenAI:
		return p
	default:
		return ProviderOpenAI
	}
}

func embeddingIndex(p ProviderType) int {
	switch p {
	case ProviderOpenAI:
		return 1
	case ProviderOllama:
		return 2
	default:
		return 0
	}
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}
