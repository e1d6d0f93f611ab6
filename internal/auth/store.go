// Package auth stores provider API keys so they need not live in the
// environment of every shell that runs docchat.
package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// envVars maps each provider that needs a key to the variable it is read from.
var envVars = map[string]string{
	"google":     "GOOGLE_API_KEY",
	"openai":     "OPENAI_API_KEY",
	"anthropic":  "ANTHROPIC_API_KEY",
	"openrouter": "OPENROUTER_API_KEY",
}

// APIKeyCredentials stores an API key for a provider.
type APIKeyCredentials struct {
	APIKey string `json:"api_key,omitempty"`
}

// Credentials holds stored keys keyed by provider name.
type Credentials struct {
	Keys map[string]APIKeyCredentials `json:"keys,omitempty"`
}

// Providers returns the provider names that take an API key, sorted.
func Providers() []string {
	names := make([]string, 0, len(envVars))
	for name := range envVars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EnvVar returns the environment variable holding the key for provider,
// or "" when the provider needs none.
func EnvVar(provider string) string {
	return envVars[provider]
}

// CredentialPath returns the path to the credentials file (~/.docchat/credentials.json).
func CredentialPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".docchat", "credentials.json"), nil
}

// Load reads the credentials file.
// Returns empty credentials if the file doesn't exist.
func Load() (*Credentials, error) {
	path, err := CredentialPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Credentials{Keys: map[string]APIKeyCredentials{}}, nil
		}
		return nil, fmt.Errorf("reading credentials: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parsing credentials: %w", err)
	}
	if creds.Keys == nil {
		creds.Keys = map[string]APIKeyCredentials{}
	}
	return &creds, nil
}

// Save writes credentials with owner-only permissions.
func Save(creds *Credentials) error {
	path, err := CredentialPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating credentials directory: %w", err)
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling credentials: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	return nil
}

// SetAPIKey stores key for provider.
func SetAPIKey(provider, key string) error {
	if EnvVar(provider) == "" {
		return fmt.Errorf("unknown provider %q", provider)
	}
	if key == "" {
		return fmt.Errorf("API key is required")
	}
	creds, err := Load()
	if err != nil {
		return err
	}
	creds.Keys[provider] = APIKeyCredentials{APIKey: key}
	return Save(creds)
}

// Remove deletes the stored key for provider, or every key when provider
// is empty.
func Remove(provider string) error {
	creds, err := Load()
	if err != nil {
		return err
	}
	if provider == "" {
		creds.Keys = map[string]APIKeyCredentials{}
	} else {
		if EnvVar(provider) == "" {
			return fmt.Errorf("unknown provider %q", provider)
		}
		delete(creds.Keys, provider)
	}
	return Save(creds)
}

// Source reports where the key for provider comes from: "env", "stored" or "".
func Source(provider string) string {
	if env := EnvVar(provider); env != "" && os.Getenv(env) != "" {
		return "env"
	}
	creds, err := Load()
	if err != nil {
		return ""
	}
	if creds.Keys[provider].APIKey != "" {
		return "stored"
	}
	return ""
}

// GetAPIKey returns the API key for the given provider.
// It checks the environment variable first, then falls back to stored credentials.
func GetAPIKey(provider string) string {
	env := EnvVar(provider)
	if env == "" {
		return ""
	}
	if key := os.Getenv(env); key != "" {
		return key
	}

	creds, err := Load()
	if err != nil {
		return ""
	}
	return creds.Keys[provider].APIKey
}
