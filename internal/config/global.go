package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// LocalConfigFile is looked up in the working directory.
	LocalConfigFile = "atlas.yml"
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "atlas"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
)

// Environment variables read by atlas.
const (
	EnvOpenAlexEmail = "OPENALEX_EMAIL"
	EnvGroqAPIKey    = "GROQ_API_KEY"
	EnvOpenAIAPIKey  = "OPENAI_API_KEY"
	EnvGeminiAPIKey  = "GEMINI_API_KEY"
)

// ErrMissingAPIKey is returned when the selected provider has no API key in the environment.
var ErrMissingAPIKey = errors.New("API key not set")

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/atlas/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// ResolvePath picks the config file to read: the explicit path if given (it must exist),
// else ./atlas.yml, else the global config. Returns "" when none exists.
func ResolvePath(explicit string) (string, error) {
	if explicit != "" {
		path := ExpandPath(explicit)
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("config file: %w", err)
		}
		return path, nil
	}

	for _, path := range []string{LocalConfigFile, GlobalConfigPath()} {
		if path == "" {
			continue
		}
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", nil
}

// APIKeyEnv returns the environment variable holding the key for an LLM or embedding provider.
// Providers that need no key return "".
func APIKeyEnv(provider string) string {
	switch provider {
	case ProviderGroq:
		return EnvGroqAPIKey
	case ProviderOpenAI:
		return EnvOpenAIAPIKey
	case ProviderGemini:
		return EnvGeminiAPIKey
	default:
		return ""
	}
}

// APIKey looks up the key for provider. Returns ErrMissingAPIKey naming the variable when unset.
func APIKey(provider string) (string, error) {
	env := APIKeyEnv(provider)
	if env == "" {
		return "", nil
	}
	key := strings.TrimSpace(os.Getenv(env))
	if key == "" {
		return "", fmt.Errorf("%w: set %s in the environment or a .env file", ErrMissingAPIKey, env)
	}
	return key, nil
}

// LLMAPIKey returns the key for the configured answer model.
func (c *AppConfig) LLMAPIKey() (string, error) {
	return APIKey(c.LLM.Provider)
}

// EmbeddingAPIKey returns the key for the configured embedding backend, "" for Ollama.
func (c *AppConfig) EmbeddingAPIKey() (string, error) {
	return APIKey(c.Embedding.Provider)
}

// HelpfulConfigMessage explains where atlas looks for configuration.
func HelpfulConfigMessage() string {
	configPath := GlobalConfigPath()
	return fmt.Sprintf(`atlas reads ./%s, then %s.

Tip: write the effective defaults to a file and edit it:
  mkdir -p %s
  atlas config > %s`,
		LocalConfigFile,
		configPath,
		filepath.Dir(configPath),
		configPath)
}
