package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGlobalConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	path := GlobalConfigPath()
	want := "/custom/config/atlas/config.yml"
	if path != want {
		t.Errorf("GlobalConfigPath() = %q, want %q", path, want)
	}

	// Test with empty XDG_CONFIG_HOME (should use ~/.config)
	t.Setenv("XDG_CONFIG_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}
	path = GlobalConfigPath()
	want = filepath.Join(home, ".config", "atlas", "config.yml")
	if path != want {
		t.Errorf("GlobalConfigPath() = %q, want %q", path, want)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestResolvePath_Order(t *testing.T) {
	xdg := t.TempDir()
	work := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Chdir(work)

	// Nothing present
	path, err := ResolvePath("")
	if err != nil || path != "" {
		t.Fatalf("ResolvePath() = %q, %v; want empty", path, err)
	}

	global := filepath.Join(xdg, "atlas", "config.yml")
	writeFile(t, global, "llm:\n  top_k: 3\n")
	if path, _ = ResolvePath(""); path != global {
		t.Errorf("ResolvePath() = %q, want global %q", path, global)
	}

	writeFile(t, filepath.Join(work, LocalConfigFile), "llm:\n  top_k: 4\n")
	if path, _ = ResolvePath(""); path != LocalConfigFile {
		t.Errorf("ResolvePath() = %q, want local %q", path, LocalConfigFile)
	}

	explicit := filepath.Join(work, "other.yml")
	writeFile(t, explicit, "")
	if path, _ = ResolvePath(explicit); path != explicit {
		t.Errorf("ResolvePath(explicit) = %q, want %q", path, explicit)
	}
}

func TestResolvePath_ExplicitMissing(t *testing.T) {
	if _, err := ResolvePath(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
		t.Error("ResolvePath() should fail when the explicit file is missing")
	}
}

func TestLoad_AppliesEnv(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())
	t.Setenv(EnvOpenAlexEmail, " me@example.org ")

	cfg, path, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if path != "" {
		t.Errorf("path = %q, want defaults", path)
	}
	if cfg.OpenAlex.Email != "me@example.org" {
		t.Errorf("email = %q", cfg.OpenAlex.Email)
	}
}

func TestLoad_FileEmailWins(t *testing.T) {
	t.Setenv(EnvOpenAlexEmail, "env@example.org")
	file := filepath.Join(t.TempDir(), "atlas.yml")
	writeFile(t, file, "openalex:\n  email: file@example.org\n")

	cfg, path, err := Load(file)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if path != file {
		t.Errorf("path = %q, want %q", path, file)
	}
	if cfg.OpenAlex.Email != "file@example.org" {
		t.Errorf("email = %q, want file value", cfg.OpenAlex.Email)
	}
}

func TestAPIKey(t *testing.T) {
	t.Setenv(EnvGroqAPIKey, "gsk-test")
	t.Setenv(EnvOpenAIAPIKey, "")
	t.Setenv(EnvGeminiAPIKey, "")

	key, err := APIKey(ProviderGroq)
	if err != nil || key != "gsk-test" {
		t.Errorf("APIKey(groq) = %q, %v", key, err)
	}

	_, err = APIKey(ProviderGemini)
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("APIKey(gemini) error = %v, want ErrMissingAPIKey", err)
	}
	if !strings.Contains(err.Error(), EnvGeminiAPIKey) {
		t.Errorf("error should name the variable: %v", err)
	}

	if key, err := APIKey(ProviderOllama); err != nil || key != "" {
		t.Errorf("APIKey(ollama) = %q, %v; want no key needed", key, err)
	}
}

func TestAppConfig_Keys(t *testing.T) {
	t.Setenv(EnvOpenAIAPIKey, "sk-test")
	t.Setenv(EnvGroqAPIKey, "")

	cfg := Default()
	if _, err := cfg.LLMAPIKey(); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("LLMAPIKey() error = %v, want ErrMissingAPIKey for groq", err)
	}
	if key, err := cfg.EmbeddingAPIKey(); err != nil || key != "" {
		t.Errorf("EmbeddingAPIKey() = %q, %v for ollama", key, err)
	}

	cfg.Embedding.Provider = ProviderOpenAI
	if key, err := cfg.EmbeddingAPIKey(); err != nil || key != "sk-test" {
		t.Errorf("EmbeddingAPIKey() = %q, %v", key, err)
	}
}

func TestHelpfulConfigMessage(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	msg := HelpfulConfigMessage()
	for _, want := range []string{LocalConfigFile, "/cfg/atlas/config.yml", "atlas config"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}
