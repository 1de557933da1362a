// Package config handles atlas configuration files and API key lookup.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/researchatlas/atlas/internal/embedding"
	"github.com/researchatlas/atlas/internal/llm"
)

// AppConfig is the full atlas configuration.
type AppConfig struct {
	OpenAlex  OpenAlexConfig  `yaml:"openalex" json:"openalex"`
	Output    OutputConfig    `yaml:"output" json:"output"`
	Index     IndexConfig     `yaml:"index" json:"index"`
	Embedding EmbeddingConfig `yaml:"embedding" json:"embedding"`
	LLM       LLMConfig       `yaml:"llm" json:"llm"`
}

// OpenAlexConfig controls the ranking fetch.
type OpenAlexConfig struct {
	BaseURL      string        `yaml:"base_url" json:"base_url"`
	Email        string        `yaml:"email,omitempty" json:"email,omitempty"`
	DomainID     int           `yaml:"domain_id" json:"domain_id"`
	Country      string        `yaml:"country" json:"country"`
	TopSubfields int           `yaml:"top_subfields" json:"top_subfields"`
	TopTopics    int           `yaml:"top_topics" json:"top_topics"`
	Concurrency  int           `yaml:"concurrency" json:"concurrency"`
	RateLimit    float64       `yaml:"rate_limit" json:"rate_limit"`
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`
}

// OutputConfig controls where ranking CSVs are written.
type OutputConfig struct {
	DataDir string `yaml:"data_dir" json:"data_dir"`
}

// IndexConfig controls the vector index location and staleness handling.
type IndexConfig struct {
	Dir         string `yaml:"dir" json:"dir"`
	StalePolicy string `yaml:"stale_policy" json:"stale_policy"`
}

// EmbeddingConfig selects the embedding backend.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider" json:"provider"`
	Model      string `yaml:"model" json:"model"`
	Dimensions int    `yaml:"dimensions" json:"dimensions"`
	BaseURL    string `yaml:"base_url,omitempty" json:"base_url,omitempty"`
}

// LLMConfig selects the answer model.
type LLMConfig struct {
	Provider    string  `yaml:"provider" json:"provider"`
	Model       string  `yaml:"model" json:"model"`
	BaseURL     string  `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	Temperature float64 `yaml:"temperature" json:"temperature"`
	TopK        int     `yaml:"top_k" json:"top_k"`
}

// Provider names.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
	ProviderGroq   = "groq"
	ProviderGemini = "gemini"
)

// Default values.
const (
	DefaultOpenAlexURL  = "https://api.openalex.org"
	DefaultDomainID     = 3
	DefaultCountry      = "US"
	DefaultTopSubfields = 10
	DefaultTopTopics    = 20
	DefaultConcurrency  = 1
	DefaultRateLimit    = 10.0
	DefaultTimeout      = 30 * time.Second
	DefaultDataDir      = "data"
	DefaultIndexDir     = "db/research_index"
	DefaultStalePolicy  = "keep"
	DefaultTopK         = 5
)

// ValidStalePolicies lists the accepted index.stale_policy values.
var ValidStalePolicies = []string{"keep", "rebuild", "fail"}

// Default returns the configuration used when no file is present.
func Default() *AppConfig {
	cfg := base()
	cfg.normalize()
	return cfg
}

// base holds the defaults a file is decoded over. Models are left empty so
// normalize can pick the default of whichever provider ends up selected.
func base() *AppConfig {
	return &AppConfig{
		OpenAlex: OpenAlexConfig{
			BaseURL:      DefaultOpenAlexURL,
			DomainID:     DefaultDomainID,
			Country:      DefaultCountry,
			TopSubfields: DefaultTopSubfields,
			TopTopics:    DefaultTopTopics,
			Concurrency:  DefaultConcurrency,
			RateLimit:    DefaultRateLimit,
			Timeout:      DefaultTimeout,
		},
		Output: OutputConfig{DataDir: DefaultDataDir},
		Index: IndexConfig{
			Dir:         DefaultIndexDir,
			StalePolicy: DefaultStalePolicy,
		},
		Embedding: EmbeddingConfig{Provider: ProviderOllama},
		LLM: LLMConfig{
			Provider:    ProviderGroq,
			Temperature: 0,
			TopK:        DefaultTopK,
		},
	}
}

// Parse decodes YAML over the defaults. Unknown keys are rejected.
func Parse(r io.Reader) (*AppConfig, error) {
	cfg := base()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

// LoadFile reads and parses the config file at path.
func LoadFile(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Load resolves the config file (see ResolvePath), parses it and applies the
// environment. It returns the path that was read, or "" when defaults were used.
func Load(explicit string) (*AppConfig, string, error) {
	path, err := ResolvePath(explicit)
	if err != nil {
		return nil, "", err
	}

	cfg := Default()
	if path != "" {
		if cfg, err = LoadFile(path); err != nil {
			return nil, "", err
		}
	}
	cfg.ApplyEnv()
	return cfg, path, nil
}

// ApplyEnv fills values that come from the environment.
func (c *AppConfig) ApplyEnv() {
	if c.OpenAlex.Email == "" {
		c.OpenAlex.Email = strings.TrimSpace(os.Getenv(EnvOpenAlexEmail))
	}
}

func (c *AppConfig) normalize() {
	c.OpenAlex.Country = strings.ToUpper(strings.TrimSpace(c.OpenAlex.Country))
	c.Index.StalePolicy = strings.ToLower(strings.TrimSpace(c.Index.StalePolicy))
	c.Embedding.Provider = strings.ToLower(strings.TrimSpace(c.Embedding.Provider))
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	c.Output.DataDir = ExpandPath(c.Output.DataDir)
	c.Index.Dir = ExpandPath(c.Index.Dir)

	if c.Embedding.Model == "" {
		switch c.Embedding.Provider {
		case ProviderOllama:
			c.Embedding.Model = embedding.DefaultModel
			if c.Embedding.Dimensions == 0 {
				c.Embedding.Dimensions = embedding.DefaultDimensions
			}
		case ProviderOpenAI:
			c.Embedding.Model = embedding.DefaultOpenAIModel
		}
	}
	if c.LLM.Model == "" {
		switch c.LLM.Provider {
		case ProviderGroq:
			c.LLM.Model = llm.DefaultGroqModel
		case ProviderOpenAI:
			c.LLM.Model = llm.DefaultOpenAIModel
		case ProviderGemini:
			c.LLM.Model = llm.DefaultGeminiModel
		}
	}
}

// FieldError reports one invalid configuration value.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Validate checks every field and returns all problems at once.
func (c *AppConfig) Validate() error {
	var result *multierror.Error
	fail := func(field, format string, args ...any) {
		result = multierror.Append(result, &FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	o := c.OpenAlex
	if o.BaseURL == "" {
		fail("openalex.base_url", "must not be empty")
	}
	if o.DomainID <= 0 {
		fail("openalex.domain_id", "must be positive, got %d", o.DomainID)
	}
	if len(o.Country) != 2 {
		fail("openalex.country", "must be a two-letter country code, got %q", o.Country)
	}
	if o.TopSubfields < 0 {
		fail("openalex.top_subfields", "must be >= 0, got %d", o.TopSubfields)
	}
	if o.TopTopics < 0 {
		fail("openalex.top_topics", "must be >= 0, got %d", o.TopTopics)
	}
	if o.Concurrency < 1 {
		fail("openalex.concurrency", "must be >= 1, got %d", o.Concurrency)
	}
	if o.RateLimit <= 0 {
		fail("openalex.rate_limit", "must be positive, got %g", o.RateLimit)
	}
	if o.Timeout <= 0 {
		fail("openalex.timeout", "must be positive, got %s", o.Timeout)
	}

	if c.Output.DataDir == "" {
		fail("output.data_dir", "must not be empty")
	}
	if c.Index.Dir == "" {
		fail("index.dir", "must not be empty")
	}
	if !contains(ValidStalePolicies, c.Index.StalePolicy) {
		fail("index.stale_policy", "invalid value %q (valid: %v)", c.Index.StalePolicy, ValidStalePolicies)
	}

	switch c.Embedding.Provider {
	case ProviderOllama, ProviderOpenAI:
	default:
		fail("embedding.provider", "invalid value %q (valid: [ollama openai])", c.Embedding.Provider)
	}
	if c.Embedding.Model == "" {
		fail("embedding.model", "must not be empty")
	}
	if c.LLM.Model == "" {
		fail("llm.model", "must not be empty")
	}
	if c.Embedding.Dimensions < 0 {
		fail("embedding.dimensions", "must be >= 0, got %d", c.Embedding.Dimensions)
	}

	switch c.LLM.Provider {
	case ProviderGroq, ProviderOpenAI, ProviderGemini:
	default:
		fail("llm.provider", "invalid value %q (valid: [groq openai gemini])", c.LLM.Provider)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		fail("llm.temperature", "must be between 0 and 2, got %g", c.LLM.Temperature)
	}
	if c.LLM.TopK < 1 {
		fail("llm.top_k", "must be >= 1, got %d", c.LLM.TopK)
	}

	return result.ErrorOrNil()
}

// YAML renders the configuration as a config file.
func (c *AppConfig) YAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return buf.Bytes(), nil
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
