package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
	"kbsearch/internal/adapter/embedding"
	"kbsearch/internal/usecase"
)

// Config holds all configuration for kbsearch.
type Config struct {
	Corpus    CorpusConfig    `yaml:"corpus"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// CorpusConfig describes the on-disk knowledge base.
type CorpusConfig struct {
	Root      string   `yaml:"root"`
	Extension string   `yaml:"extension"`
	Excludes  []string `yaml:"excludes"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider    string `yaml:"provider"`    // "hash" or "openai"
	Model       string `yaml:"model"`       // e.g., "text-embedding-3-small"
	BaseURL     string `yaml:"base_url"`    // OpenAI-compatible endpoint, empty for api.openai.com
	APIKeyEnv   string `yaml:"api_key_env"` // Environment variable for API key
	Dimension   int    `yaml:"dimension"`
	BatchSize   int    `yaml:"batch_size"`
	Concurrency int    `yaml:"concurrency"`
	Seed        uint64 `yaml:"seed"`
	CachePath   string `yaml:"cache_path"` // BoltDB file for model outputs, empty disables
}

// SearchConfig holds query-time configuration.
type SearchConfig struct {
	CacheSize int `yaml:"cache_size"` // query cache entries, negative disables
}

// ServerConfig holds HTTP configuration.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Corpus: CorpusConfig{
			Root:      "knowledge_base",
			Extension: ".py",
			Excludes:  []string{"**/__pycache__/**", "**/.*/**"},
		},
		Embedding: EmbeddingConfig{
			Provider:    "hash",
			Model:       "text-embedding-3-small",
			APIKeyEnv:   "OPENAI_API_KEY",
			Dimension:   384,
			BatchSize:   64,
			Concurrency: 4,
			Seed:        42,
		},
		Search: SearchConfig{
			CacheSize: 256,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for kbsearch.yaml).
func LoadFromDir(dir string) (*Config, error) {
	// A .env next to the config may provide API keys and overrides.
	_ = godotenv.Load(filepath.Join(dir, ".env"))

	path := filepath.Join(dir, "kbsearch.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".kbsearch", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return Load("")
}

func (c *Config) applyEnv() {
	if v := os.Getenv("KBSEARCH_ROOT"); v != "" {
		c.Corpus.Root = v
	}
	if v := os.Getenv("KBSEARCH_PROVIDER"); v != "" {
		c.Embedding.Provider = v
	}
	if v := os.Getenv("KBSEARCH_MODEL"); v != "" {
		c.Embedding.Model = v
	}
	if v := os.Getenv("KBSEARCH_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Corpus.Root) == "" {
		return fmt.Errorf("corpus.root must be set")
	}
	if !strings.HasPrefix(c.Corpus.Extension, ".") || len(c.Corpus.Extension) < 2 {
		return fmt.Errorf("corpus.extension must look like \".py\", got %q", c.Corpus.Extension)
	}

	switch c.Embedding.Provider {
	case "hash":
		if c.Embedding.Dimension <= 0 {
			return fmt.Errorf("embedding.dimension must be positive for the hash provider")
		}
	case "openai":
		if c.Embedding.Model == "" {
			return fmt.Errorf("embedding.model must be set for the openai provider")
		}
	default:
		return fmt.Errorf("unsupported embedding provider: %q", c.Embedding.Provider)
	}
	if c.Embedding.BatchSize < 0 || c.Embedding.Concurrency < 0 {
		return fmt.Errorf("embedding.batch_size and embedding.concurrency must not be negative")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown logging.level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown logging.format %q", c.Logging.Format)
	}
	return nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// EmbeddingOptions maps the embedding section onto the model factory options.
func (c *Config) EmbeddingOptions() embedding.Options {
	e := c.Embedding
	return embedding.Options{
		Provider:    e.Provider,
		Model:       e.Model,
		BaseURL:     e.BaseURL,
		APIKeyEnv:   e.APIKeyEnv,
		Dimension:   e.Dimension,
		BatchSize:   e.BatchSize,
		Concurrency: e.Concurrency,
		Seed:        e.Seed,
		CachePath:   e.CachePath,
	}
}

// ServiceOptions maps the search section onto the service options.
func (c *Config) ServiceOptions() usecase.Options {
	return usecase.Options{
		BatchSize: c.Embedding.BatchSize,
		CacheSize: c.Search.CacheSize,
	}
}
