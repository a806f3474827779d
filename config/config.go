package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the linecheck tool.
type Config struct {
	Mongo     MongoConfig     `yaml:"mongo"`
	Check     CheckConfig     `yaml:"check"`
	Search    SearchConfig    `yaml:"search"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Snapshot  SnapshotConfig  `yaml:"snapshot"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// MongoConfig holds the connection target.
type MongoConfig struct {
	URI         string `yaml:"uri"`
	URIEnv      string `yaml:"uri_env"` // Environment variable holding the connection string
	Database    string `yaml:"database"`
	Collection  string `yaml:"collection"`
	VectorIndex string `yaml:"vector_index"`
	TimeoutSec  int    `yaml:"timeout_sec"`
}

// CheckConfig holds the expectations the checklist verifies.
type CheckConfig struct {
	ExpectedDimension int `yaml:"expected_dimension"`
	SliceLength       int `yaml:"slice_length"`
	FindLimit         int `yaml:"find_limit"`
}

// SearchConfig holds similarity search defaults.
type SearchConfig struct {
	NumCandidates int `yaml:"num_candidates"`
	Limit         int `yaml:"limit"`
}

// EmbeddingConfig holds the provider used to embed text queries.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"` // "openai", "ollama", "mock"
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
	BaseURL   string `yaml:"base_url"`
	Dimension int    `yaml:"dimension"`
}

// SnapshotConfig holds local snapshot settings.
type SnapshotConfig struct {
	Path     string   `yaml:"path"`
	Includes []string `yaml:"includes"` // Book title globs
	Excludes []string `yaml:"excludes"`
	MaxLines int      `yaml:"max_lines"` // 0 = no limit
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Env   string `yaml:"env"` // local, dev, prod
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Mongo: MongoConfig{
			URIEnv:      "MONGODB_URI",
			Database:    "stories",
			Collection:  "lines",
			VectorIndex: "vector_index",
			TimeoutSec:  30,
		},
		Check: CheckConfig{
			ExpectedDimension: 384,
			SliceLength:       5,
			FindLimit:         3,
		},
		Search: SearchConfig{
			NumCandidates: 100,
			Limit:         5,
		},
		Embedding: EmbeddingConfig{
			Provider:  "ollama",
			Model:     "all-minilm",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 384,
		},
		Snapshot: SnapshotConfig{
			Path: filepath.Join(".linecheck", "lines.db"),
		},
		Logging: LoggingConfig{
			Env:   "local",
			Level: "warn",
		},
	}
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars substitutes ${VAR} references with environment values.
func expandEnvVars(data []byte) []byte {
	return envVarPattern.ReplaceAllFunc(data, func(m []byte) []byte {
		name := envVarPattern.FindSubmatch(m)[1]
		return []byte(os.Getenv(string(name)))
	})
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(expandEnvVars(data), cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for linecheck.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "linecheck.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".linecheck", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.Mongo.Database == "" {
		return fmt.Errorf("mongo.database is required")
	}
	if c.Mongo.Collection == "" {
		return fmt.Errorf("mongo.collection is required")
	}
	if c.Mongo.TimeoutSec <= 0 {
		return fmt.Errorf("mongo.timeout_sec must be positive, got %d", c.Mongo.TimeoutSec)
	}
	if c.Check.ExpectedDimension <= 0 {
		return fmt.Errorf("check.expected_dimension must be positive, got %d", c.Check.ExpectedDimension)
	}
	if c.Check.SliceLength < 0 {
		return fmt.Errorf("check.slice_length must not be negative, got %d", c.Check.SliceLength)
	}
	if c.Check.FindLimit < 1 {
		return fmt.Errorf("check.find_limit must be at least 1, got %d", c.Check.FindLimit)
	}
	if c.Search.Limit < 1 || c.Search.NumCandidates < c.Search.Limit {
		return fmt.Errorf("search.num_candidates (%d) must be >= search.limit (%d) >= 1",
			c.Search.NumCandidates, c.Search.Limit)
	}
	switch c.Embedding.Provider {
	case "", "openai", "ollama", "mock":
	default:
		return fmt.Errorf("embedding.provider %q is not supported", c.Embedding.Provider)
	}
	return nil
}

// MongoURI resolves the connection string. The environment variable named by
// uri_env wins over a literal uri.
func (c *Config) MongoURI() (string, error) {
	if c.Mongo.URIEnv != "" {
		if uri := os.Getenv(c.Mongo.URIEnv); uri != "" {
			return uri, nil
		}
	}
	if c.Mongo.URI != "" {
		return c.Mongo.URI, nil
	}
	return "", fmt.Errorf("no MongoDB connection string: set %s or mongo.uri", c.Mongo.URIEnv)
}

// Namespace returns "database.collection".
func (c *Config) Namespace() string {
	return c.Mongo.Database + "." + c.Mongo.Collection
}
