package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the civicassist API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Auth      AuthConfig      `yaml:"auth"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// StorageConfig holds on-disk storage settings.
type StorageConfig struct {
	VectorPath       string `yaml:"vector_path"`
	CollectionName   string `yaml:"collection_name"`
	ApplicationsPath string `yaml:"applications_path"`
}

// EmbeddingConfig holds embedding provider settings. The endpoint speaks
// the OpenAI embeddings API (local servers such as LocalAI or Ollama included).
type EmbeddingConfig struct {
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// LLMTierConfig holds one chat-completion endpoint of the gateway.
type LLMTierConfig struct {
	Enabled     bool    `yaml:"enabled"`
	BaseURL     string  `yaml:"base_url"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	TimeoutSec  int     `yaml:"timeout_sec"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float32 `yaml:"temperature"`
}

// LLMConfig holds the gateway tier settings.
type LLMConfig struct {
	Primary   LLMTierConfig `yaml:"primary"`
	Secondary LLMTierConfig `yaml:"secondary"`
}

// IngestConfig holds regulation ingestion settings.
type IngestConfig struct {
	RegulationsDir   string `yaml:"regulations_dir"`
	ChunkSizeWords   int    `yaml:"chunk_size_words"`
	OverlapSentences int    `yaml:"overlap_sentences"`
}

// AnalysisConfig holds retrieval settings for compliance analysis.
type AnalysisConfig struct {
	RetrieveTopK     int `yaml:"retrieve_top_k"`
	PromptChunkLimit int `yaml:"prompt_chunk_limit"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Storage.VectorPath == "" {
		c.Storage.VectorPath = "./data/vector_store"
	}
	if c.Storage.CollectionName == "" {
		c.Storage.CollectionName = "regulations"
	}
	if c.Storage.ApplicationsPath == "" {
		c.Storage.ApplicationsPath = "./data/applications"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 384
	}
	if c.LLM.Primary.TimeoutSec <= 0 {
		c.LLM.Primary.TimeoutSec = 30
	}
	if c.LLM.Primary.MaxTokens <= 0 {
		c.LLM.Primary.MaxTokens = 2000
	}
	if c.LLM.Primary.Temperature <= 0 {
		c.LLM.Primary.Temperature = 0.3
	}
	if c.LLM.Secondary.TimeoutSec <= 0 {
		c.LLM.Secondary.TimeoutSec = c.LLM.Primary.TimeoutSec
	}
	if c.LLM.Secondary.MaxTokens <= 0 {
		c.LLM.Secondary.MaxTokens = c.LLM.Primary.MaxTokens
	}
	if c.LLM.Secondary.Temperature <= 0 {
		c.LLM.Secondary.Temperature = c.LLM.Primary.Temperature
	}
	if c.LLM.Secondary.BaseURL == "" {
		c.LLM.Secondary.BaseURL = "https://api.openai.com/v1"
	}
	if c.LLM.Secondary.Model == "" {
		c.LLM.Secondary.Model = "gpt-4o-mini"
	}
	if c.Ingest.RegulationsDir == "" {
		c.Ingest.RegulationsDir = "./data/regulations"
	}
	if c.Ingest.ChunkSizeWords <= 0 {
		c.Ingest.ChunkSizeWords = 400
	}
	if c.Ingest.OverlapSentences <= 0 {
		c.Ingest.OverlapSentences = 3
	}
	if c.Analysis.RetrieveTopK <= 0 {
		c.Analysis.RetrieveTopK = 10
	}
	if c.Analysis.PromptChunkLimit <= 0 {
		c.Analysis.PromptChunkLimit = 5
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Embedding.BaseURL == "" {
		return fmt.Errorf("embedding.base_url is required")
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required")
	}
	if c.LLM.Primary.BaseURL == "" {
		return fmt.Errorf("llm.primary.base_url is required")
	}
	if c.LLM.Primary.Model == "" {
		return fmt.Errorf("llm.primary.model is required")
	}
	if c.LLM.Secondary.Enabled && c.LLM.Secondary.APIKey == "" {
		return fmt.Errorf("llm.secondary.api_key is required when the secondary tier is enabled")
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
