package config

import (
	"testing"
)

func validConfig() Config {
	return Config{
		HTTP: HTTPConfig{Port: 8080},
		Embedding: EmbeddingConfig{
			BaseURL: "http://localhost:8081/v1",
			Model:   "all-MiniLM-L6-v2",
		},
		LLM: LLMConfig{
			Primary: LLMTierConfig{
				BaseURL: "http://localhost:1234/v1",
				Model:   "qwen2.5-7b-instruct",
			},
		},
	}
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_PortRange(t *testing.T) {
	for _, port := range []int{0, -1, 70000} {
		cfg := validConfig()
		cfg.HTTP.Port = port
		if err := cfg.Validate(); err == nil {
			t.Errorf("expected error for port %d", port)
		}
	}
}

func TestValidate_RequiredFields(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"embedding base_url", func(c *Config) { c.Embedding.BaseURL = "" }},
		{"embedding model", func(c *Config) { c.Embedding.Model = "" }},
		{"primary base_url", func(c *Config) { c.LLM.Primary.BaseURL = "" }},
		{"primary model", func(c *Config) { c.LLM.Primary.Model = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidate_SecondaryNeedsKeyWhenEnabled(t *testing.T) {
	cfg := validConfig()
	cfg.LLM.Secondary.Enabled = true
	cfg.LLM.Secondary.APIKey = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for enabled secondary without api key")
	}

	cfg.LLM.Secondary.APIKey = "sk-test"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := validConfig()
	cfg.ApplyDefaults()

	if cfg.Embedding.Dimensions != 384 {
		t.Errorf("dimensions = %d", cfg.Embedding.Dimensions)
	}
	if cfg.Ingest.ChunkSizeWords != 400 {
		t.Errorf("chunk size = %d", cfg.Ingest.ChunkSizeWords)
	}
	if cfg.Ingest.OverlapSentences != 3 {
		t.Errorf("overlap = %d", cfg.Ingest.OverlapSentences)
	}
	if cfg.Analysis.RetrieveTopK != 10 {
		t.Errorf("top k = %d", cfg.Analysis.RetrieveTopK)
	}
	if cfg.Analysis.PromptChunkLimit != 5 {
		t.Errorf("prompt limit = %d", cfg.Analysis.PromptChunkLimit)
	}
	if cfg.LLM.Primary.TimeoutSec != 30 {
		t.Errorf("primary timeout = %d", cfg.LLM.Primary.TimeoutSec)
	}
	if cfg.LLM.Secondary.Model != "gpt-4o-mini" {
		t.Errorf("secondary model = %q", cfg.LLM.Secondary.Model)
	}
	if cfg.Storage.CollectionName != "regulations" {
		t.Errorf("collection = %q", cfg.Storage.CollectionName)
	}
}

func TestApplyDefaults_SecondaryInheritsPrimary(t *testing.T) {
	cfg := validConfig()
	cfg.LLM.Primary.TimeoutSec = 45
	cfg.LLM.Primary.MaxTokens = 1234
	cfg.ApplyDefaults()

	if cfg.LLM.Secondary.TimeoutSec != 45 {
		t.Errorf("secondary timeout = %d", cfg.LLM.Secondary.TimeoutSec)
	}
	if cfg.LLM.Secondary.MaxTokens != 1234 {
		t.Errorf("secondary max tokens = %d", cfg.LLM.Secondary.MaxTokens)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("CIVIC_TEST_PORT", "9090")

	out := expandEnvVars([]byte("port: ${CIVIC_TEST_PORT}\nmodel: ${CIVIC_TEST_MISSING:-fallback}\n"))
	got := string(out)
	if got != "port: 9090\nmodel: fallback\n" {
		t.Errorf("expanded = %q", got)
	}
}
