package config

import (
	"fmt"
	"os"

	"github.com/zen-systems/intentgate/pkg/margin"
	"gopkg.in/yaml.v3"
)

// RoutingConfig holds the classification pipeline configuration.
type RoutingConfig struct {
	Margin           margin.Config `yaml:"margin"`
	TopK             int           `yaml:"top_k,omitempty"`
	FallbackCategory string        `yaml:"fallback_category,omitempty"`

	EmbedderProvider string `yaml:"embedder_provider,omitempty"`
	EmbedderModel    string `yaml:"embedder_model,omitempty"`
	EmbedTimeoutMs   int    `yaml:"embed_timeout_ms,omitempty"`

	ArbiterAdapter   string `yaml:"arbiter_adapter,omitempty"`
	ArbiterModel     string `yaml:"arbiter_model,omitempty"`
	ArbiterTimeoutMs int    `yaml:"arbiter_timeout_ms,omitempty"`

	RegistryPath string `yaml:"registry_path,omitempty"`
	AgentsPath   string `yaml:"agents_path,omitempty"`
	RulesPath    string `yaml:"rules_path,omitempty"`
}

// LoadRoutingConfig reads routing configuration from a YAML file. The
// returned config has defaults applied and has been validated; a threshold
// ordering violation is an error the caller must treat as fatal.
func LoadRoutingConfig(path string) (*RoutingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg RoutingConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyRoutingDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultRoutingConfig returns the default routing configuration.
func DefaultRoutingConfig() *RoutingConfig {
	cfg := &RoutingConfig{}
	applyRoutingDefaults(cfg)
	return cfg
}

// Validate checks the configuration invariants.
func (c *RoutingConfig) Validate() error {
	if err := c.Margin.Validate(); err != nil {
		return err
	}
	if c.TopK <= 0 {
		return fmt.Errorf("routing: top_k must be positive, got %d", c.TopK)
	}
	if c.EmbedTimeoutMs <= 0 || c.ArbiterTimeoutMs <= 0 {
		return fmt.Errorf("routing: provider timeouts must be positive")
	}
	return nil
}

func applyRoutingDefaults(cfg *RoutingConfig) {
	if cfg == nil {
		return
	}
	zero := margin.Config{}
	if cfg.Margin == zero {
		cfg.Margin = margin.DefaultConfig()
	}
	if cfg.TopK == 0 {
		cfg.TopK = 5
	}
	if cfg.FallbackCategory == "" {
		cfg.FallbackCategory = "librarian_referral"
	}
	if cfg.EmbedderProvider == "" {
		cfg.EmbedderProvider = "openai"
	}
	if cfg.EmbedTimeoutMs == 0 {
		cfg.EmbedTimeoutMs = 3000
	}
	if cfg.ArbiterAdapter == "" {
		cfg.ArbiterAdapter = "anthropic"
	}
	if cfg.ArbiterModel == "" {
		cfg.ArbiterModel = "claude-sonnet-4-20250514"
	}
	if cfg.ArbiterTimeoutMs == 0 {
		cfg.ArbiterTimeoutMs = 5000
	}
}
