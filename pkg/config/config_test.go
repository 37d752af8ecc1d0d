package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/zen-systems/intentgate/pkg/registry"
)

func setHomeEnv(t *testing.T, home string) {
	t.Helper()
	t.Setenv("HOME", home)
	if runtime.GOOS == "windows" {
		t.Setenv("USERPROFILE", home)
	}
}

func TestConfigEnvKeysOverrideFile(t *testing.T) {
	home := t.TempDir()
	setHomeEnv(t, home)

	configDir := filepath.Join(home, ".intentgate")
	if err := os.MkdirAll(configDir, 0700); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	data := []byte("api_keys:\n  anthropic: file-ant\n  openai: file-openai\n  google: file-google\n")
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), data, 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("ANTHROPIC_API_KEY", "env-ant")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AnthropicAPIKey != "env-ant" {
		t.Errorf("AnthropicAPIKey = %q, want env value", cfg.AnthropicAPIKey)
	}
	if cfg.OpenAIAPIKey != "file-openai" || cfg.GoogleAPIKey != "file-google" {
		t.Errorf("file keys not used as fallback: openai=%q google=%q", cfg.OpenAIAPIKey, cfg.GoogleAPIKey)
	}
}

func TestConfigDefaultsWithoutFiles(t *testing.T) {
	home := t.TempDir()
	setHomeEnv(t, home)
	t.Setenv("ANTHROPIC_API_KEY", "env-ant")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Routing == nil {
		t.Fatal("Routing defaults missing")
	}
	if cfg.Routing.TopK != 5 {
		t.Errorf("TopK = %d, want 5", cfg.Routing.TopK)
	}
	if cfg.Routing.FallbackCategory != "librarian_referral" {
		t.Errorf("FallbackCategory = %q", cfg.Routing.FallbackCategory)
	}
	if err := cfg.Routing.Validate(); err != nil {
		t.Errorf("default routing config invalid: %v", err)
	}

	if !cfg.HasAdapter("anthropic") || cfg.HasAdapter("openai") || cfg.HasAdapter("bogus") {
		t.Error("HasAdapter gave wrong answers")
	}
}

func TestLoadRoutingConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "routing.yaml")
	data := []byte(`margin:
  direct_score_threshold: 0.8
  direct_margin_threshold: 0.25
  low_conf_score_threshold: 0.6
  low_conf_margin_threshold: 0.12
  clarify_margin_threshold: 0.04
top_k: 3
embedder_provider: google
arbiter_adapter: openai
arbiter_model: gpt-5.2-instant
`)
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("write routing: %v", err)
	}

	cfg, err := LoadRoutingConfig(path)
	if err != nil {
		t.Fatalf("LoadRoutingConfig: %v", err)
	}
	if cfg.Margin.DirectScoreThreshold != 0.8 || cfg.TopK != 3 {
		t.Errorf("parsed config wrong: %+v", cfg)
	}
	if cfg.EmbedderProvider != "google" || cfg.ArbiterModel != "gpt-5.2-instant" {
		t.Errorf("provider settings wrong: %+v", cfg)
	}
	// Unset fields still get defaults.
	if cfg.FallbackCategory != "librarian_referral" || cfg.EmbedTimeoutMs != 3000 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoadRoutingConfig_RejectsBadThresholdOrdering(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "routing.yaml")
	data := []byte(`margin:
  direct_score_threshold: 0.75
  direct_margin_threshold: 0.20
  low_conf_score_threshold: 0.55
  low_conf_margin_threshold: 0.10
  clarify_margin_threshold: 0.30
`)
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("write routing: %v", err)
	}

	if _, err := LoadRoutingConfig(path); err == nil {
		t.Fatal("expected threshold ordering violation to be rejected")
	}
}

func TestAgentMap(t *testing.T) {
	m := DefaultAgentMap()

	if !m.Has("agent.hours") || m.Has("agent.ghost") {
		t.Error("Has gave wrong answers")
	}
	if m.Describe("agent.rooms") == "" {
		t.Error("Describe returned empty for a known agent")
	}
	ids := m.IDs()
	if len(ids) != len(m.Agents) {
		t.Errorf("IDs() returned %d entries, want %d", len(ids), len(m.Agents))
	}
	for i := 1; i < len(ids); i++ {
		if ids[i-1] >= ids[i] {
			t.Errorf("IDs() not sorted: %v", ids)
		}
	}
}

func TestLoadAgentMap(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agents.yaml")
	data := []byte(`agents:
  agent.hours:
    description: Hours agent
    endpoint: http://localhost:9001
  agent.rooms:
    description: Rooms agent
`)
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("write agents: %v", err)
	}

	m, err := LoadAgentMap(path)
	if err != nil {
		t.Fatalf("LoadAgentMap: %v", err)
	}
	if !m.Has("agent.hours") || !m.Has("agent.rooms") {
		t.Error("loaded agents missing")
	}
	if m.Agents["agent.hours"].Endpoint != "http://localhost:9001" {
		t.Errorf("endpoint = %q", m.Agents["agent.hours"].Endpoint)
	}
}

// The built-in dataset and the built-in agent map must stay consistent.
func TestDefaultAgentMapCoversDefaultRegistry(t *testing.T) {
	if err := registry.Default().ValidateAgents(DefaultAgentMap()); err != nil {
		t.Fatalf("default registry references unknown agents: %v", err)
	}
}
