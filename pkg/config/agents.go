package config

import (
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// AgentMap is the external category->agent mapping. The registry is
// validated against it at startup so unknown agent ids cannot survive
// initialization.
type AgentMap struct {
	Agents map[string]AgentInfo `yaml:"agents"`
}

// AgentInfo holds metadata about a downstream agent.
type AgentInfo struct {
	Description string `yaml:"description"`
	Endpoint    string `yaml:"endpoint,omitempty"`
}

// LoadAgentMap reads an agent map from a YAML file.
func LoadAgentMap(path string) (*AgentMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m AgentMap
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}

	if m.Agents == nil {
		m.Agents = make(map[string]AgentInfo)
	}

	return &m, nil
}

// LoadAgentMapWithFallback loads the agent map from the user config dir,
// then the provided default path, then the built-in defaults.
func LoadAgentMapWithFallback(defaultPath string) (*AgentMap, error) {
	home, err := os.UserHomeDir()
	if err == nil {
		userPath := filepath.Join(home, ".intentgate", "agents.yaml")
		if _, err := os.Stat(userPath); err == nil {
			return LoadAgentMap(userPath)
		}
	}

	if defaultPath != "" {
		if _, err := os.Stat(defaultPath); err == nil {
			return LoadAgentMap(defaultPath)
		}
	}

	return DefaultAgentMap(), nil
}

// Has reports whether an agent id is known. Satisfies registry.AgentResolver.
func (m *AgentMap) Has(agentID string) bool {
	if m == nil || m.Agents == nil {
		return false
	}
	_, ok := m.Agents[agentID]
	return ok
}

// Describe returns the description for an agent id, if known.
func (m *AgentMap) Describe(agentID string) string {
	if m == nil || m.Agents == nil {
		return ""
	}
	return m.Agents[agentID].Description
}

// IDs returns the sorted list of agent ids.
func (m *AgentMap) IDs() []string {
	if m == nil || m.Agents == nil {
		return nil
	}
	ids := make([]string, 0, len(m.Agents))
	for id := range m.Agents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// DefaultAgentMap returns the built-in agent map matching the default
// category dataset.
func DefaultAgentMap() *AgentMap {
	return &AgentMap{
		Agents: map[string]AgentInfo{
			"agent.hours":     {Description: "Answers opening hours questions from the hours API"},
			"agent.rooms":     {Description: "Books and manages study room reservations"},
			"agent.equipment": {Description: "Handles equipment checkout and returns"},
			"agent.guides":    {Description: "Surfaces research guides and database access help"},
			"agent.catalog":   {Description: "Searches the catalog and places holds"},
			"agent.reference": {Description: "Hands off to a librarian or subject specialist"},
			"agent.redirect":  {Description: "Politely redirects requests outside the assistant's scope"},
		},
	}
}
