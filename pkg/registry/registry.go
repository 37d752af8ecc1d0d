package registry

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"gopkg.in/yaml.v3"
)

// Priority marks how representative a prototype is. It is used by dataset
// curation tooling only; runtime scoring ignores it.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Prototype is a curated example utterance representing a category.
type Prototype struct {
	Text        string   `yaml:"text" json:"text"`
	Priority    Priority `yaml:"priority,omitempty" json:"priority,omitempty"`
	ActionBased bool     `yaml:"action_based,omitempty" json:"action_based,omitempty"`
}

// Category is a routable outcome, mapped 1:1 to a downstream agent.
type Category struct {
	ID          string      `yaml:"id" json:"id"`
	AgentID     string      `yaml:"agent_id" json:"agent_id"`
	Description string      `yaml:"description,omitempty" json:"description,omitempty"`
	Prototypes  []Prototype `yaml:"prototypes" json:"prototypes"`
}

// AgentResolver reports whether an agent identifier is known to the external
// category->agent map.
type AgentResolver interface {
	Has(agentID string) bool
}

// Registry is the immutable table of categories. Declaration order is
// preserved and used as the deterministic tie-break for equal similarities.
type Registry struct {
	categories []Category
	byID       map[string]int
}

// New builds a registry from an ordered category list.
func New(categories []Category) (*Registry, error) {
	if len(categories) == 0 {
		return nil, fmt.Errorf("registry: no categories")
	}

	byID := make(map[string]int, len(categories))
	for i, cat := range categories {
		if strings.TrimSpace(cat.ID) == "" {
			return nil, fmt.Errorf("registry: categories[%d]: id required", i)
		}
		if strings.TrimSpace(cat.AgentID) == "" {
			return nil, fmt.Errorf("registry: category %q: agent_id required", cat.ID)
		}
		if _, dup := byID[cat.ID]; dup {
			return nil, fmt.Errorf("registry: duplicate category id %q", cat.ID)
		}
		if len(cat.Prototypes) == 0 {
			return nil, fmt.Errorf("registry: category %q: at least one prototype required", cat.ID)
		}
		for j, proto := range cat.Prototypes {
			if strings.TrimSpace(proto.Text) == "" {
				return nil, fmt.Errorf("registry: category %q: prototypes[%d]: text required", cat.ID, j)
			}
		}
		byID[cat.ID] = i
	}

	return &Registry{categories: categories, byID: byID}, nil
}

// Load reads a registry dataset from a YAML file.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file struct {
		Categories []Category `yaml:"categories"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("registry: parse %s: %w", path, err)
	}

	return New(file.Categories)
}

// Categories returns the categories in declaration order.
func (r *Registry) Categories() []Category {
	return r.categories
}

// Get returns the category with the given id.
func (r *Registry) Get(id string) (Category, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Category{}, false
	}
	return r.categories[i], true
}

// Has reports whether a category id exists.
func (r *Registry) Has(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// Order returns the declaration index of a category, or -1 if unknown.
func (r *Registry) Order(id string) int {
	i, ok := r.byID[id]
	if !ok {
		return -1
	}
	return i
}

// Len returns the number of categories.
func (r *Registry) Len() int {
	return len(r.categories)
}

// ValidateAgents checks that every category's agent id resolves in the
// external agent map. A failure here is a startup-time fatal.
func (r *Registry) ValidateAgents(agents AgentResolver) error {
	var missing []string
	for _, cat := range r.categories {
		if !agents.Has(cat.AgentID) {
			missing = append(missing, fmt.Sprintf("%s -> %s", cat.ID, cat.AgentID))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("registry: unknown agent ids: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Handle holds the current registry and supports atomic replacement, so an
// explicit reload can swap datasets without restarting. Readers always see a
// complete registry.
type Handle struct {
	ptr atomic.Pointer[Registry]
}

// NewHandle wraps a registry in a swappable handle.
func NewHandle(r *Registry) *Handle {
	h := &Handle{}
	h.ptr.Store(r)
	return h
}

// Current returns the registry currently in effect.
func (h *Handle) Current() *Registry {
	return h.ptr.Load()
}

// Swap atomically replaces the registry. The new registry must already be
// validated against the agent map.
func (h *Handle) Swap(r *Registry) {
	h.ptr.Store(r)
}
