package registry

import (
	"os"
	"path/filepath"
	"testing"
)

// agentSet is a minimal AgentResolver for tests.
type agentSet map[string]bool

func (s agentSet) Has(agentID string) bool { return s[agentID] }

func validCategories() []Category {
	return []Category{
		{
			ID:          "hours",
			AgentID:     "agent.hours",
			Description: "Opening hours",
			Prototypes:  []Prototype{{Text: "what time does the library open"}},
		},
		{
			ID:          "room_booking",
			AgentID:     "agent.rooms",
			Description: "Study room reservations",
			Prototypes:  []Prototype{{Text: "book a study room"}},
		},
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name       string
		categories []Category
		wantErr    bool
	}{
		{
			name:       "valid categories",
			categories: validCategories(),
		},
		{
			name:    "empty list",
			wantErr: true,
		},
		{
			name: "missing id",
			categories: []Category{
				{AgentID: "agent.x", Prototypes: []Prototype{{Text: "hi"}}},
			},
			wantErr: true,
		},
		{
			name: "missing agent id",
			categories: []Category{
				{ID: "x", Prototypes: []Prototype{{Text: "hi"}}},
			},
			wantErr: true,
		},
		{
			name: "duplicate id",
			categories: []Category{
				{ID: "x", AgentID: "agent.x", Prototypes: []Prototype{{Text: "hi"}}},
				{ID: "x", AgentID: "agent.y", Prototypes: []Prototype{{Text: "yo"}}},
			},
			wantErr: true,
		},
		{
			name: "no prototypes",
			categories: []Category{
				{ID: "x", AgentID: "agent.x"},
			},
			wantErr: true,
		},
		{
			name: "blank prototype text",
			categories: []Category{
				{ID: "x", AgentID: "agent.x", Prototypes: []Prototype{{Text: "  "}}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.categories)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRegistry_Lookups(t *testing.T) {
	reg, err := New(validCategories())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if reg.Len() != 2 {
		t.Errorf("Len() = %d, want 2", reg.Len())
	}
	if !reg.Has("hours") || reg.Has("nonexistent") {
		t.Error("Has() gave wrong answers")
	}

	cat, ok := reg.Get("room_booking")
	if !ok || cat.AgentID != "agent.rooms" {
		t.Errorf("Get(room_booking) = %+v, %v", cat, ok)
	}

	if reg.Order("hours") != 0 || reg.Order("room_booking") != 1 {
		t.Error("Order() does not reflect declaration order")
	}
	if reg.Order("nonexistent") != -1 {
		t.Error("Order() for unknown id should be -1")
	}
}

func TestRegistry_ValidateAgents(t *testing.T) {
	reg, err := New(validCategories())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := reg.ValidateAgents(agentSet{"agent.hours": true, "agent.rooms": true}); err != nil {
		t.Errorf("ValidateAgents with complete map: %v", err)
	}

	err = reg.ValidateAgents(agentSet{"agent.hours": true})
	if err == nil {
		t.Fatal("ValidateAgents should fail with a missing agent")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "categories.yaml")
	data := []byte(`categories:
  - id: hours
    agent_id: agent.hours
    description: Opening hours
    prototypes:
      - text: what time does the library open
        priority: high
      - text: is the library open on sunday
  - id: catalog_search
    agent_id: agent.catalog
    prototypes:
      - text: find a book about economics
        action_based: true
`)
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("write dataset: %v", err)
	}

	reg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if reg.Len() != 2 {
		t.Errorf("Len() = %d, want 2", reg.Len())
	}

	cat, _ := reg.Get("hours")
	if len(cat.Prototypes) != 2 || cat.Prototypes[0].Priority != PriorityHigh {
		t.Errorf("hours prototypes parsed wrong: %+v", cat.Prototypes)
	}
	cat, _ = reg.Get("catalog_search")
	if !cat.Prototypes[0].ActionBased {
		t.Error("action_based flag not parsed")
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("categories: [{id: x}]"), 0600); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load should reject a category without agent_id")
	}
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Load should fail for a missing file")
	}
}

func TestHandle_Swap(t *testing.T) {
	first, _ := New(validCategories())
	h := NewHandle(first)

	if h.Current() != first {
		t.Fatal("Current() should return the initial registry")
	}

	second, _ := New([]Category{
		{ID: "only", AgentID: "agent.only", Prototypes: []Prototype{{Text: "hi"}}},
	})
	h.Swap(second)

	if h.Current() != second {
		t.Fatal("Current() should return the swapped registry")
	}
	if !h.Current().Has("only") || h.Current().Has("hours") {
		t.Error("swapped registry content wrong")
	}
}

func TestDefault(t *testing.T) {
	reg := Default()

	if reg.Len() == 0 {
		t.Fatal("default registry is empty")
	}
	for _, id := range []string{"hours", "room_booking", "equipment_checkout", "librarian_referral", "out_of_scope"} {
		if !reg.Has(id) {
			t.Errorf("default registry missing %q", id)
		}
	}
	for _, cat := range reg.Categories() {
		if len(cat.Prototypes) == 0 {
			t.Errorf("category %q has no prototypes", cat.ID)
		}
	}
}
