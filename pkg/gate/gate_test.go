package gate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGate_Evaluate(t *testing.T) {
	g := New(DefaultRules())

	tests := []struct {
		name          string
		query         string
		forceCategory string
		forceTriage   bool
		rule          string
	}{
		{
			name:          "tech support forces out of scope",
			query:         "my printer is not working",
			forceCategory: "out_of_scope",
			rule:          "tech_support",
		},
		{
			name:          "password reset forces out of scope",
			query:         "can you reset my password",
			forceCategory: "out_of_scope",
			rule:          "tech_support",
		},
		{
			name:          "homework request forces out of scope",
			query:         "please do my homework for me",
			forceCategory: "out_of_scope",
			rule:          "homework",
		},
		{
			name:        "vague entry point triggers triage",
			query:       "who can I talk to about getting access",
			forceTriage: true,
			rule:        "ambiguous_entry",
		},
		{
			name:  "ordinary query passes through",
			query: "when does the library close on friday",
		},
		{
			name:  "pattern inside a longer word does not fire",
			query: "the networking group meets tuesday",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := g.Evaluate(tt.query)
			if v.ForceCategory != tt.forceCategory {
				t.Errorf("ForceCategory = %q, want %q", v.ForceCategory, tt.forceCategory)
			}
			if v.ForceTriage != tt.forceTriage {
				t.Errorf("ForceTriage = %v, want %v", v.ForceTriage, tt.forceTriage)
			}
			if v.Rule != tt.rule {
				t.Errorf("Rule = %q, want %q", v.Rule, tt.rule)
			}
		})
	}
}

func TestGate_OutOfScopeFirstMatchWins(t *testing.T) {
	g := New(Rules{
		OutOfScope: []PatternRule{
			{Name: "first", CategoryID: "cat_a", Patterns: []string{"shared phrase"}},
			{Name: "second", CategoryID: "cat_b", Patterns: []string{"shared phrase"}},
		},
	})

	v := g.Evaluate("this has the shared phrase in it")
	if v.ForceCategory != "cat_a" || v.Rule != "first" {
		t.Errorf("expected first rule to win, got category=%q rule=%q", v.ForceCategory, v.Rule)
	}
}

func TestGate_OutOfScopeShortCircuitsTriage(t *testing.T) {
	g := New(Rules{
		OutOfScope: []PatternRule{
			{Name: "oos", CategoryID: "out", Patterns: []string{"broken"}},
		},
		Triage: []PatternRule{
			{Name: "triage", Patterns: []string{"broken"}},
		},
	})

	v := g.Evaluate("my thing is broken")
	if v.ForceCategory != "out" {
		t.Errorf("ForceCategory = %q, want %q", v.ForceCategory, "out")
	}
	if v.ForceTriage {
		t.Error("triage should not fire when an out-of-scope rule matched")
	}
}

func TestGate_Guardrails(t *testing.T) {
	g := New(DefaultRules())

	tests := []struct {
		name    string
		query   string
		blocked bool
	}{
		{
			name:    "laptop without checkout verb blocks equipment",
			query:   "my laptop screen is cracked",
			blocked: true,
		},
		{
			name:    "borrow verb keeps equipment eligible",
			query:   "can i borrow a laptop charger",
			blocked: false,
		},
		{
			name:    "past tense verb keeps equipment eligible",
			query:   "how long can i keep a borrowed laptop",
			blocked: false,
		},
		{
			name:    "check out phrase keeps equipment eligible",
			query:   "where do i check out a camera",
			blocked: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := g.Evaluate(tt.query)
			if got := v.Blocked["equipment_checkout"]; got != tt.blocked {
				t.Errorf("Blocked[equipment_checkout] = %v, want %v", got, tt.blocked)
			}
		})
	}
}

func TestGate_Categories(t *testing.T) {
	g := New(DefaultRules())

	ids := g.Categories()
	want := map[string]bool{"out_of_scope": false, "equipment_checkout": false}
	for _, id := range ids {
		if _, ok := want[id]; ok {
			want[id] = true
		}
	}
	for id, seen := range want {
		if !seen {
			t.Errorf("Categories() missing %q", id)
		}
	}
}

func TestLoadRules(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	data := []byte(`out_of_scope:
  - name: tech_support
    category_id: out_of_scope
    patterns:
      - not working
      - reset my password
triage:
  - name: ambiguous_entry
    patterns:
      - i have a question
guardrails:
  - category_id: equipment_checkout
    require_any:
      - borrow
      - check out
`)
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("write rules: %v", err)
	}

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}

	g := New(rules)
	if v := g.Evaluate("the printer is not working"); v.ForceCategory != "out_of_scope" {
		t.Errorf("loaded out-of-scope rule did not fire: %+v", v)
	}
	if v := g.Evaluate("i have a question"); !v.ForceTriage {
		t.Error("loaded triage rule did not fire")
	}
	if v := g.Evaluate("laptop help"); !v.Blocked["equipment_checkout"] {
		t.Error("loaded guardrail did not block")
	}
}

func TestLoadRules_Invalid(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		data string
	}{
		{
			name: "out of scope without category",
			data: "out_of_scope:\n  - name: x\n    patterns: [a]\n",
		},
		{
			name: "rule without patterns",
			data: "triage:\n  - name: x\n",
		},
		{
			name: "guardrail without require_any",
			data: "guardrails:\n  - category_id: x\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "bad.yaml")
			if err := os.WriteFile(path, []byte(tt.data), 0600); err != nil {
				t.Fatalf("write rules: %v", err)
			}
			if _, err := LoadRules(path); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestContainsPhrase(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		phrase   string
		expected bool
	}{
		{
			name:     "match at start",
			query:    "borrow a laptop",
			phrase:   "borrow",
			expected: true,
		},
		{
			name:     "match in middle",
			query:    "can i borrow a laptop",
			phrase:   "borrow",
			expected: true,
		},
		{
			name:     "match at end",
			query:    "what can i borrow",
			phrase:   "borrow",
			expected: true,
		},
		{
			name:     "partial word prefix does not match",
			query:    "borrower services desk",
			phrase:   "borrow",
			expected: false,
		},
		{
			name:     "partial word suffix does not match",
			query:    "unborrow the item",
			phrase:   "borrow",
			expected: false,
		},
		{
			name:     "multi-word phrase",
			query:    "where do i check out a camera",
			phrase:   "check out",
			expected: true,
		},
		{
			name:     "punctuation after phrase",
			query:    "borrow, then return",
			phrase:   "borrow",
			expected: true,
		},
		{
			name:     "no match",
			query:    "library hours today",
			phrase:   "borrow",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// containsPhrase expects lowercase inputs
			got := containsPhrase(strings.ToLower(tt.query), tt.phrase)
			if got != tt.expected {
				t.Errorf("containsPhrase(%q, %q) = %v, want %v",
					tt.query, tt.phrase, got, tt.expected)
			}
		})
	}
}
