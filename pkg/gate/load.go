package gate

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadRules reads a rule set from a YAML file. Rule order in the file is the
// evaluation order.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, err
	}

	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, fmt.Errorf("gate: parse %s: %w", path, err)
	}

	for _, r := range rules.OutOfScope {
		if r.CategoryID == "" {
			return Rules{}, fmt.Errorf("gate: out_of_scope rule %q: category_id required", r.Name)
		}
		if len(r.Patterns) == 0 {
			return Rules{}, fmt.Errorf("gate: out_of_scope rule %q: at least one pattern required", r.Name)
		}
	}
	for _, r := range rules.Triage {
		if len(r.Patterns) == 0 {
			return Rules{}, fmt.Errorf("gate: triage rule %q: at least one pattern required", r.Name)
		}
	}
	for _, gr := range rules.Guardrails {
		if gr.CategoryID == "" || len(gr.RequireAny) == 0 {
			return Rules{}, fmt.Errorf("gate: guardrail needs category_id and require_any")
		}
	}

	return rules, nil
}
