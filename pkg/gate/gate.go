package gate

import (
	"strings"
)

// PatternRule matches a query against a set of phrases. Matching is
// case-insensitive with word boundaries on both ends of each phrase.
type PatternRule struct {
	Name       string   `yaml:"name"`
	Patterns   []string `yaml:"patterns"`
	CategoryID string   `yaml:"category_id,omitempty"`
}

// Guardrail blocks a category from semantic candidates unless the query
// contains one of the required phrases (typically action verbs).
type Guardrail struct {
	CategoryID string   `yaml:"category_id"`
	RequireAny []string `yaml:"require_any"`
}

// Rules is the ordered rule set the gate evaluates.
type Rules struct {
	// OutOfScope rules force a category and short-circuit the pipeline.
	// First match wins.
	OutOfScope []PatternRule `yaml:"out_of_scope"`
	// Triage rules skip semantic matching and hand the query straight to
	// the arbiter for clarification.
	Triage []PatternRule `yaml:"triage"`
	// Guardrails prune semantic candidates per category.
	Guardrails []Guardrail `yaml:"guardrails"`
}

// Verdict is the gate's output for one query.
type Verdict struct {
	// ForceCategory short-circuits all later stages when non-empty.
	ForceCategory string
	// ForceTriage skips semantic matching entirely.
	ForceTriage bool
	// Blocked categories are discarded from semantic candidates.
	Blocked map[string]bool
	// Rule names the rule that fired, for the decision reason.
	Rule string
}

// Gate is a pure pre-classifier over pattern rules. It performs no I/O and
// is safe for concurrent use.
type Gate struct {
	rules compiledRules
}

type compiledRules struct {
	outOfScope []compiledPattern
	triage     []compiledPattern
	guardrails []compiledGuardrail
}

type compiledPattern struct {
	name       string
	patterns   []string
	categoryID string
}

type compiledGuardrail struct {
	categoryID string
	requireAny []string
}

// New compiles a rule set into a gate. Rules keep their declared order.
func New(rules Rules) *Gate {
	g := &Gate{}
	for _, r := range rules.OutOfScope {
		g.rules.outOfScope = append(g.rules.outOfScope, compilePattern(r))
	}
	for _, r := range rules.Triage {
		g.rules.triage = append(g.rules.triage, compilePattern(r))
	}
	for _, gr := range rules.Guardrails {
		cg := compiledGuardrail{categoryID: gr.CategoryID}
		for _, p := range gr.RequireAny {
			cg.requireAny = append(cg.requireAny, strings.ToLower(p))
		}
		g.rules.guardrails = append(g.rules.guardrails, cg)
	}
	return g
}

func compilePattern(r PatternRule) compiledPattern {
	cp := compiledPattern{name: r.Name, categoryID: r.CategoryID}
	for _, p := range r.Patterns {
		cp.patterns = append(cp.patterns, strings.ToLower(p))
	}
	return cp
}

// Evaluate applies the rules to a query. It is a pure function of the query.
func (g *Gate) Evaluate(query string) Verdict {
	q := strings.ToLower(query)

	for _, rule := range g.rules.outOfScope {
		if rule.matches(q) {
			return Verdict{ForceCategory: rule.categoryID, Rule: rule.name}
		}
	}

	verdict := Verdict{Blocked: g.blockedCategories(q)}
	for _, rule := range g.rules.triage {
		if rule.matches(q) {
			verdict.ForceTriage = true
			verdict.Rule = rule.name
			break
		}
	}
	return verdict
}

// Categories returns every category id the rule set references, so callers
// can validate them against the registry at startup.
func (g *Gate) Categories() []string {
	var ids []string
	for _, r := range g.rules.outOfScope {
		if r.categoryID != "" {
			ids = append(ids, r.categoryID)
		}
	}
	for _, gr := range g.rules.guardrails {
		ids = append(ids, gr.categoryID)
	}
	return ids
}

func (cp compiledPattern) matches(query string) bool {
	for _, p := range cp.patterns {
		if containsPhrase(query, p) {
			return true
		}
	}
	return false
}

func (g *Gate) blockedCategories(query string) map[string]bool {
	var blocked map[string]bool
	for _, gr := range g.rules.guardrails {
		satisfied := false
		for _, p := range gr.requireAny {
			if containsPhrase(query, p) {
				satisfied = true
				break
			}
		}
		if !satisfied {
			if blocked == nil {
				blocked = make(map[string]bool)
			}
			blocked[gr.categoryID] = true
		}
	}
	return blocked
}

// containsPhrase checks if the query contains the phrase with word
// boundaries on both ends. Both inputs must already be lowercase.
func containsPhrase(query, phrase string) bool {
	idx := strings.Index(query, phrase)
	if idx == -1 {
		return false
	}

	if idx > 0 && isWordChar(query[idx-1]) {
		return false
	}

	endIdx := idx + len(phrase)
	if endIdx < len(query) && isWordChar(query[endIdx]) {
		return false
	}

	return true
}

func isWordChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_'
}
