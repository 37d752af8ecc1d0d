package gate

// DefaultRules returns the built-in rule set for the campus library
// assistant. Pattern lists come from observed misroutes; keep them short and
// specific, the semantic matcher handles the general case.
func DefaultRules() Rules {
	return Rules{
		OutOfScope: []PatternRule{
			{
				Name:       "tech_support",
				CategoryID: "out_of_scope",
				Patterns: []string{
					"not working",
					"reset my password",
					"won't turn on",
					"wifi is down",
					"blue screen",
					"fix my computer",
					"my laptop crashed",
				},
			},
			{
				Name:       "homework",
				CategoryID: "out_of_scope",
				Patterns: []string{
					"do my homework",
					"write my essay",
					"solve this problem for me",
					"answer these questions",
					"take my quiz",
				},
			},
		},
		Triage: []PatternRule{
			{
				Name: "ambiguous_entry",
				Patterns: []string{
					"who can i talk to",
					"who do i ask",
					"i need help with my computer",
					"help with my laptop",
					"i have a question",
					"where do i go for",
				},
			},
		},
		Guardrails: []Guardrail{
			{
				// Equipment candidates are discarded unless the query carries
				// a checkout action verb; "laptop" alone is usually a tech
				// support query.
				CategoryID: "equipment_checkout",
				RequireAny: []string{
					"borrow", "borrowed", "check out", "checked out",
					"checkout", "rent", "renting", "lend", "loan",
					"return", "renew",
				},
			},
		},
	}
}
