package schema

import (
	"fmt"
	"strings"
)

// RouteMode identifies which pipeline stage produced a routing decision.
type RouteMode string

const (
	RouteHeuristic  RouteMode = "heuristic"
	RouteVector     RouteMode = "vector"
	RouteArbitrated RouteMode = "arbitrated"
)

// ConfidenceTier buckets how certain the pipeline is about a decision.
type ConfidenceTier string

const (
	TierHigh   ConfidenceTier = "high"
	TierMedium ConfidenceTier = "medium"
	TierLow    ConfidenceTier = "low"
)

// MarginMode is the outcome of the margin decision engine.
type MarginMode string

const (
	MarginDirect        MarginMode = "direct"
	MarginLowConfidence MarginMode = "low_confidence"
	MarginAmbiguous     MarginMode = "ambiguous"
)

// DialogueTurn tracks where a clarification dialogue stands.
type DialogueTurn string

const (
	TurnAwaitingChoice      DialogueTurn = "awaiting_choice"
	TurnAwaitingElaboration DialogueTurn = "awaiting_elaboration"
)

// Message is one entry of the conversation history handed to the classifier.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CandidateScore is one ranked entry from the semantic matcher.
// Similarity is normalized to [0,1].
type CandidateScore struct {
	CategoryID string  `json:"category_id"`
	Similarity float64 `json:"similarity"`
}

// MarginDecision is the margin engine's verdict over a ranked candidate list.
type MarginDecision struct {
	Mode   MarginMode     `json:"mode"`
	Top1   float64        `json:"top1"`
	Top2   float64        `json:"top2"`
	Margin float64        `json:"margin"`
	Tier   ConfidenceTier `json:"tier"`
	Reason string         `json:"reason"`
}

// RoutingDecision is the terminal resolved output of the pipeline.
type RoutingDecision struct {
	Mode       RouteMode      `json:"mode"`
	CategoryID string         `json:"category_id"`
	AgentID    string         `json:"agent_id"`
	Tier       ConfidenceTier `json:"confidence_tier"`
	Reason     string         `json:"reason"`
}

// ClarificationOption is one selectable choice in a clarification prompt.
// An empty CategoryID marks the "none of the above" option.
type ClarificationOption struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	CategoryID  string `json:"category_id,omitempty"`
}

// ClarificationRequest is the terminal non-resolved output: a question with
// options the presentation layer renders as selectable choices.
type ClarificationRequest struct {
	OriginalQuery string                `json:"original_query"`
	Question      string                `json:"question"`
	Options       []ClarificationOption `json:"options"`
}

// Validate checks the structural invariants of a clarification request:
// at least two options, exactly one "none of the above", unique option ids.
func (r *ClarificationRequest) Validate() error {
	if strings.TrimSpace(r.Question) == "" {
		return fmt.Errorf("clarification question required")
	}
	if len(r.Options) < 2 {
		return fmt.Errorf("clarification needs at least 2 options, got %d", len(r.Options))
	}
	seen := make(map[string]bool, len(r.Options))
	none := 0
	for i, opt := range r.Options {
		if strings.TrimSpace(opt.ID) == "" {
			return fmt.Errorf("options[%d]: id required", i)
		}
		if seen[opt.ID] {
			return fmt.Errorf("options[%d]: duplicate id %q", i, opt.ID)
		}
		seen[opt.ID] = true
		if opt.CategoryID == "" {
			none++
		}
	}
	if none != 1 {
		return fmt.Errorf("clarification must carry exactly one \"none of the above\" option, got %d", none)
	}
	return nil
}

// NoneOption returns the "none of the above" option, if present.
func (r *ClarificationRequest) NoneOption() (ClarificationOption, bool) {
	for _, opt := range r.Options {
		if opt.CategoryID == "" {
			return opt, true
		}
	}
	return ClarificationOption{}, false
}

// ClarificationState is the only value with cross-request lifetime. The core
// emits it alongside a ClarificationRequest and requires the caller to echo
// it back unmodified on the follow-up call.
type ClarificationState struct {
	OriginalQuery  string                `json:"original_query"`
	PendingOptions []ClarificationOption `json:"pending_options"`
	Turn           DialogueTurn          `json:"turn"`
}

// Option looks up a pending option by id.
func (s *ClarificationState) Option(id string) (ClarificationOption, bool) {
	for _, opt := range s.PendingOptions {
		if opt.ID == id {
			return opt, true
		}
	}
	return ClarificationOption{}, false
}

// Outcome is what a classification call returns: either a resolved decision
// or a clarification request paired with the dialogue state the caller must
// hand back. When Turn is awaiting_elaboration the presentation layer should
// collect free text instead of rendering options.
type Outcome struct {
	Decision      *RoutingDecision      `json:"decision,omitempty"`
	Clarification *ClarificationRequest `json:"clarification,omitempty"`
	State         *ClarificationState   `json:"state,omitempty"`
}

// Resolved reports whether the outcome carries a final routing decision.
func (o *Outcome) Resolved() bool {
	return o != nil && o.Decision != nil
}
