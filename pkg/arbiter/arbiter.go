package arbiter

import (
	"context"
	"fmt"
	"log"

	"github.com/zen-systems/intentgate/pkg/registry"
	"github.com/zen-systems/intentgate/pkg/schema"
)

const (
	// maxArbitrationCandidates caps how many shortlist candidates the judge
	// sees when picking.
	maxArbitrationCandidates = 3
	// maxClarifyOptions caps category options in a clarification.
	maxClarifyOptions = 3
	// minPickConfidence is the floor under which an LLM pick is treated as
	// undecided and falls through to clarification.
	minPickConfidence = 0.5
)

// Arbiter resolves low-confidence and ambiguous margin decisions: it either
// picks between shortlist candidates via the judge, or produces a clarification
// request for the user. It never returns an error; provider failures degrade
// to a deterministic template clarification.
type Arbiter struct {
	judge Judge
	reg   *registry.Registry
	debug bool
}

// Option configures an Arbiter.
type Option func(*Arbiter)

// WithDebug enables debug logging.
func WithDebug(debug bool) Option {
	return func(a *Arbiter) {
		a.debug = debug
	}
}

// New creates an arbiter over a judge and the category registry.
func New(judge Judge, reg *registry.Registry, opts ...Option) *Arbiter {
	a := &Arbiter{judge: judge, reg: reg}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ArbitrateOrClarify handles a non-direct margin decision. Exactly one of
// the returned values is non-nil.
func (a *Arbiter) ArbitrateOrClarify(ctx context.Context, query string, history []schema.Message, candidates []schema.CandidateScore, mode schema.MarginMode) (*schema.RoutingDecision, *schema.ClarificationRequest) {
	if mode == schema.MarginLowConfidence && len(candidates) > 0 {
		if dec := a.arbitrate(ctx, query, history, candidates); dec != nil {
			return dec, nil
		}
		// Judge could not decide; ask the user instead.
	}
	return nil, a.clarify(ctx, query, history, candidates)
}

func (a *Arbiter) arbitrate(ctx context.Context, query string, history []schema.Message, candidates []schema.CandidateScore) *schema.RoutingDecision {
	shortlist := a.describe(candidates, maxArbitrationCandidates)

	pick, err := a.judge.PickCategory(ctx, query, history, shortlist)
	if err != nil {
		if a.debug {
			log.Printf("[arbiter] pick failed: %v", err)
		}
		return nil
	}
	if pick.Unsure || pick.Confidence < minPickConfidence {
		return nil
	}

	cat, ok := a.reg.Get(pick.CategoryID)
	if !ok {
		return nil
	}

	reason := pick.Reason
	if reason == "" {
		reason = "arbiter pick between shortlist candidates"
	}
	return &schema.RoutingDecision{
		Mode:       schema.RouteArbitrated,
		CategoryID: cat.ID,
		AgentID:    cat.AgentID,
		Tier:       schema.TierMedium,
		Reason:     reason,
	}
}

func (a *Arbiter) clarify(ctx context.Context, query string, history []schema.Message, candidates []schema.CandidateScore) *schema.ClarificationRequest {
	shortlist := a.describe(candidates, maxClarifyOptions)

	if len(shortlist) >= 2 {
		req, err := a.judge.GenerateClarification(ctx, query, history, shortlist)
		if err == nil {
			if verr := req.Validate(); verr == nil {
				return req
			} else if a.debug {
				log.Printf("[arbiter] judge clarification invalid: %v", verr)
			}
		} else if a.debug {
			log.Printf("[arbiter] clarification failed: %v", err)
		}
	}

	return a.fallbackClarification(query, shortlist)
}

// fallbackClarification builds the deterministic template clarification used
// when the provider is unavailable or its output is unusable. With no
// candidates at all (degraded matcher), the options come from the registry
// in declaration order.
func (a *Arbiter) fallbackClarification(query string, shortlist []Candidate) *schema.ClarificationRequest {
	if len(shortlist) == 0 {
		for _, cat := range a.reg.Categories() {
			if cat.ID == "out_of_scope" {
				continue
			}
			shortlist = append(shortlist, Candidate{CategoryID: cat.ID, Description: cat.Description})
			if len(shortlist) == maxClarifyOptions {
				break
			}
		}
	}

	req := &schema.ClarificationRequest{
		OriginalQuery: query,
		Question:      "I want to make sure I point you to the right place. Which of these is closest to what you need?",
	}
	for i, c := range shortlist {
		label := c.Description
		if label == "" {
			label = c.CategoryID
		}
		req.Options = append(req.Options, schema.ClarificationOption{
			ID:         fmt.Sprintf("opt_%d", i+1),
			Label:      label,
			CategoryID: c.CategoryID,
		})
	}
	req.Options = append(req.Options, noneOption())

	return req
}

// describe converts ranked scores into judge candidates with registry
// descriptions, keeping at most n.
func (a *Arbiter) describe(candidates []schema.CandidateScore, n int) []Candidate {
	var out []Candidate
	for _, cs := range candidates {
		cat, ok := a.reg.Get(cs.CategoryID)
		if !ok {
			continue
		}
		out = append(out, Candidate{
			CategoryID:  cat.ID,
			Description: cat.Description,
			Similarity:  cs.Similarity,
		})
		if len(out) == n {
			break
		}
	}
	return out
}
