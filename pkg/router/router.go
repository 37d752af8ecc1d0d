package router

import (
	"context"
	"fmt"
	"log"

	"github.com/zen-systems/intentgate/pkg/arbiter"
	"github.com/zen-systems/intentgate/pkg/dialogue"
	"github.com/zen-systems/intentgate/pkg/gate"
	"github.com/zen-systems/intentgate/pkg/margin"
	"github.com/zen-systems/intentgate/pkg/registry"
	"github.com/zen-systems/intentgate/pkg/schema"
	"github.com/zen-systems/intentgate/pkg/semantic"
)

// DefaultFallbackCategory receives queries that stay ambiguous after the
// elaboration pass. A human-referral catch-all in the default dataset.
const DefaultFallbackCategory = "librarian_referral"

// Router sequences the pipeline: heuristic gate, semantic matcher, margin
// engine, then the arbiter for anything not resolved directly. Every
// decision carries the mode of the stage that produced it and a reason.
type Router struct {
	reg      *registry.Registry
	gate     *gate.Gate
	matcher  *semantic.Matcher
	engine   *margin.Engine
	arb      *arbiter.Arbiter
	fallback string
	debug    bool
}

// Option configures a Router.
type Option func(*Router)

// WithFallbackCategory overrides the post-elaboration fallback category.
func WithFallbackCategory(id string) Option {
	return func(r *Router) {
		if id != "" {
			r.fallback = id
		}
	}
}

// WithDebug enables debug logging.
func WithDebug(debug bool) Option {
	return func(r *Router) {
		r.debug = debug
	}
}

// New creates a router. Every category the gate rules or the fallback refer
// to must exist in the registry; a mismatch is a startup-time fatal.
func New(reg *registry.Registry, g *gate.Gate, matcher *semantic.Matcher, engine *margin.Engine, arb *arbiter.Arbiter, opts ...Option) (*Router, error) {
	r := &Router{
		reg:      reg,
		gate:     g,
		matcher:  matcher,
		engine:   engine,
		arb:      arb,
		fallback: DefaultFallbackCategory,
	}
	for _, opt := range opts {
		opt(r)
	}

	if !reg.Has(r.fallback) {
		return nil, fmt.Errorf("router: fallback category %q not in registry", r.fallback)
	}
	for _, id := range g.Categories() {
		if !reg.Has(id) {
			return nil, fmt.Errorf("router: gate rule references unknown category %q", id)
		}
	}

	return r, nil
}

// Classify runs the full pipeline for a fresh query.
func (r *Router) Classify(ctx context.Context, query string, history []schema.Message) (*schema.Outcome, error) {
	return r.classify(ctx, query, history, false)
}

// ResolveClarification handles the follow-up call of a clarification
// dialogue. The state must be the value emitted with the original
// clarification, echoed back unmodified.
func (r *Router) ResolveClarification(ctx context.Context, choiceID string, state *schema.ClarificationState, elaboration string) (*schema.Outcome, error) {
	action, err := dialogue.Advance(state, choiceID, elaboration)
	if err != nil {
		return nil, err
	}

	switch action.Kind {
	case dialogue.ActionRoute:
		cat, ok := r.reg.Get(action.Option.CategoryID)
		if !ok {
			// Pending options were built against a since-swapped registry.
			return nil, fmt.Errorf("%w: category %q no longer routable", dialogue.ErrUnknownChoice, action.Option.CategoryID)
		}
		return &schema.Outcome{Decision: &schema.RoutingDecision{
			Mode:       schema.RouteArbitrated,
			CategoryID: cat.ID,
			AgentID:    cat.AgentID,
			Tier:       schema.TierHigh,
			Reason:     fmt.Sprintf("user confirmed %q", action.Option.Label),
		}}, nil

	case dialogue.ActionAwaitElaboration:
		return &schema.Outcome{State: action.State}, nil

	case dialogue.ActionReclassify:
		if r.debug {
			log.Printf("[router] reclassifying with elaboration: %q", action.Query)
		}
		return r.classify(ctx, action.Query, nil, true)

	default:
		return nil, fmt.Errorf("router: unexpected dialogue action %q", action.Kind)
	}
}

// classify is the sequential per-request pipeline. When final is set (the
// post-elaboration pass) the result must be a decision: clarification is
// replaced by deterministic fallbacks so a dialogue can never loop.
func (r *Router) classify(ctx context.Context, query string, history []schema.Message, final bool) (*schema.Outcome, error) {
	verdict := r.gate.Evaluate(query)

	if verdict.ForceCategory != "" {
		cat, _ := r.reg.Get(verdict.ForceCategory)
		if r.debug {
			log.Printf("[router] heuristic short-circuit: rule=%s category=%s", verdict.Rule, cat.ID)
		}
		return decided(schema.RouteHeuristic, cat, schema.TierHigh,
			fmt.Sprintf("matched %s pattern", verdict.Rule)), nil
	}

	var (
		candidates []schema.CandidateScore
		degraded   bool
		md         schema.MarginDecision
	)

	if verdict.ForceTriage {
		md = schema.MarginDecision{
			Mode:   schema.MarginAmbiguous,
			Tier:   schema.TierLow,
			Reason: fmt.Sprintf("matched %s pattern; triage", verdict.Rule),
		}
	} else {
		candidates, degraded = r.matcher.Match(ctx, query, verdict.Blocked)
		md = r.engine.Decide(candidates)
		if degraded {
			md.Reason += "; embedding provider degraded"
		}
	}

	if r.debug {
		log.Printf("[router] margin: mode=%s top1=%.3f top2=%.3f margin=%.3f", md.Mode, md.Top1, md.Top2, md.Margin)
	}

	if md.Mode == schema.MarginDirect {
		cat, _ := r.reg.Get(candidates[0].CategoryID)
		return decided(schema.RouteVector, cat, md.Tier, md.Reason), nil
	}

	if final {
		return r.finalDecision(md, candidates), nil
	}

	dec, clar := r.arb.ArbitrateOrClarify(ctx, query, history, candidates, md.Mode)
	if dec != nil {
		return &schema.Outcome{Decision: dec}, nil
	}
	return &schema.Outcome{
		Clarification: clar,
		State: &schema.ClarificationState{
			OriginalQuery:  query,
			PendingOptions: clar.Options,
			Turn:           schema.TurnAwaitingChoice,
		},
	}, nil
}

// finalDecision closes out the post-elaboration pass without another
// clarification: a low-confidence top candidate is routed as-is, and a still
// ambiguous query falls back to the configured catch-all category.
func (r *Router) finalDecision(md schema.MarginDecision, candidates []schema.CandidateScore) *schema.Outcome {
	if md.Mode == schema.MarginLowConfidence && len(candidates) > 0 {
		cat, _ := r.reg.Get(candidates[0].CategoryID)
		return decided(schema.RouteVector, cat, schema.TierLow,
			md.Reason+"; best candidate after elaboration")
	}

	cat, _ := r.reg.Get(r.fallback)
	return decided(schema.RouteArbitrated, cat, schema.TierLow,
		"still ambiguous after elaboration; fallback category")
}

func decided(mode schema.RouteMode, cat registry.Category, tier schema.ConfidenceTier, reason string) *schema.Outcome {
	return &schema.Outcome{Decision: &schema.RoutingDecision{
		Mode:       mode,
		CategoryID: cat.ID,
		AgentID:    cat.AgentID,
		Tier:       tier,
		Reason:     reason,
	}}
}
