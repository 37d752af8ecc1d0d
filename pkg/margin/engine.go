package margin

import (
	"fmt"

	"github.com/zen-systems/intentgate/pkg/schema"
)

// Config holds the five margin thresholds. Margins are normalized gaps,
// (top1-top2)/top1, so all values live in [0,1].
type Config struct {
	DirectScoreThreshold   float64 `yaml:"direct_score_threshold"`
	DirectMarginThreshold  float64 `yaml:"direct_margin_threshold"`
	LowConfScoreThreshold  float64 `yaml:"low_conf_score_threshold"`
	LowConfMarginThreshold float64 `yaml:"low_conf_margin_threshold"`
	ClarifyMarginThreshold float64 `yaml:"clarify_margin_threshold"`
}

// DefaultConfig returns tuned threshold defaults.
func DefaultConfig() Config {
	return Config{
		DirectScoreThreshold:   0.75,
		DirectMarginThreshold:  0.20,
		LowConfScoreThreshold:  0.55,
		LowConfMarginThreshold: 0.10,
		ClarifyMarginThreshold: 0.05,
	}
}

// Validate enforces the threshold ordering invariant:
// clarify < low-confidence < direct. A violation is a startup-time fatal.
func (c Config) Validate() error {
	for name, v := range map[string]float64{
		"direct_score_threshold":    c.DirectScoreThreshold,
		"direct_margin_threshold":   c.DirectMarginThreshold,
		"low_conf_score_threshold":  c.LowConfScoreThreshold,
		"low_conf_margin_threshold": c.LowConfMarginThreshold,
		"clarify_margin_threshold":  c.ClarifyMarginThreshold,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("margin: %s must be in [0,1], got %v", name, v)
		}
	}
	if !(c.ClarifyMarginThreshold < c.LowConfMarginThreshold) {
		return fmt.Errorf("margin: clarify_margin_threshold (%v) must be < low_conf_margin_threshold (%v)",
			c.ClarifyMarginThreshold, c.LowConfMarginThreshold)
	}
	if !(c.LowConfMarginThreshold < c.DirectMarginThreshold) {
		return fmt.Errorf("margin: low_conf_margin_threshold (%v) must be < direct_margin_threshold (%v)",
			c.LowConfMarginThreshold, c.DirectMarginThreshold)
	}
	return nil
}

// Engine turns ranked candidate scores into a margin decision. It is pure
// arithmetic: identical inputs always yield identical outputs.
type Engine struct {
	cfg Config
}

// NewEngine validates the config and builds an engine. Changing thresholds
// means constructing a new engine, never mutating a shared one.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// Decide applies the ordered decision rules to a ranked candidate list.
// The rule order is part of the contract; do not reorder.
func (e *Engine) Decide(candidates []schema.CandidateScore) schema.MarginDecision {
	if len(candidates) == 0 {
		return schema.MarginDecision{
			Mode:   schema.MarginAmbiguous,
			Tier:   schema.TierLow,
			Reason: "no candidates",
		}
	}

	top1 := candidates[0].Similarity
	top2 := 0.0
	if len(candidates) > 1 {
		top2 = candidates[1].Similarity
	}

	m := 0.0
	if top1 > 0 {
		m = (top1 - top2) / top1
	}

	d := schema.MarginDecision{Top1: top1, Top2: top2, Margin: m}

	switch {
	case top1 >= e.cfg.DirectScoreThreshold && m >= e.cfg.DirectMarginThreshold:
		d.Mode = schema.MarginDirect
		d.Tier = schema.TierHigh
		d.Reason = fmt.Sprintf("top1=%.3f margin=%.3f clear direct route", top1, m)
	case top1 >= e.cfg.LowConfScoreThreshold && m >= e.cfg.LowConfMarginThreshold:
		d.Mode = schema.MarginDirect
		d.Tier = schema.TierMedium
		d.Reason = fmt.Sprintf("top1=%.3f margin=%.3f direct route at medium confidence", top1, m)
	case m < e.cfg.ClarifyMarginThreshold:
		d.Mode = schema.MarginAmbiguous
		d.Tier = schema.TierLow
		d.Reason = fmt.Sprintf("top1=%.3f top2=%.3f margin=%.3f below clarify threshold", top1, top2, m)
	default:
		d.Mode = schema.MarginLowConfidence
		d.Tier = schema.TierLow
		d.Reason = fmt.Sprintf("top1=%.3f margin=%.3f low confidence", top1, m)
	}

	return d
}
