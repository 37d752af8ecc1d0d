package arbiter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/zen-systems/intentgate/pkg/adapter"
	"github.com/zen-systems/intentgate/pkg/schema"
)

// Candidate is what the judge sees for each close category.
type Candidate struct {
	CategoryID  string
	Description string
	Similarity  float64
}

// Pick is a structured arbitration verdict.
type Pick struct {
	CategoryID string  `json:"category_id"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
	Unsure     bool    `json:"unsure"`
}

// Judge is the LLM capability behind the arbiter: one dependency, two
// operations, both mockable and both under the same timeout policy.
type Judge interface {
	// PickCategory chooses the single best category among close candidates.
	PickCategory(ctx context.Context, query string, history []schema.Message, candidates []Candidate) (*Pick, error)

	// GenerateClarification writes a short question with options mapped to
	// candidate categories.
	GenerateClarification(ctx context.Context, query string, history []schema.Message, candidates []Candidate) (*schema.ClarificationRequest, error)
}

// LLMJudge implements Judge over a provider adapter.
type LLMJudge struct {
	adapter adapter.Adapter
	model   string
	timeout time.Duration
}

// NewLLMJudge creates a judge backed by the given adapter and model.
func NewLLMJudge(a adapter.Adapter, model string, timeout time.Duration) *LLMJudge {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &LLMJudge{adapter: a, model: model, timeout: timeout}
}

// PickCategory asks the model to choose among the candidates.
func (j *LLMJudge) PickCategory(ctx context.Context, query string, history []schema.Message, candidates []Candidate) (*Pick, error) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	resp, err := j.adapter.Generate(ctx, j.model, buildPickPrompt(query, history, candidates))
	if err != nil {
		return nil, err
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return nil, fmt.Errorf("judge returned empty response")
	}

	pick, err := parsePick(resp.Content)
	if err != nil {
		return nil, err
	}

	if !pick.Unsure {
		if !validCandidate(pick.CategoryID, candidates) {
			return nil, fmt.Errorf("judge category %q not in candidates", pick.CategoryID)
		}
		if pick.Confidence < 0 || pick.Confidence > 1 {
			return nil, fmt.Errorf("judge confidence out of range")
		}
	}

	return pick, nil
}

// GenerateClarification asks the model to write the clarification question.
func (j *LLMJudge) GenerateClarification(ctx context.Context, query string, history []schema.Message, candidates []Candidate) (*schema.ClarificationRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	resp, err := j.adapter.Generate(ctx, j.model, buildClarifyPrompt(query, history, candidates))
	if err != nil {
		return nil, err
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return nil, fmt.Errorf("judge returned empty response")
	}

	return parseClarification(query, resp.Content, candidates)
}

type clarifyPayload struct {
	Question string `json:"question"`
	Options  []struct {
		Label      string `json:"label"`
		CategoryID string `json:"category_id"`
	} `json:"options"`
}

func parsePick(content string) (*Pick, error) {
	var pick Pick
	if err := json.Unmarshal([]byte(trimCodeFence(content)), &pick); err != nil {
		return nil, fmt.Errorf("judge response invalid: %w", err)
	}
	if pick.CategoryID == "" && !pick.Unsure {
		return nil, fmt.Errorf("judge response missing category_id")
	}
	return &pick, nil
}

func parseClarification(query, content string, candidates []Candidate) (*schema.ClarificationRequest, error) {
	var payload clarifyPayload
	if err := json.Unmarshal([]byte(trimCodeFence(content)), &payload); err != nil {
		return nil, fmt.Errorf("judge response invalid: %w", err)
	}
	if strings.TrimSpace(payload.Question) == "" {
		return nil, fmt.Errorf("judge response missing question")
	}

	req := &schema.ClarificationRequest{
		OriginalQuery: query,
		Question:      strings.TrimSpace(payload.Question),
	}
	for _, opt := range payload.Options {
		// Drop any option the model invented outside the candidate set.
		if !validCandidate(opt.CategoryID, candidates) {
			continue
		}
		req.Options = append(req.Options, schema.ClarificationOption{
			ID:         fmt.Sprintf("opt_%d", len(req.Options)+1),
			Label:      strings.TrimSpace(opt.Label),
			CategoryID: opt.CategoryID,
		})
	}
	if len(req.Options) < 2 {
		return nil, fmt.Errorf("judge produced %d usable options", len(req.Options))
	}
	if len(req.Options) > 4 {
		req.Options = req.Options[:4]
	}
	req.Options = append(req.Options, noneOption())

	return req, nil
}

// trimCodeFence strips a markdown code fence the model may wrap around JSON.
func trimCodeFence(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

func validCandidate(categoryID string, candidates []Candidate) bool {
	for _, c := range candidates {
		if c.CategoryID == categoryID {
			return true
		}
	}
	return false
}

func buildPickPrompt(query string, history []schema.Message, candidates []Candidate) string {
	var sb strings.Builder
	sb.WriteString("You are a routing arbiter. Choose the single best category for the user's request.\n")
	sb.WriteString("Return ONLY JSON: {\"category_id\":\"...\",\"confidence\":0-1,\"reason\":\"...\",\"unsure\":false}.\n")
	sb.WriteString("If no candidate fits, return {\"unsure\":true}.\n\n")
	writeHistory(&sb, history)
	sb.WriteString("User request:\n")
	sb.WriteString(query)
	sb.WriteString("\n\nCandidates:\n")
	for _, c := range candidates {
		sb.WriteString(fmt.Sprintf("- %s (similarity=%.2f): %s\n", c.CategoryID, c.Similarity, c.Description))
	}
	return sb.String()
}

func buildClarifyPrompt(query string, history []schema.Message, candidates []Candidate) string {
	var sb strings.Builder
	sb.WriteString("You are a routing assistant. The user's request is ambiguous between the candidate categories below.\n")
	sb.WriteString("Write one short clarifying question and 2-4 options, each mapped to a candidate category.\n")
	sb.WriteString("Return ONLY JSON: {\"question\":\"...\",\"options\":[{\"label\":\"...\",\"category_id\":\"...\"}]}.\n")
	sb.WriteString("Do not add a \"none of the above\" option; the system appends it.\n\n")
	writeHistory(&sb, history)
	sb.WriteString("User request:\n")
	sb.WriteString(query)
	sb.WriteString("\n\nCandidates:\n")
	for _, c := range candidates {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", c.CategoryID, c.Description))
	}
	return sb.String()
}

func writeHistory(sb *strings.Builder, history []schema.Message) {
	if len(history) == 0 {
		return
	}
	sb.WriteString("Recent conversation:\n")
	start := 0
	if len(history) > 4 {
		start = len(history) - 4
	}
	for _, msg := range history[start:] {
		sb.WriteString(fmt.Sprintf("%s: %s\n", msg.Role, msg.Content))
	}
	sb.WriteString("\n")
}

func noneOption() schema.ClarificationOption {
	return schema.ClarificationOption{
		ID:    "none",
		Label: "None of these",
	}
}
