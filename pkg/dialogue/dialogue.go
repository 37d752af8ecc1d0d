package dialogue

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zen-systems/intentgate/pkg/schema"
)

// ErrUnknownChoice means the choice id is not among the pending options.
// This is a caller input error, distinct from a valid "none of the above"
// selection; the caller should re-render the same clarification.
var ErrUnknownChoice = errors.New("dialogue: unknown clarification choice")

// ErrInvalidState means the echoed-back state is missing or malformed.
var ErrInvalidState = errors.New("dialogue: invalid clarification state")

// ErrElaborationRequired means the dialogue is awaiting free text and none
// was supplied.
var ErrElaborationRequired = errors.New("dialogue: elaboration required")

// ActionKind tells the router what to do next.
type ActionKind string

const (
	// ActionRoute resolves the dialogue to the chosen option's category.
	ActionRoute ActionKind = "route"
	// ActionAwaitElaboration advances the dialogue; the caller must collect
	// free text from the user.
	ActionAwaitElaboration ActionKind = "await_elaboration"
	// ActionReclassify re-enters the pipeline with the combined query. The
	// resulting pass is final: it must not produce another clarification.
	ActionReclassify ActionKind = "reclassify"
)

// Action is the state machine's verdict for one follow-up call.
type Action struct {
	Kind   ActionKind
	Option schema.ClarificationOption // set for ActionRoute
	Query  string                     // set for ActionReclassify
	State  *schema.ClarificationState // set for ActionAwaitElaboration
}

// Advance applies the user's follow-up input to the dialogue state. It is a
// pure function: it never mutates the input state.
func Advance(state *schema.ClarificationState, choiceID, elaboration string) (*Action, error) {
	if state == nil || state.OriginalQuery == "" {
		return nil, ErrInvalidState
	}

	switch state.Turn {
	case schema.TurnAwaitingChoice:
		return advanceChoice(state, choiceID, elaboration)
	case schema.TurnAwaitingElaboration:
		return advanceElaboration(state, elaboration)
	default:
		return nil, fmt.Errorf("%w: turn %q", ErrInvalidState, state.Turn)
	}
}

func advanceChoice(state *schema.ClarificationState, choiceID, elaboration string) (*Action, error) {
	if len(state.PendingOptions) == 0 {
		return nil, fmt.Errorf("%w: no pending options", ErrInvalidState)
	}

	opt, ok := state.Option(choiceID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownChoice, choiceID)
	}

	if opt.CategoryID != "" {
		return &Action{Kind: ActionRoute, Option: opt}, nil
	}

	// "None of the above". The elaboration may arrive in the same call or
	// in a follow-up once the caller has collected it.
	if strings.TrimSpace(elaboration) != "" {
		return &Action{Kind: ActionReclassify, Query: combine(state.OriginalQuery, elaboration)}, nil
	}

	next := &schema.ClarificationState{
		OriginalQuery:  state.OriginalQuery,
		PendingOptions: state.PendingOptions,
		Turn:           schema.TurnAwaitingElaboration,
	}
	return &Action{Kind: ActionAwaitElaboration, State: next}, nil
}

func advanceElaboration(state *schema.ClarificationState, elaboration string) (*Action, error) {
	if strings.TrimSpace(elaboration) == "" {
		return nil, ErrElaborationRequired
	}
	return &Action{Kind: ActionReclassify, Query: combine(state.OriginalQuery, elaboration)}, nil
}

func combine(original, elaboration string) string {
	return strings.TrimSpace(original) + ". " + strings.TrimSpace(elaboration)
}
