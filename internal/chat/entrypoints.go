package chat

import (
	"context"
	"fmt"
	"strings"
)

// =============================================================================
// TYPED ENTRY POINTS
// =============================================================================
// Collaborators call these directly instead of broadcasting ambient
// events. They are the only write paths back into the engine from the UI:
// pill clicks, suggestion clicks, and panel/document confirmations.

// OnExternalSelection handles a pill click on option pills: the UI resolved
// the index, the engine executes the selection. The click is recorded as a
// user message so history stays the source of truth.
func (r *Router) OnExternalSelection(ctx context.Context, index int) (*TurnResult, error) {
	if !r.session.beginTurn() {
		return nil, ErrBusy
	}
	defer r.session.endTurn()

	now := r.now()
	opts, src := r.session.Pending().Current(r.session.History(), now)
	if src == SourceNone || index < 1 || index > len(opts) {
		return nil, fmt.Errorf("chat: no selectable option at index %d", index)
	}
	opt := opts[index-1]

	out, err := r.selectOption(ctx, opt, now)
	r.session.Append(Message{Role: RoleUser, Content: opt.Label, CreatedAt: now})
	if err != nil {
		reply := r.session.Append(Message{Role: RoleAssistant, Content: genericApology, IsError: true})
		return &TurnResult{Reply: reply}, nil
	}
	reply := r.session.Append(out.reply)
	// A click commits a reply like any turn does, so the context-answer
	// flag follows the same rule as runTurn.
	r.session.lastAnswerFromContext = out.reply.FromContext
	return &TurnResult{Reply: reply, Action: out.action}, nil
}

// OnSuggestionClicked handles a click on a suggestion pill: the candidate's
// synthesized command runs through the normal resolution path. The turn is
// claimed before any state changes, so a click blocked by an in-flight turn
// leaves the active suggestion and rejection memory untouched.
func (r *Router) OnSuggestionClicked(ctx context.Context, label string) (*TurnResult, error) {
	if !r.session.beginTurn() {
		return nil, ErrBusy
	}
	defer r.session.endTurn()

	sugg := r.session.Suggestions()
	active := sugg.Active()
	if active == nil {
		return nil, fmt.Errorf("chat: no active suggestion")
	}

	var cand *SuggestionCandidate
	for i := range active.Candidates {
		if strings.EqualFold(active.Candidates[i].Label, label) {
			cand = &active.Candidates[i]
			break
		}
	}
	if cand == nil {
		return nil, fmt.Errorf("chat: suggestion %q is not on offer", label)
	}

	cmd := synthesizeCommand(*cand)
	sugg.Clear()
	sugg.ResetRejections()
	return r.runTurn(ctx, cmd)
}

// OnPanelWriteConfirmed records that content was written to a panel. The
// confirmation lands in history as structured panel metadata so the decay
// tracker sees it without parsing prose.
func (r *Router) OnPanelWriteConfirmed(panelTitle string) {
	r.session.Append(Message{
		Role:        RoleAssistant,
		Content:     fmt.Sprintf("Saved to %q.", panelTitle),
		CreatedAt:   r.now(),
		OpenedPanel: panelTitle,
	})
}

// OnDocSelected records a document picked outside the chat flow as a
// preview fact, keeping later "show all" and follow-up turns grounded.
func (r *Router) OnDocSelected(docTitle string) {
	r.session.Append(Message{
		Role:      RoleAssistant,
		Content:   fmt.Sprintf("Selected %q.", docTitle),
		CreatedAt: r.now(),
		Preview:   &PreviewSummary{Title: docTitle, TotalCount: 1},
	})
}
