package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dandytbermillo/annotation-backup-sub000/internal/resolver"
)

// =============================================================================
// RESOLVER DELEGATION & RESPONSE FOLDING
// =============================================================================
// The terminal step of the precedence ladder: building the full context
// bundle, one awaited resolver round trip, and folding the structured
// action back into the pending-options, suggestion, and clarification
// stores.

// fullHistoryLimit caps the history forwarded to the resolver.
const fullHistoryLimit = 50

// recentUserLimit caps the recent-user-message list in the request.
const recentUserLimit = 5

func (r *Router) resolveExternally(ctx context.Context, input string, now time.Time, sessionState string) (*outcome, error) {
	req := r.buildRequest(input, now, sessionState)

	resp, err := r.resolver.Resolve(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("resolver: %w", err)
	}
	return r.fold(ctx, resp, now)
}

// buildRequest assembles the resolver request from session state and the
// decayed context snapshot.
func (r *Router) buildRequest(input string, now time.Time, sessionState string) resolver.Request {
	history := r.session.History()
	snap := r.session.Snapshot(now)
	pendingOpts, _ := r.session.Pending().Current(history, now)

	reqCtx := resolver.RequestContext{
		RecentUserMessages: recentUserMessages(history, recentUserLimit),
		SessionState:       sessionState,
		PendingOptions:     toWireOptions(pendingOpts),
		ChatContext:        toWireSnapshot(snap),
		FullChatHistory:    toWireHistory(history, fullHistoryLimit),
	}

	if record := r.session.Clarifier().Record(); record != nil {
		reqCtx.LastAssistantQuestion = record.Question
		reqCtx.LastClarification = &resolver.ClarificationRef{
			ID:             record.ID,
			Kind:           string(record.Kind),
			OriginalIntent: record.Intent,
			Question:       record.Question,
		}
	} else if strings.HasSuffix(strings.TrimSpace(snap.LastAssistantMessage), "?") {
		reqCtx.LastAssistantQuestion = snap.LastAssistantMessage
	}

	if hint := r.session.UIHint(); hint != nil {
		reqCtx.VisiblePanels = hint.VisiblePanels
		reqCtx.FocusedPanelID = hint.FocusedPanelID
		reqCtx.UIContext = hint.VisiblePanelTitle
	}

	return resolver.Request{
		Message:            input,
		CurrentEntryID:     r.session.CurrentEntryID,
		CurrentWorkspaceID: r.session.CurrentWorkspaceID,
		Context:            reqCtx,
	}
}

// fold applies the resolver's structured action to the stores and builds
// the assistant reply. The action switch is exhaustive over ActionKind so
// a new kind fails loudly here instead of being silently dropped.
func (r *Router) fold(ctx context.Context, resp *resolver.Response, now time.Time) (*outcome, error) {
	res := resp.Resolution
	kind := ActionKind(res.Action)
	pending := r.session.Pending()
	sugg := r.session.Suggestions()
	history := r.session.History()

	var out *outcome

	switch kind {
	case ActionSelectOption:
		opts, _ := pending.Current(history, now)
		if res.SelectedIndex >= 1 && res.SelectedIndex <= len(opts) {
			return r.selectOption(ctx, opts[res.SelectedIndex-1], now)
		}
		out = &outcome{reply: Message{
			Role:      RoleAssistant,
			Content:   "I couldn't tell which option you meant. Click one, or say first, second, or last.",
			CreatedAt: now,
		}}

	case ActionReshowOptions:
		opts, _ := pending.Current(history, now)
		if len(opts) > 0 {
			out = r.presentOptions(opts, "Here are the options again:", "reshow", ClarifyDisambiguation, now)
		} else {
			out = &outcome{reply: Message{
				Role:      RoleAssistant,
				Content:   `No options are open right now. Say "list workspaces" to see them again.`,
				CreatedAt: now,
			}}
		}

	case ActionOpenWorkspace, ActionOpenEntry, ActionCreateWorkspace,
		ActionRenameWorkspace, ActionDeleteWorkspace, ActionDeleteEntry,
		ActionOpenPanel, ActionGoHome:
		out = r.foldConcrete(kind, res, now)

	case ActionShowList, ActionList:
		out = r.foldList(res, now)

	case ActionAnswerFromContext:
		// A context answer preserves the open clarification: the user can
		// still answer the original question next turn.
		out = &outcome{reply: Message{
			Role:        RoleAssistant,
			Content:     res.Message,
			CreatedAt:   now,
			FromContext: true,
		}}

	case ActionClarify:
		out = r.foldClarify(resp, now)

	case ActionError:
		out = &outcome{reply: Message{
			Role:      RoleAssistant,
			Content:   fallbackText(res.Message, genericApology),
			CreatedAt: now,
			IsError:   true,
		}}

	case ActionNone:
		out = &outcome{reply: Message{
			Role:      RoleAssistant,
			Content:   fallbackText(res.Message, "I'm not sure what to do with that."),
			CreatedAt: now,
		}}

	default:
		r.log.Warn("unknown resolver action", zap.String("action", res.Action))
		out = &outcome{reply: Message{
			Role:      RoleAssistant,
			Content:   fallbackText(res.Message, "I'm not sure what to do with that."),
			CreatedAt: now,
		}}
	}

	// Fold suggestions through the rejected-label filter. A fully
	// rejected candidate set yields no suggestion pills.
	if resp.Suggestions != nil {
		candidates := fromWireSuggestions(resp.Suggestions.Candidates)
		if out.reply.ID == "" {
			out.reply.ID = uuid.NewString()
		}
		if remaining := sugg.Propose(candidates, out.reply.ID); len(remaining) > 0 {
			out.reply.Suggestion = &SuggestionPayload{
				Type:       resp.Suggestions.Type,
				Candidates: remaining,
			}
		}
	}

	return out, nil
}

// foldConcrete handles the explicit executed actions. Success clears the
// pending options, the clarification, and suggestion memory; failure
// preserves the open question.
func (r *Router) foldConcrete(kind ActionKind, res resolver.Resolution, now time.Time) *outcome {
	if !res.Success {
		return &outcome{reply: Message{
			Role:      RoleAssistant,
			Content:   fallbackText(res.Message, "That didn't work."),
			CreatedAt: now,
			IsError:   true,
		}}
	}

	r.session.Pending().Clear()
	r.session.Clarifier().ClearOnAction()
	r.session.Suggestions().Clear()
	r.session.Suggestions().ResetRejections()

	action := &ResolvedAction{Kind: kind}
	reply := Message{Role: RoleAssistant, Content: res.Message, CreatedAt: now}

	switch kind {
	case ActionOpenWorkspace:
		if res.Workspace != nil {
			action.WorkspaceID = res.Workspace.ID
			action.WorkspaceName = res.Workspace.Name
			r.session.CurrentWorkspaceID = res.Workspace.ID
		}
	case ActionOpenEntry:
		if res.Entry != nil {
			action.EntryID = res.Entry.ID
			action.EntryTitle = res.Entry.Title
			r.session.CurrentEntryID = res.Entry.ID
			if res.Entry.WorkspaceID != "" {
				r.session.CurrentWorkspaceID = res.Entry.WorkspaceID
			}
		}
	case ActionCreateWorkspace:
		if res.NewWorkspace != nil {
			action.WorkspaceID = res.NewWorkspace.ID
			action.WorkspaceName = res.NewWorkspace.Name
		}
	case ActionRenameWorkspace:
		if res.RenamedWorkspace != nil {
			action.WorkspaceID = res.RenamedWorkspace.ID
			action.WorkspaceName = res.RenamedWorkspace.Name
			action.RenamedFrom = res.RenamedFrom
		}
	case ActionDeleteWorkspace, ActionDeleteEntry:
		if res.DeleteTarget != nil {
			action.DeleteKind = res.DeleteTarget.Kind
			action.DeleteID = res.DeleteTarget.ID
			action.DeleteName = res.DeleteTarget.Name
		}
	case ActionOpenPanel:
		action.PanelID = res.PanelID
		if action.PanelID == "" {
			action.PanelID = res.SemanticPanelID
		}
		action.PanelTitle = res.PanelTitle
		reply.OpenedPanel = res.PanelTitle
	case ActionGoHome:
		r.session.CurrentWorkspaceID = ""
		r.session.CurrentEntryID = ""
	}

	return &outcome{reply: reply, action: action}
}

// foldList handles list/preview responses, including list-with-picks
// option sets.
func (r *Router) foldList(res resolver.Resolution, now time.Time) *outcome {
	preview := &PreviewSummary{
		Title:      fallbackText(res.Message, "List"),
		Items:      res.PreviewItems,
		TotalCount: res.TotalCount,
	}
	action := &ResolvedAction{
		Kind:            ActionShowList,
		Preview:         preview,
		ShowInViewPanel: res.ShowInViewPanel,
	}

	if len(res.Options) > 0 {
		opts := fromWireOptions(res.Options)
		out := r.presentOptions(opts, res.Message, "list_with_picks", ClarifyDisambiguation, now)
		out.reply.Preview = preview
		out.action = action
		return out
	}

	return &outcome{
		reply: Message{
			Role:      RoleAssistant,
			Content:   res.Message,
			CreatedAt: now,
			Preview:   preview,
		},
		action: action,
	}
}

// foldClarify turns an ambiguous resolution into a clarification with
// selectable options, never an error.
func (r *Router) foldClarify(resp *resolver.Response, now time.Time) *outcome {
	res := resp.Resolution
	question := fallbackText(res.Message, "Which one did you mean?")

	intent := "clarify"
	kind := ClarifyDisambiguation
	if resp.Clarification != nil {
		if resp.Clarification.OriginalIntent != "" {
			intent = resp.Clarification.OriginalIntent
		}
		if resp.Clarification.NextAction == "confirm" {
			kind = ClarifyConfirmation
		}
	}

	if len(res.Options) > 0 {
		return r.presentOptions(fromWireOptions(res.Options), question, intent, kind, now)
	}

	// A follow-up question without options still opens a clarification.
	msgID := uuid.NewString()
	r.session.Clarifier().Begin(ClarifyScopeFollowUp, intent, msgID, question, nil, now)
	return &outcome{reply: Message{
		ID:        msgID,
		Role:      RoleAssistant,
		Content:   question,
		CreatedAt: now,
	}}
}

// -----------------------------------------------------------------------------
// Wire conversions
// -----------------------------------------------------------------------------

func toWireOptions(opts []PendingOption) []resolver.OptionRef {
	if len(opts) == 0 {
		return nil
	}
	out := make([]resolver.OptionRef, len(opts))
	for i, o := range opts {
		out[i] = resolver.OptionRef{
			Index:    o.Index,
			Label:    o.Label,
			Sublabel: o.Sublabel,
			Type:     string(o.Kind),
			ID:       o.ID,
		}
	}
	return out
}

func fromWireOptions(refs []resolver.OptionRef) []PendingOption {
	out := make([]PendingOption, len(refs))
	for i, ref := range refs {
		idx := ref.Index
		if idx == 0 {
			idx = i + 1
		}
		out[i] = PendingOption{
			Index:    idx,
			Label:    ref.Label,
			Sublabel: ref.Sublabel,
			Kind:     OptionKind(ref.Type),
			ID:       ref.ID,
		}
	}
	return out
}

func fromWireSuggestions(cands []resolver.SuggestionCandidate) []SuggestionCandidate {
	out := make([]SuggestionCandidate, len(cands))
	for i, c := range cands {
		out[i] = SuggestionCandidate{
			Label:         c.Label,
			Sublabel:      c.Sublabel,
			PrimaryAction: ActionKind(c.PrimaryAction),
		}
	}
	return out
}

func toWireSnapshot(snap ContextSnapshot) resolver.Snapshot {
	wire := resolver.Snapshot{
		LastUserMessage:      snap.LastUserMessage,
		LastAssistantMessage: snap.LastAssistantMessage,
		ShownOptions:         toWireOptions(snap.Options),
		OptionsAgeMs:         snap.OptionsAgeMs,
		PanelTitle:           snap.PanelTitle,
		PanelAgeMs:           snap.PanelAgeMs,
		IsStale:              snap.IsStale,
	}
	if snap.Preview != nil {
		wire.ListPreview = previewSummaryText(snap.Preview)
	}
	return wire
}

func toWireHistory(history []Message, limit int) []resolver.HistoryEntry {
	if len(history) > limit {
		history = history[len(history)-limit:]
	}
	out := make([]resolver.HistoryEntry, len(history))
	for i, msg := range history {
		out[i] = resolver.HistoryEntry{Role: string(msg.Role), Content: msg.Content}
	}
	return out
}

func recentUserMessages(history []Message, limit int) []string {
	var out []string
	for i := len(history) - 1; i >= 0 && len(out) < limit; i-- {
		if history[i].Role == RoleUser {
			out = append(out, history[i].Content)
		}
	}
	// Restore chronological order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func previewSummaryText(p *PreviewSummary) string {
	if len(p.Items) == 0 {
		return p.Title
	}
	return fmt.Sprintf("%s: %s (%d total)", p.Title, strings.Join(p.Items, ", "), p.TotalCount)
}

func fallbackText(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
