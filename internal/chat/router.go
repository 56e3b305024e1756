package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dandytbermillo/annotation-backup-sub000/internal/resolver"
)

// =============================================================================
// TURN ROUTER
// =============================================================================
// On every submitted utterance the router runs a fixed precedence ladder:
//
//	 1. rejection of an active suggestion
//	 2. affirmation (with or without an active suggestion)
//	 3. clarification-mode intercept
//	 4. meta/explain phrases           -> retrieval collaborator
//	 5. correction after a context answer -> retrieval collaborator
//	 6. follow-up pronoun expansion    -> retrieval collaborator
//	 7. documentation-style questions  -> retrieval collaborator
//	 8. reshow request vs the grace window
//	 9. explicit command (clears stale pending options, then delegates)
//	10. show-all shortcut vs a recent preview
//	11. selection guard vs the cached option set
//	12. selection guard vs history-derived options
//	13. delegate to the external resolver and fold its action back
//
// First match wins. A step that cannot confidently resolve falls through to
// the next one rather than guessing; the terminal resolver call is the only
// step allowed to come back ambiguous, which the router surfaces as a
// clarification rather than an error.

// ErrBusy is returned when a turn is submitted while another is in flight.
var ErrBusy = errors.New("chat: a turn is already being processed")

// ErrEmptyInput is returned for blank submissions.
var ErrEmptyInput = errors.New("chat: empty input")

const genericApology = "Sorry, something went wrong while handling that. Please try again."

// IntentResolver is the external intent-resolution collaborator.
type IntentResolver interface {
	Resolve(ctx context.Context, req resolver.Request) (*resolver.Response, error)
}

// Retrieval answers meta/correction/follow-up/doc questions from context.
type Retrieval interface {
	Retrieve(ctx context.Context, req resolver.RetrievalRequest) (string, error)
}

// ShowAllClassifier is the lightweight classifier behind the show-all
// shortcut.
type ShowAllClassifier interface {
	ClassifyShowAll(ctx context.Context, message, previewTitle string) (bool, error)
}

// Router resolves turns for one session.
type Router struct {
	session  *Session
	resolver IntentResolver

	retrieval  Retrieval         // optional
	classifier ShowAllClassifier // optional

	log *zap.Logger
	now func() time.Time
}

// NewRouter creates a router for the session. The resolver is required;
// retrieval and classifier collaborators are injected via setters.
func NewRouter(session *Session, res IntentResolver, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		session:  session,
		resolver: res,
		log:      logger.Named("router"),
		now:      time.Now,
	}
}

// SetRetrieval installs the retrieval collaborator for steps 4-7. Without
// one those steps fall through to the resolver.
func (r *Router) SetRetrieval(ret Retrieval) { r.retrieval = ret }

// SetClassifier installs the show-all classifier for step 10.
func (r *Router) SetClassifier(c ShowAllClassifier) { r.classifier = c }

// SetClock overrides the time source, for tests.
func (r *Router) SetClock(now func() time.Time) { r.now = now }

// Session returns the session this router mutates.
func (r *Router) Session() *Session { return r.session }

// outcome is the internal result of routing one utterance.
type outcome struct {
	reply  Message
	action *ResolvedAction
}

// HandleTurn processes one submitted utterance end to end: it routes the
// input, appends the user and assistant messages to history at the
// well-defined commit point, and hands back the reply plus any concrete
// action for the shell. A resolver failure becomes a single error-flagged
// apology message; the conversation stays usable on the next turn.
func (r *Router) HandleTurn(ctx context.Context, input string) (*TurnResult, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, ErrEmptyInput
	}
	if !r.session.beginTurn() {
		return nil, ErrBusy
	}
	defer r.session.endTurn()

	return r.runTurn(ctx, trimmed)
}

// runTurn routes one already-claimed turn and commits its messages. The
// caller holds the processing flag.
func (r *Router) runTurn(ctx context.Context, trimmed string) (*TurnResult, error) {
	now := r.now()
	out, err := r.route(ctx, trimmed, now)

	r.session.Append(Message{Role: RoleUser, Content: trimmed, CreatedAt: now})
	if err != nil {
		r.log.Warn("turn failed", zap.String("input", trimmed), zap.Error(err))
		reply := r.session.Append(Message{
			Role:    RoleAssistant,
			Content: genericApology,
			IsError: true,
		})
		return &TurnResult{Reply: reply}, nil
	}

	reply := r.session.Append(out.reply)
	// The correction route only fires against a live context answer, so the
	// flag must track the reply that was just committed: any concrete or
	// local reply clears it.
	r.session.lastAnswerFromContext = out.reply.FromContext
	return &TurnResult{Reply: reply, Action: out.action}, nil
}

// route runs the precedence ladder. It never appends to history; the
// caller commits messages once the turn has fully resolved.
func (r *Router) route(ctx context.Context, input string, now time.Time) (*outcome, error) {
	history := r.session.History()
	sugg := r.session.Suggestions()
	pending := r.session.Pending()
	clar := r.session.Clarifier()

	// Step 1: rejection of an active suggestion.
	if IsRejection(input) && sugg.Active() != nil {
		r.log.Debug("step 1: suggestion rejected", zap.String("input", input))
		return r.rejectSuggestion(now), nil
	}

	// Step 2: affirmation. Never forwarded blindly.
	if IsAffirmation(input) {
		r.log.Debug("step 2: affirmation", zap.String("input", input))
		return r.affirm(ctx, now)
	}

	// Step 3: clarification-mode intercept.
	if clar.State() == ClarifyAwaiting {
		if out, handled, err := r.interceptClarification(ctx, input, now); handled {
			r.log.Debug("step 3: clarification intercept", zap.String("input", input))
			return out, err
		}
	}

	// Steps 4-7: retrieval-backed routes. Without a collaborator these
	// fall through to the resolver.
	if r.retrieval != nil {
		if IsMetaQuestion(input) {
			r.log.Debug("step 4: meta question")
			return r.retrieve(ctx, resolver.RetrievalMeta, input, now)
		}
		if IsCorrection(input) && r.session.lastAnswerFromContext {
			r.log.Debug("step 5: correction after context answer")
			return r.retrieve(ctx, resolver.RetrievalCorrection, input, now)
		}
		if IsFollowUp(input) {
			r.log.Debug("step 6: follow-up")
			return r.retrieve(ctx, resolver.RetrievalFollowUp, input, now)
		}
		if IsDocQuestion(input) {
			r.log.Debug("step 7: doc question")
			return r.retrieve(ctx, resolver.RetrievalDoc, input, now)
		}
	}

	// Step 8: reshow request against the grace window.
	if IsReshowRequest(input) {
		opts, src := pending.Current(history, now)
		if len(opts) > 0 {
			r.log.Debug("step 8: reshow", zap.String("source", string(src)))
			return r.presentOptions(opts, "Here are the options again:", "reshow", ClarifyDisambiguation, now), nil
		}
		r.log.Debug("step 8: reshow but options expired")
		return &outcome{reply: Message{
			Role:    RoleAssistant,
			Content: `No options are open right now. Say "list workspaces" to see them again.`,
		}}, nil
	}

	// Step 9: explicit command. Stale pending options are cleared, not
	// acted on, so the command proceeds cleanly.
	if IsExplicitCommand(input) {
		r.log.Debug("step 9: explicit command", zap.String("input", input))
		pending.Clear()
		return r.resolveExternally(ctx, input, now, "")
	}

	// Step 10: show-all shortcut against a recent preview, keyword
	// heuristic first, then the lightweight classifier. Command verbs
	// disable the shortcut.
	if !HasCommandVerb(input) {
		snap := r.session.Snapshot(now)
		if snap.Preview != nil {
			matched := IsShowAllRequest(input)
			if !matched && r.classifier != nil {
				var err error
				matched, err = r.classifier.ClassifyShowAll(ctx, input, snap.Preview.Title)
				if err != nil {
					return nil, fmt.Errorf("show-all classification: %w", err)
				}
			}
			if matched {
				r.log.Debug("step 10: show-all shortcut", zap.String("preview", snap.Preview.Title))
				return r.resolveExternally(ctx, input, now, "show_all_requested")
			}
		}
	}

	// Steps 11-12: selection guard against the active option set, cached
	// first, then history-derived.
	if opts, src := pending.Current(history, now); len(opts) > 0 {
		if m := MatchSelection(input, opts); m.Matched {
			r.log.Debug("selection matched", zap.Int("index", m.Index), zap.String("source", string(src)))
			return r.selectOption(ctx, opts[m.Index], now)
		}
		if opt, ok := MatchByLabel(input, opts); ok {
			r.log.Debug("label matched", zap.String("label", opt.Label), zap.String("source", string(src)))
			return r.selectOption(ctx, opt, now)
		}
	}

	// Step 13: delegate to the external resolver.
	r.log.Debug("step 13: delegating to resolver", zap.String("input", input))
	return r.resolveExternally(ctx, input, now, "")
}

// -----------------------------------------------------------------------------
// Local steps
// -----------------------------------------------------------------------------

// defaultCommandCandidates is the fallback command set offered after the
// user rejects a suggestion. It is always filtered through the rejected
// label set before being shown.
var defaultCommandCandidates = []SuggestionCandidate{
	{Label: "workspaces", PrimaryAction: ActionList},
	{Label: "recent entries", PrimaryAction: ActionList},
	{Label: "home", PrimaryAction: ActionGoHome},
}

func (r *Router) rejectSuggestion(now time.Time) *outcome {
	sugg := r.session.Suggestions()
	rejected := sugg.RejectActive()

	if len(rejected) > 1 {
		alternatives := sugg.FilterRejected(defaultCommandCandidates)
		if len(alternatives) > 0 {
			msgID := uuid.NewString()
			lines := []string{"Okay, not that. Maybe one of these instead:"}
			for _, alt := range alternatives {
				lines = append(lines, "- "+synthesizeCommand(alt))
			}
			sugg.Propose(alternatives, msgID)
			return &outcome{reply: Message{
				ID:         msgID,
				Role:       RoleAssistant,
				Content:    strings.Join(lines, "\n"),
				CreatedAt:  now,
				Suggestion: &SuggestionPayload{Type: "alternatives", Candidates: alternatives},
			}}
		}
	}

	return &outcome{reply: Message{
		Role:      RoleAssistant,
		Content:   "Okay, I won't do that. Tell me what you'd like instead.",
		CreatedAt: now,
	}}
}

func (r *Router) affirm(ctx context.Context, now time.Time) (*outcome, error) {
	sugg := r.session.Suggestions()
	active := sugg.Active()

	if active == nil {
		// Affirmation with nothing on offer is answered, never forwarded.
		return &outcome{reply: Message{
			Role:      RoleAssistant,
			Content:   "Yes to which option? Click one, or say first, second, or last.",
			CreatedAt: now,
		}}, nil
	}

	if len(active.Candidates) == 1 {
		cand := active.Candidates[0]
		cmd := synthesizeCommand(cand)
		// Clear suggestion and rejection state first, then submit the
		// synthesized command through the normal resolution path.
		sugg.Clear()
		sugg.ResetRejections()
		r.log.Debug("affirmed suggestion", zap.String("command", cmd))
		return r.route(ctx, cmd, now)
	}

	// Multiple candidates: re-ask locally, re-presenting them as choices.
	opts := make([]PendingOption, len(active.Candidates))
	for i, cand := range active.Candidates {
		opts[i] = PendingOption{
			Index:    i + 1,
			Label:    cand.Label,
			Sublabel: cand.Sublabel,
			Kind:     OptionCommand,
			ID:       fmt.Sprintf("suggestion-%d", i+1),
			Payload:  map[string]any{"command": synthesizeCommand(cand)},
		}
	}
	sugg.Clear()
	return r.presentOptions(opts, "Which one did you mean?", "suggestion", ClarifyDisambiguation, now), nil
}

// interceptClarification applies the clarification machine's own
// sub-rules: answering the open question by selection, or asking about the
// question itself. Anything else is left for the later steps, with the
// record preserved.
func (r *Router) interceptClarification(ctx context.Context, input string, now time.Time) (*outcome, bool, error) {
	history := r.session.History()
	pending := r.session.Pending()

	if opts, _ := pending.Current(history, now); len(opts) > 0 {
		if m := MatchSelection(input, opts); m.Matched {
			out, err := r.selectOption(ctx, opts[m.Index], now)
			return out, true, err
		}
		if opt, ok := MatchByLabel(input, opts); ok {
			out, err := r.selectOption(ctx, opt, now)
			return out, true, err
		}
	}

	if IsMetaQuestion(input) {
		record := r.session.Clarifier().Record()
		count := r.session.Clarifier().BumpMeta()
		r.log.Debug("meta turn during clarification", zap.Int("metaCount", count))
		if r.retrieval != nil {
			out, err := r.retrieve(ctx, resolver.RetrievalMeta, input, now)
			return out, true, err
		}
		return &outcome{reply: Message{
			Role:      RoleAssistant,
			Content:   "We were deciding: " + record.Question,
			CreatedAt: now,
		}}, true, nil
	}

	return nil, false, nil
}

func (r *Router) retrieve(ctx context.Context, kind resolver.RetrievalKind, input string, now time.Time) (*outcome, error) {
	snap := r.session.Snapshot(now)
	answer, err := r.retrieval.Retrieve(ctx, resolver.RetrievalRequest{
		Kind:    kind,
		Message: input,
		Context: toWireSnapshot(snap),
	})
	if err != nil {
		return nil, fmt.Errorf("retrieval (%s): %w", kind, err)
	}
	// A context answer never executes an action, so an open clarification
	// survives it and the user can still answer the original question.
	return &outcome{reply: Message{
		Role:        RoleAssistant,
		Content:     answer,
		CreatedAt:   now,
		FromContext: true,
	}}, nil
}

// presentOptions (re)shows a selectable option set. Pending options and
// the clarification record are updated together so the two stores always
// describe the same question.
func (r *Router) presentOptions(opts []PendingOption, question, intent string, kind ClarificationKind, now time.Time) *outcome {
	msgID := uuid.NewString()
	r.session.Pending().Set(opts)
	r.session.Clarifier().Begin(kind, intent, msgID, question, optionSummaries(opts), now)

	return &outcome{reply: Message{
		ID:        msgID,
		Role:      RoleAssistant,
		Content:   question,
		CreatedAt: now,
		Options:   opts,
	}}
}

// selectOption executes a local selection. The clarification resolves
// immediately, grace is extended so the options survive one more turn, and
// a concrete success resets suggestion memory.
func (r *Router) selectOption(ctx context.Context, opt PendingOption, now time.Time) (*outcome, error) {
	if opt.Kind == OptionCommand {
		if cmd, ok := opt.Payload["command"].(string); ok && cmd != "" {
			r.session.Clarifier().Resolve()
			r.session.Pending().Clear()
			return r.route(ctx, cmd, now)
		}
	}

	r.session.Clarifier().Resolve()
	r.session.Pending().ExtendGrace()
	r.session.Suggestions().Clear()
	r.session.Suggestions().ResetRejections()

	switch opt.Kind {
	case OptionWorkspace:
		r.session.CurrentWorkspaceID = opt.ID
		return &outcome{
			reply: Message{
				Role:      RoleAssistant,
				Content:   fmt.Sprintf("Opening workspace %q.", opt.Label),
				CreatedAt: now,
			},
			action: &ResolvedAction{Kind: ActionOpenWorkspace, WorkspaceID: opt.ID, WorkspaceName: opt.Label},
		}, nil

	case OptionEntry:
		r.session.CurrentEntryID = opt.ID
		return &outcome{
			reply: Message{
				Role:      RoleAssistant,
				Content:   fmt.Sprintf("Opening %q.", opt.Label),
				CreatedAt: now,
			},
			action: &ResolvedAction{Kind: ActionOpenEntry, EntryID: opt.ID, EntryTitle: opt.Label},
		}, nil

	case OptionPanel:
		return &outcome{
			reply: Message{
				Role:        RoleAssistant,
				Content:     fmt.Sprintf("Opening the %q panel.", opt.Label),
				CreatedAt:   now,
				OpenedPanel: opt.Label,
			},
			action: &ResolvedAction{Kind: ActionOpenPanel, PanelID: opt.ID, PanelTitle: opt.Label},
		}, nil

	case OptionConfirmDelete:
		deleteKind := "workspace"
		if k, ok := opt.Payload["kind"].(string); ok && k != "" {
			deleteKind = k
		}
		kind := ActionDeleteWorkspace
		if deleteKind == "entry" {
			kind = ActionDeleteEntry
		}
		return &outcome{
			reply: Message{
				Role:      RoleAssistant,
				Content:   fmt.Sprintf("Deleting %q.", opt.Label),
				CreatedAt: now,
			},
			action: &ResolvedAction{Kind: kind, DeleteKind: deleteKind, DeleteID: opt.ID, DeleteName: opt.Label},
		}, nil

	default:
		r.log.Warn("selection on unknown option kind", zap.String("kind", string(opt.Kind)))
		return &outcome{reply: Message{
			Role:      RoleAssistant,
			Content:   fmt.Sprintf("Selected %q.", opt.Label),
			CreatedAt: now,
		}}, nil
	}
}

// synthesizeCommand turns a suggestion candidate into the explicit command
// text its primary action implies.
func synthesizeCommand(cand SuggestionCandidate) string {
	label := strings.TrimSpace(cand.Label)
	switch cand.PrimaryAction {
	case ActionList, ActionShowList:
		return fmt.Sprintf("list %s in chat", label)
	case ActionOpenWorkspace, ActionOpenEntry, ActionOpenPanel:
		return fmt.Sprintf("open %s", label)
	case ActionGoHome:
		return "go home"
	case ActionCreateWorkspace:
		return fmt.Sprintf("create %s", label)
	case ActionRenameWorkspace:
		return fmt.Sprintf("rename %s", label)
	case ActionDeleteWorkspace, ActionDeleteEntry:
		return fmt.Sprintf("delete %s", label)
	default:
		return fmt.Sprintf("open %s", label)
	}
}
