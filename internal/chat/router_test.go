package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/dandytbermillo/annotation-backup-sub000/internal/resolver"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// scriptedResolver returns canned responses in order and records every
// request it receives.
type scriptedResolver struct {
	responses []*resolver.Response
	requests  []resolver.Request
	err       error
}

func (s *scriptedResolver) Resolve(_ context.Context, req resolver.Request) (*resolver.Response, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	if len(s.responses) == 0 {
		return &resolver.Response{Resolution: resolver.Resolution{Action: "none", Message: "nothing scripted"}}, nil
	}
	resp := s.responses[0]
	s.responses = s.responses[1:]
	return resp, nil
}

func (s *scriptedResolver) script(resps ...*resolver.Response) {
	s.responses = append(s.responses, resps...)
}

func (s *scriptedResolver) lastRequest(t *testing.T) resolver.Request {
	t.Helper()
	if len(s.requests) == 0 {
		t.Fatal("resolver was never called")
	}
	return s.requests[len(s.requests)-1]
}

type staticRetrieval struct {
	answer string
	kinds  []resolver.RetrievalKind
	err    error
}

func (s *staticRetrieval) Retrieve(_ context.Context, req resolver.RetrievalRequest) (string, error) {
	s.kinds = append(s.kinds, req.Kind)
	return s.answer, s.err
}

type staticClassifier struct {
	showAll bool
	err     error
	calls   int
}

func (s *staticClassifier) ClassifyShowAll(context.Context, string, string) (bool, error) {
	s.calls++
	return s.showAll, s.err
}

func newTestRouter(t *testing.T) (*Router, *scriptedResolver, time.Time) {
	t.Helper()
	session, err := NewSession(DefaultDecayWindows())
	require.NoError(t, err)

	res := &scriptedResolver{}
	router := NewRouter(session, res, zap.NewNop())
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	router.SetClock(func() time.Time { return now })
	return router, res, now
}

func clarifyResponse(question string, refs ...resolver.OptionRef) *resolver.Response {
	return &resolver.Response{Resolution: resolver.Resolution{
		Action:  "clarify",
		Message: question,
		Options: refs,
	}}
}

func workspaceRef(index int, label, id string) resolver.OptionRef {
	return resolver.OptionRef{Index: index, Label: label, Type: "workspace", ID: id}
}

func TestHandleTurn_EmptyInput(t *testing.T) {
	router, _, _ := newTestRouter(t)
	_, err := router.HandleTurn(context.Background(), "   ")
	require.ErrorIs(t, err, ErrEmptyInput)
}

func TestHandleTurn_Busy(t *testing.T) {
	router, _, _ := newTestRouter(t)
	require.True(t, router.Session().beginTurn())
	defer router.Session().endTurn()

	_, err := router.HandleTurn(context.Background(), "open recipes")
	require.ErrorIs(t, err, ErrBusy)
}

// TestHandleTurn_ResolverFailure: a resolver error becomes one
// error-flagged apology message and the session stays usable.
func TestHandleTurn_ResolverFailure(t *testing.T) {
	router, res, _ := newTestRouter(t)
	res.err = errors.New("upstream timeout")

	result, err := router.HandleTurn(context.Background(), "open recipes")
	require.NoError(t, err)
	require.True(t, result.Reply.IsError)
	require.Equal(t, genericApology, result.Reply.Content)
	require.Nil(t, result.Action)

	// Both the user message and the apology landed in history.
	hist := router.Session().History()
	require.Len(t, hist, 2)
	require.Equal(t, RoleUser, hist[0].Role)

	// Next turn works once the resolver recovers.
	res.err = nil
	result, err = router.HandleTurn(context.Background(), "open recipes")
	require.NoError(t, err)
	require.False(t, result.Reply.IsError)
}

// TestReshow_GraceWindow covers step 8 on both sides of the 60s boundary.
func TestReshow_GraceWindow(t *testing.T) {
	t.Run("within the window", func(t *testing.T) {
		router, res, now := newTestRouter(t)
		router.Session().SetHistory([]Message{
			{Role: RoleAssistant, Content: "Which one?",
				Options:   optionSet("Research", "Recipes"),
				CreatedAt: now.Add(-59999 * time.Millisecond)},
		})

		result, err := router.HandleTurn(context.Background(), "show me the options again")
		require.NoError(t, err)
		require.Len(t, result.Reply.Options, 2)
		require.Empty(t, res.requests, "reshow must not call the resolver")

		// The reshown set is now the cached, authoritative one.
		opts, src := router.Session().Pending().Current(router.Session().History(), now)
		require.Equal(t, SourceCache, src)
		require.Len(t, opts, 2)
	})

	t.Run("past the window", func(t *testing.T) {
		router, res, now := newTestRouter(t)
		router.Session().SetHistory([]Message{
			{Role: RoleAssistant, Content: "Which one?",
				Options:   optionSet("Research", "Recipes"),
				CreatedAt: now.Add(-60001 * time.Millisecond)},
		})

		result, err := router.HandleTurn(context.Background(), "show me the options again")
		require.NoError(t, err)
		require.Empty(t, result.Reply.Options)
		require.Contains(t, result.Reply.Content, "No options are open")
		require.Empty(t, res.requests)
	})
}

// TestSelection_Ordinal walks a full disambiguation round trip: the
// resolver asks, the user answers "second", the engine executes locally.
func TestSelection_Ordinal(t *testing.T) {
	router, res, _ := newTestRouter(t)
	res.script(clarifyResponse("Which workspace did you mean?",
		workspaceRef(1, "Notes A", "w1"),
		workspaceRef(2, "Notes B", "w2"),
	))

	result, err := router.HandleTurn(context.Background(), "open notes")
	require.NoError(t, err)
	require.Len(t, result.Reply.Options, 2)
	require.Equal(t, ClarifyAwaiting, router.Session().Clarifier().State())

	result, err = router.HandleTurn(context.Background(), "second")
	require.NoError(t, err)
	require.NotNil(t, result.Action)
	require.Equal(t, ActionOpenWorkspace, result.Action.Kind)
	require.Equal(t, "w2", result.Action.WorkspaceID)
	require.Equal(t, "w2", router.Session().CurrentWorkspaceID)

	// The selection resolved the clarification and extended grace.
	require.Equal(t, ClarifyNone, router.Session().Clarifier().State())
	require.Equal(t, 1, router.Session().Pending().Grace())
	require.Len(t, res.requests, 1, "local selection must not call the resolver")
}

// TestSelection_BareLetterDelegates: with unbadged labels, a bare letter
// is ambiguous input, and the engine delegates to the resolver with the
// pending options attached rather than matching a capital in a name.
func TestSelection_BareLetterDelegates(t *testing.T) {
	router, res, _ := newTestRouter(t)
	res.script(
		clarifyResponse("Which workspace did you mean?",
			workspaceRef(1, "Workspace A", "w1"),
			workspaceRef(2, "Workspace B", "w2"),
			workspaceRef(3, "Workspace C", "w3"),
		),
		&resolver.Response{Resolution: resolver.Resolution{Action: "select_option", SelectedIndex: 3}},
	)

	_, err := router.HandleTurn(context.Background(), "open workspace")
	require.NoError(t, err)

	result, err := router.HandleTurn(context.Background(), "c")
	require.NoError(t, err)
	require.Len(t, res.requests, 2, "bare letter against unbadged labels goes to the resolver")

	req := res.lastRequest(t)
	require.Equal(t, "c", req.Message)
	require.Len(t, req.Context.PendingOptions, 3)

	// The resolver's selected index folds back into a local selection.
	require.NotNil(t, result.Action)
	require.Equal(t, ActionOpenWorkspace, result.Action.Kind)
	require.Equal(t, "w3", result.Action.WorkspaceID)
}

// TestRejection_AlternativesAndMemory covers step 1: rejecting a
// multi-candidate suggestion records every label, offers the default
// alternatives, and keeps rejected labels out of later suggestion pills.
func TestRejection_AlternativesAndMemory(t *testing.T) {
	router, res, _ := newTestRouter(t)

	suggestions := &resolver.Suggestions{Type: "typo", Candidates: []resolver.SuggestionCandidate{
		{Label: "Recipes", PrimaryAction: "open_workspace"},
		{Label: "Research", PrimaryAction: "open_workspace"},
	}}
	res.script(&resolver.Response{
		Resolution:  resolver.Resolution{Action: "none", Message: "Did you mean one of these?"},
		Suggestions: suggestions,
	})

	result, err := router.HandleTurn(context.Background(), "open recipies")
	require.NoError(t, err)
	require.NotNil(t, result.Reply.Suggestion)
	require.Len(t, result.Reply.Suggestion.Candidates, 2)

	result, err = router.HandleTurn(context.Background(), "no")
	require.NoError(t, err)
	require.NotNil(t, result.Reply.Suggestion, "rejection offers alternative commands")
	require.Empty(t, res.requests[1:], "rejection is handled locally")

	sugg := router.Session().Suggestions()
	require.True(t, sugg.IsRejected("Recipes"))
	require.True(t, sugg.IsRejected("Research"))

	// A later resolver response re-suggesting only rejected labels
	// produces no pills at all.
	router.Session().Suggestions().Clear()
	res.script(&resolver.Response{
		Resolution:  resolver.Resolution{Action: "none", Message: "Maybe these?"},
		Suggestions: suggestions,
	})
	result, err = router.HandleTurn(context.Background(), "hmm")
	require.NoError(t, err)
	require.Nil(t, result.Reply.Suggestion, "fully rejected candidate set must not render pills")
}

func TestAffirmation_NoActiveSuggestion(t *testing.T) {
	router, res, _ := newTestRouter(t)

	result, err := router.HandleTurn(context.Background(), "yes")
	require.NoError(t, err)
	require.Contains(t, result.Reply.Content, "Yes to which option?")
	require.Empty(t, res.requests, "a bare yes is never forwarded")
}

// TestAffirmation_SingleCandidate: "yes" to a single list suggestion
// synthesizes the explicit command and runs it through the normal path.
func TestAffirmation_SingleCandidate(t *testing.T) {
	router, res, _ := newTestRouter(t)
	router.Session().Suggestions().Propose([]SuggestionCandidate{
		{Label: "recent entries", PrimaryAction: ActionList},
	}, "msg-1")

	res.script(&resolver.Response{Resolution: resolver.Resolution{
		Action:       "show_list",
		Message:      "Recent entries",
		Success:      true,
		PreviewItems: []string{"Groceries", "Budget"},
		TotalCount:   2,
	}})

	result, err := router.HandleTurn(context.Background(), "yes")
	require.NoError(t, err)

	req := res.lastRequest(t)
	require.Equal(t, "list recent entries in chat", req.Message)
	require.NotNil(t, result.Reply.Preview)
	require.Equal(t, 2, result.Reply.Preview.TotalCount)
}

// TestClarification_SurvivesContextAnswer: a doc question asked while a
// clarification is open is answered from context without dropping the
// open question.
func TestClarification_SurvivesContextAnswer(t *testing.T) {
	router, res, _ := newTestRouter(t)
	ret := &staticRetrieval{answer: "A workspace groups related notes."}
	router.SetRetrieval(ret)

	res.script(clarifyResponse("Which workspace did you mean?",
		workspaceRef(1, "Notes A", "w1"),
		workspaceRef(2, "Notes B", "w2"),
	))
	_, err := router.HandleTurn(context.Background(), "open notes")
	require.NoError(t, err)
	require.Equal(t, ClarifyAwaiting, router.Session().Clarifier().State())

	result, err := router.HandleTurn(context.Background(), "what is a workspace")
	require.NoError(t, err)
	require.True(t, result.Reply.FromContext)
	require.Equal(t, ret.answer, result.Reply.Content)
	require.Equal(t, []resolver.RetrievalKind{resolver.RetrievalDoc}, ret.kinds)
	require.Equal(t, ClarifyAwaiting, router.Session().Clarifier().State(),
		"a context answer must preserve the open clarification")

	// The original question can still be answered.
	result, err = router.HandleTurn(context.Background(), "first")
	require.NoError(t, err)
	require.NotNil(t, result.Action)
	require.Equal(t, "w1", result.Action.WorkspaceID)
}

// TestCorrection_OnlyAfterLiveContextAnswer: the correction route pushes
// back against the previous factual answer. Once a selection executes, the
// latest assistant message is an action, and the same pushback belongs to
// the resolver again.
func TestCorrection_OnlyAfterLiveContextAnswer(t *testing.T) {
	run := func(t *testing.T, selectFirst func(t *testing.T, router *Router)) {
		router, res, _ := newTestRouter(t)
		ret := &staticRetrieval{answer: "A workspace groups related notes."}
		router.SetRetrieval(ret)

		res.script(clarifyResponse("Which workspace did you mean?",
			workspaceRef(1, "Notes A", "w1"),
			workspaceRef(2, "Notes B", "w2"),
		))
		_, err := router.HandleTurn(context.Background(), "open notes")
		require.NoError(t, err)

		// A doc question answered from context arms the correction route.
		result, err := router.HandleTurn(context.Background(), "what is a workspace")
		require.NoError(t, err)
		require.True(t, result.Reply.FromContext)

		// While the answer is the latest turn, pushback uses retrieval.
		_, err = router.HandleTurn(context.Background(), "that's not right")
		require.NoError(t, err)
		require.Equal(t, []resolver.RetrievalKind{resolver.RetrievalDoc, resolver.RetrievalCorrection}, ret.kinds)

		selectFirst(t, router)

		// The selection is now the latest turn; the same pushback goes to
		// the resolver, not the correction retrieval.
		_, err = router.HandleTurn(context.Background(), "no, not that")
		require.NoError(t, err)
		require.Equal(t, []resolver.RetrievalKind{resolver.RetrievalDoc, resolver.RetrievalCorrection}, ret.kinds,
			"correction retrieval must not fire after an executed action")
		require.Equal(t, "no, not that", res.lastRequest(t).Message)
	}

	t.Run("typed selection", func(t *testing.T) {
		run(t, func(t *testing.T, router *Router) {
			result, err := router.HandleTurn(context.Background(), "first")
			require.NoError(t, err)
			require.NotNil(t, result.Action)
		})
	})

	t.Run("clicked selection", func(t *testing.T) {
		run(t, func(t *testing.T, router *Router) {
			result, err := router.OnExternalSelection(context.Background(), 1)
			require.NoError(t, err)
			require.NotNil(t, result.Action)
		})
	})
}

// TestConcreteAction_ClearsEphemeralState: an executed navigation clears
// pending options, the clarification, and suggestion memory together.
func TestConcreteAction_ClearsEphemeralState(t *testing.T) {
	router, res, _ := newTestRouter(t)
	res.script(
		clarifyResponse("Which one?", workspaceRef(1, "Notes A", "w1"), workspaceRef(2, "Notes B", "w2")),
		&resolver.Response{Resolution: resolver.Resolution{
			Action:    "open_workspace",
			Message:   "Opening Archive.",
			Success:   true,
			Workspace: &resolver.WorkspaceRef{ID: "w9", Name: "Archive"},
		}},
	)

	_, err := router.HandleTurn(context.Background(), "open notes")
	require.NoError(t, err)

	// The user abandons the question with a brand-new command.
	result, err := router.HandleTurn(context.Background(), "open archive workspace")
	require.NoError(t, err)
	require.NotNil(t, result.Action)
	require.Equal(t, ActionOpenWorkspace, result.Action.Kind)
	require.Equal(t, "w9", router.Session().CurrentWorkspaceID)

	session := router.Session()
	require.Equal(t, ClarifyNone, session.Clarifier().State())
	opts, src := session.Pending().Current(session.History(), router.now())
	require.Equal(t, SourceNone, src)
	require.Empty(t, opts)
}

// TestShowAll_Shortcut covers step 10: a non-keyword phrasing consults
// the classifier, and a positive verdict delegates with the
// show_all_requested marker.
func TestShowAll_Shortcut(t *testing.T) {
	router, res, now := newTestRouter(t)
	classifier := &staticClassifier{showAll: true}
	router.SetClassifier(classifier)

	router.Session().SetHistory([]Message{
		{Role: RoleAssistant, Content: "Here are a few:",
			Preview:   &PreviewSummary{Title: "Recent entries", Items: []string{"A", "B", "C"}, TotalCount: 12},
			CreatedAt: now.Add(-30 * time.Second)},
	})
	res.script(&resolver.Response{Resolution: resolver.Resolution{
		Action:       "show_list",
		Message:      "All 12 entries",
		Success:      true,
		PreviewItems: []string{"A", "B", "C", "D"},
		TotalCount:   12,
	}})

	_, err := router.HandleTurn(context.Background(), "can i see the ones you didn't mention")
	require.NoError(t, err)
	require.Equal(t, 1, classifier.calls)

	req := res.lastRequest(t)
	require.Equal(t, "show_all_requested", req.Context.SessionState)
}

// TestShowAll_ClassifierFailure: a classifier error fails the turn rather
// than silently skipping the shortcut.
func TestShowAll_ClassifierFailure(t *testing.T) {
	router, _, now := newTestRouter(t)
	router.SetClassifier(&staticClassifier{err: errors.New("classifier down")})
	router.Session().SetHistory([]Message{
		{Role: RoleAssistant, Preview: &PreviewSummary{Title: "Recent entries"},
			CreatedAt: now.Add(-30 * time.Second)},
	})

	result, err := router.HandleTurn(context.Background(), "can i see the ones you didn't mention")
	require.NoError(t, err)
	require.True(t, result.Reply.IsError)
}

// TestRequestContext verifies the context bundle sent on delegation:
// recent user messages, pending options, the open clarification, and the
// capped history.
func TestRequestContext(t *testing.T) {
	router, res, _ := newTestRouter(t)
	res.script(clarifyResponse("Which one?", workspaceRef(1, "Notes A", "w1"), workspaceRef(2, "Notes B", "w2")))

	_, err := router.HandleTurn(context.Background(), "open notes")
	require.NoError(t, err)

	// An utterance nothing local can resolve, while options are pending.
	_, err = router.HandleTurn(context.Background(), "the green one")
	require.NoError(t, err)

	req := res.lastRequest(t)
	require.Equal(t, "the green one", req.Message)
	require.Equal(t, "Which one?", req.Context.LastAssistantQuestion)
	require.NotNil(t, req.Context.LastClarification)
	require.Equal(t, "disambiguation", req.Context.LastClarification.Kind)

	wantPending := []resolver.OptionRef{
		{Index: 1, Label: "Notes A", Type: "workspace", ID: "w1"},
		{Index: 2, Label: "Notes B", Type: "workspace", ID: "w2"},
	}
	if diff := cmp.Diff(wantPending, req.Context.PendingOptions); diff != "" {
		t.Errorf("pending options mismatch (-want +got):\n%s", diff)
	}

	// History commits after routing, so only prior turns appear here;
	// the current utterance travels as Message.
	require.Equal(t, []string{"open notes"}, req.Context.RecentUserMessages)
	require.NotEmpty(t, req.Context.FullChatHistory)
	require.LessOrEqual(t, len(req.Context.FullChatHistory), 50)
}

// TestExplicitCommand_ClearsStalePending: step 9 clears leftover options
// so a stale "2" cannot leak into the new command's resolution.
func TestExplicitCommand_ClearsStalePending(t *testing.T) {
	router, res, _ := newTestRouter(t)
	router.Session().Pending().Set(optionSet("Old A", "Old B"))
	res.script(&resolver.Response{Resolution: resolver.Resolution{
		Action: "show_list", Message: "Workspaces", Success: true,
	}})

	_, err := router.HandleTurn(context.Background(), "list workspaces")
	require.NoError(t, err)

	req := res.lastRequest(t)
	require.Empty(t, req.Context.PendingOptions, "cleared options must not travel with the command")
}

func TestOnExternalSelection(t *testing.T) {
	router, _, _ := newTestRouter(t)
	router.Session().Pending().Set([]PendingOption{
		{Index: 1, Label: "Notes A", Kind: OptionWorkspace, ID: "w1"},
		{Index: 2, Label: "Notes B", Kind: OptionWorkspace, ID: "w2"},
	})

	result, err := router.OnExternalSelection(context.Background(), 2)
	require.NoError(t, err)
	require.NotNil(t, result.Action)
	require.Equal(t, "w2", result.Action.WorkspaceID)

	// The click is recorded as a user message carrying the label.
	hist := router.Session().History()
	require.Equal(t, RoleUser, hist[len(hist)-2].Role)
	require.Equal(t, "Notes B", hist[len(hist)-2].Content)

	_, err = router.OnExternalSelection(context.Background(), 5)
	require.Error(t, err, "out-of-range index is the caller's bug")
}

func TestOnSuggestionClicked(t *testing.T) {
	router, res, _ := newTestRouter(t)
	router.Session().Suggestions().Propose([]SuggestionCandidate{
		{Label: "Recipes", PrimaryAction: ActionOpenWorkspace},
	}, "msg-1")
	res.script(&resolver.Response{Resolution: resolver.Resolution{
		Action: "open_workspace", Message: "Opening Recipes.", Success: true,
		Workspace: &resolver.WorkspaceRef{ID: "w2", Name: "Recipes"},
	}})

	result, err := router.OnSuggestionClicked(context.Background(), "recipes")
	require.NoError(t, err)
	require.Equal(t, "open Recipes", res.lastRequest(t).Message)
	require.Equal(t, "w2", result.Action.WorkspaceID)

	_, err = router.OnSuggestionClicked(context.Background(), "archive")
	require.Error(t, err)
}

// TestOnSuggestionClicked_BusyLeavesStateUntouched: a click that loses the
// race with an in-flight turn is blocked outright; the active suggestion
// and the rejected-label memory survive for when the turn lands.
func TestOnSuggestionClicked_BusyLeavesStateUntouched(t *testing.T) {
	router, res, _ := newTestRouter(t)
	sugg := router.Session().Suggestions()
	sugg.Propose([]SuggestionCandidate{{Label: "Archive", PrimaryAction: ActionOpenWorkspace}}, "msg-1")
	sugg.RejectActive()
	sugg.Propose([]SuggestionCandidate{{Label: "Recipes", PrimaryAction: ActionOpenWorkspace}}, "msg-2")

	require.True(t, router.Session().beginTurn())
	_, err := router.OnSuggestionClicked(context.Background(), "recipes")
	require.ErrorIs(t, err, ErrBusy)
	require.NotNil(t, sugg.Active(), "blocked click must leave the active suggestion")
	require.Equal(t, "Recipes", sugg.Active().Candidates[0].Label)
	require.True(t, sugg.IsRejected("Archive"), "blocked click must keep rejection memory")
	require.Empty(t, res.requests)
	router.Session().endTurn()

	// Once the turn lands, the same click goes through.
	res.script(&resolver.Response{Resolution: resolver.Resolution{
		Action: "open_workspace", Message: "Opening Recipes.", Success: true,
		Workspace: &resolver.WorkspaceRef{ID: "w2", Name: "Recipes"},
	}})
	result, err := router.OnSuggestionClicked(context.Background(), "recipes")
	require.NoError(t, err)
	require.Equal(t, "w2", result.Action.WorkspaceID)
}

// TestPanelWriteConfirmation: confirmed panel writes surface as structured
// panel facts the decay tracker picks up.
func TestPanelWriteConfirmation(t *testing.T) {
	router, _, now := newTestRouter(t)
	router.OnPanelWriteConfirmed("Groceries")

	snap := router.Session().Snapshot(now)
	require.Equal(t, "Groceries", snap.PanelTitle)
	require.False(t, snap.IsStale)
}

// TestActionKind_Concrete pins which kinds count as executed actions.
func TestActionKind_Concrete(t *testing.T) {
	concrete := []ActionKind{
		ActionOpenWorkspace, ActionOpenEntry, ActionCreateWorkspace,
		ActionRenameWorkspace, ActionDeleteWorkspace, ActionDeleteEntry,
		ActionOpenPanel, ActionGoHome,
	}
	for _, k := range concrete {
		if !k.Concrete() {
			t.Errorf("%s.Concrete() = false", k)
		}
	}
	for _, k := range []ActionKind{ActionClarify, ActionAnswerFromContext, ActionShowList, ActionError, ActionNone} {
		if k.Concrete() {
			t.Errorf("%s.Concrete() = true", k)
		}
	}
}

// TestGenericApologyText guards the user-facing failure copy against
// accidental edits; the UI keys error styling off IsError, not the text.
func TestGenericApologyText(t *testing.T) {
	if !strings.Contains(genericApology, "try again") {
		t.Errorf("apology lost its retry hint: %q", genericApology)
	}
}
