// Package chat implements the conversational disambiguation and
// context-resolution engine behind the workspace app's chat panel.
//
// The engine decides, turn by turn, whether a user's utterance can be
// resolved locally (pure selection, reshow request, accept/reject of a
// suggestion, explicit command) or must be forwarded to the external
// intent resolver, and it maintains the short-lived conversational memory
// (pending options, last clarification, rejected suggestions,
// recency-decayed context) that makes multi-turn disambiguation possible
// without re-asking the model every time.
//
// Conversation history is the durable source of truth; everything else in
// this package is a cache over it with an explicit decay policy.
package chat

import "time"

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// OptionKind tags what a pending option resolves to when selected.
type OptionKind string

const (
	OptionWorkspace     OptionKind = "workspace"
	OptionEntry         OptionKind = "entry"
	OptionPanel         OptionKind = "panel"
	OptionCommand       OptionKind = "command"
	OptionConfirmDelete OptionKind = "confirm_delete"
)

// PendingOption is one selectable candidate attached to a
// disambiguation-style assistant message. Index is 1-based, matching the
// number the user sees on the rendered pill.
type PendingOption struct {
	Index    int            `json:"index"`
	Label    string         `json:"label"`
	Sublabel string         `json:"sublabel,omitempty"`
	Kind     OptionKind     `json:"type"`
	ID       string         `json:"id"`
	Payload  map[string]any `json:"payload,omitempty"`
}

// PreviewSummary is the compact list/preview content an assistant message
// may carry (e.g. the first few entries of a long workspace listing).
type PreviewSummary struct {
	Title      string   `json:"title"`
	Items      []string `json:"items,omitempty"`
	TotalCount int      `json:"totalCount"`
}

// SuggestionCandidate is one typo-recovery candidate command.
type SuggestionCandidate struct {
	Label         string     `json:"label"`
	Sublabel      string     `json:"sublabel,omitempty"`
	PrimaryAction ActionKind `json:"primaryAction"`
}

// SuggestionPayload is the suggestion block attached to an assistant
// message when the user's input did not cleanly match a known action.
type SuggestionPayload struct {
	Type       string                `json:"type"`
	Candidates []SuggestionCandidate `json:"candidates"`
}

// Message is a single conversation history entry. Messages are immutable
// once appended; the history is append-only except for trimming to a
// retained window.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`

	// Optional payloads.
	Options    []PendingOption    `json:"options,omitempty"`
	Suggestion *SuggestionPayload `json:"suggestion,omitempty"`
	Preview    *PreviewSummary    `json:"preview,omitempty"`

	// OpenedPanel carries the title of a panel opened by this turn as
	// structured metadata, so the decay tracker never has to re-parse
	// assistant prose.
	OpenedPanel string `json:"openedPanel,omitempty"`

	// FromContext marks an answer produced from conversation context
	// rather than an executed action.
	FromContext bool `json:"fromContext,omitempty"`

	IsError bool `json:"isError,omitempty"`
}

// UIHint is live ground truth supplied by the presentation layer. A
// visible-panel hint overrides any opened-panel fact derived from history.
type UIHint struct {
	VisiblePanelTitle string
	VisiblePanels     []string
	FocusedPanelID    string
}

// ActionKind is the closed set of resolver/engine actions. The router
// switches over it exhaustively so a new kind is a compile-time-visible
// addition.
type ActionKind string

const (
	ActionNone              ActionKind = ""
	ActionSelectOption      ActionKind = "select_option"
	ActionReshowOptions     ActionKind = "reshow_options"
	ActionOpenWorkspace     ActionKind = "open_workspace"
	ActionOpenEntry         ActionKind = "open_entry"
	ActionCreateWorkspace   ActionKind = "create_workspace"
	ActionRenameWorkspace   ActionKind = "rename_workspace"
	ActionDeleteWorkspace   ActionKind = "delete_workspace"
	ActionDeleteEntry       ActionKind = "delete_entry"
	ActionOpenPanel         ActionKind = "open_panel"
	ActionGoHome            ActionKind = "go_home"
	ActionShowList          ActionKind = "show_list"
	ActionList              ActionKind = "list"
	ActionAnswerFromContext ActionKind = "answer_from_context"
	ActionClarify           ActionKind = "clarify"
	ActionError             ActionKind = "error"
)

// Concrete reports whether the action is an explicit, executed operation
// (navigation, panel open, create/rename/delete). Concrete success is what
// clears clarification state and suggestion memory.
func (k ActionKind) Concrete() bool {
	switch k {
	case ActionOpenWorkspace, ActionOpenEntry, ActionCreateWorkspace,
		ActionRenameWorkspace, ActionDeleteWorkspace, ActionDeleteEntry,
		ActionOpenPanel, ActionGoHome:
		return true
	default:
		return false
	}
}

// ResolvedAction is the concrete operation a turn produced, handed to the
// app shell to perform. The engine never mutates workspaces itself.
type ResolvedAction struct {
	Kind ActionKind

	WorkspaceID   string
	WorkspaceName string
	RenamedFrom   string

	EntryID    string
	EntryTitle string

	PanelID    string
	PanelTitle string

	DeleteKind string
	DeleteID   string
	DeleteName string

	Preview         *PreviewSummary
	ShowInViewPanel bool
}

// TurnResult is what a fully processed turn hands back to the caller: the
// assistant message that was appended to history, and the concrete action
// (if any) the shell should perform.
type TurnResult struct {
	Reply  Message
	Action *ResolvedAction
}
