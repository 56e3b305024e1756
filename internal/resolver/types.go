// Package resolver defines the wire contract with the external
// language-model-based intent resolver and provides HTTP and Gemini
// backed clients for it. The engine treats the resolver as an opaque
// service: one awaited round trip per call, no retry.
package resolver

// OptionRef is the compact option shape sent to and received from the
// resolver. Index is 1-based.
type OptionRef struct {
	Index    int    `json:"index"`
	Label    string `json:"label"`
	Sublabel string `json:"sublabel,omitempty"`
	Type     string `json:"type"`
	ID       string `json:"id,omitempty"`
}

// Snapshot is the recency-decayed chat context bundle. Ages are in
// milliseconds, -1 when the category is absent.
type Snapshot struct {
	LastUserMessage      string      `json:"lastUserMessage,omitempty"`
	LastAssistantMessage string      `json:"lastAssistantMessage,omitempty"`
	ShownOptions         []OptionRef `json:"shownOptions,omitempty"`
	OptionsAgeMs         int64       `json:"optionsAgeMs"`
	ListPreview          string      `json:"listPreview,omitempty"`
	PanelTitle           string      `json:"panelTitle,omitempty"`
	PanelAgeMs           int64       `json:"panelAgeMs"`
	IsStale              bool        `json:"isStale"`
}

// HistoryEntry is one prior conversation message.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ClarificationRef describes the outstanding clarification, if any.
type ClarificationRef struct {
	ID             string `json:"id"`
	Kind           string `json:"kind"`
	OriginalIntent string `json:"originalIntent,omitempty"`
	Question       string `json:"question,omitempty"`
}

// RequestContext is everything the resolver may use beyond the utterance
// itself.
type RequestContext struct {
	Summary               string            `json:"summary,omitempty"`
	RecentUserMessages    []string          `json:"recentUserMessages,omitempty"`
	LastAssistantQuestion string            `json:"lastAssistantQuestion,omitempty"`
	SessionState          string            `json:"sessionState,omitempty"`
	PendingOptions        []OptionRef       `json:"pendingOptions,omitempty"`
	VisiblePanels         []string          `json:"visiblePanels,omitempty"`
	FocusedPanelID        string            `json:"focusedPanelId,omitempty"`
	ChatContext           Snapshot          `json:"chatContext"`
	LastClarification     *ClarificationRef `json:"lastClarification,omitempty"`
	UIContext             string            `json:"uiContext,omitempty"`

	// FullChatHistory carries at most the last 50 messages.
	FullChatHistory []HistoryEntry `json:"fullChatHistory,omitempty"`
}

// Request is one intent-resolution call.
type Request struct {
	Message            string         `json:"message"`
	CurrentEntryID     string         `json:"currentEntryId,omitempty"`
	CurrentWorkspaceID string         `json:"currentWorkspaceId,omitempty"`
	Context            RequestContext `json:"context"`
}

// WorkspaceRef identifies a workspace in a resolution.
type WorkspaceRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// EntryRef identifies an entry in a resolution.
type EntryRef struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	WorkspaceID string `json:"workspaceId,omitempty"`
}

// DeleteTarget identifies what a delete action removes.
type DeleteTarget struct {
	Kind string `json:"kind"` // workspace|entry
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Resolution is the resolver's structured action payload.
type Resolution struct {
	Action  string `json:"action"`
	Message string `json:"message"`
	Success bool   `json:"success"`

	Options []OptionRef `json:"options,omitempty"`

	Workspace        *WorkspaceRef `json:"workspace,omitempty"`
	Entry            *EntryRef     `json:"entry,omitempty"`
	NewWorkspace     *WorkspaceRef `json:"newWorkspace,omitempty"`
	RenamedWorkspace *WorkspaceRef `json:"renamedWorkspace,omitempty"`
	RenamedFrom      string        `json:"renamedFrom,omitempty"`
	DeleteTarget     *DeleteTarget `json:"deleteTarget,omitempty"`

	PanelID          string `json:"panelId,omitempty"`
	PanelTitle       string `json:"panelTitle,omitempty"`
	SemanticPanelID  string `json:"semanticPanelId,omitempty"`
	ViewPanelContent string `json:"viewPanelContent,omitempty"`

	PreviewItems    []string `json:"previewItems,omitempty"`
	TotalCount      int      `json:"totalCount,omitempty"`
	ShowInViewPanel bool     `json:"showInViewPanel,omitempty"`

	// SelectedIndex accompanies a select_option action (1-based).
	SelectedIndex int `json:"selectedIndex,omitempty"`
}

// SuggestionCandidate is one typo-recovery candidate command.
type SuggestionCandidate struct {
	Label         string `json:"label"`
	Sublabel      string `json:"sublabel,omitempty"`
	PrimaryAction string `json:"primaryAction"`
}

// Suggestions is the resolver's typo/ambiguity recovery block.
type Suggestions struct {
	Type       string                `json:"type"`
	Candidates []SuggestionCandidate `json:"candidates"`
}

// Clarification is the resolver's follow-up question metadata.
type Clarification struct {
	ID             string `json:"id"`
	NextAction     string `json:"nextAction"`
	OriginalIntent string `json:"originalIntent"`
}

// Response is the resolver's full reply.
type Response struct {
	Resolution    Resolution     `json:"resolution"`
	Suggestions   *Suggestions   `json:"suggestions,omitempty"`
	Clarification *Clarification `json:"clarification,omitempty"`
}

// RetrievalKind classifies what the retrieval collaborator is asked to do.
type RetrievalKind string

const (
	RetrievalMeta       RetrievalKind = "meta"
	RetrievalCorrection RetrievalKind = "correction"
	RetrievalFollowUp   RetrievalKind = "follow_up"
	RetrievalDoc        RetrievalKind = "doc"
)

// RetrievalRequest is one call to the retrieval collaborator behind the
// meta/correction/follow-up/doc-question routes.
type RetrievalRequest struct {
	Kind    RetrievalKind `json:"kind"`
	Message string        `json:"message"`
	Context Snapshot      `json:"context"`
}
