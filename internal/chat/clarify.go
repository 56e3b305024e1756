package chat

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// CLARIFICATION STATE MACHINE
// =============================================================================
// Tracks whether the conversation is mid-clarification and what question
// is outstanding. At most one clarification exists at a time. The record
// survives turns that fail to produce a clean action (errors, context
// answers) so the user can still answer the original question; only an
// explicit, successfully executed action or a selection of one of the
// presented options closes it.

// ClarificationState is the machine's current state.
type ClarificationState int

const (
	ClarifyNone ClarificationState = iota
	ClarifyAwaiting
)

// ClarificationKind says what class of follow-up answer is expected.
type ClarificationKind string

const (
	ClarifyDisambiguation ClarificationKind = "disambiguation"
	ClarifyTypeConflict   ClarificationKind = "type_conflict"
	ClarifyScopeFollowUp  ClarificationKind = "scope_follow_up"
	ClarifyConfirmation   ClarificationKind = "confirmation"
)

// ClarificationRecord is the outstanding question.
type ClarificationRecord struct {
	ID              string
	Kind            ClarificationKind
	Intent          string // originating intent, as the resolver phrased it
	MessageID       string // assistant message that posed the question
	CreatedAt       time.Time
	Question        string
	OptionSummaries []string

	// MetaCount tracks consecutive meta/explain turns while the question
	// stays open. The cap that forces resolution is the caller's policy;
	// the machine only exposes the counter.
	MetaCount int
}

// Clarifier is the clarification state machine.
type Clarifier struct {
	record *ClarificationRecord
}

// NewClarifier returns a machine in the NONE state.
func NewClarifier() *Clarifier {
	return &Clarifier{}
}

// State returns the current state.
func (c *Clarifier) State() ClarificationState {
	if c.record == nil {
		return ClarifyNone
	}
	return ClarifyAwaiting
}

// Record returns the outstanding record, or nil.
func (c *Clarifier) Record() *ClarificationRecord {
	return c.record
}

// Begin opens (or refreshes) a clarification. Whenever options are
// (re)shown a matching record is created with the same option summaries,
// keeping the two stores in sync.
func (c *Clarifier) Begin(kind ClarificationKind, intent, messageID, question string, summaries []string, now time.Time) *ClarificationRecord {
	c.record = &ClarificationRecord{
		ID:              uuid.NewString(),
		Kind:            kind,
		Intent:          intent,
		MessageID:       messageID,
		CreatedAt:       now,
		Question:        question,
		OptionSummaries: summaries,
	}
	return c.record
}

// Resolve closes the clarification because the user selected one of the
// presented options. This happens immediately, independent of whether the
// resulting action itself fails.
func (c *Clarifier) Resolve() {
	c.record = nil
}

// ClearOnAction closes the clarification because an explicit action
// executed successfully. A response that merely lacks clarification
// metadata must NOT call this.
func (c *Clarifier) ClearOnAction() {
	c.record = nil
}

// BumpMeta increments and returns the consecutive meta-turn counter.
func (c *Clarifier) BumpMeta() int {
	if c.record == nil {
		return 0
	}
	c.record.MetaCount++
	return c.record.MetaCount
}

func optionSummaries(opts []PendingOption) []string {
	out := make([]string, len(opts))
	for i, o := range opts {
		if o.Sublabel != "" {
			out[i] = o.Label + " (" + o.Sublabel + ")"
		} else {
			out[i] = o.Label
		}
	}
	return out
}
