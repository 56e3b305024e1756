package chat

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// CONVERSATION SESSION
// =============================================================================
// One explicit session value owns everything the engine remembers between
// turns: the message history, the pending-option cache, suggestion memory,
// and the clarification machine. The session is created when a chat starts,
// reset on an explicit "clear chat", and destroyed with the chat. State is
// single-owner and mutated only on the main turn path; there are no
// background timers, and decay is recomputed from timestamps on each read.

// defaultRetainedMessages bounds the in-memory history window.
const defaultRetainedMessages = 200

// Session is the conversational state for one chat panel.
type Session struct {
	ID string

	history []Message
	retain  int

	pending     *PendingOptions
	suggestions *SuggestionState
	clarifier   *Clarifier
	tracker     *ContextTracker

	// Live UI ground truth, refreshed by the presentation layer.
	uiHint *UIHint

	// Where the user currently is, if the shell reported it.
	CurrentWorkspaceID string
	CurrentEntryID     string

	// processing blocks a second submission while a turn is in flight.
	// Turns are cooperative and single-owner; this is a flag, not a lock.
	processing bool

	turnCount int

	// lastAnswerFromContext marks that the previous assistant message was
	// a context answer, which is what a correction can push back against.
	lastAnswerFromContext bool
}

// NewSession creates a session with the given decay windows.
func NewSession(windows DecayWindows) (*Session, error) {
	if err := windows.Validate(); err != nil {
		return nil, err
	}
	pending := NewPendingOptions()
	pending.window = windows.Options
	return &Session{
		ID:          uuid.NewString(),
		retain:      defaultRetainedMessages,
		pending:     pending,
		suggestions: NewSuggestionState(),
		clarifier:   NewClarifier(),
		tracker:     NewContextTracker(windows),
	}, nil
}

// SetWindows replaces the decay windows at runtime, for config reload.
// The caller owns turn scheduling; call between turns, not during one.
func (s *Session) SetWindows(windows DecayWindows) error {
	if err := windows.Validate(); err != nil {
		return err
	}
	s.tracker = NewContextTracker(windows)
	s.pending.window = windows.Options
	return nil
}

// Append adds a message to history, stamping ID and CreatedAt when unset,
// and trims to the retained window. It returns the stored message.
func (s *Session) Append(msg Message) Message {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	s.history = append(s.history, msg)
	if len(s.history) > s.retain {
		s.history = s.history[len(s.history)-s.retain:]
	}
	return msg
}

// History returns the retained message window, oldest first.
func (s *Session) History() []Message {
	return s.history
}

// SetHistory replaces the history wholesale, for hydration from storage.
func (s *Session) SetHistory(msgs []Message) {
	s.history = msgs
	if len(s.history) > s.retain {
		s.history = s.history[len(s.history)-s.retain:]
	}
}

// Snapshot builds the recency-decayed context bundle for this moment.
func (s *Session) Snapshot(now time.Time) ContextSnapshot {
	return s.tracker.Build(s.history, now, s.uiHint)
}

// SetUIHint installs the live "currently visible panel" hint from the UI
// layer; pass nil to drop it.
func (s *Session) SetUIHint(hint *UIHint) {
	s.uiHint = hint
}

// UIHint returns the current live hint, or nil.
func (s *Session) UIHint() *UIHint {
	return s.uiHint
}

// Pending exposes the pending-option store.
func (s *Session) Pending() *PendingOptions {
	return s.pending
}

// Suggestions exposes suggestion memory.
func (s *Session) Suggestions() *SuggestionState {
	return s.suggestions
}

// Clarifier exposes the clarification state machine.
func (s *Session) Clarifier() *Clarifier {
	return s.clarifier
}

// TurnCount reports how many turns have fully resolved.
func (s *Session) TurnCount() int {
	return s.turnCount
}

// Reset clears everything back to a fresh session ("clear chat").
func (s *Session) Reset() {
	s.history = nil
	s.pending.Clear()
	s.suggestions.Clear()
	s.suggestions.ResetRejections()
	s.clarifier.Resolve()
	s.uiHint = nil
	s.CurrentWorkspaceID = ""
	s.CurrentEntryID = ""
	s.lastAnswerFromContext = false
	s.turnCount = 0
}

// beginTurn claims the processing flag. It returns false when a turn is
// already in flight: the second submission is blocked, not queued.
func (s *Session) beginTurn() bool {
	if s.processing {
		return false
	}
	s.processing = true
	return true
}

// endTurn releases the processing flag and counts the turn. It runs in a
// deferred cleanup path so the flag is released even on failure.
func (s *Session) endTurn() {
	s.processing = false
	s.turnCount++
}

// Processing reports whether a turn is currently in flight, so the UI can
// disable the send path.
func (s *Session) Processing() bool {
	return s.processing
}
