package chat

import "strings"

// =============================================================================
// SUGGESTION STATE
// =============================================================================
// Tracks the outstanding typo/ambiguity suggestion (at most one at a time)
// and the accumulating set of candidate labels the user has explicitly
// declined. The rejected set persists until the user successfully executes
// a different command: a concrete, unambiguous success resets suggestion
// memory.

// SuggestionRecord is the active suggestion, paired with the assistant
// message that carried it.
type SuggestionRecord struct {
	Candidates []SuggestionCandidate
	MessageID  string
}

// SuggestionState owns the active suggestion and the rejected-label set.
type SuggestionState struct {
	active   *SuggestionRecord
	rejected map[string]struct{}
}

// NewSuggestionState returns an empty suggestion store.
func NewSuggestionState() *SuggestionState {
	return &SuggestionState{rejected: make(map[string]struct{})}
}

// Propose installs a suggestion, dropping any candidates the user already
// rejected. With nothing left after filtering, no suggestion becomes
// active: a fully rejected set is never re-offered.
func (s *SuggestionState) Propose(candidates []SuggestionCandidate, messageID string) []SuggestionCandidate {
	remaining := s.FilterRejected(candidates)
	if len(remaining) == 0 {
		s.active = nil
		return nil
	}
	s.active = &SuggestionRecord{Candidates: remaining, MessageID: messageID}
	return remaining
}

// Active returns the outstanding suggestion, or nil.
func (s *SuggestionState) Active() *SuggestionRecord {
	return s.active
}

// Clear drops the active suggestion without touching the rejected set.
func (s *SuggestionState) Clear() {
	s.active = nil
}

// RejectActive adds every active candidate's label to the rejected set and
// clears the active suggestion. It returns the candidates that were just
// rejected so the caller can phrase its response.
func (s *SuggestionState) RejectActive() []SuggestionCandidate {
	if s.active == nil {
		return nil
	}
	rejected := s.active.Candidates
	for _, c := range rejected {
		s.rejected[foldLabel(c.Label)] = struct{}{}
	}
	s.active = nil
	return rejected
}

// IsRejected reports whether the user has declined this label before.
func (s *SuggestionState) IsRejected(label string) bool {
	_, ok := s.rejected[foldLabel(label)]
	return ok
}

// FilterRejected returns the candidates whose labels have not been
// declined.
func (s *SuggestionState) FilterRejected(candidates []SuggestionCandidate) []SuggestionCandidate {
	var out []SuggestionCandidate
	for _, c := range candidates {
		if !s.IsRejected(c.Label) {
			out = append(out, c)
		}
	}
	return out
}

// ResetRejections wipes the rejected-label set. Called after the user
// successfully completes any navigation/create/rename/delete action.
func (s *SuggestionState) ResetRejections() {
	s.rejected = make(map[string]struct{})
}

func foldLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}
