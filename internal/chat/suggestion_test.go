package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggestionState_ProposeAndReject(t *testing.T) {
	s := NewSuggestionState()

	candidates := []SuggestionCandidate{
		{Label: "Recipes", PrimaryAction: ActionOpenWorkspace},
		{Label: "Research", PrimaryAction: ActionOpenWorkspace},
	}

	shown := s.Propose(candidates, "msg-1")
	require.Len(t, shown, 2)
	require.NotNil(t, s.Active())

	rejected := s.RejectActive()
	assert.Len(t, rejected, 2)
	assert.Nil(t, s.Active(), "rejection must clear the active suggestion")
	assert.True(t, s.IsRejected("Recipes"))
	assert.True(t, s.IsRejected("recipes"), "rejection memory is case-insensitive")
	assert.False(t, s.IsRejected("Archive"))
}

// TestSuggestionState_RejectedNeverReProposed: once rejected, a label is
// filtered out of every later proposal until an executed action resets
// the memory.
func TestSuggestionState_RejectedNeverReProposed(t *testing.T) {
	s := NewSuggestionState()

	s.Propose([]SuggestionCandidate{{Label: "Recipes"}, {Label: "Research"}}, "msg-1")
	s.RejectActive()

	t.Run("partially rejected set", func(t *testing.T) {
		shown := s.Propose([]SuggestionCandidate{{Label: "Recipes"}, {Label: "Archive"}}, "msg-2")
		require.Len(t, shown, 1)
		assert.Equal(t, "Archive", shown[0].Label)
	})

	t.Run("fully rejected set yields nothing", func(t *testing.T) {
		shown := s.Propose([]SuggestionCandidate{{Label: "recipes"}, {Label: "RESEARCH"}}, "msg-3")
		assert.Empty(t, shown)
		assert.Nil(t, s.Active(), "an all-filtered proposal leaves no active suggestion")
	})

	t.Run("reset restores the full set", func(t *testing.T) {
		s.ResetRejections()
		shown := s.Propose([]SuggestionCandidate{{Label: "Recipes"}}, "msg-4")
		require.Len(t, shown, 1)
	})
}

func TestSuggestionState_ClearKeepsRejections(t *testing.T) {
	s := NewSuggestionState()
	s.Propose([]SuggestionCandidate{{Label: "Recipes"}}, "msg-1")
	s.RejectActive()

	s.Propose([]SuggestionCandidate{{Label: "Archive"}}, "msg-2")
	s.Clear()

	assert.Nil(t, s.Active())
	assert.True(t, s.IsRejected("Recipes"), "Clear drops the active record, not the rejection memory")
}

func TestFilterRejected(t *testing.T) {
	s := NewSuggestionState()
	s.Propose([]SuggestionCandidate{{Label: "workspaces"}}, "msg-1")
	s.RejectActive()

	got := s.FilterRejected([]SuggestionCandidate{
		{Label: "workspaces"},
		{Label: "recent entries"},
		{Label: "home"},
	})
	require.Len(t, got, 2)
	assert.Equal(t, "recent entries", got[0].Label)
}
