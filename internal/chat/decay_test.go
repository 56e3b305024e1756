package chat

import (
	"testing"
	"time"
)

func TestDecayWindowsValidate(t *testing.T) {
	if err := DefaultDecayWindows().Validate(); err != nil {
		t.Fatalf("default windows invalid: %v", err)
	}

	bad := DecayWindows{Options: 90 * time.Second, Preview: 60 * time.Second, Panel: 180 * time.Second}
	if err := bad.Validate(); err == nil {
		t.Fatal("unordered windows validated")
	}

	zero := DecayWindows{Options: 0, Preview: 90 * time.Second, Panel: 180 * time.Second}
	if err := zero.Validate(); err == nil {
		t.Fatal("zero window validated")
	}
}

// TestContextTracker_Freshness checks each category against its own
// window just inside and just past the boundary.
func TestContextTracker_Freshness(t *testing.T) {
	now := time.Now()
	tracker := NewContextTracker(DefaultDecayWindows())

	history := []Message{
		{Role: RoleUser, Content: "open something", CreatedAt: now.Add(-5 * time.Second)},
		{Role: RoleAssistant, Content: "Which one?", CreatedAt: now.Add(-5 * time.Second),
			Options: optionSet("Research", "Recipes")},
	}

	t.Run("options fresh at 59.999s", func(t *testing.T) {
		hist := []Message{{Role: RoleAssistant, Options: optionSet("A", "B"),
			CreatedAt: now.Add(-59999 * time.Millisecond)}}
		snap := tracker.Build(hist, now, nil)
		if len(snap.Options) != 2 {
			t.Fatalf("options missing: %+v", snap)
		}
		if snap.OptionsAgeMs != 59999 {
			t.Errorf("OptionsAgeMs = %d, want 59999", snap.OptionsAgeMs)
		}
	})

	t.Run("options expired at 60.001s", func(t *testing.T) {
		hist := []Message{{Role: RoleAssistant, Options: optionSet("A", "B"),
			CreatedAt: now.Add(-60001 * time.Millisecond)}}
		snap := tracker.Build(hist, now, nil)
		if len(snap.Options) != 0 {
			t.Fatalf("expired options survived: %+v", snap)
		}
		if snap.OptionsAgeMs != -1 {
			t.Errorf("OptionsAgeMs = %d, want -1", snap.OptionsAgeMs)
		}
	})

	t.Run("preview has its own longer window", func(t *testing.T) {
		hist := []Message{{Role: RoleAssistant, Preview: &PreviewSummary{Title: "Recent entries"},
			CreatedAt: now.Add(-80 * time.Second)}}
		snap := tracker.Build(hist, now, nil)
		if snap.Preview == nil {
			t.Fatal("preview missing inside its 90s window")
		}

		hist[0].CreatedAt = now.Add(-100 * time.Second)
		snap = tracker.Build(hist, now, nil)
		if snap.Preview != nil {
			t.Fatal("preview survived past its window")
		}
	})

	t.Run("last messages always captured", func(t *testing.T) {
		snap := tracker.Build(history, now, nil)
		if snap.LastUserMessage != "open something" {
			t.Errorf("LastUserMessage = %q", snap.LastUserMessage)
		}
		if snap.LastAssistantMessage != "Which one?" {
			t.Errorf("LastAssistantMessage = %q", snap.LastAssistantMessage)
		}
	})
}

// TestContextTracker_NewestInstanceWins verifies that an expired newest
// instance makes the category absent rather than resurrecting an older,
// even more stale one.
func TestContextTracker_NewestInstanceWins(t *testing.T) {
	now := time.Now()
	tracker := NewContextTracker(DefaultDecayWindows())

	// The later message in history is the newest instance even when its
	// timestamp says it has already expired.
	history := []Message{
		{Role: RoleAssistant, Options: optionSet("Earlier A", "Earlier B"), CreatedAt: now.Add(-30 * time.Second)},
		{Role: RoleAssistant, Options: optionSet("Newest A", "Newest B"), CreatedAt: now.Add(-120 * time.Second)},
	}

	snap := tracker.Build(history, now, nil)
	if len(snap.Options) != 0 {
		t.Fatalf("older option set resurrected past an expired newest: %+v", snap.Options)
	}
}

// TestContextTracker_ScanBound verifies the ten-message scan bound: facts
// buried deeper than ten messages are invisible even if technically fresh.
func TestContextTracker_ScanBound(t *testing.T) {
	now := time.Now()
	tracker := NewContextTracker(DefaultDecayWindows())

	history := []Message{
		{Role: RoleAssistant, Options: optionSet("Buried"), CreatedAt: now.Add(-time.Second)},
	}
	for i := 0; i < 10; i++ {
		history = append(history, Message{Role: RoleUser, Content: "filler", CreatedAt: now})
	}

	snap := tracker.Build(history, now, nil)
	if len(snap.Options) != 0 {
		t.Fatalf("options found past the scan bound: %+v", snap.Options)
	}
}

// TestContextTracker_UIHintOverridesPanel verifies live UI state beats a
// history-derived panel fact, including a fresher one.
func TestContextTracker_UIHintOverridesPanel(t *testing.T) {
	now := time.Now()
	tracker := NewContextTracker(DefaultDecayWindows())

	history := []Message{
		{Role: RoleAssistant, OpenedPanel: "Groceries", CreatedAt: now.Add(-10 * time.Second)},
	}

	snap := tracker.Build(history, now, &UIHint{VisiblePanelTitle: "Budget"})
	if snap.PanelTitle != "Budget" {
		t.Fatalf("PanelTitle = %q, want the hinted panel", snap.PanelTitle)
	}
	if snap.PanelAgeMs != 0 {
		t.Errorf("PanelAgeMs = %d, want 0 for a live hint", snap.PanelAgeMs)
	}
}

func TestContextTracker_IsStale(t *testing.T) {
	now := time.Now()
	tracker := NewContextTracker(DefaultDecayWindows())

	t.Run("empty history is not stale", func(t *testing.T) {
		if snap := tracker.Build(nil, now, nil); snap.IsStale {
			t.Fatal("empty history reported stale")
		}
	})

	t.Run("all categories decayed is stale", func(t *testing.T) {
		history := []Message{
			{Role: RoleAssistant, Options: optionSet("A"), CreatedAt: now.Add(-5 * time.Minute)},
		}
		if snap := tracker.Build(history, now, nil); !snap.IsStale {
			t.Fatal("fully decayed history not reported stale")
		}
	})

	t.Run("any fresh category is not stale", func(t *testing.T) {
		history := []Message{
			{Role: RoleAssistant, OpenedPanel: "Groceries", CreatedAt: now.Add(-10 * time.Second)},
		}
		if snap := tracker.Build(history, now, nil); snap.IsStale {
			t.Fatal("fresh panel reported stale")
		}
	})
}
