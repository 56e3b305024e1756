package chat

import (
	"fmt"
	"time"
)

// =============================================================================
// CONTEXT DECAY TRACKING
// =============================================================================
// Computes which categories of prior context are still fresh under
// independent decay windows and assembles the compact snapshot forwarded
// to the external resolver. Decay is recomputed lazily from timestamps on
// every read; nothing here runs on a timer.

// Default decay windows. Strictly ordered short -> long.
const (
	DefaultOptionsWindow = 60 * time.Second
	DefaultPreviewWindow = 90 * time.Second
	DefaultPanelWindow   = 180 * time.Second

	// contextScanLimit bounds the newest-to-oldest history scan.
	contextScanLimit = 10
)

// DecayWindows holds the per-category decay windows.
type DecayWindows struct {
	Options time.Duration
	Preview time.Duration
	Panel   time.Duration
}

// DefaultDecayWindows returns the standard windows.
func DefaultDecayWindows() DecayWindows {
	return DecayWindows{
		Options: DefaultOptionsWindow,
		Preview: DefaultPreviewWindow,
		Panel:   DefaultPanelWindow,
	}
}

// Validate enforces the short->long ordering invariant.
func (w DecayWindows) Validate() error {
	if w.Options <= 0 || w.Preview <= 0 || w.Panel <= 0 {
		return fmt.Errorf("decay windows must be positive: %+v", w)
	}
	if w.Options > w.Preview || w.Preview > w.Panel {
		return fmt.Errorf("decay windows must be ordered options <= preview <= panel: %+v", w)
	}
	return nil
}

// ContextSnapshot is the ephemeral context bundle rebuilt every turn.
// Ages are reported numerically (milliseconds, -1 when the category is
// absent) so callers can apply secondary policy, e.g. suppressing the
// selection guard once options are stale.
type ContextSnapshot struct {
	LastUserMessage      string
	LastAssistantMessage string

	Options      []PendingOption
	OptionsAgeMs int64

	Preview *PreviewSummary

	PanelTitle string
	PanelAgeMs int64

	// IsStale is true only when no decayed category produced a value and
	// the history is non-empty.
	IsStale bool
}

// ContextTracker builds ContextSnapshots from timestamped history.
type ContextTracker struct {
	windows DecayWindows
}

// NewContextTracker returns a tracker over the given windows.
func NewContextTracker(w DecayWindows) *ContextTracker {
	return &ContextTracker{windows: w}
}

// Build scans history newest-to-oldest, capturing at most one instance of
// each fact category. The scan stops once every category has a value or
// after ten messages, whichever comes first. A live UI hint, when present,
// overrides any opened-panel fact derived from history: UI ground truth
// beats inference.
func (t *ContextTracker) Build(history []Message, now time.Time, hint *UIHint) ContextSnapshot {
	snap := ContextSnapshot{OptionsAgeMs: -1, PanelAgeMs: -1}

	var (
		haveUser, haveAssistant  bool
		haveOptions, havePreview bool
		havePanel                bool
	)

	scanned := 0
	for i := len(history) - 1; i >= 0 && scanned < contextScanLimit; i-- {
		msg := history[i]
		scanned++
		age := now.Sub(msg.CreatedAt)

		if !haveUser && msg.Role == RoleUser {
			snap.LastUserMessage = msg.Content
			haveUser = true
		}
		if msg.Role == RoleAssistant && !haveAssistant {
			snap.LastAssistantMessage = msg.Content
			haveAssistant = true
		}

		if !haveOptions && msg.Role == RoleAssistant && len(msg.Options) > 0 {
			// Newest instance wins whether or not it is fresh; an expired
			// newest set means the category is absent, not that an even
			// older set should be resurrected.
			haveOptions = true
			if age <= t.windows.Options {
				snap.Options = msg.Options
				snap.OptionsAgeMs = age.Milliseconds()
			}
		}
		if !havePreview && msg.Preview != nil {
			havePreview = true
			if age <= t.windows.Preview {
				snap.Preview = msg.Preview
			}
		}
		if !havePanel && msg.OpenedPanel != "" {
			havePanel = true
			if age <= t.windows.Panel {
				snap.PanelTitle = msg.OpenedPanel
				snap.PanelAgeMs = age.Milliseconds()
			}
		}

		if haveUser && haveAssistant && haveOptions && havePreview && havePanel {
			break
		}
	}

	if hint != nil && hint.VisiblePanelTitle != "" {
		snap.PanelTitle = hint.VisiblePanelTitle
		snap.PanelAgeMs = 0
	}

	snap.IsStale = len(history) > 0 &&
		len(snap.Options) == 0 && snap.Preview == nil && snap.PanelTitle == ""

	return snap
}
