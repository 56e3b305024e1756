package chat

import "time"

// =============================================================================
// PENDING OPTIONS
// =============================================================================
// The authoritative set of currently selectable options for the active
// turn. The in-memory set is a cache with a one-turn grace lifetime;
// history is the durable source of truth. A turn's active set is either
// the cache or the history-derived set, never a merge of both.

// OptionSource says where the active option set came from.
type OptionSource string

const (
	SourceNone    OptionSource = "none"
	SourceCache   OptionSource = "cache"
	SourceHistory OptionSource = "history"
)

// PendingOptions tracks the selectable options for the active turn.
type PendingOptions struct {
	cache []PendingOption

	// grace is a one-shot "just selected" marker: set to 1 immediately
	// after a selection executes, reset on the next Set/Clear. It never
	// gates the selection guard and must not prevent the very next
	// explicit command from clearing the cache.
	grace int

	// window is how long a history-derived option set stays usable after
	// it was shown (the reshow grace window).
	window time.Duration
}

// NewPendingOptions returns a store with the default reshow grace window.
func NewPendingOptions() *PendingOptions {
	return &PendingOptions{window: DefaultOptionsWindow}
}

// Set replaces the cached option set.
func (p *PendingOptions) Set(opts []PendingOption) {
	p.cache = opts
	p.grace = 0
}

// Clear drops the cached option set. Called when an explicit command or an
// executed navigation/create/rename/delete/open-panel action occurs.
func (p *PendingOptions) Clear() {
	p.cache = nil
	p.grace = 0
}

// ExtendGrace marks that a selection just executed, keeping the cached
// options alive for one more turn. It never clears the cache.
func (p *PendingOptions) ExtendGrace() {
	p.grace = 1
}

// Grace exposes the one-shot marker for callers with secondary policy.
func (p *PendingOptions) Grace() int {
	return p.grace
}

// Current returns the active option set and its source. The cache wins
// when non-empty; otherwise the most recent assistant message carrying
// options is usable only while its age is within the reshow grace window.
// Past that the set is expired and callers must report "no options open"
// rather than silently resolving.
func (p *PendingOptions) Current(history []Message, now time.Time) ([]PendingOption, OptionSource) {
	if len(p.cache) > 0 {
		return p.cache, SourceCache
	}

	scanned := 0
	for i := len(history) - 1; i >= 0 && scanned < contextScanLimit; i-- {
		msg := history[i]
		scanned++
		if msg.Role != RoleAssistant || len(msg.Options) == 0 {
			continue
		}
		if now.Sub(msg.CreatedAt) <= p.window {
			return msg.Options, SourceHistory
		}
		// The newest option-bearing message is expired; older ones are
		// older still.
		return nil, SourceNone
	}
	return nil, SourceNone
}
