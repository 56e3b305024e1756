package chat

import (
	"regexp"
	"strconv"
	"strings"
)

// =============================================================================
// SELECTION MATCHING
// =============================================================================
// Pure functions that decide whether free text names one of the current
// pending options. Ordinal, number, and letter forms must match the entire
// normalized input; label matching walks a fixed ladder of comparisons, and
// any rung with more than one hit is treated as no match rather than a
// guess.

// SelectionMatch is the result of MatchSelection. Index is 0-based into the
// option slice that was passed in.
type SelectionMatch struct {
	Matched bool
	Index   int
}

var ordinalWords = map[string]int{
	"first":  0,
	"second": 1,
	"third":  2,
	"fourth": 3,
	"fifth":  4,
}

var (
	// "option 3"
	optionNumberRe = regexp.MustCompile(`^option\s+([1-9][0-9]*)$`)
	// "2", "2nd", "the 2nd", "the 2nd one", "2nd one"
	numericOrdinalRe = regexp.MustCompile(`^(?:the\s+)?([1-9][0-9]*)(?:st|nd|rd|th)?(?:\s+one)?$`)
	// "second", "the second", "the second one"
	wordOrdinalRe = regexp.MustCompile(`^(?:the\s+)?(first|second|third|fourth|fifth)(?:\s+one)?$`)
	// bare single letter
	singleLetterRe = regexp.MustCompile(`^[a-e]$`)
	// a badge token at the start of a label: "a)", "b.", "c:", "(d)", "[e]"
	badgeTokenRe = regexp.MustCompile(`^(?:\(([a-eA-E])\)|\[([a-eA-E])\]|([a-eA-E])[).:])`)

	// any selection-flavored language appearing anywhere in an utterance;
	// used to give selection intent precedence over command verbs
	selectionLanguageRe = regexp.MustCompile(`(?:^|\s)(?:first|second|third|fourth|fifth|last|option\s+[0-9]+|[1-9][0-9]*(?:st|nd|rd|th)?)(?:\s|$)`)
)

// normalizeInput trims, case-folds, and drops a single trailing
// punctuation mark so "Second." and "second" compare equal.
func normalizeInput(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimRight(s, ".!?")
	return strings.TrimSpace(s)
}

// MatchSelection resolves input to an option index by ordinal word, plain
// number, "option N", "the Nth one", "last", or a single letter badge.
// The pattern must cover the whole normalized input; ordinals out of range
// and ambiguous letters return unmatched.
func MatchSelection(input string, options []PendingOption) SelectionMatch {
	if len(options) == 0 {
		return SelectionMatch{}
	}
	norm := normalizeInput(input)
	if norm == "" {
		return SelectionMatch{}
	}

	if norm == "last" {
		return SelectionMatch{Matched: true, Index: len(options) - 1}
	}

	if idx, ok := ordinalWords[norm]; ok {
		return boundedMatch(idx, len(options))
	}
	if m := wordOrdinalRe.FindStringSubmatch(norm); m != nil {
		return boundedMatch(ordinalWords[m[1]], len(options))
	}
	if m := optionNumberRe.FindStringSubmatch(norm); m != nil {
		n, _ := strconv.Atoi(m[1])
		return boundedMatch(n-1, len(options))
	}
	if m := numericOrdinalRe.FindStringSubmatch(norm); m != nil {
		n, _ := strconv.Atoi(m[1])
		return boundedMatch(n-1, len(options))
	}
	if singleLetterRe.MatchString(norm) {
		return matchLetterBadge(norm, options)
	}

	return SelectionMatch{}
}

func boundedMatch(idx, count int) SelectionMatch {
	if idx < 0 || idx >= count {
		return SelectionMatch{}
	}
	return SelectionMatch{Matched: true, Index: idx}
}

// matchLetterBadge resolves a bare letter against option labels that carry
// an explicit letter badge ("a) Research", "[b] Notes"). A capital that is
// simply part of the name ("Workspace C") is not a badge. Zero or multiple
// badge hits return unmatched: ambiguity is avoided, never guessed.
func matchLetterBadge(letter string, options []PendingOption) SelectionMatch {
	hit := -1
	for i, opt := range options {
		if !labelHasBadge(opt.Label, letter) {
			continue
		}
		if hit >= 0 {
			return SelectionMatch{}
		}
		hit = i
	}
	if hit < 0 {
		return SelectionMatch{}
	}
	return SelectionMatch{Matched: true, Index: hit}
}

func labelHasBadge(label, letter string) bool {
	m := badgeTokenRe.FindStringSubmatch(strings.TrimSpace(label))
	if m == nil {
		return false
	}
	for _, g := range m[1:] {
		if g != "" {
			return strings.EqualFold(g, letter)
		}
	}
	return false
}

// MatchByLabel resolves input against option labels, trying in order:
// exact label, exact sublabel, input-contains-label, label-starts-with-
// input, and label-contains-input (input length >= 3). Each rung must
// produce exactly one hit; otherwise control passes to the next rung, and
// ultimately to the external resolver.
func MatchByLabel(input string, options []PendingOption) (PendingOption, bool) {
	norm := normalizeInput(input)
	if norm == "" || len(options) == 0 {
		return PendingOption{}, false
	}

	steps := []func(PendingOption) bool{
		func(o PendingOption) bool { return normalizeInput(o.Label) == norm },
		func(o PendingOption) bool { return o.Sublabel != "" && normalizeInput(o.Sublabel) == norm },
		func(o PendingOption) bool { return strings.Contains(norm, normalizeInput(o.Label)) },
		func(o PendingOption) bool { return strings.HasPrefix(normalizeInput(o.Label), norm) },
		func(o PendingOption) bool {
			return len(norm) >= 3 && strings.Contains(normalizeInput(o.Label), norm)
		},
	}

	for _, match := range steps {
		hit := -1
		ambiguous := false
		for i, opt := range options {
			if !match(opt) {
				continue
			}
			if hit >= 0 {
				ambiguous = true
				break
			}
			hit = i
		}
		if ambiguous {
			continue
		}
		if hit >= 0 {
			return options[hit], true
		}
	}
	return PendingOption{}, false
}

// ContainsSelectionLanguage reports whether the utterance carries ordinal
// or number language anywhere. When both a command verb and selection
// language are present, selection intent wins.
func ContainsSelectionLanguage(input string) bool {
	return selectionLanguageRe.MatchString(normalizeInput(input))
}
