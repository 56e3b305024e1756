package chat

import (
	"regexp"
	"strings"
)

// =============================================================================
// PHRASE CLASSIFIERS
// =============================================================================
// Pure predicates over normalized input recognizing the small fixed
// vocabulary the engine resolves without a model call: affirmations,
// rejections, reshow requests, explicit commands, and the show-all
// heuristic. Everything richer than these is the resolver's job.

var affirmations = map[string]bool{
	"yes": true, "yeah": true, "yep": true, "yup": true,
	"sure": true, "ok": true, "okay": true,
}

var rejections = map[string]bool{
	"no": true, "nope": true, "not that": true, "cancel": true,
	"never mind": true, "nevermind": true,
}

// knownTypos maps frequent misspellings seen in real transcripts to their
// intended form before reshow-pattern matching.
var knownTypos = map[string]string{
	"optinos": "options",
	"optons":  "options",
	"opitons": "options",
	"whta":    "what",
	"waht":    "what",
	"agian":   "again",
	"agin":    "again",
	"shwo":    "show",
}

var reshowPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(?:can you |could you |please )?show (?:me )?(?:the |those )?options(?: again)?(?: please)?$`),
	regexp.MustCompile(`^what (?:were|are) (?:those|they|my options|the options)$`),
	regexp.MustCompile(`^(?:show|see) (?:them|those) again$`),
	regexp.MustCompile(`^remind me(?: again)?$`),
	regexp.MustCompile(`^(?:the )?options$`),
	regexp.MustCompile(`^what were the choices$`),
}

var commandVerbRe = regexp.MustCompile(`(?:^|\s)(open|show|list|view|go|back|home|create|rename|delete|remove)(?:\s|$)`)

var showAllPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^all\s+\S+`),            // "all notes", "all 12"
	regexp.MustCompile(`\b(?:full|complete)\s+list\b`),
	regexp.MustCompile(`^(?:everything|the rest)$`),
	regexp.MustCompile(`^(?:show|see)\s+(?:me\s+)?(?:all|more)(?:\s+of\s+them)?$`),
}

var metaPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(?:what do you mean|what does that mean)$`),
	regexp.MustCompile(`^(?:why|huh|what)$`),
	regexp.MustCompile(`^explain(?: that)?$`),
	regexp.MustCompile(`^i (?:don'?t|do not) (?:understand|get it)$`),
}

var followUpPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^tell me more(?: about (?:it|that|them))?$`),
	regexp.MustCompile(`^more(?: info| details| detail)?$`),
	regexp.MustCompile(`^(?:go on|continue|keep going|what else)$`),
	regexp.MustCompile(`^(?:what|how) about (?:it|that|them)$`),
	regexp.MustCompile(`^elaborate$`),
}

var correctionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(?:that'?s )?not (?:it|right|what i (?:meant|asked))$`),
	regexp.MustCompile(`^i meant\b`),
	regexp.MustCompile(`^wrong(?: one)?$`),
}

var questionLeadRe = regexp.MustCompile(`^(?:how|what|where|when|why|who|which|can i|could i|do i|does|is there|are there)\b`)

// IsAffirmation reports an exact match against the fixed affirmation list.
func IsAffirmation(input string) bool {
	return affirmations[normalizeInput(input)]
}

// IsRejection reports an exact match against the fixed rejection list, or
// an input beginning with "no,".
func IsRejection(input string) bool {
	norm := normalizeInput(input)
	if rejections[norm] {
		return true
	}
	return strings.HasPrefix(norm, "no,")
}

// IsReshowRequest recognizes requests to re-display the pending options,
// tolerating a short list of known typos.
func IsReshowRequest(input string) bool {
	norm := fixTypos(normalizeInput(input))
	for _, re := range reshowPatterns {
		if re.MatchString(norm) {
			return true
		}
	}
	return false
}

// HasCommandVerb reports whether the input contains any navigation/action
// verb, with no selection-precedence carve-out.
func HasCommandVerb(input string) bool {
	return commandVerbRe.MatchString(normalizeInput(input))
}

// IsExplicitCommand reports whether the input unambiguously names a new
// action. An utterance that also carries ordinal/number language ("open
// the second") is a selection attempt, not a command: selection intent
// takes precedence when the two overlap.
func IsExplicitCommand(input string) bool {
	if !HasCommandVerb(input) {
		return false
	}
	return !ContainsSelectionLanguage(input)
}

// IsShowAllRequest is the keyword heuristic for "expand the preview into
// the full list" phrasings.
func IsShowAllRequest(input string) bool {
	norm := normalizeInput(input)
	for _, re := range showAllPatterns {
		if re.MatchString(norm) {
			return true
		}
	}
	return false
}

// IsMetaQuestion recognizes "what do you mean" style phrases that ask
// about the assistant's previous utterance rather than the workspace.
func IsMetaQuestion(input string) bool {
	norm := normalizeInput(input)
	for _, re := range metaPatterns {
		if re.MatchString(norm) {
			return true
		}
	}
	return false
}

// IsFollowUp recognizes pronoun-heavy continuations of the previous
// answer ("tell me more").
func IsFollowUp(input string) bool {
	norm := normalizeInput(input)
	for _, re := range followUpPatterns {
		if re.MatchString(norm) {
			return true
		}
	}
	return false
}

// IsCorrection recognizes a pushback against the previous factual answer.
// Plain rejections count too; the router only consults this classifier
// after the suggestion-rejection step has had its chance.
func IsCorrection(input string) bool {
	if IsRejection(input) {
		return true
	}
	norm := normalizeInput(input)
	for _, re := range correctionPatterns {
		if re.MatchString(norm) {
			return true
		}
	}
	return false
}

// IsDocQuestion recognizes documentation-style questions routed to the
// retrieval collaborator. Reshow phrasings ("what were those?") are
// excluded: they belong to the reshow step.
func IsDocQuestion(input string) bool {
	if IsReshowRequest(input) || IsMetaQuestion(input) || IsFollowUp(input) {
		return false
	}
	norm := normalizeInput(input)
	if !questionLeadRe.MatchString(norm) {
		return false
	}
	// A bare question word alone is meta territory, not a doc question.
	return len(strings.Fields(norm)) >= 2
}

func fixTypos(norm string) string {
	fields := strings.Fields(norm)
	for i, f := range fields {
		if fixed, ok := knownTypos[f]; ok {
			fields[i] = fixed
		}
	}
	return strings.Join(fields, " ")
}
