// Package filter implements the Filter & Triage stage (C4): deterministic
// skip rules evaluated in order, each short-circuiting before any LLM
// call (spec §4.4).
package filter

import (
	"regexp"
	"strings"
)

// SkipReason is the recorded reason a post never reached the LLM.
type SkipReason string

// Skip reasons, in the order the rules that produce them run.
const (
	SkipNone          SkipReason = ""
	SkipForwarded     SkipReason = "forwarded"
	SkipDeleted       SkipReason = "deleted"
	SkipEmpty         SkipReason = "empty"
	SkipTooShort      SkipReason = "too_short"
	SkipBlocklisted   SkipReason = "blocklisted"
	SkipCompilation   SkipReason = "compilation"
	SkipNonAssignment SkipReason = "non_assignment"
)

// assignmentCodeRe matches agency-listing-style tokens such as "TDX-001"
// or "A123" that compilation posts string many of together.
var assignmentCodeRe = regexp.MustCompile(`\b[A-Z]{2,5}-?\d{2,5}\b`)

// headingRe matches a line that looks like an agency-listing heading:
// short, title-cased or all-caps, often ending in a colon or emoji bullet.
var headingRe = regexp.MustCompile(`(?m)^\s*(?:[🔴🟢🟡⭐️✅📌]|[A-Z][A-Z0-9 /&-]{3,40}:)\s*$`)

// greetingRe matches posts that are pure greeting/announcement noise with
// no assignment content at all.
var greetingRe = regexp.MustCompile(`(?i)^\s*(hi|hello|good (morning|afternoon|evening)|welcome|happy (monday|new year))\b`)

// Post is the subset of a raw message Filter needs.
type Post struct {
	Text        string
	IsForwarded bool
	IsDeleted   bool
}

// Config is the threshold configuration (pkg/config.FilterConfig plus a
// channel's blocklist regex, kept separate so Filter has no dependency on
// pkg/config).
type Config struct {
	MinChars             int
	CompilationThreshold int
	BlocklistRegex       *regexp.Regexp
}

// Evaluate runs every skip rule in spec order and returns the first one
// that fires, or SkipNone if the post should proceed to the LLM (spec
// §4.4).
func Evaluate(post Post, cfg Config) SkipReason {
	if post.IsForwarded {
		return SkipForwarded
	}
	if post.IsDeleted {
		return SkipDeleted
	}

	trimmed := strings.TrimSpace(post.Text)
	if trimmed == "" {
		return SkipEmpty
	}
	if len([]rune(trimmed)) < cfg.MinChars {
		return SkipTooShort
	}
	if cfg.BlocklistRegex != nil && cfg.BlocklistRegex.MatchString(post.Text) {
		return SkipBlocklisted
	}
	if isCompilation(post.Text, cfg.CompilationThreshold) {
		return SkipCompilation
	}
	if isNonAssignment(trimmed) {
		return SkipNonAssignment
	}
	return SkipNone
}

// isCompilation flags a post bundling several unrelated listings into one
// message: either many assignment-code-like tokens, or many agency-
// listing-style headings, at or above the configured threshold.
func isCompilation(text string, threshold int) bool {
	if threshold <= 0 {
		return false
	}
	codes := assignmentCodeRe.FindAllString(text, -1)
	if len(codes) >= threshold {
		return true
	}
	headings := headingRe.FindAllString(text, -1)
	return len(headings) >= threshold
}

// isNonAssignment flags posts that are pure greetings/announcements with
// no assignment content signal at all.
func isNonAssignment(trimmed string) bool {
	return greetingRe.MatchString(trimmed) && len([]rune(trimmed)) < 80
}
