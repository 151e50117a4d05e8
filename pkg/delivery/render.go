package delivery

import (
	"fmt"
	"strings"
)

// telegramMessageLimit is Telegram's hard cap on a single message's text
// length (spec §4.9 "length-bounded HTML message (<= Telegram's limit").
const telegramMessageLimit = 4096

const truncationSuffix = "…"

// renderBody builds the full, untruncated HTML-formatted message body for
// an assignment. Shared by RenderBroadcastHTML (which clips it to
// telegramMessageLimit) and RenderDMHTML (which sends it in full, spec
// §8 "DM still sent in full where possible").
func renderBody(p Payload) string {
	var b strings.Builder

	fmt.Fprintf(&b, "<b>%s</b>", htmlEscape(p.Level))
	if len(p.Subjects) > 0 {
		fmt.Fprintf(&b, " — %s", htmlEscape(strings.Join(p.Subjects, ", ")))
	}
	b.WriteString("\n")

	if p.Region != "" {
		fmt.Fprintf(&b, "📍 %s", htmlEscape(p.Region))
		if len(p.Address) > 0 {
			fmt.Fprintf(&b, " (%s)", htmlEscape(strings.Join(p.Address, "; ")))
		}
		b.WriteString("\n")
	}

	if p.RateMin != nil || p.RateMax != nil {
		fmt.Fprintf(&b, "💰 %s\n", formatRateRange(p.RateMin, p.RateMax))
	}

	if p.LearningMode != "" && p.LearningMode != "unknown" {
		fmt.Fprintf(&b, "🧑‍🏫 %s\n", htmlEscape(p.LearningMode))
	}

	if p.ChannelLink != "" {
		fmt.Fprintf(&b, "\n<a href=\"%s\">View original post</a>", htmlEscape(p.ChannelLink))
	}

	return b.String()
}

// RenderBroadcastHTML builds the HTML-formatted broadcast message for an
// assignment, truncating to telegramMessageLimit with a trailing "…" if
// the rendered text would otherwise exceed it. Truncation always cuts at
// the same point for the same input (spec §4.9 "truncation rules
// documented" — stable, not content-dependent), so repeated broadcasts of
// an unmodified assignment never jitter byte-for-byte.
func RenderBroadcastHTML(p Payload) string {
	return truncateStable(renderBody(p), telegramMessageLimit)
}

// RenderDMHTML builds the HTML-formatted DM message for an assignment as
// a sequence of chunks, each at most telegramMessageLimit runes. Unlike
// RenderBroadcastHTML, nothing is dropped: a body that would overflow a
// single Telegram message is split across multiple chunks, each sent as
// its own message, so the DM recipient gets the full content where the
// broadcast copy is truncated (spec §8 "DM still sent in full where
// possible"). Splitting is stable and content-independent, same as
// truncateStable.
func RenderDMHTML(p Payload) []string {
	runes := []rune(renderBody(p))
	if len(runes) == 0 {
		return []string{""}
	}

	chunks := make([]string, 0, len(runes)/telegramMessageLimit+1)
	for start := 0; start < len(runes); start += telegramMessageLimit {
		end := start + telegramMessageLimit
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

func formatRateRange(min, max *float64) string {
	switch {
	case min != nil && max != nil:
		if *min == *max {
			return fmt.Sprintf("$%.0f/hr", *min)
		}
		return fmt.Sprintf("$%.0f–$%.0f/hr", *min, *max)
	case min != nil:
		return fmt.Sprintf("from $%.0f/hr", *min)
	case max != nil:
		return fmt.Sprintf("up to $%.0f/hr", *max)
	default:
		return ""
	}
}

// truncateStable cuts text to at most limit runes, always reserving room
// for the suffix so the result never exceeds limit.
func truncateStable(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	cut := limit - len([]rune(truncationSuffix))
	if cut < 0 {
		cut = 0
	}
	return string(runes[:cut]) + truncationSuffix
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
)

func htmlEscape(s string) string {
	return htmlEscaper.Replace(s)
}
