// Package delivery implements the two best-effort side effects of C9:
// a Telegram channel broadcast and matcher-driven per-tutor DMs, neither
// of which may change a job's terminal status (spec §4.9). Grounded on
// tarsy's nil-safe, fail-open Slack notification service (pkg/slack),
// adapted from a single-channel posting service into a broadcast+fan-out
// one driven by an HTTP matcher instead of a fixed audience.
package delivery

import (
	"fmt"
	"time"
)

// Payload is the rendered-ready view of one enriched assignment: just
// enough to build the broadcast message and the matcher request body.
type Payload struct {
	ChannelID    int64
	MessageID    int64
	Level        string
	Subjects     []string
	Region       string
	RateMin      *float64
	RateMax      *float64
	LearningMode string
	Address      []string
	ChannelLink  string
	PostedAt     time.Time
}

// AssignmentID mirrors enrichment.AssignmentID's "tg:<channel>:<message>"
// shape, giving delivery's dedup/rate-limit bookkeeping the same natural
// key the rest of the pipeline uses.
func AssignmentID(channelID, messageID int64) string {
	return fmt.Sprintf("tg:%d:%d", channelID, messageID)
}

// Match is one matcher HTTP response entry: a tutor chat and how well it
// fits the assignment (spec §4.9 "for each returned chat_id with
// score >= min_score, send a DM").
type Match struct {
	ChatID int64   `json:"chat_id"`
	Score  float64 `json:"score"`
}

// Outcome summarizes what Deliver actually did, for metrics/logging. It
// is never treated as a job failure (spec §4.9 "Failures in C9 are
// logged and counted but do not change job status").
type Outcome struct {
	Backfill        bool
	BroadcastSent   bool
	BroadcastFailed bool
	MatcherErr      error
	DMsSent         int
	DMsFailed       int
	DMsSkipped      int
}
