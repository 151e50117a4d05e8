// Package telegram holds the two Telegram collaborators the collector and
// delivery stages depend on: an MTProto user-session Source for tailing
// and backfilling channel history, and a Bot API Sender for outbound
// broadcast/DM sends. Both are behind small interfaces (spec §4.3, §4.9)
// so pkg/collector and pkg/delivery never import gotd/td or
// telegram-bot-api directly — the same collaborator-interface split
// tarsy uses for its GitHub/Slack clients (pkg/runbook, pkg/slack).
package telegram

import (
	"context"
	"time"
)

// Post is one channel message as the collector sees it, already stripped
// of gotd/td's wire types.
type Post struct {
	ChannelID       int64
	MessageID       int64
	ChannelUsername string
	ChannelTitle    string
	Date            time.Time
	Text            string
	IsForwarded     bool
	IsDeleted       bool
}

// Channel is the denormalized identity of a source channel.
type Channel struct {
	ID       int64
	Username string
	Title    string
}

// Source is the MTProto collaborator interface: tailing live updates and
// backfilling history for a configured set of channels (spec §4.3).
type Source interface {
	// Tail subscribes to channels and invokes handle for every new message
	// until ctx is canceled or an unrecoverable auth/session error occurs.
	Tail(ctx context.Context, channels []int64, handle func(Post) error) error

	// Backfill iterates channelID's history within [since, until] in
	// source order, batched, invoking handle for each message.
	Backfill(ctx context.Context, channelID int64, since, until time.Time, handle func(Post) error) error
}

// Sender is the Bot API collaborator interface for outbound sends
// (spec §4.9): a channel broadcast and a per-tutor direct message.
type Sender interface {
	SendBroadcast(ctx context.Context, chatID int64, html string) error
	SendDM(ctx context.Context, chatID int64, html string) error
}
