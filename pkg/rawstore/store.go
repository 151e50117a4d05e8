// Package rawstore is the Raw Store Adapter (C1): idempotent upsert and
// lookup of Telegram posts captured by the collector, plus a cached
// channel-identity lookup.
package rawstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a lookup by primary key misses.
var ErrNotFound = errors.New("rawstore: not found")

// RawMessage mirrors the ent/schema/rawmessage.go declaration; runtime
// reads and writes go through hand-written SQL rather than a generated
// ent client (see DESIGN.md "ent schema without codegen").
type RawMessage struct {
	ID              string
	ChannelID       int64
	MessageID       int64
	ChannelUsername string
	ChannelTitle    string
	Date            time.Time
	RawText         string
	IsForwarded     bool
	IsDeleted       bool
	IngestedAt      time.Time
}

// ChannelInfo is the cached, denormalized channel identity surfaced by
// GetChannel.
type ChannelInfo struct {
	ChannelID int64
	Username  string
	Title     string
	Link      string
}

// Store is the C1 Raw Store Adapter.
type Store struct {
	pool    *pgxpool.Pool
	channel *channelCache
}

// New creates a Store backed by the given pool. channelCacheTTL bounds how
// long a GetChannel result is served from cache before a fresh lookup.
func New(pool *pgxpool.Pool, channelCacheTTL time.Duration) *Store {
	return &Store{
		pool:    pool,
		channel: newChannelCache(channelCacheTTL),
	}
}

// rawID deterministically derives the primary key from the natural key,
// so upsert_raw is idempotent without a read-before-write round trip.
func rawID(channelID, messageID int64) string {
	return fmt.Sprintf("tg:%d:%d", channelID, messageID)
}

// UpsertRaw inserts a RawMessage, or — if (channel_id, message_id) already
// exists — updates raw_text/is_deleted only when the incoming post is
// newer than the stored one (spec §4.1), and replaces the stored channel
// username/title with any non-empty incoming value regardless of date.
// Returns the message's raw_id either way.
func (s *Store) UpsertRaw(ctx context.Context, msg RawMessage) (string, error) {
	id := rawID(msg.ChannelID, msg.MessageID)

	const q = `
		INSERT INTO raw_messages
			(raw_id, channel_id, message_id, channel_username, channel_title,
			 date, raw_text, is_forwarded, is_deleted, ingested_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (channel_id, message_id) DO UPDATE SET
			raw_text         = CASE WHEN EXCLUDED.date > raw_messages.date THEN EXCLUDED.raw_text ELSE raw_messages.raw_text END,
			is_deleted       = CASE WHEN EXCLUDED.date > raw_messages.date THEN EXCLUDED.is_deleted ELSE raw_messages.is_deleted END,
			channel_username = COALESCE(EXCLUDED.channel_username, raw_messages.channel_username),
			channel_title    = COALESCE(EXCLUDED.channel_title, raw_messages.channel_title)
		RETURNING raw_id`

	ingestedAt := msg.IngestedAt
	if ingestedAt.IsZero() {
		ingestedAt = time.Now().UTC()
	}

	var returnedID string
	err := s.pool.QueryRow(ctx, q,
		id, msg.ChannelID, msg.MessageID, nullable(msg.ChannelUsername), nullable(msg.ChannelTitle),
		msg.Date, msg.RawText, msg.IsForwarded, msg.IsDeleted, ingestedAt,
	).Scan(&returnedID)
	if err != nil {
		return "", fmt.Errorf("rawstore: upsert_raw: %w", err)
	}

	// Invalidate the channel cache so a changed title/username is observed
	// promptly instead of waiting out the TTL.
	s.channel.invalidate(msg.ChannelID)

	return returnedID, nil
}

// GetRaw fetches a RawMessage by primary key.
func (s *Store) GetRaw(ctx context.Context, rawID string) (*RawMessage, error) {
	const q = `
		SELECT raw_id, channel_id, message_id, COALESCE(channel_username, ''),
		       COALESCE(channel_title, ''), date, raw_text, is_forwarded, is_deleted, ingested_at
		FROM raw_messages
		WHERE raw_id = $1`

	var m RawMessage
	err := s.pool.QueryRow(ctx, q, rawID).Scan(
		&m.ID, &m.ChannelID, &m.MessageID, &m.ChannelUsername,
		&m.ChannelTitle, &m.Date, &m.RawText, &m.IsForwarded, &m.IsDeleted, &m.IngestedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("rawstore: get_raw: %w", err)
	}
	return &m, nil
}

// GetChannel returns the cached channel identity most recently observed
// for channelID, falling back to the most recent raw_messages row on a
// cache miss.
func (s *Store) GetChannel(ctx context.Context, channelID int64) (*ChannelInfo, error) {
	if info, ok := s.channel.get(channelID); ok {
		return info, nil
	}

	const q = `
		SELECT COALESCE(channel_username, ''), COALESCE(channel_title, '')
		FROM raw_messages
		WHERE channel_id = $1
		ORDER BY ingested_at DESC
		LIMIT 1`

	var username, title string
	err := s.pool.QueryRow(ctx, q, channelID).Scan(&username, &title)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("rawstore: get_channel: %w", err)
	}

	info := &ChannelInfo{
		ChannelID: channelID,
		Username:  username,
		Title:     title,
		Link:      channelLink(username, channelID),
	}
	s.channel.set(channelID, info)
	return info, nil
}

func channelLink(username string, channelID int64) string {
	if username != "" {
		return "https://t.me/" + username
	}
	return fmt.Sprintf("https://t.me/c/%d", channelID)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
