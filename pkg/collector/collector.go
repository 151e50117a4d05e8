// Package collector implements the Collector (C3): a tail loop and a
// bounded backfill loop that both push source channel history through
// the same persist-then-enqueue path (spec §4.3).
package collector

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/tutordex/aggregator/pkg/queue"
	"github.com/tutordex/aggregator/pkg/rawstore"
	"github.com/tutordex/aggregator/pkg/telegram"
)

// maxBackoff bounds the exponential retry delay for transient source
// errors (spec §4.3 "exponential backoff capped at a bound").
const maxBackoff = 2 * time.Minute

// ErrAuth signals a Source auth/session failure that the collector
// cannot recover from; the caller should exit non-zero so the process
// supervisor restarts it (spec §4.3).
var ErrAuth = errors.New("collector: telegram auth/session error")

// Collector drives a telegram.Source through rawstore (C1) and the
// extraction queue (C2) for a configured set of channels.
type Collector struct {
	source          telegram.Source
	raw             *rawstore.Store
	queue           *queue.Queue
	pipelineVersion string
}

// New builds a Collector.
func New(source telegram.Source, raw *rawstore.Store, q *queue.Queue, pipelineVersion string) *Collector {
	return &Collector{source: source, raw: raw, queue: q, pipelineVersion: pipelineVersion}
}

// Tail subscribes to channels and persists+enqueues every new message
// until ctx is canceled, retrying transient source errors with capped
// exponential backoff and returning ErrAuth on an unrecoverable
// auth/session failure (spec §4.3).
func (c *Collector) Tail(ctx context.Context, channels []int64) error {
	attempt := 0
	for {
		err := c.source.Tail(ctx, channels, func(p telegram.Post) error {
			return c.persist(ctx, p, "tail")
		})
		if err == nil || ctx.Err() != nil {
			return ctx.Err()
		}
		if isAuthError(err) {
			slog.Error("Telegram auth/session error, collector cannot continue", "error", err)
			return ErrAuth
		}

		delay := backoff(attempt)
		slog.Warn("Telegram tail failed, retrying", "error", err, "attempt", attempt, "delay", delay)
		attempt++

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// Backfill iterates each channel's history within [since, until] in
// source order; cross-channel interleaving is unconstrained, so channels
// run one after another rather than concurrently (spec §4.3).
func (c *Collector) Backfill(ctx context.Context, channels []int64, since, until time.Time) error {
	for _, channelID := range channels {
		attempt := 0
		for {
			err := c.source.Backfill(ctx, channelID, since, until, func(p telegram.Post) error {
				return c.persist(ctx, p, "backfill")
			})
			if err == nil {
				break
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if isAuthError(err) {
				slog.Error("Telegram auth/session error during backfill", "channel_id", channelID, "error", err)
				return ErrAuth
			}

			delay := backoff(attempt)
			slog.Warn("Backfill page failed, retrying", "channel_id", channelID, "error", err, "attempt", attempt, "delay", delay)
			attempt++

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return nil
}

// persist runs a post through C1 then C2, filtering self/forwarded posts
// out before they ever reach storage (spec §4.3 "Filters out self/
// forwarded before persistence where cheap"). Duplicate deliveries from
// the upstream are absorbed by rawstore's idempotent upsert, so persist
// never needs to de-duplicate itself.
func (c *Collector) persist(ctx context.Context, p telegram.Post, source string) error {
	if p.IsForwarded {
		return nil
	}

	rawID, err := c.raw.UpsertRaw(ctx, rawstore.RawMessage{
		ChannelID:       p.ChannelID,
		MessageID:       p.MessageID,
		ChannelUsername: p.ChannelUsername,
		ChannelTitle:    p.ChannelTitle,
		Date:            p.Date,
		RawText:         p.Text,
		IsForwarded:     p.IsForwarded,
		IsDeleted:       p.IsDeleted,
	})
	if err != nil {
		return err
	}

	_, _, err = c.queue.Enqueue(ctx, rawID, c.pipelineVersion, source)
	return err
}

// backoff computes the exponential delay for the nth retry, capped at
// maxBackoff.
func backoff(attempt int) time.Duration {
	delay := time.Duration(math.Pow(2, float64(attempt))) * time.Second
	if delay > maxBackoff || delay <= 0 {
		return maxBackoff
	}
	return delay
}

// isAuthError reports whether err signals an unrecoverable session
// problem rather than a transient network blip. telegram.Source
// implementations are expected to wrap such errors so the collector can
// tell the two apart without depending on gotd/td's error types.
func isAuthError(err error) bool {
	return errors.Is(err, ErrAuth) || errors.As(err, new(*AuthError))
}

// AuthError wraps an underlying auth/session failure from a
// telegram.Source implementation.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string { return "collector: auth error: " + e.Err.Error() }
func (e *AuthError) Unwrap() error { return e.Err }
