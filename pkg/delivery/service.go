package delivery

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tutordex/aggregator/pkg/config"
	"github.com/tutordex/aggregator/pkg/telegram"
)

const dmDedupTTL = 24 * time.Hour

// Service drives C9's two best-effort side effects. Like tarsy's Slack
// Service, it is nil-safe (a nil *Service's Deliver is a no-op) and
// fail-open: every failure is logged and reflected in the returned
// Outcome, never propagated as an error the caller must handle specially.
type Service struct {
	sender  telegram.Sender
	matcher Matcher
	sink    *FailureSink
	cfg     *config.DeliveryConfig

	broadcastChatID int64

	dmGlobalLimiter *rate.Limiter
	perChatMu       sync.Mutex
	perChatLimiter  map[int64]*rate.Limiter
	recentDMs       *recentDMCache
}

// New builds a Service. A nil return is never produced here (unlike
// tarsy's Slack Service) because both broadcast and DMs are independently
// gated by cfg's enabled flags at call time, not at construction time.
func New(sender telegram.Sender, matcher Matcher, sink *FailureSink, cfg *config.DeliveryConfig, broadcastChatID int64) *Service {
	return &Service{
		sender:          sender,
		matcher:         matcher,
		sink:            sink,
		cfg:             cfg,
		broadcastChatID: broadcastChatID,
		dmGlobalLimiter: rate.NewLimiter(rate.Limit(cfg.DMRateLimitPerS), 1),
		perChatLimiter:  make(map[int64]*rate.Limiter),
		recentDMs:       newRecentDMCache(dmDedupTTL),
	}
}

// Deliver runs the broadcast and DM side effects for one assignment.
// isBackfill inhibits both (spec §4.9 "backfills never broadcast or
// DM"). Every failure is logged and counted in the returned Outcome;
// none of them are ever returned as an error (spec §4.9 "Failures in C9
// are logged and counted but do not change job status").
func (s *Service) Deliver(ctx context.Context, assignmentID string, p Payload, isBackfill bool) Outcome {
	outcome := Outcome{Backfill: isBackfill}
	if s == nil || isBackfill {
		return outcome
	}

	if s.cfg.BroadcastEnabled {
		s.broadcast(ctx, assignmentID, p, &outcome)
	}
	if s.cfg.DMsEnabled && s.matcher != nil {
		s.dm(ctx, assignmentID, p, &outcome)
	}
	return outcome
}

func (s *Service) broadcast(ctx context.Context, assignmentID string, p Payload, outcome *Outcome) {
	html := RenderBroadcastHTML(p)
	if err := s.sender.SendBroadcast(ctx, s.broadcastChatID, html); err != nil {
		outcome.BroadcastFailed = true
		slog.Error("Broadcast send failed, writing to failure sink", "assignment_id", assignmentID, "error", err)
		if s.sink != nil {
			if sinkErr := s.sink.Append(assignmentID, html, err.Error(), time.Now()); sinkErr != nil {
				slog.Error("Failed to write broadcast failure sink", "assignment_id", assignmentID, "error", sinkErr)
			}
		}
		return
	}
	outcome.BroadcastSent = true
}

func (s *Service) dm(ctx context.Context, assignmentID string, p Payload, outcome *Outcome) {
	matches, err := s.matcher.Match(ctx, p)
	if err != nil {
		outcome.MatcherErr = err
		slog.Error("Matcher call failed, skipping DM fan-out", "assignment_id", assignmentID, "error", err)
		return
	}

	chunks := RenderDMHTML(p)
	for _, m := range matches {
		if m.Score < s.cfg.MinMatchScore {
			continue
		}
		if s.recentDMs.seen(m.ChatID, assignmentID) {
			outcome.DMsSkipped++
			continue
		}

		if err := s.dmGlobalLimiter.Wait(ctx); err != nil {
			outcome.DMsFailed++
			continue
		}
		if err := s.perChatLimit(m.ChatID).Wait(ctx); err != nil {
			outcome.DMsFailed++
			continue
		}

		if err := s.sendDMChunks(ctx, m.ChatID, chunks); err != nil {
			outcome.DMsFailed++
			slog.Error("DM send failed", "assignment_id", assignmentID, "chat_id", m.ChatID, "error", err)
			continue
		}
		s.recentDMs.record(m.ChatID, assignmentID)
		outcome.DMsSent++
	}
}

// sendDMChunks sends every chunk of a (possibly split) DM body in order,
// stopping at the first failure.
func (s *Service) sendDMChunks(ctx context.Context, chatID int64, chunks []string) error {
	for _, chunk := range chunks {
		if err := s.sender.SendDM(ctx, chatID, chunk); err != nil {
			return err
		}
	}
	return nil
}

// perChatLimit returns (creating if needed) the rate limiter for one
// chat, capping per-chat DM frequency independently of the global rate.
func (s *Service) perChatLimit(chatID int64) *rate.Limiter {
	s.perChatMu.Lock()
	defer s.perChatMu.Unlock()
	limiter, ok := s.perChatLimiter[chatID]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(time.Minute), 1)
		s.perChatLimiter[chatID] = limiter
	}
	return limiter
}
