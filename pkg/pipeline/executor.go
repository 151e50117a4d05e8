// Package pipeline wires C1, C4-C9 into the single queue.ExtractionExecutor
// the worker pool (C10) drives: fetch the raw post, run filter/triage,
// call the LLM extractor, run deterministic enrichment, validate and
// canonicalize, upsert the assignment, and hand off C9 delivery to run
// once the job's terminal status lands. Mirrors the teacher's
// stage-composition shape (pkg/services orchestrating sessions through a
// fixed chain) generalized from a fixed investigation chain to this fixed
// extraction chain.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/tutordex/aggregator/pkg/assignment"
	"github.com/tutordex/aggregator/pkg/config"
	"github.com/tutordex/aggregator/pkg/delivery"
	"github.com/tutordex/aggregator/pkg/enrichment"
	"github.com/tutordex/aggregator/pkg/filter"
	"github.com/tutordex/aggregator/pkg/llmextract"
	"github.com/tutordex/aggregator/pkg/queue"
	"github.com/tutordex/aggregator/pkg/rawstore"
	"github.com/tutordex/aggregator/pkg/validate"
)

// channelSetup is the per-channel configuration filter and the LLM
// extractor need, precompiled once at construction time.
type channelSetup struct {
	filterCfg  filter.Config
	exampleKey string
}

// Executor implements queue.ExtractionExecutor by driving one raw post
// through C4 (filter/triage), C5 (LLM extraction), C6 (enrichment), C7
// (validation/canonicalization), and C8 (assignment upsert). C9
// (best-effort delivery) is computed here but run later, via Deliver.
type Executor struct {
	raw        *rawstore.Store
	extractor  *llmextract.Extractor
	enrich     *enrichment.Pipeline
	assignment *assignment.Store
	delivery   *delivery.Service

	defaultFilter filter.Config
	channels      map[int64]channelSetup
}

// NewExecutor builds an Executor, precompiling each configured channel's
// blocklist regex once rather than on every job (spec §4.4's blocklist
// rule runs once per post in the hot path).
func NewExecutor(
	cfg *config.Config,
	raw *rawstore.Store,
	extractor *llmextract.Extractor,
	enrich *enrichment.Pipeline,
	assignmentStore *assignment.Store,
	deliverySvc *delivery.Service,
) (*Executor, error) {
	defaultFilter := filter.Config{
		MinChars:             cfg.Filter.MinChars,
		CompilationThreshold: cfg.Filter.CompilationThreshold,
	}

	channels := make(map[int64]channelSetup, len(cfg.Channels))
	for _, ch := range cfg.Channels {
		setup := channelSetup{
			filterCfg:  defaultFilter,
			exampleKey: ch.AgencyRegistry,
		}
		if ch.BlocklistRegex != "" {
			re, err := regexp.Compile(ch.BlocklistRegex)
			if err != nil {
				return nil, fmt.Errorf("pipeline: compiling blocklist regex for channel %d: %w", ch.ChannelID, err)
			}
			setup.filterCfg.BlocklistRegex = re
		}
		channels[ch.ChannelID] = setup
	}

	return &Executor{
		raw:           raw,
		extractor:     extractor,
		enrich:        enrich,
		assignment:    assignmentStore,
		delivery:      deliverySvc,
		defaultFilter: defaultFilter,
		channels:      channels,
	}, nil
}

// Execute runs one job through C4-C8, computing (but not yet running)
// C9 delivery — the worker pool calls Deliver separately once the job's
// terminal status is durably committed. Every terminal status
// (done/failed/skipped) is returned, never panicked or retried here —
// retry policy belongs to the worker pool (spec §4.2).
func (e *Executor) Execute(ctx context.Context, job *queue.Job) *queue.ExecutionResult {
	raw, err := e.raw.GetRaw(ctx, job.RawID)
	if err != nil {
		return &queue.ExecutionResult{
			Status:    queue.StatusFailed,
			ErrorKind: "raw_not_found",
			ErrorMsg:  err.Error(),
		}
	}

	setup, ok := e.channels[raw.ChannelID]
	if !ok {
		setup = channelSetup{filterCfg: e.defaultFilter}
	}

	if reason := filter.Evaluate(filter.Post{
		Text:        raw.RawText,
		IsForwarded: raw.IsForwarded,
		IsDeleted:   raw.IsDeleted,
	}, setup.filterCfg); reason != filter.SkipNone {
		return &queue.ExecutionResult{
			Status:    queue.StatusSkipped,
			ErrorKind: "filtered_" + string(reason),
			MetaPatch: map[string]interface{}{
				"skip_reason": string(reason),
			},
		}
	}

	extraction := e.extractor.Extract(ctx, setup.exampleKey, raw.RawText)
	if extraction.ErrorKind != llmextract.ErrorNone {
		return &queue.ExecutionResult{
			Status:    queue.StatusFailed,
			ErrorKind: string(extraction.ErrorKind),
			ErrorMsg:  extraction.ErrorMsg,
			MetaPatch: llmMetaPatch(extraction),
		}
	}

	enriched := e.enrich.Enrich(ctx, *extraction.Assignment, raw.ChannelID, raw.MessageID, raw.Date)

	var level string
	if len(enriched.Signals.Levels) > 0 {
		level = enriched.Signals.Levels[0]
	}

	record, issues := validate.Validate(validate.Input{
		AssignmentCode:      extraction.Assignment.AssignmentCode,
		AcademicDisplayText: extraction.Assignment.AcademicDisplayText,
		LearningModeRaw:     extraction.Assignment.LearningModeRaw,
		Address:             extraction.Assignment.Address,
		PostalCode:          enriched.PostalCode,
		NearestMRT:          extraction.Assignment.NearestMRT,
		LessonSchedule:      extraction.Assignment.LessonSchedule,
		StartDateRaw:        extraction.Assignment.StartDate,
		RateMinRaw:          extraction.Assignment.RateMinRaw,
		RateMaxRaw:          extraction.Assignment.RateMaxRaw,
		RateRawText:         extraction.Assignment.RateRawText,
		AdditionalRemarks:   extraction.Assignment.AdditionalRemarks,
	})

	now := time.Now()
	row := assignment.Row{
		ChannelID:   raw.ChannelID,
		MessageID:   raw.MessageID,
		PublishedAt: raw.Date,
		Record:      record,
		Signals:     enriched.Signals,
		Geo:         enriched.Geo,
		Dup:         enriched.Duplicate,
	}
	if len(enriched.TimeAvailability.Explicit) > 0 {
		if encoded, err := json.Marshal(enriched.TimeAvailability.Explicit); err == nil {
			explicit := string(encoded)
			row.TimeAvailabilityExplicit = &explicit
		}
	}
	row.TimeAvailabilityWasEstimated = len(enriched.TimeAvailability.Estimated) > 0
	if enriched.TimeAvailability.Note != "" {
		note := enriched.TimeAvailability.Note
		row.TimeAvailabilityNote = &note
	}

	if err := e.assignment.Upsert(ctx, row, now); err != nil {
		return &queue.ExecutionResult{
			Status:    queue.StatusFailed,
			ErrorKind: "assignment_upsert_failed",
			ErrorMsg:  err.Error(),
		}
	}

	meta := llmMetaPatch(extraction)
	meta["validation_issues"] = issues
	meta["duplicate_group_id"] = enriched.Duplicate.GroupID
	meta["is_primary_in_group"] = enriched.Duplicate.IsPrimaryInGroup

	return &queue.ExecutionResult{
		Status:    queue.StatusDone,
		MetaPatch: meta,
		DeliveryContext: deliveryContext{
			assignmentID: enrichment.AssignmentID(raw.ChannelID, raw.MessageID),
			payload:      deliveryPayload(raw, record, enriched, level),
			isBackfill:   job.Meta["source"] == "backfill",
		},
	}
}

// deliveryContext is the C9 input an Execute call computes inline (while
// raw/record/enriched are still in hand) but that runs later, out of
// band, via Deliver — mirroring the worker pool's "complete the job,
// then fire delivery as its own bounded, best-effort background task"
// shape (spec §4.10).
type deliveryContext struct {
	assignmentID string
	payload      delivery.Payload
	isBackfill   bool
}

// Deliver runs C9 for one already-completed job. It has the signature
// the worker pool's deliver callback expects (func(job, result)) and is
// invoked after the job's terminal status is durably persisted, from its
// own goroutine with a fresh context — Deliver never sees the request
// context Execute ran under. A job with no DeliveryContext (skipped or
// failed before C9) or a nil Executor is silently a no-op.
func (e *Executor) Deliver(job *queue.Job, result *queue.ExecutionResult) {
	if e == nil || result == nil {
		return
	}
	dc, ok := result.DeliveryContext.(deliveryContext)
	if !ok {
		return
	}
	e.delivery.Deliver(context.Background(), dc.assignmentID, dc.payload, dc.isBackfill)
}

func llmMetaPatch(r llmextract.Result) map[string]interface{} {
	return map[string]interface{}{
		"prompt_sha256":   r.PromptSHA256,
		"example_set_sig": r.ExampleSetSig,
		"llm_model":       r.Model,
		"llm_latency_ms":  r.LatencyMS,
	}
}

func deliveryPayload(raw *rawstore.RawMessage, record validate.Record, enriched enrichment.Result, level string) delivery.Payload {
	return delivery.Payload{
		ChannelID:    raw.ChannelID,
		MessageID:    raw.MessageID,
		Level:        level,
		Subjects:     enriched.Signals.SubjectsCanonical,
		Region:       enriched.Signals.Region,
		RateMin:      enriched.Signals.RateMin,
		RateMax:      enriched.Signals.RateMax,
		LearningMode: string(record.LearningMode),
		Address:      record.Address,
		ChannelLink:  channelLink(raw),
		PostedAt:     raw.Date,
	}
}

func channelLink(raw *rawstore.RawMessage) string {
	if raw.ChannelUsername == "" {
		return ""
	}
	return fmt.Sprintf("https://t.me/%s/%d", raw.ChannelUsername, raw.MessageID)
}
