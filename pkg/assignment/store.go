// Package assignment implements the Assignment Store Adapter (C8):
// upsert_assignment, idempotent on (channel_id, message_id) with a
// monotonic updated_at (spec §4.8).
package assignment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tutordex/aggregator/pkg/enrichment"
	"github.com/tutordex/aggregator/pkg/validate"
)

// Row is everything C8 persists for one assignment: the validated
// fields, the enrichment signals/geocoding/duplicate bookkeeping, and
// lifecycle metadata. Status is always "open" on first insert; a
// separate scheduled process ages rows to "closed" by freshness tier
// (spec §4.8, out of core scope here).
type Row struct {
	ChannelID   int64
	MessageID   int64
	PublishedAt time.Time

	Record  validate.Record
	Signals enrichment.Signals
	Geo     *enrichment.GeoPoint
	Dup     enrichment.Duplicate

	// TimeAvailabilityExplicit holds the encoded explicit time slots, if
	// any were parsed; TimeAvailabilityWasEstimated records whether C6's
	// parser had to fall back to estimated slots (spec §4.6 step 2).
	TimeAvailabilityExplicit     *string
	TimeAvailabilityWasEstimated bool
	TimeAvailabilityNote         *string
}

// Store is the C8 adapter: pure pgx SQL against the assignments table, no
// ent client involved (same rationale as pkg/queue and pkg/rawstore — see
// DESIGN.md's "ent schema without codegen" decision).
type Store struct {
	pool *pgxpool.Pool
}

// New builds a Store.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Upsert inserts or updates the assignment keyed by (channel_id,
// message_id). now is the caller-supplied write timestamp, captured once
// up front so a single upsert call applies one wall-clock reading rather
// than racing two evaluations of now() against a concurrent writer's.
// The WHERE clause on the conflict branch is what makes updated_at
// monotonic: a write whose now is before the stored updated_at is
// silently a no-op rather than regressing the row backward (an equal
// timestamp is applied).
func (s *Store) Upsert(ctx context.Context, row Row, now time.Time) error {
	id := enrichment.AssignmentID(row.ChannelID, row.MessageID)

	address, err := marshalStrings(row.Record.Address)
	if err != nil {
		return fmt.Errorf("marshal address: %w", err)
	}
	postalCode, err := marshalStrings(row.Record.PostalCode)
	if err != nil {
		return fmt.Errorf("marshal postal_code: %w", err)
	}
	nearestMRT, err := marshalStrings(row.Record.NearestMRT)
	if err != nil {
		return fmt.Errorf("marshal nearest_mrt: %w", err)
	}
	lessonSchedule, err := marshalStrings(row.Record.LessonSchedule)
	if err != nil {
		return fmt.Errorf("marshal lesson_schedule: %w", err)
	}
	subjectsCanonical, err := marshalStrings(row.Signals.SubjectsCanonical)
	if err != nil {
		return fmt.Errorf("marshal subjects_canonical: %w", err)
	}
	subjectsGeneral, err := marshalStrings(row.Signals.SubjectsGeneral)
	if err != nil {
		return fmt.Errorf("marshal subjects_general: %w", err)
	}
	levels, err := marshalStrings(row.Signals.Levels)
	if err != nil {
		return fmt.Errorf("marshal levels: %w", err)
	}
	specificLevels, err := marshalStrings(row.Signals.SpecificLevels)
	if err != nil {
		return fmt.Errorf("marshal specific_levels: %w", err)
	}
	tutorTypes, err := json.Marshal(row.Signals.TutorTypes)
	if err != nil {
		return fmt.Errorf("marshal tutor_types: %w", err)
	}

	var region *string
	if row.Signals.Region != "" {
		region = &row.Signals.Region
	}
	var lat, lon *float64
	if row.Geo != nil {
		lat, lon = &row.Geo.Lat, &row.Geo.Lon
	}
	var groupID *string
	if row.Dup.GroupID != "" {
		groupID = &row.Dup.GroupID
	}
	var fingerprint *string
	if row.Dup.Fingerprint != "" {
		fingerprint = &row.Dup.Fingerprint
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO assignments (
			assignment_id, channel_id, message_id,
			assignment_code, academic_display_text, learning_mode, learning_mode_raw_text,
			address, postal_code, nearest_mrt, lesson_schedule, start_date,
			time_availability_explicit, time_availability_estimated, time_availability_note,
			rate_min_raw, rate_max_raw, rate_raw_text, additional_remarks,
			subjects_canonical, subjects_general, levels, specific_levels, region,
			tutor_types, rate_min, rate_max, canonicalization_version,
			postal_lat, postal_lon,
			status, freshness_tier, published_at, updated_at,
			duplicate_group_id, is_primary_in_group, duplicate_confidence_score, duplicate_fingerprint
		) VALUES (
			$1, $2, $3,
			$4, $5, $6, $7,
			$8, $9, $10, $11, $12,
			$13, $14, $15,
			$16, $17, $18, $19,
			$20, $21, $22, $23, $24,
			$25, $26, $27, $28,
			$29, $30,
			'open', 'green', $31, $32,
			$33, $34, $35, $36
		)
		ON CONFLICT (channel_id, message_id) DO UPDATE SET
			assignment_code = EXCLUDED.assignment_code,
			academic_display_text = EXCLUDED.academic_display_text,
			learning_mode = EXCLUDED.learning_mode,
			learning_mode_raw_text = EXCLUDED.learning_mode_raw_text,
			address = EXCLUDED.address,
			postal_code = EXCLUDED.postal_code,
			nearest_mrt = EXCLUDED.nearest_mrt,
			lesson_schedule = EXCLUDED.lesson_schedule,
			start_date = EXCLUDED.start_date,
			time_availability_explicit = EXCLUDED.time_availability_explicit,
			time_availability_estimated = EXCLUDED.time_availability_estimated,
			time_availability_note = EXCLUDED.time_availability_note,
			rate_min_raw = EXCLUDED.rate_min_raw,
			rate_max_raw = EXCLUDED.rate_max_raw,
			rate_raw_text = EXCLUDED.rate_raw_text,
			additional_remarks = EXCLUDED.additional_remarks,
			subjects_canonical = EXCLUDED.subjects_canonical,
			subjects_general = EXCLUDED.subjects_general,
			levels = EXCLUDED.levels,
			specific_levels = EXCLUDED.specific_levels,
			region = EXCLUDED.region,
			tutor_types = EXCLUDED.tutor_types,
			rate_min = EXCLUDED.rate_min,
			rate_max = EXCLUDED.rate_max,
			canonicalization_version = EXCLUDED.canonicalization_version,
			postal_lat = EXCLUDED.postal_lat,
			postal_lon = EXCLUDED.postal_lon,
			updated_at = EXCLUDED.updated_at,
			duplicate_group_id = EXCLUDED.duplicate_group_id,
			is_primary_in_group = EXCLUDED.is_primary_in_group,
			duplicate_confidence_score = EXCLUDED.duplicate_confidence_score,
			duplicate_fingerprint = EXCLUDED.duplicate_fingerprint
		WHERE assignments.updated_at <= EXCLUDED.updated_at
	`,
		id, row.ChannelID, row.MessageID,
		row.Record.AssignmentCode, row.Record.AcademicDisplayText, string(row.Record.LearningMode), row.Record.LearningModeRawText,
		address, postalCode, nearestMRT, lessonSchedule, row.Record.StartDateRaw,
		row.TimeAvailabilityExplicit, row.TimeAvailabilityWasEstimated, row.TimeAvailabilityNote,
		row.Record.RateMin, row.Record.RateMax, row.Record.RateRawText, row.Record.AdditionalRemarks,
		subjectsCanonical, subjectsGeneral, levels, specificLevels, region,
		tutorTypes, row.Signals.RateMin, row.Signals.RateMax, row.Signals.CanonicalizationVersion,
		lat, lon,
		row.PublishedAt, now,
		groupID, row.Dup.IsPrimaryInGroup, row.Dup.ConfidenceScore, fingerprint,
	)
	if err != nil {
		return fmt.Errorf("upsert assignment %s: %w", id, err)
	}
	return nil
}

func marshalStrings(items []string) ([]byte, error) {
	if items == nil {
		items = []string{}
	}
	return json.Marshal(items)
}
