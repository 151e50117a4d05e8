package enrichment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Fingerprint computes the structural fingerprint used for duplicate
// detection: level + canonical subjects (sorted) + region + a coarse rate
// bucket + a coarse schedule bucket (spec §4.6 step 7). Two postings with
// the same fingerprint within the sliding window are treated as the same
// underlying assignment regardless of exact wording.
func Fingerprint(level string, subjectsCanonical []string, region string, rateMin, rateMax *float64, scheduleText string) string {
	subjects := append([]string(nil), subjectsCanonical...)
	sortStrings(subjects)

	h := sha256.New()
	fmt.Fprintf(h, "level=%s|subjects=%s|region=%s|rate=%s|schedule=%s",
		level, strings.Join(subjects, ","), region, rateBucket(rateMin, rateMax), scheduleBucket(scheduleText))
	return hex.EncodeToString(h.Sum(nil))
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// rateBucket coarsens a rate range into $10 buckets so small quoting
// differences (e.g. $45 vs $48/hr) still collide.
func rateBucket(rateMin, rateMax *float64) string {
	if rateMin == nil && rateMax == nil {
		return "none"
	}
	bucket := func(v *float64) int {
		if v == nil {
			return -1
		}
		return int(*v) / 10
	}
	return fmt.Sprintf("%d-%d", bucket(rateMin), bucket(rateMax))
}

// scheduleBucket coarsens a schedule description to its set of mentioned
// days, ignoring exact times, so "Mon 4-6pm" and "Monday evenings" collide.
func scheduleBucket(scheduleText string) string {
	days := matchedDays(scheduleText)
	sortStrings(days)
	return strings.Join(days, ",")
}

// AssignmentID derives the deterministic assignment primary key from a
// message's natural key, the same "tg:<channel>:<message>" shape
// pkg/rawstore uses for raw_messages, so an assignment and its source raw
// message share a recognizable lineage.
func AssignmentID(channelID, messageID int64) string {
	return fmt.Sprintf("tg:%d:%d", channelID, messageID)
}

// Detector runs step 7's sliding-window duplicate lookup against the
// assignments table.
type Detector struct {
	pool   *pgxpool.Pool
	window time.Duration
}

// NewDetector builds a Detector with the configured sliding window
// (EnrichmentConfig.DuplicateWindowMinutes).
func NewDetector(pool *pgxpool.Pool, window time.Duration) *Detector {
	return &Detector{pool: pool, window: window}
}

// Detect looks for an existing assignment with the same fingerprint
// published within the window. If found, self joins that group as a
// non-primary member; otherwise self starts its own group as primary.
// Only already-committed rows are seen, so the first matching row to be
// committed anchors the group; among committed candidates the earliest
// published_at wins, with ties broken by (channel_id, message_id)
// lexicographic order (spec's Open Questions resolution, see DESIGN.md).
func (d *Detector) Detect(ctx context.Context, channelID, messageID int64, fingerprint string, publishedAt time.Time) (Duplicate, error) {
	selfID := AssignmentID(channelID, messageID)

	rows, err := d.pool.Query(ctx, `
		SELECT assignment_id, duplicate_group_id, published_at
		FROM assignments
		WHERE duplicate_fingerprint = $1
		  AND published_at >= $2
		  AND assignment_id != $3
		ORDER BY published_at ASC, channel_id ASC, message_id ASC
		LIMIT 1
	`, fingerprint, publishedAt.Add(-windowOrDefault(d.window)), selfID)
	if err != nil {
		return Duplicate{}, fmt.Errorf("query duplicate candidates: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return Duplicate{}, fmt.Errorf("scan duplicate candidates: %w", err)
		}
		return Duplicate{
			Fingerprint:      fingerprint,
			GroupID:          selfID,
			IsPrimaryInGroup: true,
			ConfidenceScore:  1.0,
		}, nil
	}

	var primaryID string
	var existingGroupID *string
	var existingPublishedAt time.Time
	if err := rows.Scan(&primaryID, &existingGroupID, &existingPublishedAt); err != nil {
		return Duplicate{}, fmt.Errorf("scan duplicate row: %w", err)
	}

	groupID := primaryID
	if existingGroupID != nil && *existingGroupID != "" {
		groupID = *existingGroupID
	}

	return Duplicate{
		Fingerprint:      fingerprint,
		GroupID:          groupID,
		IsPrimaryInGroup: false,
		ConfidenceScore:  0.9,
	}, nil
}

func windowOrDefault(window time.Duration) time.Duration {
	if window <= 0 {
		return 180 * time.Minute
	}
	return window
}
