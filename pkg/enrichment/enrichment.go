package enrichment

import (
	"context"
	"log/slog"
	"time"
)

// Pipeline runs the seven C6 enrichment steps in spec order over one
// parsed LLM extraction. Geocoding and duplicate detection are
// best-effort: a Geocoder or Detector error is logged and recorded in the
// step's meta note, never returned to the caller, since C6 cannot fail a
// job (spec §4.6).
type Pipeline struct {
	Geocoder Geocoder
	Detector *Detector
}

// NewPipeline builds a Pipeline. geocoder and detector may be nil to
// disable those two best-effort steps (e.g. GeocodingEnabled=false,
// or no database pool available in a unit-test context).
func NewPipeline(geocoder Geocoder, detector *Detector) *Pipeline {
	return &Pipeline{Geocoder: geocoder, Detector: detector}
}

// Enrich runs all seven steps and returns the combined result plus the
// audit trail recorded into the job's meta (spec §4.6's closing sentence).
func (p *Pipeline) Enrich(ctx context.Context, in ParsedAssignment, channelID, messageID int64, publishedAt time.Time) Result {
	var steps []StepOutcome
	track := func(name string, changed bool, note string, fn func()) {
		start := time.Now()
		steps = append(steps, StepOutcome{Step: name, Changed: changed, Note: note})
		idx := len(steps) - 1
		fn()
		steps[idx].Duration = time.Since(start)
	}

	var postalCodes []string
	track("postal_fill", len(in.PostalCode) == 0, "", func() {
		postalCodes = FillPostalCodes(in.RawText, in.PostalCode)
	})

	var availability TimeAvailability
	track("time_availability", in.TimeAvailabilityRaw != "", "", func() {
		availability = ParseTimeAvailability(in.TimeAvailabilityRaw)
	})

	var tutorTypes []TutorType
	track("tutor_type", in.TutorTypeRaw != "", "", func() {
		tutorTypes = ExtractTutorTypes(in.TutorTypeRaw)
	})

	var signals Signals
	track("subject_canonicalization", true, "", func() {
		signals = RollupSignals(in.Level, in.Subjects, postalCodes, tutorTypes, in.RateMinRaw, in.RateMaxRaw)
	})

	// Step 5 (signals rollup) is folded into RollupSignals above since it
	// is a pure projection with no independent side effects to time apart
	// from canonicalization.

	var geo *GeoPoint
	track("geocoding", false, "", func() {
		if p.Geocoder == nil || len(postalCodes) == 0 {
			return
		}
		point, err := p.Geocoder.Geocode(ctx, postalCodes[0])
		if err != nil {
			slog.Warn("Geocoding failed, proceeding without coordinates", "postal_code", postalCodes[0], "error", err)
			steps[len(steps)-1].Note = "geocode failed: " + err.Error()
			return
		}
		geo = &point
		steps[len(steps)-1].Changed = true
	})

	fingerprint := Fingerprint(signals.Levels[0], signals.SubjectsCanonical, signals.Region, signals.RateMin, signals.RateMax, in.TimeAvailabilityRaw)

	var dup Duplicate
	track("duplicate_detection", false, "", func() {
		if p.Detector == nil {
			dup = Duplicate{Fingerprint: fingerprint, GroupID: AssignmentID(channelID, messageID), IsPrimaryInGroup: true, ConfidenceScore: 1.0}
			return
		}
		result, err := p.Detector.Detect(ctx, channelID, messageID, fingerprint, publishedAt)
		if err != nil {
			slog.Warn("Duplicate detection failed, treating as primary", "error", err)
			steps[len(steps)-1].Note = "duplicate lookup failed: " + err.Error()
			dup = Duplicate{Fingerprint: fingerprint, GroupID: AssignmentID(channelID, messageID), IsPrimaryInGroup: true, ConfidenceScore: 1.0}
			return
		}
		dup = result
		steps[len(steps)-1].Changed = !dup.IsPrimaryInGroup
	})

	return Result{
		PostalCode:       postalCodes,
		TimeAvailability: availability,
		Signals:          signals,
		Geo:              geo,
		Duplicate:        dup,
		Steps:            steps,
	}
}
