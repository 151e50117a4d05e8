package validate

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// allowedModes is the closed enum for learning_mode.mode (spec §4.7).
var allowedModes = map[LearningMode]bool{
	ModeFaceToFace: true,
	ModeOnline:     true,
	ModeHybrid:     true,
	ModeUnknown:    true,
}

// Validate runs every field's type/enum/range/shape check and returns the
// canonicalized Record plus one Issue per field that had to be nulled or
// dropped. Nothing here invents a replacement value.
func Validate(in Input) (Record, []Issue) {
	var issues []Issue
	note := func(field, reason string) { issues = append(issues, Issue{Field: field, Reason: reason}) }

	out := Record{
		AssignmentCode:      nonEmptyPtr(in.AssignmentCode),
		AcademicDisplayText: nonEmptyPtr(in.AcademicDisplayText),
		LearningModeRawText: nonEmptyPtr(in.LearningModeRawText),
		Address:             dropEmpty(in.Address),
		PostalCode:           dropEmpty(in.PostalCode),
		NearestMRT:           dropEmpty(in.NearestMRT),
		LessonSchedule:       dropEmpty(in.LessonSchedule),
		RateRawText:          nonEmptyPtr(in.RateRawText),
		AdditionalRemarks:    nonEmptyPtr(in.AdditionalRemarks),
	}

	out.LearningMode = validateLearningMode(in.LearningModeRaw, note)
	out.StartDate, out.StartDateRaw = validateStartDate(in.StartDateRaw, note)
	out.RateMin, out.RateMax = validateRateRange(in.RateMinRaw, in.RateMaxRaw, note)

	return out, issues
}

func validateLearningMode(raw string, note func(field, reason string)) LearningMode {
	mode := LearningMode(strings.ToLower(strings.TrimSpace(raw)))
	if mode == "" {
		return ModeUnknown
	}
	if !allowedModes[mode] {
		note("learning_mode", "value \""+raw+"\" is not in {face_to_face, online, hybrid, unknown}")
		return ModeUnknown
	}
	return mode
}

// validateStartDate parses start_date with araddon/dateparse and nulls the
// field — never guesses a date — on a parse failure.
func validateStartDate(raw string, note func(field, reason string)) (*time.Time, *string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := dateparse.ParseAny(raw)
	if err != nil {
		note("start_date", "unparseable date: "+err.Error())
		return nil, nil
	}
	return &t, &raw
}

// validateRateRange enforces both bounds positive and min <= max (spec
// §4.7). A single violated rate still nulls the whole pair, since a rate
// range with only one bound meaningfully checked is not a validated range.
func validateRateRange(min, max *float64, note func(field, reason string)) (*float64, *float64) {
	if min == nil && max == nil {
		return nil, nil
	}
	if min != nil && *min <= 0 {
		note("rate_min", "must be positive")
		return nil, nil
	}
	if max != nil && *max <= 0 {
		note("rate_max", "must be positive")
		return nil, nil
	}
	if min != nil && max != nil && *min > *max {
		note("rate_min,rate_max", "rate_min must be <= rate_max")
		return nil, nil
	}
	return min, max
}

func nonEmptyPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func dropEmpty(items []string) []string {
	var out []string
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
