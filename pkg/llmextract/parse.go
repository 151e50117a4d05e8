package llmextract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/tutordex/aggregator/pkg/enrichment"
)

// stripCodeFences strips a leading/trailing Markdown code fence (```json ...
// ``` or plain ``` ... ```), the common way a chat model wraps JSON output
// (spec §4.5 step 1).
func stripCodeFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	lines := strings.Split(content, "\n")
	if len(lines) < 2 {
		return content
	}
	lines = lines[1:]
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// decodeJSON attempts a strict parse first, falling back to jsonrepair on
// failure (spec §4.5 step 2). It returns the raw decoded object so shape
// validation can run independently of JSON-syntax validation —
// decodeJSON's own failure is always invalid_json; a shape problem in an
// otherwise well-formed object is schema_shape_mismatch, classified by
// the caller.
func decodeJSON(content string) (map[string]interface{}, error) {
	var out map[string]interface{}
	if err := json.Unmarshal([]byte(content), &out); err == nil {
		return out, nil
	}

	repaired, err := jsonrepair.JSONRepair(content)
	if err != nil {
		return nil, fmt.Errorf("json repair failed: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), &out); err != nil {
		return nil, fmt.Errorf("json parse failed even after repair: %w", err)
	}
	return out, nil
}

// toParsedAssignment shapes the generic decoded object into a
// ParsedAssignment, returning a shapeError naming the first field whose
// type doesn't match what C6/C7 expect (spec §4.5 error kind
// schema_shape_mismatch). Missing/null fields are simply left at their
// zero value, with one exception: subjects is required, so a missing or
// empty subjects array is a shape mismatch too, as is any wrong-typed
// *present* field.
func toParsedAssignment(obj map[string]interface{}) (*enrichment.ParsedAssignment, error) {
	out := &enrichment.ParsedAssignment{}

	var err error
	if out.AssignmentCode, err = stringField(obj, "assignment_code"); err != nil {
		return nil, err
	}
	if out.AcademicDisplayText, err = stringField(obj, "academic_display_text"); err != nil {
		return nil, err
	}
	if out.Level, err = stringField(obj, "level"); err != nil {
		return nil, err
	}
	if out.Subjects, err = stringArrayField(obj, "subjects"); err != nil {
		return nil, err
	}
	if out.LearningModeRaw, err = stringField(obj, "learning_mode"); err != nil {
		return nil, err
	}
	if out.Address, err = stringArrayField(obj, "address"); err != nil {
		return nil, err
	}
	if out.PostalCode, err = stringArrayField(obj, "postal_code"); err != nil {
		return nil, err
	}
	if out.NearestMRT, err = stringArrayField(obj, "nearest_mrt"); err != nil {
		return nil, err
	}
	if out.LessonSchedule, err = stringArrayField(obj, "lesson_schedule"); err != nil {
		return nil, err
	}
	if out.StartDate, err = stringField(obj, "start_date"); err != nil {
		return nil, err
	}
	if out.TimeAvailabilityRaw, err = stringField(obj, "time_availability"); err != nil {
		return nil, err
	}
	if out.TutorTypeRaw, err = stringField(obj, "tutor_type"); err != nil {
		return nil, err
	}
	if out.RateMinRaw, err = floatPtrField(obj, "rate_min"); err != nil {
		return nil, err
	}
	if out.RateMaxRaw, err = floatPtrField(obj, "rate_max"); err != nil {
		return nil, err
	}
	if out.RateRawText, err = stringField(obj, "rate_raw_text"); err != nil {
		return nil, err
	}
	if out.AdditionalRemarks, err = stringField(obj, "additional_remarks"); err != nil {
		return nil, err
	}

	if len(out.Subjects) == 0 {
		return nil, fmt.Errorf("%w: subjects is required and must be non-empty", errShapeMismatch)
	}

	return out, nil
}

var errShapeMismatch = fmt.Errorf("schema shape mismatch")

func stringField(obj map[string]interface{}, key string) (string, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: field %q must be a string, got %T", errShapeMismatch, key, v)
	}
	return s, nil
}

func stringArrayField(obj map[string]interface{}, key string) ([]string, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		return nil, nil
	}
	arr, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: field %q must be an array, got %T", errShapeMismatch, key, v)
	}
	out := make([]string, 0, len(arr))
	for i, item := range arr {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%w: field %q[%d] must be a string, got %T", errShapeMismatch, key, i, item)
		}
		out = append(out, s)
	}
	return out, nil
}

func floatPtrField(obj map[string]interface{}, key string) (*float64, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		return nil, nil
	}
	f, ok := v.(float64)
	if !ok {
		return nil, fmt.Errorf("%w: field %q must be a number, got %T", errShapeMismatch, key, v)
	}
	return &f, nil
}
