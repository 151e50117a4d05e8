package llmextract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripCodeFences_RemovesJSONFence(t *testing.T) {
	in := "```json\n{\"level\":\"Sec 3\"}\n```"
	assert.Equal(t, `{"level":"Sec 3"}`, stripCodeFences(in))
}

func TestStripCodeFences_LeavesPlainJSONUntouched(t *testing.T) {
	in := `{"level":"Sec 3"}`
	assert.Equal(t, in, stripCodeFences(in))
}

func TestDecodeJSON_StrictParseSucceeds(t *testing.T) {
	out, err := decodeJSON(`{"level":"Sec 3","subjects":["Math"]}`)
	require.NoError(t, err)
	assert.Equal(t, "Sec 3", out["level"])
}

func TestDecodeJSON_RepairsTrailingComma(t *testing.T) {
	out, err := decodeJSON(`{"level":"Sec 3","subjects":["Math"],}`)
	require.NoError(t, err)
	assert.Equal(t, "Sec 3", out["level"])
}

func TestDecodeJSON_UnrepairableGarbageIsInvalid(t *testing.T) {
	_, err := decodeJSON("not json at all {{{")
	assert.Error(t, err)
}

func TestToParsedAssignment_HappyPath(t *testing.T) {
	obj := map[string]interface{}{
		"level":       "Sec 3",
		"subjects":    []interface{}{"A Math", "Physics"},
		"postal_code": []interface{}{"560123"},
		"rate_min":    40.0,
		"rate_max":    60.0,
	}
	out, err := toParsedAssignment(obj)
	require.NoError(t, err)
	assert.Equal(t, "Sec 3", out.Level)
	assert.Equal(t, []string{"A Math", "Physics"}, out.Subjects)
	assert.Equal(t, []string{"560123"}, out.PostalCode)
	require.NotNil(t, out.RateMinRaw)
	assert.Equal(t, 40.0, *out.RateMinRaw)
}

func TestToParsedAssignment_DecodesCanonicalFields(t *testing.T) {
	obj := map[string]interface{}{
		"assignment_code":       "TDX-001",
		"academic_display_text": "Sec 3 A Math",
		"level":                 "Sec 3",
		"subjects":              []interface{}{"A Math"},
		"learning_mode":         "online",
		"rate_raw_text":         "$40-60/hr",
		"additional_remarks":    "urgent",
	}
	out, err := toParsedAssignment(obj)
	require.NoError(t, err)
	assert.Equal(t, "TDX-001", out.AssignmentCode)
	assert.Equal(t, "Sec 3 A Math", out.AcademicDisplayText)
	assert.Equal(t, "online", out.LearningModeRaw)
	assert.Equal(t, "$40-60/hr", out.RateRawText)
	assert.Equal(t, "urgent", out.AdditionalRemarks)
}

func TestToParsedAssignment_MissingSubjectsIsShapeMismatch(t *testing.T) {
	_, err := toParsedAssignment(map[string]interface{}{"level": "Sec 3"})
	assert.ErrorIs(t, err, errShapeMismatch)
}

func TestToParsedAssignment_WrongTypeIsShapeMismatch(t *testing.T) {
	obj := map[string]interface{}{
		"level":    "Sec 3",
		"subjects": "Math", // should be an array
	}
	_, err := toParsedAssignment(obj)
	assert.ErrorIs(t, err, errShapeMismatch)
}

func TestToParsedAssignment_NonStringSubjectItemIsShapeMismatch(t *testing.T) {
	obj := map[string]interface{}{
		"level":    "Sec 3",
		"subjects": []interface{}{"Math", 42.0},
	}
	_, err := toParsedAssignment(obj)
	assert.ErrorIs(t, err, errShapeMismatch)
}
