package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tutordex/aggregator/pkg/validate"
)

func TestValidate_AcceptsWellFormedRecord(t *testing.T) {
	min, max := 40.0, 60.0
	in := validate.Input{
		AssignmentCode:      "TDX-001",
		LearningModeRaw:     "face_to_face",
		Address:             []string{"Blk 123", ""},
		StartDateRaw:        "2026-09-01",
		RateMinRaw:          &min,
		RateMaxRaw:          &max,
	}

	out, issues := validate.Validate(in)

	assert.Empty(t, issues)
	assert.Equal(t, validate.ModeFaceToFace, out.LearningMode)
	assert.Equal(t, []string{"Blk 123"}, out.Address)
	assert.NotNil(t, out.StartDate)
	assert.Equal(t, 2026, out.StartDate.Year())
	assert.Equal(t, &min, out.RateMin)
	assert.Equal(t, &max, out.RateMax)
}

func TestValidate_UnknownLearningModeFallsBackToUnknownWithIssue(t *testing.T) {
	out, issues := validate.Validate(validate.Input{LearningModeRaw: "telepathic"})

	assert.Equal(t, validate.ModeUnknown, out.LearningMode)
	assert.Len(t, issues, 1)
	assert.Equal(t, "learning_mode", issues[0].Field)
}

func TestValidate_EmptyLearningModeIsUnknownWithoutIssue(t *testing.T) {
	out, issues := validate.Validate(validate.Input{})
	assert.Equal(t, validate.ModeUnknown, out.LearningMode)
	assert.Empty(t, issues)
}

func TestValidate_UnparseableStartDateIsNulledWithIssue(t *testing.T) {
	out, issues := validate.Validate(validate.Input{StartDateRaw: "next blue moon"})
	assert.Nil(t, out.StartDate)
	require := assert.New(t)
	require.Len(issues, 1)
	require.Equal("start_date", issues[0].Field)
}

func TestValidate_RateMinGreaterThanMaxIsNulled(t *testing.T) {
	min, max := 80.0, 40.0
	out, issues := validate.Validate(validate.Input{RateMinRaw: &min, RateMaxRaw: &max})

	assert.Nil(t, out.RateMin)
	assert.Nil(t, out.RateMax)
	assert.Len(t, issues, 1)
}

func TestValidate_NegativeRateIsNulled(t *testing.T) {
	min := -10.0
	out, issues := validate.Validate(validate.Input{RateMinRaw: &min})

	assert.Nil(t, out.RateMin)
	assert.Len(t, issues, 1)
}
