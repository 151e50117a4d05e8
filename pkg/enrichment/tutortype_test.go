package enrichment_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tutordex/aggregator/pkg/enrichment"
)

func TestExtractTutorTypes_MatchesMultipleIndependentLabels(t *testing.T) {
	types := enrichment.ExtractTutorTypes("Looking for an ex-MOE, full-time tutor")

	canonical := make([]string, len(types))
	for i, tt := range types {
		canonical[i] = tt.Canonical
	}
	assert.ElementsMatch(t, []string{"ex_moe", "full_time"}, canonical)
}

func TestExtractTutorTypes_NoMatchReturnsEmpty(t *testing.T) {
	types := enrichment.ExtractTutorTypes("Need help with physics homework")
	assert.Empty(t, types)
}

func TestExtractTutorTypes_SortedByConfidenceDescending(t *testing.T) {
	types := enrichment.ExtractTutorTypes("part-time tutor, undergraduate preferred")
	require := assert.New(t)
	require.Len(types, 2)
	require.GreaterOrEqual(types[0].Confidence, types[1].Confidence)
}
