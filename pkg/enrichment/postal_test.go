package enrichment_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tutordex/aggregator/pkg/enrichment"
)

func TestFillPostalCodes_FillsFromRawTextWhenEmpty(t *testing.T) {
	codes := enrichment.FillPostalCodes("Tutor needed near Blk 123 Ang Mo Kio Ave 6, S(560123). Call 91234567.", nil)
	assert.Equal(t, []string{"560123"}, codes)
}

func TestFillPostalCodes_NeverOverridesExisting(t *testing.T) {
	codes := enrichment.FillPostalCodes("Area 730123 mentioned in text", []string{"123456"})
	assert.Equal(t, []string{"123456"}, codes)
}

func TestFillPostalCodes_RejectsImplausibleSectorsAndRepeatedDigits(t *testing.T) {
	codes := enrichment.FillPostalCodes("call 999999 or reach 999888 for more info", nil)
	assert.Empty(t, codes)
}

func TestFillPostalCodes_DeduplicatesRepeatedMatches(t *testing.T) {
	codes := enrichment.FillPostalCodes("520123 near 520123 MRT", nil)
	assert.Equal(t, []string{"520123"}, codes)
}
