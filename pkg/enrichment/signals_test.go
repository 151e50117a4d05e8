package enrichment_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tutordex/aggregator/pkg/enrichment"
	"github.com/tutordex/aggregator/pkg/taxonomy"
)

func TestRollupSignals_ProjectsCanonicalSubjectsLevelsAndRegion(t *testing.T) {
	rateMin, rateMax := 40.0, 60.0
	signals := enrichment.RollupSignals("sec 3", []string{"A Math", "Chemistry"}, []string{"729123"}, nil, &rateMin, &rateMax)

	assert.Equal(t, []string{"A_MATH", "CHEMISTRY"}, signals.SubjectsCanonical)
	assert.Equal(t, []string{"MATH", "SCIENCE"}, signals.SubjectsGeneral)
	assert.Equal(t, []string{"SECONDARY"}, signals.Levels)
	assert.Equal(t, []string{"S3"}, signals.SpecificLevels)
	assert.Equal(t, "NORTH", signals.Region)
	assert.Equal(t, taxonomy.Version, signals.CanonicalizationVersion)
	assert.Equal(t, &rateMin, signals.RateMin)
	assert.Equal(t, &rateMax, signals.RateMax)
}

func TestRollupSignals_NoPostalCodeLeavesRegionEmpty(t *testing.T) {
	signals := enrichment.RollupSignals("p6", []string{"English"}, nil, nil, nil, nil)
	assert.Empty(t, signals.Region)
}
