package taxonomy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tutordex/aggregator/pkg/taxonomy"
)

func TestCanonicalize_KnownSubjectsAndLevel(t *testing.T) {
	res := taxonomy.Canonicalize("sec 3", []string{"A Math", "Chemistry", "english"})

	assert.Equal(t, []string{"A_MATH", "CHEMISTRY", "ENGLISH"}, res.SubjectsCanonical)
	assert.Equal(t, []string{"MATH", "SCIENCE", "LANGUAGES"}, res.SubjectsGeneral)
	assert.Equal(t, "SECONDARY", res.Level)
	assert.Equal(t, "S3", res.SpecificLevel)
	assert.Equal(t, taxonomy.Version, res.Version)
}

func TestCanonicalize_UnknownLabelsMapToSafeCodes(t *testing.T) {
	res := taxonomy.Canonicalize("atlantis 7", []string{"klingon"})

	assert.Equal(t, []string{taxonomy.UnknownSubject}, res.SubjectsCanonical)
	assert.Equal(t, []string{taxonomy.UnknownGeneral}, res.SubjectsGeneral)
	assert.Equal(t, taxonomy.UnknownLevel, res.Level)
	assert.Equal(t, taxonomy.UnknownLevel, res.SpecificLevel)
}

func TestCanonicalize_GeneralRollupDeduplicates(t *testing.T) {
	res := taxonomy.Canonicalize("p6", []string{"Physics", "Chemistry", "Biology"})

	assert.Equal(t, []string{"SCIENCE"}, res.SubjectsGeneral)
	assert.Len(t, res.SubjectsCanonical, 3)
}

func TestCanonicalize_IsCaseAndWhitespaceInsensitive(t *testing.T) {
	a := taxonomy.Canonicalize("  SEC 3 ", []string{"  ENGLISH "})
	b := taxonomy.Canonicalize("sec 3", []string{"english"})

	assert.Equal(t, a, b)
}

func TestCanonicalize_EmptySubjectsProducesEmptySlices(t *testing.T) {
	res := taxonomy.Canonicalize("jc1", nil)

	assert.Empty(t, res.SubjectsCanonical)
	assert.Empty(t, res.SubjectsGeneral)
	assert.Equal(t, "JC", res.Level)
}
