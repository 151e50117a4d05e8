package enrichment

import "github.com/tutordex/aggregator/pkg/taxonomy"

// RollupSignals computes the deterministic projection of the canonical
// record: subjects/levels canonicalization via pkg/taxonomy, region from
// postal code, and a pass-through of rate bounds and tutor types (spec
// §4.6 step 5). It never calls the network or the database.
func RollupSignals(level string, subjects []string, postalCodes []string, tutorTypes []TutorType, rateMin, rateMax *float64) Signals {
	canon := taxonomy.Canonicalize(level, subjects)

	return Signals{
		SubjectsCanonical:       canon.SubjectsCanonical,
		SubjectsGeneral:         canon.SubjectsGeneral,
		Levels:                  []string{canon.Level},
		SpecificLevels:          []string{canon.SpecificLevel},
		Region:                  RegionFromPostal(postalCodes),
		TutorTypes:              tutorTypes,
		RateMin:                 rateMin,
		RateMax:                 rateMax,
		CanonicalizationVersion: canon.Version,
	}
}
