package enrichment

import (
	"regexp"
	"sort"
)

// tutorTypeRule is one rule-based tutor-type matcher: if pattern matches
// the free text, canonical is emitted with the given confidence.
type tutorTypeRule struct {
	canonical  string
	pattern    *regexp.Regexp
	confidence float64
}

var tutorTypeRules = []tutorTypeRule{
	{"ex_moe", regexp.MustCompile(`(?i)\bex[\s-]?moe\b|\bformer moe\b|\bretired moe\b`), 0.9},
	{"current_moe", regexp.MustCompile(`(?i)\bcurrent(?:ly)? moe\b|\bmoe teacher\b|\bin[\s-]service moe\b`), 0.9},
	{"full_time", regexp.MustCompile(`(?i)\bfull[\s-]?time\b|\bft tutor\b`), 0.85},
	{"part_time", regexp.MustCompile(`(?i)\bpart[\s-]?time\b|\bpt tutor\b`), 0.85},
	{"undergrad", regexp.MustCompile(`(?i)\bundergrad(?:uate)?\b|\bnus\/ntu\/smu\b|\buniversity student\b`), 0.75},
	{"nie_trained", regexp.MustCompile(`(?i)\bnie[\s-]?trained\b|\bnie\b`), 0.8},
	{"poly_grad", regexp.MustCompile(`(?i)\bpoly(?:technic)? grad(?:uate)?\b`), 0.7},
	{"tutor_agency", regexp.MustCompile(`(?i)\bagency tutor\b|\bprofessional tutor\b`), 0.6},
}

// ExtractTutorTypes runs every rule against the free text and returns one
// tuple per match, each carrying its own confidence (spec §4.6 step 3).
// Rules are independent — a post can match several tutor-type labels at
// once (e.g. "ex-MOE, full-time").
func ExtractTutorTypes(text string) []TutorType {
	var out []TutorType
	for _, rule := range tutorTypeRules {
		m := rule.pattern.FindString(text)
		if m == "" {
			continue
		}
		out = append(out, TutorType{
			Canonical:  rule.canonical,
			Original:   m,
			Confidence: rule.confidence,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	return out
}
