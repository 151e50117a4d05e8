// Package taxonomy is the subject/level canonicalization table (taxonomy
// v2) used by the Enrichment Pipeline (C6 step 4).
// It is a pure, deterministic lookup — same inputs always yield the same
// outputs (spec §3 invariant I4, P3) — so it carries no external
// dependency: there is no third-party canonicalization/lookup library in
// the example pack or the wider ecosystem that would serve a bespoke,
// closed, hand-maintained code table better than a Go map (see DESIGN.md).
package taxonomy

import "strings"

// Version is stamped into Assignment.canonicalization_version and
// ExtractionJob.meta so a taxonomy change is auditable per row.
const Version = "taxonomy-v2"

// UnknownSubject and UnknownGeneral are the safe fallback codes for a
// subject label this taxonomy has no entry for (spec §4.6 step 4).
const (
	UnknownSubject = "SUBJECT_UNKNOWN"
	UnknownGeneral = "GENERAL_UNKNOWN"
)

// UnknownLevel is the safe fallback for a level label with no entry.
const UnknownLevel = "LEVEL_UNKNOWN"

// subjectCanon maps a lowercased, trimmed raw subject label to its
// canonical code.
var subjectCanon = map[string]string{
	"english": "ENGLISH", "eng": "ENGLISH",
	"math": "MATH", "maths": "MATH", "mathematics": "MATH",
	"amath": "A_MATH", "a math": "A_MATH", "additional math": "A_MATH", "additional mathematics": "A_MATH",
	"emath": "E_MATH", "elementary math": "E_MATH",
	"science": "SCIENCE", "sci": "SCIENCE",
	"physics": "PHYSICS", "phy": "PHYSICS",
	"chemistry": "CHEMISTRY", "chem": "CHEMISTRY",
	"biology": "BIOLOGY", "bio": "BIOLOGY",
	"chinese": "CHINESE", "mandarin": "CHINESE", "higher chinese": "CHINESE_HIGHER",
	"malay": "MALAY", "tamil": "TAMIL",
	"geography": "GEOGRAPHY", "geog": "GEOGRAPHY",
	"history": "HISTORY", "hist": "HISTORY",
	"literature": "LITERATURE", "lit": "LITERATURE",
	"economics": "ECONOMICS", "econs": "ECONOMICS",
	"computing": "COMPUTING", "computer science": "COMPUTING",
	"general paper": "GENERAL_PAPER", "gp": "GENERAL_PAPER",
}

// subjectGeneral maps a canonical subject code to its general category.
var subjectGeneral = map[string]string{
	"ENGLISH":        "LANGUAGES",
	"MATH":           "MATH",
	"A_MATH":         "MATH",
	"E_MATH":         "MATH",
	"SCIENCE":        "SCIENCE",
	"PHYSICS":        "SCIENCE",
	"CHEMISTRY":      "SCIENCE",
	"BIOLOGY":        "SCIENCE",
	"CHINESE":        "LANGUAGES",
	"CHINESE_HIGHER": "LANGUAGES",
	"MALAY":          "LANGUAGES",
	"TAMIL":          "LANGUAGES",
	"GEOGRAPHY":      "HUMANITIES",
	"HISTORY":        "HUMANITIES",
	"LITERATURE":     "HUMANITIES",
	"ECONOMICS":      "HUMANITIES",
	"COMPUTING":      "COMPUTING",
	"GENERAL_PAPER":  "LANGUAGES",
}

// levelCanon maps a lowercased raw level label to its canonical level
// bucket and a more specific level code.
var levelCanon = map[string]struct{ level, specific string }{
	"p1": {"PRIMARY", "P1"}, "primary 1": {"PRIMARY", "P1"},
	"p2": {"PRIMARY", "P2"}, "primary 2": {"PRIMARY", "P2"},
	"p3": {"PRIMARY", "P3"}, "primary 3": {"PRIMARY", "P3"},
	"p4": {"PRIMARY", "P4"}, "primary 4": {"PRIMARY", "P4"},
	"p5": {"PRIMARY", "P5"}, "primary 5": {"PRIMARY", "P5"},
	"p6": {"PRIMARY", "P6"}, "primary 6": {"PRIMARY", "P6"},
	"sec 1": {"SECONDARY", "S1"}, "s1": {"SECONDARY", "S1"},
	"sec 2": {"SECONDARY", "S2"}, "s2": {"SECONDARY", "S2"},
	"sec 3": {"SECONDARY", "S3"}, "s3": {"SECONDARY", "S3"},
	"sec 4": {"SECONDARY", "S4"}, "s4": {"SECONDARY", "S4"},
	"sec 5": {"SECONDARY", "S5"}, "s5": {"SECONDARY", "S5"},
	"jc1": {"JC", "JC1"}, "j1": {"JC", "JC1"},
	"jc2": {"JC", "JC2"}, "j2": {"JC", "JC2"},
	"poly": {"POLYTECHNIC", "POLY"}, "polytechnic": {"POLYTECHNIC", "POLY"},
	"uni": {"UNIVERSITY", "UNI"}, "university": {"UNIVERSITY", "UNI"},
	"ib": {"IB", "IB"}, "igcse": {"IGCSE", "IGCSE"},
}

// Result is the output of Canonicalize.
type Result struct {
	SubjectsCanonical []string
	SubjectsGeneral   []string
	Level             string
	SpecificLevel     string
	Version           string
}

// Canonicalize maps a raw level label and raw subject labels onto the
// taxonomy-v2 code space. Unknown labels map to the *_UNKNOWN safe codes
// rather than being dropped, so downstream rollups always have a value to
// aggregate on (spec §4.6 step 4).
func Canonicalize(rawLevel string, rawSubjects []string) Result {
	level, specific := canonicalizeLevel(rawLevel)

	canonical := make([]string, 0, len(rawSubjects))
	general := make([]string, 0, len(rawSubjects))
	seenGeneral := make(map[string]bool)

	for _, raw := range rawSubjects {
		code := canonicalizeSubject(raw)
		canonical = append(canonical, code)

		g, ok := subjectGeneral[code]
		if !ok {
			g = UnknownGeneral
		}
		if !seenGeneral[g] {
			general = append(general, g)
			seenGeneral[g] = true
		}
	}

	return Result{
		SubjectsCanonical: canonical,
		SubjectsGeneral:   general,
		Level:             level,
		SpecificLevel:     specific,
		Version:           Version,
	}
}

func canonicalizeSubject(raw string) string {
	key := normalize(raw)
	if code, ok := subjectCanon[key]; ok {
		return code
	}
	return UnknownSubject
}

func canonicalizeLevel(raw string) (level, specific string) {
	key := normalize(raw)
	if entry, ok := levelCanon[key]; ok {
		return entry.level, entry.specific
	}
	return UnknownLevel, UnknownLevel
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
