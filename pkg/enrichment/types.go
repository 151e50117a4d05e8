// Package enrichment implements the C6 Enrichment Pipeline: the
// deterministic, ordered post-processing steps applied to an LLM
// extraction before validation (spec §4.6). Every step is pure or
// best-effort-with-fallback; none of them can fail a job outright.
package enrichment

import "time"

// ParsedAssignment is the subset of the LLM's C5 output that enrichment
// reads and, for two fields, overwrites. It mirrors the corresponding
// Assignment columns (ent/schema/assignment.go) before canonicalization.
type ParsedAssignment struct {
	RawText             string
	AssignmentCode      string
	AcademicDisplayText string
	Level               string
	Subjects            []string
	LearningModeRaw     string
	Address             []string
	PostalCode          []string
	NearestMRT          []string
	LessonSchedule      []string
	StartDate           string
	TimeAvailabilityRaw string
	TutorTypeRaw        string
	RateMinRaw          *float64
	RateMaxRaw          *float64
	RateRawText         string
	AdditionalRemarks   string
}

// TimeAvailability is the grammar parser's structured output (spec §4.6
// step 2). It fully replaces the LLM's time_availability field.
type TimeAvailability struct {
	Explicit  []TimeSlot `json:"explicit"`
	Estimated []TimeSlot `json:"estimated"`
	Note      string     `json:"note,omitempty"`
}

// TimeSlot is one day/start/end triple.
type TimeSlot struct {
	Day   string `json:"day"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// TutorType is one rule-matched tutor-type tuple (spec §4.6 step 3).
type TutorType struct {
	Canonical  string  `json:"canonical"`
	Original   string  `json:"original"`
	Confidence float64 `json:"confidence"`
}

// GeoPoint is a best-effort geocoding result (spec §4.6 step 6).
type GeoPoint struct {
	Lat float64
	Lon float64
}

// Signals is the deterministic rollup projection of the canonicalized
// record (spec §4.6 step 5).
type Signals struct {
	SubjectsCanonical       []string
	SubjectsGeneral         []string
	Levels                  []string
	SpecificLevels          []string
	Region                  string
	TutorTypes              []TutorType
	RateMin                 *float64
	RateMax                 *float64
	CanonicalizationVersion string
}

// Duplicate is the outcome of structural-fingerprint duplicate detection
// (spec §4.6 step 7).
type Duplicate struct {
	Fingerprint        string
	GroupID            string
	IsPrimaryInGroup   bool
	ConfidenceScore    float64
}

// StepOutcome records one enrichment step's execution for meta
// auditability (spec §4.6 "All enrichment step outcomes ... are recorded
// in meta").
type StepOutcome struct {
	Step     string        `json:"step"`
	Duration time.Duration `json:"duration_ns"`
	Changed  bool          `json:"changed"`
	Note     string        `json:"note,omitempty"`
}

// Result is the full output of Enrich: the mutated assignment fields, the
// rollup signals, best-effort geocoding, duplicate bookkeeping, and the
// audit trail of every step that ran.
type Result struct {
	PostalCode       []string
	TimeAvailability TimeAvailability
	Signals          Signals
	Geo              *GeoPoint
	Duplicate        Duplicate
	Steps            []StepOutcome
}
