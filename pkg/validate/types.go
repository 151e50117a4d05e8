// Package validate implements the Validator / Canonicalizer (C7): hard
// validation of the enriched v2 schema before it is upserted as an
// Assignment (spec §4.7). It never invents a value — a field that fails
// its check is nulled (or dropped from an array), never substituted with
// a guess.
package validate

import "time"

// LearningMode is the closed enum spec §4.7 requires for learning_mode.mode.
type LearningMode string

// Allowed LearningMode values.
const (
	ModeFaceToFace LearningMode = "face_to_face"
	ModeOnline     LearningMode = "online"
	ModeHybrid     LearningMode = "hybrid"
	ModeUnknown    LearningMode = "unknown"
)

// Input is the record to validate: the raw LLM fields plus whatever C6
// enrichment filled in (postal codes, etc.) — anything with its own
// dedicated parser (time_availability, subjects, tutor_types) has
// already been shaped upstream and is out of scope here.
type Input struct {
	AssignmentCode       string
	AcademicDisplayText  string
	LearningModeRaw      string
	LearningModeRawText  string
	Address              []string
	PostalCode           []string
	NearestMRT           []string
	LessonSchedule       []string
	StartDateRaw         string
	RateMinRaw           *float64
	RateMaxRaw           *float64
	RateRawText          string
	AdditionalRemarks    string
}

// Record is the validated, canonicalized output ready for C8 upsert.
type Record struct {
	AssignmentCode      *string
	AcademicDisplayText *string
	LearningMode        LearningMode
	LearningModeRawText *string
	Address             []string
	PostalCode          []string
	NearestMRT          []string
	LessonSchedule      []string
	StartDate           *time.Time
	StartDateRaw        *string
	RateMin             *float64
	RateMax             *float64
	RateRawText         *string
	AdditionalRemarks   *string
}

// Issue records one field that failed its check and was nulled/dropped.
type Issue struct {
	Field  string
	Reason string
}
