package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Assignment holds the schema definition for the Assignment entity: the
// canonical tutoring-job row produced by C7/C8 from a ParsedAssignment plus
// its derived Signals rollup (spec §3).
type Assignment struct {
	ent.Schema
}

// Fields of the Assignment.
func (Assignment) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("assignment_id").
			Unique().
			Immutable(),
		field.Int64("channel_id").
			Immutable(),
		field.Int64("message_id").
			Immutable(),

		// ParsedAssignment fields (spec §3).
		field.String("assignment_code").
			Optional().
			Nillable(),
		field.Text("academic_display_text").
			Optional().
			Nillable(),
		field.String("learning_mode").
			Optional().
			Nillable(),
		field.String("learning_mode_raw_text").
			Optional().
			Nillable(),
		field.JSON("address", []string{}).
			Optional(),
		field.JSON("postal_code", []string{}).
			Optional(),
		field.JSON("nearest_mrt", []string{}).
			Optional(),
		field.JSON("lesson_schedule", []string{}).
			Optional(),
		field.String("start_date").
			Optional().
			Nillable(),
		field.String("time_availability_explicit").
			Optional().
			Nillable(),
		field.Bool("time_availability_estimated").
			Default(false),
		field.String("time_availability_note").
			Optional().
			Nillable(),
		field.Float("rate_min_raw").
			Optional().
			Nillable(),
		field.Float("rate_max_raw").
			Optional().
			Nillable(),
		field.String("rate_raw_text").
			Optional().
			Nillable(),
		field.Text("additional_remarks").
			Optional().
			Nillable(),

		// Signals rollup (spec §3, §4.6) — pure function of ParsedAssignment + taxonomy.
		field.JSON("subjects_canonical", []string{}).
			Optional(),
		field.JSON("subjects_general", []string{}).
			Optional(),
		field.JSON("levels", []string{}).
			Optional(),
		field.JSON("specific_levels", []string{}).
			Optional(),
		field.String("region").
			Optional().
			Nillable(),
		field.JSON("tutor_types", []map[string]interface{}{}).
			Optional().
			Comment("[{canonical, original, confidence}]"),
		field.Float("rate_min").
			Optional().
			Nillable(),
		field.Float("rate_max").
			Optional().
			Nillable(),
		field.String("canonicalization_version").
			Optional().
			Nillable(),

		// Best-effort geocoding.
		field.Float("postal_lat").
			Optional().
			Nillable(),
		field.Float("postal_lon").
			Optional().
			Nillable(),

		// Lifecycle and duplicate bookkeeping.
		field.Enum("status").
			Values("open", "closed").
			Default("open"),
		field.Enum("freshness_tier").
			Values("green", "amber", "red").
			Default("green"),
		field.Time("published_at"),
		field.Time("updated_at"),
		field.String("duplicate_group_id").
			Optional().
			Nillable(),
		field.Bool("is_primary_in_group").
			Default(true),
		field.Float("duplicate_confidence_score").
			Optional().
			Nillable(),
		field.String("duplicate_fingerprint").
			Optional().
			Nillable().
			Comment("structural fingerprint (level+subject+region+rate+schedule bucket) used for sliding-window dedup lookups"),
	}
}

// Indexes of the Assignment.
func (Assignment) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("channel_id", "message_id").
			Unique(),
		index.Fields("status", "published_at"),
		index.Fields("duplicate_group_id"),
		index.Fields("region"),
		index.Fields("duplicate_fingerprint", "published_at"),
	}
}

// Annotations for PostgreSQL-specific features.
// GIN indexes over subjects_canonical/levels for match queries are created
// via migration hooks in pkg/database/migrations.go, same as the teacher's
// full-text search indexes.
func (Assignment) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{},
	}
}
