package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// ExtractionJob holds the schema definition for the ExtractionJob entity:
// the queue row that drives a RawMessage through C4-C9 exactly once per
// pipeline_version (spec §3 invariant I2).
type ExtractionJob struct {
	ent.Schema
}

// Fields of the ExtractionJob.
func (ExtractionJob) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("job_id").
			Unique().
			Immutable(),
		field.String("raw_id").
			Immutable(),
		field.String("pipeline_version").
			Immutable().
			Comment("Stamped at enqueue; bumping this forces reprocessing of historical rows"),
		field.Enum("status").
			Values("pending", "processing", "done", "failed", "skipped").
			Default("pending"),
		field.Time("claimed_at").
			Optional().
			Nillable(),
		field.String("claimed_by").
			Optional().
			Nillable().
			Comment("Worker identity holding the claim (spec §3 invariant I3)"),
		field.Int("attempts").
			Default(0),
		field.String("last_error_kind").
			Optional().
			Nillable().
			Comment("Taxonomy member, not a Go type name (spec §7)"),
		field.String("last_error_msg").
			Optional().
			Nillable(),
		field.JSON("meta", map[string]interface{}{}).
			Optional().
			Comment("Prompt hash, example set, LLM model, latencies, enrichment provenance, signals"),
		field.Time("created_at").
			Immutable(),
		field.Time("updated_at"),
	}
}

// Indexes of the ExtractionJob.
func (ExtractionJob) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("raw_id", "pipeline_version").
			Unique(),
		index.Fields("status", "created_at"),
		index.Fields("status", "claimed_at").
			Annotations(entsql.IndexWhere("status = 'processing'")),
	}
}
