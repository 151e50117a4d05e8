package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// RawMessage holds the schema definition for the RawMessage entity: the
// Telegram post captured by the collector (C3). Created once per
// (channel_id, message_id); re-ingestion of the same key only overwrites
// raw_text/is_deleted when the incoming post is newer (spec §4.1).
type RawMessage struct {
	ent.Schema
}

// Fields of the RawMessage.
func (RawMessage) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("raw_id").
			Unique().
			Immutable(),
		field.Int64("channel_id").
			Immutable().
			Comment("Telegram channel/supergroup id"),
		field.Int64("message_id").
			Immutable().
			Comment("Telegram message id, scoped to channel_id"),
		field.String("channel_username").
			Optional().
			Immutable(),
		field.String("channel_title").
			Optional().
			Immutable(),
		field.Time("date").
			Immutable().
			Comment("Telegram-reported post timestamp"),
		field.Text("raw_text").
			Comment("Message body; overwritten on re-ingest only if the new post is newer"),
		field.Bool("is_forwarded").
			Default(false).
			Immutable(),
		field.Bool("is_deleted").
			Default(false).
			Comment("Set true when Telegram reports the source message was removed"),
		field.Time("ingested_at").
			Default(time.Now).
			Immutable(),
	}
}

// Indexes of the RawMessage.
func (RawMessage) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("channel_id", "message_id").
			Unique(),
		index.Fields("ingested_at"),
	}
}
