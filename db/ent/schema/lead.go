package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
	"github.com/google/uuid"

	"github.com/kronos-automations/lead-engine/constants"
	"github.com/kronos-automations/lead-engine/db/ent/schema/utils"
)

type Lead struct{ ent.Schema }

func (Lead) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "leads"},
	}
}

func (Lead) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).Default(uuid.New).Immutable(),
		field.String("source_url").NotEmpty().Unique(),
		field.String("company_name").NotEmpty(),
		field.String("sector").
			Validate(utils.EnumValidator(constants.SectorStrings()...)),
		field.Int("score").Min(1).Max(10),
		field.String("city").Default(""),
		field.String("phone").Default(""),
		field.String("status").
			Validate(utils.EnumValidator(
				string(constants.StatusReadyToProcess),
				string(constants.StatusPriority),
				string(constants.StatusInProgress),
				string(constants.StatusReadyRetry),
				string(constants.StatusFailed),
				string(constants.StatusDone),
			)),
		field.String("last_error").Optional().Nillable().
			SchemaType(map[string]string{dialect.Postgres: "text"}),
		field.String("contact_channel").Default(""),
		field.String("outreach_draft").Optional().Nillable().
			SchemaType(map[string]string{dialect.Postgres: "text"}),
		field.Time("claimed_at").Optional().Nillable(),
		field.Time("created_at").Default(time.Now),
		field.Time("updated_at").Default(time.Now).UpdateDefault(time.Now),
	}
}

func (Lead) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("status", "created_at"),
		index.Fields("source_url"),
	}
}
