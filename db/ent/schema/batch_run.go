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

type BatchRun struct{ ent.Schema }

func (BatchRun) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "batch_runs"},
	}
}

func (BatchRun) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).Default(uuid.New).Immutable(),
		field.String("status").
			Validate(utils.EnumValidator(
				string(constants.RunStatusRunning),
				string(constants.RunStatusComplete),
				string(constants.RunStatusFailed),
			)),
		field.String("error_log").Optional().Nillable().
			SchemaType(map[string]string{dialect.Postgres: "text"}),
		field.Int("leads_processed").Default(0),
		field.Int("leads_failed").Default(0),
		field.Time("started_at").Default(time.Now),
		field.Time("finished_at").Optional().Nillable(),
	}
}

func (BatchRun) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("status", "started_at"),
	}
}
