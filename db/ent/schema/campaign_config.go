package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/field"
)

type CampaignConfig struct{ ent.Schema }

func (CampaignConfig) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "campaign_config"},
	}
}

// One row per campaign; the batch runner reads the "current_prod" row once
// per run.
func (CampaignConfig) Fields() []ent.Field {
	return []ent.Field{
		field.String("config_key").Unique().NotEmpty(),
		field.Int("batch_size").Optional().Nillable().Positive(),
		field.Int("delay_min_seconds").Optional().Nillable().Positive(),
		field.Int("delay_max_seconds").Optional().Nillable().Positive(),
		field.String("target_url").Optional().Nillable(),
	}
}
