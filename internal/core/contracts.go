package core

import (
	"context"

	"github.com/kronos-automations/lead-engine/internal/entity"
)

// Processor is the downstream contact step applied to a claimed lead. It is
// an external collaborator from the loop's point of view: potentially slow,
// allowed to fail, always invoked under a bounded timeout.
type Processor interface {
	Process(ctx context.Context, lead *entity.Lead) error
}

// ProcessorFunc adapts a function to the Processor interface.
type ProcessorFunc func(ctx context.Context, lead *entity.Lead) error

func (f ProcessorFunc) Process(ctx context.Context, lead *entity.Lead) error {
	return f(ctx, lead)
}
