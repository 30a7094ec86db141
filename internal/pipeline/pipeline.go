// Package pipeline is the single orchestration path that turns a raw
// submission into a persisted entity: authorize, normalize, validate,
// persist, emit. Every create and update operation goes through Run;
// a halt at any step is final and leaves nothing observable behind.
package pipeline

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clarionhq/daypress/internal/domain"
	"github.com/clarionhq/daypress/internal/rules"
)

// Submission describes one pipeline invocation. Authorize and Normalize
// are pure; Persist must write the entity and its side records as a
// single unit.
type Submission struct {
	Actor    domain.Actor
	Kind     string
	Mode     rules.Mode
	Schema   rules.Schema
	Payload  rules.Payload
	Existing rules.Payload
	IgnoreID uuid.UUID

	Authorize func() bool
	Normalize func(p rules.Payload)
	Persist   func(ctx context.Context, p rules.Payload) (any, error)
}

// Pipeline runs submissions. It is safe for concurrent use.
type Pipeline struct {
	validator *rules.Validator
	logger    zerolog.Logger
}

// New creates a pipeline around the given validator.
func New(validator *rules.Validator, logger zerolog.Logger) *Pipeline {
	return &Pipeline{validator: validator, logger: logger}
}

// Run executes the steps in order. Outcomes: domain.ErrForbidden,
// *rules.ValidationError, domain.ErrNotFound (unresolvable reference
// during persist), or the persisted representation.
func (p *Pipeline) Run(ctx context.Context, sub Submission) (any, error) {
	if sub.Authorize != nil && !sub.Authorize() {
		p.logger.Debug().
			Str("kind", sub.Kind).
			Stringer("actor", sub.Actor.ID).
			Msg("submission denied")
		return nil, domain.ErrForbidden
	}

	if sub.Normalize != nil {
		sub.Normalize(sub.Payload)
	}

	in := rules.Input{
		Mode:        sub.Mode,
		Payload:     sub.Payload,
		Existing:    sub.Existing,
		WorkspaceID: sub.Actor.WorkspaceID,
		IgnoreID:    sub.IgnoreID,
	}
	if err := p.validator.Validate(ctx, sub.Schema, in); err != nil {
		return nil, err
	}

	out, err := sub.Persist(ctx, sub.Payload)
	if err != nil {
		return nil, err
	}

	p.logger.Info().
		Str("kind", sub.Kind).
		Stringer("actor", sub.Actor.ID).
		Stringer("workspace", sub.Actor.WorkspaceID).
		Msg("submission persisted")
	return out, nil
}
