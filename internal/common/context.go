package common

import (
	"context"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/nutrifill/constants"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyPassID contextKey = "pass_id"
	ContextKeySource contextKey = "pass_source"
)

// WithPassID adds a fill pass ID to the context
func WithPassID(ctx context.Context, passID uuid.UUID) context.Context {
	return context.WithValue(ctx, ContextKeyPassID, passID)
}

// PassIDFromContext extracts the fill pass ID from context
func PassIDFromContext(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(ContextKeyPassID).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

// WithSource records which trigger surface started the pass.
func WithSource(ctx context.Context, src constants.PassSource) context.Context {
	return context.WithValue(ctx, ContextKeySource, src)
}

// SourceFromContext returns the pass source, defaulting to the CLI.
func SourceFromContext(ctx context.Context) constants.PassSource {
	if src, ok := ctx.Value(ContextKeySource).(constants.PassSource); ok && src != "" {
		return src
	}
	return constants.SourceCLI
}
