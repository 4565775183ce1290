package services

import "context"

type contextKey string

const (
	runIDKey  contextKey = "run_id"
	bundleKey contextKey = "bundle"
	stageKey  contextKey = "stage"
)

// WithRunID annotates context with the run correlation identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run correlation identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithBundle annotates context with the bundle being processed.
func WithBundle(ctx context.Context, bundle string) context.Context {
	if bundle == "" {
		return ctx
	}
	return context.WithValue(ctx, bundleKey, bundle)
}

// BundleFromContext returns the bundle name if present.
func BundleFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(bundleKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(stageKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}
