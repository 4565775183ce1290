package logging

import (
	"context"
	"log/slog"

	"bundlepull/internal/services"
)

const (
	// FieldComponent names the emitting package.
	FieldComponent = "component"
	// FieldRunID carries the identifier of the current pull run.
	FieldRunID = "run_id"
	// FieldBundle carries the bundle being processed.
	FieldBundle = "bundle"
	// FieldStage carries the pipeline stage (configs, imports, assets, extract).
	FieldStage = "stage"
	// FieldAsset carries the canonical UUID of the asset being processed.
	FieldAsset = "asset"
	// FieldURL carries the remote URL involved in a request.
	FieldURL = "url"
	// FieldBytes carries a transfer size.
	FieldBytes = "bytes"
	// FieldPath carries a local filesystem path.
	FieldPath = "path"
	// FieldEventType classifies a log line for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next step to the operator.
	FieldErrorHint = "error_hint"
	// FieldImpact describes the user-facing consequence of a warning.
	FieldImpact = "impact"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if bundle, ok := services.BundleFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldBundle, bundle))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	return fields
}

// WithContext returns a logger augmented with fields derived from ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
