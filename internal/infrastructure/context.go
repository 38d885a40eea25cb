package infrastructure

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// GenerateTraceID creates a new unique run identifier using UUID v4
func GenerateTraceID() string {
	return uuid.New().String()
}

// StartRun attaches a fresh run ID to ctx. Records logged with the returned
// context carry it as trace_id.
func StartRun(ctx context.Context) (context.Context, string) {
	runID := GenerateTraceID()
	return WithTraceID(ctx, runID), runID
}

// WithComponent tags every record of logger with the emitting component
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = GetLogger()
	}
	return logger.With(slog.String("component", component))
}
