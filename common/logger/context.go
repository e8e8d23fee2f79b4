package logger

import (
	"context"
	"unicode/utf8"
)

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within a context.
// Fields flow through context enrichment, so a run id set once by the coordinator
// shows up on every log line emitted by the participants beneath it.
type LogFields struct {
	SessionID   *int64  // Interactive session (one per process)
	RunID       *int64  // Pipeline run (one per user utterance)
	Stage       *string // Pipeline stage (e.g., "collecting", "retrieving")
	Participant *string // Participant name (e.g., "initial_assistant")
	Component   string  // Component name (OTel semantic convention style, e.g., "recommender.brain.coordinator")
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking precedence.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, new LogFields) LogFields {
	result := existing

	if new.SessionID != nil {
		result.SessionID = new.SessionID
	}
	if new.RunID != nil {
		result.RunID = new.RunID
	}
	if new.Stage != nil {
		result.Stage = new.Stage
	}
	if new.Participant != nil {
		result.Participant = new.Participant
	}
	if new.Component != "" {
		result.Component = new.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline: logger.WithLogFields(ctx, logger.LogFields{RunID: logger.Ptr(id)})
func Ptr[T any](v T) *T {
	return &v
}

// Truncate cuts s to at most maxLen bytes, appending "..." if truncated.
// The cut never splits a UTF-8 sequence.
// Useful for logging potentially long strings like model replies.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
