package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within a context.
// Handlers enrich the context once (repository, pull request, trigger) and every
// log statement below them picks the fields up.
type LogFields struct {
	Repository  *string // full repository path, e.g. "acme/api"
	PullRequest *int64  // pull request number within the repository
	Trigger     *string // label trigger being reconciled
	EventKind   *string // event variant, e.g. "workflow_started"
	DeliveryID  *int64  // snowflake id stamped by the webhook server
	MessageID   *string // Redis stream message ID
	Component   string  // component name, e.g. "mergebot.labels"
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

	if new.Repository != nil {
		result.Repository = new.Repository
	}
	if new.PullRequest != nil {
		result.PullRequest = new.PullRequest
	}
	if new.Trigger != nil {
		result.Trigger = new.Trigger
	}
	if new.EventKind != nil {
		result.EventKind = new.EventKind
	}
	if new.DeliveryID != nil {
		result.DeliveryID = new.DeliveryID
	}
	if new.MessageID != nil {
		result.MessageID = new.MessageID
	}
	if new.Component != "" {
		result.Component = new.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline: logger.WithLogFields(ctx, logger.LogFields{Trigger: logger.Ptr("approved")})
func Ptr[T any](v T) *T {
	return &v
}
