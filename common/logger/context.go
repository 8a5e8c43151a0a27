package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs
// within a context. Business context (room_id, report_date, ...) set once
// during enrichment shows up on every log statement downstream.
type LogFields struct {
	RoomID     *string // chat room the operation concerns
	MessageID  *string // message ID (platform-scoped)
	ReportDate *string // daily report date (YYYY-MM-DD)
	Dashboard  *string // dashboard being computed ("contributions", "radar", "stats")
	Component  string  // component name, e.g. "engine.contributions"
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking
// precedence. Context timeouts and cancellation are preserved.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	merged := mergeFields(GetLogFields(ctx), fields)
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

func mergeFields(existing, next LogFields) LogFields {
	result := existing

	if next.RoomID != nil {
		result.RoomID = next.RoomID
	}
	if next.MessageID != nil {
		result.MessageID = next.MessageID
	}
	if next.ReportDate != nil {
		result.ReportDate = next.ReportDate
	}
	if next.Dashboard != nil {
		result.Dashboard = next.Dashboard
	}
	if next.Component != "" {
		result.Component = next.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value, for setting LogFields
// inline: logger.WithLogFields(ctx, logger.LogFields{RoomID: logger.Ptr(id)})
func Ptr[T any](v T) *T {
	return &v
}

// Truncate truncates a string to maxLen characters, appending "..." if
// truncated. Useful for logging long message bodies or queries.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
