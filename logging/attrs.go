package logging

import "log/slog"

// Attribute keys shared by every component.
const (
	FieldComponent = "component"
	FieldEventType = "event_type"
	FieldErrorHint = "error_hint"
	FieldImpact    = "impact"
	FieldSource    = "source"
	FieldSession   = "session"
)

type Attr = slog.Attr

func Int(key string, value int) Attr { return slog.Int(key, value) }

func String(key string, value string) Attr { return slog.String(key, value) }

func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// NewComponentLogger tags logger with a component. A nil logger discards.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return logger.With(String(FieldComponent, component))
}

// WarnWithContext logs a warning that always carries event_type, error_hint
// and impact. Missing fields are filled with session-level defaults.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	var hasHint, hasImpact bool
	for _, a := range attrs {
		switch a.Key {
		case FieldErrorHint:
			hasHint = true
		case FieldImpact:
			hasImpact = true
		}
	}
	attrs = append(attrs, String(FieldEventType, eventType))
	if !hasHint {
		attrs = append(attrs, String(FieldErrorHint, "check the session files"))
	}
	if !hasImpact {
		attrs = append(attrs, String(FieldImpact, "session excluded from output"))
	}
	args := make([]any, len(attrs))
	for i, a := range attrs {
		args[i] = a
	}
	logger.Warn(msg, args...)
}
