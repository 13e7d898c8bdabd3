// Package logging builds the structured slog loggers used by the normalizer.
//
// It owns the console and JSON handlers and the append-mode log file,
// plus a few attribute helpers so readers and the pipeline emit warnings with
// the same shape: every WARN line carries event_type, error_hint and impact.
package logging
