// Package logger configures the application-wide slog logger and provides
// helpers for carrying request- or worker-scoped loggers through contexts.
package logger
