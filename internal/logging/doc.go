// Package logging builds the application's slog loggers: a human-oriented
// console handler with TTY-aware color and a JSON handler for log files,
// plus attribute helpers shared across components.
package logging
