// Package logging builds the slog loggers used across etymon. It provides
// a console handler for interactive use, a JSON handler for structured
// output, and helpers for component-scoped loggers and common attributes.
package logging
