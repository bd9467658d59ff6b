// Package logging builds slog loggers with console and JSON handlers and
// provides typed attribute helpers shared across the pipeline.
//
// Conventions:
//   - Every subsystem logger carries a "component" attribute, added via
//     NewComponentLogger.
//   - Standard field keys live in fields.go; use them instead of ad-hoc
//     strings so log queries stay stable.
//   - Errors are logged with logging.Error(err) so both handlers render them
//     uniformly.
package logging
