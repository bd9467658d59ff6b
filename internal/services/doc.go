// Package services defines shared utilities consumed by the pipeline stages
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp user IDs, run IDs, and stage names for
//     logging and correlation.
//   - Structured error markers plus the Wrap helper that classify failures
//     into the pipeline's recoverable/degrading taxonomy.
package services
