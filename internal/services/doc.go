// Package services defines shared utilities consumed by the pipeline
// coordinator and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp session identifiers and stage names for
//     logging and tracing.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification uniform across pipeline stages.
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability) stays uniform across components.
package services
