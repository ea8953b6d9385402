// Package pipeline coordinates per-session analysis work.
//
// Completed sessions are submitted as jobs to a bounded worker pool; Submit
// never blocks the caller. Each job extracts audio, runs video analysis,
// emits the analysis artifacts, hands audio to the external speech pipeline,
// and persists the processing-status artifact. Failures degrade into the
// status artifact instead of propagating; a failed session simply reads as
// not-yet-completed to pollers.
package pipeline
