// Package analysis drives gaze tracking across a whole recording and folds
// per-frame findings into a single integrity summary.
//
// Frames are sampled rather than exhaustively analyzed, suspicious events are
// capped in the emitted artifact while the true count is preserved, and the
// composite score is clamped to [0,100]. The summary's JSON field names are an
// external contract; downstream aggregation reads the artifacts back by key.
package analysis
