// Package results grades a finished interview session.
//
// Generation is pull-based and idempotent: it reads the session record, the
// integrity summary, and the audio metrics artifact (each optional), folds
// them into one weighted overall score with categorized feedback, and writes
// the final-results artifact. An existing artifact is the canonical answer
// until regeneration is forced.
//
// Per-question relevance, confidence, and clarity come from a pluggable
// scorer. The default scorer is a seeded heuristic stand-in for a scoring
// model that has not been integrated; its contract is only that it returns
// triples in [0,1].
package results
