// Package audiopipe extracts interview audio and hands it to the external
// speech-analysis pipeline.
//
// The pipeline itself is a collaborator, not part of this daemon: it is
// invoked asynchronously with the session id, username, audio path, and base
// directory, and is expected to eventually write an audio-metrics artifact
// into the session directory. This package only owns extraction, invocation,
// and reading the metrics artifact back.
package audiopipe
