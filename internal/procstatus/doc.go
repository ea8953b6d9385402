// Package procstatus persists the per-session processing status artifact.
//
// The artifact is the only cross-process signal of pipeline progress: the
// coordinator writes it, the external audio pipeline flips its completion
// flag, and pollers read it. All mutation happens under a file lock so there
// is exactly one writer per artifact at a time.
package procstatus
