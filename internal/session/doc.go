// Package session persists interview session records in SQLite.
//
// Records are created when a candidate starts an interview, mutated by timing
// updates and completion, and marked processed once the analysis pipeline has
// run. They are never deleted. The store owns all access; no other package
// touches the database file.
package session
