// Command proctord analyzes recorded interview sessions for integrity
// signals. It runs as a polling daemon over the session store, or as a
// one-shot tool for analyzing, grading, and inspecting individual sessions.
package main
