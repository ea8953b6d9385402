package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"proctor/internal/fileutil"
)

// Session summary artifact filenames written into a session directory.
const (
	SessionReportFile = "interview_report.txt"
	FinalSummaryFile  = "final_summary.json"
)

type finalSummary struct {
	SessionID         string  `json:"session_id"`
	Username          string  `json:"username"`
	RoleApplied       string  `json:"role_applied,omitempty"`
	StartTime         string  `json:"start_time"`
	EndTime           string  `json:"end_time,omitempty"`
	DurationSeconds   float64 `json:"duration_seconds"`
	QuestionsTotal    int     `json:"questions_total"`
	QuestionsAnswered int     `json:"questions_answered"`
	CompletionRate    float64 `json:"completion_rate"`
	Completed         bool    `json:"completed"`
}

// EmitSessionReport writes the human-readable session report and the
// machine-readable completion summary into dir. Called when a session is
// marked completed.
func EmitSessionReport(dir string, rec *Record) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("session: create report dir: %w", err)
	}

	summary := finalSummary{
		SessionID:         rec.SessionID,
		Username:          rec.Username,
		RoleApplied:       rec.RoleApplied,
		StartTime:         rec.StartTime.UTC().Format(time.RFC3339),
		DurationSeconds:   rec.DurationSeconds,
		QuestionsTotal:    rec.QuestionsTotal,
		QuestionsAnswered: rec.QuestionsAnswered,
		CompletionRate:    rec.CompletionRate(),
		Completed:         rec.Completed,
	}
	if rec.EndTime != nil {
		summary.EndTime = rec.EndTime.UTC().Format(time.RFC3339)
	}
	if err := fileutil.WriteJSON(filepath.Join(dir, FinalSummaryFile), summary); err != nil {
		return fmt.Errorf("session: write final summary: %w", err)
	}

	report := renderSessionReport(rec)
	if err := fileutil.WriteFileAtomic(filepath.Join(dir, SessionReportFile), []byte(report), 0o644); err != nil {
		return fmt.Errorf("session: write session report: %w", err)
	}
	return nil
}

func renderSessionReport(rec *Record) string {
	var b strings.Builder

	b.WriteString("INTERVIEW SESSION REPORT\n")
	b.WriteString(strings.Repeat("=", 40) + "\n\n")
	fmt.Fprintf(&b, "Session:   %s\n", rec.SessionID)
	fmt.Fprintf(&b, "Candidate: %s\n", rec.Username)
	if rec.RoleApplied != "" {
		fmt.Fprintf(&b, "Role:      %s\n", rec.RoleApplied)
	}
	fmt.Fprintf(&b, "Started:   %s\n", rec.StartTime.UTC().Format(time.RFC3339))
	if rec.EndTime != nil {
		fmt.Fprintf(&b, "Ended:     %s\n", rec.EndTime.UTC().Format(time.RFC3339))
	}
	fmt.Fprintf(&b, "Duration:  %.1f seconds\n\n", rec.DurationSeconds)

	fmt.Fprintf(&b, "Questions answered: %d of %d (%.0f%%)\n",
		rec.QuestionsAnswered, rec.QuestionsTotal, rec.CompletionRate()*100)

	if timings, err := rec.Timings(); err == nil && len(timings) > 0 {
		b.WriteString("\nPER-QUESTION TIMING\n")
		for _, timing := range timings {
			status := "skipped"
			if timing.Answered {
				status = "answered"
			}
			fmt.Fprintf(&b, "  Q%d: %.1fs (%s)\n", timing.QuestionIndex+1, timing.DurationSeconds, status)
		}
	}

	fmt.Fprintf(&b, "\nReport generated: %s\n", time.Now().UTC().Format(time.RFC3339))
	return b.String()
}
