package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"proctor/internal/results"
	"proctor/internal/session"
)

type sessionListing struct {
	SessionID         string  `json:"session_id"`
	Date              string  `json:"date"`
	DurationSeconds   float64 `json:"duration_seconds"`
	QuestionsAnswered int     `json:"questions_answered"`
	QuestionsTotal    int     `json:"questions_total"`
	RecordingBytes    int64   `json:"recording_bytes"`
	Completed         bool    `json:"completed"`
	HasResults        bool    `json:"has_results"`
}

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions <username>",
		Short: "List a user's interview sessions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			username := args[0]

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := session.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.ListByUser(cmd.Context(), username)
			if err != nil {
				return err
			}

			listings := make([]sessionListing, 0, len(records))
			for _, rec := range records {
				dir := cfg.SessionDir(username, rec.SessionID)
				listing := sessionListing{
					SessionID:         rec.SessionID,
					Date:              rec.StartTime.UTC().Format("2006-01-02 15:04"),
					DurationSeconds:   rec.DurationSeconds,
					QuestionsAnswered: rec.QuestionsAnswered,
					QuestionsTotal:    rec.QuestionsTotal,
					Completed:         rec.Completed,
				}
				if rec.RecordingFile != "" {
					if info, err := os.Stat(filepath.Join(dir, rec.RecordingFile)); err == nil {
						listing.RecordingBytes = info.Size()
					}
				}
				if _, err := os.Stat(filepath.Join(dir, results.FinalResultsFile)); err == nil {
					listing.HasResults = true
				}
				listings = append(listings, listing)
			}

			out := cmd.OutOrStdout()
			if !isTerminal(out) {
				return writeJSON(cmd, listings)
			}
			if len(listings) == 0 {
				fmt.Fprintf(out, "No sessions for %s.\n", username)
				return nil
			}

			rows := make([][]string, 0, len(listings))
			for _, listing := range listings {
				rows = append(rows, []string{
					listing.SessionID,
					listing.Date,
					fmt.Sprintf("%.0fs", listing.DurationSeconds),
					fmt.Sprintf("%d/%d", listing.QuestionsAnswered, listing.QuestionsTotal),
					formatBytes(listing.RecordingBytes),
					yesNo(listing.Completed),
					yesNo(listing.HasResults),
				})
			}
			headers := []string{"Session", "Date", "Duration", "Questions", "Recording", "Completed", "Results"}
			aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft, alignLeft}
			fmt.Fprintln(out, renderTable(headers, rows, aligns))
			return nil
		},
	}
}

func formatBytes(size int64) string {
	const unit = 1024
	if size < unit {
		return strconv.FormatInt(size, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}
