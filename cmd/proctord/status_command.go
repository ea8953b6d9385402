package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"proctor/internal/procstatus"
	"proctor/internal/session"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status [<username> <session-id>]",
		Short: "Show processing status for a session, or store totals",
		Args:  cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			if len(args) == 0 {
				store, err := session.Open(cfg)
				if err != nil {
					return err
				}
				defer store.Close()
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				return printStats(cmd, stats)
			}
			if len(args) != 2 {
				return fmt.Errorf("expected <username> <session-id>")
			}

			status, ok, err := procstatus.Read(cfg.SessionDir(args[0], args[1]))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Session has not been processed yet.")
				return nil
			}
			return printStatus(cmd, status)
		},
	}
}

func printStatus(cmd *cobra.Command, status procstatus.Status) error {
	out := cmd.OutOrStdout()
	if !isTerminal(out) {
		return writeJSON(cmd, status)
	}

	rows := [][]string{
		{"Session", status.SessionID},
		{"Video analyzed", yesNo(status.VideoAnalyzed)},
		{"Audio extracted", yesNo(status.AudioExtracted)},
		{"Audio pipeline started", yesNo(status.AudioProcessingStarted)},
		{"Processing completed", yesNo(status.ProcessingCompleted)},
	}
	if status.CheatingAnalysis != nil {
		rows = append(rows,
			[]string{"Cheating score", fmt.Sprintf("%.1f", status.CheatingAnalysis.CheatingScore)},
			[]string{"Detected", yesNo(status.CheatingAnalysis.IsCheatingDetected)},
		)
	}
	if status.Error != "" {
		rows = append(rows, []string{"Error", status.Error})
	}
	fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows, nil))
	return nil
}

func printStats(cmd *cobra.Command, stats session.Stats) error {
	out := cmd.OutOrStdout()
	if !isTerminal(out) {
		return writeJSON(cmd, map[string]int{
			"total":     stats.Total,
			"completed": stats.Completed,
			"processed": stats.Processed,
			"pending":   stats.Pending,
		})
	}

	rows := [][]string{
		{"Total sessions", strconv.Itoa(stats.Total)},
		{"Completed", strconv.Itoa(stats.Completed)},
		{"Processed", strconv.Itoa(stats.Processed)},
		{"Awaiting analysis", strconv.Itoa(stats.Pending)},
	}
	fmt.Fprintln(out, renderTable([]string{"Metric", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
	return nil
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
