package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"proctor/internal/logging"
	"proctor/internal/results"
	"proctor/internal/session"
)

func newResultsCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "results <username> <session-id>",
		Short: "Generate or show a session's final results",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			username, sessionID := args[0], args[1]

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			store, err := session.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			aggregator := results.New(cfg, store, nil, logging.NewComponentLogger(logger, "results"))
			result, err := aggregator.Generate(cmd.Context(), username, sessionID, force)
			if err != nil {
				return err
			}
			return printResult(cmd, result)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Recompute even if results already exist")
	return cmd
}

func printResult(cmd *cobra.Command, result *results.FinalResult) error {
	out := cmd.OutOrStdout()
	if !isTerminal(out) {
		return writeJSON(cmd, result)
	}

	scores := result.OverallScores
	rows := [][]string{
		{"Integrity", fmt.Sprintf("%.1f", scores.IntegrityScore)},
		{"Content", fmt.Sprintf("%.1f", scores.ContentScore)},
		{"Delivery", fmt.Sprintf("%.1f", scores.DeliveryScore)},
		{"Vocal confidence", fmt.Sprintf("%.1f", scores.VocalConfidence)},
		{"Overall", fmt.Sprintf("%.1f", scores.OverallScore)},
	}
	fmt.Fprintf(out, "Session %s (%s, %s)\n", result.SessionID, result.Username, result.InterviewDate)
	fmt.Fprintln(out, renderTable([]string{"Category", "Score"}, rows, []columnAlignment{alignLeft, alignRight}))

	if scores.IsCheatingDetected {
		fmt.Fprintln(out, "Integrity warning: suspicious behavior was detected.")
	}
	if len(result.Feedback) > 0 {
		fmt.Fprintln(out, "\nFeedback:")
		for _, entry := range result.Feedback {
			fmt.Fprintf(out, "  [%s/%s] %s\n", entry.Category, entry.Type, entry.Message)
		}
	}
	return nil
}
