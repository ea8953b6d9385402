package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"proctor/internal/logging"
	"proctor/internal/pipeline"
	"proctor/internal/procstatus"
	"proctor/internal/services/audiopipe"
	"proctor/internal/session"
	"proctor/internal/vision"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <username> <session-id>",
		Short: "Analyze one session immediately",
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
			detector, err := vision.NewPigoDetector(cfg.Paths.CascadeDir)
			if err != nil {
				return fmt.Errorf("load detection cascades: %w", err)
			}
			store, err := session.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			rec, err := store.GetBySessionID(cmd.Context(), sessionID)
			if err != nil {
				return err
			}
			if rec.Username != username {
				return fmt.Errorf("session %s does not belong to %s", sessionID, username)
			}

			coordinator := pipeline.NewCoordinator(cfg, store, detector, audiopipe.NewProcessor(cfg),
				logging.NewComponentLogger(logger, "pipeline"))
			coordinator.Submit(cmd.Context(), rec)
			coordinator.Wait()

			status, ok, err := procstatus.Read(cfg.SessionDir(username, sessionID))
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no processing status written for session %s", sessionID)
			}
			return printStatus(cmd, status)
		},
	}
}
