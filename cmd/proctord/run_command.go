package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"proctor/internal/logging"
	"proctor/internal/pipeline"
	"proctor/internal/services/audiopipe"
	"proctor/internal/session"
	"proctor/internal/vision"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the analysis daemon",
		Long:  "Poll the session store for completed interviews and analyze them as they arrive.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemonProcess(cmd.Context(), ctx)
		},
	}
}

func runDaemonProcess(cmdCtx context.Context, ctx *commandContext) error {
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
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
		logger.Error("open session store", logging.Error(err))
		return err
	}
	defer store.Close()

	coordinator := pipeline.NewCoordinator(cfg, store, detector, audiopipe.NewProcessor(cfg),
		logging.NewComponentLogger(logger, "pipeline"))

	err = coordinator.Run(signalCtx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
