package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"logweave"
	"logweave/backend"
	"logweave/backend/slogcore"
	"logweave/backend/zaplog"
)

func newDemoCommand(configFlag *string, structuredFlag *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Configure logging and emit sample records through it",
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := loadModel(*configFlag, *structuredFlag)
			if err != nil {
				return err
			}

			getLogger, err := logweave.Configure(model)
			if err != nil {
				return fmt.Errorf("configure logging: %w", err)
			}

			logger := getLogger(logweave.AppLoggerName)
			logger.Log(backend.LevelDebug, "debug sample", "step", 1)
			logger.Log(backend.LevelInfo, "info sample", "step", 2)
			logger.Log(backend.LevelWarn, "warn sample", "step", 3)
			logger.Log(backend.LevelError, "error sample", "step", 4)
			logger.Exception("exception sample", "step", 5)

			slogcore.Default().Sync()
			zaplog.Default().Sync()
			return nil
		},
	}
}
