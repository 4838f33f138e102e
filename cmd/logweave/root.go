package main

import (
	"github.com/spf13/cobra"

	"logweave"
	"logweave/configfile"
	"logweave/structured"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var structuredFlag bool

	rootCmd := &cobra.Command{
		Use:           "logweave",
		Short:         "Inspect and exercise logging configurations",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Logging config file (toml or yaml)")
	rootCmd.PersistentFlags().BoolVar(&structuredFlag, "structured", false, "Use the structured pipeline defaults")

	rootCmd.AddCommand(newResolveCommand(&configFlag, &structuredFlag))
	rootCmd.AddCommand(newDemoCommand(&configFlag, &structuredFlag))

	return rootCmd
}

// loadModel builds the config model from the flag-selected source. The
// structured engine is registered up front so detection and configuration see
// every backend this binary ships.
func loadModel(configPath string, useStructured bool) (logweave.Config, error) {
	structured.Register()
	if configPath != "" {
		return configfile.Load(configPath)
	}
	if useStructured {
		return logweave.NewStructLoggingConfig(), nil
	}
	return logweave.NewLoggingConfig(), nil
}
