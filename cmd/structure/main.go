package main

import (
	"os"

	"github.com/spf13/cobra"

	"clinical-transcript-service/internal/config"
	"clinical-transcript-service/internal/observability/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd creates the root command for structure.
func newRootCmd() *cobra.Command {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:           "structure",
		Short:         "Label doctor/patient transcripts and talk to the transcript service",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.InitWithWriter(logging.Config{
				Level:  logLevel,
				Format: "console",
			}, os.Stderr)
		},
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	cfg := config.Load()

	rootCmd.AddCommand(newProcessCmd(cfg))
	rootCmd.AddCommand(newUploadCmd())
	rootCmd.AddCommand(newTranscribeCmd())
	rootCmd.AddCommand(newHealthCmd())
	rootCmd.AddCommand(newSchemaCmd())

	return rootCmd
}
