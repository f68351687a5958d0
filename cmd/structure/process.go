package main

import (
	"fmt"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"clinical-transcript-service/internal/app"
	"clinical-transcript-service/internal/config"
	"clinical-transcript-service/internal/display"
	"clinical-transcript-service/internal/observability/metrics"
	"clinical-transcript-service/internal/schema"
	"clinical-transcript-service/internal/service/transcript"
	"clinical-transcript-service/internal/store"
)

func newProcessCmd(cfg *config.Config) *cobra.Command {
	var (
		output   string
		provider string
		format   string
		quiet    bool
	)

	cmd := &cobra.Command{
		Use:   "process <file>",
		Short: "Label each line of a transcript file and write <stem>_structured.json next to it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("failed to resolve %s: %w", args[0], err)
			}

			clfCfg := cfg.Classifier
			if provider != "" {
				clfCfg.Provider = provider
			}
			clf, err := app.NewClassifier(clfCfg)
			if err != nil {
				return err
			}

			uploads, err := store.NewUploads(filepath.Dir(path))
			if err != nil {
				return err
			}
			validator, err := schema.New()
			if err != nil {
				return err
			}

			processor := transcript.NewProcessor(clf, uploads,
				transcript.WithValidator(validator),
				transcript.WithMetrics(metrics.NewMetrics(prometheus.NewRegistry())),
			)

			res, err := processor.Process(cmd.Context(), filepath.Base(path), output)
			if err != nil {
				return err
			}

			if !quiet {
				if err := display.Print(cmd.OutOrStdout(), res.Records, format); err != nil {
					return err
				}
			}
			cmd.PrintErrf("Wrote %s\n", res.OutputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file name (default <stem>_structured.json)")
	cmd.Flags().StringVar(&provider, "classifier", "", "Classifier provider (mock, zeroshot); overrides CLASSIFIER_PROVIDER")
	cmd.Flags().StringVarP(&format, "format", "f", display.FormatJSON, "Output format (json, yaml, text)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only write the output file")

	return cmd
}
