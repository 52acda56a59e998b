// File: cmd/generate.go
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/caseforge-cli/internal/documents"
	"github.com/xkilldash9x/caseforge-cli/internal/export"
	"github.com/xkilldash9x/caseforge-cli/internal/observability"
)

// watchDebounce coalesces the burst of events an editor save produces.
var watchDebounce = 300 * time.Millisecond

func newGenerateCmd() *cobra.Command {
	var (
		format    string
		mediaType string
		watch     bool
	)

	generateCmd := &cobra.Command{
		Use:   "generate <stories-file>",
		Short: "Generate test cases from a user story document",
		Long: `Reads user stories from an Excel, CSV, JSON, YAML or Word document and
writes one test case per story in the requested export format.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()
			path := args[0]

			cfg, err := configFromContext(ctx)
			if err != nil {
				return err
			}
			if _, err := export.ParseFormat(format); err != nil {
				return err
			}
			if mediaType == "" {
				if mediaType, err = documents.MediaTypeForPath(path); err != nil {
					return err
				}
			}

			components, err := componentFactory.Create(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize components: %w", err)
			}
			defer components.Shutdown()

			run := func() error {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", path, err)
				}
				cases, err := components.Generator.GenerateFromDocument(ctx, data, mediaType)
				if err != nil {
					return err
				}
				artifact, err := components.Generator.ExportTestCases(cases, format)
				if err != nil {
					return err
				}
				dest, err := export.WriteArtifact(artifact, cfg.Export.OutputDir, cmd.OutOrStdout())
				if err != nil {
					return err
				}
				logger.Info("Test cases written.", zap.Int("test_cases", len(cases)), zap.String("destination", dest))
				if dest != export.Stdout {
					fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d test cases to %s\n", len(cases), dest)
				}
				return nil
			}

			if !watch {
				return run()
			}

			if err := run(); err != nil {
				logger.Error("Generation failed; waiting for the next change.", zap.Error(err))
			}
			logger.Info("Watching for changes.", zap.String("path", path))
			return watchFile(ctx, path, watchDebounce, logger, func() {
				if err := run(); err != nil {
					logger.Error("Generation failed; waiting for the next change.", zap.Error(err))
				}
			})
		},
	}

	generateCmd.Flags().StringVarP(&format, "format", "f", string(export.FormatJSON), "Export format: json, csv or xlsx.")
	generateCmd.Flags().StringVar(&mediaType, "media-type", "", "Document media type. Inferred from the file extension when unset.")
	generateCmd.Flags().BoolVarP(&watch, "watch", "w", false, "Regenerate whenever the stories file changes.")
	generateCmd.Flags().StringP("output", "o", ".", `Output directory, or "-" for stdout. (Overrides config/env)`)
	configFlag(generateCmd, "output", "export.output_dir")

	return generateCmd
}
