// File: cmd/record.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/caseforge-cli/api/schemas"
	"github.com/xkilldash9x/caseforge-cli/internal/export"
	"github.com/xkilldash9x/caseforge-cli/internal/observability"
)

// stopTimeout bounds finalization after the command's context is cancelled.
const stopTimeout = 30 * time.Second

func newRecordCmd() *cobra.Command {
	var (
		format   string
		username string
		password string
	)

	recordCmd := &cobra.Command{
		Use:   "record <url>",
		Short: "Record a browser session and turn it into test cases",
		Long: `Opens a browser at the given URL and records navigations, API calls, clicks
and form submissions. Recording stops when the browser is closed or on Ctrl+C;
the captured interactions are then grouped into test cases and exported.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := configFromContext(ctx)
			if err != nil {
				return err
			}
			if _, err := export.ParseFormat(format); err != nil {
				return err
			}

			components, err := componentFactory.Create(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize components: %w", err)
			}
			defer components.Shutdown()

			var creds *schemas.Credentials
			if username != "" || password != "" {
				creds = &schemas.Credentials{Username: username, Password: password}
				if creds.Empty() {
					logger.Warn("Both --username and --password are needed for automatic login; skipping login.")
				}
			}

			session, err := components.Generator.StartSession(ctx, args[0], creds)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Recording %s. Close the browser or press Ctrl+C to stop.\n", args[0])

			var cases []schemas.TestCase
			select {
			case <-session.Done():
				cases = session.Result()
			case <-ctx.Done():
				stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
				defer cancel()
				cases, err = components.Generator.StopSession(stopCtx)
				if errors.Is(err, schemas.ErrNoActiveSession) {
					// The browser closed at the same moment.
					<-session.Done()
					cases, err = session.Result(), nil
				}
				if err != nil {
					return err
				}
			}

			logger.Info("Recording finished.", zap.String("session_id", session.ID), zap.Int("test_cases", len(cases)))
			if len(cases) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "No interactions were captured; nothing to export.")
				return nil
			}

			artifact, err := components.Generator.ExportTestCases(cases, format)
			if err != nil {
				return err
			}
			dest, err := export.WriteArtifact(artifact, cfg.Export.OutputDir, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if dest != export.Stdout {
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d test cases to %s\n", len(cases), dest)
			}
			return nil
		},
	}

	recordCmd.Flags().StringVarP(&format, "format", "f", string(export.FormatJSON), "Export format: json, csv or xlsx.")
	recordCmd.Flags().StringVarP(&username, "username", "u", "", "Username for automatic login.")
	recordCmd.Flags().StringVarP(&password, "password", "p", "", "Password for automatic login.")
	recordCmd.Flags().StringP("output", "o", ".", `Output directory, or "-" for stdout. (Overrides config/env)`)
	recordCmd.Flags().String("engine", "chromedp", "Browser engine: chromedp or rod. (Overrides config/env)")
	recordCmd.Flags().Bool("headless", false, "Run the browser without a window. (Overrides config/env)")
	configFlag(recordCmd, "output", "export.output_dir")
	configFlag(recordCmd, "engine", "browser.engine")
	configFlag(recordCmd, "headless", "browser.headless")

	return recordCmd
}
