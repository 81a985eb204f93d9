package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"linefix/internal/processor"
	"linefix/internal/tui"
)

var scanFlags runFlags

var scanCmd = &cobra.Command{
	Use:   "scan [flags] <source>",
	Short: "Report charsets and line endings without modifying files",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd, args, &scanFlags)
		if err != nil {
			return err
		}

		progress := !scanFlags.noProgress && isTerminal(os.Stdout)
		logger, closeLog, err := newLogger(&scanFlags, progress)
		if err != nil {
			return err
		}
		defer closeLog()

		summary, reports, err := execute(cmd.Context(), "linefix scan", processor.Options{
			Mode:   processor.ModeScan,
			Config: cfg,
			Logger: logger,
		}, progress)
		if err != nil {
			return err
		}

		if out := tui.RenderScan(reports); out != "" {
			fmt.Fprintln(os.Stdout, out)
			fmt.Fprintln(os.Stdout)
		}
		if issues := tui.RenderIssues(reports); issues != "" {
			fmt.Fprintln(os.Stdout, issues)
		}
		fmt.Fprintln(os.Stdout, tui.RenderSummary(tui.SummaryRows(summary, true)))
		return nil
	},
}

func init() {
	bindRunFlags(scanCmd, &scanFlags)
	rootCmd.AddCommand(scanCmd)
}
