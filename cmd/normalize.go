package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"linefix/internal/processor"
	"linefix/internal/tui"
)

var normalizeFlags runFlags

var normalizeCmd = &cobra.Command{
	Use:   "normalize [flags] <source> [dest]",
	Short: "Rewrite line endings to LF and optionally convert files to UTF-8",
	Long: "Normalize every file under <source> that matches --ext. Without [dest] files are\n" +
		"rewritten in place; files whose bytes would not change are never written.",
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd, args, &normalizeFlags)
		if err != nil {
			return err
		}

		progress := !normalizeFlags.noProgress && isTerminal(os.Stdout)
		logger, closeLog, err := newLogger(&normalizeFlags, progress)
		if err != nil {
			return err
		}
		defer closeLog()

		summary, reports, err := execute(cmd.Context(), "linefix normalize", processor.Options{
			Mode:   processor.ModeNormalize,
			Config: cfg,
			Logger: logger,
		}, progress)
		if err != nil {
			return err
		}

		if issues := tui.RenderIssues(reports); issues != "" {
			fmt.Fprintln(os.Stdout, issues)
		}
		fmt.Fprintln(os.Stdout, tui.RenderSummary(tui.SummaryRows(summary, false)))
		if cfg.InPlace() {
			fmt.Fprintln(os.Stdout, "In-place normalization complete.")
		} else {
			outPath := cfg.DestinationDir()
			if abs, absErr := filepath.Abs(outPath); absErr == nil {
				outPath = abs
			}
			fmt.Fprintf(os.Stdout, "Normalized files written to: %s\n", outPath)
			fmt.Fprintln(os.Stdout, "Note: sources are unchanged when a destination is given.")
		}

		return nil
	},
}

func init() {
	bindRunFlags(normalizeCmd, &normalizeFlags)
	rootCmd.AddCommand(normalizeCmd)
}
