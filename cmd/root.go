package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"linefix/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "linefix",
	Short: "linefix - normalize line endings and text encodings across a source tree",
	Long: "linefix detects the charset of every matching file, rewrites CRLF and CR line endings to LF,\n" +
		"optionally converts the text to UTF-8, and only touches files whose bytes actually change.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		if config.IsConfigError(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
}
