package cmd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"linefix/internal/config"
	"linefix/internal/processor"
	"linefix/internal/tui"
)

// runFlags are the flags shared by every command that walks a tree.
type runFlags struct {
	configPath    string
	extensions    string
	codepage      int
	utf8          bool
	preserveBOM   bool
	minConfidence int
	noProgress    bool
	verbose       bool
	logFile       string
}

func bindRunFlags(cmd *cobra.Command, f *runFlags) {
	fl := cmd.Flags()
	fl.StringVarP(&f.configPath, "config", "c", "", "YAML configuration file")
	fl.StringVarP(&f.extensions, "ext", "e", config.DefaultExtensions, "comma-separated file name patterns")
	fl.IntVar(&f.codepage, "codepage", config.DefaultCodepage, "codepage used when charset detection fails")
	fl.BoolVar(&f.utf8, "utf8", true, "write files as UTF-8 instead of their detected charset")
	fl.BoolVar(&f.preserveBOM, "preserve-bom", false, "keep a UTF-8 byte-order mark on files that have one")
	fl.IntVar(&f.minConfidence, "min-confidence", config.DefaultMinConfidence, "lowest detector confidence (0-100) to trust")
	fl.BoolVar(&f.noProgress, "no-progress", false, "disable the interactive progress view")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "log every file, not only problems")
	fl.StringVar(&f.logFile, "log-file", "", "append structured logs to this file")
}

// resolveConfig layers the config file, explicitly set flags and positional
// arguments, in that order, then validates the result. A missing source
// prints the command usage before the error is returned.
func resolveConfig(cmd *cobra.Command, args []string, f *runFlags) (*config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		loaded, err := config.LoadFile(f.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	fl := cmd.Flags()
	if fl.Changed("ext") {
		cfg.Extensions = f.extensions
	}
	if fl.Changed("codepage") {
		cfg.FallbackCodepage = f.codepage
	}
	if fl.Changed("utf8") {
		cfg.ConvertToUTF8 = f.utf8
	}
	if fl.Changed("preserve-bom") {
		cfg.PreserveBOM = f.preserveBOM
	}
	if fl.Changed("min-confidence") {
		cfg.MinConfidence = f.minConfidence
	}
	if len(args) > 0 {
		cfg.SourceDir = args[0]
	}
	if len(args) > 1 {
		cfg.DestDir = args[1]
	}

	if err := cfg.Validate(); err != nil {
		var ce *config.ConfigError
		if errors.As(err, &ce) && ce.Field == "source_dir" {
			_ = cmd.Usage()
		}
		return nil, err
	}
	return cfg, nil
}

// newLogger picks the log sink: the log file when given, nothing while the
// progress view owns the terminal, stderr otherwise.
func newLogger(f *runFlags, progress bool) (*slog.Logger, func() error, error) {
	level := slog.LevelWarn
	if f.verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	if f.logFile != "" {
		if err := os.MkdirAll(filepath.Dir(f.logFile), 0o755); err != nil {
			return nil, nil, err
		}
		file, err := os.OpenFile(f.logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, err
		}
		return slog.New(slog.NewTextHandler(file, opts)), file.Close, nil
	}

	noop := func() error { return nil }
	if progress {
		return slog.New(slog.NewTextHandler(io.Discard, opts)), noop, nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts)), noop, nil
}

// execute runs the pipeline, with the progress view when progress is set.
func execute(ctx context.Context, title string, opts processor.Options, progress bool) (processor.Summary, []processor.FileReport, error) {
	if !progress {
		return processor.Run(ctx, opts, nil)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates := make(chan processor.ProgressUpdate, 64)
	model := tui.NewModel(title, updates).WithInterrupt(cancel)
	program := tea.NewProgram(model)

	uiDone := make(chan struct{})
	go func() {
		defer close(uiDone)
		if _, err := program.Run(); errors.Is(err, tea.ErrInterrupted) {
			cancel()
		}
		// The program may stop reading before the run finishes.
		for range updates {
		}
	}()

	summary, reports, err := processor.Run(ctx, opts, updates)
	close(updates)
	<-uiDone
	return summary, reports, err
}

func isTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
