package processor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"linefix/internal/config"
	"linefix/pkg/textenc"
)

// Run normalizes every file under opts.Config.SourceDir that matches one of
// the configured patterns. Files are handled one at a time; a failure on one
// file is recorded in its report and the run moves on. Only configuration
// problems and an unreadable source root end the run with an error.
func Run(ctx context.Context, opts Options, updates chan<- ProgressUpdate) (Summary, []FileReport, error) {
	summary := Summary{}

	cfg := opts.Config
	if cfg == nil {
		return summary, nil, &config.ConfigError{Field: "source_dir", Reason: "required"}
	}
	if err := cfg.Validate(); err != nil {
		return summary, nil, err
	}
	fallback, err := textenc.Codepage(cfg.FallbackCodepage)
	if err != nil {
		return summary, nil, &config.ConfigError{Field: "fallback_codepage", Reason: err.Error()}
	}

	if ctx == nil {
		ctx = context.Background()
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	tasks, err := collectTasks(cfg)
	if err != nil {
		return summary, nil, err
	}

	summary.Total = len(tasks)
	if len(tasks) > 0 {
		sendUpdate(ctx, updates, ProgressUpdate{TotalDelta: len(tasks)})
	}

	writer := Writer{DryRun: opts.Mode == ModeScan}
	reports := make([]FileReport, 0, len(tasks))

	for _, task := range tasks {
		if err := ctx.Err(); err != nil {
			if errors.Is(err, context.Canceled) {
				return summary, reports, nil
			}
			return summary, reports, err
		}

		report := processFile(task, cfg, fallback, writer)
		reports = append(reports, report)
		update := ProgressUpdate{ProcessedDelta: 1, WarningDelta: len(report.Warnings)}

		summary.Processed++
		summary.Warnings += len(report.Warnings)
		for _, w := range report.Warnings {
			logger.Warn("charset fallback",
				"path", w.Path,
				"kind", string(w.Kind),
				"detected", w.Detected,
				"fallback", w.Fallback,
				"error", w.Err,
			)
		}

		switch report.Outcome {
		case OutcomeWritten:
			summary.Written++
			summary.BytesWritten += report.Bytes
			update.WrittenDelta = 1
			logger.Info("normalized", "path", task.Path, "dest", task.Dest,
				"charset", report.Decision.Source.Name, "target", report.Decision.Target.Name,
				"eol", report.Style.String())
		case OutcomeChanged:
			summary.Changed++
			update.WrittenDelta = 1
			logger.Info("needs normalization", "path", task.Path, "charset", report.Decision.Source.Name,
				"eol", report.Style.String())
		case OutcomeSkipped:
			summary.Skipped++
			update.SkippedDelta = 1
			logger.Debug("unchanged", "path", task.Path, "charset", report.Decision.Source.Name)
		default:
			summary.Failed++
			update.ErrorDelta = 1
			logger.Error("file failed", "path", task.Path, "error", report.Err)
		}

		sendUpdate(ctx, updates, update)
	}

	return summary, reports, nil
}

// sendUpdate delivers u unless the receiver has gone away and ctx is done.
func sendUpdate(ctx context.Context, updates chan<- ProgressUpdate, u ProgressUpdate) {
	if updates == nil {
		return
	}
	select {
	case updates <- u:
	case <-ctx.Done():
	}
}

func processFile(task Task, cfg *config.Config, fallback textenc.Charset, writer Writer) FileReport {
	report := FileReport{Task: task, Outcome: OutcomeFailed}

	info, err := os.Stat(task.Path)
	if err != nil {
		report.Err = &FileError{Path: task.Path, Op: "stat", Err: err}
		return report
	}
	data, err := os.ReadFile(task.Path)
	if err != nil {
		report.Err = &FileError{Path: task.Path, Op: "read", Err: err}
		return report
	}

	decision, warnings := decideEncoding(task.Path, data, cfg, fallback)
	report.Decision = decision
	report.Warnings = warnings

	text, err := decision.Source.Decode(data[len(decision.SourceBOM):])
	if err != nil {
		report.Err = &FileError{Path: task.Path, Op: "decode", Err: err}
		return report
	}
	report.Breaks = CountLineBreaks(text)
	report.Style = Classify(text)
	normalized := NormalizeLineEndings(text)

	original, exists := data, true
	if task.Dest != task.Path {
		original, err = os.ReadFile(task.Dest)
		switch {
		case err == nil:
		case errors.Is(err, fs.ErrNotExist):
			original, exists = nil, false
		default:
			report.Err = &FileError{Path: task.Dest, Op: "read", Err: err}
			return report
		}
	}

	writer.Perm = info.Mode().Perm()
	outcome, size, err := writer.Write(original, exists, normalized, decision, task.Dest)
	report.Outcome = outcome
	report.Bytes = size
	report.Err = err
	return report
}

// collectTasks walks the source tree and returns one task per matching
// regular file. A destination directory inside the source tree is not
// descended into.
func collectTasks(cfg *config.Config) ([]Task, error) {
	root := cfg.SourceDir
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	inPlace := cfg.InPlace()
	var destAbs string
	var destInsideRoot bool
	if !inPlace {
		destAbs, err = filepath.Abs(cfg.DestinationDir())
		if err != nil {
			return nil, err
		}
		destClean := filepath.Clean(destAbs)
		if destClean != filepath.Clean(absRoot) && isWithin(destClean, absRoot) {
			destInsideRoot = true
		}
	}

	patterns := cfg.Patterns()
	makeTask := func(fullPath, rel string) Task {
		task := Task{Path: fullPath, Dest: fullPath, RelPath: rel}
		if !inPlace {
			task.Dest = filepath.Join(destAbs, filepath.FromSlash(rel))
		}
		return task
	}

	if !info.IsDir() {
		rel := filepath.Base(absRoot)
		if !matchAny(patterns, rel) {
			return nil, nil
		}
		return []Task{makeTask(absRoot, rel)}, nil
	}

	var tasks []Task
	fsys := os.DirFS(absRoot)
	err = fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// An unreadable subdirectory costs its own files, not the run.
			if p != "." && d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return walkErr
		}
		if d.IsDir() {
			if destInsideRoot && isWithin(filepath.Join(absRoot, p), destAbs) {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if !matchAny(patterns, p) {
			return nil
		}
		tasks = append(tasks, makeTask(filepath.Join(absRoot, filepath.FromSlash(p)), p))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	return tasks, nil
}

// matchAny reports whether rel, a slash-separated path, matches any pattern.
// Patterns without a slash match the base name. Matching ignores case.
func matchAny(patterns []string, rel string) bool {
	rel = strings.ToLower(rel)
	base := path.Base(rel)
	for _, p := range patterns {
		p = strings.ToLower(p)
		target := base
		if strings.Contains(p, "/") {
			target = rel
		}
		if ok, _ := path.Match(p, target); ok {
			return true
		}
	}
	return false
}

func isWithin(p string, root string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
