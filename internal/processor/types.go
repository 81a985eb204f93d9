package processor

import (
	"fmt"
	"log/slog"

	"linefix/internal/config"
	"linefix/pkg/textenc"
)

type Mode int

const (
	ModeNormalize Mode = iota
	// ModeScan runs the whole pipeline but never touches the filesystem.
	ModeScan
)

type Options struct {
	Mode   Mode
	Config *config.Config
	Logger *slog.Logger
}

// Task pairs a source file with the path its normalized form goes to.
// Dest equals Path in place.
type Task struct {
	Path    string
	Dest    string
	RelPath string
}

// EncodingDecision records how one file was read and how it will be written.
type EncodingDecision struct {
	Source textenc.Charset
	Target textenc.Charset

	// Detected is the detector's label; empty when detection failed.
	Detected string

	// Fallback is the fallback charset name, set only when it was used.
	Fallback string

	// SourceBOM is the byte-order mark stripped from the input.
	SourceBOM []byte

	// Preamble is prepended to the encoded output.
	Preamble []byte
}

type Outcome int

const (
	OutcomeFailed Outcome = iota
	OutcomeSkipped
	OutcomeWritten
	// OutcomeChanged is reported in scan mode where a write would have happened.
	OutcomeChanged
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeWritten:
		return "written"
	case OutcomeChanged:
		return "changed"
	default:
		return "failed"
	}
}

type WarningKind string

const (
	WarnDetectionFailed    WarningKind = "detection-failed"
	WarnUnsupportedCharset WarningKind = "unsupported-charset"
)

// Warning is a recovered, non-fatal problem with one file.
type Warning struct {
	Kind     WarningKind
	Path     string
	Detected string
	Fallback string
	Err      error
}

func (w Warning) String() string {
	switch w.Kind {
	case WarnUnsupportedCharset:
		return fmt.Sprintf("%s: charset %q unsupported, used %s", w.Path, w.Detected, w.Fallback)
	default:
		return fmt.Sprintf("%s: charset not detected, used %s", w.Path, w.Fallback)
	}
}

// FileError is a per-file failure. The file is skipped and the run goes on.
type FileError struct {
	Path string
	Op   string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

type FileReport struct {
	Task     Task
	Outcome  Outcome
	Decision EncodingDecision
	Style    Style
	Breaks   LineBreaks
	Warnings []Warning
	Err      error

	// Bytes is the size of the new content, written or not.
	Bytes int64
}

type Summary struct {
	Total        int
	Processed    int
	Written      int
	Skipped      int
	Changed      int
	Failed       int
	Warnings     int
	BytesWritten int64
}

type ProgressUpdate struct {
	TotalDelta     int
	ProcessedDelta int
	WrittenDelta   int
	SkippedDelta   int
	ErrorDelta     int
	WarningDelta   int
}
