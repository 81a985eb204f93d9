package processor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/text/encoding/japanese"

	"linefix/internal/config"
)

func writeTree(t *testing.T, root string, files map[string][]byte) {
	t.Helper()
	for rel, data := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(full, data, 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return data
}

func testConfig(src string) *config.Config {
	cfg := config.Default()
	cfg.SourceDir = src
	cfg.Extensions = "*.c,*.h"
	return cfg
}

func run(t *testing.T, opts Options) (Summary, []FileReport) {
	t.Helper()
	summary, reports, err := Run(context.Background(), opts, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return summary, reports
}

func TestRunInPlaceIsIdempotent(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string][]byte{
		"a.c":         []byte("line1\r\nline2\r\n"),
		"sub/b.h":     []byte("line1\rline2\r"),
		"sub/c.c":     []byte("line1\nline2\n"),
		"bom.c":       append([]byte{0xef, 0xbb, 0xbf}, "x\r\n"...),
		"readme.txt":  []byte("ignored\r\n"),
		"deep/x/y.C":  []byte("upper\r\n"),
		"deep/x/z.cc": []byte("no match\r\n"),
	})

	first, _ := run(t, Options{Config: testConfig(src)})
	if first.Total != 5 || first.Written != 4 || first.Skipped != 1 || first.Failed != 0 {
		t.Fatalf("unexpected first summary: %+v", first)
	}

	if got := string(readFile(t, filepath.Join(src, "a.c"))); got != "line1\nline2\n" {
		t.Fatalf("a.c = %q", got)
	}
	if got := string(readFile(t, filepath.Join(src, "sub", "b.h"))); got != "line1\nline2\n" {
		t.Fatalf("b.h = %q", got)
	}
	if got := string(readFile(t, filepath.Join(src, "bom.c"))); got != "x\n" {
		t.Fatalf("bom.c = %q", got)
	}
	if got := string(readFile(t, filepath.Join(src, "readme.txt"))); got != "ignored\r\n" {
		t.Fatalf("unmatched file was modified: %q", got)
	}

	second, reports := run(t, Options{Config: testConfig(src)})
	if second.Written != 0 || second.Skipped != 5 {
		t.Fatalf("second run wrote files: %+v", second)
	}
	for _, r := range reports {
		if r.Outcome != OutcomeSkipped {
			t.Fatalf("%s: expected skipped on second pass, got %s", r.Task.RelPath, r.Outcome)
		}
	}
}

func TestRunBOMFileUnchangedIsSkipped(t *testing.T) {
	src := t.TempDir()
	original := append([]byte{0xef, 0xbb, 0xbf}, "int x;\nint y;\n"...)
	writeTree(t, src, map[string][]byte{"a.c": original})

	summary, reports := run(t, Options{Config: testConfig(src)})
	if summary.Skipped != 1 || reports[0].Outcome != OutcomeSkipped {
		t.Fatalf("expected BOM file to be skipped: %+v", summary)
	}
	if diff := cmp.Diff(original, readFile(t, filepath.Join(src, "a.c"))); diff != "" {
		t.Fatalf("file changed (-want +got):\n%s", diff)
	}
}

func TestRunPreserveBOM(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string][]byte{"a.c": append([]byte{0xef, 0xbb, 0xbf}, "x\r\n"...)})

	cfg := testConfig(src)
	cfg.PreserveBOM = true
	run(t, Options{Config: cfg})

	if got := string(readFile(t, filepath.Join(src, "a.c"))); got != "\xef\xbb\xbfx\n" {
		t.Fatalf("a.c = %q", got)
	}

	summary, _ := run(t, Options{Config: cfg})
	if summary.Skipped != 1 {
		t.Fatalf("expected skip on second run: %+v", summary)
	}
}

func TestRunLegacyCodepageToUTF8(t *testing.T) {
	src := t.TempDir()
	// "中文" in GBK followed by CRLF.
	writeTree(t, src, map[string][]byte{"a.c": {0xd6, 0xd0, 0xce, 0xc4, '\r', '\n'}})

	cfg := testConfig(src)
	cfg.ConvertToUTF8 = true
	// Force the fallback path so the result does not depend on detector heuristics.
	cfg.MinConfidence = 100

	summary, reports := run(t, Options{Config: cfg})
	if summary.Written != 1 {
		t.Fatalf("expected one write: %+v", summary)
	}

	got := readFile(t, filepath.Join(src, "a.c"))
	if !utf8.Valid(got) {
		t.Fatalf("output is not UTF-8: % x", got)
	}
	if string(got) != "中文\n" {
		t.Fatalf("a.c = %q", got)
	}
	if reports[0].Decision.Target.Name != "UTF-8" {
		t.Fatalf("unexpected target %s", reports[0].Decision.Target.Name)
	}
}

func TestRunFallbackWarning(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string][]byte{
		"a.c": {0xd6, 0xd0, 0xce, 0xc4, '\n'},
		"b.c": []byte("ascii only\n"),
	})

	cfg := testConfig(src)
	cfg.ConvertToUTF8 = false
	cfg.MinConfidence = 100

	summary, reports := run(t, Options{Config: cfg})
	if summary.Failed != 0 {
		t.Fatalf("fallback must not fail the file: %+v", summary)
	}
	if summary.Warnings != 1 {
		t.Fatalf("expected one warning, got %d", summary.Warnings)
	}

	byPath := map[string]FileReport{}
	for _, r := range reports {
		byPath[r.Task.RelPath] = r
	}
	a := byPath["a.c"]
	if len(a.Warnings) != 1 || a.Warnings[0].Kind != WarnDetectionFailed {
		t.Fatalf("expected a detection warning for a.c: %+v", a.Warnings)
	}
	if a.Decision.Fallback != "GBK" || a.Outcome != OutcomeSkipped {
		t.Fatalf("a.c: fallback %q outcome %s", a.Decision.Fallback, a.Outcome)
	}
	if len(byPath["b.c"].Warnings) != 0 {
		t.Fatalf("ASCII file should not warn: %+v", byPath["b.c"].Warnings)
	}
}

func TestRunSeparateDestination(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	dst := filepath.Join(root, "dst")
	writeTree(t, src, map[string][]byte{
		"a.c":     []byte("a\r\n"),
		"sub/b.c": []byte("b\n"),
	})

	cfg := testConfig(src)
	cfg.DestDir = dst

	summary, _ := run(t, Options{Config: cfg})
	if summary.Written != 2 {
		t.Fatalf("missing destination files must always be written: %+v", summary)
	}
	if got := string(readFile(t, filepath.Join(dst, "sub", "b.c"))); got != "b\n" {
		t.Fatalf("dst/sub/b.c = %q", got)
	}
	if got := string(readFile(t, filepath.Join(src, "a.c"))); got != "a\r\n" {
		t.Fatalf("source modified: %q", got)
	}

	summary, _ = run(t, Options{Config: cfg})
	if summary.Written != 0 || summary.Skipped != 2 {
		t.Fatalf("second run should compare against destination: %+v", summary)
	}
}

func TestRunDestinationInsideSource(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string][]byte{"a.c": []byte("a\r\n")})

	cfg := testConfig(src)
	cfg.DestDir = filepath.Join(src, "out")

	run(t, Options{Config: cfg})
	summary, reports := run(t, Options{Config: cfg})
	if summary.Total != 1 {
		var paths []string
		for _, r := range reports {
			paths = append(paths, r.Task.RelPath)
		}
		sort.Strings(paths)
		t.Fatalf("destination tree was enumerated: %v", paths)
	}
}

func TestRunContinuesPastFailures(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	dst := filepath.Join(root, "dst")
	writeTree(t, src, map[string][]byte{
		"a.c": []byte("a\r\n"),
		"b.c": []byte("b\r\n"),
	})
	// A directory where a.c should go makes that one file fail.
	if err := os.MkdirAll(filepath.Join(dst, "a.c", "blocker"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	cfg := testConfig(src)
	cfg.DestDir = dst

	summary, reports := run(t, Options{Config: cfg})
	if summary.Failed != 1 || summary.Written != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	for _, r := range reports {
		if r.Task.RelPath != "a.c" {
			continue
		}
		var fe *FileError
		if !errors.As(r.Err, &fe) {
			t.Fatalf("expected *FileError, got %v", r.Err)
		}
	}
	if got := string(readFile(t, filepath.Join(dst, "b.c"))); got != "b\n" {
		t.Fatalf("dst/b.c = %q", got)
	}
}

func TestRunScanDoesNotWrite(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string][]byte{
		"a.c": []byte("a\r\nb\r\n"),
		"b.c": []byte("a\n"),
	})

	summary, reports := run(t, Options{Mode: ModeScan, Config: testConfig(src)})
	if summary.Changed != 1 || summary.Skipped != 1 || summary.Written != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	for _, r := range reports {
		if r.Task.RelPath == "a.c" && (r.Style != StyleCRLF || r.Breaks.CRLF != 2) {
			t.Fatalf("a.c classified as %s %+v", r.Style, r.Breaks)
		}
	}
	if got := string(readFile(t, filepath.Join(src, "a.c"))); got != "a\r\nb\r\n" {
		t.Fatalf("scan modified a.c: %q", got)
	}
}

func TestRunProgressUpdates(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string][]byte{
		"a.c": []byte("a\r\n"),
		"b.c": []byte("b\n"),
	})

	updates := make(chan ProgressUpdate, 16)
	if _, _, err := Run(context.Background(), Options{Config: testConfig(src)}, updates); err != nil {
		t.Fatalf("run: %v", err)
	}
	close(updates)

	var total ProgressUpdate
	for u := range updates {
		total.TotalDelta += u.TotalDelta
		total.ProcessedDelta += u.ProcessedDelta
		total.WrittenDelta += u.WrittenDelta
		total.SkippedDelta += u.SkippedDelta
	}
	want := ProgressUpdate{TotalDelta: 2, ProcessedDelta: 2, WrittenDelta: 1, SkippedDelta: 1}
	if diff := cmp.Diff(want, total); diff != "" {
		t.Fatalf("progress mismatch (-want +got):\n%s", diff)
	}
}

func TestRunConfigErrors(t *testing.T) {
	_, _, err := Run(context.Background(), Options{Config: config.Default()}, nil)
	if !config.IsConfigError(err) {
		t.Fatalf("expected ConfigError, got %v", err)
	}

	cfg := testConfig(filepath.Join(t.TempDir(), "missing"))
	if _, _, err := Run(context.Background(), Options{Config: cfg}, nil); err == nil {
		t.Fatalf("expected an error for a missing source directory")
	}
}

func TestRunSingleFile(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string][]byte{"a.c": []byte("a\r\n")})

	summary, _ := run(t, Options{Config: testConfig(filepath.Join(src, "a.c"))})
	if summary.Written != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestMatchAny(t *testing.T) {
	patterns := []string{"*.c", "*.H", "include/*.hpp"}
	cases := map[string]bool{
		"a.c":           true,
		"dir/a.C":       true,
		"x.h":           true,
		"include/v.hpp": true,
		"other/v.hpp":   false,
		"a.cpp":         false,
		"noext":         false,
	}
	for rel, want := range cases {
		if got := matchAny(patterns, rel); got != want {
			t.Fatalf("matchAny(%q) = %v, want %v", rel, got, want)
		}
	}
}

func TestRunISO2022JPToUTF8(t *testing.T) {
	src := t.TempDir()
	text := strings.Repeat("これは日本語のテストです。\r\n", 3)
	data, err := japanese.ISO2022JP.NewEncoder().String(text)
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	writeTree(t, src, map[string][]byte{"a.c": []byte(data)})

	summary, reports := run(t, Options{Config: testConfig(src)})
	if summary.Written != 1 || summary.Warnings != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if got := reports[0].Decision.Source.Name; got != "ISO-2022-JP" {
		t.Fatalf("source charset = %s", got)
	}

	want := strings.Repeat("これは日本語のテストです。\n", 3)
	if got := string(readFile(t, filepath.Join(src, "a.c"))); got != want {
		t.Fatalf("a.c = %q", got)
	}
}

func TestRunUnsupportedCharsetFallsBack(t *testing.T) {
	src := t.TempDir()
	// ISO-2022-KR: designator, then shifted KS X 1001 runs.
	data := "\x1b$)C" + strings.Repeat("\x0eGQ19>n\x0f\r\n", 3)
	writeTree(t, src, map[string][]byte{"a.c": []byte(data)})

	summary, reports := run(t, Options{Config: testConfig(src)})
	if summary.Failed != 0 || summary.Warnings != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	r := reports[0]
	if len(r.Warnings) != 1 || r.Warnings[0].Kind != WarnUnsupportedCharset {
		t.Fatalf("expected an unsupported-charset warning: %+v", r.Warnings)
	}
	if r.Decision.Detected != "ISO-2022-KR" || r.Decision.Fallback != "GBK" {
		t.Fatalf("detected %q fallback %q", r.Decision.Detected, r.Decision.Fallback)
	}
	if r.Outcome != OutcomeWritten {
		t.Fatalf("outcome = %s", r.Outcome)
	}
}

func TestRunUndecodableBytesFail(t *testing.T) {
	src := t.TempDir()
	original := []byte("int a;\r\n\x81 b;\r\n")
	writeTree(t, src, map[string][]byte{"a.c": original})

	cfg := testConfig(src)
	cfg.MinConfidence = 100

	summary, reports := run(t, Options{Config: cfg})
	if summary.Failed != 1 || summary.Written != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	var fe *FileError
	if !errors.As(reports[0].Err, &fe) || fe.Op != "decode" {
		t.Fatalf("expected a decode FileError, got %v", reports[0].Err)
	}
	if diff := cmp.Diff(original, readFile(t, filepath.Join(src, "a.c"))); diff != "" {
		t.Fatalf("file changed (-want +got):\n%s", diff)
	}
}

func TestRunStopsWhenUpdatesAreNotRead(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string][]byte{
		"a.c": []byte("a\r\n"),
		"b.c": []byte("b\r\n"),
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() {
		_, _, err := Run(ctx, Options{Config: testConfig(src)}, make(chan ProgressUpdate))
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("run blocked on an unread progress channel")
	}
}

func TestIsWithin(t *testing.T) {
	root := filepath.Join(t.TempDir(), "src")
	cases := map[string]bool{
		filepath.Join(root, "."):          true,
		filepath.Join(root, "out"):        true,
		filepath.Join(root, "..out"):      true,
		filepath.Join(root, ".."):         false,
		filepath.Join(root, "..", "out"):  false,
		filepath.Join(root, "..", "src2"): false,
	}
	for p, want := range cases {
		if got := isWithin(p, root); got != want {
			t.Fatalf("isWithin(%q) = %v, want %v", p, got, want)
		}
	}
}
