package processor

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"

	"linefix/pkg/textenc"
)

// Unchanged reports whether updated is the same content as original. A UTF-8
// BOM on original is ignored when it accounts for exactly the length
// difference; updated is never allowed a BOM of its own to skip.
func Unchanged(original, updated []byte) bool {
	offset := 0
	if len(original) == len(updated)+len(textenc.BOMUTF8) && textenc.HasUTF8BOM(original) {
		offset = len(textenc.BOMUTF8)
	}
	return bytes.Equal(original[offset:], updated)
}

// Writer writes normalized text only when the bytes on disk would change.
type Writer struct {
	// DryRun reports OutcomeChanged instead of writing.
	DryRun bool

	// Perm is applied to newly written files.
	Perm fs.FileMode
}

// Encode renders text in the decision's target charset, preamble included.
func Encode(text string, d EncodingDecision) ([]byte, error) {
	encoded, err := d.Target.Encode(text)
	if err != nil {
		return nil, err
	}
	if len(d.Preamble) == 0 {
		return encoded, nil
	}
	out := make([]byte, 0, len(d.Preamble)+len(encoded))
	out = append(out, d.Preamble...)
	return append(out, encoded...), nil
}

// Write compares the encoded text with original, the current content of
// dest, and replaces dest when they differ. exists is false when dest does
// not exist yet, in which case the file is always written. The destination
// directory is only created right before a real write.
func (w Writer) Write(original []byte, exists bool, text string, d EncodingDecision, dest string) (Outcome, int64, error) {
	out, err := Encode(text, d)
	if err != nil {
		return OutcomeFailed, 0, &FileError{Path: dest, Op: "encode", Err: err}
	}
	size := int64(len(out))

	if exists && Unchanged(original, out) {
		return OutcomeSkipped, size, nil
	}
	if w.DryRun {
		return OutcomeChanged, size, nil
	}

	if err := writeAtomic(dest, out, w.perm()); err != nil {
		return OutcomeFailed, 0, &FileError{Path: dest, Op: "write", Err: err}
	}
	return OutcomeWritten, size, nil
}

func (w Writer) perm() fs.FileMode {
	if w.Perm == 0 {
		return 0o644
	}
	return w.Perm.Perm()
}

func writeAtomic(dest string, data []byte, perm fs.FileMode) error {
	destDir := filepath.Dir(dest)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(destDir, ".linefix-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmpFile.Name())

	if err := tmpFile.Chmod(perm); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}

	return replaceFile(tmpFile.Name(), dest)
}

func replaceFile(tmpPath, destPath string) error {
	if err := os.Rename(tmpPath, destPath); err == nil {
		return nil
	}
	if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return os.Rename(tmpPath, destPath)
}
