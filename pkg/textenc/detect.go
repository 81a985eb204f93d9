package textenc

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/saintfish/chardet"
)

// ErrDetectionFailed is returned when no charset reaches the confidence threshold.
var ErrDetectionFailed = errors.New("charset detection failed")

// ASCII is reported for input without any byte above 0x7f.
const ASCII = "US-ASCII"

// Detection is the outcome of sniffing a byte buffer.
type Detection struct {
	Charset    string
	Confidence int

	// BOM holds the byte-order mark that decided the charset, if any.
	BOM []byte
}

// Detect infers the charset of data. A BOM decides outright. 7-bit input is
// US-ASCII unless it carries ISO-2022 escape sequences. Everything else goes
// through a freshly constructed chardet detector so no state carries over
// between calls. minConfidence is on chardet's 0-100 scale.
func Detect(data []byte, minConfidence int) (Detection, error) {
	if name, bom, ok := SniffBOM(data); ok {
		return Detection{Charset: name, Confidence: 100, BOM: bom}, nil
	}
	if isASCII(data) {
		if bytes.IndexByte(data, esc) >= 0 {
			best, err := chardet.NewTextDetector().DetectBest(data)
			if err == nil && best != nil && strings.HasPrefix(best.Charset, "ISO-2022-") && best.Confidence >= minConfidence {
				return Detection{Charset: best.Charset, Confidence: best.Confidence}, nil
			}
		}
		return Detection{Charset: ASCII, Confidence: 100}, nil
	}

	best, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil {
		return Detection{}, fmt.Errorf("%w: %v", ErrDetectionFailed, err)
	}
	if best == nil || best.Charset == "" {
		return Detection{}, ErrDetectionFailed
	}
	if best.Confidence < minConfidence {
		return Detection{Charset: best.Charset, Confidence: best.Confidence},
			fmt.Errorf("%w: best guess %s at %d%% is below %d%%", ErrDetectionFailed, best.Charset, best.Confidence, minConfidence)
	}

	return Detection{Charset: best.Charset, Confidence: best.Confidence}, nil
}

// esc introduces the shift sequences of the 7-bit ISO-2022 encodings.
const esc = 0x1b

func isASCII(data []byte) bool {
	for _, b := range data {
		if b >= 0x80 {
			return false
		}
	}
	return true
}
