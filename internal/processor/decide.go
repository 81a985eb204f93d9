package processor

import (
	"errors"

	"linefix/internal/config"
	"linefix/pkg/textenc"
)

// decideEncoding picks the charset used to read data and the one used to
// write it back. Detection problems fall back to the configured codepage and
// come back as warnings, never as errors.
func decideEncoding(path string, data []byte, cfg *config.Config, fallback textenc.Charset) (EncodingDecision, []Warning) {
	var (
		decision EncodingDecision
		warnings []Warning
	)

	det, err := textenc.Detect(data, cfg.MinConfidence)
	if err != nil {
		decision.Source = fallback
		decision.Fallback = fallback.Name
		warnings = append(warnings, Warning{
			Kind:     WarnDetectionFailed,
			Path:     path,
			Detected: det.Charset,
			Fallback: fallback.Name,
			Err:      err,
		})
	} else {
		decision.Detected = det.Charset
		cs, lookupErr := textenc.Lookup(det.Charset)
		if lookupErr != nil {
			decision.Source = fallback
			decision.Fallback = fallback.Name
			kind := WarnUnsupportedCharset
			if !errors.Is(lookupErr, textenc.ErrUnsupportedCharset) {
				kind = WarnDetectionFailed
			}
			warnings = append(warnings, Warning{
				Kind:     kind,
				Path:     path,
				Detected: det.Charset,
				Fallback: fallback.Name,
				Err:      lookupErr,
			})
		} else {
			decision.Source = cs
			decision.SourceBOM = det.BOM
		}
	}

	decision.Target = decision.Source
	if cfg.ConvertToUTF8 {
		decision.Target = textenc.UTF8
	}
	decision.Preamble = preamble(decision, cfg.PreserveBOM)

	return decision, warnings
}

func preamble(d EncodingDecision, preserveBOM bool) []byte {
	if len(d.SourceBOM) == 0 {
		return nil
	}
	if d.Target.IsUTF8() {
		if preserveBOM {
			return textenc.BOMUTF8
		}
		return nil
	}
	// UTF-16 and UTF-32 are not readable without their mark.
	if d.Target.Unicode() && d.Target.Name == d.Source.Name {
		return d.SourceBOM
	}
	return nil
}
