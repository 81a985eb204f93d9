package processor

import "strings"

// Style classifies the line terminators found in a text.
type Style int

const (
	StyleNone Style = iota
	StyleLF
	StyleCRLF
	StyleCR
	StyleMixed
)

func (s Style) String() string {
	switch s {
	case StyleLF:
		return "LF"
	case StyleCRLF:
		return "CRLF"
	case StyleCR:
		return "CR"
	case StyleMixed:
		return "mixed"
	default:
		return "none"
	}
}

// LineBreaks counts each kind of terminator. A CRLF pair is counted once,
// as CRLF only.
type LineBreaks struct {
	LF   int
	CRLF int
	CR   int
}

func CountLineBreaks(text string) LineBreaks {
	var lb LineBreaks
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\r':
			if i+1 < len(text) && text[i+1] == '\n' {
				lb.CRLF++
				i++
			} else {
				lb.CR++
			}
		case '\n':
			lb.LF++
		}
	}
	return lb
}

func Classify(text string) Style {
	lb := CountLineBreaks(text)
	kinds := 0
	style := StyleNone
	if lb.LF > 0 {
		kinds++
		style = StyleLF
	}
	if lb.CRLF > 0 {
		kinds++
		style = StyleCRLF
	}
	if lb.CR > 0 {
		kinds++
		style = StyleCR
	}
	if kinds > 1 {
		return StyleMixed
	}
	return style
}

// NormalizeLineEndings rewrites every line terminator to LF.
//
// When both CR and LF occur, CRLF pairs collapse first and any CR left over
// becomes LF. CR-only text has each CR replaced. Text with no CR is
// returned as is.
func NormalizeLineEndings(text string) string {
	hasCR := strings.IndexByte(text, '\r') >= 0
	if !hasCR {
		return text
	}
	hasLF := strings.IndexByte(text, '\n') >= 0
	if hasLF {
		text = strings.ReplaceAll(text, "\r\n", "\n")
	}
	return strings.ReplaceAll(text, "\r", "\n")
}
