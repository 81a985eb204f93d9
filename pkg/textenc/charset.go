package textenc

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

// ErrUnsupportedCharset is returned when a charset label cannot be mapped to
// an encoder/decoder pair.
var ErrUnsupportedCharset = errors.New("unsupported charset")

// ErrInvalidBytes is returned when data contains byte sequences that are not
// valid in the charset it is decoded with.
var ErrInvalidBytes = errors.New("invalid byte sequence")

// Charset is a named text encoding.
type Charset struct {
	Name     string
	Encoding encoding.Encoding
}

// UTF8 is the charset every file is converted to when conversion is enabled.
var UTF8 = Charset{Name: "UTF-8", Encoding: unicode.UTF8}

// Decode converts data in c to a Go string. data must not include a BOM.
// Bytes the decoder had to replace with U+FFFD are an error.
func (c Charset) Decode(data []byte) (string, error) {
	out, err := c.Encoding.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", c.Name, err)
	}
	text := string(out)
	if n := strings.Count(text, replacementChar); n > c.literalReplacements(data) {
		return "", fmt.Errorf("decode %s: %w", c.Name, ErrInvalidBytes)
	}
	return text, nil
}

const replacementChar = "\uFFFD"

// literalReplacements counts U+FFFD characters that data spells out itself.
// Charsets that cannot represent U+FFFD have none.
func (c Charset) literalReplacements(data []byte) int {
	enc, err := c.Encoding.NewEncoder().String(replacementChar)
	if err != nil || enc == "" {
		return 0
	}
	return bytes.Count(data, []byte(enc))
}

// Encode converts text to bytes in c. Characters c cannot represent are an error.
func (c Charset) Encode(text string) ([]byte, error) {
	out, err := c.Encoding.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", c.Name, err)
	}
	return out, nil
}

// IsUTF8 reports whether c encodes as UTF-8. Pure ASCII counts.
func (c Charset) IsUTF8() bool {
	return c.Encoding == unicode.UTF8
}

// Unicode reports whether c is one of the UTF-16/UTF-32 forms that rely on a BOM.
func (c Charset) Unicode() bool {
	switch strings.ToUpper(c.Name) {
	case "UTF-16LE", "UTF-16BE", "UTF-32LE", "UTF-32BE":
		return true
	}
	return false
}

// Labels produced by the detector or BOM sniffing that the IANA index either
// spells differently or does not carry an implementation for.
var aliases = map[string]encoding.Encoding{
	"US-ASCII": unicode.UTF8,
	"ASCII":    unicode.UTF8,
	"UTF-8":    unicode.UTF8,
	"UTF-16LE": unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM),
	"UTF-16BE": unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM),
	"UTF-32LE": utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM),
	"UTF-32BE": utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM),
	"GB-18030": simplifiedchinese.GB18030,
	"GB18030":  simplifiedchinese.GB18030,
}

// Lookup resolves a charset label to a Charset. Labels are matched against a
// small alias table, then the IANA registry, then the WHATWG label set.
func Lookup(label string) (Charset, error) {
	name := strings.TrimSpace(label)
	if name == "" {
		return Charset{}, fmt.Errorf("%w: empty label", ErrUnsupportedCharset)
	}

	if enc, ok := aliases[strings.ToUpper(name)]; ok {
		return Charset{Name: name, Encoding: enc}, nil
	}

	// ianaindex returns a nil encoding without an error for registered
	// charsets that x/text does not implement.
	if enc, err := ianaindex.IANA.Encoding(name); err == nil && enc != nil {
		return Charset{Name: name, Encoding: enc}, nil
	}
	// The WHATWG index maps ISO-2022-KR/CN and HZ to the replacement
	// encoding, which decodes any input to a single U+FFFD.
	if enc, err := htmlindex.Get(name); err == nil && enc != nil && enc != encoding.Replacement {
		return Charset{Name: name, Encoding: enc}, nil
	}

	return Charset{}, fmt.Errorf("%w: %q", ErrUnsupportedCharset, name)
}
