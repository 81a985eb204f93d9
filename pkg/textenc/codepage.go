package textenc

import (
	"errors"
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

// ErrUnknownCodepage is returned for codepage identifiers missing from the table.
var ErrUnknownCodepage = errors.New("unknown codepage")

type codepage struct {
	name string
	enc  encoding.Encoding
}

// Windows codepage identifiers.
var codepages = map[int]codepage{
	437:   {"IBM437", charmap.CodePage437},
	850:   {"IBM850", charmap.CodePage850},
	852:   {"IBM852", charmap.CodePage852},
	855:   {"IBM855", charmap.CodePage855},
	858:   {"IBM00858", charmap.CodePage858},
	860:   {"IBM860", charmap.CodePage860},
	862:   {"IBM862", charmap.CodePage862},
	863:   {"IBM863", charmap.CodePage863},
	865:   {"IBM865", charmap.CodePage865},
	866:   {"IBM866", charmap.CodePage866},
	874:   {"windows-874", charmap.Windows874},
	932:   {"Shift_JIS", japanese.ShiftJIS},
	936:   {"GBK", simplifiedchinese.GBK},
	949:   {"EUC-KR", korean.EUCKR},
	950:   {"Big5", traditionalchinese.Big5},
	1200:  {"UTF-16LE", unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)},
	1201:  {"UTF-16BE", unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)},
	1250:  {"windows-1250", charmap.Windows1250},
	1251:  {"windows-1251", charmap.Windows1251},
	1252:  {"windows-1252", charmap.Windows1252},
	1253:  {"windows-1253", charmap.Windows1253},
	1254:  {"windows-1254", charmap.Windows1254},
	1255:  {"windows-1255", charmap.Windows1255},
	1256:  {"windows-1256", charmap.Windows1256},
	1257:  {"windows-1257", charmap.Windows1257},
	1258:  {"windows-1258", charmap.Windows1258},
	10000: {"macintosh", charmap.Macintosh},
	12000: {"UTF-32LE", utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM)},
	12001: {"UTF-32BE", utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM)},
	20866: {"KOI8-R", charmap.KOI8R},
	21866: {"KOI8-U", charmap.KOI8U},
	28591: {"ISO-8859-1", charmap.ISO8859_1},
	28592: {"ISO-8859-2", charmap.ISO8859_2},
	28593: {"ISO-8859-3", charmap.ISO8859_3},
	28594: {"ISO-8859-4", charmap.ISO8859_4},
	28595: {"ISO-8859-5", charmap.ISO8859_5},
	28596: {"ISO-8859-6", charmap.ISO8859_6},
	28597: {"ISO-8859-7", charmap.ISO8859_7},
	28598: {"ISO-8859-8", charmap.ISO8859_8},
	28599: {"ISO-8859-9", charmap.ISO8859_9},
	28603: {"ISO-8859-13", charmap.ISO8859_13},
	28605: {"ISO-8859-15", charmap.ISO8859_15},
	50220: {"ISO-2022-JP", japanese.ISO2022JP},
	51932: {"EUC-JP", japanese.EUCJP},
	54936: {"GB18030", simplifiedchinese.GB18030},
	65001: {"UTF-8", unicode.UTF8},
}

// Codepage returns the charset for a Windows codepage identifier.
func Codepage(id int) (Charset, error) {
	cp, ok := codepages[id]
	if !ok {
		return Charset{}, fmt.Errorf("%w: %d", ErrUnknownCodepage, id)
	}
	return Charset{Name: cp.name, Encoding: cp.enc}, nil
}
