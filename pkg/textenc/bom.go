package textenc

var (
	BOMUTF8    = []byte{0xef, 0xbb, 0xbf}
	BOMUTF16LE = []byte{0xff, 0xfe}
	BOMUTF16BE = []byte{0xfe, 0xff}
	BOMUTF32LE = []byte{0xff, 0xfe, 0x00, 0x00}
	BOMUTF32BE = []byte{0x00, 0x00, 0xfe, 0xff}
)

type bomSig struct {
	sig     []byte
	charset string
}

// UTF-32LE must be tried before UTF-16LE since they share a prefix.
var bomSigs = []bomSig{
	{BOMUTF32LE, "UTF-32LE"},
	{BOMUTF32BE, "UTF-32BE"},
	{BOMUTF8, "UTF-8"},
	{BOMUTF16LE, "UTF-16LE"},
	{BOMUTF16BE, "UTF-16BE"},
}

// SniffBOM reports the charset announced by a leading byte-order mark and the
// mark itself. ok is false when data carries no known BOM.
func SniffBOM(data []byte) (charset string, bom []byte, ok bool) {
	for _, s := range bomSigs {
		if hasPrefix(data, s.sig) {
			return s.charset, s.sig, true
		}
	}
	return "", nil, false
}

// HasUTF8BOM reports whether data starts with the UTF-8 byte-order mark.
func HasUTF8BOM(data []byte) bool {
	return hasPrefix(data, BOMUTF8)
}

func hasPrefix(buf, prefix []byte) bool {
	if len(buf) < len(prefix) {
		return false
	}
	for i := range prefix {
		if buf[i] != prefix[i] {
			return false
		}
	}
	return true
}
