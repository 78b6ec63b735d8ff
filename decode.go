package zipnames

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nyaosorg/go-windows-mbcs"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
)

var ErrUnsupportedCodepage = errors.New("unsupported codepage")

var encodings = map[Codepage]encoding.Encoding{
	CP437:  charmap.CodePage437,
	CP850:  charmap.CodePage850,
	CP852:  charmap.CodePage852,
	CP855:  charmap.CodePage855,
	CP858:  charmap.CodePage858,
	CP860:  charmap.CodePage860,
	CP862:  charmap.CodePage862,
	CP863:  charmap.CodePage863,
	CP865:  charmap.CodePage865,
	CP866:  charmap.CodePage866,
	CP874:  charmap.Windows874,
	CP932:  japanese.ShiftJIS,
	CP936:  simplifiedchinese.GBK,
	CP949:  korean.EUCKR,
	CP950:  traditionalchinese.Big5,
	CP1250: charmap.Windows1250,
	CP1251: charmap.Windows1251,
	CP1252: charmap.Windows1252,
	CP1253: charmap.Windows1253,
	CP1254: charmap.Windows1254,
	CP1255: charmap.Windows1255,
	CP1256: charmap.Windows1256,
	CP1257: charmap.Windows1257,
	CP1258: charmap.Windows1258,
	UTF8:   unicode.UTF8,
}

// Encoding returns the text encoding of a code page. SystemANSI has none:
// it is handled by the operating system in Decode.
func (cp Codepage) Encoding() (encoding.Encoding, error) {
	if e, ok := encodings[cp]; ok {
		return e, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedCodepage, cp)
}

func (cp Codepage) Decode(raw []byte) (string, error) {
	if cp == SystemANSI {
		return mbcs.AtoU(raw, mbcs.ACP)
	}
	e, err := cp.Encoding()
	if err != nil {
		return "", err
	}
	text, err := e.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("%s: %w", cp, err)
	}
	return string(text), nil
}

// Encode is the inverse of Decode. It fails when s has characters the code
// page cannot represent.
func (cp Codepage) Encode(s string) ([]byte, error) {
	e, err := cp.Encoding()
	if err != nil {
		return nil, err
	}
	raw, err := e.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cp, err)
	}
	return raw, nil
}

// ParseCodepage understands the spellings used by unzip -I, 7z -mcp= and
// lsar -e: "CP866", "866", "UTF-8", "ACP" and IANA names such as
// "windows-1251" or "IBM866".
func ParseCodepage(s string) (Codepage, error) {
	name := strings.TrimSpace(s)
	upper := strings.ToUpper(name)
	switch upper {
	case "":
		return NoCodepage, fmt.Errorf("%w: empty name", ErrUnsupportedCodepage)
	case "ACP":
		return SystemANSI, nil
	case "UTF-8", "UTF8":
		return UTF8, nil
	}
	if n, err := strconv.Atoi(strings.TrimPrefix(upper, "CP")); err == nil {
		cp := Codepage(n)
		if _, ok := encodings[cp]; ok {
			return cp, nil
		}
		return NoCodepage, fmt.Errorf("%w: %s", ErrUnsupportedCodepage, name)
	}
	e, err := ianaindex.IANA.Encoding(name)
	if err != nil || e == nil {
		return NoCodepage, fmt.Errorf("%w: %s", ErrUnsupportedCodepage, name)
	}
	for cp, known := range encodings {
		if known == e {
			return cp, nil
		}
	}
	return NoCodepage, fmt.Errorf("%w: %s", ErrUnsupportedCodepage, name)
}
