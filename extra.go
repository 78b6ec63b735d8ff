package zipnames

import (
	"encoding/binary"
	"hash/crc32"
	"unicode/utf8"
)

// UnicodePathTag identifies the Info-ZIP Unicode Path Extra Field ("up").
const UnicodePathTag = 0x7075

const unicodePathVersion = 1

type ExtraField struct {
	Tag  uint16
	Data []byte
}

// ExtraFields splits an extra-field block into its records. A trailing
// record whose header or payload runs past the end of raw is dropped.
func ExtraFields(raw []byte) []ExtraField {
	var fields []ExtraField
	for pos := 0; pos+4 <= len(raw); {
		tag := binary.LittleEndian.Uint16(raw[pos : pos+2])
		size := int(binary.LittleEndian.Uint16(raw[pos+2 : pos+4]))
		pos += 4
		if pos+size > len(raw) {
			break
		}
		fields = append(fields, ExtraField{Tag: tag, Data: raw[pos : pos+size]})
		pos += size
	}
	return fields
}

// UnicodePath is a validated Info-ZIP Unicode Path Extra Field.
//
// https://pkware.cachefly.net/webdocs/APPNOTE/APPNOTE-6.3.9.TXT
// 4.6.9
type UnicodePath struct {
	Version   uint8
	NameCRC32 uint32
	Name      string
}

// ParseUnicodePath looks for a Unicode Path Extra Field in rawExtra and
// returns it only when it can be trusted: version 1, stored CRC-32 equal to
// the CRC-32 of rawName and a UTF-8 payload. Anything else is reported as
// absent.
func ParseUnicodePath(rawExtra, rawName []byte) (*UnicodePath, bool) {
	for _, f := range ExtraFields(rawExtra) {
		if f.Tag != UnicodePathTag || len(f.Data) < 5 {
			continue
		}
		up := &UnicodePath{
			Version:   f.Data[0],
			NameCRC32: binary.LittleEndian.Uint32(f.Data[1:5]),
		}
		if up.Version != unicodePathVersion {
			return nil, false
		}
		// A mismatch means the name was changed after the field was written.
		if up.NameCRC32 != crc32.ChecksumIEEE(rawName) {
			return nil, false
		}
		name := f.Data[5:]
		if !utf8.Valid(name) {
			return nil, false
		}
		up.Name = string(name)
		return up, true
	}
	return nil, false
}

// UnicodePath is ParseUnicodePath applied to the header's own fields.
func (h *EntryHeader) UnicodePath() (*UnicodePath, bool) {
	return ParseUnicodePath(h.RawExtra, h.RawName)
}
