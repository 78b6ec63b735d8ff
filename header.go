package zipnames

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
)

const (
	bitDataDescriptorUsed = 1 << 3
	bitEncodedUTF8        = 1 << 11

	localHeaderSize   = 30
	centralHeaderSize = 46
)

var ErrMalformedHeader = errors.New("malformed header")

// CreatorSystem is the high byte of the "version made by" field.
type CreatorSystem uint8

const (
	CreatorMSDOS CreatorSystem = 0
	CreatorUnix  CreatorSystem = 3
	CreatorNTFS  CreatorSystem = 11
)

func (c CreatorSystem) String() string {
	switch c {
	case CreatorMSDOS:
		return "MS-DOS"
	case CreatorUnix:
		return "Unix"
	case CreatorNTFS:
		return "Windows NTFS"
	}
	return "Other(" + strconv.Itoa(int(c)) + ")"
}

// RecordKind tells which of the two copies of an entry's metadata a header
// was read from. Some writers encode the name differently in each.
type RecordKind int

const (
	LocalRecord RecordKind = iota
	CentralRecord
)

func (k RecordKind) String() string {
	if k == CentralRecord {
		return "central"
	}
	return "local"
}

// EntryHeader holds the fields of one local or central record that matter
// for decoding its filename.
type EntryHeader struct {
	Kind           RecordKind
	Flags          uint16
	CreatorSystem  CreatorSystem
	CreatorVersion uint16
	RawName        []byte
	RawExtra       []byte
}

func (h *EntryHeader) UTF8Flag() bool {
	return h.Flags&bitEncodedUTF8 != 0
}

func (h *EntryHeader) dataDescriptorUsed() bool {
	return h.Flags&bitDataDescriptorUsed != 0
}

// ParseLocalHeader reads a local file header starting at its signature.
// Local headers have no "version made by" field, so CreatorSystem and
// CreatorVersion come from "version needed to extract". Callers that have
// the matching central record should copy its values over.
func ParseLocalHeader(b []byte) (*EntryHeader, error) {
	if len(b) < localHeaderSize {
		return nil, fmt.Errorf("%w: local header is %d bytes, need %d",
			ErrMalformedHeader, len(b), localHeaderSize)
	}
	version := binary.LittleEndian.Uint16(b[4:6])
	nameLen := int(binary.LittleEndian.Uint16(b[26:28]))
	extraLen := int(binary.LittleEndian.Uint16(b[28:30]))
	if localHeaderSize+nameLen+extraLen > len(b) {
		return nil, fmt.Errorf("%w: name(%d)+extra(%d) overrun local header of %d bytes",
			ErrMalformedHeader, nameLen, extraLen, len(b))
	}
	name := b[localHeaderSize : localHeaderSize+nameLen]
	return &EntryHeader{
		Kind:           LocalRecord,
		Flags:          binary.LittleEndian.Uint16(b[6:8]),
		CreatorSystem:  CreatorSystem(version >> 8),
		CreatorVersion: version & 0xFF,
		RawName:        name,
		RawExtra:       b[localHeaderSize+nameLen : localHeaderSize+nameLen+extraLen],
	}, nil
}

// ParseCentralHeader reads a central directory header starting at its
// signature. The file comment, if any, is not part of the result.
func ParseCentralHeader(b []byte) (*EntryHeader, error) {
	if len(b) < centralHeaderSize {
		return nil, fmt.Errorf("%w: central header is %d bytes, need %d",
			ErrMalformedHeader, len(b), centralHeaderSize)
	}
	madeBy := binary.LittleEndian.Uint16(b[4:6])
	nameLen := int(binary.LittleEndian.Uint16(b[28:30]))
	extraLen := int(binary.LittleEndian.Uint16(b[30:32]))
	if centralHeaderSize+nameLen+extraLen > len(b) {
		return nil, fmt.Errorf("%w: name(%d)+extra(%d) overrun central header of %d bytes",
			ErrMalformedHeader, nameLen, extraLen, len(b))
	}
	name := b[centralHeaderSize : centralHeaderSize+nameLen]
	return &EntryHeader{
		Kind:           CentralRecord,
		Flags:          binary.LittleEndian.Uint16(b[8:10]),
		CreatorSystem:  CreatorSystem(madeBy >> 8),
		CreatorVersion: madeBy & 0xFF,
		RawName:        name,
		RawExtra:       b[centralHeaderSize+nameLen : centralHeaderSize+nameLen+extraLen],
	}, nil
}
