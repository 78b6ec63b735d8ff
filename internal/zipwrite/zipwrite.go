// Package zipwrite builds small stored-only archives whose headers mimic
// particular archivers: each entry states how its name is encoded in the
// local header and in the central directory, and which creator system and
// version it claims.
package zipwrite

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/hymkor/zipnames"
)

const (
	localFileHeaderSignature  uint32 = 0x04034b50
	centralDirectorySignature uint32 = 0x02014b50
	endOfCentralDirSignature  uint32 = 0x06054b50
	dataDescriptorSignature   uint32 = 0x08074b50

	versionNeeded = 20

	// BitDataDescriptor is general purpose bit 3. Entries carrying it get
	// zero sizes in the local header and a signed descriptor after the data.
	BitDataDescriptor = 1 << 3

	// BitUTF8 is general purpose bit 11.
	BitUTF8 = 1 << 11
)

type Entry struct {
	Name string

	// LocalCodepage encodes Name in the local header; NoCodepage means
	// UTF-8. CentralCodepage defaults to LocalCodepage.
	LocalCodepage   zipnames.Codepage
	CentralCodepage zipnames.Codepage

	CreatorSystem  zipnames.CreatorSystem
	CreatorVersion uint8
	Flags          uint16
	Extra          []byte
	Data           []byte
}

func (e *Entry) names() (local, central []byte, err error) {
	localCP := e.LocalCodepage
	if localCP == zipnames.NoCodepage {
		localCP = zipnames.UTF8
	}
	centralCP := e.CentralCodepage
	if centralCP == zipnames.NoCodepage {
		centralCP = localCP
	}
	if local, err = localCP.Encode(e.Name); err != nil {
		return nil, nil, fmt.Errorf("local name: %w", err)
	}
	if central, err = centralCP.Encode(e.Name); err != nil {
		return nil, nil, fmt.Errorf("central name: %w", err)
	}
	return local, central, nil
}

func encodeLocal(e *Entry, name []byte, crc uint32) []byte {
	buf := make([]byte, 30+len(name)+len(e.Extra))
	binary.LittleEndian.PutUint32(buf[0:4], localFileHeaderSignature)
	binary.LittleEndian.PutUint16(buf[4:6], versionNeeded)
	binary.LittleEndian.PutUint16(buf[6:8], e.Flags)
	binary.LittleEndian.PutUint16(buf[8:10], 0) // stored
	binary.LittleEndian.PutUint16(buf[10:12], 0)
	binary.LittleEndian.PutUint16(buf[12:14], 0x21) // 1980-01-01
	if e.Flags&BitDataDescriptor == 0 {
		binary.LittleEndian.PutUint32(buf[14:18], crc)
		binary.LittleEndian.PutUint32(buf[18:22], uint32(len(e.Data)))
		binary.LittleEndian.PutUint32(buf[22:26], uint32(len(e.Data)))
	}
	binary.LittleEndian.PutUint16(buf[26:28], uint16(len(name)))
	binary.LittleEndian.PutUint16(buf[28:30], uint16(len(e.Extra)))
	copy(buf[30:], name)
	copy(buf[30+len(name):], e.Extra)
	return buf
}

func encodeDataDescriptor(e *Entry, crc uint32) []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], dataDescriptorSignature)
	binary.LittleEndian.PutUint32(buf[4:8], crc)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(len(e.Data)))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(len(e.Data)))
	return buf
}

func encodeCentral(e *Entry, name []byte, crc uint32, offset uint32) []byte {
	buf := make([]byte, 46+len(name)+len(e.Extra))
	binary.LittleEndian.PutUint32(buf[0:4], centralDirectorySignature)
	binary.LittleEndian.PutUint16(buf[4:6], uint16(e.CreatorSystem)<<8|uint16(e.CreatorVersion))
	binary.LittleEndian.PutUint16(buf[6:8], versionNeeded)
	binary.LittleEndian.PutUint16(buf[8:10], e.Flags)
	binary.LittleEndian.PutUint16(buf[10:12], 0)
	binary.LittleEndian.PutUint16(buf[12:14], 0)
	binary.LittleEndian.PutUint16(buf[14:16], 0x21)
	binary.LittleEndian.PutUint32(buf[16:20], crc)
	binary.LittleEndian.PutUint32(buf[20:24], uint32(len(e.Data)))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(len(e.Data)))
	binary.LittleEndian.PutUint16(buf[28:30], uint16(len(name)))
	binary.LittleEndian.PutUint16(buf[30:32], uint16(len(e.Extra)))
	// comment length, disk number, internal and external attributes stay 0
	binary.LittleEndian.PutUint32(buf[42:46], offset)
	copy(buf[46:], name)
	copy(buf[46+len(name):], e.Extra)
	return buf
}

func encodeEnd(entries int, size, offset uint32) []byte {
	buf := make([]byte, 22)
	binary.LittleEndian.PutUint32(buf[0:4], endOfCentralDirSignature)
	binary.LittleEndian.PutUint16(buf[8:10], uint16(entries))
	binary.LittleEndian.PutUint16(buf[10:12], uint16(entries))
	binary.LittleEndian.PutUint32(buf[12:16], size)
	binary.LittleEndian.PutUint32(buf[16:20], offset)
	return buf
}

// Write emits the entries, the central directory and the end record.
func Write(w io.Writer, entries []Entry) error {
	var body, central []byte
	for i := range entries {
		e := &entries[i]
		localName, centralName, err := e.names()
		if err != nil {
			return fmt.Errorf("%s: %w", e.Name, err)
		}
		crc := crc32.ChecksumIEEE(e.Data)
		offset := uint32(len(body))
		body = append(body, encodeLocal(e, localName, crc)...)
		body = append(body, e.Data...)
		if e.Flags&BitDataDescriptor != 0 {
			body = append(body, encodeDataDescriptor(e, crc)...)
		}
		central = append(central, encodeCentral(e, centralName, crc, offset)...)
	}
	end := encodeEnd(len(entries), uint32(len(central)), uint32(len(body)))
	for _, part := range [][]byte{body, central, end} {
		if _, err := w.Write(part); err != nil {
			return err
		}
	}
	return nil
}

// UnicodePathExtra builds an Info-ZIP Unicode Path Extra Field holding name
// and the CRC-32 of rawName.
func UnicodePathExtra(rawName []byte, name string) []byte {
	buf := make([]byte, 9+len(name))
	binary.LittleEndian.PutUint16(buf[0:2], zipnames.UnicodePathTag)
	binary.LittleEndian.PutUint16(buf[2:4], uint16(5+len(name)))
	buf[4] = 1
	binary.LittleEndian.PutUint32(buf[5:9], crc32.ChecksumIEEE(rawName))
	copy(buf[9:], name)
	return buf
}
