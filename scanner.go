package zipnames

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	sigSize = 4

	// The widest data descriptor is the ZIP64 one with its signature.
	lookBehindSize = sigSize + sigSize + 4 + 8 + 8

	zip64ExtraTag = 0x0001
	zip64Marker   = 0xFFFFFFFF
)

var (
	_LocalFileHeaderSignature    = []byte{'P', 'K', 3, 4}
	_CentralDirectoryHeader      = []byte{'P', 'K', 1, 2}
	_DigitalSignature            = []byte{'P', 'K', 5, 5}
	_EndOfCentralDirectoryRecord = []byte{'P', 'K', 5, 6}
	_Zip64EndOfCentralDirectory  = []byte{'P', 'K', 6, 6}
	_DataDescriptorSignature     = []byte{'P', 'K', 7, 8}
)

var (
	ErrTooNearEOF        = errors.New("Too near EOF")
	ErrSignatureNotFound = errors.New("Signature not found")
)

// endsWithDataDescriptor reports whether tail ends with a data descriptor,
// with or without its optional signature and in its 32-bit or ZIP64 form,
// whose compressed size matches the entry data in front of it. total is the
// number of bytes of the entry seen so far, descriptor included.
func endsWithDataDescriptor(tail []byte, total int64) bool {
	for _, withSig := range []bool{true, false} {
		for _, sizeLen := range []int{4, 8} {
			size := 4 + 2*sizeLen
			if withSig {
				size += sigSize
			}
			n := len(tail) - size
			if n < 0 || total < int64(size) {
				continue
			}
			dd := tail[n:]
			if withSig {
				if !bytes.Equal(dd[:sigSize], _DataDescriptorSignature) {
					continue
				}
				dd = dd[sigSize:]
			}
			data := total - int64(size)
			if sizeLen == 4 {
				if binary.LittleEndian.Uint32(dd[4:8]) == uint32(data) {
					return true
				}
			} else if binary.LittleEndian.Uint64(dd[4:12]) == uint64(data) {
				return true
			}
		}
	}
	return false
}

// seekToSignature skips the data of an entry whose sizes are stored in a
// trailing data descriptor. A local or central header signature only ends the
// data when a matching descriptor sits right in front of it; otherwise the
// signature bytes belong to the data. It reports whether a local header
// follows and how many bytes were consumed including the signature.
func seekToSignature(r io.ByteReader, debug func(...any) (int, error)) (bool, int64, error) {
	const max = 100

	buffer := make([]byte, 0, max)
	var consumed int64
	for {
		ch, err := r.ReadByte()
		if err != nil {
			return false, consumed, err
		}
		consumed++
		buffer = append(buffer, ch)

		found, cont := false, false
		switch {
		case ch == _LocalFileHeaderSignature[sigSize-1] && bytes.HasSuffix(buffer, _LocalFileHeaderSignature):
			found, cont = true, true
		case ch == _CentralDirectoryHeader[sigSize-1] && bytes.HasSuffix(buffer, _CentralDirectoryHeader):
			found = true
		}
		if found {
			if endsWithDataDescriptor(buffer[:len(buffer)-sigSize], consumed-sigSize) {
				return cont, consumed, nil
			}
			debug("DataDescriptor: signature at", consumed-sigSize, "is entry data")
		}
		if len(buffer) >= max {
			copy(buffer, buffer[len(buffer)-lookBehindSize:])
			buffer = buffer[:lookBehindSize]
		}
	}
}

// zip64CompressedSize reads the compressed size of a local header whose
// 32-bit field holds the ZIP64 marker. The ZIP64 extra field of a local
// header always carries both sizes, uncompressed first.
func zip64CompressedSize(h *EntryHeader) (int64, error) {
	for _, f := range ExtraFields(h.RawExtra) {
		if f.Tag == zip64ExtraTag && len(f.Data) >= 16 {
			return int64(binary.LittleEndian.Uint64(f.Data[8:16])), nil
		}
	}
	return 0, fmt.Errorf("%w: ZIP64 size marker without ZIP64 extra field", ErrMalformedHeader)
}

// Record is one local or central header met in an archive stream.
type Record struct {
	// Offset is the position of the record's signature in the stream.
	Offset int64
	Header *EntryHeader
	// LocalOffset is the local header offset stored in a central record.
	LocalOffset int64
}

// Scanner walks the headers of a ZIP stream from front to back without
// seeking: local headers first (their data is skipped), then the central
// directory. It stops at the end of central directory record.
type Scanner struct {
	br      *bufio.Reader
	offset  int64
	pending []byte
	record  *Record
	err     error

	Debug func(...any) (int, error)
}

func NewScanner(r io.Reader) *Scanner {
	return &Scanner{
		br:    bufio.NewReader(r),
		Debug: func(...any) (int, error) { return 0, nil },
	}
}

func (s *Scanner) Record() *Record {
	return s.record
}

// Err returns io.EOF after a clean end of the central directory.
func (s *Scanner) Err() error {
	return s.err
}

func (s *Scanner) readFull(p []byte) error {
	n, err := io.ReadFull(s.br, p)
	s.offset += int64(n)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return ErrTooNearEOF
	}
	return err
}

func (s *Scanner) discard(n int64) error {
	m, err := io.CopyN(io.Discard, s.br, n)
	s.offset += m
	if err == io.EOF {
		return ErrTooNearEOF
	}
	return err
}

func (s *Scanner) Scan() bool {
	if s.br == nil {
		s.err = io.EOF
		return false
	}
	s.err = nil
	s.record = nil

	var signature [sigSize]byte
	var start int64
	if s.pending != nil {
		copy(signature[:], s.pending)
		start = s.offset - sigSize
		s.pending = nil
	} else {
		start = s.offset
		if err := s.readFull(signature[:]); err != nil {
			s.err = err
			return false
		}
	}
	var err error
	switch {
	case bytes.Equal(signature[:], _LocalFileHeaderSignature):
		s.record, err = s.scanLocal(signature[:], start)
	case bytes.Equal(signature[:], _CentralDirectoryHeader):
		s.record, err = s.scanCentral(signature[:], start)
	case bytes.Equal(signature[:], _EndOfCentralDirectoryRecord),
		bytes.Equal(signature[:], _Zip64EndOfCentralDirectory),
		bytes.Equal(signature[:], _DigitalSignature):
		s.br = nil
		err = io.EOF
	default:
		err = ErrSignatureNotFound
	}
	if err != nil {
		s.err = err
		return false
	}
	return true
}

func (s *Scanner) scanLocal(signature []byte, start int64) (*Record, error) {
	fixed := make([]byte, localHeaderSize)
	copy(fixed, signature)
	if err := s.readFull(fixed[sigSize:]); err != nil {
		return nil, err
	}
	nameLen := int(binary.LittleEndian.Uint16(fixed[26:28]))
	extraLen := int(binary.LittleEndian.Uint16(fixed[28:30]))
	buf := append(fixed, make([]byte, nameLen+extraLen)...)
	if err := s.readFull(buf[localHeaderSize:]); err != nil {
		return nil, err
	}
	h, err := ParseLocalHeader(buf)
	if err != nil {
		return nil, err
	}
	s.Debug("LocalFileHeader:", start, "name:", nameLen, "extra:", extraLen)

	if h.dataDescriptorUsed() {
		s.Debug("LocalFileHeader.Bits: bitDataDescriptorUsed is set")
		cont, n, err := seekToSignature(s.br, s.Debug)
		s.offset += n
		if err != nil {
			if err == io.EOF {
				return nil, ErrTooNearEOF
			}
			return nil, err
		}
		if cont {
			s.pending = _LocalFileHeaderSignature
		} else {
			s.pending = _CentralDirectoryHeader
		}
	} else {
		compressed := int64(binary.LittleEndian.Uint32(fixed[18:22]))
		if compressed == zip64Marker {
			if compressed, err = zip64CompressedSize(h); err != nil {
				return nil, err
			}
		}
		s.Debug("LocalFileHeader.Compress Data:", compressed)
		if err := s.discard(compressed); err != nil {
			return nil, err
		}
	}
	return &Record{Offset: start, Header: h}, nil
}

func (s *Scanner) scanCentral(signature []byte, start int64) (*Record, error) {
	fixed := make([]byte, centralHeaderSize)
	copy(fixed, signature)
	if err := s.readFull(fixed[sigSize:]); err != nil {
		return nil, err
	}
	nameLen := int(binary.LittleEndian.Uint16(fixed[28:30]))
	extraLen := int(binary.LittleEndian.Uint16(fixed[30:32]))
	commentLen := int(binary.LittleEndian.Uint16(fixed[32:34]))
	buf := append(fixed, make([]byte, nameLen+extraLen)...)
	if err := s.readFull(buf[centralHeaderSize:]); err != nil {
		return nil, err
	}
	if err := s.discard(int64(commentLen)); err != nil {
		return nil, err
	}
	h, err := ParseCentralHeader(buf)
	if err != nil {
		return nil, err
	}
	s.Debug("CentralDirectoryHeader:", start, "name:", nameLen, "extra:", extraLen, "comment:", commentLen)
	return &Record{
		Offset:      start,
		Header:      h,
		LocalOffset: int64(binary.LittleEndian.Uint32(fixed[42:46])),
	}, nil
}
