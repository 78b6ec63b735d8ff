package zipnames

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"strings"
	"testing"
)

type dataDescriptor struct {
	CRC32            uint32
	CompressedSize   uint32
	UncompressedSize uint32
}

func noDebug(...any) (int, error) {
	return 0, nil
}

func TestSeekToSignatureForLocalHeader(t *testing.T) {
	var source bytes.Buffer
	io.WriteString(&source, "HOGEHOGE")
	dd := &dataDescriptor{CompressedSize: 8}
	binary.Write(&source, binary.LittleEndian, dd)
	io.WriteString(&source, "PK\x03\x04")

	cont, n, err := seekToSignature(&source, noDebug)
	if err != nil {
		t.Fatal(err.Error())
	}
	if !cont {
		t.Fatal("expect local-header,but central-header found")
	}
	if n != 8+12+4 {
		t.Fatalf("consumed: expect 24 but %d", n)
	}
}

func TestSeekToSignatureForCentralDirectoryHeader(t *testing.T) {
	var source bytes.Buffer
	io.WriteString(&source, "HOGEHOGE")
	source.Write(_DataDescriptorSignature)
	dd := &dataDescriptor{CompressedSize: 8}
	binary.Write(&source, binary.LittleEndian, dd)
	io.WriteString(&source, "PK\x01\x02")

	cont, n, err := seekToSignature(&source, noDebug)
	if err != nil {
		t.Fatal(err.Error())
	}
	if cont {
		t.Fatal("expect central-header,but local-header found")
	}
	if n != 8+16+4 {
		t.Fatalf("consumed: expect 28 but %d", n)
	}
}

func TestSeekToSignatureZip64Descriptor(t *testing.T) {
	var source bytes.Buffer
	io.WriteString(&source, "HOGEHOGE")
	source.Write(_DataDescriptorSignature)
	binary.Write(&source, binary.LittleEndian, struct {
		CRC32                    uint32
		Compressed, Uncompressed uint64
	}{Compressed: 8, Uncompressed: 8})
	io.WriteString(&source, "PK\x03\x04")

	cont, n, err := seekToSignature(&source, noDebug)
	if err != nil {
		t.Fatal(err.Error())
	}
	if !cont {
		t.Fatal("expect local-header,but central-header found")
	}
	if n != 8+24+4 {
		t.Fatalf("consumed: expect 36 but %d", n)
	}
}

func TestSeekToSignatureLongData(t *testing.T) {
	data := strings.Repeat("0123456789", 25)

	var source bytes.Buffer
	io.WriteString(&source, data)
	dd := &dataDescriptor{CompressedSize: uint32(len(data))}
	binary.Write(&source, binary.LittleEndian, dd)
	io.WriteString(&source, "PK\x03\x04")

	cont, n, err := seekToSignature(&source, noDebug)
	if err != nil {
		t.Fatal(err.Error())
	}
	if !cont {
		t.Fatal("expect local-header,but central-header found")
	}
	if want := int64(len(data) + 12 + 4); n != want {
		t.Fatalf("consumed: expect %d but %d", want, n)
	}
}

func TestSeekToSignatureInsideData(t *testing.T) {
	data := "xxPK\x03\x04yyPK\x01\x02zz"

	var source bytes.Buffer
	io.WriteString(&source, data)
	source.Write(_DataDescriptorSignature)
	dd := &dataDescriptor{CompressedSize: uint32(len(data))}
	binary.Write(&source, binary.LittleEndian, dd)
	io.WriteString(&source, "PK\x01\x02")

	cont, n, err := seekToSignature(&source, noDebug)
	if err != nil {
		t.Fatal(err.Error())
	}
	if cont {
		t.Fatal("expect central-header,but local-header found")
	}
	if want := int64(len(data) + 16 + 4); n != want {
		t.Fatalf("consumed: expect %d but %d", want, n)
	}
}

func TestSeekToSignatureEOF(t *testing.T) {
	source := strings.NewReader("HOGEHOGE")
	_, n, err := seekToSignature(source, noDebug)
	if err != io.EOF {
		t.Fatalf("expect io.EOF but %v", err)
	}
	if n != 8 {
		t.Fatalf("consumed: expect 8 but %d", n)
	}
}

func TestSeekToSignatureWithoutDescriptor(t *testing.T) {
	source := strings.NewReader("HOGEPK\x03\x04HOGE")
	_, n, err := seekToSignature(source, noDebug)
	if err != io.EOF {
		t.Fatalf("expect io.EOF but %v", err)
	}
	if n != 12 {
		t.Fatalf("consumed: expect 12 but %d", n)
	}
}

func zip64LocalHeader(extra []byte, data string) []byte {
	buf := make([]byte, localHeaderSize+len(extra))
	copy(buf, _LocalFileHeaderSignature)
	binary.LittleEndian.PutUint16(buf[4:6], 45)
	binary.LittleEndian.PutUint32(buf[18:22], zip64Marker)
	binary.LittleEndian.PutUint32(buf[22:26], zip64Marker)
	binary.LittleEndian.PutUint16(buf[28:30], uint16(len(extra)))
	copy(buf[localHeaderSize:], extra)
	return append(buf, data...)
}

func TestScanZip64LocalSize(t *testing.T) {
	extra := make([]byte, 20)
	binary.LittleEndian.PutUint16(extra[0:2], zip64ExtraTag)
	binary.LittleEndian.PutUint16(extra[2:4], 16)
	binary.LittleEndian.PutUint64(extra[4:12], 5)
	binary.LittleEndian.PutUint64(extra[12:20], 5)
	stream := zip64LocalHeader(extra, "HELLO")
	stream = append(stream, _EndOfCentralDirectoryRecord...)

	sc := NewScanner(bytes.NewReader(stream))
	if !sc.Scan() {
		t.Fatalf("expect a local header but %v", sc.Err())
	}
	if sc.Scan() {
		t.Fatal("expect the end record")
	}
	if err := sc.Err(); err != io.EOF {
		t.Fatalf("expect io.EOF but %v", err)
	}
}

func TestScanZip64LocalSizeWithoutExtra(t *testing.T) {
	stream := zip64LocalHeader(nil, "HELLO")
	sc := NewScanner(bytes.NewReader(stream))
	if sc.Scan() {
		t.Fatal("expect an error")
	}
	if err := sc.Err(); !errors.Is(err, ErrMalformedHeader) {
		t.Fatalf("expect ErrMalformedHeader but %v", err)
	}
}
