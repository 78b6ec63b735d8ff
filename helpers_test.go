package zipnames_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hymkor/zipnames/internal/zipwrite"
)

const cyrillicName = "абвгде"

func archive(t *testing.T, entries ...zipwrite.Entry) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, zipwrite.Write(&buf, entries))
	return buf.Bytes()
}

func centralHeader(madeBy, flags uint16, name, extra []byte) []byte {
	buf := make([]byte, 46+len(name)+len(extra))
	copy(buf, "PK\x01\x02")
	binary.LittleEndian.PutUint16(buf[4:6], madeBy)
	binary.LittleEndian.PutUint16(buf[8:10], flags)
	binary.LittleEndian.PutUint16(buf[28:30], uint16(len(name)))
	binary.LittleEndian.PutUint16(buf[30:32], uint16(len(extra)))
	copy(buf[46:], name)
	copy(buf[46+len(name):], extra)
	return buf
}

func localHeader(needed, flags uint16, name, extra []byte) []byte {
	buf := make([]byte, 30+len(name)+len(extra))
	copy(buf, "PK\x03\x04")
	binary.LittleEndian.PutUint16(buf[4:6], needed)
	binary.LittleEndian.PutUint16(buf[6:8], flags)
	binary.LittleEndian.PutUint16(buf[26:28], uint16(len(name)))
	binary.LittleEndian.PutUint16(buf[28:30], uint16(len(extra)))
	copy(buf[30:], name)
	copy(buf[30+len(name):], extra)
	return buf
}

func extraRecord(tag uint16, payload []byte) []byte {
	buf := make([]byte, 4+len(payload))
	binary.LittleEndian.PutUint16(buf[0:2], tag)
	binary.LittleEndian.PutUint16(buf[2:4], uint16(len(payload)))
	copy(buf[4:], payload)
	return buf
}
