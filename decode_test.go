package zipnames_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hymkor/zipnames"
)

func TestEncodeDecodeCyrillic(t *testing.T) {
	tests := []struct {
		cp   zipnames.Codepage
		want []byte
	}{
		{zipnames.CP866, []byte{0xA0, 0xA1, 0xA2, 0xA3, 0xA4, 0xA5}},
		{zipnames.CP1251, []byte{0xE0, 0xE1, 0xE2, 0xE3, 0xE4, 0xE5}},
		{zipnames.UTF8, []byte(cyrillicName)},
	}
	for _, tt := range tests {
		t.Run(tt.cp.String(), func(t *testing.T) {
			raw, err := tt.cp.Encode(cyrillicName)
			require.NoError(t, err)
			assert.Equal(t, tt.want, raw)

			name, err := tt.cp.Decode(raw)
			require.NoError(t, err)
			assert.Equal(t, cyrillicName, name)
		})
	}
}

func TestEncodeUnrepresentable(t *testing.T) {
	_, err := zipnames.CP437.Encode(cyrillicName)
	assert.Error(t, err)
}

func TestUnsupportedCodepage(t *testing.T) {
	_, err := zipnames.Codepage(737).Encoding()
	assert.ErrorIs(t, err, zipnames.ErrUnsupportedCodepage)

	_, err = zipnames.Codepage(737).Decode([]byte("abc"))
	assert.ErrorIs(t, err, zipnames.ErrUnsupportedCodepage)

	_, err = zipnames.SystemANSI.Encode("abc")
	assert.ErrorIs(t, err, zipnames.ErrUnsupportedCodepage)
}

func TestParseCodepage(t *testing.T) {
	tests := []struct {
		in   string
		want zipnames.Codepage
	}{
		{"CP866", zipnames.CP866},
		{"cp1251", zipnames.CP1251},
		{"866", zipnames.CP866},
		{" 1251\n", zipnames.CP1251},
		{"UTF-8", zipnames.UTF8},
		{"utf8", zipnames.UTF8},
		{"65001", zipnames.UTF8},
		{"acp", zipnames.SystemANSI},
		{"IBM866", zipnames.CP866},
		{"windows-1251", zipnames.CP1251},
		{"Shift_JIS", zipnames.CP932},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			cp, err := zipnames.ParseCodepage(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cp)
		})
	}
}

func TestParseCodepageInvalid(t *testing.T) {
	for _, in := range []string{"", "CP737", "12345", "no-such-charset"} {
		_, err := zipnames.ParseCodepage(in)
		assert.ErrorIs(t, err, zipnames.ErrUnsupportedCodepage, in)
	}
}
