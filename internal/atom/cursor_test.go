package atom

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fpang/mediameta/internal/atom/atomtest"
)

func TestCursorReadsBigEndian(t *testing.T) {
	c := NewCursor(atomtest.Concat(
		atomtest.U16(0x0102),
		atomtest.U32(0x03040506),
		atomtest.U64(0x0708090a0b0c0d0e),
	))

	v16, err := c.ReadU16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0102), v16)

	v32, err := c.ReadU32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x03040506), v32)

	v64, err := c.ReadU64()
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0708090a0b0c0d0e), v64)

	assert.Equal(t, 14, c.Offset())
	assert.Equal(t, 0, c.Remaining())
}

func TestCursorShortReadLeavesOffset(t *testing.T) {
	c := NewCursor([]byte{1, 2, 3})
	require.NoError(t, c.Skip(1))

	_, err := c.ReadU32()
	require.ErrorIs(t, err, ErrShortRead)
	assert.Equal(t, 1, c.Offset())

	_, err = c.ReadU64()
	require.ErrorIs(t, err, ErrShortRead)

	v, err := c.ReadU16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0203), v)
}

func TestCursorFixedString(t *testing.T) {
	c := NewCursor([]byte("isommp42"))

	s, err := c.ReadFixedString(4)
	require.NoError(t, err)
	assert.Equal(t, "isom", s)

	s, err = c.ReadFixedString(4)
	require.NoError(t, err)
	assert.Equal(t, "mp42", s)

	_, err = c.ReadFixedString(1)
	assert.ErrorIs(t, err, ErrShortRead)
}

func TestCursorFixedStringIsLossy(t *testing.T) {
	c := NewCursor([]byte{'A', 0xff, 'B'})

	s, err := c.ReadFixedString(3)
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(s))
	assert.Equal(t, byte('A'), s[0])
	assert.Equal(t, byte('B'), s[len(s)-1])
	assert.Equal(t, 3, c.Offset())
}

func TestCursorLengthPrefixedString(t *testing.T) {
	c := NewCursor(atomtest.Concat(
		atomtest.LengthPrefixed("mdtacom.apple.quicktime.make"),
		atomtest.LengthPrefixed(""),
	))

	s, err := c.ReadLengthPrefixedString()
	require.NoError(t, err)
	assert.Equal(t, "mdtacom.apple.quicktime.make", s)

	s, err = c.ReadLengthPrefixedString()
	require.NoError(t, err)
	assert.Empty(t, s)
	assert.Equal(t, 0, c.Remaining())
}

func TestCursorLengthPrefixedStringErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{
			name:    "Prefix smaller than itself",
			data:    atomtest.U32(3),
			wantErr: ErrInvalidLength,
		},
		{
			name:    "Prefix past end of buffer",
			data:    append(atomtest.U32(20), "abc"...),
			wantErr: ErrShortRead,
		},
		{
			name:    "Missing prefix",
			data:    []byte{0, 0},
			wantErr: ErrShortRead,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCursor(tt.data)
			_, err := c.ReadLengthPrefixedString()
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 0, c.Offset())
		})
	}
}

func TestCursorSeek(t *testing.T) {
	c := NewCursor(make([]byte, 8))
	require.NoError(t, c.Seek(8))
	assert.Equal(t, 0, c.Remaining())
	assert.ErrorIs(t, c.Seek(9), ErrShortRead)
	assert.ErrorIs(t, c.Seek(-1), ErrShortRead)
}
