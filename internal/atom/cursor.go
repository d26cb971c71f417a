package atom

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/text/encoding/unicode"
)

// Cursor is a sequential, offset-tracked reader over an in-memory atom payload.
// All integer reads are big-endian. A failed read leaves the offset unchanged.
type Cursor struct {
	data   []byte
	offset int
}

// NewCursor wraps data with the read offset at zero.
func NewCursor(data []byte) *Cursor {
	return &Cursor{data: data}
}

// Offset returns the current read offset.
func (c *Cursor) Offset() int {
	return c.offset
}

// Len returns the total length of the underlying buffer.
func (c *Cursor) Len() int {
	return len(c.data)
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.data) - c.offset
}

// Seek moves the read offset to an absolute position within the buffer.
func (c *Cursor) Seek(offset int) error {
	if offset < 0 || offset > len(c.data) {
		return fmt.Errorf("seek to %d of %d bytes: %w", offset, len(c.data), ErrShortRead)
	}
	c.offset = offset
	return nil
}

// Skip advances the read offset by n bytes.
func (c *Cursor) Skip(n int) error {
	_, err := c.take(n)
	return err
}

func (c *Cursor) take(n int) ([]byte, error) {
	if n < 0 || c.Remaining() < n {
		return nil, fmt.Errorf("need %d bytes at offset %d, have %d: %w", n, c.offset, c.Remaining(), ErrShortRead)
	}
	b := c.data[c.offset : c.offset+n]
	c.offset += n
	return b, nil
}

// ReadU16 reads a big-endian uint16.
func (c *Cursor) ReadU16() (uint16, error) {
	b, err := c.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// ReadU32 reads a big-endian uint32.
func (c *Cursor) ReadU32() (uint32, error) {
	b, err := c.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// ReadU64 reads a big-endian uint64.
func (c *Cursor) ReadU64() (uint64, error) {
	b, err := c.take(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// ReadBytes returns the next n bytes without copying.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	return c.take(n)
}

// ReadFixedString reads exactly n bytes as UTF-8. Invalid sequences are
// replaced with U+FFFD rather than rejected.
func (c *Cursor) ReadFixedString(n int) (string, error) {
	b, err := c.take(n)
	if err != nil {
		return "", err
	}
	return decodeLossy(b), nil
}

// ReadLengthPrefixedString reads a 4-byte length L that counts itself,
// followed by L-4 bytes of text.
func (c *Cursor) ReadLengthPrefixedString() (string, error) {
	start := c.offset
	length, err := c.ReadU32()
	if err != nil {
		return "", err
	}
	if length < 4 {
		c.offset = start
		return "", fmt.Errorf("length prefix %d at offset %d: %w", length, start, ErrInvalidLength)
	}
	s, err := c.ReadFixedString(int(length - 4))
	if err != nil {
		c.offset = start
		return "", err
	}
	return s, nil
}

func decodeLossy(b []byte) string {
	out, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		// The UTF-8 decoder only fails on transformer misuse; fall back to the raw bytes.
		return string(b)
	}
	return string(out)
}
