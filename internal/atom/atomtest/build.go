// Package atomtest builds synthetic atom byte streams for tests.
package atomtest

import "encoding/binary"

// Box returns an atom with an 8-byte header followed by the concatenated payload parts.
func Box(typ string, payload ...[]byte) []byte {
	body := Concat(payload...)
	out := make([]byte, 8, 8+len(body))
	binary.BigEndian.PutUint32(out[:4], uint32(8+len(body)))
	copy(out[4:8], typ)
	return append(out, body...)
}

// LargeBox returns an atom that uses the 64-bit extended size header.
func LargeBox(typ string, payload ...[]byte) []byte {
	body := Concat(payload...)
	out := make([]byte, 16, 16+len(body))
	binary.BigEndian.PutUint32(out[:4], 1)
	copy(out[4:8], typ)
	binary.BigEndian.PutUint64(out[8:16], uint64(16+len(body)))
	return append(out, body...)
}

// Concat joins byte slices.
func Concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// U16 encodes v big-endian.
func U16(v uint16) []byte {
	return binary.BigEndian.AppendUint16(nil, v)
}

// U32 encodes v big-endian.
func U32(v uint32) []byte {
	return binary.BigEndian.AppendUint32(nil, v)
}

// U64 encodes v big-endian.
func U64(v uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, v)
}

// Zeros returns n zero bytes.
func Zeros(n int) []byte {
	return make([]byte, n)
}

// LengthPrefixed encodes s behind a 4-byte length that counts itself.
func LengthPrefixed(s string) []byte {
	return append(U32(uint32(4+len(s))), s...)
}
