package atomtest

import (
	"bytes"
	"errors"
)

// ErrReadFailed is returned by a Reader once its failure point is reached.
var ErrReadFailed = errors.New("read failed")

// Reader serves data through ReadAt while counting calls and bytes.
// When FailFrom is positive, that call and every later one fail with
// ErrReadFailed.
type Reader struct {
	data     *bytes.Reader
	FailFrom int

	Calls int
	Bytes int
}

// NewReader wraps data.
func NewReader(data []byte) *Reader {
	return &Reader{data: bytes.NewReader(data)}
}

func (r *Reader) ReadAt(p []byte, off int64) (int, error) {
	r.Calls++
	if r.FailFrom > 0 && r.Calls >= r.FailFrom {
		return 0, ErrReadFailed
	}
	n, err := r.data.ReadAt(p, off)
	r.Bytes += n
	return n, err
}

// Size is the length of the wrapped data.
func (r *Reader) Size() int64 {
	return r.data.Size()
}
