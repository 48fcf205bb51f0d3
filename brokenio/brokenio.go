// Package brokenio wraps an io.Reader so that it fails. It is for tests
// of readers that have to cope with truncated or unreadable input.
// A Reader passes data through until a byte limit is reached and then
// returns an error. With a limit of zero, the first read fails.
// SetZeroFile makes the first read return io.EOF with no data, which is
// what one sees on a zero length file.
package brokenio

import (
	"errors"
	"io"
)

// ErrBroken is returned by default once the limit is reached
var ErrBroken = errors.New("brokenio: artificial read failure")

// A Reader gives out at most limit bytes and then fails.
type Reader struct {
	rdr      io.Reader
	limit    int
	nByte    int
	nCalled  int
	zeroFile bool
	err      error
}

// NewReader wraps r. After limit bytes, reads return ErrBroken.
func NewReader(r io.Reader, limit int) *Reader {
	return &Reader{rdr: r, limit: limit, err: ErrBroken}
}

// SetErr changes the error returned after the limit
func (r *Reader) SetErr(err error) { r.err = err }

// SetZeroFile makes the first read look like an empty file
func (r *Reader) SetZeroFile(b bool) { r.zeroFile = b }

// NByte is the number of bytes passed through so far
func (r *Reader) NByte() int { return r.nByte }

// Read wraps the original reader, cutting the data off at the limit.
func (r *Reader) Read(p []byte) (int, error) {
	r.nCalled++
	if r.zeroFile && r.nCalled == 1 {
		return 0, io.EOF
	}
	left := r.limit - r.nByte
	if left <= 0 {
		return 0, r.err
	}
	if len(p) > left {
		p = p[:left]
	}
	n, err := r.rdr.Read(p)
	r.nByte += n
	return n, err
}
