// Package zwrap takes a reader and optionally wraps it so that reading
// goes through a decompressor. Upon calling Close, the decompressor will
// be closed, followed by the underlying reader if it can be closed.
// gzip and zstd are recognised by their magic numbers, so file names
// do not matter on input. On output, the name decides.
package zwrap

import (
	"bufio"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Kind is the type of compression
type Kind byte

const (
	None Kind = iota
	Gzip
	Zstd
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Reader is what we return.
type Reader struct {
	fp   io.Closer     // underlying source, may be nil
	zrdr io.ReadCloser // decompressor, nil if not compressed
	rdr  io.Reader     // where reads come from
	kind Kind
}

// Close closes the decompressor, then the underlying source.
func (fc *Reader) Close() error {
	var s string
	if fc.zrdr != nil {
		if e := fc.zrdr.Close(); e != nil { // Close decompressor
			s = e.Error()
		}
	}
	if fc.fp != nil {
		if e := fc.fp.Close(); e != nil { // and backing file
			s = strings.TrimSpace(s + " " + e.Error())
		}
	}
	if s == "" {
		return nil
	}
	return errors.New(s)
}

// Read makes sure we read from the decompressed stream and
// not the underlying stream.
func (fc *Reader) Read(p []byte) (int, error) { return fc.rdr.Read(p) }

// Kind says what compression was found
func (fc *Reader) Kind() Kind { return fc.kind }

func hasMagic(b, magic []byte) bool {
	if len(b) < len(magic) {
		return false
	}
	for i := range magic {
		if b[i] != magic[i] {
			return false
		}
	}
	return true
}

// WrapMaybe looks at the start of the stream and puts a decompressor
// in front of it if necessary. If r is also an io.Closer, Close on the
// result will close it.
func WrapMaybe(r io.Reader) (*Reader, error) {
	ret := &Reader{}
	if c, ok := r.(io.Closer); ok {
		ret.fp = c
	}
	brdr := bufio.NewReader(r)
	head, err := brdr.Peek(len(zstdMagic))
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, err
	}
	switch {
	case hasMagic(head, gzipMagic):
		zr, err := gzip.NewReader(brdr)
		if err != nil {
			return nil, err
		}
		ret.zrdr, ret.rdr, ret.kind = zr, zr, Gzip
	case hasMagic(head, zstdMagic):
		zr, err := zstd.NewReader(brdr)
		if err != nil {
			return nil, err
		}
		rc := zr.IOReadCloser()
		ret.zrdr, ret.rdr, ret.kind = rc, rc, Zstd
	default:
		ret.rdr = brdr
	}
	return ret, nil
}

// KindOf says what compression a file name asks for, and returns the
// name without the compression extension, so a.pdb.gz gives a.pdb
func KindOf(name string) (Kind, string) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".gz":
		return Gzip, strings.TrimSuffix(name, filepath.Ext(name))
	case ".zst":
		return Zstd, strings.TrimSuffix(name, filepath.Ext(name))
	}
	return None, name
}

// a fakecloser is a wrapper around a io.Writer which turns it into
// a WriteCloser.
type fakecloser struct {
	io.Writer
}

func (fakecloser) Close() error { return nil }

// NewWriter returns a writer which compresses as the file name says.
// Closing it finishes the compressed stream, but does not close w.
func NewWriter(w io.Writer, name string) (io.WriteCloser, error) {
	kind, _ := KindOf(name)
	switch kind {
	case Gzip:
		return gzip.NewWriter(w), nil
	case Zstd:
		return zstd.NewWriter(w)
	}
	return fakecloser{w}, nil
}
