package classfile

import (
	"encoding/binary"

	"github.com/cwbudde/minijvm/internal/diagnostics"
)

// byteReader wraps a class file's raw bytes with a cursor, reading
// the big-endian fixed-width fields the JVM class-file format is
// built from. It panics with a *diagnostics.BoundaryError when the
// underlying data runs out, since that always means the class file
// is truncated or malformed, never a bytecode invariant violation.
type byteReader struct {
	data []byte
	pos  int
	file string
}

func newByteReader(data []byte, file string) *byteReader {
	return &byteReader{data: data, file: file}
}

func (r *byteReader) need(n int) {
	if r.pos+n > len(r.data) {
		panic(diagnostics.NewFileError(r.file, "unexpected end of class file at offset %d", r.pos))
	}
}

func (r *byteReader) u1() uint8 {
	r.need(1)
	v := r.data[r.pos]
	r.pos++
	return v
}

func (r *byteReader) u2() uint16 {
	r.need(2)
	v := binary.BigEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v
}

func (r *byteReader) u4() uint32 {
	r.need(4)
	v := binary.BigEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v
}

func (r *byteReader) bytes(n int) []byte {
	r.need(n)
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *byteReader) skip(n int) {
	r.need(n)
	r.pos += n
}
