// Package classtest assembles minimal, real-format JVM class files
// in memory for tests. There is no compiler in this repository's
// scope to produce a .class file from source, so internal/classfile,
// internal/vm, and cmd/minijvm's tests all build the binary directly
// here, in the spirit of the teacher's serializer.go writer (a
// bytes.Buffer plus explicit binary.Write calls) but emitting the
// real JVM layout instead of a custom format.
package classtest

import (
	"bytes"
	"encoding/binary"
)

const (
	magic = 0xCAFEBABE

	tagUtf8        = 1
	tagInteger     = 3
	tagClass       = 7
	tagNameAndType = 12
	tagMethodref   = 10
)

// Builder accumulates constant pool entries and methods, then
// assembles them into a complete class file with Bytes.
type Builder struct {
	pool    [][]byte
	methods []methodSpec
}

type methodSpec struct {
	nameIdx, descIdx uint16
	maxStack         uint16
	maxLocals        uint16
	code             []byte
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{}
}

// Utf8 appends a Utf8 constant pool entry and returns its 1-based index.
func (b *Builder) Utf8(s string) uint16 {
	var buf bytes.Buffer
	buf.WriteByte(tagUtf8)
	binary.Write(&buf, binary.BigEndian, uint16(len(s)))
	buf.WriteString(s)
	b.pool = append(b.pool, buf.Bytes())
	return uint16(len(b.pool))
}

// Integer appends an Integer constant pool entry and returns its index.
func (b *Builder) Integer(v int32) uint16 {
	var buf bytes.Buffer
	buf.WriteByte(tagInteger)
	binary.Write(&buf, binary.BigEndian, v)
	b.pool = append(b.pool, buf.Bytes())
	return uint16(len(b.pool))
}

// Class appends a Class constant pool entry referring to nameIdx.
func (b *Builder) Class(nameIdx uint16) uint16 {
	var buf bytes.Buffer
	buf.WriteByte(tagClass)
	binary.Write(&buf, binary.BigEndian, nameIdx)
	b.pool = append(b.pool, buf.Bytes())
	return uint16(len(b.pool))
}

// NameAndType appends a NameAndType constant pool entry.
func (b *Builder) NameAndType(nameIdx, descIdx uint16) uint16 {
	var buf bytes.Buffer
	buf.WriteByte(tagNameAndType)
	binary.Write(&buf, binary.BigEndian, nameIdx)
	binary.Write(&buf, binary.BigEndian, descIdx)
	b.pool = append(b.pool, buf.Bytes())
	return uint16(len(b.pool))
}

// Methodref appends a Methodref constant pool entry.
func (b *Builder) Methodref(classIdx, natIdx uint16) uint16 {
	var buf bytes.Buffer
	buf.WriteByte(tagMethodref)
	binary.Write(&buf, binary.BigEndian, classIdx)
	binary.Write(&buf, binary.BigEndian, natIdx)
	b.pool = append(b.pool, buf.Bytes())
	return uint16(len(b.pool))
}

// Method registers a static method with a Code attribute. name and
// descriptor are added to the pool automatically. It returns the
// Methodref index a caller's invokestatic can target.
func (b *Builder) Method(name, descriptor string, maxStack, maxLocals int, code []byte) uint16 {
	nameIdx := b.Utf8(name)
	descIdx := b.Utf8(descriptor)
	b.methods = append(b.methods, methodSpec{
		nameIdx:   nameIdx,
		descIdx:   descIdx,
		maxStack:  uint16(maxStack),
		maxLocals: uint16(maxLocals),
		code:      code,
	})

	classNameIdx := b.Utf8("Main")
	classIdx := b.Class(classNameIdx)
	natIdx := b.NameAndType(nameIdx, descIdx)
	return b.Methodref(classIdx, natIdx)
}

// Bytes assembles the complete class file.
func (b *Builder) Bytes() []byte {
	var out bytes.Buffer

	codeNameIdx := b.Utf8("Code")

	binary.Write(&out, binary.BigEndian, uint32(magic))
	binary.Write(&out, binary.BigEndian, uint16(0)) // minor_version
	binary.Write(&out, binary.BigEndian, uint16(0)) // major_version

	binary.Write(&out, binary.BigEndian, uint16(len(b.pool)+1))
	for _, entry := range b.pool {
		out.Write(entry)
	}

	binary.Write(&out, binary.BigEndian, uint16(0)) // access_flags
	binary.Write(&out, binary.BigEndian, uint16(0)) // this_class
	binary.Write(&out, binary.BigEndian, uint16(0)) // super_class
	binary.Write(&out, binary.BigEndian, uint16(0)) // interfaces_count
	binary.Write(&out, binary.BigEndian, uint16(0)) // fields_count

	binary.Write(&out, binary.BigEndian, uint16(len(b.methods)))
	for _, m := range b.methods {
		binary.Write(&out, binary.BigEndian, uint16(0)) // access_flags
		binary.Write(&out, binary.BigEndian, m.nameIdx)
		binary.Write(&out, binary.BigEndian, m.descIdx)
		binary.Write(&out, binary.BigEndian, uint16(1)) // attributes_count

		var body bytes.Buffer
		binary.Write(&body, binary.BigEndian, m.maxStack)
		binary.Write(&body, binary.BigEndian, m.maxLocals)
		binary.Write(&body, binary.BigEndian, uint32(len(m.code)))
		body.Write(m.code)
		binary.Write(&body, binary.BigEndian, uint16(0)) // exception_table_length
		binary.Write(&body, binary.BigEndian, uint16(0)) // attributes_count

		binary.Write(&out, binary.BigEndian, codeNameIdx)
		binary.Write(&out, binary.BigEndian, uint32(body.Len()))
		out.Write(body.Bytes())
	}

	binary.Write(&out, binary.BigEndian, uint16(0)) // attributes_count (class-level)

	return out.Bytes()
}
