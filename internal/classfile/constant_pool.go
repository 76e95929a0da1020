package classfile

import "github.com/cwbudde/minijvm/internal/diagnostics"

// Constant pool tags this tier recognizes. Integer is the entry kind
// the interpreter's ldc actually consumes; the rest exist so the
// reader can walk past method/field/class references without
// mis-parsing the pool, per the base spec's "other tags the core
// ignores."
const (
	tagUtf8        = 1
	tagInteger     = 3
	tagFloat       = 4
	tagLong        = 5
	tagDouble      = 6
	tagClass       = 7
	tagString      = 8
	tagFieldref    = 9
	tagMethodref   = 10
	tagNameAndType = 12
)

// constantEntry is one slot of the constant pool. Only Tag is always
// meaningful; the other fields are populated according to Tag.
type constantEntry struct {
	Tag              uint8
	Utf8Value        string
	IntValue         int32
	NameIndex        uint16 // Class
	ClassIndex       uint16 // Methodref/Fieldref
	NameAndTypeIndex uint16 // Methodref/Fieldref
	DescriptorIndex  uint16 // NameAndType
}

// constantPool is 1-indexed, matching the JVM format; index 0 is unused.
type constantPool []constantEntry

func readConstantPool(r *byteReader) constantPool {
	count := int(r.u2())
	pool := make(constantPool, count)

	for i := 1; i < count; i++ {
		tag := r.u1()
		switch tag {
		case tagUtf8:
			length := int(r.u2())
			pool[i] = constantEntry{Tag: tag, Utf8Value: string(r.bytes(length))}
		case tagInteger:
			pool[i] = constantEntry{Tag: tag, IntValue: int32(r.u4())}
		case tagFloat:
			r.skip(4)
			pool[i] = constantEntry{Tag: tag}
		case tagLong, tagDouble:
			panic(diagnostics.NewBoundaryError("class file uses a 64-bit constant pool entry (tag %d), which is out of scope", tag))
		case tagClass:
			pool[i] = constantEntry{Tag: tag, NameIndex: r.u2()}
		case tagString:
			r.skip(2)
			pool[i] = constantEntry{Tag: tag}
		case tagFieldref, tagMethodref:
			pool[i] = constantEntry{Tag: tag, ClassIndex: r.u2(), NameAndTypeIndex: r.u2()}
		case tagNameAndType:
			pool[i] = constantEntry{Tag: tag, NameIndex: r.u2(), DescriptorIndex: r.u2()}
		case 11, 17, 18:
			// InterfaceMethodref, Dynamic, InvokeDynamic: two u2 operands.
			r.skip(4)
			pool[i] = constantEntry{Tag: tag}
		case 15:
			// MethodHandle: u1 reference_kind, u2 reference_index.
			r.skip(3)
			pool[i] = constantEntry{Tag: tag}
		default:
			// MethodType, Module, Package, etc: the core never resolves
			// these, but the pool still must be walked correctly, so
			// skip the 2-byte operand of every remaining
			// single-reference tag shape.
			r.skip(2)
			pool[i] = constantEntry{Tag: tag}
		}
	}
	return pool
}

func (cp constantPool) get(idx uint16) (constantEntry, bool) {
	if int(idx) <= 0 || int(idx) >= len(cp) {
		return constantEntry{}, false
	}
	return cp[idx], true
}

func (cp constantPool) utf8(idx uint16) string {
	e, ok := cp.get(idx)
	if !ok || e.Tag != tagUtf8 {
		return ""
	}
	return e.Utf8Value
}
