// Package classfile parses the real JVM class-file binary format
// (big-endian, 0xCAFEBABE-tagged) down to the subset the interpreter
// needs: a constant pool, a method table, and each method's Code
// attribute. It is the external collaborator the base spec fixes an
// interface for; everything here is internal structure, not contract.
package classfile

import (
	"os"

	"github.com/cwbudde/minijvm/internal/diagnostics"
)

const magic = 0xCAFEBABE

// ClassFile is the parsed, in-memory form of one .class file.
type ClassFile struct {
	pool    constantPool
	methods []*MethodInfo
}

// MethodInfo describes one method: its name, descriptor, and (if
// present) its Code attribute.
type MethodInfo struct {
	Name       string
	Descriptor string
	code       *codeAttribute
}

type codeAttribute struct {
	maxStack  int
	maxLocals int
	code      []byte
}

// ParseFile reads path and parses it as a class file.
func ParseFile(path string) (cf *ClassFile, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, diagnostics.NewFileError(path, "cannot read class file: %v", err)
	}
	return Parse(data, path)
}

// Parse parses raw class-file bytes. file is used only to annotate
// error messages and may be empty.
func Parse(data []byte, file string) (cf *ClassFile, err error) {
	defer func() {
		if r := recover(); r != nil {
			if be, ok := r.(*diagnostics.BoundaryError); ok {
				cf, err = nil, be
				return
			}
			panic(r)
		}
	}()

	r := newByteReader(data, file)

	if got := r.u4(); got != magic {
		return nil, diagnostics.NewFileError(file, "bad magic number 0x%08X, expected 0xCAFEBABE", got)
	}
	r.skip(2) // minor_version
	r.skip(2) // major_version

	pool := readConstantPool(r)

	r.skip(2) // access_flags
	r.skip(2) // this_class
	r.skip(2) // super_class

	interfacesCount := int(r.u2())
	r.skip(2 * interfacesCount)

	fieldsCount := int(r.u2())
	for i := 0; i < fieldsCount; i++ {
		skipFieldOrMethodBody(r)
	}

	methodsCount := int(r.u2())
	methods := make([]*MethodInfo, 0, methodsCount)
	for i := 0; i < methodsCount; i++ {
		m := readMethod(r, pool, file)
		// Validate the descriptor now, while we're still inside Parse's
		// recover: a malformed or non-goal-typed descriptor is a
		// boundary error discovered at load time, not a fault raised
		// mid-execution the first time some invokestatic happens to
		// target this method.
		m.ParamCount()
		methods = append(methods, m)
	}

	attrsCount := int(r.u2())
	for i := 0; i < attrsCount; i++ {
		skipAttribute(r)
	}

	return &ClassFile{pool: pool, methods: methods}, nil
}

// skipFieldOrMethodBody skips one whole field_info (or method_info,
// which shares its layout): access_flags, name_index,
// descriptor_index, then all of its attributes.
func skipFieldOrMethodBody(r *byteReader) {
	r.skip(2) // access_flags
	r.skip(2) // name_index
	r.skip(2) // descriptor_index
	attrsCount := int(r.u2())
	for i := 0; i < attrsCount; i++ {
		skipAttribute(r)
	}
}

func skipAttribute(r *byteReader) {
	r.skip(2) // attribute_name_index
	length := int(r.u4())
	r.skip(length)
}

func readMethod(r *byteReader, pool constantPool, file string) *MethodInfo {
	r.skip(2) // access_flags
	nameIdx := r.u2()
	descIdx := r.u2()

	m := &MethodInfo{
		Name:       pool.utf8(nameIdx),
		Descriptor: pool.utf8(descIdx),
	}

	attrsCount := int(r.u2())
	for i := 0; i < attrsCount; i++ {
		attrNameIdx := r.u2()
		length := int(r.u4())
		attrName := pool.utf8(attrNameIdx)

		if attrName != "Code" {
			r.skip(length)
			continue
		}
		m.code = readCodeAttribute(r, file)
	}
	return m
}

func readCodeAttribute(r *byteReader, file string) *codeAttribute {
	maxStack := int(r.u2())
	maxLocals := int(r.u2())
	codeLength := int(r.u4())
	code := append([]byte(nil), r.bytes(codeLength)...)

	exceptionTableLength := int(r.u2())
	if exceptionTableLength != 0 {
		panic(diagnostics.NewFileError(file, "class file uses an exception table, which is out of scope"))
	}

	attrsCount := int(r.u2())
	for i := 0; i < attrsCount; i++ {
		skipAttribute(r)
	}

	return &codeAttribute{maxStack: maxStack, maxLocals: maxLocals, code: code}
}

// FindMethod locates a method by exact name and descriptor match.
func (cf *ClassFile) FindMethod(name, descriptor string) (*MethodInfo, bool) {
	for _, m := range cf.methods {
		if m.Name == name && m.Descriptor == descriptor {
			return m, true
		}
	}
	return nil, false
}

// FindMethodFromIndex resolves a constant-pool Methodref at cpIndex
// (1-based) to a method within this same class, by matching the
// methodref's name and descriptor against this class's methods. The
// methodref's class entry is not checked; a name and descriptor that
// match no method of this class is a boundary error.
func (cf *ClassFile) FindMethodFromIndex(cpIndex uint16) (*MethodInfo, error) {
	entry, ok := cf.pool.get(cpIndex)
	if !ok || entry.Tag != tagMethodref {
		return nil, diagnostics.NewBoundaryError("constant pool index %d is not a methodref", cpIndex)
	}

	nat, ok := cf.pool.get(entry.NameAndTypeIndex)
	if !ok || nat.Tag != tagNameAndType {
		return nil, diagnostics.NewBoundaryError("methodref at index %d has a malformed name-and-type", cpIndex)
	}

	name := cf.pool.utf8(nat.NameIndex)
	descriptor := cf.pool.utf8(nat.DescriptorIndex)

	m, ok := cf.FindMethod(name, descriptor)
	if !ok {
		return nil, diagnostics.NewBoundaryError("no method %s%s in this class", name, descriptor)
	}
	return m, nil
}

// ConstantInt returns the Signed32 value of an Integer constant at
// idx (1-based), or ok=false if idx does not name an Integer entry.
func (cf *ClassFile) ConstantInt(idx uint16) (int32, bool) {
	e, ok := cf.pool.get(idx)
	if !ok || e.Tag != tagInteger {
		return 0, false
	}
	return e.IntValue, true
}

// Close releases the class image. At this tier there is nothing to
// close beyond dropping references, kept for symmetry with Heap.Release.
func (cf *ClassFile) Close() {
	cf.pool = nil
	cf.methods = nil
}

// ParamCount returns the number of parameter slots declared by the
// method's descriptor.
func (m *MethodInfo) ParamCount() int {
	return paramCount(m.Descriptor)
}

// MaxStack returns the method's declared operand-stack depth. It is
// zero for a method with no Code attribute (abstract/native, out of
// scope for a caller that should be checking HasCode first).
func (m *MethodInfo) MaxStack() int {
	if m.code == nil {
		return 0
	}
	return m.code.maxStack
}

// MaxLocals returns the method's declared local-variable slot count.
func (m *MethodInfo) MaxLocals() int {
	if m.code == nil {
		return 0
	}
	return m.code.maxLocals
}

// Code returns the method's bytecode. It is nil if the method has no
// Code attribute.
func (m *MethodInfo) Code() []byte {
	if m.code == nil {
		return nil
	}
	return m.code.code
}

// HasCode reports whether the method carries a Code attribute.
func (m *MethodInfo) HasCode() bool {
	return m.code != nil
}
