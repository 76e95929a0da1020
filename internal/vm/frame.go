package vm

import "github.com/cwbudde/minijvm/internal/diagnostics"

// frame is the per-invocation state the base spec calls implicit: an
// operand stack bounded by max_stack, a fixed-size local-variable
// array, and a program counter into the method's code. A frame never
// outlives the call that created it — (*VM).execute holds one on its
// own Go stack frame and recurses for invokestatic, per design note
// D1, rather than pushing onto an explicit frame slice.
type frame struct {
	stack    []int32
	sp       int
	locals   []int32
	pc       int
	code     []byte
	method   string
	maxStack int
}

func newFrame(method string, maxStack int, code []byte, locals []int32) *frame {
	return &frame{
		stack:    make([]int32, maxStack),
		locals:   locals,
		code:     code,
		method:   method,
		maxStack: maxStack,
	}
}

func (f *frame) push(v int32) {
	if f.sp >= len(f.stack) {
		diagnostics.Raise("operand stack overflow in %s at pc=%d (max_stack=%d)", f.method, f.pc, f.maxStack)
	}
	f.stack[f.sp] = v
	f.sp++
}

func (f *frame) pop() int32 {
	if f.sp <= 0 {
		diagnostics.Raise("operand stack underflow in %s at pc=%d", f.method, f.pc)
	}
	f.sp--
	return f.stack[f.sp]
}

func (f *frame) peek() int32 {
	if f.sp <= 0 {
		diagnostics.Raise("operand stack underflow in %s at pc=%d", f.method, f.pc)
	}
	return f.stack[f.sp-1]
}

// u1At reads the unsigned byte at pc+offset without advancing pc.
func (f *frame) u1At(offset int) byte {
	idx := f.pc + offset
	if idx < 0 || idx >= len(f.code) {
		diagnostics.Raise("code read past end of method %s at pc=%d", f.method, idx)
	}
	return f.code[idx]
}

// localAt bounds-checks a local variable index derived from the
// bytecode stream; an out-of-range index is trusted-bytecode
// violation, not a Go slice panic.
func (f *frame) localAt(i int) int32 {
	if i < 0 || i >= len(f.locals) {
		diagnostics.Raise("local variable index %d out of range in %s (max_locals=%d)", i, f.method, len(f.locals))
	}
	return f.locals[i]
}

func (f *frame) setLocalAt(i int, v int32) {
	if i < 0 || i >= len(f.locals) {
		diagnostics.Raise("local variable index %d out of range in %s (max_locals=%d)", i, f.method, len(f.locals))
	}
	f.locals[i] = v
}
