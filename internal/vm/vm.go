// Package vm is the bytecode execution engine: the operand-stack and
// local-variable machine that dispatches on opcode, mutates the heap,
// and recursively invokes other methods of the same class.
package vm

import (
	"fmt"
	"io"

	"github.com/cwbudde/minijvm/internal/classfile"
	"github.com/cwbudde/minijvm/internal/diagnostics"
	"github.com/cwbudde/minijvm/internal/heap"
)

// VM holds everything one program run shares: the parsed class, the
// heap, and where program output and diagnostics go.
type VM struct {
	class *classfile.ClassFile
	heap  *heap.Heap
	out   io.Writer
	trace io.Writer // nil disables opcode tracing
	log   io.Writer // nil disables verbose call logging
}

// New returns a VM ready to run methods of cf, writing println output to out.
func New(cf *classfile.ClassFile, out io.Writer) *VM {
	return &VM{class: cf, heap: heap.New(), out: out}
}

// SetTrace enables per-instruction tracing to w, or disables it if w is nil.
func (vm *VM) SetTrace(w io.Writer) {
	vm.trace = w
}

// SetVerbose enables method entry/exit logging to w, or disables it if w is nil.
func (vm *VM) SetVerbose(w io.Writer) {
	vm.log = w
}

// Run executes the given method as the program's entry point. It is
// the caller's responsibility to pass the class's main method; Run
// zero-fills its locals per the entry contract ("main([Ljava/lang/String;)V"
// leaves its one declared parameter zero-filled like every other
// slot) and enforces that it returns void.
func (vm *VM) Run(method *classfile.MethodInfo) error {
	locals := make([]int32, method.MaxLocals())
	_, hasResult := vm.execute(method, locals)
	if hasResult {
		return diagnostics.NewBoundaryError("main method returned a value, but main must return void")
	}
	return nil
}

// Heap exposes the run's heap, primarily so tests and diagnostics can
// inspect allocation counts after a run completes.
func (vm *VM) Heap() *heap.Heap {
	return vm.heap
}

// execute runs one method to completion (a return opcode, or falling
// off the end of the code array, which is an implicit void return)
// and reports a fatal Fault by panicking, per design note D1: host
// recursion models invokestatic directly, so this very function is
// what "pushes a frame."
func (vm *VM) execute(m *classfile.MethodInfo, locals []int32) (result int32, hasResult bool) {
	f := newFrame(m.Name, m.MaxStack(), m.Code(), locals)

	defer func() {
		if r := recover(); r != nil {
			if fault, ok := r.(*diagnostics.Fault); ok {
				fault.Trace = append(diagnostics.Trace{{Method: f.method, PC: f.pc}}, fault.Trace...)
			}
			panic(r)
		}
	}()

	if vm.log != nil {
		fmt.Fprintf(vm.log, "-> %s\n", f.method)
	}

	code := f.code
	for f.pc < len(code) {
		op := code[f.pc]
		if vm.trace != nil {
			fmt.Fprintf(vm.trace, "%s pc=%04d op=0x%02x\n", f.method, f.pc, op)
		}

		switch op {
		case opNop:
			f.pc++

		case opIconstM1, opIconst0, opIconst1, opIconst2, opIconst3, opIconst4, opIconst5:
			f.push(int32(op) - int32(opIconst0))
			f.pc++

		case opBipush:
			f.push(int32(int8(f.u1At(1))))
			f.pc += 2

		case opSipush:
			b1, b2 := f.u1At(1), f.u1At(2)
			f.push(int32(int16(uint16(b1)<<8 | uint16(b2))))
			f.pc += 3

		case opLdc:
			idx := uint16(f.u1At(1))
			v, ok := vm.class.ConstantInt(idx)
			if !ok {
				diagnostics.Raise("ldc: constant pool index %d is not an integer constant", idx)
			}
			f.push(v)
			f.pc += 2

		case opIload, opAload:
			f.push(f.localAt(int(f.u1At(1))))
			f.pc += 2
		case opIload0, opAload0:
			f.push(f.localAt(0))
			f.pc++
		case opIload1, opAload1:
			f.push(f.localAt(1))
			f.pc++
		case opIload2, opAload2:
			f.push(f.localAt(2))
			f.pc++
		case opIload3, opAload3:
			f.push(f.localAt(3))
			f.pc++

		case opIstore, opAstore:
			f.setLocalAt(int(f.u1At(1)), f.pop())
			f.pc += 2
		case opIstore0, opAstore0:
			f.setLocalAt(0, f.pop())
			f.pc++
		case opIstore1, opAstore1:
			f.setLocalAt(1, f.pop())
			f.pc++
		case opIstore2, opAstore2:
			f.setLocalAt(2, f.pop())
			f.pc++
		case opIstore3, opAstore3:
			f.setLocalAt(3, f.pop())
			f.pc++

		case opIinc:
			idx := int(f.u1At(1))
			delta := int32(int8(f.u1At(2)))
			f.setLocalAt(idx, f.localAt(idx)+delta)
			f.pc += 3

		case opDup:
			f.push(f.peek())
			f.pc++

		case opIadd:
			b, a := f.pop(), f.pop()
			f.push(a + b)
			f.pc++
		case opIsub:
			b, a := f.pop(), f.pop()
			f.push(a - b)
			f.pc++
		case opImul:
			b, a := f.pop(), f.pop()
			f.push(a * b)
			f.pc++
		case opIdiv:
			b, a := f.pop(), f.pop()
			if b == 0 {
				diagnostics.Raise("division by zero in %s at pc=%d", f.method, f.pc)
			}
			f.push(a / b)
			f.pc++
		case opIrem:
			b, a := f.pop(), f.pop()
			if b == 0 {
				diagnostics.Raise("modulo by zero in %s at pc=%d", f.method, f.pc)
			}
			f.push(a % b)
			f.pc++
		case opIneg:
			f.push(-f.pop())
			f.pc++
		case opIshl:
			b, a := f.pop(), f.pop()
			if b < 0 {
				diagnostics.Raise("negative shift amount in %s at pc=%d", f.method, f.pc)
			}
			f.push(a << (uint32(b) & 31))
			f.pc++
		case opIshr:
			b, a := f.pop(), f.pop()
			if b < 0 {
				diagnostics.Raise("negative shift amount in %s at pc=%d", f.method, f.pc)
			}
			f.push(a >> (uint32(b) & 31))
			f.pc++
		case opIushr:
			b, a := f.pop(), f.pop()
			if b < 0 {
				diagnostics.Raise("negative shift amount in %s at pc=%d", f.method, f.pc)
			}
			f.push(int32(uint32(a) >> (uint32(b) & 31)))
			f.pc++
		case opIand:
			b, a := f.pop(), f.pop()
			f.push(a & b)
			f.pc++
		case opIor:
			b, a := f.pop(), f.pop()
			f.push(a | b)
			f.pc++
		case opIxor:
			b, a := f.pop(), f.pop()
			f.push(a ^ b)
			f.pc++

		case opIfeq, opIfne, opIflt, opIfge, opIfgt, opIfle:
			v := f.pop()
			if compareToZero(op, v) {
				f.branch()
			} else {
				f.pc += 3
			}

		case opIfIcmpeq, opIfIcmpne, opIfIcmplt, opIfIcmpge, opIfIcmpgt, opIfIcmple:
			b, a := f.pop(), f.pop()
			if compareTwo(op, a, b) {
				f.branch()
			} else {
				f.pc += 3
			}

		case opGoto:
			f.branch()

		case opIreturn, opAreturn:
			v := f.pop()
			if vm.log != nil {
				fmt.Fprintf(vm.log, "<- %s\n", f.method)
			}
			return v, true
		case opReturn:
			if vm.log != nil {
				fmt.Fprintf(vm.log, "<- %s\n", f.method)
			}
			return 0, false

		case opNewarray:
			n := f.pop()
			if n < 0 {
				diagnostics.Raise("newarray: negative size %d in %s at pc=%d", n, f.method, f.pc)
			}
			arr := make([]int32, n+1)
			arr[0] = n
			ref := vm.heap.Allocate(arr)
			f.push(int32(ref))
			f.pc += 2

		case opArraylength:
			ref := f.pop()
			arr := vm.lookupArray(ref, f)
			f.push(arr[0])
			f.pc++

		case opIastore:
			v := f.pop()
			i := f.pop()
			ref := f.pop()
			arr := vm.lookupArray(ref, f)
			vm.storeElement(arr, i, v, f)
			f.pc++

		case opIaload:
			i := f.pop()
			ref := f.pop()
			arr := vm.lookupArray(ref, f)
			f.push(vm.loadElement(arr, i, f))
			f.pc++

		case opGetstatic:
			f.pc += 3

		case opInvokevirtual:
			v := f.pop()
			fmt.Fprintf(vm.out, "%d\n", v)
			f.pc += 3

		case opInvokestatic:
			idx := uint16(f.u1At(1))<<8 | uint16(f.u1At(2))
			callee, err := vm.class.FindMethodFromIndex(idx)
			if err != nil {
				diagnostics.Raise("invokestatic: %v", err)
			}

			p := callee.ParamCount()
			args := make([]int32, p)
			for i := p - 1; i >= 0; i-- {
				args[i] = f.pop()
			}

			calleeLocals := make([]int32, callee.MaxLocals())
			copy(calleeLocals, args)

			result, hasResult := vm.execute(callee, calleeLocals)
			if hasResult {
				f.push(result)
			}
			f.pc += 3

		default:
			diagnostics.Raise("unrecognized opcode 0x%02x in %s at pc=%d", op, f.method, f.pc)
		}
	}

	if vm.log != nil {
		fmt.Fprintf(vm.log, "<- %s\n", f.method)
	}
	return 0, false
}

func (vm *VM) lookupArray(ref int32, f *frame) []int32 {
	if ref < 0 || int(ref) >= vm.heap.Len() {
		diagnostics.Raise("invalid array reference %d in %s at pc=%d", ref, f.method, f.pc)
	}
	return vm.heap.Lookup(int(ref))
}

func (vm *VM) storeElement(arr []int32, i, v int32, f *frame) {
	if i < 0 || int(i) >= len(arr)-1 {
		diagnostics.Raise("array index %d out of bounds (length %d) in %s at pc=%d", i, len(arr)-1, f.method, f.pc)
	}
	arr[i+1] = v
}

func (vm *VM) loadElement(arr []int32, i int32, f *frame) int32 {
	if i < 0 || int(i) >= len(arr)-1 {
		diagnostics.Raise("array index %d out of bounds (length %d) in %s at pc=%d", i, len(arr)-1, f.method, f.pc)
	}
	return arr[i+1]
}

// branch applies a 16-bit signed, big-endian branch offset measured
// from the branching opcode's own address (design note D5's sibling
// rule for control flow: the offset is always relative to pc, the
// address of the opcode byte itself, never the address after it). A
// target outside [0, len(code)] is a fatal invariant violation rather
// than a silent wraparound or an implicit void return: len(code)
// itself is the one valid one-past-the-end value (falling off the end
// of the method), everything else is out of bounds.
func (f *frame) branch() {
	b1, b2 := f.u1At(1), f.u1At(2)
	off := int16(uint16(b1)<<8 | uint16(b2))
	target := f.pc + int(off)
	if target < 0 || target > len(f.code) {
		diagnostics.Raise("branch target %d outside code array (length %d) in %s at pc=%d", target, len(f.code), f.method, f.pc)
	}
	f.pc = target
}

func compareToZero(op Opcode, v int32) bool {
	switch op {
	case opIfeq:
		return v == 0
	case opIfne:
		return v != 0
	case opIflt:
		return v < 0
	case opIfge:
		return v >= 0
	case opIfgt:
		return v > 0
	case opIfle:
		return v <= 0
	}
	return false
}

func compareTwo(op Opcode, a, b int32) bool {
	switch op {
	case opIfIcmpeq:
		return a == b
	case opIfIcmpne:
		return a != b
	case opIfIcmplt:
		return a < b
	case opIfIcmpge:
		return a >= b
	case opIfIcmpgt:
		return a > b
	case opIfIcmple:
		return a <= b
	}
	return false
}
