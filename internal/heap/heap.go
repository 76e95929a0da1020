// Package heap implements the interpreter's integer-array heap: a
// growable, indexed table of owned arrays, each laid out with its
// length at offset 0. References are sequential non-negative indices
// into the table; nothing is ever reused or compacted.
package heap

import "github.com/cwbudde/minijvm/internal/diagnostics"

// Heap owns every array allocated for the lifetime of one program run.
type Heap struct {
	arrays [][]int32
}

// New returns an empty heap.
func New() *Heap {
	return &Heap{}
}

// Allocate takes ownership of array, which must already be in the
// length-prefixed layout ([length, a[0], ..., a[length-1]]), and
// returns the reference under which it can be looked up.
func (h *Heap) Allocate(array []int32) int {
	ref := len(h.arrays)
	h.arrays = append(h.arrays, array)
	return ref
}

// Lookup returns the backing array owned at ref. The caller may
// mutate it in place. It panics if ref was never issued by Allocate;
// the interpreter never constructs a ref out of thin air, so this is
// an invariant violation in bytecode, not an expected runtime path.
func (h *Heap) Lookup(ref int) []int32 {
	if ref < 0 || ref >= len(h.arrays) {
		diagnostics.Raise("heap: invalid reference %d (len=%d)", ref, len(h.arrays))
	}
	return h.arrays[ref]
}

// Len reports how many arrays the heap currently owns.
func (h *Heap) Len() int {
	return len(h.arrays)
}

// Release frees every owned array. The Heap is empty afterward and
// may be reused, though in practice one Heap lives for one run.
func (h *Heap) Release() {
	h.arrays = nil
}
