package diagnostics

import "fmt"

// Fault represents an execution invariant violation: division by
// zero, a stack under/overflow, a branch outside the code array, an
// unrecognized opcode, and so on. The interpreter treats bytecode as
// trusted, so these are raised by panicking with a *Fault rather than
// returned as an ordinary error; cmd/minijvm recovers exactly one at
// the top level.
type Fault struct {
	Message string
	Trace   Trace
}

// NewFault constructs a Fault with no trace attached yet; as the panic
// unwinds through recursive invocations the interpreter adds each
// frame to the front of Trace, so it is ordered oldest-first when it
// is recovered at the top level.
func NewFault(format string, args ...any) *Fault {
	return &Fault{Message: fmt.Sprintf(format, args...)}
}

// Error implements the error interface so a *Fault can also be
// wrapped or logged like any other error once recovered.
func (f *Fault) Error() string {
	if f == nil {
		return "<nil>"
	}
	if len(f.Trace) == 0 {
		return f.Message
	}
	return fmt.Sprintf("%s\nStack trace:\n%s", f.Message, f.Trace.String())
}

// Raise panics with a *Fault built from format and args. It is the
// sole entry point the interpreter uses to signal an invariant
// violation, so every fatal failure carries the same shape.
func Raise(format string, args ...any) {
	panic(NewFault(format, args...))
}
