// Package diagnostics carries the interpreter's two error classes:
// BoundaryError for ordinary, recoverable user-facing failures (a bad
// CLI invocation, an unreadable or malformed class file, a missing
// main method), and Fault for fatal execution invariant violations
// that the interpreter treats as unrecoverable, trusted-bytecode
// assumptions being broken at runtime.
package diagnostics

import "fmt"

// BoundaryError is a user-facing failure reported on standard error
// and terminating the process with a non-zero exit code. Unlike the
// teacher's CompilerError, it carries no source line or column: a
// class file is binary, not text, so there is nothing to quote.
type BoundaryError struct {
	Message string
	File    string
}

// NewBoundaryError constructs a BoundaryError not tied to any file.
func NewBoundaryError(format string, args ...any) *BoundaryError {
	return &BoundaryError{Message: fmt.Sprintf(format, args...)}
}

// NewFileError constructs a BoundaryError scoped to a specific file.
func NewFileError(file, format string, args ...any) *BoundaryError {
	return &BoundaryError{Message: fmt.Sprintf(format, args...), File: file}
}

// Error implements the error interface.
func (e *BoundaryError) Error() string {
	if e.File == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}
