package classfile

import "github.com/cwbudde/minijvm/internal/diagnostics"

// paramCount counts the parameter slots of a method descriptor, e.g.
// "(II)I" has two, "([Ljava/lang/String;)V" has one. At this tier
// every parameter — primitive int or array-of-reference — occupies
// exactly one local slot, so the full descriptor grammar is never
// needed beyond recognizing and skipping the shapes this subset
// allows and rejecting the ones it doesn't (long/double, floating
// point), per the base spec's non-goals.
func paramCount(descriptor string) int {
	if len(descriptor) == 0 || descriptor[0] != '(' {
		panic(diagnostics.NewBoundaryError("malformed method descriptor %q", descriptor))
	}
	count := 0
	i := 1
	for i < len(descriptor) && descriptor[i] != ')' {
		for i < len(descriptor) && descriptor[i] == '[' {
			i++
		}
		if i >= len(descriptor) {
			panic(diagnostics.NewBoundaryError("malformed method descriptor %q", descriptor))
		}
		switch descriptor[i] {
		case 'I', 'Z', 'B', 'C', 'S':
			i++
		case 'L':
			for i < len(descriptor) && descriptor[i] != ';' {
				i++
			}
			if i >= len(descriptor) {
				panic(diagnostics.NewBoundaryError("malformed method descriptor %q", descriptor))
			}
			i++
		case 'J', 'D', 'F':
			panic(diagnostics.NewBoundaryError("method descriptor %q uses a non-goal type %q", descriptor, string(descriptor[i])))
		default:
			panic(diagnostics.NewBoundaryError("method descriptor %q has an unrecognized type tag %q", descriptor, string(descriptor[i])))
		}
		count++
	}
	if i >= len(descriptor) {
		panic(diagnostics.NewBoundaryError("malformed method descriptor %q", descriptor))
	}
	return count
}
