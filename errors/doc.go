// Package errors provides structured error types for the podwire library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type includes context: the buffer offset, the wanted
// and actual wire type names, and a cause chain.
//
// Every failure in the codec is a returned value; nothing panics on
// malformed input and no global error state exists. A failed operation
// leaves the engine's cursor or write offset exactly where it was, so
// callers can recover by skipping a value or resetting to a saved state.
//
// Use the convenience constructors for common patterns:
//
//	err := errors.TypeMismatch(errors.PhaseDecode, "Int", "Long")
//	err := errors.Truncated(errors.PhaseDecode, offset, declared, bound)
//
// All errors implement the standard error interface and support errors.Is/As.
// Kind checks that ignore the phase go through IsKind:
//
//	if errors.IsKind(err, errors.KindTypeMismatch) {
//		// try another accessor
//	}
package errors
