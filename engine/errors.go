package engine

import "fmt"

// ---------------------------------------------------------------------------
// Error taxonomy
// ---------------------------------------------------------------------------

// FatalError is raised (as a panic value) for conditions the engine cannot
// recover from: a re-entrant call on an active loopcheck or memo entry, or a
// malformed tabling request that slipped past the transformation layer.
// Embedding processes recover it at their top level; retrying is never
// meaningful for this class.
type FatalError struct {
	Proc ProcID
	Msg  string
}

// Error implements the error interface.
func (e *FatalError) Error() string {
	if e.Proc.Name == "" {
		return "table error: " + e.Msg
	}
	return fmt.Sprintf("table error in %s: %s", e.Proc, e.Msg)
}

// fatalInfiniteRecursion aborts with the diagnostic the status machine
// produces when a loopcheck or memo entry is re-entered while active.
func fatalInfiniteRecursion(proc ProcID) {
	panic(&FatalError{Proc: proc, Msg: "detected infinite recursion"})
}

// fatal aborts with an engine-level diagnostic not tied to one procedure.
func fatal(format string, args ...interface{}) {
	panic(&FatalError{Msg: fmt.Sprintf(format, args...)})
}
