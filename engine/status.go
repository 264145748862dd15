package engine

import "strconv"

// ---------------------------------------------------------------------------
// Call status state machine
// ---------------------------------------------------------------------------

// EvalMethod selects which status machine governs a tabled procedure.
type EvalMethod uint8

const (
	// EvalLoopcheck only detects left recursion: no answers are kept, and
	// the entry returns to inactive after each complete call.
	EvalLoopcheck EvalMethod = iota
	// EvalMemoDet memoizes a deterministic procedure: exactly one answer.
	EvalMemoDet
	// EvalMemoSemi memoizes a semideterministic procedure: one answer or
	// recorded failure.
	EvalMemoSemi
	// EvalMinimalModel evaluates a nondeterministic procedure to its
	// minimal model, with suspension of re-entrant consumers and SCC-local
	// completion.
	EvalMinimalModel
)

// String returns the method name used in manifests and diagnostics.
func (m EvalMethod) String() string {
	switch m {
	case EvalLoopcheck:
		return "loopcheck"
	case EvalMemoDet:
		return "memo_det"
	case EvalMemoSemi:
		return "memo_semi"
	case EvalMinimalModel:
		return "minimal_model"
	default:
		return "unknown(" + strconv.Itoa(int(m)) + ")"
	}
}

// Status is the per-entry evaluation state. The first call on a fresh entry
// moves inactive to active and is responsible for eventually reaching a
// terminal state; what happens to later calls arriving before then depends
// on the evaluation method.
type Status int32

const (
	// StatusInactive: never called, or (loopcheck) between calls.
	StatusInactive Status = iota
	// StatusActive: the first call is still computing the original goal.
	StatusActive
	// StatusSucceeded: memo terminal, the stored answer is authoritative.
	StatusSucceeded
	// StatusFailed: memo semidet terminal, the goal is known to fail.
	StatusFailed
	// StatusComplete: minimal-model terminal, the answer set is exhaustive.
	StatusComplete
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusInactive:
		return "inactive"
	case StatusActive:
		return "active"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	case StatusComplete:
		return "complete"
	default:
		return "unknown(" + strconv.Itoa(int(s)) + ")"
	}
}

// LoopStatus is what a loopcheck setup observed.
type LoopStatus uint8

const (
	// LoopFirstCall: the entry was inactive; the caller must run the
	// original goal and then mark the entry inactive again.
	LoopFirstCall LoopStatus = iota
)

// MemoStatus is what a memo setup observed.
type MemoStatus uint8

const (
	// MemoFirstCall: the caller must run the original goal and mark the
	// entry succeeded or failed.
	MemoFirstCall MemoStatus = iota
	// MemoSucceeded: restore the stored answer, skip the goal.
	MemoSucceeded
	// MemoFailed: fail immediately, skip the goal.
	MemoFailed
)

// markActive moves inactive to active. A re-entrant call on an already
// active loopcheck or memo entry is the infinite-recursion abort: these
// methods are defined only for computations that terminate without mutual
// recursion through the same call.
func (e *TableEntry) markActive() {
	if !e.status.CompareAndSwap(int32(StatusInactive), int32(StatusActive)) {
		fatalInfiniteRecursion(e.proc.ID)
	}
}

// MarkAsInactive returns a loopcheck entry to inactive after its call
// completed. Loopcheck entries are re-enterable once settled.
func (e *TableEntry) MarkAsInactive() {
	if !e.status.CompareAndSwap(int32(StatusActive), int32(StatusInactive)) {
		fatal("loopcheck entry for %s left active state unexpectedly", e.proc.ID)
	}
}

// MarkAsSucceeded records that the original goal succeeded and its answer
// (if any) has been saved.
func (e *TableEntry) MarkAsSucceeded() {
	if !e.status.CompareAndSwap(int32(StatusActive), int32(StatusSucceeded)) {
		fatal("memo entry for %s was not active at success", e.proc.ID)
	}
	e.signalSettled()
}

// MarkAsFailed records that the original goal failed. Semidet memo only.
func (e *TableEntry) MarkAsFailed() {
	if !e.status.CompareAndSwap(int32(StatusActive), int32(StatusFailed)) {
		fatal("memo entry for %s was not active at failure", e.proc.ID)
	}
	e.signalSettled()
}

// markComplete seals a minimal-model entry: its answer set is exhaustive.
func (e *TableEntry) markComplete() {
	e.status.Store(int32(StatusComplete))
	e.signalSettled()
}
