package engine

// ---------------------------------------------------------------------------
// Transformation-facing primitives
// ---------------------------------------------------------------------------
//
// The functions below, together with the Trie lookup-insert methods and the
// minimal-model methods on Machine, form the fixed palette the
// transformation layer emits calls to. It is a stable interface: a new
// argument type category adds a matched lookup-insert/save/restore triple,
// it never changes an existing signature.
//
// A transformed call site follows a fixed skeleton: lookup-insert over the
// input arguments, a setup call, a switch over the observed status with one
// branch per value, and a fallthrough into the original goal on the
// first-call branch.

// TableLoopSetup begins a loopcheck-tabled call. A re-entrant call while
// the entry is active is the infinite-recursion abort. The caller runs the
// original goal and then returns the entry to inactive with MarkAsInactive,
// whether the goal succeeded or failed.
func TableLoopSetup(e *TableEntry) LoopStatus {
	if e.proc.Method != EvalLoopcheck {
		fatal("%s is tabled as %s, not loopcheck", e.proc.ID, e.proc.Method)
	}
	e.markActive()
	return LoopFirstCall
}

// TableMemoDetSetup begins a det-memoized call. On MemoFirstCall the caller
// runs the original goal, saves its answer, and calls MarkAsSucceeded; on
// MemoSucceeded it restores the stored answer instead of recomputing.
func TableMemoDetSetup(e *TableEntry) MemoStatus {
	if e.proc.Method != EvalMemoDet {
		fatal("%s is tabled as %s, not memo_det", e.proc.ID, e.proc.Method)
	}
	switch e.Status() {
	case StatusSucceeded:
		return MemoSucceeded
	case StatusFailed:
		fatal("det memo entry for %s in failed state", e.proc.ID)
	}
	e.markActive()
	return MemoFirstCall
}

// TableMemoSemiSetup begins a semidet-memoized call. Like det memo, with a
// third possibility: a recorded failure short-circuits to MemoFailed.
func TableMemoSemiSetup(e *TableEntry) MemoStatus {
	if e.proc.Method != EvalMemoSemi {
		fatal("%s is tabled as %s, not memo_semi", e.proc.ID, e.proc.Method)
	}
	switch e.Status() {
	case StatusSucceeded:
		return MemoSucceeded
	case StatusFailed:
		return MemoFailed
	}
	e.markActive()
	return MemoFirstCall
}

// TableMemoSaveAnswer records the single answer of a memoized goal and
// marks the entry succeeded. For a procedure with no output slots only the
// success flag is set; no block is created.
func TableMemoSaveAnswer(e *TableEntry, outputs []Value) {
	if len(e.proc.Outputs) == 0 {
		if len(outputs) != 0 {
			fatal("%s saved %d outputs but declares none", e.proc.ID, len(outputs))
		}
		e.succeeded.Store(true)
		e.proc.store.answers.Add(1)
		e.MarkAsSucceeded()
		return
	}
	if _, fresh := e.AnswerStore().Insert(outputs); !fresh {
		fatal("memo entry for %s saved twice", e.proc.ID)
	}
	e.MarkAsSucceeded()
}

// TableMemoGetAnswer returns the stored answer block of a succeeded memo
// entry, or nil for a zero-output procedure.
func TableMemoGetAnswer(e *TableEntry) *AnswerBlock {
	if e.Status() != StatusSucceeded {
		fatal("answer requested from %s memo entry in state %s", e.proc.ID, e.Status())
	}
	if len(e.proc.Outputs) == 0 {
		return nil
	}
	blocks := e.AnswerStore().Blocks()
	if len(blocks) != 1 {
		fatal("succeeded memo entry for %s holds %d answers", e.proc.ID, len(blocks))
	}
	return blocks[0]
}

// ---------------------------------------------------------------------------
// Answer block save/restore, one matched pair per type category
// ---------------------------------------------------------------------------

// TableCreateAnswerBlock claims the answer-trie node reached by the
// stepwise output lookup-inserts. A nil block means the answer is a
// duplicate and must be discarded.
func TableCreateAnswerBlock(as *AnswerStore, tip *TrieNode, slots int) (*AnswerBlock, bool) {
	return as.NewAnswer(tip, slots)
}

// TableSaveIntAnswer writes an integer into an answer slot.
func TableSaveIntAnswer(b *AnswerBlock, slot int, v int64) { b.save(slot, CatInt, FromInt(v)) }

// TableSaveFloatAnswer writes a float into an answer slot.
func TableSaveFloatAnswer(b *AnswerBlock, slot int, v float64) {
	b.save(slot, CatFloat, FromFloat(v))
}

// TableSaveStringAnswer writes a string into an answer slot.
func TableSaveStringAnswer(b *AnswerBlock, slot int, v string) {
	b.save(slot, CatString, FromString(v))
}

// TableSaveCharAnswer writes a code point into an answer slot.
func TableSaveCharAnswer(b *AnswerBlock, slot int, v rune) { b.save(slot, CatChar, FromChar(v)) }

// TableSaveEnumAnswer writes an enum ordinal into an answer slot.
func TableSaveEnumAnswer(b *AnswerBlock, slot int, ordinal int64) {
	b.save(slot, CatEnum, FromEnum(ordinal))
}

// TableSaveGenAnswer writes a generic term into an answer slot. The type
// descriptor travels with the slot so restore can hand it back.
func TableSaveGenAnswer(b *AnswerBlock, slot int, info *TypeInfo, t Term) {
	b.save(slot, CatGeneric, FromTerm(t, info))
}

// TableRestoreIntAnswer reads an integer answer slot back out.
func TableRestoreIntAnswer(b *AnswerBlock, slot int) int64 { return b.restore(slot, CatInt).Int() }

// TableRestoreFloatAnswer reads a float answer slot back out.
func TableRestoreFloatAnswer(b *AnswerBlock, slot int) float64 {
	return b.restore(slot, CatFloat).Float()
}

// TableRestoreStringAnswer reads a string answer slot back out.
func TableRestoreStringAnswer(b *AnswerBlock, slot int) string {
	return b.restore(slot, CatString).Str()
}

// TableRestoreCharAnswer reads a code point answer slot back out.
func TableRestoreCharAnswer(b *AnswerBlock, slot int) rune { return b.restore(slot, CatChar).Char() }

// TableRestoreEnumAnswer reads an enum ordinal answer slot back out.
func TableRestoreEnumAnswer(b *AnswerBlock, slot int) int64 { return b.restore(slot, CatEnum).Enum() }

// TableRestoreGenAnswer reads a generic answer slot back out, together with
// the type descriptor it was saved under.
func TableRestoreGenAnswer(b *AnswerBlock, slot int) (Term, *TypeInfo) {
	return b.restore(slot, CatGeneric).TermValue()
}
