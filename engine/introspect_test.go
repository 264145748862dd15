package engine

import "testing"

func TestForEachEntryWalksAll(t *testing.T) {
	store := NewTableStore()
	fib := testProc(t, store, "fib", EvalMemoDet,
		[]ArgDesc{{Cat: CatInt}}, []ArgDesc{{Cat: CatInt}})
	rev := testProc(t, store, "rev", EvalMemoDet,
		[]ArgDesc{{Cat: CatString}}, []ArgDesc{{Cat: CatString}})

	for i := 0; i < 3; i++ {
		fib.LookupInsert([]Value{FromInt(int64(i))})
	}
	rev.LookupInsert([]Value{FromString("abc")})

	var seen []ProcID
	store.ForEachEntry(func(e *TableEntry) bool {
		seen = append(seen, e.Proc().ID)
		return true
	})
	if len(seen) != 4 {
		t.Fatalf("walked %d entries, want 4", len(seen))
	}
	// Procedures sorted by name, entries in creation order.
	for i := 0; i < 3; i++ {
		if seen[i].Name != "fib" {
			t.Errorf("entry %d from %s, want fib", i, seen[i])
		}
	}
	if seen[3].Name != "rev" {
		t.Errorf("entry 3 from %s, want rev", seen[3])
	}
}

func TestForEachEntryEarlyStop(t *testing.T) {
	store := NewTableStore()
	p := testProc(t, store, "p", EvalLoopcheck, []ArgDesc{{Cat: CatInt}}, nil)
	for i := 0; i < 5; i++ {
		p.LookupInsert([]Value{FromInt(int64(i))})
	}
	n := 0
	store.ForEachEntry(func(e *TableEntry) bool {
		n++
		return n < 2
	})
	if n != 2 {
		t.Errorf("visited %d entries after stop, want 2", n)
	}
}

func TestEntryInfoSnapshot(t *testing.T) {
	store := NewTableStore()
	p := testProc(t, store, "sq", EvalMemoDet,
		[]ArgDesc{{Cat: CatInt}}, []ArgDesc{{Cat: CatInt}})
	e := p.LookupInsert([]Value{FromInt(7)})

	info := e.Info()
	if info.Proc.Name != "sq" || info.Method != EvalMemoDet {
		t.Errorf("info identity = %s %s", info.Proc, info.Method)
	}
	if info.Status != StatusInactive || info.Answers != 0 {
		t.Errorf("fresh entry info = %+v", info)
	}

	if st := TableMemoDetSetup(e); st != MemoFirstCall {
		t.Fatalf("setup = %v, want first call", st)
	}
	TableMemoSaveAnswer(e, []Value{FromInt(49)})

	info = e.Info()
	if info.Status != StatusSucceeded || !info.Succeeded || info.Answers != 1 {
		t.Errorf("settled entry info = %+v", info)
	}
	if got := e.Answers(); len(got) != 1 || TableRestoreIntAnswer(got[0], 0) != 49 {
		t.Errorf("Answers() = %v", got)
	}
}

func TestSuspensionsEmptyWithoutGenerator(t *testing.T) {
	store := NewTableStore()
	p := testProc(t, store, "p", EvalMemoDet,
		[]ArgDesc{{Cat: CatInt}}, []ArgDesc{{Cat: CatInt}})
	e := p.LookupInsert([]Value{FromInt(1)})
	if s := e.Suspensions(); s != nil {
		t.Errorf("Suspensions() = %v, want nil", s)
	}
}
