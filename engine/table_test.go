package engine

import (
	"strings"
	"testing"
)

func testProc(t *testing.T, store *TableStore, name string, method EvalMethod, inputs, outputs []ArgDesc) *ProcTable {
	t.Helper()
	p, err := store.Register(
		ProcID{Name: name, Arity: len(inputs) + len(outputs), Kind: KindPredicate},
		method, inputs, outputs)
	if err != nil {
		t.Fatalf("Register(%s): %v", name, err)
	}
	return p
}

func TestRegisterValidation(t *testing.T) {
	store := NewTableStore()

	_, err := store.Register(ProcID{Name: "p", Arity: 3}, EvalMemoDet,
		[]ArgDesc{{Cat: CatInt}}, []ArgDesc{{Cat: CatInt}})
	if err == nil || !strings.Contains(err.Error(), "arity") {
		t.Errorf("arity mismatch not rejected: %v", err)
	}

	_, err = store.Register(ProcID{Name: "q", Arity: 1}, EvalMemoDet,
		[]ArgDesc{{Cat: CatEnum, EnumRange: 0}}, nil)
	if err == nil || !strings.Contains(err.Error(), "enum") {
		t.Errorf("empty enum range not rejected: %v", err)
	}

	_, err = store.Register(ProcID{Name: "r", Arity: 1}, EvalMemoDet,
		[]ArgDesc{{Cat: CatGeneric}}, nil)
	if err == nil || !strings.Contains(err.Error(), "type descriptor") {
		t.Errorf("generic without descriptor not rejected: %v", err)
	}

	testProc(t, store, "dup", EvalMemoDet, []ArgDesc{{Cat: CatInt}}, nil)
	_, err = store.Register(ProcID{Name: "dup", Arity: 1}, EvalMemoDet,
		[]ArgDesc{{Cat: CatInt}}, nil)
	if err == nil || !strings.Contains(err.Error(), "twice") {
		t.Errorf("duplicate registration not rejected: %v", err)
	}
}

func TestLookupInsertSameEntry(t *testing.T) {
	store := NewTableStore()
	p := testProc(t, store, "fib", EvalMemoDet,
		[]ArgDesc{{Cat: CatInt}}, []ArgDesc{{Cat: CatInt}})

	e1 := p.LookupInsert([]Value{FromInt(30)})
	e2 := p.LookupInsert([]Value{FromInt(30)})
	if e1 != e2 {
		t.Error("same input tuple produced distinct table entries")
	}
	if e3 := p.LookupInsert([]Value{FromInt(31)}); e3 == e1 {
		t.Error("distinct input tuples share a table entry")
	}

	stats := store.Stats()
	if stats.Lookups != 3 || stats.Misses != 2 || stats.Hits != 1 {
		t.Errorf("stats lookups/misses/hits = %d/%d/%d, want 3/2/1",
			stats.Lookups, stats.Misses, stats.Hits)
	}
	if nodes := p.CallTrie().NodeCount(); nodes != 2 {
		t.Errorf("expected 2 call trie nodes, got %d", nodes)
	}
}

func TestEntryInitialState(t *testing.T) {
	store := NewTableStore()
	p := testProc(t, store, "p", EvalMemoSemi,
		[]ArgDesc{{Cat: CatString}}, nil)

	e := p.LookupInsert([]Value{FromString("k")})
	if e.Status() != StatusInactive {
		t.Errorf("fresh entry status = %s, want inactive", e.Status())
	}
	if e.Succeeded() {
		t.Error("fresh entry reports success")
	}
	if e.Key() != `"k"` {
		t.Errorf("entry key = %q", e.Key())
	}
}

func TestProcsSorted(t *testing.T) {
	store := NewTableStore()
	testProc(t, store, "zeta", EvalLoopcheck, []ArgDesc{{Cat: CatInt}}, nil)
	testProc(t, store, "alpha", EvalLoopcheck, []ArgDesc{{Cat: CatInt}}, nil)

	procs := store.Procs()
	if len(procs) != 2 || procs[0].ID.Name != "alpha" || procs[1].ID.Name != "zeta" {
		t.Errorf("Procs not sorted by name: %v", []string{procs[0].ID.Name, procs[1].ID.Name})
	}
}
