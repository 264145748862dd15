package engine

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
)

// ---------------------------------------------------------------------------
// TableStore: process-wide tabling state
// ---------------------------------------------------------------------------

// TableStore owns every ProcTable and, through them, every table entry and
// answer created during a run. It is shared by all machines: engines each
// carry their own execution stacks, but they consult the same store, so an
// answer computed by one machine is visible to all.
//
// The store is passed explicitly rather than hidden in a package global so
// tests can build an isolated store per case.
type TableStore struct {
	mu    sync.Mutex
	procs map[string]*ProcTable

	// maxAnswers, when positive, aborts evaluation if a single call records
	// more answers. Guards against runaway minimal-model generators.
	maxAnswers atomic.Int64

	// Statistics, updated atomically on the hot path.
	lookups     atomic.Int64
	hits        atomic.Int64
	misses      atomic.Int64
	answers     atomic.Int64
	duplicates  atomic.Int64
	suspensions atomic.Int64
	completions atomic.Int64
}

// NewTableStore creates an empty store.
func NewTableStore() *TableStore {
	return &TableStore{procs: make(map[string]*ProcTable)}
}

// Register creates the ProcTable for a tabled procedure. The transformation
// layer calls this once per procedure during program initialization; a
// second registration under the same name/arity is a configuration error.
func (s *TableStore) Register(id ProcID, method EvalMethod, inputs, outputs []ArgDesc) (*ProcTable, error) {
	if id.Arity != len(inputs)+len(outputs) {
		return nil, fmt.Errorf("engine: %s declares arity %d but %d input and %d output positions",
			id, id.Arity, len(inputs), len(outputs))
	}
	for i, in := range inputs {
		if in.Cat == CatEnum && in.EnumRange <= 0 {
			return nil, fmt.Errorf("engine: %s input %d is enum with empty range", id, i)
		}
		if in.Cat == CatGeneric && in.Info == nil {
			return nil, fmt.Errorf("engine: %s input %d is generic without a type descriptor", id, i)
		}
	}
	key := fmt.Sprintf("%s/%d", id.Name, id.Arity)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.procs[key]; dup {
		return nil, fmt.Errorf("engine: procedure %s registered twice", key)
	}
	p := newProcTable(s, id, method, inputs, outputs)
	s.procs[key] = p
	tableLog.Debugf("registered %s as %s", id, method)
	return p, nil
}

// SetMaxAnswers caps the number of answers any single call may record; zero
// removes the cap. Exceeding the cap is a fatal table error.
func (s *TableStore) SetMaxAnswers(n int64) {
	s.maxAnswers.Store(n)
}

// Proc returns the ProcTable registered under name/arity, or nil.
func (s *TableStore) Proc(name string, arity int) *ProcTable {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.procs[fmt.Sprintf("%s/%d", name, arity)]
}

// Procs returns all registered ProcTables, sorted by name for deterministic
// introspection output.
func (s *TableStore) Procs() []*ProcTable {
	s.mu.Lock()
	out := make([]*ProcTable, 0, len(s.procs))
	for _, p := range s.procs {
		out = append(out, p)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].ID.Name != out[j].ID.Name {
			return out[i].ID.Name < out[j].ID.Name
		}
		return out[i].ID.Arity < out[j].ID.Arity
	})
	return out
}

// Stats is a point-in-time snapshot of store counters.
type Stats struct {
	Lookups     int64 // lookup-insert sequences completed
	Hits        int64 // sequences that found an existing entry
	Misses      int64 // sequences that created a fresh entry
	Answers     int64 // answer blocks recorded
	Duplicates  int64 // answers rejected as duplicates
	Suspensions int64 // consumer suspensions created
	Completions int64 // generator SCCs completed
}

// Stats returns current counters.
func (s *TableStore) Stats() Stats {
	return Stats{
		Lookups:     s.lookups.Load(),
		Hits:        s.hits.Load(),
		Misses:      s.misses.Load(),
		Answers:     s.answers.Load(),
		Duplicates:  s.duplicates.Load(),
		Suspensions: s.suspensions.Load(),
		Completions: s.completions.Load(),
	}
}

// ---------------------------------------------------------------------------
// TableEntry: call-table tip state
// ---------------------------------------------------------------------------

// TableEntry is the call-table tip for one distinct input tuple of one
// tabled procedure. Entries are created on first lookup-insert of an unseen
// tuple and never destroyed within a run; the surrounding search may
// backtrack past the call that created an entry, but the entry and anything
// recorded in it survive.
type TableEntry struct {
	proc   *ProcTable
	key    string // rendered input tuple, diagnostics only
	status atomic.Int32

	// succeeded records success for procedures with zero output slots, in
	// place of an empty answer block.
	succeeded atomic.Bool

	// answers is created lazily on first use.
	answers atomic.Pointer[AnswerStore]

	// gen is the minimal-model generator state, nil for other methods and
	// for entries whose generator has completed and been detached. Written
	// by the owning machine; foreign machines and introspection observe it
	// through the atomic pointer.
	gen atomic.Pointer[generator]

	// settledCh is closed when the entry reaches a terminal memo or
	// minimal-model state, waking machines blocked in WaitSettled.
	settledOnce sync.Once
	settledCh   chan struct{}
}

// LookupInsert runs the full lookup-insert sequence for one input tuple and
// returns the entry at the call-table tip, creating it if the tuple was
// never seen. Idempotent: the same tuple always yields the same entry.
func (p *ProcTable) LookupInsert(args []Value) *TableEntry {
	if len(args) != len(p.Inputs) {
		fatal("%s called with %d input arguments, expected %d", p.ID, len(args), len(p.Inputs))
	}
	node := p.trie.Root()
	for i, a := range args {
		node = p.trie.LookupInsertValue(node, p.Inputs[i], a)
	}
	p.store.lookups.Add(1)

	p.mu.Lock()
	entry := node.entry
	if entry == nil {
		entry = &TableEntry{
			proc:      p,
			key:       describeArgs(args),
			settledCh: make(chan struct{}),
		}
		node.entry = entry
		p.entries = append(p.entries, entry)
		p.mu.Unlock()
		p.store.misses.Add(1)
		tableLog.Debugf("new entry %s(%s)", p.ID.Name, entry.key)
		return entry
	}
	p.mu.Unlock()
	p.store.hits.Add(1)
	return entry
}

// Proc returns the owning ProcTable.
func (e *TableEntry) Proc() *ProcTable { return e.proc }

// Key returns the rendered input tuple the entry was created for.
func (e *TableEntry) Key() string { return e.key }

// Status returns the current evaluation status.
func (e *TableEntry) Status() Status { return Status(e.status.Load()) }

// Succeeded reports the zero-output success flag.
func (e *TableEntry) Succeeded() bool { return e.succeeded.Load() }

// AnswerStore returns the entry's answer store, creating it on first use.
func (e *TableEntry) AnswerStore() *AnswerStore {
	if as := e.answers.Load(); as != nil {
		return as
	}
	as := newAnswerStore(e)
	if e.answers.CompareAndSwap(nil, as) {
		return as
	}
	return e.answers.Load()
}

// signalSettled wakes machines waiting for a terminal state.
func (e *TableEntry) signalSettled() {
	e.settledOnce.Do(func() { close(e.settledCh) })
}

// WaitSettled blocks until the entry reaches a terminal state. Used by a
// machine that finds another machine's generator active: minimal-model
// evaluation is local to one machine, so a foreign consumer waits for
// completion and then replays.
func (e *TableEntry) WaitSettled() {
	<-e.settledCh
}
