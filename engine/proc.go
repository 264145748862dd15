package engine

import (
	"fmt"
	"strings"
	"sync"
)

// ---------------------------------------------------------------------------
// ProcTable: per-procedure tabling state and metadata
// ---------------------------------------------------------------------------

// ProcKind distinguishes predicates from functions in diagnostics.
type ProcKind uint8

const (
	// KindPredicate is a Horn-clause predicate.
	KindPredicate ProcKind = iota
	// KindFunction is a function whose result is its final argument.
	KindFunction
)

// String returns "predicate" or "function".
func (k ProcKind) String() string {
	if k == KindFunction {
		return "function"
	}
	return "predicate"
}

// ProcID names a tabled procedure: module-qualified name, arity, and kind.
// It appears verbatim in infinite-recursion aborts and introspection output.
type ProcID struct {
	Name  string
	Arity int
	Kind  ProcKind
}

// String renders the id in the usual name/arity form.
func (p ProcID) String() string {
	return fmt.Sprintf("%s %s/%d", p.Kind, p.Name, p.Arity)
}

// ArgDesc describes one tabled argument position. The category is decided by
// the transformation layer at compile time; EnumRange and Info qualify the
// enum and generic categories respectively.
type ArgDesc struct {
	Cat       TypeCategory
	EnumRange int64     // exclusive upper bound on ordinals, CatEnum only
	Info      *TypeInfo // type descriptor, CatGeneric only
}

// TableTrieStep records, for one input argument position, which
// lookup-insert primitive the transformation emitted. The step list is
// write-once metadata produced at registration and read by debugging tools
// to reconstruct argument types during replay. It is never consulted on the
// hot path.
type TableTrieStep struct {
	Cat       TypeCategory
	EnumRange int64
	TypeName  string // qualified type name for CatGeneric steps
}

// String renders the step the way trace output names primitives.
func (s TableTrieStep) String() string {
	switch s.Cat {
	case CatEnum:
		return fmt.Sprintf("enum(%d)", s.EnumRange)
	case CatGeneric:
		return fmt.Sprintf("gen(%s)", s.TypeName)
	default:
		return s.Cat.String()
	}
}

// ProcTable is the process-lifetime tabling state for one tabled procedure:
// the call trie root, the argument layout, and the evaluation method the
// transformation chose. ProcTables are created once, at registration, and
// never destroyed during a run.
type ProcTable struct {
	ID      ProcID
	Method  EvalMethod
	Inputs  []ArgDesc
	Outputs []ArgDesc

	// Steps is the table trie step descriptor list, one per input.
	Steps []TableTrieStep

	store *TableStore
	trie  *Trie

	// mu guards entry creation and the entries slice. Entries themselves
	// use atomic status words, so readers of settled state need no lock.
	mu      sync.Mutex
	entries []*TableEntry
}

// newProcTable builds the proc table and derives its trie step metadata.
func newProcTable(store *TableStore, id ProcID, method EvalMethod, inputs, outputs []ArgDesc) *ProcTable {
	p := &ProcTable{
		ID:      id,
		Method:  method,
		Inputs:  inputs,
		Outputs: outputs,
		store:   store,
		trie:    NewTrie(),
	}
	p.Steps = make([]TableTrieStep, len(inputs))
	for i, in := range inputs {
		step := TableTrieStep{Cat: in.Cat, EnumRange: in.EnumRange}
		if in.Info != nil {
			step.TypeName = in.Info.Name
		}
		p.Steps[i] = step
	}
	return p
}

// CallTrie returns the per-procedure call trie. Generated code starts every
// lookup-insert sequence at its root.
func (p *ProcTable) CallTrie() *Trie { return p.trie }

// Root returns the call trie root node.
func (p *ProcTable) Root() *TrieNode { return p.trie.Root() }

// Store returns the owning table store.
func (p *ProcTable) Store() *TableStore { return p.store }

// Entries returns a snapshot of the proc's table entries in creation order.
// Read-only: callers must not mutate entry state through it.
func (p *ProcTable) Entries() []*TableEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*TableEntry, len(p.entries))
	copy(out, p.entries)
	return out
}

// describeArgs renders an input tuple for diagnostics and entry keys.
func describeArgs(args []Value) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return strings.Join(parts, ", ")
}
