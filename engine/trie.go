package engine

import (
	"math"
	"sync"
	"sync/atomic"
)

// ---------------------------------------------------------------------------
// Trie: discrimination trie over argument values
// ---------------------------------------------------------------------------

// Trie is one discrimination trie instance: the call trie of a ProcTable or
// the answer trie of a TableEntry. A path from the root is uniquely
// determined by the ordered tuple of argument values inserted along it, and
// lookup-insert is idempotent: re-inserting the same tuple revisits the same
// nodes and creates nothing.
//
// Tries are append-only for the life of the process. Nodes are never freed,
// and backtracking past the insertion that created a node does not remove
// it.
type Trie struct {
	mu    sync.Mutex
	root  *TrieNode
	nodes atomic.Int64 // nodes created, root excluded
}

// NewTrie creates an empty trie with a fresh root.
func NewTrie() *Trie {
	return &Trie{root: newTrieNode()}
}

// Root returns the trie root, the starting node of every lookup-insert
// sequence.
func (t *Trie) Root() *TrieNode { return t.root }

// NodeCount returns the number of child nodes created so far.
func (t *Trie) NodeCount() int64 { return t.nodes.Load() }

// TrieNode is one discrimination step on one argument position. Child
// storage is allocated lazily and only for the one category actually used at
// this depth; the transformation guarantees every caller discriminates a
// given position with the same category. Float children are keyed by IEEE
// 754 bit pattern, enum children are dense and indexed by ordinal, and
// generic children are keyed by the structural key of the term.
type TrieNode struct {
	intKids   map[int64]*TrieNode
	floatKids map[uint64]*TrieNode
	strKids   map[string]*TrieNode
	charKids  map[rune]*TrieNode
	enumKids  []*TrieNode
	genKids   map[[32]byte]*TrieNode

	// entry links an accepting node of a call trie to its table entry.
	entry *TableEntry

	// block links an accepting node of an answer trie to its answer block.
	// A non-nil occupied marker means the output tuple was seen before.
	block *AnswerBlock

	// occupied marks an answer-trie accepting node whose answer has been
	// recorded. Distinct from block: procedures with no output slots record
	// answers without blocks.
	occupied bool
}

func newTrieNode() *TrieNode { return &TrieNode{} }

// LookupInsertInt returns the child of node for an integer value, creating
// it if absent.
func (t *Trie) LookupInsertInt(node *TrieNode, v int64) *TrieNode {
	t.mu.Lock()
	defer t.mu.Unlock()
	if node.intKids == nil {
		node.intKids = make(map[int64]*TrieNode)
	}
	child, ok := node.intKids[v]
	if !ok {
		child = newTrieNode()
		node.intKids[v] = child
		t.nodes.Add(1)
	}
	return child
}

// LookupInsertFloat returns the child of node for a float value, creating it
// if absent. Discrimination is on the IEEE 754 bit pattern, so negative zero
// and NaN payloads are distinct keys.
func (t *Trie) LookupInsertFloat(node *TrieNode, v float64) *TrieNode {
	t.mu.Lock()
	defer t.mu.Unlock()
	if node.floatKids == nil {
		node.floatKids = make(map[uint64]*TrieNode)
	}
	bits := math.Float64bits(v)
	child, ok := node.floatKids[bits]
	if !ok {
		child = newTrieNode()
		node.floatKids[bits] = child
		t.nodes.Add(1)
	}
	return child
}

// LookupInsertString returns the child of node for a string value, creating
// it if absent.
func (t *Trie) LookupInsertString(node *TrieNode, v string) *TrieNode {
	t.mu.Lock()
	defer t.mu.Unlock()
	if node.strKids == nil {
		node.strKids = make(map[string]*TrieNode)
	}
	child, ok := node.strKids[v]
	if !ok {
		child = newTrieNode()
		node.strKids[v] = child
		t.nodes.Add(1)
	}
	return child
}

// LookupInsertChar returns the child of node for a code point, creating it
// if absent.
func (t *Trie) LookupInsertChar(node *TrieNode, v rune) *TrieNode {
	t.mu.Lock()
	defer t.mu.Unlock()
	if node.charKids == nil {
		node.charKids = make(map[rune]*TrieNode)
	}
	child, ok := node.charKids[v]
	if !ok {
		child = newTrieNode()
		node.charKids[v] = child
		t.nodes.Add(1)
	}
	return child
}

// LookupInsertEnum returns the child of node for an enum ordinal, creating
// it if absent. The ordinal range is known at transformation time, so
// children live in a dense array indexed by ordinal. An out-of-range ordinal
// means the transformation emitted a wrong range and is fatal.
func (t *Trie) LookupInsertEnum(node *TrieNode, enumRange, ordinal int64) *TrieNode {
	if ordinal < 0 || ordinal >= enumRange {
		fatal("enum ordinal %d outside declared range %d", ordinal, enumRange)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if node.enumKids == nil {
		node.enumKids = make([]*TrieNode, enumRange)
	}
	child := node.enumKids[ordinal]
	if child == nil {
		child = newTrieNode()
		node.enumKids[ordinal] = child
		t.nodes.Add(1)
	}
	return child
}

// LookupInsertGen returns the child of node for a generic term under the
// given type descriptor, creating it if absent. The descriptor participates
// in the key: equal encodings under different types occupy different
// children. A term the canonical encoder rejects is a configuration error
// the transformation should have caught, and is fatal here.
func (t *Trie) LookupInsertGen(node *TrieNode, info *TypeInfo, term Term) *TrieNode {
	if info == nil {
		fatal("generic argument without a type descriptor")
	}
	key, err := info.StructuralKey(term)
	if err != nil {
		fatal("%v", err)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if node.genKids == nil {
		node.genKids = make(map[[32]byte]*TrieNode)
	}
	child, ok := node.genKids[key]
	if !ok {
		child = newTrieNode()
		node.genKids[key] = child
		t.nodes.Add(1)
	}
	return child
}

// LookupInsertValue dispatches to the category-specific primitive for one
// argument value. desc qualifies the enum and generic categories.
func (t *Trie) LookupInsertValue(node *TrieNode, desc ArgDesc, v Value) *TrieNode {
	switch desc.Cat {
	case CatInt:
		return t.LookupInsertInt(node, v.Int())
	case CatFloat:
		return t.LookupInsertFloat(node, v.Float())
	case CatString:
		return t.LookupInsertString(node, v.Str())
	case CatChar:
		return t.LookupInsertChar(node, v.Char())
	case CatEnum:
		return t.LookupInsertEnum(node, desc.EnumRange, v.Enum())
	case CatGeneric:
		term, info := v.TermValue()
		if info == nil {
			info = desc.Info
		}
		return t.LookupInsertGen(node, info, term)
	default:
		fatal("argument with unknown type category %d", desc.Cat)
		return nil
	}
}
