package engine

import (
	"strings"
	"sync"
)

// ---------------------------------------------------------------------------
// AnswerStore: per-entry answer trie, blocks, and ordered answer list
// ---------------------------------------------------------------------------

// AnswerStore holds the answers recorded for one table entry: a nested trie
// over output values used purely for duplicate detection, and the ordered
// list of answer blocks used for replay. Like everything else in the table,
// it is append-only for the life of the process.
type AnswerStore struct {
	entry *TableEntry
	trie  *Trie

	mu   sync.Mutex
	list []*AnswerBlock
}

func newAnswerStore(e *TableEntry) *AnswerStore {
	return &AnswerStore{entry: e, trie: NewTrie()}
}

// Trie returns the duplicate-detection trie keyed on output values.
func (as *AnswerStore) Trie() *Trie { return as.trie }

// Count returns the number of distinct answers recorded.
func (as *AnswerStore) Count() int {
	as.mu.Lock()
	defer as.mu.Unlock()
	return len(as.list)
}

// Blocks returns a snapshot of the answer list in creation order.
func (as *AnswerStore) Blocks() []*AnswerBlock {
	as.mu.Lock()
	defer as.mu.Unlock()
	out := make([]*AnswerBlock, len(as.list))
	copy(out, as.list)
	return out
}

// NewAnswer claims the accepting node reached by inserting an output tuple
// into the answer trie. If the node is already occupied the tuple is a
// duplicate: nothing is allocated and (nil, false) is returned. Otherwise a
// fresh block with the given slot count is created, appended to the answer
// list, and returned. Discarding duplicates here is what keeps each answer
// from being stored or replayed twice.
func (as *AnswerStore) NewAnswer(tip *TrieNode, slots int) (*AnswerBlock, bool) {
	as.mu.Lock()
	defer as.mu.Unlock()
	if tip.occupied {
		as.entry.proc.store.duplicates.Add(1)
		return nil, false
	}
	if max := as.entry.proc.store.maxAnswers.Load(); max > 0 && int64(len(as.list)) >= max {
		fatal("%s exceeded the configured answer limit %d", as.entry.proc.ID, max)
	}
	tip.occupied = true
	block := &AnswerBlock{
		proc:  as.entry.proc,
		seq:   len(as.list),
		slots: make([]Value, slots),
	}
	tip.block = block
	as.list = append(as.list, block)
	as.entry.proc.store.answers.Add(1)
	return block, true
}

// Insert runs the whole answer-side sequence for one output tuple: the
// per-type lookup-insert steps over the answer trie, the duplicate check,
// and on a new answer the per-type saves into a fresh block. Returns the
// block and whether it was new.
func (as *AnswerStore) Insert(outputs []Value) (*AnswerBlock, bool) {
	descs := as.entry.proc.Outputs
	if len(outputs) != len(descs) {
		fatal("%s answer with %d output values, expected %d",
			as.entry.proc.ID, len(outputs), len(descs))
	}
	node := as.trie.Root()
	for i, v := range outputs {
		node = as.trie.LookupInsertValue(node, descs[i], v)
	}
	block, fresh := as.NewAnswer(node, len(outputs))
	if !fresh {
		return node.block, false
	}
	for i, v := range outputs {
		block.save(i, descs[i].Cat, v)
	}
	return block, true
}

// Cursor returns a replay cursor positioned at the given answer index.
// Cursors deliver answers in creation order, each exactly once, and are
// resumable: a cursor handed more answers later picks up where it left off.
func (as *AnswerStore) Cursor(start int) *AnswerCursor {
	return &AnswerCursor{store: as, next: start}
}

// AnswerCursor walks an entry's answer list in creation order.
type AnswerCursor struct {
	store *AnswerStore
	next  int
}

// Next returns the next answer block, or nil when the cursor has delivered
// everything recorded so far. A nil result is not final unless the entry is
// in a terminal state: a generator may still append answers.
func (c *AnswerCursor) Next() *AnswerBlock {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	if c.next >= len(c.store.list) {
		return nil
	}
	b := c.store.list[c.next]
	c.next++
	return b
}

// Index returns the cursor position: how many answers were consumed.
func (c *AnswerCursor) Index() int { return c.next }

// ---------------------------------------------------------------------------
// AnswerBlock: one stored answer
// ---------------------------------------------------------------------------

// AnswerBlock is a fixed-size sequence of output slots for one distinct
// answer, immutable once its saves have run. The proc back-pointer is the
// bookkeeping slot declarative debugging reads to recover slot types.
type AnswerBlock struct {
	proc  *ProcTable
	seq   int
	slots []Value
}

// Seq returns the block's position in creation order.
func (b *AnswerBlock) Seq() int { return b.seq }

// Slots returns the number of output slots.
func (b *AnswerBlock) Slots() int { return len(b.slots) }

// save writes one slot, checking the category the transformation declared.
func (b *AnswerBlock) save(slot int, cat TypeCategory, v Value) {
	if slot < 0 || slot >= len(b.slots) {
		fatal("%s answer slot %d out of range %d", b.proc.ID, slot, len(b.slots))
	}
	if v.Category() != cat {
		fatal("%s answer slot %d saved as %s but declared %s", b.proc.ID, slot, v.Category(), cat)
	}
	b.slots[slot] = v
}

// restore reads one slot back, checking the expected category.
func (b *AnswerBlock) restore(slot int, cat TypeCategory) Value {
	if slot < 0 || slot >= len(b.slots) {
		fatal("%s answer slot %d out of range %d", b.proc.ID, slot, len(b.slots))
	}
	v := b.slots[slot]
	if v.Category() != cat {
		fatal("%s answer slot %d holds %s but was restored as %s", b.proc.ID, slot, v.Category(), cat)
	}
	return v
}

// Values returns a copy of all slots, for introspection and replay.
func (b *AnswerBlock) Values() []Value {
	out := make([]Value, len(b.slots))
	copy(out, b.slots)
	return out
}

// String renders the answer tuple.
func (b *AnswerBlock) String() string {
	parts := make([]string, len(b.slots))
	for i, v := range b.slots {
		parts[i] = v.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
