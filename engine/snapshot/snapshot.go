// Package snapshot captures the state of a table store as a portable,
// content-stable record: every registered procedure, every table entry with
// its status, and every answer in creation order. Snapshots serialize to
// canonical CBOR, so two stores holding the same tables produce identical
// bytes, and they can be dumped to SQLite for offline inspection.
package snapshot

import (
	"time"

	"github.com/TimothyDespair/mercury/engine"
)

// SlotValue is the wire form of one argument or answer slot. Exactly one
// payload field is meaningful, selected by Cat. Generic terms are carried as
// their structural key plus type name: enough to compare and deduplicate,
// not enough to reconstruct the term.
type SlotValue struct {
	Cat      uint8    `cbor:"1,keyasint"`
	Int      int64    `cbor:"2,keyasint,omitempty"`
	Float    float64  `cbor:"3,keyasint,omitempty"`
	Str      string   `cbor:"4,keyasint,omitempty"`
	TermKey  [32]byte `cbor:"5,keyasint,omitempty"`
	TermType string   `cbor:"6,keyasint,omitempty"`
}

// AnswerSnapshot is one answer tuple in creation order.
type AnswerSnapshot struct {
	Seq   int         `cbor:"1,keyasint"`
	Slots []SlotValue `cbor:"2,keyasint,omitempty"`
}

// EntrySnapshot is one table entry: the call key, its status, and its
// answers.
type EntrySnapshot struct {
	Key       string           `cbor:"1,keyasint"`
	Status    uint8            `cbor:"2,keyasint"`
	Succeeded bool             `cbor:"3,keyasint,omitempty"`
	Answers   []AnswerSnapshot `cbor:"4,keyasint,omitempty"`
}

// ProcSnapshot is one registered procedure with all of its entries in
// creation order.
type ProcSnapshot struct {
	Name    string          `cbor:"1,keyasint"`
	Arity   int             `cbor:"2,keyasint"`
	Kind    uint8           `cbor:"3,keyasint"`
	Method  uint8           `cbor:"4,keyasint"`
	Entries []EntrySnapshot `cbor:"5,keyasint,omitempty"`
}

// Snapshot is a full table store capture.
type Snapshot struct {
	RunID     string         `cbor:"1,keyasint,omitempty"`
	TakenUnix int64          `cbor:"2,keyasint"`
	Stats     StatsSnapshot  `cbor:"3,keyasint"`
	Procs     []ProcSnapshot `cbor:"4,keyasint,omitempty"`
}

// StatsSnapshot mirrors the store's counters at capture time.
type StatsSnapshot struct {
	Lookups     int64 `cbor:"1,keyasint,omitempty"`
	Hits        int64 `cbor:"2,keyasint,omitempty"`
	Misses      int64 `cbor:"3,keyasint,omitempty"`
	Answers     int64 `cbor:"4,keyasint,omitempty"`
	Duplicates  int64 `cbor:"5,keyasint,omitempty"`
	Suspensions int64 `cbor:"6,keyasint,omitempty"`
	Completions int64 `cbor:"7,keyasint,omitempty"`
}

// Capture walks the store and records every procedure, entry, and answer.
// Tables are append-only, so a capture taken between evaluations is exact;
// one taken concurrently with evaluation is a consistent prefix.
func Capture(store *engine.TableStore, runID string) *Snapshot {
	stats := store.Stats()
	snap := &Snapshot{
		RunID:     runID,
		TakenUnix: time.Now().Unix(),
		Stats: StatsSnapshot{
			Lookups:     stats.Lookups,
			Hits:        stats.Hits,
			Misses:      stats.Misses,
			Answers:     stats.Answers,
			Duplicates:  stats.Duplicates,
			Suspensions: stats.Suspensions,
			Completions: stats.Completions,
		},
	}
	for _, p := range store.Procs() {
		ps := ProcSnapshot{
			Name:   p.ID.Name,
			Arity:  p.ID.Arity,
			Kind:   uint8(p.ID.Kind),
			Method: uint8(p.Method),
		}
		for _, e := range p.Entries() {
			info := e.Info()
			es := EntrySnapshot{
				Key:       info.Key,
				Status:    uint8(info.Status),
				Succeeded: info.Succeeded,
			}
			for _, b := range e.Answers() {
				es.Answers = append(es.Answers, AnswerSnapshot{
					Seq:   b.Seq(),
					Slots: slotValues(b.Values()),
				})
			}
			ps.Entries = append(ps.Entries, es)
		}
		snap.Procs = append(snap.Procs, ps)
	}
	return snap
}

func slotValues(vals []engine.Value) []SlotValue {
	out := make([]SlotValue, len(vals))
	for i, v := range vals {
		sv := SlotValue{Cat: uint8(v.Category())}
		switch v.Category() {
		case engine.CatInt, engine.CatChar, engine.CatEnum:
			sv.Int = v.Int()
		case engine.CatFloat:
			sv.Float = v.Float()
		case engine.CatString:
			sv.Str = v.Str()
		case engine.CatGeneric:
			t, info := v.TermValue()
			if info != nil {
				sv.TermType = info.Name
				if key, err := info.StructuralKey(t); err == nil {
					sv.TermKey = key
				}
			}
		}
		out[i] = sv
	}
	return out
}
