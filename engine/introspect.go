package engine

// ---------------------------------------------------------------------------
// Read-only introspection for debugger and profiler front ends
// ---------------------------------------------------------------------------
//
// Everything here traverses table state without mutating it. Front ends
// (and the snapshot package) are expected to use only this surface.

// EntryInfo is a flat, copyable view of one table entry.
type EntryInfo struct {
	Proc        ProcID
	Method      EvalMethod
	Key         string
	Status      Status
	Succeeded   bool
	Answers     int
	Suspensions int
}

// ForEachEntry visits every table entry in every registered procedure,
// procedures sorted by name and entries in creation order. Returning false
// from fn stops the walk.
func (s *TableStore) ForEachEntry(fn func(*TableEntry) bool) {
	for _, p := range s.Procs() {
		for _, e := range p.Entries() {
			if !fn(e) {
				return
			}
		}
	}
}

// Info returns a point-in-time view of the entry.
func (e *TableEntry) Info() EntryInfo {
	return EntryInfo{
		Proc:        e.proc.ID,
		Method:      e.proc.Method,
		Key:         e.key,
		Status:      e.Status(),
		Succeeded:   e.Status() == StatusSucceeded || e.Succeeded(),
		Answers:     e.answerCount(),
		Suspensions: len(e.Suspensions()),
	}
}

// Answers returns the entry's answer blocks in creation order, or nil if no
// answer store exists yet. The blocks themselves are immutable.
func (e *TableEntry) Answers() []*AnswerBlock {
	as := e.answers.Load()
	if as == nil {
		return nil
	}
	return as.Blocks()
}

// Suspensions returns the consumers currently parked on the entry's
// generator. Empty once the entry completes.
func (e *TableEntry) Suspensions() []*Suspension {
	g := e.gen.Load()
	if g == nil {
		return nil
	}
	g.mu.Lock()
	out := make([]*Suspension, len(g.susps))
	copy(out, g.susps)
	g.mu.Unlock()
	return out
}
